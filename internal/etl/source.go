package etl

import (
	"context"
	"database/sql"
	"fmt"
)

// queryIDSet collects the single-column integer result of an id projection.
func queryIDSet(ctx context.Context, db *sql.DB, query string, args ...any) (map[int64]struct{}, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// queryIDs collects the single-column integer result preserving query order.
func queryIDs(ctx context.Context, db *sql.DB, query string, args ...any) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// pageError wraps a paging query failure with its entity for the engine log.
func pageError(entity string, err error) error {
	return fmt.Errorf("query %s page: %w", entity, err)
}

package etl

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

// CategoryExtractor replicates the Categories table. Categories carry no
// modification marker, so every pass re-reads the full active snapshot,
// paging by id only; the engine registers it as a full-snapshot entity.
type CategoryExtractor struct {
	DB  *sql.DB
	Log *logrus.Entry
}

func NewCategoryExtractor(db *sql.DB, log *logrus.Entry) *CategoryExtractor {
	return &CategoryExtractor{DB: db, Log: log}
}

func (e *CategoryExtractor) Entity() string { return CollCategories }

func (e *CategoryExtractor) ChangedPage(ctx context.Context, cur Cursor, limit int) (Page, error) {
	const q = `
SELECT TOP (@p1) CategoryId, Name, Description, IsActive, Type
FROM Categories
WHERE IsActive = 1 AND CategoryId > @p2
ORDER BY CategoryId`

	rows, err := e.DB.QueryContext(ctx, q, limit, cur.AfterID)
	if err != nil {
		return Page{}, pageError(CollCategories, err)
	}
	defer rows.Close()

	page := Page{Next: cur}
	scanned := 0
	for rows.Next() {
		scanned++
		var (
			id                      int64
			name, description, typ sql.NullString
			isActive                bool
		)
		if err := rows.Scan(&id, &name, &description, &isActive, &typ); err != nil {
			e.Log.Errorf("skipping malformed category row: %v", err)
			page.Skipped++
			continue
		}
		page.Next.AfterID = id
		page.Docs = append(page.Docs, &models.CategoryDoc{
			ID:          id,
			CategoryID:  id,
			Name:        utils.Str(name),
			Description: utils.Str(description),
			Type:        utils.Str(typ),
			IsActive:    isActive,
		})
	}
	if err := rows.Err(); err != nil {
		return Page{}, pageError(CollCategories, err)
	}
	page.HasMore = scanned == limit
	return page, nil
}

func (e *CategoryExtractor) LiveIDs(ctx context.Context) (map[int64]struct{}, error) {
	return queryIDSet(ctx, e.DB, `SELECT CategoryId FROM Categories WHERE IsActive = 1`)
}

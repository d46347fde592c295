package etl

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

// ExpenseExtractor replicates the Expenses table. Expenses are never
// soft-deleted; a row is live until it is removed from the source.
type ExpenseExtractor struct {
	DB  *sql.DB
	Log *logrus.Entry
}

func NewExpenseExtractor(db *sql.DB, log *logrus.Entry) *ExpenseExtractor {
	return &ExpenseExtractor{DB: db, Log: log}
}

func (e *ExpenseExtractor) Entity() string { return CollExpenses }

func (e *ExpenseExtractor) ChangedPage(ctx context.Context, cur Cursor, limit int) (Page, error) {
	const q = `
SELECT TOP (@p1)
       ExpenseId, Reason, Amount, [Date], Notes, Category, IsRecurring, CreatedAt, UpdatedAt
FROM Expenses
WHERE COALESCE(UpdatedAt, CreatedAt) > @p2
   OR (COALESCE(UpdatedAt, CreatedAt) = @p2 AND ExpenseId > @p3)
ORDER BY COALESCE(UpdatedAt, CreatedAt), ExpenseId`

	rows, err := e.DB.QueryContext(ctx, q, limit, cur.Since, cur.AfterID)
	if err != nil {
		return Page{}, pageError(CollExpenses, err)
	}
	defer rows.Close()

	page := Page{Next: cur}
	scanned := 0
	for rows.Next() {
		scanned++
		var (
			id                      int64
			reason, notes, category sql.NullString
			amount                  sql.NullString
			date                    sql.NullTime
			isRecurring             bool
			createdAt, updatedAt    sql.NullTime
		)
		if err := rows.Scan(&id, &reason, &amount, &date, &notes, &category,
			&isRecurring, &createdAt, &updatedAt); err != nil {
			e.Log.Errorf("skipping malformed expense row: %v", err)
			page.Skipped++
			continue
		}

		created := utils.TimeUTC(createdAt, time.Time{})
		updated := utils.TimePtr(updatedAt)
		marker := created
		if updated != nil {
			marker = *updated
		}
		page.Next = Cursor{Since: marker, AfterID: id}

		var dec utils.DecReader
		doc := &models.ExpenseDoc{
			ID:          id,
			ExpenseID:   id,
			Reason:      utils.Str(reason),
			Amount:      dec.Read(amount),
			Date:        utils.TimeUTC(date, created),
			Notes:       utils.Str(notes),
			Category:    utils.Str(category),
			IsRecurring: isRecurring,
			CreatedAt:   created,
			UpdatedAt:   updated,
		}
		if err := dec.Err(); err != nil {
			e.Log.Errorf("skipping expense %d: %v", id, err)
			page.Skipped++
			continue
		}
		page.Docs = append(page.Docs, doc)
	}
	if err := rows.Err(); err != nil {
		return Page{}, pageError(CollExpenses, err)
	}
	page.HasMore = scanned == limit
	return page, nil
}

func (e *ExpenseExtractor) LiveIDs(ctx context.Context) (map[int64]struct{}, error) {
	return queryIDSet(ctx, e.DB, `SELECT ExpenseId FROM Expenses`)
}

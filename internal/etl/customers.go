package etl

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

// CustomerExtractor replicates the Customers table with the same
// COALESCE(UpdatedAt, CreatedAt) marker rule as products.
type CustomerExtractor struct {
	DB  *sql.DB
	Log *logrus.Entry
}

func NewCustomerExtractor(db *sql.DB, log *logrus.Entry) *CustomerExtractor {
	return &CustomerExtractor{DB: db, Log: log}
}

func (e *CustomerExtractor) Entity() string { return CollCustomers }

func (e *CustomerExtractor) ChangedPage(ctx context.Context, cur Cursor, limit int) (Page, error) {
	const q = `
SELECT TOP (@p1)
       CustomerId, Name, Phone, Email, Address, IsActive, CreatedAt, UpdatedAt, Balance
FROM Customers
WHERE IsActive = 1
  AND (COALESCE(UpdatedAt, CreatedAt) > @p2
   OR (COALESCE(UpdatedAt, CreatedAt) = @p2 AND CustomerId > @p3))
ORDER BY COALESCE(UpdatedAt, CreatedAt), CustomerId`

	rows, err := e.DB.QueryContext(ctx, q, limit, cur.Since, cur.AfterID)
	if err != nil {
		return Page{}, pageError(CollCustomers, err)
	}
	defer rows.Close()

	page := Page{Next: cur}
	scanned := 0
	for rows.Next() {
		scanned++
		var (
			id                          int64
			name, phone, email, address sql.NullString
			balance                     sql.NullString
			isActive                    bool
			createdAt, updatedAt        sql.NullTime
		)
		if err := rows.Scan(&id, &name, &phone, &email, &address, &isActive,
			&createdAt, &updatedAt, &balance); err != nil {
			e.Log.Errorf("skipping malformed customer row: %v", err)
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
		doc := &models.CustomerDoc{
			ID:         id,
			CustomerID: id,
			Name:       utils.Str(name),
			Phone:      utils.Str(phone),
			Email:      utils.Str(email),
			Address:    utils.Str(address),
			Balance:    dec.Read(balance),
			IsActive:   isActive,
			CreatedAt:  created,
			UpdatedAt:  updated,
		}
		if err := dec.Err(); err != nil {
			e.Log.Errorf("skipping customer %d: %v", id, err)
			page.Skipped++
			continue
		}
		page.Docs = append(page.Docs, doc)
	}
	if err := rows.Err(); err != nil {
		return Page{}, pageError(CollCustomers, err)
	}
	page.HasMore = scanned == limit
	return page, nil
}

func (e *CustomerExtractor) LiveIDs(ctx context.Context) (map[int64]struct{}, error) {
	return queryIDSet(ctx, e.DB, `SELECT CustomerId FROM Customers WHERE IsActive = 1`)
}

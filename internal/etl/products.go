package etl

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

// ProductExtractor replicates the Products table. The effective modification
// marker is COALESCE(UpdatedAt, CreatedAt), so rows that were never updated
// are still picked up the first time they fall inside the window. The owning
// category's name is joined in by value; downstream readers never chase the
// category reference.
type ProductExtractor struct {
	DB  *sql.DB
	Log *logrus.Entry
}

func NewProductExtractor(db *sql.DB, log *logrus.Entry) *ProductExtractor {
	return &ProductExtractor{DB: db, Log: log}
}

func (e *ProductExtractor) Entity() string { return CollProducts }

func (e *ProductExtractor) ChangedPage(ctx context.Context, cur Cursor, limit int) (Page, error) {
	const q = `
SELECT TOP (@p1)
       p.ProductId, p.Barcode, p.Name, p.Description, p.CategoryId, c.Name AS CategoryName,
       p.PurchasePrice, p.SalePrice, p.CurrentStock, p.MinimumStock,
       p.SupplierId, p.IsActive, p.CreatedAt, p.Speed, p.UpdatedAt, p.ImagePath
FROM Products AS p
LEFT JOIN Categories AS c ON c.CategoryId = p.CategoryId
WHERE p.IsActive = 1
  AND (COALESCE(p.UpdatedAt, p.CreatedAt) > @p2
   OR (COALESCE(p.UpdatedAt, p.CreatedAt) = @p2 AND p.ProductId > @p3))
ORDER BY COALESCE(p.UpdatedAt, p.CreatedAt), p.ProductId`

	rows, err := e.DB.QueryContext(ctx, q, limit, cur.Since, cur.AfterID)
	if err != nil {
		return Page{}, pageError(CollProducts, err)
	}
	defer rows.Close()

	page := Page{Next: cur}
	scanned := 0
	for rows.Next() {
		scanned++
		var (
			id                                 int64
			barcode, name, description         sql.NullString
			categoryID, supplierID             sql.NullInt64
			categoryName, speed, imagePath     sql.NullString
			purchase, sale, curStock, minStock sql.NullString
			isActive                           bool
			createdAt, updatedAt               sql.NullTime
		)
		if err := rows.Scan(&id, &barcode, &name, &description, &categoryID, &categoryName,
			&purchase, &sale, &curStock, &minStock,
			&supplierID, &isActive, &createdAt, &speed, &updatedAt, &imagePath); err != nil {
			e.Log.Errorf("skipping malformed product row: %v", err)
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
		doc := &models.ProductDoc{
			ID:            id,
			ProductID:     id,
			Barcode:       utils.Str(barcode),
			Name:          utils.Str(name),
			Description:   utils.Str(description),
			CategoryID:    categoryID.Int64,
			CategoryName:  utils.Str(categoryName),
			PurchasePrice: dec.Read(purchase),
			SalePrice:     dec.Read(sale),
			CurrentStock:  dec.Read(curStock),
			MinimumStock:  dec.Read(minStock),
			SupplierID:    utils.Int64Ptr(supplierID),
			Speed:         utils.Str(speed),
			ImagePath:     utils.Str(imagePath),
			IsActive:      isActive,
			CreatedAt:     created,
			UpdatedAt:     updated,
		}
		if err := dec.Err(); err != nil {
			e.Log.Errorf("skipping product %d: %v", id, err)
			page.Skipped++
			continue
		}
		page.Docs = append(page.Docs, doc)
	}
	if err := rows.Err(); err != nil {
		return Page{}, pageError(CollProducts, err)
	}
	page.HasMore = scanned == limit
	return page, nil
}

func (e *ProductExtractor) LiveIDs(ctx context.Context) (map[int64]struct{}, error) {
	return queryIDSet(ctx, e.DB, `SELECT ProductId FROM Products WHERE IsActive = 1`)
}

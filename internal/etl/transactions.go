package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

// MongoDB rejects documents over 16 MiB. The guard trips a megabyte early so
// a transaction with a huge detail list still ships, minus its lines.
const maxDocBytes = 15 << 20

const transactionColumns = `
       TransactionId, CustomerId, CustomerName, TotalAmount, PaidAmount,
       TransactionDate, TransactionType, Status, PaymentMethod,
       CashierId, CashierName, CashierRole, CreatedDate, ModifiedDate`

// TransactionExtractor replicates soft-deletable transactions with their
// detail lines embedded. It also serves the historical backfill, which pages
// the same rows by business date instead of modification time.
type TransactionExtractor struct {
	DB  *sql.DB
	Log *logrus.Entry
}

func NewTransactionExtractor(db *sql.DB, log *logrus.Entry) *TransactionExtractor {
	return &TransactionExtractor{DB: db, Log: log}
}

func (e *TransactionExtractor) Entity() string { return CollTransactions }

type transactionRow struct {
	id           int64
	customerID   sql.NullInt64
	customerName sql.NullString
	totalAmount  sql.NullString
	paidAmount   sql.NullString
	txDate       sql.NullTime
	txType       sql.NullInt64
	status       sql.NullInt64
	payMethod    sql.NullString
	cashierID    sql.NullInt64
	cashierName  sql.NullString
	cashierRole  sql.NullString
	createdDate  sql.NullTime
	modifiedDate sql.NullTime
}

func markerModified(r transactionRow) time.Time {
	created := utils.TimeUTC(r.createdDate, time.Time{})
	return utils.TimeUTC(r.modifiedDate, created)
}

func markerBusinessDate(r transactionRow) time.Time {
	return utils.TimeUTC(r.txDate, time.Time{})
}

func (e *TransactionExtractor) ChangedPage(ctx context.Context, cur Cursor, limit int) (Page, error) {
	q := `
SELECT TOP (@p1)` + transactionColumns + `
FROM Transactions
WHERE IsDeleted = 0
  AND (ModifiedDate > @p2 OR (ModifiedDate = @p2 AND TransactionId > @p3))
ORDER BY ModifiedDate, TransactionId`

	return e.queryPage(ctx, q, limit, cur, markerModified, limit, cur.Since, cur.AfterID)
}

// HistoryWindow pages live transactions with TransactionDate in
// [cur.Since, to), keyset-ordered by (TransactionDate, TransactionId). Rows
// exactly at cur.Since are admitted through the tie-break clause, so
// consecutive windows sharing a boundary neither skip nor duplicate rows.
func (e *TransactionExtractor) HistoryWindow(ctx context.Context, to time.Time, cur Cursor, limit int) (Page, error) {
	q := `
SELECT TOP (@p1)` + transactionColumns + `
FROM Transactions
WHERE IsDeleted = 0
  AND TransactionDate < @p2
  AND (TransactionDate > @p3 OR (TransactionDate = @p3 AND TransactionId > @p4))
ORDER BY TransactionDate, TransactionId`

	return e.queryPage(ctx, q, limit, cur, markerBusinessDate, limit, to, cur.Since, cur.AfterID)
}

func (e *TransactionExtractor) queryPage(ctx context.Context, q string, limit int, cur Cursor, markerOf func(transactionRow) time.Time, args ...any) (Page, error) {
	rows, err := e.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return Page{}, pageError(CollTransactions, err)
	}
	defer rows.Close()

	page := Page{Next: cur}
	var raws []transactionRow
	scanned := 0
	for rows.Next() {
		scanned++
		var r transactionRow
		if err := rows.Scan(&r.id, &r.customerID, &r.customerName, &r.totalAmount,
			&r.paidAmount, &r.txDate, &r.txType, &r.status, &r.payMethod,
			&r.cashierID, &r.cashierName, &r.cashierRole, &r.createdDate,
			&r.modifiedDate); err != nil {
			e.Log.Errorf("skipping malformed transaction row: %v", err)
			page.Skipped++
			continue
		}
		page.Next = Cursor{Since: markerOf(r), AfterID: r.id}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, pageError(CollTransactions, err)
	}
	rows.Close()
	page.HasMore = scanned == limit

	for _, r := range raws {
		var dec utils.DecReader
		details, err := e.detailsFor(ctx, r.id, &dec)
		if err != nil {
			return Page{}, fmt.Errorf("query transaction %d details: %w", r.id, err)
		}
		doc := transactionDocFromRow(r, details, &dec)
		if err := dec.Err(); err != nil {
			e.Log.Errorf("skipping transaction %d: %v", r.id, err)
			page.Skipped++
			continue
		}
		if err := applySizeGuard(doc, e.Log); err != nil {
			e.Log.Errorf("skipping transaction %d: %v", r.id, err)
			page.Skipped++
			continue
		}
		page.Docs = append(page.Docs, doc)
	}
	return page, nil
}

// detailsFor loads the detail lines for one transaction. Decimal conversion
// failures accumulate on dec and skip the parent; query failures fail the
// page.
func (e *TransactionExtractor) detailsFor(ctx context.Context, txID int64, dec *utils.DecReader) ([]models.TransactionDetailDoc, error) {
	const q = `
SELECT TransactionDetailId, TransactionId, ProductId, Quantity, UnitPrice, PurchasePrice, Discount, Total
FROM TransactionDetails
WHERE TransactionId = @p1
ORDER BY TransactionDetailId`

	rows, err := e.DB.QueryContext(ctx, q, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.TransactionDetailDoc, 0)
	for rows.Next() {
		var (
			detailID, parentID, productID                       int64
			quantity, unitPrice, purchasePrice, discount, total sql.NullString
		)
		if err := rows.Scan(&detailID, &parentID, &productID, &quantity,
			&unitPrice, &purchasePrice, &discount, &total); err != nil {
			return nil, err
		}
		out = append(out, models.TransactionDetailDoc{
			TransactionDetailID: detailID,
			TransactionID:       parentID,
			ProductID:           productID,
			Quantity:            dec.Read(quantity),
			UnitPrice:           dec.Read(unitPrice),
			PurchasePrice:       dec.Read(purchasePrice),
			Discount:            dec.Read(discount),
			Total:               dec.Read(total),
		})
	}
	return out, rows.Err()
}

func transactionDocFromRow(r transactionRow, details []models.TransactionDetailDoc, dec *utils.DecReader) *models.TransactionDoc {
	created := utils.TimeUTC(r.createdDate, time.Time{})
	return &models.TransactionDoc{
		ID:              r.id,
		TransactionID:   r.id,
		CustomerID:      utils.Int64Ptr(r.customerID),
		CustomerName:    utils.Str(r.customerName),
		TotalAmount:     dec.Read(r.totalAmount),
		PaidAmount:      dec.Read(r.paidAmount),
		TransactionDate: utils.TimeUTC(r.txDate, created),
		TransactionType: models.TransactionTypeName(r.txType.Int64),
		Status:          models.TransactionStatusName(r.status.Int64),
		PaymentMethod:   utils.Str(r.payMethod),
		CashierID:       utils.Int64Ptr(r.cashierID),
		CashierName:     utils.Str(r.cashierName),
		CashierRole:     utils.Str(r.cashierRole),
		CreatedDate:     created,
		ModifiedDate:    utils.TimeUTC(r.modifiedDate, created),
		Details:         details,
	}
}

// applySizeGuard drops the embedded detail lines when the marshalled document
// would not fit a MongoDB write. The header still ships; OriginalDetailCount
// keeps the source count so the document can be found and repaired later.
func applySizeGuard(doc *models.TransactionDoc, log *logrus.Entry) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal transaction %d: %w", doc.TransactionID, err)
	}
	if len(raw) <= maxDocBytes {
		return nil
	}
	log.Warnf("transaction %d is %d bytes, dropping %d detail lines",
		doc.TransactionID, len(raw), len(doc.Details))
	doc.OriginalDetailCount = len(doc.Details)
	doc.Details = []models.TransactionDetailDoc{}
	doc.DetailsRemovedForSize = true
	return nil
}

func (e *TransactionExtractor) SoftDeletedIDs(ctx context.Context, since time.Time) ([]int64, error) {
	return queryIDs(ctx, e.DB,
		`SELECT TransactionId FROM Transactions WHERE IsDeleted = 1 AND ModifiedDate > @p1`, since)
}

func (e *TransactionExtractor) LiveIDs(ctx context.Context) (map[int64]struct{}, error) {
	return queryIDSet(ctx, e.DB, `SELECT TransactionId FROM Transactions WHERE IsDeleted = 0`)
}

// HistoryBounds reports the business-date range and row count of the live
// transaction history. An empty table returns zero times and a zero count.
func (e *TransactionExtractor) HistoryBounds(ctx context.Context) (time.Time, time.Time, int64, error) {
	const q = `SELECT MIN(TransactionDate), MAX(TransactionDate), COUNT(*) FROM Transactions WHERE IsDeleted = 0`

	var minDate, maxDate sql.NullTime
	var total int64
	if err := e.DB.QueryRowContext(ctx, q).Scan(&minDate, &maxDate, &total); err != nil {
		return time.Time{}, time.Time{}, 0, fmt.Errorf("query transaction history bounds: %w", err)
	}
	if !minDate.Valid || !maxDate.Valid {
		return time.Time{}, time.Time{}, 0, nil
	}
	return minDate.Time.UTC(), maxDate.Time.UTC(), total, nil
}

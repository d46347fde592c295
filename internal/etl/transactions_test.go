package etl

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

func TestTransactionDocFromRow(t *testing.T) {
	txDate := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	created := txDate.Add(-time.Minute)
	modified := txDate.Add(time.Hour)
	row := transactionRow{
		id:           42,
		customerID:   sql.NullInt64{Int64: 7, Valid: true},
		customerName: sql.NullString{String: "Walk-in", Valid: true},
		totalAmount:  sql.NullString{String: "199.99", Valid: true},
		paidAmount:   sql.NullString{String: "200.00", Valid: true},
		txDate:       sql.NullTime{Time: txDate, Valid: true},
		txType:       sql.NullInt64{Int64: 0, Valid: true},
		status:       sql.NullInt64{Int64: 1, Valid: true},
		payMethod:    sql.NullString{String: "Cash", Valid: true},
		createdDate:  sql.NullTime{Time: created, Valid: true},
		modifiedDate: sql.NullTime{Time: modified, Valid: true},
	}
	details := []models.TransactionDetailDoc{
		{TransactionDetailID: 1, TransactionID: 42, ProductID: 9},
	}

	var dec utils.DecReader
	doc := transactionDocFromRow(row, details, &dec)
	require.NoError(t, dec.Err())

	assert.Equal(t, int64(42), doc.DocID())
	assert.Equal(t, "Sale", doc.TransactionType)
	assert.Equal(t, "Completed", doc.Status)
	require.NotNil(t, doc.CustomerID)
	assert.Equal(t, int64(7), *doc.CustomerID)
	assert.Nil(t, doc.CashierID)
	assert.Equal(t, "", doc.CashierName)
	assert.Equal(t, modified, doc.Marker())
	assert.Equal(t, "199.99", doc.TotalAmount.String())
	assert.Len(t, doc.Details, 1)
}

func TestTransactionDocUnknownEnums(t *testing.T) {
	row := transactionRow{
		id:     1,
		txType: sql.NullInt64{Int64: 99, Valid: true},
		status: sql.NullInt64{Int64: -1, Valid: true},
	}
	var dec utils.DecReader
	doc := transactionDocFromRow(row, nil, &dec)
	require.NoError(t, dec.Err())

	// Out-of-range enum values ship as labeled unknowns rather than failing
	// the row.
	assert.Equal(t, "Unknown(99)", doc.TransactionType)
	assert.Equal(t, "Unknown(-1)", doc.Status)
}

func TestTransactionDocMarkerFallsBackToCreated(t *testing.T) {
	created := time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC)
	row := transactionRow{
		id:          3,
		createdDate: sql.NullTime{Time: created, Valid: true},
	}
	var dec utils.DecReader
	doc := transactionDocFromRow(row, nil, &dec)
	assert.Equal(t, created, doc.Marker())
	assert.Equal(t, created, doc.TransactionDate)
}

func TestTransactionDecimalFailureIsSticky(t *testing.T) {
	row := transactionRow{
		id:          4,
		totalAmount: sql.NullString{String: "NaN-ish", Valid: true},
	}
	var dec utils.DecReader
	transactionDocFromRow(row, nil, &dec)
	require.Error(t, dec.Err())
	assert.Contains(t, dec.Err().Error(), "NaN-ish")
}

func TestSizeGuardStripsOversizedDetails(t *testing.T) {
	log := testEntry()

	small := &models.TransactionDoc{
		ID:            1,
		TransactionID: 1,
		Details:       []models.TransactionDetailDoc{{TransactionDetailID: 1}},
	}
	require.NoError(t, applySizeGuard(small, log))
	assert.False(t, small.DetailsRemovedForSize)
	assert.Zero(t, small.OriginalDetailCount)
	assert.Len(t, small.Details, 1)

	big := &models.TransactionDoc{ID: 2, TransactionID: 2}
	big.Details = make([]models.TransactionDetailDoc, 80000)
	for i := range big.Details {
		big.Details[i] = models.TransactionDetailDoc{
			TransactionDetailID: int64(i + 1),
			TransactionID:       2,
			ProductID:           int64(i),
		}
	}
	require.NoError(t, applySizeGuard(big, log))
	assert.True(t, big.DetailsRemovedForSize)
	assert.Equal(t, 80000, big.OriginalDetailCount)

	// The stripped document keeps an empty array, not null, so readers can
	// range over transactionDetails unconditionally.
	require.NotNil(t, big.Details)
	assert.Empty(t, big.Details)
}

package etl

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

// EmployeeExtractor replicates active employees with their salary
// transactions embedded. Employees carry no update timestamp, so the marker
// is CreatedAt: a row replicates when it is first seen and edits made after
// that pass do not reach the target until the row is recreated.
type EmployeeExtractor struct {
	DB  *sql.DB
	Log *logrus.Entry
}

func NewEmployeeExtractor(db *sql.DB, log *logrus.Entry) *EmployeeExtractor {
	return &EmployeeExtractor{DB: db, Log: log}
}

func (e *EmployeeExtractor) Entity() string { return CollEmployees }

type employeeRow struct {
	id             int64
	username       sql.NullString
	passwordHash   sql.NullString
	firstName      sql.NullString
	lastName       sql.NullString
	role           sql.NullString
	isActive       bool
	created        time.Time
	lastLogin      *time.Time
	monthlySalary  sql.NullString
	currentBalance sql.NullString
}

func (e *EmployeeExtractor) ChangedPage(ctx context.Context, cur Cursor, limit int) (Page, error) {
	const q = `
SELECT TOP (@p1)
       EmployeeId, Username, PasswordHash, FirstName, LastName, Role,
       IsActive, CreatedAt, LastLogin, MonthlySalary, CurrentBalance
FROM Employees
WHERE IsActive = 1
  AND (CreatedAt > @p2 OR (CreatedAt = @p2 AND EmployeeId > @p3))
ORDER BY CreatedAt, EmployeeId`

	rows, err := e.DB.QueryContext(ctx, q, limit, cur.Since, cur.AfterID)
	if err != nil {
		return Page{}, pageError(CollEmployees, err)
	}
	defer rows.Close()

	page := Page{Next: cur}
	var raws []employeeRow
	scanned := 0
	for rows.Next() {
		scanned++
		var (
			r         employeeRow
			createdAt sql.NullTime
			lastLogin sql.NullTime
		)
		if err := rows.Scan(&r.id, &r.username, &r.passwordHash, &r.firstName,
			&r.lastName, &r.role, &r.isActive, &createdAt, &lastLogin,
			&r.monthlySalary, &r.currentBalance); err != nil {
			e.Log.Errorf("skipping malformed employee row: %v", err)
			page.Skipped++
			continue
		}
		r.created = utils.TimeUTC(createdAt, time.Time{})
		r.lastLogin = utils.TimePtr(lastLogin)
		page.Next = Cursor{Since: r.created, AfterID: r.id}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, pageError(CollEmployees, err)
	}
	rows.Close()
	page.HasMore = scanned == limit

	// Children are fetched after the parent result set is drained so the two
	// queries never share a connection.
	for _, r := range raws {
		var dec utils.DecReader
		salary, err := e.salaryTransactionsFor(ctx, r.id, &dec)
		if err != nil {
			return Page{}, pageError(CollEmployees, err)
		}
		doc := &models.EmployeeDoc{
			ID:                 r.id,
			EmployeeID:         r.id,
			Username:           utils.Str(r.username),
			PasswordHash:       utils.Str(r.passwordHash),
			FirstName:          utils.Str(r.firstName),
			LastName:           utils.Str(r.lastName),
			Role:               utils.Str(r.role),
			IsActive:           r.isActive,
			CreatedAt:          r.created,
			LastLogin:          r.lastLogin,
			MonthlySalary:      dec.Read(r.monthlySalary),
			CurrentBalance:     dec.Read(r.currentBalance),
			SalaryTransactions: salary,
		}
		if err := dec.Err(); err != nil {
			e.Log.Errorf("skipping employee %d: %v", r.id, err)
			page.Skipped++
			continue
		}
		page.Docs = append(page.Docs, doc)
	}
	return page, nil
}

// salaryTransactionsFor loads every salary transaction for one employee.
// Decimal conversion failures accumulate on dec and skip the parent; query
// failures are returned and fail the page.
func (e *EmployeeExtractor) salaryTransactionsFor(ctx context.Context, employeeID int64, dec *utils.DecReader) ([]models.SalaryTransactionDoc, error) {
	const q = `
SELECT Id, EmployeeId, Amount, TransactionType, TransactionDate, Notes
FROM EmployeeSalaryTransactions
WHERE EmployeeId = @p1
ORDER BY TransactionDate, Id`

	rows, err := e.DB.QueryContext(ctx, q, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SalaryTransactionDoc, 0)
	for rows.Next() {
		var (
			id, empID int64
			amount    sql.NullString
			txType    sql.NullString
			txDate    sql.NullTime
			notes     sql.NullString
		)
		if err := rows.Scan(&id, &empID, &amount, &txType, &txDate, &notes); err != nil {
			return nil, err
		}
		out = append(out, models.SalaryTransactionDoc{
			ID:              id,
			EmployeeID:      empID,
			Amount:          dec.Read(amount),
			TransactionType: utils.Str(txType),
			TransactionDate: utils.TimeUTC(txDate, time.Time{}),
			Notes:           utils.Str(notes),
		})
	}
	return out, rows.Err()
}

func (e *EmployeeExtractor) LiveIDs(ctx context.Context) (map[int64]struct{}, error) {
	return queryIDSet(ctx, e.DB, `SELECT EmployeeId FROM Employees WHERE IsActive = 1`)
}

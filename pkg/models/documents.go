package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Target documents as written to MongoDB. Every document keys on the source
// primary id (_id plus a redundant named field) and carries syncedAt stamped
// by the loader. Money is Decimal128, never float64. Nullable timestamps are
// pointers and omitted when null; nullable strings collapse to "".

type CategoryDoc struct {
	ID          int64     `bson:"_id" json:"_id"`
	CategoryID  int64     `bson:"categoryId" json:"categoryId"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Type        string    `bson:"type" json:"type"`
	IsActive    bool      `bson:"isActive" json:"isActive"`
	SyncedAt    time.Time `bson:"syncedAt" json:"syncedAt"`
}

func (d *CategoryDoc) DocID() int64          { return d.ID }
func (d *CategoryDoc) Marker() time.Time     { return time.Time{} } // full snapshot, no marker
func (d *CategoryDoc) SetSyncedAt(t time.Time) { d.SyncedAt = t }

type ProductDoc struct {
	ID            int64                `bson:"_id" json:"_id"`
	ProductID     int64                `bson:"productId" json:"productId"`
	Barcode       string               `bson:"barcode" json:"barcode"`
	Name          string               `bson:"name" json:"name"`
	Description   string               `bson:"description" json:"description"`
	CategoryID    int64                `bson:"categoryId" json:"categoryId"`
	CategoryName  string               `bson:"categoryName" json:"categoryName"`
	PurchasePrice primitive.Decimal128 `bson:"purchasePrice" json:"purchasePrice"`
	SalePrice     primitive.Decimal128 `bson:"salePrice" json:"salePrice"`
	CurrentStock  primitive.Decimal128 `bson:"currentStock" json:"currentStock"`
	MinimumStock  primitive.Decimal128 `bson:"minimumStock" json:"minimumStock"`
	SupplierID    *int64               `bson:"supplierId,omitempty" json:"supplierId,omitempty"`
	Speed         string               `bson:"speed" json:"speed"`
	ImagePath     string               `bson:"imagePath" json:"imagePath"`
	IsActive      bool                 `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     *time.Time           `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	SyncedAt      time.Time            `bson:"syncedAt" json:"syncedAt"`
}

func (d *ProductDoc) DocID() int64 { return d.ProductID }

// Marker is updatedAt when the row has one, otherwise createdAt, so rows that
// were never updated are still picked up the first time they are seen.
func (d *ProductDoc) Marker() time.Time {
	if d.UpdatedAt != nil {
		return *d.UpdatedAt
	}
	return d.CreatedAt
}

func (d *ProductDoc) SetSyncedAt(t time.Time) { d.SyncedAt = t }

type CustomerDoc struct {
	ID         int64                `bson:"_id" json:"_id"`
	CustomerID int64                `bson:"customerId" json:"customerId"`
	Name       string               `bson:"name" json:"name"`
	Phone      string               `bson:"phone" json:"phone"`
	Email      string               `bson:"email" json:"email"`
	Address    string               `bson:"address" json:"address"`
	Balance    primitive.Decimal128 `bson:"balance" json:"balance"`
	IsActive   bool                 `bson:"isActive" json:"isActive"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  *time.Time           `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	SyncedAt   time.Time            `bson:"syncedAt" json:"syncedAt"`
}

func (d *CustomerDoc) DocID() int64 { return d.CustomerID }

func (d *CustomerDoc) Marker() time.Time {
	if d.UpdatedAt != nil {
		return *d.UpdatedAt
	}
	return d.CreatedAt
}

func (d *CustomerDoc) SetSyncedAt(t time.Time) { d.SyncedAt = t }

type BusinessSettingDoc struct {
	ID           int64     `bson:"_id" json:"_id"`
	SettingID    int64     `bson:"settingId" json:"settingId"`
	Key          string    `bson:"key" json:"key"`
	Value        string    `bson:"value" json:"value"`
	Description  string    `bson:"description" json:"description"`
	Group        string    `bson:"group" json:"group"`
	DataType     string    `bson:"dataType" json:"dataType"`
	IsSystem     bool      `bson:"isSystem" json:"isSystem"`
	LastModified time.Time `bson:"lastModified" json:"lastModified"`
	ModifiedBy   string    `bson:"modifiedBy" json:"modifiedBy"`
	SyncedAt     time.Time `bson:"syncedAt" json:"syncedAt"`
}

func (d *BusinessSettingDoc) DocID() int64            { return d.SettingID }
func (d *BusinessSettingDoc) Marker() time.Time       { return d.LastModified }
func (d *BusinessSettingDoc) SetSyncedAt(t time.Time) { d.SyncedAt = t }

type SalaryTransactionDoc struct {
	ID              int64                `bson:"id" json:"id"`
	EmployeeID      int64                `bson:"employeeId" json:"employeeId"`
	Amount          primitive.Decimal128 `bson:"amount" json:"amount"`
	TransactionType string               `bson:"transactionType" json:"transactionType"`
	TransactionDate time.Time            `bson:"transactionDate" json:"transactionDate"`
	Notes           string               `bson:"notes" json:"notes"`
}

type EmployeeDoc struct {
	ID                 int64                  `bson:"_id" json:"_id"`
	EmployeeID         int64                  `bson:"employeeId" json:"employeeId"`
	Username           string                 `bson:"username" json:"username"`
	PasswordHash       string                 `bson:"passwordHash" json:"-"`
	FirstName          string                 `bson:"firstName" json:"firstName"`
	LastName           string                 `bson:"lastName" json:"lastName"`
	Role               string                 `bson:"role" json:"role"`
	IsActive           bool                   `bson:"isActive" json:"isActive"`
	CreatedAt          time.Time              `bson:"createdAt" json:"createdAt"`
	LastLogin          *time.Time             `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	MonthlySalary      primitive.Decimal128   `bson:"monthlySalary" json:"monthlySalary"`
	CurrentBalance     primitive.Decimal128   `bson:"currentBalance" json:"currentBalance"`
	SalaryTransactions []SalaryTransactionDoc `bson:"salaryTransactions" json:"salaryTransactions"`
	SyncedAt           time.Time              `bson:"syncedAt" json:"syncedAt"`
}

func (d *EmployeeDoc) DocID() int64            { return d.EmployeeID }
func (d *EmployeeDoc) Marker() time.Time       { return d.CreatedAt }
func (d *EmployeeDoc) SetSyncedAt(t time.Time) { d.SyncedAt = t }

type ExpenseDoc struct {
	ID          int64                `bson:"_id" json:"_id"`
	ExpenseID   int64                `bson:"expenseId" json:"expenseId"`
	Reason      string               `bson:"reason" json:"reason"`
	Amount      primitive.Decimal128 `bson:"amount" json:"amount"`
	Date        time.Time            `bson:"date" json:"date"`
	Notes       string               `bson:"notes" json:"notes"`
	Category    string               `bson:"category" json:"category"`
	IsRecurring bool                 `bson:"isRecurring" json:"isRecurring"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   *time.Time           `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	SyncedAt    time.Time            `bson:"syncedAt" json:"syncedAt"`
}

func (d *ExpenseDoc) DocID() int64 { return d.ExpenseID }

func (d *ExpenseDoc) Marker() time.Time {
	if d.UpdatedAt != nil {
		return *d.UpdatedAt
	}
	return d.CreatedAt
}

func (d *ExpenseDoc) SetSyncedAt(t time.Time) { d.SyncedAt = t }

type TransactionDetailDoc struct {
	TransactionDetailID int64                `bson:"transactionDetailId" json:"transactionDetailId"`
	TransactionID       int64                `bson:"transactionId" json:"transactionId"`
	ProductID           int64                `bson:"productId" json:"productId"`
	Quantity            primitive.Decimal128 `bson:"quantity" json:"quantity"`
	UnitPrice           primitive.Decimal128 `bson:"unitPrice" json:"unitPrice"`
	PurchasePrice       primitive.Decimal128 `bson:"purchasePrice" json:"purchasePrice"`
	Discount            primitive.Decimal128 `bson:"discount" json:"discount"`
	Total               primitive.Decimal128 `bson:"total" json:"total"`
}

type TransactionDoc struct {
	ID              int64                  `bson:"_id" json:"_id"`
	TransactionID   int64                  `bson:"transactionId" json:"transactionId"`
	CustomerID      *int64                 `bson:"customerId,omitempty" json:"customerId,omitempty"`
	CustomerName    string                 `bson:"customerName" json:"customerName"`
	TotalAmount     primitive.Decimal128   `bson:"totalAmount" json:"totalAmount"`
	PaidAmount      primitive.Decimal128   `bson:"paidAmount" json:"paidAmount"`
	TransactionDate time.Time              `bson:"transactionDate" json:"transactionDate"`
	TransactionType string                 `bson:"transactionType" json:"transactionType"`
	Status          string                 `bson:"status" json:"status"`
	PaymentMethod   string                 `bson:"paymentMethod" json:"paymentMethod"`
	CashierID       *int64                 `bson:"cashierId,omitempty" json:"cashierId,omitempty"`
	CashierName     string                 `bson:"cashierName" json:"cashierName"`
	CashierRole     string                 `bson:"cashierRole" json:"cashierRole"`
	CreatedDate     time.Time              `bson:"createdDate" json:"createdDate"`
	ModifiedDate    time.Time              `bson:"modifiedDate" json:"modifiedDate"`
	Details         []TransactionDetailDoc `bson:"transactionDetails" json:"transactionDetails"`

	// Set when the document blew past the per-document size ceiling and the
	// details had to be dropped; OriginalDetailCount keeps the source count so
	// a repair pass can find these documents later.
	DetailsRemovedForSize bool `bson:"detailsRemovedForSize,omitempty" json:"detailsRemovedForSize,omitempty"`
	OriginalDetailCount   int  `bson:"originalDetailCount,omitempty" json:"originalDetailCount,omitempty"`

	SyncedAt time.Time `bson:"syncedAt" json:"syncedAt"`
}

func (d *TransactionDoc) DocID() int64            { return d.TransactionID }
func (d *TransactionDoc) Marker() time.Time       { return d.ModifiedDate }
func (d *TransactionDoc) SetSyncedAt(t time.Time) { d.SyncedAt = t }

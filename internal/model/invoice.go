package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice order status values. Only "completed" gates editing.
const (
	InvoiceOpen      = "open"
	InvoiceCompleted = "completed"
)

// Invoice is a sale. Stock-affecting: creation debits the ledger per item,
// cancellation optionally restores it, editing reverses then reapplies.
// Never physically deleted except through the administrative bulk clear.
type Invoice struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number string    `gorm:"uniqueIndex;not null"` // client number suffixed "-B{branch}"

	CustomerID      *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Discount       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	DeliveryFee    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CouponDiscount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CouponCode     string
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PaymentMethod  string          `gorm:"not null;default:'cash'"`

	LoyaltyDiscount       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	LoyaltyPointsEarned   int             `gorm:"not null;default:0"`
	LoyaltyPointsRedeemed int             `gorm:"not null;default:0"`

	BranchID     uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchName   string
	ShiftID      *uuid.UUID `gorm:"type:uuid"`
	ShiftName    string
	EmployeeName string
	Notes        string
	Status       string `gorm:"not null;default:'open'"`

	Cancelled     bool `gorm:"not null;default:false"`
	CancelReason  string
	CancelledAt   *time.Time
	StockReturned bool `gorm:"not null;default:false"`

	EditCount int `gorm:"not null;default:0"`
	EditedBy  string
	EditedAt  *time.Time

	CreatedAt time.Time

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one sold line. StockEntryID references the ledger entry the
// line debited, so cancel/edit can restore exactly what was taken.
type InvoiceItem struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID  `gorm:"type:uuid;not null"`
	ProductName  string
	VariantID    *uuid.UUID `gorm:"type:uuid"`
	VariantName  string
	Quantity     int             `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockEntryID *uuid.UUID      `gorm:"type:uuid"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// InvoiceEditRecord is one entry of the append-only edit history.
type InvoiceEditRecord struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	EditedBy      *uuid.UUID `gorm:"type:uuid"`
	EditedByName  string
	OldTotal      decimal.Decimal `gorm:"type:decimal(10,2)"`
	NewTotal      decimal.Decimal `gorm:"type:decimal(10,2)"`
	OldItemsCount int
	NewItemsCount int
	EditedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InvoiceEditRecord) TableName() string { return "invoice_edit_history" }

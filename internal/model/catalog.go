package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog records are read-only lookups for the workflow services; their CRUD
// lives in the surrounding admin surface, not in this core.

// Branch is a physical sales location with its own stock ledger.
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Address   string
	Phone     string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Branch) TableName() string { return "branches" }

// Product is a catalog item (the original's "inventory" row).
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	Barcode     string    `gorm:"uniqueIndex"`
	Category    string    `gorm:"index"`
	Unit        string    `gorm:"not null;default:'unit'"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Cost        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string { return "products" }

// Variant is an optional size/flavor split of a product with its own barcode
// and price.
type Variant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	Barcode   string
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Cost      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
}

func (Variant) TableName() string { return "product_variants" }

// Shift is a work shift invoices are attributed to.
type Shift struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	StartTime string
	EndTime   string
}

func (Shift) TableName() string { return "shifts" }

// Coupon is a discount code shipped to offline clients on sync download.
type Coupon struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code            string          `gorm:"uniqueIndex;not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Active          bool            `gorm:"not null;default:true"`
	ExpiresAt       *time.Time
}

func (Coupon) TableName() string { return "coupons" }

// Setting is one key/value pair of tenant configuration.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (Setting) TableName() string { return "settings" }

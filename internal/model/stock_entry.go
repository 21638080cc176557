package model

import (
	"time"

	"github.com/google/uuid"
)

// StockEntry is the quantity-on-hand counter for one product (optionally one
// variant) at one branch. It is the single source of truth for stock; every
// workflow mutates it only through the ledger service, never directly.
// Created implicitly on the first adjustment for its natural key.
type StockEntry struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_natural,unique"`
	VariantID *uuid.UUID `gorm:"type:uuid;index:idx_stock_natural,unique"`
	BranchID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_natural,unique"`
	Quantity  int        `gorm:"not null;default:0"`
	// Notes is the free-text audit log of manual adjustments, one
	// "[YYYY-MM-DD HH:MM] +N: reason" line per adjustment.
	Notes     string
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
	Branch  *Branch  `gorm:"foreignKey:BranchID"`
}

func (StockEntry) TableName() string { return "stock_entries" }

// StockMovement records every ledger change: sales, transfers, redemptions,
// manual adjustments, restores. Append-only.
type StockMovement struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StockEntryID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind           string    `gorm:"not null"` // "sale" | "transfer_out" | "transfer_in" | "redemption" | "manual" | "restore" | "sync"
	Delta          int       `gorm:"not null"` // positive = in, negative = out
	QuantityBefore int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	Reason         string
	ReferenceID    *uuid.UUID `gorm:"type:uuid"` // invoice, transfer, or subscription id
	// Flagged marks movements that drove the entry negative under the
	// allow-negative floor policy, for supervisor review.
	Flagged   bool `gorm:"not null;default:false"`
	ActorID   *uuid.UUID
	ActorName string
	CreatedAt time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }

package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is deduplicated by phone number during sync upload; loyalty points
// move with invoice create/cancel.
type Customer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string    `gorm:"not null"`
	Phone         string    `gorm:"index"`
	Email         string
	Address       string
	Notes         string
	LoyaltyPoints int `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Customer) TableName() string { return "customers" }

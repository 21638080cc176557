package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionPlan is a prepaid product-allowance bundle customers subscribe to.
type SubscriptionPlan struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name              string          `gorm:"not null"`
	DurationDays      int             `gorm:"not null;default:30"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountPercent   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	LoyaltyMultiplier decimal.Decimal `gorm:"type:decimal(5,2);not null;default:1"`
	Description       string
	Active            bool `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items []SubscriptionPlanItem `gorm:"foreignKey:PlanID"`
}

func (SubscriptionPlan) TableName() string { return "subscription_plans" }

// SubscriptionPlanItem is one product allowance on a plan: the subscriber may
// redeem up to Quantity units of this product/variant over the subscription.
type SubscriptionPlanItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PlanID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null"`
	ProductName string     `gorm:"not null"`
	VariantID   *uuid.UUID `gorm:"type:uuid"`
	VariantName string
	Quantity    int `gorm:"not null;default:1"`
}

func (SubscriptionPlanItem) TableName() string { return "subscription_plan_items" }

// Subscription status values. A subscription past its end date is reported as
// expired on every read; the persisted transition happens only through the
// ExpireLapsed maintenance operation.
const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// Subscription links a customer to a plan. Plan terms are snapshotted at
// creation; a later plan edit does not change existing subscriptions, but the
// allowance list itself is read from the plan by reference.
type Subscription struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName  string    `gorm:"not null"`
	CustomerPhone string    `gorm:"index"`
	PlanID        uuid.UUID `gorm:"type:uuid;not null"`
	PlanName      string    `gorm:"not null"`
	Code          string    `gorm:"uniqueIndex;not null"` // redemption code presented at the counter

	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	Status    string    `gorm:"not null;default:'active';index"`

	PricePaid         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountPercent   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	LoyaltyMultiplier decimal.Decimal `gorm:"type:decimal(5,2);not null;default:1"`
	Notes             string

	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
	CreatedByName string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID"`
}

func (Subscription) TableName() string { return "customer_subscriptions" }

// Lapsed reports whether the subscription's end date has passed relative to
// now. Pure function of the dates — it never writes.
func (s *Subscription) Lapsed(now time.Time) bool {
	return s.EndDate.Before(now.Truncate(24 * time.Hour))
}

// Redemption is one consumed slice of a subscription's allowance. Append-only;
// the remaining allowance is always derived as allowance minus the sum of
// these rows, never stored.
type Redemption struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubscriptionID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID  `gorm:"type:uuid;not null"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null"`
	ProductName    string
	VariantID      *uuid.UUID `gorm:"type:uuid"`
	VariantName    string
	Quantity       int        `gorm:"not null"`
	BranchID       uuid.UUID  `gorm:"type:uuid;not null"`
	RedeemedBy     *uuid.UUID `gorm:"type:uuid"`
	RedeemedByName string
	RedeemedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Redemption) TableName() string { return "subscription_redemptions" }

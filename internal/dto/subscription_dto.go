package dto

import "github.com/shopspring/decimal"

type PlanItemRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid4"`
	ProductName string `json:"product_name"`
	VariantID   string `json:"variant_id" validate:"omitempty,uuid4"`
	VariantName string `json:"variant_name"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

type CreatePlanRequest struct {
	Name              string            `json:"name" validate:"required"`
	DurationDays      int               `json:"duration_days" validate:"gt=0"`
	Price             decimal.Decimal   `json:"price"`
	DiscountPercent   decimal.Decimal   `json:"discount_percent"`
	LoyaltyMultiplier decimal.Decimal   `json:"loyalty_multiplier"`
	Description       string            `json:"description"`
	Items             []PlanItemRequest `json:"items" validate:"dive"`
}

type UpdatePlanRequest struct {
	Name              string            `json:"name" validate:"required"`
	DurationDays      int               `json:"duration_days" validate:"gt=0"`
	Price             decimal.Decimal   `json:"price"`
	DiscountPercent   decimal.Decimal   `json:"discount_percent"`
	LoyaltyMultiplier decimal.Decimal   `json:"loyalty_multiplier"`
	Description       string            `json:"description"`
	Active            *bool             `json:"active"`
	// Items, when present, replaces the whole allowance list.
	Items []PlanItemRequest `json:"items" validate:"omitempty,dive"`
}

type PlanItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantID   string `json:"variant_id,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	Quantity    int    `json:"quantity"`
}

type PlanResponse struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	DurationDays      int                `json:"duration_days"`
	Price             decimal.Decimal    `json:"price"`
	DiscountPercent   decimal.Decimal    `json:"discount_percent"`
	LoyaltyMultiplier decimal.Decimal    `json:"loyalty_multiplier"`
	Description       string             `json:"description,omitempty"`
	Active            bool               `json:"active"`
	Items             []PlanItemResponse `json:"items"`
}

type CreateSubscriptionRequest struct {
	CustomerID string          `json:"customer_id" validate:"required,uuid4"`
	PlanID     string          `json:"plan_id" validate:"required,uuid4"`
	Code       string          `json:"code" validate:"required"`
	StartDate  string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	PricePaid  *decimal.Decimal `json:"price_paid"`
	Notes      string          `json:"notes"`
}

// SubscriptionResponse reports remaining allowance as plan items plus a
// redeemed-totals map keyed "productID_variantID".
type SubscriptionResponse struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	PlanID        string             `json:"plan_id"`
	PlanName      string             `json:"plan_name"`
	Code          string             `json:"code"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	Status        string             `json:"status"`
	Active        bool               `json:"active"`
	PricePaid     decimal.Decimal    `json:"price_paid"`
	Notes         string             `json:"notes,omitempty"`
	PlanItems     []PlanItemResponse `json:"plan_items"`
	RedeemedMap   map[string]int     `json:"redeemed_map"`
}

type RedeemItemRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid4"`
	ProductName string `json:"product_name"`
	VariantID   string `json:"variant_id" validate:"omitempty,uuid4"`
	VariantName string `json:"variant_name"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

type RedeemRequest struct {
	SubscriptionID string              `json:"subscription_id" validate:"required,uuid4"`
	BranchID       string              `json:"branch_id" validate:"required,uuid4"`
	Items          []RedeemItemRequest `json:"items" validate:"required,min=1,dive"`
}

type RedeemedItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type RedeemResponse struct {
	Redeemed []RedeemedItem `json:"redeemed"`
}

type RedemptionResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantID   string `json:"variant_id,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	Quantity    int    `json:"quantity"`
	RedeemedBy  string `json:"redeemed_by_name,omitempty"`
	RedeemedAt  string `json:"redeemed_at"`
}

// SubscriptionCheckQuery locates the newest active subscription by code,
// customer id, or phone, in that order of precedence.
type SubscriptionCheckQuery struct {
	Code       string
	CustomerID string
	Phone      string
}

type SubscriptionCheckResponse struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	Active       bool                  `json:"active"`
}

// ExpireLapsedResponse reports how many subscriptions the maintenance sweep
// transitioned to expired. Zero on a repeat run — the operation is idempotent.
type ExpireLapsedResponse struct {
	Expired int64 `json:"expired"`
}

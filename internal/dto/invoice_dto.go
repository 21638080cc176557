package dto

import "github.com/shopspring/decimal"

type InvoiceItemRequest struct {
	ProductID    string          `json:"product_id" validate:"required,uuid4"`
	ProductName  string          `json:"product_name"`
	VariantID    string          `json:"variant_id" validate:"omitempty,uuid4"`
	VariantName  string          `json:"variant_name"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
	StockEntryID string          `json:"stock_entry_id" validate:"omitempty,uuid4"`
}

type CreateInvoiceRequest struct {
	Number          string               `json:"invoice_number" validate:"required"`
	BranchID        string               `json:"branch_id" validate:"required,uuid4"`
	ShiftID         string               `json:"shift_id" validate:"omitempty,uuid4"`
	CustomerID      string               `json:"customer_id" validate:"omitempty,uuid4"`
	CustomerName    string               `json:"customer_name"`
	CustomerPhone   string               `json:"customer_phone"`
	CustomerAddress string               `json:"customer_address"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	Discount        decimal.Decimal      `json:"discount"`
	DeliveryFee     decimal.Decimal      `json:"delivery_fee"`
	CouponDiscount  decimal.Decimal      `json:"coupon_discount"`
	CouponCode      string               `json:"coupon_code"`
	Total           decimal.Decimal      `json:"total"`
	PaymentMethod   string               `json:"payment_method"`
	EmployeeName    string               `json:"employee_name"`
	Notes           string               `json:"notes"`
	LoyaltyDiscount decimal.Decimal      `json:"loyalty_discount"`
	PointsEarned    int                  `json:"loyalty_points_earned"`
	PointsRedeemed  int                  `json:"loyalty_points_redeemed"`
	Items           []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CancelInvoiceRequest struct {
	Reason      string `json:"reason" validate:"required"`
	ReturnStock bool   `json:"return_stock"`
}

// EditInvoiceRequest replaces the whole item set. Header fields left nil keep
// their current values.
type EditInvoiceRequest struct {
	CustomerID      *string              `json:"customer_id"`
	CustomerName    *string              `json:"customer_name"`
	CustomerPhone   *string              `json:"customer_phone"`
	CustomerAddress *string              `json:"customer_address"`
	Subtotal        *decimal.Decimal     `json:"subtotal"`
	Discount        *decimal.Decimal     `json:"discount"`
	DeliveryFee     *decimal.Decimal     `json:"delivery_fee"`
	Total           *decimal.Decimal     `json:"total"`
	PaymentMethod   *string              `json:"payment_method"`
	Notes           *string              `json:"notes"`
	Items           []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type LowStockWarning struct {
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
}

type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantID   string          `json:"variant_id,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

type InvoiceResponse struct {
	ID                string                `json:"id"`
	Number            string                `json:"invoice_number"`
	BranchID          string                `json:"branch_id"`
	BranchName        string                `json:"branch_name"`
	CustomerName      string                `json:"customer_name,omitempty"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	Discount          decimal.Decimal       `json:"discount"`
	Total             decimal.Decimal       `json:"total"`
	PaymentMethod     string                `json:"payment_method"`
	Status            string                `json:"status"`
	Cancelled         bool                  `json:"cancelled"`
	CancelReason      string                `json:"cancel_reason,omitempty"`
	StockReturned     bool                  `json:"stock_returned"`
	EditCount         int                   `json:"edit_count"`
	CreatedAt         string                `json:"created_at"`
	Items             []InvoiceItemResponse `json:"items"`
	LowStockWarnings  []LowStockWarning     `json:"low_stock_warnings,omitempty"`
}

type InvoiceFilter struct {
	StartDate string
	EndDate   string
	Limit     int
}

type InvoiceEditHistoryResponse struct {
	ID            string `json:"id"`
	EditedByName  string `json:"edited_by_name,omitempty"`
	OldItemsCount int    `json:"old_items_count"`
	NewItemsCount int    `json:"new_items_count"`
	EditedAt      string `json:"edited_at"`
}

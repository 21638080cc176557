package dto

// AdjustStockRequest is a manual ledger adjustment (receiving goods, shrinkage
// corrections). Delta may be negative; whether negative balances are accepted
// is decided by the configured floor policy, not by the caller.
type AdjustStockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	VariantID string `json:"variant_id" validate:"omitempty,uuid4"`
	BranchID  string `json:"branch_id" validate:"required,uuid4"`
	Delta     int    `json:"delta" validate:"required"`
	Notes     string `json:"notes"`
}

type StockEntryResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	VariantID   string `json:"variant_id,omitempty"`
	BranchID    string `json:"branch_id"`
	BranchName  string `json:"branch_name,omitempty"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type StockFilter struct {
	BranchID  string
	ProductID string
}

type StockMovementResponse struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Delta          int    `json:"delta"`
	QuantityBefore int    `json:"quantity_before"`
	QuantityAfter  int    `json:"quantity_after"`
	Reason         string `json:"reason,omitempty"`
	Flagged        bool   `json:"flagged"`
	ActorName      string `json:"actor_name,omitempty"`
	CreatedAt      string `json:"created_at"`
}

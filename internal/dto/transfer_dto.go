package dto

// TransferItemRequest is one requested product line on a new transfer.
type TransferItemRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid4"`
	ProductName string `json:"product_name"`
	VariantID   string `json:"variant_id" validate:"omitempty,uuid4"`
	VariantName string `json:"variant_name"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

// CreateTransferRequest opens a transfer; the requester acts at the
// destination branch.
type CreateTransferRequest struct {
	FromBranchID string                `json:"from_branch_id" validate:"required,uuid4"`
	ToBranchID   string                `json:"to_branch_id" validate:"required,uuid4"`
	Notes        string                `json:"notes"`
	Items        []TransferItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ApproveTransferItem overrides the approved quantity for one item; items not
// listed default to their requested quantity.
type ApproveTransferItem struct {
	ItemID           string `json:"item_id" validate:"required,uuid4"`
	QuantityApproved int    `json:"quantity_approved" validate:"gte=0"`
}

type ApproveTransferRequest struct {
	Items []ApproveTransferItem `json:"items" validate:"dive"`
}

type RejectTransferRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type PickupTransferRequest struct {
	DriverID   string `json:"driver_id" validate:"omitempty,uuid4"`
	DriverName string `json:"driver_name" validate:"required"`
}

// ReceiveTransferItem records the quantity actually received for one item.
type ReceiveTransferItem struct {
	ItemID           string `json:"item_id" validate:"required,uuid4"`
	QuantityReceived int    `json:"quantity_received" validate:"gte=0"`
}

type ReceiveTransferRequest struct {
	Items []ReceiveTransferItem `json:"items" validate:"dive"`
}

type TransferItemResponse struct {
	ID                string `json:"id"`
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	VariantID         string `json:"variant_id,omitempty"`
	VariantName       string `json:"variant_name,omitempty"`
	QuantityRequested int    `json:"quantity_requested"`
	QuantityApproved  *int   `json:"quantity_approved,omitempty"`
	QuantityReceived  *int   `json:"quantity_received,omitempty"`
}

type TransferResponse struct {
	ID             string                 `json:"id"`
	Number         string                 `json:"number"`
	Status         string                 `json:"status"`
	FromBranchID   string                 `json:"from_branch_id"`
	FromBranchName string                 `json:"from_branch_name"`
	ToBranchID     string                 `json:"to_branch_id"`
	ToBranchName   string                 `json:"to_branch_name"`
	RequestedBy    string                 `json:"requested_by_name,omitempty"`
	ApprovedBy     string                 `json:"approved_by_name,omitempty"`
	DriverName     string                 `json:"driver_name,omitempty"`
	ReceivedBy     string                 `json:"received_by_name,omitempty"`
	RejectReason   string                 `json:"reject_reason,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	RequestedAt    string                 `json:"requested_at"`
	CompletedAt    string                 `json:"completed_at,omitempty"`
	Items          []TransferItemResponse `json:"items"`
}

// TransferFilter narrows the transfer list; BranchID matches either side.
type TransferFilter struct {
	Status   string
	BranchID string
	Limit    int
}

// CreateTransferResponse returns the assigned id and human-readable number.
type CreateTransferResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

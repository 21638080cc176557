package model

import (
	"time"

	"github.com/google/uuid"
)

// Transfer lifecycle states. Transitions are guarded by compare-and-swap
// status updates so two concurrent actors cannot both move the same transfer.
const (
	TransferPending   = "pending"
	TransferApproved  = "approved"
	TransferRejected  = "rejected"
	TransferInTransit = "in_transit"
	TransferCompleted = "completed"
)

// Transfer moves stock from a source branch to a destination branch with an
// explicit in-transit phase. Between approve and receive the approved
// quantity exists only here — it has left the source ledger and not yet
// entered the destination ledger.
type Transfer struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number string    `gorm:"uniqueIndex;not null"` // "TR-00001", from a durable sequence
	Status string    `gorm:"not null;default:'pending';index"`

	FromBranchID   uuid.UUID `gorm:"type:uuid;not null;index"`
	FromBranchName string    `gorm:"not null"` // snapshotted at creation
	ToBranchID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ToBranchName   string    `gorm:"not null"`

	RequestedBy     *uuid.UUID `gorm:"type:uuid"`
	RequestedByName string
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedByName  string
	DriverID        *uuid.UUID `gorm:"type:uuid"`
	DriverName      string
	ReceivedBy      *uuid.UUID `gorm:"type:uuid"`
	ReceivedByName  string

	RejectReason string
	Notes        string

	RequestedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	ApprovedAt  *time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
	CompletedAt *time.Time

	Items []TransferItem `gorm:"foreignKey:TransferID"`
}

func (Transfer) TableName() string { return "stock_transfers" }

// TransferItem is one product line on a transfer. Requested, approved and
// received quantities are recorded independently.
type TransferItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransferID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null"`
	ProductName string     `gorm:"not null"`
	VariantID   *uuid.UUID `gorm:"type:uuid"`
	VariantName string

	QuantityRequested int  `gorm:"not null"`
	QuantityApproved  *int // nil until approve
	QuantityReceived  *int // nil until receive
}

func (TransferItem) TableName() string { return "stock_transfer_items" }

// EffectiveApproved returns the quantity the source ledger was debited with.
func (i *TransferItem) EffectiveApproved() int {
	if i.QuantityApproved != nil {
		return *i.QuantityApproved
	}
	return i.QuantityRequested
}

// EffectiveReceived returns the quantity the destination ledger is credited
// with: received if recorded, else approved, else requested.
func (i *TransferItem) EffectiveReceived() int {
	if i.QuantityReceived != nil {
		return *i.QuantityReceived
	}
	return i.EffectiveApproved()
}

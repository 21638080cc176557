package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionLog is the append-only audit trail of workflow actions (transfer
// approvals, redemptions, invoice cancellations...). Rows are written
// asynchronously by the worker pool so the request path never waits on them.
type ActionLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ActionType  string    `gorm:"not null;index"`
	Description string
	UserID      *uuid.UUID `gorm:"type:uuid"`
	UserName    string
	BranchID    *uuid.UUID `gorm:"type:uuid"`
	TargetID    *uuid.UUID `gorm:"type:uuid"`
	Details     string
	CreatedAt   time.Time
}

func (ActionLog) TableName() string { return "action_log" }

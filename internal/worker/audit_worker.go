package worker

// audit_worker.go
// Processes action-log jobs from QueueAudit. Keeps audit writes off the
// request path.

import (
	"context"
	"encoding/json"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AuditWorker struct {
	repo repository.AuditRepository
}

func NewAuditWorker(repo repository.AuditRepository) *AuditWorker {
	return &AuditWorker{repo: repo}
}

func (w *AuditWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload AuditJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("audit_worker: invalid payload")
		return
	}
	entry := &model.ActionLog{
		ActionType: payload.ActionType,
		UserName:   payload.UserName,
		Details:    payload.Details,
	}
	if id, err := uuid.Parse(payload.UserID); err == nil {
		entry.UserID = &id
	}
	if id, err := uuid.Parse(payload.BranchID); err == nil {
		entry.BranchID = &id
	}
	if id, err := uuid.Parse(payload.TargetID); err == nil {
		entry.TargetID = &id
	}
	if err := w.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", payload.ActionType).Msg("audit_worker: write failed")
	}
}

package service

import (
	"context"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuditLogger records workflow actions to the action log. Writes are
// best-effort and never fail the calling operation.
type AuditLogger interface {
	Log(ctx context.Context, actor Actor, actionType, details string)
	LogTarget(ctx context.Context, actor Actor, actionType string, targetID uuid.UUID, details string)
}

type auditLogger struct {
	dispatcher *worker.Dispatcher
	repo       repository.AuditRepository
}

// NewAuditLogger prefers the async queue; when no dispatcher is wired (unit
// tests, redis down at startup) it writes the row synchronously instead.
func NewAuditLogger(dispatcher *worker.Dispatcher, repo repository.AuditRepository) AuditLogger {
	return &auditLogger{dispatcher: dispatcher, repo: repo}
}

func (a *auditLogger) Log(ctx context.Context, actor Actor, actionType, details string) {
	a.write(ctx, actor, actionType, nil, details)
}

func (a *auditLogger) LogTarget(ctx context.Context, actor Actor, actionType string, targetID uuid.UUID, details string) {
	a.write(ctx, actor, actionType, &targetID, details)
}

func (a *auditLogger) write(ctx context.Context, actor Actor, actionType string, targetID *uuid.UUID, details string) {
	if a.dispatcher != nil {
		payload := worker.AuditJobPayload{
			ActionType: actionType,
			UserName:   actor.Name,
			Details:    details,
		}
		if actor.ID != uuid.Nil {
			id := actor.ID.String()
			payload.UserID = id
		}
		if actor.BranchID != nil {
			payload.BranchID = actor.BranchID.String()
		}
		if targetID != nil {
			payload.TargetID = targetID.String()
		}
		if err := a.dispatcher.EnqueueAuditLog(ctx, payload); err == nil {
			return
		}
		// fall through to the synchronous path when the queue is unreachable
	}
	if a.repo == nil {
		return
	}
	entry := &model.ActionLog{
		ActionType: actionType,
		UserName:   actor.Name,
		Details:    details,
		TargetID:   targetID,
		BranchID:   actor.BranchID,
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		entry.UserID = &id
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", actionType).Msg("audit log write failed")
	}
}

// NopAuditLogger discards everything. Used by unit tests.
type NopAuditLogger struct{}

func (NopAuditLogger) Log(context.Context, Actor, string, string)                   {}
func (NopAuditLogger) LogTarget(context.Context, Actor, string, uuid.UUID, string) {}

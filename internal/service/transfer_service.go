package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/apierror"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TransferService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateTransferRequest) (*dto.CreateTransferResponse, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID, req dto.ApproveTransferRequest) (*dto.TransferResponse, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, req dto.RejectTransferRequest) (*dto.TransferResponse, error)
	Pickup(ctx context.Context, actor Actor, id uuid.UUID, req dto.PickupTransferRequest) (*dto.TransferResponse, error)
	Receive(ctx context.Context, actor Actor, id uuid.UUID, req dto.ReceiveTransferRequest) (*dto.TransferResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*dto.TransferResponse, error)
	List(ctx context.Context, filter dto.TransferFilter) ([]dto.TransferResponse, error)
}

type transferService struct {
	repo    repository.TransferRepository
	stock   StockService
	catalog repository.CatalogRepository
	audit   AuditLogger
}

func NewTransferService(repo repository.TransferRepository, stock StockService, catalog repository.CatalogRepository, audit AuditLogger) TransferService {
	return &transferService{repo: repo, stock: stock, catalog: catalog, audit: audit}
}

// ── Create ────────────────────────────────────────────────────────────────────
// The requester acts at the destination branch, pulling stock from the source.
// No ledger change happens yet; quantities leave the source only at approve.

func (s *transferService) Create(ctx context.Context, actor Actor, req dto.CreateTransferRequest) (*dto.CreateTransferResponse, error) {
	fromID, err := uuid.Parse(req.FromBranchID)
	if err != nil {
		return nil, apierror.Validation("invalid from_branch_id")
	}
	toID, err := uuid.Parse(req.ToBranchID)
	if err != nil {
		return nil, apierror.Validation("invalid to_branch_id")
	}
	if fromID == toID {
		return nil, apierror.Validation("source and destination branch must differ")
	}
	if !actor.AtBranch(toID) {
		return nil, apierror.Authorization("transfers can only be requested for your own branch")
	}

	fromBranch, err := s.catalog.BranchByID(ctx, fromID)
	if err != nil {
		return nil, apierror.NotFound("source branch not found")
	}
	toBranch, err := s.catalog.BranchByID(ctx, toID)
	if err != nil {
		return nil, apierror.NotFound("destination branch not found")
	}

	items := make([]model.TransferItem, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, apierror.Validation("invalid product_id in items")
		}
		name := it.ProductName
		if name == "" {
			p, err := s.catalog.ProductByID(ctx, pid)
			if err != nil {
				return nil, apierror.NotFound(fmt.Sprintf("product %s not found", it.ProductID))
			}
			name = p.Name
		}
		item := model.TransferItem{
			ProductID:         pid,
			ProductName:       name,
			VariantName:       it.VariantName,
			QuantityRequested: it.Quantity,
		}
		if it.VariantID != "" {
			vid, err := uuid.Parse(it.VariantID)
			if err != nil {
				return nil, apierror.Validation("invalid variant_id in items")
			}
			item.VariantID = &vid
		}
		items = append(items, item)
	}

	actorID := actor.ID
	var transfer model.Transfer
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		num, err := s.repo.NextNumber(ctx, tx)
		if err != nil {
			return err
		}
		transfer = model.Transfer{
			Number:          fmt.Sprintf("TR-%05d", num),
			Status:          model.TransferPending,
			FromBranchID:    fromID,
			FromBranchName:  fromBranch.Name,
			ToBranchID:      toID,
			ToBranchName:    toBranch.Name,
			RequestedBy:     &actorID,
			RequestedByName: actor.Name,
			Notes:           req.Notes,
			RequestedAt:     time.Now(),
			Items:           items,
		}
		return s.repo.CreateTx(tx, &transfer)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.audit.Log(ctx, actor, "transfer_create", fmt.Sprintf("requested %s from %s", transfer.Number, fromBranch.Name))
	return &dto.CreateTransferResponse{ID: transfer.ID.String(), Number: transfer.Number}, nil
}

// ── Approve ───────────────────────────────────────────────────────────────────
// Source-branch action. Debits the source ledger with the approved quantity
// (requested when no override is given) and moves pending → approved. The
// status change is a compare-and-swap so a concurrent approve or reject of
// the same transfer loses cleanly.

func (s *transferService) Approve(ctx context.Context, actor Actor, id uuid.UUID, req dto.ApproveTransferRequest) (*dto.TransferResponse, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("transfer not found")
	}
	if !actor.AtBranch(transfer.FromBranchID) {
		return nil, apierror.Authorization("only the source branch can approve a transfer")
	}
	if transfer.Status != model.TransferPending {
		return nil, apierror.StateConflict(fmt.Sprintf("transfer is %s, expected pending", transfer.Status))
	}

	overrides := make(map[uuid.UUID]int, len(req.Items))
	for _, o := range req.Items {
		itemID, err := uuid.Parse(o.ItemID)
		if err != nil {
			return nil, apierror.Validation("invalid item_id in items")
		}
		overrides[itemID] = o.QuantityApproved
	}

	actorID := actor.ID
	now := time.Now()
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateStatusTx(tx, id, model.TransferPending, map[string]interface{}{
			"status":           model.TransferApproved,
			"approved_by":      actorID,
			"approved_by_name": actor.Name,
			"approved_at":      now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apierror.StateConflict("transfer was modified concurrently")
		}

		items, err := s.repo.ItemsTx(tx, id)
		if err != nil {
			return err
		}
		refID := id
		for _, item := range items {
			qty := item.QuantityRequested
			if override, found := overrides[item.ID]; found {
				qty = override
			}
			if err := s.repo.UpdateItemApprovedTx(tx, id, item.ID, qty); err != nil {
				return err
			}
			if qty == 0 {
				continue
			}
			_, err := s.stock.AdjustTx(tx, AdjustParams{
				Key: repository.StockKey{
					ProductID: item.ProductID,
					VariantID: item.VariantID,
					BranchID:  transfer.FromBranchID,
				},
				Delta:       -qty,
				Kind:        MovementTransferOut,
				Reason:      fmt.Sprintf("Transfer %s to %s", transfer.Number, transfer.ToBranchName),
				ReferenceID: &refID,
				Actor:       actor,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.audit.Log(ctx, actor, "transfer_approve", fmt.Sprintf("approved %s", transfer.Number))
	return s.Get(ctx, id)
}

// ── Reject ────────────────────────────────────────────────────────────────────

func (s *transferService) Reject(ctx context.Context, actor Actor, id uuid.UUID, req dto.RejectTransferRequest) (*dto.TransferResponse, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("transfer not found")
	}
	if !actor.AtBranch(transfer.FromBranchID) {
		return nil, apierror.Authorization("only the source branch can reject a transfer")
	}
	if transfer.Status != model.TransferPending {
		return nil, apierror.StateConflict(fmt.Sprintf("transfer is %s, expected pending", transfer.Status))
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateStatusTx(tx, id, model.TransferPending, map[string]interface{}{
			"status":        model.TransferRejected,
			"reject_reason": req.Reason,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apierror.StateConflict("transfer was modified concurrently")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.audit.Log(ctx, actor, "transfer_reject", fmt.Sprintf("rejected %s: %s", transfer.Number, req.Reason))
	return s.Get(ctx, id)
}

// ── Pickup ────────────────────────────────────────────────────────────────────
// Marks the approved goods as on the road. No ledger change.

func (s *transferService) Pickup(ctx context.Context, actor Actor, id uuid.UUID, req dto.PickupTransferRequest) (*dto.TransferResponse, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("transfer not found")
	}
	if !actor.AtBranch(transfer.FromBranchID) {
		return nil, apierror.Authorization("only the source branch can mark a transfer picked up")
	}
	if transfer.Status != model.TransferApproved {
		return nil, apierror.StateConflict(fmt.Sprintf("transfer is %s, expected approved", transfer.Status))
	}

	updates := map[string]interface{}{
		"status":       model.TransferInTransit,
		"driver_name":  req.DriverName,
		"picked_up_at": time.Now(),
	}
	if req.DriverID != "" {
		driverID, err := uuid.Parse(req.DriverID)
		if err != nil {
			return nil, apierror.Validation("invalid driver_id")
		}
		updates["driver_id"] = driverID
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateStatusTx(tx, id, model.TransferApproved, updates)
		if err != nil {
			return err
		}
		if !ok {
			return apierror.StateConflict("transfer was modified concurrently")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.audit.Log(ctx, actor, "transfer_pickup", fmt.Sprintf("%s picked up by %s", transfer.Number, req.DriverName))
	return s.Get(ctx, id)
}

// ── Receive ───────────────────────────────────────────────────────────────────
// Destination-branch action. Credits the destination ledger with the received
// quantity (falling back to approved, then requested) and completes the
// transfer. A destination entry is created on first receipt of that product.
// Receiving more than was approved is accepted but logged as over-receipt.

func (s *transferService) Receive(ctx context.Context, actor Actor, id uuid.UUID, req dto.ReceiveTransferRequest) (*dto.TransferResponse, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("transfer not found")
	}
	if !actor.AtBranch(transfer.ToBranchID) {
		return nil, apierror.Authorization("only the destination branch can receive a transfer")
	}
	if transfer.Status != model.TransferInTransit {
		return nil, apierror.StateConflict(fmt.Sprintf("transfer is %s, expected in_transit", transfer.Status))
	}

	received := make(map[uuid.UUID]int, len(req.Items))
	for _, r := range req.Items {
		itemID, err := uuid.Parse(r.ItemID)
		if err != nil {
			return nil, apierror.Validation("invalid item_id in items")
		}
		received[itemID] = r.QuantityReceived
	}

	actorID := actor.ID
	now := time.Now()
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateStatusTx(tx, id, model.TransferInTransit, map[string]interface{}{
			"status":           model.TransferCompleted,
			"received_by":      actorID,
			"received_by_name": actor.Name,
			"delivered_at":     now,
			"completed_at":     now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apierror.StateConflict("transfer was modified concurrently")
		}

		items, err := s.repo.ItemsTx(tx, id)
		if err != nil {
			return err
		}
		refID := id
		for _, item := range items {
			if qty, found := received[item.ID]; found {
				if err := s.repo.UpdateItemReceivedTx(tx, id, item.ID, qty); err != nil {
					return err
				}
				item.QuantityReceived = &qty
			}
			qty := item.EffectiveReceived()
			if qty > item.EffectiveApproved() {
				log.Warn().
					Str("transfer", transfer.Number).
					Str("product", item.ProductName).
					Int("approved", item.EffectiveApproved()).
					Int("received", qty).
					Msg("transfer over-receipt")
			}
			if qty == 0 {
				continue
			}
			_, err := s.stock.AdjustTx(tx, AdjustParams{
				Key: repository.StockKey{
					ProductID: item.ProductID,
					VariantID: item.VariantID,
					BranchID:  transfer.ToBranchID,
				},
				Delta:       qty,
				Kind:        MovementTransferIn,
				Reason:      fmt.Sprintf("Transfer %s from %s", transfer.Number, transfer.FromBranchName),
				ReferenceID: &refID,
				Actor:       actor,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.audit.Log(ctx, actor, "transfer_receive", fmt.Sprintf("completed %s", transfer.Number))
	return s.Get(ctx, id)
}

// Delete removes a pending or rejected transfer that never moved stock. Once
// any stock has moved the transfer is immutable history.
func (s *transferService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFound("transfer not found")
	}
	if transfer.Status != model.TransferPending && transfer.Status != model.TransferRejected {
		return apierror.StateConflict("only pending or rejected transfers can be deleted")
	}
	if !actor.AtBranch(transfer.ToBranchID) {
		return apierror.Authorization("only the requesting branch can delete its transfer")
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.DeleteTx(tx, id)
	})
}

func (s *transferService) Get(ctx context.Context, id uuid.UUID) (*dto.TransferResponse, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("transfer not found")
	}
	return transferToResponse(transfer), nil
}

func (s *transferService) List(ctx context.Context, filter dto.TransferFilter) ([]dto.TransferResponse, error) {
	transfers, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		out = append(out, *transferToResponse(&transfers[i]))
	}
	return out, nil
}

func transferToResponse(t *model.Transfer) *dto.TransferResponse {
	items := make([]dto.TransferItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		resp := dto.TransferItemResponse{
			ID:                item.ID.String(),
			ProductID:         item.ProductID.String(),
			ProductName:       item.ProductName,
			VariantName:       item.VariantName,
			QuantityRequested: item.QuantityRequested,
			QuantityApproved:  item.QuantityApproved,
			QuantityReceived:  item.QuantityReceived,
		}
		if item.VariantID != nil {
			resp.VariantID = item.VariantID.String()
		}
		items = append(items, resp)
	}
	resp := &dto.TransferResponse{
		ID:             t.ID.String(),
		Number:         t.Number,
		Status:         t.Status,
		FromBranchID:   t.FromBranchID.String(),
		FromBranchName: t.FromBranchName,
		ToBranchID:     t.ToBranchID.String(),
		ToBranchName:   t.ToBranchName,
		RequestedBy:    t.RequestedByName,
		ApprovedBy:     t.ApprovedByName,
		DriverName:     t.DriverName,
		ReceivedBy:     t.ReceivedByName,
		RejectReason:   t.RejectReason,
		Notes:          t.Notes,
		RequestedAt:    t.RequestedAt.Format(time.RFC3339),
		Items:          items,
	}
	if t.CompletedAt != nil {
		resp.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

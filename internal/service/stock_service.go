package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/apierror"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/config"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Movement kinds recorded by the ledger.
const (
	MovementSale        = "sale"
	MovementTransferOut = "transfer_out"
	MovementTransferIn  = "transfer_in"
	MovementRedemption  = "redemption"
	MovementManual      = "manual"
	MovementRestore     = "restore"
	MovementSync        = "sync"
)

// AdjustParams describes one ledger adjustment applied inside a caller's
// transaction. Every workflow (invoices, transfers, redemptions, sync) funnels
// its stock deltas through here so the floor policy and the movement audit
// trail are applied in exactly one place.
type AdjustParams struct {
	Key         repository.StockKey
	Delta       int
	Kind        string
	Reason      string
	ReferenceID *uuid.UUID
	Actor       Actor
	// Note, when set, is appended to the entry's free-text notes log as a
	// timestamped line.
	Note string
}

type StockService interface {
	// Adjust applies a manual delta in its own transaction.
	Adjust(ctx context.Context, actor Actor, req dto.AdjustStockRequest) (*dto.StockEntryResponse, error)
	// AdjustTx applies a delta inside the caller's transaction, creating the
	// entry on first touch. Returns the entry with its post-adjust quantity.
	AdjustTx(tx *gorm.DB, p AdjustParams) (*model.StockEntry, error)
	// AdjustEntryTx is AdjustTx addressed by ledger entry id instead of
	// natural key, for callers holding an explicit entry reference.
	AdjustEntryTx(tx *gorm.DB, entryID uuid.UUID, p AdjustParams) (*model.StockEntry, error)
	// QuantityTx reads the current quantity without adjusting. Absent entries
	// read as zero.
	QuantityTx(tx *gorm.DB, key repository.StockKey) (int, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.StockEntryResponse, error)
	List(ctx context.Context, filter dto.StockFilter) ([]dto.StockEntryResponse, error)
	Movements(ctx context.Context, entryID uuid.UUID, limit int) ([]dto.StockMovementResponse, error)
}

type stockService struct {
	repo        repository.StockRepository
	floorPolicy string
}

func NewStockService(repo repository.StockRepository, floorPolicy string) StockService {
	if floorPolicy != config.FloorReject {
		floorPolicy = config.FloorAllow
	}
	return &stockService{repo: repo, floorPolicy: floorPolicy}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (s *stockService) Adjust(ctx context.Context, actor Actor, req dto.AdjustStockRequest) (*dto.StockEntryResponse, error) {
	key, err := parseStockKey(req.ProductID, req.VariantID, req.BranchID)
	if err != nil {
		return nil, err
	}
	if !actor.AtBranch(key.BranchID) {
		return nil, apierror.Authorization("cannot adjust stock of another branch")
	}

	var entry *model.StockEntry
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		entry, err = s.AdjustTx(tx, AdjustParams{
			Key:    key,
			Delta:  req.Delta,
			Kind:   MovementManual,
			Reason: req.Notes,
			Actor:  actor,
			Note:   req.Notes,
		})
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return stockEntryToResponse(entry), nil
}

func (s *stockService) AdjustTx(tx *gorm.DB, p AdjustParams) (*model.StockEntry, error) {
	entry, err := s.repo.FindByKeyTx(tx, p.Key, true)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = &model.StockEntry{
			ProductID: p.Key.ProductID,
			VariantID: p.Key.VariantID,
			BranchID:  p.Key.BranchID,
			Quantity:  0,
		}
		if err := s.repo.CreateTx(tx, entry); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s.applyAdjust(tx, entry, p)
}

func (s *stockService) AdjustEntryTx(tx *gorm.DB, entryID uuid.UUID, p AdjustParams) (*model.StockEntry, error) {
	entry, err := s.repo.FindByIDTx(tx, entryID, true)
	if err != nil {
		return nil, err
	}
	return s.applyAdjust(tx, entry, p)
}

func (s *stockService) applyAdjust(tx *gorm.DB, entry *model.StockEntry, p AdjustParams) (*model.StockEntry, error) {
	before := entry.Quantity
	after := before + p.Delta

	flagged := false
	if after < 0 {
		if s.floorPolicy == config.FloorReject {
			return nil, apierror.InsufficientStock(fmt.Sprintf(
				"insufficient stock: have %d, need %d", before, -p.Delta))
		}
		flagged = true
		log.Warn().
			Str("stock_entry_id", entry.ID.String()).
			Str("kind", p.Kind).
			Int("before", before).
			Int("after", after).
			Msg("stock driven negative, movement flagged for review")
	}

	if err := s.repo.AdjustQuantityTx(tx, entry.ID, p.Delta); err != nil {
		return nil, err
	}
	entry.Quantity = after

	if p.Note != "" {
		line := fmt.Sprintf("[%s] %+d: %s", time.Now().Format("2006-01-02 15:04"), p.Delta, p.Note)
		if err := s.repo.AppendNotesTx(tx, entry.ID, line); err != nil {
			return nil, err
		}
	}

	var actorID *uuid.UUID
	if p.Actor.ID != uuid.Nil {
		id := p.Actor.ID
		actorID = &id
	}
	mov := &model.StockMovement{
		StockEntryID:   entry.ID,
		Kind:           p.Kind,
		Delta:          p.Delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         p.Reason,
		ReferenceID:    p.ReferenceID,
		Flagged:        flagged,
		ActorID:        actorID,
		ActorName:      p.Actor.Name,
	}
	if err := s.repo.CreateMovementTx(tx, mov); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *stockService) QuantityTx(tx *gorm.DB, key repository.StockKey) (int, error) {
	entry, err := s.repo.FindByKeyTx(tx, key, false)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.Quantity, nil
}

func (s *stockService) Get(ctx context.Context, id uuid.UUID) (*dto.StockEntryResponse, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("stock entry not found")
	}
	return stockEntryToResponse(entry), nil
}

func (s *stockService) List(ctx context.Context, filter dto.StockFilter) ([]dto.StockEntryResponse, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *stockEntryToResponse(&entries[i]))
	}
	return out, nil
}

func (s *stockService) Movements(ctx context.Context, entryID uuid.UUID, limit int) ([]dto.StockMovementResponse, error) {
	movs, err := s.repo.ListMovements(ctx, entryID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.StockMovementResponse{
			ID:             m.ID.String(),
			Kind:           m.Kind,
			Delta:          m.Delta,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Reason:         m.Reason,
			Flagged:        m.Flagged,
			ActorName:      m.ActorName,
			CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

// parseStockKey validates and parses the natural-key triple from request
// strings. An empty variant id means the product has no variant split.
func parseStockKey(productID, variantID, branchID string) (repository.StockKey, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return repository.StockKey{}, apierror.Validation("invalid product_id")
	}
	bid, err := uuid.Parse(branchID)
	if err != nil {
		return repository.StockKey{}, apierror.Validation("invalid branch_id")
	}
	key := repository.StockKey{ProductID: pid, BranchID: bid}
	if variantID != "" {
		vid, err := uuid.Parse(variantID)
		if err != nil {
			return repository.StockKey{}, apierror.Validation("invalid variant_id")
		}
		key.VariantID = &vid
	}
	return key, nil
}

func stockEntryToResponse(e *model.StockEntry) *dto.StockEntryResponse {
	resp := &dto.StockEntryResponse{
		ID:        e.ID.String(),
		ProductID: e.ProductID.String(),
		BranchID:  e.BranchID.String(),
		Quantity:  e.Quantity,
		Notes:     e.Notes,
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
	if e.VariantID != nil {
		resp.VariantID = e.VariantID.String()
	}
	if e.Product != nil {
		resp.ProductName = e.Product.Name
	}
	if e.Branch != nil {
		resp.BranchName = e.Branch.Name
	}
	return resp
}

package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/apierror"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/config"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory StockRepository stub ───────────────────────────────────────────

type stubStockRepo struct {
	entries   map[uuid.UUID]*model.StockEntry
	movements []model.StockMovement
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{entries: make(map[uuid.UUID]*model.StockEntry)}
}

func sameVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *stubStockRepo) FindByKeyTx(_ *gorm.DB, key repository.StockKey, _ bool) (*model.StockEntry, error) {
	for _, e := range r.entries {
		if e.ProductID == key.ProductID && e.BranchID == key.BranchID && sameVariant(e.VariantID, key.VariantID) {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStockRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID, _ bool) (*model.StockEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubStockRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockEntry, error) {
	return r.FindByIDTx(nil, id, false)
}

func (r *stubStockRepo) CreateTx(_ *gorm.DB, e *model.StockEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries[e.ID] = e
	return nil
}

func (r *stubStockRepo) AdjustQuantityTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	e, ok := r.entries[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Quantity += delta
	return nil
}

func (r *stubStockRepo) AppendNotesTx(_ *gorm.DB, id uuid.UUID, noteLine string) error {
	e, ok := r.entries[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if e.Notes == "" {
		e.Notes = noteLine
	} else {
		e.Notes += "\n" + noteLine
	}
	return nil
}

func (r *stubStockRepo) CreateMovementTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubStockRepo) List(_ context.Context, filter dto.StockFilter) ([]model.StockEntry, error) {
	var result []model.StockEntry
	for _, e := range r.entries {
		if filter.BranchID != "" && e.BranchID.String() != filter.BranchID {
			continue
		}
		if filter.ProductID != "" && e.ProductID.String() != filter.ProductID {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (r *stubStockRepo) ListMovements(_ context.Context, entryID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var result []model.StockMovement
	for _, m := range r.movements {
		if m.StockEntryID == entryID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *stubStockRepo) DB() *gorm.DB { return nil }

var _ repository.StockRepository = (*stubStockRepo)(nil)

// movementsFor filters the recorded movements by entry id.
func (r *stubStockRepo) movementsFor(entryID uuid.UUID) []model.StockMovement {
	movs, _ := r.ListMovements(context.Background(), entryID, 0)
	return movs
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func branchActor(branchID uuid.UUID) service.Actor {
	id := branchID
	return service.Actor{ID: uuid.New(), Name: "Counter Staff", Role: "staff", BranchID: &id}
}

func adminActor() service.Actor {
	return service.Actor{ID: uuid.New(), Name: "Head Office", Role: "admin"}
}

func seedEntry(repo *stubStockRepo, productID uuid.UUID, variantID *uuid.UUID, branchID uuid.UUID, qty int) *model.StockEntry {
	e := &model.StockEntry{
		ID:        uuid.New(),
		ProductID: productID,
		VariantID: variantID,
		BranchID:  branchID,
		Quantity:  qty,
	}
	repo.entries[e.ID] = e
	return e
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestManualAdjustCreatesEntry(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorAllow)

	productID := uuid.New()
	branchID := uuid.New()

	resp, err := svc.Adjust(context.Background(), branchActor(branchID), dto.AdjustStockRequest{
		ProductID: productID.String(),
		BranchID:  branchID.String(),
		Delta:     12,
		Notes:     "initial receiving",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Quantity)

	require.Len(t, repo.movements, 1)
	mov := repo.movements[0]
	assert.Equal(t, service.MovementManual, mov.Kind)
	assert.Equal(t, 0, mov.QuantityBefore)
	assert.Equal(t, 12, mov.QuantityAfter)
	assert.False(t, mov.Flagged)
}

func TestAdjustOtherBranchForbidden(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorAllow)

	_, err := svc.Adjust(context.Background(), branchActor(uuid.New()), dto.AdjustStockRequest{
		ProductID: uuid.New().String(),
		BranchID:  uuid.New().String(),
		Delta:     1,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindAuthorization, apierror.KindOf(err))
	assert.Empty(t, repo.entries)
}

func TestAdminAdjustsAnyBranch(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorAllow)

	_, err := svc.Adjust(context.Background(), adminActor(), dto.AdjustStockRequest{
		ProductID: uuid.New().String(),
		BranchID:  uuid.New().String(),
		Delta:     5,
	})
	assert.NoError(t, err)
}

func TestFloorAllowFlagsNegative(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorAllow)

	branchID := uuid.New()
	entry := seedEntry(repo, uuid.New(), nil, branchID, 3)

	resp, err := svc.Adjust(context.Background(), branchActor(branchID), dto.AdjustStockRequest{
		ProductID: entry.ProductID.String(),
		BranchID:  branchID.String(),
		Delta:     -5,
	})
	require.NoError(t, err)
	assert.Equal(t, -2, resp.Quantity)

	movs := repo.movementsFor(entry.ID)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Flagged)
	assert.Equal(t, 3, movs[0].QuantityBefore)
	assert.Equal(t, -2, movs[0].QuantityAfter)
}

func TestFloorRejectBlocksNegative(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorReject)

	branchID := uuid.New()
	entry := seedEntry(repo, uuid.New(), nil, branchID, 3)

	_, err := svc.Adjust(context.Background(), branchActor(branchID), dto.AdjustStockRequest{
		ProductID: entry.ProductID.String(),
		BranchID:  branchID.String(),
		Delta:     -5,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientStock, apierror.KindOf(err))
	assert.Equal(t, 3, repo.entries[entry.ID].Quantity)
	assert.Empty(t, repo.movementsFor(entry.ID))
}

func TestFloorRejectAllowsExactZero(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorReject)

	branchID := uuid.New()
	entry := seedEntry(repo, uuid.New(), nil, branchID, 3)

	resp, err := svc.Adjust(context.Background(), branchActor(branchID), dto.AdjustStockRequest{
		ProductID: entry.ProductID.String(),
		BranchID:  branchID.String(),
		Delta:     -3,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Quantity)
}

func TestAdjustAppendsNoteLine(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorAllow)

	branchID := uuid.New()
	entry := seedEntry(repo, uuid.New(), nil, branchID, 0)

	_, err := svc.Adjust(context.Background(), branchActor(branchID), dto.AdjustStockRequest{
		ProductID: entry.ProductID.String(),
		BranchID:  branchID.String(),
		Delta:     4,
		Notes:     "received delivery",
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(repo.entries[entry.ID].Notes, "+4: received delivery"))
}

func TestVariantsTrackedSeparately(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorAllow)

	productID := uuid.New()
	branchID := uuid.New()
	variantID := uuid.New()
	actor := branchActor(branchID)

	_, err := svc.Adjust(context.Background(), actor, dto.AdjustStockRequest{
		ProductID: productID.String(),
		BranchID:  branchID.String(),
		Delta:     10,
	})
	require.NoError(t, err)

	resp, err := svc.Adjust(context.Background(), actor, dto.AdjustStockRequest{
		ProductID: productID.String(),
		VariantID: variantID.String(),
		BranchID:  branchID.String(),
		Delta:     7,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Quantity)
	assert.Len(t, repo.entries, 2)
}

func TestQuantityAbsentReadsZero(t *testing.T) {
	repo := newStubStockRepo()
	svc := service.NewStockService(repo, config.FloorAllow)

	qty, err := svc.QuantityTx(nil, repository.StockKey{ProductID: uuid.New(), BranchID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
	assert.Empty(t, repo.entries)
}

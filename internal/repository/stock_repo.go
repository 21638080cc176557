package repository

import (
	"context"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockKey is the natural key of a ledger entry. VariantID nil means the
// product has no variant split.
type StockKey struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	BranchID  uuid.UUID
}

// StockRepository is the only data-access path to ledger rows. Services
// depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type StockRepository interface {
	// FindByKeyTx loads the entry for key inside tx. When forUpdate is set a
	// row lock is taken so concurrent adjusters of the same entry serialize.
	// Returns gorm.ErrRecordNotFound when the entry does not exist yet.
	FindByKeyTx(tx *gorm.DB, key StockKey, forUpdate bool) (*model.StockEntry, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID, forUpdate bool) (*model.StockEntry, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockEntry, error)
	CreateTx(tx *gorm.DB, e *model.StockEntry) error
	// AdjustQuantityTx applies delta in place (quantity = quantity + delta).
	AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) error
	AppendNotesTx(tx *gorm.DB, id uuid.UUID, noteLine string) error
	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error

	List(ctx context.Context, filter dto.StockFilter) ([]model.StockEntry, error)
	ListMovements(ctx context.Context, entryID uuid.UUID, limit int) ([]model.StockMovement, error)

	// DB exposes the underlying handle so services can open transactions.
	DB() *gorm.DB
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) DB() *gorm.DB { return r.db }

func variantCond(q *gorm.DB, variantID *uuid.UUID) *gorm.DB {
	if variantID == nil {
		return q.Where("variant_id IS NULL")
	}
	return q.Where("variant_id = ?", *variantID)
}

func (r *stockRepo) FindByKeyTx(tx *gorm.DB, key StockKey, forUpdate bool) (*model.StockEntry, error) {
	var e model.StockEntry
	q := tx.Where("product_id = ? AND branch_id = ?", key.ProductID, key.BranchID)
	q = variantCond(q, key.VariantID)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *stockRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID, forUpdate bool) (*model.StockEntry, error) {
	var e model.StockEntry
	q := tx.Where("id = ?", id)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *stockRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockEntry, error) {
	var e model.StockEntry
	err := r.db.WithContext(ctx).Preload("Product").Preload("Branch").First(&e, "id = ?", id).Error
	return &e, err
}

func (r *stockRepo) CreateTx(tx *gorm.DB, e *model.StockEntry) error {
	return tx.Create(e).Error
}

func (r *stockRepo) AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.StockEntry{}).Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *stockRepo) AppendNotesTx(tx *gorm.DB, id uuid.UUID, noteLine string) error {
	return tx.Model(&model.StockEntry{}).Where("id = ?", id).
		Update("notes", gorm.Expr("TRIM(BOTH E'\\n' FROM notes || E'\\n' || ?)", noteLine)).Error
}

func (r *stockRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockRepo) List(ctx context.Context, filter dto.StockFilter) ([]model.StockEntry, error) {
	var entries []model.StockEntry
	q := r.db.WithContext(ctx).Preload("Product").Preload("Branch")
	if filter.BranchID != "" {
		q = q.Where("branch_id = ?", filter.BranchID)
	}
	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	err := q.Find(&entries).Error
	return entries, err
}

func (r *stockRepo) ListMovements(ctx context.Context, entryID uuid.UUID, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	var movs []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("stock_entry_id = ?", entryID).
		Order("created_at DESC").Limit(limit).
		Find(&movs).Error
	return movs, err
}

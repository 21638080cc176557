package repository

import (
	"context"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransferRepository interface {
	CreateTx(tx *gorm.DB, t *model.Transfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transfer, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transfer, error)
	List(ctx context.Context, filter dto.TransferFilter) ([]model.Transfer, error)

	// NextNumber draws from the durable transfer-number sequence: numbers are
	// monotonically increasing and never reused, even after deletes.
	NextNumber(ctx context.Context, tx *gorm.DB) (int, error)

	// UpdateStatusTx is the compare-and-swap lifecycle guard: it updates the
	// transfer only when its status still equals expected, and reports whether
	// a row was actually changed. Callers must treat false as a state conflict.
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, expected string, updates map[string]interface{}) (bool, error)

	ItemsTx(tx *gorm.DB, transferID uuid.UUID) ([]model.TransferItem, error)
	UpdateItemApprovedTx(tx *gorm.DB, transferID, itemID uuid.UUID, qty int) error
	UpdateItemReceivedTx(tx *gorm.DB, transferID, itemID uuid.UUID, qty int) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type transferRepo struct{ db *gorm.DB }

func NewTransferRepository(db *gorm.DB) TransferRepository { return &transferRepo{db: db} }

func (r *transferRepo) DB() *gorm.DB { return r.db }

func (r *transferRepo) CreateTx(tx *gorm.DB, t *model.Transfer) error {
	return tx.Create(t).Error
}

func (r *transferRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transfer, error) {
	var t model.Transfer
	err := r.db.WithContext(ctx).Preload("Items").First(&t, "id = ?", id).Error
	return &t, err
}

func (r *transferRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transfer, error) {
	var t model.Transfer
	err := tx.Preload("Items").First(&t, "id = ?", id).Error
	return &t, err
}

func (r *transferRepo) List(ctx context.Context, filter dto.TransferFilter) ([]model.Transfer, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	q := r.db.WithContext(ctx).Model(&model.Transfer{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.BranchID != "" {
		q = q.Where("from_branch_id = ? OR to_branch_id = ?", filter.BranchID, filter.BranchID)
	}
	var transfers []model.Transfer
	err := q.Preload("Items").Order("requested_at DESC").Limit(limit).Find(&transfers).Error
	return transfers, err
}

func (r *transferRepo) NextNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('stock_transfers_number_seq')").Scan(&num).Error
	return num, err
}

func (r *transferRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, expected string, updates map[string]interface{}) (bool, error) {
	res := tx.Model(&model.Transfer{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *transferRepo) ItemsTx(tx *gorm.DB, transferID uuid.UUID) ([]model.TransferItem, error) {
	var items []model.TransferItem
	err := tx.Where("transfer_id = ?", transferID).Find(&items).Error
	return items, err
}

func (r *transferRepo) UpdateItemApprovedTx(tx *gorm.DB, transferID, itemID uuid.UUID, qty int) error {
	return tx.Model(&model.TransferItem{}).
		Where("id = ? AND transfer_id = ?", itemID, transferID).
		Update("quantity_approved", qty).Error
}

func (r *transferRepo) UpdateItemReceivedTx(tx *gorm.DB, transferID, itemID uuid.UUID, qty int) error {
	return tx.Model(&model.TransferItem{}).
		Where("id = ? AND transfer_id = ?", itemID, transferID).
		Update("quantity_received", qty).Error
}

func (r *transferRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("transfer_id = ?", id).Delete(&model.TransferItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Transfer{}, "id = ?", id).Error
}

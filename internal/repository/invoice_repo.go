package repository

import (
	"context"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*model.Invoice, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, error)

	UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	// CancelTx is the cancellation guard: it applies updates only while the
	// invoice is not yet cancelled, and reports whether a row was actually
	// changed. Callers must treat false as a state conflict.
	CancelTx(tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (bool, error)
	ItemsTx(tx *gorm.DB, invoiceID uuid.UUID) ([]model.InvoiceItem, error)
	DeleteItemsTx(tx *gorm.DB, invoiceID uuid.UUID) error
	CreateItemTx(tx *gorm.DB, item *model.InvoiceItem) error
	CreateEditRecordTx(tx *gorm.DB, rec *model.InvoiceEditRecord) error
	ListEditHistory(ctx context.Context, invoiceID uuid.UUID) ([]model.InvoiceEditRecord, error)

	// ClearAll wipes every invoice and item; administrative use only.
	ClearAll(ctx context.Context) (int64, error)

	Count(ctx context.Context) (int64, error)
	LastCreatedAt(ctx context.Context) (*time.Time, error)

	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").First(&inv, "id = ?", id).Error
	return &inv, err
}

func (r *invoiceRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Preload("Items").First(&inv, "id = ?", id).Error
	return &inv, err
}

func (r *invoiceRepo) FindByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).First(&inv, "number = ?", number).Error
	return &inv, err
}

func (r *invoiceRepo) List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Model(&model.Invoice{})
	if filter.StartDate != "" {
		q = q.Where("DATE(created_at) >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		q = q.Where("DATE(created_at) <= ?", filter.EndDate)
	}
	var invoices []model.Invoice
	err := q.Preload("Items").Order("created_at DESC").Limit(limit).Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", id).Updates(updates).Error
}

func (r *invoiceRepo) CancelTx(tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	res := tx.Model(&model.Invoice{}).
		Where("id = ? AND cancelled = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *invoiceRepo) ItemsTx(tx *gorm.DB, invoiceID uuid.UUID) ([]model.InvoiceItem, error) {
	var items []model.InvoiceItem
	err := tx.Where("invoice_id = ?", invoiceID).Find(&items).Error
	return items, err
}

func (r *invoiceRepo) DeleteItemsTx(tx *gorm.DB, invoiceID uuid.UUID) error {
	return tx.Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceItem{}).Error
}

func (r *invoiceRepo) CreateItemTx(tx *gorm.DB, item *model.InvoiceItem) error {
	return tx.Create(item).Error
}

func (r *invoiceRepo) CreateEditRecordTx(tx *gorm.DB, rec *model.InvoiceEditRecord) error {
	return tx.Create(rec).Error
}

func (r *invoiceRepo) ListEditHistory(ctx context.Context, invoiceID uuid.UUID) ([]model.InvoiceEditRecord, error) {
	var recs []model.InvoiceEditRecord
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("edited_at DESC").
		Find(&recs).Error
	return recs, err
}

func (r *invoiceRepo) ClearAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.InvoiceItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("1 = 1").Delete(&model.Invoice{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func (r *invoiceRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).Count(&n).Error
	return n, err
}

func (r *invoiceRepo) LastCreatedAt(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("MAX(created_at)").Scan(&last).Error
	return last, err
}

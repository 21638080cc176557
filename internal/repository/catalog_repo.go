package repository

import (
	"context"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SyncProductRow is a ledger entry joined with its catalog product and
// optional variant, as shipped to offline clients.
type SyncProductRow struct {
	StockEntryID uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	Barcode      string
	Category     string
	Unit         string
	VariantID    *uuid.UUID
	VariantName  string
	Price        decimal.Decimal
	Cost         decimal.Decimal
	Stock        int
}

// CatalogRepository serves the read-only lookups the workflow services and
// the sync download need: branches, shifts, settings, coupons, products.
type CatalogRepository interface {
	BranchByID(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	ListBranches(ctx context.Context) ([]model.Branch, error)
	ShiftByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	ProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	SettingsMap(ctx context.Context) (map[string]string, error)
	Setting(ctx context.Context, key string) (string, error)
	ListActiveCoupons(ctx context.Context) ([]model.Coupon, error)
	ListCategories(ctx context.Context) ([]string, error)
	ProductsWithStock(ctx context.Context, branchID uuid.UUID, since string) ([]SyncProductRow, error)
	CountProducts(ctx context.Context) (int64, error)
	DB() *gorm.DB
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository { return &catalogRepo{db: db} }

func (r *catalogRepo) DB() *gorm.DB { return r.db }

func (r *catalogRepo) BranchByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var b model.Branch
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	return &b, err
}

func (r *catalogRepo) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	err := r.db.WithContext(ctx).Where("active = true").Order("name").Find(&branches).Error
	return branches, err
}

func (r *catalogRepo) ShiftByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *catalogRepo) ProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *catalogRepo) SettingsMap(ctx context.Context) (map[string]string, error) {
	var rows []model.Setting
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

func (r *catalogRepo) Setting(ctx context.Context, key string) (string, error) {
	var s model.Setting
	if err := r.db.WithContext(ctx).First(&s, "key = ?", key).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *catalogRepo) ListActiveCoupons(ctx context.Context) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := r.db.WithContext(ctx).Where("active = true").Find(&coupons).Error
	return coupons, err
}

func (r *catalogRepo) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Distinct("category").
		Where("category IS NOT NULL AND category != ''").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *catalogRepo) ProductsWithStock(ctx context.Context, branchID uuid.UUID, since string) ([]SyncProductRow, error) {
	q := r.db.WithContext(ctx).Table("stock_entries se").
		Select(`se.id as stock_entry_id, se.product_id, p.name as product_name,
			p.barcode, p.category, p.unit, se.variant_id, COALESCE(v.name, '') as variant_name,
			COALESCE(v.price, p.price) as price, COALESCE(v.cost, p.cost) as cost, se.quantity as stock`).
		Joins("JOIN products p ON p.id = se.product_id").
		Joins("LEFT JOIN product_variants v ON v.id = se.variant_id").
		Where("se.branch_id = ?", branchID)
	if since != "" {
		q = q.Where("se.updated_at > ? OR p.updated_at > ?", since, since)
	}
	var rows []SyncProductRow
	err := q.Scan(&rows).Error
	return rows, err
}

func (r *catalogRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, err
}

package repository

import (
	"context"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	CreateTx(tx *gorm.DB, c *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	// FindByPhone is the sync dedup lookup; returns gorm.ErrRecordNotFound
	// when the phone is unknown.
	FindByPhone(ctx context.Context, phone string) (*model.Customer, error)
	List(ctx context.Context, since string) ([]model.Customer, error)
	// AdjustLoyaltyTx moves loyalty points by delta, floored at zero.
	AdjustLoyaltyTx(tx *gorm.DB, id uuid.UUID, delta int) error
	DB() *gorm.DB
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) DB() *gorm.DB { return r.db }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) CreateTx(tx *gorm.DB, c *model.Customer) error {
	return tx.Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *customerRepo) FindByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, "phone = ?", phone).Error
	return &c, err
}

func (r *customerRepo) List(ctx context.Context, since string) ([]model.Customer, error) {
	q := r.db.WithContext(ctx).Model(&model.Customer{})
	if since != "" {
		q = q.Where("updated_at > ?", since)
	}
	var customers []model.Customer
	err := q.Find(&customers).Error
	return customers, err
}

func (r *customerRepo) AdjustLoyaltyTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Customer{}).Where("id = ?", id).
		Update("loyalty_points", gorm.Expr("GREATEST(0, COALESCE(loyalty_points, 0) + ?)", delta)).Error
}

package repository

import (
	"context"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository interface {
	Create(ctx context.Context, p *model.SubscriptionPlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SubscriptionPlan, error)
	List(ctx context.Context) ([]model.SubscriptionPlan, error)
	Update(ctx context.Context, p *model.SubscriptionPlan) error
	// ReplaceItemsTx swaps the whole allowance list in one transaction.
	ReplaceItemsTx(tx *gorm.DB, planID uuid.UUID, items []model.SubscriptionPlanItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	Items(ctx context.Context, planID uuid.UUID) ([]model.SubscriptionPlanItem, error)
	DB() *gorm.DB
}

type planRepo struct{ db *gorm.DB }

func NewPlanRepository(db *gorm.DB) PlanRepository { return &planRepo{db: db} }

func (r *planRepo) DB() *gorm.DB { return r.db }

func (r *planRepo) Create(ctx context.Context, p *model.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *planRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SubscriptionPlan, error) {
	var p model.SubscriptionPlan
	err := r.db.WithContext(ctx).Preload("Items").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *planRepo) List(ctx context.Context) ([]model.SubscriptionPlan, error) {
	var plans []model.SubscriptionPlan
	err := r.db.WithContext(ctx).Preload("Items").Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepo) Update(ctx context.Context, p *model.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *planRepo) ReplaceItemsTx(tx *gorm.DB, planID uuid.UUID, items []model.SubscriptionPlanItem) error {
	if err := tx.Where("plan_id = ?", planID).Delete(&model.SubscriptionPlanItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (r *planRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).Delete(&model.SubscriptionPlanItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.SubscriptionPlan{}, "id = ?", id).Error
	})
}

func (r *planRepo) Items(ctx context.Context, planID uuid.UUID) ([]model.SubscriptionPlanItem, error) {
	var items []model.SubscriptionPlanItem
	err := r.db.WithContext(ctx).Where("plan_id = ?", planID).Find(&items).Error
	return items, err
}

type SubscriptionRepository interface {
	Create(ctx context.Context, s *model.Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
	// FindByIDTx with forUpdate locks the subscription row for the duration of
	// the redemption transaction so two concurrent redeem calls against the
	// same allowance serialize.
	FindByIDTx(tx *gorm.DB, id uuid.UUID, forUpdate bool) (*model.Subscription, error)
	FindByCode(ctx context.Context, code string) (*model.Subscription, error)
	// FindNewestActive locates the newest active subscription by code,
	// customer id, or phone (first non-empty criterion wins).
	FindNewestActive(ctx context.Context, code string, customerID *uuid.UUID, phone string) (*model.Subscription, error)
	List(ctx context.Context, status string) ([]model.Subscription, error)
	Update(ctx context.Context, s *model.Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ExpireLapsed is the idempotent maintenance sweep: every active
	// subscription whose end date has passed becomes expired. Returns the
	// number of rows transitioned (zero on a repeat run).
	ExpireLapsed(ctx context.Context, today time.Time) (int64, error)

	// RedeemedTotalsTx sums prior redemptions per product/variant, keyed
	// "productID_variantID" ("productID_" when the variant is nil).
	RedeemedTotalsTx(tx *gorm.DB, subscriptionID uuid.UUID) (map[string]int, error)
	RedeemedTotals(ctx context.Context, subscriptionID uuid.UUID) (map[string]int, error)
	CreateRedemptionTx(tx *gorm.DB, rd *model.Redemption) error
	ListRedemptions(ctx context.Context, subscriptionID uuid.UUID) ([]model.Redemption, error)

	DB() *gorm.DB
}

type subscriptionRepo struct{ db *gorm.DB }

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository { return &subscriptionRepo{db: db} }

func (r *subscriptionRepo) DB() *gorm.DB { return r.db }

func (r *subscriptionRepo) Create(ctx context.Context, s *model.Subscription) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *subscriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var s model.Subscription
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *subscriptionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID, forUpdate bool) (*model.Subscription, error) {
	var s model.Subscription
	q := tx.Where("id = ?", id)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(&s).Error
	return &s, err
}

func (r *subscriptionRepo) FindByCode(ctx context.Context, code string) (*model.Subscription, error) {
	var s model.Subscription
	err := r.db.WithContext(ctx).First(&s, "code = ?", code).Error
	return &s, err
}

func (r *subscriptionRepo) FindNewestActive(ctx context.Context, code string, customerID *uuid.UUID, phone string) (*model.Subscription, error) {
	q := r.db.WithContext(ctx).Where("status = ?", model.SubscriptionActive)
	switch {
	case code != "":
		q = q.Where("code = ?", code)
	case customerID != nil:
		q = q.Where("customer_id = ?", *customerID)
	case phone != "":
		q = q.Where("customer_phone = ?", phone)
	default:
		return nil, gorm.ErrRecordNotFound
	}
	var s model.Subscription
	err := q.Order("end_date DESC").First(&s).Error
	return &s, err
}

func (r *subscriptionRepo) List(ctx context.Context, status string) ([]model.Subscription, error) {
	q := r.db.WithContext(ctx).Model(&model.Subscription{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var subs []model.Subscription
	err := q.Order("created_at DESC").Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepo) Update(ctx context.Context, s *model.Subscription) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *subscriptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Subscription{}, "id = ?", id).Error
}

func (r *subscriptionRepo) ExpireLapsed(ctx context.Context, today time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("status = ? AND end_date < ?", model.SubscriptionActive, today.Format("2006-01-02")).
		Update("status", model.SubscriptionExpired)
	return res.RowsAffected, res.Error
}

type redeemedRow struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Total     int
}

func redeemedKey(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return productID.String() + "_"
	}
	return productID.String() + "_" + variantID.String()
}

// RedeemedKey builds the map key used by RedeemedTotals.
func RedeemedKey(productID uuid.UUID, variantID *uuid.UUID) string {
	return redeemedKey(productID, variantID)
}

func redeemedTotals(q *gorm.DB, subscriptionID uuid.UUID) (map[string]int, error) {
	var rows []redeemedRow
	err := q.Model(&model.Redemption{}).
		Select("product_id, variant_id, SUM(quantity) as total").
		Where("subscription_id = ?", subscriptionID).
		Group("product_id, variant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int, len(rows))
	for _, row := range rows {
		totals[redeemedKey(row.ProductID, row.VariantID)] = row.Total
	}
	return totals, nil
}

func (r *subscriptionRepo) RedeemedTotalsTx(tx *gorm.DB, subscriptionID uuid.UUID) (map[string]int, error) {
	return redeemedTotals(tx, subscriptionID)
}

func (r *subscriptionRepo) RedeemedTotals(ctx context.Context, subscriptionID uuid.UUID) (map[string]int, error) {
	return redeemedTotals(r.db.WithContext(ctx), subscriptionID)
}

func (r *subscriptionRepo) CreateRedemptionTx(tx *gorm.DB, rd *model.Redemption) error {
	return tx.Create(rd).Error
}

func (r *subscriptionRepo) ListRedemptions(ctx context.Context, subscriptionID uuid.UUID) ([]model.Redemption, error) {
	var rds []model.Redemption
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("redeemed_at DESC").
		Find(&rds).Error
	return rds, err
}

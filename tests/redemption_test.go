package tests

import (
	"context"
	"testing"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/apierror"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/config"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory PlanRepository stub ────────────────────────────────────────────

type stubPlanRepo struct {
	plans map[uuid.UUID]*model.SubscriptionPlan
}

func newStubPlanRepo() *stubPlanRepo {
	return &stubPlanRepo{plans: make(map[uuid.UUID]*model.SubscriptionPlan)}
}

func (r *stubPlanRepo) Create(_ context.Context, p *model.SubscriptionPlan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Items {
		if p.Items[i].ID == uuid.Nil {
			p.Items[i].ID = uuid.New()
		}
		p.Items[i].PlanID = p.ID
	}
	r.plans[p.ID] = p
	return nil
}

func (r *stubPlanRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SubscriptionPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPlanRepo) List(_ context.Context) ([]model.SubscriptionPlan, error) {
	var result []model.SubscriptionPlan
	for _, p := range r.plans {
		result = append(result, *p)
	}
	return result, nil
}

func (r *stubPlanRepo) Update(_ context.Context, p *model.SubscriptionPlan) error {
	r.plans[p.ID] = p
	return nil
}

func (r *stubPlanRepo) ReplaceItemsTx(_ *gorm.DB, planID uuid.UUID, items []model.SubscriptionPlanItem) error {
	p, ok := r.plans[planID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	p.Items = items
	return nil
}

func (r *stubPlanRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.plans, id)
	return nil
}

func (r *stubPlanRepo) Items(_ context.Context, planID uuid.UUID) ([]model.SubscriptionPlanItem, error) {
	p, ok := r.plans[planID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p.Items, nil
}

func (r *stubPlanRepo) DB() *gorm.DB { return nil }

var _ repository.PlanRepository = (*stubPlanRepo)(nil)

// ── In-memory SubscriptionRepository stub ────────────────────────────────────

type stubSubscriptionRepo struct {
	subs        map[uuid.UUID]*model.Subscription
	redemptions []model.Redemption
}

func newStubSubscriptionRepo() *stubSubscriptionRepo {
	return &stubSubscriptionRepo{subs: make(map[uuid.UUID]*model.Subscription)}
}

func (r *stubSubscriptionRepo) Create(_ context.Context, s *model.Subscription) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.subs[s.ID] = s
	return nil
}

func (r *stubSubscriptionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Subscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSubscriptionRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID, _ bool) (*model.Subscription, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSubscriptionRepo) FindByCode(_ context.Context, code string) (*model.Subscription, error) {
	for _, s := range r.subs {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSubscriptionRepo) FindNewestActive(_ context.Context, code string, customerID *uuid.UUID, phone string) (*model.Subscription, error) {
	var newest *model.Subscription
	for _, s := range r.subs {
		if s.Status != model.SubscriptionActive {
			continue
		}
		switch {
		case code != "":
			if s.Code != code {
				continue
			}
		case customerID != nil:
			if s.CustomerID != *customerID {
				continue
			}
		case phone != "":
			if s.CustomerPhone != phone {
				continue
			}
		default:
			continue
		}
		if newest == nil || s.EndDate.After(newest.EndDate) {
			newest = s
		}
	}
	if newest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return newest, nil
}

func (r *stubSubscriptionRepo) List(_ context.Context, status string) ([]model.Subscription, error) {
	var result []model.Subscription
	for _, s := range r.subs {
		if status != "" && s.Status != status {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (r *stubSubscriptionRepo) Update(_ context.Context, s *model.Subscription) error {
	r.subs[s.ID] = s
	return nil
}

func (r *stubSubscriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.subs, id)
	return nil
}

func (r *stubSubscriptionRepo) ExpireLapsed(_ context.Context, today time.Time) (int64, error) {
	var n int64
	for _, s := range r.subs {
		if s.Status == model.SubscriptionActive && s.Lapsed(today) {
			s.Status = model.SubscriptionExpired
			n++
		}
	}
	return n, nil
}

func (r *stubSubscriptionRepo) redeemedTotals(subscriptionID uuid.UUID) map[string]int {
	totals := make(map[string]int)
	for _, rd := range r.redemptions {
		if rd.SubscriptionID == subscriptionID {
			totals[repository.RedeemedKey(rd.ProductID, rd.VariantID)] += rd.Quantity
		}
	}
	return totals
}

func (r *stubSubscriptionRepo) RedeemedTotalsTx(_ *gorm.DB, subscriptionID uuid.UUID) (map[string]int, error) {
	return r.redeemedTotals(subscriptionID), nil
}

func (r *stubSubscriptionRepo) RedeemedTotals(_ context.Context, subscriptionID uuid.UUID) (map[string]int, error) {
	return r.redeemedTotals(subscriptionID), nil
}

func (r *stubSubscriptionRepo) CreateRedemptionTx(_ *gorm.DB, rd *model.Redemption) error {
	if rd.ID == uuid.Nil {
		rd.ID = uuid.New()
	}
	r.redemptions = append(r.redemptions, *rd)
	return nil
}

func (r *stubSubscriptionRepo) ListRedemptions(_ context.Context, subscriptionID uuid.UUID) ([]model.Redemption, error) {
	var result []model.Redemption
	for _, rd := range r.redemptions {
		if rd.SubscriptionID == subscriptionID {
			result = append(result, rd)
		}
	}
	return result, nil
}

func (r *stubSubscriptionRepo) DB() *gorm.DB { return nil }

var _ repository.SubscriptionRepository = (*stubSubscriptionRepo)(nil)

// ── In-memory CustomerRepository stub ────────────────────────────────────────

type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return nil
}

func (r *stubCustomerRepo) CreateTx(_ *gorm.DB, c *model.Customer) error {
	return r.Create(context.Background(), c)
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) FindByPhone(_ context.Context, phone string) (*model.Customer, error) {
	for _, c := range r.customers {
		if c.Phone == phone {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCustomerRepo) List(_ context.Context, _ string) ([]model.Customer, error) {
	var result []model.Customer
	for _, c := range r.customers {
		result = append(result, *c)
	}
	return result, nil
}

func (r *stubCustomerRepo) AdjustLoyaltyTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	c, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LoyaltyPoints += delta
	if c.LoyaltyPoints < 0 {
		c.LoyaltyPoints = 0
	}
	return nil
}

func (r *stubCustomerRepo) DB() *gorm.DB { return nil }

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

type subscriptionFixture struct {
	plans     *stubPlanRepo
	subs      *stubSubscriptionRepo
	customers *stubCustomerRepo
	stock     *stubStockRepo
	svc       service.SubscriptionService
	branchID  uuid.UUID
}

func newSubscriptionFixture() *subscriptionFixture {
	f := &subscriptionFixture{
		plans:     newStubPlanRepo(),
		subs:      newStubSubscriptionRepo(),
		customers: newStubCustomerRepo(),
		stock:     newStubStockRepo(),
		branchID:  uuid.New(),
	}
	stockSvc := service.NewStockService(f.stock, config.FloorAllow)
	f.svc = service.NewSubscriptionService(f.plans, f.subs, f.customers, stockSvc, service.NopAuditLogger{})
	return f
}

func seedCustomer(repo *stubCustomerRepo, name, phone string) *model.Customer {
	c := &model.Customer{ID: uuid.New(), Name: name, Phone: phone}
	repo.customers[c.ID] = c
	return c
}

func seedCoffeePlan(repo *stubPlanRepo, productID uuid.UUID, allowance int) *model.SubscriptionPlan {
	p := &model.SubscriptionPlan{
		ID:                uuid.New(),
		Name:              "Monthly Coffee",
		DurationDays:      30,
		Price:             decimal.NewFromInt(300),
		LoyaltyMultiplier: decimal.NewFromInt(1),
		Active:            true,
		Items: []model.SubscriptionPlanItem{
			{ID: uuid.New(), ProductID: productID, ProductName: "Flat White", Quantity: allowance},
		},
	}
	for i := range p.Items {
		p.Items[i].PlanID = p.ID
	}
	repo.plans[p.ID] = p
	return p
}

func (f *subscriptionFixture) seedActiveSubscription(plan *model.SubscriptionPlan, customer *model.Customer, code string) *model.Subscription {
	now := time.Now()
	sub := &model.Subscription{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		Code:          code,
		StartDate:     now.AddDate(0, 0, -1),
		EndDate:       now.AddDate(0, 0, 29),
		Status:        model.SubscriptionActive,
		PricePaid:     plan.Price,
	}
	f.subs.subs[sub.ID] = sub
	return sub
}

func (f *subscriptionFixture) redeem(sub *model.Subscription, productID uuid.UUID, qty int) (*dto.RedeemResponse, error) {
	return f.svc.Redeem(context.Background(), branchActor(f.branchID), dto.RedeemRequest{
		SubscriptionID: sub.ID.String(),
		BranchID:       f.branchID.String(),
		Items: []dto.RedeemItemRequest{
			{ProductID: productID.String(), ProductName: "Flat White", Quantity: qty},
		},
	})
}

func (f *subscriptionFixture) branchQty(productID uuid.UUID) int {
	for _, e := range f.stock.entries {
		if e.ProductID == productID && e.BranchID == f.branchID {
			return e.Quantity
		}
	}
	return 0
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestSubscriptionCreateSnapshotsPlanTerms(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 30)
	customer := seedCustomer(f.customers, "Lina", "0791111111")

	start := time.Now().Truncate(24 * time.Hour)
	resp, err := f.svc.Create(context.Background(), adminActor(), dto.CreateSubscriptionRequest{
		CustomerID: customer.ID.String(),
		PlanID:     plan.ID.String(),
		Code:       "COF-001",
		StartDate:  start.Format("2006-01-02"),
	})
	require.NoError(t, err)
	assert.Equal(t, start.Format("2006-01-02"), resp.StartDate)
	assert.Equal(t, start.AddDate(0, 0, 30).Format("2006-01-02"), resp.EndDate)
	assert.Equal(t, plan.Price.String(), resp.PricePaid.String())
	assert.True(t, resp.Active)
}

func TestSubscriptionDuplicateCode(t *testing.T) {
	f := newSubscriptionFixture()
	plan := seedCoffeePlan(f.plans, uuid.New(), 30)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	f.seedActiveSubscription(plan, customer, "COF-001")

	_, err := f.svc.Create(context.Background(), adminActor(), dto.CreateSubscriptionRequest{
		CustomerID: customer.ID.String(),
		PlanID:     plan.ID.String(),
		Code:       "COF-001",
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindDuplicateKey, apierror.KindOf(err))
}

func TestSubscriptionInactivePlanRejected(t *testing.T) {
	f := newSubscriptionFixture()
	plan := seedCoffeePlan(f.plans, uuid.New(), 30)
	plan.Active = false
	customer := seedCustomer(f.customers, "Lina", "0791111111")

	_, err := f.svc.Create(context.Background(), adminActor(), dto.CreateSubscriptionRequest{
		CustomerID: customer.ID.String(),
		PlanID:     plan.ID.String(),
		Code:       "COF-002",
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestRedeemWithinAllowance(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")
	seedEntry(f.stock, productID, nil, f.branchID, 50)

	resp, err := f.redeem(sub, productID, 4)
	require.NoError(t, err)
	require.Len(t, resp.Redeemed, 1)
	assert.Equal(t, 4, resp.Redeemed[0].Quantity)
	assert.Equal(t, 46, f.branchQty(productID))

	_, err = f.redeem(sub, productID, 6)
	require.NoError(t, err)
	assert.Equal(t, 40, f.branchQty(productID))

	// Allowance fully consumed
	_, err = f.redeem(sub, productID, 1)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientAllowance, apierror.KindOf(err))
	assert.Equal(t, 40, f.branchQty(productID))
}

func TestRedeemUncoveredProduct(t *testing.T) {
	f := newSubscriptionFixture()
	plan := seedCoffeePlan(f.plans, uuid.New(), 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")

	otherProduct := uuid.New()
	_, err := f.redeem(sub, otherProduct, 1)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientAllowance, apierror.KindOf(err))
	assert.Empty(t, f.subs.redemptions)
}

func TestRedeemExceedingRequestRejectedWhole(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 5)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")
	seedEntry(f.stock, productID, nil, f.branchID, 50)

	_, err := f.redeem(sub, productID, 6)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientAllowance, apierror.KindOf(err))
	assert.Empty(t, f.subs.redemptions)
	assert.Equal(t, 50, f.branchQty(productID))
}

func TestRedeemBeyondBranchStockRejected(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")
	entry := seedEntry(f.stock, productID, nil, f.branchID, 2)

	// Within allowance but beyond what the branch has on hand: redemptions
	// never drive the ledger negative, whatever the floor policy says.
	_, err := f.redeem(sub, productID, 3)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientStock, apierror.KindOf(err))
	assert.Empty(t, f.subs.redemptions)
	assert.Equal(t, 2, f.branchQty(productID))
	assert.Empty(t, f.stock.movementsFor(entry.ID))

	// What is on hand still redeems normally
	resp, err := f.redeem(sub, productID, 2)
	require.NoError(t, err)
	require.Len(t, resp.Redeemed, 1)
	assert.Equal(t, 0, f.branchQty(productID))
}

func TestRedeemWithoutBranchEntryRejected(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")

	// No ledger entry at the branch reads as zero stock
	_, err := f.redeem(sub, productID, 1)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientStock, apierror.KindOf(err))
	assert.Empty(t, f.subs.redemptions)
}

func TestRedeemLapsedSubscription(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")
	sub.EndDate = time.Now().AddDate(0, 0, -2)

	_, err := f.redeem(sub, productID, 1)
	require.Error(t, err)
	assert.Equal(t, apierror.KindStateConflict, apierror.KindOf(err))
}

func TestRedeemCancelledSubscription(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")
	sub.Status = model.SubscriptionCancelled

	_, err := f.redeem(sub, productID, 1)
	require.Error(t, err)
	assert.Equal(t, apierror.KindStateConflict, apierror.KindOf(err))
}

func TestRedeemWrongBranch(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")

	_, err := f.svc.Redeem(context.Background(), branchActor(uuid.New()), dto.RedeemRequest{
		SubscriptionID: sub.ID.String(),
		BranchID:       f.branchID.String(),
		Items:          []dto.RedeemItemRequest{{ProductID: productID.String(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindAuthorization, apierror.KindOf(err))
}

func TestCheckByCode(t *testing.T) {
	f := newSubscriptionFixture()
	plan := seedCoffeePlan(f.plans, uuid.New(), 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	f.seedActiveSubscription(plan, customer, "COF-001")

	resp, err := f.svc.Check(context.Background(), dto.SubscriptionCheckQuery{Code: "COF-001"})
	require.NoError(t, err)
	assert.True(t, resp.Active)
	require.NotNil(t, resp.Subscription)
	assert.Equal(t, "COF-001", resp.Subscription.Code)
}

func TestCheckMissReportsInactive(t *testing.T) {
	f := newSubscriptionFixture()

	resp, err := f.svc.Check(context.Background(), dto.SubscriptionCheckQuery{Phone: "0000"})
	require.NoError(t, err)
	assert.False(t, resp.Active)
	assert.Nil(t, resp.Subscription)
}

func TestCheckRequiresCriterion(t *testing.T) {
	f := newSubscriptionFixture()
	_, err := f.svc.Check(context.Background(), dto.SubscriptionCheckQuery{})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestExpireLapsedIdempotent(t *testing.T) {
	f := newSubscriptionFixture()
	plan := seedCoffeePlan(f.plans, uuid.New(), 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")

	lapsed := f.seedActiveSubscription(plan, customer, "COF-001")
	lapsed.EndDate = time.Now().AddDate(0, 0, -3)
	other := f.seedActiveSubscription(plan, customer, "COF-002")
	other.EndDate = time.Now().AddDate(0, 0, -10)
	f.seedActiveSubscription(plan, customer, "COF-003") // still running

	resp, err := f.svc.ExpireLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Expired)
	assert.Equal(t, model.SubscriptionExpired, lapsed.Status)

	// Repeat run transitions nothing
	resp, err = f.svc.ExpireLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Expired)
}

func TestListReportsLapsedAsExpired(t *testing.T) {
	f := newSubscriptionFixture()
	plan := seedCoffeePlan(f.plans, uuid.New(), 10)
	customer := seedCustomer(f.customers, "Lina", "0791111111")
	sub := f.seedActiveSubscription(plan, customer, "COF-001")
	sub.EndDate = time.Now().AddDate(0, 0, -1)

	list, err := f.svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.SubscriptionExpired, list[0].Status)
	assert.False(t, list[0].Active)
	// The stored row is untouched; only the sweep persists the transition
	assert.Equal(t, model.SubscriptionActive, sub.Status)
}

func TestPlanUpdateReplacesAllowance(t *testing.T) {
	f := newSubscriptionFixture()
	productID := uuid.New()
	plan := seedCoffeePlan(f.plans, productID, 10)

	newProduct := uuid.New()
	resp, err := f.svc.UpdatePlan(context.Background(), adminActor(), plan.ID, dto.UpdatePlanRequest{
		Name:         "Monthly Coffee v2",
		DurationDays: 30,
		Price:        decimal.NewFromInt(350),
		Items: []dto.PlanItemRequest{
			{ProductID: newProduct.String(), ProductName: "Cortado", Quantity: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Cortado", resp.Items[0].ProductName)
	assert.Equal(t, 20, resp.Items[0].Quantity)
}

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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type SubscriptionService interface {
	// Plans
	CreatePlan(ctx context.Context, actor Actor, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	UpdatePlan(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	DeletePlan(ctx context.Context, actor Actor, id uuid.UUID) error
	GetPlan(ctx context.Context, id uuid.UUID) (*dto.PlanResponse, error)
	ListPlans(ctx context.Context) ([]dto.PlanResponse, error)

	// Subscriptions
	Create(ctx context.Context, actor Actor, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SubscriptionResponse, error)
	List(ctx context.Context, status string) ([]dto.SubscriptionResponse, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) error
	// Check locates the newest active subscription without writing anything.
	Check(ctx context.Context, q dto.SubscriptionCheckQuery) (*dto.SubscriptionCheckResponse, error)

	// Redeem consumes allowance and deducts branch stock, all or nothing.
	Redeem(ctx context.Context, actor Actor, req dto.RedeemRequest) (*dto.RedeemResponse, error)
	ListRedemptions(ctx context.Context, subscriptionID uuid.UUID) ([]dto.RedemptionResponse, error)

	// ExpireLapsed persists the expired status on every lapsed subscription.
	ExpireLapsed(ctx context.Context) (*dto.ExpireLapsedResponse, error)
}

type subscriptionService struct {
	plans     repository.PlanRepository
	subs      repository.SubscriptionRepository
	customers repository.CustomerRepository
	stock     StockService
	audit     AuditLogger
}

func NewSubscriptionService(
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	customers repository.CustomerRepository,
	stock StockService,
	audit AuditLogger,
) SubscriptionService {
	return &subscriptionService{plans: plans, subs: subs, customers: customers, stock: stock, audit: audit}
}

// ── Plans ─────────────────────────────────────────────────────────────────────

func (s *subscriptionService) CreatePlan(ctx context.Context, actor Actor, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	items, err := planItemsFromRequest(req.Items)
	if err != nil {
		return nil, err
	}
	multiplier := req.LoyaltyMultiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	plan := &model.SubscriptionPlan{
		Name:              req.Name,
		DurationDays:      req.DurationDays,
		Price:             req.Price,
		DiscountPercent:   req.DiscountPercent,
		LoyaltyMultiplier: multiplier,
		Description:       req.Description,
		Active:            true,
		Items:             items,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	s.audit.LogTarget(ctx, actor, "plan_create", plan.ID, plan.Name)
	return planToResponse(plan), nil
}

func (s *subscriptionService) UpdatePlan(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("plan not found")
	}
	plan.Name = req.Name
	plan.DurationDays = req.DurationDays
	plan.Price = req.Price
	plan.DiscountPercent = req.DiscountPercent
	if !req.LoyaltyMultiplier.IsZero() {
		plan.LoyaltyMultiplier = req.LoyaltyMultiplier
	}
	plan.Description = req.Description
	if req.Active != nil {
		plan.Active = *req.Active
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, err
	}
	if req.Items != nil {
		items, err := planItemsFromRequest(req.Items)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].PlanID = id
		}
		if err := runTx(ctx, s.plans.DB(), func(tx *gorm.DB) error {
			return s.plans.ReplaceItemsTx(tx, id, items)
		}); err != nil {
			return nil, err
		}
	}
	s.audit.LogTarget(ctx, actor, "plan_update", id, plan.Name)
	return s.GetPlan(ctx, id)
}

func (s *subscriptionService) DeletePlan(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.plans.FindByID(ctx, id); err != nil {
		return apierror.NotFound("plan not found")
	}
	if err := s.plans.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.LogTarget(ctx, actor, "plan_delete", id, "")
	return nil
}

func (s *subscriptionService) GetPlan(ctx context.Context, id uuid.UUID) (*dto.PlanResponse, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("plan not found")
	}
	return planToResponse(plan), nil
}

func (s *subscriptionService) ListPlans(ctx context.Context) ([]dto.PlanResponse, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, *planToResponse(&plans[i]))
	}
	return out, nil
}

// ── Subscriptions ─────────────────────────────────────────────────────────────

func (s *subscriptionService) Create(ctx context.Context, actor Actor, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, apierror.Validation("invalid customer_id")
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, apierror.Validation("invalid plan_id")
	}

	if existing, err := s.subs.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, apierror.DuplicateKey(fmt.Sprintf("subscription code %q is already in use", req.Code))
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, apierror.NotFound("customer not found")
	}
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, apierror.NotFound("plan not found")
	}
	if !plan.Active {
		return nil, apierror.Validation("plan is inactive")
	}

	start := time.Now().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		start, err = time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return nil, apierror.Validation("invalid start_date")
		}
	}
	pricePaid := plan.Price
	if req.PricePaid != nil {
		pricePaid = *req.PricePaid
	}

	actorID := actor.ID
	sub := &model.Subscription{
		CustomerID:        customerID,
		CustomerName:      customer.Name,
		CustomerPhone:     customer.Phone,
		PlanID:            planID,
		PlanName:          plan.Name,
		Code:              req.Code,
		StartDate:         start,
		EndDate:           start.AddDate(0, 0, plan.DurationDays),
		Status:            model.SubscriptionActive,
		PricePaid:         pricePaid,
		DiscountPercent:   plan.DiscountPercent,
		LoyaltyMultiplier: plan.LoyaltyMultiplier,
		Notes:             req.Notes,
		CreatedBy:         &actorID,
		CreatedByName:     actor.Name,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.audit.LogTarget(ctx, actor, "subscription_create", sub.ID,
		fmt.Sprintf("%s for %s", plan.Name, customer.Name))
	return s.buildResponse(ctx, sub)
}

func (s *subscriptionService) Get(ctx context.Context, id uuid.UUID) (*dto.SubscriptionResponse, error) {
	sub, err := s.subs.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("subscription not found")
	}
	return s.buildResponse(ctx, sub)
}

func (s *subscriptionService) List(ctx context.Context, status string) ([]dto.SubscriptionResponse, error) {
	subs, err := s.subs.List(ctx, status)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, *subscriptionToResponse(&subs[i], now, nil, nil))
	}
	return out, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) error {
	sub, err := s.subs.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFound("subscription not found")
	}
	if sub.Status == model.SubscriptionCancelled {
		return apierror.StateConflict("subscription is already cancelled")
	}
	sub.Status = model.SubscriptionCancelled
	if err := s.subs.Update(ctx, sub); err != nil {
		return err
	}
	s.audit.LogTarget(ctx, actor, "subscription_cancel", id, sub.Code)
	return nil
}

func (s *subscriptionService) Check(ctx context.Context, q dto.SubscriptionCheckQuery) (*dto.SubscriptionCheckResponse, error) {
	if q.Code == "" && q.CustomerID == "" && q.Phone == "" {
		return nil, apierror.Validation("one of code, customer_id, or phone is required")
	}
	var customerID *uuid.UUID
	if q.CustomerID != "" {
		id, err := uuid.Parse(q.CustomerID)
		if err != nil {
			return nil, apierror.Validation("invalid customer_id")
		}
		customerID = &id
	}
	sub, err := s.subs.FindNewestActive(ctx, q.Code, customerID, q.Phone)
	if err != nil {
		return &dto.SubscriptionCheckResponse{Active: false}, nil
	}
	resp, err := s.buildResponse(ctx, sub)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionCheckResponse{Subscription: resp, Active: resp.Active}, nil
}

// ── Redeem ────────────────────────────────────────────────────────────────────
// All-or-nothing: either every requested line fits within its remaining
// allowance and is applied (redemption rows plus stock deductions), or nothing
// is. The subscription row is locked for the duration so two concurrent
// redemptions of the same allowance serialize.

func (s *subscriptionService) Redeem(ctx context.Context, actor Actor, req dto.RedeemRequest) (*dto.RedeemResponse, error) {
	subID, err := uuid.Parse(req.SubscriptionID)
	if err != nil {
		return nil, apierror.Validation("invalid subscription_id")
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, apierror.Validation("invalid branch_id")
	}
	if !actor.AtBranch(branchID) {
		return nil, apierror.Authorization("cannot redeem at another branch")
	}

	var redeemed []dto.RedeemedItem
	actorID := actor.ID
	txErr := runTx(ctx, s.subs.DB(), func(tx *gorm.DB) error {
		sub, err := s.subs.FindByIDTx(tx, subID, true)
		if err != nil {
			return apierror.NotFound("subscription not found")
		}
		if sub.Status != model.SubscriptionActive {
			return apierror.StateConflict(fmt.Sprintf("subscription is %s", sub.Status))
		}
		if sub.Lapsed(time.Now()) {
			return apierror.StateConflict("subscription has expired")
		}

		planItems, err := s.plans.Items(ctx, sub.PlanID)
		if err != nil {
			return err
		}
		allowance := make(map[string]int, len(planItems))
		names := make(map[string]model.SubscriptionPlanItem, len(planItems))
		for _, item := range planItems {
			key := repository.RedeemedKey(item.ProductID, item.VariantID)
			allowance[key] += item.Quantity
			names[key] = item
		}

		used, err := s.subs.RedeemedTotalsTx(tx, subID)
		if err != nil {
			return err
		}

		// First pass: validate every line against the allowance and the
		// branch's stock on hand. Stock sufficiency is checked here
		// regardless of the floor policy: a redemption never drives the
		// branch negative. Nothing is written until all lines pass.
		type redeemLine struct {
			productID   uuid.UUID
			variantID   *uuid.UUID
			productName string
			variantName string
			quantity    int
		}
		lines := make([]redeemLine, 0, len(req.Items))
		onHand := make(map[string]int)
		pending := make(map[string]int)
		for _, line := range req.Items {
			productID, err := uuid.Parse(line.ProductID)
			if err != nil {
				return apierror.Validation("invalid product_id in items")
			}
			var variantID *uuid.UUID
			if line.VariantID != "" {
				vid, err := uuid.Parse(line.VariantID)
				if err != nil {
					return apierror.Validation("invalid variant_id in items")
				}
				variantID = &vid
			}
			key := repository.RedeemedKey(productID, variantID)
			total, covered := allowance[key]
			if !covered {
				return apierror.InsufficientAllowance(fmt.Sprintf(
					"product %s is not covered by this subscription", line.ProductName))
			}
			remaining := total - used[key]
			if line.Quantity > remaining {
				return apierror.InsufficientAllowance(fmt.Sprintf(
					"allowance exceeded for %s: %d remaining, %d requested",
					names[key].ProductName, remaining, line.Quantity))
			}
			used[key] += line.Quantity

			stockKey := repository.StockKey{ProductID: productID, VariantID: variantID, BranchID: branchID}
			if _, seen := onHand[key]; !seen {
				qty, err := s.stock.QuantityTx(tx, stockKey)
				if err != nil {
					return err
				}
				onHand[key] = qty
			}
			pending[key] += line.Quantity
			if pending[key] > onHand[key] {
				return apierror.InsufficientStock(fmt.Sprintf(
					"insufficient stock for %s at this branch: %d available, %d requested",
					names[key].ProductName, onHand[key], pending[key]))
			}

			productName := line.ProductName
			if productName == "" {
				productName = names[key].ProductName
			}
			lines = append(lines, redeemLine{
				productID:   productID,
				variantID:   variantID,
				productName: productName,
				variantName: line.VariantName,
				quantity:    line.Quantity,
			})
		}

		// Second pass: all lines validated, apply them.
		redeemed = redeemed[:0]
		for _, line := range lines {
			if err := s.subs.CreateRedemptionTx(tx, &model.Redemption{
				SubscriptionID: subID,
				CustomerID:     sub.CustomerID,
				ProductID:      line.productID,
				ProductName:    line.productName,
				VariantID:      line.variantID,
				VariantName:    line.variantName,
				Quantity:       line.quantity,
				BranchID:       branchID,
				RedeemedBy:     &actorID,
				RedeemedByName: actor.Name,
				RedeemedAt:     time.Now(),
			}); err != nil {
				return err
			}

			refID := subID
			if _, err := s.stock.AdjustTx(tx, AdjustParams{
				Key:         repository.StockKey{ProductID: line.productID, VariantID: line.variantID, BranchID: branchID},
				Delta:       -line.quantity,
				Kind:        MovementRedemption,
				Reason:      fmt.Sprintf("Subscription %s redemption", sub.Code),
				ReferenceID: &refID,
				Actor:       actor,
			}); err != nil {
				return err
			}

			redeemed = append(redeemed, dto.RedeemedItem{ProductName: line.productName, Quantity: line.quantity})
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.audit.LogTarget(ctx, actor, "subscription_redeem", subID,
		fmt.Sprintf("%d line(s) redeemed", len(redeemed)))
	return &dto.RedeemResponse{Redeemed: redeemed}, nil
}

func (s *subscriptionService) ListRedemptions(ctx context.Context, subscriptionID uuid.UUID) ([]dto.RedemptionResponse, error) {
	rows, err := s.subs.ListRedemptions(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RedemptionResponse, 0, len(rows))
	for _, rd := range rows {
		resp := dto.RedemptionResponse{
			ID:          rd.ID.String(),
			ProductID:   rd.ProductID.String(),
			ProductName: rd.ProductName,
			VariantName: rd.VariantName,
			Quantity:    rd.Quantity,
			RedeemedBy:  rd.RedeemedByName,
			RedeemedAt:  rd.RedeemedAt.Format(time.RFC3339),
		}
		if rd.VariantID != nil {
			resp.VariantID = rd.VariantID.String()
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *subscriptionService) ExpireLapsed(ctx context.Context) (*dto.ExpireLapsedResponse, error) {
	expired, err := s.subs.ExpireLapsed(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	return &dto.ExpireLapsedResponse{Expired: expired}, nil
}

// buildResponse loads the plan allowance and redeemed totals for a full
// subscription view.
func (s *subscriptionService) buildResponse(ctx context.Context, sub *model.Subscription) (*dto.SubscriptionResponse, error) {
	planItems, err := s.plans.Items(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	used, err := s.subs.RedeemedTotals(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	return subscriptionToResponse(sub, time.Now(), planItems, used), nil
}

// subscriptionToResponse reports a lapsed-but-not-yet-swept subscription as
// expired without writing anything.
func subscriptionToResponse(sub *model.Subscription, now time.Time, planItems []model.SubscriptionPlanItem, used map[string]int) *dto.SubscriptionResponse {
	status := sub.Status
	if status == model.SubscriptionActive && sub.Lapsed(now) {
		status = model.SubscriptionExpired
	}
	items := make([]dto.PlanItemResponse, 0, len(planItems))
	for _, item := range planItems {
		items = append(items, planItemToResponse(item))
	}
	if used == nil {
		used = map[string]int{}
	}
	return &dto.SubscriptionResponse{
		ID:            sub.ID.String(),
		CustomerID:    sub.CustomerID.String(),
		CustomerName:  sub.CustomerName,
		CustomerPhone: sub.CustomerPhone,
		PlanID:        sub.PlanID.String(),
		PlanName:      sub.PlanName,
		Code:          sub.Code,
		StartDate:     sub.StartDate.Format(dateLayout),
		EndDate:       sub.EndDate.Format(dateLayout),
		Status:        status,
		Active:        status == model.SubscriptionActive,
		PricePaid:     sub.PricePaid,
		Notes:         sub.Notes,
		PlanItems:     items,
		RedeemedMap:   used,
	}
}

func planItemsFromRequest(reqs []dto.PlanItemRequest) ([]model.SubscriptionPlanItem, error) {
	items := make([]model.SubscriptionPlanItem, 0, len(reqs))
	for _, it := range reqs {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, apierror.Validation("invalid product_id in items")
		}
		item := model.SubscriptionPlanItem{
			ProductID:   pid,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			Quantity:    it.Quantity,
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
	return items, nil
}

func planItemToResponse(item model.SubscriptionPlanItem) dto.PlanItemResponse {
	resp := dto.PlanItemResponse{
		ID:          item.ID.String(),
		ProductID:   item.ProductID.String(),
		ProductName: item.ProductName,
		VariantName: item.VariantName,
		Quantity:    item.Quantity,
	}
	if item.VariantID != nil {
		resp.VariantID = item.VariantID.String()
	}
	return resp
}

func planToResponse(p *model.SubscriptionPlan) *dto.PlanResponse {
	items := make([]dto.PlanItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, planItemToResponse(item))
	}
	return &dto.PlanResponse{
		ID:                p.ID.String(),
		Name:              p.Name,
		DurationDays:      p.DurationDays,
		Price:             p.Price,
		DiscountPercent:   p.DiscountPercent,
		LoyaltyMultiplier: p.LoyaltyMultiplier,
		Description:       p.Description,
		Active:            p.Active,
		Items:             items,
	}
}

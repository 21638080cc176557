package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/apierror"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultLowStockThreshold = 5

type InvoiceService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID, req dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error)
	Edit(ctx context.Context, actor Actor, id uuid.UUID, req dto.EditInvoiceRequest) (*dto.InvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]dto.InvoiceResponse, error)
	EditHistory(ctx context.Context, id uuid.UUID) ([]dto.InvoiceEditHistoryResponse, error)
	// ClearAll wipes every invoice. Admin maintenance only.
	ClearAll(ctx context.Context, actor Actor) (int64, error)
}

type invoiceService struct {
	repo       repository.InvoiceRepository
	stock      StockService
	customers  repository.CustomerRepository
	catalog    repository.CatalogRepository
	audit      AuditLogger
	dispatcher *worker.Dispatcher
	alertEmail string
}

func NewInvoiceService(
	repo repository.InvoiceRepository,
	stock StockService,
	customers repository.CustomerRepository,
	catalog repository.CatalogRepository,
	audit AuditLogger,
	dispatcher *worker.Dispatcher,
	alertEmail string,
) InvoiceService {
	return &invoiceService{
		repo:       repo,
		stock:      stock,
		customers:  customers,
		catalog:    catalog,
		audit:      audit,
		dispatcher: dispatcher,
		alertEmail: alertEmail,
	}
}

// ── Create ────────────────────────────────────────────────────────────────────
// One transaction: invoice header + items + one ledger deduction per line +
// loyalty delta. The stored number gets a branch suffix so two branches
// producing the same client-side number never collide.

func (s *invoiceService) Create(ctx context.Context, actor Actor, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, apierror.Validation("invalid branch_id")
	}
	if !actor.AtBranch(branchID) {
		return nil, apierror.Authorization("cannot invoice for another branch")
	}
	branch, err := s.catalog.BranchByID(ctx, branchID)
	if err != nil {
		return nil, apierror.NotFound("branch not found")
	}

	number := branchNumber(req.Number, branchID)
	if existing, err := s.repo.FindByNumber(ctx, number); err == nil && existing != nil {
		return nil, apierror.DuplicateKey(fmt.Sprintf("invoice %s already exists", number))
	}

	inv := model.Invoice{
		Number:                number,
		CustomerName:          req.CustomerName,
		CustomerPhone:         req.CustomerPhone,
		CustomerAddress:       req.CustomerAddress,
		Subtotal:              req.Subtotal,
		Discount:              req.Discount,
		DeliveryFee:           req.DeliveryFee,
		CouponDiscount:        req.CouponDiscount,
		CouponCode:            req.CouponCode,
		Total:                 req.Total,
		PaymentMethod:         paymentOrCash(req.PaymentMethod),
		LoyaltyDiscount:       req.LoyaltyDiscount,
		LoyaltyPointsEarned:   req.PointsEarned,
		LoyaltyPointsRedeemed: req.PointsRedeemed,
		BranchID:              branchID,
		BranchName:            branch.Name,
		EmployeeName:          req.EmployeeName,
		Notes:                 req.Notes,
		Status:                model.InvoiceCompleted,
	}
	if req.CustomerID != "" {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, apierror.Validation("invalid customer_id")
		}
		inv.CustomerID = &cid
	}
	if req.ShiftID != "" {
		sid, err := uuid.Parse(req.ShiftID)
		if err != nil {
			return nil, apierror.Validation("invalid shift_id")
		}
		if shift, err := s.catalog.ShiftByID(ctx, sid); err == nil {
			inv.ShiftID = &sid
			inv.ShiftName = shift.Name
		}
	}

	threshold := s.lowStockThreshold(ctx)
	var warnings []dto.LowStockWarning

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, &inv); err != nil {
			return err
		}
		for _, line := range req.Items {
			item, entry, err := s.applyLine(tx, actor, &inv, line, -1, "Invoice "+inv.Number)
			if err != nil {
				return err
			}
			if err := s.repo.CreateItemTx(tx, item); err != nil {
				return err
			}
			if entry != nil && entry.Quantity <= threshold {
				warnings = append(warnings, dto.LowStockWarning{
					ProductName: item.ProductName,
					Stock:       entry.Quantity,
				})
			}
		}
		return s.applyLoyalty(tx, inv.CustomerID, req.PointsEarned-req.PointsRedeemed)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifyLowStock(ctx, branch.Name, warnings)
	s.audit.LogTarget(ctx, actor, "invoice_create", inv.ID, inv.Number)

	resp, err := s.Get(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	resp.LowStockWarnings = warnings
	return resp, nil
}

// applyLine builds the item row and applies its ledger delta. sign is -1 for
// a sale and +1 for a restore; when the line carries an explicit ledger
// reference that entry is used directly, otherwise the entry is resolved (or
// created) by natural key.
func (s *invoiceService) applyLine(tx *gorm.DB, actor Actor, inv *model.Invoice, line dto.InvoiceItemRequest, sign int, reason string) (*model.InvoiceItem, *model.StockEntry, error) {
	productID, err := uuid.Parse(line.ProductID)
	if err != nil {
		return nil, nil, apierror.Validation("invalid product_id in items")
	}
	item := &model.InvoiceItem{
		InvoiceID:   inv.ID,
		ProductID:   productID,
		ProductName: line.ProductName,
		VariantName: line.VariantName,
		Quantity:    line.Quantity,
		Price:       line.Price,
		Total:       line.Total,
	}
	var variantID *uuid.UUID
	if line.VariantID != "" {
		vid, err := uuid.Parse(line.VariantID)
		if err != nil {
			return nil, nil, apierror.Validation("invalid variant_id in items")
		}
		variantID = &vid
		item.VariantID = &vid
	}

	refID := inv.ID
	params := AdjustParams{
		Delta:       sign * line.Quantity,
		Kind:        MovementSale,
		Reason:      reason,
		ReferenceID: &refID,
		Actor:       actor,
	}
	if sign > 0 {
		params.Kind = MovementRestore
	}

	var entry *model.StockEntry
	if line.StockEntryID != "" {
		entryID, err := uuid.Parse(line.StockEntryID)
		if err != nil {
			return nil, nil, apierror.Validation("invalid stock_entry_id in items")
		}
		entry, err = s.stock.AdjustEntryTx(tx, entryID, params)
		if err != nil {
			return nil, nil, err
		}
	} else {
		params.Key = repository.StockKey{ProductID: productID, VariantID: variantID, BranchID: inv.BranchID}
		entry, err = s.stock.AdjustTx(tx, params)
		if err != nil {
			return nil, nil, err
		}
	}
	if entry != nil {
		id := entry.ID
		item.StockEntryID = &id
	}
	return item, entry, nil
}

func (s *invoiceService) applyLoyalty(tx *gorm.DB, customerID *uuid.UUID, delta int) error {
	if customerID == nil || delta == 0 {
		return nil
	}
	return s.customers.AdjustLoyaltyTx(tx, *customerID, delta)
}

// ── Cancel ────────────────────────────────────────────────────────────────────
// Marks the invoice cancelled and, when asked, restores exactly the ledger
// entries the items debited. Restoring twice is impossible: the cancelled
// flag is claimed with a guarded update, so of two concurrent cancels only
// one proceeds to the restore.

func (s *invoiceService) Cancel(ctx context.Context, actor Actor, id uuid.UUID, req dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("invoice not found")
	}
	if inv.Cancelled {
		return nil, apierror.StateConflict("invoice is already cancelled")
	}
	if !actor.AtBranch(inv.BranchID) {
		return nil, apierror.Authorization("cannot cancel an invoice of another branch")
	}

	now := time.Now()
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"cancelled":     true,
			"cancel_reason": req.Reason,
			"cancelled_at":  now,
		}
		returnStock := req.ReturnStock && !inv.StockReturned
		if returnStock {
			updates["stock_returned"] = true
		}
		ok, err := s.repo.CancelTx(tx, id, updates)
		if err != nil {
			return err
		}
		if !ok {
			return apierror.StateConflict("invoice is already cancelled")
		}
		if returnStock {
			items, err := s.repo.ItemsTx(tx, id)
			if err != nil {
				return err
			}
			refID := id
			for _, item := range items {
				if item.StockEntryID == nil {
					continue
				}
				if _, err := s.stock.AdjustEntryTx(tx, *item.StockEntryID, AdjustParams{
					Delta:       item.Quantity,
					Kind:        MovementRestore,
					Reason:      fmt.Sprintf("Cancelled invoice %s: %s", inv.Number, req.Reason),
					ReferenceID: &refID,
					Actor:       actor,
				}); err != nil {
					return err
				}
			}
		}
		return s.applyLoyalty(tx, inv.CustomerID, inv.LoyaltyPointsRedeemed-inv.LoyaltyPointsEarned)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.audit.LogTarget(ctx, actor, "invoice_cancel", id, fmt.Sprintf("%s: %s", inv.Number, req.Reason))
	return s.Get(ctx, id)
}

// ── Edit ──────────────────────────────────────────────────────────────────────
// Replaces the item set: every old deduction is reversed, then the new lines
// are applied, all in one transaction. The net ledger effect equals deleting
// and recreating the invoice while keeping its number and history.

func (s *invoiceService) Edit(ctx context.Context, actor Actor, id uuid.UUID, req dto.EditInvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("invoice not found")
	}
	if inv.Cancelled {
		return nil, apierror.StateConflict("cancelled invoices cannot be edited")
	}
	if inv.Status != model.InvoiceCompleted {
		return nil, apierror.StateConflict("only completed invoices can be edited")
	}
	if !actor.AtBranch(inv.BranchID) {
		return nil, apierror.Authorization("cannot edit an invoice of another branch")
	}

	oldTotal := inv.Total
	now := time.Now()
	actorID := actor.ID

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		oldItems, err := s.repo.ItemsTx(tx, id)
		if err != nil {
			return err
		}
		refID := id
		for _, item := range oldItems {
			if item.StockEntryID == nil {
				continue
			}
			if _, err := s.stock.AdjustEntryTx(tx, *item.StockEntryID, AdjustParams{
				Delta:       item.Quantity,
				Kind:        MovementRestore,
				Reason:      fmt.Sprintf("Edit of invoice %s (reversal)", inv.Number),
				ReferenceID: &refID,
				Actor:       actor,
			}); err != nil {
				return err
			}
		}
		if err := s.repo.DeleteItemsTx(tx, id); err != nil {
			return err
		}

		for _, line := range req.Items {
			item, _, err := s.applyLine(tx, actor, inv, line, -1, fmt.Sprintf("Edit of invoice %s", inv.Number))
			if err != nil {
				return err
			}
			if err := s.repo.CreateItemTx(tx, item); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"edit_count": gorm.Expr("edit_count + 1"),
			"edited_by":  actor.Name,
			"edited_at":  now,
		}
		applyHeaderEdits(updates, req)
		if err := s.repo.UpdateTx(tx, id, updates); err != nil {
			return err
		}

		newTotal := oldTotal
		if req.Total != nil {
			newTotal = *req.Total
		}
		return s.repo.CreateEditRecordTx(tx, &model.InvoiceEditRecord{
			InvoiceID:     id,
			EditedBy:      &actorID,
			EditedByName:  actor.Name,
			OldTotal:      oldTotal,
			NewTotal:      newTotal,
			OldItemsCount: len(oldItems),
			NewItemsCount: len(req.Items),
			EditedAt:      now,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.audit.LogTarget(ctx, actor, "invoice_edit", id, inv.Number)
	return s.Get(ctx, id)
}

func applyHeaderEdits(updates map[string]interface{}, req dto.EditInvoiceRequest) {
	if req.CustomerName != nil {
		updates["customer_name"] = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		updates["customer_phone"] = *req.CustomerPhone
	}
	if req.CustomerAddress != nil {
		updates["customer_address"] = *req.CustomerAddress
	}
	if req.CustomerID != nil {
		if cid, err := uuid.Parse(*req.CustomerID); err == nil {
			updates["customer_id"] = cid
		}
	}
	if req.Subtotal != nil {
		updates["subtotal"] = *req.Subtotal
	}
	if req.Discount != nil {
		updates["discount"] = *req.Discount
	}
	if req.DeliveryFee != nil {
		updates["delivery_fee"] = *req.DeliveryFee
	}
	if req.Total != nil {
		updates["total"] = *req.Total
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("invoice not found")
	}
	return invoiceToResponse(inv), nil
}

func (s *invoiceService) List(ctx context.Context, filter dto.InvoiceFilter) ([]dto.InvoiceResponse, error) {
	invoices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, *invoiceToResponse(&invoices[i]))
	}
	return out, nil
}

func (s *invoiceService) EditHistory(ctx context.Context, id uuid.UUID) ([]dto.InvoiceEditHistoryResponse, error) {
	records, err := s.repo.ListEditHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InvoiceEditHistoryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.InvoiceEditHistoryResponse{
			ID:            rec.ID.String(),
			EditedByName:  rec.EditedByName,
			OldItemsCount: rec.OldItemsCount,
			NewItemsCount: rec.NewItemsCount,
			EditedAt:      rec.EditedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *invoiceService) ClearAll(ctx context.Context, actor Actor) (int64, error) {
	if actor.Role != "admin" {
		return 0, apierror.Authorization("admin only")
	}
	deleted, err := s.repo.ClearAll(ctx)
	if err != nil {
		return 0, err
	}
	s.audit.Log(ctx, actor, "invoices_clear", strconv.FormatInt(deleted, 10)+" invoices deleted")
	return deleted, nil
}

func (s *invoiceService) lowStockThreshold(ctx context.Context) int {
	raw, err := s.catalog.Setting(ctx, "low_stock_threshold")
	if err != nil || raw == "" {
		return defaultLowStockThreshold
	}
	threshold, err := strconv.Atoi(raw)
	if err != nil {
		return defaultLowStockThreshold
	}
	return threshold
}

// notifyLowStock enqueues an alert email, best-effort.
func (s *invoiceService) notifyLowStock(ctx context.Context, branchName string, warnings []dto.LowStockWarning) {
	if len(warnings) == 0 || s.dispatcher == nil || s.alertEmail == "" {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Low stock at %s:\n\n", branchName)
	for _, w := range warnings {
		fmt.Fprintf(&b, "  %s: %d left\n", w.ProductName, w.Stock)
	}
	_ = s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: s.alertEmail,
		Subject: fmt.Sprintf("Low stock alert: %s", branchName),
		Body:    b.String(),
	})
}

// branchNumber suffixes the client-side invoice number with a short branch
// discriminator so numbers stay unique across branches.
func branchNumber(number string, branchID uuid.UUID) string {
	suffix := "-B" + branchID.String()[:8]
	if strings.HasSuffix(number, suffix) {
		return number
	}
	return number + suffix
}

func paymentOrCash(method string) string {
	if method == "" {
		return "cash"
	}
	return method
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	items := make([]dto.InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		resp := dto.InvoiceItemResponse{
			ID:          item.ID.String(),
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		}
		if item.VariantID != nil {
			resp.VariantID = item.VariantID.String()
		}
		items = append(items, resp)
	}
	return &dto.InvoiceResponse{
		ID:            inv.ID.String(),
		Number:        inv.Number,
		BranchID:      inv.BranchID.String(),
		BranchName:    inv.BranchName,
		CustomerName:  inv.CustomerName,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		Total:         inv.Total,
		PaymentMethod: inv.PaymentMethod,
		Status:        inv.Status,
		Cancelled:     inv.Cancelled,
		CancelReason:  inv.CancelReason,
		StockReturned: inv.StockReturned,
		EditCount:     inv.EditCount,
		CreatedAt:     inv.CreatedAt.Format(time.RFC3339),
		Items:         items,
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/apierror"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type SyncService interface {
	// Upload merges a batch of offline records. Each record succeeds or fails
	// on its own; the response reports per-record errors alongside the counts.
	Upload(ctx context.Context, actor Actor, req dto.SyncUploadRequest) (*dto.SyncUploadResponse, error)
	// Download returns the catalog snapshot an offline client needs to
	// operate: products with branch stock, customers, settings, coupons.
	Download(ctx context.Context, branchID uuid.UUID, since string) (*dto.SyncDownloadResponse, error)
	Status(ctx context.Context) (*dto.SyncStatusResponse, error)
}

type syncService struct {
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	catalog   repository.CatalogRepository
	stock     StockService
	rdb       *redis.Client
	cacheTTL  time.Duration
	audit     AuditLogger
}

func NewSyncService(
	invoices repository.InvoiceRepository,
	customers repository.CustomerRepository,
	catalog repository.CatalogRepository,
	stock StockService,
	rdb *redis.Client,
	cacheTTL time.Duration,
	audit AuditLogger,
) SyncService {
	return &syncService{
		invoices:  invoices,
		customers: customers,
		catalog:   catalog,
		stock:     stock,
		rdb:       rdb,
		cacheTTL:  cacheTTL,
		audit:     audit,
	}
}

// ── Upload ────────────────────────────────────────────────────────────────────

func (s *syncService) Upload(ctx context.Context, actor Actor, req dto.SyncUploadRequest) (*dto.SyncUploadResponse, error) {
	results := dto.SyncUploadResults{Errors: []string{}}

	// Customers first so freshly created ones are resolvable by the invoices
	// that follow in the same batch.
	for _, c := range req.Customers {
		if c.Name == "" {
			results.Errors = append(results.Errors, "customer: missing name")
			continue
		}
		if c.Phone != "" {
			if existing, err := s.customers.FindByPhone(ctx, c.Phone); err == nil && existing != nil {
				// already known — idempotent skip
				results.CustomersSynced++
				continue
			}
		}
		err := s.customers.Create(ctx, &model.Customer{
			Name:    c.Name,
			Phone:   c.Phone,
			Email:   c.Email,
			Address: c.Address,
			Notes:   c.Notes,
		})
		if err != nil {
			results.Errors = append(results.Errors, fmt.Sprintf("customer %s: %v", c.Name, err))
			continue
		}
		results.CustomersSynced++
	}

	for _, in := range req.Invoices {
		if err := s.mergeInvoice(ctx, actor, in); err != nil {
			results.Errors = append(results.Errors, fmt.Sprintf("invoice %s: %v", in.Number, err))
			continue
		}
		results.InvoicesSynced++
	}

	if len(results.Errors) > 0 {
		log.Warn().
			Int("invoices", results.InvoicesSynced).
			Int("customers", results.CustomersSynced).
			Int("errors", len(results.Errors)).
			Msg("sync upload finished with partial failures")
	}
	s.audit.Log(ctx, actor, "sync_upload",
		fmt.Sprintf("%d invoices, %d customers, %d errors",
			results.InvoicesSynced, results.CustomersSynced, len(results.Errors)))

	return &dto.SyncUploadResponse{
		Results:  results,
		SyncedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// mergeInvoice inserts one offline invoice in its own transaction. A number
// already present means the record was merged by an earlier upload; the whole
// record is skipped, stock effects included, so replays are harmless.
func (s *syncService) mergeInvoice(ctx context.Context, actor Actor, in dto.SyncInvoice) error {
	if in.Number == "" {
		return fmt.Errorf("missing invoice_number")
	}
	branchID, err := uuid.Parse(in.BranchID)
	if err != nil {
		return fmt.Errorf("invalid branch_id")
	}
	branch, err := s.catalog.BranchByID(ctx, branchID)
	if err != nil {
		return fmt.Errorf("branch not found")
	}

	number := branchNumber(in.Number, branchID)
	if existing, err := s.invoices.FindByNumber(ctx, number); err == nil && existing != nil {
		return nil
	}

	inv := model.Invoice{
		Number:          number,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
		Subtotal:        in.Subtotal,
		Discount:        in.Discount,
		DeliveryFee:     in.DeliveryFee,
		CouponDiscount:  in.CouponDiscount,
		CouponCode:      in.CouponCode,
		Total:           in.Total,
		PaymentMethod:   paymentOrCash(in.PaymentMethod),
		BranchID:        branchID,
		BranchName:      branch.Name,
		EmployeeName:    in.EmployeeName,
		Notes:           in.Notes,
		Status:          model.InvoiceCompleted,
	}
	if in.CustomerID != "" {
		if cid, err := uuid.Parse(in.CustomerID); err == nil {
			inv.CustomerID = &cid
		}
	} else if in.CustomerPhone != "" {
		if customer, err := s.customers.FindByPhone(ctx, in.CustomerPhone); err == nil && customer != nil {
			inv.CustomerID = &customer.ID
		}
	}
	if in.ShiftID != "" {
		if sid, err := uuid.Parse(in.ShiftID); err == nil {
			if shift, err := s.catalog.ShiftByID(ctx, sid); err == nil {
				inv.ShiftID = &sid
				inv.ShiftName = shift.Name
			}
		}
	}
	if in.CreatedAt != "" {
		if created, err := time.Parse(time.RFC3339, in.CreatedAt); err == nil {
			inv.CreatedAt = created
		}
	}

	return runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		if err := s.invoices.CreateTx(tx, &inv); err != nil {
			return err
		}
		refID := inv.ID
		for _, line := range in.Items {
			productID, err := uuid.Parse(line.ProductID)
			if err != nil {
				return fmt.Errorf("invalid product_id %q", line.ProductID)
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
			if line.VariantID != "" {
				if vid, err := uuid.Parse(line.VariantID); err == nil {
					item.VariantID = &vid
				}
			}
			// Lines without a ledger reference were sold off-catalog by the
			// offline client; they insert without a deduction.
			if line.StockEntryID != "" {
				entryID, err := uuid.Parse(line.StockEntryID)
				if err != nil {
					return fmt.Errorf("invalid stock_entry_id %q", line.StockEntryID)
				}
				entry, err := s.stock.AdjustEntryTx(tx, entryID, AdjustParams{
					Delta:       -line.Quantity,
					Kind:        MovementSync,
					Reason:      "Offline sale " + inv.Number,
					ReferenceID: &refID,
					Actor:       actor,
				})
				if err != nil {
					return err
				}
				item.StockEntryID = &entry.ID
			}
			if err := s.invoices.CreateItemTx(tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// ── Download ──────────────────────────────────────────────────────────────────

func syncCacheKey(branchID uuid.UUID, since string) string {
	if since == "" {
		return "sync:snapshot:" + branchID.String()
	}
	return "sync:snapshot:" + branchID.String() + ":" + since
}

func (s *syncService) Download(ctx context.Context, branchID uuid.UUID, since string) (*dto.SyncDownloadResponse, error) {
	if _, err := s.catalog.BranchByID(ctx, branchID); err != nil {
		return nil, apierror.NotFound("branch not found")
	}

	key := syncCacheKey(branchID, since)
	if s.rdb != nil && s.cacheTTL > 0 {
		if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var snap dto.SyncSnapshot
			if err := json.Unmarshal(cached, &snap); err == nil {
				return &dto.SyncDownloadResponse{
					Data:     snap,
					SyncedAt: time.Now().UTC().Format(time.RFC3339),
					FullSync: since == "",
				}, nil
			}
		}
	}

	snap, err := s.buildSnapshot(ctx, branchID, since)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.rdb.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("sync snapshot cache write failed")
			}
		}
	}

	return &dto.SyncDownloadResponse{
		Data:     *snap,
		SyncedAt: time.Now().UTC().Format(time.RFC3339),
		FullSync: since == "",
	}, nil
}

func (s *syncService) buildSnapshot(ctx context.Context, branchID uuid.UUID, since string) (*dto.SyncSnapshot, error) {
	rows, err := s.catalog.ProductsWithStock(ctx, branchID, since)
	if err != nil {
		return nil, err
	}
	products := make([]dto.SyncProduct, 0, len(rows))
	for _, row := range rows {
		p := dto.SyncProduct{
			StockEntryID: row.StockEntryID.String(),
			ProductID:    row.ProductID.String(),
			ProductName:  row.ProductName,
			Barcode:      row.Barcode,
			Category:     row.Category,
			Unit:         row.Unit,
			VariantName:  row.VariantName,
			Price:        row.Price,
			Cost:         row.Cost,
			Stock:        row.Stock,
		}
		if row.VariantID != nil {
			p.VariantID = row.VariantID.String()
		}
		products = append(products, p)
	}

	customerRows, err := s.customers.List(ctx, since)
	if err != nil {
		return nil, err
	}
	customers := make([]dto.SyncCustomerRecord, 0, len(customerRows))
	for _, c := range customerRows {
		customers = append(customers, dto.SyncCustomerRecord{
			ID:            c.ID.String(),
			Name:          c.Name,
			Phone:         c.Phone,
			Email:         c.Email,
			Address:       c.Address,
			LoyaltyPoints: c.LoyaltyPoints,
		})
	}

	settings, err := s.catalog.SettingsMap(ctx)
	if err != nil {
		return nil, err
	}
	branchRows, err := s.catalog.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	branches := make([]dto.SyncBranch, 0, len(branchRows))
	for _, b := range branchRows {
		branches = append(branches, dto.SyncBranch{ID: b.ID.String(), Name: b.Name})
	}
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	couponRows, err := s.catalog.ListActiveCoupons(ctx)
	if err != nil {
		return nil, err
	}
	coupons := make([]dto.SyncCoupon, 0, len(couponRows))
	for _, c := range couponRows {
		coupons = append(coupons, dto.SyncCoupon{
			ID:              c.ID.String(),
			Code:            c.Code,
			DiscountPercent: c.DiscountPercent,
		})
	}

	return &dto.SyncSnapshot{
		Products:   products,
		Customers:  customers,
		Settings:   settings,
		Branches:   branches,
		Categories: categories,
		Coupons:    coupons,
	}, nil
}

// ── Status ────────────────────────────────────────────────────────────────────

func (s *syncService) Status(ctx context.Context) (*dto.SyncStatusResponse, error) {
	resp := &dto.SyncStatusResponse{ServerTime: time.Now().UTC().Format(time.RFC3339)}

	products, err := s.catalog.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	resp.Stats.Products = products

	customerRows, err := s.customers.List(ctx, "")
	if err != nil {
		return nil, err
	}
	resp.Stats.Customers = int64(len(customerRows))

	invoices, err := s.invoices.Count(ctx)
	if err != nil {
		return nil, err
	}
	resp.Stats.Invoices = invoices

	if last, err := s.invoices.LastCreatedAt(ctx); err == nil && last != nil {
		formatted := last.UTC().Format(time.RFC3339)
		resp.Stats.LastInvoice = &formatted
	}
	return resp, nil
}

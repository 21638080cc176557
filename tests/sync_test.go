package tests

import (
	"context"
	"testing"

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
)

// ── Helpers ───────────────────────────────────────────────────────────────────

type syncFixture struct {
	invoices  *stubInvoiceRepo
	customers *stubCustomerRepo
	catalog   *stubCatalogRepo
	stock     *stubStockRepo
	svc       service.SyncService
	branch    *model.Branch
}

// Redis is left nil: snapshot caching is best-effort and the service builds
// the snapshot directly when no client is wired.
func newSyncFixture() *syncFixture {
	f := &syncFixture{
		invoices:  newStubInvoiceRepo(),
		customers: newStubCustomerRepo(),
		catalog:   newStubCatalogRepo(),
		stock:     newStubStockRepo(),
	}
	stockSvc := service.NewStockService(f.stock, config.FloorAllow)
	f.svc = service.NewSyncService(f.invoices, f.customers, f.catalog, stockSvc, nil, 0, service.NopAuditLogger{})
	f.branch = seedBranch(f.catalog, "Downtown")
	return f
}

func offlineInvoice(number string, branchID uuid.UUID, entryID uuid.UUID, productID uuid.UUID, qty int) dto.SyncInvoice {
	return dto.SyncInvoice{
		Number:   number,
		BranchID: branchID.String(),
		Total:    decimal.NewFromInt(int64(qty) * 10),
		Items: []dto.SyncInvoiceItem{
			{
				ProductID:    productID.String(),
				ProductName:  "Orange Juice 1L",
				Quantity:     qty,
				Price:        decimal.NewFromInt(10),
				Total:        decimal.NewFromInt(int64(qty) * 10),
				StockEntryID: entryID.String(),
			},
		},
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestSyncUploadCreatesCustomers(t *testing.T) {
	f := newSyncFixture()
	seedCustomer(f.customers, "Known Customer", "0791234567")

	resp, err := f.svc.Upload(context.Background(), branchActor(f.branch.ID), dto.SyncUploadRequest{
		Customers: []dto.SyncCustomer{
			{Name: "New Customer", Phone: "0799999999"},
			{Name: "Known Customer", Phone: "0791234567"}, // phone dedup
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Results.CustomersSynced)
	assert.Empty(t, resp.Results.Errors)
	assert.Len(t, f.customers.customers, 2) // dedup created no second row
}

func TestSyncUploadCustomerMissingName(t *testing.T) {
	f := newSyncFixture()

	resp, err := f.svc.Upload(context.Background(), branchActor(f.branch.ID), dto.SyncUploadRequest{
		Customers: []dto.SyncCustomer{
			{Phone: "0790000001"},
			{Name: "Valid Customer", Phone: "0790000002"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Results.CustomersSynced)
	require.Len(t, resp.Results.Errors, 1)
	assert.Contains(t, resp.Results.Errors[0], "missing name")
}

func TestSyncUploadMergesInvoice(t *testing.T) {
	f := newSyncFixture()
	productID := uuid.New()
	entry := seedEntry(f.stock, productID, nil, f.branch.ID, 10)

	resp, err := f.svc.Upload(context.Background(), branchActor(f.branch.ID), dto.SyncUploadRequest{
		Invoices: []dto.SyncInvoice{offlineInvoice("OFF-001", f.branch.ID, entry.ID, productID, 4)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Results.InvoicesSynced)
	assert.Empty(t, resp.Results.Errors)
	assert.Equal(t, 6, entry.Quantity)

	merged, err := f.invoices.FindByNumber(context.Background(), "OFF-001-B"+f.branch.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceCompleted, merged.Status)

	movs := f.stock.movementsFor(entry.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, service.MovementSync, movs[0].Kind)
}

func TestSyncUploadReplayIdempotent(t *testing.T) {
	f := newSyncFixture()
	productID := uuid.New()
	entry := seedEntry(f.stock, productID, nil, f.branch.ID, 10)

	batch := dto.SyncUploadRequest{
		Invoices: []dto.SyncInvoice{offlineInvoice("OFF-001", f.branch.ID, entry.ID, productID, 4)},
	}
	ctx := context.Background()
	actor := branchActor(f.branch.ID)

	_, err := f.svc.Upload(ctx, actor, batch)
	require.NoError(t, err)
	resp, err := f.svc.Upload(ctx, actor, batch)
	require.NoError(t, err)

	// The replay counts as synced but reapplies nothing
	assert.Equal(t, 1, resp.Results.InvoicesSynced)
	assert.Empty(t, resp.Results.Errors)
	assert.Equal(t, 6, entry.Quantity)
	n, _ := f.invoices.Count(ctx)
	assert.Equal(t, int64(1), n)
}

func TestSyncUploadUnknownBranchContinues(t *testing.T) {
	f := newSyncFixture()
	productID := uuid.New()
	entry := seedEntry(f.stock, productID, nil, f.branch.ID, 10)

	resp, err := f.svc.Upload(context.Background(), branchActor(f.branch.ID), dto.SyncUploadRequest{
		Invoices: []dto.SyncInvoice{
			offlineInvoice("OFF-BAD", uuid.New(), entry.ID, productID, 2),
			offlineInvoice("OFF-002", f.branch.ID, entry.ID, productID, 3),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Results.InvoicesSynced)
	require.Len(t, resp.Results.Errors, 1)
	assert.Contains(t, resp.Results.Errors[0], "OFF-BAD")
	assert.Equal(t, 7, entry.Quantity) // only the valid record applied
}

func TestSyncUploadOffCatalogLine(t *testing.T) {
	f := newSyncFixture()
	productID := uuid.New()

	inv := dto.SyncInvoice{
		Number:   "OFF-003",
		BranchID: f.branch.ID.String(),
		Items: []dto.SyncInvoiceItem{
			// No stock entry reference: the line inserts without a deduction
			{ProductID: productID.String(), ProductName: "Ad-hoc Item", Quantity: 2},
		},
	}
	resp, err := f.svc.Upload(context.Background(), branchActor(f.branch.ID), dto.SyncUploadRequest{
		Invoices: []dto.SyncInvoice{inv},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Results.InvoicesSynced)
	assert.Empty(t, f.stock.movements)
}

func TestSyncUploadResolvesCustomerByPhone(t *testing.T) {
	f := newSyncFixture()
	productID := uuid.New()
	entry := seedEntry(f.stock, productID, nil, f.branch.ID, 10)
	customer := seedCustomer(f.customers, "Omar", "0790000000")

	inv := offlineInvoice("OFF-004", f.branch.ID, entry.ID, productID, 1)
	inv.CustomerPhone = "0790000000"

	_, err := f.svc.Upload(context.Background(), branchActor(f.branch.ID), dto.SyncUploadRequest{
		Invoices: []dto.SyncInvoice{inv},
	})
	require.NoError(t, err)

	merged, err := f.invoices.FindByNumber(context.Background(), "OFF-004-B"+f.branch.ID.String()[:8])
	require.NoError(t, err)
	require.NotNil(t, merged.CustomerID)
	assert.Equal(t, customer.ID, *merged.CustomerID)
}

func TestSyncDownloadSnapshot(t *testing.T) {
	f := newSyncFixture()
	productID := uuid.New()
	f.catalog.settings["low_stock_threshold"] = "3"
	f.catalog.rows = []repository.SyncProductRow{
		{
			StockEntryID: uuid.New(),
			ProductID:    productID,
			ProductName:  "Orange Juice 1L",
			Price:        decimal.NewFromInt(10),
			Stock:        6,
		},
	}
	f.catalog.coupons = []model.Coupon{
		{ID: uuid.New(), Code: "WELCOME10", DiscountPercent: decimal.NewFromInt(10), Active: true},
	}
	seedCustomer(f.customers, "Omar", "0790000000")

	resp, err := f.svc.Download(context.Background(), f.branch.ID, "")
	require.NoError(t, err)
	assert.True(t, resp.FullSync)
	require.Len(t, resp.Data.Products, 1)
	assert.Equal(t, "Orange Juice 1L", resp.Data.Products[0].ProductName)
	assert.Equal(t, 6, resp.Data.Products[0].Stock)
	assert.Len(t, resp.Data.Customers, 1)
	assert.Equal(t, "3", resp.Data.Settings["low_stock_threshold"])
	assert.Len(t, resp.Data.Branches, 1)
	assert.Len(t, resp.Data.Coupons, 1)
}

func TestSyncDownloadUnknownBranch(t *testing.T) {
	f := newSyncFixture()
	_, err := f.svc.Download(context.Background(), uuid.New(), "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestSyncStatus(t *testing.T) {
	f := newSyncFixture()
	productID := uuid.New()
	entry := seedEntry(f.stock, productID, nil, f.branch.ID, 10)

	_, err := f.svc.Upload(context.Background(), branchActor(f.branch.ID), dto.SyncUploadRequest{
		Invoices: []dto.SyncInvoice{offlineInvoice("OFF-001", f.branch.ID, entry.ID, productID, 1)},
	})
	require.NoError(t, err)

	status, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Stats.Invoices)
	require.NotNil(t, status.Stats.LastInvoice)
}

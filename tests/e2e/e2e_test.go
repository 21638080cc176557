//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - manual stock adjustment and its movement trail
//   - full transfer lifecycle (create → approve → pickup → receive)
//   - invoice creation debiting stock, cancellation restoring it
//   - offline sync upload idempotency and the download snapshot
//   - subscription creation and allowance-bounded redemption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/config"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/dto"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/infra"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/middleware"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/router"
	"github.com/Artistkw3d/Pos-Offline-sub000/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-key"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// mintToken signs an access token directly; token issuance lives in the
// surrounding admin system, so the tests stand in for it here.
func mintToken(t *testing.T, role string, branchID *uuid.UUID) string {
	t.Helper()
	var branch *string
	if branchID != nil {
		s := branchID.String()
		branch = &s
	}
	claims := middleware.JWTClaims{
		UserID:   uuid.New().String(),
		Username: "E2E " + role,
		Role:     role,
		BranchID: branch,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	admin  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("stockledger_test"),
		tcPostgres.WithUsername("ledger"),
		tcPostgres.WithPassword("ledger"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                8000,
		Env:                 "test",
		WorkerPoolSize:      1,
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		JWTSecret:           testJWTSecret,
		StockFloorPolicy:    config.FloorAllow,
		SyncCacheTTLSeconds: 0, // no snapshot caching: tests mutate between downloads
		ExpirySweepMinutes:  60,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	dispatcher := worker.NewDispatcher(rdb)
	engine := router.New(cfg, db, rdb, dispatcher)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &testEnv{
		server: srv,
		db:     db,
		admin:  mintToken(t, "admin", nil),
	}
}

// seedBranch inserts a branch directly; branch CRUD is out of scope for the
// HTTP surface.
func (env *testEnv) seedBranch(t *testing.T, name string) uuid.UUID {
	t.Helper()
	b := model.Branch{ID: uuid.New(), Name: name, Active: true}
	require.NoError(t, env.db.Create(&b).Error)
	return b.ID
}

func (env *testEnv) seedProduct(t *testing.T, name string, price float64) uuid.UUID {
	t.Helper()
	p := model.Product{
		ID:      uuid.New(),
		Name:    name,
		Barcode: uuid.New().String(),
		Unit:    "unit",
		Price:   decimal.NewFromFloat(price),
	}
	require.NoError(t, env.db.Create(&p).Error)
	return p.ID
}

func (env *testEnv) seedCustomer(t *testing.T, name, phone string) uuid.UUID {
	t.Helper()
	c := model.Customer{ID: uuid.New(), Name: name, Phone: phone}
	require.NoError(t, env.db.Create(&c).Error)
	return c.ID
}

// adjustStock drives stock through the ledger endpoint so the entry and its
// movement trail are created the same way production writes them.
func (env *testEnv) adjustStock(t *testing.T, productID, branchID uuid.UUID, delta int) dto.StockEntryResponse {
	t.Helper()
	resp := do(t, env.server, http.MethodPost, "/v1/stock/adjust", jsonBody(t, dto.AdjustStockRequest{
		ProductID: productID.String(),
		BranchID:  branchID.String(),
		Delta:     delta,
		Notes:     "e2e seed",
	}), env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry dto.StockEntryResponse
	decodeJSON(t, resp, &entry)
	return entry
}

func (env *testEnv) stockQuantity(t *testing.T, entryID string) int {
	t.Helper()
	resp := do(t, env.server, http.MethodGet, "/v1/stock/"+entryID, nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry dto.StockEntryResponse
	decodeJSON(t, resp, &entry)
	return entry.Quantity
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_StockAdjustAndMovements(t *testing.T) {
	env := setupTestEnv(t)
	branch := env.seedBranch(t, "Main Warehouse")
	product := env.seedProduct(t, "Orange Juice 1L", 10)

	entry := env.adjustStock(t, product, branch, 25)
	assert.Equal(t, 25, entry.Quantity)

	// second adjustment reuses the same entry
	again := env.adjustStock(t, product, branch, -5)
	assert.Equal(t, entry.ID, again.ID)
	assert.Equal(t, 20, again.Quantity)

	resp := do(t, env.server, http.MethodGet, "/v1/stock/"+entry.ID+"/movements", nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movements []dto.StockMovementResponse
	decodeJSON(t, resp, &movements)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, "manual", m.Kind)
		assert.False(t, m.Flagged)
	}

	// floor policy "allow": overshooting flags the movement instead of failing
	over := env.adjustStock(t, product, branch, -30)
	assert.Equal(t, -10, over.Quantity)

	resp = do(t, env.server, http.MethodGet, "/v1/stock/"+entry.ID+"/movements", nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &movements)
	require.Len(t, movements, 3)
	flagged := 0
	for _, m := range movements {
		if m.Flagged {
			flagged++
		}
	}
	assert.Equal(t, 1, flagged)
}

func TestE2E_StockAdjustRequiresManagerRole(t *testing.T) {
	env := setupTestEnv(t)
	branch := env.seedBranch(t, "Main Warehouse")
	product := env.seedProduct(t, "Orange Juice 1L", 10)

	staff := mintToken(t, "staff", &branch)
	resp := do(t, env.server, http.MethodPost, "/v1/stock/adjust", jsonBody(t, dto.AdjustStockRequest{
		ProductID: product.String(),
		BranchID:  branch.String(),
		Delta:     5,
	}), staff)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestE2E_TransferLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	source := env.seedBranch(t, "Main Warehouse")
	dest := env.seedBranch(t, "Mall Kiosk")
	product := env.seedProduct(t, "Espresso Beans 1kg", 45)

	sourceEntry := env.adjustStock(t, product, source, 40)

	// destination manager requests the transfer
	destManager := mintToken(t, "manager", &dest)
	resp := do(t, env.server, http.MethodPost, "/v1/transfers", jsonBody(t, dto.CreateTransferRequest{
		FromBranchID: source.String(),
		ToBranchID:   dest.String(),
		Items: []dto.TransferItemRequest{
			{ProductID: product.String(), ProductName: "Espresso Beans 1kg", Quantity: 10},
		},
	}), destManager)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.CreateTransferResponse
	decodeJSON(t, resp, &created)
	assert.Regexp(t, `^TR-\d{5}$`, created.Number)

	// pending: stock untouched
	assert.Equal(t, 40, env.stockQuantity(t, sourceEntry.ID))

	// source manager approves with a partial override
	sourceManager := mintToken(t, "manager", &source)
	resp = do(t, env.server, http.MethodGet, "/v1/transfers/"+created.ID, nil, sourceManager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var transfer dto.TransferResponse
	decodeJSON(t, resp, &transfer)
	require.Len(t, transfer.Items, 1)

	resp = do(t, env.server, http.MethodPost, "/v1/transfers/"+created.ID+"/approve", jsonBody(t, dto.ApproveTransferRequest{
		Items: []dto.ApproveTransferItem{
			{ItemID: transfer.Items[0].ID, QuantityApproved: 8},
		},
	}), sourceManager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &transfer)
	assert.Equal(t, "approved", transfer.Status)

	// approval debits the source by the approved quantity
	assert.Equal(t, 32, env.stockQuantity(t, sourceEntry.ID))

	resp = do(t, env.server, http.MethodPost, "/v1/transfers/"+created.ID+"/pickup", jsonBody(t, dto.PickupTransferRequest{
		DriverName: "Sam Carter",
	}), sourceManager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &transfer)
	assert.Equal(t, "in_transit", transfer.Status)

	resp = do(t, env.server, http.MethodPost, "/v1/transfers/"+created.ID+"/receive", jsonBody(t, dto.ReceiveTransferRequest{
		Items: []dto.ReceiveTransferItem{
			{ItemID: transfer.Items[0].ID, QuantityReceived: 8},
		},
	}), destManager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &transfer)
	assert.Equal(t, "completed", transfer.Status)
	assert.NotEmpty(t, transfer.CompletedAt)

	// destination entry was created by the receipt
	resp = do(t, env.server, http.MethodGet, "/v1/stock?branch_id="+dest.String(), nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var destStock []dto.StockEntryResponse
	decodeJSON(t, resp, &destStock)
	require.Len(t, destStock, 1)
	assert.Equal(t, 8, destStock[0].Quantity)

	// terminal state: a second receive is a conflict
	resp = do(t, env.server, http.MethodPost, "/v1/transfers/"+created.ID+"/receive", jsonBody(t, dto.ReceiveTransferRequest{}), destManager)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestE2E_TransferRejectKeepsStock(t *testing.T) {
	env := setupTestEnv(t)
	source := env.seedBranch(t, "Main Warehouse")
	dest := env.seedBranch(t, "Mall Kiosk")
	product := env.seedProduct(t, "Espresso Beans 1kg", 45)
	sourceEntry := env.adjustStock(t, product, source, 15)

	resp := do(t, env.server, http.MethodPost, "/v1/transfers", jsonBody(t, dto.CreateTransferRequest{
		FromBranchID: source.String(),
		ToBranchID:   dest.String(),
		Items: []dto.TransferItemRequest{
			{ProductID: product.String(), Quantity: 5},
		},
	}), env.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.CreateTransferResponse
	decodeJSON(t, resp, &created)

	sourceManager := mintToken(t, "manager", &source)
	resp = do(t, env.server, http.MethodPost, "/v1/transfers/"+created.ID+"/reject", jsonBody(t, dto.RejectTransferRequest{
		Reason: "stock reserved for weekend promo",
	}), sourceManager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var transfer dto.TransferResponse
	decodeJSON(t, resp, &transfer)
	assert.Equal(t, "rejected", transfer.Status)
	assert.Equal(t, "stock reserved for weekend promo", transfer.RejectReason)

	assert.Equal(t, 15, env.stockQuantity(t, sourceEntry.ID))
}

func TestE2E_InvoiceCreateAndCancelRestoresStock(t *testing.T) {
	env := setupTestEnv(t)
	branch := env.seedBranch(t, "Downtown")
	product := env.seedProduct(t, "Orange Juice 1L", 10)
	entry := env.adjustStock(t, product, branch, 12)

	resp := do(t, env.server, http.MethodPost, "/v1/invoices", jsonBody(t, dto.CreateInvoiceRequest{
		Number:        "INV-2001",
		BranchID:      branch.String(),
		CustomerName:  "Walk-in",
		Subtotal:      decimal.NewFromInt(30),
		Total:         decimal.NewFromInt(30),
		PaymentMethod: "cash",
		Items: []dto.InvoiceItemRequest{
			{
				ProductID:    product.String(),
				ProductName:  "Orange Juice 1L",
				Quantity:     3,
				Price:        decimal.NewFromInt(10),
				Total:        decimal.NewFromInt(30),
				StockEntryID: entry.ID,
			},
		},
	}), env.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var invoice dto.InvoiceResponse
	decodeJSON(t, resp, &invoice)
	assert.Contains(t, invoice.Number, "INV-2001-B")
	assert.Equal(t, 9, env.stockQuantity(t, entry.ID))

	resp = do(t, env.server, http.MethodPost, "/v1/invoices/"+invoice.ID+"/cancel", jsonBody(t, dto.CancelInvoiceRequest{
		Reason:      "customer returned the order",
		ReturnStock: true,
	}), env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &invoice)
	assert.True(t, invoice.Cancelled)
	assert.True(t, invoice.StockReturned)
	assert.Equal(t, 12, env.stockQuantity(t, entry.ID))

	// cancelling twice conflicts and must not restore again
	resp = do(t, env.server, http.MethodPost, "/v1/invoices/"+invoice.ID+"/cancel", jsonBody(t, dto.CancelInvoiceRequest{
		Reason:      "repeat",
		ReturnStock: true,
	}), env.admin)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, 12, env.stockQuantity(t, entry.ID))
}

func TestE2E_SyncUploadIdempotentAndDownload(t *testing.T) {
	env := setupTestEnv(t)
	branch := env.seedBranch(t, "Downtown")
	product := env.seedProduct(t, "Orange Juice 1L", 10)
	entry := env.adjustStock(t, product, branch, 10)

	upload := dto.SyncUploadRequest{
		Customers: []dto.SyncCustomer{
			{Name: "Nora Haddad", Phone: "555-0142"},
		},
		Invoices: []dto.SyncInvoice{
			{
				Number:        "OFF-001",
				BranchID:      branch.String(),
				CustomerPhone: "555-0142",
				Subtotal:      decimal.NewFromInt(40),
				Total:         decimal.NewFromInt(40),
				PaymentMethod: "cash",
				CreatedAt:     time.Now().UTC().Format(time.RFC3339),
				Items: []dto.SyncInvoiceItem{
					{
						ProductID:    product.String(),
						ProductName:  "Orange Juice 1L",
						Quantity:     4,
						Price:        decimal.NewFromInt(10),
						Total:        decimal.NewFromInt(40),
						StockEntryID: entry.ID,
					},
				},
			},
		},
	}

	resp := do(t, env.server, http.MethodPost, "/v1/sync/upload", jsonBody(t, upload), env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result dto.SyncUploadResponse
	decodeJSON(t, resp, &result)
	assert.Equal(t, 1, result.Results.CustomersSynced)
	assert.Equal(t, 1, result.Results.InvoicesSynced)
	assert.Empty(t, result.Results.Errors)
	assert.Equal(t, 6, env.stockQuantity(t, entry.ID))

	// replaying the same batch counts as synced but applies nothing
	resp = do(t, env.server, http.MethodPost, "/v1/sync/upload", jsonBody(t, upload), env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &result)
	assert.Equal(t, 1, result.Results.InvoicesSynced)
	assert.Empty(t, result.Results.Errors)
	assert.Equal(t, 6, env.stockQuantity(t, entry.ID))

	var invoiceCount int64
	require.NoError(t, env.db.Model(&model.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(1), invoiceCount)

	resp = do(t, env.server, http.MethodGet, "/v1/sync/download?branch_id="+branch.String(), nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snapshot dto.SyncDownloadResponse
	decodeJSON(t, resp, &snapshot)
	require.Len(t, snapshot.Data.Products, 1)
	assert.Equal(t, entry.ID, snapshot.Data.Products[0].StockEntryID)
	assert.Equal(t, 6, snapshot.Data.Products[0].Stock)
	require.Len(t, snapshot.Data.Customers, 1)
	assert.Equal(t, "Nora Haddad", snapshot.Data.Customers[0].Name)
	require.Len(t, snapshot.Data.Branches, 1)
	assert.True(t, snapshot.FullSync)
}

func TestE2E_SyncUploadPartialFailure(t *testing.T) {
	env := setupTestEnv(t)
	branch := env.seedBranch(t, "Downtown")
	product := env.seedProduct(t, "Orange Juice 1L", 10)
	entry := env.adjustStock(t, product, branch, 10)

	line := dto.SyncInvoiceItem{
		ProductID:    product.String(),
		Quantity:     2,
		Price:        decimal.NewFromInt(10),
		Total:        decimal.NewFromInt(20),
		StockEntryID: entry.ID,
	}
	upload := dto.SyncUploadRequest{
		Invoices: []dto.SyncInvoice{
			{Number: "OFF-BAD", BranchID: uuid.New().String(), Total: decimal.NewFromInt(20), Items: []dto.SyncInvoiceItem{line}},
			{Number: "OFF-OK", BranchID: branch.String(), Total: decimal.NewFromInt(20), Items: []dto.SyncInvoiceItem{line}},
		},
	}

	resp := do(t, env.server, http.MethodPost, "/v1/sync/upload", jsonBody(t, upload), env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result dto.SyncUploadResponse
	decodeJSON(t, resp, &result)
	assert.Equal(t, 1, result.Results.InvoicesSynced)
	require.Len(t, result.Results.Errors, 1)
	assert.Contains(t, result.Results.Errors[0], "OFF-BAD")
	assert.Equal(t, 8, env.stockQuantity(t, entry.ID))
}

func TestE2E_SubscriptionRedemption(t *testing.T) {
	env := setupTestEnv(t)
	branch := env.seedBranch(t, "Downtown")
	product := env.seedProduct(t, "Flat White", 4.5)
	entry := env.adjustStock(t, product, branch, 50)
	customer := env.seedCustomer(t, "Maya Stern", "555-0199")

	resp := do(t, env.server, http.MethodPost, "/v1/subscription-plans", jsonBody(t, dto.CreatePlanRequest{
		Name:         "Monthly Coffee",
		DurationDays: 30,
		Price:        decimal.NewFromInt(300),
		Items: []dto.PlanItemRequest{
			{ProductID: product.String(), ProductName: "Flat White", Quantity: 10},
		},
	}), env.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var plan dto.PlanResponse
	decodeJSON(t, resp, &plan)

	resp = do(t, env.server, http.MethodPost, "/v1/subscriptions", jsonBody(t, dto.CreateSubscriptionRequest{
		CustomerID: customer.String(),
		PlanID:     plan.ID,
		Code:       "SUB-MAYA-01",
	}), env.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sub dto.SubscriptionResponse
	decodeJSON(t, resp, &sub)
	assert.Equal(t, "active", sub.Status)

	redeem := func(qty int) *http.Response {
		return do(t, env.server, http.MethodPost, "/v1/subscriptions/redeem", jsonBody(t, dto.RedeemRequest{
			SubscriptionID: sub.ID,
			BranchID:       branch.String(),
			Items: []dto.RedeemItemRequest{
				{ProductID: product.String(), ProductName: "Flat White", Quantity: qty},
			},
		}), env.admin)
	}

	resp = redeem(4)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = redeem(6)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 40, env.stockQuantity(t, entry.ID))

	// allowance exhausted: whole request refused, stock untouched
	resp = redeem(1)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 40, env.stockQuantity(t, entry.ID))

	// check by code reports the consumed allowance
	resp = do(t, env.server, http.MethodGet, "/v1/subscriptions/check?code=SUB-MAYA-01", nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var check dto.SubscriptionCheckResponse
	decodeJSON(t, resp, &check)
	require.True(t, check.Active)
	require.NotNil(t, check.Subscription)
	key := fmt.Sprintf("%s_", product.String())
	assert.Equal(t, 10, check.Subscription.RedeemedMap[key])
}

func TestE2E_HealthAndAuth(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, http.MethodGet, "/health", nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2 := do(t, env.server, http.MethodGet, "/v1/stock", nil, "")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	resp3 := do(t, env.server, http.MethodGet, "/v1/stock", nil, "not-a-token")
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp3.StatusCode)
}

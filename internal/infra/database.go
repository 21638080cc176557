package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and applies the
// versioned SQL migrations. GORM AutoMigrate is not used: the schema needs
// partial unique indexes and a sequence that AutoMigrate cannot express, so
// every DDL change lives in the ordered migration list below.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}

type migration struct {
	version int
	descr   string
	sql     string
}

// Ordered, append-only. Each statement is additionally idempotent
// (IF NOT EXISTS) so a half-applied migration can be re-run safely.
var migrations = []migration{
	{1, "extensions", `
		CREATE EXTENSION IF NOT EXISTS pgcrypto`},
	{2, "catalog tables", `
		CREATE TABLE IF NOT EXISTS branches (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name       TEXT NOT NULL,
			address    TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS products (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name        TEXT NOT NULL,
			barcode     TEXT UNIQUE,
			category    TEXT NOT NULL DEFAULT '',
			unit        TEXT NOT NULL DEFAULT 'unit',
			price       DECIMAL(10,2) NOT NULL DEFAULT 0,
			cost        DECIMAL(10,2) NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_products_name ON products (name);
		CREATE INDEX IF NOT EXISTS idx_products_category ON products (category);
		CREATE TABLE IF NOT EXISTS product_variants (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			product_id UUID NOT NULL REFERENCES products(id),
			name       TEXT NOT NULL,
			barcode    TEXT NOT NULL DEFAULT '',
			price      DECIMAL(10,2) NOT NULL DEFAULT 0,
			cost       DECIMAL(10,2) NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_product_variants_product ON product_variants (product_id);
		CREATE TABLE IF NOT EXISTS shifts (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name       TEXT NOT NULL,
			start_time TEXT NOT NULL DEFAULT '',
			end_time   TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS coupons (
			id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			code             TEXT NOT NULL UNIQUE,
			discount_percent DECIMAL(5,2) NOT NULL DEFAULT 0,
			active           BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at       TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`},
	{3, "customers", `
		CREATE TABLE IF NOT EXISTS customers (
			id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name           TEXT NOT NULL,
			phone          TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			address        TEXT NOT NULL DEFAULT '',
			notes          TEXT NOT NULL DEFAULT '',
			loyalty_points INT NOT NULL DEFAULT 0,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_customers_phone ON customers (phone)`},
	{4, "stock ledger", `
		CREATE TABLE IF NOT EXISTS stock_entries (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			product_id UUID NOT NULL REFERENCES products(id),
			variant_id UUID REFERENCES product_variants(id),
			branch_id  UUID NOT NULL REFERENCES branches(id),
			quantity   INT NOT NULL DEFAULT 0,
			notes      TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		-- Natural-key uniqueness needs two partial indexes because NULL
		-- variant_id values never collide under a plain unique index.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_natural_variant
			ON stock_entries (product_id, variant_id, branch_id)
			WHERE variant_id IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_stock_natural_novariant
			ON stock_entries (product_id, branch_id)
			WHERE variant_id IS NULL;
		CREATE TABLE IF NOT EXISTS stock_movements (
			id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			stock_entry_id  UUID NOT NULL REFERENCES stock_entries(id),
			kind            TEXT NOT NULL,
			delta           INT NOT NULL,
			quantity_before INT NOT NULL,
			quantity_after  INT NOT NULL,
			reason          TEXT NOT NULL DEFAULT '',
			reference_id    UUID,
			flagged         BOOLEAN NOT NULL DEFAULT FALSE,
			actor_id        UUID,
			actor_name      TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_stock_movements_entry ON stock_movements (stock_entry_id)`},
	{5, "stock transfers", `
		CREATE SEQUENCE IF NOT EXISTS stock_transfers_number_seq;
		CREATE TABLE IF NOT EXISTS stock_transfers (
			id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			number            TEXT NOT NULL UNIQUE,
			status            TEXT NOT NULL DEFAULT 'pending',
			from_branch_id    UUID NOT NULL REFERENCES branches(id),
			from_branch_name  TEXT NOT NULL,
			to_branch_id      UUID NOT NULL REFERENCES branches(id),
			to_branch_name    TEXT NOT NULL,
			requested_by      UUID,
			requested_by_name TEXT NOT NULL DEFAULT '',
			approved_by       UUID,
			approved_by_name  TEXT NOT NULL DEFAULT '',
			driver_id         UUID,
			driver_name       TEXT NOT NULL DEFAULT '',
			received_by       UUID,
			received_by_name  TEXT NOT NULL DEFAULT '',
			reject_reason     TEXT NOT NULL DEFAULT '',
			notes             TEXT NOT NULL DEFAULT '',
			requested_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			approved_at       TIMESTAMPTZ,
			picked_up_at      TIMESTAMPTZ,
			delivered_at      TIMESTAMPTZ,
			completed_at      TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_stock_transfers_status ON stock_transfers (status);
		CREATE INDEX IF NOT EXISTS idx_stock_transfers_from ON stock_transfers (from_branch_id);
		CREATE INDEX IF NOT EXISTS idx_stock_transfers_to ON stock_transfers (to_branch_id);
		CREATE TABLE IF NOT EXISTS stock_transfer_items (
			id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			transfer_id        UUID NOT NULL REFERENCES stock_transfers(id),
			product_id         UUID NOT NULL,
			product_name       TEXT NOT NULL,
			variant_id         UUID,
			variant_name       TEXT NOT NULL DEFAULT '',
			quantity_requested INT NOT NULL,
			quantity_approved  INT,
			quantity_received  INT
		);
		CREATE INDEX IF NOT EXISTS idx_stock_transfer_items_transfer ON stock_transfer_items (transfer_id)`},
	{6, "subscriptions", `
		CREATE TABLE IF NOT EXISTS subscription_plans (
			id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name               TEXT NOT NULL,
			duration_days      INT NOT NULL DEFAULT 30,
			price              DECIMAL(10,2) NOT NULL,
			discount_percent   DECIMAL(5,2) NOT NULL DEFAULT 0,
			loyalty_multiplier DECIMAL(5,2) NOT NULL DEFAULT 1,
			description        TEXT NOT NULL DEFAULT '',
			active             BOOLEAN NOT NULL DEFAULT TRUE,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS subscription_plan_items (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			plan_id      UUID NOT NULL REFERENCES subscription_plans(id),
			product_id   UUID NOT NULL,
			product_name TEXT NOT NULL,
			variant_id   UUID,
			variant_name TEXT NOT NULL DEFAULT '',
			quantity     INT NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_subscription_plan_items_plan ON subscription_plan_items (plan_id);
		CREATE TABLE IF NOT EXISTS customer_subscriptions (
			id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			customer_id        UUID NOT NULL REFERENCES customers(id),
			customer_name      TEXT NOT NULL,
			customer_phone     TEXT NOT NULL DEFAULT '',
			plan_id            UUID NOT NULL REFERENCES subscription_plans(id),
			plan_name          TEXT NOT NULL,
			code               TEXT NOT NULL UNIQUE,
			start_date         DATE NOT NULL,
			end_date           DATE NOT NULL,
			status             TEXT NOT NULL DEFAULT 'active',
			price_paid         DECIMAL(10,2) NOT NULL,
			discount_percent   DECIMAL(5,2) NOT NULL DEFAULT 0,
			loyalty_multiplier DECIMAL(5,2) NOT NULL DEFAULT 1,
			notes              TEXT NOT NULL DEFAULT '',
			created_by         UUID,
			created_by_name    TEXT NOT NULL DEFAULT '',
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_customer_subscriptions_customer ON customer_subscriptions (customer_id);
		CREATE INDEX IF NOT EXISTS idx_customer_subscriptions_status ON customer_subscriptions (status);
		CREATE INDEX IF NOT EXISTS idx_customer_subscriptions_phone ON customer_subscriptions (customer_phone);
		CREATE TABLE IF NOT EXISTS subscription_redemptions (
			id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			subscription_id  UUID NOT NULL REFERENCES customer_subscriptions(id),
			customer_id      UUID NOT NULL,
			product_id       UUID NOT NULL,
			product_name     TEXT NOT NULL DEFAULT '',
			variant_id       UUID,
			variant_name     TEXT NOT NULL DEFAULT '',
			quantity         INT NOT NULL,
			branch_id        UUID NOT NULL,
			redeemed_by      UUID,
			redeemed_by_name TEXT NOT NULL DEFAULT '',
			redeemed_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_subscription_redemptions_sub ON subscription_redemptions (subscription_id)`},
	{7, "invoices", `
		CREATE TABLE IF NOT EXISTS invoices (
			id                      UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			number                  TEXT NOT NULL UNIQUE,
			customer_id             UUID,
			customer_name           TEXT NOT NULL DEFAULT '',
			customer_phone          TEXT NOT NULL DEFAULT '',
			customer_address        TEXT NOT NULL DEFAULT '',
			subtotal                DECIMAL(10,2) NOT NULL DEFAULT 0,
			discount                DECIMAL(10,2) NOT NULL DEFAULT 0,
			delivery_fee            DECIMAL(10,2) NOT NULL DEFAULT 0,
			coupon_discount         DECIMAL(10,2) NOT NULL DEFAULT 0,
			coupon_code             TEXT NOT NULL DEFAULT '',
			total                   DECIMAL(10,2) NOT NULL DEFAULT 0,
			payment_method          TEXT NOT NULL DEFAULT 'cash',
			loyalty_discount        DECIMAL(10,2) NOT NULL DEFAULT 0,
			loyalty_points_earned   INT NOT NULL DEFAULT 0,
			loyalty_points_redeemed INT NOT NULL DEFAULT 0,
			branch_id               UUID NOT NULL REFERENCES branches(id),
			branch_name             TEXT NOT NULL DEFAULT '',
			shift_id                UUID,
			shift_name              TEXT NOT NULL DEFAULT '',
			employee_name           TEXT NOT NULL DEFAULT '',
			notes                   TEXT NOT NULL DEFAULT '',
			status                  TEXT NOT NULL DEFAULT 'open',
			cancelled               BOOLEAN NOT NULL DEFAULT FALSE,
			cancel_reason           TEXT NOT NULL DEFAULT '',
			cancelled_at            TIMESTAMPTZ,
			stock_returned          BOOLEAN NOT NULL DEFAULT FALSE,
			edit_count              INT NOT NULL DEFAULT 0,
			edited_by               TEXT NOT NULL DEFAULT '',
			edited_at               TIMESTAMPTZ,
			created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_invoices_customer ON invoices (customer_id);
		CREATE INDEX IF NOT EXISTS idx_invoices_branch ON invoices (branch_id);
		CREATE INDEX IF NOT EXISTS idx_invoices_created ON invoices (created_at);
		CREATE TABLE IF NOT EXISTS invoice_items (
			id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			invoice_id     UUID NOT NULL REFERENCES invoices(id),
			product_id     UUID NOT NULL,
			product_name   TEXT NOT NULL DEFAULT '',
			variant_id     UUID,
			variant_name   TEXT NOT NULL DEFAULT '',
			quantity       INT NOT NULL,
			price          DECIMAL(10,2) NOT NULL,
			total          DECIMAL(10,2) NOT NULL,
			stock_entry_id UUID
		);
		CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items (invoice_id);
		CREATE TABLE IF NOT EXISTS invoice_edit_history (
			id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			invoice_id      UUID NOT NULL REFERENCES invoices(id),
			edited_by       UUID,
			edited_by_name  TEXT NOT NULL DEFAULT '',
			old_total       DECIMAL(10,2),
			new_total       DECIMAL(10,2),
			old_items_count INT NOT NULL DEFAULT 0,
			new_items_count INT NOT NULL DEFAULT 0,
			edited_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_invoice_edit_history_invoice ON invoice_edit_history (invoice_id)`},
	{8, "action log", `
		CREATE TABLE IF NOT EXISTS action_log (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			action_type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			user_id     UUID,
			user_name   TEXT NOT NULL DEFAULT '',
			branch_id   UUID,
			target_id   UUID,
			details     TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_action_log_type ON action_log (action_type)`},
}

// RunMigrations applies all unapplied migrations in version order, recording
// each in schema_migrations. Also used by the integration test harness.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`).Error; err != nil {
		return err
	}

	for _, m := range migrations {
		var count int64
		if err := db.Raw(
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.version,
		).Scan(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.sql).Error; err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.descr, err)
			}
			return tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

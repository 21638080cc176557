package dto

import "github.com/shopspring/decimal"

// SyncCustomer is an offline-created customer record. Deduplicated by phone.
type SyncCustomer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// SyncInvoiceItem carries the offline sale line plus the ledger reference it
// should debit. StockEntryID may be empty when the offline client sold an
// item it had no ledger row for; such lines insert without a deduction.
type SyncInvoiceItem struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	VariantID    string          `json:"variant_id"`
	VariantName  string          `json:"variant_name"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
	StockEntryID string          `json:"stock_entry_id"`
}

// SyncInvoice is an offline-created invoice. Deduplicated by number: a known
// number skips the whole record including its stock effects.
type SyncInvoice struct {
	Number          string            `json:"invoice_number"`
	CustomerID      string            `json:"customer_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Discount        decimal.Decimal   `json:"discount"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	CouponDiscount  decimal.Decimal   `json:"coupon_discount"`
	CouponCode      string            `json:"coupon_code"`
	Total           decimal.Decimal   `json:"total"`
	PaymentMethod   string            `json:"payment_method"`
	EmployeeName    string            `json:"employee_name"`
	Notes           string            `json:"notes"`
	BranchID        string            `json:"branch_id"`
	ShiftID         string            `json:"shift_id"`
	CreatedAt       string            `json:"created_at"`
	Items           []SyncInvoiceItem `json:"items"`
}

type SyncUploadRequest struct {
	Customers []SyncCustomer `json:"customers"`
	Invoices  []SyncInvoice  `json:"invoices"`
}

// SyncUploadResults is the per-record outcome of an upload batch. Errors
// holds one entry per failed record; successful records keep counting —
// a failure never aborts the batch.
type SyncUploadResults struct {
	InvoicesSynced  int      `json:"invoices_synced"`
	CustomersSynced int      `json:"customers_synced"`
	Errors          []string `json:"errors"`
}

type SyncUploadResponse struct {
	Results  SyncUploadResults `json:"results"`
	SyncedAt string            `json:"synced_at"`
}

// SyncProduct is a catalog row joined with the branch's ledger entry.
type SyncProduct struct {
	StockEntryID string          `json:"stock_entry_id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Barcode      string          `json:"barcode,omitempty"`
	Category     string          `json:"category,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	VariantID    string          `json:"variant_id,omitempty"`
	VariantName  string          `json:"variant_name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	Stock        int             `json:"stock"`
}

type SyncBranch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SyncCustomerRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
	LoyaltyPoints int    `json:"loyalty_points"`
}

type SyncCoupon struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type SyncSnapshot struct {
	Products   []SyncProduct        `json:"products"`
	Customers  []SyncCustomerRecord `json:"customers"`
	Settings   map[string]string    `json:"settings"`
	Branches   []SyncBranch         `json:"branches"`
	Categories []string             `json:"categories"`
	Coupons    []SyncCoupon         `json:"coupons"`
}

type SyncDownloadResponse struct {
	Data     SyncSnapshot `json:"data"`
	SyncedAt string       `json:"synced_at"`
	FullSync bool         `json:"full_sync,omitempty"`
}

type SyncStatusResponse struct {
	ServerTime string `json:"server_time"`
	Stats      struct {
		Products    int64   `json:"products"`
		Customers   int64   `json:"customers"`
		Invoices    int64   `json:"invoices"`
		LastInvoice *string `json:"last_invoice"`
	} `json:"stats"`
}

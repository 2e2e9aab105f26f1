package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPending   EventStatus = "pending"
	EventConfirmed EventStatus = "confirmed"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Reserving reports whether events in this status count against
// product availability. Drafts are intake records and do not reserve.
func (s EventStatus) Reserving() bool {
	return s == EventPending || s == EventConfirmed
}

type InvoiceType string

const (
	InvoiceQuote    InvoiceType = "quote"
	InvoiceSaleNote InvoiceType = "sale_note"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePending   InvoiceStatus = "pending"
	InvoiceCompleted InvoiceStatus = "completed"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type ContractStatus string

const (
	ContractPending   ContractStatus = "pending"
	ContractSigned    ContractStatus = "signed"
	ContractCancelled ContractStatus = "cancelled"
)

type Product struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"-"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// LineItem references a product by name. A name that matches nothing in
// the catalog is an ad-hoc service and is exempt from stock checks.
type LineItem struct {
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note,omitempty"`
}

type Event struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"-"`
	CustomerID  int64           `json:"customer_id"`
	Title       string          `json:"title"`
	EventDate   time.Time       `json:"event_date"`
	StartTime   string          `json:"start_time,omitempty"`
	EndTime     string          `json:"end_time,omitempty"`
	Address     string          `json:"address,omitempty"`
	Status      EventStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineItems   []LineItem      `json:"line_items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type InvoiceLineItem struct {
	ProductRef string          `json:"product_ref"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Note       string          `json:"note,omitempty"`
}

type Invoice struct {
	ID                uuid.UUID         `json:"id"`
	TenantID          int64             `json:"-"`
	EventID           *int64            `json:"event_id,omitempty"`
	CustomerID        int64             `json:"customer_id"`
	Type              InvoiceType       `json:"type"`
	Status            InvoiceStatus     `json:"status"`
	LineItems         []InvoiceLineItem `json:"line_items"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	Discount          decimal.Decimal   `json:"discount"`
	Total             decimal.Decimal   `json:"total"`
	CancelledReason   string            `json:"cancelled_reason,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	ConvertedToSaleAt *time.Time        `json:"converted_to_sale_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Contract carries a snapshot of the terms template taken at issuance.
// The snapshot never changes, even if the template does.
type Contract struct {
	ID              uuid.UUID      `json:"id"`
	TenantID        int64          `json:"-"`
	InvoiceID       uuid.UUID      `json:"invoice_id"`
	CustomerID      int64          `json:"customer_id"`
	EventID         *int64         `json:"event_id,omitempty"`
	ContractNumber  string         `json:"contract_number"`
	TermsContent    string         `json:"terms_content"`
	Status          ContractStatus `json:"status"`
	SignedAt        *time.Time     `json:"signed_at,omitempty"`
	CancelledAt     *time.Time     `json:"cancelled_at,omitempty"`
	CancelledReason string         `json:"cancelled_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Availability is computed on demand, never stored.
type Availability struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Available int `json:"available"`
}

// DayWindow returns the [start, end) bounds of the calendar day that
// contains t in the given location.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

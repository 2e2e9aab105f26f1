package httpgin

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money fields bind through decimal.Decimal, which accepts both JSON
// numbers and strings. Dates use the YYYY-MM-DD wire format.

type LineItemInput struct {
	ProductRef string `json:"product_ref" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Note       string `json:"note"`
}

type CreateEventRequest struct {
	CustomerID  int64           `json:"customer_id" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	EventDate   string          `json:"event_date" binding:"required"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Address     string          `json:"address"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineItems   []LineItemInput `json:"line_items"`
}

type UpdateEventRequest struct {
	CustomerID  *int64           `json:"customer_id"`
	Title       *string          `json:"title"`
	EventDate   *string          `json:"event_date"`
	StartTime   *string          `json:"start_time"`
	EndTime     *string          `json:"end_time"`
	Address     *string          `json:"address"`
	Status      *string          `json:"status"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	LineItems   *[]LineItemInput `json:"line_items"`
}

type CreateInvoiceRequest struct {
	CustomerID int64           `json:"customer_id" binding:"required"`
	EventID    *int64          `json:"event_id"`
	Discount   decimal.Decimal `json:"discount"`
	LineItems  []LineItemInput `json:"line_items" binding:"required,min=1,dive"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type CreateProductRequest struct {
	Name  string          `json:"name" binding:"required"`
	Stock int             `json:"stock" binding:"gte=0"`
	Price decimal.Decimal `json:"price"`
}

type UpdateProductRequest struct {
	Name  *string          `json:"name"`
	Stock *int             `json:"stock"`
	Price *decimal.Decimal `json:"price"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// StockErrorResponse carries the shortfall detail for a rejected booking.
type StockErrorResponse struct {
	Error     string `json:"error"`
	Product   string `json:"product"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

type BookingResponse struct {
	Event    any    `json:"event"`
	Quote    any    `json:"quote,omitempty"`
	QuoteErr string `json:"quote_error,omitempty"`
}

type ConversionResponse struct {
	Invoice     any      `json:"invoice"`
	SideEffects []string `json:"side_effects,omitempty"`
}

const dateLayout = "2006-01-02"

func parseDateOnly(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

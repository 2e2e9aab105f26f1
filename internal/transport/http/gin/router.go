package httpgin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/halynka/rentgo/internal/domain"
	redisrepo "github.com/halynka/rentgo/internal/repository/redis"
	"github.com/halynka/rentgo/internal/service"
	"github.com/halynka/rentgo/internal/service/booking"
	"github.com/halynka/rentgo/internal/service/catalog"
	"github.com/halynka/rentgo/internal/service/documents"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Everything below is tenant-scoped.
	api := r.Group("/", TenantMiddleware())
	{
		api.GET("/availability", handleGetAvailability(svcs))

		api.POST("/events", handleCreateEvent(svcs, idem))
		api.GET("/events", handleListEvents(svcs))
		api.GET("/events/:id", handleGetEvent(svcs))
		api.PATCH("/events/:id", handleUpdateEvent(svcs))
		api.DELETE("/events/:id", handleDeleteEvent(svcs))
		api.POST("/events/:id/quote", handleCreateQuoteFromEvent(svcs))

		api.POST("/invoices", handleCreateInvoice(svcs))
		api.GET("/invoices", handleListInvoices(svcs))
		api.GET("/invoices/:id", handleGetInvoice(svcs))
		api.POST("/invoices/:id/convert", handleConvertInvoice(svcs))
		api.POST("/invoices/:id/cancel", handleCancelInvoice(svcs))
		api.POST("/invoices/:id/contract", handleIssueContract(svcs))

		api.GET("/contracts/:id", handleGetContract(svcs))
		api.POST("/contracts/:id/sign", handleSignContract(svcs))
		api.POST("/contracts/:id/cancel", handleCancelContract(svcs))

		api.POST("/products", handleCreateProduct(svcs))
		api.GET("/products", handleListProducts(svcs))
		api.GET("/products/:id", handleGetProduct(svcs))
		api.PATCH("/products/:id", handleUpdateProduct(svcs))
		api.DELETE("/products/:id", handleDeleteProduct(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Per-product availability for a day
// @Param    date              query  string  true   "YYYY-MM-DD"
// @Param    exclude_event_id  query  int     false  "event to exclude from the sum"
// @Success  200  {object}  map[string]domain.Availability
// @Failure  400  {object}  ErrorResponse
// @Router   /availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, err := parseDateOnly(c.Query("date"))
		if err != nil {
			badRequest(c, "invalid date (YYYY-MM-DD)")
			return
		}
		excludeID := int64(parseIntDefault(c.Query("exclude_event_id"), 0))

		avail, err := svcs.Availability.Compute(c.Request.Context(), tenantID(c), date, excludeID)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, avail, "private, max-age=15", true)
	}
}

// @Summary  Book an event (idempotent via Idempotency-Key)
// @Param    req body  CreateEventRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} StockErrorResponse "insufficient stock / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /events [post]
func handleCreateEvent(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		eventDate, err := parseDateOnly(req.EventDate)
		if err != nil {
			badRequest(c, "invalid event_date (YYYY-MM-DD)")
			return
		}

		tid := tenantID(c)

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(tid, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		rlKey := fmt.Sprintf("tenant:%d", tid)

		res, err := svcs.Booking.CreateEvent(c.Request.Context(), tid, booking.CreateEventInput{
			CustomerID:  req.CustomerID,
			Title:       req.Title,
			EventDate:   eventDate,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Address:     req.Address,
			Status:      domain.EventStatus(req.Status),
			TotalAmount: req.TotalAmount,
			LineItems:   toLineItems(req.LineItems),
		}, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, booking.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
				return
			}
			respondErr(c, err)
			return
		}

		resp := BookingResponse{
			Event:    res.Event,
			Quote:    nilIfZero(res.Quote),
			QuoteErr: res.QuoteErr,
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  List events
// @Param    from    query  string  false  "YYYY-MM-DD"
// @Param    to      query  string  false  "YYYY-MM-DD"
// @Param    status  query  string  false  "comma-separated statuses"
// @Success  200  {array}  domain.Event
// @Router   /events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := parseDateRange(c)
		if !ok {
			return
		}

		var statuses []domain.EventStatus
		if raw := c.Query("status"); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				statuses = append(statuses, domain.EventStatus(strings.TrimSpace(s)))
			}
		}

		events, err := svcs.Booking.ListEvents(c.Request.Context(), tenantID(c), from, to, statuses)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, events, "private, max-age=15", true)
	}
}

// @Summary  Get event
// @Param    id  path  int  true  "Event ID"
// @Success  200  {object}  domain.Event
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		ev, err := svcs.Booking.GetEvent(c.Request.Context(), tenantID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, ev, "private, max-age=15", true)
	}
}

// @Summary  Update event (partial; status transitions validated)
// @Param    id   path  int  true  "Event ID"
// @Param    req  body  UpdateEventRequest true "payload"
// @Success  200  {object}  domain.Event
// @Failure  409  {object}  StockErrorResponse
// @Router   /events/{id} [patch]
func handleUpdateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		in := booking.UpdateEventInput{
			CustomerID:  req.CustomerID,
			Title:       req.Title,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Address:     req.Address,
			TotalAmount: req.TotalAmount,
		}
		if req.EventDate != nil {
			d, err := parseDateOnly(*req.EventDate)
			if err != nil {
				badRequest(c, "invalid event_date (YYYY-MM-DD)")
				return
			}
			in.EventDate = &d
		}
		if req.Status != nil {
			s := domain.EventStatus(*req.Status)
			in.Status = &s
		}
		if req.LineItems != nil {
			items := toLineItems(*req.LineItems)
			in.LineItems = &items
		}

		ev, err := svcs.Booking.UpdateEvent(c.Request.Context(), tenantID(c), id, in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ev)
	}
}

// @Summary  Delete event
// @Param    id  path  int  true  "Event ID"
// @Success  204
// @Router   /events/{id} [delete]
func handleDeleteEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.DeleteEvent(c.Request.Context(), tenantID(c), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create (or fetch existing) quote for an event
// @Param    id  path  int  true  "Event ID"
// @Success  201  {object}  domain.Invoice
// @Failure  404  {object}  ErrorResponse
// @Router   /events/{id}/quote [post]
func handleCreateQuoteFromEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		inv, err := svcs.Documents.CreateQuoteFromEvent(c.Request.Context(), tenantID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, inv)
	}
}

// @Summary  Create manual quote
// @Param    req body  CreateInvoiceRequest true "payload"
// @Success  201  {object}  domain.Invoice
// @Failure  409  {object}  ErrorResponse
// @Router   /invoices [post]
func handleCreateInvoice(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateInvoiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		inv, err := svcs.Documents.CreateManualQuote(c.Request.Context(), tenantID(c), documents.ManualQuoteInput{
			CustomerID: req.CustomerID,
			EventID:    req.EventID,
			Discount:   req.Discount,
			LineItems:  toLineItems(req.LineItems),
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, inv)
	}
}

// @Summary  List invoices
// @Param    from    query  string  false  "YYYY-MM-DD"
// @Param    to      query  string  false  "YYYY-MM-DD"
// @Param    type    query  string  false  "quote | sale_note"
// @Param    status  query  string  false  "invoice status"
// @Success  200  {array}  domain.Invoice
// @Router   /invoices [get]
func handleListInvoices(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := parseDateRange(c)
		if !ok {
			return
		}

		invs, err := svcs.Documents.ListInvoices(
			c.Request.Context(),
			tenantID(c),
			from, to,
			domain.InvoiceType(c.Query("type")),
			domain.InvoiceStatus(c.Query("status")),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, invs, "private, max-age=15", true)
	}
}

// @Summary  Get invoice
// @Param    id  path  string  true  "Invoice ID (uuid)"
// @Success  200  {object}  domain.Invoice
// @Failure  404  {object}  ErrorResponse
// @Router   /invoices/{id} [get]
func handleGetInvoice(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		inv, err := svcs.Documents.GetInvoice(c.Request.Context(), tenantID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

// @Summary  Convert quote to sale note (consumes stock)
// @Param    id  path  string  true  "Invoice ID (uuid)"
// @Success  200  {object}  ConversionResponse
// @Failure  409  {object}  ErrorResponse "invalid state / conversion in progress"
// @Router   /invoices/{id}/convert [post]
func handleConvertInvoice(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		res, err := svcs.Documents.ConvertQuoteToSaleNote(c.Request.Context(), tenantID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ConversionResponse{
			Invoice:     res.Invoice,
			SideEffects: res.SideEffects,
		})
	}
}

// @Summary  Cancel invoice
// @Param    id   path  string  true  "Invoice ID (uuid)"
// @Param    req  body  CancelRequest  false  "payload"
// @Success  200  {object}  domain.Invoice
// @Failure  409  {object}  ErrorResponse
// @Router   /invoices/{id}/cancel [post]
func handleCancelInvoice(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CancelRequest
		_ = c.ShouldBindJSON(&req)

		inv, err := svcs.Documents.CancelInvoice(c.Request.Context(), tenantID(c), id, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

// @Summary  Issue contract for a sale note (idempotent)
// @Param    id  path  string  true  "Invoice ID (uuid)"
// @Success  201  {object}  domain.Contract
// @Failure  409  {object}  ErrorResponse "invoice is not a sale note"
// @Router   /invoices/{id}/contract [post]
func handleIssueContract(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		contract, err := svcs.Documents.IssueContract(c.Request.Context(), tenantID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, contract)
	}
}

// @Summary  Get contract
// @Param    id  path  string  true  "Contract ID (uuid)"
// @Success  200  {object}  domain.Contract
// @Failure  404  {object}  ErrorResponse
// @Router   /contracts/{id} [get]
func handleGetContract(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		contract, err := svcs.Documents.GetContract(c.Request.Context(), tenantID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

// @Summary  Sign contract
// @Param    id  path  string  true  "Contract ID (uuid)"
// @Success  200  {object}  domain.Contract
// @Failure  409  {object}  ErrorResponse
// @Router   /contracts/{id}/sign [post]
func handleSignContract(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		contract, err := svcs.Documents.SignContract(c.Request.Context(), tenantID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

// @Summary  Cancel contract
// @Param    id   path  string  true  "Contract ID (uuid)"
// @Param    req  body  CancelRequest  false  "payload"
// @Success  200  {object}  domain.Contract
// @Failure  409  {object}  ErrorResponse
// @Router   /contracts/{id}/cancel [post]
func handleCancelContract(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CancelRequest
		_ = c.ShouldBindJSON(&req)

		contract, err := svcs.Documents.CancelContract(c.Request.Context(), tenantID(c), id, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

// @Summary  Create product
// @Param    req body  CreateProductRequest true "payload"
// @Success  201  {object}  domain.Product
// @Failure  409  {object}  ErrorResponse
// @Router   /products [post]
func handleCreateProduct(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := svcs.Catalog.CreateProduct(c.Request.Context(), tenantID(c), req.Name, req.Stock, req.Price)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary  List products
// @Success  200  {array}  domain.Product
// @Router   /products [get]
func handleListProducts(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svcs.Catalog.ListProducts(c.Request.Context(), tenantID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, products, "private, max-age=60", true)
	}
}

// @Summary  Get product
// @Param    id  path  int  true  "Product ID"
// @Success  200  {object}  domain.Product
// @Failure  404  {object}  ErrorResponse
// @Router   /products/{id} [get]
func handleGetProduct(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		p, err := svcs.Catalog.GetProduct(c.Request.Context(), tenantID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Update product (partial)
// @Param    id   path  int  true  "Product ID"
// @Param    req  body  UpdateProductRequest true "payload"
// @Success  200  {object}  domain.Product
// @Router   /products/{id} [patch]
func handleUpdateProduct(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := svcs.Catalog.UpdateProduct(c.Request.Context(), tenantID(c), id, req.Name, req.Stock, req.Price)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Delete product
// @Param    id  path  int  true  "Product ID"
// @Success  204
// @Router   /products/{id} [delete]
func handleDeleteProduct(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Catalog.DeleteProduct(c.Request.Context(), tenantID(c), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func parseDateRange(c *gin.Context) (from, to *time.Time, ok bool) {
	if raw := c.Query("from"); raw != "" {
		d, err := parseDateOnly(raw)
		if err != nil {
			badRequest(c, "invalid from (YYYY-MM-DD)")
			return nil, nil, false
		}
		from = &d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := parseDateOnly(raw)
		if err != nil {
			badRequest(c, "invalid to (YYYY-MM-DD)")
			return nil, nil, false
		}
		to = &d
	}
	return from, to, true
}

func toLineItems(in []LineItemInput) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(in))
	for _, li := range in {
		out = append(out, domain.LineItem{
			ProductRef: li.ProductRef,
			Quantity:   li.Quantity,
			Note:       li.Note,
		})
	}
	return out
}

func nilIfZero(inv *domain.Invoice) any {
	if inv == nil {
		return nil
	}
	return inv
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: vErr.Error()})
		return
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, StockErrorResponse{
			Error:     "insufficient stock",
			Product:   stockErr.Product,
			Available: stockErr.Available,
			Requested: stockErr.Requested,
		})
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, booking.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "status transition not allowed"})
		return
	case errors.Is(err, booking.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
		return
	// documents service
	case errors.Is(err, documents.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
		return
	case errors.Is(err, documents.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invoice not found"})
		return
	case errors.Is(err, documents.ErrContractNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "contract not found"})
		return
	case errors.Is(err, documents.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "operation not allowed in current state"})
		return
	case errors.Is(err, documents.ErrQuoteExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event already has an invoice"})
		return
	case errors.Is(err, documents.ErrConversionInProgress):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "conversion already in progress"})
		return
	// catalog service
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found"})
		return
	case errors.Is(err, catalog.ErrProductConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "product name already exists"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

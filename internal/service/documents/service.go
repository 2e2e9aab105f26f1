package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/halynka/rentgo/internal/domain"
	"github.com/halynka/rentgo/internal/repository"
	redisrepo "github.com/halynka/rentgo/internal/repository/redis"
)

// The four store slices below are what the document lifecycle needs from
// the ledger. Each write is a single bounded call; no multi-record
// transaction is assumed anywhere in this package.
type ProductStore interface {
	List(ctx context.Context, tenantID int64) ([]domain.Product, error)
	AdjustStock(ctx context.Context, tenantID int64, name string, delta int) error
}

type EventStore interface {
	Get(ctx context.Context, tenantID, id int64) (*domain.Event, error)
	SetStatus(ctx context.Context, tenantID, id int64, status domain.EventStatus) error
}

type InvoiceStore interface {
	Insert(ctx context.Context, inv *domain.Invoice) error
	Get(ctx context.Context, tenantID int64, id uuid.UUID) (*domain.Invoice, error)
	GetByEvent(ctx context.Context, tenantID, eventID int64) (*domain.Invoice, error)
	List(ctx context.Context, tenantID int64, from, to *time.Time, typ domain.InvoiceType, status domain.InvoiceStatus) ([]domain.Invoice, error)
	MarkConverted(ctx context.Context, tenantID int64, id uuid.UUID, at time.Time) error
	Cancel(ctx context.Context, tenantID int64, id uuid.UUID, reason string, at time.Time) error
}

type ContractStore interface {
	Insert(ctx context.Context, c *domain.Contract) error
	Get(ctx context.Context, tenantID int64, id uuid.UUID) (*domain.Contract, error)
	GetByInvoice(ctx context.Context, tenantID int64, invoiceID uuid.UUID) (*domain.Contract, error)
	Sign(ctx context.Context, tenantID int64, id uuid.UUID, at time.Time) error
	Cancel(ctx context.Context, tenantID int64, id uuid.UUID, reason string, at time.Time) error
}

// TermsProvider supplies the current terms template text. The text is
// snapshotted onto the contract at issuance.
type TermsProvider interface {
	CurrentTermsText(ctx context.Context) (string, error)
}

type Config struct {
	Location       *time.Location
	ConvertLockTTL time.Duration
}

type Service struct {
	products  ProductStore
	events    EventStore
	invoices  InvoiceStore
	contracts ContractStore
	locks     *redisrepo.Locks
	terms     TermsProvider
	cache     *redisrepo.Cache
	pubsub    *redisrepo.AvailabilityPubSub
	logger    *slog.Logger
	cfg       Config
}

func New(
	products ProductStore,
	events EventStore,
	invoices InvoiceStore,
	contracts ContractStore,
	locks *redisrepo.Locks,
	terms TermsProvider,
	cache *redisrepo.Cache,
	pubsub *redisrepo.AvailabilityPubSub,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	if cfg.ConvertLockTTL <= 0 {
		cfg.ConvertLockTTL = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		products:  products,
		events:    events,
		invoices:  invoices,
		contracts: contracts,
		locks:     locks,
		terms:     terms,
		cache:     cache,
		pubsub:    pubsub,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateQuoteFromEvent prices an event's line items at current catalog
// prices and persists a draft quote. Idempotent: an event that already has
// an invoice gets the existing record back, so retries after transient
// failures cannot create duplicates.
func (s *Service) CreateQuoteFromEvent(ctx context.Context, tenantID, eventID int64) (*domain.Invoice, error) {
	const op = "service.documents.CreateQuoteFromEvent"

	existing, err := s.invoices.GetByEvent(ctx, tenantID, eventID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev, err := s.events.Get(ctx, tenantID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog, err := s.priceCatalog(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pricing := Compose(ev.LineItems, catalog, decimal.Zero)

	inv := &domain.Invoice{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EventID:    &ev.ID,
		CustomerID: ev.CustomerID,
		Type:       domain.InvoiceQuote,
		Status:     domain.InvoiceDraft,
		LineItems:  pricing.LineItems,
		Subtotal:   pricing.Subtotal,
		Discount:   decimal.Zero,
		Total:      pricing.Total,
	}

	if err := s.invoices.Insert(ctx, inv); err != nil {
		// Lost a creation race: someone else just made the quote.
		if errors.Is(err, repository.ErrConflict) {
			won, gErr := s.invoices.GetByEvent(ctx, tenantID, eventID)
			if gErr == nil {
				return won, nil
			}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return inv, nil
}

type ManualQuoteInput struct {
	CustomerID int64
	EventID    *int64
	Discount   decimal.Decimal
	LineItems  []domain.LineItem
}

// CreateManualQuote builds a quote from an explicit line-item list. Same
// composer as the automatic path.
func (s *Service) CreateManualQuote(ctx context.Context, tenantID int64, in ManualQuoteInput) (*domain.Invoice, error) {
	const op = "service.documents.CreateManualQuote"

	if in.CustomerID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{Field: "customer_id", Reason: "required"})
	}
	if len(in.LineItems) == 0 {
		return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{Field: "line_items", Reason: "required"})
	}
	for i, li := range in.LineItems {
		if strings.TrimSpace(li.ProductRef) == "" {
			return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{
				Field:  fmt.Sprintf("line_items[%d].product_ref", i),
				Reason: "required",
			})
		}
		if li.Quantity <= 0 {
			return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{
				Field:  fmt.Sprintf("line_items[%d].quantity", i),
				Reason: "must be positive",
			})
		}
	}

	catalog, err := s.priceCatalog(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pricing := Compose(in.LineItems, catalog, in.Discount)

	inv := &domain.Invoice{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EventID:    in.EventID,
		CustomerID: in.CustomerID,
		Type:       domain.InvoiceQuote,
		Status:     domain.InvoiceDraft,
		LineItems:  pricing.LineItems,
		Subtotal:   pricing.Subtotal,
		Discount:   in.Discount,
		Total:      pricing.Total,
	}

	if err := s.invoices.Insert(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrQuoteExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return inv, nil
}

// ConversionResult reports the converted invoice plus any side-effect
// failures that were recovered locally.
type ConversionResult struct {
	Invoice     *domain.Invoice
	SideEffects []string
}

// ConvertQuoteToSaleNote consumes stock and completes the invoice. The
// step chain is deliberately non-transactional: (1) per-item stock
// decrement, best effort; (2) invoice flip, the commit point; (3) linked
// event confirmation, best effort. A per-invoice advisory lock keeps two
// conversions of the same quote from interleaving.
func (s *Service) ConvertQuoteToSaleNote(ctx context.Context, tenantID int64, invoiceID uuid.UUID) (*ConversionResult, error) {
	const op = "service.documents.ConvertQuoteToSaleNote"

	if s.locks != nil {
		lock, err := s.locks.Obtain(ctx, redisrepo.KeyConvertLock(invoiceID.String()), s.cfg.ConvertLockTTL)
		if err != nil {
			if errors.Is(err, redisrepo.ErrLockHeld) {
				return nil, fmt.Errorf("%s: %w", op, ErrConversionInProgress)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		defer func() { _ = lock.Release(ctx) }()
	}

	inv, err := s.invoices.Get(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if inv.Type != domain.InvoiceQuote || inv.Status == domain.InvoiceCancelled {
		return nil, fmt.Errorf("%s: %w: %s/%s", op, ErrInvalidState, inv.Type, inv.Status)
	}

	res := &ConversionResult{}

	// Step 1: consume stock. One failed item does not abort the others;
	// partial decrement is an accepted risk of the non-transactional
	// model and is logged for reconciliation.
	known, err := s.productNames(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, li := range inv.LineItems {
		if !known[li.ProductRef] {
			continue
		}
		if err := s.products.AdjustStock(ctx, tenantID, li.ProductRef, -li.Quantity); err != nil {
			s.logger.Error("stock decrement failed",
				"step", "decrement_stock",
				"tenant_id", tenantID,
				"invoice_id", invoiceID,
				"product", li.ProductRef,
				"quantity", li.Quantity,
				"error", err,
			)
			res.SideEffects = append(res.SideEffects,
				fmt.Sprintf("stock decrement failed for %q", li.ProductRef))
		}
	}

	// Step 2: the commit point. If this fails the conversion failed.
	now := time.Now()
	if err := s.invoices.MarkConverted(ctx, tenantID, invoiceID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidState)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	inv.Type = domain.InvoiceSaleNote
	inv.Status = domain.InvoiceCompleted
	inv.ConvertedToSaleAt = &now
	res.Invoice = inv

	// Step 3: confirm the linked event, best effort.
	if inv.EventID != nil {
		s.confirmLinkedEvent(ctx, tenantID, *inv.EventID, invoiceID, res)
	}

	return res, nil
}

func (s *Service) confirmLinkedEvent(
	ctx context.Context,
	tenantID, eventID int64,
	invoiceID uuid.UUID,
	res *ConversionResult,
) {
	ev, err := s.events.Get(ctx, tenantID, eventID)
	if err != nil {
		s.logger.Error("linked event lookup failed",
			"step", "confirm_event",
			"tenant_id", tenantID,
			"invoice_id", invoiceID,
			"event_id", eventID,
			"error", err,
		)
		res.SideEffects = append(res.SideEffects, "linked event lookup failed")
		return
	}

	if ev.Status != domain.EventDraft && ev.Status != domain.EventPending {
		return
	}

	if err := s.events.SetStatus(ctx, tenantID, eventID, domain.EventConfirmed); err != nil {
		s.logger.Error("linked event confirmation failed",
			"step", "confirm_event",
			"tenant_id", tenantID,
			"invoice_id", invoiceID,
			"event_id", eventID,
			"error", err,
		)
		res.SideEffects = append(res.SideEffects, "linked event confirmation failed")
		return
	}

	s.notifyChanged(ctx, tenantID, ev.EventDate)
}

// CancelInvoice is terminal and legal from any non-completed state.
func (s *Service) CancelInvoice(ctx context.Context, tenantID int64, id uuid.UUID, reason string) (*domain.Invoice, error) {
	const op = "service.documents.CancelInvoice"

	inv, err := s.invoices.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if inv.Status.Terminal() {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidState, inv.Status)
	}

	now := time.Now()
	if err := s.invoices.Cancel(ctx, tenantID, id, reason, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidState)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	inv.Status = domain.InvoiceCancelled
	inv.CancelledReason = reason
	inv.CancelledAt = &now

	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, tenantID int64, id uuid.UUID) (*domain.Invoice, error) {
	const op = "service.documents.GetInvoice"

	inv, err := s.invoices.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return inv, nil
}

func (s *Service) ListInvoices(
	ctx context.Context,
	tenantID int64,
	from, to *time.Time,
	typ domain.InvoiceType,
	status domain.InvoiceStatus,
) ([]domain.Invoice, error) {
	const op = "service.documents.ListInvoices"

	out, err := s.invoices.List(ctx, tenantID, from, to, typ, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// IssueContract snapshots the current terms template onto a new pending
// contract for a sale note. Idempotent: an invoice that already has a
// contract gets the existing record back.
func (s *Service) IssueContract(ctx context.Context, tenantID int64, invoiceID uuid.UUID) (*domain.Contract, error) {
	const op = "service.documents.IssueContract"

	if existing, err := s.contracts.GetByInvoice(ctx, tenantID, invoiceID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	inv, err := s.invoices.Get(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvoiceNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if inv.Type != domain.InvoiceSaleNote {
		return nil, fmt.Errorf("%s: %w: contracts require a sale note", op, ErrInvalidState)
	}

	termsText, err := s.terms.CurrentTermsText(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.New()
	c := &domain.Contract{
		ID:             id,
		TenantID:       tenantID,
		InvoiceID:      invoiceID,
		CustomerID:     inv.CustomerID,
		EventID:        inv.EventID,
		ContractNumber: contractNumber(id),
		TermsContent:   termsText,
		Status:         domain.ContractPending,
	}

	if err := s.contracts.Insert(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			won, gErr := s.contracts.GetByInvoice(ctx, tenantID, invoiceID)
			if gErr == nil {
				return won, nil
			}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *Service) GetContract(ctx context.Context, tenantID int64, id uuid.UUID) (*domain.Contract, error) {
	const op = "service.documents.GetContract"

	c, err := s.contracts.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrContractNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *Service) SignContract(ctx context.Context, tenantID int64, id uuid.UUID) (*domain.Contract, error) {
	const op = "service.documents.SignContract"

	c, err := s.contracts.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrContractNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if c.Status != domain.ContractPending {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidState, c.Status)
	}

	now := time.Now()
	if err := s.contracts.Sign(ctx, tenantID, id, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidState)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.Status = domain.ContractSigned
	c.SignedAt = &now

	return c, nil
}

func (s *Service) CancelContract(ctx context.Context, tenantID int64, id uuid.UUID, reason string) (*domain.Contract, error) {
	const op = "service.documents.CancelContract"

	c, err := s.contracts.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrContractNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if c.Status != domain.ContractPending {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidState, c.Status)
	}

	now := time.Now()
	if err := s.contracts.Cancel(ctx, tenantID, id, reason, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidState)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.Status = domain.ContractCancelled
	c.CancelledReason = reason
	c.CancelledAt = &now

	return c, nil
}

func (s *Service) priceCatalog(ctx context.Context, tenantID int64) (map[string]decimal.Decimal, error) {
	products, err := s.products.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		catalog[p.Name] = p.Price
	}

	return catalog, nil
}

func (s *Service) productNames(ctx context.Context, tenantID int64) (map[string]bool, error) {
	products, err := s.products.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(products))
	for _, p := range products {
		names[p.Name] = true
	}

	return names, nil
}

func (s *Service) notifyChanged(ctx context.Context, tenantID int64, date time.Time) {
	dayStart, _ := domain.DayWindow(date, s.cfg.Location)
	day := dayStart.Format("2006-01-02")

	if s.cache != nil {
		_ = s.cache.InvalidateAvailability(ctx, tenantID, day)
	}

	if s.pubsub != nil {
		_ = s.pubsub.PublishChanged(ctx, tenantID, day)
	}
}

func contractNumber(id uuid.UUID) string {
	short := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("CN-%d-%s", time.Now().Year(), short)
}

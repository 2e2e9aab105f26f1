package documents

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halynka/rentgo/internal/domain"
	"github.com/halynka/rentgo/internal/repository"
)

// --- In-memory fakes mirroring the repository contracts ---

type fakeProducts struct {
	byName    map[string]*domain.Product
	adjustErr map[string]error
}

func newFakeProducts(products ...*domain.Product) *fakeProducts {
	f := &fakeProducts{
		byName:    make(map[string]*domain.Product),
		adjustErr: make(map[string]error),
	}
	for _, p := range products {
		f.byName[p.Name] = p
	}
	return f
}

func (f *fakeProducts) List(_ context.Context, _ int64) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(f.byName))
	for _, p := range f.byName {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProducts) AdjustStock(_ context.Context, _ int64, name string, delta int) error {
	if err := f.adjustErr[name]; err != nil {
		return err
	}
	p, ok := f.byName[name]
	if !ok {
		return fmt.Errorf("adjust: %w", repository.ErrNotFound)
	}
	p.Stock += delta
	if p.Stock < 0 {
		p.Stock = 0
	}
	return nil
}

type fakeEvents struct {
	byID map[int64]*domain.Event
}

func newFakeEvents(events ...*domain.Event) *fakeEvents {
	f := &fakeEvents{byID: make(map[int64]*domain.Event)}
	for _, ev := range events {
		f.byID[ev.ID] = ev
	}
	return f
}

func (f *fakeEvents) Get(_ context.Context, _ int64, id int64) (*domain.Event, error) {
	ev, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get: %w", repository.ErrNotFound)
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeEvents) SetStatus(_ context.Context, _ int64, id int64, status domain.EventStatus) error {
	ev, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("set status: %w", repository.ErrNotFound)
	}
	ev.Status = status
	return nil
}

type fakeInvoices struct {
	byID map[uuid.UUID]*domain.Invoice
}

func newFakeInvoices(invoices ...*domain.Invoice) *fakeInvoices {
	f := &fakeInvoices{byID: make(map[uuid.UUID]*domain.Invoice)}
	for _, inv := range invoices {
		f.byID[inv.ID] = inv
	}
	return f
}

func (f *fakeInvoices) Insert(_ context.Context, inv *domain.Invoice) error {
	if inv.EventID != nil {
		for _, existing := range f.byID {
			if existing.EventID != nil && *existing.EventID == *inv.EventID {
				return fmt.Errorf("insert: %w", repository.ErrConflict)
			}
		}
	}
	cp := *inv
	f.byID[inv.ID] = &cp
	return nil
}

func (f *fakeInvoices) Get(_ context.Context, _ int64, id uuid.UUID) (*domain.Invoice, error) {
	inv, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get: %w", repository.ErrNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoices) GetByEvent(_ context.Context, _ int64, eventID int64) (*domain.Invoice, error) {
	for _, inv := range f.byID {
		if inv.EventID != nil && *inv.EventID == eventID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get by event: %w", repository.ErrNotFound)
}

func (f *fakeInvoices) List(_ context.Context, _ int64, _, _ *time.Time, _ domain.InvoiceType, _ domain.InvoiceStatus) ([]domain.Invoice, error) {
	out := make([]domain.Invoice, 0, len(f.byID))
	for _, inv := range f.byID {
		out = append(out, *inv)
	}
	return out, nil
}

func (f *fakeInvoices) MarkConverted(_ context.Context, _ int64, id uuid.UUID, at time.Time) error {
	inv, ok := f.byID[id]
	if !ok || inv.Type != domain.InvoiceQuote || inv.Status == domain.InvoiceCancelled {
		return fmt.Errorf("mark converted: %w", repository.ErrConflict)
	}
	inv.Type = domain.InvoiceSaleNote
	inv.Status = domain.InvoiceCompleted
	inv.ConvertedToSaleAt = &at
	return nil
}

func (f *fakeInvoices) Cancel(_ context.Context, _ int64, id uuid.UUID, reason string, at time.Time) error {
	inv, ok := f.byID[id]
	if !ok || inv.Status.Terminal() {
		return fmt.Errorf("cancel: %w", repository.ErrConflict)
	}
	inv.Status = domain.InvoiceCancelled
	inv.CancelledReason = reason
	inv.CancelledAt = &at
	return nil
}

type fakeContracts struct {
	byID map[uuid.UUID]*domain.Contract
}

func newFakeContracts() *fakeContracts {
	return &fakeContracts{byID: make(map[uuid.UUID]*domain.Contract)}
}

func (f *fakeContracts) Insert(_ context.Context, c *domain.Contract) error {
	for _, existing := range f.byID {
		if existing.InvoiceID == c.InvoiceID {
			return fmt.Errorf("insert: %w", repository.ErrConflict)
		}
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeContracts) Get(_ context.Context, _ int64, id uuid.UUID) (*domain.Contract, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get: %w", repository.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContracts) GetByInvoice(_ context.Context, _ int64, invoiceID uuid.UUID) (*domain.Contract, error) {
	for _, c := range f.byID {
		if c.InvoiceID == invoiceID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get by invoice: %w", repository.ErrNotFound)
}

func (f *fakeContracts) Sign(_ context.Context, _ int64, id uuid.UUID, at time.Time) error {
	c, ok := f.byID[id]
	if !ok || c.Status != domain.ContractPending {
		return fmt.Errorf("sign: %w", repository.ErrConflict)
	}
	c.Status = domain.ContractSigned
	c.SignedAt = &at
	return nil
}

func (f *fakeContracts) Cancel(_ context.Context, _ int64, id uuid.UUID, reason string, at time.Time) error {
	c, ok := f.byID[id]
	if !ok || c.Status != domain.ContractPending {
		return fmt.Errorf("cancel: %w", repository.ErrConflict)
	}
	c.Status = domain.ContractCancelled
	c.CancelledReason = reason
	c.CancelledAt = &at
	return nil
}

type fakeTerms struct {
	text string
}

func (f *fakeTerms) CurrentTermsText(_ context.Context) (string, error) {
	return f.text, nil
}

// --- Test harness ---

type fixture struct {
	svc       *Service
	products  *fakeProducts
	events    *fakeEvents
	invoices  *fakeInvoices
	contracts *fakeContracts
	terms     *fakeTerms
}

func newFixture(products *fakeProducts, events *fakeEvents, invoices *fakeInvoices) *fixture {
	contracts := newFakeContracts()
	terms := &fakeTerms{text: "standard rental terms v1"}

	svc := New(products, events, invoices, contracts, nil, terms, nil, nil, nil, Config{})

	return &fixture{
		svc:       svc,
		products:  products,
		events:    events,
		invoices:  invoices,
		contracts: contracts,
		terms:     terms,
	}
}

const tenant = int64(1)

func draftEvent(id int64, items ...domain.LineItem) *domain.Event {
	return &domain.Event{
		ID:         id,
		TenantID:   tenant,
		CustomerID: 7,
		Title:      "Wedding",
		EventDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:     domain.EventDraft,
		LineItems:  items,
	}
}

// --- Quote creation ---

func TestCreateQuoteFromEvent_PricesAtCurrentCatalog(t *testing.T) {
	f := newFixture(
		newFakeProducts(
			&domain.Product{Name: "Chair", Stock: 10, Price: dec("2.50")},
			&domain.Product{Name: "Table", Stock: 5, Price: dec("10.00")},
		),
		newFakeEvents(draftEvent(1,
			domain.LineItem{ProductRef: "Chair", Quantity: 4},
			domain.LineItem{ProductRef: "DJ Services", Quantity: 1},
		)),
		newFakeInvoices(),
	)

	inv, err := f.svc.CreateQuoteFromEvent(context.Background(), tenant, 1)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceQuote, inv.Type)
	assert.Equal(t, domain.InvoiceDraft, inv.Status)
	require.NotNil(t, inv.EventID)
	assert.Equal(t, int64(1), *inv.EventID)
	assert.Equal(t, int64(7), inv.CustomerID)
	require.Len(t, inv.LineItems, 2)
	assert.True(t, inv.LineItems[0].Subtotal.Equal(dec("10.00")))
	assert.True(t, inv.LineItems[1].UnitPrice.IsZero())
	assert.True(t, inv.Total.Equal(dec("10.00")))
}

func TestCreateQuoteFromEvent_Idempotent(t *testing.T) {
	f := newFixture(
		newFakeProducts(&domain.Product{Name: "Chair", Stock: 10, Price: dec("2.50")}),
		newFakeEvents(draftEvent(1, domain.LineItem{ProductRef: "Chair", Quantity: 2})),
		newFakeInvoices(),
	)

	first, err := f.svc.CreateQuoteFromEvent(context.Background(), tenant, 1)
	require.NoError(t, err)

	second, err := f.svc.CreateQuoteFromEvent(context.Background(), tenant, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.invoices.byID, 1)
}

func TestCreateQuoteFromEvent_EventMissing(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())

	_, err := f.svc.CreateQuoteFromEvent(context.Background(), tenant, 99)

	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreateManualQuote_ValidatesInput(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())

	_, err := f.svc.CreateManualQuote(context.Background(), tenant, ManualQuoteInput{
		CustomerID: 7,
	})
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = f.svc.CreateManualQuote(context.Background(), tenant, ManualQuoteInput{
		CustomerID: 7,
		LineItems:  []domain.LineItem{{ProductRef: "Chair", Quantity: 0}},
	})
	assert.ErrorAs(t, err, &vErr)
}

func TestCreateManualQuote_AppliesDiscount(t *testing.T) {
	f := newFixture(
		newFakeProducts(&domain.Product{Name: "Chair", Stock: 10, Price: dec("3.00")}),
		newFakeEvents(),
		newFakeInvoices(),
	)

	inv, err := f.svc.CreateManualQuote(context.Background(), tenant, ManualQuoteInput{
		CustomerID: 7,
		Discount:   dec("5.00"),
		LineItems:  []domain.LineItem{{ProductRef: "Chair", Quantity: 10}},
	})

	require.NoError(t, err)
	assert.True(t, inv.Subtotal.Equal(dec("30.00")))
	assert.True(t, inv.Total.Equal(dec("25.00")))
}

// --- Conversion ---

func seedQuote(f *fixture, eventID *int64, items ...domain.InvoiceLineItem) *domain.Invoice {
	inv := &domain.Invoice{
		ID:         uuid.New(),
		TenantID:   tenant,
		EventID:    eventID,
		CustomerID: 7,
		Type:       domain.InvoiceQuote,
		Status:     domain.InvoiceDraft,
		LineItems:  items,
	}
	f.invoices.byID[inv.ID] = inv
	return inv
}

func TestConvertQuoteToSaleNote_ConsumesStockAndConfirmsEvent(t *testing.T) {
	eventID := int64(1)
	f := newFixture(
		newFakeProducts(&domain.Product{Name: "Chair", Stock: 10, Price: dec("2.50")}),
		newFakeEvents(draftEvent(eventID, domain.LineItem{ProductRef: "Chair", Quantity: 4})),
		newFakeInvoices(),
	)
	inv := seedQuote(f, &eventID,
		domain.InvoiceLineItem{ProductRef: "Chair", Quantity: 4, UnitPrice: dec("2.50"), Subtotal: dec("10.00")},
		domain.InvoiceLineItem{ProductRef: "DJ Services", Quantity: 1},
	)

	res, err := f.svc.ConvertQuoteToSaleNote(context.Background(), tenant, inv.ID)

	require.NoError(t, err)
	assert.Empty(t, res.SideEffects)
	assert.Equal(t, domain.InvoiceSaleNote, res.Invoice.Type)
	assert.Equal(t, domain.InvoiceCompleted, res.Invoice.Status)
	assert.NotNil(t, res.Invoice.ConvertedToSaleAt)

	// catalog item consumed, ad-hoc item untouched
	assert.Equal(t, 6, f.products.byName["Chair"].Stock)
	assert.Equal(t, domain.EventConfirmed, f.events.byID[eventID].Status)
}

func TestConvertQuoteToSaleNote_StockFailureIsSideEffect(t *testing.T) {
	eventID := int64(1)
	f := newFixture(
		newFakeProducts(&domain.Product{Name: "Chair", Stock: 10, Price: dec("2.50")}),
		newFakeEvents(draftEvent(eventID, domain.LineItem{ProductRef: "Chair", Quantity: 4})),
		newFakeInvoices(),
	)
	f.products.adjustErr["Chair"] = errors.New("connection reset")
	inv := seedQuote(f, &eventID,
		domain.InvoiceLineItem{ProductRef: "Chair", Quantity: 4},
	)

	res, err := f.svc.ConvertQuoteToSaleNote(context.Background(), tenant, inv.ID)

	// The conversion itself still succeeds.
	require.NoError(t, err)
	require.Len(t, res.SideEffects, 1)
	assert.Contains(t, res.SideEffects[0], "Chair")
	assert.Equal(t, domain.InvoiceCompleted, res.Invoice.Status)
}

func TestConvertQuoteToSaleNote_CancelledQuoteRejected(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedQuote(f, nil)
	inv.Status = domain.InvoiceCancelled

	_, err := f.svc.ConvertQuoteToSaleNote(context.Background(), tenant, inv.ID)

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConvertQuoteToSaleNote_SaleNoteRejected(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedQuote(f, nil)
	inv.Type = domain.InvoiceSaleNote
	inv.Status = domain.InvoiceCompleted

	_, err := f.svc.ConvertQuoteToSaleNote(context.Background(), tenant, inv.ID)

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConvertQuoteToSaleNote_MissingInvoice(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())

	_, err := f.svc.ConvertQuoteToSaleNote(context.Background(), tenant, uuid.New())

	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

// --- Invoice cancellation ---

func TestCancelInvoice_FromDraft(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedQuote(f, nil)

	out, err := f.svc.CancelInvoice(context.Background(), tenant, inv.ID, "customer withdrew")

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceCancelled, out.Status)
	assert.Equal(t, "customer withdrew", out.CancelledReason)
	assert.NotNil(t, out.CancelledAt)
}

func TestCancelInvoice_TerminalRejected(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedQuote(f, nil)
	inv.Status = domain.InvoiceCompleted

	_, err := f.svc.CancelInvoice(context.Background(), tenant, inv.ID, "")

	assert.ErrorIs(t, err, ErrInvalidState)
}

// --- Contracts ---

func seedSaleNote(f *fixture) *domain.Invoice {
	inv := seedQuote(f, nil)
	inv.Type = domain.InvoiceSaleNote
	inv.Status = domain.InvoiceCompleted
	return inv
}

func TestIssueContract_SnapshotsTerms(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedSaleNote(f)

	c, err := f.svc.IssueContract(context.Background(), tenant, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ContractPending, c.Status)
	assert.Equal(t, inv.ID, c.InvoiceID)
	assert.Equal(t, "standard rental terms v1", c.TermsContent)
	assert.Regexp(t, `^CN-\d{4}-[0-9A-F]{8}$`, c.ContractNumber)

	// A later template edit must not leak into the issued contract.
	f.terms.text = "standard rental terms v2"
	again, err := f.svc.GetContract(context.Background(), tenant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "standard rental terms v1", again.TermsContent)
}

func TestIssueContract_Idempotent(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedSaleNote(f)

	first, err := f.svc.IssueContract(context.Background(), tenant, inv.ID)
	require.NoError(t, err)

	second, err := f.svc.IssueContract(context.Background(), tenant, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.contracts.byID, 1)
}

func TestIssueContract_RequiresSaleNote(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedQuote(f, nil)

	_, err := f.svc.IssueContract(context.Background(), tenant, inv.ID)

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSignContract_PendingOnly(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedSaleNote(f)

	c, err := f.svc.IssueContract(context.Background(), tenant, inv.ID)
	require.NoError(t, err)

	signed, err := f.svc.SignContract(context.Background(), tenant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractSigned, signed.Status)
	assert.NotNil(t, signed.SignedAt)

	_, err = f.svc.SignContract(context.Background(), tenant, c.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.CancelContract(context.Background(), tenant, c.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelContract_FromPending(t *testing.T) {
	f := newFixture(newFakeProducts(), newFakeEvents(), newFakeInvoices())
	inv := seedSaleNote(f)

	c, err := f.svc.IssueContract(context.Background(), tenant, inv.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.CancelContract(context.Background(), tenant, c.ID, "deal fell through")
	require.NoError(t, err)
	assert.Equal(t, domain.ContractCancelled, cancelled.Status)
	assert.Equal(t, "deal fell through", cancelled.CancelledReason)
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halynka/rentgo/internal/domain"
	"github.com/halynka/rentgo/internal/repository"
)

type fakeEventStore struct {
	byID      map[int64]*domain.Event
	nextID    int64
	insertErr error
	updateErr error

	lastGuard    bool
	lastDayStart time.Time
}

func newFakeEventStore(events ...*domain.Event) *fakeEventStore {
	f := &fakeEventStore{byID: make(map[int64]*domain.Event), nextID: 1}
	for _, ev := range events {
		f.byID[ev.ID] = ev
		if ev.ID >= f.nextID {
			f.nextID = ev.ID + 1
		}
	}
	return f
}

func (f *fakeEventStore) Get(_ context.Context, _ int64, id int64) (*domain.Event, error) {
	ev, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get: %w", repository.ErrNotFound)
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeEventStore) List(_ context.Context, _ int64, _, _ *time.Time, _ []domain.EventStatus) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(f.byID))
	for _, ev := range f.byID {
		out = append(out, *ev)
	}
	return out, nil
}

func (f *fakeEventStore) InsertReserved(_ context.Context, ev *domain.Event, dayStart, _ time.Time) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.lastDayStart = dayStart
	id := f.nextID
	f.nextID++
	cp := *ev
	cp.ID = id
	f.byID[id] = &cp
	return id, nil
}

func (f *fakeEventStore) UpdateReserved(_ context.Context, ev *domain.Event, guard bool, dayStart, _ time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[ev.ID]; !ok {
		return fmt.Errorf("update: %w", repository.ErrNotFound)
	}
	f.lastGuard = guard
	f.lastDayStart = dayStart
	cp := *ev
	f.byID[ev.ID] = &cp
	return nil
}

func (f *fakeEventStore) Delete(_ context.Context, _ int64, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return fmt.Errorf("delete: %w", repository.ErrNotFound)
	}
	delete(f.byID, id)
	return nil
}

type fakeQuoteCreator struct {
	calls int
	err   error
}

func (f *fakeQuoteCreator) CreateQuoteFromEvent(_ context.Context, tenantID, eventID int64) (*domain.Invoice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Invoice{
		TenantID: tenantID,
		EventID:  &eventID,
		Type:     domain.InvoiceQuote,
		Status:   domain.InvoiceDraft,
	}, nil
}

const tenant = int64(1)

func validInput() CreateEventInput {
	return CreateEventInput{
		CustomerID: 7,
		Title:      "Wedding",
		EventDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		LineItems:  []domain.LineItem{{ProductRef: "Chair", Quantity: 4}},
	}
}

func TestCreateEvent_DefaultsToDraftAndAutoQuotes(t *testing.T) {
	store := newFakeEventStore()
	quotes := &fakeQuoteCreator{}
	svc := New(store, quotes, nil, nil, nil, nil, Config{})

	res, err := svc.CreateEvent(context.Background(), tenant, validInput(), "")

	require.NoError(t, err)
	assert.Equal(t, domain.EventDraft, res.Event.Status)
	assert.NotZero(t, res.Event.ID)
	assert.Equal(t, 1, quotes.calls)
	require.NotNil(t, res.Quote)
	assert.Empty(t, res.QuoteErr)
}

func TestCreateEvent_QuoteFailureDoesNotFailBooking(t *testing.T) {
	store := newFakeEventStore()
	quotes := &fakeQuoteCreator{err: errors.New("redis down")}
	svc := New(store, quotes, nil, nil, nil, nil, Config{})

	res, err := svc.CreateEvent(context.Background(), tenant, validInput(), "")

	require.NoError(t, err)
	assert.NotZero(t, res.Event.ID)
	assert.Nil(t, res.Quote)
	assert.Contains(t, res.QuoteErr, "redis down")
}

func TestCreateEvent_NonDraftSkipsQuote(t *testing.T) {
	store := newFakeEventStore()
	quotes := &fakeQuoteCreator{}
	svc := New(store, quotes, nil, nil, nil, nil, Config{})

	in := validInput()
	in.Status = domain.EventPending

	res, err := svc.CreateEvent(context.Background(), tenant, in, "")

	require.NoError(t, err)
	assert.Equal(t, domain.EventPending, res.Event.Status)
	assert.Zero(t, quotes.calls)
}

func TestCreateEvent_Validation(t *testing.T) {
	svc := New(newFakeEventStore(), nil, nil, nil, nil, nil, Config{})

	var vErr *domain.ValidationError

	in := validInput()
	in.Title = "  "
	_, err := svc.CreateEvent(context.Background(), tenant, in, "")
	assert.ErrorAs(t, err, &vErr)

	in = validInput()
	in.EventDate = time.Time{}
	_, err = svc.CreateEvent(context.Background(), tenant, in, "")
	assert.ErrorAs(t, err, &vErr)

	in = validInput()
	in.LineItems = []domain.LineItem{{ProductRef: "Chair", Quantity: -1}}
	_, err = svc.CreateEvent(context.Background(), tenant, in, "")
	assert.ErrorAs(t, err, &vErr)

	in = validInput()
	in.Status = domain.EventStatus("bogus")
	_, err = svc.CreateEvent(context.Background(), tenant, in, "")
	assert.ErrorAs(t, err, &vErr)
}

func TestCreateEvent_SurfacesGuardRejection(t *testing.T) {
	store := newFakeEventStore()
	store.insertErr = &domain.InsufficientStockError{Product: "Chair", Available: 4, Requested: 5}
	svc := New(store, nil, nil, nil, nil, nil, Config{})

	_, err := svc.CreateEvent(context.Background(), tenant, validInput(), "")

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Available)
}

func existingEvent() *domain.Event {
	return &domain.Event{
		ID:         1,
		TenantID:   tenant,
		CustomerID: 7,
		Title:      "Wedding",
		EventDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:     domain.EventDraft,
		LineItems:  []domain.LineItem{{ProductRef: "Chair", Quantity: 4}},
	}
}

func TestUpdateEvent_MergesPartialInput(t *testing.T) {
	store := newFakeEventStore(existingEvent())
	svc := New(store, nil, nil, nil, nil, nil, Config{})

	title := "Anniversary"
	ev, err := svc.UpdateEvent(context.Background(), tenant, 1, UpdateEventInput{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "Anniversary", ev.Title)
	// untouched fields survive the merge
	assert.Equal(t, int64(7), ev.CustomerID)
	assert.Len(t, ev.LineItems, 1)
	// nothing availability-relevant changed
	assert.False(t, store.lastGuard)
}

func TestUpdateEvent_GuardsOnItemsDateAndReservingEntry(t *testing.T) {
	newItems := []domain.LineItem{{ProductRef: "Chair", Quantity: 8}}
	newDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	pending := domain.EventPending

	cases := []struct {
		name string
		in   UpdateEventInput
	}{
		{"items changed", UpdateEventInput{LineItems: &newItems}},
		{"date changed", UpdateEventInput{EventDate: &newDate}},
		{"became reserving", UpdateEventInput{Status: &pending}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeEventStore(existingEvent())
			svc := New(store, nil, nil, nil, nil, nil, Config{})

			_, err := svc.UpdateEvent(context.Background(), tenant, 1, tc.in)

			require.NoError(t, err)
			assert.True(t, store.lastGuard)
		})
	}
}

func TestUpdateEvent_StatusTransitionRules(t *testing.T) {
	ev := existingEvent()
	ev.Status = domain.EventCompleted
	store := newFakeEventStore(ev)
	svc := New(store, nil, nil, nil, nil, nil, Config{})

	pending := domain.EventPending
	_, err := svc.UpdateEvent(context.Background(), tenant, 1, UpdateEventInput{Status: &pending})

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateEvent_NotFound(t *testing.T) {
	svc := New(newFakeEventStore(), nil, nil, nil, nil, nil, Config{})

	title := "x"
	_, err := svc.UpdateEvent(context.Background(), tenant, 42, UpdateEventInput{Title: &title})

	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteEvent(t *testing.T) {
	store := newFakeEventStore(existingEvent())
	svc := New(store, nil, nil, nil, nil, nil, Config{})

	require.NoError(t, svc.DeleteEvent(context.Background(), tenant, 1))
	assert.Empty(t, store.byID)

	err := svc.DeleteEvent(context.Background(), tenant, 1)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

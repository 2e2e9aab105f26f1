package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/halynka/rentgo/internal/domain"
	"github.com/halynka/rentgo/internal/repository"
	redisrepo "github.com/halynka/rentgo/internal/repository/redis"
)

// EventStore is the slice of the ledger store the booking flow needs. The
// Reserved writes run the availability guard and the insert/update inside
// one serializable transaction.
type EventStore interface {
	Get(ctx context.Context, tenantID, id int64) (*domain.Event, error)
	List(ctx context.Context, tenantID int64, from, to *time.Time, statuses []domain.EventStatus) ([]domain.Event, error)
	InsertReserved(ctx context.Context, ev *domain.Event, dayStart, dayEnd time.Time) (int64, error)
	UpdateReserved(ctx context.Context, ev *domain.Event, guard bool, dayStart, dayEnd time.Time) error
	Delete(ctx context.Context, tenantID, id int64) error
}

// QuoteCreator materializes the auto-quote for an event entering draft.
type QuoteCreator interface {
	CreateQuoteFromEvent(ctx context.Context, tenantID, eventID int64) (*domain.Invoice, error)
}

type Config struct {
	Location *time.Location
}

type Service struct {
	events  EventStore
	quotes  QuoteCreator
	cache   *redisrepo.Cache
	pubsub  *redisrepo.AvailabilityPubSub
	limiter *redisrepo.SlidingWindowLimiter
	logger  *slog.Logger
	cfg     Config
}

func New(
	events EventStore,
	quotes QuoteCreator,
	cache *redisrepo.Cache,
	pubsub *redisrepo.AvailabilityPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		events:  events,
		quotes:  quotes,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		logger:  logger,
		cfg:     cfg,
	}
}

type CreateEventInput struct {
	CustomerID  int64
	Title       string
	EventDate   time.Time
	StartTime   string
	EndTime     string
	Address     string
	Status      domain.EventStatus
	TotalAmount decimal.Decimal
	LineItems   []domain.LineItem
}

type UpdateEventInput struct {
	CustomerID  *int64
	Title       *string
	EventDate   *time.Time
	StartTime   *string
	EndTime     *string
	Address     *string
	Status      *domain.EventStatus
	TotalAmount *decimal.Decimal
	LineItems   *[]domain.LineItem
}

// BookingResult separates the committed event from the auto-quote side
// effect, so callers can always tell "the booking happened" apart from
// "and the follow-up quote did or didn't".
type BookingResult struct {
	Event    *domain.Event
	Quote    *domain.Invoice
	QuoteErr string
}

// CreateEvent books an event. Line items are validated against the day's
// availability; the whole booking fails on the first shortfall. An event
// created in draft triggers quote generation, whose failure never rolls
// back the event.
func (s *Service) CreateEvent(
	ctx context.Context,
	tenantID int64,
	in CreateEventInput,
	rlKey string,
) (*BookingResult, error) {
	const op = "service.booking.CreateEvent"

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w (retry in %s)", op, ErrRateLimited, retry)
		}
	}

	if in.Status == "" {
		in.Status = domain.EventDraft
	}

	if err := validateEventInput(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev := &domain.Event{
		TenantID:    tenantID,
		CustomerID:  in.CustomerID,
		Title:       strings.TrimSpace(in.Title),
		EventDate:   in.EventDate,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Address:     in.Address,
		Status:      in.Status,
		TotalAmount: in.TotalAmount,
		LineItems:   in.LineItems,
	}

	dayStart, dayEnd := domain.DayWindow(ev.EventDate, s.cfg.Location)

	id, err := s.events.InsertReserved(ctx, ev, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev.ID = id
	res := &BookingResult{Event: ev}

	// Entry into draft materializes a quote. The event is already
	// committed and stays the source of truth, so a quote failure is
	// logged and reported, never escalated.
	if ev.Status == domain.EventDraft && s.quotes != nil {
		quote, qErr := s.quotes.CreateQuoteFromEvent(ctx, tenantID, id)
		if qErr != nil {
			s.logger.Error("auto-quote generation failed",
				"step", "create_quote_from_event",
				"tenant_id", tenantID,
				"event_id", id,
				"error", qErr,
			)
			res.QuoteErr = qErr.Error()
		} else {
			res.Quote = quote
		}
	}

	s.notifyChanged(ctx, tenantID, dayStart)

	return res, nil
}

// UpdateEvent merges the partial input over the stored record, so the
// guard always sees a complete line-item set for the correct date. The
// guard re-runs when the date or items change, or when the status moves
// into a reserving state.
func (s *Service) UpdateEvent(
	ctx context.Context,
	tenantID, id int64,
	in UpdateEventInput,
) (*domain.Event, error) {
	const op = "service.booking.UpdateEvent"

	existing, err := s.events.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	merged := *existing
	dateChanged := false
	itemsChanged := false

	if in.CustomerID != nil {
		merged.CustomerID = *in.CustomerID
	}
	if in.Title != nil {
		merged.Title = strings.TrimSpace(*in.Title)
	}
	if in.EventDate != nil && !in.EventDate.Equal(existing.EventDate) {
		merged.EventDate = *in.EventDate
		dateChanged = true
	}
	if in.StartTime != nil {
		merged.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		merged.EndTime = *in.EndTime
	}
	if in.Address != nil {
		merged.Address = *in.Address
	}
	if in.TotalAmount != nil {
		merged.TotalAmount = *in.TotalAmount
	}
	if in.LineItems != nil {
		merged.LineItems = *in.LineItems
		itemsChanged = true
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{Field: "status", Reason: "unknown status"})
		}
		if !existing.Status.CanTransitionTo(*in.Status) {
			return nil, fmt.Errorf("%s: %w: %s -> %s", op, ErrInvalidTransition, existing.Status, *in.Status)
		}
		merged.Status = *in.Status
	}

	if merged.Title == "" {
		return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{Field: "title", Reason: "required"})
	}
	if err := validateLineItems(merged.LineItems); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	becameReserving := !existing.Status.Reserving() && merged.Status.Reserving()
	guard := dateChanged || itemsChanged || becameReserving

	dayStart, dayEnd := domain.DayWindow(merged.EventDate, s.cfg.Location)

	if err := s.events.UpdateReserved(ctx, &merged, guard, dayStart, dayEnd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.notifyChanged(ctx, tenantID, dayStart)
	if dateChanged {
		oldStart, _ := domain.DayWindow(existing.EventDate, s.cfg.Location)
		s.notifyChanged(ctx, tenantID, oldStart)
	}

	return &merged, nil
}

func (s *Service) GetEvent(ctx context.Context, tenantID, id int64) (*domain.Event, error) {
	const op = "service.booking.GetEvent"

	ev, err := s.events.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ev, nil
}

func (s *Service) ListEvents(
	ctx context.Context,
	tenantID int64,
	from, to *time.Time,
	statuses []domain.EventStatus,
) ([]domain.Event, error) {
	const op = "service.booking.ListEvents"

	out, err := s.events.List(ctx, tenantID, from, to, statuses)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// DeleteEvent is unconditional: events never consume stock on their own,
// so no state needs unwinding.
func (s *Service) DeleteEvent(ctx context.Context, tenantID, id int64) error {
	const op = "service.booking.DeleteEvent"

	existing, err := s.events.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.events.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	dayStart, _ := domain.DayWindow(existing.EventDate, s.cfg.Location)
	s.notifyChanged(ctx, tenantID, dayStart)

	return nil
}

func (s *Service) notifyChanged(ctx context.Context, tenantID int64, dayStart time.Time) {
	day := dayStart.Format("2006-01-02")

	if s.cache != nil {
		_ = s.cache.InvalidateAvailability(ctx, tenantID, day)
	}

	if s.pubsub != nil {
		_ = s.pubsub.PublishChanged(ctx, tenantID, day)
	}
}

func validateEventInput(in CreateEventInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "required"}
	}

	if in.EventDate.IsZero() {
		return &domain.ValidationError{Field: "event_date", Reason: "required"}
	}

	if in.CustomerID <= 0 {
		return &domain.ValidationError{Field: "customer_id", Reason: "required"}
	}

	if !in.Status.Valid() {
		return &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}

	return validateLineItems(in.LineItems)
}

func validateLineItems(items []domain.LineItem) error {
	for i, li := range items {
		if strings.TrimSpace(li.ProductRef) == "" {
			return &domain.ValidationError{
				Field:  fmt.Sprintf("line_items[%d].product_ref", i),
				Reason: "required",
			}
		}
		if li.Quantity <= 0 {
			return &domain.ValidationError{
				Field:  fmt.Sprintf("line_items[%d].quantity", i),
				Reason: "must be positive",
			}
		}
	}

	return nil
}

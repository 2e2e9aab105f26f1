package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/halynka/rentgo/internal/domain"
	redisrepo "github.com/halynka/rentgo/internal/repository/redis"
)

type Config struct {
	CacheTTL time.Duration
	Location *time.Location
}

// ProductLister and ReservingLister are the slices of the ledger store
// this service reads from.
type ProductLister interface {
	List(ctx context.Context, tenantID int64) ([]domain.Product, error)
}

type ReservingLister interface {
	ListReservingOn(ctx context.Context, tenantID int64, dayStart, dayEnd time.Time, excludeID int64) ([]domain.Event, error)
}

type Service struct {
	products ProductLister
	events   ReservingLister
	cache    *redisrepo.Cache
	cfg      Config
}

func New(products ProductLister, events ReservingLister, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Second
	}

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Service{
		products: products,
		events:   events,
		cache:    cache,
		cfg:      cfg,
	}
}

// Compute nets stock against the day's reserving events for every product.
// excludeEventID removes one event from the sum, so an edit is not checked
// against its own prior reservation. Plain lookups (no exclusion) are
// cached per tenant and day with a short TTL.
func (s *Service) Compute(
	ctx context.Context,
	tenantID int64,
	date time.Time,
	excludeEventID int64,
) (map[string]domain.Availability, error) {
	const op = "service.availability.Compute"

	if s.cache != nil && excludeEventID == 0 {
		dayStart, _ := domain.DayWindow(date, s.cfg.Location)
		key := redisrepo.KeyAvailability(tenantID, dayStart.Format("2006-01-02"))

		out, err := redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			key,
			s.cfg.CacheTTL,
			func(ctx context.Context) (map[string]domain.Availability, error) {
				return s.load(ctx, tenantID, date, 0)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return out, nil
	}

	out, err := s.load(ctx, tenantID, date, excludeEventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) load(
	ctx context.Context,
	tenantID int64,
	date time.Time,
	excludeEventID int64,
) (map[string]domain.Availability, error) {
	products, err := s.products.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := domain.DayWindow(date, s.cfg.Location)

	reserving, err := s.events.ListReservingOn(ctx, tenantID, dayStart, dayEnd, excludeEventID)
	if err != nil {
		return nil, err
	}

	return domain.ComputeAvailability(products, reserving), nil
}

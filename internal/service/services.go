package service

import (
	"log/slog"

	postgres "github.com/halynka/rentgo/internal/repository/postgres"
	redis "github.com/halynka/rentgo/internal/repository/redis"
	"github.com/halynka/rentgo/internal/service/availability"
	"github.com/halynka/rentgo/internal/service/booking"
	"github.com/halynka/rentgo/internal/service/catalog"
	"github.com/halynka/rentgo/internal/service/documents"
)

type Services struct {
	Availability *availability.Service
	Booking      *booking.Service
	Documents    *documents.Service
	Catalog      *catalog.Service
}

type Config struct {
	Availability availability.Config
	Booking      booking.Config
	Documents    documents.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.AvailabilityPubSub,
	limiter *redis.SlidingWindowLimiter,
	locks *redis.Locks,
	terms documents.TermsProvider,
	logger *slog.Logger,
	cfg Config,
) *Services {
	products := store.Products()
	events := store.Events()

	docs := documents.New(
		products,
		events,
		store.Invoices(),
		store.Contracts(),
		locks,
		terms,
		cache,
		pubsub,
		logger,
		cfg.Documents,
	)

	// Booking delegates auto-quote generation to the documents service.
	return &Services{
		Availability: availability.New(products, events, cache, cfg.Availability),
		Booking:      booking.New(events, docs, cache, pubsub, limiter, logger, cfg.Booking),
		Documents:    docs,
		Catalog:      catalog.New(products),
	}
}

package seed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ticktraq/field-service/internal/clock"
	"github.com/ticktraq/field-service/internal/domain"
)

// Source serves the dataset as if it came over the network.
type Source struct {
	data             *Dataset
	clock            clock.Clock
	ticketLatency    time.Duration
	inventoryLatency time.Duration
	logger           *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithClock sets the clock used for latency waits.
func WithClock(c clock.Clock) Option {
	return func(s *Source) { s.clock = c }
}

// WithLatency sets the simulated round trips.
func WithLatency(tickets, inventory time.Duration) Option {
	return func(s *Source) {
		s.ticketLatency = tickets
		s.inventoryLatency = inventory
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// NewSource builds a Source over data, or the embedded dataset if nil.
func NewSource(data *Dataset, opts ...Option) *Source {
	if data == nil {
		data = Default()
	}
	s := &Source{
		data:             data,
		clock:            clock.Real(),
		ticketLatency:    800 * time.Millisecond,
		inventoryLatency: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Dataset exposes the underlying data for stores seeded without latency.
func (s *Source) Dataset() *Dataset {
	return s.data
}

func (s *Source) wait(ctx context.Context, d time.Duration, what string) error {
	if !clock.Sleep(s.clock, d, ctx.Done()) {
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("reference data served", zap.String("collection", what), zap.Duration("latency", d))
	return nil
}

// Tickets implements the ticket source.
func (s *Source) Tickets(ctx context.Context) ([]domain.Ticket, error) {
	if err := s.wait(ctx, s.ticketLatency, "tickets"); err != nil {
		return nil, err
	}
	return s.data.Tickets()
}

// Requests returns reference requests together with the catalog.
func (s *Source) Requests(ctx context.Context) ([]domain.InventoryRequest, []domain.InventoryCatalogItem, error) {
	if err := s.wait(ctx, s.inventoryLatency, "requests"); err != nil {
		return nil, nil, err
	}
	inv, err := s.data.Inventory()
	if err != nil {
		return nil, nil, err
	}
	return inv.Requests, inv.Catalog, nil
}

// Received returns reference release items.
func (s *Source) Received(ctx context.Context) ([]domain.InventoryReleaseItem, error) {
	if err := s.wait(ctx, s.inventoryLatency, "received"); err != nil {
		return nil, err
	}
	inv, err := s.data.Inventory()
	if err != nil {
		return nil, err
	}
	return inv.Received, nil
}

// Returns returns reference return requests.
func (s *Source) Returns(ctx context.Context) ([]domain.InventoryReturn, error) {
	if err := s.wait(ctx, s.inventoryLatency, "returns"); err != nil {
		return nil, err
	}
	inv, err := s.data.Inventory()
	if err != nil {
		return nil, err
	}
	return inv.Returns, nil
}

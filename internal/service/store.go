package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticktraq/field-service/internal/clock"
	"github.com/ticktraq/field-service/internal/events"
	"github.com/ticktraq/field-service/internal/repository"
)

// base carries what every store needs to publish and restore.
type base struct {
	name       string
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

func newBase(name string, dispatcher events.Dispatcher, c clock.Clock, logger *zap.Logger) base {
	if c == nil {
		c = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{name: name, dispatcher: dispatcher, clock: c, logger: logger.With(zap.String("store", name))}
}

// publish must be called without the store lock held.
func (b base) publish(ctx context.Context, eventType events.EventType, operation string, payload interface{}) {
	if b.dispatcher == nil {
		return
	}
	_ = b.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Operation: operation,
		Timestamp: b.clock.Now(),
		Payload:   payload,
	})
}

// loadSnapshot reads a persisted snapshot. A corrupt value is logged and
// reported as absent so the store starts empty.
func loadSnapshot[T any](ctx context.Context, b base, load func(context.Context) (T, bool, error)) (T, bool, error) {
	snap, found, err := load(ctx)
	if errors.Is(err, repository.ErrCorruptSnapshot) {
		b.logger.Warn("discarding unreadable snapshot", zap.Error(err))
		var zero T
		return zero, false, nil
	}
	if err != nil {
		return snap, false, err
	}
	return snap, found, nil
}

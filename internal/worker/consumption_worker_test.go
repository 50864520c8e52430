package worker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ticktraq/field-service/internal/clock"
	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/events"
	"github.com/ticktraq/field-service/internal/seed"
	"github.com/ticktraq/field-service/internal/service"
)

func TestConsumptionWorkerLinksAppliedItemsToTickets(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	fake := clock.NewFake(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	src := seed.NewSource(nil, seed.WithClock(fake), seed.WithLatency(0, 0))
	disp := events.NewInMemoryDispatcher(logger)

	tickets := service.NewTicketStore(service.TicketDependencies{Source: src, Dispatcher: disp, Clock: fake, Logger: logger})
	inventory := service.NewInventoryStore(service.InventoryDependencies{Source: src, Dispatcher: disp, Clock: fake, Logger: logger})
	defer tickets.Close()
	defer inventory.Close()

	stop := StartConsumptionWorker(disp, tickets, logger)
	defer stop()

	if err := tickets.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	if err := inventory.FetchReceived(ctx); err != nil {
		t.Fatalf("FetchReceived() error = %v", err)
	}
	before, _ := tickets.GetTicketByID(1)

	if _, err := inventory.AcceptItem(ctx, "rel-1"); err != nil {
		t.Fatalf("AcceptItem() error = %v", err)
	}
	if err := inventory.ApplyItem(ctx, "rel-1", service.ApplyInput{TicketID: "2576", Remarks: "mounted"}); err != nil {
		t.Fatalf("ApplyItem() error = %v", err)
	}

	after, _ := tickets.GetTicketByID(1)
	if len(after.InventoryConsumed) != len(before.InventoryConsumed)+1 {
		t.Fatalf("consumed items = %d, want %d", len(after.InventoryConsumed), len(before.InventoryConsumed)+1)
	}
	got := after.InventoryConsumed[len(after.InventoryConsumed)-1]
	want := domain.InventoryItem{
		ID:           2,
		Name:         "Hikvision 4K Dome Camera",
		Barcode:      "HK-9982-0001",
		Desc:         "REQ-1767600000000-1",
		Quantity:     1,
		Remarks:      "mounted",
		ConsumedDate: fake.Now(),
	}
	if got != want {
		t.Errorf("consumed = %+v, want %+v", got, want)
	}
}

func TestConsumptionWorkerIgnoresLocationOnlyAndUnknownTickets(t *testing.T) {
	ctx := context.Background()
	disp := events.NewInMemoryDispatcher(nil)
	rec := &recorder{}
	stop := StartConsumptionWorker(disp, rec, zaptest.NewLogger(t))

	_ = disp.Publish(ctx, events.Event{Type: events.EventInventoryItemApplied, Payload: events.ItemAppliedPayload{Location: "Warehouse"}})
	if rec.calls != 0 {
		t.Errorf("location-only apply recorded %d times", rec.calls)
	}

	stop()
	_ = disp.Publish(ctx, events.Event{Type: events.EventInventoryItemApplied, Payload: events.ItemAppliedPayload{TicketID: "2576"}})
	if rec.calls != 0 {
		t.Error("stopped worker still recording")
	}
}

type recorder struct{ calls int }

func (r *recorder) RecordConsumption(context.Context, string, domain.InventoryItem) error {
	r.calls++
	return nil
}

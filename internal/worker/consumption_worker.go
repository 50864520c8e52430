package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/events"
	"github.com/ticktraq/field-service/internal/service"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// ConsumptionRecorder appends consumed parts to a ticket.
type ConsumptionRecorder interface {
	RecordConsumption(ctx context.Context, ticketCode string, item domain.InventoryItem) error
}

// StartConsumptionWorker copies applied inventory units onto the target
// ticket's consumed list. Units applied to a location only are skipped.
// The returned function stops the worker.
func StartConsumptionWorker(dispatcher events.Dispatcher, tickets ConsumptionRecorder, logger *zap.Logger) func() {
	if dispatcher == nil || tickets == nil {
		return func() {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return dispatcher.Subscribe(events.EventInventoryItemApplied, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.ItemAppliedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T", event.Payload)
		}
		if payload.TicketID == "" {
			return nil
		}
		err := tickets.RecordConsumption(ctx, payload.TicketID, consumedItem(payload))
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			logger.Warn("applied item targets unknown ticket",
				zap.String("ticket_id", payload.TicketID),
				zap.String("item_id", payload.Item.ID))
			return nil
		}
		return err
	})
}

func consumedItem(p events.ItemAppliedPayload) domain.InventoryItem {
	return domain.InventoryItem{
		Name:         p.Item.ItemName,
		Barcode:      p.Item.Barcode,
		Desc:         p.Item.RequestNumber,
		Quantity:     p.Quantity,
		Remarks:      p.Remarks,
		ConsumedDate: p.At,
	}
}

var _ ConsumptionRecorder = (*service.TicketStore)(nil)

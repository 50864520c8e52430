package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ticktraq/field-service/internal/events"
)

// MutationRecorder counts store transitions.
type MutationRecorder interface {
	RecordMutation(store, operation string)
}

// ChangeLogService writes an audit line for every store event.
type ChangeLogService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   MutationRecorder
	unsub      []func()
}

// NewChangeLogService creates the service. recorder may be nil.
func NewChangeLogService(dispatcher events.Dispatcher, logger *zap.Logger, recorder MutationRecorder) *ChangeLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeLogService{
		dispatcher: dispatcher,
		logger:     logger,
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to events.
func (n *ChangeLogService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventTicketsChanged,
		events.EventInventoryChanged,
		events.EventLogsChanged,
		events.EventSessionChanged,
	} {
		n.unsub = append(n.unsub, n.dispatcher.Subscribe(t, n.handleStoreChanged))
	}
	n.unsub = append(n.unsub,
		n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged),
		n.dispatcher.Subscribe(events.EventInventoryItemApplied, n.handleItemApplied),
		n.dispatcher.Subscribe(events.EventInventoryItemReturn, n.handleItemReturned),
	)
}

// Stop removes the subscriptions.
func (n *ChangeLogService) Stop() {
	for _, unsubscribe := range n.unsub {
		unsubscribe()
	}
	n.unsub = nil
}

func (n *ChangeLogService) handleStoreChanged(_ context.Context, event events.Event) error {
	store := strings.TrimSuffix(string(event.Type), "_changed")
	if n.recorder != nil {
		n.recorder.RecordMutation(store, event.Operation)
	}
	n.logger.Debug("StoreChanged",
		zap.String("store", store),
		zap.String("operation", event.Operation),
		zap.String("event_id", event.ID))
	return nil
}

func (n *ChangeLogService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TicketStatusChanged",
		zap.Int64("ticket_id", payload.TicketID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
	return nil
}

func (n *ChangeLogService) handleItemApplied(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ItemAppliedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("InventoryItemApplied",
		zap.String("item_id", payload.Item.ID),
		zap.String("item_code", payload.Item.ItemCode),
		zap.String("ticket_id", payload.TicketID),
		zap.String("location", payload.Location),
		zap.Int("quantity", payload.Quantity))
	return nil
}

func (n *ChangeLogService) handleItemReturned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ItemReturnedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("InventoryItemReturned",
		zap.String("item_id", payload.ItemID),
		zap.String("role", payload.Role),
		zap.String("user", payload.User))
	return nil
}

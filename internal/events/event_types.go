package events

import (
	"time"

	"github.com/ticktraq/field-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketsChanged       EventType = "tickets_changed"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventInventoryChanged     EventType = "inventory_changed"
	EventInventoryItemApplied EventType = "inventory_item_applied"
	EventInventoryItemReturn  EventType = "inventory_item_returned"
	EventLogsChanged          EventType = "logs_changed"
	EventSessionChanged       EventType = "session_changed"
)

// Event represents a state change emitted by a store.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Operation string      `json:"operation"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  int64               `json:"ticket_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// ItemAppliedPayload records where a received unit was consumed.
type ItemAppliedPayload struct {
	Item     domain.InventoryReleaseItem `json:"item"`
	TicketID string                      `json:"ticket_id,omitempty"`
	Location string                      `json:"location,omitempty"`
	Quantity int                         `json:"quantity"`
	Remarks  string                      `json:"remarks,omitempty"`
	At       time.Time                   `json:"at"`
}

// ItemReturnedPayload records the return form submitted for a unit.
type ItemReturnedPayload struct {
	ItemID   string `json:"item_id"`
	Role     string `json:"role"`
	User     string `json:"user"`
	Project  string `json:"project,omitempty"`
	Location string `json:"location,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
	Remarks  string `json:"remarks,omitempty"`
}

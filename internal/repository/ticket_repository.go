package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/persistence"
)

// TicketSnapshot is the persisted form of the ticket store.
type TicketSnapshot struct {
	Tickets []domain.Ticket `json:"tickets"`
	// Absent holds, per ticket id, the required keys missing from the
	// stored record. Save leaves them out again.
	Absent map[int64][]string `json:"-"`
	// DroppedActivities counts stored activities of unknown type skipped on load.
	DroppedActivities int `json:"-"`
}

type ticketSnapshotWire struct {
	Tickets []json.RawMessage `json:"tickets"`
}

// MarshalJSON writes each ticket without its absent keys.
func (s TicketSnapshot) MarshalJSON() ([]byte, error) {
	wire := ticketSnapshotWire{Tickets: make([]json.RawMessage, 0, len(s.Tickets))}
	for _, t := range s.Tickets {
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("ticket %d: %w", t.ID, err)
		}
		if missing := s.Absent[t.ID]; len(missing) > 0 {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(raw, &fields); err != nil {
				return nil, err
			}
			for _, key := range missing {
				delete(fields, key)
			}
			if raw, err = json.Marshal(fields); err != nil {
				return nil, err
			}
		}
		wire.Tickets = append(wire.Tickets, raw)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON records which required keys each stored ticket lacks
// and skips activities of unknown type instead of failing the load.
func (s *TicketSnapshot) UnmarshalJSON(data []byte) error {
	var wire ticketSnapshotWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := TicketSnapshot{Tickets: make([]domain.Ticket, 0, len(wire.Tickets))}
	for i, raw := range wire.Tickets {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("ticket %d: %w", i, err)
		}
		if acts, ok := fields["activities"]; ok {
			kept, dropped, err := knownActivities(acts)
			if err != nil {
				return fmt.Errorf("ticket %d activities: %w", i, err)
			}
			if dropped > 0 {
				out.DroppedActivities += dropped
				fields["activities"] = kept
				if raw, err = json.Marshal(fields); err != nil {
					return err
				}
			}
		}
		var t domain.Ticket
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("ticket %d: %w", i, err)
		}
		var missing []string
		for _, key := range domain.RequiredTicketKeys() {
			if _, ok := fields[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			if out.Absent == nil {
				out.Absent = map[int64][]string{}
			}
			out.Absent[t.ID] = missing
		}
		out.Tickets = append(out.Tickets, t)
	}
	*s = out
	return nil
}

func knownActivities(raw json.RawMessage) (json.RawMessage, int, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, 0, err
	}
	kept := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		var head struct {
			Type domain.ActivityKind `json:"type"`
		}
		if err := json.Unmarshal(entry, &head); err != nil {
			return nil, 0, err
		}
		if head.Type.Valid() {
			kept = append(kept, entry)
		}
	}
	dropped := len(entries) - len(kept)
	if dropped == 0 {
		return raw, 0, nil
	}
	out, err := json.Marshal(kept)
	return out, dropped, err
}

// InventorySnapshot is the persisted form of the inventory store.
// Sequences holds the per-requester request counters.
type InventorySnapshot struct {
	Requests      []domain.InventoryRequest     `json:"requests"`
	Catalog       []domain.InventoryCatalogItem `json:"catalog"`
	ReceivedItems []domain.InventoryReleaseItem `json:"receivedItems"`
	Returns       []domain.InventoryReturn      `json:"returns"`
	Sequences     map[string]int                `json:"sequences,omitempty"`
}

// LogsSnapshot is the persisted form of the daily logs store.
type LogsSnapshot struct {
	Logs []domain.DailyLog `json:"logs"`
}

// TicketRepository loads and saves the ticket snapshot.
type TicketRepository interface {
	Load(ctx context.Context) (TicketSnapshot, bool, error)
	Save(ctx context.Context, snap TicketSnapshot) error
}

// InventoryRepository loads and saves the inventory snapshot.
type InventoryRepository interface {
	Load(ctx context.Context) (InventorySnapshot, bool, error)
	Save(ctx context.Context, snap InventorySnapshot) error
}

// LogsRepository loads and saves the daily logs snapshot.
type LogsRepository interface {
	Load(ctx context.Context) (LogsSnapshot, bool, error)
	Save(ctx context.Context, snap LogsSnapshot) error
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(kv persistence.KV, key string) TicketRepository {
	return NewSnapshotRepository[TicketSnapshot](kv, key)
}

// NewInventoryRepository instantiates repository.
func NewInventoryRepository(kv persistence.KV, key string) InventoryRepository {
	return NewSnapshotRepository[InventorySnapshot](kv, key)
}

// NewLogsRepository instantiates repository.
func NewLogsRepository(kv persistence.KV, key string) LogsRepository {
	return NewSnapshotRepository[LogsSnapshot](kv, key)
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActivityKind is the wire tag of an activity entry.
type ActivityKind string

const (
	ActivityStatusChanged   ActivityKind = "STATUS_CHANGED"
	ActivityAssigneeChanged ActivityKind = "ASSIGNEE_CHANGED"
	ActivityTicketCreated   ActivityKind = "TICKET_CREATED"
	ActivityTitleChanged    ActivityKind = "TITLE_CHANGED"
	ActivityTitleAdded      ActivityKind = "TITLE_ADDED"
)

// Valid reports whether k is a known activity type.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityStatusChanged, ActivityAssigneeChanged, ActivityTicketCreated, ActivityTitleChanged, ActivityTitleAdded:
		return true
	}
	return false
}

// ActivityChange is implemented only by the variants declared in this
// file, so a type switch over them is exhaustive.
type ActivityChange interface {
	Kind() ActivityKind
	activityChange()
}

// StatusChanged records a status move using display labels.
type StatusChanged struct {
	From string
	To   string
}

// AssigneeChanged records a hand-over between assignees.
type AssigneeChanged struct {
	From string
	To   string
}

// TicketCreated marks the creation of the ticket.
type TicketCreated struct{}

// TitleChanged records a title edit.
type TitleChanged struct {
	From string
	To   string
}

// TitleAdded records the first title set on a ticket.
type TitleAdded struct {
	To string
}

func (StatusChanged) Kind() ActivityKind   { return ActivityStatusChanged }
func (AssigneeChanged) Kind() ActivityKind { return ActivityAssigneeChanged }
func (TicketCreated) Kind() ActivityKind   { return ActivityTicketCreated }
func (TitleChanged) Kind() ActivityKind    { return ActivityTitleChanged }
func (TitleAdded) Kind() ActivityKind      { return ActivityTitleAdded }

func (StatusChanged) activityChange()   {}
func (AssigneeChanged) activityChange() {}
func (TicketCreated) activityChange()   {}
func (TitleChanged) activityChange()    {}
func (TitleAdded) activityChange()      {}

// Activity is an immutable history entry on a ticket.
type Activity struct {
	ID        int64
	User      string
	Timestamp time.Time
	Change    ActivityChange
}

type activityWire struct {
	ID        int64        `json:"id"`
	Type      ActivityKind `json:"type"`
	From      string       `json:"from,omitempty"`
	To        string       `json:"to,omitempty"`
	User      string       `json:"user"`
	Timestamp time.Time    `json:"timestamp"`
}

// MarshalJSON flattens the variant into {id,type,from,to,user,timestamp}.
func (a Activity) MarshalJSON() ([]byte, error) {
	if a.Change == nil {
		return nil, fmt.Errorf("activity %d has no change", a.ID)
	}
	wire := activityWire{ID: a.ID, Type: a.Change.Kind(), User: a.User, Timestamp: a.Timestamp}
	switch c := a.Change.(type) {
	case StatusChanged:
		wire.From, wire.To = c.From, c.To
	case AssigneeChanged:
		wire.From, wire.To = c.From, c.To
	case TitleChanged:
		wire.From, wire.To = c.From, c.To
	case TitleAdded:
		wire.To = c.To
	case TicketCreated:
	}
	return json.Marshal(wire)
}

// UnmarshalJSON rejects unknown activity types.
func (a *Activity) UnmarshalJSON(data []byte) error {
	var wire activityWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var change ActivityChange
	switch wire.Type {
	case ActivityStatusChanged:
		change = StatusChanged{From: wire.From, To: wire.To}
	case ActivityAssigneeChanged:
		change = AssigneeChanged{From: wire.From, To: wire.To}
	case ActivityTicketCreated:
		change = TicketCreated{}
	case ActivityTitleChanged:
		change = TitleChanged{From: wire.From, To: wire.To}
	case ActivityTitleAdded:
		change = TitleAdded{To: wire.To}
	default:
		return fmt.Errorf("unknown activity type %q", wire.Type)
	}
	*a = Activity{ID: wire.ID, User: wire.User, Timestamp: wire.Timestamp, Change: change}
	return nil
}

// Describe renders a one-line summary of the activity.
func (a Activity) Describe() string {
	switch c := a.Change.(type) {
	case StatusChanged:
		return fmt.Sprintf("%s changed status from %s to %s", a.User, c.From, c.To)
	case AssigneeChanged:
		return fmt.Sprintf("%s reassigned from %s to %s", a.User, c.From, c.To)
	case TicketCreated:
		return fmt.Sprintf("%s created the ticket", a.User)
	case TitleChanged:
		return fmt.Sprintf("%s changed title from %q to %q", a.User, c.From, c.To)
	case TitleAdded:
		return fmt.Sprintf("%s set title to %q", a.User, c.To)
	default:
		return fmt.Sprintf("%s made an unknown change", a.User)
	}
}

// StatusLabel maps a status to the label used in activity history.
func StatusLabel(s TicketStatus) string {
	switch s {
	case TicketStatusOpen:
		return "Open"
	case TicketStatusInProgress:
		return "In Progress"
	case TicketStatusClosed:
		return "Closed"
	case TicketStatusSuspended:
		return "Suspended"
	case TicketStatusPending:
		return "Pending"
	}
	return string(s)
}

package dto

import (
	"time"

	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/service"
)

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// BulkUpdateRequest applies one patch to several tickets at once.
type BulkUpdateRequest struct {
	IDs   []int64            `json:"ids"`
	Patch domain.TicketPatch `json:"patch"`
}

// BulkUpdateResponse reports how many tickets matched.
type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

// TicketSummary is a ticket list row.
type TicketSummary struct {
	ID               int64                 `json:"id"`
	TicketID         string                `json:"ticketId"`
	Title            string                `json:"title"`
	Status           domain.TicketStatus   `json:"status"`
	ApprovalStatus   domain.ApprovalStatus `json:"approvalStatus,omitempty"`
	Priority         domain.TicketPriority `json:"priority"`
	SiteName         string                `json:"siteName"`
	City             string                `json:"city"`
	Assignee         string                `json:"assignee,omitempty"`
	SLAStatus        domain.SLAStatus      `json:"slaStatus"`
	HasAttachments   bool                  `json:"hasAttachments"`
	OpenDependencies int                   `json:"openDependencies"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// TicketListResponse is the filtered list with stats over all tickets.
type TicketListResponse struct {
	Tickets   []TicketSummary       `json:"tickets"`
	Stats     service.TicketStats   `json:"stats"`
	Filters   service.TicketFilters `json:"filters"`
	Total     int                   `json:"total"`
	IsLoading bool                  `json:"isLoading"`
	Error     string                `json:"error,omitempty"`
}

// NewTicketSummary projects a ticket onto a list row.
func NewTicketSummary(t domain.Ticket) TicketSummary {
	s := TicketSummary{
		ID:               t.ID,
		TicketID:         t.TicketID,
		Title:            t.Title,
		Status:           t.Status,
		ApprovalStatus:   t.ApprovalStatus,
		Priority:         t.Priority,
		SiteName:         t.SiteName,
		City:             t.City,
		SLAStatus:        t.SLAStatus,
		HasAttachments:   t.HasAttachments(),
		OpenDependencies: t.OpenDependencies(),
		UpdatedAt:        t.UpdatedAt,
	}
	if t.Assignee != nil {
		s.Assignee = t.Assignee.Name
	}
	return s
}

// NewTicketListResponse renders a store view.
func NewTicketListResponse(view service.TicketView) TicketListResponse {
	rows := make([]TicketSummary, 0, len(view.FilteredTickets))
	for _, t := range view.FilteredTickets {
		rows = append(rows, NewTicketSummary(t))
	}
	return TicketListResponse{
		Tickets:   rows,
		Stats:     view.Stats,
		Filters:   view.Filters,
		Total:     len(view.Tickets),
		IsLoading: view.IsLoading,
		Error:     view.Error,
	}
}

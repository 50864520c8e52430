package service

import (
	"sort"
	"strings"

	"github.com/ticktraq/field-service/internal/domain"
)

// Filter values that clear their axis.
const (
	AllStatuses         = "All Statuses"
	AllApprovalStatuses = "All Approval Statuses"
)

// TicketFilters are the view axes applied to the ticket collection.
// Empty fields match everything.
type TicketFilters struct {
	SearchQuery string `json:"searchQuery"`
	Status      string `json:"activeStatusFilter,omitempty"`
	Approval    string `json:"activeApprovalFilter,omitempty"`
}

// TicketStats are aggregate counts over the whole collection. Open
// includes inProgress; tickets outside the four buckets count only
// toward Total.
type TicketStats struct {
	Total     int `json:"total"`
	Open      int `json:"open"`
	Closed    int `json:"closed"`
	Suspended int `json:"suspended"`
	Pending   int `json:"pending"`
}

// ProjectTickets derives the filtered view and stats from tickets.
// Filtering keeps the input order.
func ProjectTickets(tickets []domain.Ticket, filters TicketFilters) ([]domain.Ticket, TicketStats) {
	var stats TicketStats
	query := strings.ToLower(strings.TrimSpace(filters.SearchQuery))
	filtered := make([]domain.Ticket, 0, len(tickets))

	for _, t := range tickets {
		stats.Total++
		switch t.Status {
		case domain.TicketStatusOpen, domain.TicketStatusInProgress:
			stats.Open++
		case domain.TicketStatusClosed:
			stats.Closed++
		case domain.TicketStatusSuspended:
			stats.Suspended++
		case domain.TicketStatusPending:
			stats.Pending++
		}

		if !matchesStatus(t, filters.Status) || !matchesApproval(t, filters.Approval) || !matchesQuery(t, query) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered, stats
}

func normalizeStatusFilter(s string) string {
	if s == AllStatuses {
		return ""
	}
	return s
}

func normalizeApprovalFilter(s string) string {
	if s == AllApprovalStatuses {
		return ""
	}
	return s
}

func matchesStatus(t domain.Ticket, filter string) bool {
	switch filter = normalizeStatusFilter(filter); filter {
	case "":
		return true
	case string(domain.TicketStatusOpen):
		return t.Status == domain.TicketStatusOpen || t.Status == domain.TicketStatusInProgress
	default:
		return string(t.Status) == filter
	}
}

func matchesApproval(t domain.Ticket, filter string) bool {
	filter = normalizeApprovalFilter(filter)
	return filter == "" || string(t.ApprovalStatus) == filter
}

func matchesQuery(t domain.Ticket, lowered string) bool {
	if lowered == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), lowered) ||
		strings.Contains(strings.ToLower(t.TicketID), lowered) ||
		strings.Contains(strings.ToLower(t.SiteName), lowered)
}

// SortByPriority orders tickets critical first, keeping the relative
// order of equal priorities.
func SortByPriority(tickets []domain.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].Priority.Rank() < tickets[j].Priority.Rank()
	})
}

package service

import (
	"time"

	"github.com/ticktraq/field-service/internal/domain"
)

// mergeTickets overlays reference records onto existing tickets by id.
// Order follows existing; tickets with no reference record are kept
// as they are and reference-only tickets are not added. absent lists
// the keys each existing ticket never had; merged tickets drop out of
// the returned map.
func mergeTickets(existing, refs []domain.Ticket, absent map[int64][]string) ([]domain.Ticket, map[int64][]string) {
	byID := make(map[int64]domain.Ticket, len(refs))
	for _, ref := range refs {
		byID[ref.ID] = ref
	}
	merged := make([]domain.Ticket, len(existing))
	remaining := map[int64][]string{}
	for i, cur := range existing {
		ref, ok := byID[cur.ID]
		if !ok {
			merged[i] = cur
			if missing := absent[cur.ID]; len(missing) > 0 {
				remaining[cur.ID] = missing
			}
			continue
		}
		merged[i] = mergeTicket(cur, ref, absent[cur.ID])
	}
	if len(remaining) == 0 {
		remaining = nil
	}
	return merged, remaining
}

// mergeTicket takes from ref only the scalar keys cur never had. Values
// present on cur win even when zero; a non-empty detail array on cur is
// kept whole.
func mergeTicket(cur, ref domain.Ticket, absent []string) domain.Ticket {
	for _, key := range absent {
		fillKey(&cur, ref, key)
	}
	fillTimePtr(&cur.StartDate, ref.StartDate)
	fillTimePtr(&cur.SuspendedDate, ref.SuspendedDate)
	fillTimePtr(&cur.CompletedDate, ref.CompletedDate)
	fillTimePtr(&cur.DueDate, ref.DueDate)
	if cur.Assignee == nil && ref.Assignee != nil {
		assignee := *ref.Assignee
		cur.Assignee = &assignee
	}

	cur.Attachments = keepNonEmpty(cur.Attachments, ref.Attachments)
	cur.Dependencies = keepNonEmpty(cur.Dependencies, ref.Dependencies)
	cur.InventoryConsumed = keepNonEmpty(cur.InventoryConsumed, ref.InventoryConsumed)
	cur.DailyLogs = keepNonEmpty(cur.DailyLogs, ref.DailyLogs)
	cur.Activities = keepNonEmpty(cur.Activities, ref.Activities)
	cur.Comments = keepNonEmpty(cur.Comments, ref.Comments)
	cur.Chat = keepNonEmpty(cur.Chat, ref.Chat)
	return cur
}

func fillKey(cur *domain.Ticket, ref domain.Ticket, key string) {
	switch key {
	case "ticketId":
		cur.TicketID = ref.TicketID
	case "title":
		cur.Title = ref.Title
	case "type":
		cur.Type = ref.Type
	case "description":
		cur.Description = ref.Description
	case "status":
		cur.Status = ref.Status
	case "approvalStatus":
		cur.ApprovalStatus = ref.ApprovalStatus
	case "priority":
		cur.Priority = ref.Priority
	case "siteName":
		cur.SiteName = ref.SiteName
	case "region":
		cur.Region = ref.Region
	case "city":
		cur.City = ref.City
	case "locationDetails":
		cur.LocationDetails = ref.LocationDetails
	case "createdAt":
		cur.CreatedAt = ref.CreatedAt
	case "updatedAt":
		cur.UpdatedAt = ref.UpdatedAt
	case "delayDays":
		cur.DelayDays = ref.DelayDays
	case "reporter":
		cur.Reporter = ref.Reporter
	case "projectName":
		cur.ProjectName = ref.ProjectName
	case "slaStatus":
		cur.SLAStatus = ref.SLAStatus
	case "commentsCount":
		cur.CommentsCount = ref.CommentsCount
	case "attachmentsCount":
		cur.AttachmentsCount = ref.AttachmentsCount
	}
}

func keepNonEmpty[T any](cur, ref []T) []T {
	if len(cur) > 0 {
		return cur
	}
	return ref
}

func fillTimePtr(dst **time.Time, ref *time.Time) {
	if *dst == nil && ref != nil {
		v := *ref
		*dst = &v
	}
}

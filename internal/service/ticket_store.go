package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ticktraq/field-service/internal/clock"
	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/events"
	"github.com/ticktraq/field-service/internal/repository"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// DefaultActor is recorded on activities raised by this client.
const DefaultActor = "Administrator"

// TicketSource supplies the reference ticket set.
type TicketSource interface {
	Tickets(ctx context.Context) ([]domain.Ticket, error)
}

// TicketView is a consistent copy of the store state for renderers.
type TicketView struct {
	Tickets         []domain.Ticket `json:"tickets"`
	FilteredTickets []domain.Ticket `json:"filteredTickets"`
	Stats           TicketStats     `json:"stats"`
	Filters         TicketFilters   `json:"filters"`
	IsLoading       bool            `json:"isLoading"`
	Error           string          `json:"error,omitempty"`
}

// TicketDependencies bundles the collaborators of a TicketStore.
type TicketDependencies struct {
	Repo       repository.TicketRepository
	Source     TicketSource
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
	Retry      RetryPolicy
	// Actor names the user on generated activities. Defaults to DefaultActor.
	Actor string
}

// TicketStore holds the ticket collection and its derived view.
type TicketStore struct {
	base
	repo    repository.TicketRepository
	source  TicketSource
	fetcher *fetcher
	writer  *repository.AsyncWriter[repository.TicketSnapshot]
	actor   string

	mu       sync.Mutex
	tickets  []domain.Ticket
	filtered []domain.Ticket
	stats    TicketStats
	filters  TicketFilters
	loading  bool
	lastErr  error
	// absent holds the keys restored tickets never had, by ticket id.
	absent map[int64][]string
}

// NewTicketStore constructs the store. Call Restore to load persisted state.
func NewTicketStore(deps TicketDependencies) *TicketStore {
	b := newBase("tickets", deps.Dispatcher, deps.Clock, deps.Logger)
	s := &TicketStore{
		base:    b,
		repo:    deps.Repo,
		source:  deps.Source,
		fetcher: newFetcher(b.clock, deps.Retry, b.logger),
		actor:   deps.Actor,
	}
	if s.actor == "" {
		s.actor = DefaultActor
	}
	if deps.Repo != nil {
		s.writer = repository.NewAsyncWriter[repository.TicketSnapshot](deps.Repo, b.logger)
	}
	s.filtered, s.stats = ProjectTickets(nil, s.filters)
	return s
}

// Restore loads the persisted ticket snapshot.
func (s *TicketStore) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	snap, found, err := loadSnapshot(ctx, s.base, s.repo.Load)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if snap.DroppedActivities > 0 {
		s.logger.Warn("skipped stored activities of unknown type", zap.Int("count", snap.DroppedActivities))
	}
	s.mu.Lock()
	s.tickets = slices.Clone(snap.Tickets)
	s.absent = cloneAbsent(snap.Absent)
	s.applyFiltersLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.logger.Info("tickets restored", zap.Int("count", len(snap.Tickets)))
	s.publish(ctx, events.EventTicketsChanged, "restore", view)
	return nil
}

// FetchTickets loads the reference set. An empty store takes it sorted
// by priority; a populated store merges it into the existing tickets.
func (s *TicketStore) FetchTickets(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	refs, err := fetchTyped(ctx, s.fetcher, "tickets", s.source.Tickets)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = apperrors.NewFetchFailed("tickets", err)
		fetchErr := s.lastErr
		view := s.viewLocked()
		s.mu.Unlock()
		s.logger.Error("ticket fetch failed", zap.Error(err))
		s.publish(ctx, events.EventTicketsChanged, "fetch", view)
		return fetchErr
	}

	if len(s.tickets) > 0 {
		s.tickets, s.absent = mergeTickets(s.tickets, refs, s.absent)
	} else {
		s.tickets = slices.Clone(refs)
		s.absent = nil
		SortByPriority(s.tickets)
	}
	s.applyFiltersLocked()
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.publish(ctx, events.EventTicketsChanged, "fetch", view)
	return nil
}

// SearchTickets sets the text query.
func (s *TicketStore) SearchTickets(ctx context.Context, query string) TicketView {
	return s.setFilter(ctx, "search", func(f *TicketFilters) { f.SearchQuery = query })
}

// FilterByStatus sets the status axis. "All Statuses" or "" clears it.
func (s *TicketStore) FilterByStatus(ctx context.Context, status string) TicketView {
	return s.setFilter(ctx, "filter_status", func(f *TicketFilters) { f.Status = normalizeStatusFilter(status) })
}

// FilterByApproval sets the approval axis. "All Approval Statuses" or "" clears it.
func (s *TicketStore) FilterByApproval(ctx context.Context, approval string) TicketView {
	return s.setFilter(ctx, "filter_approval", func(f *TicketFilters) { f.Approval = normalizeApprovalFilter(approval) })
}

func (s *TicketStore) setFilter(ctx context.Context, op string, set func(*TicketFilters)) TicketView {
	s.mu.Lock()
	set(&s.filters)
	s.applyFiltersLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(ctx, events.EventTicketsChanged, op, view)
	return view
}

// UpdateTicketStatus sets the status of one ticket and records the move
// in its activity history.
func (s *TicketStore) UpdateTicketStatus(ctx context.Context, id int64, status domain.TicketStatus) (domain.Ticket, error) {
	if !status.Valid() {
		return domain.Ticket{}, apperrors.NewInvalidStatus("status", string(status))
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	now := s.clock.Now()
	old := s.tickets[idx].Status
	updated := s.withStatus(s.tickets[idx], status, now)
	s.tickets = slices.Clone(s.tickets)
	s.tickets[idx] = updated
	s.markPresentLocked(id, "status", "updatedAt")
	SortByPriority(s.tickets)
	s.applyFiltersLocked()
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.publish(ctx, events.EventTicketStatusChanged, "update_status", events.TicketStatusChangedPayload{
		TicketID:  id,
		OldStatus: old,
		NewStatus: status,
	})
	s.publish(ctx, events.EventTicketsChanged, "update_status", view)
	return updated, nil
}

// BulkUpdateTickets applies patch to every ticket whose id is listed and
// returns how many matched. The patch is validated in full first.
func (s *TicketStore) BulkUpdateTickets(ctx context.Context, ids []int64, patch domain.TicketPatch) (int, error) {
	if err := validatePatch(patch); err != nil {
		return 0, err
	}
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	s.mu.Lock()
	now := s.clock.Now()
	next := slices.Clone(s.tickets)
	matched := 0
	for i, t := range next {
		if _, ok := wanted[t.ID]; !ok {
			continue
		}
		matched++
		updated := t
		if patch.Status != nil && *patch.Status != t.Status {
			updated = s.withStatus(updated, *patch.Status, now)
		}
		if patch.Title != nil && *patch.Title != t.Title {
			var change domain.ActivityChange = domain.TitleChanged{From: t.Title, To: *patch.Title}
			if t.Title == "" {
				change = domain.TitleAdded{To: *patch.Title}
			}
			updated = s.record(updated, change, now)
		}
		if patch.Assignee != nil && assigneeName(t.Assignee) != patch.Assignee.Name {
			updated = s.record(updated, domain.AssigneeChanged{From: assigneeName(t.Assignee), To: patch.Assignee.Name}, now)
		}
		updated = patch.Apply(updated)
		updated.UpdatedAt = now
		next[i] = updated
		s.markPresentLocked(t.ID, append(patch.Fields(), "updatedAt")...)
	}
	if matched == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	s.tickets = next
	SortByPriority(s.tickets)
	s.applyFiltersLocked()
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.publish(ctx, events.EventTicketsChanged, "bulk_update", view)
	return matched, nil
}

// GetTicketByID returns the ticket with the given id.
func (s *TicketStore) GetTicketByID(id int64) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Ticket{}, false
	}
	return s.tickets[idx], true
}

// RecordConsumption appends a consumed part to the ticket with the given
// display code.
func (s *TicketStore) RecordConsumption(ctx context.Context, ticketCode string, item domain.InventoryItem) error {
	s.mu.Lock()
	idx := -1
	for i, t := range s.tickets {
		if t.TicketID == ticketCode {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticketCode})
	}
	t := s.tickets[idx]
	var maxID int64
	for _, consumed := range t.InventoryConsumed {
		maxID = max(maxID, consumed.ID)
	}
	item.ID = maxID + 1
	if item.ConsumedDate.IsZero() {
		item.ConsumedDate = s.clock.Now()
	}
	t.InventoryConsumed = append(slices.Clone(t.InventoryConsumed), item)
	s.tickets = slices.Clone(s.tickets)
	s.tickets[idx] = t
	s.applyFiltersLocked()
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.publish(ctx, events.EventTicketsChanged, "record_consumption", view)
	return nil
}

// View returns the current state.
func (s *TicketStore) View() TicketView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Close flushes the pending snapshot.
func (s *TicketStore) Close() {
	if s.writer != nil {
		s.writer.Close()
	}
}

func (s *TicketStore) withStatus(t domain.Ticket, status domain.TicketStatus, now time.Time) domain.Ticket {
	t = s.record(t, domain.StatusChanged{From: domain.StatusLabel(t.Status), To: domain.StatusLabel(status)}, now)
	t.Status = status
	t.UpdatedAt = now
	return t
}

// record appends an activity by the store's actor.
func (s *TicketStore) record(t domain.Ticket, change domain.ActivityChange, now time.Time) domain.Ticket {
	var maxID int64
	for _, a := range t.Activities {
		maxID = max(maxID, a.ID)
	}
	t.Activities = append(slices.Clone(t.Activities), domain.Activity{
		ID:        maxID + 1,
		User:      s.actor,
		Timestamp: now,
		Change:    change,
	})
	return t
}

func assigneeName(p *domain.Person) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// markPresentLocked records that keys now hold values set in this store.
func (s *TicketStore) markPresentLocked(id int64, keys ...string) {
	missing, ok := s.absent[id]
	if !ok {
		return
	}
	missing = slices.DeleteFunc(slices.Clone(missing), func(k string) bool { return slices.Contains(keys, k) })
	if len(missing) == 0 {
		delete(s.absent, id)
		return
	}
	s.absent[id] = missing
}

func cloneAbsent(in map[int64][]string) map[int64][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[int64][]string, len(in))
	for id, keys := range in {
		out[id] = slices.Clone(keys)
	}
	return out
}

func (s *TicketStore) indexLocked(id int64) int {
	for i, t := range s.tickets {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *TicketStore) applyFiltersLocked() {
	s.filtered, s.stats = ProjectTickets(s.tickets, s.filters)
}

func (s *TicketStore) snapshotLocked() repository.TicketSnapshot {
	return repository.TicketSnapshot{Tickets: slices.Clone(s.tickets), Absent: cloneAbsent(s.absent)}
}

func (s *TicketStore) viewLocked() TicketView {
	view := TicketView{
		Tickets:         slices.Clone(s.tickets),
		FilteredTickets: slices.Clone(s.filtered),
		Stats:           s.stats,
		Filters:         s.filters,
		IsLoading:       s.loading,
	}
	if view.Tickets == nil {
		view.Tickets = []domain.Ticket{}
	}
	if s.lastErr != nil {
		view.Error = s.lastErr.Error()
	}
	return view
}

func (s *TicketStore) persist(snap repository.TicketSnapshot) {
	if s.writer != nil {
		s.writer.Submit(snap)
	}
}

func validatePatch(p domain.TicketPatch) error {
	if p.Empty() {
		return apperrors.NewValidationError("patch changes nothing", nil)
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperrors.NewInvalidStatus("status", string(*p.Status))
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return apperrors.NewInvalidStatus("priority", string(*p.Priority))
	}
	if p.ApprovalStatus != nil && !p.ApprovalStatus.Valid() {
		return apperrors.NewInvalidStatus("approvalStatus", string(*p.ApprovalStatus))
	}
	if p.SLAStatus != nil && !p.SLAStatus.Valid() {
		return apperrors.NewInvalidStatus("slaStatus", string(*p.SLAStatus))
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperrors.NewValidationError("title must not be blank", map[string]any{"field": "title"})
	}
	if p.DelayDays != nil && *p.DelayDays < 0 {
		return apperrors.NewValidationError("delayDays must not be negative", map[string]any{"field": "delayDays"})
	}
	return nil
}

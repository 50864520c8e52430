package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ticktraq/field-service/internal/clock"
	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/events"
	"github.com/ticktraq/field-service/internal/persistence"
	"github.com/ticktraq/field-service/internal/repository"
	"github.com/ticktraq/field-service/internal/seed"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

var testEpoch = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

type stubTicketSource struct {
	mu      sync.Mutex
	tickets []domain.Ticket
	errs    []error
	calls   int
	gate    chan struct{}
	started chan struct{}
}

func (s *stubTicketSource) Tickets(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	}
	s.mu.Unlock()

	if s.started != nil && call == 1 {
		close(s.started)
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out, nil
}

func (s *stubTicketSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type ticketFixture struct {
	store *TicketStore
	kv    *persistence.Memory
	repo  repository.TicketRepository
	clock *clock.Fake
	disp  events.Dispatcher
}

func newTicketFixture(t *testing.T, src TicketSource, retry RetryPolicy) *ticketFixture {
	t.Helper()
	kv := persistence.NewMemory()
	repo := repository.NewTicketRepository(kv, "tickets-storage")
	fake := clock.NewFake(testEpoch)
	disp := events.NewInMemoryDispatcher(zaptest.NewLogger(t))
	store := NewTicketStore(TicketDependencies{
		Repo:       repo,
		Source:     src,
		Dispatcher: disp,
		Clock:      fake,
		Logger:     zaptest.NewLogger(t),
		Retry:      retry,
	})
	t.Cleanup(store.Close)
	return &ticketFixture{store: store, kv: kv, repo: repo, clock: fake, disp: disp}
}

func seedTickets(t *testing.T) []domain.Ticket {
	t.Helper()
	tickets, err := seed.Default().Tickets()
	if err != nil {
		t.Fatalf("seed tickets: %v", err)
	}
	return tickets
}

func TestFetchTicketsEmptyStoreSortsByPriority(t *testing.T) {
	src := &stubTicketSource{tickets: []domain.Ticket{
		ticket(1, domain.TicketStatusOpen, domain.TicketPriorityLow),
		ticket(2, domain.TicketStatusClosed, domain.TicketPriorityCritical),
		ticket(3, domain.TicketStatusOpen, domain.TicketPriorityLow),
		ticket(4, domain.TicketStatusInProgress, domain.TicketPriorityHigh),
	}}
	f := newTicketFixture(t, src, RetryPolicy{Attempts: 1})

	if err := f.store.FetchTickets(context.Background()); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	view := f.store.View()
	if got := ids(view.Tickets); !equalIDs(got, []int64{2, 4, 1, 3}) {
		t.Errorf("ticket order = %v", got)
	}
	if view.Stats != (TicketStats{Total: 4, Open: 3, Closed: 1}) {
		t.Errorf("stats = %+v", view.Stats)
	}
	if view.IsLoading || view.Error != "" {
		t.Errorf("view state = loading %v error %q", view.IsLoading, view.Error)
	}
}

func TestFetchTicketsMergePreservesLocalState(t *testing.T) {
	ctx := context.Background()
	refs := seedTickets(t)
	f := newTicketFixture(t, &stubTicketSource{tickets: refs}, RetryPolicy{Attempts: 1})

	stored := `{"tickets":[
		{"id":99,"title":"Created offline","status":"open"},
		{"id":1,"title":"Local title","status":"closed",
		 "attachments":[{"id":9,"type":"image/png","fileName":"local.png","uploadedDate":"2026-01-30T00:00:00Z"}],
		 "dependencies":[{"id":7,"name":"Road Closure","remarks":"Police escort needed","resolved":false}]}
	]}`
	if err := f.kv.Set(ctx, "tickets-storage", []byte(stored)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.store.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	view := f.store.View()
	if got := ids(view.Tickets); !equalIDs(got, []int64{99, 1}) {
		t.Fatalf("merged ids = %v, want [99 1]", got)
	}
	if got := view.Tickets[0]; got.Title != "Created offline" || got.SiteName != "" || got.HasAttachments() {
		t.Errorf("ticket without reference record changed: %+v", got)
	}

	merged := view.Tickets[1]
	if merged.Title != "Local title" || merged.Status != domain.TicketStatusClosed {
		t.Errorf("local scalars overwritten: title %q status %q", merged.Title, merged.Status)
	}
	if len(merged.Attachments) != 1 || merged.Attachments[0].FileName != "local.png" {
		t.Errorf("non-empty local attachments replaced: %+v", merged.Attachments)
	}
	if len(merged.Dependencies) != 1 || merged.Dependencies[0].Name != "Road Closure" {
		t.Errorf("non-empty local dependencies replaced: %+v", merged.Dependencies)
	}
	if len(merged.DailyLogs) != 1 {
		t.Errorf("empty daily logs not filled from reference: %+v", merged.DailyLogs)
	}
	if merged.SiteName != "AljabrGas station" || merged.Assignee == nil {
		t.Errorf("absent fields not filled: site %q assignee %v", merged.SiteName, merged.Assignee)
	}
	if merged.Description != refs[0].Description {
		t.Errorf("absent description = %q, want %q", merged.Description, refs[0].Description)
	}
	if len(merged.Chat) != 4 {
		t.Errorf("chat = %d messages, want 4", len(merged.Chat))
	}

	f.store.Close()
	raw, _, err := f.kv.Get(ctx, "tickets-storage")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	var saved struct {
		Tickets []map[string]json.RawMessage `json:"tickets"`
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatalf("saved snapshot: %v", err)
	}
	if _, ok := saved.Tickets[0]["siteName"]; ok {
		t.Errorf("ticket without reference record gained a siteName key: %s", raw)
	}
	if _, ok := saved.Tickets[1]["siteName"]; !ok {
		t.Errorf("merged ticket lost its siteName key: %s", raw)
	}
}

func TestFetchTicketsKeepsClearedFields(t *testing.T) {
	ctx := context.Background()
	ref := ticket(1, domain.TicketStatusOpen, domain.TicketPriorityMedium)
	ref.Title = "Broken gate"
	ref.Description = "Gate motor stalls"
	ref.ApprovalStatus = domain.ApprovalPending
	ref.DelayDays = 5
	src := &stubTicketSource{tickets: []domain.Ticket{ref}}
	f := newTicketFixture(t, src, RetryPolicy{Attempts: 1})
	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}

	none := domain.ApprovalNone
	empty := ""
	zero := 0
	patch := domain.TicketPatch{ApprovalStatus: &none, Description: &empty, DelayDays: &zero}
	if _, err := f.store.BulkUpdateTickets(ctx, []int64{1}, patch); err != nil {
		t.Fatalf("BulkUpdateTickets() error = %v", err)
	}

	assertCleared := func(t *testing.T, store *TicketStore) {
		t.Helper()
		tk, ok := store.GetTicketByID(1)
		if !ok {
			t.Fatal("ticket 1 missing")
		}
		if tk.ApprovalStatus != domain.ApprovalNone || tk.Description != "" || tk.DelayDays != 0 {
			t.Errorf("cleared fields restored from reference: approval %q description %q delay %d",
				tk.ApprovalStatus, tk.Description, tk.DelayDays)
		}
	}

	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("refetch error = %v", err)
	}
	assertCleared(t, f.store)

	f.store.Close()
	next := NewTicketStore(TicketDependencies{Repo: f.repo, Source: src, Clock: f.clock})
	defer next.Close()
	if err := next.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if err := next.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() after restart error = %v", err)
	}
	assertCleared(t, next)
}

func TestRestoreSkipsUnknownActivities(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, &stubTicketSource{}, RetryPolicy{Attempts: 1})
	stored := `{"tickets":[
		{"id":1,"title":"Camera","status":"open","activities":[
			{"id":1,"type":"TICKET_CREATED","user":"Administrator","timestamp":"2026-01-05T08:56:00Z"},
			{"id":2,"type":"PRIORITY_CHANGED","from":"Low","to":"High","user":"Supervisor","timestamp":"2026-01-06T08:00:00Z"}
		]},
		{"id":2,"title":"Router","status":"closed"}
	]}`
	if err := f.kv.Set(ctx, "tickets-storage", []byte(stored)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.store.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := len(f.store.View().Tickets); got != 2 {
		t.Fatalf("restored tickets = %d, want 2", got)
	}
	tk, _ := f.store.GetTicketByID(1)
	if len(tk.Activities) != 1 {
		t.Fatalf("activities = %+v, want only the known entry", tk.Activities)
	}
	if _, ok := tk.Activities[0].Change.(domain.TicketCreated); !ok {
		t.Errorf("kept activity = %T", tk.Activities[0].Change)
	}
}

func TestFetchTicketsFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	src := &stubTicketSource{tickets: seedTickets(t)}
	f := newTicketFixture(t, src, RetryPolicy{Attempts: 1})
	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	before := ids(f.store.View().Tickets)

	src.errs = []error{errors.New("network down")}
	err := f.store.FetchTickets(ctx)
	if !apperrors.HasCode(err, apperrors.CodeFetchFailed) {
		t.Fatalf("FetchTickets() error = %v, want FETCH_FAILED", err)
	}
	view := f.store.View()
	if !equalIDs(ids(view.Tickets), before) {
		t.Errorf("tickets changed after failed fetch")
	}
	if view.Error == "" || view.IsLoading {
		t.Errorf("view = error %q loading %v", view.Error, view.IsLoading)
	}
}

func TestFetchTicketsRetriesWithBackoff(t *testing.T) {
	src := &stubTicketSource{
		tickets: seedTickets(t),
		errs:    []error{errors.New("timeout"), errors.New("timeout")},
	}
	f := newTicketFixture(t, src, RetryPolicy{Attempts: 3, BaseDelay: 100 * time.Millisecond})

	if err := f.store.FetchTickets(context.Background()); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	if src.Calls() != 3 {
		t.Errorf("source calls = %d, want 3", src.Calls())
	}
	if got := f.clock.Waited(); got != 300*time.Millisecond {
		t.Errorf("backoff waited %v, want 300ms", got)
	}
}

func TestFetchTicketsGivesUpAfterAttempts(t *testing.T) {
	src := &stubTicketSource{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	f := newTicketFixture(t, src, RetryPolicy{Attempts: 2, BaseDelay: time.Millisecond})

	err := f.store.FetchTickets(context.Background())
	if !apperrors.HasCode(err, apperrors.CodeFetchFailed) {
		t.Fatalf("error = %v", err)
	}
	if src.Calls() != 2 {
		t.Errorf("source calls = %d, want 2", src.Calls())
	}
}

func TestFetchTicketsCoalescesConcurrentCalls(t *testing.T) {
	src := &stubTicketSource{
		tickets: seedTickets(t),
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	f := newTicketFixture(t, src, RetryPolicy{Attempts: 1})

	var wg sync.WaitGroup
	var failures atomic.Int32
	fetch := func() {
		defer wg.Done()
		if err := f.store.FetchTickets(context.Background()); err != nil {
			failures.Add(1)
		}
	}
	wg.Add(1)
	go fetch()
	<-src.started
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go fetch()
	}
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("%d fetches failed", failures.Load())
	}
	if src.Calls() != 1 {
		t.Errorf("source calls = %d, want 1", src.Calls())
	}
	if got := len(f.store.View().Tickets); got != 6 {
		t.Errorf("tickets = %d, want 6", got)
	}
}

func TestFetchTicketsHonorsCancellation(t *testing.T) {
	src := &stubTicketSource{tickets: seedTickets(t), gate: make(chan struct{})}
	f := newTicketFixture(t, src, RetryPolicy{Attempts: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.store.FetchTickets(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(f.store.View().Tickets) != 0 {
		t.Error("cancelled fetch populated the store")
	}
}

func TestSearchAndFilterTickets(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, &stubTicketSource{tickets: seedTickets(t)}, RetryPolicy{Attempts: 1})
	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}

	view := f.store.FilterByStatus(ctx, "open")
	if len(view.FilteredTickets) != 3 {
		t.Errorf("open tickets = %d, want 3", len(view.FilteredTickets))
	}
	view = f.store.SearchTickets(ctx, "camera")
	if got := ids(view.FilteredTickets); !equalIDs(got, []int64{1}) {
		t.Errorf("open+camera = %v, want [1]", got)
	}
	view = f.store.FilterByStatus(ctx, AllStatuses)
	if got := ids(view.FilteredTickets); !equalIDs(got, []int64{1, 5}) {
		t.Errorf("camera = %v, want [1 5]", got)
	}
	view = f.store.FilterByApproval(ctx, "approved")
	if got := ids(view.FilteredTickets); !equalIDs(got, []int64{5}) {
		t.Errorf("camera+approved = %v, want [5]", got)
	}
	view = f.store.FilterByApproval(ctx, AllApprovalStatuses)
	if view.Filters.Approval != "" || len(view.FilteredTickets) != 2 {
		t.Errorf("approval sentinel did not clear: %+v", view.Filters)
	}
	if view.Stats.Total != 6 {
		t.Errorf("stats follow filters: %+v", view.Stats)
	}
}

func TestUpdateTicketStatus(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, &stubTicketSource{tickets: seedTickets(t)}, RetryPolicy{Attempts: 1})
	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}

	var statusEvents []events.TicketStatusChangedPayload
	f.disp.Subscribe(events.EventTicketStatusChanged, func(_ context.Context, e events.Event) error {
		statusEvents = append(statusEvents, e.Payload.(events.TicketStatusChangedPayload))
		return nil
	})

	updated, err := f.store.UpdateTicketStatus(ctx, 2, domain.TicketStatusSuspended)
	if err != nil {
		t.Fatalf("UpdateTicketStatus() error = %v", err)
	}
	if updated.Status != domain.TicketStatusSuspended || !updated.UpdatedAt.Equal(testEpoch) {
		t.Errorf("updated = status %q updatedAt %v", updated.Status, updated.UpdatedAt)
	}
	last := updated.Activities[len(updated.Activities)-1]
	change, ok := last.Change.(domain.StatusChanged)
	if !ok || change.From != "Open" || change.To != "Suspended" || last.User != DefaultActor {
		t.Errorf("last activity = %+v", last)
	}
	if last.ID != 2 {
		t.Errorf("activity id = %d, want 2", last.ID)
	}
	if len(statusEvents) != 1 || statusEvents[0].OldStatus != domain.TicketStatusOpen {
		t.Errorf("status events = %+v", statusEvents)
	}
	if got := f.store.View().Stats; got.Suspended != 2 || got.Open != 2 {
		t.Errorf("stats after update = %+v", got)
	}

	_, err = f.store.UpdateTicketStatus(ctx, 2, domain.TicketStatus("done"))
	if !apperrors.HasCode(err, apperrors.CodeInvalidStatus) {
		t.Errorf("invalid status error = %v", err)
	}
	_, err = f.store.UpdateTicketStatus(ctx, 404, domain.TicketStatusClosed)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("unknown id error = %v", err)
	}
}

func TestBulkUpdateTicketsIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, &stubTicketSource{tickets: seedTickets(t)}, RetryPolicy{Attempts: 1})
	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	before := f.store.View().Tickets

	closed := domain.TicketStatusClosed
	bogus := domain.TicketPriority("urgent")
	if _, err := f.store.BulkUpdateTickets(ctx, []int64{1, 2}, domain.TicketPatch{Status: &closed, Priority: &bogus}); !apperrors.HasCode(err, apperrors.CodeInvalidStatus) {
		t.Fatalf("invalid patch error = %v", err)
	}
	for i, tk := range f.store.View().Tickets {
		if tk.Status != before[i].Status || tk.Priority != before[i].Priority {
			t.Fatalf("ticket %d changed by rejected patch", tk.ID)
		}
	}

	if _, err := f.store.BulkUpdateTickets(ctx, []int64{1}, domain.TicketPatch{}); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("empty patch error = %v", err)
	}

	low := domain.TicketPriorityLow
	approved := domain.ApprovalApproved
	n, err := f.store.BulkUpdateTickets(ctx, []int64{1, 3, 999}, domain.TicketPatch{Status: &closed, Priority: &low, ApprovalStatus: &approved})
	if err != nil {
		t.Fatalf("BulkUpdateTickets() error = %v", err)
	}
	if n != 2 {
		t.Errorf("matched = %d, want 2", n)
	}
	for _, tk := range f.store.View().Tickets {
		switch tk.ID {
		case 1, 3:
			if tk.Status != closed || tk.Priority != low || tk.ApprovalStatus != approved {
				t.Errorf("ticket %d not patched: %+v", tk.ID, tk)
			}
			if _, ok := tk.Activities[len(tk.Activities)-1].Change.(domain.StatusChanged); !ok {
				t.Errorf("ticket %d has no status activity", tk.ID)
			}
		case 2:
			if tk.Status != domain.TicketStatusOpen || tk.Priority != domain.TicketPriorityHigh {
				t.Errorf("unlisted ticket 2 changed: %+v", tk)
			}
		}
	}
	if got := ids(f.store.View().Tickets); !equalIDs(got, []int64{2, 4, 5, 1, 3, 6}) {
		t.Errorf("order after bulk update = %v, want [2 4 5 1 3 6]", got)
	}
}

func TestBulkUpdateRecordsTitleAndAssigneeActivities(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, &stubTicketSource{tickets: seedTickets(t)}, RetryPolicy{Attempts: 1})
	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	before, _ := f.store.GetTicketByID(1)

	title := "Camera replaced"
	assignee := domain.Person{ID: 102, Name: "Sara Khan"}
	if _, err := f.store.BulkUpdateTickets(ctx, []int64{1}, domain.TicketPatch{Title: &title, Assignee: &assignee}); err != nil {
		t.Fatalf("BulkUpdateTickets() error = %v", err)
	}
	tk, _ := f.store.GetTicketByID(1)
	if len(tk.Activities) != len(before.Activities)+2 {
		t.Fatalf("activities = %d, want %d", len(tk.Activities), len(before.Activities)+2)
	}
	titled := tk.Activities[len(tk.Activities)-2]
	if got, ok := titled.Change.(domain.TitleChanged); !ok || got.From != before.Title || got.To != title {
		t.Errorf("title activity = %#v", titled.Change)
	}
	reassigned := tk.Activities[len(tk.Activities)-1]
	if got, ok := reassigned.Change.(domain.AssigneeChanged); !ok || got.From != before.Assignee.Name || got.To != "Sara Khan" {
		t.Errorf("assignee activity = %#v", reassigned.Change)
	}
	if reassigned.ID != titled.ID+1 || reassigned.User != DefaultActor {
		t.Errorf("assignee activity id %d user %q", reassigned.ID, reassigned.User)
	}

	if _, err := f.store.BulkUpdateTickets(ctx, []int64{1}, domain.TicketPatch{Title: &title, Assignee: &assignee}); err != nil {
		t.Fatalf("repeat BulkUpdateTickets() error = %v", err)
	}
	if again, _ := f.store.GetTicketByID(1); len(again.Activities) != len(tk.Activities) {
		t.Errorf("unchanged title and assignee recorded %d new activities", len(again.Activities)-len(tk.Activities))
	}
}

func TestGetTicketByID(t *testing.T) {
	f := newTicketFixture(t, &stubTicketSource{tickets: seedTickets(t)}, RetryPolicy{Attempts: 1})
	if _, ok := f.store.GetTicketByID(1); ok {
		t.Fatal("empty store returned a ticket")
	}
	if err := f.store.FetchTickets(context.Background()); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	tk, ok := f.store.GetTicketByID(3)
	if !ok || tk.TicketID != "2579" {
		t.Errorf("GetTicketByID(3) = %+v, %v", tk, ok)
	}
}

func TestRecordConsumption(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, &stubTicketSource{tickets: seedTickets(t)}, RetryPolicy{Attempts: 1})
	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}

	if err := f.store.RecordConsumption(ctx, "2579", domain.InventoryItem{Name: "Router", Quantity: 1}); err != nil {
		t.Fatalf("RecordConsumption() error = %v", err)
	}
	tk, _ := f.store.GetTicketByID(3)
	got := tk.InventoryConsumed[len(tk.InventoryConsumed)-1]
	if got.ID != 3 || got.Name != "Router" || !got.ConsumedDate.Equal(testEpoch) {
		t.Errorf("consumed = %+v", got)
	}

	err := f.store.RecordConsumption(ctx, "nope", domain.InventoryItem{Name: "x"})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("unknown ticket error = %v", err)
	}
}

func TestTicketStorePersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, &stubTicketSource{tickets: seedTickets(t)}, RetryPolicy{Attempts: 1})
	if err := f.store.FetchTickets(ctx); err != nil {
		t.Fatalf("FetchTickets() error = %v", err)
	}
	if _, err := f.store.UpdateTicketStatus(ctx, 4, domain.TicketStatusClosed); err != nil {
		t.Fatalf("UpdateTicketStatus() error = %v", err)
	}
	f.store.Close()

	next := NewTicketStore(TicketDependencies{Repo: f.repo, Source: &stubTicketSource{}, Clock: f.clock})
	defer next.Close()
	if err := next.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	tk, ok := next.GetTicketByID(4)
	if !ok || tk.Status != domain.TicketStatusClosed {
		t.Fatalf("restored ticket 4 = %+v, %v", tk, ok)
	}
	if _, ok := tk.Activities[len(tk.Activities)-1].Change.(domain.StatusChanged); !ok {
		t.Errorf("restored activity type = %T", tk.Activities[len(tk.Activities)-1].Change)
	}
	if next.View().Stats.Total != 6 {
		t.Errorf("restored stats = %+v", next.View().Stats)
	}
}

func TestRestoreDiscardsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, &stubTicketSource{}, RetryPolicy{Attempts: 1})
	if err := f.kv.Set(ctx, "tickets-storage", []byte("{broken")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.store.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if len(f.store.View().Tickets) != 0 {
		t.Error("corrupt snapshot produced tickets")
	}
}

package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticktraq/field-service/internal/clock"
	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/events"
	"github.com/ticktraq/field-service/internal/repository"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// RequestedOnLayout formats the creation date of a request.
const RequestedOnLayout = "January 2, 2006"

// InventorySource supplies reference inventory collections.
type InventorySource interface {
	Requests(ctx context.Context) ([]domain.InventoryRequest, []domain.InventoryCatalogItem, error)
	Received(ctx context.Context) ([]domain.InventoryReleaseItem, error)
	Returns(ctx context.Context) ([]domain.InventoryReturn, error)
}

// InventoryView is a copy of the store state for renderers.
type InventoryView struct {
	Requests      []domain.InventoryRequest     `json:"requests"`
	Catalog       []domain.InventoryCatalogItem `json:"catalog"`
	ReceivedItems []domain.InventoryReleaseItem `json:"receivedItems"`
	Returns       []domain.InventoryReturn      `json:"returns"`
	IsLoading     bool                          `json:"isLoading"`
	Error         string                        `json:"error,omitempty"`
}

// AddRequestInput is the caller-supplied part of a new request.
type AddRequestInput struct {
	RequestedTo string                 `json:"requestedTo"`
	RequestedBy string                 `json:"requestedBy"`
	Items       []domain.RequestedItem `json:"items"`
	ApprovedAt  string                 `json:"approvedAt,omitempty"`
	Remarks     string                 `json:"remarks,omitempty"`
}

// ApplyInput describes where an accepted unit is consumed. Quantity 0
// means the whole issued amount.
type ApplyInput struct {
	TicketID string `json:"ticketId,omitempty"`
	Location string `json:"location,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	Remarks  string `json:"remarks,omitempty"`
}

// ReturnInput is the return form for an accepted unit.
type ReturnInput struct {
	Role     string `json:"role"`
	User     string `json:"user"`
	Project  string `json:"project,omitempty"`
	Location string `json:"location,omitempty"`
	TicketID string `json:"ticketId,omitempty"`
	Remarks  string `json:"remarks,omitempty"`
}

// InventoryDependencies bundles the collaborators of an InventoryStore.
type InventoryDependencies struct {
	Repo       repository.InventoryRepository
	Source     InventorySource
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
	Retry      RetryPolicy
}

// InventoryStore holds requests, catalog, received items and returns.
type InventoryStore struct {
	base
	repo    repository.InventoryRepository
	source  InventorySource
	fetcher *fetcher
	writer  *repository.AsyncWriter[repository.InventorySnapshot]

	mu        sync.Mutex
	requests  []domain.InventoryRequest
	catalog   []domain.InventoryCatalogItem
	received  []domain.InventoryReleaseItem
	returns   []domain.InventoryReturn
	sequences map[string]int
	loading   int
	lastErr   error
}

// NewInventoryStore constructs the store. Call Restore to load persisted state.
func NewInventoryStore(deps InventoryDependencies) *InventoryStore {
	b := newBase("inventory", deps.Dispatcher, deps.Clock, deps.Logger)
	s := &InventoryStore{
		base:      b,
		repo:      deps.Repo,
		source:    deps.Source,
		fetcher:   newFetcher(b.clock, deps.Retry, b.logger),
		sequences: make(map[string]int),
	}
	if deps.Repo != nil {
		s.writer = repository.NewAsyncWriter[repository.InventorySnapshot](deps.Repo, b.logger)
	}
	return s
}

// Restore loads the persisted inventory snapshot.
func (s *InventoryStore) Restore(ctx context.Context) error {
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
	s.mu.Lock()
	s.requests = slices.Clone(snap.Requests)
	s.catalog = slices.Clone(snap.Catalog)
	s.received = slices.Clone(snap.ReceivedItems)
	s.returns = slices.Clone(snap.Returns)
	s.sequences = maps.Clone(snap.Sequences)
	if s.sequences == nil {
		s.sequences = make(map[string]int)
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.logger.Info("inventory restored",
		zap.Int("requests", len(snap.Requests)),
		zap.Int("received", len(snap.ReceivedItems)))
	s.publish(ctx, events.EventInventoryChanged, "restore", view)
	return nil
}

type requestsResult struct {
	requests []domain.InventoryRequest
	catalog  []domain.InventoryCatalogItem
}

// FetchRequests fills requests and catalog from the source where they
// are empty. Populated collections are kept.
func (s *InventoryStore) FetchRequests(ctx context.Context) error {
	s.mu.Lock()
	needed := len(s.requests) == 0 || len(s.catalog) == 0
	s.mu.Unlock()
	if !needed {
		return nil
	}
	return fetchInto(ctx, s, "requests", func(ctx context.Context) (requestsResult, error) {
		reqs, catalog, err := s.source.Requests(ctx)
		return requestsResult{requests: reqs, catalog: catalog}, err
	}, func(res requestsResult) {
		if len(s.requests) == 0 {
			s.requests = slices.Clone(res.requests)
		}
		if len(s.catalog) == 0 {
			s.catalog = slices.Clone(res.catalog)
		}
	})
}

// FetchReceived fills the received items from the source if empty.
func (s *InventoryStore) FetchReceived(ctx context.Context) error {
	s.mu.Lock()
	needed := len(s.received) == 0
	s.mu.Unlock()
	if !needed {
		return nil
	}
	return fetchInto(ctx, s, "received", s.source.Received, func(items []domain.InventoryReleaseItem) {
		if len(s.received) == 0 {
			s.received = slices.Clone(items)
		}
	})
}

// FetchReturns fills the returns from the source if empty.
func (s *InventoryStore) FetchReturns(ctx context.Context) error {
	s.mu.Lock()
	needed := len(s.returns) == 0
	s.mu.Unlock()
	if !needed {
		return nil
	}
	return fetchInto(ctx, s, "returns", s.source.Returns, func(items []domain.InventoryReturn) {
		if len(s.returns) == 0 {
			s.returns = slices.Clone(items)
		}
	})
}

// fetchInto loads one collection through the shared fetcher. fill runs
// with the lock held.
func fetchInto[T any](ctx context.Context, s *InventoryStore, key string, load func(context.Context) (T, error), fill func(T)) error {
	s.mu.Lock()
	s.loading++
	s.lastErr = nil
	s.mu.Unlock()

	res, err := fetchTyped(ctx, s.fetcher, key, load)

	s.mu.Lock()
	s.loading--
	if err != nil {
		s.lastErr = apperrors.NewFetchFailed(key, err)
		fetchErr := s.lastErr
		view := s.viewLocked()
		s.mu.Unlock()
		s.logger.Error("inventory fetch failed", zap.String("collection", key), zap.Error(err))
		s.publish(ctx, events.EventInventoryChanged, "fetch_"+key, view)
		return fetchErr
	}
	fill(res)
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.publish(ctx, events.EventInventoryChanged, "fetch_"+key, view)
	return nil
}

// AddRequest validates input and prepends a new Pending request.
func (s *InventoryStore) AddRequest(ctx context.Context, input AddRequestInput) (domain.InventoryRequest, error) {
	items, err := validateRequestInput(input)
	if err != nil {
		return domain.InventoryRequest{}, err
	}

	s.mu.Lock()
	now := s.clock.Now()
	requester := strings.TrimSpace(input.RequestedBy)
	s.sequences[requester]++
	req := domain.InventoryRequest{
		ID:            uuid.NewString(),
		RequestNumber: fmt.Sprintf("REQ-%d-%d", now.UnixMilli(), s.sequences[requester]),
		RequestedTo:   strings.TrimSpace(input.RequestedTo),
		RequestedBy:   requester,
		RequestedOn:   now.Format(RequestedOnLayout),
		Items:         items,
		Status:        domain.RequestStatusPending,
		ApprovedAt:    input.ApprovedAt,
		Remarks:       input.Remarks,
	}
	s.requests = append([]domain.InventoryRequest{req}, s.requests...)
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.logger.Info("inventory request added",
		zap.String("request_number", req.RequestNumber),
		zap.Int("items", len(req.Items)))
	s.publish(ctx, events.EventInventoryChanged, "add_request", view)
	return req, nil
}

// DeleteRequest removes the request with the given id.
func (s *InventoryStore) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.requests, func(r domain.InventoryRequest) bool { return r.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFound("inventory request", map[string]any{"id": id})
	}
	s.requests = slices.Delete(slices.Clone(s.requests), idx, idx+1)
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.publish(ctx, events.EventInventoryChanged, "delete_request", view)
	return nil
}

// AcceptItem moves a Released unit to Accept.
func (s *InventoryStore) AcceptItem(ctx context.Context, id string) (domain.InventoryReleaseItem, error) {
	s.mu.Lock()
	idx, err := s.receivedInStateLocked(id, domain.ReleaseStatusReleased, domain.ReleaseStatusAccept)
	if err != nil {
		s.mu.Unlock()
		return domain.InventoryReleaseItem{}, err
	}
	s.received = slices.Clone(s.received)
	s.received[idx].Status = domain.ReleaseStatusAccept
	item := s.received[idx]
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.publish(ctx, events.EventInventoryChanged, "accept_item", view)
	return item, nil
}

// ApplyItem consumes an accepted unit. A partial quantity lowers the
// issued count and keeps the unit; the rest removes it from the received
// set. The destination travels on an inventory_item_applied event.
func (s *InventoryStore) ApplyItem(ctx context.Context, id string, input ApplyInput) error {
	input.TicketID = strings.TrimSpace(input.TicketID)
	input.Location = strings.TrimSpace(input.Location)
	if input.TicketID == "" && input.Location == "" {
		return apperrors.NewValidationError("ticket or location is required", map[string]any{"field": "ticketId"})
	}
	if input.Quantity < 0 {
		return apperrors.NewValidationError("quantity must not be negative", map[string]any{"field": "quantity"})
	}

	s.mu.Lock()
	idx, err := s.receivedInStateLocked(id, domain.ReleaseStatusAccept, "Applied")
	if err != nil {
		s.mu.Unlock()
		return err
	}
	item := s.received[idx]
	qty := input.Quantity
	if qty == 0 {
		qty = max(item.Issued, 1)
	}
	if item.Issued > 0 && qty > item.Issued {
		s.mu.Unlock()
		return apperrors.NewValidationError("quantity exceeds issued amount",
			map[string]any{"field": "quantity", "issued": item.Issued})
	}
	s.received = slices.Clone(s.received)
	if qty < item.Issued {
		s.received[idx].Issued -= qty
	} else {
		s.received = slices.Delete(s.received, idx, idx+1)
	}
	now := s.clock.Now()
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.logger.Info("inventory item applied",
		zap.String("item_id", item.ID),
		zap.String("ticket_id", input.TicketID),
		zap.Int("quantity", qty))
	s.publish(ctx, events.EventInventoryItemApplied, "apply_item", events.ItemAppliedPayload{
		Item:     item,
		TicketID: input.TicketID,
		Location: input.Location,
		Quantity: qty,
		Remarks:  input.Remarks,
		At:       now,
	})
	s.publish(ctx, events.EventInventoryChanged, "apply_item", view)
	return nil
}

// ReturnItem sends an accepted unit back. The unit is left in Pending.
func (s *InventoryStore) ReturnItem(ctx context.Context, id string, input ReturnInput) (domain.InventoryReleaseItem, error) {
	if strings.TrimSpace(input.Role) == "" || strings.TrimSpace(input.User) == "" {
		return domain.InventoryReleaseItem{}, apperrors.NewValidationError("role and user are required",
			map[string]any{"fields": []string{"role", "user"}})
	}

	s.mu.Lock()
	idx, err := s.receivedInStateLocked(id, domain.ReleaseStatusAccept, domain.ReleaseStatusPending)
	if err != nil {
		s.mu.Unlock()
		return domain.InventoryReleaseItem{}, err
	}
	s.received = slices.Clone(s.received)
	s.received[idx].Status = domain.ReleaseStatusPending
	item := s.received[idx]
	snap := s.snapshotLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.publish(ctx, events.EventInventoryItemReturn, "return_item", events.ItemReturnedPayload{
		ItemID:   item.ID,
		Role:     input.Role,
		User:     input.User,
		Project:  input.Project,
		Location: input.Location,
		TicketID: input.TicketID,
		Remarks:  input.Remarks,
	})
	s.publish(ctx, events.EventInventoryChanged, "return_item", view)
	return item, nil
}

// SearchCatalog matches catalog entries by name or code, case-insensitively.
func (s *InventoryStore) SearchCatalog(query string) []domain.InventoryCatalogItem {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.InventoryCatalogItem, 0, len(s.catalog))
	for _, item := range s.catalog {
		if q == "" || strings.Contains(strings.ToLower(item.Name), q) || strings.Contains(strings.ToLower(item.Code), q) {
			out = append(out, item)
		}
	}
	return out
}

// View returns the current state.
func (s *InventoryStore) View() InventoryView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Close flushes the pending snapshot.
func (s *InventoryStore) Close() {
	if s.writer != nil {
		s.writer.Close()
	}
}

// receivedInStateLocked finds a received unit and checks that it is in
// want before moving to next.
func (s *InventoryStore) receivedInStateLocked(id string, want, next domain.ReleaseStatus) (int, error) {
	idx := slices.IndexFunc(s.received, func(item domain.InventoryReleaseItem) bool { return item.ID == id })
	if idx < 0 {
		return -1, apperrors.NewNotFound("received item", map[string]any{"id": id})
	}
	if cur := s.received[idx].Status; cur != want {
		return -1, apperrors.NewInvalidTransition("received item", string(cur), string(next))
	}
	return idx, nil
}

func (s *InventoryStore) snapshotLocked() repository.InventorySnapshot {
	return repository.InventorySnapshot{
		Requests:      slices.Clone(s.requests),
		Catalog:       slices.Clone(s.catalog),
		ReceivedItems: slices.Clone(s.received),
		Returns:       slices.Clone(s.returns),
		Sequences:     maps.Clone(s.sequences),
	}
}

func (s *InventoryStore) viewLocked() InventoryView {
	view := InventoryView{
		Requests:      nonNil(slices.Clone(s.requests)),
		Catalog:       nonNil(slices.Clone(s.catalog)),
		ReceivedItems: nonNil(slices.Clone(s.received)),
		Returns:       nonNil(slices.Clone(s.returns)),
		IsLoading:     s.loading > 0,
	}
	if s.lastErr != nil {
		view.Error = s.lastErr.Error()
	}
	return view
}

func (s *InventoryStore) persist(snap repository.InventorySnapshot) {
	if s.writer != nil {
		s.writer.Submit(snap)
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func validateRequestInput(input AddRequestInput) ([]domain.RequestedItem, error) {
	if strings.TrimSpace(input.RequestedTo) == "" {
		return nil, apperrors.NewValidationError("requestedTo is required", map[string]any{"field": "requestedTo"})
	}
	if strings.TrimSpace(input.RequestedBy) == "" {
		return nil, apperrors.NewValidationError("requestedBy is required", map[string]any{"field": "requestedBy"})
	}
	if len(input.Items) == 0 {
		return nil, apperrors.NewValidationError("at least one item is required", map[string]any{"field": "items"})
	}
	seen := make(map[string]struct{}, len(input.Items))
	items := make([]domain.RequestedItem, 0, len(input.Items))
	for i, item := range input.Items {
		code := strings.TrimSpace(item.ItemCode)
		if code == "" {
			return nil, apperrors.NewValidationError("item code is required", map[string]any{"index": i})
		}
		if _, dup := seen[code]; dup {
			return nil, apperrors.NewValidationError("duplicate item code", map[string]any{"itemCode": code})
		}
		seen[code] = struct{}{}
		if item.Quantity < 1 {
			return nil, apperrors.NewValidationError("quantity must be at least 1", map[string]any{"itemCode": code})
		}
		item.ItemCode = code
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Status == "" {
			item.Status = domain.RequestStatusPending
		}
		items = append(items, item)
	}
	return items, nil
}

package service

import (
	"context"
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

// New timesheet rows start with these values.
const (
	DefaultLogStart = "09:00 AM"
	DefaultLogEnd   = "05:00 PM"
)

// LogsView is a copy of the timesheet state.
type LogsView struct {
	Logs        []domain.DailyLog  `json:"logs"`
	Filtered    []domain.DailyLog  `json:"filtered"`
	Overview    domain.LogOverview `json:"overview"`
	SearchQuery string             `json:"searchQuery"`
}

// LogsDependencies bundles the collaborators and seed data of a LogsStore.
type LogsDependencies struct {
	Repo       repository.LogsRepository
	Logs       []domain.DailyLog
	Overview   domain.LogOverview
	Sites      []domain.Site
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// LogsStore holds daily log rows and their edit state.
type LogsStore struct {
	base
	repo   repository.LogsRepository
	writer *repository.AsyncWriter[repository.LogsSnapshot]
	sites  map[string]string

	mu       sync.Mutex
	logs     []domain.DailyLog
	overview domain.LogOverview
	query    string
	// editing holds the row as it was when BeginEdit was called.
	editing map[string]domain.DailyLog
}

// NewLogsStore constructs the store seeded with deps.Logs.
func NewLogsStore(deps LogsDependencies) *LogsStore {
	s := &LogsStore{
		base:     newBase("logs", deps.Dispatcher, deps.Clock, deps.Logger),
		repo:     deps.Repo,
		sites:    make(map[string]string, len(deps.Sites)),
		logs:     slices.Clone(deps.Logs),
		overview: deps.Overview,
		editing:  make(map[string]domain.DailyLog),
	}
	for _, site := range deps.Sites {
		s.sites[site.Value] = site.Label
	}
	if deps.Repo != nil {
		s.writer = repository.NewAsyncWriter[repository.LogsSnapshot](deps.Repo, s.logger)
	}
	return s
}

// Restore replaces the seed rows with the persisted snapshot, if any.
// Unsaved new rows are dropped and edit flags cleared.
func (s *LogsStore) Restore(ctx context.Context) error {
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
	logs := make([]domain.DailyLog, 0, len(snap.Logs))
	for _, l := range snap.Logs {
		if l.IsNew {
			continue
		}
		l.IsEditing = false
		logs = append(logs, l)
	}

	s.mu.Lock()
	s.logs = logs
	s.editing = make(map[string]domain.DailyLog)
	view := s.viewLocked()
	s.mu.Unlock()

	s.logger.Info("logs restored", zap.Int("count", len(logs)))
	s.publish(ctx, events.EventLogsChanged, "restore", view)
	return nil
}

// SetSearchQuery sets the row filter text.
func (s *LogsStore) SetSearchQuery(ctx context.Context, query string) LogsView {
	s.mu.Lock()
	s.query = query
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(ctx, events.EventLogsChanged, "search", view)
	return view
}

// Filtered returns rows matching the search query on ticket id,
// remarks, approval status or site label.
func (s *LogsStore) Filtered() []domain.DailyLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredLocked()
}

// AddLogRow prepends a blank row in edit mode.
func (s *LogsStore) AddLogRow(ctx context.Context) domain.DailyLog {
	row := domain.DailyLog{
		ID:           uuid.NewString(),
		WorkDate:     s.clock.Now(),
		ActivityCode: domain.ActivityCodeTR,
		StartTime:    DefaultLogStart,
		EndTime:      DefaultLogEnd,
		RemoteVisit:  domain.No,
		HotelStay:    domain.No,
		IsEditing:    true,
		IsNew:        true,
	}
	s.mu.Lock()
	s.logs = append([]domain.DailyLog{row}, s.logs...)
	s.commitLocked(ctx, "add_row")
	return row
}

// UpdateLogRow applies patch to one row.
func (s *LogsStore) UpdateLogRow(ctx context.Context, id string, patch domain.DailyLogPatch) (domain.DailyLog, error) {
	if patch.ActivityCode != nil && !validActivityCode(*patch.ActivityCode) {
		return domain.DailyLog{}, apperrors.NewInvalidStatus("activityCode", string(*patch.ActivityCode))
	}
	if patch.RemoteVisit != nil && !validYesNo(*patch.RemoteVisit) {
		return domain.DailyLog{}, apperrors.NewInvalidStatus("remoteVisit", string(*patch.RemoteVisit))
	}
	if patch.HotelStay != nil && !validYesNo(*patch.HotelStay) {
		return domain.DailyLog{}, apperrors.NewInvalidStatus("hotelStay", string(*patch.HotelStay))
	}

	var updated domain.DailyLog
	err := s.mutate(ctx, id, "update_row", func(idx int) {
		s.logs[idx] = patch.Apply(s.logs[idx])
		updated = s.logs[idx]
	})
	return updated, err
}

// DeleteLogRow removes one row.
func (s *LogsStore) DeleteLogRow(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "delete_row", func(idx int) {
		s.logs = slices.Delete(s.logs, idx, idx+1)
		delete(s.editing, id)
	})
}

// SaveLogRow leaves edit mode keeping the current values.
func (s *LogsStore) SaveLogRow(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "save_row", func(idx int) {
		s.logs[idx].IsEditing = false
		s.logs[idx].IsNew = false
		delete(s.editing, id)
	})
}

// BeginEdit enters edit mode and remembers the row for CancelEdit.
// Calling it on a row already in edit mode keeps the first copy.
func (s *LogsStore) BeginEdit(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "begin_edit", func(idx int) {
		row := s.logs[idx]
		if _, ok := s.editing[id]; !ok && !row.IsNew {
			s.editing[id] = row
		}
		s.logs[idx].IsEditing = true
	})
}

// CancelEdit discards a new row, or restores an existing row to its
// state at BeginEdit.
func (s *LogsStore) CancelEdit(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "cancel_edit", func(idx int) {
		row := s.logs[idx]
		switch original, ok := s.editing[id]; {
		case row.IsNew:
			s.logs = slices.Delete(s.logs, idx, idx+1)
		case ok:
			original.IsEditing = false
			s.logs[idx] = original
		default:
			s.logs[idx].IsEditing = false
		}
		delete(s.editing, id)
	})
}

// AttachDocument records an attachment name on a row.
func (s *LogsStore) AttachDocument(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError("attachment name is required", map[string]any{"field": "name"})
	}
	return s.mutate(ctx, id, "attach_document", func(idx int) {
		s.logs[idx].HasAttachment = true
		s.logs[idx].AttachmentName = name
	})
}

// View returns the current state.
func (s *LogsStore) View() LogsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Close flushes the pending snapshot.
func (s *LogsStore) Close() {
	if s.writer != nil {
		s.writer.Close()
	}
}

// mutate runs fn on a private copy of the rows with the row index of id.
func (s *LogsStore) mutate(ctx context.Context, id, op string, fn func(idx int)) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.logs, func(l domain.DailyLog) bool { return l.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFound("daily log", map[string]any{"id": id})
	}
	s.logs = slices.Clone(s.logs)
	fn(idx)
	s.commitLocked(ctx, op)
	return nil
}

// commitLocked persists and publishes; it releases the lock.
func (s *LogsStore) commitLocked(ctx context.Context, op string) {
	snap := repository.LogsSnapshot{Logs: slices.Clone(s.logs)}
	view := s.viewLocked()
	s.mu.Unlock()

	if s.writer != nil {
		s.writer.Submit(snap)
	}
	s.publish(ctx, events.EventLogsChanged, op, view)
}

func (s *LogsStore) filteredLocked() []domain.DailyLog {
	q := strings.ToLower(strings.TrimSpace(s.query))
	out := make([]domain.DailyLog, 0, len(s.logs))
	for _, l := range s.logs {
		if q == "" || s.matches(l, q) {
			out = append(out, l)
		}
	}
	return out
}

func (s *LogsStore) matches(l domain.DailyLog, q string) bool {
	ticketID := ""
	if l.TicketID != nil {
		ticketID = *l.TicketID
	}
	for _, field := range []string{ticketID, l.Remarks, l.ApprovalStatus, s.sites[l.SiteID]} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (s *LogsStore) viewLocked() LogsView {
	return LogsView{
		Logs:        nonNil(slices.Clone(s.logs)),
		Filtered:    s.filteredLocked(),
		Overview:    s.overview,
		SearchQuery: s.query,
	}
}

func validActivityCode(c domain.ActivityCode) bool {
	switch c {
	case domain.ActivityCodeTR, domain.ActivityCodePM, domain.ActivityCodeWF, domain.ActivityCodeOther:
		return true
	}
	return false
}

func validYesNo(v domain.YesNo) bool {
	return v == domain.Yes || v == domain.No
}

package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ticktraq/field-service/internal/auth"
	"github.com/ticktraq/field-service/internal/clock"
	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/events"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// SessionView is the signed-in state.
type SessionView struct {
	User            *domain.User `json:"user"`
	Token           string       `json:"token,omitempty"`
	ExpiresAt       *time.Time   `json:"expiresAt,omitempty"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// SessionDependencies bundles the collaborators of a SessionStore.
type SessionDependencies struct {
	User       domain.User
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// SessionStore is a mocked session. Every login succeeds as the demo user.
type SessionStore struct {
	base
	user   domain.User
	tokens *auth.TokenManager

	mu      sync.Mutex
	current SessionView
}

// NewSessionStore constructs a signed-out store.
func NewSessionStore(deps SessionDependencies) *SessionStore {
	return &SessionStore{
		base:   newBase("session", deps.Dispatcher, deps.Clock, deps.Logger),
		user:   deps.User,
		tokens: deps.Tokens,
	}
}

// Login signs in as the demo user. Credentials are not checked.
func (s *SessionStore) Login(ctx context.Context, email, _ string) (SessionView, error) {
	token, exp, err := s.tokens.GenerateToken(s.user)
	if err != nil {
		return SessionView{}, apperrors.NewInternalError(err)
	}
	user := s.user
	view := SessionView{User: &user, Token: token, ExpiresAt: &exp, IsAuthenticated: true}

	s.mu.Lock()
	s.current = view
	s.mu.Unlock()

	s.logger.Info("session started", zap.String("requested_email", strings.TrimSpace(email)))
	s.publish(ctx, events.EventSessionChanged, "login", view)
	return view, nil
}

// Logout clears the session.
func (s *SessionStore) Logout(ctx context.Context) SessionView {
	s.mu.Lock()
	s.current = SessionView{}
	s.mu.Unlock()

	s.publish(ctx, events.EventSessionChanged, "logout", SessionView{})
	return SessionView{}
}

// CheckAuth restores the demo user. A live token is kept.
func (s *SessionStore) CheckAuth(ctx context.Context) SessionView {
	s.mu.Lock()
	user := s.user
	s.current.User = &user
	s.current.IsAuthenticated = true
	view := s.current
	s.mu.Unlock()

	s.publish(ctx, events.EventSessionChanged, "check_auth", view)
	return view
}

// View returns the current session.
func (s *SessionStore) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

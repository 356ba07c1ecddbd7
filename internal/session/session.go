// Package session holds the signed-in state of the storefront: the bearer
// token, the current user and the lifecycle between them.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/logger"
)

var expirationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_session_expirations_total",
		Help: "Sessions moved to expired, by cause",
	},
	[]string{"reason"},
)

// State is a point in the session lifecycle.
type State int

// Session lifecycle: anonymous -> authenticating -> authenticated -> expired.
const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Checker validates a token against the backend.
type Checker interface {
	CheckAuth(ctx context.Context, token string) (domain.User, error)
}

// Session is the explicit auth context threaded through the storefront. It
// is safe for concurrent use.
type Session struct {
	store   TokenStore
	checker Checker
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state State
	token string
	user  domain.User
}

// New creates an anonymous session.
func New(store TokenStore, checker Checker, log *slog.Logger) *Session {
	return &Session{store: store, checker: checker, logger: log, now: time.Now}
}

// Restore resumes a persisted session. A token whose claims are already
// expired is dropped without a network call; otherwise the backend checks
// it. Any failure clears the token and leaves the session expired.
func (s *Session) Restore(ctx context.Context) State {
	log := logger.WithContext(ctx, s.logger)

	token, err := s.store.Load(ctx)
	if err != nil {
		log.WarnContext(ctx, "loading stored token failed", slog.String("error", err.Error()))
		return s.State()
	}
	if token == "" {
		s.set(Anonymous, "", domain.User{})
		return Anonymous
	}

	if exp, ok := tokenExpiry(token); ok && !s.now().Before(exp) {
		log.InfoContext(ctx, "stored token expired", slog.Time("expires_at", exp))
		s.expire(ctx, "token_expired")
		return Expired
	}

	s.set(Authenticating, "", domain.User{})
	user, err := s.checker.CheckAuth(ctx, token)
	if err != nil {
		log.InfoContext(ctx, "stored token rejected", slog.String("error", err.Error()))
		s.expire(ctx, "check_failed")
		return Expired
	}

	s.set(Authenticated, token, user)
	log.InfoContext(ctx, "session restored", slog.Int64("user_id", user.ID))
	return Authenticated
}

// SignIn records a successful sign-in and persists the token. The session
// is authenticated even when persisting fails.
func (s *Session) SignIn(ctx context.Context, user domain.User, token string) error {
	s.set(Authenticated, token, user)
	if err := s.store.Save(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// SignOut forgets the token and user.
func (s *Session) SignOut(ctx context.Context) error {
	s.set(Anonymous, "", domain.User{})
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Expire drops the session after the backend rejected token. A rejection of
// any token other than the current one is ignored.
func (s *Session) Expire(ctx context.Context, token string) {
	s.mu.Lock()
	if s.state != Authenticated || token == "" || token != s.token {
		s.mu.Unlock()
		return
	}
	s.state, s.token, s.user = Expired, "", domain.User{}
	s.mu.Unlock()

	logger.WithContext(ctx, s.logger).InfoContext(ctx, "session expired by backend")
	expirationsTotal.WithLabelValues("rejected").Inc()
	if err := s.store.Clear(ctx); err != nil {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "clearing stored token failed", slog.String("error", err.Error()))
	}
}

func (s *Session) expire(ctx context.Context, reason string) {
	s.set(Expired, "", domain.User{})
	expirationsTotal.WithLabelValues(reason).Inc()
	if err := s.store.Clear(ctx); err != nil {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "clearing stored token failed", slog.String("error", err.Error()))
	}
}

func (s *Session) set(state State, token string, user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, s.token, s.user = state, token, user
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the bearer token of an authenticated session, else "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated {
		return ""
	}
	return s.token
}

// User returns the signed-in user.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated {
		return domain.User{}, false
	}
	return s.user, true
}

// IsAuthenticated reports whether a user is signed in. Expired sessions
// present as anonymous.
func (s *Session) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// CanManageCatalog gates the product, category and filter panels.
func (s *Session) CanManageCatalog() bool {
	u, ok := s.User()
	return ok && (u.Role == domain.RoleAdmin || u.Role == domain.RoleOwner)
}

// CanManageUsers gates user management.
func (s *Session) CanManageUsers() bool {
	u, ok := s.User()
	return ok && u.Role == domain.RoleOwner
}

// Context returns ctx carrying the signed-in user's id for log enrichment.
func (s *Session) Context(ctx context.Context) context.Context {
	if u, ok := s.User(); ok {
		return logger.WithUserID(ctx, strconv.FormatInt(u.ID, 10))
	}
	return ctx
}

// tokenExpiry reads the exp claim of token without verifying its signature.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

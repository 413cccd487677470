package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ikkahin/hra/internal/domain"
)

var (
	ErrMissingCredentials = errors.New("employee id and password are required")
	ErrNoToken            = errors.New("login response carried no token")
)

// Authenticator checks credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, employeeID, password string) (*domain.LoginResult, error)
}

type ChangeKind int

const (
	ChangeLogin ChangeKind = iota
	ChangeLogout
	ChangeExpired
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeLogin:
		return "login"
	case ChangeLogout:
		return "logout"
	case ChangeExpired:
		return "expired"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change is delivered to listeners after every session transition. Session
// is the new session for ChangeLogin and the one that ended otherwise.
type Change struct {
	Kind    ChangeKind
	Session domain.Session
}

// Manager is the single source of truth for "who is signed in". It is safe
// for concurrent use.
type Manager struct {
	store  *Store
	auth   Authenticator
	logger *slog.Logger

	mu        sync.RWMutex
	current   domain.Session
	authed    bool
	listeners map[int]func(Change)
	nextID    int
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager hydrates from store. A corrupted record is logged and removed;
// it never fails construction.
func NewManager(ctx context.Context, store *Store, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		auth:      auth,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		listeners: make(map[int]func(Change)),
	}
	for _, o := range opts {
		o(m)
	}

	sess, ok, err := store.Load(ctx)
	switch {
	case err != nil:
		m.logger.WarnContext(ctx, "session_hydrate_failed", "error", err)
	case ok:
		m.current = sess
		m.authed = true
		m.logger.DebugContext(ctx, "session_hydrated", "employee_id", sess.EmployeeID, "role", sess.Role)
	}
	return m
}

// SetAuthenticator wires the backend after construction. The API client
// needs the manager for its token source, so one of the two is built first.
func (m *Manager) SetAuthenticator(auth Authenticator) {
	m.mu.Lock()
	m.auth = auth
	m.mu.Unlock()
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authed
}

func (m *Manager) CurrentUser() (domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.authed
}

func (m *Manager) Role() domain.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Role
}

// Token returns the credential for the next request, read from the durable
// entry so other processes sharing the store see the same value.
func (m *Manager) Token(ctx context.Context) (string, error) {
	return m.store.Token(ctx)
}

// Login reports whether the credentials were accepted. Any failure leaves
// the existing session untouched.
func (m *Manager) Login(ctx context.Context, employeeID, password string) bool {
	return m.SignIn(ctx, employeeID, password) == nil
}

// SignIn is Login with the failure reason.
func (m *Manager) SignIn(ctx context.Context, employeeID, password string) error {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" || password == "" {
		return ErrMissingCredentials
	}

	m.mu.RLock()
	auth := m.auth
	m.mu.RUnlock()
	if auth == nil {
		return errors.New("no authenticator configured")
	}

	res, err := auth.Login(ctx, employeeID, password)
	if err != nil {
		m.logger.WarnContext(ctx, "login_failed", "employee_id", employeeID, "error", err)
		return err
	}
	sess, err := sessionFrom(res, employeeID)
	if err != nil {
		m.logger.WarnContext(ctx, "login_rejected", "employee_id", employeeID, "error", err)
		return err
	}
	if err := m.store.Save(ctx, sess); err != nil {
		m.logger.ErrorContext(ctx, "login_persist_failed", "employee_id", employeeID, "error", err)
		return fmt.Errorf("persisting session: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.authed = true
	m.mu.Unlock()

	m.audit(ctx, sess.EmployeeID, "login", string(sess.Role))
	m.logger.InfoContext(ctx, "login", "employee_id", sess.EmployeeID, "role", sess.Role)
	m.notify(Change{Kind: ChangeLogin, Session: sess})
	return nil
}

func sessionFrom(res *domain.LoginResult, fallbackID string) (domain.Session, error) {
	if res == nil || res.Token == "" {
		return domain.Session{}, ErrNoToken
	}
	role, err := domain.ParseRole(res.Role)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		EmployeeID: domain.CoalesceStr(res.EmployeeID, fallbackID),
		Role:       role,
		Token:      res.Token,
		ExpiresAt:  tokenExpiry(res.Token),
	}, nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client holds no key; the value is only shown to the user.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time.UTC()
	return &t
}

// Logout clears memory and both durable entries. It is idempotent.
func (m *Manager) Logout(ctx context.Context) {
	prev, was := m.clear(ctx, "logout")
	if was {
		m.logger.InfoContext(ctx, "logout", "employee_id", prev.EmployeeID)
		m.notify(Change{Kind: ChangeLogout, Session: prev})
	}
}

// HandleUnauthorized is the global reaction to a 401. Only the first call
// for an active session clears it and returns true; later calls are no-ops.
func (m *Manager) HandleUnauthorized(ctx context.Context) bool {
	prev, was := m.clear(ctx, "expired")
	if !was {
		return false
	}
	m.logger.WarnContext(ctx, "session_expired", "employee_id", prev.EmployeeID)
	m.notify(Change{Kind: ChangeExpired, Session: prev})
	return true
}

func (m *Manager) clear(ctx context.Context, kind string) (domain.Session, bool) {
	m.mu.Lock()
	prev, was := m.current, m.authed
	m.current = domain.Session{}
	m.authed = false
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.logger.ErrorContext(ctx, "session_clear_failed", "kind", kind, "error", err)
	}
	if was {
		m.audit(ctx, prev.EmployeeID, kind, "")
	}
	return prev, was
}

// audit appends to the session history. The transition itself has already
// happened, so a failed write is only logged.
func (m *Manager) audit(ctx context.Context, employeeID, kind, detail string) {
	if err := m.store.record(ctx, employeeID, kind, detail); err != nil {
		m.logger.WarnContext(ctx, "session_audit_failed", "employee_id", employeeID, "kind", kind, "error", err)
	}
}

// OnChange registers fn for session transitions and returns its cancel.
func (m *Manager) OnChange(fn func(Change)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) notify(c Change) {
	m.mu.RLock()
	fns := make([]func(Change), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Store returns the backing store, used for the transition history.
func (m *Manager) Store() *Store {
	return m.store
}

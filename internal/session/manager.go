// Package session drives the login lifecycle on top of a credentials.Store: login,
// registration, logout, start-up hydration and reacting to sessions the request pipeline
// gave up on.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/florianilch/fleetflow-client/internal/credentials"
	"github.com/florianilch/fleetflow-client/internal/fleetapi"
)

// State is whether a session is currently held.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Event announces a state change. Cause is set when the session was lost involuntarily.
type Event struct {
	State State
	User  *credentials.Principal
	Cause error
}

// API is the subset of the backend client the manager needs.
type API interface {
	Login(ctx context.Context, req fleetapi.LoginRequest) (*fleetapi.AuthResult, error)
	Register(ctx context.Context, req fleetapi.RegisterRequest) (*fleetapi.AuthResult, error)
	Me(ctx context.Context) (*fleetapi.User, error)
}

// Manager owns session transitions and fans them out to subscribers.
type Manager struct {
	store *credentials.Store
	api   API

	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
}

// NewManager creates a manager over store. api should send authenticated calls through
// the request pipeline.
func NewManager(store *credentials.Store, api API) *Manager {
	return &Manager{
		store:       store,
		api:         api,
		subscribers: make(map[int]chan Event),
	}
}

// Login exchanges credentials for a session. On failure the current session is untouched.
func (m *Manager) Login(ctx context.Context, username, password string) (*credentials.Principal, error) {
	res, err := m.api.Login(ctx, fleetapi.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, res)
}

// Register creates an account and logs into it.
func (m *Manager) Register(ctx context.Context, req fleetapi.RegisterRequest) (*credentials.Principal, error) {
	res, err := m.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, res)
}

func (m *Manager) establish(ctx context.Context, res *fleetapi.AuthResult) (*credentials.Principal, error) {
	principal := principalFrom(res.User)
	err := m.store.Set(ctx, credentials.Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Principal:    &principal,
	})
	if err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	slog.InfoContext(ctx, "logged in", "user", principal.Username, "role", principal.Role)
	m.publish(Event{State: Authenticated, User: &principal})
	return &principal, nil
}

// Logout drops the local session. The backend keeps no session state to revoke.
func (m *Manager) Logout(ctx context.Context) {
	if m.store.Clear(ctx) {
		slog.InfoContext(ctx, "logged out")
		m.publish(Event{State: Unauthenticated})
	}
}

// Hydrate resolves the principal for a session loaded from persistent storage. Any
// failure discards that session.
func (m *Manager) Hydrate(ctx context.Context) error {
	current, ok := m.store.Get()
	if !ok {
		return nil
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		if m.store.Invalidate(ctx, current.RefreshToken) {
			m.publish(Event{State: Unauthenticated, Cause: err})
		}
		return fmt.Errorf("restoring session: %w", err)
	}

	principal := principalFrom(*user)
	if !m.store.SetPrincipal(principal) {
		return nil
	}
	slog.DebugContext(ctx, "session restored", "user", principal.Username)
	m.publish(Event{State: Authenticated, User: &principal})
	return nil
}

// HandleSessionInvalidated is the pipeline's invalidation callback. It never blocks.
func (m *Manager) HandleSessionInvalidated(ctx context.Context, cause error) {
	slog.InfoContext(ctx, "session expired, login required", "cause", cause)
	m.publish(Event{State: Unauthenticated, Cause: cause})
}

// User returns the logged-in principal, or nil.
func (m *Manager) User() *credentials.Principal {
	current, ok := m.store.Get()
	if !ok {
		return nil
	}
	return current.Principal
}

// State reports whether the store currently holds a session.
func (m *Manager) State() State {
	if _, ok := m.store.Get(); ok {
		return Authenticated
	}
	return Unauthenticated
}

// Subscribe delivers state changes until ctx is done, then closes the channel. A slow
// subscriber only ever sees the latest event.
func (m *Manager) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = ch
	m.mu.Unlock()

	context.AfterFunc(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
		close(ch)
	})
	return ch
}

func (m *Manager) publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// Replace the stale event. Only publishers send, and they hold mu.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func principalFrom(u fleetapi.User) credentials.Principal {
	return credentials.Principal{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}

// Package credentials holds the process-wide session: the access and refresh tokens plus
// the authenticated principal.
//
// A Store is constructed explicitly and passed to everything that needs it. Each call is
// atomic with respect to every other call; there are no cross-call transactions. Only the
// two tokens are persisted, the principal is resolved again after a restart.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/florianilch/fleetflow-client/internal/tokenstore"
)

// persistedSession is the on-disk representation of a Session.
type persistedSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store is the single source of truth for the current Session.
type Store struct {
	persist tokenstore.TokenStore

	mu      sync.RWMutex
	session Session

	// writeMu serializes mutations so persisted state follows in-memory order.
	writeMu sync.Mutex
}

// Compile-time check to ensure Store implements oauth2.TokenSource
var _ oauth2.TokenSource = (*Store)(nil)

// NewStore creates an empty Store. A nil persist keeps the session in memory only.
func NewStore(persist tokenstore.TokenStore) *Store {
	return &Store{persist: persist}
}

// Load re-hydrates the tokens from persistent storage. A missing credential leaves the
// store empty. Unreadable or partial credentials are deleted and reported.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}

	raw, err := s.persist.Read(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading stored session: %w", err)
	}

	var stored persistedSession
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.discard(ctx)
		return fmt.Errorf("decoding stored session: %w", err)
	}

	loaded := Session{AccessToken: stored.AccessToken, RefreshToken: stored.RefreshToken}
	if err := loaded.Validate(); err != nil {
		s.discard(ctx)
		return fmt.Errorf("stored session: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.session = loaded
	s.mu.Unlock()

	return nil
}

// Get returns a copy of the current session, or false if the store is empty.
func (s *Store) Get() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session.IsZero() {
		return Session{}, false
	}
	return s.session.clone(), true
}

// Set atomically replaces the session. An all-empty session clears the store.
func (s *Store) Set(ctx context.Context, session Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if session.IsZero() {
		s.Clear(ctx)
		return nil
	}

	next := session.clone()
	s.mutate(ctx, func(Session) (Session, bool) {
		return next, true
	})
	return nil
}

// Clear empties the store. Returns true if a session was removed; clearing an empty store
// is a no-op.
func (s *Store) Clear(ctx context.Context) bool {
	return s.mutate(ctx, func(current Session) (Session, bool) {
		return Session{}, !current.IsZero()
	})
}

// UpdateAccessToken replaces the access token if the session still carries refreshToken.
// The refresh token itself is kept. Returns false if the session changed in the meantime.
func (s *Store) UpdateAccessToken(ctx context.Context, refreshToken, accessToken string) bool {
	if refreshToken == "" || accessToken == "" {
		return false
	}
	return s.mutate(ctx, func(current Session) (Session, bool) {
		if current.RefreshToken != refreshToken {
			return current, false
		}
		current.AccessToken = accessToken
		return current, true
	})
}

// Invalidate clears the store if the session still carries refreshToken, so a failed
// refresh of an old session never tears down a newer login. Returns true if it cleared.
func (s *Store) Invalidate(ctx context.Context, refreshToken string) bool {
	return s.mutate(ctx, func(current Session) (Session, bool) {
		if current.IsZero() || current.RefreshToken != refreshToken {
			return current, false
		}
		return Session{}, true
	})
}

// SetPrincipal attaches the principal to the current session. Returns false when empty.
func (s *Store) SetPrincipal(principal Principal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.IsZero() {
		return false
	}
	s.session.Principal = &principal
	return true
}

// Token returns the current session as an oauth2 bearer token.
func (s *Store) Token() (*oauth2.Token, error) {
	session, ok := s.Get()
	if !ok {
		return nil, ErrNoSession
	}
	return session.OAuth2Token(), nil
}

// mutate applies fn under the write lock and persists the result if the tokens changed.
func (s *Store) mutate(ctx context.Context, fn func(current Session) (Session, bool)) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	previous := s.session
	next, ok := fn(previous.clone())
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.session = next
	s.mu.Unlock()

	if next.AccessToken != previous.AccessToken || next.RefreshToken != previous.RefreshToken {
		s.save(ctx, next)
	}
	return true
}

// save writes the tokens through to persistent storage. Failures are logged; the
// in-memory session stays authoritative for the lifetime of the process.
func (s *Store) save(ctx context.Context, session Session) {
	if s.persist == nil {
		return
	}
	// Persistence must finish even if the triggering request was canceled
	ctx = context.WithoutCancel(ctx)

	var err error
	if session.IsZero() {
		err = s.persist.Delete(ctx)
	} else {
		var data []byte
		data, err = json.Marshal(persistedSession{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
		})
		if err == nil {
			err = s.persist.Write(ctx, string(data))
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, tokenstore.ErrReadOnly):
		slog.DebugContext(ctx, "session storage is read-only, keeping session in memory")
	default:
		slog.ErrorContext(ctx, "failed to persist session", "error", err)
	}
}

func (s *Store) discard(ctx context.Context) {
	if err := s.persist.Delete(ctx); err != nil && !errors.Is(err, tokenstore.ErrReadOnly) {
		slog.WarnContext(ctx, "failed to delete unreadable stored session", "error", err)
	}
}

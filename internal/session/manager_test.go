package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/fleetflow-client/internal/credentials"
	"github.com/florianilch/fleetflow-client/internal/fleetapi"
)

type fakeAPI struct {
	loginResult *fleetapi.AuthResult
	loginErr    error
	meUser      *fleetapi.User
	meErr       error

	lastRegister fleetapi.RegisterRequest
}

func (f *fakeAPI) Login(_ context.Context, _ fleetapi.LoginRequest) (*fleetapi.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAPI) Register(_ context.Context, req fleetapi.RegisterRequest) (*fleetapi.AuthResult, error) {
	f.lastRegister = req
	return f.loginResult, f.loginErr
}

func (f *fakeAPI) Me(_ context.Context) (*fleetapi.User, error) {
	return f.meUser, f.meErr
}

var ana = fleetapi.User{ID: "u1", Username: "ana", Email: "ana@example.com", Role: fleetapi.RoleDispatcher}

func authResult(access, refresh string) *fleetapi.AuthResult {
	return &fleetapi.AuthResult{AccessToken: access, RefreshToken: refresh, User: ana}
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestLogin(t *testing.T) {
	ctx := t.Context()
	store := credentials.NewStore(nil)
	m := NewManager(store, &fakeAPI{loginResult: authResult("acc", "ref")})
	events := m.Subscribe(ctx)

	assert.Equal(t, Unauthenticated, m.State())

	p, err := m.Login(ctx, "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ana", p.Username)
	assert.Equal(t, "dispatcher", p.Role)

	s, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "acc", s.AccessToken)
	assert.Equal(t, "ref", s.RefreshToken)
	assert.Equal(t, Authenticated, m.State())
	assert.Equal(t, "u1", m.User().ID)

	ev := receive(t, events)
	assert.Equal(t, Authenticated, ev.State)
	assert.Equal(t, "ana", ev.User.Username)
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	ctx := t.Context()
	store := credentials.NewStore(nil)
	require.NoError(t, store.Set(ctx, credentials.Session{AccessToken: "old-acc", RefreshToken: "old-ref"}))

	rejected := &fleetapi.APIError{StatusCode: 401, Message: "Invalid username or password."}
	m := NewManager(store, &fakeAPI{loginErr: rejected})

	_, err := m.Login(ctx, "ana", "wrong")
	require.ErrorIs(t, err, fleetapi.ErrUnauthorized)
	assert.Equal(t, "Invalid username or password.", fleetapi.Message(err))

	s, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "old-acc", s.AccessToken)
}

func TestRegister(t *testing.T) {
	ctx := t.Context()
	api := &fakeAPI{loginResult: authResult("acc", "ref")}
	m := NewManager(credentials.NewStore(nil), api)

	req := fleetapi.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret1", Role: fleetapi.RoleDispatcher}
	_, err := m.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, req, api.lastRegister)
	assert.Equal(t, Authenticated, m.State())
}

func TestLogout(t *testing.T) {
	ctx := t.Context()
	m := NewManager(credentials.NewStore(nil), &fakeAPI{loginResult: authResult("acc", "ref")})
	_, err := m.Login(ctx, "ana", "secret")
	require.NoError(t, err)

	events := m.Subscribe(ctx)
	m.Logout(ctx)
	assert.Equal(t, Unauthenticated, m.State())
	assert.Nil(t, m.User())
	assert.Equal(t, Unauthenticated, receive(t, events).State)

	// A second logout has nothing to announce.
	m.Logout(ctx)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestHydrate(t *testing.T) {
	ctx := t.Context()
	store := credentials.NewStore(nil)
	require.NoError(t, store.Set(ctx, credentials.Session{AccessToken: "acc", RefreshToken: "ref"}))

	m := NewManager(store, &fakeAPI{meUser: &ana})
	events := m.Subscribe(ctx)

	require.NoError(t, m.Hydrate(ctx))
	require.NotNil(t, m.User())
	assert.Equal(t, "ana@example.com", m.User().Email)
	assert.Equal(t, Authenticated, receive(t, events).State)
}

func TestHydrateFailureClearsSession(t *testing.T) {
	ctx := t.Context()
	store := credentials.NewStore(nil)
	require.NoError(t, store.Set(ctx, credentials.Session{AccessToken: "acc", RefreshToken: "ref"}))

	boom := errors.New("connection refused")
	m := NewManager(store, &fakeAPI{meErr: boom})
	events := m.Subscribe(ctx)

	err := m.Hydrate(ctx)
	require.ErrorIs(t, err, boom)

	_, ok := store.Get()
	assert.False(t, ok)
	ev := receive(t, events)
	assert.Equal(t, Unauthenticated, ev.State)
	assert.ErrorIs(t, ev.Cause, boom)
}

func TestHydrateWithoutSession(t *testing.T) {
	m := NewManager(credentials.NewStore(nil), &fakeAPI{meErr: errors.New("must not be called")})
	assert.NoError(t, m.Hydrate(t.Context()))
}

func TestHandleSessionInvalidatedDoesNotBlock(t *testing.T) {
	ctx := t.Context()
	m := NewManager(credentials.NewStore(nil), &fakeAPI{})
	events := m.Subscribe(ctx)

	cause := errors.New("refresh rejected")
	done := make(chan struct{})
	go func() {
		// Nobody is reading; all of these must return.
		for range 5 {
			m.HandleSessionInvalidated(ctx, cause)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleSessionInvalidated blocked")
	}

	ev := receive(t, events)
	assert.Equal(t, Unauthenticated, ev.State)
	assert.ErrorIs(t, ev.Cause, cause)
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	m := NewManager(credentials.NewStore(nil), &fakeAPI{})
	events := m.Subscribe(ctx)

	cancel()
	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	m.HandleSessionInvalidated(t.Context(), errors.New("late"))
}

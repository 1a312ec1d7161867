package credentials

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/fleetflow-client/internal/tokenstore"
)

func newFileBackedStore(t *testing.T) (*Store, *tokenstore.FileStore) {
	t.Helper()
	fs, err := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "session"))
	require.NoError(t, err)
	return NewStore(fs), fs
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	_, ok := store.Get()
	assert.False(t, ok)

	want := Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Principal:    &Principal{ID: "u-1", Username: "dispatch", Role: "dispatcher"},
	}
	require.NoError(t, store.Set(ctx, want))

	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Callers get copies, not aliases
	got.Principal.Username = "mutated"
	again, _ := store.Get()
	assert.Equal(t, "dispatch", again.Principal.Username)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	require.NoError(t, store.Set(ctx, Session{AccessToken: "a", RefreshToken: "r"}))

	assert.True(t, store.Clear(ctx))
	_, ok := store.Get()
	assert.False(t, ok)

	assert.False(t, store.Clear(ctx))
	_, ok = store.Get()
	assert.False(t, ok)
}

func TestStore_RejectsPartialSession(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	assert.ErrorIs(t, store.Set(ctx, Session{AccessToken: "a"}), ErrPartialSession)
	assert.ErrorIs(t, store.Set(ctx, Session{RefreshToken: "r"}), ErrPartialSession)

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestStore_SetEmptyClears(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	require.NoError(t, store.Set(ctx, Session{AccessToken: "a", RefreshToken: "r"}))

	require.NoError(t, store.Set(ctx, Session{}))
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestStore_UpdateAccessToken(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	require.NoError(t, store.Set(ctx, Session{
		AccessToken:  "old",
		RefreshToken: "refresh-1",
		Principal:    &Principal{Username: "ops"},
	}))

	assert.False(t, store.UpdateAccessToken(ctx, "refresh-other", "new"))
	got, _ := store.Get()
	assert.Equal(t, "old", got.AccessToken)

	assert.True(t, store.UpdateAccessToken(ctx, "refresh-1", "new"))
	got, _ = store.Get()
	assert.Equal(t, "new", got.AccessToken)
	assert.Equal(t, "refresh-1", got.RefreshToken)
	require.NotNil(t, got.Principal)
	assert.Equal(t, "ops", got.Principal.Username)
}

func TestStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	require.NoError(t, store.Set(ctx, Session{AccessToken: "a", RefreshToken: "r-new"}))

	// A failure for a session that has since been replaced leaves the new one alone
	assert.False(t, store.Invalidate(ctx, "r-old"))
	_, ok := store.Get()
	assert.True(t, ok)

	assert.True(t, store.Invalidate(ctx, "r-new"))
	_, ok = store.Get()
	assert.False(t, ok)

	assert.False(t, store.Invalidate(ctx, "r-new"))
}

func TestStore_SetPrincipal(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	assert.False(t, store.SetPrincipal(Principal{Username: "nobody"}))

	require.NoError(t, store.Set(ctx, Session{AccessToken: "a", RefreshToken: "r"}))
	assert.True(t, store.SetPrincipal(Principal{ID: "1", Username: "ops", Role: "admin"}))

	got, _ := store.Get()
	require.NotNil(t, got.Principal)
	assert.Equal(t, "admin", got.Principal.Role)
}

func TestStore_Token(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	_, err := store.Token()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Set(ctx, Session{AccessToken: "a", RefreshToken: "r"}))
	tok, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.Type())
}

func TestStore_PersistsTokensOnly(t *testing.T) {
	ctx := context.Background()
	store, fs := newFileBackedStore(t)

	require.NoError(t, store.Set(ctx, Session{
		AccessToken:  "a1",
		RefreshToken: "r1",
		Principal:    &Principal{Username: "ops"},
	}))

	raw, err := fs.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"a1","refresh_token":"r1"}`, raw)

	require.True(t, store.UpdateAccessToken(ctx, "r1", "a2"))

	reloaded := NewStore(fs)
	require.NoError(t, reloaded.Load(ctx))
	got, ok := reloaded.Get()
	require.True(t, ok)
	assert.Equal(t, Session{AccessToken: "a2", RefreshToken: "r1"}, got)

	require.True(t, reloaded.Clear(ctx))
	_, err = fs.Read(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestStore_LoadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store, fs := newFileBackedStore(t)

	require.NoError(t, store.Load(ctx))
	_, ok := store.Get()
	assert.False(t, ok)

	require.NoError(t, fs.Write(ctx, "not-json"))
	require.Error(t, store.Load(ctx))
	_, err := fs.Read(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound, "corrupt session should be discarded")

	require.NoError(t, fs.Write(ctx, `{"access_token":"only-access"}`))
	require.ErrorIs(t, store.Load(ctx), ErrPartialSession)
}

func TestStore_ReadOnlyBackendKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	t.Setenv("FLEETFLOW_TEST_SESSION", `{"access_token":"env-a","refresh_token":"env-r"}`)
	env, err := tokenstore.NewEnvStore("FLEETFLOW_TEST_SESSION")
	require.NoError(t, err)

	store := NewStore(env)
	require.NoError(t, store.Load(ctx))

	require.True(t, store.UpdateAccessToken(ctx, "env-r", "env-a2"))
	got, _ := store.Get()
	assert.Equal(t, "env-a2", got.AccessToken)
}

func TestStore_ConcurrentAccessNeverObservesHalfSession(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				suffix := fmt.Sprintf("%d-%d", i, j)
				_ = store.Set(ctx, Session{AccessToken: "a-" + suffix, RefreshToken: "r-" + suffix})
				if j%10 == 0 {
					store.Clear(ctx)
				}
			}
		}()
	}

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				s, ok := store.Get()
				if !ok {
					continue
				}
				assert.NoError(t, s.Validate())
				assert.Equal(t, s.AccessToken[2:], s.RefreshToken[2:], "tokens from different sessions")
			}
		}()
	}
	wg.Wait()
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := TokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)
	_, ok = TokenExpiry("")
	assert.False(t, ok)
}

package authtransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/florianilch/fleetflow-client/internal/credentials"
)

// RequestIDHeader correlates an original request with its replay.
const RequestIDHeader = "X-Request-ID"

// DefaultRefreshTimeout bounds a shared refresh call.
const DefaultRefreshTimeout = 30 * time.Second

// maxBufferedErrorBody caps how much of a 401 body is kept for the caller.
const maxBufferedErrorBody = 1 << 20

// maxReplayableBody caps request bodies buffered for a possible replay.
const maxReplayableBody = 10 << 20

// DefaultPublicPaths are path suffixes that never carry an access token
// and never trigger a refresh.
var DefaultPublicPaths = []string{"/auth/login", "/auth/register", "/auth/refresh"}

// errNoSession means a 401 arrived while there was nothing to refresh.
var errNoSession = errors.New("no session to refresh")

// errBodyTooLarge is returned for unbuffered request bodies above maxReplayableBody.
var errBodyTooLarge = errors.New("request body too large to replay")

// Refresher mints a new access token from a refresh token. Implementations must not
// route through the Transport.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context, refreshToken string) (string, error)

// Refresh calls f.
func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return f(ctx, refreshToken)
}

// CredentialStore is the subset of *credentials.Store the transport needs.
type CredentialStore interface {
	Get() (credentials.Session, bool)
	UpdateAccessToken(ctx context.Context, refreshToken, accessToken string) bool
	Invalidate(ctx context.Context, refreshToken string) bool
}

// SessionInvalidatedFunc is called once each time a failed refresh tears down a session.
// It runs on the refreshing goroutine and must not block.
type SessionInvalidatedFunc func(ctx context.Context, cause error)

// Option configures a Transport.
type Option func(*config)

// config holds configuration for New.
type config struct {
	base           http.RoundTripper
	publicPaths    []string
	onInvalidated  SessionInvalidatedFunc
	refreshTimeout time.Duration
}

// WithBase sets the underlying transport. If not provided, http.DefaultTransport is used.
func WithBase(base http.RoundTripper) Option {
	return func(c *config) {
		c.base = base
	}
}

// WithPublicPaths replaces the path suffixes that bypass authentication.
func WithPublicPaths(paths ...string) Option {
	return func(c *config) {
		c.publicPaths = paths
	}
}

// WithSessionInvalidatedHandler registers the handler called after a failed refresh
// cleared the session.
func WithSessionInvalidatedHandler(fn SessionInvalidatedFunc) Option {
	return func(c *config) {
		c.onInvalidated = fn
	}
}

// WithRefreshTimeout bounds each refresh call.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.refreshTimeout = timeout
	}
}

// Transport is an http.RoundTripper that authenticates requests and recovers from
// expired access tokens.
type Transport struct {
	base           http.RoundTripper
	store          CredentialStore
	refresher      Refresher
	publicPaths    []string
	onInvalidated  SessionInvalidatedFunc
	refreshTimeout time.Duration

	// refreshes is keyed by refresh token so concurrent 401s share one refresh.
	refreshes singleflight.Group
}

// Compile-time check that Transport implements http.RoundTripper.
var _ http.RoundTripper = (*Transport)(nil)

// New creates a Transport reading credentials from store and refreshing them with refresher.
func New(store CredentialStore, refresher Refresher, opts ...Option) (*Transport, error) {
	if store == nil {
		return nil, fmt.Errorf("missing credential store")
	}
	if refresher == nil {
		return nil, fmt.Errorf("missing refresher")
	}

	cfg := &config{
		base:           http.DefaultTransport,
		publicPaths:    DefaultPublicPaths,
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Transport{
		base:           cfg.base,
		store:          store,
		refresher:      refresher,
		publicPaths:    cfg.publicPaths,
		onInvalidated:  cfg.onInvalidated,
		refreshTimeout: cfg.refreshTimeout,
	}, nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.isPublic(req) {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	session, _ := t.store.Get()
	out, err := authorize(req, getBody, requestID, session.AccessToken)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// Keep the 401 around: it is the caller's answer if recovery fails
	bufferBody(resp)

	slog.DebugContext(ctx, "request unauthorized, recovering session",
		"request_id", requestID, "method", req.Method, "path", req.URL.Path)

	accessToken, err := t.recoverSession(ctx, session.AccessToken)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = resp.Body.Close()
			return nil, ctxErr
		}
		if !errors.Is(err, errNoSession) {
			slog.WarnContext(ctx, "session recovery failed", "request_id", requestID, "error", err)
		}
		return resp, nil
	}
	_ = resp.Body.Close()

	retry, err := authorize(req, getBody, requestID, accessToken)
	if err != nil {
		return nil, err
	}

	// Final outcome, even a second 401
	return t.base.RoundTrip(retry)
}

// recoverSession returns an access token to replay with after a 401 for failedAccess.
func (t *Transport) recoverSession(ctx context.Context, failedAccess string) (string, error) {
	session, ok := t.store.Get()
	if !ok {
		return "", errNoSession
	}

	// Someone else already refreshed (or logged in again) since this request was sent
	if session.AccessToken != failedAccess {
		return session.AccessToken, nil
	}

	refreshToken := session.RefreshToken
	ch := t.refreshes.DoChan(refreshToken, func() (any, error) {
		return t.refresh(ctx, refreshToken)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh performs one shared refresh call. It is detached from the triggering request's
// cancellation because other requests may be waiting on it.
func (t *Transport) refresh(ctx context.Context, refreshToken string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.refreshTimeout)
	defer cancel()

	accessToken, err := t.refresher.Refresh(ctx, refreshToken)
	if err == nil && accessToken == "" {
		err = errors.New("refresh returned an empty access token")
	}
	if err != nil {
		if t.store.Invalidate(ctx, refreshToken) {
			slog.WarnContext(ctx, "session invalidated after failed refresh", "error", err)
			if t.onInvalidated != nil {
				t.onInvalidated(ctx, err)
			}
		}
		return "", fmt.Errorf("refreshing session: %w", err)
	}

	if !t.store.UpdateAccessToken(ctx, refreshToken, accessToken) {
		// The refreshed session is gone; never replay with a token it minted
		current, ok := t.store.Get()
		if !ok {
			slog.DebugContext(ctx, "session ended during refresh, discarding new access token")
			return "", errNoSession
		}
		slog.DebugContext(ctx, "session replaced during refresh, replaying with its access token")
		return current.AccessToken, nil
	}
	slog.DebugContext(ctx, "session refreshed")

	return accessToken, nil
}

func (t *Transport) isPublic(req *http.Request) bool {
	p := path.Clean("/" + req.URL.Path)
	for _, suffix := range t.publicPaths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

// authorize clones req with a fresh body and the given bearer token.
func authorize(req *http.Request, getBody func() (io.ReadCloser, error), requestID, accessToken string) (*http.Request, error) {
	out := req.Clone(req.Context())
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		out.Body = body
		out.GetBody = getBody
	}

	out.Header.Set(RequestIDHeader, requestID)
	out.Header.Del("Authorization")
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	return out, nil
}

// replayableBody returns a function producing fresh copies of the request body, buffering
// it when the request has no GetBody. The original body is consumed and closed.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	if req.GetBody != nil {
		_ = req.Body.Close()
		return req.GetBody, nil
	}

	defer func() { _ = req.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(req.Body, maxReplayableBody+1))
	if err != nil {
		return nil, fmt.Errorf("buffering request body: %w", err)
	}
	if len(data) > maxReplayableBody {
		return nil, errBodyTooLarge
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// bufferBody replaces resp.Body with an in-memory copy and releases the connection.
func bufferBody(resp *http.Response) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBufferedErrorBody))
	_ = resp.Body.Close()
	if err != nil {
		data = nil
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))
}

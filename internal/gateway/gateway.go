// Package gateway serves the local HTTP surface used by the dashboard screens.
//
// It owns the login flow and forwards /api/v1 calls to the backend through the request
// pipeline, so tokens never leave the process.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/florianilch/fleetflow-client/internal/credentials"
	"github.com/florianilch/fleetflow-client/internal/dashboard"
	"github.com/florianilch/fleetflow-client/internal/fleetapi"
	"github.com/florianilch/fleetflow-client/internal/session"
)

// APIPrefix is the path under which backend calls are forwarded.
const APIPrefix = "/api/v1/"

// Sessions is the session surface the gateway drives. *session.Manager implements it.
type Sessions interface {
	Login(ctx context.Context, username, password string) (*credentials.Principal, error)
	Register(ctx context.Context, req fleetapi.RegisterRequest) (*credentials.Principal, error)
	Logout(ctx context.Context)
	User() *credentials.Principal
	State() session.State
}

// Snapshots provides the latest dashboard snapshot. *dashboard.Poller implements it.
type Snapshots interface {
	Latest() (*dashboard.Snapshot, error)
}

// Gateway is the local HTTP server.
type Gateway struct {
	mux    *http.ServeMux
	server *http.Server
}

// Compile-time check that Gateway implements http.Handler
var _ http.Handler = (*Gateway)(nil)

// New creates a gateway. pipeline is the authenticated transport; backendURL is the API
// root it forwards to (e.g. https://fleet.example.com/api/v1).
func New(sessions Sessions, snapshots Snapshots, pipeline http.RoundTripper, backendURL string) (*Gateway, error) {
	backend, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if backend.Scheme == "" || backend.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme and host required", backendURL)
	}
	backend.Path = strings.TrimRight(backend.Path, "/")

	h := &handlers{sessions: sessions, snapshots: snapshots}
	forward := newForwarder(backend, pipeline)

	logger := slog.Default()
	wrap := func(next http.Handler) http.Handler {
		return applyMiddlewares(next,
			RequestID,
			Logging(logger),
			Recovery,
		)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /auth/login", wrap(http.HandlerFunc(h.login)))
	mux.Handle("POST /auth/register", wrap(http.HandlerFunc(h.register)))
	mux.Handle("POST /auth/logout", wrap(http.HandlerFunc(h.logout)))
	mux.Handle("GET /auth/session", wrap(http.HandlerFunc(h.session)))
	mux.Handle("GET /dashboard/snapshot", wrap(requireSession(sessions, http.HandlerFunc(h.snapshot))))

	// Auth endpoints are owned by the gateway; forwarding them would hand tokens to the caller.
	mux.Handle(APIPrefix+"auth/", wrap(http.HandlerFunc(h.authNotForwarded)))
	mux.Handle(APIPrefix, wrap(requireSession(sessions, forward)))

	return &Gateway{mux: mux}, nil
}

// ServeHTTP implements http.Handler interface
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (g *Gateway) Start(ctx context.Context, address string) (<-chan error, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	g.server = &http.Server{
		Handler:           g,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Covers a backend call plus one refresh and replay.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := g.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	if err := g.server.Shutdown(ctx); err != nil {
		_ = g.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// requireSession answers 401 "login required" while no session is held.
func requireSession(sessions Sessions, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessions.State() != session.Authenticated {
			writeJSONError(r.Context(), w, "login required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/fleetflow-client/internal/authtransport"
	"github.com/florianilch/fleetflow-client/internal/credentials"
	"github.com/florianilch/fleetflow-client/internal/dashboard"
	"github.com/florianilch/fleetflow-client/internal/fleetapi"
	"github.com/florianilch/fleetflow-client/internal/gateway"
	"github.com/florianilch/fleetflow-client/internal/session"
)

// App wires the credential store, request pipeline and the services built on them.
type App struct {
	cfg *Config

	store    *credentials.Store
	pipeline *authtransport.Transport
	api      *fleetapi.Client
	sessions *session.Manager
}

// New creates a new App instance. No I/O is performed.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	persist, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	store := credentials.NewStore(persist)

	// Refreshes bypass the pipeline: they authenticate with the refresh token.
	refreshClient, err := fleetapi.New(cfg.API.BaseURL, fleetapi.WithTimeout(cfg.Auth.RefreshTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh client: %w", err)
	}

	a := &App{cfg: cfg, store: store}

	a.pipeline, err = authtransport.New(store, refreshClient,
		authtransport.WithRefreshTimeout(cfg.Auth.RefreshTimeout),
		authtransport.WithSessionInvalidatedHandler(func(ctx context.Context, cause error) {
			a.sessions.HandleSessionInvalidated(ctx, cause)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request pipeline: %w", err)
	}

	a.api, err = fleetapi.New(cfg.API.BaseURL,
		fleetapi.WithTransport(a.pipeline),
		fleetapi.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	a.sessions = session.NewManager(store, a.api)

	return a, nil
}

// Init restores a persisted session and resolves its principal. A session that cannot
// be restored is discarded and logged.
func (a *App) Init(ctx context.Context) {
	if err := a.store.Load(ctx); err != nil {
		slog.WarnContext(ctx, "discarded unreadable stored session", "error", err)
	}
	if err := a.sessions.Hydrate(ctx); err != nil {
		slog.WarnContext(ctx, "stored session is no longer valid", "error", err)
	}
}

// API returns the authenticated backend client.
func (a *App) API() *fleetapi.Client { return a.api }

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager { return a.sessions }

// Store returns the credential store.
func (a *App) Store() *credentials.Store { return a.store }

// Pipeline returns the authenticated transport, for callers that build their own requests.
func (a *App) Pipeline() http.RoundTripper { return a.pipeline }

// Start runs the gateway and the dashboard poller and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	poller := dashboard.NewPoller(a.api, a.sessions, dashboard.WithInterval(a.cfg.Dashboard.PollInterval))

	gw, err := gateway.New(a.sessions, poller, a.pipeline, a.cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.GatewayAddress()
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting gateway", "address", address)
	gatewayErrCh, err := gw.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("gateway startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, gw.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-gatewayErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "gateway runtime error", "error", err)
				return fmt.Errorf("gateway: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	g.Go(func() error {
		return poller.Run(gCtx)
	})

	slog.InfoContext(gCtx, "application ready",
		"address", address,
		"backend", a.cfg.API.BaseURL,
		"session", a.sessions.State().String(),
	)

	runtimeErr := g.Wait()

	slog.InfoContext(ctx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

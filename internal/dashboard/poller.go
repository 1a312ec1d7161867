// Package dashboard keeps a periodically refreshed snapshot of the fleet dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/fleetflow-client/internal/fleetapi"
	"github.com/florianilch/fleetflow-client/internal/session"
)

// DefaultInterval matches the refresh rate of the dashboard screen.
const DefaultInterval = 30 * time.Second

// ErrNoSnapshot is returned by Latest before the first successful poll.
var ErrNoSnapshot = errors.New("no dashboard snapshot yet")

// Source fetches the dashboard panels.
type Source interface {
	KPIs(ctx context.Context) (*fleetapi.KPIs, error)
	LiveTrips(ctx context.Context) ([]fleetapi.Trip, error)
	RecentActivity(ctx context.Context) (*fleetapi.RecentActivity, error)
}

// Sessions reports session state. *session.Manager implements it.
type Sessions interface {
	State() session.State
	Subscribe(ctx context.Context) <-chan session.Event
}

// Snapshot is one consistent read of all dashboard panels.
type Snapshot struct {
	KPIs           *fleetapi.KPIs           `json:"kpis"`
	LiveTrips      []fleetapi.Trip          `json:"live_trips"`
	RecentActivity *fleetapi.RecentActivity `json:"recent_activity"`
	FetchedAt      time.Time                `json:"fetched_at"`
}

// Fetch loads all panels concurrently. The first failure cancels the rest.
func Fetch(ctx context.Context, src Source) (*Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		kpis, err := src.KPIs(ctx)
		snap.KPIs = kpis
		return err
	})
	g.Go(func() error {
		trips, err := src.LiveTrips(ctx)
		snap.LiveTrips = trips
		return err
	})
	g.Go(func() error {
		activity, err := src.RecentActivity(ctx)
		snap.RecentActivity = activity
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching dashboard: %w", err)
	}
	snap.FetchedAt = time.Now()
	return &snap, nil
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides DefaultInterval.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithSnapshotHandler registers fn to be called after every successful poll.
func WithSnapshotHandler(fn func(*Snapshot)) Option {
	return func(p *Poller) {
		p.onSnapshot = fn
	}
}

// Poller refreshes the dashboard while a session is held.
type Poller struct {
	src        Source
	sessions   Sessions
	interval   time.Duration
	onSnapshot func(*Snapshot)

	mu      sync.RWMutex
	latest  *Snapshot
	lastErr error
}

// NewPoller creates a Poller reading from src while sessions reports a logged-in user.
func NewPoller(src Source, sessions Sessions, opts ...Option) *Poller {
	p := &Poller{
		src:      src,
		sessions: sessions,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is done. Polling pauses while unauthenticated and the held
// snapshot is dropped, so no data outlives the session that fetched it.
func (p *Poller) Run(ctx context.Context) error {
	events := p.sessions.Subscribe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	active := p.sessions.State() == session.Authenticated
	if active {
		p.poll(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.State {
			case session.Authenticated:
				if !active {
					active = true
					p.poll(ctx)
					ticker.Reset(p.interval)
				}
			case session.Unauthenticated:
				if active {
					slog.DebugContext(ctx, "dashboard polling paused")
				}
				active = false
				p.reset()
			}
		case <-ticker.C:
			if active {
				p.poll(ctx)
			}
		}
	}
}

// Latest returns the most recent snapshot. When the last poll failed its error is
// returned alongside the previous snapshot.
func (p *Poller) Latest() (*Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.latest == nil {
		if p.lastErr != nil {
			return nil, p.lastErr
		}
		return nil, ErrNoSnapshot
	}
	return p.latest, p.lastErr
}

func (p *Poller) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	snap, err := Fetch(pollCtx, p.src)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.WarnContext(ctx, "dashboard poll failed", "error", err)
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	p.latest = snap
	p.lastErr = nil
	p.mu.Unlock()

	if p.onSnapshot != nil {
		p.onSnapshot(snap)
	}
}

func (p *Poller) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = nil
	p.lastErr = nil
}

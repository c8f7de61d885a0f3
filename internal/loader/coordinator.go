// Package loader sequences transcript loads against a per-session cache and
// makes sure only the most recently requested load takes effect.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/rollout"
	"github.com/theirongolddev/rollview/internal/source"
)

// State is the coordinator's load status.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// User-facing diagnostics.
const (
	ReadFailureMessage = "Unable to read the session file. Please confirm the path and try again."
	CanceledMessage    = "Loading was canceled."
)

// ErrStale is returned by Load when a newer request superseded it. The
// result of a stale load is discarded.
var ErrStale = errors.New("load superseded by a newer request")

// Snapshot is the published view of the coordinator.
type Snapshot struct {
	State      State
	SessionID  string
	Transcript model.Transcript
	Stats      rollout.Stats
	Err        error
	Message    string // user-facing diagnostic when State is StateFailed
	Generation uint64
	FromCache  bool
}

// Request asks for the transcript of one session.
type Request struct {
	SessionID string
	Open      source.Opener
	Force     bool // bypass the cache and re-read the log
}

// Observer receives every published snapshot, in publication order.
// Observers must not call Load or Reset synchronously.
type Observer func(Snapshot)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for load diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers fn to receive published snapshots.
func WithObserver(fn Observer) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// Coordinator runs transcript loads. It is safe for concurrent use: any
// number of loads may be in flight, but only the one holding the latest
// generation publishes its result or writes the cache.
type Coordinator struct {
	cache     Cache
	logger    *slog.Logger
	observers []Observer

	gen atomic.Uint64

	// notifyMu serializes publication so observers see snapshots in the
	// same order they were stored.
	notifyMu sync.Mutex
	mu       sync.RWMutex
	snap     Snapshot
}

// New returns an idle Coordinator backed by cache. A nil cache means an
// unbounded MapCache.
func New(cache Cache, opts ...Option) *Coordinator {
	if cache == nil {
		cache = NewMapCache()
	}
	c := &Coordinator{cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the currently published state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Cache returns the coordinator's transcript cache.
func (c *Coordinator) Cache() Cache { return c.cache }

// Reset drops any selection: in-flight loads become stale and the
// coordinator returns to idle with an empty view.
func (c *Coordinator) Reset() {
	g := c.gen.Add(1)
	c.publish(g, Snapshot{State: StateIdle})
}

// Load returns the transcript for req.SessionID.
//
// A cached transcript is returned without opening the source unless
// req.Force is set. Otherwise the log is decoded under a fresh generation;
// if another request was issued meanwhile, the result is discarded and
// ErrStale returned. A failing source moves the coordinator to StateFailed
// and returns the underlying error.
func (c *Coordinator) Load(ctx context.Context, req Request) (model.Transcript, error) {
	g := c.gen.Add(1)

	if !req.Force {
		if t, ok := c.cache.Get(req.SessionID); ok {
			if !c.publish(g, Snapshot{
				State:      StateReady,
				SessionID:  req.SessionID,
				Transcript: t,
				FromCache:  true,
			}) {
				return model.Transcript{}, ErrStale
			}
			return t, nil
		}
	}

	if !c.publish(g, Snapshot{State: StateLoading, SessionID: req.SessionID}) {
		return model.Transcript{}, ErrStale
	}

	t, stats, err := c.decode(ctx, req)
	if err != nil {
		failed := Snapshot{
			State:     StateFailed,
			SessionID: req.SessionID,
			Stats:     stats,
			Err:       err,
			Message:   ReadFailureMessage,
		}
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			failed.Message = CanceledMessage
		}
		if !c.publishIfLatest(g, failed, nil) {
			c.logger.Debug("discarding stale load failure", "session", req.SessionID, "error", err)
			return model.Transcript{}, ErrStale
		}
		c.logger.Warn("session load failed", "session", req.SessionID, "error", err)
		return model.Transcript{}, err
	}

	ready := Snapshot{State: StateReady, SessionID: req.SessionID, Transcript: t, Stats: stats}
	cacheWrite := func() { c.cache.Set(req.SessionID, t) }
	if !c.publishIfLatest(g, ready, cacheWrite) {
		c.logger.Debug("discarding stale transcript", "session", req.SessionID, "generation", g)
		return model.Transcript{}, ErrStale
	}
	return t, nil
}

func (c *Coordinator) decode(ctx context.Context, req Request) (model.Transcript, rollout.Stats, error) {
	if req.Open == nil {
		return model.Transcript{}, rollout.Stats{}, rollout.ErrNoSource
	}
	src, err := req.Open()
	if err != nil {
		return model.Transcript{}, rollout.Stats{}, &rollout.ReadError{SessionID: req.SessionID, Err: err}
	}
	defer func() { _ = src.Close() }()
	return rollout.Parse(ctx, req.SessionID, src, rollout.WithLogger(c.logger))
}

// publish stores snap if g is still the latest generation.
func (c *Coordinator) publish(g uint64, snap Snapshot) bool {
	return c.publishIfLatest(g, snap, nil)
}

// publishIfLatest stores snap, runs commit and notifies observers, but only
// while g is the latest generation. commit runs under the state lock so no
// newer request can publish between the check and the cache write.
func (c *Coordinator) publishIfLatest(g uint64, snap Snapshot, commit func()) bool {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if g != c.gen.Load() {
		c.mu.Unlock()
		return false
	}
	if commit != nil {
		commit()
	}
	snap.Generation = g
	c.snap = snap
	c.mu.Unlock()

	for _, fn := range c.observers {
		fn(snap)
	}
	return true
}

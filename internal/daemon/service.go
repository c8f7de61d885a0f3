// Package daemon provides the long-running session index service and its
// HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/rollview/internal/loader"
	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/pipeline"
	"github.com/theirongolddev/rollview/internal/source"
	"github.com/theirongolddev/rollview/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	SessionsDir   string
	ProjectFilter string
	UseIndex      bool
	IndexPath     string // defaults to pipeline.CachePath()
	Interval      time.Duration
	Addr          string
	EventsBuffer  int
	CacheSize     int // transcript LRU capacity
	Logger        *slog.Logger
}

// Snapshot is a compact index state for status/event payloads.
type Snapshot struct {
	At       time.Time `json:"at"`
	Sessions int       `json:"sessions"`
	Projects int       `json:"projects"`
	Trivial  int       `json:"trivial"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Sessions int `json:"sessions"`
	Projects int `json:"projects"`
}

func (d Delta) isZero() bool {
	return d.Sessions == 0 && d.Projects == 0
}

// Event is emitted whenever the index snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt        time.Time `json:"started_at"`
	LastPollAt       time.Time `json:"last_poll_at"`
	PollIntervalSec  int       `json:"poll_interval_sec"`
	PollCount        int64     `json:"poll_count"`
	SessionsDir      string    `json:"sessions_dir"`
	ProjectFilter    string    `json:"project_filter,omitempty"`
	Summary          Snapshot  `json:"summary"`
	CachedTranscript int       `json:"cached_transcripts"`
	LastError        string    `json:"last_error,omitempty"`
	EventCount       int       `json:"event_count"`
	SubscriberCount  int       `json:"subscriber_count"`
}

// errorBody is the JSON shape of API errors.
type errorBody struct {
	Error string `json:"error"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	logger *slog.Logger
	cache  *loader.LRUCache

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	sessions    []model.SessionSummary
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8757"
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = loader.DefaultCapacity
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = pipeline.CachePath()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:       cfg,
		logger:    logger,
		cache:     loader.NewLRUCache(cfg.CacheSize),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/sessions", s.handleSessions)
	mux.HandleFunc("GET /v1/sessions/{id}/transcript", s.handleTranscript)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("serving", "addr", s.cfg.Addr, "sessions_dir", s.cfg.SessionsDir)

	// Seed initial snapshot so status is useful immediately.
	s.PollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.PollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// PollOnce re-indexes the sessions directory and publishes an event when
// the index changed.
func (s *Service) PollOnce(ctx context.Context) {
	sessions, err := s.loadSessions(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.logger.Error("index poll failed", "error", err)
		return
	}

	sessions = pipeline.FilterByProject(sessions, s.cfg.ProjectFilter)
	now := time.Now()
	snap := snapshotOf(sessions, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.sessions = sessions
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "sessions_delta",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) loadSessions(ctx context.Context) ([]model.SessionSummary, error) {
	if s.cfg.UseIndex {
		idx, err := store.Open(s.cfg.IndexPath)
		if err == nil {
			defer func() { _ = idx.Close() }()
			ir, loadErr := pipeline.LoadWithIndex(ctx, s.cfg.SessionsDir, idx, nil)
			if loadErr == nil {
				return ir.Sessions, nil
			}
			s.logger.Warn("index load failed, rescanning", "error", loadErr)
		} else {
			s.logger.Warn("index unavailable", "error", err)
		}
	}

	result, err := pipeline.Load(ctx, s.cfg.SessionsDir, nil)
	if err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

func snapshotOf(sessions []model.SessionSummary, at time.Time) Snapshot {
	snap := Snapshot{At: at, Sessions: len(sessions)}
	projects := make(map[string]struct{})
	for _, s := range sessions {
		if s.Trivial() {
			snap.Trivial++
		}
		if s.CWD != "" {
			projects[s.CWD] = struct{}{}
		}
	}
	snap.Projects = len(projects)
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Sessions: curr.Sessions - prev.Sessions,
		Projects: curr.Projects - prev.Projects,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:        s.startedAt,
		LastPollAt:       s.lastPollAt,
		PollIntervalSec:  int(s.cfg.Interval.Seconds()),
		PollCount:        s.pollCount,
		SessionsDir:      s.cfg.SessionsDir,
		ProjectFilter:    s.cfg.ProjectFilter,
		Summary:          s.snapshot,
		CachedTranscript: s.cache.Len(),
		LastError:        s.lastError,
		EventCount:       len(s.events),
		SubscriberCount:  len(s.subs),
	}
}

// lookup finds an indexed session by id.
func (s *Service) lookup(id string) (model.SessionSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.SessionID == id {
			return sess, true
		}
	}
	return model.SessionSummary{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

// SessionInfo is the wire shape of a session listing entry.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	Path      string    `json:"path"`
	CWD       string    `json:"cwd"`
	Preview   string    `json:"preview"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Lines     int       `json:"lines"`
	SizeBytes int64     `json:"size_bytes"`
}

func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	sessions := pipeline.FilterByProject(s.sessions, r.URL.Query().Get("project"))
	out := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionInfo{
			SessionID: sess.SessionID,
			Path:      sess.Path,
			CWD:       sess.CWD,
			Preview:   sess.Preview,
			StartedAt: sess.StartedAt,
			Lines:     sess.Lines,
			SizeBytes: sess.SizeBytes,
		})
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown session " + id})
		return
	}

	// Each request runs its own coordinator over the shared cache so
	// concurrent clients never supersede one another.
	coord := loader.New(s.cache, loader.WithLogger(s.logger))
	t, err := coord.Load(r.Context(), loader.Request{
		SessionID: sess.SessionID,
		Open:      source.FileOpener(sess.Path),
		Force:     r.URL.Query().Get("reload") == "1",
	})
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "session file is gone: " + id})
			return
		}
		s.logger.Warn("transcript load failed", "session", id, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: coord.Snapshot().Message})
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

package loader

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/theirongolddev/rollview/internal/model"
	"github.com/theirongolddev/rollview/internal/source"
)

func userLine(text string) string {
	return `{"type":"event_msg","payload":{"type":"user_message","message":"` + text + `"}}`
}

// countingOpener returns an Opener over lines and a counter of how many
// times it was opened.
func countingOpener(lines ...string) (source.Opener, *atomic.Int32) {
	var n atomic.Int32
	return func() (source.LineSource, error) {
		n.Add(1)
		return source.Lines(lines...), nil
	}, &n
}

// gatedLines blocks its first read until release is closed.
type gatedLines struct {
	opened  chan struct{}
	release chan struct{}
	inner   source.LineSource
	once    sync.Once
}

func (g *gatedLines) Next() ([]byte, bool) {
	g.once.Do(func() {
		close(g.opened)
		<-g.release
	})
	return g.inner.Next()
}

func (g *gatedLines) Err() error   { return g.inner.Err() }
func (g *gatedLines) Close() error { return nil }

func gatedOpener(src source.LineSource) (source.Opener, *gatedLines) {
	g := &gatedLines{
		opened:  make(chan struct{}),
		release: make(chan struct{}),
		inner:   src,
	}
	return func() (source.LineSource, error) { return g, nil }, g
}

func TestLoad_CacheHitSkipsSource(t *testing.T) {
	c := New(NewMapCache())
	open, opens := countingOpener(userLine("hi"))

	first, err := c.Load(context.Background(), Request{SessionID: "a", Open: open})
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	second, err := c.Load(context.Background(), Request{SessionID: "a", Open: open})
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}

	if opens.Load() != 1 {
		t.Errorf("source opened %d times, want 1", opens.Load())
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached transcript differs:\n first=%+v\nsecond=%+v", first, second)
	}
	snap := c.Snapshot()
	if snap.State != StateReady || !snap.FromCache {
		t.Errorf("snapshot = {%s fromCache=%v}, want ready from cache", snap.State, snap.FromCache)
	}
}

func TestLoad_ForceReloadReplacesCache(t *testing.T) {
	c := New(NewMapCache())
	lines := []string{userLine("one")}
	var opens atomic.Int32
	open := func() (source.LineSource, error) {
		opens.Add(1)
		return source.Lines(lines...), nil
	}

	if _, err := c.Load(context.Background(), Request{SessionID: "a", Open: open}); err != nil {
		t.Fatal(err)
	}
	lines = append(lines, userLine("two"))

	got, err := c.Load(context.Background(), Request{SessionID: "a", Open: open, Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if opens.Load() != 2 {
		t.Errorf("source opened %d times, want 2", opens.Load())
	}
	if len(got.Messages) != 2 {
		t.Errorf("len(Messages) = %d, want 2 after forced reload", len(got.Messages))
	}
	cached, _ := c.Cache().Get("a")
	if len(cached.Messages) != 2 {
		t.Errorf("cached len(Messages) = %d, want 2", len(cached.Messages))
	}
}

func TestLoad_StaleRequestDiscarded(t *testing.T) {
	c := New(NewMapCache())
	openA, gateA := gatedOpener(source.Lines(userLine("from A")))
	openB, _ := countingOpener(userLine("from B"))

	type result struct {
		t   model.Transcript
		err error
	}
	doneA := make(chan result, 1)
	go func() {
		tr, err := c.Load(context.Background(), Request{SessionID: "A", Open: openA})
		doneA <- result{tr, err}
	}()
	<-gateA.opened

	trB, err := c.Load(context.Background(), Request{SessionID: "B", Open: openB})
	if err != nil {
		t.Fatalf("Load B: %v", err)
	}
	if trB.Messages[0].Content != "from B" {
		t.Fatalf("B content = %q", trB.Messages[0].Content)
	}

	close(gateA.release)
	resA := <-doneA
	if !errors.Is(resA.err, ErrStale) {
		t.Errorf("Load A error = %v, want ErrStale", resA.err)
	}

	snap := c.Snapshot()
	if snap.SessionID != "B" || snap.State != StateReady {
		t.Errorf("snapshot = {%s %s}, want {B ready}", snap.SessionID, snap.State)
	}
	if _, ok := c.Cache().Get("A"); ok {
		t.Error("stale transcript for A was cached")
	}
}

func TestLoad_StaleWhenNewerRequestHitsCache(t *testing.T) {
	c := New(NewMapCache())
	c.Cache().Set("B", model.Transcript{SessionID: "B"})
	openA, gateA := gatedOpener(source.Lines(userLine("from A")))

	doneA := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), Request{SessionID: "A", Open: openA})
		doneA <- err
	}()
	<-gateA.opened

	if _, err := c.Load(context.Background(), Request{SessionID: "B"}); err != nil {
		t.Fatalf("Load B: %v", err)
	}
	close(gateA.release)

	if err := <-doneA; !errors.Is(err, ErrStale) {
		t.Errorf("Load A error = %v, want ErrStale", err)
	}
	if snap := c.Snapshot(); snap.SessionID != "B" {
		t.Errorf("snapshot session = %q, want B", snap.SessionID)
	}
}

func TestLoad_ReadFailure(t *testing.T) {
	c := New(NewMapCache())
	boom := errors.New("permission denied")
	open := func() (source.LineSource, error) {
		return source.Lines(userLine("partial")).WithError(boom), nil
	}

	_, err := c.Load(context.Background(), Request{SessionID: "a", Open: open})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}

	snap := c.Snapshot()
	if snap.State != StateFailed {
		t.Errorf("State = %s, want failed", snap.State)
	}
	if snap.Message != ReadFailureMessage {
		t.Errorf("Message = %q", snap.Message)
	}
	if len(snap.Transcript.Messages) != 0 {
		t.Errorf("failed snapshot carries %d messages, want 0", len(snap.Transcript.Messages))
	}
	if _, ok := c.Cache().Get("a"); ok {
		t.Error("failed load was cached")
	}
}

func TestLoad_OpenFailure(t *testing.T) {
	c := New(nil)
	open := func() (source.LineSource, error) {
		return nil, source.ErrNotFound
	}
	_, err := c.Load(context.Background(), Request{SessionID: "a", Open: open})
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if c.Snapshot().State != StateFailed {
		t.Errorf("State = %s, want failed", c.Snapshot().State)
	}
}

func TestLoad_StaleFailureDiscarded(t *testing.T) {
	c := New(NewMapCache())
	boom := errors.New("gone")
	openA, gateA := gatedOpener(source.Lines().WithError(boom))
	openB, _ := countingOpener(userLine("ok"))

	doneA := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), Request{SessionID: "A", Open: openA})
		doneA <- err
	}()
	<-gateA.opened

	if _, err := c.Load(context.Background(), Request{SessionID: "B", Open: openB}); err != nil {
		t.Fatal(err)
	}
	close(gateA.release)

	if err := <-doneA; !errors.Is(err, ErrStale) {
		t.Errorf("Load A error = %v, want ErrStale", err)
	}
	if snap := c.Snapshot(); snap.State != StateReady || snap.SessionID != "B" {
		t.Errorf("snapshot = {%s %s}, want {B ready}", snap.SessionID, snap.State)
	}
}

func TestReset(t *testing.T) {
	c := New(NewMapCache())
	openA, gateA := gatedOpener(source.Lines(userLine("a")))

	doneA := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), Request{SessionID: "A", Open: openA})
		doneA <- err
	}()
	<-gateA.opened

	c.Reset()
	close(gateA.release)

	if err := <-doneA; !errors.Is(err, ErrStale) {
		t.Errorf("Load A error = %v, want ErrStale", err)
	}
	snap := c.Snapshot()
	if snap.State != StateIdle || !snap.Transcript.IsEmpty() {
		t.Errorf("snapshot = %+v, want idle and empty", snap)
	}
}

func TestObserverOrder(t *testing.T) {
	var states []State
	c := New(NewMapCache(), WithObserver(func(s Snapshot) {
		states = append(states, s.State)
	}))
	open, _ := countingOpener(userLine("x"))

	if _, err := c.Load(context.Background(), Request{SessionID: "a", Open: open}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load(context.Background(), Request{SessionID: "a", Open: open}); err != nil {
		t.Fatal(err)
	}

	want := []State{StateLoading, StateReady, StateReady}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestLoad_Canceled(t *testing.T) {
	c := New(NewMapCache())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	open, _ := countingOpener(userLine("x"))

	_, err := c.Load(ctx, Request{SessionID: "a", Open: open})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if snap := c.Snapshot(); snap.Message != CanceledMessage {
		t.Errorf("Message = %q, want %q", snap.Message, CanceledMessage)
	}
}

func TestLRUCacheEvicts(t *testing.T) {
	c := NewLRUCache(2)
	c.Set("a", model.Transcript{SessionID: "a"})
	c.Set("b", model.Transcript{SessionID: "b"})
	if _, ok := c.Get("a"); !ok { // touch a so b is least recent
		t.Fatal("a missing")
	}
	c.Set("c", model.Transcript{SessionID: "c"})

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateIdle:    "idle",
		StateLoading: "loading",
		StateReady:   "ready",
		StateFailed:  "failed",
		State(99):    "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

package vtest

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/democrat/pkg/codec"
	"github.com/vango-dev/democrat/pkg/democrat"
)

// Common errors for harness operations.
var (
	ErrEncodeFailed = errors.New("failed to encode snapshot")
	ErrDecodeFailed = errors.New("failed to decode snapshot")
)

// Harness wraps a store mounted on a ManualScheduler.
type Harness[S any] struct {
	tb       testing.TB
	children any
	opts     []democrat.Option

	store *democrat.Store[S]
	sched *democrat.ManualScheduler

	mu            sync.Mutex
	notifications int
	states        []S
	patches       []democrat.Patch
	unsubscribe   []func()
}

// New mounts children and destroys the store when the test ends. A logger
// writing to tb.Log is installed unless opts provide one.
func New[S any](tb testing.TB, children any, opts ...democrat.Option) *Harness[S] {
	tb.Helper()
	h := &Harness[S]{tb: tb, children: children, opts: opts}
	h.mount(nil)
	tb.Cleanup(h.close)
	return h
}

func (h *Harness[S]) mount(snap *democrat.Snapshot) {
	h.sched = democrat.NewManualScheduler()
	opts := []democrat.Option{
		democrat.WithLogger(Logger(h.tb)),
		democrat.WithName(strings.ReplaceAll(h.tb.Name(), "/", "_")),
	}
	opts = append(opts, h.opts...)
	opts = append(opts, democrat.WithScheduler(h.sched))
	if snap != nil {
		opts = append(opts, democrat.WithSnapshot(snap))
	}
	h.store = democrat.CreateStore[S](h.children, opts...)
	h.unsubscribe = []func(){
		h.store.Subscribe(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.notifications++
			h.states = append(h.states, h.store.GetState())
		}),
		h.store.SubscribePatches(func(ps []democrat.Patch) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.patches = append(h.patches, ps...)
		}),
	}
}

func (h *Harness[S]) close() {
	for _, fn := range h.unsubscribe {
		fn()
	}
	h.unsubscribe = nil
	if h.store != nil {
		h.store.Destroy()
		h.store = nil
	}
}

// Store returns the underlying store. The harness destroys it when the test
// ends.
func (h *Harness[S]) Store() *democrat.Store[S] { return h.store }

// Scheduler returns the scheduler driving the store.
func (h *Harness[S]) Scheduler() *democrat.ManualScheduler { return h.sched }

// State returns the current state.
func (h *Harness[S]) State() S { return h.store.GetState() }

// Flush runs queued tasks until none are left and returns how many ran.
func (h *Harness[S]) Flush() int { return h.sched.Flush() }

// Pending returns the number of queued tasks.
func (h *Harness[S]) Pending() int { return h.sched.Pending() }

// Act calls fn with the current state, then flushes.
func (h *Harness[S]) Act(fn func(state S)) {
	h.tb.Helper()
	fn(h.State())
	h.Flush()
}

// Render replaces the root children, then flushes.
func (h *Harness[S]) Render(children any) {
	h.children = children
	h.store.Render(children)
	h.Flush()
}

// Notifications returns how many times subscribers were notified.
func (h *Harness[S]) Notifications() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.notifications
}

// States returns the state observed at each notification, oldest first.
func (h *Harness[S]) States() []S {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]S(nil), h.states...)
}

// Patches returns every patch delivered so far, oldest first.
func (h *Harness[S]) Patches() []democrat.Patch {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]democrat.Patch(nil), h.patches...)
}

// Reset clears recorded notifications, states and patches.
func (h *Harness[S]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = 0
	h.states = nil
	h.patches = nil
}

// ExpectNotifications fails the test unless subscribers were notified n
// times.
func (h *Harness[S]) ExpectNotifications(n int) {
	h.tb.Helper()
	if got := h.Notifications(); got != n {
		h.tb.Errorf("expected %d notifications, got %d", n, got)
	}
}

// Replay mounts the same children in a new harness and applies every patch
// recorded so far.
func (h *Harness[S]) Replay() *Harness[S] {
	h.tb.Helper()
	replica := New[S](h.tb, h.children, h.opts...)
	replica.store.ApplyPatches(h.Patches())
	replica.Flush()
	replica.Reset()
	return replica
}

// Restart encodes the snapshot in format f, destroys the store, and mounts
// a new one from the decoded snapshot. Recorded notifications and patches
// are kept.
func (h *Harness[S]) Restart(f codec.Format) error {
	data, err := codec.EncodeSnapshot(f, h.store.Name(), h.store.GetSnapshot())
	if err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}
	h.close()
	snap, err := codec.DecodeSnapshot(f, data)
	if err != nil {
		return errors.Join(ErrDecodeFailed, err)
	}
	h.mount(snap)
	return nil
}

// ExpectFatal runs fn and returns the *democrat.FatalError it panicked with.
// The test fails if fn returns normally, panics with something else, or
// panics with an error that does not match target.
func ExpectFatal(tb testing.TB, target error, fn func()) (fatal *democrat.FatalError) {
	tb.Helper()
	defer func() {
		rec := recover()
		if rec == nil {
			tb.Fatalf("expected panic with %v, got none", target)
			return
		}
		err, ok := rec.(error)
		if !ok || !errors.As(err, &fatal) {
			tb.Fatalf("expected *democrat.FatalError, got %T: %v", rec, rec)
			return
		}
		if target != nil && !errors.Is(err, target) {
			tb.Fatalf("expected %v, got %v", target, err)
		}
	}()
	fn()
	return nil
}

// Logger returns a debug-level logger that writes through tb.Log.
func Logger(tb testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(tbWriter{tb}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type tbWriter struct{ tb testing.TB }

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

package democrat

import (
	"io"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore creates a store stepped by a ManualScheduler.
func newTestStore[S any](t *testing.T, children any, opts ...Option) (*Store[S], *ManualScheduler) {
	t.Helper()
	sched := NewManualScheduler()
	base := []Option{WithScheduler(sched), WithLogger(quietLogger())}
	return CreateStore[S](children, append(base, opts...)...), sched
}

// recoverError runs fn and returns the error it panicked with.
func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}

// counterState is what the counter components of these tests resolve to.
type counterState struct {
	Count int
	Set   *Setter[int]
}

func newCounter(name string) *Component[struct{}, counterState] {
	return NewComponent(name, func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		return counterState{Count: count, Set: set}
	})
}

// subscribeCount counts Subscribe notifications and records the state seen
// by each.
func subscribeCount[S any](s *Store[S]) *[]S {
	var seen []S
	s.Subscribe(func() {
		seen = append(seen, s.GetState())
	})
	return &seen
}

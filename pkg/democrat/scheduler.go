package democrat

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Scheduler defers work to a later task. A store schedules its idle-queue
// flushes and its passive effects through it. Tasks must run one at a time,
// in the order they were scheduled.
type Scheduler interface {
	// Schedule queues task. The returned function cancels the task if it has
	// not started yet.
	Schedule(task func()) (cancel func())
}

type task struct {
	fn        func()
	cancelled atomic.Bool
}

// QueueScheduler runs tasks in submission order on a dedicated goroutine.
// A task that panics is logged and does not stop the queue, unless it
// panicked with a *FatalError: that is logged and re-raised, which crashes
// the program the way an unrecovered panic on the caller's goroutine would.
type QueueScheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*task
	running bool
	closed  bool
	done    chan struct{}
	logger  *slog.Logger
	onPanic func(any)
}

// QueueOption configures a QueueScheduler.
type QueueOption func(*QueueScheduler)

// WithQueueLogger sets the logger used to report panicking tasks.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(s *QueueScheduler) {
		s.logger = logger
	}
}

// WithPanicHandler replaces the default panic reporting. The handler
// receives every recovered value, *FatalError included, and decides whether
// to re-raise it.
func WithPanicHandler(fn func(recovered any)) QueueOption {
	return func(s *QueueScheduler) {
		s.onPanic = fn
	}
}

// NewQueueScheduler starts a scheduler goroutine. Call Close to stop it.
func NewQueueScheduler(opts ...QueueOption) *QueueScheduler {
	s := &QueueScheduler{
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Schedule implements Scheduler. Tasks scheduled after Close are dropped.
func (s *QueueScheduler) Schedule(fn func()) func() {
	t := &task{fn: fn}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.queue = append(s.queue, t)
	s.mu.Unlock()
	s.cond.Broadcast()
	return func() { t.cancelled.Store(true) }
}

func (s *QueueScheduler) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.running = false
			s.cond.Broadcast()
			s.cond.Wait()
		}
		if s.closed {
			s.running = false
			s.queue = nil
			s.mu.Unlock()
			s.cond.Broadcast()
			return
		}
		t := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.running = true
		s.mu.Unlock()

		if !t.cancelled.Load() {
			s.execute(t.fn)
		}
	}
}

func (s *QueueScheduler) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if s.onPanic != nil {
				s.onPanic(r)
				return
			}
			s.logger.Error("scheduled task panicked", "panic", r)
			if fatal, ok := r.(*FatalError); ok {
				panic(fatal)
			}
		}
	}()
	fn()
}

// Drain blocks until the queue is empty and no task is running, including
// tasks scheduled by the tasks it waited for.
func (s *QueueScheduler) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for (len(s.queue) > 0 || s.running) && !s.closed {
		s.cond.Wait()
	}
}

// Close stops the scheduler. The running task finishes; pending tasks are
// dropped. Close is idempotent.
func (s *QueueScheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Done is closed when the scheduler goroutine has exited.
func (s *QueueScheduler) Done() <-chan struct{} {
	return s.done
}

// ManualScheduler queues tasks until the caller runs them. Tests use it to
// step a store deterministically.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []*task
}

// NewManualScheduler returns an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule implements Scheduler.
func (s *ManualScheduler) Schedule(fn func()) func() {
	t := &task{fn: fn}
	s.mu.Lock()
	s.queue = append(s.queue, t)
	s.mu.Unlock()
	return func() { t.cancelled.Store(true) }
}

// RunNext runs the oldest task that was not cancelled. It reports whether a
// task ran.
func (s *ManualScheduler) RunNext() bool {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return false
		}
		t := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		if t.cancelled.Load() {
			continue
		}
		t.fn()
		return true
	}
}

// Flush runs tasks until the queue is empty, including tasks scheduled while
// flushing, and returns how many ran.
func (s *ManualScheduler) Flush() int {
	n := 0
	for s.RunNext() {
		n++
	}
	return n
}

// Pending returns the number of queued tasks that were not cancelled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.queue {
		if !t.cancelled.Load() {
			n++
		}
	}
	return n
}

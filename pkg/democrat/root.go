package democrat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/democrat/pkg/telemetry"
)

// idleTask is a queued mutation. Tasks of a node that was removed before
// the queue drained are dropped.
type idleTask struct {
	node *node
	fn   func()
}

// pendingEffects is the scheduled passive-effects task of a render.
type pendingEffects struct {
	cancel func()
}

type listener[F any] struct {
	id uint64
	fn F
}

// root owns one mounted tree. Every field below mu is guarded by it; mu is
// held through exec, which the holding goroutine may re-enter.
type root struct {
	id        string
	name      string
	logger    *slog.Logger
	scheduler Scheduler
	owned     *QueueScheduler
	passive   bool
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	hostHooks *HostHooks
	patchErr  func(Patch, error)

	mu    sync.Mutex
	owner atomic.Uint64

	node     *node
	children any
	snapshot *Snapshot
	reg      registry
	stack    []*node

	queue           []idleTask
	flushScheduled  bool
	renderRequested bool
	patches         []Patch
	effects         *pendingEffects
	destroyed       bool
	broken          *FatalError
	outbox          []func()

	stateMu sync.RWMutex
	state   any

	listenersMu    sync.Mutex
	nextListener   uint64
	listeners      []listener[func()]
	patchListeners []listener[func([]Patch)]
}

func newRoot(children any, opts ...Option) *root {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	r := &root{
		id:        uuid.NewString(),
		name:      o.name,
		scheduler: o.scheduler,
		passive:   o.passive,
		metrics:   o.metrics,
		tracer:    o.tracer,
		hostHooks: o.hostHooks,
		patchErr:  o.onPatchError,
		children:  children,
		snapshot:  o.snapshot,
	}
	if r.name == "" {
		r.name = r.id
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	r.logger = logger.With("store", r.name)
	if r.scheduler == nil {
		r.owned = NewQueueScheduler(WithQueueLogger(r.logger))
		r.scheduler = r.owned
	}
	if r.tracer == nil {
		r.tracer = telemetry.NewTracer()
	}
	if r.patchErr == nil {
		r.patchErr = logPatchError(r.logger)
	}
	r.node = newNode(KindRoot, nil, Segment{})
	return r
}

// exec runs fn while holding the root lock. A goroutine already holding it
// runs fn directly. Subscriber notifications collected while the lock was
// held are delivered after the outermost exec releases it.
func (r *root) exec(fn func()) {
	gid := goroutineID()
	if r.owner.Load() == gid {
		fn()
		return
	}

	r.mu.Lock()
	r.owner.Store(gid)
	completed := false
	defer func() {
		out := r.outbox
		r.outbox = nil
		if !completed {
			r.stack = r.stack[:0]
			out = nil
		}
		r.owner.Store(0)
		r.mu.Unlock()
		for _, deliver := range out {
			deliver()
		}
	}()
	fn()
	completed = true
}

// fail logs err and panics with it.
func (r *root) fail(err *FatalError) {
	r.logger.Error(err.Err.Error(), "code", err.Code, "op", err.Op, "detail", err.detail.Message)
	panic(err)
}

// current returns the component on top of the render stack.
func (r *root) current() *node {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// onIdle queues fn on behalf of n (nil for store-level operations) and
// makes sure a flush is scheduled.
func (r *root) onIdle(n *node, op string, fn func()) {
	r.exec(func() {
		switch {
		case r.destroyed:
			r.fail(newFatal("DEM006", ErrDestroyed, op, "%s called on destroyed store %s", op, r.name))
		case r.broken != nil:
			panic(r.broken)
		case len(r.stack) > 0:
			r.fail(newFatal("DEM004", ErrSetDuringRender, op, "%s called while %s is rendering", op, r.current().name()))
		case n != nil && n.state == StateRemoved:
			r.fail(newFatal("DEM003", ErrUnmounted, op, "%s called on %s after it was unmounted", op, n.name()))
		}
		r.queue = append(r.queue, idleTask{node: n, fn: fn})
		if !r.flushScheduled {
			r.flushScheduled = true
			r.scheduler.Schedule(r.flushTask)
		}
	})
}

// breakOnFatal marks the store broken when the calling task panics with a
// *FatalError, then re-panics. Deferred inside exec so the lock is held.
func (r *root) breakOnFatal() {
	if rec := recover(); rec != nil {
		if fatal, ok := rec.(*FatalError); ok && r.broken == nil {
			r.broken = fatal
			r.queue = nil
		}
		panic(rec)
	}
}

func (r *root) flushTask() {
	r.exec(func() {
		defer r.breakOnFatal()
		r.flushScheduled = false
		if r.destroyed {
			r.queue = nil
			return
		}
		if r.flush() {
			r.render("update")
		}
	})
}

// flush drains the idle queue, including tasks queued while draining, and
// reports whether any of them requested a render.
func (r *root) flush() bool {
	for len(r.queue) > 0 {
		queue := r.queue
		r.queue = nil
		for _, t := range queue {
			if t.node != nil && t.node.state == StateRemoved {
				r.logger.Debug("dropped update of unmounted component", "component", t.node.name())
				continue
			}
			t.fn()
		}
	}
	requested := r.renderRequested
	r.renderRequested = false
	return requested
}

func (r *root) requestRender(p *Patch) {
	if p != nil {
		r.patches = append(r.patches, *p)
	}
	r.renderRequested = true
}

// render reconciles the tree and runs effects until no layout effect asks
// for another render, then notifies subscribers once. A component that sets
// state on every render never settles.
func (r *root) render(reason string) {
	start := time.Now()
	_, span := r.tracer.StartRender(context.Background(), r.name, reason)
	passes := 0
	defer func() {
		if rec := recover(); rec != nil {
			span.End(passes, 0, fmt.Errorf("render panicked: %v", rec))
			panic(rec)
		}
	}()

	for {
		passes++
		r.reconcile()
		r.scheduleEffects()
		r.layoutEffects()
		if !r.flush() {
			break
		}
		r.cancelEffects()
		r.passiveEffects()
		r.flush()
	}

	patches := r.patches
	r.patches = nil
	r.notify(patches)

	elapsed := time.Since(start)
	r.metrics.ObserveRender(r.name, passes, elapsed)
	span.End(passes, len(patches), nil)
	r.logger.Debug("render settled",
		"reason", reason,
		"passes", passes,
		"patches", len(patches),
		"duration", elapsed)
}

func (r *root) reconcile() {
	if r.node.child == nil {
		r.node.child = r.mount(r.children, r.node, rootSegment, r.snapshot.as(KindRoot).child())
		r.snapshot = nil
	} else {
		r.node.child = r.update(r.node.child, r.children, r.node, rootSegment)
		r.node.state = StateUpdated
	}
	r.node.value = r.node.child.value

	r.stateMu.Lock()
	r.state = r.node.value
	r.stateMu.Unlock()
}

func (r *root) scheduleEffects() {
	p := &pendingEffects{}
	p.cancel = r.scheduler.Schedule(func() { r.passiveTask(p) })
	r.effects = p
}

func (r *root) cancelEffects() {
	if r.effects != nil {
		r.effects.cancel()
		r.effects = nil
	}
}

func (r *root) passiveTask(p *pendingEffects) {
	r.exec(func() {
		defer r.breakOnFatal()
		if r.destroyed {
			return
		}
		if r.effects == p {
			r.effects = nil
		}
		r.passiveEffects()
		if r.flush() {
			r.render("effect")
		}
	})
}

// notify queues subscriber deliveries for after the lock is released.
func (r *root) notify(patches []Patch) {
	r.listenersMu.Lock()
	listeners := make([]func(), len(r.listeners))
	for i, l := range r.listeners {
		listeners[i] = l.fn
	}
	var patchListeners []func([]Patch)
	if len(patches) > 0 {
		patchListeners = make([]func([]Patch), len(r.patchListeners))
		for i, l := range r.patchListeners {
			patchListeners[i] = l.fn
		}
	}
	r.listenersMu.Unlock()

	r.outbox = append(r.outbox, func() {
		for _, fn := range listeners {
			fn()
		}
	})
	if len(patches) > 0 {
		r.metrics.PatchesEmitted(r.name, len(patches))
		r.outbox = append(r.outbox, func() {
			for _, fn := range patchListeners {
				fn(patches)
			}
		})
	}
}

func (r *root) subscribe(fn func()) func() {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.nextListener++
	id := r.nextListener
	r.listeners = append(r.listeners, listener[func()]{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() {
			r.listenersMu.Lock()
			defer r.listenersMu.Unlock()
			r.listeners = removeListener(r.listeners, id)
		})
	}
}

func (r *root) subscribePatches(fn func([]Patch)) func() {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.nextListener++
	id := r.nextListener
	r.patchListeners = append(r.patchListeners, listener[func([]Patch)]{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() {
			r.listenersMu.Lock()
			defer r.listenersMu.Unlock()
			r.patchListeners = removeListener(r.patchListeners, id)
		})
	}
}

func removeListener[F any](ls []listener[F], id uint64) []listener[F] {
	i := sort.Search(len(ls), func(i int) bool { return ls[i].id >= id })
	if i < len(ls) && ls[i].id == id {
		return append(ls[:i:i], ls[i+1:]...)
	}
	return ls
}

func (r *root) getState() any {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.state
}

func (r *root) setChildren(children any) {
	r.onIdle(nil, "Render", func() {
		r.children = children
		r.requestRender(nil)
	})
}

func (r *root) applyPatches(patches []Patch) {
	r.onIdle(nil, "ApplyPatches", func() {
		applied := 0
		for _, p := range patches {
			if err := r.applyPatch(p); err != nil {
				r.patchErr(p, err)
				continue
			}
			applied++
		}
		r.metrics.PatchesApplied(r.name, applied)
	})
}

func (r *root) getSnapshot() *Snapshot {
	var s *Snapshot
	r.exec(func() {
		s = snapshot(r.node)
	})
	return s
}

func (r *root) destroy() {
	r.exec(func() {
		if r.destroyed {
			r.fail(newFatal("DEM007", ErrAlreadyDestroyed, "Destroy", "store %s was already destroyed", r.name))
		}
		r.cancelEffects()
		r.unmount()
		r.destroyed = true
		r.queue = nil
		r.metrics.StoreClosed()
		if r.owned != nil {
			r.owned.Close()
		}
		r.logger.Debug("store destroyed")
	})
}

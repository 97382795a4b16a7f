// Package democrat is the public API for the Democrat runtime.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/democrat"
//
// Usage:
//
//	var Counter = democrat.NewComponent("Counter", func(h *democrat.Hooks, _ struct{}) int {
//	    count, _ := democrat.UseState(h, 0)
//	    return count
//	})
//
//	store := democrat.CreateStore[int](Counter.Create(struct{}{}))
//	defer store.Destroy()
//
// The runtime itself lives in pkg/democrat; this package re-exports it so
// applications need a single import.
package democrat

import (
	core "github.com/vango-dev/democrat/pkg/democrat"
)

// =============================================================================
// Store
// =============================================================================

// Store holds a mounted tree and its resolved state.
type Store[S any] = core.Store[S]

// Option configures a store.
type Option = core.Option

// CreateStore mounts children and returns the store. The first render runs
// before CreateStore returns.
func CreateStore[S any](children any, opts ...Option) *Store[S] {
	return core.CreateStore[S](children, opts...)
}

// Store options.
var (
	WithScheduler         = core.WithScheduler
	WithLogger            = core.WithLogger
	WithPassiveMode       = core.WithPassiveMode
	WithSnapshot          = core.WithSnapshot
	WithMetrics           = core.WithMetrics
	WithTracing           = core.WithTracing
	WithName              = core.WithName
	WithHostHooks         = core.WithHostHooks
	WithPatchErrorHandler = core.WithPatchErrorHandler
)

// =============================================================================
// Components and children
// =============================================================================

// Hooks is the per-render handle passed to a component function.
type Hooks = core.Hooks

// Element is a component or provider bound to its props.
type Element = core.Element

// Component is a typed component function.
type Component[P, T any] = core.Component[P, T]

// Map is an insertion-ordered children map.
type Map = core.Map

// Deps is a dependency list for effects and memos.
type Deps = core.Deps

// Cleanup is returned by an effect to undo it.
type Cleanup = core.Cleanup

// Ref is a mutable box that survives renders.
type Ref[T any] = core.Ref[T]

// Setter updates a UseState value.
type Setter[S any] = core.Setter[S]

// Dispatcher sends actions to a UseReducer reducer.
type Dispatcher[A any] = core.Dispatcher[A]

// NewComponent wraps fn as a component called name.
func NewComponent[P, T any](name string, fn func(h *Hooks, props P) T) *Component[P, T] {
	return core.NewComponent(name, fn)
}

// NewMap returns an empty insertion-ordered map.
func NewMap() *Map { return core.NewMap() }

// =============================================================================
// Hooks
// =============================================================================

// UseState returns the current state and a stable setter for it.
func UseState[S any](h *Hooks, initial S) (S, *Setter[S]) {
	return core.UseState(h, initial)
}

// UseStateFunc is UseState with a lazy initializer run on mount only.
func UseStateFunc[S any](h *Hooks, initial func() S) (S, *Setter[S]) {
	return core.UseStateFunc(h, initial)
}

// UseReducer returns the reduced state and a stable dispatcher.
func UseReducer[S, A any](h *Hooks, reducer func(state S, action A) S, initial S) (S, *Dispatcher[A]) {
	return core.UseReducer(h, reducer, initial)
}

// UseReducerFunc is UseReducer with the initial state computed as init(arg) on mount.
func UseReducerFunc[S, A, I any](h *Hooks, reducer func(state S, action A) S, arg I, init func(I) S) (S, *Dispatcher[A]) {
	return core.UseReducerFunc(h, reducer, arg, init)
}

// UseEffect runs effect after the render settles when deps changed.
func UseEffect(h *Hooks, effect func() Cleanup, deps Deps) {
	core.UseEffect(h, effect, deps)
}

// UseLayoutEffect runs effect synchronously before subscribers are notified.
func UseLayoutEffect(h *Hooks, effect func() Cleanup, deps Deps) {
	core.UseLayoutEffect(h, effect, deps)
}

// UseMemo returns the cached result of compute until deps change.
func UseMemo[T any](h *Hooks, compute func() T, deps Deps) T {
	return core.UseMemo(h, compute, deps)
}

// UseCallback returns the same fn until deps change.
func UseCallback[F any](h *Hooks, fn F, deps Deps) F {
	return core.UseCallback(h, fn, deps)
}

// UseRef returns a mutable box that keeps its identity across renders.
func UseRef[T any](h *Hooks, initial T) *Ref[T] {
	return core.UseRef(h, initial)
}

// UseChildren mounts children under the calling component and returns their
// resolved value.
func UseChildren[T any](h *Hooks, children any) T {
	return core.UseChildren[T](h, children)
}

// =============================================================================
// Context
// =============================================================================

// Context carries a value down the tree to UseContext callers.
type Context[T any] = core.Context[T]

// CreateContext creates a context whose consumers see defaultValue without a provider.
func CreateContext[T any](defaultValue T) *Context[T] {
	return core.CreateContext(defaultValue)
}

// CreateContextNoDefault creates a context with no default value.
func CreateContextNoDefault[T any]() *Context[T] {
	return core.CreateContextNoDefault[T]()
}

// UseContext returns the value of the nearest enclosing provider of ctx.
func UseContext[T any](h *Hooks, ctx *Context[T]) T {
	return core.UseContext(h, ctx)
}

// MustUseContext is UseContext that panics with ErrMissingProvider when there
// is neither a provider nor a default.
func MustUseContext[T any](h *Hooks, ctx *Context[T]) T {
	return core.MustUseContext(h, ctx)
}

// =============================================================================
// Snapshots and patches
// =============================================================================

type (
	Snapshot      = core.Snapshot
	SnapshotEntry = core.SnapshotEntry
	HookSnapshot  = core.HookSnapshot
	Patch         = core.Patch
	PatchKind     = core.PatchKind
	Segment       = core.Segment
	SegmentKind   = core.SegmentKind
)

const (
	PatchState   = core.PatchState
	PatchReducer = core.PatchReducer
)

// =============================================================================
// Scheduling
// =============================================================================

type (
	Scheduler       = core.Scheduler
	QueueScheduler  = core.QueueScheduler
	QueueOption     = core.QueueOption
	ManualScheduler = core.ManualScheduler
)

var (
	NewQueueScheduler  = core.NewQueueScheduler
	NewManualScheduler = core.NewManualScheduler
	WithQueueLogger    = core.WithQueueLogger
	WithPanicHandler   = core.WithPanicHandler
)

// =============================================================================
// Errors and equality
// =============================================================================

// FatalError is the panic value for misuse of the runtime.
type FatalError = core.FatalError

var (
	ErrHookOrder         = core.ErrHookOrder
	ErrOutsideRender     = core.ErrOutsideRender
	ErrUnmounted         = core.ErrUnmounted
	ErrSetDuringRender   = core.ErrSetDuringRender
	ErrDestroyed         = core.ErrDestroyed
	ErrAlreadyDestroyed  = core.ErrAlreadyDestroyed
	ErrInvalidChildren   = core.ErrInvalidChildren
	ErrMissingProvider   = core.ErrMissingProvider
	ErrInvalidPatchPath  = core.ErrInvalidPatchPath
	ErrPatchHookMismatch = core.ErrPatchHookMismatch
)

// HostHooks routes an untyped hooks API into a store.
type HostHooks = core.HostHooks

// Is reports whether a and b are the same value for dependency comparison.
func Is(a, b any) bool { return core.Is(a, b) }

// ShallowEqual is the props comparison used to skip re-rendering a child.
func ShallowEqual(a, b any) bool { return core.ShallowEqual(a, b) }

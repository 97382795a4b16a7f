package democrat

import "log/slog"

// HookKind identifies the hook stored in one slot of a component.
type HookKind uint8

const (
	HookState HookKind = iota + 1
	HookReducer
	HookMemo
	HookRef
	HookEffect
	HookLayoutEffect
	HookContext
	HookChildren
)

// String returns the name used in snapshots and errors.
func (k HookKind) String() string {
	switch k {
	case HookState:
		return "STATE"
	case HookReducer:
		return "REDUCER"
	case HookMemo:
		return "MEMO"
	case HookRef:
		return "REF"
	case HookEffect:
		return "EFFECT"
	case HookLayoutEffect:
		return "LAYOUT_EFFECT"
	case HookContext:
		return "CONTEXT"
	case HookChildren:
		return "CHILDREN"
	default:
		return "UNKNOWN"
	}
}

func (k HookKind) op() string {
	switch k {
	case HookState:
		return "UseState"
	case HookReducer:
		return "UseReducer"
	case HookMemo:
		return "UseMemo"
	case HookRef:
		return "UseRef"
	case HookEffect:
		return "UseEffect"
	case HookLayoutEffect:
		return "UseLayoutEffect"
	case HookContext:
		return "UseContext"
	case HookChildren:
		return "UseChildren"
	default:
		return "hook"
	}
}

// hookEntry is one slot of a component's hook storage.
type hookEntry interface {
	kind() HookKind
}

type stateHook struct {
	value   any
	setter  any
	convert func(any) (any, error)
}

type reducerHook struct {
	value         any
	reduce        func(state, action any) any
	convertAction func(any) (any, error)
	dispatcher    any
}

type memoHook struct {
	value any
	deps  Deps
}

type refHook struct {
	ref any
}

type effectHook struct {
	layout  bool
	effect  func() Cleanup
	cleanup Cleanup
	deps    Deps
	dirty   bool
}

type contextHook struct {
	ctx      *contextKey
	provider *node
}

type childrenHook struct {
	child *node
}

func (*stateHook) kind() HookKind    { return HookState }
func (*reducerHook) kind() HookKind  { return HookReducer }
func (*memoHook) kind() HookKind     { return HookMemo }
func (*refHook) kind() HookKind      { return HookRef }
func (*contextHook) kind() HookKind  { return HookContext }
func (*childrenHook) kind() HookKind { return HookChildren }

func (e *effectHook) kind() HookKind {
	if e.layout {
		return HookLayoutEffect
	}
	return HookEffect
}

// Hooks is the render handle passed to a component function. It is valid
// only for the duration of that render; hooks called through a handle whose
// render has finished fail with ErrOutsideRender.
type Hooks struct {
	root     *root
	node     *node
	index    int
	contexts map[*contextKey]struct{}
	done     bool
}

// Name returns the name of the rendering component.
func (h *Hooks) Name() string {
	return h.node.name()
}

// Logger returns the store logger, scoped to the rendering component.
func (h *Hooks) Logger() *slog.Logger {
	return h.root.logger.With("component", h.node.name())
}

func (h *Hooks) check(k HookKind) {
	if h == nil || h.root == nil {
		panic(newFatal("DEM002", ErrOutsideRender, k.op(), "%s called without a render handle", k.op()))
	}
	if h.done || h.root.current() != h.node {
		h.root.fail(newFatal("DEM002", ErrOutsideRender, k.op(),
			"%s called through the handle of %s, which is not rendering", k.op(), h.node.name()).withCaller(3))
	}
}

// next advances the hook cursor. It returns the stored entry when the slot
// already exists, checking that it has kind k.
func (h *Hooks) next(k HookKind) (hookEntry, int, bool) {
	h.check(k)
	idx := h.index
	h.index++
	if idx < len(h.node.hooks) {
		entry := h.node.hooks[idx]
		if entry.kind() != k {
			h.root.fail(newFatal("DEM001", ErrHookOrder, k.op(),
				"hook %d of %s was %s on the previous render, got %s", idx, h.node.name(), entry.kind(), k).withCaller(2))
		}
		return entry, idx, true
	}
	if h.node.rendered {
		h.root.fail(newFatal("DEM001", ErrHookOrder, k.op(),
			"%s called %d hooks on its previous render, got more", h.node.name(), len(h.node.hooks)).withCaller(2))
	}
	return nil, idx, false
}

func (h *Hooks) add(e hookEntry) {
	h.node.hooks = append(h.node.hooks, e)
}

// finish asserts the hook count of a re-render.
func (h *Hooks) finish() {
	if h.node.rendered && h.index != len(h.node.hooks) {
		h.root.fail(newFatal("DEM001", ErrHookOrder, "render",
			"%s called %d hooks, %d on its previous render", h.node.name(), h.index, len(h.node.hooks)))
	}
}

// UseChildren mounts children below the rendering component and returns
// their value. children may be nil, an *Element, a slice or array, a *Map or
// a map with string keys, nested arbitrarily. On later renders the mounted
// subtree is reconciled against the new children.
//
// Containers resolve to []any, map[string]any and *Map; T may also be a
// typed slice or string-keyed map whose elements the values are assignable to.
func UseChildren[T any](h *Hooks, children any) T {
	entry, idx, existing := h.next(HookChildren)
	var child *node
	if existing {
		ch := entry.(*childrenHook)
		ch.child = h.root.update(ch.child, children, h.node, hookSegment(idx))
		child = ch.child
	} else {
		var snap *Snapshot
		if hs := h.node.snapshot.hook(idx, HookChildren); hs != nil {
			snap = hs.Child
		}
		child = h.root.mount(children, h.node, hookSegment(idx), snap)
		h.add(&childrenHook{child: child})
	}
	return convertValue[T](child.value)
}

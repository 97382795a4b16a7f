package democrat

// UseMemo returns compute(), recomputed only when deps changed since the
// previous render. A nil deps recomputes on every render.
func UseMemo[T any](h *Hooks, compute func() T, deps Deps) T {
	entry, _, existing := h.next(HookMemo)
	if !existing {
		mh := &memoHook{value: compute(), deps: deps}
		h.add(mh)
		return as[T](mh.value)
	}
	mh := entry.(*memoHook)
	if depsChanged(mh.deps, deps) {
		mh.deps = deps
		mh.value = compute()
	}
	return as[T](mh.value)
}

// UseCallback returns fn as it was on the render where deps last changed.
func UseCallback[F any](h *Hooks, fn F, deps Deps) F {
	return UseMemo(h, func() F { return fn }, deps)
}

// Ref is a mutable box that lives as long as its component instance.
// Writing Current never re-renders.
type Ref[T any] struct {
	Current T
}

// UseRef returns the same *Ref on every render of the component.
func UseRef[T any](h *Hooks, initial T) *Ref[T] {
	entry, _, existing := h.next(HookRef)
	if existing {
		return entry.(*refHook).ref.(*Ref[T])
	}
	ref := &Ref[T]{Current: initial}
	h.add(&refHook{ref: ref})
	return ref
}

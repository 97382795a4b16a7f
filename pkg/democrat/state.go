package democrat

// Setter updates the value of a UseState hook. It is safe to call from any
// goroutine and at any time except synchronously inside a render; the update
// is queued and applied when the store is idle.
type Setter[S any] struct {
	root  *root
	node  *node
	hook  *stateHook
	index int
}

// Set replaces the state with v.
func (s *Setter[S]) Set(v S) {
	s.apply("Setter.Set", func(S) S { return v })
}

// Update replaces the state with fn applied to the state at the time the
// update runs.
func (s *Setter[S]) Update(fn func(prev S) S) {
	s.apply("Setter.Update", fn)
}

func (s *Setter[S]) apply(op string, fn func(S) S) {
	s.root.onIdle(s.node, op, func() {
		prev := as[S](s.hook.value)
		next := fn(prev)
		if Is(any(next), s.hook.value) {
			return
		}
		s.hook.value = next
		markDirty(s.node, nil)
		s.root.requestRender(&Patch{
			Path:      pathOf(s.node),
			HookIndex: s.index,
			Kind:      PatchState,
			Value:     next,
		})
	})
}

// UseState returns the current state of the hook and its setter. initial is
// used on the first render only, unless a snapshot seeds the hook.
func UseState[S any](h *Hooks, initial S) (S, *Setter[S]) {
	return useState(h, func() S { return initial })
}

// UseStateFunc is UseState with a lazily computed initial value.
func UseStateFunc[S any](h *Hooks, initial func() S) (S, *Setter[S]) {
	return useState(h, initial)
}

func useState[S any](h *Hooks, initial func() S) (S, *Setter[S]) {
	entry, idx, existing := h.next(HookState)
	if existing {
		sh := entry.(*stateHook)
		return as[S](sh.value), sh.setter.(*Setter[S])
	}

	var value S
	if hs := h.node.snapshot.hook(idx, HookState); hs != nil {
		v, err := coerce[S](hs.Value)
		if err != nil {
			h.root.logger.Warn("snapshot value ignored",
				"component", h.node.name(), "hook", idx, "error", err)
			value = initial()
		} else {
			value = v
		}
	} else {
		value = initial()
	}

	sh := &stateHook{
		value:   value,
		convert: func(v any) (any, error) { return coerce[S](v) },
	}
	setter := &Setter[S]{root: h.root, node: h.node, hook: sh, index: idx}
	sh.setter = setter
	h.add(sh)
	return value, setter
}

// Dispatcher sends actions to a UseReducer hook. Like Setter it may be called
// from any goroutine outside of a render.
type Dispatcher[A any] struct {
	root  *root
	node  *node
	hook  *reducerHook
	index int
}

// Dispatch queues action. When it runs, the latest reducer passed to
// UseReducer computes the next state.
func (d *Dispatcher[A]) Dispatch(action A) {
	d.root.onIdle(d.node, "Dispatcher.Dispatch", func() {
		next := d.hook.reduce(d.hook.value, action)
		if Is(next, d.hook.value) {
			return
		}
		d.hook.value = next
		markDirty(d.node, nil)
		d.root.requestRender(&Patch{
			Path:      pathOf(d.node),
			HookIndex: d.index,
			Kind:      PatchReducer,
			Action:    action,
		})
	})
}

// UseReducer returns the current state of the hook and its dispatcher.
func UseReducer[S, A any](h *Hooks, reducer func(state S, action A) S, initial S) (S, *Dispatcher[A]) {
	return useReducer(h, reducer, func() S { return initial })
}

// UseReducerFunc is UseReducer with the initial state computed by init(arg)
// on the first render.
func UseReducerFunc[S, A, I any](h *Hooks, reducer func(state S, action A) S, arg I, init func(I) S) (S, *Dispatcher[A]) {
	return useReducer(h, reducer, func() S { return init(arg) })
}

func useReducer[S, A any](h *Hooks, reducer func(S, A) S, initial func() S) (S, *Dispatcher[A]) {
	reduce := func(state, action any) any {
		return reducer(as[S](state), as[A](action))
	}

	entry, idx, existing := h.next(HookReducer)
	if existing {
		rh := entry.(*reducerHook)
		rh.reduce = reduce
		return as[S](rh.value), rh.dispatcher.(*Dispatcher[A])
	}

	var value S
	if hs := h.node.snapshot.hook(idx, HookReducer); hs != nil {
		v, err := coerce[S](hs.Value)
		if err != nil {
			h.root.logger.Warn("snapshot value ignored",
				"component", h.node.name(), "hook", idx, "error", err)
			value = initial()
		} else {
			value = v
		}
	} else {
		value = initial()
	}

	rh := &reducerHook{
		value:         value,
		reduce:        reduce,
		convertAction: func(v any) (any, error) { return coerce[A](v) },
	}
	d := &Dispatcher[A]{root: h.root, node: h.node, hook: rh, index: idx}
	rh.dispatcher = d
	h.add(rh)
	return value, d
}

package democrat

// HostHooks lets code written against an untyped hooks API run inside a
// store. Install the fields with whatever implementation applies outside a
// store; while a component of a store configured WithHostHooks renders, the
// fields call that component's hooks instead, and they are restored when the
// render returns.
//
// A HostHooks value must not be shared by stores that render concurrently.
type HostHooks struct {
	UseState        func(initial any) (any, func(any))
	UseReducer      func(reducer func(state, action any) any, initial any) (any, func(any))
	UseEffect       func(effect func() func(), deps []any)
	UseLayoutEffect func(effect func() func(), deps []any)
	UseMemo         func(compute func() any, deps []any) any
	UseCallback     func(fn any, deps []any) any
	UseRef          func(initial any) *Ref[any]
}

// bindHostHooks points the host hooks at h and returns the restore func.
func (r *root) bindHostHooks(h *Hooks) func() {
	hh := r.hostHooks
	if hh == nil {
		return func() {}
	}
	saved := *hh
	*hh = HostHooks{
		UseState: func(initial any) (any, func(any)) {
			v, set := UseState[any](h, initial)
			return v, func(next any) { set.Set(next) }
		},
		UseReducer: func(reducer func(state, action any) any, initial any) (any, func(any)) {
			v, d := UseReducer[any, any](h, reducer, initial)
			return v, d.Dispatch
		},
		UseEffect: func(effect func() func(), deps []any) {
			UseEffect(h, hostEffect(effect), hostDeps(deps))
		},
		UseLayoutEffect: func(effect func() func(), deps []any) {
			UseLayoutEffect(h, hostEffect(effect), hostDeps(deps))
		},
		UseMemo: func(compute func() any, deps []any) any {
			return UseMemo(h, compute, hostDeps(deps))
		},
		UseCallback: func(fn any, deps []any) any {
			return UseCallback(h, fn, hostDeps(deps))
		},
		UseRef: func(initial any) *Ref[any] {
			return UseRef(h, initial)
		},
	}
	return func() { *hh = saved }
}

func hostEffect(effect func() func()) func() Cleanup {
	return func() Cleanup {
		if c := effect(); c != nil {
			return c
		}
		return nil
	}
}

func hostDeps(deps []any) Deps {
	if deps == nil {
		return nil
	}
	return Deps(deps)
}

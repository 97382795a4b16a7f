package democrat

// Cleanup undoes an effect. A nil Cleanup is allowed.
type Cleanup func()

// UseEffect registers a passive effect. It runs after the render settles,
// from a scheduler task, or synchronously when a layout effect requested
// another render. The previous cleanup runs first whenever deps changed.
func UseEffect(h *Hooks, effect func() Cleanup, deps Deps) {
	useEffect(h, false, effect, deps)
}

// UseLayoutEffect registers an effect that runs synchronously right after
// the render, before subscribers are notified. State set from a layout effect
// is applied before the render settles.
func UseLayoutEffect(h *Hooks, effect func() Cleanup, deps Deps) {
	useEffect(h, true, effect, deps)
}

func useEffect(h *Hooks, layout bool, effect func() Cleanup, deps Deps) {
	k := HookEffect
	if layout {
		k = HookLayoutEffect
	}
	entry, _, existing := h.next(k)
	if !existing {
		h.add(&effectHook{layout: layout, effect: effect, deps: deps, dirty: true})
		return
	}
	eh := entry.(*effectHook)
	if depsChanged(eh.deps, deps) {
		eh.effect = effect
		eh.deps = deps
		eh.dirty = true
	}
}

// layoutEffects runs layout cleanups, then layout effects.
func (r *root) layoutEffects() {
	r.cleanup(r.node, true, false)
	r.effect(r.node, true)
}

// passiveEffects runs passive cleanups, then passive effects, and leaves
// every visited node stable.
func (r *root) passiveEffects() {
	r.cleanup(r.node, false, false)
	r.effect(r.node, false)
}

// unmount runs every outstanding cleanup.
func (r *root) unmount() {
	r.cleanup(r.node, true, true)
	r.cleanup(r.node, false, true)
}

func (r *root) cleanup(n *node, layout, force bool) {
	for _, d := range n.disposals {
		r.cleanupTree(d, layout, force)
	}
	if !layout {
		n.disposals = nil
	}
	r.cleanupTree(n, layout, force)
}

func (r *root) cleanupTree(n *node, layout, force bool) {
	if n.state == StateRemoved {
		force = true
	}
	switch n.kind {
	case KindRoot, KindProvider:
		if n.child != nil {
			r.cleanup(n.child, layout, force)
		}
	case KindNull:
	case KindComponent:
		for _, entry := range n.hooks {
			switch hk := entry.(type) {
			case *childrenHook:
				r.cleanup(hk.child, layout, force)
			case *effectHook:
				if hk.layout == layout && hk.cleanup != nil && (hk.dirty || force) {
					c := hk.cleanup
					hk.cleanup = nil
					c()
				}
			}
		}
		if force && !layout {
			r.reg.unsubscribeAll(n)
		}
	case KindArray:
		for _, item := range n.items {
			r.cleanup(item, layout, force)
		}
	case KindRecord:
		for _, k := range n.fieldKeys {
			r.cleanup(n.fields[k], layout, force)
		}
	case KindMap:
		for _, k := range n.entryKeys {
			r.cleanup(n.entries[k], layout, force)
		}
	default:
		panic("unreachable")
	}
	if force && !layout {
		n.state = StateRemoved
	}
}

func (r *root) effect(n *node, layout bool) {
	if n.state == StateStable || n.state == StateRemoved {
		return
	}
	switch n.kind {
	case KindRoot, KindProvider:
		if n.child != nil {
			r.effect(n.child, layout)
		}
	case KindNull:
	case KindComponent:
		for _, entry := range n.hooks {
			switch hk := entry.(type) {
			case *childrenHook:
				r.effect(hk.child, layout)
			case *effectHook:
				if hk.layout != layout || !hk.dirty || r.passive {
					continue
				}
				hk.dirty = false
				if hk.cleanup != nil {
					c := hk.cleanup
					hk.cleanup = nil
					c()
				}
				hk.cleanup = hk.effect()
				r.metrics.EffectRun(r.name, layout)
			}
		}
	case KindArray:
		for _, item := range n.items {
			r.effect(item, layout)
		}
	case KindRecord:
		for _, k := range n.fieldKeys {
			r.effect(n.fields[k], layout)
		}
	case KindMap:
		for _, k := range n.entryKeys {
			r.effect(n.entries[k], layout)
		}
	default:
		panic("unreachable")
	}
	if !layout {
		n.state = StateStable
	}
}

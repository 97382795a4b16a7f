package democrat

import "reflect"

// contextKey is the identity of a context.
type contextKey struct {
	name string
}

// Context provides values to every component below a Provider without
// threading them through props.
//
//	var Theme = democrat.CreateContext("light")
//
//	func app(h *democrat.Hooks, _ struct{}) string {
//	    return democrat.UseChildren[string](h, Theme.Provider("dark", Button.Create(nil)))
//	}
//
//	func button(h *democrat.Hooks, _ any) string {
//	    return "btn-" + democrat.UseContext(h, Theme)
//	}
type Context[T any] struct {
	key          *contextKey
	defaultValue T
	hasDefault   bool
}

// CreateContext creates a context. defaultValue is returned by UseContext
// when no Provider encloses the consumer.
func CreateContext[T any](defaultValue T) *Context[T] {
	return &Context[T]{
		key:          &contextKey{name: reflect.TypeFor[T]().String()},
		defaultValue: defaultValue,
		hasDefault:   true,
	}
}

// CreateContextNoDefault creates a context without a default value.
// MustUseContext fails for it when no Provider encloses the consumer.
func CreateContextNoDefault[T any]() *Context[T] {
	return &Context[T]{key: &contextKey{name: reflect.TypeFor[T]().String()}}
}

// Named sets the name used in errors and debugging output.
func (c *Context[T]) Named(name string) *Context[T] {
	c.key.name = name
	return c
}

// Provider returns an element that provides value to consumers in children.
func (c *Context[T]) Provider(value T, children any) *Element {
	return &Element{provider: c.key, value: value, children: children}
}

// UseContext returns the value of the nearest enclosing Provider of ctx, the
// context default, or the zero value when the context has no default.
func UseContext[T any](h *Hooks, ctx *Context[T]) T {
	v, found := useContext(h, ctx.key)
	if found {
		return as[T](v)
	}
	if ctx.hasDefault {
		return ctx.defaultValue
	}
	var zero T
	return zero
}

// MustUseContext is UseContext for contexts that must be provided: with no
// enclosing Provider and no default it raises ErrMissingProvider.
func MustUseContext[T any](h *Hooks, ctx *Context[T]) T {
	v, found := useContext(h, ctx.key)
	if found {
		return as[T](v)
	}
	if ctx.hasDefault {
		return ctx.defaultValue
	}
	h.root.fail(newFatal("DEM009", ErrMissingProvider, "MustUseContext",
		"no provider for context %s above %s", ctx.key.name, h.node.name()).withCaller(1))
	panic("unreachable")
}

func useContext(h *Hooks, key *contextKey) (any, bool) {
	entry, _, existing := h.next(HookContext)
	provider := findProvider(h.node, key)
	h.contexts[key] = struct{}{}
	if existing {
		ch := entry.(*contextHook)
		ch.ctx = key
		ch.provider = provider
	} else {
		h.add(&contextHook{ctx: key, provider: provider})
	}
	if provider == nil {
		return nil, false
	}
	return provider.element.value, true
}

// findProvider returns the nearest ancestor providing key.
func findProvider(n *node, key *contextKey) *node {
	for cur := n.parent; cur != nil; cur = cur.parent {
		if cur.kind == KindProvider && cur.element.provider == key {
			return cur
		}
	}
	return nil
}

// registry maps each context to the component nodes that consume it.
type registry struct {
	subs map[*contextKey]map[*node]struct{}
}

func (r *registry) subscribe(n *node, key *contextKey) {
	if r.subs == nil {
		r.subs = make(map[*contextKey]map[*node]struct{})
	}
	set, ok := r.subs[key]
	if !ok {
		set = make(map[*node]struct{})
		r.subs[key] = set
	}
	set[n] = struct{}{}
}

func (r *registry) unsubscribe(n *node, key *contextKey) {
	set, ok := r.subs[key]
	if !ok {
		return
	}
	delete(set, n)
	if len(set) == 0 {
		delete(r.subs, key)
	}
}

// unsubscribeAll drops every subscription held by n.
func (r *registry) unsubscribeAll(n *node) {
	for key := range n.contexts {
		r.unsubscribe(n, key)
	}
	n.contexts = nil
}

// sync replaces the subscriptions of n with next.
func (r *registry) sync(n *node, next map[*contextKey]struct{}) {
	for key := range n.contexts {
		if _, ok := next[key]; !ok {
			r.unsubscribe(n, key)
		}
	}
	for key := range next {
		if _, ok := n.contexts[key]; !ok {
			r.subscribe(n, key)
		}
	}
	if len(next) == 0 {
		next = nil
	}
	n.contexts = next
}

// markDirtyConsumers marks every live consumer of key below provider dirty,
// along with the components between it and the provider.
func (r *registry) markDirtyConsumers(provider *node, key *contextKey) {
	for n := range r.subs[key] {
		if n.state == StateRemoved || !n.isDescendantOf(provider) {
			continue
		}
		markDirty(n, provider)
	}
}

// count returns the number of consumers subscribed to key.
func (r *registry) count(key *contextKey) int {
	return len(r.subs[key])
}

// markDirty flags n and its component ancestors for re-render, stopping at
// limit (exclusive) or at the first ancestor already dirty.
func markDirty(n, limit *node) {
	for cur := n; cur != nil && cur != limit; cur = cur.parent {
		if cur.kind != KindComponent {
			continue
		}
		if cur.dirty {
			return
		}
		cur.dirty = true
	}
}

package democrat

import "fmt"

// renderer is implemented by *Component[P, T]. Component identity is pointer
// identity of the declared component.
type renderer interface {
	displayName() string
	render(h *Hooks, props any) any
}

// Element is a declared child: a component with its props, or a context
// provider with its value and children. Elements are immutable once built.
type Element struct {
	component renderer
	provider  *contextKey
	props     any
	value     any
	children  any
	key       any
	hasKey    bool
}

// WithKey returns a copy of e carrying key. Keys identify children of
// ordered containers across renders; changing a key remounts the child.
func (e *Element) WithKey(key any) *Element {
	c := *e
	c.key = key
	c.hasKey = true
	return &c
}

// Key returns the element key, if any.
func (e *Element) Key() (any, bool) {
	return e.key, e.hasKey
}

// Props returns the component props. It is nil for providers.
func (e *Element) Props() any {
	return e.props
}

// String names the element for logs and debugging.
func (e *Element) String() string {
	name := "Provider(" + e.providerName() + ")"
	if e.component != nil {
		name = e.component.displayName()
	}
	if e.hasKey {
		return fmt.Sprintf("%s[key=%v]", name, e.key)
	}
	return name
}

func (e *Element) providerName() string {
	if e.provider == nil {
		return "?"
	}
	return e.provider.name
}

// Component is a declared component: a function of props that calls hooks and
// returns a value of type T.
//
//	var Counter = democrat.NewComponent("Counter", func(h *democrat.Hooks, _ struct{}) int {
//	    count, _ := democrat.UseState(h, 0)
//	    return count
//	})
type Component[P, T any] struct {
	name string
	fn   func(h *Hooks, props P) T
}

// NewComponent declares a component.
func NewComponent[P, T any](name string, fn func(h *Hooks, props P) T) *Component[P, T] {
	return &Component[P, T]{name: name, fn: fn}
}

// Name returns the component name.
func (c *Component[P, T]) Name() string { return c.name }

// Create builds an element for this component.
func (c *Component[P, T]) Create(props P) *Element {
	return &Element{component: c, props: props}
}

// CreateWithKey builds a keyed element for this component.
func (c *Component[P, T]) CreateWithKey(key any, props P) *Element {
	return &Element{component: c, props: props, key: key, hasKey: true}
}

// Use mounts the component as a child of the rendering component and returns
// its value. It is UseChildren on a single element.
func (c *Component[P, T]) Use(h *Hooks, props P) T {
	return UseChildren[T](h, c.Create(props))
}

func (c *Component[P, T]) displayName() string { return c.name }

func (c *Component[P, T]) render(h *Hooks, props any) any {
	return c.fn(h, as[P](props))
}

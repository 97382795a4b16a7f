package democrat

import (
	"reflect"
	"sort"
	"sync/atomic"
)

// Kind identifies the variant of a mounted node.
type Kind uint8

const (
	kindInvalid Kind = iota
	KindRoot
	KindNull
	KindComponent
	KindArray
	KindMap
	KindRecord
	KindProvider
)

// String returns the name used in snapshots and logs.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindNull:
		return "null"
	case KindComponent:
		return "component"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	case KindProvider:
		return "provider"
	default:
		return "invalid"
	}
}

// LifecycleState drives which effects and cleanups run for a node on the
// current pass.
type LifecycleState uint8

const (
	StateCreated LifecycleState = iota + 1
	StateStable
	StateUpdated
	StateRemoved
)

// String returns a human-readable name for the state.
func (s LifecycleState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStable:
		return "stable"
	case StateUpdated:
		return "updated"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

var nodeIDCounter uint64

// node is one mounted children position.
type node struct {
	id     uint64
	kind   Kind
	parent *node
	seg    Segment
	value  any
	state  LifecycleState

	// disposals holds nodes this one superseded, oldest first. The layout
	// cleanup pass walks them; the passive cleanup pass walks and drops them.
	disposals []*node

	// KindComponent and KindProvider.
	element *Element

	// KindComponent.
	hooks    []hookEntry
	dirty    bool
	rendered bool
	contexts map[*contextKey]struct{}
	snapshot *Snapshot

	// KindRoot and KindProvider.
	child *node

	// KindArray.
	items []*node

	// KindRecord: fieldKeys is sorted.
	fields    map[string]*node
	fieldKeys []string

	// KindMap: entryKeys keeps insertion order.
	entries   map[any]*node
	entryKeys []any
}

func newNode(kind Kind, parent *node, seg Segment) *node {
	return &node{
		id:     atomic.AddUint64(&nodeIDCounter, 1),
		kind:   kind,
		parent: parent,
		seg:    seg,
		state:  StateCreated,
	}
}

// key returns the element key of component and provider nodes.
func (n *node) key() (any, bool) {
	if (n.kind == KindComponent || n.kind == KindProvider) && n.element != nil {
		return n.element.Key()
	}
	return nil, false
}

func (n *node) name() string {
	if n.element != nil {
		return n.element.String()
	}
	return n.kind.String()
}

// isDescendantOf reports whether ancestor is a strict ancestor of n.
func (n *node) isDescendantOf(ancestor *node) bool {
	for cur := n.parent; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// mapEntry looks up a map child, falling back to numeric equivalence for keys
// decoded from a codec.
func (n *node) mapEntry(key any) (*node, bool) {
	if hashable(key) {
		if child, ok := n.entries[key]; ok {
			return child, true
		}
	}
	for _, k := range n.entryKeys {
		if equivalentKey(k, key) {
			return n.entries[k], true
		}
	}
	return nil, false
}

// classify determines the node kind of a children value.
func classify(children any) Kind {
	switch c := children.(type) {
	case nil:
		return KindNull
	case *Element:
		if c == nil {
			return KindNull
		}
		if c.provider != nil {
			return KindProvider
		}
		return KindComponent
	case *Map:
		if c == nil {
			return KindNull
		}
		return KindMap
	}
	v := reflect.ValueOf(children)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			return KindRecord
		}
	}
	return kindInvalid
}

func elementKey(children any) (any, bool) {
	if e, ok := children.(*Element); ok && e != nil {
		return e.Key()
	}
	return nil, false
}

func sliceItems(children any) []any {
	v := reflect.ValueOf(children)
	items := make([]any, v.Len())
	for i := range items {
		items[i] = v.Index(i).Interface()
	}
	return items
}

// recordItems returns the record keys sorted, with their values.
func recordItems(children any) ([]string, map[string]any) {
	v := reflect.ValueOf(children)
	keys := make([]string, 0, v.Len())
	values := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		values[k] = iter.Value().Interface()
	}
	sort.Strings(keys)
	return keys, values
}

func arrayValue(items []*node) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item.value
	}
	return out
}

func recordValue(keys []string, fields map[string]*node) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = fields[k].value
	}
	return out
}

func mapValue(keys []any, entries map[any]*node) *Map {
	out := NewMap()
	for _, k := range keys {
		out.Set(k, entries[k].value)
	}
	return out
}

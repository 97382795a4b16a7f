package democrat

// Snapshot mirrors the mounted tree. Component nodes record the values of
// their state and reducer hooks and the snapshot of their UseChildren
// subtrees; every other hook is recorded as nil.
type Snapshot struct {
	Kind    string               `json:"kind" yaml:"kind" msgpack:"kind"`
	Child   *Snapshot            `json:"child,omitempty" yaml:"child,omitempty" msgpack:"child,omitempty"`
	Items   []*Snapshot          `json:"items,omitempty" yaml:"items,omitempty" msgpack:"items,omitempty"`
	Fields  map[string]*Snapshot `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields,omitempty"`
	Entries []SnapshotEntry      `json:"entries,omitempty" yaml:"entries,omitempty" msgpack:"entries,omitempty"`
	Hooks   []*HookSnapshot      `json:"hooks,omitempty" yaml:"hooks,omitempty" msgpack:"hooks,omitempty"`
}

// SnapshotEntry is one entry of a map node, in insertion order.
type SnapshotEntry struct {
	Key  any       `json:"key" yaml:"key" msgpack:"key"`
	Node *Snapshot `json:"node" yaml:"node" msgpack:"node"`
}

// HookSnapshot is the saved data of one hook.
type HookSnapshot struct {
	Kind  string    `json:"kind" yaml:"kind" msgpack:"kind"`
	Value any       `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value,omitempty"`
	Child *Snapshot `json:"child,omitempty" yaml:"child,omitempty" msgpack:"child,omitempty"`
}

// as returns s when it describes a node of kind k.
func (s *Snapshot) as(k Kind) *Snapshot {
	if s == nil || s.Kind != k.String() {
		return nil
	}
	return s
}

func (s *Snapshot) child() *Snapshot {
	if s == nil {
		return nil
	}
	return s.Child
}

func (s *Snapshot) item(i int) *Snapshot {
	if s == nil || i >= len(s.Items) {
		return nil
	}
	return s.Items[i]
}

func (s *Snapshot) field(key string) *Snapshot {
	if s == nil {
		return nil
	}
	return s.Fields[key]
}

func (s *Snapshot) entry(key any) *Snapshot {
	if s == nil {
		return nil
	}
	for _, e := range s.Entries {
		if equivalentKey(e.Key, key) {
			return e.Node
		}
	}
	return nil
}

// hook returns the saved hook at index when it has the given kind.
func (s *Snapshot) hook(index int, kind HookKind) *HookSnapshot {
	if s == nil || index >= len(s.Hooks) {
		return nil
	}
	h := s.Hooks[index]
	if h == nil || h.Kind != kind.String() {
		return nil
	}
	return h
}

// snapshot captures n and its subtree.
func snapshot(n *node) *Snapshot {
	s := &Snapshot{Kind: n.kind.String()}
	switch n.kind {
	case KindRoot, KindProvider:
		if n.child != nil {
			s.Child = snapshot(n.child)
		}
	case KindNull:
	case KindComponent:
		s.Hooks = make([]*HookSnapshot, len(n.hooks))
		for i, e := range n.hooks {
			switch h := e.(type) {
			case *stateHook:
				s.Hooks[i] = &HookSnapshot{Kind: HookState.String(), Value: h.value}
			case *reducerHook:
				s.Hooks[i] = &HookSnapshot{Kind: HookReducer.String(), Value: h.value}
			case *childrenHook:
				s.Hooks[i] = &HookSnapshot{Kind: HookChildren.String(), Child: snapshot(h.child)}
			}
		}
	case KindArray:
		s.Items = make([]*Snapshot, len(n.items))
		for i, item := range n.items {
			s.Items[i] = snapshot(item)
		}
	case KindRecord:
		s.Fields = make(map[string]*Snapshot, len(n.fieldKeys))
		for _, k := range n.fieldKeys {
			s.Fields[k] = snapshot(n.fields[k])
		}
	case KindMap:
		s.Entries = make([]SnapshotEntry, len(n.entryKeys))
		for i, k := range n.entryKeys {
			s.Entries[i] = SnapshotEntry{Key: k, Node: snapshot(n.entries[k])}
		}
	default:
		panic("unreachable")
	}
	return s
}

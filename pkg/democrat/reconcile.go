package democrat

// mount builds a fresh node for children. snap, when it describes a node of
// the same kind, seeds the state and reducer hooks of the new subtree.
func (r *root) mount(children any, parent *node, seg Segment, snap *Snapshot) *node {
	kind := classify(children)
	if kind == kindInvalid {
		r.fail(invalidChildren(children))
	}
	snap = snap.as(kind)
	n := newNode(kind, parent, seg)
	switch kind {
	case KindNull:
	case KindComponent:
		el := children.(*Element)
		n.element = el
		n.snapshot = snap
		r.renderComponent(n, el)
	case KindProvider:
		el := children.(*Element)
		n.element = el
		n.child = r.mount(el.children, n, providerSegment, snap.child())
		n.value = n.child.value
	case KindArray:
		items := sliceItems(children)
		n.items = make([]*node, len(items))
		for i, item := range items {
			n.items[i] = r.mount(item, n, indexSegment(i), snap.item(i))
		}
		n.value = arrayValue(n.items)
	case KindRecord:
		keys, values := recordItems(children)
		n.fields = make(map[string]*node, len(keys))
		n.fieldKeys = keys
		for _, k := range keys {
			n.fields[k] = r.mount(values[k], n, recordSegment(k), snap.field(k))
		}
		n.value = recordValue(n.fieldKeys, n.fields)
	case KindMap:
		m := children.(*Map)
		n.entries = make(map[any]*node, m.Len())
		m.Range(func(k, v any) bool {
			n.entryKeys = append(n.entryKeys, k)
			n.entries[k] = r.mount(v, n, mapSegment(k), snap.entry(k))
			return true
		})
		n.value = mapValue(n.entryKeys, n.entries)
	default:
		panic("unreachable")
	}
	return n
}

// update reconciles n against children. It returns n when the shape is
// unchanged and a new node otherwise; a superseded node is marked removed
// and queued on the new node's disposals.
func (r *root) update(n *node, children any, parent *node, seg Segment) *node {
	kind := classify(children)
	if kind == kindInvalid {
		r.fail(invalidChildren(children))
	}
	if shouldRemount(n, kind, children) {
		next := r.mount(children, parent, seg, nil)
		next.disposals = append(n.disposals, n)
		n.disposals = nil
		n.state = StateRemoved
		return next
	}

	n.parent = parent
	n.seg = seg
	switch n.kind {
	case KindNull:
		return n
	case KindComponent:
		el := children.(*Element)
		if !n.dirty && ShallowEqual(n.element.props, el.props) {
			return n
		}
		r.renderComponent(n, el)
		n.state = StateUpdated
		return n
	case KindProvider:
		r.updateProvider(n, children.(*Element))
		return n
	case KindArray:
		return r.updateArray(n, sliceItems(children))
	case KindRecord:
		keys, values := recordItems(children)
		return r.updateRecord(n, keys, values)
	case KindMap:
		return r.updateMap(n, children.(*Map))
	default:
		panic("unreachable")
	}
}

func shouldRemount(n *node, kind Kind, children any) bool {
	if n.kind != kind {
		return true
	}
	if kind != KindComponent && kind != KindProvider {
		return false
	}
	el := children.(*Element)
	if kind == KindComponent && n.element.component != el.component {
		return true
	}
	prevKey, prevHas := n.element.Key()
	nextKey, nextHas := el.Key()
	return prevHas != nextHas || (prevHas && !Is(prevKey, nextKey))
}

func (r *root) updateProvider(n *node, el *Element) {
	prev := n.element
	if prev.provider != el.provider || !Is(prev.value, el.value) {
		r.reg.markDirtyConsumers(n, prev.provider)
		if prev.provider != el.provider {
			r.reg.markDirtyConsumers(n, el.provider)
		}
	}
	n.element = el
	n.child = r.update(n.child, el.children, n, providerSegment)
	n.value = n.child.value
	n.state = StateUpdated
}

// sameArrayStructure reports whether items can patch prev positionally: same
// length and the same key, or absence of key, at every position.
func sameArrayStructure(prev []*node, items []any) bool {
	if len(prev) != len(items) {
		return false
	}
	for i, item := range items {
		pk, pok := prev[i].key()
		k, ok := elementKey(item)
		if pok != ok || (ok && !Is(pk, k)) {
			return false
		}
	}
	return true
}

func (r *root) updateArray(n *node, items []any) *node {
	if sameArrayStructure(n.items, items) {
		updated := false
		for i, item := range items {
			child := r.update(n.items[i], item, n, indexSegment(i))
			n.items[i] = child
			if child.state != StateStable {
				updated = true
			}
		}
		n.settle(updated, func() { n.value = arrayValue(n.items) })
		return n
	}

	next := newNode(KindArray, n.parent, n.seg)
	next.items = make([]*node, len(items))
	claimed := make(map[*node]bool, len(n.items))
	for i, item := range items {
		prev := claim(n.items, i, item, claimed)
		if prev == nil {
			next.items[i] = r.mount(item, next, indexSegment(i), nil)
			continue
		}
		claimed[prev] = true
		next.items[i] = r.update(prev, item, next, indexSegment(i))
	}
	for _, prev := range n.items {
		if !claimed[prev] {
			prev.state = StateRemoved
		}
	}
	next.value = arrayValue(next.items)
	return r.supersede(n, next)
}

// claim finds the previous item that item at index i reconciles against: the
// first unclaimed item with the same key for keyed items, or the unclaimed
// unkeyed item at the same index.
func claim(prev []*node, i int, item any, claimed map[*node]bool) *node {
	if key, ok := elementKey(item); ok {
		for _, p := range prev {
			if claimed[p] {
				continue
			}
			if pk, pok := p.key(); pok && Is(pk, key) {
				return p
			}
		}
		return nil
	}
	if i >= len(prev) || claimed[prev[i]] {
		return nil
	}
	if _, keyed := prev[i].key(); keyed {
		return nil
	}
	return prev[i]
}

func (r *root) updateRecord(n *node, keys []string, values map[string]any) *node {
	if sameKeys(n.fieldKeys, keys) {
		updated := false
		for _, k := range keys {
			child := r.update(n.fields[k], values[k], n, recordSegment(k))
			n.fields[k] = child
			if child.state != StateStable {
				updated = true
			}
		}
		n.settle(updated, func() { n.value = recordValue(n.fieldKeys, n.fields) })
		return n
	}

	next := newNode(KindRecord, n.parent, n.seg)
	next.fields = make(map[string]*node, len(keys))
	next.fieldKeys = keys
	for _, k := range n.fieldKeys {
		if _, ok := values[k]; !ok {
			n.fields[k].state = StateRemoved
		}
	}
	for _, k := range keys {
		if prev, ok := n.fields[k]; ok {
			next.fields[k] = r.update(prev, values[k], next, recordSegment(k))
		} else {
			next.fields[k] = r.mount(values[k], next, recordSegment(k), nil)
		}
	}
	next.value = recordValue(next.fieldKeys, next.fields)
	return r.supersede(n, next)
}

func sameKeys(prev, next []string) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if prev[i] != next[i] {
			return false
		}
	}
	return true
}

// sameMapStructure requires the same keys in the same order, since effects
// run in insertion order.
func sameMapStructure(prev []any, m *Map) bool {
	if len(prev) != m.Len() {
		return false
	}
	i := 0
	same := true
	m.Range(func(k, _ any) bool {
		same = Is(prev[i], k)
		i++
		return same
	})
	return same
}

func (r *root) updateMap(n *node, m *Map) *node {
	if sameMapStructure(n.entryKeys, m) {
		updated := false
		m.Range(func(k, v any) bool {
			child := r.update(n.entries[k], v, n, mapSegment(k))
			n.entries[k] = child
			if child.state != StateStable {
				updated = true
			}
			return true
		})
		n.settle(updated, func() { n.value = mapValue(n.entryKeys, n.entries) })
		return n
	}

	next := newNode(KindMap, n.parent, n.seg)
	next.entries = make(map[any]*node, m.Len())
	claimed := make(map[*node]bool, len(n.entryKeys))
	m.Range(func(k, v any) bool {
		next.entryKeys = append(next.entryKeys, k)
		if prev, ok := n.entries[k]; ok {
			claimed[prev] = true
			next.entries[k] = r.update(prev, v, next, mapSegment(k))
		} else {
			next.entries[k] = r.mount(v, next, mapSegment(k), nil)
		}
		return true
	})
	for _, k := range n.entryKeys {
		if prev := n.entries[k]; !claimed[prev] {
			prev.state = StateRemoved
		}
	}
	next.value = mapValue(next.entryKeys, next.entries)
	return r.supersede(n, next)
}

// settle sets the state of a container patched in place, recomputing its
// value only when a child changed.
func (n *node) settle(updated bool, recompute func()) {
	if !updated {
		n.state = StateStable
		return
	}
	n.state = StateUpdated
	recompute()
}

// supersede hands the disposals of a rebuilt container to its replacement.
// The old container is kept for the cleanup pass in its own order.
func (r *root) supersede(prev, next *node) *node {
	prev.state = StateUpdated
	next.disposals = append(prev.disposals, prev)
	prev.disposals = nil
	return next
}

// renderComponent runs the component function of n with a fresh render
// handle and commits the result.
func (r *root) renderComponent(n *node, el *Element) {
	h := &Hooks{root: r, node: n, contexts: make(map[*contextKey]struct{})}
	r.stack = append(r.stack, n)
	restore := r.bindHostHooks(h)
	defer func() {
		restore()
		h.done = true
		r.stack = r.stack[:len(r.stack)-1]
	}()

	value := el.component.render(h, el.props)
	h.finish()

	r.reg.sync(n, h.contexts)
	n.element = el
	n.value = value
	n.dirty = false
	n.snapshot = nil
	n.rendered = true
	r.metrics.ComponentRendered(r.name)
}

func invalidChildren(children any) *FatalError {
	return newFatal("DEM008", ErrInvalidChildren, "mount",
		"children of type %T cannot be mounted", children)
}

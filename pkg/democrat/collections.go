package democrat

import "reflect"

// Map is an insertion-ordered map. As a children value it mounts a keyed
// container whose children run their effects in insertion order; as a
// resolved value it carries the children's values under the same keys.
//
// Keys must be comparable.
type Map struct {
	keys   []any
	values map[any]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[any]any)}
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (m *Map) Set(key, value any) *Map {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	if m == nil || !hashable(key) {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key any) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key any) bool {
	if !m.Has(key) {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	if m == nil {
		return nil
	}
	out := make([]any, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

func hashable(key any) bool {
	if key == nil {
		return true
	}
	return reflect.TypeOf(key).Comparable()
}

// equivalentKey matches keys that went through a serialization round trip:
// numbers compare by value whatever their Go type.
func equivalentKey(a, b any) bool {
	if hashable(a) && hashable(b) && a == b {
		return true
	}
	fa, okA := asFloat(a)
	fb, okB := asFloat(b)
	return okA && okB && fa == fb
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

package codec

import (
	"fmt"

	"github.com/vango-dev/democrat/pkg/democrat"
)

// normalizeEnvelope rewrites decoded values so that every mapping is a
// map[string]any, which the store can convert with encoding/json.
func normalizeEnvelope(env *Envelope) {
	normalizeSnapshot(env.Snapshot)
	for i := range env.Patches {
		p := &env.Patches[i]
		p.Value = normalize(p.Value)
		p.Action = normalize(p.Action)
		for j := range p.Path {
			p.Path[j].Key = normalize(p.Path[j].Key)
		}
	}
}

func normalizeSnapshot(s *democrat.Snapshot) {
	if s == nil {
		return
	}
	normalizeSnapshot(s.Child)
	for _, item := range s.Items {
		normalizeSnapshot(item)
	}
	for _, field := range s.Fields {
		normalizeSnapshot(field)
	}
	for i := range s.Entries {
		s.Entries[i].Key = normalize(s.Entries[i].Key)
		normalizeSnapshot(s.Entries[i].Node)
	}
	for _, h := range s.Hooks {
		if h == nil {
			continue
		}
		h.Value = normalize(h.Value)
		normalizeSnapshot(h.Child)
	}
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	}
	return v
}

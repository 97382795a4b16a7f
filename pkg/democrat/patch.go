package democrat

import (
	"fmt"
)

// SegmentKind names one hop of a structural path.
type SegmentKind string

const (
	// SegmentRoot is the hop from the root to its children.
	SegmentRoot SegmentKind = "root"
	// SegmentHook is the hop into the children mounted by a UseChildren hook.
	SegmentHook SegmentKind = "hook"
	// SegmentProvider is the hop from a provider to its children.
	SegmentProvider SegmentKind = "provider"
	// SegmentIndex is the hop into an array item.
	SegmentIndex SegmentKind = "index"
	// SegmentRecord is the hop into a record field.
	SegmentRecord SegmentKind = "record"
	// SegmentMap is the hop into a map entry.
	SegmentMap SegmentKind = "map"
)

// Segment is one hop of the path from the root to a component.
type Segment struct {
	Kind  SegmentKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Index int         `json:"index,omitempty" yaml:"index,omitempty" msgpack:"index,omitempty"`
	Key   any         `json:"key,omitempty" yaml:"key,omitempty" msgpack:"key,omitempty"`
}

// String renders the segment the way paths appear in logs.
func (s Segment) String() string {
	switch s.Kind {
	case SegmentHook, SegmentIndex:
		return fmt.Sprintf("%s(%d)", s.Kind, s.Index)
	case SegmentRecord, SegmentMap:
		return fmt.Sprintf("%s(%v)", s.Kind, s.Key)
	default:
		return string(s.Kind)
	}
}

func hookSegment(index int) Segment  { return Segment{Kind: SegmentHook, Index: index} }
func indexSegment(index int) Segment { return Segment{Kind: SegmentIndex, Index: index} }
func recordSegment(key string) Segment {
	return Segment{Kind: SegmentRecord, Key: key}
}
func mapSegment(key any) Segment { return Segment{Kind: SegmentMap, Key: key} }

var (
	rootSegment     = Segment{Kind: SegmentRoot}
	providerSegment = Segment{Kind: SegmentProvider}
)

// PatchKind says which hook a patch replays.
type PatchKind string

const (
	// PatchState replays a UseState value.
	PatchState PatchKind = "STATE"
	// PatchReducer replays a UseReducer action.
	PatchReducer PatchKind = "REDUCER"
)

// Patch describes one hook mutation. State patches carry the new value;
// reducer patches carry the action, which is reduced again on replay.
type Patch struct {
	Path      []Segment `json:"path" yaml:"path" msgpack:"path"`
	HookIndex int       `json:"hookIndex" yaml:"hookIndex" msgpack:"hookIndex"`
	Kind      PatchKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Value     any       `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value,omitempty"`
	Action    any       `json:"action,omitempty" yaml:"action,omitempty" msgpack:"action,omitempty"`
}

// pathOf returns the segments from the root's child down to n.
func pathOf(n *node) []Segment {
	var path []Segment
	for cur := n; cur != nil && cur.kind != KindRoot; cur = cur.parent {
		path = append(path, cur.seg)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// resolve walks path from the root node.
func (r *root) resolve(path []Segment) (*node, error) {
	cur := r.node
	for i, seg := range path {
		next, ok := descend(cur, seg)
		if !ok {
			return nil, fmt.Errorf("%w: segment %d (%s) does not match %s node", ErrInvalidPatchPath, i, seg, cur.kind)
		}
		cur = next
	}
	if cur.kind != KindComponent {
		return nil, fmt.Errorf("%w: path ends at %s node, want component", ErrInvalidPatchPath, cur.kind)
	}
	return cur, nil
}

func descend(n *node, seg Segment) (*node, bool) {
	switch seg.Kind {
	case SegmentRoot:
		if n.kind == KindRoot && n.child != nil {
			return n.child, true
		}
	case SegmentProvider:
		if n.kind == KindProvider && n.child != nil {
			return n.child, true
		}
	case SegmentHook:
		if n.kind == KindComponent && seg.Index >= 0 && seg.Index < len(n.hooks) {
			if ch, ok := n.hooks[seg.Index].(*childrenHook); ok {
				return ch.child, true
			}
		}
	case SegmentIndex:
		if n.kind == KindArray && seg.Index >= 0 && seg.Index < len(n.items) {
			return n.items[seg.Index], true
		}
	case SegmentRecord:
		if n.kind == KindRecord {
			key, ok := seg.Key.(string)
			if !ok {
				key = fmt.Sprint(seg.Key)
			}
			child, ok := n.fields[key]
			return child, ok
		}
	case SegmentMap:
		if n.kind == KindMap {
			return n.mapEntry(seg.Key)
		}
	}
	return nil, false
}

// applyPatch replays p without recording a new patch.
func (r *root) applyPatch(p Patch) error {
	n, err := r.resolve(p.Path)
	if err != nil {
		return err
	}
	if p.HookIndex < 0 || p.HookIndex >= len(n.hooks) {
		return fmt.Errorf("%w: %s has %d hooks, patch targets hook %d",
			ErrPatchHookMismatch, n.name(), len(n.hooks), p.HookIndex)
	}
	entry := n.hooks[p.HookIndex]
	switch p.Kind {
	case PatchState:
		sh, ok := entry.(*stateHook)
		if !ok {
			return fmt.Errorf("%w: hook %d of %s is %s, not STATE", ErrPatchHookMismatch, p.HookIndex, n.name(), entry.kind())
		}
		v, err := sh.convert(p.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPatchHookMismatch, err)
		}
		sh.value = v
	case PatchReducer:
		rh, ok := entry.(*reducerHook)
		if !ok {
			return fmt.Errorf("%w: hook %d of %s is %s, not REDUCER", ErrPatchHookMismatch, p.HookIndex, n.name(), entry.kind())
		}
		a, err := rh.convertAction(p.Action)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPatchHookMismatch, err)
		}
		rh.value = rh.reduce(rh.value, a)
	default:
		return fmt.Errorf("%w: unknown patch kind %q", ErrPatchHookMismatch, p.Kind)
	}
	markDirty(n, nil)
	r.requestRender(nil)
	return nil
}

package democrat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tallyState struct {
	Sum  int
	Tags []string
	IDs  *Setter[[]int]
	Map  *Map
}

func tallyTree() *Component[struct{}, tallyState] {
	counter := newCounter("Counter")
	return NewComponent("Tally", func(h *Hooks, _ struct{}) tallyState {
		ids, setIDs := UseState(h, []int{1, 2})
		tags, _ := UseState(h, []string{"a"})
		children := NewMap()
		for _, id := range ids {
			children.Set(id, counter.Create(struct{}{}))
		}
		m := UseChildren[*Map](h, children)
		sum := 0
		m.Range(func(_, v any) bool {
			sum += v.(counterState).Count
			return true
		})
		return tallyState{Sum: sum, Tags: tags, IDs: setIDs, Map: m}
	})
}

func counterAt(m *Map, key any) counterState {
	v, _ := m.Get(key)
	return v.(counterState)
}

func TestSnapshot_Structure(t *testing.T) {
	s, _ := newTestStore[tallyState](t, tallyTree().Create(struct{}{}))
	snap := s.GetSnapshot()

	require.Equal(t, "root", snap.Kind)
	comp := snap.Child
	require.NotNil(t, comp)
	assert.Equal(t, "component", comp.Kind)
	require.Len(t, comp.Hooks, 3)
	assert.Equal(t, "STATE", comp.Hooks[0].Kind)
	assert.Equal(t, []int{1, 2}, comp.Hooks[0].Value)
	assert.Equal(t, "CHILDREN", comp.Hooks[2].Kind)

	m := comp.Hooks[2].Child
	require.Equal(t, "map", m.Kind)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, 1, m.Entries[0].Key)
	assert.Equal(t, "component", m.Entries[0].Node.Kind)
}

func TestSnapshot_RestoreState(t *testing.T) {
	source, sched := newTestStore[tallyState](t, tallyTree().Create(struct{}{}))
	source.GetState().IDs.Set([]int{1, 2, 3})
	sched.Flush()
	counterAt(source.GetState().Map, 2).Set.Set(5)
	counterAt(source.GetState().Map, 3).Set.Set(7)
	sched.Flush()
	require.Equal(t, 12, source.GetState().Sum)

	restored, _ := newTestStore[tallyState](t, tallyTree().Create(struct{}{}), WithSnapshot(source.GetSnapshot()))
	st := restored.GetState()
	assert.Equal(t, 12, st.Sum)
	assert.Equal(t, []any{1, 2, 3}, st.Map.Keys())
	assert.Equal(t, 7, counterAt(st.Map, 3).Count)
}

func TestSnapshot_RestoreAfterJSONRoundTrip(t *testing.T) {
	source, sched := newTestStore[tallyState](t, tallyTree().Create(struct{}{}))
	counterAt(source.GetState().Map, 1).Set.Set(4)
	sched.Flush()

	data, err := json.Marshal(source.GetSnapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored, _ := newTestStore[tallyState](t, tallyTree().Create(struct{}{}), WithSnapshot(&snap))
	st := restored.GetState()
	assert.Equal(t, 4, st.Sum)
	assert.Equal(t, []string{"a"}, st.Tags)
	assert.Equal(t, 4, counterAt(st.Map, 1).Count)
}

func TestSnapshot_MismatchedHooksUseInitialValues(t *testing.T) {
	snap := &Snapshot{
		Kind: "root",
		Child: &Snapshot{
			Kind: "component",
			Hooks: []*HookSnapshot{
				{Kind: "REDUCER", Value: 5},
				{Kind: "STATE", Value: "not a number"},
			},
		},
	}
	pair := NewComponent("Pair", func(h *Hooks, _ struct{}) pairState {
		a, setA := UseState(h, 1)
		b, setB := UseState(h, 2)
		return pairState{A: a, B: b, SetA: setA, SetB: setB}
	})
	s, _ := newTestStore[pairState](t, pair.Create(struct{}{}), WithSnapshot(snap))
	assert.Equal(t, 1, s.GetState().A)
	assert.Equal(t, 2, s.GetState().B)
}

func TestSnapshot_KindMismatchIgnored(t *testing.T) {
	snap := &Snapshot{Kind: "root", Child: &Snapshot{Kind: "array"}}
	counter := newCounter("Counter")
	s, _ := newTestStore[counterState](t, counter.Create(struct{}{}), WithSnapshot(snap))
	assert.Equal(t, 0, s.GetState().Count)
}

func TestSnapshot_ReducerValue(t *testing.T) {
	source, sched := newTestStore[todoState](t, todoList.Create(struct{}{}))
	source.GetState().Dispatch.Dispatch(todoAction{Type: "add", Text: "bread"})
	sched.Flush()

	restored, _ := newTestStore[todoState](t, todoList.Create(struct{}{}), WithSnapshot(source.GetSnapshot()))
	assert.Equal(t, []string{"bread"}, restored.GetState().Todos)
}

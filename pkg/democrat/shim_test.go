package democrat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacyCounter is written against the untyped host API only.
func legacyCounter(hh *HostHooks) (int, func(any)) {
	v, set := hh.UseState(0)
	doubled := hh.UseMemo(func() any { return v.(int) * 2 }, []any{v})
	hh.UseLayoutEffect(func() func() { return nil }, nil)
	return doubled.(int), set
}

func TestHostHooks_RedirectDuringRender(t *testing.T) {
	outside := false
	hh := &HostHooks{
		UseState: func(initial any) (any, func(any)) {
			outside = true
			return initial, func(any) {}
		},
	}

	type legacyState struct {
		Doubled int
		Set     func(any)
	}
	comp := NewComponent("Legacy", func(h *Hooks, _ struct{}) legacyState {
		d, set := legacyCounter(hh)
		return legacyState{Doubled: d, Set: set}
	})
	s, sched := newTestStore[legacyState](t, comp.Create(struct{}{}), WithHostHooks(hh))
	require.Equal(t, 0, s.GetState().Doubled)
	assert.False(t, outside, "the host implementation is not called during a render")

	s.GetState().Set(21)
	sched.Flush()
	assert.Equal(t, 42, s.GetState().Doubled)

	_, _ = hh.UseState(1)
	assert.True(t, outside, "fields are restored after the render")
	assert.Nil(t, hh.UseMemo)
}

func TestHostHooks_Reducer(t *testing.T) {
	hh := &HostHooks{}
	type reducerState struct {
		Total    int
		Dispatch func(any)
	}
	comp := NewComponent("Sum", func(h *Hooks, _ struct{}) reducerState {
		v, dispatch := hh.UseReducer(func(state, action any) any {
			return state.(int) + action.(int)
		}, 0)
		ref := hh.UseRef(nil)
		ref.Current = v
		return reducerState{Total: v.(int), Dispatch: dispatch}
	})
	s, sched := newTestStore[reducerState](t, comp.Create(struct{}{}), WithHostHooks(hh))
	s.GetState().Dispatch(2)
	s.GetState().Dispatch(3)
	sched.Flush()

	assert.Equal(t, 5, s.GetState().Total)
	assert.Nil(t, hh.UseReducer)
}

func TestHostHooks_Effects(t *testing.T) {
	hh := &HostHooks{}
	var log []string
	comp := NewComponent("Effects", func(h *Hooks, _ struct{}) int {
		hh.UseEffect(func() func() {
			log = append(log, "effect")
			return func() { log = append(log, "cleanup") }
		}, []any{})
		cb := hh.UseCallback(func() string { return "cb" }, []any{})
		log = append(log, cb.(func() string)())
		return 0
	})
	s, sched := newTestStore[int](t, comp.Create(struct{}{}), WithHostHooks(hh))
	sched.Flush()
	s.Destroy()

	assert.Equal(t, []string{"cb", "effect", "cleanup"}, log)
}

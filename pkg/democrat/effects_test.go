package democrat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type effectCounts struct {
	layout, effect, layoutCleanup, effectCleanup int
}

func TestEffects_RunAfterRender(t *testing.T) {
	var c effectCounts
	comp := NewComponent("Counter", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		UseLayoutEffect(h, func() Cleanup {
			c.layout++
			return nil
		}, Deps{})
		UseEffect(h, func() Cleanup {
			c.effect++
			return nil
		}, Deps{})
		return counterState{Count: count, Set: set}
	})
	_, sched := newTestStore[counterState](t, comp.Create(struct{}{}))

	assert.Equal(t, 1, c.layout, "layout effects run inside CreateStore")
	assert.Equal(t, 0, c.effect, "passive effects wait for the scheduler")

	sched.Flush()
	assert.Equal(t, 1, c.effect)
}

func TestEffects_CleanupBeforeRerun(t *testing.T) {
	var c effectCounts
	comp := NewComponent("Counter", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		UseLayoutEffect(h, func() Cleanup {
			c.layout++
			return func() { c.layoutCleanup++ }
		}, Deps{count})
		UseEffect(h, func() Cleanup {
			c.effect++
			return func() { c.effectCleanup++ }
		}, Deps{count})
		return counterState{Count: count, Set: set}
	})
	s, sched := newTestStore[counterState](t, comp.Create(struct{}{}))
	sched.Flush()
	assert.Equal(t, effectCounts{layout: 1, effect: 1}, c)

	s.GetState().Set.Set(42)
	sched.Flush()
	assert.Equal(t, 42, s.GetState().Count)
	assert.Equal(t, effectCounts{layout: 2, effect: 2, layoutCleanup: 1, effectCleanup: 1}, c)
}

func TestEffects_UnchangedDepsSkipEffect(t *testing.T) {
	runs := 0
	comp := NewComponent("Counter", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		UseEffect(h, func() Cleanup {
			runs++
			return nil
		}, Deps{"constant"})
		return counterState{Count: count, Set: set}
	})
	s, sched := newTestStore[counterState](t, comp.Create(struct{}{}))
	sched.Flush()
	s.GetState().Set.Set(1)
	sched.Flush()

	assert.Equal(t, 1, runs)
}

func TestEffects_NilDepsRunEveryRender(t *testing.T) {
	runs := 0
	comp := NewComponent("Counter", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		UseLayoutEffect(h, func() Cleanup {
			runs++
			return nil
		}, nil)
		return counterState{Count: count, Set: set}
	})
	s, sched := newTestStore[counterState](t, comp.Create(struct{}{}))
	s.GetState().Set.Set(1)
	sched.Flush()
	s.GetState().Set.Set(2)
	sched.Flush()

	assert.Equal(t, 3, runs)
}

func TestEffects_CleanupRunsOnceOnUnmount(t *testing.T) {
	effects, cleanups := 0, 0
	child := NewComponent("Child", func(h *Hooks, _ struct{}) any {
		UseLayoutEffect(h, func() Cleanup {
			effects++
			return func() { cleanups++ }
		}, Deps{})
		return nil
	})
	parent := NewComponent("Parent", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		var children any
		if count < 10 {
			children = child.Create(struct{}{})
		}
		UseChildren[any](h, children)
		return counterState{Count: count, Set: set}
	})
	s, sched := newTestStore[counterState](t, parent.Create(struct{}{}))
	sched.Flush()
	require.Equal(t, 1, effects)
	require.Equal(t, 0, cleanups)

	s.GetState().Set.Set(12)
	sched.Flush()
	assert.Equal(t, 1, cleanups)

	s.GetState().Set.Set(13)
	sched.Flush()
	assert.Equal(t, 1, effects)
	assert.Equal(t, 1, cleanups)
}

func TestEffects_PassiveEffectSetsState(t *testing.T) {
	runs := 0
	comp := NewComponent("Counter", func(h *Hooks, _ struct{}) int {
		count, set := UseState(h, 0)
		UseEffect(h, func() Cleanup {
			runs++
			if count == 0 {
				set.Set(42)
			}
			return nil
		}, Deps{count})
		return count
	})
	s, sched := newTestStore[int](t, comp.Create(struct{}{}))
	seen := subscribeCount(s)
	sched.Flush()

	assert.Equal(t, 42, s.GetState())
	assert.Equal(t, 2, runs)
	assert.Equal(t, []int{42}, *seen)
}

func countdown(layout bool) *Component[struct{}, counterState] {
	return NewComponent("Countdown", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		effect := func() Cleanup {
			if count > 0 {
				set.Set(count - 1)
			}
			return nil
		}
		if layout {
			UseLayoutEffect(h, effect, Deps{count})
		} else {
			UseEffect(h, effect, Deps{count})
		}
		return counterState{Count: count, Set: set}
	})
}

func counts(states []counterState) []int {
	out := make([]int, len(states))
	for i, s := range states {
		out[i] = s.Count
	}
	return out
}

func TestEffects_LayoutLoopSettlesBeforeNotify(t *testing.T) {
	s, sched := newTestStore[counterState](t, countdown(true).Create(struct{}{}))
	seen := subscribeCount(s)

	s.GetState().Set.Set(3)
	sched.Flush()

	assert.Equal(t, []int{0}, counts(*seen))
	assert.Equal(t, 0, s.GetState().Count)
}

func TestEffects_PassiveLoopNotifiesEachStep(t *testing.T) {
	s, sched := newTestStore[counterState](t, countdown(false).Create(struct{}{}))
	seen := subscribeCount(s)

	s.GetState().Set.Set(3)
	sched.Flush()

	assert.Equal(t, []int{3, 2, 1, 0}, counts(*seen))
}

func TestEffects_MixedLoopSettlesOnce(t *testing.T) {
	comp := NewComponent("Mixed", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		UseLayoutEffect(h, func() Cleanup {
			if count > 0 {
				set.Set(count - 1)
			}
			return nil
		}, Deps{count})
		UseEffect(h, func() Cleanup {
			if count > 0 {
				set.Set(count - 1)
			}
			return nil
		}, Deps{count})
		return counterState{Count: count, Set: set}
	})
	s, sched := newTestStore[counterState](t, comp.Create(struct{}{}))
	sched.Flush()
	seen := subscribeCount(s)

	s.GetState().Set.Set(3)
	sched.Flush()

	assert.Equal(t, []int{0}, counts(*seen))
}

func TestEffects_PassiveMode(t *testing.T) {
	var c effectCounts
	comp := NewComponent("Counter", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		UseLayoutEffect(h, func() Cleanup {
			c.layout++
			return nil
		}, nil)
		UseEffect(h, func() Cleanup {
			c.effect++
			return nil
		}, nil)
		return counterState{Count: count, Set: set}
	})
	s, sched := newTestStore[counterState](t, comp.Create(struct{}{}), WithPassiveMode())
	s.GetState().Set.Set(3)
	sched.Flush()

	assert.Equal(t, 3, s.GetState().Count)
	assert.Equal(t, effectCounts{}, c)
}

func TestEffects_DestroyRunsCleanups(t *testing.T) {
	var c effectCounts
	comp := NewComponent("Counter", func(h *Hooks, _ struct{}) int {
		UseLayoutEffect(h, func() Cleanup {
			c.layout++
			return func() { c.layoutCleanup++ }
		}, Deps{})
		UseEffect(h, func() Cleanup {
			c.effect++
			return func() { c.effectCleanup++ }
		}, Deps{})
		return 0
	})

	t.Run("after passive effects ran", func(t *testing.T) {
		c = effectCounts{}
		s, sched := newTestStore[int](t, comp.Create(struct{}{}))
		sched.Flush()
		s.Destroy()
		assert.Equal(t, effectCounts{layout: 1, effect: 1, layoutCleanup: 1, effectCleanup: 1}, c)
	})

	t.Run("before passive effects ran", func(t *testing.T) {
		c = effectCounts{}
		s, sched := newTestStore[int](t, comp.Create(struct{}{}))
		s.Destroy()
		sched.Flush()
		assert.Equal(t, effectCounts{layout: 1, layoutCleanup: 1}, c)
	})
}

func TestEffects_Order(t *testing.T) {
	var log []string
	logger := NewComponent("Logger", func(h *Hooks, name string) string {
		UseLayoutEffect(h, func() Cleanup {
			log = append(log, name)
			return nil
		}, Deps{})
		return name
	})

	tests := []struct {
		name     string
		children any
		want     []string
	}{
		{
			name: "array in index order",
			children: []*Element{
				logger.Create("a"), logger.Create("b"), logger.Create("c"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "record in key order",
			children: map[string]*Element{
				"b": logger.Create("b"), "a": logger.Create("a"), "c": logger.Create("c"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "map in insertion order",
			children: NewMap().
				Set("c", logger.Create("c")).
				Set("a", logger.Create("a")).
				Set("b", logger.Create("b")),
			want: []string{"c", "a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log = nil
			newTestStore[any](t, tt.children)
			assert.Equal(t, tt.want, log)
		})
	}
}

func TestEffects_ChildrenRunAtHookPosition(t *testing.T) {
	var log []string
	child := NewComponent("Child", func(h *Hooks, _ struct{}) int {
		UseLayoutEffect(h, func() Cleanup {
			log = append(log, "child")
			return nil
		}, Deps{})
		return 0
	})
	parent := NewComponent("Parent", func(h *Hooks, _ struct{}) int {
		UseLayoutEffect(h, func() Cleanup {
			log = append(log, "before")
			return nil
		}, Deps{})
		child.Use(h, struct{}{})
		UseLayoutEffect(h, func() Cleanup {
			log = append(log, "after")
			return nil
		}, Deps{})
		return 0
	})
	newTestStore[int](t, parent.Create(struct{}{}))

	assert.Equal(t, []string{"before", "child", "after"}, log)
}

func TestEffects_CleanupsRunBeforeEffects(t *testing.T) {
	var log []string
	item := NewComponent("Item", func(h *Hooks, p numProps) int {
		UseLayoutEffect(h, func() Cleanup {
			log = append(log, "effect")
			return func() { log = append(log, "cleanup") }
		}, Deps{p.Num})
		return p.Num
	})
	list := NewComponent("List", func(h *Hooks, _ struct{}) counterState {
		n, set := UseState(h, 0)
		UseChildren[[]int](h, []*Element{item.Create(numProps{Num: n}), item.Create(numProps{Num: n + 1})})
		return counterState{Count: n, Set: set}
	})
	s, sched := newTestStore[counterState](t, list.Create(struct{}{}))
	log = nil

	s.GetState().Set.Set(5)
	sched.Flush()

	assert.Equal(t, []string{"cleanup", "cleanup", "effect", "effect"}, log)
}

func TestEffects_MemoAndRef(t *testing.T) {
	computed := 0
	type memoState struct {
		Double int
		Ref    *Ref[int]
		Set    *Setter[int]
		Other  *Setter[string]
	}
	comp := NewComponent("Memo", func(h *Hooks, _ struct{}) memoState {
		n, set := UseState(h, 1)
		_, setOther := UseState(h, "")
		double := UseMemo(h, func() int {
			computed++
			return n * 2
		}, Deps{n})
		ref := UseRef(h, 0)
		ref.Current++
		return memoState{Double: double, Ref: ref, Set: set, Other: setOther}
	})
	s, sched := newTestStore[memoState](t, comp.Create(struct{}{}))
	first := s.GetState()
	require.Equal(t, 2, first.Double)

	first.Other.Set("x")
	sched.Flush()
	assert.Equal(t, 1, computed, "memo reused when deps are unchanged")

	first.Set.Set(4)
	sched.Flush()
	st := s.GetState()
	assert.Equal(t, 8, st.Double)
	assert.Equal(t, 2, computed)
	assert.Same(t, first.Ref, st.Ref)
	assert.Equal(t, 3, st.Ref.Current)
}

func TestEffects_CallbackIdentity(t *testing.T) {
	type cbState struct {
		Fn  func() int
		Set *Setter[int]
	}
	var fns []func() int
	comp := NewComponent("Callback", func(h *Hooks, _ struct{}) cbState {
		n, set := UseState(h, 0)
		fn := UseCallback(h, func() int { return n }, Deps{n / 10})
		fns = append(fns, fn)
		return cbState{Fn: fn, Set: set}
	})
	s, sched := newTestStore[cbState](t, comp.Create(struct{}{}))
	s.GetState().Set.Set(5)
	sched.Flush()
	assert.Equal(t, 0, s.GetState().Fn(), "callback kept from the first render")

	s.GetState().Set.Set(12)
	sched.Flush()
	assert.Equal(t, 12, s.GetState().Fn())
	assert.Len(t, fns, 3)
}

package democrat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_ProviderValue(t *testing.T) {
	ctx := CreateContext(0)
	consumer := NewComponent("Consumer", func(h *Hooks, _ struct{}) int {
		return UseContext(h, ctx) * 2
	})
	s, _ := newTestStore[int](t, ctx.Provider(21, consumer.Create(struct{}{})))
	assert.Equal(t, 42, s.GetState())
}

func TestContext_DefaultWithoutProvider(t *testing.T) {
	ctx := CreateContext("light")
	consumer := NewComponent("Consumer", func(h *Hooks, _ struct{}) string {
		return UseContext(h, ctx)
	})
	s, _ := newTestStore[string](t, consumer.Create(struct{}{}))
	assert.Equal(t, "light", s.GetState())
}

func TestContext_NoDefault(t *testing.T) {
	ctx := CreateContextNoDefault[string]().Named("Theme")
	soft := NewComponent("Soft", func(h *Hooks, _ struct{}) string {
		return UseContext(h, ctx)
	})
	strict := NewComponent("Strict", func(h *Hooks, _ struct{}) string {
		return MustUseContext(h, ctx)
	})

	s, _ := newTestStore[string](t, soft.Create(struct{}{}))
	assert.Equal(t, "", s.GetState())

	provided, _ := newTestStore[string](t, ctx.Provider("dark", strict.Create(struct{}{})))
	assert.Equal(t, "dark", provided.GetState())

	err := recoverError(func() { newTestStore[string](t, strict.Create(struct{}{})) })
	assert.ErrorIs(t, err, ErrMissingProvider)
	assert.Contains(t, err.Error(), "Theme")
}

func TestContext_MustUseContextFallsBackToDefault(t *testing.T) {
	ctx := CreateContext(7)
	strict := NewComponent("Strict", func(h *Hooks, _ struct{}) int {
		return MustUseContext(h, ctx)
	})
	s, _ := newTestStore[int](t, strict.Create(struct{}{}))
	assert.Equal(t, 7, s.GetState())
}

func TestContext_NearestProviderWins(t *testing.T) {
	ctx := CreateContext("")
	consumer := NewComponent("Consumer", func(h *Hooks, _ struct{}) string {
		return UseContext(h, ctx)
	})
	s, _ := newTestStore[[]any](t, ctx.Provider("outer", []any{
		consumer.Create(struct{}{}),
		ctx.Provider("inner", consumer.Create(struct{}{})),
	}))
	assert.Equal(t, []any{"outer", "inner"}, s.GetState())
}

type providedState struct {
	Inside, Outside, Plain int
	Set                    *Setter[int]
}

func TestContext_UpdateRerendersConsumersOnly(t *testing.T) {
	ctx := CreateContext(0)
	renders := map[string]int{}
	consumer := NewComponent("Consumer", func(h *Hooks, name string) int {
		renders[name]++
		return UseContext(h, ctx)
	})
	plain := NewComponent("Plain", func(h *Hooks, _ struct{}) int {
		renders["plain"]++
		return -1
	})
	parent := NewComponent("Parent", func(h *Hooks, _ struct{}) providedState {
		v, set := UseState(h, 1)
		out := UseChildren[map[string]any](h, map[string]any{
			"inside":  ctx.Provider(v, []any{consumer.Create("inside"), plain.Create(struct{}{})}),
			"outside": consumer.Create("outside"),
		})
		inside := out["inside"].([]any)
		return providedState{
			Inside:  inside[0].(int),
			Plain:   inside[1].(int),
			Outside: out["outside"].(int),
			Set:     set,
		}
	})
	s, sched := newTestStore[providedState](t, parent.Create(struct{}{}))
	require.Equal(t, 1, s.GetState().Inside)
	require.Equal(t, 0, s.GetState().Outside)

	s.GetState().Set.Set(5)
	sched.Flush()

	st := s.GetState()
	assert.Equal(t, 5, st.Inside)
	assert.Equal(t, 0, st.Outside)
	assert.Equal(t, 2, renders["inside"])
	assert.Equal(t, 1, renders["outside"])
	assert.Equal(t, 1, renders["plain"])
}

func TestContext_UpdateReachesNestedConsumer(t *testing.T) {
	ctx := CreateContext(0)
	middleRenders := 0
	consumer := NewComponent("Consumer", func(h *Hooks, _ struct{}) int {
		return UseContext(h, ctx)
	})
	middle := NewComponent("Middle", func(h *Hooks, _ struct{}) int {
		middleRenders++
		return consumer.Use(h, struct{}{})
	})
	parent := NewComponent("Parent", func(h *Hooks, _ struct{}) counterState {
		v, set := UseState(h, 1)
		got := UseChildren[int](h, ctx.Provider(v, middle.Create(struct{}{})))
		return counterState{Count: got, Set: set}
	})
	s, sched := newTestStore[counterState](t, parent.Create(struct{}{}))
	s.GetState().Set.Set(9)
	sched.Flush()

	assert.Equal(t, 9, s.GetState().Count)
	assert.Equal(t, 2, middleRenders)
}

func TestContext_SameValueDoesNotRerender(t *testing.T) {
	ctx := CreateContext("")
	renders := 0
	consumer := NewComponent("Consumer", func(h *Hooks, _ struct{}) string {
		renders++
		return UseContext(h, ctx)
	})
	parent := NewComponent("Parent", func(h *Hooks, _ struct{}) counterState {
		count, set := UseState(h, 0)
		UseChildren[string](h, ctx.Provider("fixed", consumer.Create(struct{}{})))
		return counterState{Count: count, Set: set}
	})
	s, sched := newTestStore[counterState](t, parent.Create(struct{}{}))
	s.GetState().Set.Set(1)
	sched.Flush()

	assert.Equal(t, 1, renders)
}

func TestContext_RemovedConsumerUnsubscribes(t *testing.T) {
	ctx := CreateContext(0)
	consumer := NewComponent("Consumer", func(h *Hooks, _ struct{}) int {
		return UseContext(h, ctx)
	})
	parent := NewComponent("Parent", func(h *Hooks, _ struct{}) counterState {
		show, set := UseState(h, 1)
		var children any
		if show == 1 {
			children = consumer.Create(struct{}{})
		}
		UseChildren[any](h, ctx.Provider(show, children))
		return counterState{Count: show, Set: set}
	})
	s, sched := newTestStore[counterState](t, parent.Create(struct{}{}))
	require.Equal(t, 1, s.root.reg.count(ctx.key))

	s.GetState().Set.Set(0)
	sched.Flush()
	assert.Equal(t, 0, s.root.reg.count(ctx.key))
}

func TestContext_ConsumerStopsUsingContext(t *testing.T) {
	ctx := CreateContext(0)
	type toggleState struct {
		Value int
		Use   *Setter[bool]
	}
	consumer := NewComponent("Consumer", func(h *Hooks, _ struct{}) toggleState {
		use, set := UseState(h, true)
		v := -1
		if use {
			v = UseContext(h, ctx)
		}
		return toggleState{Value: v, Use: set}
	})

	s, sched := newTestStore[toggleState](t, ctx.Provider(3, consumer.Create(struct{}{})))
	require.Equal(t, 3, s.GetState().Value)

	s.GetState().Use.Set(false)
	err := recoverError(func() { sched.Flush() })
	assert.ErrorIs(t, err, ErrHookOrder, "a conditional context hook changes the hook order")
}

package demo

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/democrat/pkg/democrat"
)

func open(t *testing.T, name string) (*Instance, *democrat.ManualScheduler) {
	t.Helper()
	tree, err := Lookup(name)
	require.NoError(t, err)
	sched := democrat.NewManualScheduler()
	in := tree.Open(
		democrat.WithScheduler(sched),
		democrat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(in.Destroy)
	return in, sched
}

func TestCounterTree(t *testing.T) {
	in, sched := open(t, "counter")
	for i := 0; i < 3; i++ {
		in.Step(i)
		sched.Flush()
	}
	st := in.State().(CounterState)
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 6, st.Doubled)
	assert.Equal(t, "counter", in.Name())
}

func TestTodosTree(t *testing.T) {
	in, sched := open(t, "todos")
	var seen []int
	in.SubscribePatches(func(ps []democrat.Patch) { seen = append(seen, len(ps)) })

	in.Step(0)
	sched.Flush()
	in.Step(1)
	sched.Flush()
	st := in.State().(TodoListState)
	require.Len(t, st.Todos, 2)
	assert.Equal(t, Todo{ID: 1, Text: "task 1"}, st.Todos[0])
	assert.Equal(t, Todo{ID: 2, Text: "task 2"}, st.Todos[1])
	assert.Equal(t, "[light] 2 of 2 left", st.Summary)

	in.Step(2)
	sched.Flush()
	st = in.State().(TodoListState)
	assert.True(t, st.Todos[0].Done)
	assert.Equal(t, 1, st.Remaining)

	in.Step(3)
	sched.Flush()
	st = in.State().(TodoListState)
	assert.Equal(t, []Todo{{ID: 2, Text: "task 2"}}, st.Todos)
	assert.Equal(t, []int{1, 1, 1, 1}, seen)
}

func TestAppTree(t *testing.T) {
	in, sched := open(t, "app")
	for i := 0; i < 3; i++ {
		in.Step(i)
		sched.Flush()
	}
	st := in.State().(AppState)
	assert.Equal(t, 1, st.Counter.Count)
	assert.Len(t, st.Todos.Todos, 1)
	assert.Equal(t, "dark", st.Theme)
	assert.Equal(t, "[dark] 1 of 1 left", st.Todos.Summary)
}

func TestReduceTodos(t *testing.T) {
	todos := reduceTodos(nil, TodoAction{Type: ActionAdd, Text: "a"})
	todos = reduceTodos(todos, TodoAction{Type: ActionAdd, Text: "b"})
	todos = reduceTodos(todos, TodoAction{Type: ActionRemove, ID: 1})
	todos = reduceTodos(todos, TodoAction{Type: ActionAdd, Text: "c"})
	assert.Equal(t, []Todo{{ID: 2, Text: "b"}, {ID: 3, Text: "c"}}, todos)

	same := reduceTodos(todos, TodoAction{Type: "unknown"})
	assert.Equal(t, todos, same)
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"app", "counter", "todos"}, Names())
	assert.Len(t, All(), 3)

	_, err := Lookup("missing")
	assert.ErrorContains(t, err, `unknown demo tree "missing"`)
}

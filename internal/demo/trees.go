package demo

import (
	"fmt"
	"sort"

	"github.com/vango-dev/democrat/pkg/democrat"
	"github.com/vango-dev/democrat/pkg/inspect"
)

// Instance is a mounted demo tree.
type Instance struct {
	inspect.Target

	step    func(i int)
	destroy func()
}

// Step performs the i-th scripted interaction. Steps only queue updates;
// the store's scheduler applies them.
func (in *Instance) Step(i int) { in.step(i) }

// Destroy destroys the underlying store.
func (in *Instance) Destroy() { in.destroy() }

// Tree is a named demo component tree.
type Tree struct {
	Name        string
	Description string

	open func(opts ...democrat.Option) *Instance
}

// Open mounts the tree in a new store.
func (t Tree) Open(opts ...democrat.Option) *Instance {
	return t.open(append([]democrat.Option{democrat.WithName(t.Name)}, opts...)...)
}

var trees = map[string]Tree{
	"counter": {
		Name:        "counter",
		Description: "a single counter incremented on every step",
		open: func(opts ...democrat.Option) *Instance {
			s := democrat.CreateStore[CounterState](Counter.Create(CounterProps{Step: 1}), opts...)
			return &Instance{
				Target:  inspect.StoreTarget(s),
				step:    func(int) { s.GetState().Increment(1) },
				destroy: s.Destroy,
			}
		},
	},
	"todos": {
		Name:        "todos",
		Description: "a todo list that adds, toggles and clears items",
		open: func(opts ...democrat.Option) *Instance {
			s := democrat.CreateStore[TodoListState](TodoList.Create(struct{}{}), opts...)
			return &Instance{
				Target:  inspect.StoreTarget(s),
				step:    func(i int) { todoStep(s.GetState().Dispatch, s.GetState().Todos, i) },
				destroy: s.Destroy,
			}
		},
	},
	"app": {
		Name:        "app",
		Description: "a counter and a todo list under a theme provider",
		open: func(opts ...democrat.Option) *Instance {
			s := democrat.CreateStore[AppState](App.Create(struct{}{}), opts...)
			return &Instance{
				Target:  inspect.StoreTarget(s),
				step:    func(i int) { appStep(s.GetState(), i) },
				destroy: s.Destroy,
			}
		},
	},
}

// todoStep cycles through add, add, toggle and clear.
func todoStep(dispatch *democrat.Dispatcher[TodoAction], todos []Todo, i int) {
	switch i % 4 {
	case 0, 1:
		dispatch.Dispatch(TodoAction{Type: ActionAdd, Text: fmt.Sprintf("task %d", i+1)})
	case 2:
		if len(todos) > 0 {
			dispatch.Dispatch(TodoAction{Type: ActionToggle, ID: todos[0].ID})
		}
	case 3:
		dispatch.Dispatch(TodoAction{Type: ActionClear})
	}
}

func appStep(st AppState, i int) {
	switch i % 3 {
	case 0:
		st.Counter.Increment(1)
	case 1:
		todoStep(st.Todos.Dispatch, st.Todos.Todos, i)
	case 2:
		if st.Theme == "light" {
			st.SetTheme.Set("dark")
		} else {
			st.SetTheme.Set("light")
		}
	}
}

// Lookup returns the tree with the given name.
func Lookup(name string) (Tree, error) {
	t, ok := trees[name]
	if !ok {
		return Tree{}, fmt.Errorf("unknown demo tree %q (available: %v)", name, Names())
	}
	return t, nil
}

// Names returns the names of all demo trees, sorted.
func Names() []string {
	names := make([]string, 0, len(trees))
	for name := range trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every demo tree, sorted by name.
func All() []Tree {
	out := make([]Tree, 0, len(trees))
	for _, name := range Names() {
		out = append(out, trees[name])
	}
	return out
}

package demo

import (
	"fmt"

	"github.com/vango-dev/democrat/pkg/democrat"
)

// Theme is provided by App and read by TodoList for its summary line.
var Theme = democrat.CreateContext("light").Named("Theme")

// CounterProps configures a Counter.
type CounterProps struct {
	Initial int
	Step    int
}

// CounterState is the value of a Counter.
type CounterState struct {
	Count   int                   `json:"count"`
	Doubled int                   `json:"doubled"`
	Set     *democrat.Setter[int] `json:"-"`
}

// Increment adds the counter's step.
func (c CounterState) Increment(step int) {
	c.Set.Update(func(n int) int { return n + step })
}

// Counter holds a number.
var Counter = democrat.NewComponent("Counter", func(h *democrat.Hooks, p CounterProps) CounterState {
	count, set := democrat.UseState(h, p.Initial)
	doubled := democrat.UseMemo(h, func() int { return count * 2 }, democrat.Deps{count})
	return CounterState{Count: count, Doubled: doubled, Set: set}
})

// Todo is one item of a TodoList.
type Todo struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TodoAction is dispatched to a TodoList.
type TodoAction struct {
	Type string `json:"type"`
	ID   int    `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// Action types understood by TodoList.
const (
	ActionAdd    = "add"
	ActionToggle = "toggle"
	ActionRemove = "remove"
	ActionClear  = "clearDone"
)

// TodoListState is the value of a TodoList.
type TodoListState struct {
	Todos     []Todo                           `json:"todos"`
	Remaining int                              `json:"remaining"`
	Summary   string                           `json:"summary"`
	Dispatch  *democrat.Dispatcher[TodoAction] `json:"-"`
}

func reduceTodos(todos []Todo, a TodoAction) []Todo {
	switch a.Type {
	case ActionAdd:
		next := 1
		for _, t := range todos {
			if t.ID >= next {
				next = t.ID + 1
			}
		}
		return append(append([]Todo(nil), todos...), Todo{ID: next, Text: a.Text})
	case ActionToggle:
		out := append([]Todo(nil), todos...)
		for i := range out {
			if out[i].ID == a.ID {
				out[i].Done = !out[i].Done
			}
		}
		return out
	case ActionRemove, ActionClear:
		out := make([]Todo, 0, len(todos))
		for _, t := range todos {
			if (a.Type == ActionRemove && t.ID == a.ID) || (a.Type == ActionClear && t.Done) {
				continue
			}
			out = append(out, t)
		}
		return out
	}
	return todos
}

// TodoList keeps a list of todos in a reducer.
var TodoList = democrat.NewComponent("TodoList", func(h *democrat.Hooks, _ struct{}) TodoListState {
	todos, dispatch := democrat.UseReducer(h, reduceTodos, []Todo{})
	theme := democrat.UseContext(h, Theme)
	remaining := democrat.UseMemo(h, func() int {
		n := 0
		for _, t := range todos {
			if !t.Done {
				n++
			}
		}
		return n
	}, democrat.Deps{todos})
	return TodoListState{
		Todos:     todos,
		Remaining: remaining,
		Summary:   fmt.Sprintf("[%s] %d of %d left", theme, remaining, len(todos)),
		Dispatch:  dispatch,
	}
})

// AppState is the value of App.
type AppState struct {
	Theme    string                   `json:"theme"`
	Counter  CounterState             `json:"counter"`
	Todos    TodoListState            `json:"todos"`
	Renders  int                      `json:"renders"`
	SetTheme *democrat.Setter[string] `json:"-"`
}

// App combines a counter and a todo list under a Theme provider. Renders
// counts settled renders of App through a passive effect.
var App = democrat.NewComponent("App", func(h *democrat.Hooks, _ struct{}) AppState {
	theme, setTheme := democrat.UseState(h, "light")
	renders := democrat.UseRef(h, 0)
	democrat.UseEffect(h, func() democrat.Cleanup {
		renders.Current++
		return nil
	}, nil)

	children := democrat.UseChildren[map[string]any](h, Theme.Provider(theme, map[string]any{
		"counter": Counter.Create(CounterProps{Step: 1}),
		"todos":   TodoList.Create(struct{}{}),
	}))
	return AppState{
		Theme:    theme,
		Counter:  children["counter"].(CounterState),
		Todos:    children["todos"].(TodoListState),
		Renders:  renders.Current,
		SetTheme: setTheme,
	}
})

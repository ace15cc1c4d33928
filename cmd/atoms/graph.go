package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/vango-dev/atoms/pkg/atom"
	"github.com/vango-dev/atoms/pkg/devtools"
	"github.com/vango-dev/atoms/pkg/features/family"
	"github.com/vango-dev/atoms/pkg/features/loadable"
)

type todo struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// graph is the atom graph served by "atoms serve" and used by the demos.
type graph struct {
	Clock      *atom.Atom[int]
	Celsius    *atom.Atom[float64]
	Fahrenheit *atom.Atom[float64]
	Forecast   *atom.Atom[string]
	Loadable   *atom.Atom[loadable.Loadable[string]]

	TodoIDs   *atom.Atom[[]string]
	Todos     *family.Family[string, todo]
	TodoList  *atom.Atom[[]todo]
	Remaining *atom.Atom[int]
	AddTodo   *atom.Atom[struct{}]
	Toggle    *atom.Atom[struct{}]
}

// newGraph builds the graph. latency is how long the forecast takes to
// resolve.
func newGraph(latency time.Duration) *graph {
	g := &graph{
		Clock:   atom.New(0).WithLabel("clock"),
		Celsius: atom.New(20.0).WithLabel("celsius"),
		TodoIDs: atom.New([]string{}).WithLabel("todoIDs"),
	}
	g.Todos = family.New(func(id string) *atom.Atom[todo] {
		return atom.New(todo{}).WithLabel("todo:" + id)
	})

	g.Fahrenheit = atom.Writable(func(get atom.Getter) (float64, error) {
		c, err := atom.Get(get, g.Celsius)
		return c*9/5 + 32, err
	}, func(_ atom.Getter, set atom.Setter, args ...any) (any, error) {
		f, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("%w: fahrenheit takes a float64", atom.ErrInvalidValue)
		}
		return nil, atom.Set(set, g.Celsius, (f-32)*5/9)
	}).WithLabel("fahrenheit")

	g.Forecast = atom.Async(func(ctx context.Context, get atom.Getter) (string, error) {
		c, err := atom.Get(get, g.Celsius)
		if err != nil {
			return "", err
		}
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return forecast(c), nil
	}).WithLabel("forecast")
	g.Loadable = loadable.Of(g.Forecast)

	g.TodoList = atom.Derived(func(get atom.Getter) ([]todo, error) {
		ids, err := atom.Get(get, g.TodoIDs)
		if err != nil {
			return nil, err
		}
		out := make([]todo, 0, len(ids))
		for _, id := range ids {
			t, err := atom.Get(get, g.Todos.Get(id))
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil
	}).WithLabel("todoList")

	g.Remaining = atom.Derived(func(get atom.Getter) (int, error) {
		list, err := atom.Get(get, g.TodoList)
		n := 0
		for _, t := range list {
			if !t.Done {
				n++
			}
		}
		return n, err
	}).WithLabel("remaining")

	g.AddTodo = atom.WriteOnly(func(get atom.Getter, set atom.Setter, args ...any) (any, error) {
		title, _ := args[0].(string)
		if title == "" {
			return nil, fmt.Errorf("%w: todo title is empty", atom.ErrInvalidValue)
		}
		ids, err := atom.Get(get, g.TodoIDs)
		if err != nil {
			return nil, err
		}
		id := fmt.Sprintf("t%d", len(ids)+1)
		if err := atom.Set(set, g.Todos.Get(id), todo{Title: title}); err != nil {
			return nil, err
		}
		return id, atom.Set(set, g.TodoIDs, append(slices.Clone(ids), id))
	}).WithLabel("addTodo")

	g.Toggle = atom.WriteOnly(func(get atom.Getter, set atom.Setter, args ...any) (any, error) {
		id, _ := args[0].(string)
		if !g.Todos.Has(id) {
			return nil, fmt.Errorf("%w: no todo %q", atom.ErrInvalidValue, id)
		}
		return nil, atom.Update(set, g.Todos.Get(id), func(t todo) todo {
			t.Done = !t.Done
			return t
		})
	}).WithLabel("toggleTodo")

	return g
}

func forecast(celsius float64) string {
	switch {
	case celsius < 0:
		return "freezing"
	case celsius < 15:
		return "cold"
	case celsius < 25:
		return "mild"
	default:
		return "hot"
	}
}

// register exposes the graph on reg.
func (g *graph) register(reg *devtools.Registry) error {
	stringArg := func(field string) devtools.Decoder {
		return func(body json.RawMessage) ([]any, error) {
			var req map[string]string
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, err
			}
			return []any{req[field]}, nil
		}
	}

	for _, err := range []error{
		devtools.Register(reg, "clock", g.Clock),
		devtools.Register(reg, "celsius", g.Celsius),
		devtools.Register(reg, "fahrenheit", g.Fahrenheit),
		devtools.Register(reg, "forecast", g.Forecast),
		devtools.Register(reg, "forecast.loadable", g.Loadable),
		devtools.Register(reg, "todos", g.TodoList),
		devtools.Register(reg, "remaining", g.Remaining),
		devtools.RegisterArgs(reg, "addTodo", g.AddTodo, stringArg("title")),
		devtools.RegisterArgs(reg, "toggleTodo", g.Toggle, stringArg("id")),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

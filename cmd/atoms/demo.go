package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/atoms/internal/errors"
	"github.com/vango-dev/atoms/pkg/atom"
	"github.com/vango-dev/atoms/pkg/features/loadable"
)

// scenario is one scripted demo. It writes what happens to w.
type scenario struct {
	summary string
	run     func(ctx context.Context, w io.Writer) error
}

var scenarios = map[string]scenario{
	"derived":  {"derived atoms recompute only when a dependency changes", demoDerived},
	"async":    {"async atoms resolve on their own and stale results are dropped", demoAsync},
	"mount":    {"subscribing mounts an atom and its dependencies", demoMount},
	"batch":    {"a batch notifies each subscriber once", demoBatch},
	"cycle":    {"an atom that reads itself fails with a cyclic dependency", demoCycle},
	"loadable": {"loadable turns a pending or failed atom into a value", demoLoadable},
	"family":   {"a family keeps one atom per key", demoFamily},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func demoCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "demo [scenario...]",
		Short: "Run scripted store scenarios",
		Long: `Run scripted scenarios against a fresh store and print what it does.

Without arguments every scenario runs.

Examples:
  atoms demo --list
  atoms demo async mount`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if list {
				for _, name := range scenarioNames() {
					fmt.Fprintf(w, "  %-9s %s\n", name, scenarios[name].summary)
				}
				return nil
			}
			if len(args) == 0 {
				args = scenarioNames()
			}
			return runDemos(cmd.Context(), w, args)
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List the scenarios")

	return cmd
}

func runDemos(ctx context.Context, w io.Writer, names []string) error {
	for _, name := range names {
		if _, ok := scenarios[name]; !ok {
			return errors.New("A201").WithDetail(fmt.Sprintf("%q is not one of %s", name, strings.Join(scenarioNames(), ", ")))
		}
	}
	for _, name := range names {
		fmt.Fprintf(w, "\n== %s ==\n", name)
		if err := scenarios[name].run(ctx, w); err != nil {
			return errors.FromError(err, "A202").WithDetail("scenario " + name)
		}
		success(w, "%s", name)
	}
	return nil
}

// demoStore creates a quiet store for a scenario.
func demoStore() *atom.Store {
	return atom.NewStore(atom.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func demoDerived(_ context.Context, w io.Writer) error {
	s := demoStore()
	defer s.Close()
	g := newGraph(0)

	var computed atomic.Int32
	label := atom.Derived(func(get atom.Getter) (string, error) {
		computed.Add(1)
		f, err := atom.Get(get, g.Fahrenheit)
		return fmt.Sprintf("%.1f°F", f), err
	}).WithLabel("label")

	read := func() error {
		v, err := atom.Get(s, label)
		if err != nil {
			return err
		}
		info(w, "label = %s (computed %d times)", v, computed.Load())
		return nil
	}

	if err := read(); err != nil {
		return err
	}
	if err := read(); err != nil {
		return err
	}
	info(w, "set celsius = 20 (unchanged)")
	if err := atom.Set(s, g.Celsius, 20); err != nil {
		return err
	}
	if err := read(); err != nil {
		return err
	}
	info(w, "set fahrenheit = 212")
	if err := atom.Set(s, g.Fahrenheit, 212.0); err != nil {
		return err
	}
	if err := read(); err != nil {
		return err
	}
	c, err := atom.Get(s, g.Celsius)
	if err != nil {
		return err
	}
	info(w, "celsius = %.1f", c)
	return nil
}

func demoAsync(ctx context.Context, w io.Writer) error {
	s := demoStore()
	defer s.Close()
	g := newGraph(20 * time.Millisecond)

	_, err := atom.Get(s, g.Forecast)
	info(w, "forecast: pending=%v", atom.IsPending(err))

	info(w, "set celsius = -5 while the forecast is in flight")
	if err := atom.Set(s, g.Celsius, -5); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	v, err := atom.Await(ctx, s, g.Forecast)
	if err != nil {
		return err
	}
	info(w, "forecast = %s", v)
	return nil
}

func demoMount(_ context.Context, w io.Writer) error {
	s := demoStore()
	defer s.Close()

	base := atom.New(1).WithLabel("base").WithOnMount(func(set atom.SetFunc) atom.Cleanup {
		info(w, "base mounted, initialising to 10")
		if err := set(10); err != nil {
			info(w, "initialise failed: %v", err)
		}
		return func() { info(w, "base unmounted") }
	})
	doubled := atom.Derived(func(get atom.Getter) (int, error) {
		n, err := atom.Get(get, base)
		return n * 2, err
	}).WithLabel("doubled").WithOnMount(func(atom.SetFunc) atom.Cleanup {
		info(w, "doubled mounted")
		return func() { info(w, "doubled unmounted") }
	})

	unsubscribe := s.Subscribe(doubled, atom.NewListener(nil))
	v, err := atom.Get(s, doubled)
	if err != nil {
		return err
	}
	info(w, "doubled = %d, base phase = %s", v, s.Phase(base))
	unsubscribe()
	info(w, "base phase = %s", s.Phase(base))
	return nil
}

func demoBatch(_ context.Context, w io.Writer) error {
	s := demoStore()
	defer s.Close()
	g := newGraph(0)

	var notified atomic.Int32
	unsubscribe := s.Subscribe(g.Remaining, atom.NewListener(func() { notified.Add(1) }))
	defer unsubscribe()

	var batchErr error
	s.Batch(func() {
		for _, title := range []string{"write", "review", "ship"} {
			if _, err := s.Set(g.AddTodo, title); err != nil {
				batchErr = err
				return
			}
		}
	})
	if batchErr != nil {
		return batchErr
	}
	n, err := atom.Get(s, g.Remaining)
	if err != nil {
		return err
	}
	info(w, "added 3 todos in a batch: remaining = %d, notified %d time(s)", n, notified.Load())

	if _, err := s.Set(g.Toggle, "t2"); err != nil {
		return err
	}
	n, err = atom.Get(s, g.Remaining)
	if err != nil {
		return err
	}
	info(w, "toggled t2: remaining = %d, notified %d time(s)", n, notified.Load())
	return nil
}

func demoCycle(_ context.Context, w io.Writer) error {
	s := demoStore()
	defer s.Close()

	var ping, pong *atom.Atom[int]
	ping = atom.Derived(func(get atom.Getter) (int, error) {
		return atom.Get(get, pong)
	}).WithLabel("ping")
	pong = atom.Derived(func(get atom.Getter) (int, error) {
		return atom.Get(get, ping)
	}).WithLabel("pong")

	_, err := atom.Get(s, ping)
	if !atom.IsCycle(err) {
		return fmt.Errorf("expected a cyclic dependency, got %v", err)
	}
	ae := errors.FromError(err, "A202")
	info(w, "%s", ae.FormatJSON())
	return nil
}

func demoLoadable(ctx context.Context, w io.Writer) error {
	s := demoStore()
	defer s.Close()
	g := newGraph(10 * time.Millisecond)

	describe := func(l loadable.Loadable[string]) string {
		out, _ := loadable.Match(l,
			loadable.OnLoading[string](func() string { return "loading" }),
			loadable.OnError[string](func(err error) string { return "error: " + err.Error() }),
			loadable.OnReady(func(v string) string { return "ready: " + v }),
		)
		return out
	}

	l, err := atom.Get(s, g.Loadable)
	if err != nil {
		return err
	}
	info(w, "forecast %s", describe(l))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := atom.Await(ctx, s, g.Forecast); err != nil {
		return err
	}
	l, err = atom.Get(s, g.Loadable)
	if err != nil {
		return err
	}
	info(w, "forecast %s", describe(l))
	return nil
}

func demoFamily(_ context.Context, w io.Writer) error {
	s := demoStore()
	defer s.Close()
	g := newGraph(0)

	for _, title := range []string{"a", "b"} {
		if _, err := s.Set(g.AddTodo, title); err != nil {
			return err
		}
	}
	same := g.Todos.Get("t1") == g.Todos.Get("t1")
	info(w, "keys = %v, stable identity = %v", g.Todos.Keys(), same)

	if err := atom.Update(s, g.TodoIDs, func(ids []string) []string {
		return slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == "t1" })
	}); err != nil {
		return err
	}
	g.Todos.Remove("t1", s)
	list, err := atom.Get(s, g.TodoList)
	if err != nil {
		return err
	}
	info(w, "removed t1: keys = %v, todos = %v", g.Todos.Keys(), list)
	return nil
}

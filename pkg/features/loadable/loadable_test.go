package loadable

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/atoms/pkg/atom"
	"github.com/vango-dev/atoms/pkg/atomtest"
)

func TestLoadableOfSyncAtom(t *testing.T) {
	count := atom.New(3)
	s := atom.NewStore()

	l, err := atom.Get(s, Of(count))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.IsReady() {
		t.Errorf("expected Ready, got %s", l.State)
	}
	if l.Data != 3 {
		t.Errorf("expected 3, got %d", l.Data)
	}
}

func TestLoadableSameAtomPerSource(t *testing.T) {
	count := atom.New(0)
	if Of(count) != Of(count) {
		t.Error("expected the same loadable atom for the same source")
	}

	other := atom.New(0)
	if Of(count) == Of(other) {
		t.Error("expected different loadable atoms for different sources")
	}

	first := Of(count)
	if cached, ok := Cached(count); !ok || cached != first {
		t.Error("expected Cached to return the loadable atom")
	}
	Forget(count)
	if _, ok := Cached(count); ok {
		t.Error("expected no cached loadable after Forget")
	}
	if Of(count) == first {
		t.Error("expected a new loadable atom after Forget")
	}
}

func TestLoadableAsyncLifecycle(t *testing.T) {
	release := make(chan struct{})
	user := atom.Async(func(ctx context.Context, _ atom.Getter) (string, error) {
		select {
		case <-release:
			return "ann", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}).WithLabel("user")
	s := atom.NewStore()
	defer s.Close()

	state := Of(user)
	if state.String() != "loadable(user)" {
		t.Errorf("expected label loadable(user), got %q", state.String())
	}

	l := atomtest.Subscribe(t, s, state)

	v, err := atom.Get(s, state)
	if err != nil {
		t.Fatalf("expected loadable never to fail, got %v", err)
	}
	if !v.IsLoading() {
		t.Errorf("expected Loading, got %s", v.State)
	}
	if v.DataOr("guest") != "guest" {
		t.Errorf("expected fallback while loading, got %q", v.DataOr("guest"))
	}

	close(release)
	ready := atomtest.Eventually(t, s, state, func(v Loadable[string]) bool { return v.IsReady() })
	if ready.Data != "ann" {
		t.Errorf("expected ann, got %q", ready.Data)
	}
	if l.Count() < 1 {
		t.Error("expected subscriber notified when the source settled")
	}
}

func TestLoadableError(t *testing.T) {
	errNotFound := errors.New("not found")
	user := atom.Async(func(context.Context, atom.Getter) (string, error) {
		return "", errNotFound
	})
	s := atom.NewStore()

	v := atomtest.Eventually(t, s, Of(user), func(v Loadable[string]) bool { return !v.IsLoading() })
	if !v.IsError() {
		t.Fatalf("expected Error, got %s", v.State)
	}
	if !errors.Is(v.Err, errNotFound) {
		t.Errorf("expected errNotFound, got %v", v.Err)
	}
}

func TestMatch(t *testing.T) {
	handlers := []Handler[int, string]{
		OnLoading[int](func() string { return "loading" }),
		OnError[int](func(err error) string { return "error: " + err.Error() }),
		OnReady(func(n int) string { return "ready" }),
	}

	tests := []struct {
		name string
		l    Loadable[int]
		want string
	}{
		{"loading", Loadable[int]{State: Loading}, "loading"},
		{"error", Loadable[int]{State: Error, Err: errors.New("x")}, "error: x"},
		{"ready", Loadable[int]{State: Ready, Data: 1}, "ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.l, handlers...)
			if !ok {
				t.Fatal("expected a handler to match")
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMatchOtherwise(t *testing.T) {
	got, ok := Match(Loadable[int]{State: Loading},
		OnReady(func(int) string { return "ready" }),
		Otherwise[int](func() string { return "fallback" }),
	)
	if !ok || got != "fallback" {
		t.Errorf("expected fallback, got %q (ok=%v)", got, ok)
	}

	_, ok = Match(Loadable[int]{State: Loading}, OnReady(func(int) string { return "ready" }))
	if ok {
		t.Error("expected no match")
	}
}

func TestStateString(t *testing.T) {
	if Loading.String() != "loading" || Ready.String() != "ready" || Error.String() != "error" {
		t.Error("unexpected state names")
	}
	if State(9).String() != "unknown" {
		t.Errorf("expected unknown, got %q", State(9).String())
	}
}

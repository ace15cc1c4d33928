package atom

import (
	"errors"
	"testing"
)

func TestDerivedMemoized(t *testing.T) {
	computations := 0
	count := New(5)
	doubled := Derived(func(get Getter) (int, error) {
		computations++
		n, err := Get(get, count)
		return n * 2, err
	})
	s := NewStore()

	// First read computes
	if v, _ := Get(s, doubled); v != 10 {
		t.Errorf("expected 10, got %d", v)
	}
	if computations != 1 {
		t.Errorf("expected 1 computation, got %d", computations)
	}

	// Second read uses cache
	if v, _ := Get(s, doubled); v != 10 {
		t.Errorf("expected 10, got %d", v)
	}
	if computations != 1 {
		t.Errorf("expected still 1 computation (cached), got %d", computations)
	}

	_ = Set(s, count, 10)
	if v, _ := Get(s, doubled); v != 20 {
		t.Errorf("expected 20, got %d", v)
	}
	if computations != 2 {
		t.Errorf("expected 2 computations, got %d", computations)
	}
}

func TestDerivedNotRecomputedOnEqualSet(t *testing.T) {
	computations := 0
	count := New(5)
	doubled := Derived(func(get Getter) (int, error) {
		computations++
		n, err := Get(get, count)
		return n * 2, err
	})
	s := NewStore()

	_, _ = Get(s, doubled)
	_ = Set(s, count, 5)
	_, _ = Get(s, doubled)

	if computations != 1 {
		t.Errorf("expected 1 computation after setting an equal value, got %d", computations)
	}
}

func TestDerivedChainCutoff(t *testing.T) {
	count := New(1)
	parityRuns, labelRuns := 0, 0
	parity := Derived(func(get Getter) (int, error) {
		parityRuns++
		n, err := Get(get, count)
		return n % 2, err
	})
	label := Derived(func(get Getter) (string, error) {
		labelRuns++
		p, err := Get(get, parity)
		if p == 0 {
			return "even", err
		}
		return "odd", err
	})
	s := NewStore()

	if v, _ := Get(s, label); v != "odd" {
		t.Errorf("expected odd, got %q", v)
	}

	// parity recomputes to an equal value, so label is not recomputed.
	_ = Set(s, count, 3)
	if v, _ := Get(s, label); v != "odd" {
		t.Errorf("expected odd, got %q", v)
	}
	if parityRuns != 2 {
		t.Errorf("expected parity computed twice, got %d", parityRuns)
	}
	if labelRuns != 1 {
		t.Errorf("expected label computed once, got %d", labelRuns)
	}

	_ = Set(s, count, 4)
	if v, _ := Get(s, label); v != "even" {
		t.Errorf("expected even, got %q", v)
	}
	if labelRuns != 2 {
		t.Errorf("expected label computed twice, got %d", labelRuns)
	}
}

func TestDiamondComputesOnce(t *testing.T) {
	a := New(1)
	b := Derived(func(get Getter) (int, error) {
		n, err := Get(get, a)
		return n + 1, err
	})
	c := Derived(func(get Getter) (int, error) {
		n, err := Get(get, a)
		return n * 10, err
	})
	runs := 0
	d := Derived(func(get Getter) (int, error) {
		runs++
		x, err := Get(get, b)
		if err != nil {
			return 0, err
		}
		y, err := Get(get, c)
		return x + y, err
	})
	s := NewStore()

	if v, _ := Get(s, d); v != 12 {
		t.Errorf("expected 12, got %d", v)
	}
	_ = Set(s, a, 2)
	if v, _ := Get(s, d); v != 23 {
		t.Errorf("expected 23, got %d", v)
	}
	if runs != 2 {
		t.Errorf("expected 2 computations, got %d", runs)
	}
}

func TestDynamicDependencies(t *testing.T) {
	useA := New(true)
	a := New("a")
	b := New("b")
	runs := 0
	pick := Derived(func(get Getter) (string, error) {
		runs++
		ok, err := Get(get, useA)
		if err != nil {
			return "", err
		}
		if ok {
			return Get(get, a)
		}
		return Get(get, b)
	})
	s := NewStore()

	if v, _ := Get(s, pick); v != "a" {
		t.Errorf("expected a, got %q", v)
	}

	// b is not a dependency yet.
	_ = Set(s, b, "B")
	_, _ = Get(s, pick)
	if runs != 1 {
		t.Errorf("expected no recompute for unread atom, got %d runs", runs)
	}

	_ = Set(s, useA, false)
	if v, _ := Get(s, pick); v != "B" {
		t.Errorf("expected B, got %q", v)
	}

	// a was dropped from the dependency set.
	_ = Set(s, a, "A")
	_, _ = Get(s, pick)
	if runs != 2 {
		t.Errorf("expected 2 runs after dropped dependency changed, got %d", runs)
	}
}

func TestCyclicDependency(t *testing.T) {
	var a, b *Atom[int]
	a = Derived(func(get Getter) (int, error) { return Get(get, b) }).WithLabel("a")
	b = Derived(func(get Getter) (int, error) { return Get(get, a) }).WithLabel("b")
	s := NewStore()

	_, err := Get(s, a)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	if !IsCycle(err) {
		t.Error("expected IsCycle to report true")
	}

	// The store stays usable.
	count := New(1)
	if v, _ := Get(s, count); v != 1 {
		t.Errorf("expected 1, got %d", v)
	}
}

func TestSelfRead(t *testing.T) {
	var self *Atom[int]
	self = Derived(func(get Getter) (int, error) {
		n, err := Get(get, self)
		return n + 1, err
	})
	s := NewStore()

	if _, err := Get(s, self); !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestComputationErrorReturnedVerbatim(t *testing.T) {
	errBoom := errors.New("boom")
	fail := New(true)
	runs := 0
	risky := Derived(func(get Getter) (int, error) {
		runs++
		f, err := Get(get, fail)
		if err != nil {
			return 0, err
		}
		if f {
			return 0, errBoom
		}
		return 42, nil
	})
	s := NewStore()

	_, err := Get(s, risky)
	if err != errBoom {
		t.Fatalf("expected errBoom verbatim, got %v", err)
	}

	// Errors are not cached.
	_, err = Get(s, risky)
	if err != errBoom {
		t.Fatalf("expected errBoom again, got %v", err)
	}
	if runs != 2 {
		t.Errorf("expected a failed computation to rerun, got %d runs", runs)
	}

	_ = Set(s, fail, false)
	v, err := Get(s, risky)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestErrorKeepsPreviousValue(t *testing.T) {
	errBoom := errors.New("boom")
	count := New(1)
	checked := Derived(func(get Getter) (int, error) {
		n, err := Get(get, count)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, errBoom
		}
		return n, nil
	})
	s := NewStore()
	l := newTestListener()
	unsub := s.Subscribe(checked, l)
	defer unsub()

	_ = Set(s, count, -1)
	if _, err := Get(s, checked); err != errBoom {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if !s.IsMounted(count) {
		t.Error("expected dependency to stay mounted after a failed recompute")
	}

	_ = Set(s, count, 3)
	if v, _ := Get(s, checked); v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
}

func TestGetterInWriteRecordsNothing(t *testing.T) {
	count := New(1)
	other := New(10)
	runs := 0
	doubled := Derived(func(get Getter) (int, error) {
		runs++
		n, err := Get(get, count)
		return n * 2, err
	})
	copyOther := WriteOnly(func(get Getter, set Setter, _ ...any) (any, error) {
		n, err := Get(get, other)
		if err != nil {
			return nil, err
		}
		return set.Set(count, n)
	})
	s := NewStore()

	_, _ = Get(s, doubled)
	if _, err := s.Set(copyOther); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := Get(s, doubled); v != 20 {
		t.Errorf("expected 20, got %d", v)
	}

	// other is not a dependency of doubled.
	_ = Set(s, other, 11)
	_, _ = Get(s, doubled)
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
}

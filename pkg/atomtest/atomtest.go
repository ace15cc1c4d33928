package atomtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/atoms/pkg/atom"
)

// DefaultTimeout bounds every wait in this package unless overridden.
var DefaultTimeout = 2 * time.Second

// Listener is an atom.Listener that counts notifications.
type Listener struct {
	l atom.Listener

	mu     sync.Mutex
	count  int
	notify chan struct{}
}

// NewListener creates a recording listener.
func NewListener() *Listener {
	rl := &Listener{notify: make(chan struct{}, 1)}
	rl.l = atom.NewListener(rl.record)
	return rl
}

func (rl *Listener) record() {
	rl.mu.Lock()
	rl.count++
	rl.mu.Unlock()
	select {
	case rl.notify <- struct{}{}:
	default:
	}
}

// MarkDirty implements atom.Listener.
func (rl *Listener) MarkDirty() {
	rl.l.MarkDirty()
}

// ID implements atom.Listener.
func (rl *Listener) ID() uint64 {
	return rl.l.ID()
}

// Count returns the number of notifications received.
func (rl *Listener) Count() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.count
}

// Reset sets the count back to zero.
func (rl *Listener) Reset() {
	rl.mu.Lock()
	rl.count = 0
	rl.mu.Unlock()
}

// Notified is signalled after each notification. Notifications received
// while nobody is waiting coalesce into one signal.
func (rl *Listener) Notified() <-chan struct{} {
	return rl.notify
}

// Subscribe subscribes a new recording listener to a and unsubscribes it
// when the test ends.
//
// Example:
//
//	l := atomtest.Subscribe(t, s, total)
func Subscribe(t testing.TB, s *atom.Store, a atom.AnyAtom) *Listener {
	t.Helper()
	l := NewListener()
	unsubscribe := s.Subscribe(a, l)
	t.Cleanup(unsubscribe)
	return l
}

// ExpectValue asserts that a currently reads as want.
//
// Example:
//
//	atomtest.ExpectValue(t, s, count, 3)
func ExpectValue[T comparable](t testing.TB, g atom.Getter, a *atom.Atom[T], want T) {
	t.Helper()
	got, err := atom.Get(g, a)
	if err != nil {
		t.Errorf("expected %s to be %v, got error: %v", a, want, err)
		return
	}
	if got != want {
		t.Errorf("expected %s to be %v, got %v", a, want, got)
	}
}

// ExpectError asserts that reading a fails with an error whose message
// contains substr.
func ExpectError[T any](t testing.TB, g atom.Getter, a *atom.Atom[T], substr string) {
	t.Helper()
	_, err := atom.Get(g, a)
	if err == nil {
		t.Errorf("expected %s to fail with %q, got no error", a, substr)
		return
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("expected %s to fail with %q, got: %v", a, substr, err)
	}
}

// AwaitValue waits up to DefaultTimeout for a to settle and returns its
// value. Any error fails the test.
//
// Example:
//
//	user := atomtest.AwaitValue(t, s, currentUser)
func AwaitValue[T any](t testing.TB, s *atom.Store, a *atom.Atom[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	v, err := atom.Await(ctx, s, a)
	if err != nil {
		t.Fatalf("awaiting %s: %v", a, err)
	}
	return v
}

// Eventually subscribes to a and waits up to DefaultTimeout until its value
// satisfies pred, re-checking after every notification. Pending reads are
// skipped; other errors fail the test.
//
// Example:
//
//	atomtest.Eventually(t, s, count, func(n int) bool { return n >= 10 })
func Eventually[T any](t testing.TB, s *atom.Store, a *atom.Atom[T], pred func(T) bool) T {
	t.Helper()
	l := NewListener()
	unsubscribe := s.Subscribe(a, l)
	defer unsubscribe()

	deadline := time.NewTimer(DefaultTimeout)
	defer deadline.Stop()

	var last T
	for {
		v, err := atom.Get(s, a)
		switch {
		case atom.IsPending(err):
		case err != nil:
			t.Fatalf("reading %s: %v", a, err)
		case pred(v):
			return v
		default:
			last = v
		}

		select {
		case <-l.Notified():
		case <-deadline.C:
			t.Fatalf("timed out waiting for %s, last value %v", a, last)
			return last
		}
	}
}

// MountRecorder records onMount and cleanup calls in order.
type MountRecorder struct {
	mu    sync.Mutex
	calls []string
}

// NewMountRecorder creates an empty recorder.
func NewMountRecorder() *MountRecorder {
	return &MountRecorder{}
}

// OnMount returns an onMount callback that logs "mount <name>" and a
// cleanup that logs "unmount <name>".
func (r *MountRecorder) OnMount(name string) atom.MountFunc {
	return func(atom.SetFunc) atom.Cleanup {
		r.add("mount " + name)
		return func() { r.add("unmount " + name) }
	}
}

func (r *MountRecorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (r *MountRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how many times call was recorded.
func (r *MountRecorder) Count(call string) int {
	n := 0
	for _, c := range r.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// Expect asserts that exactly the given calls were recorded, in order.
//
// Example:
//
//	rec.Expect(t, "mount base", "mount derived")
func (r *MountRecorder) Expect(t testing.TB, calls ...string) {
	t.Helper()
	got := r.Calls()
	if fmt.Sprint(got) != fmt.Sprint(calls) {
		t.Errorf("expected calls %v, got %v", calls, got)
	}
}

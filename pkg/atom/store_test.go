package atom

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (e *eventLog) OnEvent(ev Event) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *eventLog) kinds() []EventKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]EventKind, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Kind
	}
	return out
}

func (e *eventLog) count(kind EventKind) int {
	n := 0
	for _, k := range e.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func TestObserverEvents(t *testing.T) {
	log := &eventLog{}
	count := New(1).WithLabel("count")
	doubled := Derived(func(get Getter) (int, error) {
		n, err := Get(get, count)
		return n * 2, err
	}).WithLabel("doubled")
	s := NewStore(WithObserver(log))

	unsub := s.Subscribe(doubled, newTestListener())
	_ = Set(s, count, 2)
	_, _ = Get(s, doubled)
	unsub()

	if n := log.count(EventMount); n != 2 {
		t.Errorf("expected 2 mount events, got %d", n)
	}
	if n := log.count(EventUnmount); n != 2 {
		t.Errorf("expected 2 unmount events, got %d", n)
	}
	if n := log.count(EventRecompute); n != 2 {
		t.Errorf("expected 2 recompute events, got %d", n)
	}
	if n := log.count(EventNotify); n != 1 {
		t.Errorf("expected 1 notify event, got %d", n)
	}
	if n := log.count(EventTxEnd); n != 1 {
		t.Errorf("expected 1 tx end event, got %d", n)
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	for _, ev := range log.events {
		switch ev.Kind {
		case EventRecompute:
			if ev.Atom != "doubled" {
				t.Errorf("expected recompute of doubled, got %q", ev.Atom)
			}
			if ev.AtomID != doubled.ID() {
				t.Errorf("expected atom ID %d, got %d", doubled.ID(), ev.AtomID)
			}
		case EventTxEnd:
			if ev.Changed != 1 || ev.Listeners != 1 {
				t.Errorf("expected 1 change and 1 listener, got %d and %d", ev.Changed, ev.Listeners)
			}
		}
		if ev.Time.IsZero() {
			t.Errorf("expected %s event to carry a time", ev.Kind)
		}
	}
}

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		EventRecompute:      "recompute",
		EventAsyncStart:     "async_start",
		EventAsyncSettle:    "async_settle",
		EventAsyncSupersede: "async_supersede",
		EventMount:          "mount",
		EventUnmount:        "unmount",
		EventNotify:         "notify",
		EventTxEnd:          "tx_end",
		EventKind(0):        "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		Unmounted:  "unmounted",
		Mounting:   "mounting",
		Mounted:    "mounted",
		Unmounting: "unmounting",
		Phase(99):  "unknown",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestSnapshot(t *testing.T) {
	count := New(1).WithLabel("count")
	doubled := Derived(func(get Getter) (int, error) {
		n, err := Get(get, count)
		return n * 2, err
	}).WithLabel("doubled")
	s := NewStore()

	if len(s.Snapshot()) != 0 {
		t.Fatal("expected empty snapshot for a fresh store")
	}

	unsub := s.Subscribe(doubled, newTestListener())
	defer unsub()

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(snap))
	}
	if snap[0].Label != "count" || snap[1].Label != "doubled" {
		t.Errorf("expected [count doubled] in ID order, got [%s %s]", snap[0].Label, snap[1].Label)
	}
	if snap[0].Phase != "mounted" || snap[1].Phase != "mounted" {
		t.Errorf("expected both mounted, got %s and %s", snap[0].Phase, snap[1].Phase)
	}
	if snap[1].Subscribers != 1 {
		t.Errorf("expected 1 subscriber, got %d", snap[1].Subscribers)
	}
	if len(snap[1].Dependencies) != 1 || snap[1].Dependencies[0] != "count" {
		t.Errorf("expected doubled to depend on count, got %v", snap[1].Dependencies)
	}
	if len(snap[0].Dependents) != 1 || snap[0].Dependents[0] != "doubled" {
		t.Errorf("expected count to have dependent doubled, got %v", snap[0].Dependents)
	}
}

func TestForget(t *testing.T) {
	runs := 0
	count := New(1)
	doubled := Derived(func(get Getter) (int, error) {
		runs++
		n, err := Get(get, count)
		return n * 2, err
	})
	s := NewStore()

	_ = Set(s, count, 5)
	_, _ = Get(s, doubled)

	if s.Forget(count) {
		t.Error("expected Forget to refuse an atom with dependents")
	}
	if !s.Forget(doubled) {
		t.Error("expected Forget to drop an unmounted atom")
	}
	if s.Forget(doubled) {
		t.Error("expected second Forget to report nothing dropped")
	}

	_, _ = Get(s, doubled)
	if runs != 2 {
		t.Errorf("expected recompute after Forget, got %d runs", runs)
	}

	unsub := s.Subscribe(count, newTestListener())
	if s.Forget(count) {
		t.Error("expected Forget to refuse a mounted atom")
	}
	unsub()

	_ = s.Forget(doubled)
	if !s.Forget(count) {
		t.Error("expected Forget to drop count once nothing depends on it")
	}
	if v, _ := Get(s, count); v != 1 {
		t.Errorf("expected initial value after Forget, got %d", v)
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	count := New(1).WithLabel("count")
	s := NewStore(WithLogger(logger))

	unsub := s.Subscribe(count, newTestListener())
	unsub()

	out := buf.String()
	if !strings.Contains(out, "atom mounted") || !strings.Contains(out, "atom=count") {
		t.Errorf("expected mount to be logged, got %q", out)
	}
	if !strings.Contains(out, "atom unmounted") {
		t.Errorf("expected unmount to be logged, got %q", out)
	}
}

func TestObserverCallingStoreNests(t *testing.T) {
	count := New(1)
	var s *Store
	var reads int
	s = NewStore(WithObserver(ObserverFunc(func(ev Event) {
		if ev.Kind == EventTxEnd {
			reads++
			_, _ = s.Get(count)
		}
	})))

	if err := Set(s, count, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Set(s, count, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := Get(s, count); v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
	if reads != 2 {
		t.Errorf("expected the observer to run twice, got %d", reads)
	}
}

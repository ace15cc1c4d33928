package atom

import (
	"sync"
	"testing"
)

// testListener counts notifications.
type testListener struct {
	mu         sync.Mutex
	id         uint64
	dirtyCount int
	onDirty    func()
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirtyCount++
	fn := l.onDirty
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

func TestGetGoroutineID(t *testing.T) {
	id1 := getGoroutineID()
	id2 := getGoroutineID()
	if id1 == 0 {
		t.Fatal("expected non-zero goroutine ID")
	}
	if id1 != id2 {
		t.Errorf("expected same ID on same goroutine, got %d and %d", id1, id2)
	}

	other := make(chan uint64)
	go func() { other <- getGoroutineID() }()
	if id := <-other; id == id1 {
		t.Errorf("expected different ID on another goroutine, got %d twice", id)
	}
}

func TestStoreLockReentrant(t *testing.T) {
	s := NewStore()
	if s.held() {
		t.Error("expected lock not held before begin")
	}

	s.begin()
	s.begin()
	if !s.held() {
		t.Error("expected lock held inside nested begin")
	}
	s.end()
	if !s.held() {
		t.Error("expected lock still held after inner end")
	}
	s.end()
	if s.held() {
		t.Error("expected lock released after outer end")
	}
}

func TestHeldIsPerGoroutine(t *testing.T) {
	s := NewStore()
	s.begin()
	defer s.end()

	res := make(chan bool)
	go func() { res <- s.held() }()
	if <-res {
		t.Error("expected another goroutine not to hold the lock")
	}
}

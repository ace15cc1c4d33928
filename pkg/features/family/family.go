package family

import (
	"sync"
	"time"

	"github.com/vango-dev/atoms/pkg/atom"
	"github.com/vango-dev/atoms/pkg/features/loadable"
)

// Family creates and caches one atom per key.
type Family[K comparable, T any] struct {
	create func(K) *atom.Atom[T]

	mu      sync.Mutex
	entries map[K]*entry[T]
	order   []K

	shouldRemove func(createdAt time.Time, key K) bool
}

type entry[T any] struct {
	atom      *atom.Atom[T]
	createdAt time.Time
}

// New creates a family whose atoms are built by create.
func New[K comparable, T any](create func(K) *atom.Atom[T]) *Family[K, T] {
	return &Family[K, T]{
		create:  create,
		entries: make(map[K]*entry[T]),
	}
}

// Get returns the atom for key, creating it on first use.
func (f *Family[K, T]) Get(key K) *atom.Atom[T] {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.entries[key]; ok {
		if f.shouldRemove == nil || !f.shouldRemove(e.createdAt, key) {
			return e.atom
		}
		f.deleteLocked(key)
	}

	a := f.create(key)
	f.entries[key] = &entry[T]{atom: a, createdAt: time.Now()}
	f.order = append(f.order, key)
	return a
}

// Has reports whether an atom exists for key.
func (f *Family[K, T]) Has(key K) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

// Remove drops the atom for key from the family and forgets its state in
// each of stores, together with its loadable atom if one was created. A
// store keeps the state while the atom is mounted or has other dependents;
// the family entry is removed regardless.
func (f *Family[K, T]) Remove(key K, stores ...*atom.Store) {
	f.mu.Lock()
	e, ok := f.entries[key]
	var l *atom.Atom[loadable.Loadable[T]]
	if ok {
		l, _ = loadable.Cached(e.atom)
		f.deleteLocked(key)
	}
	f.mu.Unlock()

	if !ok {
		return
	}
	for _, s := range stores {
		if l != nil {
			s.Forget(l)
		}
		s.Forget(e.atom)
	}
}

// Keys returns the keys with an atom, in creation order.
func (f *Family[K, T]) Keys() []K {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]K(nil), f.order...)
}

// Len returns the number of atoms in the family.
func (f *Family[K, T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// SetShouldRemove installs a predicate checked on every Get of an existing
// key; when it returns true the atom is replaced by a new one. Existing
// entries for which it holds are removed immediately. A nil fn disables it.
func (f *Family[K, T]) SetShouldRemove(fn func(createdAt time.Time, key K) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.shouldRemove = fn
	if fn == nil {
		return
	}
	for _, key := range append([]K(nil), f.order...) {
		if fn(f.entries[key].createdAt, key) {
			f.deleteLocked(key)
		}
	}
}

func (f *Family[K, T]) deleteLocked(key K) {
	if e, ok := f.entries[key]; ok {
		loadable.Forget(e.atom)
	}
	delete(f.entries, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

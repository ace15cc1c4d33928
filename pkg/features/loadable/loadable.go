package loadable

import (
	"sync"

	"github.com/vango-dev/atoms/pkg/atom"
)

// State represents the current state of a loadable.
type State int

const (
	Loading State = iota // Source computation in flight
	Ready                // Data successfully loaded
	Error                // Source failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Loadable is the value of a loadable atom.
type Loadable[T any] struct {
	State State
	Data  T
	Err   error
}

// State methods

func (l Loadable[T]) IsLoading() bool {
	return l.State == Loading
}

func (l Loadable[T]) IsReady() bool {
	return l.State == Ready
}

func (l Loadable[T]) IsError() bool {
	return l.State == Error
}

// DataOr returns the data if ready, fallback otherwise.
func (l Loadable[T]) DataOr(fallback T) T {
	if l.IsReady() {
		return l.Data
	}
	return fallback
}

// cache maps a source atom ID to its loadable atom so that every call to
// Of with the same source returns the same atom.
var cache sync.Map // map[uint64]any

// Of returns the loadable atom for source. Repeated calls with the same
// source return the same atom.
func Of[T any](source *atom.Atom[T]) *atom.Atom[Loadable[T]] {
	if v, ok := cache.Load(source.ID()); ok {
		return v.(*atom.Atom[Loadable[T]])
	}

	l := atom.Derived(func(get atom.Getter) (Loadable[T], error) {
		v, err := atom.Get(get, source)
		switch {
		case atom.IsPending(err):
			return Loadable[T]{State: Loading}, nil
		case err != nil:
			return Loadable[T]{State: Error, Err: err}, nil
		}
		return Loadable[T]{State: Ready, Data: v}, nil
	}).WithLabel("loadable(" + source.String() + ")")

	actual, _ := cache.LoadOrStore(source.ID(), l)
	return actual.(*atom.Atom[Loadable[T]])
}

// Cached returns the loadable atom of source if Of has created one.
func Cached[T any](source *atom.Atom[T]) (*atom.Atom[Loadable[T]], bool) {
	v, ok := cache.Load(source.ID())
	if !ok {
		return nil, false
	}
	return v.(*atom.Atom[Loadable[T]]), true
}

// Forget drops the cached loadable atom of source.
func Forget[T any](source *atom.Atom[T]) {
	cache.Delete(source.ID())
}

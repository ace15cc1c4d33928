package provider

import (
	"context"
	"sync"

	"github.com/vango-dev/atoms/pkg/atom"
)

type storeKey struct{}

var (
	defaultOnce  sync.Once
	defaultStore *atom.Store
)

// Default returns the process-wide store used when a context carries none.
// It is created on first use.
func Default() *atom.Store {
	defaultOnce.Do(func() {
		defaultStore = atom.NewStore()
	})
	return defaultStore
}

// With returns a copy of ctx that provides s. Code reached through the
// returned context sees s instead of any store provided further up.
func With(ctx context.Context, s *atom.Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// Lookup returns the store provided by ctx, if any.
func Lookup(ctx context.Context) (*atom.Store, bool) {
	s, ok := ctx.Value(storeKey{}).(*atom.Store)
	return s, ok && s != nil
}

// Store returns the store provided by ctx, or Default.
func Store(ctx context.Context) *atom.Store {
	if s, ok := Lookup(ctx); ok {
		return s
	}
	return Default()
}

// Get reads a from the store provided by ctx.
func Get[T any](ctx context.Context, a *atom.Atom[T]) (T, error) {
	return atom.Get(Store(ctx), a)
}

// Set writes v to a in the store provided by ctx.
func Set[T any](ctx context.Context, a *atom.Atom[T], v T) error {
	return atom.Set(Store(ctx), a, v)
}

// Package provider scopes atom stores to a context.Context.
//
// Atoms hold no state; every read and write names a store. Passing the
// store down explicitly works, but request handlers and background jobs
// often already carry a context. Provide the store there instead:
//
//	ctx = provider.With(ctx, store)
//
//	// further down
//	n, err := provider.Get(ctx, count)
//
// Nested providers shadow outer ones. Without a provider, Store falls back
// to a process-wide default store.
package provider

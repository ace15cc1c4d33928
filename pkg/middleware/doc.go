// Package middleware provides production-grade observers for atom stores.
//
// This package includes:
//   - OpenTelemetry tracing of transactions and async computations
//   - Prometheus metrics for recomputation, async, mount and notification activity
//   - Structured event logging with log/slog
//
// Each observer implements atom.Observer and is installed with
// atom.WithObserver. Several may be installed on the same store.
//
// # OpenTelemetry Tracing
//
//	store := atom.NewStore(
//	    atom.WithObserver(middleware.NewTracing()),
//	)
//
// Configure with options:
//
//	middleware.NewTracing(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithEventFilter(func(ev atom.Event) bool {
//	        return ev.Kind != atom.EventTxEnd
//	    }),
//	)
//
// # Prometheus Metrics
//
//	reg := prometheus.NewRegistry()
//	store := atom.NewStore(
//	    atom.WithObserver(middleware.NewMetrics(
//	        middleware.WithRegistry(reg),
//	        middleware.WithNamespace("myapp"),
//	    )),
//	)
//
// Stores created dynamically should share one Metrics value; it is safe for
// concurrent use.
//
// # Logging
//
//	store := atom.NewStore(
//	    atom.WithObserver(middleware.Logging(logger, slog.LevelDebug)),
//	)
//
// Observers run while the store lock is held. They must be fast and must
// not call back into the store.
package middleware

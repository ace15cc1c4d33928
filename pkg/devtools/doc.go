// Package devtools serves a store's atoms over HTTP for inspection and
// remote control.
//
// Atoms are exposed by name through a Registry:
//
//	reg := devtools.NewRegistry()
//	devtools.Register(reg, "count", count)
//	devtools.Register(reg, "doubled", doubled)
//
//	srv := devtools.NewServer(store, reg, devtools.WithGatherer(promRegistry))
//	err := srv.Run(ctx, ":7070")
//
// Routes:
//
//	GET    /healthz        liveness and number of registered atoms
//	GET    /metrics        Prometheus metrics of the configured gatherer
//	GET    /snapshot       every instance in the store (atom.Store.Snapshot)
//	GET    /atoms          registered atoms with their mount phase
//	GET    /atoms/{name}   current value; 202 while pending
//	POST   /atoms/{name}   write; the JSON body is decoded into write arguments
//	DELETE /atoms/{name}   drop the atom's state if nothing holds it
//	GET    /ws/{name}      WebSocket stream of the value
//
// A WebSocket connection subscribes to its atom, keeping it mounted until
// the connection closes. Every change is pushed as a "value" Message;
// changes arriving faster than the client reads coalesce. Each text
// message received from the client is applied as a write and answered
// with a "result" or "error" Message.
package devtools

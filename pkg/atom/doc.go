// Package atom provides a reactive state store built from atoms.
//
// An atom is an immutable descriptor of a unit of state. A Store holds the
// per-store state of every atom it has seen, tracks which atoms read which
// others, recomputes derived values lazily on read and notifies subscribers
// once per transaction on write.
//
// # Core Types
//
// A primitive atom holds a value:
//
//	count := atom.New(1)
//	store := atom.NewStore()
//	v, _ := atom.Get(store, count)            // 1
//	_ = atom.Set(store, count, 2)
//	_ = atom.Update(store, count, func(n int) int { return n + 1 })
//
// A derived atom computes its value from other atoms. Dependencies are
// recorded as the read function calls the getter:
//
//	doubled := atom.Derived(func(get atom.Getter) (int, error) {
//	    n, err := atom.Get(get, count)
//	    return n * 2, err
//	})
//
// A writable derived atom also carries a write function which may set other
// atoms, including itself:
//
//	reset := atom.Writable(
//	    func(get atom.Getter) (int, error) { return atom.Get(get, count) },
//	    func(get atom.Getter, set atom.Setter, args ...any) (any, error) {
//	        return set.Set(count, 0)
//	    },
//	)
//
// An async atom runs its read function on its own goroutine. While the
// computation is in flight, reads return an error matching ErrPending:
//
//	user := atom.Async(func(ctx context.Context, get atom.Getter) (User, error) {
//	    return fetchUser(ctx)
//	})
//	u, err := atom.Await(ctx, store, user)
//
// # Mounting
//
// An atom is mounted while it has at least one subscriber or a mounted
// dependent. The onMount callback runs once per transition to mounted and
// its returned Cleanup runs once per transition back:
//
//	count.WithOnMount(func(set atom.SetFunc) atom.Cleanup {
//	    stop := feed.Listen(func(n int) { _ = set(n) })
//	    return stop
//	})
//
//	unsubscribe := store.Subscribe(count, atom.NewListener(rerender))
//	defer unsubscribe()
//
// Dependencies mount before their dependents and unmount after them.
//
// # Transactions
//
// Every store entry point runs as a transaction. Writes made inside it,
// including nested writes performed by write functions, are collected and
// each affected listener is notified exactly once after the outermost entry
// returns. Batch groups several external writes into one transaction:
//
//	store.Batch(func() {
//	    _ = atom.Set(store, first, "John")
//	    _ = atom.Set(store, last, "Doe")
//	})
//
// # Thread Safety
//
// A Store is safe for concurrent use. Graph mutation is serialised by a lock
// that is reentrant per goroutine, so read, write and onMount callbacks may
// call back into the store. Listeners run after the lock is released.
package atom

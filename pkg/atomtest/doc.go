// Package atomtest provides testing helpers for code built on atom stores.
//
// The helpers reduce the boilerplate of subscribing, waiting for async
// atoms to settle and asserting on mount order.
//
// # Quick Start
//
//	func TestTotal(t *testing.T) {
//	    s := atom.NewStore()
//	    l := atomtest.Subscribe(t, s, total)
//
//	    _ = atom.Set(s, price, 10)
//
//	    atomtest.ExpectValue(t, s, total, 20)
//	    if l.Count() != 1 {
//	        t.Errorf("expected 1 notification, got %d", l.Count())
//	    }
//	}
//
// # Async Atoms
//
// AwaitValue waits for an async atom to settle and fails the test on error
// or timeout:
//
//	user := atomtest.AwaitValue(t, s, currentUser)
//
// Eventually waits until a predicate holds, re-checking after every
// notification:
//
//	atomtest.Eventually(t, s, count, func(n int) bool { return n >= 10 })
//
// # Mount Order
//
// A MountRecorder produces onMount callbacks that log their calls:
//
//	rec := atomtest.NewMountRecorder()
//	base := atom.New(1).WithOnMount(rec.OnMount("base"))
//	...
//	rec.Expect(t, "mount base", "mount derived", "unmount derived", "unmount base")
package atomtest

package atom

import "sync/atomic"

// globalIDCounter is the source of unique IDs for atoms, listeners and
// subscriptions. IDs are never reused.
var globalIDCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

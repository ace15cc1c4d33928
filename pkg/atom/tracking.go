package atom

import "runtime"

// getGoroutineID returns the ID of the calling goroutine, parsed from the
// header of its stack trace ("goroutine <id> [running]:").
// The store uses it to make its lock reentrant so that read, write and
// onMount callbacks may call back into the store on the same goroutine.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// held reports whether the calling goroutine holds the store lock.
// Blocking while holding it would deadlock the store.
func (s *Store) held() bool {
	return s.holder.Load() == getGoroutineID()
}

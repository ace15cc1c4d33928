package atom

// Listener is notified when an atom it subscribes to is invalidated.
// A binding layer implements it to schedule a re-render.
type Listener interface {
	// MarkDirty is called at most once per transaction, after the store
	// lock has been released. It may call back into the store.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// A listener subscribed to several atoms is notified once per transaction.
	ID() uint64
}

// Cleanup is returned by an onMount callback and runs on unmount.
type Cleanup func()

// funcListener adapts a plain function to the Listener interface.
type funcListener struct {
	id uint64
	fn func()
}

// NewListener returns a Listener with a fresh ID that calls fn.
func NewListener(fn func()) Listener {
	return &funcListener{id: nextID(), fn: fn}
}

func (l *funcListener) MarkDirty() {
	if l.fn != nil {
		l.fn()
	}
}

func (l *funcListener) ID() uint64 {
	return l.id
}

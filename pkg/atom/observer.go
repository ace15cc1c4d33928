package atom

import "time"

// EventKind identifies a store event.
type EventKind uint8

const (
	EventRecompute EventKind = iota + 1
	EventAsyncStart
	EventAsyncSettle
	EventAsyncSupersede
	EventMount
	EventUnmount
	EventNotify
	EventTxEnd
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventRecompute:
		return "recompute"
	case EventAsyncStart:
		return "async_start"
	case EventAsyncSettle:
		return "async_settle"
	case EventAsyncSupersede:
		return "async_supersede"
	case EventMount:
		return "mount"
	case EventUnmount:
		return "unmount"
	case EventNotify:
		return "notify"
	case EventTxEnd:
		return "tx_end"
	default:
		return "unknown"
	}
}

// Event describes something the store did. Atom fields are empty for
// transaction-level events.
type Event struct {
	Kind EventKind
	Time time.Time

	Atom   string
	AtomID uint64
	Epoch  uint64

	// Gen is the generation stamp of an async computation.
	Gen uint64

	// Err is the error of a failed recompute or async settlement.
	Err error

	// Listeners is the number of listeners notified (EventNotify, EventTxEnd).
	Listeners int

	// Changed is the number of atoms written in the transaction (EventTxEnd).
	Changed int

	// Duration is the time the transaction held the store (EventTxEnd).
	Duration time.Duration

	inst *instance
}

// Observer receives store events. OnEvent is called with the store lock
// held and should not call back into the store; a call that does runs
// nested in the current transaction.
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(ev Event) {
	f(ev)
}

func (s *Store) emit(ev Event) {
	if len(s.observers) == 0 {
		return
	}
	ev.Time = time.Now()
	if ev.inst != nil {
		ev.Atom = ev.inst.String()
		ev.AtomID = ev.inst.def.id
		ev.Epoch = ev.inst.epoch
		ev.inst = nil
	}
	for _, o := range s.observers {
		o.OnEvent(ev)
	}
}

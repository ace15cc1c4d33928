package atom

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Store holds the state of every atom it has been asked about: cached
// values, dependency edges, mount state and subscriptions. Atom definitions
// are shared; each store keeps its own instances.
type Store struct {
	// mu serialises graph mutation. holder and depth make it reentrant
	// per goroutine; depth also marks transaction boundaries.
	mu      sync.Mutex
	holder  atomic.Uint64
	depth   int
	txStart time.Time

	instances map[*definition]*instance

	// changed collects instances whose value changed in this transaction.
	changed    []*instance
	changedSet map[*instance]struct{}

	// ctx parents every async computation; cancel is called by Close.
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	logger    *slog.Logger
	observers []Observer
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger. If unset, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithObserver adds an observer that receives store events.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithContext sets the parent context of async computations.
func WithContext(ctx context.Context) Option {
	return func(s *Store) {
		s.ctx = ctx
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		instances:  make(map[*definition]*instance),
		changedSet: make(map[*instance]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(s.ctx)
	return s
}

// Get returns the current value of a, computing it if needed. While a is
// waiting on an async computation the error matches ErrPending.
// Get implements Getter.
func (s *Store) Get(a AnyAtom) (any, error) {
	s.begin()
	defer s.end()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.read(s.instanceFor(a))
}

// Set runs the write function of a with args. It fails with ErrNotWritable
// if a has none. Set implements Setter.
func (s *Store) Set(a AnyAtom, args ...any) (any, error) {
	s.begin()
	defer s.end()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.setInstance(s.instanceFor(a), args)
}

// Batch runs fn as one transaction: listeners affected by any write made
// inside fn are notified once, after fn returns.
func (s *Store) Batch(fn func()) {
	s.begin()
	defer s.end()
	fn()
}

// Forget drops the state of a if it is unmounted and nothing depends on it.
// A later access starts from scratch. It reports whether a was dropped.
func (s *Store) Forget(a AnyAtom) bool {
	s.begin()
	defer s.end()

	inst, ok := s.instances[a.def()]
	if !ok {
		return false
	}
	return s.removeInstance(inst)
}

// Close cancels every in-flight async computation. Their results are
// discarded and every later call fails with ErrStoreClosed.
func (s *Store) Close() {
	s.begin()
	defer s.end()

	if s.closed {
		return
	}
	s.closed = true
	for _, inst := range s.instances {
		s.supersede(inst)
	}
	s.cancel()
}

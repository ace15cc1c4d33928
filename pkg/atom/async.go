package atom

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// computation is one in-flight async read. gen is the generation stamp of
// the instance when it started; deps and epochs are what it has read so far.
type computation struct {
	gen    uint64
	cancel context.CancelFunc
	marker *PendingError
	once   sync.Once

	deps   []*instance
	epochs map[*instance]uint64

	// awaiting holds the in-flight computation of each dependency that was
	// pending when last read.
	awaiting map[*instance]*computation
}

func (c *computation) track(dep *instance) {
	if _, ok := c.epochs[dep]; !ok {
		c.deps = append(c.deps, dep)
	}
	c.epochs[dep] = dep.epoch
	if dep.pending != nil {
		c.awaiting[dep] = dep.pending
	} else {
		delete(c.awaiting, dep)
	}
}

// current reports whether dep is unchanged since c read it. The settlement
// of the computation c was waiting on is not a change: the new epoch is
// taken over.
func (c *computation) current(dep *instance) bool {
	if dep.epoch == c.epochs[dep] {
		return true
	}
	w, ok := c.awaiting[dep]
	if !ok || dep.settled != w || dep.epoch != dep.settledEpoch {
		return false
	}
	c.epochs[dep] = dep.epoch
	delete(c.awaiting, dep)
	return true
}

// finish wakes everyone waiting on the pending marker.
func (c *computation) finish() {
	c.once.Do(func() {
		close(c.marker.done)
		c.cancel()
	})
}

// startAsync supersedes any in-flight computation of inst and starts a new
// one. The pending marker is returned to the caller and cached until the
// computation settles.
func (s *Store) startAsync(inst *instance) (any, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	s.supersede(inst)

	ctx, cancel := context.WithCancel(s.ctx)
	inst.gen++
	c := &computation{
		gen:      inst.gen,
		cancel:   cancel,
		marker:   &PendingError{atom: inst.String(), done: make(chan struct{})},
		epochs:   make(map[*instance]uint64),
		awaiting: make(map[*instance]*computation),
	}
	inst.pending = c
	inst.err = c.marker
	inst.evaluated = true
	inst.stale = false
	inst.epoch++
	s.emit(Event{Kind: EventAsyncStart, inst: inst, Gen: c.gen})

	g := newGetter(s, inst, c)
	go s.runAsync(ctx, inst, c, g)

	return nil, c.marker
}

func (s *Store) runAsync(ctx context.Context, inst *instance, c *computation, g *getter) {
	v, err := s.invokeAsync(ctx, inst, g)
	s.settle(inst, c, v, err)
}

func (s *Store) invokeAsync(ctx context.Context, inst *instance, g *getter) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("atom: async read of %s panicked: %v", inst, r)
			s.logger.Error("async read panicked", "atom", inst.String(), "panic", r)
		}
	}()
	return inst.def.readAsync(ctx, g)
}

// settle applies the result of c if it is still the current computation of
// inst and every dependency it read still has the epoch it saw. Otherwise
// the result is discarded without notification and inst is left stale.
func (s *Store) settle(inst *instance, c *computation, v any, err error) {
	s.begin()
	defer s.end()
	defer c.finish()

	if inst.pending != c || s.closed {
		return
	}

	// A dependency that reads inst back is a cycle, not a change.
	inst.computing = true
	defer func() { inst.computing = false }()

	for _, d := range c.deps {
		_, _ = s.read(d)
		if !c.current(d) {
			inst.pending = nil
			inst.stale = true
			s.logger.Debug("async result discarded", "atom", inst.String(), "gen", c.gen)
			s.emit(Event{Kind: EventAsyncSupersede, inst: inst, Gen: c.gen})
			return
		}
	}

	inst.pending = nil
	s.setDependencies(inst, c.deps, c.epochs)
	if err == nil {
		inst.value = v
	}
	inst.err = err
	inst.epoch++
	inst.settled = c
	inst.settledEpoch = inst.epoch
	s.markChanged(inst)
	s.emit(Event{Kind: EventAsyncSettle, inst: inst, Gen: c.gen, Err: err})
}

// supersede abandons the in-flight computation of inst, if any. Its
// eventual settlement becomes a no-op.
func (s *Store) supersede(inst *instance) {
	c := inst.pending
	if c == nil {
		return
	}
	inst.pending = nil
	c.finish()
	s.logger.Debug("async computation superseded", "atom", inst.String(), "gen", c.gen)
	s.emit(Event{Kind: EventAsyncSupersede, inst: inst, Gen: c.gen})
}

// blocker is implemented by getters that know whether waiting would
// deadlock the store.
type blocker interface {
	held() bool
}

// Await reads a, waiting while it is pending, until it settles or ctx ends.
// Called from a goroutine that holds the store lock (inside a synchronous
// read, write or onMount callback) it does not wait and returns the
// pending marker instead.
func Await[T any](ctx context.Context, g Getter, a *Atom[T]) (T, error) {
	for {
		v, err := Get(g, a)
		var pe *PendingError
		if !errors.As(err, &pe) {
			return v, err
		}
		if b, ok := g.(blocker); ok && b.held() {
			return v, err
		}

		select {
		case <-pe.Done():
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

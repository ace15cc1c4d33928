package atom

import (
	"sort"
	"time"
)

// begin enters a transaction. Nested calls on the goroutine that already
// holds the lock only increase the depth.
func (s *Store) begin() {
	gid := getGoroutineID()
	if s.holder.Load() == gid {
		s.depth++
		return
	}
	s.mu.Lock()
	s.holder.Store(gid)
	s.depth = 1
	s.txStart = time.Now()
}

// end leaves a transaction. At the outermost level it computes the
// listeners to notify, releases the lock and then notifies them.
//
// The depth stays at one while observers run, so a store call made from an
// observer nests instead of releasing the lock.
func (s *Store) end() {
	if s.depth > 1 {
		s.depth--
		return
	}

	var listeners []Listener
	for len(s.changed) > 0 {
		changed := len(s.changed)
		collected := s.collectListeners()
		listeners = append(listeners, collected...)
		s.emit(Event{
			Kind:      EventTxEnd,
			Changed:   changed,
			Listeners: len(collected),
			Duration:  time.Since(s.txStart),
		})
	}

	s.depth = 0
	s.holder.Store(0)
	s.mu.Unlock()

	for _, l := range listeners {
		l.MarkDirty()
	}
}

func (s *Store) markChanged(inst *instance) {
	if _, ok := s.changedSet[inst]; ok {
		return
	}
	s.changedSet[inst] = struct{}{}
	s.changed = append(s.changed, inst)
}

// collectListeners walks the mounted dependents of every changed instance
// and returns their listeners, deduplicated by listener ID.
func (s *Store) collectListeners() []Listener {
	if len(s.changed) == 0 {
		return nil
	}
	queue := s.changed
	s.changed = nil
	clear(s.changedSet)

	visited := make(map[*instance]struct{})
	seen := make(map[uint64]struct{})
	var out []Listener

	for len(queue) > 0 {
		inst := queue[0]
		queue = queue[1:]
		if _, ok := visited[inst]; ok {
			continue
		}
		visited[inst] = struct{}{}
		if !inst.isMounted() {
			continue
		}

		for _, sub := range inst.subs {
			id := sub.listener.ID()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, sub.listener)
		}

		dependents := make([]*instance, 0, len(inst.dependents))
		for d := range inst.dependents {
			if d.isMounted() {
				dependents = append(dependents, d)
			}
		}
		sort.Slice(dependents, func(i, j int) bool {
			return dependents[i].def.id < dependents[j].def.id
		})
		queue = append(queue, dependents...)
	}

	if len(out) > 0 {
		s.emit(Event{Kind: EventNotify, Listeners: len(out)})
	}
	return out
}

// setInstance is the external write path: the atom must have a write
// function.
func (s *Store) setInstance(inst *instance, args []any) (any, error) {
	s.begin()
	defer s.end()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if inst.def.write == nil {
		return nil, notWritableError(inst)
	}
	return s.write(inst, args)
}

// write runs the write function of inst. Reads inside it go through the
// store and record no dependencies.
func (s *Store) write(inst *instance, args []any) (any, error) {
	return inst.def.write(s, &setter{s: s, self: inst}, args...)
}

// setter is passed to write functions.
type setter struct {
	s    *Store
	self *instance
}

// Set implements Setter.
func (w *setter) Set(a AnyAtom, args ...any) (any, error) {
	w.s.begin()
	defer w.s.end()

	if w.s.closed {
		return nil, ErrStoreClosed
	}
	target := w.s.instanceFor(a)
	if target == w.self || target.def.write == nil {
		return nil, w.s.setValue(target, args)
	}
	return w.s.write(target, args)
}

// setValue replaces the value of inst directly and bumps its epoch when the
// value changed. A direct set overrides any in-flight async computation.
func (s *Store) setValue(inst *instance, args []any) error {
	prev := inst.value
	if inst.def.read != nil {
		// Updaters receive the current value of a derived atom.
		if v, err := s.read(inst); err == nil {
			prev = v
		}
	}

	v, err := inst.def.coerce(prev, args)
	if err != nil {
		return err
	}
	s.supersede(inst)

	changed := !inst.evaluated || inst.err != nil || !inst.def.equal(inst.value, v)
	inst.err = nil
	inst.evaluated = true
	inst.stale = false
	if changed {
		inst.value = v
		inst.epoch++
		s.markChanged(inst)
	}
	return nil
}

package atom

// read returns the current value of inst, recomputing it if any dependency
// changed since the last computation. The store lock must be held.
func (s *Store) read(inst *instance) (any, error) {
	if inst.computing {
		return nil, cycleError(inst)
	}
	if inst.def.primitive {
		return inst.value, nil
	}
	if s.fresh(inst) {
		if inst.err != nil {
			return nil, inst.err
		}
		return inst.value, nil
	}
	if inst.def.readAsync != nil {
		return s.startAsync(inst)
	}
	return s.recompute(inst)
}

// fresh reports whether the cached state of inst is still valid: it is not
// stale and every dependency, once made current, has the epoch recorded at
// the last computation. For an in-flight async computation the dependencies
// it has read so far are checked instead.
func (s *Store) fresh(inst *instance) bool {
	if !inst.evaluated || inst.stale {
		return false
	}

	c := inst.pending
	deps := inst.deps
	if c != nil {
		deps = c.deps
	}

	inst.computing = true
	defer func() { inst.computing = false }()

	for _, d := range deps {
		if _, err := s.read(d); err != nil && !IsPending(err) {
			// A settled cycle stays valid while the dependency still
			// reads inst back.
			if !IsCycle(err) || !IsCycle(inst.err) {
				return false
			}
		}
		if c != nil {
			if !c.current(d) {
				return false
			}
		} else if d.epoch != inst.depEpochs[d] {
			return false
		}
	}
	return true
}

// recompute runs the read function of a synchronous derived atom.
//
// On error the edges recorded during this attempt are dropped, the value
// and epoch are kept and the instance is marked stale. A pending result is
// not an error: its edges are kept so that settlement reaches this atom.
func (s *Store) recompute(inst *instance) (any, error) {
	g := newGetter(s, inst, nil)

	inst.computing = true
	v, err := func() (any, error) {
		defer func() { inst.computing = false }()
		return inst.def.read(g)
	}()
	g.close()

	pending := IsPending(err)
	if err != nil && !pending {
		inst.stale = true
		s.emit(Event{Kind: EventRecompute, inst: inst, Err: err})
		return nil, err
	}

	s.setDependencies(inst, g.deps, g.epochs)

	changed := !inst.evaluated || inst.err != err
	if !pending && (changed || !inst.def.equal(inst.value, v)) {
		// An equal result keeps the cached value.
		changed = true
		inst.value = v
	}
	inst.err = err
	inst.evaluated = true
	inst.stale = false
	if changed {
		inst.epoch++
	}
	s.emit(Event{Kind: EventRecompute, inst: inst, Err: err})

	if pending {
		return nil, err
	}
	return inst.value, nil
}

// getter is passed to read functions. It records every atom it reads as a
// dependency of the atom being computed.
type getter struct {
	s    *Store
	inst *instance

	// comp is set for async reads; edges then go to the computation.
	comp *computation

	deps   []*instance
	epochs map[*instance]uint64
	done   bool
}

func newGetter(s *Store, inst *instance, comp *computation) *getter {
	return &getter{
		s:      s,
		inst:   inst,
		comp:   comp,
		epochs: make(map[*instance]uint64),
	}
}

// Get implements Getter.
func (g *getter) Get(a AnyAtom) (any, error) {
	g.s.begin()
	defer g.s.end()

	if g.s.closed {
		return nil, ErrStoreClosed
	}

	dep := g.s.instanceFor(a)
	if dep == g.inst {
		return nil, cycleError(dep)
	}
	if g.comp != nil {
		// The async read is running: reaching its own atom again is a cycle.
		prev := g.inst.computing
		g.inst.computing = true
		defer func() { g.inst.computing = prev }()
	}
	v, err := g.s.read(dep)
	g.record(dep)
	return v, err
}

func (g *getter) record(dep *instance) {
	if g.comp != nil {
		if g.inst.pending != g.comp {
			return
		}
		g.comp.track(dep)
		g.s.addDependency(g.inst, dep)
		return
	}
	if g.done {
		return
	}
	if _, ok := g.epochs[dep]; !ok {
		g.deps = append(g.deps, dep)
	}
	g.epochs[dep] = dep.epoch
}

// close stops recording once the synchronous read function has returned.
func (g *getter) close() {
	g.done = true
}

func (g *getter) held() bool {
	return g.s.held()
}

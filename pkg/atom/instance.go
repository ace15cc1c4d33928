package atom

// instance is the per-store state of one atom definition.
type instance struct {
	def *definition

	// value is the last successfully computed or directly set value.
	value any

	// err is the cached pending marker of a derived read that depends on an
	// unsettled computation, or the settled error of an async read.
	err error

	// evaluated is false until the first computation completes.
	evaluated bool

	// stale forces the next read to recompute. It is set when a read
	// function fails or an async result is discarded.
	stale bool

	// computing is the in-progress flag used for cycle detection.
	computing bool

	// epoch increases on every value change.
	epoch uint64

	// deps are the atoms read during the last computation, in read order,
	// with the epoch each had at that time.
	deps      []*instance
	depEpochs map[*instance]uint64

	// dependents are the instances whose deps contain this one.
	dependents map[*instance]struct{}

	// gen stamps async computations; pending is the one in flight.
	gen     uint64
	pending *computation

	// settled is the last applied computation and settledEpoch the epoch
	// it produced.
	settled      *computation
	settledEpoch uint64

	phase     Phase
	subs      []subscription
	onUnmount Cleanup
}

type subscription struct {
	id       uint64
	listener Listener
}

func newInstance(d *definition) *instance {
	inst := &instance{
		def:        d,
		depEpochs:  make(map[*instance]uint64),
		dependents: make(map[*instance]struct{}),
	}
	if d.primitive {
		inst.value = d.initial
		inst.evaluated = true
	}
	return inst
}

func (i *instance) String() string {
	return i.def.String()
}

// isMounted reports whether the instance counts as mounted for reachability.
func (i *instance) isMounted() bool {
	return i.phase == Mounting || i.phase == Mounted
}

func (i *instance) hasDep(d *instance) bool {
	_, ok := i.depEpochs[d]
	return ok
}

// instanceFor returns the instance for a, creating it on first access.
func (s *Store) instanceFor(a AnyAtom) *instance {
	d := a.def()
	inst, ok := s.instances[d]
	if !ok {
		inst = newInstance(d)
		s.instances[d] = inst
	}
	return inst
}

// setDependencies replaces the dependency set of inst, keeping dependents
// symmetric. When inst is mounted, gained dependencies are mounted and
// dropped ones are unmounted if nothing else keeps them mounted.
func (s *Store) setDependencies(inst *instance, deps []*instance, epochs map[*instance]uint64) {
	old := inst.deps
	inst.deps = deps
	inst.depEpochs = epochs

	var dropped []*instance
	for _, d := range old {
		if _, ok := epochs[d]; !ok {
			delete(d.dependents, inst)
			dropped = append(dropped, d)
		}
	}
	for _, d := range deps {
		d.dependents[inst] = struct{}{}
	}

	if !inst.isMounted() {
		return
	}
	for _, d := range deps {
		s.mount(d)
	}
	for _, d := range dropped {
		s.unmountIfUnneeded(d)
	}
}

// addDependency records one more edge without dropping existing ones.
// Async reads add their dependencies this way as they happen.
func (s *Store) addDependency(inst, dep *instance) {
	if inst.hasDep(dep) {
		return
	}
	inst.deps = append(inst.deps, dep)
	inst.depEpochs[dep] = dep.epoch
	dep.dependents[inst] = struct{}{}
	if inst.isMounted() {
		s.mount(dep)
	}
}

// removeInstance drops an unmounted instance without dependents.
func (s *Store) removeInstance(inst *instance) bool {
	if inst.isMounted() || len(inst.dependents) > 0 || inst.computing {
		return false
	}
	s.supersede(inst)
	for _, d := range inst.deps {
		delete(d.dependents, inst)
	}
	delete(s.instances, inst.def)
	return true
}

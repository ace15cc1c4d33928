package atom

// Phase is the mount state of an atom within a store.
type Phase int

const (
	// Unmounted is the initial and terminal phase.
	Unmounted Phase = iota

	// Mounting covers mounting dependencies and running onMount.
	Mounting

	// Mounted means the atom has a subscriber or a mounted dependent.
	Mounted

	// Unmounting covers running the cleanup returned by onMount.
	Unmounting
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case Unmounted:
		return "unmounted"
	case Mounting:
		return "mounting"
	case Mounted:
		return "mounted"
	case Unmounting:
		return "unmounting"
	default:
		return "unknown"
	}
}

// Subscribe adds l as a subscriber of a and mounts a if it was unmounted.
// The returned function removes the subscription; calling it more than once
// has no further effect.
func (s *Store) Subscribe(a AnyAtom, l Listener) (unsubscribe func()) {
	s.begin()
	defer s.end()

	if s.closed {
		return func() {}
	}

	inst := s.instanceFor(a)
	id := nextID()
	inst.subs = append(inst.subs, subscription{id: id, listener: l})
	s.mount(inst)

	done := false
	return func() {
		s.begin()
		defer s.end()
		if done {
			return
		}
		done = true
		s.unsubscribe(inst, id)
	}
}

func (s *Store) unsubscribe(inst *instance, id uint64) {
	for i, sub := range inst.subs {
		if sub.id == id {
			inst.subs = append(inst.subs[:i], inst.subs[i+1:]...)
			break
		}
	}
	s.unmountIfUnneeded(inst)
}

// mount transitions inst to mounted. Its value is made current first so
// that its dependencies are known; they are mounted, including their
// onMount, before inst's own onMount runs.
func (s *Store) mount(inst *instance) {
	if inst.phase != Unmounted {
		return
	}
	inst.phase = Mounting

	// Errors surface to whoever reads the atom, not to the subscriber.
	_, _ = s.read(inst)
	for _, d := range inst.deps {
		s.mount(d)
	}

	if fn := inst.def.onMount; fn != nil {
		inst.onUnmount = fn(s.boundSetter(inst))
	}
	inst.phase = Mounted
	s.logger.Debug("atom mounted", "atom", inst.String())
	s.emit(Event{Kind: EventMount, inst: inst})
}

// unmountIfUnneeded unmounts inst when it has neither subscribers nor a
// mounted dependent, then does the same for its dependencies.
func (s *Store) unmountIfUnneeded(inst *instance) {
	if inst.phase != Mounted || len(inst.subs) > 0 || s.hasMountedDependent(inst) {
		return
	}
	inst.phase = Unmounting

	if c := inst.onUnmount; c != nil {
		inst.onUnmount = nil
		c()
	}
	inst.phase = Unmounted
	s.logger.Debug("atom unmounted", "atom", inst.String())
	s.emit(Event{Kind: EventUnmount, inst: inst})

	for _, d := range inst.deps {
		s.unmountIfUnneeded(d)
	}
}

func (s *Store) hasMountedDependent(inst *instance) bool {
	for d := range inst.dependents {
		if d.isMounted() {
			return true
		}
	}
	return false
}

// boundSetter returns the setter handed to onMount. It runs the atom's
// write function and may be called during onMount or at any later time.
func (s *Store) boundSetter(inst *instance) SetFunc {
	return func(args ...any) error {
		_, err := s.setInstance(inst, args)
		return err
	}
}

// Phase returns the mount phase of a in this store.
func (s *Store) Phase(a AnyAtom) Phase {
	s.begin()
	defer s.end()
	if inst, ok := s.instances[a.def()]; ok {
		return inst.phase
	}
	return Unmounted
}

// IsMounted reports whether a is mounted in this store.
func (s *Store) IsMounted(a AnyAtom) bool {
	return s.Phase(a) == Mounted
}

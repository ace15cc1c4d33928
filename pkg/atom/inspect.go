package atom

import "sort"

// InstanceInfo is a point-in-time view of one atom in a store.
type InstanceInfo struct {
	ID           uint64   `json:"id"`
	Label        string   `json:"label"`
	Epoch        uint64   `json:"epoch"`
	Phase        string   `json:"phase"`
	Subscribers  int      `json:"subscribers"`
	Pending      bool     `json:"pending"`
	Stale        bool     `json:"stale"`
	Error        string   `json:"error,omitempty"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

// Snapshot describes every instance in the store, ordered by atom ID.
// It does not compute anything.
func (s *Store) Snapshot() []InstanceInfo {
	s.begin()
	defer s.end()

	out := make([]InstanceInfo, 0, len(s.instances))
	for _, inst := range s.instances {
		info := InstanceInfo{
			ID:           inst.def.id,
			Label:        inst.String(),
			Epoch:        inst.epoch,
			Phase:        inst.phase.String(),
			Subscribers:  len(inst.subs),
			Pending:      inst.pending != nil,
			Stale:        inst.stale,
			Dependencies: make([]string, 0, len(inst.deps)),
			Dependents:   make([]string, 0, len(inst.dependents)),
		}
		if inst.err != nil && !IsPending(inst.err) {
			info.Error = inst.err.Error()
		}
		for _, d := range inst.deps {
			info.Dependencies = append(info.Dependencies, d.String())
		}
		for d := range inst.dependents {
			info.Dependents = append(info.Dependents, d.String())
		}
		sort.Strings(info.Dependents)
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

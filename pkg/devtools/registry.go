package devtools

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/atoms/pkg/atom"
)

// ErrDuplicateName is returned when a name is registered twice.
var ErrDuplicateName = errors.New("devtools: duplicate atom name")

// Decoder turns a JSON request body into the arguments of an atom write.
type Decoder func(body json.RawMessage) ([]any, error)

// Entry is a named atom exposed by the server.
type Entry struct {
	Name string
	Atom atom.AnyAtom

	// decode is nil for read-only atoms.
	decode Decoder
}

// Writable reports whether the entry accepts writes.
func (e Entry) Writable() bool {
	return e.decode != nil
}

// Args decodes body into write arguments.
func (e Entry) Args(body json.RawMessage) ([]any, error) {
	if e.decode == nil {
		return nil, fmt.Errorf("%w: %s", atom.ErrNotWritable, e.Name)
	}
	args, err := e.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atom.ErrInvalidValue, err)
	}
	return args, nil
}

// Registry maps names to atoms. Atoms have no names of their own; the
// registry decides which atoms a server exposes and under what path.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	names   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register exposes a under name. If a is writable, a request body is
// decoded as a single T and passed to its write function.
func Register[T any](r *Registry, name string, a *atom.Atom[T]) error {
	var decode Decoder
	if a.Writable() {
		decode = func(body json.RawMessage) ([]any, error) {
			var v T
			if err := json.Unmarshal(body, &v); err != nil {
				return nil, err
			}
			return []any{v}, nil
		}
	}
	return r.add(Entry{Name: name, Atom: a, decode: decode})
}

// RegisterArgs exposes a under name with a custom decoder for its write
// arguments. Use it for write functions that take something other than
// the atom's value type. A nil decoder registers a as read-only.
func RegisterArgs(r *Registry, name string, a atom.AnyAtom, decode Decoder) error {
	return r.add(Entry{Name: name, Atom: a, decode: decode})
}

func (r *Registry) add(e Entry) error {
	if e.Name == "" {
		return errors.New("devtools: empty atom name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, e.Name)
	}
	r.entries[e.Name] = e
	r.names = append(r.names, e.Name)
	return nil
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Entries returns every entry in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.entries[name])
	}
	return out
}

// Len returns the number of registered atoms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

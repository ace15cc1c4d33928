package atom

import (
	"context"
	"fmt"
	"reflect"
)

// Getter reads the current value of an atom. Inside a read function every
// call records a dependency edge from the atom being computed.
type Getter interface {
	Get(a AnyAtom) (any, error)
}

// Setter writes an atom. Inside a write function, setting the atom being
// written or an atom without a write function replaces its value directly;
// setting any other atom runs that atom's write function.
type Setter interface {
	Set(a AnyAtom, args ...any) (any, error)
}

// SetFunc is a setter bound to one atom. It runs the atom's write function.
type SetFunc func(args ...any) error

// MountFunc is called when an atom becomes mounted. The returned Cleanup,
// if any, runs when the atom is unmounted.
type MountFunc func(set SetFunc) Cleanup

// WriteFunc is the write function of a writable atom.
type WriteFunc func(get Getter, set Setter, args ...any) (any, error)

// AnyAtom is implemented by every *Atom[T].
type AnyAtom interface {
	fmt.Stringer
	def() *definition
}

// definition is the type-erased descriptor shared by all stores.
type definition struct {
	id    uint64
	label string

	read      func(get Getter) (any, error)
	readAsync func(ctx context.Context, get Getter) (any, error)
	write     WriteFunc
	onMount   MountFunc

	// primitive atoms hold their value directly; they have no read function.
	primitive bool
	initial   any

	equal  func(a, b any) bool
	coerce func(prev any, args []any) (any, error)
}

func (d *definition) String() string {
	if d.label != "" {
		return d.label
	}
	return fmt.Sprintf("atom%d", d.id)
}

// Atom is an immutable descriptor of a unit of state. Identity is the
// pointer: two atoms with identical read functions are distinct.
//
// The With* methods configure the atom and must only be called while
// defining it, before it is used by any store.
type Atom[T any] struct {
	d *definition
}

func newAtom[T any]() *Atom[T] {
	return &Atom[T]{d: &definition{
		id:     nextID(),
		equal:  defaultEquals,
		coerce: coerce[T],
	}}
}

// New creates a primitive atom holding initial. Its write accepts a T or
// an updater func(T) T.
func New[T any](initial T) *Atom[T] {
	a := newAtom[T]()
	a.d.primitive = true
	a.d.initial = initial
	a.d.write = func(_ Getter, set Setter, args ...any) (any, error) {
		return set.Set(a, args...)
	}
	return a
}

// Derived creates a read-only atom computed from other atoms.
func Derived[T any](read func(get Getter) (T, error)) *Atom[T] {
	a := newAtom[T]()
	a.d.read = erase(read)
	return a
}

// Writable creates a derived atom with a write function.
func Writable[T any](read func(get Getter) (T, error), write WriteFunc) *Atom[T] {
	a := Derived(read)
	a.d.write = write
	return a
}

// Async creates an atom whose value is produced on its own goroutine.
// ctx is cancelled when the computation is superseded or the store closes.
func Async[T any](read func(ctx context.Context, get Getter) (T, error)) *Atom[T] {
	a := newAtom[T]()
	a.d.readAsync = func(ctx context.Context, get Getter) (any, error) {
		v, err := read(ctx, get)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return a
}

// AsyncWritable creates an async atom with a write function.
func AsyncWritable[T any](read func(ctx context.Context, get Getter) (T, error), write WriteFunc) *Atom[T] {
	a := Async(read)
	a.d.write = write
	return a
}

// WriteOnly creates an action atom. Reading it yields the zero struct.
func WriteOnly(write WriteFunc) *Atom[struct{}] {
	return Writable(func(Getter) (struct{}, error) { return struct{}{}, nil }, write)
}

// WithOnMount sets the callback run when the atom becomes mounted.
func (a *Atom[T]) WithOnMount(fn MountFunc) *Atom[T] {
	a.d.onMount = fn
	return a
}

// WithEquals sets the equality used to decide whether a new value is a change.
func (a *Atom[T]) WithEquals(fn func(T, T) bool) *Atom[T] {
	if fn == nil {
		a.d.equal = defaultEquals
		return a
	}
	a.d.equal = typedEquals(fn)
	return a
}

// WithLabel sets a debug label used in errors, logs and snapshots.
func (a *Atom[T]) WithLabel(label string) *Atom[T] {
	a.d.label = label
	return a
}

// ID returns the unique identifier of this atom.
func (a *Atom[T]) ID() uint64 {
	return a.d.id
}

// Writable reports whether the atom has a write function.
func (a *Atom[T]) Writable() bool {
	return a.d.write != nil
}

func (a *Atom[T]) String() string {
	return a.d.String()
}

func (a *Atom[T]) def() *definition {
	return a.d
}

func erase[T any](read func(get Getter) (T, error)) func(get Getter) (any, error) {
	return func(get Getter) (any, error) {
		v, err := read(get)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// coerce turns direct-set arguments into a value of type T.
func coerce[T any](prev any, args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no value given", ErrInvalidValue)
	}

	switch v := args[0].(type) {
	case T:
		return v, nil
	case func(T) T:
		p, _ := prev.(T)
		return v(p), nil
	}

	if args[0] == nil {
		var zero T
		switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, nil
		}
	}
	return nil, fmt.Errorf("%w: %T is not %s", ErrInvalidValue, args[0], reflect.TypeOf((*T)(nil)).Elem())
}

// Get reads a and asserts its type. g may be a Store or the getter passed
// to a read or write function.
func Get[T any](g Getter, a *Atom[T]) (T, error) {
	v, err := g.Get(a)
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Set writes v to a through s.
func Set[T any](s Setter, a *Atom[T], v T) error {
	_, err := s.Set(a, v)
	return err
}

// Update writes fn(current) to a through s.
func Update[T any](s Setter, a *Atom[T], fn func(T) T) error {
	_, err := s.Set(a, fn)
	return err
}

package atom

import (
	"errors"
	"fmt"
)

// ErrCyclicDependency is returned when a read transitively reads the atom
// being computed. It is fatal to that computation only.
var ErrCyclicDependency = errors.New("atom: cyclic dependency")

// ErrNotWritable is returned by Store.Set for an atom without a write function.
var ErrNotWritable = errors.New("atom: not writable")

// ErrPending matches the marker returned while an async computation is in
// flight. Use errors.As with *PendingError to wait for settlement.
var ErrPending = errors.New("atom: pending")

// ErrInvalidValue is returned when a direct set receives neither a value of
// the atom's type nor an updater function.
var ErrInvalidValue = errors.New("atom: invalid value")

// ErrStoreClosed is returned by every entry point after Store.Close.
var ErrStoreClosed = errors.New("atom: store closed")

// PendingError is the marker for an unsettled async computation.
// It matches ErrPending with errors.Is.
type PendingError struct {
	atom string
	done chan struct{}
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("atom: %s is pending", e.atom)
}

// Is reports whether target is ErrPending.
func (e *PendingError) Is(target error) bool {
	return target == ErrPending
}

// Done is closed when the computation settles or is superseded.
func (e *PendingError) Done() <-chan struct{} {
	return e.done
}

// IsPending reports whether err carries the pending marker.
func IsPending(err error) bool {
	return errors.Is(err, ErrPending)
}

// IsCycle reports whether err is a cyclic dependency error.
func IsCycle(err error) bool {
	return errors.Is(err, ErrCyclicDependency)
}

func cycleError(inst *instance) error {
	return fmt.Errorf("%w: %s reads itself", ErrCyclicDependency, inst)
}

func notWritableError(inst *instance) error {
	return fmt.Errorf("%w: %s", ErrNotWritable, inst)
}

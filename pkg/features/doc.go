// Package features provides utilities built on top of the atom store.
//
// # Subsystems
//
// Each subsystem is in its own sub-package and can be imported independently:
//
//   - loadable: view any atom as Loading, Ready or Error without handling ErrPending
//   - family: one atom per key, with stable identity and removal
//   - provider: carry a store in a context.Context
//
//	import "github.com/vango-dev/atoms/pkg/features/loadable"
//	import "github.com/vango-dev/atoms/pkg/features/family"
//	import "github.com/vango-dev/atoms/pkg/features/provider"
package features

// Package family provides keyed atom families.
//
// A family creates one atom per key on first use and returns the same atom
// for that key afterwards, so per-entity state can be addressed by ID
// without declaring every atom up front.
//
// Usage:
//
//	// Define a family (one atom per todo ID)
//	var Todo = family.New(func(id string) *atom.Atom[Item] {
//	    return atom.New(Item{ID: id})
//	})
//
//	item, _ := atom.Get(store, Todo.Get("a1"))
//
// Removal:
// Atoms stay in the family until removed. Remove also drops the atom's
// state from the given stores, and its loadable.Of atom if there is one:
//
//	Todo.Remove("a1", store)
package family

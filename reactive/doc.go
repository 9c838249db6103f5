// Package reactive is the fine-grained state primitive behind go-atoms.
//
// An Atom is a cell identity: *Primitive atoms are settable, *Derived atoms
// compute their value from other atoms through a Getter and may accept
// writes through a WriteFunc. Atoms hold no values themselves; a Container
// stores one value per atom, so the same atoms can back any number of
// isolated containers.
//
// Data flow:
//
//	Set -> writeLocked -> version bump -> collectLocked -> queue -> listeners
//
// Derived atoms recompute lazily on read when the version of any dependency
// they read last time has moved. Change detection uses Equal unless a
// container is built WithEqual.
//
// Default returns the process-wide fallback container; it is created on
// first use and lives for the rest of the process.
package reactive

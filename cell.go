package atoms

import "github.com/goliatone/go-atoms/reactive"

// MakeAtom returns value unchanged when it already is an atom, so annotated
// or derived atoms keep their identity. Any other value, functions included,
// becomes the init value of a new primitive atom whose writes replace the
// whole value.
func MakeAtom(value any, opts ...reactive.AtomOption) reactive.Atom {
	if atom, ok := reactive.AsAtom(value); ok {
		return atom
	}
	return reactive.NewPrimitive(value, opts...)
}

// Writable reports whether atom accepts writes.
func Writable(atom reactive.Atom) bool {
	return reactive.IsWritable(atom)
}

package reactive

import "sync"

// SelectFunc maps an atom value to a selected output. prev is the previous
// output for the same container when hasPrev is true.
type SelectFunc func(value any, prev any, hasPrev bool) any

// Selector derives a memoized projection of an atom. A nil select function
// is the identity. When equal reports the new output equal to the previous
// one, the previous output is kept, so listeners and trackers of the selected
// atom only fire when the selection really changes.
//
// Build selectors once and reuse them; each selector caches one derived atom
// per source atom.
type Selector struct {
	fn    SelectFunc
	equal EqualFunc

	mu    sync.Mutex
	atoms map[uint64]*Derived
}

// NewSelector builds a Selector.
func NewSelector(fn SelectFunc, equal EqualFunc) *Selector {
	return &Selector{
		fn:    fn,
		equal: equal,
		atoms: make(map[uint64]*Derived),
	}
}

// Select is a shorthand for a selector without previous-output access.
func Select(fn func(value any) any, equal EqualFunc) *Selector {
	if fn == nil {
		return NewSelector(nil, equal)
	}
	return NewSelector(func(value any, _ any, _ bool) any {
		return fn(value)
	}, equal)
}

// Of returns the derived atom selecting from src. A nil selector returns src
// unchanged.
func (s *Selector) Of(src Atom) Atom {
	if s == nil || isNil(src) {
		return src
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.atoms == nil {
		s.atoms = make(map[uint64]*Derived)
	}
	if derived, ok := s.atoms[src.ID()]; ok {
		return derived
	}
	derived := NewDerived(func(get Getter) any {
		value := get.Get(src)
		prev, hasPrev := get.Previous()
		out := value
		if s.fn != nil {
			out = s.fn(value, prev, hasPrev)
		}
		if hasPrev && s.equal != nil && s.equal(prev, out) {
			return prev
		}
		return out
	}, WithLabel(src.Label()+"#select"))
	s.atoms[src.ID()] = derived
	return derived
}

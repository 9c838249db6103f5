package reactive

import (
	"fmt"
	"sync/atomic"
)

var atomSeq atomic.Uint64

// Kind identifies the atom variant.
type Kind int

const (
	// KindPrimitive is an independently settable atom.
	KindPrimitive Kind = iota + 1
	// KindDerived is computed from other atoms.
	KindDerived
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindDerived:
		return "derived"
	default:
		return "unknown"
	}
}

// Atom is a unit of reactive state. The set of implementations is closed:
// only *Primitive and *Derived satisfy it, directly or through embedding in an
// annotated wrapper type.
type Atom interface {
	ID() uint64
	Label() string
	Kind() Kind
	Tags() map[string]any
	Writable() bool

	core() (*Primitive, *Derived)
}

// Getter reads atoms while a derived atom is computed or written.
type Getter interface {
	Get(a Atom) any
	// Previous returns the value this atom last computed in the current
	// container, if any.
	Previous() (any, bool)
}

// Setter writes atoms from inside a derived atom's WriteFunc.
type Setter interface {
	Set(a Atom, args ...any) (any, error)
}

// ReadFunc computes a derived atom's value.
type ReadFunc func(get Getter) any

// WriteFunc handles writes to a derived atom.
type WriteFunc func(get Getter, set Setter, args ...any) (any, error)

// AtomOption configures atom metadata.
type AtomOption func(*base)

// WithLabel sets a debug label on the atom.
func WithLabel(label string) AtomOption {
	return func(b *base) {
		b.label = label
	}
}

// WithTags annotates the atom with arbitrary metadata. The map is copied.
func WithTags(tags map[string]any) AtomOption {
	return func(b *base) {
		if len(tags) == 0 {
			return
		}
		if b.tags == nil {
			b.tags = make(map[string]any, len(tags))
		}
		for key, value := range tags {
			b.tags[key] = value
		}
	}
}

type base struct {
	id    uint64
	label string
	tags  map[string]any
}

func newBase(opts []AtomOption) base {
	b := base{id: atomSeq.Add(1)}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b
}

func (b *base) ID() uint64 {
	return b.id
}

func (b *base) Label() string {
	if b.label != "" {
		return b.label
	}
	return fmt.Sprintf("atom%d", b.id)
}

func (b *base) Tags() map[string]any {
	if len(b.tags) == 0 {
		return nil
	}
	out := make(map[string]any, len(b.tags))
	for key, value := range b.tags {
		out[key] = value
	}
	return out
}

// Primitive is a settable atom. Writing replaces the whole value.
type Primitive struct {
	base
	init any
}

// NewPrimitive creates a primitive atom seeded with init.
func NewPrimitive(init any, opts ...AtomOption) *Primitive {
	return &Primitive{base: newBase(opts), init: init}
}

// Init returns the value containers observe before the atom is written.
func (p *Primitive) Init() any {
	return p.init
}

func (p *Primitive) Kind() Kind {
	return KindPrimitive
}

func (p *Primitive) Writable() bool {
	return true
}

func (p *Primitive) core() (*Primitive, *Derived) {
	return p, nil
}

// Derived is an atom computed from other atoms. It is read-only unless it was
// built with a WriteFunc.
type Derived struct {
	base
	read  ReadFunc
	write WriteFunc
}

// NewDerived creates a read-only derived atom.
func NewDerived(read ReadFunc, opts ...AtomOption) *Derived {
	return &Derived{base: newBase(opts), read: read}
}

// NewWritableDerived creates a derived atom that accepts writes through write.
func NewWritableDerived(read ReadFunc, write WriteFunc, opts ...AtomOption) *Derived {
	return &Derived{base: newBase(opts), read: read, write: write}
}

func (d *Derived) Kind() Kind {
	return KindDerived
}

func (d *Derived) Writable() bool {
	return d.write != nil
}

func (d *Derived) core() (*Primitive, *Derived) {
	return nil, d
}

// IsWritable reports whether a accepts writes. Nil atoms are not writable.
func IsWritable(a Atom) bool {
	if isNil(a) {
		return false
	}
	return a.Writable()
}

func isNil(a Atom) bool {
	if a == nil {
		return true
	}
	p, d := a.core()
	return p == nil && d == nil
}

// AsAtom reports whether v is a usable atom. Typed nil pointers are rejected.
func AsAtom(v any) (Atom, bool) {
	a, ok := v.(Atom)
	if !ok || isNil(a) {
		return nil, false
	}
	return a, true
}

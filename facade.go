package atoms

import (
	"context"
	"sort"

	"github.com/goliatone/go-atoms/reactive"
)

// Function shapes of the named accessors returned by Facade.Func.
type (
	// ValueFunc reads the key and tracks it. Selectors are applied in order
	// and should be reused across calls, see Facade.UseValue.
	ValueFunc func(selectors ...*reactive.Selector) any
	// GetFunc reads the key without tracking.
	GetFunc func() any
	// UseSetFunc returns the key's setter.
	UseSetFunc func() SetFunc
	// SetFunc writes the key.
	SetFunc func(args ...any) (any, error)
	// StateFunc reads and tracks the key and returns its setter.
	StateFunc func() (any, SetFunc)
	// SubscribeFunc registers cb for changes and returns the unsubscribe
	// function.
	SubscribeFunc func(cb func(value any)) (unsubscribe func())
)

// Facade is the accessor surface returned by Store.Use, bound to one
// container. It exposes the same operations three ways: named functions
// (useAgeValue), keyed methods (UseValue("age")) and atom methods
// (UseAtomValue(atom)). All three agree for the same key.
type Facade struct {
	b          binding
	named      map[string]any
	names      []string
	resolution Resolution
}

func newFacade(b binding, res Resolution) *Facade {
	tables := b.store.tables
	f := &Facade{
		b:          b,
		named:      make(map[string]any, len(b.store.bundle.keys)*len(Categories)),
		resolution: res,
	}
	for _, key := range b.store.bundle.keys {
		if fn, ok := tables.value[key]; ok {
			f.bind(CategoryValue, key, ValueFunc(func(selectors ...*reactive.Selector) any {
				return fn(b, selectors)
			}))
		}
		if fn, ok := tables.get[key]; ok {
			f.bind(CategoryGet, key, GetFunc(func() any { return fn(b) }))
		}
		if fn, ok := tables.useSet[key]; ok {
			f.bind(CategoryUseSet, key, UseSetFunc(func() SetFunc { return fn(b) }))
		}
		if fn, ok := tables.set[key]; ok {
			f.bind(CategorySet, key, SetFunc(func(args ...any) (any, error) { return fn(b, args) }))
		}
		if fn, ok := tables.state[key]; ok {
			f.bind(CategoryState, key, StateFunc(func() (any, SetFunc) { return fn(b) }))
		}
		if fn, ok := tables.subscribe[key]; ok {
			f.bind(CategorySubscribe, key, SubscribeFunc(func(cb func(any)) func() { return fn(b, cb) }))
		}
	}
	sort.Strings(f.names)
	return f
}

func (f *Facade) bind(c Category, key string, fn any) {
	name := c.Identifier(key)
	f.named[name] = fn
	f.names = append(f.names, name)
}

// Func returns the named accessor, e.g. "useAgeValue" or "setAge". Setters
// are never generated for read-only keys.
func (f *Facade) Func(name string) (any, bool) {
	fn, ok := f.named[name]
	return fn, ok
}

// Names lists every named accessor, sorted.
func (f *Facade) Names() []string {
	return append([]string(nil), f.names...)
}

// Named returns the named accessor typed as F.
//
//	useAge, ok := atoms.Named[atoms.ValueFunc](facade, "useAgeValue")
func Named[F any](f *Facade, name string) (F, bool) {
	var zero F
	if f == nil {
		return zero, false
	}
	fn, ok := f.named[name]
	if !ok {
		return zero, false
	}
	typed, ok := fn.(F)
	return typed, ok
}

// Container returns the resolved container, or nil when the facade falls
// back to the default container.
func (f *Facade) Container() *reactive.Container {
	return f.b.container
}

// Target returns the container every accessor operates on.
func (f *Facade) Target() *reactive.Container {
	return f.b.target()
}

// Resolution describes how the container was chosen.
func (f *Facade) Resolution() Resolution {
	return f.resolution
}

// Context returns the context the facade was built with.
func (f *Facade) Context() context.Context {
	return f.b.ctx
}

// Options returns the per-call options the facade was built with.
func (f *Facade) Options() UseOptions {
	return f.b.opts
}

// Keys returns the store keys in declaration order.
func (f *Facade) Keys() []string {
	return f.b.store.Keys()
}

// Snapshot reads every key without tracking.
func (f *Facade) Snapshot() map[string]any {
	out := make(map[string]any, len(f.b.store.bundle.keys))
	for _, key := range f.b.store.bundle.keys {
		out[key] = f.b.store.tables.get[key](f.b)
	}
	return out
}

// UseValue reads key and tracks it. Unknown keys read as nil.
//
// Selectors are applied in order. Build them once, outside the render path,
// and pass the same *reactive.Selector on every call: each selector owns its
// derived atom and its previous output, so a selector built per call never
// suppresses equal outputs and leaves a new atom state in the container.
func (f *Facade) UseValue(key string, selectors ...*reactive.Selector) any {
	fn, ok := f.b.store.tables.value[key]
	if !ok {
		f.unknown("useValue", key)
		return nil
	}
	return fn(f.b, selectors)
}

// Get reads key without tracking. Unknown keys read as nil.
func (f *Facade) Get(key string) any {
	fn, ok := f.b.store.tables.get[key]
	if !ok {
		f.unknown("get", key)
		return nil
	}
	return fn(f.b)
}

// UseSet returns the setter for key, or nil when key is read-only or unknown.
func (f *Facade) UseSet(key string) SetFunc {
	fn, ok := f.b.store.tables.useSet[key]
	if !ok {
		f.unknown("useSet", key)
		return nil
	}
	return fn(f.b)
}

// Set writes key. Read-only keys fail with ErrReadOnly and unknown keys with
// ErrUnknownKey, both wrapped in an AccessError.
func (f *Facade) Set(key string, args ...any) (any, error) {
	fn, ok := f.b.store.tables.set[key]
	if !ok {
		return nil, f.missing("set", key)
	}
	return fn(f.b, args)
}

// UseState reads and tracks key and returns its setter. Read-only and
// unknown keys return (nil, nil).
func (f *Facade) UseState(key string) (any, SetFunc) {
	fn, ok := f.b.store.tables.state[key]
	if !ok {
		f.unknown("useState", key)
		return nil, nil
	}
	return fn(f.b)
}

// Subscribe calls cb with the new value after every change of key. It does
// not call cb on registration. Unknown keys return a no-op unsubscribe.
func (f *Facade) Subscribe(key string, cb func(value any)) func() {
	fn, ok := f.b.store.tables.subscribe[key]
	if !ok {
		f.unknown("subscribe", key)
		return func() {}
	}
	return fn(f.b, cb)
}

// UseAtomValue reads any atom, declared by this store or not, through the
// facade's container and tracks it. Selectors follow the same reuse rule as
// UseValue.
func (f *Facade) UseAtomValue(atom reactive.Atom, selectors ...*reactive.Selector) any {
	return useAtomValue(f.b, atom, selectors)
}

// GetAtom reads atom without tracking.
func (f *Facade) GetAtom(atom reactive.Atom) any {
	return getAtom(f.b, atom)
}

// UseSetAtom returns a setter for atom, or nil when it is read-only.
func (f *Facade) UseSetAtom(atom reactive.Atom) SetFunc {
	return useSetAtom(f.b, labelOf(atom), atom)
}

// SetAtom writes atom.
func (f *Facade) SetAtom(atom reactive.Atom, args ...any) (any, error) {
	return setAtom(f.b, labelOf(atom), atom, args)
}

// UseAtomState reads and tracks atom and returns its setter.
func (f *Facade) UseAtomState(atom reactive.Atom) (any, SetFunc) {
	return useAtomState(f.b, labelOf(atom), atom)
}

// SubscribeAtom calls cb after every change of atom.
func (f *Facade) SubscribeAtom(atom reactive.Atom, cb func(value any)) func() {
	return subscribeAtom(f.b, atom, cb)
}

func (f *Facade) unknown(op, key string) {
	if _, ok := f.b.store.bundle.lookup(key); ok {
		return
	}
	f.b.store.cfg.log().Debug("atoms: unknown key", "store", f.b.store.name, "key", key, "op", op)
}

func (f *Facade) missing(op, key string) error {
	if _, ok := f.b.store.bundle.lookup(key); ok {
		return &AccessError{Store: f.b.store.name, Key: key, Op: op, Err: ErrReadOnly}
	}
	f.unknown(op, key)
	return &AccessError{Store: f.b.store.name, Key: key, Op: op, Err: ErrUnknownKey}
}

func labelOf(atom reactive.Atom) string {
	if a, ok := reactive.AsAtom(atom); ok {
		return a.Label()
	}
	return ""
}

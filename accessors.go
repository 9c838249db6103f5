package atoms

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-atoms/reactive"
)

// binding is what every generated accessor closes over: the resolved
// container (nil means the default container), the per-call options and the
// context the facade was built with.
type binding struct {
	ctx       context.Context
	store     *Store
	container *reactive.Container
	opts      UseOptions
}

func (b binding) target() *reactive.Container {
	if b.container != nil {
		return b.container
	}
	return reactive.Default()
}

func (b binding) delay() time.Duration {
	if b.opts.Delay > 0 {
		return b.opts.Delay
	}
	return b.store.cfg.delay
}

func (b binding) track(atom reactive.Atom) {
	if tracker := reactive.TrackerFrom(b.ctx); tracker != nil {
		tracker.Track(b.target(), atom, b.delay())
	}
}

// Cell level accessors. Every keyed and named accessor ends up here.

func useAtomValue(b binding, atom reactive.Atom, selectors []*reactive.Selector) any {
	selected := atom
	for _, sel := range selectors {
		if sel != nil {
			selected = sel.Of(selected)
		}
	}
	b.track(selected)
	return b.target().Get(selected)
}

func getAtom(b binding, atom reactive.Atom) any {
	return b.target().Get(atom)
}

func useSetAtom(b binding, key string, atom reactive.Atom) SetFunc {
	if !Writable(atom) {
		return nil
	}
	c := b.target()
	return func(args ...any) (any, error) {
		return b.write(c, key, atom, args)
	}
}

func setAtom(b binding, key string, atom reactive.Atom, args []any) (any, error) {
	return b.write(b.target(), key, atom, args)
}

func useAtomState(b binding, key string, atom reactive.Atom) (any, SetFunc) {
	b.track(atom)
	return b.target().Get(atom), useSetAtom(b, key, atom)
}

func subscribeAtom(b binding, atom reactive.Atom, cb func(any)) func() {
	if cb == nil {
		return func() {}
	}
	return b.target().Sub(atom, reactive.Listener(cb))
}

func (b binding) write(c *reactive.Container, key string, atom reactive.Atom, args []any) (any, error) {
	emit := b.store.emitter.Enabled()
	var old any
	if emit {
		old = c.Get(atom)
	}
	result, err := c.Set(atom, args...)
	if err != nil {
		if errors.Is(err, reactive.ErrNotWritable) {
			err = errors.Join(ErrReadOnly, err)
		}
		return result, &AccessError{Store: b.store.name, Key: key, Op: "set", Err: err}
	}
	if emit {
		if value := c.Get(atom); !reactive.Equal(old, value) {
			b.store.emitSet(b.ctx, c, b.opts.Scope, key, old, value)
		}
	}
	return result, nil
}

// accessorTables are the six per-key function maps built once per store.
// Read-only keys are absent from useSet, set and state.
type accessorTables struct {
	value     map[string]func(b binding, selectors []*reactive.Selector) any
	get       map[string]func(b binding) any
	useSet    map[string]func(b binding) SetFunc
	set       map[string]func(b binding, args []any) (any, error)
	state     map[string]func(b binding) (any, SetFunc)
	subscribe map[string]func(b binding, cb func(any)) func()
}

func buildTables(bd *bundle) accessorTables {
	t := accessorTables{
		value:     make(map[string]func(binding, []*reactive.Selector) any, len(bd.keys)),
		get:       make(map[string]func(binding) any, len(bd.keys)),
		useSet:    make(map[string]func(binding) SetFunc),
		set:       make(map[string]func(binding, []any) (any, error)),
		state:     make(map[string]func(binding) (any, SetFunc)),
		subscribe: make(map[string]func(binding, func(any)) func(), len(bd.keys)),
	}
	for _, key := range bd.keys {
		key, atom := key, bd.atoms[key]
		t.value[key] = func(b binding, selectors []*reactive.Selector) any {
			return useAtomValue(b, atom, selectors)
		}
		t.get[key] = func(b binding) any {
			return getAtom(b, atom)
		}
		t.subscribe[key] = func(b binding, cb func(any)) func() {
			return subscribeAtom(b, atom, cb)
		}
		if !bd.writable[key] {
			continue
		}
		t.useSet[key] = func(b binding) SetFunc {
			return useSetAtom(b, key, atom)
		}
		t.set[key] = func(b binding, args []any) (any, error) {
			return setAtom(b, key, atom, args)
		}
		t.state[key] = func(b binding) (any, SetFunc) {
			return useAtomState(b, key, atom)
		}
	}
	return t
}

func (t accessorTables) has(c Category, key string) bool {
	var ok bool
	switch c {
	case CategoryValue:
		_, ok = t.value[key]
	case CategoryGet:
		_, ok = t.get[key]
	case CategoryUseSet:
		_, ok = t.useSet[key]
	case CategorySet:
		_, ok = t.set[key]
	case CategoryState:
		_, ok = t.state[key]
	case CategorySubscribe:
		_, ok = t.subscribe[key]
	}
	return ok
}

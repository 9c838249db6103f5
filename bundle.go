package atoms

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-atoms/internal/hydrate"
	"github.com/goliatone/go-atoms/reactive"
)

// bundle is the fixed key set of a store. Writability and extension origin
// are decided once, when the bundle is built.
type bundle struct {
	keys     []string
	atoms    map[string]reactive.Atom
	writable map[string]bool
	extended map[string]bool
}

func newBundle(name string, initial any) (*bundle, error) {
	fields, err := hydrate.Fields(initial)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitial, err)
	}
	b := &bundle{
		keys:     make([]string, 0, len(fields)),
		atoms:    make(map[string]reactive.Atom, len(fields)),
		writable: make(map[string]bool, len(fields)),
		extended: make(map[string]bool),
	}
	for _, field := range fields {
		atom := MakeAtom(field.Value, reactive.WithLabel(atomLabel(name, field.Key)))
		b.keys = append(b.keys, field.Key)
		b.atoms[field.Key] = atom
		b.writable[field.Key] = Writable(atom)
	}
	return b, nil
}

// extend merges extension atoms. New keys are appended in sorted order;
// collisions follow policy.
func (b *bundle) extend(extra Atoms, policy CollisionPolicy) error {
	keys := extra.Keys()
	for _, key := range keys {
		if _, ok := reactive.AsAtom(extra[key]); !ok {
			return fmt.Errorf("atoms: extension key %q is not an atom", key)
		}
		if _, exists := b.atoms[key]; exists && !b.extended[key] && policy == CollisionReject {
			return fmt.Errorf("%w: %q", ErrExtendCollision, key)
		}
	}
	for _, key := range keys {
		if _, exists := b.atoms[key]; !exists {
			b.keys = append(b.keys, key)
		}
		b.atoms[key] = extra[key]
		b.writable[key] = Writable(extra[key])
		b.extended[key] = true
	}
	return nil
}

// checkIdentifiers rejects key sets where two keys generate the same
// accessor name in any category.
func (b *bundle) checkIdentifiers() error {
	owners := make(map[string]string, len(b.keys)*len(Categories))
	for _, key := range b.keys {
		for _, c := range Categories {
			if c.WritableOnly() && !b.writable[key] {
				continue
			}
			name := c.Identifier(key)
			if owner, ok := owners[name]; ok && owner != key {
				return fmt.Errorf("%w: %q and %q both generate %s", ErrAccessorCollision, owner, key, name)
			}
			owners[name] = key
		}
	}
	return nil
}

func (b *bundle) base() Atoms {
	out := make(Atoms, len(b.atoms))
	for key, atom := range b.atoms {
		if !b.extended[key] {
			out[key] = atom
		}
	}
	return out
}

func (b *bundle) lookup(key string) (reactive.Atom, bool) {
	atom, ok := b.atoms[key]
	return atom, ok
}

// hydratable reports whether providers may seed key: writable base keys only.
func (b *bundle) hydratable(key string) bool {
	_, ok := b.atoms[key]
	return ok && b.writable[key] && !b.extended[key]
}

// entries turns values into hydration entries in key order, returning the
// keys that were skipped.
func (b *bundle) entries(values map[string]any) ([]reactive.Entry, []string) {
	var (
		entries []reactive.Entry
		skipped []string
	)
	for _, key := range b.keys {
		value, ok := values[key]
		if !ok {
			continue
		}
		if !b.hydratable(key) {
			skipped = append(skipped, key)
			continue
		}
		entries = append(entries, reactive.Entry{Atom: b.atoms[key], Value: value})
	}
	for key := range values {
		if _, ok := b.atoms[key]; !ok {
			skipped = append(skipped, key)
		}
	}
	sort.Strings(skipped)
	return entries, skipped
}

func atomLabel(store, key string) string {
	if store == "" {
		return key
	}
	return store + "." + key
}

// Extension is handed to an ExtendFunc. It exposes the base atoms and builds
// computed atoms with the store's evaluator configuration.
type Extension struct {
	store string
	base  Atoms
	cfg   storeConfig
}

// Atoms returns a copy of the base atoms.
func (x *Extension) Atoms() Atoms {
	return copyAtoms(x.base)
}

// Atom returns the base atom for key.
func (x *Extension) Atom(key string) (reactive.Atom, bool) {
	atom, ok := x.base[key]
	return atom, ok
}

// Computed builds a computed atom over the named base keys. Every dependency
// is bound under its key.
func (x *Extension) Computed(key, expression string, deps ...string) (reactive.Atom, error) {
	bound := make(Atoms, len(deps))
	for _, dep := range deps {
		atom, ok := x.base[dep]
		if !ok {
			return nil, fmt.Errorf("%w: computed %q depends on %q", ErrUnknownKey, key, dep)
		}
		bound[dep] = atom
	}
	cfg := x.cfg
	cfg.computed = append(append([]ComputedOption(nil), cfg.computed...), ComputedKey(atomLabel(x.store, key)))
	return newComputed(cfg, expression, bound)
}

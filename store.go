package atoms

import (
	"context"
	"fmt"

	"github.com/goliatone/go-atoms/pkg/activity"
	"github.com/goliatone/go-atoms/reactive"
)

// Store is a defined atom store: a fixed set of keyed atoms, the accessor
// tables generated for them and the provider that seeds containers.
type Store struct {
	name     string
	cfg      storeConfig
	bundle   *bundle
	tables   accessorTables
	provider *Provider
	emitter  *activity.Emitter
}

// Meta is the atom record of a store.
type Meta struct {
	Atom map[string]reactive.Atom `json:"-"`
	Name string                   `json:"name"`
}

// Define builds a store from initial, a string keyed map or a struct. Every
// value that already is an atom is kept as is; any other value becomes a
// primitive atom seeded with it. The optional extension runs afterwards and
// its keys are appended.
func Define(initial any, opts ...Option) (*Store, error) {
	cfg := applyOptions(opts)
	if err := cfg.err(); err != nil {
		return nil, err
	}

	bd, err := newBundle(cfg.name, initial)
	if err != nil {
		return nil, err
	}
	if cfg.extend != nil {
		x := &Extension{store: cfg.name, base: bd.base(), cfg: cfg}
		extra, err := cfg.extend(x)
		if err != nil {
			return nil, fmt.Errorf("atoms: extend %s: %w", IdentifiersFor(cfg.name).Meta, err)
		}
		if err := bd.extend(extra, cfg.collision); err != nil {
			return nil, err
		}
	}
	if err := bd.checkIdentifiers(); err != nil {
		return nil, err
	}

	s := &Store{
		name:   cfg.name,
		cfg:    cfg,
		bundle: bd,
		tables: buildTables(bd),
		emitter: activity.NewEmitter(cfg.hooks, activity.Config{
			Enabled: true,
			Channel: cfg.channel,
		}),
	}
	s.provider = &Provider{store: s}
	return s, nil
}

// MustDefine is Define that panics on error.
func MustDefine(initial any, opts ...Option) *Store {
	s, err := Define(initial, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Keys returns the store keys: base keys in declaration order followed by
// extension keys.
func (s *Store) Keys() []string {
	return append([]string(nil), s.bundle.keys...)
}

// Meta returns the store's atoms keyed by name.
func (s *Store) Meta() Meta {
	out := make(map[string]reactive.Atom, len(s.bundle.atoms))
	for key, atom := range s.bundle.atoms {
		out[key] = atom
	}
	return Meta{Atom: out, Name: s.name}
}

// Atom returns the atom declared for key.
func (s *Store) Atom(key string) (reactive.Atom, bool) {
	return s.bundle.lookup(key)
}

// Writable reports whether key has setters.
func (s *Store) Writable(key string) bool {
	return s.bundle.writable[key]
}

// Extended reports whether key was contributed by the extension.
func (s *Store) Extended(key string) bool {
	return s.bundle.extended[key]
}

// Identifiers returns the export names derived from the store name.
func (s *Store) Identifiers() Identifiers {
	return IdentifiersFor(s.name)
}

// Provider returns the store's provider.
func (s *Store) Provider() *Provider {
	return s.provider
}

// Use builds a facade over the container resolved from ctx and opts.
func (s *Store) Use(ctx context.Context, opts ...UseOption) *Facade {
	if ctx == nil {
		ctx = context.Background()
	}
	o := resolveUseOptions(opts)
	c, res := resolveContainer(ctx, s.name, o, s.cfg.log())
	return newFacade(binding{ctx: ctx, store: s, container: c, opts: o}, res)
}

// Exports maps the generated export identifiers to the provider, the Meta
// record and the Use method.
func (s *Store) Exports() map[string]any {
	ids := s.Identifiers()
	return map[string]any{
		ids.Provider: s.provider,
		ids.Meta:     s.Meta(),
		ids.Hook:     s.Use,
	}
}

func (s *Store) String() string {
	return fmt.Sprintf("store(%s)", s.Identifiers().Meta)
}

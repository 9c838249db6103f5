package atoms

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-atoms/pkg/registry"
	"github.com/goliatone/go-atoms/reactive"
)

// ProviderProps configures a single provider mount.
type ProviderProps struct {
	// Scope tags the mount so Use(WithScope(...)) can skip nearer providers.
	Scope string
	// InitialValues seed writable base keys.
	InitialValues map[string]any
	// Values seed writable base keys and override InitialValues. Later
	// changes are pushed with Mounted.Sync.
	Values map[string]any
	// Store adopts an existing container instead of creating one. Adopted
	// containers are not disposed on unmount.
	Store *reactive.Container
}

// Provider seeds containers for a store and registers them on a context.
type Provider struct {
	store *Store
}

// Store returns the store the provider belongs to.
func (p *Provider) Store() *Store {
	return p.store
}

// Mount creates (or adopts) a container, hydrates it from props, registers
// it on ctx under the store name and props.Scope and runs the store effect.
// Use the returned Mounted's Context for descendants.
func (p *Provider) Mount(ctx context.Context, props ProviderProps) (*Mounted, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := p.store
	label := containerLabel(s.name, props.Scope)

	c, owned := props.Store, false
	if c == nil {
		c = reactive.NewContainer(reactive.WithContainerLabel(label))
		owned = true
	}
	if c.Disposed() {
		return nil, fmt.Errorf("atoms: mount %s: %w", label, reactive.ErrDisposed)
	}

	values := mergeValues(props.InitialValues, props.Values)
	if err := p.hydrate(c, values); err != nil {
		if owned {
			c.Dispose()
		}
		return nil, fmt.Errorf("atoms: mount %s: %w", label, err)
	}

	m := &Mounted{
		provider: p,
		ctx:      registry.Register(ctx, s.name, props.Scope, c),
		parent:   ctx,
		c:        c,
		scope:    props.Scope,
		owned:    owned,
		last:     copyMap(props.Values),
	}
	s.emitMounted(m.ctx, c, props.Scope, owned)

	if s.cfg.effect != nil {
		f := s.Use(m.ctx, UseOptions{Scope: props.Scope, Store: c})
		m.cleanup = s.cfg.effect(m.ctx, f)
	}
	return m, nil
}

func (p *Provider) hydrate(c *reactive.Container, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	entries, skipped := p.store.bundle.entries(values)
	if len(skipped) > 0 {
		p.store.cfg.log().Debug("atoms: ignored hydration keys",
			"store", p.store.name,
			"container", c.Label(),
			"keys", skipped,
		)
	}
	if len(entries) == 0 {
		return nil
	}
	return c.Hydrate(entries...)
}

// Mounted is a live provider mount.
type Mounted struct {
	provider *Provider
	ctx      context.Context
	parent   context.Context
	c        *reactive.Container
	scope    string
	owned    bool

	mu        sync.Mutex
	last      map[string]any
	cleanup   func()
	unmounted bool
}

// Context returns the context carrying this mount's registration.
func (m *Mounted) Context() context.Context {
	return m.ctx
}

// Container returns the mounted container.
func (m *Mounted) Container() *reactive.Container {
	return m.c
}

// Scope returns the scope the mount was registered under.
func (m *Mounted) Scope() string {
	return m.scope
}

// Use is shorthand for Store.Use on the mounted context.
func (m *Mounted) Use(opts ...UseOption) *Facade {
	return m.provider.store.Use(m.ctx, opts...)
}

// Sync pushes values that differ from the previously synced values into the
// container, the way re-rendering a provider with new props would. Keys
// that did not change are left alone, so local writes survive.
//
// The mount lock is released before the container is written, so listeners
// and activity hooks may call Sync or Unmount on the same mount.
func (m *Mounted) Sync(values map[string]any) error {
	changed, err := m.diff(values)
	if err != nil || len(changed) == 0 {
		return err
	}

	s := m.provider.store
	emit := s.emitter.Enabled()
	var old map[string]any
	if emit {
		old = make(map[string]any, len(changed))
		for key := range changed {
			if atom, ok := s.bundle.lookup(key); ok {
				old[key] = m.c.Get(atom)
			}
		}
	}
	if err := m.provider.hydrate(m.c, changed); err != nil {
		return fmt.Errorf("atoms: sync %s: %w", containerLabel(s.name, m.scope), err)
	}
	if !emit {
		return nil
	}
	for _, key := range s.bundle.keys {
		if _, ok := changed[key]; !ok || !s.bundle.hydratable(key) {
			continue
		}
		if current := m.c.Get(s.bundle.atoms[key]); !reactive.Equal(old[key], current) {
			s.emitSet(m.ctx, m.c, m.scope, key, old[key], current)
		}
	}
	return nil
}

// diff records values as the last synced props and returns the ones that
// changed.
func (m *Mounted) diff(values map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmounted {
		return nil, ErrUnmounted
	}
	changed := make(map[string]any, len(values))
	for key, value := range values {
		if prev, ok := m.last[key]; ok && reactive.Equal(prev, value) {
			continue
		}
		changed[key] = value
	}
	if len(changed) == 0 {
		return nil, nil
	}
	if m.last == nil {
		m.last = make(map[string]any, len(changed))
	}
	for key, value := range changed {
		m.last[key] = value
	}
	return changed, nil
}

// Unmount runs the effect cleanup and disposes the container when the
// provider created it. Calling it again is a no-op.
func (m *Mounted) Unmount() {
	m.mu.Lock()
	if m.unmounted {
		m.mu.Unlock()
		return
	}
	m.unmounted = true
	cleanup := m.cleanup
	m.cleanup = nil
	m.mu.Unlock()

	if cleanup != nil {
		cleanup()
	}
	if m.owned {
		m.c.Dispose()
	}
	m.provider.store.emitUnmounted(m.parent, m.c, m.scope)
}

func containerLabel(name, scope string) string {
	label := IdentifiersFor(name).Meta
	if scope != "" {
		label += "@" + scope
	}
	return label
}

func mergeValues(initial, values map[string]any) map[string]any {
	if len(initial) == 0 && len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(initial)+len(values))
	for key, value := range initial {
		out[key] = value
	}
	for key, value := range values {
		out[key] = value
	}
	return out
}

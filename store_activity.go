package atoms

import (
	"context"
	"strings"

	"github.com/goliatone/go-atoms/pkg/activity"
	"github.com/goliatone/go-atoms/reactive"
)

// WithActivityHooks emits store activity (writes and provider lifecycle) to
// hooks. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Clone()
	return func(cfg *storeConfig) {
		cfg.hooks = normalized
	}
}

// WithActivityChannel overrides activity.DefaultChannel for the store's
// events.
func WithActivityChannel(channel string) Option {
	channel = strings.TrimSpace(channel)
	return func(cfg *storeConfig) {
		cfg.channel = channel
	}
}

// ActivityHooks returns a copy of the hooks configured on the store.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return s.cfg.hooks.Clone()
}

func (s *Store) emitSet(ctx context.Context, c *reactive.Container, scope, key string, old, value any) {
	s.emit(ctx, activity.BuildAtomSetEvent(activity.AtomEventInput{
		Store:       s.name,
		Key:         key,
		Scope:       scope,
		ContainerID: c.ID(),
		OldValue:    old,
		NewValue:    value,
	}))
}

func (s *Store) emitMounted(ctx context.Context, c *reactive.Container, scope string, owned bool) {
	s.emit(ctx, activity.BuildProviderMountedEvent(activity.AtomEventInput{
		Store:       s.name,
		Scope:       scope,
		ContainerID: c.ID(),
		Metadata:    map[string]any{"owned": owned},
	}))
}

func (s *Store) emitUnmounted(ctx context.Context, c *reactive.Container, scope string) {
	s.emit(ctx, activity.BuildProviderUnmountedEvent(activity.AtomEventInput{
		Store:       s.name,
		Scope:       scope,
		ContainerID: c.ID(),
	}))
}

func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.cfg.log().Warn("atoms: activity hook failed",
			"store", s.name,
			"verb", event.Verb,
			"error", err,
		)
	}
}

package atoms

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-atoms/pkg/activity"
	"github.com/goliatone/go-atoms/reactive"
)

func ageStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithName("user"), WithLogger(quietLogger())}, opts...)
	return MustDefine(map[string]any{"age": 0}, opts...)
}

func mountAge(t *testing.T, store *Store, ctx context.Context, scope string, age int) *Mounted {
	t.Helper()
	return mustMount(t, store, ctx, ProviderProps{Scope: scope, Values: map[string]any{"age": age}})
}

func TestNestedScopeFallsBackToNearestProvider(t *testing.T) {
	store := ageStore(t)
	scope1 := mountAge(t, store, context.Background(), "scope1", 1)
	scope2 := mountAge(t, store, scope1.Context(), "scope2", 2)

	f := store.Use(scope2.Context(), WithScope("scope3"))
	if got := f.UseValue("age"); got != 2 {
		t.Fatalf("expected age 2, got %v", got)
	}
	res := f.Resolution()
	if res.Source != SourceName || res.Depth != 0 || len(res.Candidates) != 2 {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if f.Container() != scope2.Container() {
		t.Fatalf("expected scope2 container")
	}
}

func TestNestedScopeComplexTree(t *testing.T) {
	store := ageStore(t)
	s1 := mountAge(t, store, context.Background(), "scope1", 1)
	s2 := mountAge(t, store, s1.Context(), "scope2", 2)
	s3 := mountAge(t, store, s2.Context(), "scope3", 3)
	s4 := mountAge(t, store, s3.Context(), "scope2", 4)
	mountAge(t, store, s4.Context(), "scope2", 5)
	s6 := mountAge(t, store, s4.Context(), "scope1", 6)
	mountAge(t, store, s4.Context(), "scope2", 7)

	f := store.Use(s6.Context(), ScopeTag("scope2"))
	if got := f.Get("age"); got != 4 {
		t.Fatalf("expected age 4, got %v", got)
	}
	res := f.Resolution()
	if res.Source != SourceScope || res.Depth != 1 {
		t.Fatalf("unexpected resolution %+v", res)
	}
	selected := 0
	for _, c := range res.Candidates {
		if c.Selected {
			selected++
			if c.Scope != "scope2" || c.Depth != 1 {
				t.Fatalf("unexpected selected candidate %+v", c)
			}
		}
	}
	if selected != 1 || len(res.Candidates) != 5 {
		t.Fatalf("expected five candidates with one selected, got %+v", res.Candidates)
	}

	if got := store.Use(s6.Context()).Get("age"); got != 6 {
		t.Fatalf("unscoped use should pick the nearest provider, got %v", got)
	}
}

func TestExplicitStoreWins(t *testing.T) {
	store := ageStore(t)
	outer := mountAge(t, store, context.Background(), "scope1", 1)
	explicit := reactive.NewContainer(reactive.WithContainerLabel("explicit"))

	f := store.Use(outer.Context(), WithScope("scope1"), WithStore(explicit))
	if _, err := f.Set("age", 9); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := store.Use(outer.Context()).Get("age"); got != 1 {
		t.Fatalf("provider container must not change, got %v", got)
	}
	if f.Resolution().Source != SourceExplicit || f.Resolution().Container != "explicit" {
		t.Fatalf("unexpected resolution %+v", f.Resolution())
	}
}

func TestMissingProviderWarnsAndUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	store := MustDefine(map[string]any{"count": 0}, WithName("orphan"), WithLogger(logger))

	f := store.Use(context.Background())
	if f.Container() != nil || f.Target() != reactive.Default() {
		t.Fatalf("expected default container fallback")
	}
	if f.Resolution().Source != SourceDefault {
		t.Fatalf("unexpected resolution %+v", f.Resolution())
	}
	if !strings.Contains(buf.String(), "no provider found") || !strings.Contains(buf.String(), "OrphanProvider") {
		t.Fatalf("expected warning naming the provider, got %q", buf.String())
	}

	buf.Reset()
	store.Use(context.Background(), WarnIfNoStore(false))
	store.Use(context.Background(), UseOptions{SkipStoreWarning: true})
	if buf.Len() != 0 {
		t.Fatalf("warning should be suppressed, got %q", buf.String())
	}
}

func TestDefaultContainerIsShared(t *testing.T) {
	store := MustDefine(map[string]any{"hits": 0}, WithLogger(quietLogger()))
	first := store.Use(context.Background())
	second := store.Use(context.Background())
	if _, err := first.Set("hits", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := second.Get("hits"); got != 1 {
		t.Fatalf("default container must be shared, got %v", got)
	}
}

func TestProviderAdoptsStoreProp(t *testing.T) {
	store := ageStore(t)
	shared := reactive.NewContainer()
	m := mustMount(t, store, context.Background(), ProviderProps{Store: shared, Values: map[string]any{"age": 3}})

	if m.Container() != shared {
		t.Fatalf("expected adopted container")
	}
	m.Unmount()
	if shared.Disposed() {
		t.Fatalf("adopted containers must survive unmount")
	}

	owned := mustMount(t, store, context.Background(), ProviderProps{})
	owned.Unmount()
	if !owned.Container().Disposed() {
		t.Fatalf("owned containers are disposed on unmount")
	}

	if _, err := store.Provider().Mount(context.Background(), ProviderProps{Store: owned.Container()}); !errors.Is(err, reactive.ErrDisposed) {
		t.Fatalf("expected ErrDisposed for disposed store prop, got %v", err)
	}
}

func TestEffectRunsOncePerMount(t *testing.T) {
	var (
		runs     int
		cleanups int
		seen     any
	)
	store := ageStore(t, WithEffect(func(ctx context.Context, f *Facade) func() {
		runs++
		seen = f.Get("age")
		if _, err := f.Set("age", 50); err != nil {
			t.Errorf("effect set: %v", err)
		}
		return func() { cleanups++ }
	}))

	m := mustMount(t, store, context.Background(), ProviderProps{Scope: "s", Values: map[string]any{"age": 5}})
	if runs != 1 || seen != 5 {
		t.Fatalf("expected one run observing age 5, runs=%d seen=%v", runs, seen)
	}
	if got := m.Use().Get("age"); got != 50 {
		t.Fatalf("effect writes should land in the mounted container, got %v", got)
	}
	if err := m.Sync(map[string]any{"age": 6}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if runs != 1 {
		t.Fatalf("sync must not rerun the effect")
	}

	m.Unmount()
	m.Unmount()
	if cleanups != 1 {
		t.Fatalf("expected one cleanup, got %d", cleanups)
	}
}

func TestMountedSyncPushesChangedValues(t *testing.T) {
	store := MustDefine(map[string]any{"a": 0, "b": 0}, WithName("pair"), WithLogger(quietLogger()))
	m := mustMount(t, store, context.Background(), ProviderProps{Values: map[string]any{"a": 1, "b": 1}})
	f := m.Use()

	if _, err := f.Set("b", 9); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Sync(map[string]any{"a": 2, "b": 1}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if f.Get("a") != 2 {
		t.Fatalf("changed values must be pushed, got %v", f.Get("a"))
	}
	if f.Get("b") != 9 {
		t.Fatalf("unchanged values must not clobber local writes, got %v", f.Get("b"))
	}

	m.Unmount()
	if err := m.Sync(map[string]any{"a": 3}); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("expected ErrUnmounted, got %v", err)
	}
}

func TestMountedSyncFromSubscriber(t *testing.T) {
	hook := &activity.CaptureHook{}
	store := MustDefine(map[string]any{"a": 0, "b": 0},
		WithName("pair"),
		WithLogger(quietLogger()),
		WithActivityHooks(activity.Hooks{hook}),
	)
	m := mustMount(t, store, context.Background(), ProviderProps{Values: map[string]any{"a": 1, "b": 1}})
	f := m.Use()

	var innerErr error
	unsubscribe := f.Subscribe("a", func(any) {
		innerErr = m.Sync(map[string]any{"b": 5})
		m.Unmount()
	})
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		done <- m.Sync(map[string]any{"a": 2})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("outer sync: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sync re-entered from a subscriber did not return")
	}

	if innerErr != nil {
		t.Fatalf("inner sync: %v", innerErr)
	}
	if got := m.Container().Get(store.bundle.atoms["b"]); got != 5 {
		t.Fatalf("expected inner sync to write b=5, got %v", got)
	}
	if !m.Container().Disposed() {
		t.Fatalf("expected unmount from the subscriber to dispose the container")
	}
	if err := m.Sync(map[string]any{"a": 3}); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("expected ErrUnmounted, got %v", err)
	}
}

func TestResolutionJSONRoundTrip(t *testing.T) {
	store := ageStore(t)
	outer := mountAge(t, store, context.Background(), "scope1", 1)
	inner := mountAge(t, store, outer.Context(), "scope2", 2)

	res := store.Use(inner.Context(), WithScope("scope1")).Resolution()
	payload, err := res.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := ResolutionFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Source != SourceScope || decoded.Depth != 1 || decoded.Store != "user" || len(decoded.Candidates) != 2 {
		t.Fatalf("unexpected decoded resolution %+v", decoded)
	}
	if decoded.Container != outer.Container().Label() {
		t.Fatalf("expected %q, got %q", outer.Container().Label(), decoded.Container)
	}
	if _, err := ResolutionFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}

func TestUseTracksReadsOnContextTracker(t *testing.T) {
	store := ageStore(t)
	m := mountAge(t, store, context.Background(), "", 1)

	renders := 0
	tracker := reactive.NewTracker(func() { renders++ })
	defer tracker.Dispose()
	f := store.Use(reactive.WithTracker(m.Context(), tracker))

	f.UseValue("age")
	f.UseValue("age")
	f.Get("age")
	if tracker.Len() != 1 {
		t.Fatalf("expected one tracked atom, got %d", tracker.Len())
	}
	if _, err := f.Set("age", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if renders != 1 {
		t.Fatalf("expected one render, got %d", renders)
	}
}

func TestUseValueWithSelector(t *testing.T) {
	store := MustDefine(map[string]any{"age": 0, "name": "x"}, WithName("user"), WithLogger(quietLogger()))
	m := mustMount(t, store, context.Background(), ProviderProps{})

	renders := 0
	tracker := reactive.NewTracker(func() { renders++ })
	defer tracker.Dispose()
	f := store.Use(reactive.WithTracker(m.Context(), tracker))

	adult := reactive.Select(func(v any) any { return v.(int) >= 18 }, reactive.Equal)
	if got := f.UseValue("age", adult); got != false {
		t.Fatalf("expected false, got %v", got)
	}
	for _, age := range []int{1, 2, 3} {
		if _, err := f.Set("age", age); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if renders != 0 {
		t.Fatalf("selection did not change, got %d renders", renders)
	}
	if _, err := f.Set("age", 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	if renders != 1 || f.UseValue("age", adult) != true {
		t.Fatalf("expected one render and a true selection, renders=%d", renders)
	}

	age, _ := store.Atom("age")
	if got := m.Container().Listeners(adult.Of(age)); got != 1 {
		t.Fatalf("reused selector must track one atom, got %d listeners", got)
	}
}

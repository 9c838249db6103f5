package activity

import (
	"context"
	"testing"
)

func TestBuildAtomSetEventIncludesMetadata(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	input := AtomEventInput{
		Store:       "user",
		Key:         "age",
		Scope:       "scope1",
		ContainerID: "c-1",
		ActorID:     " actor ",
		OldValue:    98,
		NewValue:    99,
		Metadata:    meta,
	}

	event := BuildAtomSetEvent(input)

	if event.Verb != VerbAtomSet || event.ObjectType != "atoms.atom" || event.ObjectID != "user.age" {
		t.Fatalf("unexpected event fields: %+v", event)
	}
	if event.ActorID != "actor" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
	for key, want := range map[string]any{
		"store": "user", "key": "age", "scope": "scope1", "container_id": "c-1",
		"old_value": 98, "new_value": 99, "custom": "value",
	} {
		if event.Metadata[key] != want {
			t.Fatalf("expected metadata %s=%v, got %v", key, want, event.Metadata[key])
		}
	}
	if _, ok := meta["store"]; ok {
		t.Fatalf("expected input metadata untouched")
	}
}

func TestBuildAtomSetEventWithoutStoreName(t *testing.T) {
	event := BuildAtomSetEvent(AtomEventInput{Key: "age"})
	if event.ObjectID != "age" {
		t.Fatalf("expected key as object id, got %q", event.ObjectID)
	}
	if BuildAtomSetEvent(AtomEventInput{}).ObjectID != "atoms.atom" {
		t.Fatalf("expected object type fallback")
	}
}

func TestBuildProviderEventsPreferContainerID(t *testing.T) {
	mounted := BuildProviderMountedEvent(AtomEventInput{Store: "user", ContainerID: "c-42"})
	if mounted.Verb != VerbProviderMounted || mounted.ObjectType != "atoms.provider" || mounted.ObjectID != "c-42" {
		t.Fatalf("unexpected mounted event: %+v", mounted)
	}
	unmounted := BuildProviderUnmountedEvent(AtomEventInput{Store: "user"})
	if unmounted.Verb != VerbProviderUnmounted || unmounted.ObjectID != "user" {
		t.Fatalf("unexpected unmounted event: %+v", unmounted)
	}
	if BuildProviderUnmountedEvent(AtomEventInput{}).ObjectID != "atoms.provider" {
		t.Fatalf("expected object type fallback")
	}
}

func TestBuildAtomEventsWorkWithHooks(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	if err := hooks.Notify(context.Background(), BuildProviderMountedEvent(AtomEventInput{Store: "user"})); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := hooks.Notify(context.Background(), BuildAtomSetEvent(AtomEventInput{Store: "user", Key: "name"})); err != nil {
		t.Fatalf("notify: %v", err)
	}
	verbs := capture.Verbs()
	if len(verbs) != 2 || verbs[0] != VerbProviderMounted || verbs[1] != VerbAtomSet {
		t.Fatalf("unexpected verbs %v", verbs)
	}
}

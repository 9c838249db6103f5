package activity

import (
	"strings"
	"time"
)

const (
	// VerbAtomSet is emitted after a write through a store accessor.
	VerbAtomSet = "atoms.set"
	// VerbProviderMounted is emitted when a provider mounts a container.
	VerbProviderMounted = "atoms.provider.mounted"
	// VerbProviderUnmounted is emitted when a provider unmounts.
	VerbProviderUnmounted = "atoms.provider.unmounted"

	objectTypeAtom     = "atoms.atom"
	objectTypeProvider = "atoms.provider"
)

// AtomEventInput describes the fields shared by store lifecycle events.
type AtomEventInput struct {
	Store       string
	Key         string
	Scope       string
	ContainerID string
	ActorID     string
	UserID      string
	TenantID    string
	Channel     string
	OldValue    any
	NewValue    any
	Metadata    map[string]any
	OccurredAt  time.Time
}

// BuildAtomSetEvent describes a write to a single key.
func BuildAtomSetEvent(input AtomEventInput) Event {
	objectID := strings.TrimSpace(input.Store)
	if key := strings.TrimSpace(input.Key); key != "" {
		if objectID == "" {
			objectID = key
		} else {
			objectID = objectID + "." + key
		}
	}
	return buildAtomEvent(VerbAtomSet, objectTypeAtom, objectID, input)
}

// BuildProviderMountedEvent describes a provider mount.
func BuildProviderMountedEvent(input AtomEventInput) Event {
	return buildAtomEvent(VerbProviderMounted, objectTypeProvider, providerObjectID(input), input)
}

// BuildProviderUnmountedEvent describes a provider unmount.
func BuildProviderUnmountedEvent(input AtomEventInput) Event {
	return buildAtomEvent(VerbProviderUnmounted, objectTypeProvider, providerObjectID(input), input)
}

func providerObjectID(input AtomEventInput) string {
	if id := strings.TrimSpace(input.ContainerID); id != "" {
		return id
	}
	if store := strings.TrimSpace(input.Store); store != "" {
		return store
	}
	return objectTypeProvider
}

func buildAtomEvent(verb, objectType, objectID string, input AtomEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Store != "" {
		set("store", input.Store)
	}
	if input.Key != "" {
		set("key", input.Key)
	}
	if input.Scope != "" {
		set("scope", input.Scope)
	}
	if input.ContainerID != "" {
		set("container_id", input.ContainerID)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

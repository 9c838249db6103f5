package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-atoms/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards store activity to a go-users ActivitySink, so writes and
// provider lifecycles land in the same audit trail as user actions.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Identifiers that are not UUIDs are kept in the record data instead.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := cloneMap(normalized.Metadata)
	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID, "actor_id", &data),
		UserID:     parseUUID(normalized.UserID, "user_id", &data),
		TenantID:   parseUUID(normalized.TenantID, "tenant_id", &data),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	record.Data = data

	return h.Sink.Log(ctx, record)
}

func parseUUID(input, key string, data *map[string]any) uuid.UUID {
	value := strings.TrimSpace(input)
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		if *data == nil {
			*data = map[string]any{}
		}
		(*data)[key] = value
		return uuid.Nil
	}
	return id
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

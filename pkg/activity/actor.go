package activity

import "context"

// Actor identifies who triggered a store change.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

type actorKey struct{}

// WithActor returns a context carrying actor. Events emitted with that
// context inherit its identifiers.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor carried by ctx.
func ActorFrom(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

package common

import (
	"context"
	"slices"
)

type ctxKey string

const actorKey ctxKey = "auth/actor"

// Actor is the authenticated principal of a request.
type Actor struct {
	ID           string
	Capabilities []string
}

// Has reports whether the actor carries the named capability.
func (a Actor) Has(capability string) bool {
	return capability != "" && slices.Contains(a.Capabilities, capability)
}

// WithActor stores the authenticated actor on the provided context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom extracts the authenticated actor from the context if present.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}

// UserID extracts the authenticated actor identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	actor, ok := ActorFrom(ctx)
	return actor.ID, ok
}

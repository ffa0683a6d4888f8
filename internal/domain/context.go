package domain

import "context"

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID    string
	Email     string
	ProfileID string
}

type actorKey struct{}

// ContextWithActor attaches the actor to ctx
func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor attached to ctx
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.UserID != ""
}

// Package ctxutil carries request-scoped values through context. It has no
// internal dependencies so any package can import it.
package ctxutil

import (
	"context"
	"os"
	"os/user"
)

type actorKey struct{}

// WithActorID returns a context that attributes audit entries to actorID.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the actor ID from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}

// LocalActor names the person running the CLI: $TRIAGE_ACTOR, else the OS
// user name, else "staff".
func LocalActor() string {
	if a := os.Getenv("TRIAGE_ACTOR"); a != "" {
		return a
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "staff"
}

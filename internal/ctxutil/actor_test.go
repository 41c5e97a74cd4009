package ctxutil

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := ActorFromContext(ctx); got != "" {
		t.Errorf("ActorFromContext(empty) = %q, want empty", got)
	}

	ctx = WithActorID(ctx, "console")
	if got := ActorFromContext(ctx); got != "console" {
		t.Errorf("ActorFromContext() = %q, want console", got)
	}
}

func TestLocalActorPrefersEnv(t *testing.T) {
	t.Setenv("TRIAGE_ACTOR", "dana")
	if got := LocalActor(); got != "dana" {
		t.Errorf("LocalActor() = %q, want dana", got)
	}
}

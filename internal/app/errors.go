package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/triage/internal/core/queue"
	"github.com/example/triage/internal/ports/secondary"
)

// Errors surfaced by the application services. Callers match with errors.Is.
var (
	ErrNotFound           = queue.ErrNotFound
	ErrEntryBusy          = queue.ErrEntryBusy
	ErrScoringUnavailable = secondary.ErrScoringUnavailable
	ErrNoPendingAction    = errors.New("no such pending action")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidLogFilter   = errors.New("invalid log filter")
)

// PersistenceError reports a store write that failed. The flags describe what
// the session did to its local view afterwards.
type PersistenceError struct {
	Op       string
	EntryIDs []string

	RolledBack bool // local view restored to its state before the mutation
	Refetched  bool // local view replaced with what the store now holds
	Stale      bool // re-fetch failed too; view restored but may not match the store

	Err error
}

func (e *PersistenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to persist %s", e.Op)
	if len(e.EntryIDs) > 0 {
		fmt.Fprintf(&b, " for %s", strings.Join(e.EntryIDs, ", "))
	}
	switch {
	case e.Stale:
		b.WriteString(" (restored local view; store state unknown, run load)")
	case e.Refetched:
		b.WriteString(" (re-fetched from store)")
	case e.RolledBack:
		b.WriteString(" (rolled back)")
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// indeterminate reports whether err leaves the store outcome unknown.
func indeterminate(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

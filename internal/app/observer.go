package app

import "time"

// Outcome labels reported to an Observer.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
)

// Observer receives operational events from the services. The metrics
// package provides the Prometheus implementation.
type Observer interface {
	// MutationFinished is called once per mutation attempt.
	MutationFinished(action, outcome string)

	// RolledBack is called when a failed write forced local recovery.
	// mode is "rollback", "refetch" or "stale".
	RolledBack(mode string)

	// StoreCall is called after every record store call.
	StoreCall(op string, elapsed time.Duration, err error)

	// Scored is called after every scoring request.
	Scored(elapsed time.Duration, err error)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) MutationFinished(string, string) {}
func (NopObserver) RolledBack(string) {}
func (NopObserver) StoreCall(string, time.Duration, error) {}
func (NopObserver) Scored(time.Duration, error) {}

var _ Observer = NopObserver{}

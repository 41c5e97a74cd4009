// Package gate contains the access check that fronts the staff queue.
package gate

import (
	"crypto/subtle"
	"fmt"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// PassphraseContext provides context for the access guard.
type PassphraseContext struct {
	Configured string // passphrase from config; empty disables access
	Supplied   string
}

// CanAccess evaluates whether the supplied passphrase opens the queue.
// Rules:
// - A passphrase must be configured
// - The supplied passphrase must match exactly
func CanAccess(ctx PassphraseContext) GuardResult {
	if ctx.Configured == "" {
		return GuardResult{
			Allowed: false,
			Reason:  "no passphrase configured. Set gate.passphrase in config.yaml or TRIAGE_GATE_PASSPHRASE",
		}
	}
	if subtle.ConstantTimeCompare([]byte(ctx.Configured), []byte(ctx.Supplied)) != 1 {
		return GuardResult{
			Allowed: false,
			Reason:  "incorrect passphrase",
		}
	}
	return GuardResult{Allowed: true}
}

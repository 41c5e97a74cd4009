package primary

import (
	"context"

	"github.com/example/triage/internal/core/intake"
)

// IntakeService defines the primary port for prospect submissions.
type IntakeService interface {
	// Submit validates, scores and stores one submission.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
}

// SubmitRequest contains one intake submission.
type SubmitRequest struct {
	Answers intake.Answers
}

// SubmitResponse contains the result of a stored submission.
type SubmitResponse struct {
	EntryID       string
	PriorityScore float64
}

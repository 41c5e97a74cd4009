package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/ports/primary"
)

// IntakeAdapter is a thin adapter that translates CLI operations to IntakeService calls.
type IntakeAdapter struct {
	service primary.IntakeService
	out     io.Writer
}

// NewIntakeAdapter creates a new IntakeAdapter with the given service.
func NewIntakeAdapter(service primary.IntakeService, out io.Writer) *IntakeAdapter {
	return &IntakeAdapter{
		service: service,
		out:     out,
	}
}

// Submit sends one submission and reports where it landed.
func (a *IntakeAdapter) Submit(ctx context.Context, answers intake.Answers) (*primary.SubmitResponse, error) {
	resp, err := a.service.Submit(ctx, primary.SubmitRequest{Answers: answers})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Thanks %s, your submission was received\n", answers.Name)
	fmt.Fprintf(a.out, "  Entry:    %s\n", resp.EntryID)
	fmt.Fprintf(a.out, "  Priority: %.2f\n", resp.PriorityScore)
	return resp, nil
}

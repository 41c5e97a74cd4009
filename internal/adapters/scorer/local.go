package scorer

import (
	"context"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/core/scoring"
	"github.com/example/triage/internal/ports/secondary"
)

// Local scores in process with the built-in algorithm. It is used when no
// scorer URL is configured.
type Local struct{}

// Score applies the scoring algorithm after the same checks the service makes.
func (Local) Score(ctx context.Context, answers intake.Answers) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := intake.ValidateChoices(answers); err != nil {
		return 0, err
	}
	return scoring.Score(answers), nil
}

var _ secondary.Scorer = Local{}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/ports/secondary"
)

// IntakeServiceImpl implements the IntakeService interface.
type IntakeServiceImpl struct {
	scorer    secondary.Scorer
	entryRepo secondary.EntryRepository
	logWriter secondary.LogWriter
	store     storeCaller
	observer  Observer
	logger    *slog.Logger
}

// NewIntakeService creates a new IntakeService with injected dependencies.
// storeTimeout bounds the insert; the scorer applies its own timeout.
func NewIntakeService(
	scorer secondary.Scorer,
	entryRepo secondary.EntryRepository,
	logWriter secondary.LogWriter,
	storeTimeout time.Duration,
	observer Observer,
	logger *slog.Logger,
) *IntakeServiceImpl {
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeServiceImpl{
		scorer:    scorer,
		entryRepo: entryRepo,
		logWriter: logWriter,
		store:     storeCaller{timeout: storeTimeout, observer: observer},
		observer:  observer,
		logger:    logger,
	}
}

// Submit validates, scores and stores one submission. Nothing is stored
// unless scoring succeeds; a failed insert discards the score.
func (s *IntakeServiceImpl) Submit(ctx context.Context, req primary.SubmitRequest) (*primary.SubmitResponse, error) {
	answers := intake.Normalize(req.Answers)

	if err := intake.Validate(answers); err != nil {
		s.observer.MutationFinished("submit", OutcomeRejected)
		return nil, err
	}
	if err := intake.ValidateChoices(answers); err != nil {
		s.observer.MutationFinished("submit", OutcomeRejected)
		return nil, err
	}

	start := time.Now()
	score, err := s.scorer.Score(ctx, answers)
	if err == nil && (math.IsNaN(score) || math.IsInf(score, 0)) {
		err = fmt.Errorf("%w: non-finite score %v", ErrScoringUnavailable, score)
	}
	s.observer.Scored(time.Since(start), err)
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		s.observer.MutationFinished("submit", OutcomeRejected)
		return nil, err
	}
	if err != nil {
		s.observer.MutationFinished("submit", OutcomeFailed)
		s.logger.Warn("scoring failed", "email", answers.Email, "error", err)
		if !errors.Is(err, ErrScoringUnavailable) {
			err = fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
		}
		return nil, err
	}

	record := &secondary.EntryRecord{
		Answers:       answers,
		PriorityScore: score,
	}
	err = s.store.call(ctx, "insert", func(ctx context.Context) error {
		return s.entryRepo.Insert(ctx, record)
	})
	if err != nil {
		s.observer.MutationFinished("submit", OutcomeFailed)
		s.logger.Warn("insert failed; score discarded", "email", answers.Email, "score", score, "error", err)
		return nil, &PersistenceError{Op: "insert", Err: err}
	}

	if s.logWriter != nil {
		err := s.store.call(ctx, "audit", func(ctx context.Context) error {
			return s.logWriter.LogCreate(ctx, record.ID)
		})
		if err != nil {
			s.logger.Warn("audit log write failed", "entry_id", record.ID, "error", err)
		}
	}

	s.observer.MutationFinished("submit", OutcomeOK)
	s.logger.Info("submission stored", "entry_id", record.ID, "priority_score", score)
	return &primary.SubmitResponse{
		EntryID:       record.ID,
		PriorityScore: score,
	}, nil
}

// Ensure IntakeServiceImpl implements the interface
var _ primary.IntakeService = (*IntakeServiceImpl)(nil)

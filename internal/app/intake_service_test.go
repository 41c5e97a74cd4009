package app

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/ports/primary"
)

func newTestIntakeService(scorer *mockScorer, repo *mockEntryRepository) (*IntakeServiceImpl, *mockLogWriter, *recordingObserver) {
	logWriter := &mockLogWriter{}
	observer := &recordingObserver{}
	return NewIntakeService(scorer, repo, logWriter, 0, observer, nil), logWriter, observer
}

func TestIntakeService_Submit(t *testing.T) {
	scorer := &mockScorer{score: 42}
	repo := newMockEntryRepository()
	service, logWriter, _ := newTestIntakeService(scorer, repo)

	resp, err := service.Submit(context.Background(), primary.SubmitRequest{
		Answers: intake.Answers{Name: " Ann ", Email: "Ann@Example.com", AthleteType: "Pro"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if resp.PriorityScore != 42 {
		t.Errorf("PriorityScore = %v, want 42", resp.PriorityScore)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("stored %d entries, want 1", len(repo.entries))
	}
	stored := repo.entries[resp.EntryID]
	if stored.PriorityScore != 42 || stored.Shipped || stored.ManualOverride || stored.OverrideScore != nil {
		t.Errorf("stored = %+v", stored)
	}
	if stored.Answers.Email != "ann@example.com" || stored.Answers.Name != "Ann" {
		t.Errorf("answers not normalized: %+v", stored.Answers)
	}
	if scorer.last.AthleteType != "pro" {
		t.Errorf("scorer saw %q, want normalized answers", scorer.last.AthleteType)
	}
	if len(logWriter.entries) != 1 || logWriter.entries[0] != "create "+resp.EntryID {
		t.Errorf("audit = %v", logWriter.entries)
	}
}

func TestIntakeService_SubmitMissingEmail(t *testing.T) {
	scorer := &mockScorer{score: 1}
	repo := newMockEntryRepository()
	service, _, _ := newTestIntakeService(scorer, repo)

	_, err := service.Submit(context.Background(), primary.SubmitRequest{Answers: intake.Answers{Name: "Ann"}})

	var verr *intake.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *intake.ValidationError", err)
	}
	if scorer.calls != 0 {
		t.Errorf("scorer called %d times, want 0", scorer.calls)
	}
	if len(repo.entries) != 0 {
		t.Error("entry stored for invalid submission")
	}
}

func TestIntakeService_SubmitScorerFailure(t *testing.T) {
	tests := []struct {
		name   string
		scorer *mockScorer
	}{
		{"transport error", &mockScorer{err: errors.New("dial tcp: connection refused")}},
		{"typed unavailable", &mockScorer{err: ErrScoringUnavailable}},
		{"non-finite score", &mockScorer{score: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockEntryRepository()
			service, _, observer := newTestIntakeService(tt.scorer, repo)

			_, err := service.Submit(context.Background(), primary.SubmitRequest{
				Answers: intake.Answers{Name: "Ann", Email: "ann@example.com"},
			})
			if !errors.Is(err, ErrScoringUnavailable) {
				t.Fatalf("err = %v, want ErrScoringUnavailable", err)
			}
			if len(repo.entries) != 0 {
				t.Error("entry stored after scoring failure")
			}
			if len(observer.mutations) != 1 || observer.mutations[0] != "submit:failed" {
				t.Errorf("mutations = %v", observer.mutations)
			}
		})
	}
}

func TestIntakeService_SubmitInsertFailure(t *testing.T) {
	scorer := &mockScorer{score: 7}
	repo := newMockEntryRepository()
	repo.insertErr = errors.New("database is locked")
	service, logWriter, _ := newTestIntakeService(scorer, repo)

	_, err := service.Submit(context.Background(), primary.SubmitRequest{
		Answers: intake.Answers{Name: "Ann", Email: "ann@example.com"},
	})

	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "insert" {
		t.Fatalf("err = %v, want insert PersistenceError", err)
	}
	if len(logWriter.entries) != 0 {
		t.Errorf("audit = %v, want none", logWriter.entries)
	}
}

func TestIntakeService_DuplicatesAreKept(t *testing.T) {
	scorer := &mockScorer{score: 3}
	repo := newMockEntryRepository()
	service, _, _ := newTestIntakeService(scorer, repo)
	req := primary.SubmitRequest{Answers: intake.Answers{Name: "Ann", Email: "ann@example.com"}}

	first, err := service.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	second, err := service.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if first.EntryID == second.EntryID || len(repo.entries) != 2 {
		t.Errorf("duplicate submission collapsed: %s, %s", first.EntryID, second.EntryID)
	}
}

func TestIntakeService_SubmitUnknownChoice(t *testing.T) {
	scorer := &mockScorer{score: 1}
	repo := newMockEntryRepository()
	service, _, observer := newTestIntakeService(scorer, repo)

	_, err := service.Submit(context.Background(), primary.SubmitRequest{
		Answers: intake.Answers{Name: "Ann", Email: "ann@example.com", AthleteType: "bogus"},
	})

	var verr *intake.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *intake.ValidationError", err)
	}
	if errors.Is(err, ErrScoringUnavailable) {
		t.Errorf("err = %v, must not report a scoring outage", err)
	}
	if scorer.calls != 0 {
		t.Errorf("scorer called %d times, want 0", scorer.calls)
	}
	if len(repo.entries) != 0 {
		t.Errorf("stored %d entries, want 0", len(repo.entries))
	}
	if len(observer.mutations) != 1 || observer.mutations[0] != "submit:"+OutcomeRejected {
		t.Errorf("mutations = %v", observer.mutations)
	}
}

func TestIntakeService_ScorerValidationErrorPassesThrough(t *testing.T) {
	scorer := &mockScorer{err: &intake.ValidationError{Invalid: map[string]string{"urgency": "later"}}}
	repo := newMockEntryRepository()
	service, _, _ := newTestIntakeService(scorer, repo)

	_, err := service.Submit(context.Background(), primary.SubmitRequest{
		Answers: intake.Answers{Name: "Ann", Email: "ann@example.com"},
	})

	var verr *intake.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *intake.ValidationError", err)
	}
	if errors.Is(err, ErrScoringUnavailable) {
		t.Errorf("err = %v, must not report a scoring outage", err)
	}
}

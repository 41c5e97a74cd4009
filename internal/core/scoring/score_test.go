package scoring

import (
	"math"
	"testing"

	"github.com/example/triage/internal/core/intake"
)

func boolPtr(b bool) *bool { return &b }

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answers intake.Answers
		want    float64
	}{
		{
			name:    "empty answers score the base",
			answers: intake.Answers{Name: "A", Email: "a@x.com"},
			want:    1.0,
		},
		{
			name:    "working system subtracts half a point",
			answers: intake.Answers{SystemBroken: "no"},
			want:    0.5,
		},
		{
			name: "additive terms stack",
			answers: intake.Answers{
				AthleteType:     "pro",
				Injured:         "serious",
				UseCase:         "all",
				RepeatCustomer:  boolPtr(true),
				PublicInfluence: "top_100",
				PurchaseScope:   "6+",
				RepresentsGroup: "franchise",
			},
			want: 1 + 3 + 2 + 2 + 0.75 + 2.5 + 2 + 2.5,
		},
		{
			name:    "repeat customer false adds nothing",
			answers: intake.Answers{RepeatCustomer: boolPtr(false)},
			want:    1.0,
		},
		{
			name: "multipliers compound",
			answers: intake.Answers{
				AthleteType:  "college",
				SeasonStatus: "playoffs",
				Urgency:      "code_red",
				SystemBroken: "yes",
			},
			want: 3.0 * 1.25 * 1.3 * 1.3,
		},
		{
			name:    "unknown values are neutral",
			answers: intake.Answers{AthleteType: "amateur", SeasonStatus: "spring", Urgency: "whenever"},
			want:    1.0,
		},
		{
			name:    "in-season moderate urgency",
			answers: intake.Answers{AthleteType: "retired", UseCase: "mental_health", SeasonStatus: "inseason", Urgency: "moderate"},
			want:    4.0 * 1.1 * 1.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.answers)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExplain(t *testing.T) {
	b := Explain(intake.Answers{Injured: "minor", Urgency: "high", SystemBroken: "yes"})
	if b.Additive != 2.0 || b.Season != 1.0 || b.Urgency != 1.1 || b.Broken != 1.3 {
		t.Errorf("Explain() = %+v", b)
	}
}

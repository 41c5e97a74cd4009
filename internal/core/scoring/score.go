// Package scoring contains the priority scoring algorithm applied to intake
// answers. It is a pure function of the answers.
package scoring

import "github.com/example/triage/internal/core/intake"

// Base is the score every submission starts from.
const Base = 1.0

// Additive terms keyed by answer value.
var (
	athleteTerms = map[string]float64{"college": 2.0, "pro": 3.0, "retired": 1.5}
	injuryTerms  = map[string]float64{"minor": 1.0, "serious": 2.0}
	useCaseTerms = map[string]float64{"recovery": 1.0, "mental_health": 1.5, "all": 2.0}
	reachTerms   = map[string]float64{"moderate": 1.0, "high": 2.0, "top_100": 2.5}
	scopeTerms   = map[string]float64{"2-5": 1.0, "6+": 2.0}
	groupTerms   = map[string]float64{"team": 1.5, "franchise": 2.5}
)

// Multipliers keyed by answer value. Unlisted values multiply by 1.
var (
	seasonMultipliers  = map[string]float64{"offseason": 1.0, "inseason": 1.1, "playoffs": 1.25, "not_applicable": 1.0}
	urgencyMultipliers = map[string]float64{"low": 1.0, "moderate": 1.05, "high": 1.1, "code_red": 1.3}
)

const (
	repeatCustomerBonus = 0.75
	workingSystemTerm   = -0.5
	brokenSystemFactor  = 1.3
)

// Breakdown is the score with its additive and multiplicative parts.
type Breakdown struct {
	Additive   float64
	Season     float64
	Urgency    float64
	Broken     float64
	FinalScore float64
}

// Score returns the priority score for a.
func Score(a intake.Answers) float64 {
	return Explain(a).FinalScore
}

// Explain computes the score and returns each factor that contributed.
func Explain(a intake.Answers) Breakdown {
	sum := Base
	sum += athleteTerms[a.AthleteType]
	sum += injuryTerms[a.Injured]
	sum += useCaseTerms[a.UseCase]
	if a.RepeatCustomer != nil && *a.RepeatCustomer {
		sum += repeatCustomerBonus
	}
	sum += reachTerms[a.PublicInfluence]
	sum += scopeTerms[a.PurchaseScope]
	sum += groupTerms[a.RepresentsGroup]
	if a.SystemBroken == "no" {
		sum += workingSystemTerm
	}

	b := Breakdown{
		Additive: sum,
		Season:   lookup(seasonMultipliers, a.SeasonStatus),
		Urgency:  lookup(urgencyMultipliers, a.Urgency),
		Broken:   1.0,
	}
	if a.SystemBroken == "yes" {
		b.Broken = brokenSystemFactor
	}
	b.FinalScore = b.Additive * b.Season * b.Urgency * b.Broken
	return b
}

func lookup(m map[string]float64, key string) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return 1.0
}

package intake

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports a submission that cannot be accepted.
type ValidationError struct {
	Missing []string          // required fields that are absent or blank
	Invalid map[string]string // field -> offending value
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required field(s): "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		names := make([]string, 0, len(e.Invalid))
		for name := range e.Invalid {
			names = append(names, name)
		}
		sort.Strings(names)
		var bad []string
		for _, name := range names {
			bad = append(bad, fmt.Sprintf("%s=%q", name, e.Invalid[name]))
		}
		parts = append(parts, "invalid value(s): "+strings.Join(bad, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RequiredFields are the fields every submission must carry.
var RequiredFields = []string{FieldName, FieldEmail}

// Choices lists the accepted values for each enumerated answer.
var Choices = map[string][]string{
	FieldAthleteType:     {"none", "college", "pro", "retired"},
	FieldSeasonStatus:    {"offseason", "inseason", "playoffs", "not_applicable"},
	FieldInjured:         {"no", "minor", "serious"},
	FieldUseCase:         {"performance", "recovery", "mental_health", "all"},
	FieldPublicInfluence: {"none", "moderate", "high", "top_100"},
	FieldUrgency:         {"low", "moderate", "high", "code_red"},
	FieldPurchaseScope:   {"1", "2-5", "6+"},
	FieldRepresentsGroup: {"no", "team", "franchise"},
	FieldSystemBroken:    {"no", "yes", "not_applicable"},
}

// Validate checks that the required fields are present. It is the only check
// the intake pipeline applies before scoring.
func Validate(a Answers) error {
	var missing []string
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, FieldName)
	}
	if strings.TrimSpace(a.Email) == "" {
		missing = append(missing, FieldEmail)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// ValidateChoices checks the required fields and that every enumerated answer,
// when present, is one of its accepted values. The scoring service uses it to
// reject malformed requests.
func ValidateChoices(a Answers) error {
	verr := &ValidationError{}
	if err := Validate(a); err != nil {
		verr = err.(*ValidationError)
	}

	fields := a.stringFields()
	for name, allowed := range Choices {
		value := *fields[name]
		if value == "" || contains(allowed, value) {
			continue
		}
		if verr.Invalid == nil {
			verr.Invalid = make(map[string]string)
		}
		verr.Invalid[name] = value
	}

	if len(verr.Missing) == 0 && len(verr.Invalid) == 0 {
		return nil
	}
	return verr
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

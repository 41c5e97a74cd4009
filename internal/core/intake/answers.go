// Package intake contains the pure logic for intake submissions: the answer
// record, normalization, and the checks applied before a submission is scored.
package intake

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Known intake field names. These match the form field keys and the store columns.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldAthleteType     = "athlete_type"
	FieldSeasonStatus    = "season_status"
	FieldInjured         = "injured"
	FieldUseCase         = "use_case"
	FieldReferralSource  = "referral_source"
	FieldRepeatCustomer  = "repeat_customer"
	FieldPublicInfluence = "public_influence"
	FieldUrgency         = "urgency"
	FieldPurchaseScope   = "purchase_scope"
	FieldRepresentsGroup = "represents_group"
	FieldSystemBroken    = "system_broken"
	FieldCustomerType    = "customer_type"
	FieldAdditionalNotes = "additional_notes"
)

// Answers is one raw intake submission. Known fields are typed; anything else
// the form sends is kept in Extra and travels with the submission unchanged.
type Answers struct {
	Name            string
	Email           string
	AthleteType     string
	SeasonStatus    string
	Injured         string
	UseCase         string
	ReferralSource  string
	RepeatCustomer  *bool
	PublicInfluence string
	Urgency         string
	PurchaseScope   string
	RepresentsGroup string
	SystemBroken    string
	CustomerType    string
	AdditionalNotes string

	// Extra holds fields outside the known set, keyed by form field name.
	Extra map[string]any
}

// stringFields maps each known string field name to its storage in a.
func (a *Answers) stringFields() map[string]*string {
	return map[string]*string{
		FieldName:            &a.Name,
		FieldEmail:           &a.Email,
		FieldAthleteType:     &a.AthleteType,
		FieldSeasonStatus:    &a.SeasonStatus,
		FieldInjured:         &a.Injured,
		FieldUseCase:         &a.UseCase,
		FieldReferralSource:  &a.ReferralSource,
		FieldPublicInfluence: &a.PublicInfluence,
		FieldUrgency:         &a.Urgency,
		FieldPurchaseScope:   &a.PurchaseScope,
		FieldRepresentsGroup: &a.RepresentsGroup,
		FieldSystemBroken:    &a.SystemBroken,
		FieldCustomerType:    &a.CustomerType,
		FieldAdditionalNotes: &a.AdditionalNotes,
	}
}

// IsKnownField reports whether name is one of the typed intake fields.
func IsKnownField(name string) bool {
	if name == FieldRepeatCustomer {
		return true
	}
	_, ok := (&Answers{}).stringFields()[name]
	return ok
}

// Set assigns a form value by field name. Known fields are parsed into their
// typed slot; unknown names go to Extra.
func (a *Answers) Set(name, value string) error {
	if dst, ok := a.stringFields()[name]; ok {
		*dst = value
		return nil
	}
	if name == FieldRepeatCustomer {
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		a.RepeatCustomer = b
		return nil
	}
	if a.Extra == nil {
		a.Extra = make(map[string]any)
	}
	a.Extra[name] = value
	return nil
}

// Fields returns the flattened field set: Extra first, then every non-empty
// known field on top.
func (a Answers) Fields() map[string]any {
	out := make(map[string]any, len(a.Extra)+16)
	for k, v := range a.Extra {
		out[k] = v
	}
	for name, v := range a.stringFields() {
		if *v != "" {
			out[name] = *v
		}
	}
	if a.RepeatCustomer != nil {
		out[FieldRepeatCustomer] = *a.RepeatCustomer
	}
	return out
}

// MarshalJSON encodes the answers as one flat JSON object.
func (a Answers) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Fields())
}

// UnmarshalJSON decodes a flat JSON object, routing unknown keys to Extra.
// repeat_customer accepts a boolean or the strings the web form posts.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Answers{}
	fields := a.stringFields()
	for key, msg := range raw {
		if dst, ok := fields[key]; ok {
			if err := decodeString(msg, dst); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			continue
		}
		if key == FieldRepeatCustomer {
			b, err := decodeBool(msg)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			a.RepeatCustomer = b
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if a.Extra == nil {
			a.Extra = make(map[string]any)
		}
		a.Extra[key] = v
	}
	return nil
}

func decodeString(msg json.RawMessage, dst *string) error {
	if string(msg) == "null" {
		*dst = ""
		return nil
	}
	return json.Unmarshal(msg, dst)
}

func decodeBool(msg json.RawMessage) (*bool, error) {
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return nil, err
	}
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &typed, nil
	case string:
		return parseBool(typed)
	default:
		return nil, fmt.Errorf("expected boolean, got %T", v)
	}
}

func parseBool(s string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "true", "yes", "y", "1":
		t := true
		return &t, nil
	case "false", "no", "n", "0":
		f := false
		return &f, nil
	default:
		return nil, fmt.Errorf("expected boolean, got %q", s)
	}
}

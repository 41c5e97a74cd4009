package intake

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns a copy of a with text fields trimmed and NFC-normalized.
// Email is lowercased; enumerated answers are lowercased so "Pro" and "pro"
// score the same. Free-text fields keep their case.
func Normalize(a Answers) Answers {
	out := a
	lower := cases.Lower(language.Und)

	fields := out.stringFields()
	for name, v := range fields {
		s := strings.TrimSpace(norm.NFC.String(*v))
		if name == FieldEmail {
			s = lower.String(s)
		} else if _, enumerated := Choices[name]; enumerated {
			s = lower.String(s)
		}
		*v = s
	}

	if a.Extra != nil {
		out.Extra = make(map[string]any, len(a.Extra))
		for k, v := range a.Extra {
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(norm.NFC.String(s))
			}
			out.Extra[k] = v
		}
	}
	return out
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/wire"
)

// submitFields are the intake fields exposed as flags, in form order.
var submitFields = []string{
	intake.FieldName,
	intake.FieldEmail,
	intake.FieldAthleteType,
	intake.FieldSeasonStatus,
	intake.FieldInjured,
	intake.FieldUseCase,
	intake.FieldReferralSource,
	intake.FieldRepeatCustomer,
	intake.FieldPublicInfluence,
	intake.FieldUrgency,
	intake.FieldPurchaseScope,
	intake.FieldRepresentsGroup,
	intake.FieldSystemBroken,
	intake.FieldCustomerType,
	intake.FieldAdditionalNotes,
}

// privateCustomerTypes are the customer types offered on the white-glove form.
var privateCustomerTypes = []string{
	"pro_athlete",
	"celebrity",
	"coach_trainer",
	"influencer_partner",
	"team_rep",
	"government",
	"business_owner",
	"gifting_customer",
}

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

// SubmitCmd returns the submit command
func SubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an intake form",
		Long: `Score and store one intake submission.

Answers come from --json (a file, or - for stdin), then the per-field flags,
then --set key=value for form fields outside the known set.`,
		Example: `  triage submit --name "Jordan Reyes" --email jordan@example.com --athlete-type pro --urgency high
  triage submit --json lead.json
  triage submit --private --name "Avery Park" --email avery@example.com --customer-type celebrity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			answers, err := answersFromFlags(cmd, os.Stdin)
			if err != nil {
				return err
			}

			private, _ := cmd.Flags().GetBool("private")
			if private {
				if err := checkPrivate(answers); err != nil {
					return err
				}
			}

			adapter, err := wire.IntakeAdapter(os.Stdout)
			if err != nil {
				return err
			}
			_, err = adapter.Submit(ctx, answers)
			return err
		},
	}

	addAnswerFlags(cmd)
	cmd.Flags().Bool("private", false, "White-glove intake: requires a private customer type")
	return cmd
}

// addAnswerFlags registers the flags read by answersFromFlags.
func addAnswerFlags(cmd *cobra.Command) {
	cmd.Flags().String("json", "", "Read answers from a JSON file (- for stdin)")
	cmd.Flags().StringArray("set", nil, "Set an extra form field (key=value, repeatable)")
	for _, field := range submitFields {
		cmd.Flags().String(flagName(field), "", fmt.Sprintf("Answer for %s", field))
	}
}

// answersFromFlags assembles the submission. stdin is read when --json is "-".
func answersFromFlags(cmd *cobra.Command, stdin io.Reader) (intake.Answers, error) {
	var answers intake.Answers

	if path, _ := cmd.Flags().GetString("json"); path != "" {
		var r io.Reader = stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return answers, fmt.Errorf("failed to open answers: %w", err)
			}
			defer f.Close()
			r = f
		}
		if err := json.NewDecoder(r).Decode(&answers); err != nil {
			return answers, fmt.Errorf("failed to decode answers: %w", err)
		}
	}

	for _, field := range submitFields {
		flag := cmd.Flags().Lookup(flagName(field))
		if flag == nil || !flag.Changed {
			continue
		}
		if err := answers.Set(field, flag.Value.String()); err != nil {
			return answers, err
		}
	}

	sets, _ := cmd.Flags().GetStringArray("set")
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return answers, fmt.Errorf("--set %q: want key=value", kv)
		}
		if err := answers.Set(key, value); err != nil {
			return answers, err
		}
	}
	return answers, nil
}

func checkPrivate(a intake.Answers) error {
	for _, t := range privateCustomerTypes {
		if a.CustomerType == t {
			return nil
		}
	}
	return fmt.Errorf("--private needs --customer-type, one of: %s", strings.Join(privateCustomerTypes, ", "))
}

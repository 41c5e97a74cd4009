package cli

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/triage/internal/adapters/scoreserver"
	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/core/scoring"
	"github.com/example/triage/internal/metrics"
	"github.com/example/triage/internal/wire"
)

const shutdownGrace = 5 * time.Second

// ScorerCmd returns the scorer command
func ScorerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scorer",
		Short: "Run or inspect the priority scoring service",
	}
	cmd.AddCommand(scorerServeCmd())
	cmd.AddCommand(scorerScoreCmd())
	return cmd
}

func scorerServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /score over HTTP",
		Long: `Serve the scoring algorithm for the intake form.

Routes: POST /score, GET /healthz and GET /metrics (Prometheus).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := NewSignalContext()
			defer stop()

			cfg := wire.Config()
			addr, _ := cmd.Flags().GetString("listen")
			if addr == "" {
				addr = cfg.Scorer.Listen
			}

			m := metrics.New()
			handler := scoreserver.NewHandler(scoreserver.Config{
				AllowedOrigins: cfg.Scorer.AllowedOrigins,
				Metrics:        m.Handler(),
				Counter:        m,
				Logger:         slog.Default(),
			})

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			slog.Info("scorer listening", "addr", ln.Addr().String(), "origins", cfg.Scorer.AllowedOrigins)
			if err := scoreserver.Serve(ctx, ln, handler, shutdownGrace); err != nil {
				return err
			}
			slog.Info("scorer stopped")
			return nil
		},
	}
	cmd.Flags().String("listen", "", "Listen address (default scorer.listen)")
	return cmd
}

func scorerScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score answers locally and show each factor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			answers, err := answersFromFlags(cmd, os.Stdin)
			if err != nil {
				return err
			}
			answers = intake.Normalize(answers)
			if err := intake.ValidateChoices(answers); err != nil {
				return err
			}

			b := scoring.Explain(answers)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "additive\t%.2f\n", b.Additive)
			fmt.Fprintf(w, "season\t×%.2f\n", b.Season)
			fmt.Fprintf(w, "urgency\t×%.2f\n", b.Urgency)
			fmt.Fprintf(w, "system broken\t×%.2f\n", b.Broken)
			fmt.Fprintf(w, "priority\t%.2f\n", b.FinalScore)
			return w.Flush()
		},
	}
	addAnswerFlags(cmd)
	return cmd
}

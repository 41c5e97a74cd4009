package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/triage/internal/cli"
	"github.com/example/triage/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "triage",
		Short:   "triage - lead intake and staff priority queue",
		Version: version.String(),
		Long: `triage scores intake submissions and keeps them in a ranked queue that
staff can reorder, ship and delete.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.Bootstrap,
		PersistentPostRun: cli.Shutdown,
	}
	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.SubmitCmd())
	rootCmd.AddCommand(cli.QueueCmd())
	rootCmd.AddCommand(cli.ConsoleCmd())
	rootCmd.AddCommand(cli.ExportCmd())
	rootCmd.AddCommand(cli.ScorerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

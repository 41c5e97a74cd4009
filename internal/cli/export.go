package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/triage/internal/wire"
)

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of the queue",
		Long: `Write both partitions, in priority order, as one JSON document.

The target is a file path, file://path or s3://bucket/key. It defaults to
export.target from the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			target, _ := cmd.Flags().GetString("target")
			passphrase, _ := cmd.Flags().GetString("passphrase")
			if err := requireGate(passphrase); err != nil {
				return err
			}

			svc, err := wire.ExportService(ctx, target)
			if err != nil {
				return err
			}
			result, err := svc.Export(ctx)
			if err != nil {
				return err
			}
			if target == "" {
				target = wire.Config().Export.Target
			}
			fmt.Printf("✓ Exported %d active and %d shipped entries to %s (%d bytes)\n",
				result.Active, result.Shipped, target, result.Bytes)
			return nil
		},
	}
	cmd.Flags().String("target", "", "Snapshot destination (default export.target)")
	cmd.Flags().String("passphrase", "", "Staff passphrase (default $TRIAGE_PASSPHRASE, else prompt)")
	return cmd
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/triage/internal/config"
	"github.com/example/triage/internal/core/setup"
	"github.com/example/triage/internal/db"
	"github.com/example/triage/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the triage config directory and store",
		Long: `Write a default config.yaml to the config directory (~/.triage unless
--config-dir or TRIAGE_CONFIG_DIR says otherwise) and create the store schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			force, _ := cmd.Flags().GetBool("force")
			seed, _ := cmd.Flags().GetBool("seed")

			dir, err := resolveConfigDir()
			if err != nil {
				return err
			}
			content, err := config.DefaultYAML()
			if err != nil {
				return fmt.Errorf("failed to render default config: %w", err)
			}

			in := setup.PlanInput{
				ConfigDir:     dir,
				ConfigContent: content,
				Force:         force,
			}
			if _, err := os.Stat(dir); err == nil {
				in.DirExists = true
			}
			if _, err := os.Stat(filepath.Join(dir, setup.ConfigFileName)); err == nil {
				in.ConfigExists = true
			}

			plan := setup.PlanInit(in)
			if err := wire.EffectExecutor().Execute(ctx, plan.Effects); err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}
			if plan.WriteFile {
				fmt.Printf("✓ Config written to %s\n", plan.ConfigPath)
			} else {
				fmt.Printf("Config already exists at %s (use --force to overwrite)\n", plan.ConfigPath)
			}

			// Opening the store creates or migrates the schema
			if _, err := wire.QueueService(); err != nil {
				return err
			}
			fmt.Printf("✓ Store ready (%s)\n", wire.Config().Store.Driver)

			if seed {
				conn, err := wire.SQLiteDatabase()
				if err != nil {
					return fmt.Errorf("--seed: %w", err)
				}
				if err := db.SeedFixtures(conn); err != nil {
					return fmt.Errorf("failed to seed fixtures: %w", err)
				}
				fmt.Println("✓ Seeded development fixtures")
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  set gate.passphrase in config.yaml")
			fmt.Println("  triage submit --name \"Jordan Reyes\" --email jordan@example.com")
			fmt.Println("  triage queue list")
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing config.yaml")
	cmd.Flags().Bool("seed", false, "Insert development fixtures (sqlite only)")
	return cmd
}

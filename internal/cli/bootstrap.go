// Package cli provides CLI commands for the triage application.
package cli

import (
	gocontext "context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/triage/internal/config"
	"github.com/example/triage/internal/ctxutil"
	"github.com/example/triage/internal/wire"
)

// globalActorID stores the actor for the current CLI invocation.
// Set once at startup by Bootstrap.
var globalActorID string

var (
	verbose   bool
	configDir string
)

// AddGlobalFlags registers the flags every command accepts.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default $TRIAGE_CONFIG_DIR or ~/.triage)")
}

// Bootstrap sets up logging, loads the configuration and hands it to wire.
// Should be called once at CLI startup in PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	dir, err := resolveConfigDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	wire.Configure(cfg, logger)

	globalActorID = ctxutil.LocalActor()
	logger.Debug("bootstrapped", "config_dir", dir, "driver", cfg.Store.Driver, "actor", globalActorID)
	return nil
}

// Shutdown releases resources opened during the command.
func Shutdown(cmd *cobra.Command, args []string) {
	if err := wire.Close(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}
}

func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	return config.DefaultDir()
}

// NewContext creates a context.Background() with the current actor ID embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}

// NewSignalContext is NewContext cancelled on SIGINT or SIGTERM.
func NewSignalContext() (gocontext.Context, gocontext.CancelFunc) {
	return signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
}

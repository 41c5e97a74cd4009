package cli

import (
	gocontext "context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/triage/internal/adapters/cli"
	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/wire"
)

// QueueCmd returns the queue command
func QueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Work the staff priority queue",
		Long: `List, reorder, ship, unship and delete queue entries.

Entries are referenced by their rank in "queue list" (1 is the top) or by a
unique prefix of their ID.`,
	}
	cmd.PersistentFlags().String("passphrase", "", "Staff passphrase (default $TRIAGE_PASSPHRASE, else prompt)")

	cmd.AddCommand(queueListCmd())
	cmd.AddCommand(queueMoveCmd())
	cmd.AddCommand(queueToggleCmd("ship", "Mark an active entry shipped", (*cliadapter.QueueAdapter).Ship))
	cmd.AddCommand(queueToggleCmd("unship", "Move a shipped entry back to the active queue", (*cliadapter.QueueAdapter).Unship))
	cmd.AddCommand(queueToggleCmd("delete", "Delete an entry permanently", (*cliadapter.QueueAdapter).Delete))
	cmd.AddCommand(queueHistoryCmd())
	cmd.AddCommand(queuePruneCmd())
	return cmd
}

// openQueue passes the gate, builds the adapter and loads the session view.
func openQueue(ctx gocontext.Context, cmd *cobra.Command, confirm cliadapter.Confirmer) (*cliadapter.QueueAdapter, error) {
	passphrase, _ := cmd.Flags().GetString("passphrase")
	if err := requireGate(passphrase); err != nil {
		return nil, err
	}
	adapter, err := wire.QueueAdapter(confirm)
	if err != nil {
		return nil, err
	}
	if _, err := adapter.Load(ctx); err != nil {
		return nil, err
	}
	return adapter, nil
}

func queueListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the queue in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			showShipped, _ := cmd.Flags().GetBool("shipped")
			adapter, err := openQueue(ctx, cmd, cliadapter.AlwaysConfirm)
			if err != nil {
				return err
			}
			adapter.List(showShipped)
			return nil
		},
	}
	cmd.Flags().Bool("shipped", false, "Also show shipped entries")
	return cmd
}

func queueMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <entry> <rank>",
		Short: "Move an entry to a rank within its partition",
		Long: `Move an entry to a 1-based rank. The entry's override score, and those of
entries it passes, are rewritten so the new order sticks.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			rank, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rank must be a number, got %q", args[1])
			}
			partition := cliadapter.PartitionActive
			if shipped, _ := cmd.Flags().GetBool("shipped"); shipped {
				partition = cliadapter.PartitionShipped
			}

			adapter, err := openQueue(ctx, cmd, cliadapter.AlwaysConfirm)
			if err != nil {
				return err
			}
			_, err = adapter.Move(ctx, partition, args[0], rank)
			return err
		},
	}
	cmd.Flags().Bool("shipped", false, "Move within the shipped partition")
	return cmd
}

func queueToggleCmd(
	use, short string,
	run func(*cliadapter.QueueAdapter, gocontext.Context, string) (*primary.ResolveResponse, error),
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <entry>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			yes, _ := cmd.Flags().GetBool("yes")
			adapter, err := openQueue(ctx, cmd, stdinConfirmer(yes))
			if err != nil {
				return err
			}
			_, err = run(adapter, ctx, args[0])
			if errors.Is(err, cliadapter.ErrCancelled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func queueHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show queue activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			entryID, _ := cmd.Flags().GetString("entry")
			actorID, _ := cmd.Flags().GetString("actor")
			action, _ := cmd.Flags().GetString("action")
			field, _ := cmd.Flags().GetString("field")
			limit, _ := cmd.Flags().GetInt("limit")

			passphrase, _ := cmd.Flags().GetString("passphrase")
			if err := requireGate(passphrase); err != nil {
				return err
			}
			adapter, err := wire.LogAdapter(os.Stdout)
			if err != nil {
				return err
			}
			_, err = adapter.History(ctx, primary.LogFilters{
				EntryID:   entryID,
				ActorID:   actorID,
				Action:    action,
				FieldName: field,
				Limit:     limit,
			})
			return err
		},
	}
	cmd.Flags().String("entry", "", "Filter by entry ID")
	cmd.Flags().String("actor", "", "Filter by actor")
	cmd.Flags().String("action", "", "Filter by action (create, update, delete)")
	cmd.Flags().String("field", "", "Filter updates by field (shipped, override_score)")
	cmd.Flags().IntP("limit", "n", primary.DefaultLogLimit, "Number of entries to show")
	return cmd
}

func queuePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune <days>",
		Short: "Delete activity entries older than the given number of days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			days, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("days must be a number, got %q", args[0])
			}
			passphrase, _ := cmd.Flags().GetString("passphrase")
			if err := requireGate(passphrase); err != nil {
				return err
			}
			adapter, err := wire.LogAdapter(os.Stdout)
			if err != nil {
				return err
			}
			_, err = adapter.Prune(ctx, days)
			return err
		},
	}
}

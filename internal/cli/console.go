package cli

import (
	gocontext "context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	cliadapter "github.com/example/triage/internal/adapters/cli"
	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/wire"
)

const historyFileName = "console_history"

var consoleCommands = []string{
	"list", "shipped", "move", "ship", "unship", "delete", "reload", "history", "help", "quit",
}

// ConsoleCmd returns the console command
func ConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive staff session over the queue",
		Long: `Open one staff session: the queue is loaded once and every reorder, ship,
unship and delete is applied to the session view and reconciled with the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := NewSignalContext()
			defer stop()

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)
			line.SetCompleter(func(in string) []string {
				var out []string
				for _, c := range consoleCommands {
					if strings.HasPrefix(c, strings.ToLower(in)) {
						out = append(out, c)
					}
				}
				return out
			})

			passphrase, _ := cmd.Flags().GetString("passphrase")
			if passphrase == "" {
				passphrase = os.Getenv(passphraseEnv)
			}
			if err := authorize(wire.Config().Gate.Passphrase, passphrase, func() (string, error) {
				return askPassphrase(line)
			}); err != nil {
				return err
			}

			c := &console{out: os.Stdout, ask: line.Prompt}
			queue, err := wire.QueueAdapterWithOutput(c.out, cliadapter.ConfirmFunc(c.confirm))
			if err != nil {
				return err
			}
			logs, err := wire.LogAdapter(c.out)
			if err != nil {
				return err
			}
			c.queue, c.logs = queue, logs

			historyPath := ""
			if dir, err := resolveConfigDir(); err == nil {
				historyPath = filepath.Join(dir, historyFileName)
				if f, err := os.Open(historyPath); err == nil {
					line.ReadHistory(f)
					f.Close()
				}
			}
			defer func() {
				if historyPath == "" {
					return
				}
				if f, err := os.Create(historyPath); err == nil {
					line.WriteHistory(f)
					f.Close()
				}
			}()

			if _, err := c.queue.Load(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "triage console. Type 'help' for commands.")
			c.queue.List(false)

			for {
				input, err := line.Prompt("triage> ")
				if err != nil {
					if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
						fmt.Fprintln(c.out, "\nBye!")
						return nil
					}
					return fmt.Errorf("reading input: %w", err)
				}
				input = strings.TrimSpace(input)
				if input == "" {
					continue
				}
				line.AppendHistory(input)

				if quit := c.exec(ctx, input); quit {
					fmt.Fprintln(c.out, "Bye!")
					return nil
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		},
	}
	cmd.Flags().String("passphrase", "", "Staff passphrase (default $TRIAGE_PASSPHRASE, else prompt)")
	return cmd
}

// console runs one line-oriented staff session.
type console struct {
	queue *cliadapter.QueueAdapter
	logs  *cliadapter.LogAdapter
	out   io.Writer
	ask   func(prompt string) (string, error)
}

func (c *console) confirm(prompt string) (bool, error) {
	answer, err := c.ask(prompt + " (y/N): ")
	if err != nil {
		return false, err
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

// exec runs one console command and reports whether the session should end.
func (c *console) exec(ctx gocontext.Context, input string) bool {
	parts := strings.Fields(input)
	name := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.printHelp()
	case "list", "ls":
		c.queue.List(len(args) > 0 && args[0] == "shipped")
	case "shipped":
		c.queue.List(true)
	case "reload", "load":
		if _, err = c.queue.Load(ctx); err == nil {
			c.queue.List(false)
		}
	case "move", "mv":
		err = c.move(ctx, args)
	case "ship":
		err = c.withRef(args, func(ref string) error {
			_, err := c.queue.Ship(ctx, ref)
			return err
		})
	case "unship":
		err = c.withRef(args, func(ref string) error {
			_, err := c.queue.Unship(ctx, ref)
			return err
		})
	case "delete", "del", "rm":
		err = c.withRef(args, func(ref string) error {
			_, err := c.queue.Delete(ctx, ref)
			return err
		})
	case "history", "log":
		err = c.history(ctx, args)
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", name)
	}

	if err != nil && !errors.Is(err, cliadapter.ErrCancelled) {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
	return false
}

func (c *console) withRef(args []string, run func(ref string) error) error {
	if len(args) != 1 {
		return fmt.Errorf("want exactly one entry (rank or ID prefix)")
	}
	return run(args[0])
}

func (c *console) move(ctx gocontext.Context, args []string) error {
	partition := cliadapter.PartitionActive
	if len(args) == 3 && args[2] == cliadapter.PartitionShipped {
		partition = cliadapter.PartitionShipped
		args = args[:2]
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: move <entry> <rank> [shipped]")
	}
	rank, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rank must be a number, got %q", args[1])
	}
	_, err = c.queue.Move(ctx, partition, args[0], rank)
	return err
}

func (c *console) history(ctx gocontext.Context, args []string) error {
	if len(args) == 0 {
		_, err := c.logs.History(ctx, primary.LogFilters{Limit: 20})
		return err
	}
	entry, err := c.queue.Resolve(cliadapter.PartitionActive, args[0])
	if err != nil {
		entry, err = c.queue.Resolve(cliadapter.PartitionShipped, args[0])
	}
	if err != nil {
		return err
	}
	_, err = c.logs.Timeline(ctx, entry.ID)
	return err
}

func (c *console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  list [shipped]              show the queue (rank, score, name)
  shipped                     show both partitions
  move <entry> <rank> [shipped]
                              move an entry to a 1-based rank
  ship <entry>                mark an active entry shipped
  unship <entry>              move a shipped entry back to the queue
  delete <entry>              delete an entry
  reload                      re-fetch the queue from the store
  history [entry]             recent activity
  help                        this text
  quit                        end the session

An <entry> is a rank from "list" or a unique ID prefix. A * after the score
marks a hand-placed entry.
`)
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/triage/internal/ports/primary"
)

// Partition names accepted by the queue commands.
const (
	PartitionActive  = "active"
	PartitionShipped = "shipped"
)

// ErrCancelled is returned when the user declines a confirmation prompt.
var ErrCancelled = errors.New("cancelled")

// Confirmer asks the user to confirm a staged action.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// AlwaysConfirm accepts every prompt. Used for --yes.
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

// QueueAdapter is a thin adapter that translates CLI operations to QueueService calls.
type QueueAdapter struct {
	service primary.QueueService
	out     io.Writer
	confirm Confirmer
}

// NewQueueAdapter creates a new QueueAdapter with the given service.
func NewQueueAdapter(service primary.QueueService, out io.Writer, confirm Confirmer) *QueueAdapter {
	return &QueueAdapter{
		service: service,
		out:     out,
		confirm: confirm,
	}
}

// Load refreshes the session view from the store.
func (a *QueueAdapter) Load(ctx context.Context) (*primary.QueueView, error) {
	view, err := a.service.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	return view, nil
}

// List prints the active partition, and the shipped one when showShipped is set.
// It renders the current session view; call Load first.
func (a *QueueAdapter) List(showShipped bool) *primary.QueueView {
	view := a.service.Snapshot()

	if len(view.Active) == 0 {
		fmt.Fprintln(a.out, "Queue is empty.")
	} else {
		a.printPartition("Active", view.Active)
	}

	if showShipped {
		fmt.Fprintln(a.out)
		if len(view.Shipped) == 0 {
			fmt.Fprintln(a.out, "Nothing shipped yet.")
		} else {
			a.printPartition("Shipped", view.Shipped)
		}
	} else if len(view.Shipped) > 0 {
		fmt.Fprintf(a.out, "\n%s\n", color.New(color.FgHiBlack).Sprintf("(%d shipped, use --shipped to show)", len(view.Shipped)))
	}
	return view
}

// printPartition colors whole rows after layout. tabwriter counts escape
// bytes as cell width.
func (a *QueueAdapter) printPartition(title string, entries []*primary.Entry) {
	fmt.Fprintf(a.out, "%s (%d)\n", color.New(color.Bold).Sprint(title), len(entries))

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	shown := displayIDs(ids)

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tSCORE\tNAME\tEMAIL\tID")
	fmt.Fprintln(w, "-\t-----\t----\t-----\t--")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, formatScore(e), e.Name, e.Email, shown[i])
	}
	w.Flush()

	manual := color.New(color.FgCyan)
	lines := strings.SplitAfter(buf.String(), "\n")
	for i, line := range lines {
		if row := i - 2; row >= 0 && row < len(entries) && isManual(entries[row]) {
			line = manual.Sprint(strings.TrimSuffix(line, "\n")) + "\n"
		}
		io.WriteString(a.out, line)
	}
}

// Move places the referenced entry at a 1-based rank within its partition.
func (a *QueueAdapter) Move(ctx context.Context, partition, ref string, rank int) (*primary.ReorderResponse, error) {
	entry, err := a.Resolve(partition, ref)
	if err != nil {
		return nil, err
	}
	resp, err := a.service.Reorder(ctx, primary.ReorderRequest{
		EntryID:   entry.ID,
		Partition: partition,
		Position:  rank - 1,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Changed) == 0 {
		fmt.Fprintf(a.out, "%s is already at #%d\n", entry.Name, rank)
		return resp, nil
	}
	fmt.Fprintf(a.out, "✓ Moved %s to #%d (%d score(s) updated)\n", entry.Name, rank, len(resp.Changed))
	return resp, nil
}

// Ship marks the referenced active entry shipped after confirmation.
func (a *QueueAdapter) Ship(ctx context.Context, ref string) (*primary.ResolveResponse, error) {
	entry, err := a.Resolve(PartitionActive, ref)
	if err != nil {
		return nil, err
	}
	return a.confirmed(ctx, entry, a.service.RequestShipToggle)
}

// Unship moves the referenced shipped entry back to the active queue after confirmation.
func (a *QueueAdapter) Unship(ctx context.Context, ref string) (*primary.ResolveResponse, error) {
	entry, err := a.Resolve(PartitionShipped, ref)
	if err != nil {
		return nil, err
	}
	return a.confirmed(ctx, entry, a.service.RequestShipToggle)
}

// Delete removes the referenced entry after confirmation. The reference is
// looked up in the active partition first, then the shipped one.
func (a *QueueAdapter) Delete(ctx context.Context, ref string) (*primary.ResolveResponse, error) {
	entry, err := a.Resolve(PartitionActive, ref)
	if err != nil {
		var shippedErr error
		entry, shippedErr = a.Resolve(PartitionShipped, ref)
		if shippedErr != nil {
			return nil, err
		}
	}
	return a.confirmed(ctx, entry, a.service.RequestDelete)
}

func (a *QueueAdapter) confirmed(
	ctx context.Context,
	entry *primary.Entry,
	request func(context.Context, string) (*primary.PendingAction, error),
) (*primary.ResolveResponse, error) {
	action, err := request(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	ok, err := a.confirm.Confirm(action.Prompt)
	if err != nil {
		// Release the staged action before reporting the prompt failure
		a.service.Resolve(ctx, primary.ResolveRequest{ActionID: action.ID, Confirmed: false})
		return nil, err
	}

	resp, err := a.service.Resolve(ctx, primary.ResolveRequest{ActionID: action.ID, Confirmed: ok})
	if err != nil {
		return nil, err
	}
	if !resp.Applied {
		fmt.Fprintln(a.out, "Cancelled.")
		return resp, ErrCancelled
	}

	switch action.Kind {
	case "ship":
		fmt.Fprintf(a.out, "✓ Shipped %s\n", action.EntryName)
	case "unship":
		fmt.Fprintf(a.out, "✓ Moved %s back to the active queue\n", action.EntryName)
	case "delete":
		fmt.Fprintf(a.out, "✓ Deleted %s\n", action.EntryName)
	}
	return resp, nil
}

// Resolve finds an entry in the session view by 1-based rank or by a unique
// ID prefix.
func (a *QueueAdapter) Resolve(partition, ref string) (*primary.Entry, error) {
	view := a.service.Snapshot()
	var entries []*primary.Entry
	switch partition {
	case PartitionActive:
		entries = view.Active
	case PartitionShipped:
		entries = view.Shipped
	default:
		return nil, fmt.Errorf("unknown partition %q (want active or shipped)", partition)
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty entry reference")
	}
	// Short numeric references are ranks; longer ones can be all-digit ID prefixes
	if rank, err := strconv.Atoi(ref); err == nil && len(ref) < minIDPrefix {
		if rank < 1 || rank > len(entries) {
			return nil, fmt.Errorf("no entry at #%d in %s (%d entries)", rank, partition, len(entries))
		}
		return entries[rank-1], nil
	}

	var match *primary.Entry
	for _, e := range entries {
		if !strings.HasPrefix(e.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%q matches more than one %s entry", ref, partition)
		}
		match = e
	}
	if match == nil {
		return nil, fmt.Errorf("no %s entry matches %q", partition, ref)
	}
	return match, nil
}

func isManual(e *primary.Entry) bool {
	return e.ManualOverride && e.OverrideScore != nil
}

func formatScore(e *primary.Entry) string {
	if isManual(e) {
		return fmt.Sprintf("%d*", *e.OverrideScore)
	}
	return strconv.FormatFloat(e.PriorityScore, 'f', 2, 64)
}

// minIDPrefix is the shortest ID prefix ever displayed.
const minIDPrefix = 8

// displayIDs returns, for each ID, its shortest prefix of at least
// minIDPrefix characters that no other ID in ids starts with. UUIDv7 IDs
// created close together share their leading timestamp digits, so the
// prefix grows until it reaches the part that differs.
func displayIDs(ids []string) []string {
	shown := make([]string, len(ids))
	for i, id := range ids {
		n := min(minIDPrefix, len(id))
		for j, other := range ids {
			if j == i || other == id {
				continue
			}
			for n < len(id) && strings.HasPrefix(other, id[:n]) {
				n++
			}
		}
		shown[i] = id[:n]
	}
	return shown
}

package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/example/triage/internal/ports/primary"
)

// LogAdapter prints the queue audit log.
type LogAdapter struct {
	service primary.LogService
	out     io.Writer
}

// NewLogAdapter creates a new LogAdapter with the given service.
func NewLogAdapter(service primary.LogService, out io.Writer) *LogAdapter {
	return &LogAdapter{service: service, out: out}
}

// History prints audit entries, newest first.
func (a *LogAdapter) History(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	logs, err := a.service.ListLogs(ctx, filters)
	if err != nil {
		return nil, err
	}
	a.printLogs(logs)
	return logs, nil
}

// Timeline prints the audit trail of one entry, oldest first.
func (a *LogAdapter) Timeline(ctx context.Context, entryID string) ([]*primary.LogEntry, error) {
	logs, err := a.service.EntryTimeline(ctx, entryID)
	if err != nil {
		return nil, err
	}
	a.printLogs(logs)
	return logs, nil
}

func (a *LogAdapter) printLogs(logs []*primary.LogEntry) {
	if len(logs) == 0 {
		fmt.Fprintln(a.out, "No history.")
		return
	}

	ids := make([]string, len(logs))
	for i, l := range logs {
		ids[i] = l.EntryID
	}
	shown := displayIDs(ids)

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTOR\tENTRY\tACTION\tCHANGE")
	for i, l := range logs {
		change := ""
		if l.FieldName != "" {
			change = fmt.Sprintf("%s: %s → %s", l.FieldName, orDash(l.OldValue), orDash(l.NewValue))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			l.CreatedAt.Local().Format(time.DateTime),
			orDash(l.ActorID),
			shown[i],
			l.Action,
			change,
		)
	}
	w.Flush()
}

// Prune deletes audit entries older than days.
func (a *LogAdapter) Prune(ctx context.Context, days int) (int, error) {
	n, err := a.service.PruneLogs(ctx, days)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(a.out, "✓ Pruned %d history entries older than %d days\n", n, days)
	return n, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Session string
	Owner   uint32 // optional - filter entries to one owner
}

// TraceResult holds the trace output for one session.
type TraceResult struct {
	Session journal.SessionInfo `json:"session"`
	Entries []journal.Entry     `json:"entries"`
	Stats   TraceStats          `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Entries    int `json:"entries"`
	Owners     int `json:"owners"`
	Properties int `json:"properties"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [journal]",
		Short: "Read recorded change journals",
		Long: `Read the change journal written by "ontostore run --journal".

Without --session, lists every recorded session. With --session, shows
the changes delivered in that session in delivery order. The journal path
defaults to ONTOSTORE_JOURNAL.

Examples:
  ontostore trace ./runs.db
  ontostore trace ./runs.db --session 0192f5e0-...
  ontostore trace ./runs.db --session 0192f5e0-... --owner 3 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.Config.Journal
			if len(args) == 1 {
				path = args[0]
			}
			return runTrace(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to show")
	cmd.Flags().Uint32Var(&opts.Owner, "owner", 0, "filter entries to one owner id")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	if path == "" {
		return NewExitError(ExitCommandError, "journal path required (argument or ONTOSTORE_JOURNAL)")
	}
	if _, err := os.Stat(path); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}
	if opts.Owner != 0 && opts.Session == "" {
		return NewExitError(ExitCommandError, "--owner requires --session")
	}

	j, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if opts.Session == "" {
		sessions, err := j.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		return formatter.Success(sessions, func(w io.Writer) {
			outputSessionsText(w, sessions)
		})
	}

	info, err := j.Session(ctx, opts.Session)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	var entries []journal.Entry
	if opts.Owner != 0 {
		entries, err = j.EntriesFor(ctx, info.ID, ir.ID(opts.Owner))
	} else {
		entries, err = j.Entries(ctx, info.ID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entries", err)
	}

	result := TraceResult{
		Session: info,
		Entries: entries,
		Stats:   traceStats(entries),
	}
	return formatter.Success(result, func(w io.Writer) {
		outputTraceText(w, result, opts.Verbose)
	})
}

func traceStats(entries []journal.Entry) TraceStats {
	owners := make(map[ir.ID]bool)
	stats := TraceStats{Entries: len(entries)}
	for _, e := range entries {
		owners[e.Owner] = true
		stats.Properties += len(e.Properties)
	}
	stats.Owners = len(owners)
	return stats
}

func outputSessionsText(w io.Writer, sessions []journal.SessionInfo) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	fmt.Fprintf(w, "=== Sessions (%d) ===\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s  %-24s %4d entries  schema %s\n",
			s.ID, s.Label, s.Entries, truncateID(s.SchemaHash))
	}
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Trace for Session: %s\n", result.Session.ID)
	fmt.Fprintf(w, "Label: %s\n", result.Session.Label)
	fmt.Fprintf(w, "Schema: %s\n", truncateID(result.Session.SchemaHash))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Changes ===")
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "  (no changes)")
	}
	for _, e := range result.Entries {
		fmt.Fprintf(w, "  [%d] #%d {%s}\n", e.Seq, e.Owner, strings.Join(e.Properties, ", "))
		if verbose {
			fmt.Fprintf(w, "       At: %s\n", e.RecordedAt.Format("2006-01-02T15:04:05.000Z07:00"))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Changes:    %d\n", result.Stats.Entries)
	fmt.Fprintf(w, "  Owners:     %d\n", result.Stats.Owners)
	fmt.Fprintf(w, "  Properties: %d\n", result.Stats.Properties)
}

// truncateID truncates a long hash for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

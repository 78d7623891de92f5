package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	ThreadID string // optional - show one thread's captures
	Capture  string // optional - show a single capture by ID
}

// ThreadSummary is one recorded thread with its capture count.
type ThreadSummary struct {
	ir.ThreadRecord
	Captures int `json:"captures"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	ThreadID      string                  `json:"thread_id,omitempty"`
	Threads       []ThreadSummary         `json:"threads,omitempty"`
	Captures      []ir.CaptureRecord      `json:"captures"`
	Invalidations []ir.InvalidationRecord `json:"invalidations"`
	Stats         TraceStats              `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Threads       int `json:"threads"`
	Captures      int `json:"captures"`
	Frames        int `json:"frames"`
	Invalidations int `json:"invalidations"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded captures and invalidations",
		Long: `Inspect what a recorded run left in the database.

Without --thread, lists every recorded thread with its capture count.
With --thread, shows that thread's captured stacks in order. The
invalidation log is shown in both cases. --capture shows one capture
by its content-addressed ID.

Examples:
  assume trace --db ./assume.db
  assume trace --db ./assume.db --thread 0192f7a3-...
  assume trace --db ./assume.db --capture 3f2a... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ThreadID, "thread", "", "thread ID to trace")
	cmd.Flags().StringVar(&opts.Capture, "capture", "", "capture ID to show")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// store.Open creates missing databases; tracing one is a user error.
	if _, err := os.Stat(opts.Database); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	invalidations, err := st.ReadInvalidations(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read invalidations", err)
	}

	result := TraceResult{
		ThreadID:      opts.ThreadID,
		Captures:      []ir.CaptureRecord{},
		Invalidations: invalidations,
	}

	switch {
	case opts.Capture != "":
		c, err := st.ReadCapture(ctx, opts.Capture)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("capture not found: %s", opts.Capture))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read capture", err)
		}
		result.ThreadID = c.ThreadID
		result.Captures = append(result.Captures, c)

	case opts.ThreadID != "":
		result.Captures, err = st.ReadCaptures(ctx, opts.ThreadID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read captures", err)
		}

	default:
		result.Threads, result.Captures, err = summarizeThreads(ctx, st)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list threads", err)
		}
	}

	result.Stats = TraceStats{
		Threads:       len(result.Threads),
		Captures:      len(result.Captures),
		Invalidations: len(result.Invalidations),
	}
	for _, c := range result.Captures {
		result.Stats.Frames += len(c.Frames)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// summarizeThreads lists threads with their capture counts and returns
// every capture in thread order.
func summarizeThreads(ctx context.Context, st *store.Store) ([]ThreadSummary, []ir.CaptureRecord, error) {
	threads, err := st.ListThreads(ctx)
	if err != nil {
		return nil, nil, err
	}

	summaries := make([]ThreadSummary, 0, len(threads))
	captures := []ir.CaptureRecord{}
	for _, th := range threads {
		cs, err := st.ReadCaptures(ctx, th.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("thread %s: %w", th.ID, err)
		}
		summaries = append(summaries, ThreadSummary{ThreadRecord: th, Captures: len(cs)})
		captures = append(captures, cs...)
	}
	return summaries, captures, nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	if result.ThreadID != "" {
		fmt.Fprintf(w, "Trace for Thread: %s\n\n", result.ThreadID)
	} else {
		fmt.Fprintln(w, "=== Threads ===")
		if len(result.Threads) == 0 {
			fmt.Fprintln(w, "  (no threads)")
		}
		for _, th := range result.Threads {
			fmt.Fprintf(w, "  [%d] %s %s: %d capture(s)\n", th.Seq, th.ID, th.Program, th.Captures)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=== Captures ===")
	if len(result.Captures) == 0 {
		fmt.Fprintln(w, "  (no captures)")
	}
	for _, c := range result.Captures {
		fmt.Fprintf(w, "  [%d] %s\n", c.Seq, c.Error)
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(c.ID))
			if result.ThreadID == "" {
				fmt.Fprintf(w, "       Thread: %s\n", c.ThreadID)
			}
		}
		if len(c.Frames) == 0 {
			fmt.Fprintln(w, "       (empty stack)")
		}
		for _, f := range c.Frames {
			fmt.Fprintf(w, "       at %s\n", formatFrame(f))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Invalidations ===")
	if len(result.Invalidations) == 0 {
		fmt.Fprintln(w, "  (no invalidations)")
	}
	for _, inv := range result.Invalidations {
		if inv.Reason != "" {
			fmt.Fprintf(w, "  [%d] %s: %s\n", inv.Seq, inv.Flag, inv.Reason)
		} else {
			fmt.Fprintf(w, "  [%d] %s\n", inv.Seq, inv.Flag)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	if result.ThreadID == "" {
		fmt.Fprintf(w, "  Threads:       %d\n", result.Stats.Threads)
	}
	fmt.Fprintf(w, "  Captures:      %d\n", result.Stats.Captures)
	fmt.Fprintf(w, "  Frames:        %d\n", result.Stats.Frames)
	fmt.Fprintf(w, "  Invalidations: %d\n", result.Stats.Invalidations)

	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

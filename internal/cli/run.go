package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/assume/internal/compiler"
	"github.com/roach88/assume/internal/engine"
	"github.com/roach88/assume/internal/interp"
	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/stacktrace"
	"github.com/roach88/assume/internal/store"
)

// ErrCodeGuestFailure marks a run whose entry function failed with a
// guest error rather than a runtime error.
const ErrCodeGuestFailure = "GUEST_FAILURE"

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database          string
	Entry             string
	Args              []string // YAML values
	MaxDepth          int
	RespecializeLimit int

	// ThreadIDs overrides the thread ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	ThreadIDs engine.ThreadIDGenerator
}

// RunResult is the outcome of running one program.
type RunResult struct {
	Program  string                      `json:"program"`
	ThreadID string                      `json:"thread_id"`
	Entry    string                      `json:"entry"`
	Result   ir.IRValue                  `json:"result,omitempty"`
	Error    string                      `json:"error,omitempty"`
	Captured bool                        `json:"captured,omitempty"`
	Frames   []ir.FrameRecord            `json:"frames,omitempty"`
	Respecs  map[string]int              `json:"respecializations,omitempty"`
	Warnings []compiler.RecursionWarning `json:"warnings,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a program's entry function",
		Long: `Run a CUE guest program on a fresh thread.

The program is compiled and validated, its functions are registered with
the runtime and the entry function is invoked. A failure prints the error
with its captured stack. With --db, the thread, every capture and every
invalidation are recorded in a SQLite database (created if missing).

Examples:
  assume run ./orders.cue
  assume run ./orders.cue --entry reject --db ./assume.db
  assume run ./orders.cue --arg 42 --arg '{sku: abc}' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for recording")
	cmd.Flags().StringVar(&opts.Entry, "entry", "", "function to invoke (default: the program's entry)")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "argument as a YAML value (repeatable)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", engine.DefaultMaxDepth, "maximum frame depth per thread")
	cmd.Flags().IntVar(&opts.RespecializeLimit, "respecialize-limit", engine.DefaultRespecializeLimit,
		"respecializations per guard site before it goes generic")

	return cmd
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd, opts.Verbose)

	prog, err := LoadProgram(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputRunError(formatter, loadErr.Code, loadErr.Error())
		}
		return outputRunError(formatter, ErrCodeGeneric, err.Error())
	}
	if errs := compiler.Validate(prog); len(errs) > 0 {
		return outputValidationErrors(formatter, ValidationResult{Program: prog.Name, Errors: errs})
	}

	args, err := parseArgs(opts.Args)
	if err != nil {
		return outputRunError(formatter, ErrCodeGeneric, err.Error())
	}

	entry := opts.Entry
	if entry == "" {
		entry = prog.Entry
	}
	if _, ok := prog.Function(entry); !ok {
		return outputRunError(formatter, string(engine.ErrCodeUnknownTarget),
			fmt.Sprintf("program %s has no function %q", prog.Name, entry))
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxDepth(opts.MaxDepth),
		engine.WithRespecializeLimit(opts.RespecializeLimit),
	}
	if opts.ThreadIDs != nil {
		engineOpts = append(engineOpts, engine.WithThreadIDGenerator(opts.ThreadIDs))
	}

	if opts.Database != "" {
		logger.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return outputRunError(formatter, ErrCodeLoadFailed, fmt.Sprintf("failed to open database: %v", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		last, err := st.LastSeq(parentCtx)
		if err != nil {
			return outputRunError(formatter, ErrCodeLoadFailed, err.Error())
		}
		engineOpts = append(engineOpts, engine.WithStore(st), engine.WithClock(engine.NewClockAt(last)))
	}

	rt := engine.New(engineOpts...)
	if err := interp.Load(rt, prog); err != nil {
		return outputRunError(formatter, ErrCodeGeneric, err.Error())
	}

	ctx, cancel := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	recorderDone := make(chan error, 1)
	go func() {
		recorderDone <- rt.Run(ctx)
	}()

	th := rt.NewThread(prog.Name)
	logger.Debug("invoking entry", "thread_id", th.ID(), "target", entry, "args", len(args))
	value, invokeErr := interp.Invoke(th, entry, args...)

	rt.Stop()
	if err := <-recorderDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("recorder stopped with error", "error", err)
	}

	result := RunResult{
		Program:  prog.Name,
		ThreadID: th.ID(),
		Entry:    entry,
		Warnings: compiler.AnalyzeRecursion(prog),
		Respecs:  respecializations(rt, prog.Flags),
	}
	if invokeErr == nil {
		result.Result = value
		return outputRunSuccess(formatter, result)
	}

	result.Error = invokeErr.Error()
	if trace, ok := stacktrace.Find(invokeErr); ok {
		result.Captured = true
		result.Frames = engine.FrameRecords(trace)
	}
	return outputRunFailure(formatter, failureCode(invokeErr), result)
}

// parseArgs decodes each --arg as YAML, so "42", "true", "[1, 2]" and
// "{sku: abc}" all become typed guest values.
func parseArgs(raw []string) ([]ir.IRValue, error) {
	args := make([]ir.IRValue, 0, len(raw))
	for i, s := range raw {
		var decoded interface{}
		if err := yaml.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("--arg[%d]: %w", i, err)
		}
		v, err := ir.FromGo(decoded)
		if err != nil {
			return nil, fmt.Errorf("--arg[%d]: %w", i, err)
		}
		args = append(args, v)
	}
	return args, nil
}

func respecializations(rt *engine.Runtime, flags []string) map[string]int {
	counts := make(map[string]int)
	for _, flag := range flags {
		if n := rt.Respecializations(flag); n > 0 {
			counts[flag] = n
		}
	}
	return counts
}

func failureCode(err error) string {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	if engine.IsStackOverflow(err) {
		return string(engine.ErrCodeStackOverflow)
	}
	return ErrCodeGuestFailure
}

func outputRunSuccess(formatter *OutputFormatter, result RunResult) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s.%s returned %s\n", result.Program, result.Entry, formatResult(result.Result))
	fmt.Fprintf(w, "  thread: %s\n", result.ThreadID)
	writeRespecializations(formatter, result.Respecs)
	writeWarnings(formatter, result.Warnings)
	return nil
}

// outputRunFailure reports a failed entry invocation (exit code 1).
func outputRunFailure(formatter *OutputFormatter, code string, result RunResult) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, result.Error))

	if formatter.IsJSON() {
		if err := formatter.Failure(code, result.Error, result); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✗ %s.%s failed [%s]: %s\n", result.Program, result.Entry, code, result.Error)
	fmt.Fprintf(w, "  thread: %s\n", result.ThreadID)
	if !result.Captured {
		fmt.Fprintln(w, "  (no stack captured)")
	}
	for _, f := range result.Frames {
		fmt.Fprintf(w, "    at %s\n", formatFrame(f))
	}
	writeRespecializations(formatter, result.Respecs)
	writeWarnings(formatter, result.Warnings)
	return exitErr
}

// outputRunError reports a command-level failure (exit code 2).
func outputRunError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func writeRespecializations(formatter *OutputFormatter, counts map[string]int) {
	flags := make([]string, 0, len(counts))
	for flag := range counts {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	for _, flag := range flags {
		fmt.Fprintf(formatter.Writer, "  respecialized on %s: %d\n", flag, counts[flag])
	}
}

func formatResult(v ir.IRValue) string {
	if v == nil {
		return "null"
	}
	return ir.Format(v)
}

// formatFrame renders a frame as "target (location) [internal]".
func formatFrame(f ir.FrameRecord) string {
	s := f.Target
	if f.Location != "" {
		s += " (" + f.Location + ")"
	} else {
		s += " (<unknown>)"
	}
	if f.Internal {
		s += " [internal]"
	}
	return s
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/assume/internal/compiler"
	"github.com/roach88/assume/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	Functions int `json:"functions"`
	Internal  int `json:"internal"`
	Native    int `json:"native"`
	Steps     int `json:"steps"`
	Flags     int `json:"flags"`
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Program *ir.Program      `json:"program"`
	Stats   CompilationStats `json:"stats"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program>",
		Short: "Compile a CUE program to IR",
		Long: `Compile a CUE guest program to its IR form.

The compiler parses the CUE source, checks it against the program schema,
runs validation and writes the program as JSON for inspection.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prog, err := LoadProgram(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			if loadErr.Pos.IsValid() {
				return outputCompileError(formatter, loadErr.Code, loadErr.Error())
			}
			return outputCompileError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}

	for _, fn := range prog.Functions {
		formatter.VerboseLog("Compiled function: %s (%d steps)", fn.Name, len(fn.Body))
	}

	if errs := compiler.Validate(prog); len(errs) > 0 {
		return outputValidationErrors(formatter, ValidationResult{
			Program: prog.Name,
			Errors:  errs,
		})
	}

	result := CompilationResult{Program: prog, Stats: calculateStats(prog)}

	if opts.Output != "" {
		if err := writeIRToFile(prog, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func calculateStats(prog *ir.Program) CompilationStats {
	stats := CompilationStats{
		Functions: len(prog.Functions),
		Flags:     len(prog.Flags),
	}
	for _, fn := range prog.Functions {
		stats.Steps += len(fn.Body)
		if fn.Internal {
			stats.Internal++
		}
		if fn.Native {
			stats.Native++
		}
	}
	return stats
}

func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	prog := result.Program
	fmt.Fprintf(w, "✓ Compiled %s: %d function(s), %d step(s), %d flag(s)\n\n",
		prog.Name, result.Stats.Functions, result.Stats.Steps, result.Stats.Flags)

	fmt.Fprintln(w, "Functions:")
	for _, fn := range prog.Functions {
		var tags string
		if fn.Internal {
			tags += " [internal]"
		}
		if fn.Native {
			tags += " [native]"
		}
		marker := ""
		if fn.Name == prog.Entry {
			marker = " (entry)"
		}
		fmt.Fprintf(w, "  %s%s: %d step(s)%s\n", fn.Name, marker, len(fn.Body), tags)
	}
	fmt.Fprintln(w)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote IR to %s\n", outputFile)
	}
	return nil
}

// outputCompileError reports a command-level failure (exit code 2).
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// writeIRToFile writes the program as indented JSON.
func writeIRToFile(prog *ir.Program, filename string) error {
	data, err := json.MarshalIndent(prog, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

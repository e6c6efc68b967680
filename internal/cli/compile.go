package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/trycatch/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled tables and their version hashes.
type CompilationResult struct {
	Tables []ir.TableSpec     `json:"tables"`
	Hashes map[string]string `json:"hashes"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <tables>",
		Short: "Compile CUE tables to IR",
		Long: `Compile CUE dispatch tables to IR.

<tables> is a .cue file or a directory of .cue files. Each table is
printed with its arm count and version hash; --output writes the IR
as JSON.`,
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
	formatter := NewOutputFormatter(opts.RootOptions, cmd)

	specs, loadErr := LoadTables(path)
	if loadErr != nil {
		return outputLoadError(formatter, loadErr)
	}

	result := &CompilationResult{
		Tables: specs,
		Hashes: make(map[string]string, len(specs)),
	}
	for _, spec := range specs {
		formatter.VerboseLog("Compiled table: %s (%d arm(s))", spec.Name, len(spec.Arms))
		hash, err := ir.TableHash(spec)
		if err != nil {
			return outputLoadError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("hashing table %q: %v", spec.Name, err)})
		}
		result.Hashes[spec.Name] = hash
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return outputLoadError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s Compiled %d table(s)\n\n", formatter.Mark(true), len(specs))
	for _, spec := range specs {
		fmt.Fprintf(formatter.Writer, "  %s: %d arm(s) %s\n", spec.Name, len(spec.Arms), shortHash(result.Hashes[spec.Name]))
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote IR to %s\n", opts.Output)
	}
	return nil
}

// outputLoadError reports a load failure. Load failures are command
// errors (exit code 2).
func outputLoadError(formatter *OutputFormatter, loadErr *LoadError) error {
	message := loadErr.Message
	if loadErr.Pos.IsValid() {
		message = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), message)
	}
	_ = formatter.Error(loadErr.Code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, message))
}

// writeIRToFile writes the compilation result as indented JSON.
// Canonical JSON is used only for hashing.
func writeIRToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

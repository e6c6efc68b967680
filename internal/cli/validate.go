package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trycatch/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Tables int                        `json:"tables"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <tables>",
		Short: "Check tables for schema and pattern errors",
		Long: `Check CUE dispatch tables without executing them.

Reports every schema error: unknown type names, duplicate bindings,
misplaced rests, literals the arm type cannot hold, unparsable format
templates and arms shadowed by an earlier catch-all.

Exit codes:
  0 - All tables valid
  1 - One or more validation errors
  2 - Command error (path not found, CUE syntax error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts, cmd)

	specs, loadErr := LoadTables(path)
	if loadErr != nil {
		if loadErr.Code != ErrCodeCompileFailed {
			return outputLoadError(formatter, loadErr)
		}
		// A table that does not fit the format is a validation failure
		line := 0
		if loadErr.Pos.IsValid() {
			line = loadErr.Pos.Line()
		}
		return outputValidationErrors(formatter, 0, []compiler.ValidationError{{
			Field:   "compile",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    line,
		}})
	}

	for _, spec := range specs {
		formatter.VerboseLog("Validating table: %s", spec.Name)
	}
	if errs := compiler.Validate(specs); len(errs) > 0 {
		return outputValidationErrors(formatter, len(specs), errs)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Tables: len(specs)})
	}
	fmt.Fprintf(formatter.Writer, "%s All %d table(s) valid\n", formatter.Mark(true), len(specs))
	return nil
}

// outputValidationErrors reports validation failures (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, tables int, errs []compiler.ValidationError) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.JSON(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Tables: tables, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", formatter.Mark(false))
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return exitErr
}

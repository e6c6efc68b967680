package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trycatch/internal/catch"
	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/journal"
	"github.com/roach88/trycatch/internal/lower"
	"github.com/roach88/trycatch/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Table    string
	Type     string
	Payload  string
	Complete string
	Database string

	// IDs overrides the dispatch ID generator (for testing).
	// If nil, defaults to journal.UUIDv7Generator.
	IDs journal.IDGenerator
}

// RunResult is the outcome of one dispatch.
type RunResult struct {
	Table      string      `json:"table"`
	Status     string      `json:"status"`
	Arm        int         `json:"arm"`
	Label      string      `json:"label,omitempty"`
	Bindings   ir.IRObject `json:"bindings,omitempty"`
	Result     ir.IRValue  `json:"result,omitempty"`
	Panic      string      `json:"panic,omitempty"`
	DispatchID string      `json:"dispatch_id,omitempty"`
	Seq        int64       `json:"seq,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tables>",
		Short: "Dispatch one payload through a table",
		Long: `Dispatch one computation through a table and report the outcome.

With --payload the computation panics with a value of --type, decoded
from JSON. With --complete it returns the given JSON value. With --db
the dispatch is journaled to a SQLite database.

Exit codes:
  0 - Completed or handled
  1 - The payload was rethrown or the handler panicked
  2 - Command error (table not found, bad payload, etc.)

Examples:
  trycatch run ./tables --table slices --type '[]string' --payload '["this","is","it"]'
  trycatch run ./tables --table slices --type int --payload 5 --db ./journal.db
  trycatch run ./tables --table slices --complete '"done"'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table name (required)")
	_ = cmd.MarkFlagRequired("table")
	cmd.Flags().StringVar(&opts.Type, "type", "", "payload type name, e.g. int or []string")
	cmd.Flags().StringVar(&opts.Payload, "payload", "", "panic payload as JSON")
	cmd.Flags().StringVar(&opts.Complete, "complete", "", "return value as JSON")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal dispatches to this SQLite database")
	cmd.MarkFlagsOneRequired("payload", "complete")
	cmd.MarkFlagsMutuallyExclusive("payload", "complete")

	return cmd
}

func runDispatch(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd)
	logger := opts.logger(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	prog, loadErr := LoadProgram(path, opts.Table)
	if loadErr != nil {
		return outputLoadError(formatter, loadErr)
	}

	protected, err := protectedFromFlags(opts, cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid input", err)
	}

	var (
		obs catch.Observer
		j   *journal.Journal
		rec func() ir.DispatchRecord
	)
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		if _, err := st.WriteTable(ctx, prog.Spec); err != nil {
			return WrapExitError(ExitCommandError, "failed to record table", err)
		}
		maxSeq, err := st.MaxSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}

		jopts := []journal.Option{
			journal.WithClock(journal.NewClockAt(maxSeq)),
			journal.WithLogger(logger),
			journal.WithContext(ctx),
		}
		if opts.IDs != nil {
			jopts = append(jopts, journal.WithIDGenerator(opts.IDs))
		}
		j = journal.ForProgram(st, prog, jopts...)
		d := j.ForDispatch()
		obs, rec = d, d.Record
	}

	logger.Info("dispatching", "table", prog.Spec.Name, "arms", len(prog.Spec.Arms))
	ex := prog.Execute(protected, obs, catch.WithLogger(logger))

	result := RunResult{
		Table:  prog.Spec.Name,
		Status: ex.Status(),
		Arm:    ex.Arm,
		Label:  ex.Label,
		Result: ex.Value,
	}
	if ex.Outcome == ir.OutcomeMatched {
		if b, err := lower.EncodeBindings(ex.Bindings); err == nil {
			result.Bindings = b
		} else {
			logger.Warn("bindings not encodable", "error", err)
		}
	}
	if ex.Panic != nil {
		result.Panic = fmt.Sprint(ex.Panic)
	}
	if rec != nil {
		r := rec()
		result.DispatchID, result.Seq = r.ID, r.Seq
	}

	if err := outputRunResult(formatter, result); err != nil {
		return err
	}

	if j != nil {
		if err := j.Err(); err != nil {
			return WrapExitError(ExitCommandError, "journal write failed", err)
		}
	}
	if ex.Panic != nil {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", result.Status, result.Panic))
	}
	return nil
}

// protectedFromFlags builds the computation to dispatch.
func protectedFromFlags(opts *RunOptions, cmd *cobra.Command) (func() ir.IRValue, error) {
	if cmd.Flags().Changed("complete") {
		v, err := ir.UnmarshalIRValue([]byte(opts.Complete))
		if err != nil {
			return nil, fmt.Errorf("--complete: %w", err)
		}
		return func() ir.IRValue { return v }, nil
	}

	if opts.Type == "" {
		return nil, fmt.Errorf("--type is required with --payload")
	}
	payload, err := lower.DecodePayload(opts.Type, []byte(opts.Payload))
	if err != nil {
		return nil, fmt.Errorf("--payload: %w", err)
	}
	return func() ir.IRValue { panic(payload) }, nil
}

func outputRunResult(formatter *OutputFormatter, result RunResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	switch result.Status {
	case string(ir.OutcomeCompleted):
		fmt.Fprintf(w, "%s completed\n", formatter.Mark(true))
	case string(ir.OutcomeMatched):
		fmt.Fprintf(w, "%s matched arm %d%s\n", formatter.Mark(true), result.Arm, labelSuffix(result.Label))
	case lower.HandlerPanic:
		fmt.Fprintf(w, "%s handler of arm %d%s panicked: %s\n", formatter.Mark(false), result.Arm, labelSuffix(result.Label), result.Panic)
	default:
		fmt.Fprintf(w, "%s rethrown: %s\n", formatter.Mark(false), result.Panic)
	}

	if len(result.Bindings) > 0 {
		fmt.Fprintf(w, "  bindings: %s\n", ir.MustMarshalCanonical(result.Bindings))
	}
	if result.Result != nil {
		fmt.Fprintf(w, "  result:   %s\n", ir.MustMarshalCanonical(result.Result))
	}
	if result.DispatchID != "" {
		fmt.Fprintf(w, "  journal:  %s (seq %d)\n", result.DispatchID, result.Seq)
	}
	return nil
}

func labelSuffix(label string) string {
	if label == "" {
		return ""
	}
	return " (" + label + ")"
}

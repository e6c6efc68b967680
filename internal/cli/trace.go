package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/queryir"
	"github.com/roach88/trycatch/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Table    string
	Outcome  string // optional filters
	Arm      int
	Label    string
	Type     string
	Limit    int
}

// TraceResult holds the journal of one table.
type TraceResult struct {
	Table      string              `json:"table"`
	Dispatches []ir.DispatchRecord `json:"dispatches"`
	Versions   []string            `json:"versions"`
	Stats      TraceStats          `json:"stats"`
}

// TraceStats holds per-outcome dispatch counts.
type TraceStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Matched   int `json:"matched"`
	Rethrown  int `json:"rethrown"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal of a table",
		Long: `Show the journaled dispatches of a table in seq order.

Each line shows the dispatch outcome, the arm that handled it and the
payload. Filters narrow the listed dispatches; stats always count the
whole journal of the table.

Examples:
  trycatch trace --db ./journal.db --table slices
  trycatch trace --db ./journal.db --table slices --outcome rethrown
  trycatch trace --db ./journal.db --table slices --arm 2 --limit 10
  trycatch trace --db ./journal.db --table slices --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table name (required)")
	_ = cmd.MarkFlagRequired("table")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only show dispatches with this outcome")
	cmd.Flags().IntVar(&opts.Arm, "arm", 0, "only show dispatches handled by this arm")
	cmd.Flags().StringVar(&opts.Label, "label", "", "only show dispatches handled by the arm with this label")
	cmd.Flags().StringVar(&opts.Type, "type", "", "only show dispatches with this payload type")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many dispatches")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	query := traceQuery(opts, cmd)
	if err := queryir.Validate(query); err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.QueryDispatches(ctx, query)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	counts, err := st.CountOutcomes(ctx, opts.Table)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count outcomes", err)
	}
	versions, err := st.ReadTableVersions(ctx, opts.Table)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read table versions", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	result := TraceResult{
		Table:      opts.Table,
		Dispatches: recs,
		Versions:   make([]string, len(versions)),
		Stats: TraceStats{
			Total:     total,
			Completed: counts[ir.OutcomeCompleted],
			Matched:   counts[ir.OutcomeMatched],
			Rethrown:  counts[ir.OutcomeRethrown],
		},
	}
	for i, v := range versions {
		result.Versions[i] = v.Hash
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputTraceText(formatter, result)
	return nil
}

// openExisting opens a database that must already exist; store.Open
// would silently create an empty one.
func openExisting(path string) (*store.Store, error) {
	if err := checkFileExists(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// traceQuery builds the journal query for the filter flags that were set.
func traceQuery(opts *TraceOptions, cmd *cobra.Command) queryir.Select {
	var preds []queryir.Predicate
	if opts.Outcome != "" {
		preds = append(preds, queryir.Equals{Field: queryir.FieldOutcome, Value: ir.IRString(opts.Outcome)})
	}
	if cmd.Flags().Changed("arm") {
		preds = append(preds, queryir.Equals{Field: queryir.FieldArm, Value: ir.IRInt(opts.Arm)})
	}
	if opts.Label != "" {
		preds = append(preds, queryir.Equals{Field: queryir.FieldLabel, Value: ir.IRString(opts.Label)})
	}
	if opts.Type != "" {
		preds = append(preds, queryir.Equals{Field: queryir.FieldPayloadType, Value: ir.IRString(opts.Type)})
	}
	q := queryir.ForTable(opts.Table, preds...)
	q.Limit = opts.Limit
	return q
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) {
	w := formatter.Writer
	if result.Stats.Total == 0 {
		fmt.Fprintf(w, "No dispatches found for table: %s\n", result.Table)
		return
	}

	fmt.Fprintf(w, "Table: %s\n\n", result.Table)
	for _, r := range result.Dispatches {
		fmt.Fprintf(w, "[%d] %s %s", r.Seq, truncateID(r.ID), r.Outcome)
		if r.Outcome == ir.OutcomeMatched {
			fmt.Fprintf(w, " arm %d%s", r.Arm, labelSuffix(r.Label))
		}
		if r.PayloadType != "" {
			fmt.Fprintf(w, " %s %s", r.PayloadType, formatValue(r.Payload))
		}
		if len(r.Bindings) > 0 {
			fmt.Fprintf(w, " %s", formatValue(r.Bindings))
		}
		fmt.Fprintln(w)
	}

	s := result.Stats
	fmt.Fprintf(w, "\n%d dispatch(es): %d completed, %d matched, %d rethrown\n", s.Total, s.Completed, s.Matched, s.Rethrown)
	if len(result.Versions) > 1 {
		fmt.Fprintf(w, "%d table versions recorded\n", len(result.Versions))
	}
}

func formatValue(v ir.IRValue) string {
	if v == nil {
		return "null"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// truncateID shortens UUIDs for display.
func truncateID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}

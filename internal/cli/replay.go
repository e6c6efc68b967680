package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/trycatch/internal/replay"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Table    string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <tables>",
		Short: "Replay journaled payloads against the current table",
		Long: `Replay every journaled payload of a table against its current
definition and report where dispatch would now differ.

Handlers are not run: replay compares the selected arm and its bindings
with the journal. A changed table hash is reported but is only a
failure when it changes an outcome, an arm or the bindings.

Exit codes:
  0 - Every replayed dispatch agrees with the journal
  1 - Divergence detected
  2 - Command error (database not found, etc.)

Examples:
  trycatch replay ./tables --db ./journal.db --table slices
  trycatch replay ./tables --db ./journal.db --table slices --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table name (required)")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	prog, loadErr := LoadProgram(path, opts.Table)
	if loadErr != nil {
		return outputLoadError(formatter, loadErr)
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := replay.Run(ctx, st, prog, replay.WithLogger(opts.logger(cmd)))
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	if formatter.Format == "json" {
		status := "ok"
		if !report.OK() {
			status = "error"
		}
		if err := formatter.JSON(CLIResponse{Status: status, Data: report}); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, report)
	}

	if !report.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("replay diverged on table %q", report.Table))
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, report *replay.Report) {
	w := formatter.Writer
	if report.Total == 0 {
		fmt.Fprintf(w, "No dispatches found for table: %s\n", report.Table)
		return
	}

	fmt.Fprintf(w, "%s %s: %d of %d dispatch(es) replayed\n",
		formatter.Mark(report.OK()), report.Table, report.Replayed, report.Total)
	for _, d := range report.Divergences {
		fmt.Fprintf(w, "  [%d] %s %s: journal %s, now %s\n", d.Seq, truncateID(d.ID), d.Kind, shortValue(d.Recorded), shortValue(d.Replayed))
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "  [%d] %s skipped: %s\n", s.Seq, truncateID(s.ID), s.Reason)
	}
}

// shortValue shortens hashes in divergence output.
func shortValue(s string) string {
	if len(s) == 64 {
		return shortHash(s)
	}
	return s
}

func checkFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

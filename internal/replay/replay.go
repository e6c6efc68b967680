// Package replay re-dispatches journaled payloads against a table and
// reports where the table's decisions differ from the journal.
//
// Replay selects arms without running handlers, so panic and format
// handlers have no effect. Completed dispatches carry no payload and are
// counted without re-execution.
package replay

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/lower"
)

// Reader loads journaled dispatches. *store.Store implements it.
type Reader interface {
	ReadDispatches(ctx context.Context, table string) ([]ir.DispatchRecord, error)
}

// Divergence kinds.
const (
	KindTableHash = "table_hash"
	KindOutcome   = "outcome"
	KindArm       = "arm"
	KindBindings  = "bindings"
)

// Divergence is one difference between a journaled dispatch and its replay.
type Divergence struct {
	ID       string `json:"id"`
	Seq      int64  `json:"seq"`
	Kind     string `json:"kind"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// Skip is a journaled dispatch that could not be replayed.
type Skip struct {
	ID     string `json:"id"`
	Seq    int64  `json:"seq"`
	Reason string `json:"reason"`
}

// Report summarizes a replay.
type Report struct {
	Table       string       `json:"table"`
	TableHash   string       `json:"table_hash"`
	Total       int          `json:"total"`
	Replayed    int          `json:"replayed"`
	Divergences []Divergence `json:"divergences"`
	Skipped     []Skip       `json:"skipped"`
}

// OK reports whether every replayed dispatch agreed with the journal,
// ignoring table hash changes.
func (r *Report) OK() bool {
	for _, d := range r.Divergences {
		if d.Kind != KindTableHash {
			return false
		}
	}
	return true
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run replays every journaled dispatch of prog's table.
func Run(ctx context.Context, r Reader, prog *lower.Program, opts ...Option) (*Report, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	recs, err := r.ReadDispatches(ctx, prog.Spec.Name)
	if err != nil {
		return nil, fmt.Errorf("replay %q: %w", prog.Spec.Name, err)
	}

	report := &Report{
		Table:       prog.Spec.Name,
		TableHash:   prog.Hash,
		Total:       len(recs),
		Divergences: []Divergence{},
		Skipped:     []Skip{},
	}
	d := prog.Dispatcher()

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		diverge := func(kind, recorded, replayed string) {
			o.logger.Debug("replay divergence",
				"dispatch_id", rec.ID,
				"kind", kind,
				"recorded", recorded,
				"replayed", replayed,
			)
			report.Divergences = append(report.Divergences, Divergence{
				ID: rec.ID, Seq: rec.Seq, Kind: kind, Recorded: recorded, Replayed: replayed,
			})
		}

		if rec.TableHash != prog.Hash {
			diverge(KindTableHash, rec.TableHash, prog.Hash)
		}

		if rec.Outcome == ir.OutcomeCompleted {
			report.Replayed++
			continue
		}

		payload, err := lower.DecodeIR(rec.PayloadType, rec.Payload)
		if err != nil {
			report.Skipped = append(report.Skipped, Skip{ID: rec.ID, Seq: rec.Seq, Reason: err.Error()})
			continue
		}
		report.Replayed++

		sel, matched := d.Select(payload)
		outcome := ir.OutcomeRethrown
		if matched {
			outcome = ir.OutcomeMatched
		}
		if outcome != rec.Outcome {
			diverge(KindOutcome, string(rec.Outcome), string(outcome))
			continue
		}
		if !matched {
			continue
		}
		if sel.Arm != rec.Arm {
			diverge(KindArm, strconv.Itoa(rec.Arm), strconv.Itoa(sel.Arm))
			continue
		}

		replayed, err := lower.EncodeBindings(sel.Bindings)
		if err != nil {
			report.Skipped = append(report.Skipped, Skip{ID: rec.ID, Seq: rec.Seq, Reason: err.Error()})
			continue
		}
		want, got := canonical(rec.Bindings), canonical(replayed)
		if !bytes.Equal(want, got) {
			diverge(KindBindings, string(want), string(got))
		}
	}

	o.logger.Info("replay finished",
		"table", report.Table,
		"total", report.Total,
		"replayed", report.Replayed,
		"divergences", len(report.Divergences),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

func canonical(obj ir.IRObject) []byte {
	if obj == nil {
		obj = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return []byte(err.Error())
	}
	return data
}

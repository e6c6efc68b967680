package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/queryir"
	"github.com/roach88/trycatch/internal/querysql"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

const dispatchColumns = querysql.DispatchColumns

// ReadDispatches returns every dispatch of a table in journal order.
// Returns an empty slice (not nil) when none exist.
func (s *Store) ReadDispatches(ctx context.Context, table string) ([]ir.DispatchRecord, error) {
	return s.QueryDispatches(ctx, queryir.ForTable(table))
}

// QueryDispatches returns the dispatches selected by q in journal order.
// Returns an empty slice (not nil) when none match.
func (s *Store) QueryDispatches(ctx context.Context, q queryir.Query) ([]ir.DispatchRecord, error) {
	query, params, err := querysql.Compile(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	recs := []ir.DispatchRecord{}
	for rows.Next() {
		rec, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	return recs, nil
}

// ReadDispatch returns one dispatch by ID, or ErrNotFound.
func (s *Store) ReadDispatch(ctx context.Context, id string) (ir.DispatchRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+dispatchColumns+`
		FROM dispatches
		WHERE id = ?
	`, id)
	rec, err := scanDispatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.DispatchRecord{}, fmt.Errorf("dispatch %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// CountOutcomes returns the number of dispatches per outcome for a table.
// Outcomes with no dispatches are absent.
func (s *Store) CountOutcomes(ctx context.Context, table string) (map[ir.Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM dispatches
		WHERE table_name = ?
		GROUP BY outcome
		ORDER BY outcome COLLATE BINARY ASC
	`, table)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[ir.Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		counts[ir.Outcome(outcome)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome counts: %w", err)
	}
	return counts, nil
}

// MaxSeq returns the highest journaled seq, or 0 for an empty journal.
// A journal.Clock created with NewClockAt(MaxSeq) continues the sequence.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM dispatches`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

// TableVersion is a recorded table version.
type TableVersion struct {
	Hash      string `json:"hash"`
	Name      string `json:"name"`
	Spec      string `json:"spec"`
	IRVersion string `json:"ir_version"`
}

// ReadTableVersions returns every recorded version of a named table,
// ordered by hash.
func (s *Store) ReadTableVersions(ctx context.Context, name string) ([]TableVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, name, spec, ir_version
		FROM tables
		WHERE name = ?
		ORDER BY hash COLLATE BINARY ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	versions := []TableVersion{}
	for rows.Next() {
		var v TableVersion
		if err := rows.Scan(&v.Hash, &v.Name, &v.Spec, &v.IRVersion); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return versions, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDispatch(sc scanner) (ir.DispatchRecord, error) {
	var rec ir.DispatchRecord
	var outcome string
	var payload, bindings sql.NullString

	err := sc.Scan(
		&rec.ID,
		&rec.Seq,
		&rec.Table,
		&rec.TableHash,
		&outcome,
		&rec.Arm,
		&rec.Label,
		&rec.PayloadType,
		&payload,
		&rec.PayloadHash,
		&bindings,
		&rec.EngineVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan dispatch: %w", err)
	}
	rec.Outcome = ir.Outcome(outcome)

	if rec.Payload, err = unmarshalPayload(payload); err != nil {
		return rec, fmt.Errorf("dispatch %s: %w", rec.ID, err)
	}
	if rec.Bindings, err = unmarshalBindings(bindings); err != nil {
		return rec, fmt.Errorf("dispatch %s: %w", rec.ID, err)
	}
	return rec, nil
}

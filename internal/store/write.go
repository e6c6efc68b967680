package store

import (
	"context"
	"fmt"

	"github.com/roach88/trycatch/internal/ir"
)

// WriteDispatch inserts a dispatch record.
// Uses ON CONFLICT(id) DO NOTHING: rewriting a record is a no-op.
// Implements journal.Writer.
func (s *Store) WriteDispatch(ctx context.Context, rec ir.DispatchRecord) error {
	if !rec.Outcome.Valid() {
		return fmt.Errorf("write dispatch %s: invalid outcome %q", rec.ID, rec.Outcome)
	}

	payload, err := marshalNullable(rec.Payload)
	if err != nil {
		return fmt.Errorf("write dispatch %s: marshal payload: %w", rec.ID, err)
	}
	bindings, err := marshalBindings(rec.Bindings)
	if err != nil {
		return fmt.Errorf("write dispatch %s: %w", rec.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dispatches
		(id, seq, table_name, table_hash, outcome, arm, label, payload_type, payload, payload_hash, bindings, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Seq,
		rec.Table,
		rec.TableHash,
		string(rec.Outcome),
		rec.Arm,
		rec.Label,
		rec.PayloadType,
		payload,
		rec.PayloadHash,
		bindings,
		rec.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write dispatch %s: %w", rec.ID, err)
	}
	return nil
}

// WriteTable records a compiled table version and returns its hash.
// Writing the same version twice is a no-op.
func (s *Store) WriteTable(ctx context.Context, spec ir.TableSpec) (string, error) {
	hash, err := ir.TableHash(spec)
	if err != nil {
		return "", fmt.Errorf("write table: %w", err)
	}
	data, err := ir.MarshalCanonical(spec.Canonical())
	if err != nil {
		return "", fmt.Errorf("write table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tables (hash, name, spec, ir_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, spec.Name, string(data), ir.IRVersion)
	if err != nil {
		return "", fmt.Errorf("write table %q: %w", spec.Name, err)
	}
	return hash, nil
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/trycatch/internal/ir"
)

// marshalNullable converts an IRValue to canonical JSON TEXT, or NULL for nil.
func marshalNullable(v ir.IRValue) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func marshalBindings(b ir.IRObject) (sql.NullString, error) {
	if b == nil {
		return sql.NullString{}, nil
	}
	ns, err := marshalNullable(b)
	if err != nil {
		return ns, fmt.Errorf("marshal bindings: %w", err)
	}
	return ns, nil
}

func unmarshalPayload(ns sql.NullString) (ir.IRValue, error) {
	if !ns.Valid {
		return nil, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(ns.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}

func unmarshalBindings(ns sql.NullString) (ir.IRObject, error) {
	if !ns.Valid {
		return nil, nil
	}
	obj, err := ir.UnmarshalIRObject([]byte(ns.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal bindings: %w", err)
	}
	return obj, nil
}

// Package querysql compiles journal queries to parameterized SQLite.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/queryir"
)

// DispatchColumns is the column list of a dispatch row, in scan order.
const DispatchColumns = `id, seq, table_name, table_hash, outcome, arm, label, payload_type, payload, payload_hash, bindings, engine_version`

// OrderBy is the journal order: seq, then id with binary collation.
const OrderBy = `seq ASC, id COLLATE BINARY ASC`

// columns maps query fields to dispatch columns.
var columns = map[queryir.Field]string{
	queryir.FieldID:          "id",
	queryir.FieldTable:       "table_name",
	queryir.FieldTableHash:   "table_hash",
	queryir.FieldOutcome:     "outcome",
	queryir.FieldArm:         "arm",
	queryir.FieldLabel:       "label",
	queryir.FieldPayloadType: "payload_type",
	queryir.FieldPayloadHash: "payload_hash",
}

// Compile converts a query to SQL and its parameters.
//
// Every statement ends in the journal order. Values are always bound as
// parameters, never interpolated.
func Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	}

	var sb strings.Builder
	var params []any
	sb.WriteString("SELECT " + DispatchColumns + " FROM dispatches")
	if sel.Filter != nil {
		where, p, err := compilePredicate(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		if where != "" {
			sb.WriteString(" WHERE " + where)
			params = append(params, p...)
		}
	}
	sb.WriteString(" ORDER BY " + OrderBy)
	if sel.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, sel.Limit)
	}
	return sb.String(), params, nil
}

// compilePredicate returns "" for predicates that match everything.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		if pred == nil {
			return "", nil, errors.New("nil predicate")
		}
		return compileEquals(*pred)
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		if pred == nil {
			return "", nil, errors.New("nil predicate")
		}
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq queryir.Equals) (string, []any, error) {
	col, ok := columns[eq.Field]
	if !ok {
		return "", nil, fmt.Errorf("unknown field %q", eq.Field)
	}
	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %q: %w", eq.Field, err)
	}
	return col + " = ?", []any{param}, nil
}

func compileAnd(and queryir.And) (string, []any, error) {
	var parts []string
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			continue
		}
		switch pred.(type) {
		case queryir.And, *queryir.And:
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// irValueToParam converts a scalar IR value to a SQL parameter.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	default:
		return nil, fmt.Errorf("%T cannot be used as a SQL parameter", v)
	}
}

// Package compiler turns CUE table definitions into table IR.
//
// A table file declares one or more tables under the top-level "table"
// field:
//
//	table: "slices": {
//	    arms: [
//	        {type: "int", pattern: {bind: "_"}, panic: "Nope!"},
//	        {type: "[]string", pattern: {seq: [{lit: "this"}, {bind: "h"}, {rest: "t"}]}, format: "{{.h}}"},
//	    ]
//	}
//
// Each arm names a type, an optional pattern (default: anonymous
// wildcard), an optional label, and exactly one of value, format or panic.
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/trycatch/internal/ir"
)

// CompileTables compiles every table declared under root's "table" field,
// in declaration order. A root without tables yields an empty slice.
func CompileTables(root cue.Value) ([]ir.TableSpec, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := root.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return []ir.TableSpec{}, nil
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ir.TableSpec
	for iter.Next() {
		spec, err := CompileTable(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileTable parses a single table struct. The table name is the last
// selector of the value's path:
//
//	spec, err := CompileTable(v.LookupPath(cue.ParsePath(`table.slices`)))
func CompileTable(v cue.Value) (*ir.TableSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.TableSpec{Arms: []ir.ArmSpec{}}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		spec.Name = selectorName(sels[len(sels)-1])
	}

	armsVal := v.LookupPath(cue.ParsePath("arms"))
	if !armsVal.Exists() {
		return nil, &CompileError{Field: "arms", Message: "arms is required (use [] for an empty table)", Pos: v.Pos()}
	}
	iter, err := armsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		arm, err := compileArm(iter.Value(), fmt.Sprintf("arms[%d]", i))
		if err != nil {
			return nil, err
		}
		spec.Arms = append(spec.Arms, arm)
	}
	return spec, nil
}

// selectorName unquotes labels such as "my-table".
func selectorName(sel cue.Selector) string {
	s := sel.String()
	if strings.HasPrefix(s, `"`) {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

func compileArm(v cue.Value, field string) (ir.ArmSpec, error) {
	var arm ir.ArmSpec

	typ, err := requiredString(v, "type", field)
	if err != nil {
		return arm, err
	}
	arm.Type = typ

	if labelVal := v.LookupPath(cue.ParsePath("label")); labelVal.Exists() {
		label, err := labelVal.String()
		if err != nil {
			return arm, formatCUEError(err)
		}
		arm.Label = label
	}

	arm.Pattern = ir.PatternSpec{Kind: ir.PatternWildcard, Name: "_"}
	if patVal := v.LookupPath(cue.ParsePath("pattern")); patVal.Exists() {
		p, err := compilePattern(patVal, field+".pattern")
		if err != nil {
			return arm, err
		}
		arm.Pattern = p
	}

	arm.Handler, err = compileHandler(v, field)
	return arm, err
}

// compilePattern accepts a bare string (a binding name) or a struct with
// exactly one of bind, lit, seq, rest.
func compilePattern(v cue.Value, field string) (ir.PatternSpec, error) {
	if name, err := v.String(); err == nil {
		return ir.PatternSpec{Kind: ir.PatternWildcard, Name: name}, nil
	}

	var found []string
	for _, key := range []string{"bind", "lit", "seq", "rest"} {
		if v.LookupPath(cue.ParsePath(key)).Exists() {
			found = append(found, key)
		}
	}
	if len(found) != 1 {
		return ir.PatternSpec{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("pattern must have exactly one of bind, lit, seq, rest (found %d)", len(found)),
			Pos:     v.Pos(),
		}
	}

	key := found[0]
	sub := v.LookupPath(cue.ParsePath(key))
	switch key {
	case "bind", "rest":
		name, err := sub.String()
		if err != nil {
			return ir.PatternSpec{}, formatCUEError(err)
		}
		kind := ir.PatternWildcard
		if key == "rest" {
			kind = ir.PatternRest
		}
		return ir.PatternSpec{Kind: kind, Name: name}, nil

	case "lit":
		val, err := toIRValue(sub, field+".lit")
		if err != nil {
			return ir.PatternSpec{}, err
		}
		return ir.PatternSpec{Kind: ir.PatternLiteral, Value: val}, nil

	default:
		iter, err := sub.List()
		if err != nil {
			return ir.PatternSpec{}, formatCUEError(err)
		}
		elems := []ir.PatternSpec{}
		for i := 0; iter.Next(); i++ {
			e, err := compilePattern(iter.Value(), fmt.Sprintf("%s.seq[%d]", field, i))
			if err != nil {
				return ir.PatternSpec{}, err
			}
			elems = append(elems, e)
		}
		return ir.PatternSpec{Kind: ir.PatternSeq, Elems: elems}, nil
	}
}

func compileHandler(v cue.Value, field string) (ir.HandlerSpec, error) {
	var found []string
	for _, key := range []string{"value", "format", "panic"} {
		if v.LookupPath(cue.ParsePath(key)).Exists() {
			found = append(found, key)
		}
	}
	if len(found) != 1 {
		return ir.HandlerSpec{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("arm must have exactly one of value, format, panic (found %s)", describeKeys(found)),
			Pos:     v.Pos(),
		}
	}

	switch found[0] {
	case "value":
		val, err := toIRValue(v.LookupPath(cue.ParsePath("value")), field+".value")
		if err != nil {
			return ir.HandlerSpec{}, err
		}
		return ir.HandlerSpec{Kind: ir.HandlerValue, Value: val}, nil
	case "format":
		s, err := requiredString(v, "format", field)
		return ir.HandlerSpec{Kind: ir.HandlerFormat, Format: s}, err
	default:
		s, err := requiredString(v, "panic", field)
		return ir.HandlerSpec{Kind: ir.HandlerPanic, Message: s}, err
	}
}

func describeKeys(keys []string) string {
	if len(keys) == 0 {
		return "none"
	}
	return strings.Join(keys, ", ")
}

func requiredString(v cue.Value, key, field string) (string, error) {
	sub := v.LookupPath(cue.ParsePath(key))
	if !sub.Exists() {
		return "", &CompileError{Field: field + "." + key, Message: key + " is required", Pos: v.Pos()}
	}
	s, err := sub.String()
	if err != nil {
		return "", &CompileError{Field: field + "." + key, Message: "must be a string", Pos: sub.Pos()}
	}
	return s, nil
}

// toIRValue converts a concrete CUE value to IR. Floats are rejected.
func toIRValue(v cue.Value, field string) (ir.IRValue, error) {
	switch v.IncompleteKind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for i := 0; iter.Next(); i++ {
			elem, err := toIRValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			key := selectorName(iter.Selector())
			elem, err := toIRValue(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			obj[key] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{Field: field, Message: "float values are forbidden; use int, or a string for float payloads", Pos: v.Pos()}
	default:
		return nil, &CompileError{Field: field, Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()), Pos: v.Pos()}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

package lower

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/trycatch/internal/catch"
	"github.com/roach88/trycatch/internal/ir"
)

// Program is a lowered table ready for dispatch.
type Program struct {
	Spec  ir.TableSpec
	Hash  string
	Table *catch.Table[ir.IRValue]
}

// Lower builds an executable table from spec.
//
// Errors are *LowerError for unknown types and unconvertible literals, or
// a wrapped *catch.TableError when the resulting arms are misconfigured.
func Lower(spec ir.TableSpec) (*Program, error) {
	hash, err := ir.TableHash(spec)
	if err != nil {
		return nil, err
	}

	arms := make([]catch.Arm[ir.IRValue], 0, len(spec.Arms))
	for i, as := range spec.Arms {
		arm, err := lowerArm(i, as)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", spec.Name, err)
		}
		arms = append(arms, arm)
	}

	table, err := catch.NewTable(arms...)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", spec.Name, err)
	}
	return &Program{Spec: spec, Hash: hash, Table: table}, nil
}

func lowerArm(i int, as ir.ArmSpec) (catch.Arm[ir.IRValue], error) {
	var zero catch.Arm[ir.IRValue]

	t, err := ParseType(as.Type)
	if err != nil {
		return zero, atArm(i, "type", err)
	}
	pat, err := lowerPattern(as.Pattern, t)
	if err != nil {
		return zero, atArm(i, "pattern", err)
	}
	label := as.Label
	if label == "" {
		label = fmt.Sprintf("arm %d", i)
	}
	h, err := lowerHandler(label, as.Handler)
	if err != nil {
		return zero, atArm(i, "handler", err)
	}

	arm := catch.OnTag(catch.TagOf(t), pat, h)
	if as.Label != "" {
		arm = arm.Labeled(as.Label)
	}
	return arm, nil
}

func lowerPattern(ps ir.PatternSpec, t reflect.Type) (catch.Pattern, error) {
	switch ps.Kind {
	case ir.PatternWildcard:
		return catch.Wildcard{Name: ps.Name}, nil

	case ir.PatternRest:
		// Only meaningful inside a seq; NewTable reports it otherwise
		return catch.Rest{Name: ps.Name}, nil

	case ir.PatternLiteral:
		v, err := LiteralValue(ps.Value, t)
		if err != nil {
			return nil, err
		}
		return catch.Literal{Value: v}, nil

	case ir.PatternSeq:
		if !isSequence(t) {
			return nil, &LowerError{Arm: -1, Field: "seq", Message: fmt.Sprintf("%s is not a slice or array type", TypeName(t))}
		}
		elems := make([]catch.Pattern, len(ps.Elems))
		for i, e := range ps.Elems {
			p, err := lowerPattern(e, t.Elem())
			if err != nil {
				return nil, err
			}
			elems[i] = p
		}
		return catch.Sequence(elems...), nil
	}
	return nil, &LowerError{Arm: -1, Field: "kind", Message: fmt.Sprintf("unknown pattern kind %q", ps.Kind)}
}

func lowerHandler(label string, hs ir.HandlerSpec) (func(any, catch.Bindings) ir.IRValue, error) {
	switch hs.Kind {
	case ir.HandlerValue:
		v := hs.Value
		if v == nil {
			v = ir.IRNull{}
		}
		return func(any, catch.Bindings) ir.IRValue { return v }, nil

	case ir.HandlerFormat:
		tmpl, err := ParseFormat(label, hs.Format)
		if err != nil {
			return nil, &LowerError{Arm: -1, Field: "format", Message: err.Error()}
		}
		return func(_ any, b catch.Bindings) ir.IRValue {
			var sb strings.Builder
			if err := tmpl.Execute(&sb, b); err != nil {
				panic(&FormatError{Label: label, Err: err})
			}
			return ir.IRString(sb.String())
		}, nil

	case ir.HandlerPanic:
		msg := hs.Message
		return func(any, catch.Bindings) ir.IRValue { panic(msg) }, nil
	}
	return nil, &LowerError{Arm: -1, Field: "kind", Message: fmt.Sprintf("unknown handler kind %q", hs.Kind)}
}

// Dispatcher returns a dispatcher over the program's table.
func (p *Program) Dispatcher(opts ...catch.Option) *catch.Dispatcher[ir.IRValue] {
	return catch.New(p.Table, opts...)
}

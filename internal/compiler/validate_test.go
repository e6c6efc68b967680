package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trycatch/internal/ir"
)

func wild(name string) ir.PatternSpec { return ir.PatternSpec{Kind: ir.PatternWildcard, Name: name} }
func rest(name string) ir.PatternSpec { return ir.PatternSpec{Kind: ir.PatternRest, Name: name} }
func lit(v ir.IRValue) ir.PatternSpec { return ir.PatternSpec{Kind: ir.PatternLiteral, Value: v} }
func seq(elems ...ir.PatternSpec) ir.PatternSpec {
	return ir.PatternSpec{Kind: ir.PatternSeq, Elems: elems}
}

var one = ir.HandlerSpec{Kind: ir.HandlerValue, Value: ir.IRInt(1)}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	spec := ir.TableSpec{
		Name: "slices",
		Arms: []ir.ArmSpec{
			{Type: "int", Pattern: wild("_"), Handler: ir.HandlerSpec{Kind: ir.HandlerPanic, Message: "Nope!"}},
			{Type: "[]string", Pattern: seq(lit(ir.IRString("this")), wild("h"), rest("t")), Handler: ir.HandlerSpec{Kind: ir.HandlerFormat, Format: "{{.h}}_{{index .t 1}}"}},
			{Type: "[3]int", Pattern: seq(wild("a"), rest("_"), lit(ir.IRInt(3))), Handler: one},
		},
	}
	assert.Empty(t, Validate(spec))
	assert.Empty(t, Validate(&spec))
}

func TestValidateEmptyTableIsValid(t *testing.T) {
	assert.Empty(t, Validate(ir.TableSpec{Name: "empty"}))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		arm  ir.ArmSpec
		want []string
	}{
		{"empty type", ir.ArmSpec{Pattern: wild("_"), Handler: one}, []string{ErrArmTypeEmpty}},
		{"unknown type", ir.ArmSpec{Type: "f64", Pattern: wild("_"), Handler: one}, []string{ErrUnknownType}},
		{"bad pattern kind", ir.ArmSpec{Type: "int", Pattern: ir.PatternSpec{Kind: "regex"}, Handler: one}, []string{ErrInvalidPatternKind}},
		{"duplicate binding", ir.ArmSpec{Type: "[]int", Pattern: seq(wild("x"), rest("x")), Handler: one}, []string{ErrDuplicateBinding}},
		{"multiple rest", ir.ArmSpec{Type: "[]int", Pattern: seq(rest("a"), wild("b"), rest("c")), Handler: one}, []string{ErrMultipleRest}},
		{"top-level rest", ir.ArmSpec{Type: "[]int", Pattern: rest("r"), Handler: one}, []string{ErrMisplacedRest}},
		{"seq on scalar", ir.ArmSpec{Type: "int", Pattern: seq(wild("x")), Handler: one}, []string{ErrSeqOnScalar}},
		{"array arity", ir.ArmSpec{Type: "[2]int", Pattern: seq(wild("a")), Handler: one}, []string{ErrSeqOnScalar}},
		{"array too short for fixed", ir.ArmSpec{Type: "[1]int", Pattern: seq(wild("a"), rest("_"), wild("b")), Handler: one}, []string{ErrSeqOnScalar}},
		{"literal mismatch", ir.ArmSpec{Type: "int", Pattern: lit(ir.IRString("x")), Handler: one}, []string{ErrLiteralMismatch}},
		{"literal overflow", ir.ArmSpec{Type: "[]uint8", Pattern: seq(lit(ir.IRInt(256))), Handler: one}, []string{ErrLiteralMismatch}},
		{"bad handler kind", ir.ArmSpec{Type: "int", Pattern: wild("_"), Handler: ir.HandlerSpec{Kind: "exit"}}, []string{ErrInvalidHandlerKind}},
		{"bad template", ir.ArmSpec{Type: "int", Pattern: wild("i"), Handler: ir.HandlerSpec{Kind: ir.HandlerFormat, Format: "{{.i"}}, []string{ErrInvalidFormat}},
		{"unbound template name", ir.ArmSpec{Type: "int", Pattern: wild("i"), Handler: ir.HandlerSpec{Kind: ir.HandlerFormat, Format: "{{.i}}{{.j}}"}}, []string{ErrInvalidFormat}},
		{"empty panic", ir.ArmSpec{Type: "int", Pattern: wild("_"), Handler: ir.HandlerSpec{Kind: ir.HandlerPanic}}, []string{ErrEmptyPanicMessage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(ir.TableSpec{Name: "t", Arms: []ir.ArmSpec{tt.arm}})
			assert.Equal(t, tt.want, codes(errs), "%v", errs)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	spec := ir.TableSpec{
		Name: " ",
		Arms: []ir.ArmSpec{
			{Label: "a", Type: "int", Pattern: wild("_"), Handler: one},
			{Label: "a", Type: "int", Pattern: lit(ir.IRInt(3)), Handler: one},
			{Type: "nope", Pattern: seq(wild("x")), Handler: one},
		},
	}
	errs := Validate(spec)
	assert.Equal(t, []string{ErrTableNameEmpty, ErrDuplicateLabel, ErrUnreachableArm, ErrUnknownType}, codes(errs))
	assert.Equal(t, "arms[1].label", errs[1].Field)
	assert.Contains(t, errs[2].Message, "arm 0 already matches every int")
}

func TestValidateUnreachableIsPerType(t *testing.T) {
	spec := ir.TableSpec{
		Name: "floats",
		Arms: []ir.ArmSpec{
			{Type: "*float64", Pattern: wild("_"), Handler: one},
			{Type: "float64", Pattern: wild("_"), Handler: one},
			{Type: "float64", Pattern: wild("f"), Handler: one},
		},
	}
	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnreachableArm, errs[0].Code)
	assert.Equal(t, "arms[2]", errs[0].Field)
}

func TestValidateTables(t *testing.T) {
	specs := []ir.TableSpec{
		{Name: "a"},
		{Name: "a", Arms: []ir.ArmSpec{{Type: "", Pattern: wild("_"), Handler: one}}},
	}
	errs := Validate(specs)
	assert.Equal(t, []string{ErrDuplicateTable, ErrArmTypeEmpty}, codes(errs))
	assert.Equal(t, "a.arms[0].type", errs[1].Field)
}

func TestValidateUnsupported(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "arms[0].type", Message: "arm type is required", Code: ErrArmTypeEmpty}
	assert.Equal(t, "[E102] arms[0].type: arm type is required", e.Error())
	e.Line = 4
	assert.Equal(t, "[E102] line 4: arms[0].type: arm type is required", e.Error())
}

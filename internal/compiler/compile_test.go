package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trycatch/internal/ir"
)

const slicesCUE = `
table: slices: {
	arms: [
		{type: "int", pattern: {bind: "_"}, panic: "Nope!"},
		{type: "string", pattern: "s", format: "{{.s}}"},
		{label: "uh", type: "[]string", pattern: {seq: [{lit: "uh"}, "s", {rest: "_"}]}, format: "{{.s}}"},
		{label: "this", type: "[]string", pattern: {seq: [{lit: "this"}, {bind: "h"}, {rest: "t"}]}, format: "{{.h}}_{{index .t 1}}"},
	]
}
`

func compileString(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func TestCompileTableSlices(t *testing.T) {
	v := compileString(t, slicesCUE)
	spec, err := CompileTable(v.LookupPath(cue.ParsePath("table.slices")))
	require.NoError(t, err)

	assert.Equal(t, "slices", spec.Name)
	require.Len(t, spec.Arms, 4)

	assert.Equal(t, ir.ArmSpec{
		Type:    "int",
		Pattern: ir.PatternSpec{Kind: ir.PatternWildcard, Name: "_"},
		Handler: ir.HandlerSpec{Kind: ir.HandlerPanic, Message: "Nope!"},
	}, spec.Arms[0])

	assert.Equal(t, ir.PatternSpec{Kind: ir.PatternWildcard, Name: "s"}, spec.Arms[1].Pattern, "bare string is a binding")

	assert.Equal(t, "this", spec.Arms[3].Label)
	assert.Equal(t, ir.PatternSpec{Kind: ir.PatternSeq, Elems: []ir.PatternSpec{
		{Kind: ir.PatternLiteral, Value: ir.IRString("this")},
		{Kind: ir.PatternWildcard, Name: "h"},
		{Kind: ir.PatternRest, Name: "t"},
	}}, spec.Arms[3].Pattern)
	assert.Equal(t, ir.HandlerSpec{Kind: ir.HandlerFormat, Format: "{{.h}}_{{index .t 1}}"}, spec.Arms[3].Handler)
}

func TestCompileTablesOrder(t *testing.T) {
	v := compileString(t, `
		table: "zeta": {arms: []}
		table: "alpha-beta": {arms: [{type: "int", value: 1}]}
	`)
	specs, err := CompileTables(v)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "zeta", specs[0].Name)
	assert.Empty(t, specs[0].Arms)
	assert.Equal(t, "alpha-beta", specs[1].Name)
	assert.Equal(t, ir.PatternSpec{Kind: ir.PatternWildcard, Name: "_"}, specs[1].Arms[0].Pattern, "default pattern")
	assert.Equal(t, ir.HandlerSpec{Kind: ir.HandlerValue, Value: ir.IRInt(1)}, specs[1].Arms[0].Handler)
}

func TestCompileTablesNone(t *testing.T) {
	specs, err := CompileTables(compileString(t, `other: 1`))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestCompileValues(t *testing.T) {
	v := compileString(t, `
		table: vals: {arms: [
			{type: "[]int", pattern: {lit: [1, 2]}, value: {ok: true, list: ["a", null]}},
			{type: "*int", pattern: {lit: null}, value: null},
		]}
	`)
	spec, err := CompileTable(v.LookupPath(cue.ParsePath("table.vals")))
	require.NoError(t, err)

	assert.Equal(t, ir.IRArray{ir.IRInt(1), ir.IRInt(2)}, spec.Arms[0].Pattern.Value)
	assert.Equal(t, ir.IRObject{
		"ok":   ir.IRBool(true),
		"list": ir.IRArray{ir.IRString("a"), ir.IRNull{}},
	}, spec.Arms[0].Handler.Value)
	assert.Equal(t, ir.IRNull{}, spec.Arms[1].Pattern.Value)
	assert.Equal(t, ir.IRNull{}, spec.Arms[1].Handler.Value)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"missing arms", `table: t: {}`, "arms is required"},
		{"missing type", `table: t: {arms: [{value: 1}]}`, "arms[0].type: type is required"},
		{"non-string type", `table: t: {arms: [{type: 1, value: 1}]}`, "must be a string"},
		{"no handler", `table: t: {arms: [{type: "int"}]}`, "exactly one of value, format, panic (found none)"},
		{"two handlers", `table: t: {arms: [{type: "int", value: 1, panic: "x"}]}`, "(found value, panic)"},
		{"float literal", `table: t: {arms: [{type: "float64", pattern: {lit: 6.54}, value: 1}]}`, "float values are forbidden"},
		{"float value", `table: t: {arms: [{type: "int", value: 1.5}]}`, "arms[0].value: float values are forbidden"},
		{"two pattern keys", `table: t: {arms: [{type: "int", pattern: {bind: "x", lit: 1}, value: 1}]}`, "exactly one of bind, lit, seq, rest (found 2)"},
		{"seq not list", `table: t: {arms: [{type: "[]int", pattern: {seq: 1}, value: 1}]}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileString(t, tt.src)
			_, err := CompileTables(v)
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCompileErrorPosition(t *testing.T) {
	v := cuecontext.New().CompileString(`table: t: {arms: [{type: "int"}]}`, cue.Filename("tables.cue"))
	_, err := CompileTables(v)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "arms[0]", ce.Field)
	assert.Contains(t, err.Error(), "tables.cue:1:")
}

func TestCompileErrorWithoutPosition(t *testing.T) {
	err := &CompileError{Field: "arms", Message: "bad"}
	assert.Equal(t, "arms: bad", err.Error())
}

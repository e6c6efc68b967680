package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGo(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want IRValue
	}{
		{"nil", nil, IRNull{}},
		{"bool", true, IRBool(true)},
		{"string", "hi", IRString("hi")},
		{"int", 42, IRInt(42)},
		{"int8", int8(-3), IRInt(-3)},
		{"uint32", uint32(7), IRInt(7)},
		{"integral float", 3.0, IRInt(3)},
		{"json number", json.Number("12"), IRInt(12)},
		{"passthrough", IRString("x"), IRString("x")},
		{"slice", []any{1, "a", false}, IRArray{IRInt(1), IRString("a"), IRBool(false)}},
		{"map", map[string]any{"k": []any{nil}}, IRObject{"k": IRArray{IRNull{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromGoRejects(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"fractional float", 1.5},
		{"infinity", math.Inf(1)},
		{"fractional number", json.Number("1.5")},
		{"exponent number", json.Number("1e3")},
		{"uint64 overflow", uint64(math.MaxUint64)},
		{"unsupported", struct{}{}},
		{"nested float", []any{1, 2.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGo(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalIRValue(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"a":[1,"x",true,null]}`))
	require.NoError(t, err)
	assert.Equal(t, IRObject{"a": IRArray{IRInt(1), IRString("x"), IRBool(true), IRNull{}}}, v)

	_, err = UnmarshalIRValue([]byte(`6.54`))
	assert.ErrorContains(t, err, "floats are forbidden")

	_, err = UnmarshalIRValue([]byte(`{`))
	assert.Error(t, err)
}

func TestUnmarshalIRObject(t *testing.T) {
	obj, err := UnmarshalIRObject(nil)
	require.NoError(t, err)
	assert.Empty(t, obj)

	obj, err = UnmarshalIRObject([]byte(`{"s":"uh"}`))
	require.NoError(t, err)
	assert.Equal(t, IRObject{"s": IRString("uh")}, obj)

	_, err = UnmarshalIRObject([]byte(`[1]`))
	assert.ErrorContains(t, err, "expected JSON object")
}

func TestToGo(t *testing.T) {
	v := IRObject{
		"list": IRArray{IRInt(1), IRString("two")},
		"ok":   IRBool(true),
		"none": IRNull{},
	}
	got := ToGo(v)
	assert.Equal(t, map[string]any{
		"list": []any{int64(1), "two"},
		"ok":   true,
		"none": nil,
	}, got)

	back, err := FromGo(got)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestSortedKeysUTF16(t *testing.T) {
	obj := IRObject{"\uFFFD": IRInt(1), "\U0001F600": IRInt(2), "a": IRInt(3)}
	// U+1F600 encodes as surrogates D83D DE00, which sort before U+FFFD
	assert.Equal(t, []string{"a", "\U0001F600", "\uFFFD"}, obj.SortedKeys())
}

func TestIRNullMarshalJSON(t *testing.T) {
	data, err := json.Marshal(IRArray{IRNull{}, IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, `[null,1]`, string(data))
}

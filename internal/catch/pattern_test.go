package catch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_Wildcard(t *testing.T) {
	b, ok := Match(Any(), 42)
	require.True(t, ok)
	assert.Empty(t, b)

	b, ok = Match(Bind("_"), 42)
	require.True(t, ok)
	assert.Empty(t, b)

	b, ok = Match(Bind("n"), 42)
	require.True(t, ok)
	assert.Equal(t, Bindings{"n": 42}, b)
}

func TestMatch_Literal(t *testing.T) {
	testCases := []struct {
		name  string
		lit   any
		value any
		want  bool
	}{
		{"equal strings", "uh", "uh", true},
		{"different strings", "uh", "this", false},
		{"equal ints", 7, 7, true},
		{"int literal converts to int32", 7, int32(7), true},
		{"int literal converts to uint8", 200, uint8(200), true},
		{"overflowing literal", 300, uint8(44), false},
		{"negative literal against uint", -1, uint(18446744073709551615), false},
		{"integral float literal against int", 2.0, 2, true},
		{"fractional float literal against int", 2.5, 2, false},
		{"int literal against float64", 3, 3.0, true},
		{"bool", true, true, true},
		{"string vs int", "7", 7, false},
		{"non-comparable uses deep equality", []int{1, 2}, []int{1, 2}, true},
		{"non-comparable differs", []int{1, 2}, []int{2, 1}, false},
		{"nil literal against nil pointer", nil, (*int)(nil), true},
		{"nil literal against value", nil, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, ok := Match(Lit(tc.lit), tc.value)
			assert.Equal(t, tc.want, ok)
			if ok {
				assert.Empty(t, b, "literals bind nothing")
			}
		})
	}
}

func TestMatch_StructLiteral(t *testing.T) {
	type code struct {
		Kind string
		N    int
	}
	_, ok := Match(Lit(code{"io", 5}), code{"io", 5})
	assert.True(t, ok)

	_, ok = Match(Lit(code{"io", 5}), code{"io", 6})
	assert.False(t, ok)
}

func TestMatch_SequenceWithoutRest(t *testing.T) {
	pat := Sequence(Lit("a"), Bind("x"))

	b, ok := Match(pat, []string{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, "b", b["x"])

	testCases := []struct {
		name  string
		value []string
	}{
		{"empty", []string{}},
		{"shorter", []string{"a"}},
		{"longer", []string{"a", "b", "c"}},
		{"literal mismatch", []string{"z", "b"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Match(pat, tc.value)
			assert.False(t, ok)
		})
	}
}

func TestMatch_SequenceEmpty(t *testing.T) {
	_, ok := Match(Sequence(), []int{})
	assert.True(t, ok)

	_, ok = Match(Sequence(), []int{1})
	assert.False(t, ok)
}

func TestMatch_SequenceRestPositions(t *testing.T) {
	value := []string{"this", "is", "a", "array"}

	testCases := []struct {
		name string
		pat  Seq
		want Bindings
	}{
		{
			name: "trailing rest",
			pat:  Sequence(Lit("this"), Bind("h"), RestAs("t")),
			want: Bindings{"h": "is", "t": []string{"a", "array"}},
		},
		{
			name: "leading rest",
			pat:  Sequence(RestAs("init"), Bind("last")),
			want: Bindings{"init": []string{"this", "is", "a"}, "last": "array"},
		},
		{
			name: "middle rest",
			pat:  Sequence(Bind("first"), RestAs("mid"), Bind("last")),
			want: Bindings{"first": "this", "mid": []string{"is", "a"}, "last": "array"},
		},
		{
			name: "rest only",
			pat:  Sequence(RestAs("all")),
			want: Bindings{"all": []string{"this", "is", "a", "array"}},
		},
		{
			name: "anonymous rest binds nothing",
			pat:  Sequence(Lit("this"), AnyRest()),
			want: Bindings{},
		},
		{
			name: "empty rest",
			pat:  Sequence(Bind("a"), Bind("b"), RestAs("r"), Bind("c"), Bind("d")),
			want: Bindings{"a": "this", "b": "is", "r": []string{}, "c": "a", "d": "array"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, ok := Match(tc.pat, value)
			require.True(t, ok)
			assert.Equal(t, tc.want, b)
		})
	}
}

func TestMatch_SequenceTooShortForFixedPositions(t *testing.T) {
	pat := Sequence(Bind("a"), RestAs("r"), Bind("z"))
	_, ok := Match(pat, []int{1})
	assert.False(t, ok)

	_, ok = Match(pat, []int{1, 2})
	assert.True(t, ok)
}

func TestMatch_RestLengthAndReconstruction(t *testing.T) {
	pat := Sequence(Bind("p0"), Bind("p1"), RestAs("rest"), Bind("s0"))
	fixed := pat.Fixed()
	require.Equal(t, 3, fixed)

	for n := fixed; n <= 8; n++ {
		value := make([]int, n)
		for i := range value {
			value[i] = i * 10
		}

		b, ok := Match(pat, value)
		require.True(t, ok, "length %d", n)

		rest := MustGet[[]int](b, "rest")
		assert.Len(t, rest, n-fixed)

		var rebuilt []int
		rebuilt = append(rebuilt, MustGet[int](b, "p0"), MustGet[int](b, "p1"))
		rebuilt = append(rebuilt, rest...)
		rebuilt = append(rebuilt, MustGet[int](b, "s0"))
		assert.Equal(t, value, rebuilt)
	}
}

func TestMatch_RestDoesNotAliasPayloadOnAppend(t *testing.T) {
	value := []int{1, 2, 3, 4}
	b, ok := Match(Sequence(RestAs("r"), Bind("last")), value)
	require.True(t, ok)

	rest := MustGet[[]int](b, "r")
	_ = append(rest, 99)
	assert.Equal(t, []int{1, 2, 3, 4}, value)
}

func TestMatch_ArrayRestIsCopied(t *testing.T) {
	value := [4]string{"a", "b", "c", "d"}
	b, ok := Match(Sequence(Bind("head"), RestAs("tail")), value)
	require.True(t, ok)
	assert.Equal(t, "a", b["head"])
	assert.Equal(t, []string{"b", "c", "d"}, b["tail"])
}

func TestMatch_BoxedElements(t *testing.T) {
	value := []any{"cmd", 3, []any{"nested", true}}
	pat := Sequence(Lit("cmd"), Lit(3), Sequence(Lit("nested"), Bind("flag")))

	b, ok := Match(pat, value)
	require.True(t, ok)
	assert.Equal(t, true, b["flag"])
}

func TestMatch_SequenceAgainstNonSequence(t *testing.T) {
	_, ok := Match(Sequence(AnyRest()), "not a slice")
	assert.False(t, ok)

	_, ok = Match(Sequence(AnyRest()), nil)
	assert.False(t, ok)
}

func TestMatch_BareRestNeverMatches(t *testing.T) {
	_, ok := Match(RestAs("r"), []int{1})
	assert.False(t, ok)
}

func TestPattern_String(t *testing.T) {
	assert.Equal(t, "_", Any().String())
	assert.Equal(t, `["this", h, t @ ..]`, Sequence(Lit("this"), Bind("h"), RestAs("t")).String())
	assert.Equal(t, `[.., 1]`, Sequence(AnyRest(), Lit(1)).String())
}

func TestSequence_SplitsAtFirstRest(t *testing.T) {
	s := Sequence(Bind("a"), AnyRest(), Bind("b"), RestAs("again"))
	assert.Len(t, s.Prefix, 1)
	require.NotNil(t, s.Rest)
	assert.Equal(t, []Pattern{Bind("b"), RestAs("again")}, s.Suffix)
}

package catch

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Pattern is a structural shape over a value of an arm's type.
// Only Wildcard, Literal, Seq, and Rest implement it.
type Pattern interface {
	pattern() // Sealed
	String() string
}

// Wildcard matches any value. A Name other than "" or "_" binds the value.
type Wildcard struct {
	Name string
}

func (Wildcard) pattern() {}

func (w Wildcard) String() string {
	if isAnonymous(w.Name) {
		return "_"
	}
	return w.Name
}

// Literal matches a value equal to Value.
type Literal struct {
	Value any
}

func (Literal) pattern() {}

func (l Literal) String() string {
	return fmt.Sprintf("%#v", l.Value)
}

// Seq matches a slice or array element by element.
//
// Without Rest the value must have exactly len(Prefix) elements; a Suffix
// without Rest is ignored by Match and rejected by NewTable. With Rest the
// value must have at least len(Prefix)+len(Suffix) elements; Prefix is
// matched against the head, Suffix against the tail, and the contiguous
// middle run is bound by Rest.
type Seq struct {
	Prefix []Pattern
	Rest   *Rest
	Suffix []Pattern
}

func (Seq) pattern() {}

func (s Seq) String() string {
	parts := make([]string, 0, len(s.Prefix)+len(s.Suffix)+1)
	for _, p := range s.Prefix {
		parts = append(parts, patternString(p))
	}
	if s.Rest != nil {
		parts = append(parts, s.Rest.String())
		for _, p := range s.Suffix {
			parts = append(parts, patternString(p))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Fixed returns the number of fixed positions the pattern anchors.
func (s Seq) Fixed() int {
	if s.Rest == nil {
		return len(s.Prefix)
	}
	return len(s.Prefix) + len(s.Suffix)
}

// Rest marks the variable-length run of a Seq. A Name other than "" or "_"
// binds the run as a slice of the element type.
type Rest struct {
	Name string
}

func (Rest) pattern() {}

func (r Rest) String() string {
	if isAnonymous(r.Name) {
		return ".."
	}
	return r.Name + " @ .."
}

// Any returns the anonymous wildcard.
func Any() Pattern { return Wildcard{} }

// Bind returns a wildcard that binds the matched value to name.
func Bind(name string) Pattern { return Wildcard{Name: name} }

// Lit returns a literal pattern.
func Lit(v any) Pattern { return Literal{Value: v} }

// AnyRest returns an anonymous rest marker for use inside Sequence.
func AnyRest() Pattern { return Rest{} }

// RestAs returns a rest marker that binds the run to name.
func RestAs(name string) Pattern { return Rest{Name: name} }

// Sequence builds a Seq from positional elements. The first Rest element
// splits the prefix from the suffix. Later Rest elements are kept in the
// suffix, where NewTable rejects them.
func Sequence(elems ...Pattern) Seq {
	for i, e := range elems {
		if r, ok := e.(Rest); ok {
			return Seq{
				Prefix: clonePatterns(elems[:i]),
				Rest:   &Rest{Name: r.Name},
				Suffix: clonePatterns(elems[i+1:]),
			}
		}
	}
	return Seq{Prefix: clonePatterns(elems)}
}

// Match checks v against p and returns the bindings on success.
//
// Precondition: a name is bound at most once within p (NewTable enforces
// this for arms). Match itself does not detect re-use; the last binding wins.
func Match(p Pattern, v any) (Bindings, bool) {
	b := Bindings{}
	if !match(p, reflect.ValueOf(v), b) {
		return nil, false
	}
	return b, true
}

func match(p Pattern, v reflect.Value, b Bindings) bool {
	// Elements of []any and similar arrive boxed
	if v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	switch pat := p.(type) {
	case Wildcard:
		if !isAnonymous(pat.Name) {
			b[pat.Name] = valueInterface(v)
		}
		return true

	case Literal:
		return literalEqual(pat.Value, v)

	case Seq:
		return matchSeq(pat, v, b)

	default:
		// Rest outside a Seq, nil pattern
		return false
	}
}

func matchSeq(s Seq, v reflect.Value, b Bindings) bool {
	if !v.IsValid() {
		return false
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return false
	}

	n := v.Len()
	if s.Rest == nil {
		if n != len(s.Prefix) {
			return false
		}
		for i, el := range s.Prefix {
			if !match(el, v.Index(i), b) {
				return false
			}
		}
		return true
	}

	if n < len(s.Prefix)+len(s.Suffix) {
		return false
	}
	for i, el := range s.Prefix {
		if !match(el, v.Index(i), b) {
			return false
		}
	}
	tail := n - len(s.Suffix)
	for j, el := range s.Suffix {
		if !match(el, v.Index(tail+j), b) {
			return false
		}
	}
	if !isAnonymous(s.Rest.Name) {
		b[s.Rest.Name] = restRun(v, len(s.Prefix), tail)
	}
	return true
}

// restRun returns elements [lo, hi) of v as a slice of the element type.
// Slices are re-sliced with capacity clipped to the run; arrays are copied.
func restRun(v reflect.Value, lo, hi int) any {
	if v.Kind() == reflect.Slice {
		return v.Slice3(lo, hi, hi).Interface()
	}
	out := reflect.MakeSlice(reflect.SliceOf(v.Type().Elem()), hi-lo, hi-lo)
	for i := lo; i < hi; i++ {
		out.Index(i - lo).Set(v.Index(i))
	}
	return out.Interface()
}

// literalEqual compares a literal against a value by the value type's
// equality. Basic-kind literals are converted to the value's type first.
func literalEqual(lit any, v reflect.Value) bool {
	if !v.IsValid() {
		return lit == nil
	}
	if lit == nil {
		return isNilValue(v)
	}

	lv := reflect.ValueOf(lit)
	if lv.Type() != v.Type() {
		converted, ok := convertBasic(lv, v.Type())
		if !ok {
			return false
		}
		lv = converted
	}

	if lv.Comparable() && v.Comparable() {
		return lv.Equal(v)
	}
	return reflect.DeepEqual(lv.Interface(), valueInterface(v))
}

// convertBasic converts a bool, string, or numeric literal to target when
// the literal's value is exactly representable there.
func convertBasic(lv reflect.Value, target reflect.Type) (reflect.Value, bool) {
	switch {
	case lv.Kind() == reflect.Bool && target.Kind() == reflect.Bool,
		lv.Kind() == reflect.String && target.Kind() == reflect.String:
		return lv.Convert(target), true
	case isInt(lv.Kind()):
		return convertNumber(float64(lv.Int()), lv.Int() >= 0, uint64(lv.Int()), lv.Int(), target)
	case isUint(lv.Kind()):
		u := lv.Uint()
		if u > math.MaxInt64 {
			// Only representable in unsigned targets
			if isUint(target.Kind()) && !reflect.Zero(target).OverflowUint(u) {
				return reflect.ValueOf(u).Convert(target), true
			}
			return reflect.Value{}, false
		}
		return convertNumber(float64(u), true, u, int64(u), target)
	case isFloat(lv.Kind()):
		f := lv.Float()
		switch {
		case isFloat(target.Kind()):
			return reflect.ValueOf(f).Convert(target), true
		case f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f):
			return reflect.Value{}, false
		case f >= math.MinInt64 && f < math.MaxInt64:
			return convertNumber(f, f >= 0, uint64(f), int64(f), target)
		}
	}
	return reflect.Value{}, false
}

func convertNumber(f float64, nonNegative bool, u uint64, i int64, target reflect.Type) (reflect.Value, bool) {
	zero := reflect.Zero(target)
	switch {
	case isInt(target.Kind()):
		if zero.OverflowInt(i) {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(i).Convert(target), true
	case isUint(target.Kind()):
		if !nonNegative || zero.OverflowUint(u) {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(u).Convert(target), true
	case isFloat(target.Kind()):
		return reflect.ValueOf(f).Convert(target), true
	}
	return reflect.Value{}, false
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// valueInterface returns v as an interface value, nil for the zero Value.
func valueInterface(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func isAnonymous(name string) bool {
	return name == "" || name == "_"
}

func patternString(p Pattern) string {
	if p == nil {
		return "<nil>"
	}
	return p.String()
}

func clonePatterns(ps []Pattern) []Pattern {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Pattern, len(ps))
	copy(out, ps)
	return out
}

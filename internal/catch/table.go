package catch

import (
	"fmt"
	"reflect"
)

// Table is an ordered, immutable sequence of arms.
//
// INVARIANTS:
//   - Arm order never changes after NewTable
//   - Every arm passed validation (see TableError codes)
//   - Every arm has a non-empty label
type Table[R any] struct {
	arms []Arm[R]
}

// NewTable validates arms and builds a table in declaration order.
// The arms slice is copied. An empty table is valid and rethrows every payload.
// Unlabeled arms are labeled "arm <index>".
func NewTable[R any](arms ...Arm[R]) (*Table[R], error) {
	copied := make([]Arm[R], len(arms))
	for i, arm := range arms {
		if arm.label == "" {
			arm.label = fmt.Sprintf("arm %d", i)
		}
		if err := validateArm(i, arm); err != nil {
			return nil, err
		}
		copied[i] = arm
	}
	return &Table[R]{arms: copied}, nil
}

// MustTable is NewTable that panics with the *TableError.
func MustTable[R any](arms ...Arm[R]) *Table[R] {
	t, err := NewTable(arms...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of arms. A nil table has none.
func (t *Table[R]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.arms)
}

// Arm returns the i-th arm.
func (t *Table[R]) Arm(i int) Arm[R] {
	return t.arms[i]
}

// Arms returns a copy of the arms in declaration order.
func (t *Table[R]) Arms() []Arm[R] {
	if t == nil {
		return nil
	}
	out := make([]Arm[R], len(t.arms))
	copy(out, t.arms)
	return out
}

func validateArm[R any](i int, arm Arm[R]) error {
	fail := func(code TableErrorCode, format string, args ...any) error {
		return &TableError{Code: code, Arm: i, Label: arm.label, Message: fmt.Sprintf(format, args...)}
	}

	if arm.tag.IsZero() {
		return fail(ErrCodeInvalidTag, "arm has no type")
	}
	if arm.tag.Type().Kind() == reflect.Interface {
		return fail(ErrCodeInvalidTag, "interface type %s never equals a dynamic payload type", arm.tag)
	}
	if arm.handler == nil {
		return fail(ErrCodeNilHandler, "arm has no handler")
	}
	if arm.pattern == nil {
		return fail(ErrCodeNilPattern, "arm has no pattern")
	}

	seen := make(map[string]bool)
	if code, msg := checkPattern(arm.pattern, seen, false); code != "" {
		return fail(code, "%s", msg)
	}
	return nil
}

// checkPattern walks p and reports the first authoring error.
// seen collects names bound so far across the whole pattern.
func checkPattern(p Pattern, seen map[string]bool, inSuffix bool) (TableErrorCode, string) {
	bind := func(name string) (TableErrorCode, string) {
		if isAnonymous(name) {
			return "", ""
		}
		if seen[name] {
			return ErrCodeDuplicateBinding, fmt.Sprintf("name %q bound more than once", name)
		}
		seen[name] = true
		return "", ""
	}

	switch pat := p.(type) {
	case nil:
		return ErrCodeNilPattern, "sequence element has no pattern"
	case Wildcard:
		return bind(pat.Name)
	case Literal:
		return "", ""
	case Rest:
		if inSuffix {
			return ErrCodeMultipleRest, "sequence has more than one rest capture"
		}
		return ErrCodeMisplacedRest, "rest capture outside a sequence"
	case Seq:
		for _, el := range pat.Prefix {
			if code, msg := checkPattern(el, seen, false); code != "" {
				return code, msg
			}
		}
		if pat.Rest == nil {
			if len(pat.Suffix) > 0 {
				return ErrCodeMisplacedRest, "sequence suffix without a rest capture"
			}
			return "", ""
		}
		if code, msg := bind(pat.Rest.Name); code != "" {
			return code, msg
		}
		for _, el := range pat.Suffix {
			if code, msg := checkPattern(el, seen, true); code != "" {
				return code, msg
			}
		}
		return "", ""
	default:
		return ErrCodeNilPattern, fmt.Sprintf("unknown pattern %T", p)
	}
}

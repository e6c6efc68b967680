package queryir

import (
	"errors"
	"fmt"

	"github.com/roach88/trycatch/internal/ir"
)

// Validate checks that every predicate names a known field and compares
// it with a value of the field's kind. It returns all problems joined.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addf("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addf("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addf("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.Limit < 0 {
		v.addf("negative limit %d", sel.Limit)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addf("nil predicate")
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		if pred == nil {
			v.addf("nil predicate")
			return
		}
		v.validateEquals(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		if pred == nil {
			v.addf("nil predicate")
			return
		}
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addf("unknown predicate type %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	if !eq.Field.Valid() {
		v.addf("unknown field %q", eq.Field)
		return
	}
	switch val := eq.Value.(type) {
	case ir.IRInt:
		if !eq.Field.Numeric() {
			v.addf("field %q compared to integer %d", eq.Field, val)
		}
	case ir.IRString:
		if eq.Field.Numeric() {
			v.addf("field %q compared to string %q", eq.Field, val)
		}
		if eq.Field == FieldOutcome && !ir.Outcome(val).Valid() {
			v.addf("unknown outcome %q", val)
		}
	default:
		// Journal fields are never NULL, so nulls, bools and containers
		// can never match.
		v.addf("field %q compared to %T", eq.Field, eq.Value)
	}
}

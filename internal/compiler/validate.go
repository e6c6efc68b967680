package compiler

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/lower"
)

// Validation error codes (E100-E199)
const (
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Table errors (E101-E104)
	ErrTableNameEmpty     = "E101" // table name is required
	ErrArmTypeEmpty       = "E102" // arm type is required
	ErrUnknownType        = "E103" // type name not in the registry
	ErrInvalidPatternKind = "E104" // unknown pattern kind

	// Pattern errors (E105-E109)
	ErrDuplicateBinding = "E105" // name bound twice in one pattern
	ErrMultipleRest     = "E106" // more than one rest in a seq
	ErrMisplacedRest    = "E107" // rest outside a seq
	ErrSeqOnScalar      = "E108" // seq pattern on a non-sequence type
	ErrLiteralMismatch  = "E109" // literal not representable in the matched type

	// Handler errors (E110-E112)
	ErrInvalidHandlerKind = "E110" // unknown handler kind
	ErrInvalidFormat      = "E111" // unparsable format or unbound reference
	ErrEmptyPanicMessage  = "E112" // panic handler without a message

	// Table-level lint (E113-E115)
	ErrDuplicateLabel = "E113" // two arms share a label
	ErrUnreachableArm = "E114" // arm shadowed by an earlier catch-all of the same type
	ErrDuplicateTable = "E115" // two tables share a name
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports TableSpec and []TableSpec.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.TableSpec:
		return validateTable(spec)
	case ir.TableSpec:
		return validateTable(&spec)
	case []ir.TableSpec:
		return validateTables(spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateTables(specs []ir.TableSpec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i := range specs {
		// E115: duplicate table name
		if seen[specs[i].Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tables[%d].name", i),
				Message: fmt.Sprintf("duplicate table name: %q", specs[i].Name),
				Code:    ErrDuplicateTable,
			})
		}
		seen[specs[i].Name] = true

		for _, e := range validateTable(&specs[i]) {
			e.Field = fmt.Sprintf("%s.%s", specs[i].Name, e.Field)
			errs = append(errs, e)
		}
	}
	return errs
}

func validateTable(spec *ir.TableSpec) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "table name is required and must be non-empty",
			Code:    ErrTableNameEmpty,
		})
	}

	labels := make(map[string]int)
	catchAll := make(map[string]int) // type name -> first irrefutable arm

	for i, arm := range spec.Arms {
		field := fmt.Sprintf("arms[%d]", i)

		// E113: duplicate label
		if arm.Label != "" {
			if first, ok := labels[arm.Label]; ok {
				errs = append(errs, ValidationError{
					Field:   field + ".label",
					Message: fmt.Sprintf("label %q already used by arm %d", arm.Label, first),
					Code:    ErrDuplicateLabel,
				})
			} else {
				labels[arm.Label] = i
			}
		}

		t, typeErrs := validateArmType(arm.Type, field+".type")
		errs = append(errs, typeErrs...)

		errs = append(errs, validatePattern(arm.Pattern, t, field+".pattern", true)...)
		errs = append(errs, validateBindings(arm.Pattern, field+".pattern")...)
		errs = append(errs, validateHandler(arm, field+".handler")...)

		// E114: shadowed by an earlier catch-all of the same type
		if t != nil {
			name := lower.TypeName(t)
			if first, ok := catchAll[name]; ok {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("unreachable: arm %d already matches every %s", first, name),
					Code:    ErrUnreachableArm,
				})
			} else if arm.Pattern.Kind == ir.PatternWildcard {
				catchAll[name] = i
			}
		}
	}

	return errs
}

func validateArmType(name, field string) (reflect.Type, []ValidationError) {
	// E102: type is required
	if strings.TrimSpace(name) == "" {
		return nil, []ValidationError{{Field: field, Message: "arm type is required", Code: ErrArmTypeEmpty}}
	}
	// E103: type must resolve
	t, err := lower.ParseType(name)
	if err != nil {
		return nil, []ValidationError{{Field: field, Message: fmt.Sprintf("unknown type %q", name), Code: ErrUnknownType}}
	}
	return t, nil
}

// validatePattern checks pattern structure against the arm type t.
// t is nil when the type did not resolve; type-dependent checks are skipped.
func validatePattern(p ir.PatternSpec, t reflect.Type, field string, top bool) []ValidationError {
	var errs []ValidationError

	switch p.Kind {
	case ir.PatternWildcard:
	case ir.PatternRest:
		// E107: rest only as a seq element
		if top {
			errs = append(errs, ValidationError{Field: field, Message: "rest is only valid inside seq", Code: ErrMisplacedRest})
		}

	case ir.PatternLiteral:
		// E109: literal must convert to the matched type
		if t != nil {
			if _, err := lower.LiteralValue(p.Value, t); err != nil {
				errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrLiteralMismatch})
			}
		}

	case ir.PatternSeq:
		// E108: seq requires slice or array
		var elem reflect.Type
		if t != nil {
			if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("seq pattern on non-sequence type %s", lower.TypeName(t)),
					Code:    ErrSeqOnScalar,
				})
			} else {
				elem = t.Elem()
			}
		}

		rests := 0
		for i, e := range p.Elems {
			elemField := fmt.Sprintf("%s.elems[%d]", field, i)
			if e.Kind == ir.PatternRest {
				rests++
				// E106: at most one rest
				if rests == 2 {
					errs = append(errs, ValidationError{Field: elemField, Message: "seq has more than one rest", Code: ErrMultipleRest})
				}
				continue
			}
			errs = append(errs, validatePattern(e, elem, elemField, false)...)
		}

		// E108 (arrays): fixed positions must fit the array length
		if elem != nil && t.Kind() == reflect.Array {
			fixed := len(p.Elems) - rests
			if (rests == 0 && fixed != t.Len()) || (rests > 0 && fixed > t.Len()) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("seq with %d fixed elements can never match %s", fixed, lower.TypeName(t)),
					Code:    ErrSeqOnScalar,
				})
			}
		}

	default:
		// E104: unknown kind
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unknown pattern kind %q", p.Kind), Code: ErrInvalidPatternKind})
	}

	return errs
}

// validateBindings reports names bound more than once (E105).
func validateBindings(p ir.PatternSpec, field string) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, name := range p.Bound() {
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("name %q bound more than once", name),
				Code:    ErrDuplicateBinding,
			})
		}
		seen[name] = true
	}
	return errs
}

func validateHandler(arm ir.ArmSpec, field string) []ValidationError {
	h := arm.Handler
	switch h.Kind {
	case ir.HandlerValue:
		return nil

	case ir.HandlerFormat:
		// E111: template must parse and only read bound names
		tmpl, err := lower.ParseFormat(field, h.Format)
		if err != nil {
			return []ValidationError{{Field: field + ".format", Message: err.Error(), Code: ErrInvalidFormat}}
		}
		bound := arm.Pattern.Bound()
		var errs []ValidationError
		for _, name := range lower.FormatFields(tmpl) {
			if !slices.Contains(bound, name) {
				errs = append(errs, ValidationError{
					Field:   field + ".format",
					Message: fmt.Sprintf("format reads unbound name %q", name),
					Code:    ErrInvalidFormat,
				})
			}
		}
		return errs

	case ir.HandlerPanic:
		// E112: message required
		if h.Message == "" {
			return []ValidationError{{Field: field + ".message", Message: "panic handler requires a message", Code: ErrEmptyPanicMessage}}
		}
		return nil

	default:
		// E110: unknown kind
		return []ValidationError{{Field: field + ".kind", Message: fmt.Sprintf("unknown handler kind %q", h.Kind), Code: ErrInvalidHandlerKind}}
	}
}

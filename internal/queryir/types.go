package queryir

import "github.com/roach88/trycatch/internal/ir"

// Query is a journal query.
//
// This is a sealed interface; Select is its only implementation.
type Query interface {
	queryNode()
}

// Predicate is a filter condition. Equals and And implement it.
type Predicate interface {
	predicateNode()
}

// Field names a filterable journal field.
type Field string

const (
	FieldID          Field = "id"
	FieldTable       Field = "table"
	FieldTableHash   Field = "table_hash"
	FieldOutcome     Field = "outcome"
	FieldArm         Field = "arm"
	FieldLabel       Field = "label"
	FieldPayloadType Field = "payload_type"
	FieldPayloadHash Field = "payload_hash"
)

// Fields lists every filterable field.
var Fields = []Field{
	FieldID, FieldTable, FieldTableHash, FieldOutcome,
	FieldArm, FieldLabel, FieldPayloadType, FieldPayloadHash,
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Numeric reports whether f compares against IRInt values.
func (f Field) Numeric() bool {
	return f == FieldArm
}

// Select returns the dispatches matching Filter in journal order.
//
// A nil Filter selects every dispatch. Limit 0 means no limit.
type Select struct {
	Filter Predicate
	Limit  int
}

func (Select) queryNode() {}

// Equals matches dispatches whose Field equals Value.
type Equals struct {
	Field Field
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// And matches dispatches satisfying every predicate. An empty And
// matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// ForTable selects the dispatches of a table that satisfy preds.
func ForTable(table string, preds ...Predicate) Select {
	all := make([]Predicate, 0, len(preds)+1)
	all = append(all, Equals{Field: FieldTable, Value: ir.IRString(table)})
	all = append(all, preds...)
	return Select{Filter: And{Predicates: all}}
}

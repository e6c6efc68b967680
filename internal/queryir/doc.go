// Package queryir describes queries over the dispatch journal.
//
// A query is a Select with an optional predicate tree. Predicates compare
// journal fields with IR values and combine with And:
//
//	queryir.ForTable("slices",
//	    queryir.Equals{Field: queryir.FieldOutcome, Value: ir.IRString("matched")},
//	    queryir.Equals{Field: queryir.FieldArm, Value: ir.IRInt(2)},
//	)
//
// The package holds no backend code. querysql compiles queries to
// parameterized SQLite; store executes them. Validate rejects queries a
// backend cannot compile, so backends can assume well-formed input.
package queryir

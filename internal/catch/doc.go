// Package catch implements typed try/catch dispatch on top of panic and recover.
//
// A protected computation runs under Capture. If it panics, the recovered
// payload is checked against an ordered Table of arms. Each arm pairs a
// TypeTag (exact dynamic type of the payload) with a structural Pattern over
// values of that type, and a handler that receives the Bindings produced by
// the pattern.
//
// DISPATCH RULES:
//   - Completed computations return their value; no arm is evaluated.
//   - Arms are evaluated in declaration order. The first arm whose type and
//     pattern both match wins; later arms are never evaluated.
//   - If no arm matches, the original payload is re-panicked unchanged.
//   - Handlers run outside the recover scope. A panic raised by a handler
//     propagates past the dispatcher untouched.
//
// Example:
//
//	res := catch.Try(func() string {
//	    panic([]string{"this", "is", "a", "array"})
//	},
//	    catch.On(catch.Any(), func(int, catch.Bindings) string { panic("Nope!") }),
//	    catch.On(catch.Sequence(catch.Lit("this"), catch.Bind("h"), catch.RestAs("t")),
//	        func(_ []string, b catch.Bindings) string {
//	            return catch.MustGet[string](b, "h") + "_" + catch.MustGet[[]string](b, "t")[1]
//	        }),
//	)
//	// res == "is_array"
//
// PRECONDITIONS:
//
// Only panics are captured. runtime.Goexit is not a panic and keeps
// unwinding through Capture. Fatal runtime errors (concurrent map writes,
// out of memory) terminate the process and never reach the dispatcher.
// Running with GODEBUG=panicnil=1 makes panic(nil) indistinguishable from
// Goexit; the package assumes the default, where panic(nil) is delivered as
// *runtime.PanicNilError.
//
// The dispatcher is synchronous. Capture, arm iteration, and handler calls
// all happen on the calling goroutine. A Table is read-only after NewTable
// and may be shared between goroutines without locking.
package catch

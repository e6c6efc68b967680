package catch

// Result is the outcome of running a protected computation: either the
// computation's value (Completed) or a recovered panic payload (Captured).
//
// Tests can build either variant directly and hand it to
// Dispatcher.Resolve without panicking for real.
type Result[R any] struct {
	value    R
	payload  any
	captured bool
}

// Completed wraps a normal return value.
func Completed[R any](v R) Result[R] {
	return Result[R]{value: v}
}

// Captured wraps a recovered panic payload.
func Captured[R any](payload any) Result[R] {
	return Result[R]{payload: payload, captured: true}
}

// IsCaptured reports whether the computation panicked.
func (r Result[R]) IsCaptured() bool {
	return r.captured
}

// Value returns the normal return value; ok is false for a captured result.
func (r Result[R]) Value() (v R, ok bool) {
	return r.value, !r.captured
}

// Payload returns the recovered payload; ok is false for a completed result.
func (r Result[R]) Payload() (payload any, ok bool) {
	return r.payload, r.captured
}

// Capture runs protected and intercepts a panic raised inside it.
//
// runtime.Goexit is not intercepted: recover returns nil during Goexit and
// the goroutine keeps unwinding. Side effects of protected persist in both
// outcomes.
func Capture[R any](protected func() R) (res Result[R]) {
	finished := false
	defer func() {
		if finished {
			return
		}
		// Since Go 1.21 a recovered nil means Goexit, never panic(nil)
		if r := recover(); r != nil {
			res = Captured[R](r)
		}
	}()

	v := protected()
	finished = true
	return Completed(v)
}

// Rethrow resumes unwinding with payload. Recovering the resulting panic
// yields the identical value.
func Rethrow(payload any) {
	panic(payload)
}

package testutil

// CapturePanic runs fn and returns the value it panicked with.
// panicked is false when fn returned normally.
func CapturePanic(fn func()) (payload any, panicked bool) {
	finished := false
	defer func() {
		if !finished {
			payload = recover()
			panicked = true
		}
	}()
	fn()
	finished = true
	return nil, false
}

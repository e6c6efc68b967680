package catch

import "fmt"

// State is a step of one dispatch.
//
//	Running -> Completed
//	Running -> Captured -> Matching(0) -> ... -> Matched | Exhausted
//
// Completed and Matched are the terminal success states; Exhausted is
// terminal and followed by a rethrow.
type State int

const (
	StateRunning State = iota
	StateCompleted
	StateCaptured
	StateMatching
	StateMatched
	StateExhausted
)

var stateNames = [...]string{
	StateRunning:   "running",
	StateCompleted: "completed",
	StateCaptured:  "captured",
	StateMatching:  "matching",
	StateMatched:   "matched",
	StateExhausted: "exhausted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further state follows s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateMatched || s == StateExhausted
}

// Event reports a state transition to an Observer.
type Event struct {
	State State

	// Arm is the index of the arm being tried or that matched; -1 otherwise.
	Arm   int
	Label string

	// PayloadType is the payload's dynamic type name; empty until captured.
	PayloadType string
	Payload     any

	// Bindings is set only for StateMatched. Observers must not modify it;
	// the same map is passed to the handler.
	Bindings Bindings
}

// Observer receives dispatch events synchronously on the dispatching
// goroutine, before the corresponding step runs. An observer that panics
// aborts the dispatch with its own panic.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// Observers fans each event out to obs in order. It returns nil for no
// observers and the observer itself for one.
func Observers(obs ...Observer) Observer {
	switch len(obs) {
	case 0:
		return nil
	case 1:
		return obs[0]
	}
	return multiObserver(obs)
}

type multiObserver []Observer

func (m multiObserver) Observe(ev Event) {
	for _, o := range m {
		o.Observe(ev)
	}
}

package lower

import (
	"slices"

	"github.com/roach88/trycatch/internal/catch"
	"github.com/roach88/trycatch/internal/ir"
)

// HandlerPanic names executions whose selected handler panicked. It is
// reported by Execution.Status and never journaled; the journal records
// such dispatches as matched.
const HandlerPanic = "handler_panic"

// Execution is the observed result of one dispatch.
type Execution struct {
	Outcome         ir.Outcome
	HandlerPanicked bool
	Arm             int
	Label           string
	Bindings        catch.Bindings
	Value           ir.IRValue // set unless the dispatch ended in a panic
	Panic           any        // the rethrown payload or the handler's panic
}

// Status returns the outcome name, or HandlerPanic.
func (e Execution) Status() string {
	if e.HandlerPanicked {
		return HandlerPanic
	}
	return string(e.Outcome)
}

// Execute runs protected through the program's dispatcher and recovers
// whatever escapes it. obs, when non-nil, receives every event, as does
// any observer registered through opts.
func (p *Program) Execute(protected func() ir.IRValue, obs catch.Observer, opts ...catch.Option) Execution {
	ex := Execution{Arm: -1}
	track := catch.ObserverFunc(func(ev catch.Event) {
		switch ev.State {
		case catch.StateCompleted:
			ex.Outcome = ir.OutcomeCompleted
		case catch.StateMatched:
			ex.Outcome = ir.OutcomeMatched
			ex.Arm = ev.Arm
			ex.Label = ev.Label
			ex.Bindings = ev.Bindings
		case catch.StateExhausted:
			ex.Outcome = ir.OutcomeRethrown
		}
		if obs != nil {
			obs.Observe(ev)
		}
	})
	opts = append(slices.Clip(opts), catch.WithObserver(track))

	func() {
		defer func() {
			if r := recover(); r != nil {
				ex.Panic = r
				ex.HandlerPanicked = ex.Outcome == ir.OutcomeMatched
			}
		}()
		ex.Value = p.Dispatcher(opts...).Run(protected)
	}()
	return ex
}

// ExecutePayload dispatches a computation that panics with payload.
func (p *Program) ExecutePayload(payload any, obs catch.Observer, opts ...catch.Option) Execution {
	return p.Execute(func() ir.IRValue { panic(payload) }, obs, opts...)
}

// ExecuteCompleted dispatches a computation that returns v normally.
func (p *Program) ExecuteCompleted(v ir.IRValue, obs catch.Observer, opts ...catch.Option) Execution {
	return p.Execute(func() ir.IRValue { return v }, obs, opts...)
}

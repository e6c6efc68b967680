package catch

import "log/slog"

// Dispatcher runs protected computations against one dispatch table.
//
// A Dispatcher holds no per-dispatch state and may be reused, including
// from several goroutines at once when its Observer allows that.
type Dispatcher[R any] struct {
	table    *Table[R]
	observer Observer
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	observers []Observer
	logger    *slog.Logger
}

// WithObserver registers an observer for dispatch state transitions.
// Observers registered by repeated options all receive every event, in
// registration order. A nil observer is ignored.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observers = append(opts.observers, o)
		}
	}
}

// WithLogger sets the logger for per-arm debug output.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}

// New creates a Dispatcher for table. A nil table behaves as empty.
func New[R any](table *Table[R], opts ...Option) *Dispatcher[R] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Dispatcher[R]{
		table:    table,
		observer: Observers(o.observers...),
		logger:   o.logger,
	}
}

// Table returns the dispatcher's table.
func (d *Dispatcher[R]) Table() *Table[R] {
	return d.table
}

// Run executes protected under Capture and resolves the outcome.
// See Resolve.
func (d *Dispatcher[R]) Run(protected func() R) R {
	d.emit(Event{State: StateRunning, Arm: -1})
	return d.Resolve(Capture(protected))
}

// Resolve finishes a dispatch from an already captured outcome.
//
// A completed result is returned as is and no arm is evaluated. A captured
// payload is offered to each arm in declaration order; the first arm whose
// type and pattern match has its handler called with the bindings, and the
// handler's return value is returned. If no arm matches, the payload is
// re-panicked unchanged.
func (d *Dispatcher[R]) Resolve(res Result[R]) R {
	if v, ok := res.Value(); ok {
		d.emit(Event{State: StateCompleted, Arm: -1})
		return v
	}

	payload, _ := res.Payload()
	typeName := TypeName(payload)
	d.emit(Event{State: StateCaptured, Arm: -1, PayloadType: typeName, Payload: payload})

	sel, ok := d.selectArm(payload, typeName)
	if !ok {
		d.logger.Debug("dispatch exhausted, rethrowing",
			"payload_type", typeName,
			"arms", d.table.Len(),
		)
		d.emit(Event{State: StateExhausted, Arm: -1, PayloadType: typeName, Payload: payload})
		Rethrow(payload)
	}

	arm := d.table.arms[sel.Arm]
	d.emit(Event{
		State:       StateMatched,
		Arm:         sel.Arm,
		Label:       sel.Label,
		PayloadType: typeName,
		Payload:     payload,
		Bindings:    sel.Bindings,
	})

	// Outside the recover scope: handler panics propagate untouched
	return arm.handler(payload, sel.Bindings)
}

// Selection identifies the arm chosen for a payload.
type Selection struct {
	Arm      int
	Label    string
	Bindings Bindings
}

// Select returns the first arm matching payload without running its
// handler. It emits no events.
func (d *Dispatcher[R]) Select(payload any) (Selection, bool) {
	for i := 0; i < d.table.Len(); i++ {
		if b, ok := d.table.arms[i].try(payload); ok {
			return Selection{Arm: i, Label: d.table.arms[i].label, Bindings: b}, true
		}
	}
	return Selection{Arm: -1}, false
}

// selectArm is Select with Matching events and debug logging.
func (d *Dispatcher[R]) selectArm(payload any, typeName string) (Selection, bool) {
	for i := 0; i < d.table.Len(); i++ {
		arm := d.table.arms[i]
		d.emit(Event{State: StateMatching, Arm: i, Label: arm.label, PayloadType: typeName, Payload: payload})

		b, ok := arm.try(payload)
		if !ok {
			d.logger.Debug("arm skipped",
				"arm", i,
				"label", arm.label,
				"arm_type", arm.tag.String(),
				"payload_type", typeName,
			)
			continue
		}

		d.logger.Debug("arm matched",
			"arm", i,
			"label", arm.label,
			"pattern", patternString(arm.pattern),
			"binding_count", len(b),
		)
		return Selection{Arm: i, Label: arm.label, Bindings: b}, true
	}
	return Selection{Arm: -1}, false
}

func (d *Dispatcher[R]) emit(ev Event) {
	if d.observer != nil {
		d.observer.Observe(ev)
	}
}

// Dispatch runs protected and dispatches a panic against table.
func Dispatch[R any](protected func() R, table *Table[R]) R {
	return New(table).Run(protected)
}

// Try is Dispatch with the table built from arms in place.
// Panics with a *TableError if the arms are misconfigured, before protected runs.
func Try[R any](protected func() R, arms ...Arm[R]) R {
	return Dispatch(protected, MustTable(arms...))
}

package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/trycatch/internal/catch"
	"github.com/roach88/trycatch/internal/ir"
	"github.com/roach88/trycatch/internal/lower"
)

// Writer persists dispatch records. *store.Store implements it.
type Writer interface {
	WriteDispatch(ctx context.Context, rec ir.DispatchRecord) error
}

// Journal writes one record per dispatch of a single table.
//
// Observe tracks one dispatch at a time and must not be shared by
// concurrent dispatches; use ForDispatch to get an independent observer
// per dispatch instead.
type Journal struct {
	writer    Writer
	table     string
	tableHash string

	ids    IDGenerator
	clock  Sequencer
	logger *slog.Logger
	ctx    context.Context

	mu      sync.Mutex
	cur     *Dispatch
	lastErr error
	written int
}

// Option configures a Journal.
type Option func(*Journal)

// WithIDGenerator sets the dispatch ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(j *Journal) { j.ids = g }
}

// WithClock sets the sequence clock. Default: NewClock().
func WithClock(c Sequencer) Option {
	return func(j *Journal) { j.clock = c }
}

// WithLogger sets the logger for write failures. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

// WithContext sets the context passed to Writer. Default: context.Background().
func WithContext(ctx context.Context) Option {
	return func(j *Journal) { j.ctx = ctx }
}

// New creates a journal for dispatches of the named table.
func New(w Writer, table, tableHash string, opts ...Option) *Journal {
	j := &Journal{
		writer:    w,
		table:     table,
		tableHash: tableHash,
		ids:       UUIDv7Generator{},
		clock:     NewClock(),
		logger:    slog.Default(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// ForProgram creates a journal for a lowered program.
func ForProgram(w Writer, prog *lower.Program, opts ...Option) *Journal {
	return New(w, prog.Spec.Name, prog.Hash, opts...)
}

// Observe implements catch.Observer for sequential dispatches.
func (j *Journal) Observe(ev catch.Event) {
	j.mu.Lock()
	if ev.State == catch.StateRunning || j.cur == nil {
		j.cur = j.ForDispatch()
	}
	d := j.cur
	if ev.State.Terminal() {
		j.cur = nil
	}
	j.mu.Unlock()

	d.Observe(ev)
}

// ForDispatch returns an observer for exactly one dispatch.
func (j *Journal) ForDispatch() *Dispatch {
	return &Dispatch{j: j}
}

// Err returns the most recent write error, or nil.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Written returns the number of records written successfully.
func (j *Journal) Written() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written
}

func (j *Journal) write(rec ir.DispatchRecord) {
	err := j.writer.WriteDispatch(j.ctx, rec)

	j.mu.Lock()
	if err != nil {
		j.lastErr = err
	} else {
		j.written++
	}
	j.mu.Unlock()

	if err != nil {
		j.logger.Warn("journal write failed",
			"dispatch_id", rec.ID,
			"table", rec.Table,
			"outcome", string(rec.Outcome),
			"error", err,
		)
	}
}

// Dispatch follows the events of one dispatch.
type Dispatch struct {
	j    *Journal
	rec  ir.DispatchRecord
	done bool
}

// Observe implements catch.Observer.
func (d *Dispatch) Observe(ev catch.Event) {
	if d.done {
		return
	}

	switch ev.State {
	case catch.StateCaptured:
		d.capture(ev.Payload)
		return
	case catch.StateCompleted:
		d.rec.Outcome = ir.OutcomeCompleted
	case catch.StateMatched:
		d.rec.Outcome = ir.OutcomeMatched
		d.rec.Arm = ev.Arm
		d.rec.Label = ev.Label
		d.rec.Bindings = d.bindings(ev.Bindings)
	case catch.StateExhausted:
		d.rec.Outcome = ir.OutcomeRethrown
	default:
		return
	}

	d.done = true
	d.finish()
}

// Record returns the record built so far. After a terminal event it is the
// record that was written.
func (d *Dispatch) Record() ir.DispatchRecord {
	return d.rec
}

func (d *Dispatch) capture(payload any) {
	typeName, value, ok := lower.EncodePayload(payload)
	if !ok {
		d.j.logger.Debug("payload journaled as text", "payload_type", typeName)
	}
	d.rec.PayloadType = typeName
	d.rec.Payload = value
	if h, err := ir.PayloadHash(typeName, value); err == nil {
		d.rec.PayloadHash = h
	}
}

func (d *Dispatch) bindings(b catch.Bindings) ir.IRObject {
	obj, err := lower.EncodeBindings(b)
	if err == nil {
		return obj
	}
	// Fall back to text per binding
	obj = make(ir.IRObject, len(b))
	for name, v := range b {
		if enc, err := lower.EncodeValue(v); err == nil {
			obj[name] = enc
		} else {
			obj[name] = ir.IRString(fmt.Sprintf("%v", v))
		}
	}
	return obj
}

func (d *Dispatch) finish() {
	j := d.j
	d.rec.ID = j.ids.Generate()
	d.rec.Seq = j.clock.Next()
	d.rec.Table = j.table
	d.rec.TableHash = j.tableHash
	d.rec.EngineVersion = ir.EngineVersion
	if d.rec.Outcome != ir.OutcomeMatched {
		d.rec.Arm = -1
	}
	j.write(d.rec)
}

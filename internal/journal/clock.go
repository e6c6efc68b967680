package journal

import "sync/atomic"

var _ Sequencer = (*Clock)(nil)

// Sequencer issues strictly increasing seq values. *Clock implements it.
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock for journal ordering.
// Every record is stamped with a strictly increasing seq.
//
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start, typically the
// highest seq already in the store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

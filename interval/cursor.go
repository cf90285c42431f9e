package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Cursor tracks a scan's progress through one chromosome's intervals at a
// time.  Spans must be presented in order of nondecreasing start position
// within a chromosome; the cursor only ever moves forward, and reports an
// error instead of rewinding.
//
// A Cursor is not safe for concurrent use.  Create one per scan with
// Table.NewCursor.
type Cursor struct {
	table *Table
	// chrName is the name of the last observed chromosome.  It's only
	// meaningful when chrSet is true, since "" is a legal (if unlikely) key.
	chrName string
	chrSet  bool
	// ivs is the current chromosome's interval set.
	ivs []Interval
	// idx is the index of the first interval in ivs which may still intersect
	// a span; idx == len(ivs) means the cursor is exhausted.
	idx int
	// skip is true when no interval can intersect any further span on this
	// chromosome, either because it has none or because the cursor is
	// exhausted.
	skip bool
	// lastBegin is the start position of the previous span on this chromosome.
	lastBegin PosType
}

// Observe tells the cursor which chromosome the next span is on.  When the
// name differs from the previous call's, the chromosome's intervals are looked
// up (once per chromosome run) and the cursor is reset to the first one.  An
// unknown chromosome is not an error; it simply has no intervals.
func (c *Cursor) Observe(chrName string) {
	if c.chrSet && chrName == c.chrName {
		return
	}
	c.chrName = chrName
	c.chrSet = true
	c.ivs = c.table.Lookup(chrName)
	c.idx = 0
	c.skip = len(c.ivs) == 0
	c.lastBegin = 0
}

// Skipping returns true when no further span on the current chromosome can
// intersect an interval.
func (c *Cursor) Skipping() bool {
	return c.skip
}

// Current returns the interval the cursor is positioned on.  ok is false when
// the cursor is exhausted.
func (c *Cursor) Current() (iv Interval, ok bool) {
	if c.idx >= len(c.ivs) {
		return Interval{}, false
	}
	return c.ivs[c.idx], true
}

// checkOrder enforces nondecreasing span starts within a chromosome.
func (c *Cursor) checkOrder(begin PosType) error {
	if begin < c.lastBegin {
		return errors.E(errors.Invalid, fmt.Sprintf(
			"interval.Cursor: span starting at %s:%d follows a span starting at %d; input must be sorted by position",
			c.chrName, begin, c.lastBegin))
	}
	c.lastBegin = begin
	return nil
}

// Intersects reports whether the span [begin, end] on the current chromosome
// intersects some interval.  Intervals lying entirely before begin are
// consumed.  If the cursor runs off the end of the interval set, the rest of
// the chromosome is skipped cheaply.
//
// An error is returned when begin precedes the previous span's begin, or when
// end < begin.
func (c *Cursor) Intersects(begin, end PosType) (bool, error) {
	if end < begin {
		return false, errors.E(errors.Invalid, fmt.Sprintf("interval.Cursor: span end %d precedes begin %d on %s", end, begin, c.chrName))
	}
	if err := c.checkOrder(begin); err != nil {
		return false, err
	}
	if c.skip {
		return false, nil
	}
	c.idx = expsearchEnds(c.ivs, begin, c.idx)
	if c.idx == len(c.ivs) {
		c.skip = true
		return false, nil
	}
	// The search above guarantees begin <= c.ivs[c.idx].End.
	return end >= c.ivs[c.idx].Start, nil
}

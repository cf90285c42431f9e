package interval

import (
	"fmt"
	"math"
	"sort"
)

// PosType is the type used to represent interval coordinates.  int32 should be
// wide enough for some time to come, since that's what BAM is limited to.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Interval is a closed, 1-based genomic interval [Start, End].
type Interval struct {
	Start PosType
	End   PosType
}

// Len returns the number of positions covered by the interval.
func (iv Interval) Len() int {
	return int(iv.End-iv.Start) + 1
}

// Contains returns whether pos lies in [iv.Start, iv.End].
func (iv Interval) Contains(pos PosType) bool {
	return pos >= iv.Start && pos <= iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Start, iv.End)
}

// Table maps chromosome names to sorted, disjoint interval sets.  It is
// read-only once constructed, so a single Table may be shared by any number of
// concurrent scans as long as each scan uses its own Cursor.
type Table struct {
	// nameMap is a chromosome-keyed map with disjoint-interval-set values.
	// Always initialized.  A chromosome may be present with an empty slice
	// (e.g. a BED line with start == end), which behaves like an absent one.
	nameMap map[string][]Interval
	// names holds the chromosome names in order of first appearance.
	names []string
}

func initTable() Table {
	return Table{nameMap: make(map[string][]Interval)}
}

// NewTableFromMap initializes a Table from an already-sorted interval map.  It
// returns an error if any chromosome's intervals are out of order, overlap, or
// are malformed.  The map is not copied.
func NewTableFromMap(m map[string][]Interval) (Table, error) {
	t := initTable()
	for name, ivs := range m {
		if err := validateIntervals(name, ivs); err != nil {
			return Table{}, err
		}
		t.nameMap[name] = ivs
		t.names = append(t.names, name)
	}
	// Map iteration order is random; keep names deterministic.
	sort.Strings(t.names)
	return t, nil
}

func validateIntervals(name string, ivs []Interval) error {
	for i, iv := range ivs {
		if iv.Start < 0 || iv.End < iv.Start || iv.End >= PosTypeMax {
			return fmt.Errorf("interval.NewTableFromMap: invalid interval %v on %s", iv, name)
		}
		if i > 0 && ivs[i-1].End >= iv.Start {
			return fmt.Errorf("interval.NewTableFromMap: intervals %v and %v on %s are unsorted or overlapping", ivs[i-1], iv, name)
		}
	}
	return nil
}

// Lookup returns the intervals for the given chromosome, or nil if there are
// none.
func (t *Table) Lookup(chrName string) []Interval {
	return t.nameMap[chrName]
}

// ChrNames returns the names of the chromosomes mentioned in the table.
func (t *Table) ChrNames() []string {
	return t.names
}

// NIntervals returns the total number of intervals across all chromosomes.
func (t *Table) NIntervals() (n int) {
	for _, ivs := range t.nameMap {
		n += len(ivs)
	}
	return
}

// NBases returns the total number of positions covered.
func (t *Table) NBases() (n int) {
	for _, ivs := range t.nameMap {
		for _, iv := range ivs {
			n += iv.Len()
		}
	}
	return
}

// Contains checks whether pos lies in some interval on chrName.  It's meant
// for spot checks; sequential scans should use a Cursor.
func (t *Table) Contains(chrName string, pos PosType) bool {
	ivs := t.nameMap[chrName]
	idx := searchEnds(ivs, pos)
	return idx < len(ivs) && ivs[idx].Start <= pos
}

// NewCursor returns a Cursor which shares the interval set, but has its own
// search state.
func (t *Table) NewCursor() *Cursor {
	return &Cursor{table: t}
}

package interval

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		// These simple loops beat the standard library string-split functions
		// when only the first three columns of a BED line are needed.
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// NewBEDOpts defines behavior of this package's BED-loading function(s).
type NewBEDOpts struct {
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// tableBuilder accumulates closed intervals for one chromosome at a time,
// merging touching and overlapping ones.
type tableBuilder struct {
	t        Table
	started  bool
	chrName  string
	ivs      []Interval
	cur      Interval
	curValid bool
	totBases int
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{t: initTable()}
}

// startChr finishes the previous chromosome and begins chrName.  It returns an
// error if chrName was already seen, since that means the input isn't grouped
// by chromosome.
func (b *tableBuilder) startChr(chrName string) error {
	b.finishChr()
	if _, found := b.t.nameMap[chrName]; found {
		return fmt.Errorf("unsorted input (split chromosome %v)", chrName)
	}
	b.started = true
	b.chrName = chrName
	// Distinguish between 'mentioned' chromosomes without any intervals and
	// unmentioned chromosomes.
	b.t.nameMap[chrName] = []Interval{}
	b.t.names = append(b.t.names, chrName)
	b.ivs = []Interval{}
	b.curValid = false
	return nil
}

// add appends the closed interval [start, end] to the current chromosome.
// Intervals must arrive in order of nondecreasing start.
func (b *tableBuilder) add(start, end PosType) error {
	if !b.curValid {
		b.cur = Interval{start, end}
		b.curValid = true
		b.totBases += b.cur.Len()
		return nil
	}
	if start < b.cur.Start {
		return fmt.Errorf("unsorted input (%v:%d after %v:%d)", b.chrName, start, b.chrName, b.cur.Start)
	}
	if start > b.cur.End+1 {
		// New interval neither overlaps nor touches the previous one, so we can
		// save the previous one.
		b.ivs = append(b.ivs, b.cur)
		b.cur = Interval{start, end}
		b.totBases += b.cur.Len()
		return nil
	}
	// Intervals overlap or touch, merge them.
	if end > b.cur.End {
		b.totBases += int(end - b.cur.End)
		b.cur.End = end
	}
	return nil
}

func (b *tableBuilder) finishChr() {
	if !b.started {
		return
	}
	if b.curValid {
		b.ivs = append(b.ivs, b.cur)
		b.curValid = false
	}
	b.t.nameMap[b.chrName] = b.ivs
}

func (b *tableBuilder) finish() Table {
	b.finishChr()
	return b.t
}

func scanBED(scanner *bufio.Scanner, opts NewBEDOpts) (Table, error) {
	// BED starts are 0-based; our intervals are 1-based.
	startAdd := 1
	if opts.OneBasedInput {
		startAdd = 0
	}
	b := newTableBuilder()

	var tokens [3][]byte
	lineIdx := 0
	prevChr := ""
	first := true
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 {
			continue
		}
		if isBEDHeader(tokens[0]) {
			continue
		}
		if nToken != 3 {
			return Table{}, fmt.Errorf("interval.scanBED: line %d has fewer tokens than expected", lineIdx)
		}
		parsedStart, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return Table{}, fmt.Errorf("interval.scanBED: line %d: %v", lineIdx, err)
		}
		parsedEnd, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return Table{}, fmt.Errorf("interval.scanBED: line %d: %v", lineIdx, err)
		}
		start := parsedStart + startAdd
		if parsedStart < 0 || start < 1 {
			return Table{}, fmt.Errorf("interval.scanBED: negative start coordinate %s on line %d", tokens[1], lineIdx)
		}
		if (parsedEnd < start-1) || (parsedEnd >= PosTypeMax) {
			return Table{}, fmt.Errorf("interval.scanBED: invalid coordinate pair on line %d", lineIdx)
		}
		if first || prevChr != gunsafe.BytesToString(tokens[0]) {
			// Must create a copy of the chromosome name, since it refers to bytes
			// on curLine that will be overwritten soon.
			prevChr = string(tokens[0])
			first = false
			if err := b.startChr(prevChr); err != nil {
				return Table{}, fmt.Errorf("interval.scanBED: line %d: %v", lineIdx, err)
			}
		}
		if parsedEnd < start {
			// Empty interval.
			continue
		}
		if err := b.add(PosType(start), PosType(parsedEnd)); err != nil {
			return Table{}, fmt.Errorf("interval.scanBED: line %d: %v", lineIdx, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Table{}, err
	}
	t := b.finish()
	log.Printf("BED loaded, %d base(s) covered.", b.totBases)
	return t, nil
}

// isBEDHeader returns true for the "track", "browser" and comment lines a BED
// file may start with.
func isBEDHeader(tok []byte) bool {
	s := gunsafe.BytesToString(tok)
	return strings.HasPrefix(s, "#") || s == "track" || s == "browser"
}

// NewTable loads the intervals from a BED sorted by chromosome and then by
// start, merging touching/overlapping intervals and eliminating empty ones in
// the process.
func NewTable(reader io.Reader, opts NewBEDOpts) (Table, error) {
	// Note that Scanner does not handle very long lines unless we specify an
	// adequate buffer size in advance; it does not auto-resize.
	// Shouldn't matter for BED files, though.
	return scanBED(bufio.NewScanner(reader), opts)
}

// NewTableFromPath is a wrapper for NewTable that takes a path instead of an
// io.Reader.  Gzipped BED files are decompressed on the fly.
func NewTableFromPath(path string, opts NewBEDOpts) (t Table, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer gz.Close()
		reader = gz
	}
	return NewTable(reader, opts)
}

// Entry represents a single interval, with 0-based half-open coordinates
// [Start0, End).
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// entryItem orders entries within a chromosome for llrb.
type entryItem Entry

func (e *entryItem) Compare(c llrb.Comparable) int {
	o := c.(*entryItem)
	if e.Start0 != o.Start0 {
		if e.Start0 < o.Start0 {
			return -1
		}
		return 1
	}
	if e.End != o.End {
		if e.End < o.End {
			return -1
		}
		return 1
	}
	return 0
}

// NewTableFromEntries initializes a Table from a []Entry.  Unlike NewTable,
// the entries need not be sorted or grouped by chromosome.
func NewTableFromEntries(entries []Entry) (Table, error) {
	var names []string
	trees := make(map[string]*llrb.Tree)
	for _, entry := range entries {
		if entry.Start0 < 0 {
			return Table{}, fmt.Errorf("interval.NewTableFromEntries: negative start coordinate")
		}
		if (entry.End < entry.Start0) || (entry.End >= PosTypeMax) {
			return Table{}, fmt.Errorf("interval.NewTableFromEntries: invalid coordinate pair [%d, %d)", entry.Start0, entry.End)
		}
		tree, ok := trees[entry.ChrName]
		if !ok {
			tree = &llrb.Tree{}
			trees[entry.ChrName] = tree
			names = append(names, entry.ChrName)
		}
		if entry.End == entry.Start0 {
			continue
		}
		item := entryItem(entry)
		tree.Insert(&item)
	}
	b := newTableBuilder()
	for _, name := range names {
		if err := b.startChr(name); err != nil {
			return Table{}, err
		}
		var err error
		trees[name].Do(func(c llrb.Comparable) bool {
			e := c.(*entryItem)
			err = b.add(e.Start0+1, e.End)
			return err != nil
		})
		if err != nil {
			return Table{}, err
		}
	}
	return b.finish(), nil
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, PosTypeMax - 1) is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.Start0 = 0
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[0:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 || pos1 >= PosTypeMax {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1 int
	if start1, err = strconv.Atoi(start1Str); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", start1Str)
		return
	}
	var end int
	if end, err = strconv.Atoi(endStr); err != nil {
		return
	}
	if end < start1 || end >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end)
	return
}

// ParseRegionStrings parses a comma-separated list of region strings.
func ParseRegionStrings(regions string) ([]Entry, error) {
	var entries []Entry
	for _, region := range strings.Split(regions, ",") {
		if region == "" {
			continue
		}
		entry, err := ParseRegionString(region)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

package interval

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const testBED = `track name=targets
chr1	2488103	2488172
chr1	2488150	2488200
chr1	2488200	2488210
chr1	2489164	2489273
chr1	2489300	2489300
chr2	10	20
chr3	5	5
`

func TestLoadSortedBEDIntervals(t *testing.T) {
	tests := []struct {
		oneBasedInput bool
		want          map[string][]Interval
	}{
		{
			false,
			map[string][]Interval{
				// The first three lines overlap or touch, and are merged.
				"chr1": {{2488104, 2488210}, {2489165, 2489273}},
				"chr2": {{11, 20}},
				"chr3": {},
			},
		},
		{
			true,
			map[string][]Interval{
				"chr1": {{2488103, 2488210}, {2489164, 2489273}, {2489300, 2489300}},
				"chr2": {{10, 20}},
				"chr3": {{5, 5}},
			},
		},
	}
	for _, tt := range tests {
		tbl, err := NewTable(strings.NewReader(testBED), NewBEDOpts{OneBasedInput: tt.oneBasedInput})
		assert.NoError(t, err)
		expect.EQ(t, tbl.nameMap, tt.want)
		expect.EQ(t, tbl.ChrNames(), []string{"chr1", "chr2", "chr3"})
	}
}

func TestLoadBEDErrors(t *testing.T) {
	for _, bed := range []string{
		"chr1\t10\n",
		"chr1\tx\t20\n",
		"chr1\t10\t5\n",
		"chr1\t-1\t5\n",
		"chr1\t10\t20\nchr2\t10\t20\nchr1\t30\t40\n",
		"chr1\t30\t40\nchr1\t10\t20\n",
	} {
		_, err := NewTable(strings.NewReader(bed), NewBEDOpts{})
		expect.NotNil(t, err, bed)
	}
}

func TestNewTableFromPath(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tempDir)

	plainPath := filepath.Join(tempDir, "targets.bed")
	f, err := os.Create(plainPath)
	assert.NoError(t, err)
	_, err = f.WriteString(testBED)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	gzPath := filepath.Join(tempDir, "targets.bed.gz")
	f, err = os.Create(gzPath)
	assert.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testBED))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, f.Close())

	for _, path := range []string{plainPath, gzPath} {
		tbl, err := NewTableFromPath(path, NewBEDOpts{})
		assert.NoError(t, err)
		expect.EQ(t, tbl.Lookup("chr2"), []Interval{{11, 20}})
		expect.EQ(t, tbl.NIntervals(), 3)
		expect.EQ(t, tbl.NBases(), 107+109+10)
		expect.True(t, tbl.Contains("chr1", 2488104))
		expect.False(t, tbl.Contains("chr1", 2488103))
		expect.False(t, tbl.Contains("chr3", 5))
	}
}

func TestNewTableFromEntries(t *testing.T) {
	tbl, err := NewTableFromEntries([]Entry{
		{"chr2", 30, 40},
		{"chr1", 100, 110},
		{"chr2", 10, 20},
		{"chr2", 15, 25},
		{"chr2", 25, 28},
		{"chr1", 0, 1},
		{"chr4", 7, 7},
	})
	assert.NoError(t, err)
	expect.EQ(t, tbl.nameMap, map[string][]Interval{
		"chr1": {{1, 1}, {101, 110}},
		"chr2": {{11, 28}, {31, 40}},
		"chr4": {},
	})
	expect.EQ(t, tbl.ChrNames(), []string{"chr2", "chr1", "chr4"})

	_, err = NewTableFromEntries([]Entry{{"chr1", 10, 5}})
	expect.NotNil(t, err)
	_, err = NewTableFromEntries([]Entry{{"chr1", -1, 5}})
	expect.NotNil(t, err)
}

func TestNewTableFromMap(t *testing.T) {
	_, err := NewTableFromMap(map[string][]Interval{"chr1": {{10, 20}, {21, 30}}})
	expect.NoError(t, err)
	for _, ivs := range [][]Interval{
		{{10, 20}, {20, 30}},
		{{30, 40}, {10, 20}},
		{{10, 5}},
		{{-1, 5}},
	} {
		_, err := NewTableFromMap(map[string][]Interval{"chr1": ivs})
		expect.NotNil(t, err, ivs)
	}
}

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region  string
		chrName string
		start0  PosType
		end     PosType
	}{
		{"chr1:1-1000", "chr1", 0, 1000},
		{"chr1:1000", "chr1", 999, 1000},
		{"chr1:5-5", "chr1", 4, 5},
		{"chr1", "chr1", 0, math.MaxInt32 - 1},
	}
	for _, tt := range tests {
		result, err := ParseRegionString(tt.region)
		expect.NoError(t, err)
		expect.EQ(t, result.ChrName, tt.chrName)
		expect.EQ(t, result.Start0, tt.start0)
		expect.EQ(t, result.End, tt.end)
	}
	for _, region := range []string{"", ":1-5", "chr1:0", "chr1:10-5", "chr1:a-5", "chr1:0-5"} {
		_, err := ParseRegionString(region)
		expect.NotNil(t, err, region)
	}

	entries, err := ParseRegionStrings("chr1:1-1000,chr2:5,chrM")
	assert.NoError(t, err)
	expect.EQ(t, len(entries), 3)
	expect.EQ(t, entries[1], Entry{"chr2", 4, 5})
}

func TestExpsearchEnds(t *testing.T) {
	ivs := []Interval{{1, 3}, {5, 8}, {10, 10}, {12, 20}, {25, 30}, {40, 41}}
	for idx := 0; idx <= len(ivs); idx++ {
		for pos := PosType(0); pos < 45; pos++ {
			want := searchEnds(ivs, pos)
			if want < idx {
				want = idx
			}
			expect.EQ(t, expsearchEnds(ivs, pos, idx), want, "pos", pos, "idx", idx)
		}
	}
}

// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package vcfregion

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/biovcf/encoding/fasta"
	"github.com/grailbio/biovcf/encoding/vcf"
	"github.com/grailbio/biovcf/interval"
	"github.com/grailbio/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// StdPath is the path meaning stdin (for input) or stdout (for output).
const StdPath = "-"

// LoadTable builds the region table described by opts.BedPath or opts.Region.
// With neither, the table is empty and every record is off-region.
func LoadTable(opts *Opts) (interval.Table, error) {
	switch {
	case opts.BedPath != "" && opts.Region != "":
		return interval.Table{}, errors.E(errors.Invalid, "vcfregion: at most one of -bed and -region may be specified")
	case opts.BedPath != "":
		return interval.NewTableFromPath(opts.BedPath, interval.NewBEDOpts{OneBasedInput: opts.OneBasedBED})
	case opts.Region != "":
		entries, err := interval.ParseRegionStrings(opts.Region)
		if err != nil {
			return interval.Table{}, errors.E(errors.Invalid, err)
		}
		return interval.NewTableFromEntries(entries)
	}
	log.Printf("vcfregion: no regions specified; all records are off-target")
	return interval.NewTableFromMap(map[string][]interval.Interval{})
}

// Run reads the VCF at inPath, splits its records at the boundaries of the
// regions described by opts, and writes the records and pieces that pass the
// emission policy to outPath.  Header lines are copied unchanged.  Paths
// ending in .gz are read with gzip and written with bgzf; StdPath means
// stdin/stdout.
func Run(ctx context.Context, inPath, outPath string, opts *Opts) (stats Stats, err error) {
	table, err := LoadTable(opts)
	if err != nil {
		return
	}
	log.Printf("vcfregion: %d region(s) covering %d base(s) on %d chromosome(s)",
		table.NIntervals(), table.NBases(), len(table.ChrNames()))

	var ref RefSource
	if opts.FastaPath != "" {
		var fa *fasta.File
		if fa, err = fasta.Open(ctx, opts.FastaPath); err != nil {
			return
		}
		defer func() {
			if e := fa.Close(ctx); e != nil && err == nil {
				err = e
			}
		}()
		ref = NewFastaRef(fa)
	}

	var in io.Reader
	if inPath == StdPath {
		in = os.Stdin
	} else {
		var infile file.File
		if infile, err = file.Open(ctx, inPath); err != nil {
			return
		}
		defer file.CloseAndReport(ctx, infile, &err)
		in = infile.Reader(ctx)
		if fileio.DetermineType(inPath) == fileio.Gzip {
			var gz *gzip.Reader
			if gz, err = gzip.NewReader(in); err != nil {
				return
			}
			defer gz.Close()
			in = gz
		}
	}

	var out io.Writer
	if outPath == StdPath {
		out = os.Stdout
	} else {
		var outfile file.File
		if outfile, err = file.Create(ctx, outPath); err != nil {
			return
		}
		defer file.CloseAndReport(ctx, outfile, &err)
		out = outfile.Writer(ctx)
		if fileio.DetermineType(outPath) == fileio.Gzip {
			parallelism := opts.Parallelism
			if parallelism <= 0 {
				parallelism = runtime.NumCPU()
			}
			bgzfWriter := bgzf.NewWriter(out, parallelism)
			defer func() {
				if e := bgzfWriter.Close(); e != nil && err == nil {
					err = e
				}
			}()
			out = bgzfWriter
		}
	}

	if stats, err = Split(in, out, &table, ref, opts); err != nil {
		return
	}
	log.Printf("vcfregion: %d record(s) read, %d split, %d written, %d dropped",
		stats.Records, stats.SplitRecords, stats.Written, stats.Dropped)
	if opts.StatsPath != "" {
		err = writeStats(ctx, opts.StatsPath, stats)
	}
	return
}

// Split is the stream-level core of Run: it copies headers from in to out and
// passes every data record through a Handler.  The first malformed or
// out-of-order record stops processing; the error names the offending line.
func Split(in io.Reader, out io.Writer, table *interval.Table, ref RefSource, opts *Opts) (Stats, error) {
	scanner := vcf.NewScanner(in)
	w := vcf.NewWriter(out)
	h := NewHandler(table, ref, w, *opts)
	for scanner.Scan() {
		if scanner.IsHeader() {
			if err := w.WriteHeader(scanner.Header()); err != nil {
				return h.Stats(), err
			}
			continue
		}
		if err := h.Process(scanner.Record()); err != nil {
			return h.Stats(), errors.E(err, fmt.Sprintf("vcfregion: line %d", scanner.LineIdx()))
		}
	}
	if err := scanner.Err(); err != nil {
		return h.Stats(), err
	}
	return h.Stats(), w.Flush()
}

func writeStats(ctx context.Context, path string, stats Stats) (err error) {
	var f file.File
	if f, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "couldn't create stats file:", path)
	}
	defer file.CloseAndReport(ctx, f, &err)
	w := tsv.NewWriter(f.Writer(ctx))
	w.WriteString("RECORDS\tOFF_REGION_RECORDS\tSPLIT_RECORDS\tIN_REGION_PIECES\tOFF_REGION_PIECES\tWRITTEN\tDROPPED")
	if err = w.EndLine(); err != nil {
		return
	}
	for _, v := range []int{
		stats.Records, stats.OffRegionRecords, stats.SplitRecords,
		stats.InRegionPieces, stats.OffRegionPieces, stats.Written, stats.Dropped,
	} {
		w.WriteInt64(int64(v))
	}
	if err = w.EndLine(); err != nil {
		return
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "error writing to stats file:", path)
	}
	return
}

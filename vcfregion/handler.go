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
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/biovcf/encoding/fasta"
	"github.com/grailbio/biovcf/encoding/vcf"
	"github.com/grailbio/biovcf/interval"
)

// RefSource supplies reference bases.  pos is 1-based.
type RefSource interface {
	Base(chrName string, pos interval.PosType) (byte, error)
}

// Sink receives the records (whole or split) that pass the emission policy.
type Sink interface {
	Write(rec vcf.Record) error
}

// FastaRef adapts a fasta.Fasta to RefSource.
type FastaRef struct {
	fa fasta.Fasta
}

// NewFastaRef returns a RefSource backed by fa.
func NewFastaRef(fa fasta.Fasta) *FastaRef {
	return &FastaRef{fa: fa}
}

// Base implements RefSource.
func (r *FastaRef) Base(chrName string, pos interval.PosType) (byte, error) {
	if pos < 1 {
		return 0, fmt.Errorf("vcfregion.FastaRef: position %d out of range", pos)
	}
	return fasta.Base(r.fa, chrName, uint64(pos-1))
}

// Stats counts what a Handler has done.
type Stats struct {
	// Records is the number of data records processed.
	Records int
	// OffRegionRecords is the number of records which did not intersect any
	// region, and were considered whole.
	OffRegionRecords int
	// SplitRecords is the number of records which were cut into more than one
	// piece.
	SplitRecords int
	// InRegionPieces and OffRegionPieces count the pieces of intersecting
	// records, including single-piece ones.
	InRegionPieces  int
	OffRegionPieces int
	// Written is the number of records and pieces passed to the Sink.
	Written int
	// Dropped is the number of off-region records and pieces rejected by the
	// emission policy.
	Dropped int
}

// Handler classifies a position-sorted stream of VCF records against a region
// table, splitting records at region boundaries and writing the pieces that
// pass the emission policy to a Sink.
//
// A Handler owns its cursor into the table, so it is not safe for concurrent
// use; separate Handlers may share one Table.
type Handler struct {
	opts   Opts
	cursor *interval.Cursor
	ref    RefSource
	out    Sink
	stats  Stats
}

// NewHandler returns a Handler over table.  ref is consulted for the REF base
// of every piece after the first one of a split record; it may be nil if no
// record ever needs splitting.
func NewHandler(table *interval.Table, ref RefSource, out Sink, opts Opts) *Handler {
	return &Handler{
		opts:   opts,
		cursor: table.NewCursor(),
		ref:    ref,
		out:    out,
	}
}

// Stats returns the counters accumulated so far.
func (h *Handler) Stats() Stats {
	return h.stats
}

// Process classifies one record, writing it whole or in pieces.  Records on a
// chromosome must arrive in order of nondecreasing POS; a violation is an
// errors.Invalid error.
func (h *Handler) Process(rec vcf.Record) error {
	h.stats.Records++
	chrName := rec.Chrom()
	h.cursor.Observe(chrName)
	begin, end := rec.Span()
	ok, err := h.cursor.Intersects(begin, end)
	if err != nil {
		return err
	}
	keepOff := h.opts.keepOffRegion(rec)
	if !ok {
		h.stats.OffRegionRecords++
		return h.emit(rec, keepOff)
	}

	splitter := h.cursor.Split(begin, end)
	var piece interval.Piece
	nPiece := 0
	for splitter.Scan(&piece) {
		nPiece++
		if piece.InRegion {
			h.stats.InRegionPieces++
		} else {
			h.stats.OffRegionPieces++
		}
		if log.At(log.Debug) {
			log.Debug.Printf("%s:%d-%d: piece [%d,%d] in region: %v", chrName, begin, end, piece.Start, piece.End, piece.InRegion)
		}
		if !piece.InRegion && !keepOff {
			h.stats.Dropped++
			continue
		}
		p, err := h.makePiece(rec, begin, end, piece)
		if err != nil {
			return err
		}
		if err := h.emit(p, true); err != nil {
			return err
		}
	}
	if nPiece > 1 {
		h.stats.SplitRecords++
	}
	return nil
}

// makePiece builds the record for one piece of rec.  The first piece keeps
// rec's REF; later pieces start mid-record, so their REF is the reference
// base at their own start position.
func (h *Handler) makePiece(rec vcf.Record, begin, end interval.PosType, piece interval.Piece) (vcf.Record, error) {
	if piece.Start == begin {
		if piece.End == end {
			return rec, nil
		}
		return rec.Piece(piece.Start, piece.End, ""), nil
	}
	if h.ref == nil {
		return vcf.Record{}, errors.E(errors.Precondition, fmt.Sprintf(
			"vcfregion: a reference sequence is required to split the record at %s:%d", rec.Chrom(), rec.Pos()))
	}
	base, err := h.ref.Base(rec.Chrom(), piece.Start)
	if err != nil {
		return vcf.Record{}, errors.E(err, fmt.Sprintf("vcfregion: reference base for %s:%d", rec.Chrom(), piece.Start))
	}
	return rec.Piece(piece.Start, piece.End, string(base)), nil
}

func (h *Handler) emit(rec vcf.Record, keep bool) error {
	if !keep {
		h.stats.Dropped++
		return nil
	}
	h.stats.Written++
	return h.out.Write(rec)
}

// Package vcf contains the small amount of VCF handling needed to classify and
// split single-sample VCF/gVCF records against target regions: splitting a
// data line into its fixed columns, computing the record's reference span,
// deciding whether the sample's genotype is a variant call, and rewriting
// POS/REF/END for a split piece.
//
// It is not a general-purpose VCF validator.  INFO, FORMAT and sample columns
// are carried through verbatim except for the INFO END key.
package vcf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/biovcf/interval"
)

// Column indices of a single-sample VCF data line.
const (
	ChromCol = iota
	PosCol
	IDCol
	RefCol
	AltCol
	QualCol
	FilterCol
	InfoCol
	FormatCol
	SampleCol
	// NCol is the number of columns in a single-sample VCF data line.
	NCol
)

const endKey = "END"

// Record is a single VCF data line.  Records are values: methods which change
// a field return a new Record and leave the receiver untouched.
type Record struct {
	fields []string
	pos    interval.PosType
	end    interval.PosType
	hasEnd bool
}

// Parse splits a tab-separated VCF data line into a Record.  It returns an
// errors.Invalid error if the line doesn't have exactly NCol columns, or if
// POS/END can't be interpreted.
func Parse(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != NCol {
		return Record{}, errors.E(errors.Invalid, fmt.Sprintf(
			"vcf.Parse: unexpected number of fields in vcf record (got %d, want %d): %q", len(fields), NCol, line))
	}
	r := Record{fields: fields}
	pos, err := strconv.ParseInt(fields[PosCol], 10, 32)
	if err != nil || pos < 1 {
		return Record{}, errors.E(errors.Invalid, fmt.Sprintf("vcf.Parse: invalid POS %q: %q", fields[PosCol], line))
	}
	r.pos = interval.PosType(pos)
	// Default span is the REF allele; a gVCF block's INFO END overrides it.
	r.end = r.pos
	if n := len(fields[RefCol]); n > 1 {
		r.end = r.pos + interval.PosType(n-1)
	}
	if endStr, ok := r.Info(endKey); ok {
		end, err := strconv.ParseInt(endStr, 10, 32)
		if err != nil || interval.PosType(end) < r.pos {
			return Record{}, errors.E(errors.Invalid, fmt.Sprintf("vcf.Parse: invalid INFO END %q: %q", endStr, line))
		}
		r.end = interval.PosType(end)
		r.hasEnd = true
	}
	return r, nil
}

// Chrom returns the CHROM column.
func (r Record) Chrom() string { return r.fields[ChromCol] }

// Pos returns the 1-based POS.
func (r Record) Pos() interval.PosType { return r.pos }

// Ref returns the REF column.
func (r Record) Ref() string { return r.fields[RefCol] }

// Alt returns the ALT column.
func (r Record) Alt() string { return r.fields[AltCol] }

// Format returns the FORMAT column.
func (r Record) Format() string { return r.fields[FormatCol] }

// Sample returns the sample column.
func (r Record) Sample() string { return r.fields[SampleCol] }

// Span returns the closed 1-based reference interval covered by the record:
// POS through INFO END if present, and POS through the last REF base
// otherwise.
func (r Record) Span() (begin, end interval.PosType) {
	return r.pos, r.end
}

// Info returns the value of the given INFO key.  Flags (keys without '=')
// return "" and true.
func (r Record) Info(key string) (string, bool) {
	info := r.fields[InfoCol]
	if info == "." {
		return "", false
	}
	for len(info) > 0 {
		var kv string
		if i := strings.IndexByte(info, ';'); i >= 0 {
			kv, info = info[:i], info[i+1:]
		} else {
			kv, info = info, ""
		}
		if kv == key {
			return "", true
		}
		if strings.HasPrefix(kv, key) && len(kv) > len(key) && kv[len(key)] == '=' {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// setInfo returns INFO with key set to value, replacing an existing entry in
// place or appending a new one.
func setInfo(info, key, value string) string {
	kv := key + "=" + value
	if info == "." || info == "" {
		return kv
	}
	parts := strings.Split(info, ";")
	for i, p := range parts {
		if p == key || strings.HasPrefix(p, key+"=") {
			parts[i] = kv
			return strings.Join(parts, ";")
		}
	}
	return info + ";" + kv
}

// Piece returns a copy of r covering [pos, end], with ref as its REF column.
// An empty ref leaves REF unchanged.  INFO END is set to end when r carried
// one, or when the piece covers more than one position; otherwise INFO is
// left alone.
func (r Record) Piece(pos, end interval.PosType, ref string) Record {
	fields := make([]string, len(r.fields))
	copy(fields, r.fields)
	p := Record{fields: fields, pos: pos, end: end, hasEnd: r.hasEnd}
	fields[PosCol] = strconv.Itoa(int(pos))
	if ref != "" {
		fields[RefCol] = ref
	}
	if r.hasEnd || end > pos {
		fields[InfoCol] = setInfo(fields[InfoCol], endKey, strconv.Itoa(int(end)))
		p.hasEnd = true
	}
	return p
}

// String returns the record as a tab-separated line, without a newline.
func (r Record) String() string {
	return strings.Join(r.fields, "\t")
}

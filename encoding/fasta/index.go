package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// faiBuilder tracks the sequence currently being indexed by GenerateIndex.
type faiBuilder struct {
	name       string
	started    bool
	offset     int64
	totalBases int
	lineBases  int
	lineWidth  int
}

func (b *faiBuilder) write(w *tsv.Writer) error {
	w.WriteString(b.name)
	w.WriteInt64(int64(b.totalBases))
	w.WriteInt64(b.offset)
	w.WriteInt64(int64(b.lineBases))
	w.WriteInt64(int64(b.lineWidth))
	return w.EndLine()
}

// GenerateIndex generates an index (*.fai) from FASTA.  The index can be later
// passed to NewIndexed() to random-access the FASTA file quickly.
//
// The index format is defined by "samtools faidx"
// (http://www.htslib.org/doc/faidx.html).
func GenerateIndex(out io.Writer, in io.Reader) error {
	var (
		tsvOut  = tsv.NewWriter(out)
		r       = bufio.NewReader(in)
		cur     faiBuilder
		cumByte int64
	)
	for {
		fullLine, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return errors.E(err, "fasta.GenerateIndex")
		}
		eof := err == io.EOF
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		switch {
		case len(line) == 0:
		case line[0] == '>':
			if cur.started {
				if err := cur.write(tsvOut); err != nil {
					return err
				}
			}
			cur = faiBuilder{name: seqName(string(line)), started: true, offset: cumByte}
		case !cur.started:
			return errors.E(errors.Invalid, "malformed FASTA file")
		default:
			if cur.lineWidth == 0 {
				// The first line of a sequence determines its geometry.
				cur.lineWidth = len(fullLine)
				cur.lineBases = len(line)
			}
			cur.totalBases += len(line)
		}
		if eof {
			break
		}
	}
	if cumByte == 0 {
		return errors.E(errors.Invalid, "empty FASTA file")
	}
	if cur.started {
		if err := cur.write(tsvOut); err != nil {
			return err
		}
	}
	return tsvOut.Flush()
}

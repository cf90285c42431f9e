// Package fasta reads reference sequences from (optionally indexed) FASTA
// files.  See http://www.htslib.org/doc/faidx.html.  Briefly, FASTA files
// consist of a number of named sequences that may be interrupted by newlines.
// For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Sequence names are the stretch of characters excluding spaces immediately
// after '>'; '>chr1 A viral sequence' becomes 'chr1'.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// maxLineSize bounds the length of a FASTA line held by the in-memory reader.
const maxLineSize = 1024 * 1024 * 300 // 300 MB

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences.
type Fasta interface {
	// Get returns a substring of the given sequence name at the given
	// coordinates, which are treated as a 0-based half-open interval
	// [start, end). Get is thread-safe.
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

// Base returns the base at 0-based position pos0 of the given sequence.
func Base(fa Fasta, seqName string, pos0 uint64) (byte, error) {
	s, err := fa.Get(seqName, pos0, pos0+1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// seqName extracts the sequence name from a '>' line.
func seqName(line string) string {
	name := line[1:]
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return name
}

type memFasta struct {
	seqs     map[string]string
	seqNames []string
}

// New creates a new Fasta that holds all the FASTA data from the given reader
// in memory.
func New(r io.Reader) (Fasta, error) {
	f := &memFasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineSize)
	var (
		name    string
		started bool
		seq     strings.Builder
	)
	flush := func() {
		f.seqs[name] = seq.String()
		f.seqNames = append(f.seqNames, name)
		seq.Reset()
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if started {
				flush()
			}
			name = seqName(line)
			started = true
			continue
		}
		if !started {
			return nil, errors.Errorf("malformed FASTA file: sequence data before the first '>' line")
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA data")
	}
	if started {
		flush()
	}
	return f, nil
}

// Get implements Fasta.Get().
func (f *memFasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.Len().
func (f *memFasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *memFasta) SeqNames() []string {
	return f.seqNames
}

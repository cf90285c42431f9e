package fasta

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// faiEntry is one line of a .fai index: "<sequence name>\t<length>\t<byte
// offset>\t<bases per line>\t<bytes per line>", e.g. "chr3\t12345\t9000\t80\t81".
type faiEntry struct {
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

func parseFaiLine(line string) (name string, ent faiEntry, err error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 5 || cols[0] == "" {
		return "", faiEntry{}, errors.Errorf("invalid index line: %s", line)
	}
	var vals [4]uint64
	for i := range vals {
		if vals[i], err = strconv.ParseUint(cols[i+1], 10, 64); err != nil {
			return "", faiEntry{}, errors.Wrapf(err, "invalid index line: %s", line)
		}
	}
	ent = faiEntry{length: vals[0], offset: vals[1], lineBase: vals[2], lineWidth: vals[3]}
	if (ent.lineBase == 0 && ent.length > 0) || ent.lineWidth < ent.lineBase {
		return "", faiEntry{}, errors.Errorf("invalid line geometry in index line: %s", line)
	}
	return cols[0], ent, nil
}

type indexedFasta struct {
	seqs     map[string]faiEntry
	seqNames []string // returned by SeqNames()

	mu        sync.Mutex
	reader    io.ReadSeeker
	bufOff    int64
	buf       []byte // caches file contents starting at bufOff.
	resultBuf []byte // temp for concatenating multi-line sequences.
}

// NewIndexed creates a new Fasta that can perform efficient random lookups
// using the provided index, without reading the data into memory.
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Fasta, error) {
	f := &indexedFasta{seqs: make(map[string]faiEntry), reader: fasta}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		name, ent, err := parseFaiLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		f.seqs[name] = ent
		f.seqNames = append(f.seqNames, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA index")
	}
	sort.SliceStable(f.seqNames, func(i, j int) bool {
		return f.seqs[f.seqNames[i]].offset < f.seqs[f.seqNames[j]].offset
	})
	return f, nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return ent.length, nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}

func resizeBuf(buf *[]byte, n int) {
	if cap(*buf) < n {
		*buf = make([]byte, n)
	} else {
		*buf = (*buf)[:n]
	}
}

// read returns the byte range [off, off+n) of the underlying file.  Reference
// lookups during a position-sorted scan are close together, so an 8KiB window
// is kept around.
func (f *indexedFasta) read(off int64, n int) ([]byte, error) {
	limit := off + int64(n)
	if off < f.bufOff || limit > f.bufOff+int64(len(f.buf)) {
		if newOffset, err := f.reader.Seek(off, io.SeekStart); err != nil || newOffset != off {
			return nil, errors.Errorf("failed to seek to offset %d: %d, %v", off, newOffset, err)
		}
		bufSize := 8192
		if bufSize < n {
			bufSize = n
		}
		resizeBuf(&f.buf, bufSize)
		bytesRead, err := io.ReadAtLeast(f.reader, f.buf, n)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, err
		}
		if bytesRead < n {
			return nil, errors.Errorf("encountered unexpected end of file (bad index? file doesn't end in newline?)")
		}
		f.bufOff = off
		f.buf = f.buf[:bytesRead]
	}
	return f.buf[off-f.bufOff : limit-f.bufOff], nil
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start uint64, end uint64) (string, error) {
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if end > ent.length {
		return "", errors.Errorf("end is past end of sequence %s: %d", seqName, ent.length)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// Start the read at a byte offset allowing for the presence of newline
	// characters.
	charsPerNewline := ent.lineWidth - ent.lineBase
	offset := ent.offset + start + charsPerNewline*(start/ent.lineBase)

	// Figure out how many characters (including newlines) we should read.
	firstLineBases := ent.lineBase - (start % ent.lineBase)
	newlinesToRead := uint64(0)
	if end-start > firstLineBases {
		newlinesToRead = 1 + (end-start-firstLineBases)/ent.lineBase
	}
	capacity := end - start + newlinesToRead*charsPerNewline

	buffer, err := f.read(int64(offset), int(capacity))
	if err != nil {
		return "", err
	}

	// Copy the non-newline characters to the result.
	resizeBuf(&f.resultBuf, int(end-start))
	linePos := (offset - ent.offset) % ent.lineWidth
	resultPos := 0
	for _, c := range buffer {
		if linePos < ent.lineBase && resultPos < len(f.resultBuf) {
			f.resultBuf[resultPos] = c
			resultPos++
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(f.resultBuf[:resultPos]), nil
}

// FaiToReferenceLengths reads in a fasta fai file and returns a map of
// reference name to reference length. This doesn't require reading in the fasta
// itself.
func FaiToReferenceLengths(index io.Reader) (map[string]uint64, error) {
	fa, err := NewIndexed(nil, index)
	if err != nil {
		return nil, err
	}
	lengths := make(map[string]uint64)
	for _, name := range fa.SeqNames() {
		if lengths[name], err = fa.Len(name); err != nil {
			return nil, err
		}
	}
	return lengths, nil
}

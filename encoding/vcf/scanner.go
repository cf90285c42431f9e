package vcf

import (
	"bufio"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// maxLineSize bounds the length of a single VCF line.  gVCF INFO/sample
// columns rarely come close, but annotated VCFs can be long.
const maxLineSize = 64 << 20

// Scanner reads a VCF stream line by line.  Header lines (those starting with
// '#') are returned verbatim; data lines are parsed into Records.  Scanners
// are not threadsafe.
type Scanner struct {
	b        *bufio.Scanner
	err      error
	lineIdx  int
	header   string
	isHeader bool
	rec      Record
}

// NewScanner constructs a new Scanner that reads VCF text from r.
func NewScanner(r io.Reader) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(nil, maxLineSize)
	return &Scanner{b: b}
}

// Scan advances to the next non-empty line.  It returns false at the end of
// the stream or on the first error; once Scan returns false, it never returns
// true again.  The caller should then check Err.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.b.Scan() {
		s.lineIdx++
		line := s.b.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '#' {
			s.isHeader = true
			s.header = line
			return true
		}
		s.isHeader = false
		if s.rec, s.err = Parse(line); s.err != nil {
			s.err = errors.E(errors.Invalid, fmt.Sprintf("line %d", s.lineIdx), s.err)
			return false
		}
		return true
	}
	s.err = s.b.Err()
	return false
}

// IsHeader returns whether the current line is a header line.
func (s *Scanner) IsHeader() bool { return s.isHeader }

// Header returns the current header line.  Only valid when IsHeader is true.
func (s *Scanner) Header() string { return s.header }

// Record returns the current data record.  Only valid when IsHeader is false.
func (s *Scanner) Record() Record { return s.rec }

// LineIdx returns the 1-based line number of the current line.
func (s *Scanner) LineIdx() int { return s.lineIdx }

// Err returns the scanning error, if any.
func (s *Scanner) Err() error { return s.err }

// Writer writes VCF header lines and Records as tab-separated text.
type Writer struct {
	tsvw *tsv.Writer
}

// NewWriter constructs a new VCF writer that writes to w.  Flush must be
// called once all lines are written.
func NewWriter(w io.Writer) *Writer {
	return &Writer{tsvw: tsv.NewWriter(w)}
}

// WriteHeader writes a header line verbatim.
func (w *Writer) WriteHeader(line string) error {
	w.tsvw.WriteString(line)
	return w.tsvw.EndLine()
}

// Write writes one record.
func (w *Writer) Write(r Record) error {
	for _, f := range r.fields {
		w.tsvw.WriteString(f)
	}
	return w.tsvw.EndLine()
}

// Flush flushes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.tsvw.Flush()
}

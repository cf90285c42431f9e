package fasta

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// File is a Fasta backed by open files.  Close must be called when done.
type File struct {
	Fasta
	files []file.File
}

// Open opens the FASTA at path.  If "<path>.fai" exists, the sequence is read
// lazily through the index; otherwise (including for gzipped FASTA, which
// can't be seeked) the whole file is loaded into memory.
func Open(ctx context.Context, path string) (*File, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "fasta.Open %s", path)
	}
	f := &File{files: []file.File{in}}
	if fileio.DetermineType(path) != fileio.Gzip {
		if idx, err := file.Open(ctx, path+".fai"); err == nil {
			f.files = append(f.files, idx)
			if f.Fasta, err = NewIndexed(in.Reader(ctx), idx.Reader(ctx)); err != nil {
				f.Close(ctx)
				return nil, errors.Wrapf(err, "fasta.Open %s.fai", path)
			}
			return f, nil
		}
		log.Debug.Printf("fasta.Open: no index for %s, loading it into memory", path)
	}
	var r io.Reader = in.Reader(ctx)
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			f.Close(ctx)
			return nil, errors.Wrapf(err, "fasta.Open %s", path)
		}
		defer gz.Close()
		r = gz
	}
	if f.Fasta, err = New(r); err != nil {
		f.Close(ctx)
		return nil, errors.Wrapf(err, "fasta.Open %s", path)
	}
	return f, nil
}

// Close closes the underlying files.
func (f *File) Close(ctx context.Context) error {
	var err error
	for _, in := range f.files {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}
	f.files = nil
	return err
}

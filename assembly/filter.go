package assembly

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// LineWidth of FASTA records written by the filter.
const LineWidth = 60

// FilterContigs copies the records of r with at least min residues to w, in
// input order. It returns the number of records read and written.
func FilterContigs(r io.Reader, w io.Writer, min int) (read, kept int, err error) {
	fw := fasta.NewWriter(w, LineWidth)
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		s := sc.Seq()
		read++
		if s.Len() < min {
			continue
		}
		if _, err := fw.Write(s); err != nil {
			return read, kept, fmt.Errorf("writing contig %s: %w", s.Name(), err)
		}
		kept++
	}
	if err := sc.Error(); err != nil {
		return read, kept, fmt.Errorf("reading contigs: %w", err)
	}
	return read, kept, nil
}

// FilterFile runs FilterContigs from inPath to outPath.
func FilterFile(inPath, outPath string, min int) (read, kept int, err error) {
	in, closeIn, err := OpenFasta(inPath)
	if err != nil {
		return 0, 0, err
	}
	defer closeIn()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, 0, err
	}
	read, kept, err = FilterContigs(in, out, min)
	if cErr := out.Close(); cErr != nil && err == nil {
		err = cErr
	}
	return read, kept, err
}

// OpenFasta opens path for reading, decompressing .gz files.
func OpenFasta(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("opening gzip %s: %w", path, err)
	}
	return gz, func() error {
		gz.Close()
		return f.Close()
	}, nil
}

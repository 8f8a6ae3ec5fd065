package assembly

import (
	"fmt"
	"io"
	"sort"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises a contig set.
type Stats struct {
	Count   int
	Total   int
	Longest int
	Mean    float64
	N50     int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d contigs, total length %d bp, longest %d bp, mean %.1f bp, N50 %d bp",
		s.Count, s.Total, s.Longest, s.Mean, s.N50)
}

// ComputeStats returns the statistics of a set of contig lengths.
func ComputeStats(lengths []int) Stats {
	if len(lengths) == 0 {
		return Stats{}
	}
	sorted := append([]int(nil), lengths...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	s := Stats{
		Count:   len(sorted),
		Total:   lo.Sum(sorted),
		Longest: sorted[0],
		Mean:    stat.Mean(lo.Map(sorted, func(l int, _ int) float64 { return float64(l) }), nil),
	}
	cum := 0
	for _, l := range sorted {
		cum += l
		if 2*cum >= s.Total {
			s.N50 = l
			break
		}
	}
	return s
}

// ContigLengths reads the record lengths of a FASTA stream.
func ContigLengths(r io.Reader) ([]int, error) {
	var lengths []int
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		lengths = append(lengths, sc.Seq().Len())
	}
	return lengths, sc.Error()
}

// FileStats computes the statistics of a FASTA file, gzipped or not.
func FileStats(path string) (Stats, error) {
	r, closeFn, err := OpenFasta(path)
	if err != nil {
		return Stats{}, err
	}
	defer closeFn()
	lengths, err := ContigLengths(r)
	if err != nil {
		return Stats{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ComputeStats(lengths), nil
}

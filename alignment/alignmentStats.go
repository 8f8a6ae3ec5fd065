package alignment

import (
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/samber/lo"
)

// StatsFrame tabulates the per-entry mapping results.
func StatsFrame(results []EntryResult) dataframe.DataFrame {
	return dataframe.New(
		series.New(lo.Map(results, func(r EntryResult, _ int) string { return r.Name }), series.String, "entry"),
		series.New(lo.Map(results, func(r EntryResult, _ int) string { return r.Entry.Read1 }), series.String, "read1"),
		series.New(lo.Map(results, func(r EntryResult, _ int) string { return r.Entry.Read2 }), series.String, "read2"),
		series.New(lo.Map(results, func(r EntryResult, _ int) int { return r.MappedReads }), series.Int, "mapped_reads"),
	)
}

// WriteMappingStats writes StatsFrame as CSV.
func WriteMappingStats(path string, results []EntryResult) error {
	df := StatsFrame(results)
	if df.Err != nil {
		return fmt.Errorf("building mapping stats: %w", df.Err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

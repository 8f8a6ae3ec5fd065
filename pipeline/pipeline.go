// Package pipeline sequences the stages of a run: mapping, assembly and
// filtering, gap-filling and graph simplification.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gmaffy/minys-go/alignment"
	"github.com/gmaffy/minys-go/assembly"
	"github.com/gmaffy/minys-go/gapfilling"
	"github.com/gmaffy/minys-go/inputs"
	"github.com/gmaffy/minys-go/simplification"
	"github.com/gmaffy/minys-go/utils"
)

type Pipeline struct {
	cfg     *utils.Config
	entries []inputs.Entry

	// Now is the clock of the run reporter.
	Now func() time.Time
}

// Summary collects the stage results of a run. Fields of stages that did not
// run are nil or empty.
type Summary struct {
	Mapping    *alignment.Result
	Assembly   *assembly.Result
	Gapfilling *gapfilling.Result
	Simplified string
	Report     string
	Reporter   *Reporter
}

// New resolves the read inputs of a validated configuration. A malformed
// file of files is reported here, before any output is written.
func New(cfg *utils.Config) (*Pipeline, error) {
	entries, err := inputs.Resolve(inputs.SourceOf(cfg), cfg.SkipsMapping())
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, entries: entries, Now: time.Now}, nil
}

func (p *Pipeline) Entries() []inputs.Entry { return p.entries }

// Run executes every stage in order and stops at the first failure. A stage
// that ran is timed whether it failed or not; the runtime summary is logged
// and the report written in every case.
func (p *Pipeline) Run(ctx context.Context, rc *utils.RunContext) (sum *Summary, err error) {
	sum = &Summary{Reporter: NewReporter(p.Now)}
	defer func() {
		sum.Reporter.Log(rc.Logger)
		sum.Report = filepath.Join(rc.OutDir, ReportFile)
		if rErr := WriteReport(sum.Report, sum.Reporter, sum.Assembly); rErr != nil {
			rc.Logger.Warn("Could not write the run report", "error", rErr)
			sum.Report = ""
		}
	}()

	// ------ Mapping ------ //
	reads := ""
	if p.cfg.SkipsMapping() {
		rc.Logger.Info("Mapping skipped, continuing from contigs", "STAGE", alignment.Stage, "STATUS", utils.StatusSkipped)
	} else {
		sum.Mapping, err = alignment.Run(ctx, rc, p.entries)
	}
	sum.Reporter.Mark(MappingStage)
	if err != nil {
		return sum, err
	}
	if sum.Mapping != nil {
		reads = sum.Mapping.Reads
	}

	// ------ Assembly and contig filtering ------ //
	sum.Assembly, err = assembly.Run(ctx, rc, reads)
	sum.Reporter.Mark(AssemblyStage)
	if err != nil {
		return sum, err
	}

	// ------ Gap-filling ------ //
	sum.Gapfilling, err = gapfilling.Run(ctx, rc, sum.Assembly.Filtered, sum.Assembly.Name, inputs.ReadPaths(p.entries))
	sum.Reporter.Mark(GapfillingStage)
	if err != nil {
		return sum, err
	}

	// ------ Graph simplification ------ //
	sum.Simplified, err = simplification.Run(ctx, rc, sum.Gapfilling.GFA)
	sum.Reporter.Mark(SimplificationStage)
	if err != nil {
		return sum, err
	}
	rc.Logger.Info("Pipeline done: "+sum.Simplified, "STATUS", utils.StatusCompleted)
	return sum, nil
}

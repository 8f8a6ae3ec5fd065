package assembly

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gmaffy/minys-go/tools"
	"github.com/gmaffy/minys-go/utils"
)

const (
	Stage       = "assembly"
	FilterStage = "filtering"
)

// Result names the contig artifacts handed to gap-filling.
type Result struct {
	// Prefix is the path every derived artifact name starts from.
	Prefix string
	// Name is the base name used for gap-filling outputs.
	Name     string
	Contigs  string
	Filtered string
	Skipped  bool

	Raw           Stats
	FilteredStats Stats
}

// Prefix is the assembler output prefix inside dir.
func Prefix(dir string, kmerSize int, abundanceMin string) string {
	return filepath.Join(dir, fmt.Sprintf("minia_k%d_abundancemin_%s", kmerSize, abundanceMin))
}

// FilteredPath is the filtered contig file derived from an assembly prefix.
func FilteredPath(prefix string, min int) string {
	return fmt.Sprintf("%s_filtered_%d.fa", prefix, min)
}

// Run assembles the recruited reads, or takes the supplied contigs when the
// run continues from them, then filters out short contigs.
func Run(ctx context.Context, rc *utils.RunContext, reads string) (*Result, error) {
	cfg := rc.Config
	res := &Result{}

	if cfg.SkipsMapping() {
		res.Contigs = cfg.Contigs
		res.Prefix = cfg.Contigs
		res.Name = filepath.Base(cfg.Contigs)
		res.Skipped = true
		rc.Logger.Info("Using supplied contigs "+cfg.Contigs, "STAGE", Stage, "STATUS", utils.StatusSkipped)
	} else {
		if err := assemble(ctx, rc, reads, res); err != nil {
			return nil, err
		}
	}

	var err error
	if res.Raw, err = FileStats(res.Contigs); err != nil {
		return nil, &utils.StageError{Stage: FilterStage, Err: err}
	}
	rc.Logger.Info("Contigs: "+res.Raw.String(), "STAGE", Stage)

	// ------ Filter short contigs ------ //
	res.Filtered = FilteredPath(res.Prefix, cfg.MinContigSize)
	rc.Logger.Info("Filtering contigs", "STAGE", FilterStage, "STATUS", utils.StatusStarted, "min_contig_size", cfg.MinContigSize)
	read, kept, err := FilterFile(res.Contigs, res.Filtered, cfg.MinContigSize)
	if err != nil {
		rc.Logger.Error("Contig filtering failed", "STAGE", FilterStage, "STATUS", utils.StatusFailed, "error", err)
		return nil, &utils.StageError{Stage: FilterStage, Err: err}
	}
	if res.FilteredStats, err = FileStats(res.Filtered); err != nil {
		return nil, &utils.StageError{Stage: FilterStage, Err: err}
	}
	rc.Logger.Info(fmt.Sprintf("Contigs filtered: kept %d of %d", kept, read),
		"STAGE", FilterStage, "STATUS", utils.StatusCompleted)
	rc.Logger.Info("Filtered contigs: "+res.FilteredStats.String(), "STAGE", FilterStage)
	return res, nil
}

func assemble(ctx context.Context, rc *utils.RunContext, reads string, res *Result) error {
	cfg := rc.Config
	dir, err := rc.StageDir(Stage)
	if err != nil {
		return &utils.StageError{Stage: Stage, Err: err}
	}
	res.Prefix = Prefix(dir, cfg.AssemblyKmerSize, cfg.AssemblyAbundanceMin)
	res.Name = filepath.Base(res.Prefix)
	res.Contigs = res.Prefix + ".contigs.fa"

	minia := tools.Minia{
		Cmd:          cfg.Tools.Minia,
		Cores:        cfg.NbCores,
		In:           reads,
		KmerSize:     cfg.AssemblyKmerSize,
		AbundanceMin: cfg.AssemblyAbundanceMin,
		Out:          res.Prefix,
		OutTmp:       dir,
	}
	args, err := tools.Args(minia)
	if err != nil {
		return &utils.StageError{Stage: Stage, Err: err}
	}
	logPath := rc.LogPath(Stage)
	rc.Logger.Info("Starting assembly", "STAGE", Stage, "STATUS", utils.StatusStarted, "CMD", strings.Join(args, " "))
	rc.Logger.Info("Log file: "+logPath, "STAGE", Stage)

	if err := tools.RunLogged(ctx, Stage, logPath, minia); err != nil {
		rc.Logger.Error("Assembly failed", "STAGE", Stage, "STATUS", utils.StatusFailed, "error", err)
		return err
	}
	if err := utils.RequireArtifact(Stage, res.Contigs); err != nil {
		rc.Logger.Error("Assembly failed: no contig output (try with different parameters)",
			"STAGE", Stage, "STATUS", utils.StatusFailed, "error", err)
		return err
	}
	rc.Logger.Info("Assembly done", "STAGE", Stage, "STATUS", utils.StatusCompleted)
	return nil
}

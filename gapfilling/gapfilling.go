// Package gapfilling closes the gaps between filtered contigs with
// MindTheGap and reports the statistics it prints.
package gapfilling

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gmaffy/minys-go/statuslog"
	"github.com/gmaffy/minys-go/tools"
	"github.com/gmaffy/minys-go/utils"
)

const Stage = "gapfilling"

type Result struct {
	Prefix string
	GFA    string
	Log    string
	// Results holds the gap-filler's own statistics section.
	Results []string
}

// Name encodes every parameter the gap-filled graph depends on.
func Name(assemblyName string, minContigSize, kmerSize int, abundanceMin string) string {
	return fmt.Sprintf("%s_filtered_%d_gapfilling_k%d_abundancemin_%s", assemblyName, minContigSize, kmerSize, abundanceMin)
}

// Command builds the fill invocation. A supplied graph replaces the reads.
func Command(cfg *utils.Config, contigs, prefix string, reads []string) tools.MindTheGapFill {
	fill := tools.MindTheGapFill{
		Cmd:          cfg.Tools.MindTheGap,
		Contig:       contigs,
		AbundanceMin: cfg.GapfillingAbundanceMin,
		KmerSize:     cfg.GapfillingKmerSize,
		Overlap:      cfg.AssemblyKmerSize,
		Out:          prefix,
		Cores:        cfg.NbCores,
		MaxLength:    cfg.MaxLength,
		MaxNodes:     cfg.MaxNodes,
	}
	if cfg.UsesGraph() {
		fill.Graph = cfg.Graph
	} else {
		fill.Reads = reads
	}
	return fill
}

// Run fills the gaps of contigs. assemblyName names the contig set in the
// output prefix; reads are used unless the run supplied a graph.
func Run(ctx context.Context, rc *utils.RunContext, contigs, assemblyName string, reads []string) (*Result, error) {
	cfg := rc.Config
	dir, err := rc.StageDir(Stage)
	if err != nil {
		return nil, &utils.StageError{Stage: Stage, Err: err}
	}
	prefix := filepath.Join(dir, Name(assemblyName, cfg.MinContigSize, cfg.GapfillingKmerSize, cfg.GapfillingAbundanceMin))
	res := &Result{Prefix: prefix, GFA: prefix + ".gfa", Log: rc.LogPath(Stage)}

	fill := Command(cfg, contigs, prefix, reads)
	args, err := tools.Args(fill)
	if err != nil {
		return nil, &utils.StageError{Stage: Stage, Err: err}
	}
	rc.Logger.Info("Gap-filling", "STAGE", Stage, "STATUS", utils.StatusStarted, "CMD", strings.Join(args, " "))

	runErr := tools.RunLogged(ctx, Stage, res.Log, fill)

	// The statistics are echoed whatever the exit status.
	if res.Results, err = readResults(res.Log); err != nil {
		rc.Logger.Warn("Could not read the gap-filling log", "STAGE", Stage, "error", err)
	}
	for _, line := range res.Results {
		rc.Logger.Info(line, "STAGE", Stage)
	}

	if runErr != nil {
		rc.Logger.Error("Gap-filling failed", "STAGE", Stage, "STATUS", utils.StatusFailed, "error", runErr)
		return res, runErr
	}
	if err := utils.RequireArtifact(Stage, res.GFA); err != nil {
		rc.Logger.Error("Gap-filling produced no graph", "STAGE", Stage, "STATUS", utils.StatusFailed, "error", err)
		return res, err
	}
	rc.Logger.Info("Gap-filling done", "STAGE", Stage, "STATUS", utils.StatusCompleted)
	return res, nil
}

func readResults(logPath string) ([]string, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return statuslog.ResultsSection(f)
}

package alignment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/gmaffy/minys-go/inputs"
	"github.com/gmaffy/minys-go/statuslog"
	"github.com/gmaffy/minys-go/tools"
	"github.com/gmaffy/minys-go/utils"
)

const (
	Stage         = "mapping"
	IndexStage    = "indexing"
	ConcatStage   = "concatenation"
	MappedReads   = "mapped_reads.fastq"
	StatsFileName = "mapping_stats.csv"
)

// EntryResult is the outcome of mapping one input entry.
type EntryResult struct {
	Name        string
	Entry       inputs.Entry
	Bam         string
	Reads       string
	MappedReads int
}

// Result of the mapping stage. Entries are in input order.
type Result struct {
	Dir     string
	Reads   string
	Stats   string
	Entries []EntryResult
	Total   int
}

// Run maps every entry against the reference and pools the recruited reads
// into mapping/mapped_reads.fastq.
func Run(ctx context.Context, rc *utils.RunContext, entries []inputs.Entry) (*Result, error) {
	cfg := rc.Config
	mappingDir, err := rc.StageDir(Stage)
	if err != nil {
		return nil, &utils.StageError{Stage: Stage, Err: err}
	}

	if err := IndexReference(ctx, rc); err != nil {
		return nil, err
	}

	rc.Logger.Info("Mapping reads on the reference", "STAGE", Stage, "STATUS", utils.StatusStarted)
	threads := cfg.MappingCores()
	results := make([]EntryResult, len(entries))
	bar := newProgress(rc.Progress, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Jobs, 1))
	for i, entry := range entries {
		g.Go(func() error {
			res, err := mapEntry(gctx, rc, mappingDir, i, entry, threads)
			if err != nil {
				return err
			}
			results[i] = res
			bar.increment()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		bar.abort()
		rc.Logger.Error("Mapping failed", "STAGE", Stage, "STATUS", utils.StatusFailed, "error", err)
		return nil, err
	}
	bar.wait()

	res := &Result{
		Dir:     mappingDir,
		Reads:   filepath.Join(mappingDir, MappedReads),
		Stats:   filepath.Join(mappingDir, StatsFileName),
		Entries: results,
		Total:   lo.SumBy(results, func(r EntryResult) int { return r.MappedReads }),
	}

	// ------ Pool recruited reads ------ //
	parts := lo.Map(results, func(r EntryResult, _ int) string { return r.Reads })
	if err := ConcatFiles(parts, res.Reads); err != nil {
		return nil, &utils.StageError{Stage: ConcatStage, Err: err}
	}
	if err := WriteMappingStats(res.Stats, results); err != nil {
		return nil, &utils.StageError{Stage: Stage, Err: err}
	}

	rc.Logger.Info(fmt.Sprintf("Mapping done: %d reads mapped in total", res.Total),
		"STAGE", Stage, "STATUS", utils.StatusCompleted, "mapped_reads", res.Total)
	return res, nil
}

// IndexReference runs bwa index unless <ref>.bwt is already there.
func IndexReference(ctx context.Context, rc *utils.RunContext) error {
	cfg := rc.Config
	if utils.FileExists(cfg.Reference + ".bwt") {
		rc.Logger.Info("Reference already indexed", "STAGE", IndexStage, "STATUS", utils.StatusSkipped)
		return nil
	}
	idx := tools.BwaIndex{Cmd: cfg.Tools.Bwa, Reference: cfg.Reference}
	args, _ := tools.Args(idx)
	rc.Logger.Info("Indexing the reference", "STAGE", IndexStage, "STATUS", utils.StatusStarted, "CMD", strings.Join(args, " "))
	if err := tools.RunLogged(ctx, IndexStage, rc.LogPath(Stage), idx); err != nil {
		rc.Logger.Error("Indexing failed", "STAGE", IndexStage, "STATUS", utils.StatusFailed, "error", err)
		return err
	}
	rc.Logger.Info("Indexing done", "STAGE", IndexStage, "STATUS", utils.StatusCompleted)
	return nil
}

func mapEntry(ctx context.Context, rc *utils.RunContext, dir string, i int, entry inputs.Entry, threads int) (EntryResult, error) {
	cfg := rc.Config
	name := inputs.Name(i)
	res := EntryResult{
		Name:  name,
		Entry: entry,
		Bam:   filepath.Join(dir, name+".bam"),
		Reads: filepath.Join(dir, name+"_mapped_reads.fastq"),
	}
	logPath := rc.LogPath(Stage + "_" + name)
	log, err := os.Create(logPath)
	if err != nil {
		return res, &utils.StageError{Stage: Stage, Err: err}
	}
	defer log.Close()

	// ------ Align, keep mapped, drop masked ------ //
	p := tools.NewPipeline(Stage,
		tools.BwaMem{Cmd: cfg.Tools.Bwa, Threads: threads, Reference: cfg.Reference, Reads1: entry.Read1, Reads2: entry.Read2},
		tools.SamtoolsView{Cmd: cfg.Tools.Samtools, BAM: true, ExcludeFlags: 4},
	)
	if cfg.Mask != "" {
		p.Then(tools.BedtoolsIntersect{Cmd: cfg.Tools.Bedtools, NoOverlap: true, B: cfg.Mask})
	}
	rc.Logger.Info("Call: "+p.String(), "STAGE", Stage, "ENTRY", name, "STATUS", utils.StatusStarted)
	if err := runTo(ctx, p, res.Bam, log, logPath); err != nil {
		return res, err
	}

	// ------ Back to reads ------ //
	var status bytes.Buffer
	conv := tools.NewPipeline(Stage, tools.SamtoolsBam2fq{Cmd: cfg.Tools.Samtools, In: res.Bam})
	rc.Logger.Info("Call: "+conv.String(), "STAGE", Stage, "ENTRY", name)
	if err := runTo(ctx, conv, res.Reads, io.MultiWriter(log, &status), logPath); err != nil {
		return res, err
	}
	n, err := statuslog.ReadCount(&status)
	if err != nil {
		return res, &utils.StageError{Stage: Stage, Err: err}
	}
	res.MappedReads = n

	rc.Logger.Info(fmt.Sprintf("%s: %d reads mapped", name, n),
		"STAGE", Stage, "ENTRY", name, "STATUS", utils.StatusCompleted, "mapped_reads", n)
	return res, nil
}

// runTo runs p with its output in a freshly created file.
func runTo(ctx context.Context, p *tools.Pipeline, outPath string, stderr io.Writer, logPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return &utils.StageError{Stage: p.Stage, Err: err}
	}
	p.Stdout = out
	p.Stderr = stderr
	p.Log = logPath
	runErr := p.Run(ctx)
	if err := out.Close(); err != nil && runErr == nil {
		return &utils.StageError{Stage: p.Stage, Err: err}
	}
	return runErr
}

// ConcatFiles writes the content of every file of paths, in order, to outPath.
func ConcatFiles(paths []string, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	for _, p := range paths {
		if err := appendFile(out, p); err != nil {
			out.Close()
			return err
		}
	}
	return out.Close()
}

func appendFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copying %s: %w", path, err)
	}
	return nil
}

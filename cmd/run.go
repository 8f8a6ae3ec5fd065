/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmaffy/minys-go/pipeline"
	"github.com/gmaffy/minys-go/utils"
)

var (
	runCfg       = utils.DefaultConfig()
	showProgress bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the whole pipeline: mapping, assembly, gap-filling and graph simplification",
	Long: `Runs the whole pipeline on a read set and a reference genome.

Reads are given as a single file (--in), a pair (-1/-2) or a file of files (--fof, one line
per sample, two tab-separated columns for pairs). A previous run can be continued from its
contigs (--contigs, skips mapping and assembly) and graph (--graph, replaces the reads for
gap-filling).`,
	Example: `  minys run --ref symbiont.fa -1 reads_1.fq -2 reads_2.fq -o results -t 8
  minys run --contigs results/assembly/minia_k31_abundancemin_auto.contigs.fa --graph graph.h5 -o results2`,
	Args:    cobra.NoArgs,
	PreRunE: applyConfigFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := runCfg
		var progress io.Writer
		if showProgress {
			progress = os.Stderr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPipeline(ctx, &cfg, flagValues(cmd.Flags()), os.Stderr, progress)
	},
}

// runPipeline validates cfg, sets the output directory up and runs every
// stage. Nothing is written before the configuration has been checked.
func runPipeline(ctx context.Context, cfg *utils.Config, params map[string]string, console, progress io.Writer) error {
	// ------ Check configuration ------ //
	if err := cfg.Validate(); err != nil {
		return err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	// ------ Output directory and logs ------ //
	rc, err := utils.NewRunContext(cfg, console)
	if err != nil {
		return err
	}
	defer rc.Close()
	rc.Progress = progress

	info := utils.RunInfo{
		RunID:   rc.RunID,
		Started: time.Now().Truncate(time.Second),
		Command: strings.Join(os.Args, " "),
		Params:  params,
	}
	if err := utils.WriteRunInfo(filepath.Join(cfg.OutDir, utils.RunInfoFile), info); err != nil {
		return err
	}
	rc.Logger.Info(fmt.Sprintf("Run %s started, %d input entries", rc.RunID, len(p.Entries())), "out", cfg.OutDir)

	if _, err := p.Run(ctx, rc); err != nil {
		rc.Logger.Error("Run failed", "STAGE", utils.StageOf(err), "STATUS", utils.StatusFailed, "error", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	f := runCmd.Flags()
	f.StringVarP(&cfgFile, "config", "c", "", "TOML file whose [params] table sets flags (run_info.toml of a previous run works)")

	// main options
	f.StringVar(&runCfg.InputFile, "in", "", "Input reads file")
	f.StringVarP(&runCfg.Forward, "forward", "1", "", "Input reads first file")
	f.StringVarP(&runCfg.Reverse, "reverse", "2", "", "Input reads second file")
	f.StringVar(&runCfg.Fof, "fof", "", "Input file of read files (if paired files, 2 columns tab-separated)")
	f.StringVarP(&runCfg.OutDir, "out", "o", utils.DefaultOutDir, "Output directory for result files")

	// mapping options
	f.StringVar(&runCfg.Reference, "ref", "", "Reference genome (indexed with bwa index when <ref>.bwt is missing)")
	f.StringVar(&runCfg.Mask, "mask", "", "Bed file of regions removed from mapping")

	// assembly options
	f.StringVar(&runCfg.MiniaBin, "minia-bin", "", "Path to the minia binary (default: minia in PATH)")
	f.IntVar(&runCfg.AssemblyKmerSize, "assembly-kmer-size", utils.DefaultKmerSize, "Kmer size used for the assembly")
	f.StringVar(&runCfg.AssemblyAbundanceMin, "assembly-abundance-min", utils.DefaultAbundanceMin, "Minimal abundance of kmers used for the assembly")
	f.IntVar(&runCfg.MinContigSize, "min-contig-size", utils.DefaultMinContigSize, "Minimal size of contigs kept for gap-filling")

	// gap-filling options
	f.StringVar(&runCfg.MtgDir, "mtg-dir", "", "Path to the MindTheGap build directory (default: MindTheGap in PATH)")
	f.IntVar(&runCfg.GapfillingKmerSize, "gapfilling-kmer-size", utils.DefaultKmerSize, "Kmer size used for gap-filling")
	f.StringVar(&runCfg.GapfillingAbundanceMin, "gapfilling-abundance-min", utils.DefaultAbundanceMin, "Minimal abundance of kmers used for gap-filling")
	f.IntVar(&runCfg.MaxNodes, "max-nodes", utils.DefaultMaxNodes, "Maximum number of nodes in contig graph")
	f.IntVar(&runCfg.MaxLength, "max-length", utils.DefaultMaxLength, "Maximum length of gap-filling (nt)")

	// simplification options
	f.IntVarP(&runCfg.SimplificationL, "simplification-l", "l", utils.DefaultSimplificationL, "Length of minimal prefix for simplification")
	f.StringVar(&runCfg.SimplificationScript, "simplification-script", "", "Graph simplification script (default: "+utils.SimplificationScriptRel+" next to the executable)")

	// continue options
	f.StringVar(&runCfg.Contigs, "contigs", "", "Contigs in fasta format, skips mapping and assembly")
	f.StringVar(&runCfg.Graph, "graph", "", "Graph in h5 format, replaces the reads for gap-filling")

	// core options
	f.IntVarP(&runCfg.NbCores, "nb-cores", "t", 0, "Number of cores (0: all available)")
	f.IntVarP(&runCfg.Jobs, "jobs", "j", 1, "Input entries mapped in parallel, cores are shared between them")
	f.BoolVar(&showProgress, "progress", false, "Show a progress bar while mapping")
}

// Package tools describes the command lines of the collaborators driven by
// the pipeline. Each type lists the parameters of one invocation; the argument
// list is built from the buildarg struct tags and checked in BuildCommand.
package tools

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"text/template"

	"github.com/biogo/external"
	"github.com/samber/lo"
)

var ErrMissingRequired = errors.New("tools: missing required argument")

var funcs = template.FuncMap{"comma": comma}

func comma(a interface{}) string { return strings.Join(a.([]string), ",") }

func command(b external.CommandBuilder) (*exec.Cmd, error) {
	cl, err := external.Build(b, funcs)
	if err != nil {
		return nil, err
	}
	cl = lo.Compact(cl)
	return exec.Command(cl[0], cl[1:]...), nil
}

func missing(tool string, args ...string) error {
	return fmt.Errorf("%w: %s needs %s", ErrMissingRequired, tool, strings.Join(args, ", "))
}

// Args returns the argument list of b, program name first.
func Args(b external.CommandBuilder) ([]string, error) {
	cmd, err := b.BuildCommand()
	if err != nil {
		return nil, err
	}
	return cmd.Args, nil
}

// BwaIndex indexes a reference genome.
type BwaIndex struct {
	Cmd       string `buildarg:"{{if .}}{{.}}{{else}}bwa{{end}}{{split}}index"`
	Reference string `buildarg:"{{.}}"`
}

func (b BwaIndex) BuildCommand() (*exec.Cmd, error) {
	if b.Reference == "" {
		return nil, missing("bwa index", "reference")
	}
	return command(b)
}

// BwaMem aligns single or paired reads; alignments are written to stdout.
type BwaMem struct {
	Cmd       string `buildarg:"{{if .}}{{.}}{{else}}bwa{{end}}{{split}}mem"`
	Threads   int    `buildarg:"{{if .}}-t{{split}}{{.}}{{end}}"`
	Reference string `buildarg:"{{.}}"`
	Reads1    string `buildarg:"{{.}}"`
	Reads2    string `buildarg:"{{if .}}{{.}}{{end}}"`
}

func (b BwaMem) BuildCommand() (*exec.Cmd, error) {
	if b.Reference == "" || b.Reads1 == "" {
		return nil, missing("bwa mem", "reference", "reads")
	}
	return command(b)
}

// SamtoolsView converts an alignment stream, keeping records that have none
// of the ExcludeFlags bits set.
type SamtoolsView struct {
	Cmd          string `buildarg:"{{if .}}{{.}}{{else}}samtools{{end}}{{split}}view"`
	BAM          bool   `buildarg:"{{if .}}-b{{end}}"`
	ExcludeFlags int    `buildarg:"{{if .}}-F{{split}}{{.}}{{end}}"`
	In           string `buildarg:"{{if .}}{{.}}{{else}}-{{end}}"`
}

func (b SamtoolsView) BuildCommand() (*exec.Cmd, error) { return command(b) }

// BedtoolsIntersect drops alignments overlapping the regions of B.
type BedtoolsIntersect struct {
	Cmd       string `buildarg:"{{if .}}{{.}}{{else}}bedtools{{end}}{{split}}intersect"`
	ABam      string `buildarg:"-abam{{split}}{{if .}}{{.}}{{else}}stdin{{end}}"`
	NoOverlap bool   `buildarg:"{{if .}}-v{{end}}"`
	B         string `buildarg:"-b{{split}}{{.}}"`
}

func (b BedtoolsIntersect) BuildCommand() (*exec.Cmd, error) {
	if b.B == "" {
		return nil, missing("bedtools intersect", "-b")
	}
	return command(b)
}

// SamtoolsBam2fq writes the reads of a BAM file as FASTQ on stdout and the
// number of processed reads on stderr.
type SamtoolsBam2fq struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}samtools{{end}}{{split}}bam2fq"`
	In  string `buildarg:"{{.}}"`
}

func (b SamtoolsBam2fq) BuildCommand() (*exec.Cmd, error) {
	if b.In == "" {
		return nil, missing("samtools bam2fq", "input")
	}
	return command(b)
}

// Minia assembles reads into <Out>.contigs.fa.
type Minia struct {
	Cmd          string `buildarg:"{{if .}}{{.}}{{else}}minia{{end}}"`
	Cores        int    `buildarg:"-nb-cores{{split}}{{.}}"`
	In           string `buildarg:"-in{{split}}{{.}}"`
	KmerSize     int    `buildarg:"-kmer-size{{split}}{{.}}"`
	AbundanceMin string `buildarg:"-abundance-min{{split}}{{.}}"`
	Out          string `buildarg:"-out{{split}}{{.}}"`
	OutTmp       string `buildarg:"{{if .}}-out-tmp{{split}}{{.}}{{end}}"`
}

func (b Minia) BuildCommand() (*exec.Cmd, error) {
	if b.In == "" || b.Out == "" || b.KmerSize <= 0 || b.AbundanceMin == "" {
		return nil, missing("minia", "-in", "-out", "-kmer-size", "-abundance-min")
	}
	return command(b)
}

// MindTheGapFill fills gaps between contigs from reads or from a prebuilt
// graph, writing <Out>.gfa.
type MindTheGapFill struct {
	Cmd          string   `buildarg:"{{if .}}{{.}}{{else}}MindTheGap{{end}}{{split}}fill"`
	Contig       string   `buildarg:"-contig{{split}}{{.}}"`
	Reads        []string `buildarg:"{{if .}}-in{{split}}{{comma .}}{{end}}"`
	Graph        string   `buildarg:"{{if .}}-graph{{split}}{{.}}{{end}}"`
	AbundanceMin string   `buildarg:"-abundance-min{{split}}{{.}}"`
	KmerSize     int      `buildarg:"-kmer-size{{split}}{{.}}"`
	Overlap      int      `buildarg:"-overlap{{split}}{{.}}"`
	Out          string   `buildarg:"-out{{split}}{{.}}"`
	Cores        int      `buildarg:"-nb-cores{{split}}{{.}}"`
	MaxLength    int      `buildarg:"-max-length{{split}}{{.}}"`
	MaxNodes     int      `buildarg:"-max-nodes{{split}}{{.}}"`
}

var ErrReadsAndGraph = errors.New("tools: MindTheGap fill takes either -in or -graph")

func (b MindTheGapFill) BuildCommand() (*exec.Cmd, error) {
	if b.Contig == "" || b.Out == "" || b.KmerSize <= 0 || b.AbundanceMin == "" {
		return nil, missing("MindTheGap fill", "-contig", "-out", "-kmer-size", "-abundance-min")
	}
	if len(b.Reads) > 0 && b.Graph != "" {
		return nil, ErrReadsAndGraph
	}
	if len(b.Reads) == 0 && b.Graph == "" {
		return nil, missing("MindTheGap fill", "-in or -graph")
	}
	return command(b)
}

// Simplifier runs the graph simplification script on a GFA file.
type Simplifier struct {
	Script       string `buildarg:"{{.}}"`
	PrefixLength int    `buildarg:"-l{{split}}{{.}}"`
	In           string `buildarg:"{{.}}"`
	Out          string `buildarg:"{{.}}"`
}

func (b Simplifier) BuildCommand() (*exec.Cmd, error) {
	if b.Script == "" || b.In == "" || b.Out == "" || b.PrefixLength <= 0 {
		return nil, missing("graph simplification", "script", "-l", "input", "output")
	}
	return command(b)
}

package utils

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
)

const (
	DefaultOutDir           = "./MinYS_results"
	DefaultKmerSize         = 31
	DefaultAbundanceMin     = "auto"
	DefaultMinContigSize    = 400
	DefaultMaxNodes         = 300
	DefaultMaxLength        = 50000
	DefaultSimplificationL  = 100
	SimplificationScriptRel = "graph_simplification/graph_simplification.py"
)

// Config is the resolved set of run parameters. It is filled from the command
// line, validated once and not modified afterwards.
type Config struct {
	InputFile string
	Forward   string
	Reverse   string
	Fof       string
	OutDir    string

	Reference string
	Mask      string

	MiniaBin             string
	AssemblyKmerSize     int
	AssemblyAbundanceMin string
	MinContigSize        int

	MtgDir                 string
	GapfillingKmerSize     int
	GapfillingAbundanceMin string
	MaxNodes               int
	MaxLength              int

	SimplificationL      int
	SimplificationScript string

	Contigs string
	Graph   string

	NbCores int
	Jobs    int

	Tools Tools
}

// Tools holds the resolved executable of every collaborator the run needs.
// Unused collaborators are left empty.
type Tools struct {
	Bwa        string
	Samtools   string
	Bedtools   string
	Minia      string
	MindTheGap string
	Simplifier string
}

// DefaultConfig returns a Config carrying the documented defaults.
func DefaultConfig() Config {
	return Config{
		OutDir:                 DefaultOutDir,
		AssemblyKmerSize:       DefaultKmerSize,
		AssemblyAbundanceMin:   DefaultAbundanceMin,
		MinContigSize:          DefaultMinContigSize,
		GapfillingKmerSize:     DefaultKmerSize,
		GapfillingAbundanceMin: DefaultAbundanceMin,
		MaxNodes:               DefaultMaxNodes,
		MaxLength:              DefaultMaxLength,
		SimplificationL:        DefaultSimplificationL,
		Jobs:                   1,
	}
}

// SkipsMapping reports whether precomputed contigs bypass mapping and assembly.
func (c *Config) SkipsMapping() bool { return c.Contigs != "" }

// UsesGraph reports whether a precomputed graph replaces the reads for gap-filling.
func (c *Config) UsesGraph() bool { return c.Graph != "" }

func (c *Config) readForms() int {
	n := 0
	if c.InputFile != "" {
		n++
	}
	if c.Forward != "" || c.Reverse != "" {
		n++
	}
	if c.Fof != "" {
		n++
	}
	return n
}

// HasReads reports whether any read source was supplied.
func (c *Config) HasReads() bool { return c.readForms() > 0 }

// MappingCores is the thread count handed to the aligner for one entry.
func (c *Config) MappingCores() int {
	cores := c.NbCores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	jobs := c.Jobs
	if jobs < 1 {
		jobs = 1
	}
	if per := cores / jobs; per > 1 {
		return per
	}
	return 1
}

// Validate checks option combinations, input files and collaborator binaries.
// It resolves c.Tools and has no side effects on the filesystem.
func (c *Config) Validate() error {
	// ------------------------------------------- Input combinations ------------------------------------------- //
	if (c.Forward == "") != (c.Reverse == "") {
		return configErrorf("paired reads need both -1 and -2")
	}
	switch forms := c.readForms(); {
	case forms > 1:
		return configErrorf("supply reads as only one of --in, -1/-2 or --fof")
	case forms == 0 && (c.Contigs == "" || c.Graph == ""):
		return configErrorf("please supply reads as --in or -1/-2 or --fof, or both --contigs and --graph")
	case forms == 1 && c.Contigs != "" && c.Graph != "":
		return configErrorf("reads are unused when both --contigs and --graph are supplied")
	}

	if c.Contigs == "" && c.Reference == "" {
		return configErrorf("either --ref or --contigs is required")
	}
	if c.Contigs != "" && c.Reference != "" {
		return configErrorf("--ref and --contigs are mutually exclusive")
	}
	if c.Mask != "" && c.Reference == "" {
		return configErrorf("--mask requires --ref")
	}
	if c.OutDir == "" {
		return configErrorf("--out must not be empty")
	}

	// ---------------------------------------------- Parameters ------------------------------------------------ //
	if c.AssemblyKmerSize <= 0 || c.GapfillingKmerSize <= 0 {
		return configErrorf("kmer sizes must be positive")
	}
	if err := checkAbundance("--assembly-abundance-min", c.AssemblyAbundanceMin); err != nil {
		return err
	}
	if err := checkAbundance("--gapfilling-abundance-min", c.GapfillingAbundanceMin); err != nil {
		return err
	}
	if c.MinContigSize < 0 {
		return configErrorf("--min-contig-size must not be negative")
	}
	if c.MaxNodes <= 0 || c.MaxLength <= 0 {
		return configErrorf("--max-nodes and --max-length must be positive")
	}
	if c.SimplificationL <= 0 {
		return configErrorf("-l must be positive")
	}
	if c.NbCores < 0 {
		return configErrorf("--nb-cores must not be negative")
	}
	if c.Jobs < 1 {
		return configErrorf("--jobs must be at least 1")
	}

	// ---------------------------------------------- Input files ----------------------------------------------- //
	for _, in := range []struct{ flag, path string }{
		{"--in", c.InputFile},
		{"-1", c.Forward},
		{"-2", c.Reverse},
		{"--fof", c.Fof},
		{"--ref", c.Reference},
		{"--mask", c.Mask},
		{"--contigs", c.Contigs},
		{"--graph", c.Graph},
	} {
		if in.path != "" && !FileExists(in.path) {
			return configErrorf("%s file %s does not exist", in.flag, in.path)
		}
	}

	return c.CheckDeps()
}

func checkAbundance(flag, v string) error {
	if v == "auto" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return configErrorf("%s must be \"auto\" or a positive integer, got %q", flag, v)
	}
	return nil
}

// CheckDeps resolves every collaborator binary the configured run will call.
func (c *Config) CheckDeps() error {
	var err error
	tools := Tools{}
	if !c.SkipsMapping() {
		if tools.Bwa, err = lookTool("bwa", ""); err != nil {
			return err
		}
		if tools.Samtools, err = lookTool("samtools", ""); err != nil {
			return err
		}
		if c.Mask != "" {
			if tools.Bedtools, err = lookTool("bedtools", ""); err != nil {
				return err
			}
		}
		if tools.Minia, err = lookTool("minia", c.MiniaBin); err != nil {
			if c.MiniaBin != "" {
				return err
			}
			return configErrorf("minia is not in PATH, please supply --minia-bin argument")
		}
	}

	mtg := ""
	if c.MtgDir != "" {
		mtg = filepath.Join(c.MtgDir, "bin", "MindTheGap")
	}
	if tools.MindTheGap, err = lookTool("MindTheGap", mtg); err != nil {
		if mtg != "" {
			return err
		}
		return configErrorf("MindTheGap is not in PATH, please supply --mtg-dir argument")
	}

	script := c.SimplificationScript
	if script == "" {
		script = DefaultSimplificationScript()
	}
	if !FileExists(script) {
		return configErrorf("simplification script not found: %s", script)
	}
	tools.Simplifier = script

	c.Tools = tools
	return nil
}

// lookTool returns override when set, else the first match of name in $PATH.
func lookTool(name, override string) (string, error) {
	if override != "" {
		if !FileExists(override) {
			return "", configErrorf("%s binary %s does not exist", name, override)
		}
		return override, nil
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", configErrorf("%s is not in PATH", name)
	}
	return p, nil
}

// DefaultSimplificationScript is the script shipped next to the executable.
func DefaultSimplificationScript() string {
	exe, err := os.Executable()
	if err != nil {
		return SimplificationScriptRel
	}
	return filepath.Join(filepath.Dir(exe), SimplificationScriptRel)
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// IsConfigurationError reports whether err stems from option validation.
func IsConfigurationError(err error) bool { return errors.Is(err, ErrConfiguration) }

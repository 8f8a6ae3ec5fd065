package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gmaffy/minys-go/internal/faketools"
	"github.com/gmaffy/minys-go/utils"
)

func TestRunFlags(t *testing.T) {
	for long, short := range map[string]string{"forward": "1", "reverse": "2", "simplification-l": "l", "nb-cores": "t", "jobs": "j", "out": "o"} {
		f := runCmd.Flags().Lookup(long)
		if f == nil || f.Shorthand != short {
			t.Errorf("flag --%s should have shorthand -%s", long, short)
		}
	}
	if f := runCmd.Flags().Lookup("config"); f == nil || f.Shorthand != "c" {
		t.Error("missing --config on run")
	}
	for _, c := range []*cobra.Command{statusCmd, filterContigsCmd, contigStatsCmd} {
		if c.Flags().Lookup("config") != nil || c.PreRunE != nil || c.PersistentPreRunE != nil {
			t.Errorf("%s should not read a run config file", c.Name())
		}
	}
	if rootCmd.PersistentPreRunE != nil {
		t.Error("config file hook must only run for run")
	}
}

func TestSetFlagsKeepsExplicitValues(t *testing.T) {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	in := flags.String("in", "", "")
	cores := flags.Int("nb-cores", 0, "")
	if err := flags.Parse([]string{"--nb-cores", "2"}); err != nil {
		t.Fatal(err)
	}

	if err := setFlags(flags, map[string]string{"in": "reads.fq", "nb-cores": "16"}); err != nil {
		t.Fatal(err)
	}
	if *in != "reads.fq" || *cores != 2 {
		t.Errorf("in %q cores %d", *in, *cores)
	}

	if err := setFlags(flags, map[string]string{"bogus": "1"}); !utils.IsConfigurationError(err) {
		t.Errorf("unknown key: %v", err)
	}
	if err := setFlags(pflag.NewFlagSet("x", pflag.ContinueOnError), nil); err != nil {
		t.Error(err)
	}
}

func TestRunPipelineWritesManifestAndStatus(t *testing.T) {
	env := faketools.Install(t)
	cfg := env.Config(t)
	cfg.InputFile = env.WriteReads(t, "reads.fq", "r", 4)
	params := map[string]string{"in": cfg.InputFile, "ref": cfg.Reference, "nb-cores": "2"}

	if err := runPipeline(context.Background(), &cfg, params, &bytes.Buffer{}, nil); err != nil {
		t.Fatalf("runPipeline: %v", err)
	}

	got, err := utils.ReadParams(filepath.Join(cfg.OutDir, utils.RunInfoFile))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, params) {
		t.Errorf("params %v, want %v", got, params)
	}

	var out bytes.Buffer
	if err := printStatus(&out, cfg.OutDir, ""); err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"indexing\tCOMPLETED", "mapping\tCOMPLETED", "assembly\tCOMPLETED", "filtering\tCOMPLETED", "gapfilling\tCOMPLETED", "simplification\tCOMPLETED"} {
		if !strings.Contains(out.String(), line+"\n") {
			t.Errorf("status lacks %q:\n%s", line, out.String())
		}
	}
}

func TestRunPipelineRejectsBeforeWriting(t *testing.T) {
	env := faketools.Install(t)
	cfg := env.Config(t)

	err := runPipeline(context.Background(), &cfg, nil, &bytes.Buffer{}, nil)
	if !utils.IsConfigurationError(err) {
		t.Fatalf("got %v", err)
	}
	if _, statErr := os.Stat(cfg.OutDir); !os.IsNotExist(statErr) {
		t.Error("output directory created for an invalid configuration")
	}
}

func TestPrintStatusWithoutLog(t *testing.T) {
	if err := printStatus(&bytes.Buffer{}, t.TempDir(), ""); err == nil {
		t.Error("expected an error for a directory without runs")
	}
}

func TestPrintContigStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.fa")
	if err := os.WriteFile(path, []byte(">a\nACGTACGTAC\n>b\nACGT\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := printContigStats(&out, []string{path}); err != nil {
		t.Fatal(err)
	}
	if want := path + "\t2\t14\t10\t7.0\t10\n"; !strings.HasSuffix(out.String(), want) {
		t.Errorf("got %q", out.String())
	}
}

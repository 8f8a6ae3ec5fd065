package assembly

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gmaffy/minys-go/internal/faketools"
	"github.com/gmaffy/minys-go/utils"
)

func contigsFasta(lengths ...int) string {
	var b strings.Builder
	for i, l := range lengths {
		fmt.Fprintf(&b, ">%d LN:i:%d\n%s\n", i, l, strings.Repeat("A", l))
	}
	return b.String()
}

func TestFilterContigs(t *testing.T) {
	var out bytes.Buffer
	read, kept, err := FilterContigs(strings.NewReader(contigsFasta(100, 450, 1000, 399, 400)), &out, 400)
	if err != nil {
		t.Fatal(err)
	}
	if read != 5 || kept != 3 {
		t.Errorf("read %d kept %d", read, kept)
	}
	got := out.String()
	lengths, err := ContigLengths(strings.NewReader(got))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lengths, []int{450, 1000, 400}) {
		t.Errorf("kept lengths %v", lengths)
	}
	if !strings.Contains(got, ">1 LN:i:450\n") {
		t.Errorf("header not preserved:\n%s", got)
	}
}

func TestFilterContigsEmpty(t *testing.T) {
	var out bytes.Buffer
	read, kept, err := FilterContigs(strings.NewReader(""), &out, 400)
	if err != nil || read != 0 || kept != 0 || out.Len() != 0 {
		t.Errorf("got %d %d %v %q", read, kept, err, out.String())
	}

	read, kept, err = FilterContigs(strings.NewReader(contigsFasta(10, 20)), &out, 0)
	if err != nil || read != 2 || kept != 2 {
		t.Errorf("min 0 should keep everything: %d %d %v", read, kept, err)
	}
}

func TestFilterFileGzip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "contigs.fa.gz")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(contigsFasta(500, 50)))
	gz.Close()
	if err := os.WriteFile(in, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "filtered.fa")
	if _, kept, err := FilterFile(in, out, 100); err != nil || kept != 1 {
		t.Fatalf("kept %d, err %v", kept, err)
	}
	s, err := FileStats(out)
	if err != nil {
		t.Fatal(err)
	}
	if s.Count != 1 || s.Total != 500 {
		t.Errorf("stats %+v", s)
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats([]int{100, 450, 1000, 399, 400})
	want := Stats{Count: 5, Total: 2349, Longest: 1000, N50: 450}
	if s.Count != want.Count || s.Total != want.Total || s.Longest != want.Longest || s.N50 != want.N50 {
		t.Errorf("got %+v", s)
	}
	if math.Abs(s.Mean-469.8) > 1e-9 {
		t.Errorf("mean %v", s.Mean)
	}
	if (ComputeStats(nil) != Stats{}) {
		t.Error("stats of nothing should be zero")
	}
}

func TestRunAssembles(t *testing.T) {
	env := faketools.Install(t)
	cfg := env.Config(t)
	cfg.InputFile = env.WriteReads(t, "reads.fq", "r", 4)
	rc := faketools.RunContext(t, &cfg)

	res, err := Run(context.Background(), rc, cfg.InputFile)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	prefix := filepath.Join(cfg.OutDir, "assembly", "minia_k31_abundancemin_auto")
	if res.Prefix != prefix || res.Name != "minia_k31_abundancemin_auto" {
		t.Errorf("prefix %s name %s", res.Prefix, res.Name)
	}
	if res.Filtered != prefix+"_filtered_400.fa" {
		t.Errorf("filtered %s", res.Filtered)
	}
	if res.Raw.Count != len(faketools.ContigLengths) || res.FilteredStats.Count != 3 {
		t.Errorf("raw %+v filtered %+v", res.Raw, res.FilteredStats)
	}

	calls := env.CallsTo(t, "minia")
	if len(calls) != 1 {
		t.Fatalf("minia calls %v", calls)
	}
	for _, arg := range []string{"-in " + cfg.InputFile, "-kmer-size 31", "-abundance-min auto", "-out " + prefix} {
		if !strings.Contains(calls[0], arg) {
			t.Errorf("minia call %q lacks %q", calls[0], arg)
		}
	}
	if !utils.FileExists(rc.LogPath(Stage)) {
		t.Error("assembly log missing")
	}
}

func TestRunWithSuppliedContigs(t *testing.T) {
	env := faketools.Install(t)
	cfg := env.Config(t)
	cfg.Reference = ""
	cfg.Contigs = env.WriteFile(t, "my_contigs.fa", contigsFasta(800, 10))
	cfg.Graph = env.WriteFile(t, "graph.h5", "")
	rc := faketools.RunContext(t, &cfg)

	res, err := Run(context.Background(), rc, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Skipped || res.Prefix != cfg.Contigs || res.Name != "my_contigs.fa" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Filtered != cfg.Contigs+"_filtered_400.fa" || res.FilteredStats.Count != 1 {
		t.Errorf("filtered %s %+v", res.Filtered, res.FilteredStats)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutDir, "assembly")); !os.IsNotExist(err) {
		t.Error("assembly directory created in continuation mode")
	}
	if len(env.CallsTo(t, "minia")) != 0 {
		t.Error("assembler called in continuation mode")
	}
}

func TestRunMissingContigs(t *testing.T) {
	env := faketools.Install(t)
	env.Replace(t, "minia", "echo 'nothing assembled'\nexit 0\n")
	cfg := env.Config(t)
	cfg.InputFile = env.WriteReads(t, "reads.fq", "r", 1)
	rc := faketools.RunContext(t, &cfg)

	_, err := Run(context.Background(), rc, cfg.InputFile)
	if !errors.Is(err, utils.ErrMissingArtifact) {
		t.Fatalf("got %v, want missing artifact", err)
	}
	var me *utils.MissingArtifactError
	if !errors.As(err, &me) || me.Stage != Stage || !strings.HasSuffix(me.Path, ".contigs.fa") {
		t.Errorf("unexpected error %+v", err)
	}
}

func TestRunAssemblerFails(t *testing.T) {
	env := faketools.Install(t)
	env.Replace(t, "minia", "exit 1\n")
	cfg := env.Config(t)
	cfg.InputFile = env.WriteReads(t, "reads.fq", "r", 1)
	rc := faketools.RunContext(t, &cfg)

	_, err := Run(context.Background(), rc, cfg.InputFile)
	var te *utils.ExternalToolError
	if !errors.As(err, &te) || te.Stage != Stage || te.ExitCode != 1 {
		t.Fatalf("got %v", err)
	}
}

// Package faketools installs shell stand-ins for the pipeline collaborators so
// stages can be exercised end to end in tests. Every stand-in appends its
// command line to Env.Calls.
package faketools

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmaffy/minys-go/utils"
)

// ContigLengths are the contigs the fake assembler writes, in order.
var ContigLengths = []int{100, 450, 1000, 399, 400}

type Env struct {
	Dir    string
	Bin    string
	Calls  string
	Script string
}

const header = `#!/bin/sh
echo "$(basename "$0") $*" >> "%s"
`

const bwa = `case "$1" in
index) touch "$2.bwt"; echo "[bwa_index] done" >&2 ;;
mem)
	shift
	if [ "$1" = "-t" ]; then shift 2; fi
	shift
	echo "[M::bwa_mem] aligning" >&2
	cat "$@"
	;;
*) exit 64 ;;
esac
`

const samtools = `case "$1" in
view) cat ;;
bam2fq)
	cat "$2"
	n=$(($(wc -l < "$2") / 4))
	echo "[M::bam2fq_mainloop] discarded 0 singletons" >&2
	echo "[M::bam2fq_mainloop] processed $n reads" >&2
	;;
*) exit 64 ;;
esac
`

// bedtools drops every FASTQ record whose name line is listed in the mask.
const bedtools = `mask=""
while [ $# -gt 0 ]; do
	case "$1" in -b) mask="$2"; shift ;; esac
	shift
done
awk -v maskfile="$mask" 'BEGIN { while ((getline l < maskfile) > 0) m[l] = 1 }
(FNR - 1) % 4 == 0 { keep = !($0 in m) }
keep'
`

const minia = `out=""
while [ $# -gt 0 ]; do
	case "$1" in -out) out="$2"; shift ;; esac
	shift
done
: > "$out.contigs.fa"
i=0
for len in %s; do
	printf '>%%d LN:i:%%d\n' "$i" "$len" >> "$out.contigs.fa"
	awk -v n="$len" 'BEGIN { s = ""; for (j = 0; j < n; j++) s = s "A"; print s }' >> "$out.contigs.fa"
	i=$((i + 1))
done
echo "assembly done"
`

const mindthegap = `out=""
contig=""
while [ $# -gt 0 ]; do
	case "$1" in
	-out) out="$2"; shift ;;
	-contig) contig="$2"; shift ;;
	fill) ;;
	*) shift ;;
	esac
	shift
done
echo "[Filling breakpoints] 100 %"
printf 'H\tVN:Z:1.0\n' > "$out.gfa"
grep '^>' "$contig" | sed 's/^>\([^ ]*\).*/S\t\1\t*/' >> "$out.gfa"
echo "Results"
echo "    nb_gaps          : 4"
echo "    nb_filled_gaps   : 3"
`

const simplifier = `while [ $# -gt 0 ]; do
	case "$1" in -l) shift ;; *) break ;; esac
	shift
done
cp "$1" "$2"
`

// Install writes the stand-ins to a temp dir and puts it first on PATH.
func Install(t testing.TB) *Env {
	t.Helper()
	dir := t.TempDir()
	env := &Env{
		Dir:    dir,
		Bin:    filepath.Join(dir, "bin"),
		Calls:  filepath.Join(dir, "calls.txt"),
		Script: filepath.Join(dir, "graph_simplification.py"),
	}
	if err := os.MkdirAll(env.Bin, 0755); err != nil {
		t.Fatal(err)
	}

	lengths := make([]string, len(ContigLengths))
	for i, l := range ContigLengths {
		lengths[i] = fmt.Sprint(l)
	}
	env.Replace(t, "bwa", bwa)
	env.Replace(t, "samtools", samtools)
	env.Replace(t, "bedtools", bedtools)
	env.Replace(t, "minia", fmt.Sprintf(minia, strings.Join(lengths, " ")))
	env.Replace(t, "MindTheGap", mindthegap)
	env.write(t, env.Script, simplifier)

	t.Setenv("PATH", env.Bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	return env
}

// Replace installs body as the stand-in for tool.
func (e *Env) Replace(t testing.TB, tool, body string) {
	t.Helper()
	e.write(t, filepath.Join(e.Bin, tool), body)
}

func (e *Env) write(t testing.TB, path, body string) {
	t.Helper()
	content := fmt.Sprintf(header, e.Calls) + body
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatal(err)
	}
}

// Path returns a path inside the env directory.
func (e *Env) Path(name string) string { return filepath.Join(e.Dir, name) }

// WriteReads writes n FASTQ records named @<tag>_<i> and returns the path.
func (e *Env) WriteReads(t testing.TB, name, tag string, n int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "@%s_%d\nACGTACGT\n+\nIIIIIIII\n", tag, i)
	}
	return e.WriteFile(t, name, b.String())
}

func (e *Env) WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := e.Path(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// CallsTo returns the recorded command lines of tool.
func (e *Env) CallsTo(t testing.TB, tool string) []string {
	t.Helper()
	b, err := os.ReadFile(e.Calls)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	var calls []string
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		if line == tool || strings.HasPrefix(line, tool+" ") {
			calls = append(calls, line)
		}
	}
	return calls
}

// Config returns a default configuration with a reference, the fake
// simplification script and an output dir inside the env.
func (e *Env) Config(t testing.TB) utils.Config {
	t.Helper()
	cfg := utils.DefaultConfig()
	cfg.OutDir = e.Path("out")
	cfg.Reference = e.WriteFile(t, "ref.fa", ">chr1\nACGTACGTACGT\n")
	cfg.SimplificationScript = e.Script
	cfg.NbCores = 2
	return cfg
}

// RunContext validates cfg and opens a run context that logs nowhere but
// logs/pipeline.log.
func RunContext(t testing.TB, cfg *utils.Config) *utils.RunContext {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	rc, err := utils.NewRunContext(cfg, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rc.Close() })
	return rc
}

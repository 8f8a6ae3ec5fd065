package tools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gmaffy/minys-go/utils"
)

// script runs an executable file written by the test.
type script struct {
	Path string `buildarg:"{{.}}"`
	Arg  string `buildarg:"{{if .}}{{.}}{{end}}"`
}

func (s script) BuildCommand() (*exec.Cmd, error) { return command(s) }

func writeScript(t *testing.T, dir, name, body string) script {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return script{Path: path}
}

func TestPipelineStreams(t *testing.T) {
	dir := t.TempDir()
	gen := writeScript(t, dir, "gen.sh", "printf 'alpha\\nbeta\\ngamma\\n'")
	upper := writeScript(t, dir, "upper.sh", "tr a-z A-Z")
	drop := writeScript(t, dir, "drop.sh", "grep -v BETA")

	var out bytes.Buffer
	p := NewPipeline("test", gen).Then(upper).Then(drop)
	p.Stdout = &out

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := out.String(), "ALPHA\nGAMMA\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if p.Len() != 3 {
		t.Errorf("Len = %d", p.Len())
	}
	if s := p.String(); strings.Count(s, " | ") != 2 {
		t.Errorf("String = %q", s)
	}
}

func TestPipelineLargeStreamDoesNotBlock(t *testing.T) {
	dir := t.TempDir()
	gen := writeScript(t, dir, "gen.sh", "head -c 4194304 /dev/zero")
	pass := writeScript(t, dir, "pass.sh", "cat")

	outPath := filepath.Join(dir, "out.bin")
	out, err := os.Create(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	p := NewPipeline("test", gen, pass, pass)
	p.Stdout = out

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 4194304 {
		t.Errorf("got %d bytes through the chain", info.Size())
	}
}

func TestPipelineReportsFailingStage(t *testing.T) {
	dir := t.TempDir()
	gen := writeScript(t, dir, "gen.sh", "printf 'x\\n'")
	fail := writeScript(t, dir, "fail.sh", "cat >/dev/null; exit 3")
	pass := writeScript(t, dir, "pass.sh", "cat")

	p := NewPipeline("mapping", gen, fail, pass)
	p.Log = "logs/mapping.log"
	err := p.Run(context.Background())

	var te *utils.ExternalToolError
	if !errors.As(err, &te) {
		t.Fatalf("got %v, want ExternalToolError", err)
	}
	if te.ExitCode != 3 || te.Stage != "mapping" || !strings.Contains(te.Command, "fail.sh") {
		t.Errorf("unexpected error: %+v", te)
	}
	if !errors.Is(err, utils.ErrExternalTool) {
		t.Error("error should match ErrExternalTool")
	}
}

func TestPipelineStartFailure(t *testing.T) {
	dir := t.TempDir()
	gen := writeScript(t, dir, "gen.sh", "sleep 5")
	missing := script{Path: filepath.Join(dir, "does-not-exist")}

	start := time.Now()
	err := NewPipeline("mapping", gen, missing).Run(context.Background())
	if !errors.Is(err, utils.ErrExternalTool) {
		t.Fatalf("got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("started processes were not killed")
	}
}

func TestRunLogged(t *testing.T) {
	dir := t.TempDir()
	noisy := writeScript(t, dir, "noisy.sh", "echo out; echo err >&2; exit 0")
	logPath := filepath.Join(dir, "stage.log")

	if err := RunLogged(context.Background(), "assembly", logPath, noisy); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "out") || !strings.Contains(string(b), "err") {
		t.Errorf("log content %q", b)
	}

	failing := writeScript(t, dir, "failing.sh", "exit 1")
	err = RunLogged(context.Background(), "assembly", logPath, failing)
	var te *utils.ExternalToolError
	if !errors.As(err, &te) || te.Log != logPath {
		t.Errorf("got %v", err)
	}
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/biogo/external"

	"github.com/gmaffy/minys-go/utils"
)

// Pipeline is a chain of external processes, each one's stdout feeding the
// next one's stdin through an OS pipe. All processes run concurrently.
type Pipeline struct {
	Stage  string
	Stdin  io.Reader
	Stdout io.Writer
	// Stderr is shared by every process. Anything but an *os.File is written
	// from several goroutines and must be safe for concurrent use.
	Stderr io.Writer
	// Log is the file named in errors so the user knows where to look.
	Log string

	steps []external.CommandBuilder
}

func NewPipeline(stage string, steps ...external.CommandBuilder) *Pipeline {
	return &Pipeline{Stage: stage, steps: steps}
}

// Then appends a process to the chain.
func (p *Pipeline) Then(b external.CommandBuilder) *Pipeline {
	p.steps = append(p.steps, b)
	return p
}

func (p *Pipeline) Len() int { return len(p.steps) }

func (p *Pipeline) String() string {
	parts := make([]string, 0, len(p.steps))
	for _, b := range p.steps {
		args, err := Args(b)
		if err != nil {
			parts = append(parts, fmt.Sprintf("<%T: %v>", b, err))
			continue
		}
		parts = append(parts, strings.Join(args, " "))
	}
	return strings.Join(parts, " | ")
}

// Run starts every process, connects them and waits for all of them. The
// parent's copies of the pipe ends are closed once the children hold them, so
// a reader sees EOF when its writer exits. The first process failing with a
// non-zero status is reported; a process killed by a signal (SIGPIPE after a
// downstream failure) is only reported when nothing else failed.
func (p *Pipeline) Run(ctx context.Context) error {
	if len(p.steps) == 0 {
		return &utils.StageError{Stage: p.Stage, Err: errors.New("empty pipeline")}
	}

	cmds := make([]*exec.Cmd, len(p.steps))
	for i, b := range p.steps {
		c, err := b.BuildCommand()
		if err != nil {
			return &utils.StageError{Stage: p.Stage, Err: fmt.Errorf("building command: %w", err)}
		}
		cmds[i] = exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
		cmds[i].Stderr = p.Stderr
	}
	cmds[0].Stdin = p.Stdin
	cmds[len(cmds)-1].Stdout = p.Stdout

	var pipeEnds []*os.File
	closeEnds := func() {
		for _, f := range pipeEnds {
			f.Close()
		}
		pipeEnds = nil
	}
	for i := 0; i < len(cmds)-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closeEnds()
			return &utils.StageError{Stage: p.Stage, Err: fmt.Errorf("creating pipe: %w", err)}
		}
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
		pipeEnds = append(pipeEnds, r, w)
	}

	for i, c := range cmds {
		if err := c.Start(); err != nil {
			closeEnds()
			for _, started := range cmds[:i] {
				started.Process.Kill()
				started.Wait()
			}
			return p.toolError(c, err)
		}
	}
	closeEnds()

	var failed, signaled error
	for _, c := range cmds {
		err := c.Wait()
		if err == nil {
			continue
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() < 0 {
			if signaled == nil {
				signaled = p.toolError(c, err)
			}
			continue
		}
		if failed == nil {
			failed = p.toolError(c, err)
		}
	}
	if failed != nil {
		return failed
	}
	return signaled
}

func (p *Pipeline) toolError(c *exec.Cmd, err error) error {
	te := &utils.ExternalToolError{
		Stage:   p.Stage,
		Command: strings.Join(c.Args, " "),
		Log:     p.Log,
		Err:     err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	return te
}

// RunLogged runs a single command with stdout and stderr written to logPath,
// which is truncated first.
func RunLogged(ctx context.Context, stage, logPath string, b external.CommandBuilder) error {
	log, err := os.Create(logPath)
	if err != nil {
		return &utils.StageError{Stage: stage, Err: fmt.Errorf("opening log: %w", err)}
	}
	defer log.Close()

	p := NewPipeline(stage, b)
	p.Stdout = log
	p.Stderr = log
	p.Log = logPath
	return p.Run(ctx)
}

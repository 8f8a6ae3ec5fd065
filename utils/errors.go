package utils

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration   = errors.New("configuration error")
	ErrExternalTool    = errors.New("external tool failed")
	ErrMissingArtifact = errors.New("missing artifact")
)

// ConfigurationError reports missing or contradictory options. It is only
// raised before any stage has touched the filesystem.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Msg)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// NewConfigurationError is configErrorf for the other packages.
func NewConfigurationError(format string, args ...any) error {
	return configErrorf(format, args...)
}

// ExternalToolError is a delegated process that could not start or exited non-zero.
type ExternalToolError struct {
	Stage    string
	Command  string
	ExitCode int
	Log      string
	Err      error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s: stage %s: %s", ErrExternalTool, e.Stage, e.Command)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	} else if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	if e.Log != "" {
		msg += ", see " + e.Log
	}
	return msg
}

func (e *ExternalToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalTool}
	}
	return []error{ErrExternalTool, e.Err}
}

// MissingArtifactError is an expected output absent after a zero exit.
type MissingArtifactError struct {
	Stage string
	Path  string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s: stage %s: %s was not produced", ErrMissingArtifact, e.Stage, e.Path)
}

func (e *MissingArtifactError) Unwrap() error { return ErrMissingArtifact }

// RequireArtifact returns a MissingArtifactError when path does not exist.
func RequireArtifact(stage, path string) error {
	if FileExists(path) {
		return nil
	}
	return &MissingArtifactError{Stage: stage, Path: path}
}

// StageOf returns the stage name carried by err, or "" when err has none.
func StageOf(err error) string {
	var te *ExternalToolError
	if errors.As(err, &te) {
		return te.Stage
	}
	var me *MissingArtifactError
	if errors.As(err, &me) {
		return me.Stage
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// StageError attaches a stage name to an in-process failure (file IO,
// concatenation, filtering).
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

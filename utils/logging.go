package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

const (
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusSkipped   = "SKIPPED"
)

// RunContext carries what every stage needs: configuration, output layout and
// the run logger. It replaces any package level state.
type RunContext struct {
	Config  *Config
	RunID   string
	OutDir  string
	LogsDir string
	Logger  *slog.Logger

	// Progress receives progress bars when non-nil.
	Progress io.Writer

	logFile *os.File
}

// NewRunContext creates the output and log directories and opens
// logs/pipeline.log. Console records go to console, the log file gets JSON.
func NewRunContext(cfg *Config, console io.Writer) (*RunContext, error) {
	logsDir := filepath.Join(cfg.OutDir, "logs")
	if err := EnsureDir(logsDir); err != nil {
		return nil, err
	}

	logFilePath := filepath.Join(logsDir, "pipeline.log")
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	runID := uuid.NewString()
	jsonHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{slog.String("RUN", runID)})
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: slog.LevelInfo})

	return &RunContext{
		Config:  cfg,
		RunID:   runID,
		OutDir:  cfg.OutDir,
		LogsDir: logsDir,
		Logger:  slog.New(slogmulti.Fanout(consoleHandler, jsonHandler)),
		logFile: logFile,
	}, nil
}

// StageDir returns <out>/<name>, creating it.
func (r *RunContext) StageDir(name string) (string, error) {
	dir := filepath.Join(r.OutDir, name)
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// LogPath is the log file a stage hands to its collaborators.
func (r *RunContext) LogPath(name string) string {
	return filepath.Join(r.LogsDir, name+".log")
}

func (r *RunContext) Close() error {
	if r.logFile == nil {
		return nil
	}
	return r.logFile.Close()
}

// LogEntry is one JSON record of logs/pipeline.log.
type LogEntry struct {
	Timestamp time.Time `json:"time"`
	Level     string    `json:"level"`
	Msg       string    `json:"msg"`
	Run       string    `json:"RUN"`
	Stage     string    `json:"STAGE"`
	Entry     string    `json:"ENTRY"`
	Status    string    `json:"STATUS"`
	Cmd       string    `json:"CMD"`
}

// ParseLogFile reads the JSON records of a pipeline log. Lines that are not
// JSON are skipped; a missing file yields no entries.
func ParseLogFile(logFilePath string) ([]LogEntry, error) {
	file, err := os.Open(logFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}

// LatestRun returns the run id of the last record, or "".
func LatestRun(entries []LogEntry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Run != "" {
			return entries[i].Run
		}
	}
	return ""
}

// StageHasCompleted reports whether run logged a COMPLETED status for stage.
// An empty run matches every run.
func StageHasCompleted(entries []LogEntry, run, stage string) bool {
	return StageStatus(entries, run, stage) == StatusCompleted
}

// StageStatus returns the last status logged for stage in run, or "".
func StageStatus(entries []LogEntry, run, stage string) string {
	status := ""
	for _, e := range entries {
		if e.Stage != stage || e.Status == "" || e.Entry != "" {
			continue
		}
		if run != "" && e.Run != run {
			continue
		}
		status = e.Status
	}
	return status
}

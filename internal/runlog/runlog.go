// Package runlog provides persistent timestamped logging for flow and batch
// runs. Every iterflow execution writes a log file with timestamped entries
// for resolved steps, agent invocations, and outcomes.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05"

// Logger writes timestamped progress to a log file and an optional
// additional writer.
type Logger struct {
	file      *os.File
	writer    io.Writer
	startTime time.Time
	logPath   string
}

// Config holds logger configuration.
type Config struct {
	LogsDir   string    // directory for log files
	Iteration string    // current iteration id
	Command   string    // invoked command (flow, execute, ...)
	Writer    io.Writer // optional additional writer for live output
}

// New creates a logger writing to LogsDir/<timestamp>-<iteration>-<command>.log.
func New(cfg Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	logPath := filepath.Join(cfg.LogsDir, fmt.Sprintf("%s-%s-%s.log", stamp, cfg.Iteration, cfg.Command))

	f, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	l := &Logger{
		file:      f,
		writer:    cfg.Writer,
		startTime: time.Now(),
		logPath:   logPath,
	}

	l.writef("# iterflow run log\n")
	l.writef("Iteration: %s\n", cfg.Iteration)
	l.writef("Command: %s\n", cfg.Command)
	l.writef("Started: %s\n", time.Now().Format(timestampFormat))
	l.writef("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.logPath
}

// Printf writes a timestamped message to the log.
func (l *Logger) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.writef("[%s] %s\n", time.Now().Format(timestampFormat), msg)
}

// Section writes a section header to the log.
func (l *Logger) Section(title string) {
	l.writef("\n--- %s ---\n", title)
}

// Close writes the run duration footer and closes the file.
func (l *Logger) Close() error {
	l.writef("\nDuration: %s\n", time.Since(l.startTime).Round(time.Second))
	return l.file.Close()
}

func (l *Logger) writef(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if l.file != nil {
		_, _ = l.file.WriteString(s)
	}
	if l.writer != nil {
		_, _ = io.WriteString(l.writer, s)
	}
}

// ABOUTME: charmbracelet/log backends for console output and per-run log files.
// ABOUTME: Builds output.log (all levels) and error.log (errors only) inside an output directory.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Log file names created in the output directory of a run.
const (
	OutputLogFile = "output.log"
	ErrorLogFile  = "error.log"
)

// CharmLogger implements Instance using charmbracelet/log.
type CharmLogger struct {
	logger *log.Logger
	closer io.Closer
}

// ConsoleParams contains configuration for creating a console logger.
type ConsoleParams struct {
	// Verbosity is the -v count: 0 error, 1 warn, 2 info, 3 or more debug.
	Verbosity int
	// Config overrides Verbosity when set.
	Config *Config
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// NewConsoleLogger creates a logger that writes to stderr.
func NewConsoleLogger(params ConsoleParams) *CharmLogger {
	w := params.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{
		ReportTimestamp: true,
		Level:           VerbosityLevel(params.Verbosity),
	}
	if params.Config != nil {
		opts = params.Config.options()
	}
	return &CharmLogger{logger: log.NewWithOptions(w, opts)}
}

// NewFileLogger opens (appending) a log file at path that records messages at level and above.
func NewFileLogger(path string, level log.Level) (*CharmLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       log.TextFormatter,
	})
	return &CharmLogger{logger: l, closer: f}, nil
}

// SetupFileLoggers attaches output.log and error.log backends for a run in outdir.
// The returned func detaches both and closes their files.
func SetupFileLoggers(outdir string) (func() error, error) {
	out, err := NewFileLogger(filepath.Join(outdir, OutputLogFile), log.DebugLevel)
	if err != nil {
		return nil, err
	}
	errLog, err := NewFileLogger(filepath.Join(outdir, ErrorLogFile), log.ErrorLevel)
	if err != nil {
		_ = out.Close()
		return nil, err
	}

	detach := Attach(out, errLog)
	return func() error {
		detach()
		outErr := out.Close()
		if err := errLog.Close(); err != nil {
			return err
		}
		return outErr
	}, nil
}

// VerbosityLevel maps a -v count to a log level.
func VerbosityLevel(count int) log.Level {
	switch {
	case count <= 0:
		return log.ErrorLevel
	case count == 1:
		return log.WarnLevel
	case count == 2:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

// Close releases the underlying file, if any.
func (c *CharmLogger) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Debug writes a message at DEBUG level.
func (c *CharmLogger) Debug(message string, keyvals ...any) {
	c.logger.Debug(message, keyvals...)
}

// Info writes a message at INFO level.
func (c *CharmLogger) Info(message string, keyvals ...any) {
	c.logger.Info(message, keyvals...)
}

// Warn writes a message at WARN level.
func (c *CharmLogger) Warn(message string, keyvals ...any) {
	c.logger.Warn(message, keyvals...)
}

// Error writes a message at ERROR level.
func (c *CharmLogger) Error(message string, keyvals ...any) {
	c.logger.Error(message, keyvals...)
}

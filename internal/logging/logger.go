// Package logging provides structured logging for mtb-deps.
// It supports debug, info, warn and error levels on the console and an
// optional append-only log file.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Level represents log severity levels.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel converts our Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultLogFile is the file written by --file.
const DefaultLogFile = "out.log"

// Config configures the logger.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// LogFile is the file to append log records to. Empty disables file logging.
	LogFile string
	// Console enables logging to ConsoleWriter.
	Console bool
	// ConsoleWriter receives console records (default: os.Stderr).
	ConsoleWriter io.Writer
	// JSONFormat uses JSON output format for structured logs.
	JSONFormat bool
}

// DefaultConfig returns default logging configuration: warnings and errors
// on stderr, no log file.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelWarn,
		LogFile:    "",
		Console:    true,
		JSONFormat: false,
	}
}

// Logger is a structured logger for mtb-deps.
type Logger struct {
	slog    *slog.Logger
	config  *Config
	logFile *os.File
	logPath string
	mu      sync.Mutex
}

// New creates a new logger with the given configuration.
// If LogFile is set, the file is created (with its directory) or appended to.
func New(config *Config) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	logger := &Logger{
		config: config,
	}

	var writers []io.Writer

	if config.LogFile != "" {
		if dir := filepath.Dir(config.LogFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		logFile, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.logFile = logFile
		logger.logPath = config.LogFile
		writers = append(writers, logFile)
	}

	if config.Console {
		w := config.ConsoleWriter
		if w == nil {
			w = os.Stderr
		}
		writers = append(writers, w)
	}

	opts := &slog.HandlerOptions{
		Level: config.Level.toSlogLevel(),
	}

	out := io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}

	var handler slog.Handler
	if config.JSONFormat {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger.slog = slog.New(handler)

	return logger, nil
}

// NewNoop creates a no-op logger that discards all output.
// Useful for testing or when logging is disabled.
func NewNoop() *Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return &Logger{
		slog:   slog.New(handler),
		config: &Config{Level: LevelError},
	}
}

// LogPath returns the path to the current log file, or "" when file logging
// is disabled.
func (l *Logger) LogPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logPath
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		err := l.logFile.Close()
		l.logFile = nil
		return err
	}
	return nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return l.slog.Enabled(context.Background(), level.toSlogLevel())
}

// With returns a new logger with the given attributes added.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:    l.slog.With(args...),
		config:  l.config,
		logFile: l.logFile,
		logPath: l.logPath,
	}
}

// WithContext returns a logger carrying the project and dependency stored
// in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	newLogger := l.slog

	if project, ok := ctx.Value(ContextKeyProject).(string); ok && project != "" {
		newLogger = newLogger.With("project", project)
	}
	if dep, ok := ctx.Value(ContextKeyDependency).(string); ok && dep != "" {
		newLogger = newLogger.With("dependency", dep)
	}

	return &Logger{
		slog:    newLogger,
		config:  l.config,
		logFile: l.logFile,
		logPath: l.logPath,
	}
}

// Context keys for logging.
type contextKey string

const (
	// ContextKeyProject is the context key for the project folder.
	ContextKeyProject contextKey = "project"
	// ContextKeyDependency is the context key for the descriptor being processed.
	ContextKeyDependency contextKey = "dependency"
)

// WithProject adds the project folder to the context.
func WithProject(ctx context.Context, project string) context.Context {
	return context.WithValue(ctx, ContextKeyProject, project)
}

// WithDependency adds the descriptor path to the context.
func WithDependency(ctx context.Context, dep string) context.Context {
	return context.WithValue(ctx, ContextKeyDependency, dep)
}

// Writer returns an io.Writer that logs each line at the given level.
// Useful for capturing output from external commands.
func (l *Logger) Writer(level Level) io.Writer {
	return &logWriter{
		logger: l,
		level:  level,
	}
}

// logWriter adapts the logger to io.Writer.
type logWriter struct {
	logger *Logger
	level  Level
	buf    []byte
}

// Write implements io.Writer, logging each complete line.
func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf[:idx])
		w.buf = w.buf[idx+1:]
		w.emit(line)
	}
	return len(p), nil
}

// Flush writes any remaining buffered data.
func (w *logWriter) Flush() {
	if len(w.buf) > 0 {
		line := string(w.buf)
		w.buf = nil
		w.emit(line)
	}
}

func (w *logWriter) emit(line string) {
	switch w.level {
	case LevelDebug:
		w.logger.Debug(line)
	case LevelInfo:
		w.logger.Info(line)
	case LevelWarn:
		w.logger.Warn(line)
	case LevelError:
		w.logger.Error(line)
	}
}

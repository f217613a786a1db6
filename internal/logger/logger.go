package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the logging level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.FatalLevel
	}
}

// Logger is the interface for logging operations
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
	Fatal(format string, v ...any)
	SetLevel(level Level)
}

// LogConfig holds configuration for the logger
type LogConfig struct {
	// Output destination: "file" or "stderr"
	Output string
	// Log level: "debug", "info", "warn", "error", "fatal"
	Level string
	// FilePath for file output (only used when Output is "file")
	FilePath string
	// Component is attached to every entry when set
	Component string
}

type zerologLogger struct {
	zl    zerolog.Logger
	level Level
	exit  func(int)
}

// NewLogger creates a new logger based on the provided configuration
func NewLogger(config LogConfig) (Logger, error) {
	var writer io.Writer

	output := config.Output
	if output == "" {
		output = os.Getenv("LOG_OUTPUT")
	}
	if output == "" {
		// Auto-detect: if running in container, use stderr; otherwise use file
		output = detectEnvironment()
	}

	switch output {
	case "stderr":
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	case "file":
		filePath := config.FilePath
		if filePath == "" {
			filePath = os.Getenv("LOG_FILE_PATH")
		}
		if filePath == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			logDir := filepath.Join(homeDir, ".studysage")
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			filePath = filepath.Join(logDir, "studysage.log")
		}

		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
	default:
		return nil, fmt.Errorf("invalid log output: %s (expected 'file' or 'stderr')", output)
	}

	levelStr := config.Level
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}
	if levelStr == "" {
		levelStr = "info"
	}

	return newZerologLogger(writer, parseLevel(levelStr), config.Component), nil
}

// NewWriterLogger logs JSON lines to w. Tests use it to inspect output.
func NewWriterLogger(w io.Writer, level Level) Logger {
	return newZerologLogger(w, level, "")
}

// NewNoOpLogger creates a logger that discards all output (useful for tests)
func NewNoOpLogger() Logger {
	return &zerologLogger{
		zl:    zerolog.Nop(),
		level: FatalLevel,
		exit:  os.Exit,
	}
}

func newZerologLogger(w io.Writer, level Level, component string) *zerologLogger {
	ctx := zerolog.New(w).With().Timestamp()
	if component != "" {
		ctx = ctx.Str("component", component)
	}
	zl := ctx.Logger().Level(level.zerolog())
	return &zerologLogger{zl: zl, level: level, exit: os.Exit}
}

// detectEnvironment determines the appropriate output based on the environment
func detectEnvironment() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "stderr"
	}

	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "stderr"
	}

	return "file"
}

// parseLevel converts a string to a Level
func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// SetLevel sets the minimum log level
func (l *zerologLogger) SetLevel(level Level) {
	l.level = level
	l.zl = l.zl.Level(level.zerolog())
}

func (l *zerologLogger) Debug(format string, v ...any) {
	l.zl.Debug().Msgf(format, v...)
}

func (l *zerologLogger) Info(format string, v ...any) {
	l.zl.Info().Msgf(format, v...)
}

func (l *zerologLogger) Warn(format string, v ...any) {
	l.zl.Warn().Msgf(format, v...)
}

func (l *zerologLogger) Error(format string, v ...any) {
	l.zl.Error().Msgf(format, v...)
}

// Fatal logs a fatal message and exits
func (l *zerologLogger) Fatal(format string, v ...any) {
	// WithLevel skips zerolog's own os.Exit so the exit hook stays swappable.
	l.zl.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	l.exit(1)
}

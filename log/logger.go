// Package log writes JSON log entries tagged with the harness run.
//
// Every entry carries run_id (and project, when known). Harness stages
// use Logger with a field map; the CLI uses the printf-style
// SugaredLogger from Logger.Sugar().
package log

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zapcore.InfoLevel

// RunContext identifies the harness run every entry belongs to.
type RunContext struct {
	RunID string
	// Project is the project-under-test id (group:name:version).
	Project string
	// Level is the minimum level written. Zero value is info.
	Level zapcore.Level
}

// Logger writes structured entries for one run.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// ParseLevel parses debug, info, warn or error (case-insensitive).
// An empty string yields DefaultLevel.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return DefaultLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return DefaultLevel, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
	}
	return level, nil
}

// NewLogger creates a logger writing to os.Stderr.
func NewLogger(rc RunContext) *Logger {
	return NewLoggerWithWriter(rc, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing JSON entries to w.
func NewLoggerWithWriter(rc RunContext, w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:     "timestamp",
			LevelKey:    "level",
			MessageKey:  "message",
			EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		}),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(rc.Level),
	)

	runFields := []zap.Field{zap.String("run_id", rc.RunID)}
	if rc.Project != "" {
		runFields = append(runFields, zap.String("project", rc.Project))
	}
	return &Logger{zap: zap.New(core).With(runFields...)}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// With returns a child logger that adds key=value to every entry.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zap: l.zap.With(zap.String(key, value))}
}

// Debug logs at debug level. Keys of fields become top-level entry keys.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zapFields(fields)...)
}

// Info logs at info level.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zapFields(fields)...)
}

// Warn logs at warn level.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zapFields(fields)...)
}

// Error logs at error level.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zapFields(fields)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns a printf-style view of l sharing its run fields.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Infof logs at info level.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs at warn level.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// zapFields converts a field map in key order, so entries are stable.
func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

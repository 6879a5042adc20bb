// Package logging provides structured logging with trace-ID
// propagation: a Logger interface with JSON or text output selectable
// at construction time.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logging interface used across the engine.
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})

	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})
	DebugContext(ctx context.Context, msg string, fields ...interface{})

	WithComponent(component string) Logger
}

// Level is a logging verbosity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type traceIDKey struct{}

// WithTraceID attaches (or generates) a trace ID on ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID extracts the trace ID from ctx, if any.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Component string                 `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type structuredLogger struct {
	level     Level
	component string
	useJSON   bool
}

// New creates a Logger at the given level, JSON-encoded by default.
func New(level Level) Logger {
	return &structuredLogger{level: level, useJSON: getEnvBool("COLLECTOR_LOG_JSON", true)}
}

// NewNop returns a Logger that discards everything, useful in tests.
func NewNop() Logger { return &structuredLogger{level: LevelError + 1} }

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "1" || strings.EqualFold(v, "true")
}

func (l *structuredLogger) WithComponent(component string) Logger {
	return &structuredLogger{level: l.level, component: component, useJSON: l.useJSON}
}

func (l *structuredLogger) emit(level Level, name, traceID, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}
	fieldMap := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		fieldMap[key] = fields[i+1]
	}
	e := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     name,
		Message:   msg,
		TraceID:   traceID,
		Component: l.component,
		Fields:    fieldMap,
	}
	if l.useJSON {
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: marshal failed: %v\n", err)
			return
		}
		fmt.Fprintln(os.Stdout, string(data))
		return
	}
	parts := []string{e.Timestamp, "[" + e.Level + "]"}
	if e.TraceID != "" {
		parts = append(parts, "trace:"+e.TraceID)
	}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	parts = append(parts, e.Message)
	for k, v := range fieldMap {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	fmt.Fprintln(os.Stdout, strings.Join(parts, " "))
}

func (l *structuredLogger) Info(msg string, fields ...interface{}) {
	l.emit(LevelInfo, "INFO", "", msg, fields...)
}
func (l *structuredLogger) Warn(msg string, fields ...interface{}) {
	l.emit(LevelWarn, "WARN", "", msg, fields...)
}
func (l *structuredLogger) Error(msg string, fields ...interface{}) {
	l.emit(LevelError, "ERROR", "", msg, fields...)
}
func (l *structuredLogger) Debug(msg string, fields ...interface{}) {
	l.emit(LevelDebug, "DEBUG", "", msg, fields...)
}

func (l *structuredLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	l.emit(LevelInfo, "INFO", TraceID(ctx), msg, fields...)
}
func (l *structuredLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	l.emit(LevelWarn, "WARN", TraceID(ctx), msg, fields...)
}
func (l *structuredLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	l.emit(LevelError, "ERROR", TraceID(ctx), msg, fields...)
}
func (l *structuredLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	l.emit(LevelDebug, "DEBUG", TraceID(ctx), msg, fields...)
}

// Package logger provides logging implementations for reqdocx
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/memtensor/reqdocx/pkg/interfaces"
)

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// ConsoleLogger is a levelled logger writing "[LEVEL] msg key=value" lines
type ConsoleLogger struct {
	Level string
	File  string

	out    *log.Logger
	fields map[string]interface{}
	closer io.Closer
	mu     *sync.Mutex
}

// Debug logs debug level messages
func (l *ConsoleLogger) Debug(msg string, fields ...map[string]interface{}) {
	if l.enabled("debug") {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// Info logs info level messages
func (l *ConsoleLogger) Info(msg string, fields ...map[string]interface{}) {
	if l.enabled("info") {
		l.logWithFields("INFO", msg, fields...)
	}
}

// Warn logs warning level messages
func (l *ConsoleLogger) Warn(msg string, fields ...map[string]interface{}) {
	if l.enabled("warn") {
		l.logWithFields("WARN", msg, fields...)
	}
}

// Error logs error level messages
func (l *ConsoleLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	var allFields []map[string]interface{}
	if err != nil {
		allFields = append(allFields, map[string]interface{}{"error": err.Error()})
	}
	allFields = append(allFields, fields...)
	l.logWithFields("ERROR", msg, allFields...)
}

// Fatal logs fatal level messages and exits
func (l *ConsoleLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Error(msg, err, fields...)
	os.Exit(1)
}

// WithFields returns a logger that prefixes every line with fields
func (l *ConsoleLogger) WithFields(fields map[string]interface{}) interfaces.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	child := *l
	child.fields = merged
	return &child
}

// Close releases the log file, if any
func (l *ConsoleLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *ConsoleLogger) enabled(level string) bool {
	want, ok := levelRank[strings.ToLower(l.Level)]
	if !ok {
		want = levelRank["info"]
	}
	return levelRank[level] >= want
}

func (l *ConsoleLogger) logWithFields(level, msg string, fields ...map[string]interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)

	all := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			all[k] = v
		}
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, all[k])
	}

	if l.out == nil {
		log.Println(b.String())
		return
	}
	if l.mu != nil {
		l.mu.Lock()
		defer l.mu.Unlock()
	}
	l.out.Println(b.String())
}

// NewConsoleLogger creates a logger writing through the standard log package
func NewConsoleLogger(level string) interfaces.Logger {
	return &ConsoleLogger{
		Level: level,
	}
}

// NewWriterLogger creates a logger writing to w
func NewWriterLogger(level string, w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{
		Level: level,
		out:   log.New(w, "", log.LstdFlags),
		mu:    &sync.Mutex{},
	}
}

// NewFileLogger creates a logger appending to path
func NewFileLogger(level, path string) (*ConsoleLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l := NewWriterLogger(level, f)
	l.File = path
	l.closer = f
	return l, nil
}

// NewTestLogger creates a logger for testing
func NewTestLogger() interfaces.Logger {
	return &ConsoleLogger{
		Level: "debug",
	}
}

// NewLogger creates a new logger with default settings
func NewLogger() interfaces.Logger {
	return &ConsoleLogger{
		Level: "info",
	}
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debug(string, ...map[string]interface{}) {}
func (NopLogger) Info(string, ...map[string]interface{}) {}
func (NopLogger) Warn(string, ...map[string]interface{}) {}
func (NopLogger) Error(string, error, ...map[string]interface{}) {}
func (NopLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	os.Exit(1)
}
func (n NopLogger) WithFields(map[string]interface{}) interfaces.Logger { return n }

// NewNopLogger returns a logger that drops every message
func NewNopLogger() interfaces.Logger {
	return NopLogger{}
}

var _ interfaces.Logger = (*ConsoleLogger)(nil)
var _ interfaces.Logger = NopLogger{}

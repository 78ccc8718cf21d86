// Package interfaces defines the core interfaces for reqdocx components
package interfaces

import (
	"context"
	"io"

	"github.com/memtensor/reqdocx/pkg/types"
)

// RequirementParser turns an exported document into requirement records
type RequirementParser interface {
	// ExtractFile parses the document at path
	ExtractFile(ctx context.Context, path string) ([]types.Requirement, error)

	// ExtractReader parses a document of size bytes held behind r
	ExtractReader(ctx context.Context, r io.ReaderAt, size int64) ([]types.Requirement, error)
}

// Exporter renders requirement records to a serialized form
type Exporter interface {
	// Export writes reqs to w
	Export(ctx context.Context, w io.Writer, reqs []types.Requirement) error

	// Format returns the format identifier, e.g. "json"
	Format() string

	// ContentType returns the MIME type of the output
	ContentType() string
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	// Load loads configuration from a file
	Load(ctx context.Context, path string) error

	// Get retrieves a configuration value
	Get(key string) interface{}

	// Set sets a configuration value
	Set(key string, value interface{}) error

	// Save saves configuration to a file
	Save(ctx context.Context, path string) error

	// Watch watches for configuration changes
	Watch(ctx context.Context, callback func(key string, value interface{})) error
}

// Logger defines the interface for logging implementations
type Logger interface {
	// Debug logs debug level messages
	Debug(msg string, fields ...map[string]interface{})

	// Info logs info level messages
	Info(msg string, fields ...map[string]interface{})

	// Warn logs warning level messages
	Warn(msg string, fields ...map[string]interface{})

	// Error logs error level messages
	Error(msg string, err error, fields ...map[string]interface{})

	// Fatal logs fatal level messages and exits
	Fatal(msg string, err error, fields ...map[string]interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger
}

// Metrics defines the interface for metrics collection
type Metrics interface {
	// Counter increments a counter metric
	Counter(name string, value float64, labels map[string]string)

	// Gauge sets a gauge metric
	Gauge(name string, value float64, labels map[string]string)

	// Histogram records a histogram metric
	Histogram(name string, value float64, labels map[string]string)

	// Timer records timing metrics
	Timer(name string, duration float64, labels map[string]string)
}

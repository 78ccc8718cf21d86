// Package export renders requirement records as JSON, YAML, CSV, Markdown or
// HTML reports.
package export

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/types"
)

// Format identifiers accepted by New
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Options tune the rendered output
type Options struct {
	// Pretty indents JSON output
	Pretty bool
	// Title heads Markdown and HTML reports
	Title string
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{Pretty: true, Title: "Requirements"}
}

// Formats lists the supported format identifiers
func Formats() []string {
	formats := []string{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatHTML}
	sort.Strings(formats)
	return formats
}

// New returns the exporter for format. "markdown" and "yml" are accepted as
// aliases.
func New(format string, opts Options) (interfaces.Exporter, error) {
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		return &JSONExporter{Pretty: opts.Pretty}, nil
	case FormatYAML, "yml":
		return &YAMLExporter{}, nil
	case FormatCSV:
		return &CSVExporter{}, nil
	case FormatMarkdown, "markdown":
		return &MarkdownExporter{Title: opts.Title}, nil
	case FormatHTML:
		return NewHTMLExporter(opts.Title), nil
	}
	return nil, errors.NewUnsupportedFormatError(format)
}

// JSONExporter writes the records as a JSON array
type JSONExporter struct {
	Pretty bool
}

// Export implements interfaces.Exporter
func (e *JSONExporter) Export(ctx context.Context, w io.Writer, reqs []types.Requirement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(nonNil(reqs)); err != nil {
		return errors.NewInternalErrorWithCause("failed to encode json", err)
	}
	return nil
}

// Format implements interfaces.Exporter
func (e *JSONExporter) Format() string { return FormatJSON }

// ContentType implements interfaces.Exporter
func (e *JSONExporter) ContentType() string { return "application/json; charset=utf-8" }

// YAMLExporter writes the records as a YAML sequence
type YAMLExporter struct{}

// Export implements interfaces.Exporter
func (e *YAMLExporter) Export(ctx context.Context, w io.Writer, reqs []types.Requirement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(nonNil(reqs)); err != nil {
		return errors.NewInternalErrorWithCause("failed to encode yaml", err)
	}
	if err := enc.Close(); err != nil {
		return errors.NewInternalErrorWithCause("failed to flush yaml", err)
	}
	return nil
}

// Format implements interfaces.Exporter
func (e *YAMLExporter) Format() string { return FormatYAML }

// ContentType implements interfaces.Exporter
func (e *YAMLExporter) ContentType() string { return "application/yaml; charset=utf-8" }

func nonNil(reqs []types.Requirement) []types.Requirement {
	if reqs == nil {
		return []types.Requirement{}
	}
	return reqs
}

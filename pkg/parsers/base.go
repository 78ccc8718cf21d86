// Package parsers provides document parsing functionality for reqdocx
package parsers

import (
	"context"
	"io"
	"time"

	"github.com/memtensor/reqdocx/pkg/alldata"
	"github.com/memtensor/reqdocx/pkg/types"
)

// DocumentMetadata contains metadata extracted from parsed documents
type DocumentMetadata struct {
	// Source is the path or upload name of the document
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Title of the document
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Author of the document
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Subject/topic of the document
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`

	// LastModifiedBy names who saved the document last
	LastModifiedBy string `json:"last_modified_by,omitempty" yaml:"last_modified_by,omitempty"`

	// CreatedAt is when the document was created
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`

	// ModifiedAt is when the document was last modified
	ModifiedAt *time.Time `json:"modified_at,omitempty" yaml:"modified_at,omitempty"`

	// FileSize is the size of the original file in bytes
	FileSize int64 `json:"file_size,omitempty" yaml:"file_size,omitempty"`

	// MimeType is the MIME type of the document
	MimeType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`

	// FileExtension is the file extension
	FileExtension string `json:"file_extension,omitempty" yaml:"file_extension,omitempty"`
}

// ParseResult is the outcome of parsing one document
type ParseResult struct {
	// Requirements in document order
	Requirements []types.Requirement `json:"requirements" yaml:"requirements"`

	// Metadata contains document metadata
	Metadata *DocumentMetadata `json:"metadata" yaml:"metadata"`

	// Stats counts the blocks seen and records produced
	Stats alldata.Stats `json:"stats" yaml:"stats"`

	// ParsedAt is when the document was parsed
	ParsedAt time.Time `json:"parsed_at" yaml:"parsed_at"`

	// ParserType indicates which parser was used
	ParserType string `json:"parser_type" yaml:"parser_type"`

	// ParsingDuration is how long parsing took
	ParsingDuration time.Duration `json:"parsing_duration" yaml:"parsing_duration"`
}

// ParserConfig represents per-call configuration for document parsers
type ParserConfig struct {
	// ExtractMetadata indicates whether to read the package core properties
	ExtractMetadata bool `json:"extract_metadata"`

	// MaxFileSize is the maximum file size to process (in bytes)
	MaxFileSize int64 `json:"max_file_size"`
}

// DefaultParserConfig returns a sensible default configuration
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		ExtractMetadata: true,
		MaxFileSize:     50 * 1024 * 1024, // 50MB
	}
}

// Parser defines the interface for all document parsing implementations
type Parser interface {
	// Parse parses a document from a reader
	Parse(ctx context.Context, reader io.Reader, config *ParserConfig) (*ParseResult, error)

	// ParseFile parses a document from a file path
	ParseFile(ctx context.Context, filePath string, config *ParserConfig) (*ParseResult, error)

	// ParseBytes parses a document from byte data
	ParseBytes(ctx context.Context, data []byte, filename string, config *ParserConfig) (*ParseResult, error)

	// SupportedTypes returns the MIME types supported by this parser
	SupportedTypes() []string

	// SupportedExtensions returns the file extensions supported by this parser
	SupportedExtensions() []string

	// GetParserType returns the type identifier for this parser
	GetParserType() string

	// ValidateInput validates if the input can be parsed by this parser
	ValidateInput(ctx context.Context, reader io.Reader) error
}

// ParserType represents different parser implementations
type ParserType string

const (
	// ParserTypeAllData for "All Data" requirement exports in .docx form
	ParserTypeAllData ParserType = "alldata"
)

// SupportedParserTypes returns all supported parser types
func SupportedParserTypes() []ParserType {
	return []ParserType{
		ParserTypeAllData,
	}
}

// IsValidParserType checks if a parser type is supported
func IsValidParserType(parserType ParserType) bool {
	for _, supported := range SupportedParserTypes() {
		if supported == parserType {
			return true
		}
	}
	return false
}

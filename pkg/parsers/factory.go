package parsers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/memtensor/reqdocx/pkg/alldata"
	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/interfaces"
)

// ParserFactory provides a factory for selecting parsers by type, name or content
type ParserFactory struct {
	// parsers maps parser types to parser instances
	parsers map[ParserType]Parser

	// mimeTypeMap maps MIME types to parser types
	mimeTypeMap map[string]ParserType

	// extensionMap maps file extensions to parser types
	extensionMap map[string]ParserType
}

// NewParserFactory creates a factory with the "All Data" parser registered
func NewParserFactory(opts alldata.Options, collector interfaces.Metrics) *ParserFactory {
	factory := &ParserFactory{
		parsers:      make(map[ParserType]Parser),
		mimeTypeMap:  make(map[string]ParserType),
		extensionMap: make(map[string]ParserType),
	}

	factory.RegisterParser(ParserTypeAllData, NewAllDataParser(opts, collector))

	return factory
}

// RegisterParser registers a parser for a specific type
func (pf *ParserFactory) RegisterParser(parserType ParserType, parser Parser) error {
	if !IsValidParserType(parserType) {
		return errors.NewInvalidInputError(fmt.Sprintf("invalid parser type: %s", parserType))
	}

	if parser == nil {
		return errors.NewInvalidInputError("parser cannot be nil")
	}

	pf.parsers[parserType] = parser

	for _, mimeType := range parser.SupportedTypes() {
		pf.mimeTypeMap[strings.ToLower(mimeType)] = parserType
	}

	for _, ext := range parser.SupportedExtensions() {
		pf.extensionMap[strings.ToLower(ext)] = parserType
	}

	return nil
}

// GetParser retrieves a parser by type
func (pf *ParserFactory) GetParser(parserType ParserType) (Parser, error) {
	parser, exists := pf.parsers[parserType]
	if !exists {
		return nil, errors.NewUnsupportedFormatError(string(parserType))
	}
	return parser, nil
}

// GetParserByMimeType retrieves a parser by MIME type. Parameters such as
// charset are ignored.
func (pf *ParserFactory) GetParserByMimeType(mimeType string) (Parser, error) {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	parserType, exists := pf.mimeTypeMap[strings.ToLower(strings.TrimSpace(mimeType))]
	if !exists {
		return nil, errors.NewUnsupportedFormatError(mimeType)
	}
	return pf.GetParser(parserType)
}

// GetParserByExtension retrieves a parser by file extension
func (pf *ParserFactory) GetParserByExtension(extension string) (Parser, error) {
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	parserType, exists := pf.extensionMap[strings.ToLower(extension)]
	if !exists {
		return nil, errors.NewUnsupportedFormatError(extension)
	}
	return pf.GetParser(parserType)
}

// DetectParserByContent sniffs data for a Word package
func (pf *ParserFactory) DetectParserByContent(ctx context.Context, data []byte) (Parser, error) {
	if len(data) == 0 {
		return nil, errors.NewInvalidInputError("empty content")
	}

	if IsWordPackage(data) {
		return pf.GetParser(ParserTypeAllData)
	}
	return nil, errors.NewUnsupportedFormatError("unrecognized content")
}

// CreateParserFromFilename selects a parser from the filename extension,
// falling back to the registered MIME type of that extension
func (pf *ParserFactory) CreateParserFromFilename(filename string) (Parser, error) {
	if filename == "" {
		return nil, errors.NewInvalidInputError("filename cannot be empty")
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, errors.NewUnsupportedFormatError(filename)
	}

	if parser, err := pf.GetParserByExtension(ext); err == nil {
		return parser, nil
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		if parser, err := pf.GetParserByMimeType(mimeType); err == nil {
			return parser, nil
		}
	}

	return nil, errors.NewUnsupportedFormatError(ext)
}

// ParseWithBestParser picks a parser from filename, or from the content when
// the name is missing or unknown, and parses data with it
func (pf *ParserFactory) ParseWithBestParser(ctx context.Context, data []byte, filename string, config *ParserConfig) (*ParseResult, error) {
	if config == nil {
		config = DefaultParserConfig()
	}
	if err := pf.ValidateParserConfiguration(config); err != nil {
		return nil, err
	}

	if filename != "" {
		if parser, err := pf.CreateParserFromFilename(filename); err == nil {
			return parser.ParseBytes(ctx, data, filename, config)
		}
	}

	parser, err := pf.DetectParserByContent(ctx, data)
	if err != nil {
		return nil, err
	}
	return parser.ParseBytes(ctx, data, filename, config)
}

// GetSupportedTypes returns all supported MIME types, sorted
func (pf *ParserFactory) GetSupportedTypes() []string {
	var types []string
	for mimeType := range pf.mimeTypeMap {
		types = append(types, mimeType)
	}
	sort.Strings(types)
	return types
}

// GetSupportedExtensions returns all supported file extensions, sorted
func (pf *ParserFactory) GetSupportedExtensions() []string {
	var extensions []string
	for ext := range pf.extensionMap {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// GetRegisteredParsers returns all registered parser types
func (pf *ParserFactory) GetRegisteredParsers() []ParserType {
	var parserTypes []ParserType
	for parserType := range pf.parsers {
		parserTypes = append(parserTypes, parserType)
	}
	sort.Slice(parserTypes, func(i, j int) bool { return parserTypes[i] < parserTypes[j] })
	return parserTypes
}

// IsTypeSupported checks if a MIME type is supported
func (pf *ParserFactory) IsTypeSupported(mimeType string) bool {
	_, exists := pf.mimeTypeMap[strings.ToLower(mimeType)]
	return exists
}

// IsExtensionSupported checks if a file extension is supported
func (pf *ParserFactory) IsExtensionSupported(extension string) bool {
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	_, exists := pf.extensionMap[strings.ToLower(extension)]
	return exists
}

// ParserInfo contains information about a parser
type ParserInfo struct {
	Type                ParserType `json:"type"`
	SupportedTypes      []string   `json:"supported_types"`
	SupportedExtensions []string   `json:"supported_extensions"`
	Description         string     `json:"description"`
}

// GetParserInfo returns information about a parser
func (pf *ParserFactory) GetParserInfo(parserType ParserType) (*ParserInfo, error) {
	parser, err := pf.GetParser(parserType)
	if err != nil {
		return nil, err
	}

	return &ParserInfo{
		Type:                parserType,
		SupportedTypes:      parser.SupportedTypes(),
		SupportedExtensions: parser.SupportedExtensions(),
		Description:         pf.getParserDescription(parserType),
	}, nil
}

func (pf *ParserFactory) getParserDescription(parserType ParserType) string {
	descriptions := map[ParserType]string{
		ParserTypeAllData: "Requirement extraction from \"All Data\" Word exports",
	}

	if desc, exists := descriptions[parserType]; exists {
		return desc
	}
	return "Parser for " + string(parserType) + " format"
}

// ValidateParserConfiguration validates a parser configuration
func (pf *ParserFactory) ValidateParserConfiguration(config *ParserConfig) error {
	if config == nil {
		return errors.NewValidationError("config cannot be nil")
	}

	if config.MaxFileSize < 0 {
		return errors.NewValidationError("max file size cannot be negative")
	}

	return nil
}

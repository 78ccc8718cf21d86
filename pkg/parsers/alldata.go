package parsers

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/memtensor/reqdocx/pkg/alldata"
	"github.com/memtensor/reqdocx/pkg/docx"
	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/logger"
	"github.com/memtensor/reqdocx/pkg/metrics"
	"github.com/memtensor/reqdocx/pkg/types"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOCM = "application/vnd.ms-word.document.macroEnabled.12"
)

var zipMagic = []byte("PK\x03\x04")

// AllDataParser extracts requirements from "All Data" Word exports
type AllDataParser struct {
	parser  *alldata.Parser
	logger  interfaces.Logger
	metrics interfaces.Metrics
}

// NewAllDataParser creates a parser using opts for extraction. A nil
// collector disables metrics.
func NewAllDataParser(opts alldata.Options, collector interfaces.Metrics) *AllDataParser {
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if collector == nil {
		collector = metrics.NewNoOpMetrics()
	}
	return &AllDataParser{
		parser:  alldata.New(opts),
		logger:  opts.Logger,
		metrics: collector,
	}
}

// Parse reads the whole document from reader and parses it
func (p *AllDataParser) Parse(ctx context.Context, reader io.Reader, config *ParserConfig) (*ParseResult, error) {
	if config == nil {
		config = DefaultParserConfig()
	}

	data, err := readLimited(reader, config.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(ctx, data, "", config)
}

// ParseFile parses the document at filePath
func (p *AllDataParser) ParseFile(ctx context.Context, filePath string, config *ParserConfig) (*ParseResult, error) {
	if config == nil {
		config = DefaultParserConfig()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var size int64
	if info, err := os.Stat(filePath); err == nil {
		size = info.Size()
	}
	if config.MaxFileSize > 0 && size > config.MaxFileSize {
		return nil, errors.NewFileTooLargeError(size, config.MaxFileSize)
	}

	doc, err := docx.Open(filePath)
	if err != nil {
		p.metrics.Counter("parse_failures_total", 1, map[string]string{"parser": string(ParserTypeAllData)})
		return nil, err
	}
	defer doc.Close()

	return p.parseDocument(ctx, doc, filePath, size, config, start)
}

// ParseBytes parses a document held in data. filename only feeds metadata.
func (p *AllDataParser) ParseBytes(ctx context.Context, data []byte, filename string, config *ParserConfig) (*ParseResult, error) {
	if config == nil {
		config = DefaultParserConfig()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := int64(len(data))
	if config.MaxFileSize > 0 && size > config.MaxFileSize {
		return nil, errors.NewFileTooLargeError(size, config.MaxFileSize)
	}

	start := time.Now()
	doc, err := docx.OpenReader(bytes.NewReader(data), size)
	if err != nil {
		p.metrics.Counter("parse_failures_total", 1, map[string]string{"parser": string(ParserTypeAllData)})
		return nil, err
	}
	defer doc.Close()

	return p.parseDocument(ctx, doc, filename, size, config, start)
}

func (p *AllDataParser) parseDocument(ctx context.Context, doc *docx.Document, source string, size int64, config *ParserConfig, start time.Time) (*ParseResult, error) {
	reqs, stats := p.parser.ParseDocument(doc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &ParseResult{
		Requirements:    reqs,
		Metadata:        p.metadata(doc, source, size, config),
		Stats:           stats,
		ParsedAt:        time.Now(),
		ParserType:      p.GetParserType(),
		ParsingDuration: time.Since(start),
	}

	labels := map[string]string{"parser": string(ParserTypeAllData)}
	p.metrics.Counter("documents_parsed_total", 1, labels)
	p.metrics.Counter("requirements_extracted_total", float64(len(reqs)), labels)
	p.metrics.Histogram("requirements_per_document", float64(len(reqs)), labels)
	p.metrics.Timer("parse_duration_ms", float64(result.ParsingDuration.Milliseconds()), labels)

	p.logger.Info("parsed requirements export", map[string]interface{}{
		"source":       source,
		"requirements": len(reqs),
		"discarded":    stats.Discarded,
		"duration":     result.ParsingDuration.String(),
	})
	return result, nil
}

func (p *AllDataParser) metadata(doc *docx.Document, source string, size int64, config *ParserConfig) *DocumentMetadata {
	ext := strings.ToLower(filepath.Ext(source))
	meta := &DocumentMetadata{
		Source:        source,
		FileSize:      size,
		FileExtension: ext,
		MimeType:      mimeDOCX,
	}
	if ext == ".docm" {
		meta.MimeType = mimeDOCM
	}

	if config.ExtractMetadata {
		props := doc.Properties
		meta.Title = props.Title
		meta.Author = props.Creator
		meta.Subject = props.Subject
		meta.LastModifiedBy = props.LastModifiedBy
		meta.CreatedAt = props.Created
		meta.ModifiedAt = props.Modified
	}

	if meta.Title == "" && source != "" {
		name := filepath.Base(source)
		meta.Title = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return meta
}

// ExtractFile implements interfaces.RequirementParser
func (p *AllDataParser) ExtractFile(ctx context.Context, path string) ([]types.Requirement, error) {
	result, err := p.ParseFile(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return result.Requirements, nil
}

// ExtractReader implements interfaces.RequirementParser
func (p *AllDataParser) ExtractReader(ctx context.Context, r io.ReaderAt, size int64) ([]types.Requirement, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, errors.NewFileError("failed to read document", err)
	}
	result, err := p.ParseBytes(ctx, data, "", nil)
	if err != nil {
		return nil, err
	}
	return result.Requirements, nil
}

// SupportedTypes returns the MIME types supported by this parser
func (p *AllDataParser) SupportedTypes() []string {
	return []string{mimeDOCX, mimeDOCM}
}

// SupportedExtensions returns the file extensions supported by this parser
func (p *AllDataParser) SupportedExtensions() []string {
	return []string{".docx", ".docm"}
}

// GetParserType returns the type identifier for this parser
func (p *AllDataParser) GetParserType() string {
	return string(ParserTypeAllData)
}

// ValidateInput checks that reader starts with a zip local file header
func (p *AllDataParser) ValidateInput(ctx context.Context, reader io.Reader) error {
	buffer := make([]byte, len(zipMagic))
	n, err := io.ReadFull(reader, buffer)
	if n == 0 {
		return errors.NewInvalidInputError("empty file")
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return errors.NewFileError("failed to read input", err)
	}
	if !bytes.Equal(buffer[:n], zipMagic) {
		return errors.NewUnsupportedFormatError("content is not a zip package")
	}
	return nil
}

// IsWordPackage reports whether data is a zip package with a main document part
func IsWordPackage(data []byte) bool {
	if !bytes.HasPrefix(data, zipMagic) {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}

func readLimited(reader io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, errors.NewFileError("failed to read document", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, errors.NewFileError("failed to read document", err)
	}
	if int64(len(data)) > limit {
		return nil, errors.NewFileTooLargeError(int64(len(data)), limit)
	}
	return data, nil
}

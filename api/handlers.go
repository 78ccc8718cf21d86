package api

import (
	"bytes"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/export"
	"github.com/memtensor/reqdocx/pkg/parsers"
	"github.com/memtensor/reqdocx/pkg/store"
	"github.com/memtensor/reqdocx/pkg/types"
)

// documentField is the multipart field carrying the upload
const documentField = "document"

// healthCheck provides a health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.opts.Version,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Checks: map[string]string{
			"parser": "ok",
			"store":  "disabled",
		},
	}
	if health.Version == "" {
		health.Version = "dev"
	}
	if len(s.factory.GetRegisteredParsers()) == 0 {
		health.Checks["parser"] = "none registered"
		health.Status = "degraded"
	}

	if s.store != nil {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			s.logger.Warn("store health check failed", map[string]interface{}{"error": err.Error()})
			health.Checks["store"] = "error"
			health.Status = "degraded"
		} else {
			health.Checks["store"] = "ok"
		}
	}

	code := http.StatusOK
	if health.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

// getMetrics handles metrics endpoint
func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, MetricsResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Metrics:   s.metrics.Snapshot(),
	})
}

// listFormats reports accepted uploads and export formats
func (s *Server) listFormats(c *gin.Context) {
	list := FormatList{
		Exports:    export.Formats(),
		Extensions: s.factory.GetSupportedExtensions(),
		MimeTypes:  s.factory.GetSupportedTypes(),
	}
	for _, pt := range s.factory.GetRegisteredParsers() {
		if info, err := s.factory.GetParserInfo(pt); err == nil {
			list.Parsers = append(list.Parsers, *info)
		}
	}

	c.JSON(http.StatusOK, FormatResponse{
		Code:    http.StatusOK,
		Message: "Formats retrieved successfully",
		Data:    &list,
	})
}

// parseDocument parses an uploaded export. ?persist=true saves the run and
// ?format= renders the requirements instead of the JSON envelope.
func (s *Server) parseDocument(c *gin.Context) {
	format := strings.ToLower(c.Query("format"))
	if format != "" && format != export.FormatJSON {
		if _, err := export.New(format, export.Options{}); err != nil {
			s.writeError(c, http.StatusBadRequest, "Unsupported export format", err)
			return
		}
	}

	persist, _ := strconv.ParseBool(c.DefaultQuery("persist", "false"))
	if persist && s.store == nil {
		s.writeError(c, http.StatusServiceUnavailable, "Persistence is disabled", nil)
		return
	}

	fh, err := c.FormFile(documentField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.handleError(c, "Upload rejected", errors.NewFileTooLargeError(tooLarge.Limit, s.opts.API.MaxUploadSize))
			return
		}
		s.writeError(c, http.StatusBadRequest, "Missing multipart field \""+documentField+"\"", err)
		return
	}
	if fh.Size > s.opts.API.MaxUploadSize {
		s.handleError(c, "Upload rejected", errors.NewFileTooLargeError(fh.Size, s.opts.API.MaxUploadSize))
		return
	}
	if contentType := fh.Header.Get("Content-Type"); !s.uploadTypeAccepted(contentType) {
		s.handleError(c, "Upload rejected", errors.NewUnsupportedFormatError(contentType))
		return
	}

	file, err := fh.Open()
	if err != nil {
		s.handleError(c, "Failed to read upload", errors.NewFileError("failed to open upload", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.handleError(c, "Failed to read upload", errors.NewFileError("failed to read upload", err))
		return
	}

	cfg := parsers.DefaultParserConfig()
	cfg.MaxFileSize = s.opts.API.MaxUploadSize

	result, err := s.factory.ParseWithBestParser(c.Request.Context(), data, fh.Filename, cfg)
	if err != nil {
		s.handleError(c, "Failed to parse document", err)
		return
	}

	var runID string
	if persist {
		run := store.NewRun(fh.Filename, documentTitle(result), result.ParsedAt, result.ParsingDuration, result.Stats)
		saved, err := s.store.SaveRun(c.Request.Context(), run, result.Requirements)
		if err != nil {
			s.handleError(c, "Failed to save parse run", err)
			return
		}
		runID = saved.ID
		c.Header("X-Run-ID", runID)
	}

	if format != "" && format != export.FormatJSON {
		s.renderExport(c, format, documentTitle(result), result.Requirements)
		return
	}

	c.JSON(http.StatusOK, ParseResponse{
		Code:    http.StatusOK,
		Message: "Document parsed successfully",
		Data:    &ParseData{RunID: runID, Result: result},
	})
}

// listRuns pages through stored runs, newest first
func (s *Server) listRuns(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	limit := s.parseIntParam(c, "limit", 50)
	offset := s.parseIntParam(c, "offset", 0)
	if limit <= 0 || limit > 500 {
		s.writeError(c, http.StatusBadRequest, "limit must be between 1 and 500", nil)
		return
	}
	if offset < 0 {
		s.writeError(c, http.StatusBadRequest, "offset must not be negative", nil)
		return
	}

	runs, total, err := s.store.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		s.handleError(c, "Failed to list runs", err)
		return
	}
	if runs == nil {
		runs = []store.ParseRun{}
	}

	c.JSON(http.StatusOK, RunListResponse{
		Code:    http.StatusOK,
		Message: "Runs retrieved successfully",
		Data:    &RunList{Runs: runs, Total: total, Limit: limit, Offset: offset},
	})
}

// getRun returns one run with its requirements, optionally rendered
func (s *Server) getRun(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	id := c.Param("id")
	run, err := s.store.GetRun(c.Request.Context(), id, true)
	if err != nil {
		s.handleError(c, "Failed to get run", err)
		return
	}

	reqs, err := run.DecodeRequirements()
	if err != nil {
		s.handleError(c, "Failed to load requirements", err)
		return
	}
	// the decoded requirements replace the raw records in the response
	run.Requirements = nil

	if format := strings.ToLower(c.Query("format")); format != "" && format != export.FormatJSON {
		s.renderExport(c, format, run.Title, reqs)
		return
	}

	c.JSON(http.StatusOK, RunResponse{
		Code:    http.StatusOK,
		Message: "Run retrieved successfully",
		Data:    &RunDetail{Run: run, Requirements: reqs},
	})
}

// deleteRun removes a run and its requirements
func (s *Server) deleteRun(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	if err := s.store.DeleteRun(c.Request.Context(), c.Param("id")); err != nil {
		s.handleError(c, "Failed to delete run", err)
		return
	}

	c.JSON(http.StatusOK, SimpleResponse{
		Code:    http.StatusOK,
		Message: "Run deleted successfully",
	})
}

// findRequirement lists every stored version of an item, newest first
func (s *Server) findRequirement(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}

	found, err := s.store.FindRequirement(c.Request.Context(), c.Param("item"))
	if err != nil {
		s.handleError(c, "Failed to find requirement", err)
		return
	}

	c.JSON(http.StatusOK, RequirementHistoryResponse{
		Code:    http.StatusOK,
		Message: "Requirement retrieved successfully",
		Data:    &found,
	})
}

// Helper functions

func (s *Server) renderExport(c *gin.Context, format, title string, reqs []types.Requirement) {
	if title == "" {
		title = s.opts.Export.Title
	}
	exporter, err := export.New(format, export.Options{Pretty: s.opts.Export.Pretty, Title: title})
	if err != nil {
		s.writeError(c, http.StatusBadRequest, "Unsupported export format", err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Export(c.Request.Context(), &buf, reqs); err != nil {
		s.handleError(c, "Failed to render requirements", err)
		return
	}
	c.Data(http.StatusOK, exporter.ContentType(), buf.Bytes())
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.store == nil {
		s.writeError(c, http.StatusServiceUnavailable, "Persistence is disabled", nil)
		return false
	}
	return true
}

func documentTitle(result *parsers.ParseResult) string {
	if result.Metadata == nil {
		return ""
	}
	return result.Metadata.Title
}

// uploadTypeAccepted allows an unset or generic binary part type. Anything
// else must be a MIME type a registered parser handles.
func (s *Server) uploadTypeAccepted(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "application/octet-stream", "application/zip", "application/x-zip-compressed":
		return true
	}
	return s.factory.IsTypeSupported(mediaType)
}

func requestID(c *gin.Context) string {
	return types.GetRequestContext(c.Request.Context()).RequestID
}

// statusFor maps an error to the HTTP status it should surface as
func statusFor(err error) int {
	switch {
	case errors.HasCode(err, errors.ErrCodeFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.HasCode(err, errors.ErrCodeUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.HasCode(err, errors.ErrCodeInvalidPackage),
		errors.HasCode(err, errors.ErrCodeMissingPart),
		errors.HasCode(err, errors.ErrCodeMalformedXML):
		return http.StatusUnprocessableEntity
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsValidation(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// handleError provides consistent error handling
func (s *Server) handleError(c *gin.Context, message string, err error) {
	code := statusFor(err)
	fields := map[string]interface{}{
		"request_id": requestID(c),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"status":     code,
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error(message, err, fields)
	} else {
		fields["error"] = err.Error()
		s.logger.Warn(message, fields)
	}

	s.writeError(c, code, message, err)
}

func (s *Server) writeError(c *gin.Context, code int, message string, err error) {
	resp := ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	}
	if err != nil {
		resp.Error = err.Error()
		if e, ok := errors.AsReqDocxError(err); ok {
			resp.ErrorCode = string(e.Code)
		}
	}
	c.AbortWithStatusJSON(code, resp)
}

// parseIntParam safely parses integer parameters
func (s *Server) parseIntParam(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

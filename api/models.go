package api

import (
	"github.com/memtensor/reqdocx/pkg/parsers"
	"github.com/memtensor/reqdocx/pkg/store"
	"github.com/memtensor/reqdocx/pkg/types"
)

// BaseResponse represents the base structure for all API responses
type BaseResponse[T any] struct {
	Code    int    `json:"code" example:"200"`
	Message string `json:"message" example:"Operation successful"`
	Data    *T     `json:"data,omitempty"`
}

// SimpleResponse for operations without data return
type SimpleResponse = BaseResponse[interface{}]

// ParseData is the payload of a successful parse
type ParseData struct {
	// RunID is set when the result was persisted
	RunID  string               `json:"run_id,omitempty"`
	Result *parsers.ParseResult `json:"result"`
}

// RunList is one page of stored runs
type RunList struct {
	Runs   []store.ParseRun `json:"runs"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// RunDetail is a stored run with its decoded requirements
type RunDetail struct {
	Run          *store.ParseRun     `json:"run"`
	Requirements []types.Requirement `json:"requirements"`
}

// FormatList describes what the server can parse and render
type FormatList struct {
	Exports    []string             `json:"exports"`
	Extensions []string             `json:"extensions"`
	MimeTypes  []string             `json:"mime_types"`
	Parsers    []parsers.ParserInfo `json:"parsers"`
}

// Response types
type ParseResponse = BaseResponse[ParseData]
type RunListResponse = BaseResponse[RunList]
type RunResponse = BaseResponse[RunDetail]
type RequirementHistoryResponse = BaseResponse[[]store.StoredRequirement]
type FormatResponse = BaseResponse[FormatList]

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// MetricsResponse represents metrics response
type MetricsResponse struct {
	Timestamp string      `json:"timestamp"`
	Uptime    string      `json:"uptime"`
	Metrics   interface{} `json:"metrics"`
}

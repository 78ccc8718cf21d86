// Package errors provides structured error handling for reqdocx
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/memtensor/reqdocx/pkg/types"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"

	// Document package errors
	ErrCodeInvalidPackage ErrorCode = "INVALID_PACKAGE"
	ErrCodeMissingPart    ErrorCode = "MISSING_PART"
	ErrCodeMalformedXML   ErrorCode = "MALFORMED_XML"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// System errors
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Configuration errors
	ErrCodeConfigError    ErrorCode = "CONFIG_ERROR"
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// File system errors
	ErrCodeFileError        ErrorCode = "FILE_ERROR"
	ErrCodeFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// ReqDocxError represents a structured error in reqdocx
type ReqDocxError struct {
	Type       types.ErrorType        `json:"type"`
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"stack_trace,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *ReqDocxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ReqDocxError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ReqDocxError) WithDetail(key string, value interface{}) *ReqDocxError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRequestID adds a request ID to the error
func (e *ReqDocxError) WithRequestID(requestID string) *ReqDocxError {
	e.RequestID = requestID
	return e
}

// WithStackTrace adds a stack trace to the error
func (e *ReqDocxError) WithStackTrace() *ReqDocxError {
	e.StackTrace = getStackTrace()
	return e
}

// NewReqDocxError creates a new error
func NewReqDocxError(errType types.ErrorType, code ErrorCode, message string) *ReqDocxError {
	return &ReqDocxError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// NewReqDocxErrorWithCause creates a new error with a cause
func NewReqDocxErrorWithCause(errType types.ErrorType, code ErrorCode, message string, cause error) *ReqDocxError {
	return &ReqDocxError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Validation error constructors
func NewValidationError(message string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeValidation, ErrCodeValidation, message)
}

func NewInvalidInputError(message string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeValidation, ErrCodeInvalidInput, message)
}

func NewUnsupportedFormatError(format string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeValidation, ErrCodeUnsupportedFormat,
		fmt.Sprintf("unsupported format: %s", format)).WithDetail("format", format)
}

func NewFileTooLargeError(size, limit int64) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeValidation, ErrCodeFileTooLarge,
		fmt.Sprintf("file size %d bytes exceeds limit %d bytes", size, limit)).
		WithDetail("size", size).WithDetail("limit", limit)
}

// Document package error constructors
func NewInvalidPackageError(source string, cause error) *ReqDocxError {
	return NewReqDocxErrorWithCause(types.ErrorTypeValidation, ErrCodeInvalidPackage,
		fmt.Sprintf("not a valid document package: %s", source), cause).WithDetail("source", source)
}

func NewMissingPartError(part string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeValidation, ErrCodeMissingPart,
		fmt.Sprintf("package part not found: %s", part)).WithDetail("part", part)
}

func NewMalformedXMLError(part string, cause error) *ReqDocxError {
	return NewReqDocxErrorWithCause(types.ErrorTypeValidation, ErrCodeMalformedXML,
		fmt.Sprintf("malformed xml in %s", part), cause).WithDetail("part", part)
}

// Resource error constructors
func NewNotFoundError(resource string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeNotFound, ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource)).WithDetail("resource", resource)
}

// System error constructors
func NewInternalError(message string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeInternal, ErrCodeInternal, message)
}

func NewInternalErrorWithCause(message string, cause error) *ReqDocxError {
	return NewReqDocxErrorWithCause(types.ErrorTypeInternal, ErrCodeInternal, message, cause)
}

func NewDatabaseErrorWithCause(message string, cause error) *ReqDocxError {
	return NewReqDocxErrorWithCause(types.ErrorTypeInternal, ErrCodeDatabaseError, message, cause)
}

// Configuration error constructors
func NewConfigError(message string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeValidation, ErrCodeConfigError, message)
}

func NewConfigNotFoundError(configPath string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeNotFound, ErrCodeConfigNotFound,
		fmt.Sprintf("configuration file not found: %s", configPath)).WithDetail("config_path", configPath)
}

func NewConfigInvalidError(message string, cause error) *ReqDocxError {
	return NewReqDocxErrorWithCause(types.ErrorTypeValidation, ErrCodeConfigInvalid, message, cause)
}

// File system error constructors
func NewFileError(message string, cause error) *ReqDocxError {
	return NewReqDocxErrorWithCause(types.ErrorTypeInternal, ErrCodeFileError, message, cause)
}

func NewFileNotFoundError(filePath string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeNotFound, ErrCodeFileNotFound,
		fmt.Sprintf("file not found: %s", filePath)).WithDetail("file_path", filePath)
}

func NewPermissionDeniedError(filePath string) *ReqDocxError {
	return NewReqDocxError(types.ErrorTypeValidation, ErrCodePermissionDenied,
		fmt.Sprintf("permission denied: %s", filePath)).WithDetail("file_path", filePath)
}

// Helper functions
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var trace strings.Builder
	for {
		frame, more := frames.Next()
		trace.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}

	return trace.String()
}

// AsReqDocxError finds the first ReqDocxError in err's chain
func AsReqDocxError(err error) (*ReqDocxError, bool) {
	var target *ReqDocxError
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// HasCode reports whether err's chain carries a ReqDocxError with code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		e, ok := AsReqDocxError(err)
		if !ok {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// IsNotFound reports whether err denotes a missing file or resource
func IsNotFound(err error) bool {
	if e, ok := AsReqDocxError(err); ok {
		return e.Type == types.ErrorTypeNotFound
	}
	return false
}

// IsValidation reports whether err denotes bad caller input
func IsValidation(err error) bool {
	if e, ok := AsReqDocxError(err); ok {
		return e.Type == types.ErrorTypeValidation
	}
	return false
}

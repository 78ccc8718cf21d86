// Package types defines the core data model for reqdocx
package types

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Requirement is one record reconstructed from an "All Data" export.
// Header-derived fields (Item, Heading, Name, Description) are set first; the
// metadata fields are filled from the record's key-value table.
type Requirement struct {
	Item        string `json:"item" yaml:"item" validate:"required"`
	Heading     string `json:"heading,omitempty" yaml:"heading,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	GlobalID         string `json:"global_id,omitempty" yaml:"global_id,omitempty"`
	Project          string `json:"project,omitempty" yaml:"project,omitempty"`
	ItemType         string `json:"item_type,omitempty" yaml:"item_type,omitempty"`
	Status           string `json:"status,omitempty" yaml:"status,omitempty"`
	Release          string `json:"release,omitempty" yaml:"release,omitempty"`
	Priority         string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Owner            string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Component        string `json:"component,omitempty" yaml:"component,omitempty"`
	RequirementType  string `json:"requirement_type,omitempty" yaml:"requirement_type,omitempty"`
	SafetyLevel      string `json:"safety_level,omitempty" yaml:"safety_level,omitempty"`
	Compliance       string `json:"compliance,omitempty" yaml:"compliance,omitempty"`
	Rationale        string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	DerivedRationale string `json:"derived_rationale,omitempty" yaml:"derived_rationale,omitempty"`
	Allocation       string `json:"allocation,omitempty" yaml:"allocation,omitempty"`
	ChangeDriver     string `json:"change_driver,omitempty" yaml:"change_driver,omitempty"`
	Source           string `json:"source,omitempty" yaml:"source,omitempty"`
	Notes            string `json:"notes,omitempty" yaml:"notes,omitempty"`
	Assumptions      string `json:"assumptions,omitempty" yaml:"assumptions,omitempty"`
	ParentItem       string `json:"parent_item,omitempty" yaml:"parent_item,omitempty"`
	Set              string `json:"set,omitempty" yaml:"set,omitempty"`
	Location         string `json:"location,omitempty" yaml:"location,omitempty"`
	Version          string `json:"version,omitempty" yaml:"version,omitempty"`
	CreatedBy        string `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	ModifiedBy       string `json:"modified_by,omitempty" yaml:"modified_by,omitempty"`
	LockedBy         string `json:"locked_by,omitempty" yaml:"locked_by,omitempty"`

	CreatedDate      *time.Time `json:"created_date,omitempty" yaml:"created_date,omitempty"`
	ModifiedDate     *time.Time `json:"modified_date,omitempty" yaml:"modified_date,omitempty"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty" yaml:"last_activity_date,omitempty"`
	LockedDate       *time.Time `json:"locked_date,omitempty" yaml:"locked_date,omitempty"`

	UpstreamCount   int `json:"upstream_count" yaml:"upstream_count"`
	DownstreamCount int `json:"downstream_count" yaml:"downstream_count"`
	LinkCount       int `json:"link_count" yaml:"link_count"`
	AttachmentCount int `json:"attachment_count" yaml:"attachment_count"`
	CommentCount    int `json:"comment_count" yaml:"comment_count"`

	Locked            bool `json:"locked" yaml:"locked"`
	Derived           bool `json:"derived" yaml:"derived"`
	SafetyRelated     bool `json:"safety_related" yaml:"safety_related"`
	SecurityRelated   bool `json:"security_related" yaml:"security_related"`
	KeyCharacteristic bool `json:"key_characteristic" yaml:"key_characteristic"`

	VerificationMethods []VerificationMethod `json:"verification_methods,omitempty" yaml:"verification_methods,omitempty"`
	PrimaryVerification VerificationMethod   `json:"primary_verification" yaml:"primary_verification"`
	ValidationMethods   []ValidationMethod   `json:"validation_methods,omitempty" yaml:"validation_methods,omitempty"`
	Tags                []string             `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Attributes holds recognized keys that have no dedicated field.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	Loose LooseContent `json:"loose" yaml:"loose"`
}

// Validate checks that r carries at least its item identifier
func (r Requirement) Validate() error {
	return validate.Struct(r)
}

// LooseContent is the non key-value material attached to a requirement
type LooseContent struct {
	Paragraphs []string     `json:"paragraphs" yaml:"paragraphs"`
	Tables     []LooseTable `json:"tables" yaml:"tables"`
}

// IsEmpty reports whether no paragraph or table was attached
func (l LooseContent) IsEmpty() bool {
	return len(l.Paragraphs) == 0 && len(l.Tables) == 0
}

// LooseTable is a rectangular block of normalized cell text with an optional title
type LooseTable struct {
	Title string     `json:"title,omitempty" yaml:"title,omitempty"`
	Rows  [][]string `json:"rows" yaml:"rows"`
}

// ColumnCount returns the widest row length
func (t LooseTable) ColumnCount() int {
	width := 0
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// VerificationMethod is the method used to verify a requirement
type VerificationMethod string

const (
	VerificationUnassigned    VerificationMethod = "Unassigned"
	VerificationTest          VerificationMethod = "Test"
	VerificationAnalysis      VerificationMethod = "Analysis"
	VerificationInspection    VerificationMethod = "Inspection"
	VerificationDemonstration VerificationMethod = "Demonstration"
	VerificationSimulation    VerificationMethod = "Simulation"
	VerificationReview        VerificationMethod = "Review"
)

// VerificationMethods lists every assignable verification method
func VerificationMethods() []VerificationMethod {
	return []VerificationMethod{
		VerificationTest,
		VerificationAnalysis,
		VerificationInspection,
		VerificationDemonstration,
		VerificationSimulation,
		VerificationReview,
	}
}

// ParseVerificationMethod matches token case-insensitively against the known methods
func ParseVerificationMethod(token string) (VerificationMethod, bool) {
	token = strings.TrimSpace(token)
	for _, m := range VerificationMethods() {
		if strings.EqualFold(string(m), token) {
			return m, true
		}
	}
	return "", false
}

// ValidationMethod is the method used to validate a requirement
type ValidationMethod string

const (
	ValidationAnalysis            ValidationMethod = "Analysis"
	ValidationTest                ValidationMethod = "Test"
	ValidationSimulation          ValidationMethod = "Simulation"
	ValidationModeling            ValidationMethod = "Modeling"
	ValidationTraceability        ValidationMethod = "Traceability"
	ValidationSimilarity          ValidationMethod = "Similarity"
	ValidationReview              ValidationMethod = "Review"
	ValidationEngineeringReview   ValidationMethod = "Engineering Review"
	ValidationEngineeringJudgment ValidationMethod = "Engineering Judgment"
)

// ValidationMethods lists every assignable validation method
func ValidationMethods() []ValidationMethod {
	return []ValidationMethod{
		ValidationAnalysis,
		ValidationTest,
		ValidationSimulation,
		ValidationModeling,
		ValidationTraceability,
		ValidationSimilarity,
		ValidationReview,
		ValidationEngineeringReview,
		ValidationEngineeringJudgment,
	}
}

// ParseValidationMethod matches token case-insensitively against the known methods
func ParseValidationMethod(token string) (ValidationMethod, bool) {
	token = strings.TrimSpace(token)
	for _, m := range ValidationMethods() {
		if strings.EqualFold(string(m), token) {
			return m, true
		}
	}
	return "", false
}

// Error types for better error handling
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
)

// Context keys for request context
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
)

// RequestContext holds request-specific context information
type RequestContext struct {
	RequestID string
}

// GetRequestContext extracts request context from Go context
func GetRequestContext(ctx context.Context) *RequestContext {
	return &RequestContext{
		RequestID: getStringFromContext(ctx, ContextKeyRequestID),
	}
}

func getStringFromContext(ctx context.Context, key ContextKey) string {
	if value := ctx.Value(key); value != nil {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return ""
}

// NewRequestContext creates a request context. An empty requestID is
// replaced by a generated one.
func NewRequestContext(requestID string) *RequestContext {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return &RequestContext{RequestID: requestID}
}

// WithRequestContext stores rc in ctx
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, rc.RequestID)
}

package export

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/types"
)

type column struct {
	name  string
	value func(r *types.Requirement) string
}

var columns = []column{
	{"item", func(r *types.Requirement) string { return r.Item }},
	{"heading", func(r *types.Requirement) string { return r.Heading }},
	{"name", func(r *types.Requirement) string { return r.Name }},
	{"description", func(r *types.Requirement) string { return r.Description }},
	{"global_id", func(r *types.Requirement) string { return r.GlobalID }},
	{"project", func(r *types.Requirement) string { return r.Project }},
	{"item_type", func(r *types.Requirement) string { return r.ItemType }},
	{"status", func(r *types.Requirement) string { return r.Status }},
	{"release", func(r *types.Requirement) string { return r.Release }},
	{"priority", func(r *types.Requirement) string { return r.Priority }},
	{"owner", func(r *types.Requirement) string { return r.Owner }},
	{"component", func(r *types.Requirement) string { return r.Component }},
	{"requirement_type", func(r *types.Requirement) string { return r.RequirementType }},
	{"safety_level", func(r *types.Requirement) string { return r.SafetyLevel }},
	{"rationale", func(r *types.Requirement) string { return r.Rationale }},
	{"source", func(r *types.Requirement) string { return r.Source }},
	{"notes", func(r *types.Requirement) string { return r.Notes }},
	{"parent_item", func(r *types.Requirement) string { return r.ParentItem }},
	{"version", func(r *types.Requirement) string { return r.Version }},
	{"created_by", func(r *types.Requirement) string { return r.CreatedBy }},
	{"modified_by", func(r *types.Requirement) string { return r.ModifiedBy }},
	{"created_date", func(r *types.Requirement) string { return formatDate(r.CreatedDate) }},
	{"modified_date", func(r *types.Requirement) string { return formatDate(r.ModifiedDate) }},
	{"last_activity_date", func(r *types.Requirement) string { return formatDate(r.LastActivityDate) }},
	{"upstream_count", func(r *types.Requirement) string { return strconv.Itoa(r.UpstreamCount) }},
	{"downstream_count", func(r *types.Requirement) string { return strconv.Itoa(r.DownstreamCount) }},
	{"link_count", func(r *types.Requirement) string { return strconv.Itoa(r.LinkCount) }},
	{"attachment_count", func(r *types.Requirement) string { return strconv.Itoa(r.AttachmentCount) }},
	{"comment_count", func(r *types.Requirement) string { return strconv.Itoa(r.CommentCount) }},
	{"locked", func(r *types.Requirement) string { return strconv.FormatBool(r.Locked) }},
	{"safety_related", func(r *types.Requirement) string { return strconv.FormatBool(r.SafetyRelated) }},
	{"security_related", func(r *types.Requirement) string { return strconv.FormatBool(r.SecurityRelated) }},
	{"primary_verification", func(r *types.Requirement) string { return string(r.PrimaryVerification) }},
	{"verification_methods", func(r *types.Requirement) string { return joinMethods(r.VerificationMethods) }},
	{"validation_methods", func(r *types.Requirement) string { return joinMethods(r.ValidationMethods) }},
	{"tags", func(r *types.Requirement) string { return strings.Join(r.Tags, "; ") }},
	{"attributes", func(r *types.Requirement) string { return joinAttributes(r.Attributes) }},
	{"loose_paragraphs", func(r *types.Requirement) string { return strings.Join(r.Loose.Paragraphs, "\n") }},
	{"loose_tables", func(r *types.Requirement) string { return strconv.Itoa(len(r.Loose.Tables)) }},
}

// CSVColumns returns the header row written by CSVExporter
func CSVColumns() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

// CSVExporter writes one row per requirement. Loose tables are counted, not
// flattened.
type CSVExporter struct{}

// Export implements interfaces.Exporter
func (e *CSVExporter) Export(ctx context.Context, w io.Writer, reqs []types.Requirement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns()); err != nil {
		return errors.NewInternalErrorWithCause("failed to write csv header", err)
	}

	record := make([]string, len(columns))
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j, c := range columns {
			record[j] = c.value(&reqs[i])
		}
		if err := cw.Write(record); err != nil {
			return errors.NewInternalErrorWithCause("failed to write csv row", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.NewInternalErrorWithCause("failed to flush csv", err)
	}
	return nil
}

// Format implements interfaces.Exporter
func (e *CSVExporter) Format() string { return FormatCSV }

// ContentType implements interfaces.Exporter
func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

func joinMethods[M ~string](methods []M) string {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	return strings.Join(parts, "; ")
}

func joinAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + attrs[k]
	}
	return strings.Join(parts, "; ")
}

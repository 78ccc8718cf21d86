package export

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/types"
)

var (
	anchorUnsafe  = regexp.MustCompile(`[^a-z0-9]+`)
	inlineEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
		`[`, `\[`, `]`, `\]`, `<`, `\<`, `>`, `\>`, `|`, `\|`,
	)
	// shown inline in the heading or body rather than the field table
	headerColumns = map[string]bool{
		"item": true, "heading": true, "name": true, "description": true,
		"loose_paragraphs": true, "loose_tables": true,
	}
)

// Anchor returns the fragment identifier used for item in Markdown and HTML
// reports
func Anchor(item string) string {
	return strings.Trim(anchorUnsafe.ReplaceAllString(strings.ToLower(item), "-"), "-")
}

// MarkdownExporter writes a human-readable report with one section per
// requirement
type MarkdownExporter struct {
	Title string
}

// Export implements interfaces.Exporter
func (e *MarkdownExporter) Export(ctx context.Context, w io.Writer, reqs []types.Requirement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, e.Render(reqs)); err != nil {
		return errors.NewInternalErrorWithCause("failed to write markdown", err)
	}
	return nil
}

// Format implements interfaces.Exporter
func (e *MarkdownExporter) Format() string { return FormatMarkdown }

// ContentType implements interfaces.Exporter
func (e *MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }

// Render returns the report as a string
func (e *MarkdownExporter) Render(reqs []types.Requirement) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeInline(e.Title))
	fmt.Fprintf(&b, "%d requirement(s).\n\n", len(reqs))

	for i := range reqs {
		fmt.Fprintf(&b, "- [%s](#%s)\n", escapeInline(sectionTitle(&reqs[i])), Anchor(reqs[i].Item))
	}

	for i := range reqs {
		b.WriteString("\n")
		writeRequirement(&b, &reqs[i])
	}
	return b.String()
}

func sectionTitle(r *types.Requirement) string {
	if r.Name == "" {
		return r.Item
	}
	return r.Item + " " + r.Name
}

func writeRequirement(b *strings.Builder, r *types.Requirement) {
	fmt.Fprintf(b, "## %s\n\n", escapeInline(sectionTitle(r)))

	if r.Heading != "" {
		fmt.Fprintf(b, "_Section %s_\n\n", escapeInline(r.Heading))
	}
	if r.Description != "" {
		writeParagraph(b, r.Description)
	}

	b.WriteString("| Field | Value |\n| --- | --- |\n")
	for _, c := range columns {
		if headerColumns[c.name] {
			continue
		}
		value := c.value(r)
		if value == "" {
			continue
		}
		fmt.Fprintf(b, "| %s | %s |\n", fieldLabel(c.name), escapeCell(value))
	}
	b.WriteString("\n")

	for _, p := range r.Loose.Paragraphs {
		writeParagraph(b, p)
	}
	for _, t := range r.Loose.Tables {
		writeTable(b, t)
	}
}

func writeParagraph(b *strings.Builder, text string) {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		l = escapeInline(l)
		if strings.HasPrefix(l, "#") {
			l = `\` + l
		}
		lines[i] = l
	}
	b.WriteString(strings.Join(lines, "  \n"))
	b.WriteString("\n\n")
}

func writeTable(b *strings.Builder, t types.LooseTable) {
	rows := t.Rows
	if t.Title != "" {
		fmt.Fprintf(b, "**%s**\n\n", escapeInline(t.Title))
		if len(rows) > 0 && len(rows[0]) == 1 && rows[0][0] == t.Title {
			rows = rows[1:]
		}
	}
	if len(rows) == 0 {
		return
	}

	width := types.LooseTable{Rows: rows}.ColumnCount()
	writeRow(b, rows[0], width)
	b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
	for _, row := range rows[1:] {
		writeRow(b, row, width)
	}
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, row []string, width int) {
	b.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(row) {
			cell = escapeCell(row[i])
		}
		b.WriteString(" " + cell + " |")
	}
	b.WriteString("\n")
}

func fieldLabel(column string) string {
	label := strings.ReplaceAll(column, "_", " ")
	return strings.ToUpper(label[:1]) + label[1:]
}

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeInline(s), "\n", " ")
}

package export

import (
	"bytes"
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/types"
)

const htmlSkeleton = `<!DOCTYPE html>
<html><head><meta charset="utf-8"/><title></title></head><body class="reqdocx-report"></body></html>`

// HTMLExporter renders the Markdown report to a standalone HTML page. Each
// requirement heading carries its Anchor as id, the field table has class
// "fields" and attached tables have class "loose-table".
type HTMLExporter struct {
	markdown *MarkdownExporter
	md       goldmark.Markdown
}

// NewHTMLExporter creates an exporter titled title
func NewHTMLExporter(title string) *HTMLExporter {
	return &HTMLExporter{
		markdown: &MarkdownExporter{Title: title},
		md:       goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Export implements interfaces.Exporter
func (e *HTMLExporter) Export(ctx context.Context, w io.Writer, reqs []types.Requirement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := e.Render(reqs)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, page); err != nil {
		return errors.NewInternalErrorWithCause("failed to write html", err)
	}
	return nil
}

// Render returns the complete page
func (e *HTMLExporter) Render(reqs []types.Requirement) (string, error) {
	var body bytes.Buffer
	if err := e.md.Convert([]byte(e.markdown.Render(reqs)), &body); err != nil {
		return "", errors.NewInternalErrorWithCause("failed to render markdown", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(htmlSkeleton)))
	if err != nil {
		return "", errors.NewInternalErrorWithCause("failed to build page", err)
	}
	doc.Find("title").SetText(e.markdown.Title)
	doc.Find("body").SetHtml(body.String())

	doc.Find("body > h2").Each(func(i int, h *goquery.Selection) {
		if i >= len(reqs) {
			return
		}
		h.SetAttr("id", Anchor(reqs[i].Item))
		h.AddClass("requirement")

		h.NextUntil("h2").Filter("table").Each(func(j int, t *goquery.Selection) {
			if j == 0 {
				t.AddClass("fields")
				return
			}
			t.AddClass("loose-table")
		})
	})

	page, err := doc.Html()
	if err != nil {
		return "", errors.NewInternalErrorWithCause("failed to serialize page", err)
	}
	return page, nil
}

// Format implements interfaces.Exporter
func (e *HTMLExporter) Format() string { return FormatHTML }

// ContentType implements interfaces.Exporter
func (e *HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }

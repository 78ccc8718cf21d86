// Package docxtest assembles small .docx packages in memory for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`

// Builder collects body XML fragments in order.
type Builder struct {
	parts    []string
	noBody   bool
	noDoc    bool
	title    string
	creator  string
	modified string
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Paragraph appends a paragraph. Tabs become w:tab and newlines w:br.
func (b *Builder) Paragraph(text string) *Builder {
	return b.Raw("<w:p>" + Runs(text) + "</w:p>")
}

// Paragraphs appends one paragraph per line.
func (b *Builder) Paragraphs(lines ...string) *Builder {
	for _, l := range lines {
		b.Paragraph(l)
	}
	return b
}

// StyledParagraph appends a paragraph carrying a w:pStyle.
func (b *Builder) StyledParagraph(style, text string) *Builder {
	return b.Raw(fmt.Sprintf(`<w:p><w:pPr><w:pStyle w:val="%s"/></w:pPr>%s</w:p>`, escape(style), Runs(text)))
}

// Table appends a table; each row is a list of cell texts.
func (b *Builder) Table(rows ...[]string) *Builder {
	return b.Raw(TableXML(rows...))
}

// KV appends a two-column table from alternating label, value arguments.
func (b *Builder) KV(pairs ...string) *Builder {
	rows := make([][]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, []string{pairs[i], pairs[i+1]})
	}
	return b.Table(rows...)
}

// Record appends one "All Data" record: a header line, a description and a
// key-value table carrying the item identifier and a few common keys.
func (b *Builder) Record(item, name, description string) *Builder {
	return b.Paragraph(item+" "+name).
		Paragraph(description).
		KV("Item ID", item, "Status", "Approved", "Project", "Demo", "Item Type", "Requirement")
}

// Export returns a builder holding n records ABC-REQ_RC-1 .. ABC-REQ_RC-n.
func Export(n int) *Builder {
	b := New()
	for i := 1; i <= n; i++ {
		b.Record(fmt.Sprintf("ABC-REQ_RC-%d", i), fmt.Sprintf("Requirement %d", i),
			fmt.Sprintf("The system shall satisfy condition %d.", i))
	}
	return b
}

// Sdt wraps everything added by fill in a block-level content control.
func (b *Builder) Sdt(fill func(*Builder)) *Builder {
	inner := New()
	fill(inner)
	return b.Raw(`<w:sdt><w:sdtPr><w:alias w:val="block"/></w:sdtPr><w:sdtContent>` +
		strings.Join(inner.parts, "") + `</w:sdtContent></w:sdt>`)
}

// SectPr appends section properties, which readers must skip.
func (b *Builder) SectPr() *Builder {
	return b.Raw(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`)
}

// Raw appends a literal body fragment using the w: prefix.
func (b *Builder) Raw(fragment string) *Builder {
	b.parts = append(b.parts, fragment)
	return b
}

// WithoutBody makes document.xml carry no w:body.
func (b *Builder) WithoutBody() *Builder {
	b.noBody = true
	return b
}

// WithoutDocument leaves word/document.xml out of the package.
func (b *Builder) WithoutDocument() *Builder {
	b.noDoc = true
	return b
}

// Properties sets core properties; empty values are omitted.
func (b *Builder) Properties(title, creator, modified string) *Builder {
	b.title, b.creator, b.modified = title, creator, modified
	return b
}

// DocumentXML renders word/document.xml.
func (b *Builder) DocumentXML() string {
	if b.noBody {
		return documentOpen + "</w:document>"
	}
	return documentOpen + "<w:body>" + strings.Join(b.parts, "") + "</w:body></w:document>"
}

func (b *Builder) coreXML() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">`)
	if b.title != "" {
		sb.WriteString("<dc:title>" + escape(b.title) + "</dc:title>")
	}
	if b.creator != "" {
		sb.WriteString("<dc:creator>" + escape(b.creator) + "</dc:creator>")
	}
	if b.modified != "" {
		sb.WriteString("<dcterms:modified>" + escape(b.modified) + "</dcterms:modified>")
	}
	sb.WriteString("</cp:coreProperties>")
	return sb.String()
}

// Bytes returns the zipped package.
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := [][2]string{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
	}
	if !b.noDoc {
		files = append(files, [2]string{"word/document.xml", b.DocumentXML()})
	}
	if b.title != "" || b.creator != "" || b.modified != "" {
		files = append(files, [2]string{"docProps/core.xml", b.coreXML()})
	}

	for _, f := range files {
		w, err := zw.Create(f[0])
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(f[1])); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustBytes is Bytes failing the test on error.
func (b *Builder) MustBytes(t testing.TB) []byte {
	t.Helper()
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("docxtest: build package: %v", err)
	}
	return data
}

// WriteFile writes the package into t.TempDir() and returns its path.
func (b *Builder) WriteFile(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, b.MustBytes(t), 0o644); err != nil {
		t.Fatalf("docxtest: write %s: %v", path, err)
	}
	return path
}

// Runs renders text as w:r elements.
func Runs(text string) string {
	var sb strings.Builder
	sb.WriteString("<w:r>")
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			sb.WriteString(`<w:t xml:space="preserve">` + escape(cur.String()) + `</w:t>`)
			cur.Reset()
		}
	}
	for _, r := range text {
		switch r {
		case '\t':
			flush()
			sb.WriteString("<w:tab/>")
		case '\n':
			flush()
			sb.WriteString("<w:br/>")
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	sb.WriteString("</w:r>")
	return sb.String()
}

// TableXML renders a w:tbl. Cell text lines become separate paragraphs.
func TableXML(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>`)
	for _, row := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc><w:tcPr><w:tcW w:w=\"2000\"/></w:tcPr>")
			for _, line := range strings.Split(cell, "\n") {
				sb.WriteString("<w:p>" + Runs(line) + "</w:p>")
			}
			sb.WriteString("</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	return sb.String()
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

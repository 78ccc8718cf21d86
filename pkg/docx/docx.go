// Package docx reads the body of a WordprocessingML (.docx) package as a flat
// sequence of paragraph and table blocks.
//
// Structural wrappers such as content controls (w:sdt), custom XML and
// tracked insertions are flattened depth-first, so their paragraphs and
// tables appear in document order as if unwrapped. Anything that is neither a
// paragraph, a table nor a wrapper (section properties, bookmarks, proofing
// marks) is skipped.
package docx

import (
	"archive/zip"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/memtensor/reqdocx/pkg/errors"
)

const (
	documentPart  = "word/document.xml"
	corePropsPart = "docProps/core.xml"
)

// Block is a top-level body element: *Paragraph or *Table.
type Block interface {
	block()
}

// Paragraph is a body paragraph with its concatenated run text.
type Paragraph struct {
	Text  string
	Style string
}

func (*Paragraph) block() {}

// Table is a body table.
type Table struct {
	Rows []Row
}

func (*Table) block() {}

// Row is a table row.
type Row struct {
	Cells []Cell
}

// Cell holds the text of a table cell. Multiple paragraphs are joined by "\n".
type Cell struct {
	Text string
}

// Document is an opened .docx package. Close releases the underlying file.
type Document struct {
	Source     string
	Properties Properties

	body   *node
	closer io.Closer
}

// Open opens the package at path for reading. The returned document keeps
// the file open until Close is called.
func Open(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		if os.IsPermission(err) {
			return nil, errors.NewPermissionDeniedError(path)
		}
		return nil, errors.NewFileError("failed to stat document", err)
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.NewInvalidPackageError(path, err)
	}

	doc, err := load(path, &rc.Reader)
	if err != nil {
		rc.Close()
		return nil, err
	}
	doc.closer = rc
	return doc, nil
}

// OpenReader reads a package from r. Nothing needs to be released, but Close
// may still be called.
func OpenReader(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.NewInvalidPackageError("reader", err)
	}
	return load("reader", zr)
}

func load(source string, zr *zip.Reader) (*Document, error) {
	var docFile, coreFile *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case documentPart:
			docFile = f
		case corePropsPart:
			coreFile = f
		}
	}
	if docFile == nil {
		return nil, errors.NewInvalidPackageError(source, errors.NewMissingPartError(documentPart))
	}

	root, err := readPart(docFile)
	if err != nil {
		return nil, err
	}

	doc := &Document{Source: source}
	if root != nil && root.is("document") {
		doc.body = root.child("body")
	}

	if coreFile != nil {
		// core properties are informational; a broken part is ignored
		if props, err := readPart(coreFile); err == nil && props != nil {
			doc.Properties = parseProperties(props)
		}
	}

	return doc, nil
}

func readPart(f *zip.File) (*node, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.NewInvalidPackageError(f.Name, err)
	}
	defer rc.Close()

	root, err := parseTree(rc)
	if err != nil {
		return nil, errors.NewMalformedXMLError(f.Name, err)
	}
	return root, nil
}

// Close releases the package file.
func (d *Document) Close() error {
	if d == nil || d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// HasBody reports whether document.xml carried a w:body element.
func (d *Document) HasBody() bool {
	return d != nil && d.body != nil
}

// Blocks returns the body blocks in document order. Every call to the
// returned sequence starts again from the beginning of the body.
func (d *Document) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		if !d.HasBody() {
			return
		}
		Walk(d.body.Children, children, func(n *node) bool {
			switch {
			case n.is("p"):
				return yield(newParagraph(n))
			case n.is("tbl"):
				return yield(newTable(n))
			}
			return true
		})
	}
}

// Walk visits leaves of a tree depth-first in order. expand returns the
// children of a node that should be flattened in place, or nil for a leaf.
// visit returning false stops the walk. Walk reports whether it ran to the
// end.
func Walk[N any](nodes []N, expand func(N) []N, visit func(N) bool) bool {
	for _, n := range nodes {
		if inner := expand(n); inner != nil {
			if !Walk(inner, expand, visit) {
				return false
			}
			continue
		}
		if !visit(n) {
			return false
		}
	}
	return true
}

// children flattens wrapper elements. The returned slice is non-nil for any
// wrapper, even an empty one, so the wrapper itself is never visited.
func children(n *node) []*node {
	if n.IsText || (n.Space != wmlNamespace && n.Space != "") || !wrappers[n.Name] {
		return nil
	}
	if n.Children == nil {
		return []*node{}
	}
	return n.Children
}

func newParagraph(n *node) *Paragraph {
	var b strings.Builder
	runText(n, &b)

	p := &Paragraph{Text: b.String()}
	if ppr := n.child("pPr"); ppr != nil {
		if style := ppr.child("pStyle"); style != nil {
			p.Style = style.attr("val")
		}
	}
	return p
}

func newTable(n *node) *Table {
	t := &Table{}
	Walk(n.Children, children, func(c *node) bool {
		if c.is("tr") {
			t.Rows = append(t.Rows, newRow(c))
		}
		return true
	})
	return t
}

func newRow(n *node) Row {
	var row Row
	Walk(n.Children, children, func(c *node) bool {
		if c.is("tc") {
			row.Cells = append(row.Cells, Cell{Text: cellText(c)})
		}
		return true
	})
	return row
}

// cellText joins the paragraphs of a cell with "\n"; nested tables contribute
// their cell texts in order.
func cellText(n *node) string {
	var lines []string
	Walk(n.Children, children, func(c *node) bool {
		switch {
		case c.is("p"):
			lines = append(lines, newParagraph(c).Text)
		case c.is("tbl"):
			for _, row := range newTable(c).Rows {
				for _, cell := range row.Cells {
					lines = append(lines, cell.Text)
				}
			}
		}
		return true
	})
	return strings.Join(lines, "\n")
}

// Texts returns the raw text of every cell of the row.
func (r Row) Texts() []string {
	texts := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		texts[i] = c.Text
	}
	return texts
}

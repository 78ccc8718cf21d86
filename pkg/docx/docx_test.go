package docx

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memtensor/reqdocx/pkg/docx/docxtest"
	"github.com/memtensor/reqdocx/pkg/errors"
)

func openBuilder(t *testing.T, b *docxtest.Builder) *Document {
	t.Helper()
	data := b.MustBytes(t)
	doc, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return doc
}

// describe renders blocks as "P:text" / "T:rows" for compact assertions.
func describe(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		switch v := b.(type) {
		case *Paragraph:
			out = append(out, "P:"+v.Text)
		case *Table:
			var rows []string
			for _, r := range v.Rows {
				rows = append(rows, strings.Join(r.Texts(), "|"))
			}
			out = append(out, "T:"+strings.Join(rows, "/"))
		}
	}
	return out
}

func TestBlocksOrderAndFlattening(t *testing.T) {
	b := docxtest.New().
		Paragraph("first").
		Sdt(func(inner *docxtest.Builder) {
			inner.Paragraph("wrapped").
				Sdt(func(deep *docxtest.Builder) {
					deep.Table([]string{"a", "b"})
				}).
				Paragraph("after deep")
		}).
		Raw(`<w:customXml w:element="x">` + `<w:p>` + docxtest.Runs("custom") + `</w:p></w:customXml>`).
		Raw(`<w:bookmarkStart w:id="0" w:name="x"/>`).
		Paragraph("last").
		SectPr()

	doc := openBuilder(t, b)
	assert.True(t, doc.HasBody())
	assert.Equal(t, []string{
		"P:first",
		"P:wrapped",
		"T:a|b",
		"P:after deep",
		"P:custom",
		"P:last",
	}, describe(slices.Collect(doc.Blocks())))
}

func TestBlocksIsRestartable(t *testing.T) {
	doc := openBuilder(t, docxtest.New().Paragraphs("one", "two", "three"))

	first := describe(slices.Collect(doc.Blocks()))
	second := describe(slices.Collect(doc.Blocks()))
	assert.Equal(t, first, second)

	var seen []string
	for blk := range doc.Blocks() {
		seen = append(seen, blk.(*Paragraph).Text)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"one", "two"}, seen)
	assert.Len(t, slices.Collect(doc.Blocks()), 3)
}

func TestParagraphRunText(t *testing.T) {
	t.Run("TabsAndBreaks", func(t *testing.T) {
		doc := openBuilder(t, docxtest.New().Paragraph("Item ID\tABC-REQ_RC-10\nsecond line"))
		blocks := slices.Collect(doc.Blocks())
		require.Len(t, blocks, 1)
		assert.Equal(t, "Item ID\tABC-REQ_RC-10\nsecond line", blocks[0].(*Paragraph).Text)
	})

	t.Run("SpecialRunsAndSkippedContent", func(t *testing.T) {
		p := `<w:p><w:pPr><w:pStyle w:val="Heading2"/><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
			`<w:r><w:rPr><w:b/></w:rPr><w:t>ABC</w:t><w:noBreakHyphen/><w:t>1</w:t></w:r>` +
			`<w:del><w:r><w:delText>gone</w:delText></w:r></w:del>` +
			`<w:ins><w:r><w:t xml:space="preserve"> kept</w:t></w:r></w:ins>` +
			`<w:r><w:instrText>PAGE</w:instrText></w:r>` +
			`<w:hyperlink><w:r><w:t xml:space="preserve"> link</w:t></w:r></w:hyperlink>` +
			`</w:p>`
		doc := openBuilder(t, docxtest.New().Raw(p))
		blocks := slices.Collect(doc.Blocks())
		require.Len(t, blocks, 1)

		para := blocks[0].(*Paragraph)
		assert.Equal(t, "ABC\u20111 kept link", para.Text)
		assert.Equal(t, "Heading2", para.Style)
	})
}

func TestTableCells(t *testing.T) {
	doc := openBuilder(t, docxtest.New().Table(
		[]string{"Name", "Power On"},
		[]string{"Notes", "line one\nline two"},
		[]string{"single"},
	))
	blocks := slices.Collect(doc.Blocks())
	require.Len(t, blocks, 1)

	tbl := blocks[0].(*Table)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []string{"Name", "Power On"}, tbl.Rows[0].Texts())
	assert.Equal(t, "line one\nline two", tbl.Rows[1].Cells[1].Text)
	assert.Len(t, tbl.Rows[2].Cells, 1)
}

func TestNestedTableInCell(t *testing.T) {
	inner := docxtest.TableXML([]string{"x", "y"})
	cell := `<w:tc><w:p>` + docxtest.Runs("outer") + `</w:p>` + inner + `</w:tc>`
	doc := openBuilder(t, docxtest.New().Raw(`<w:tbl><w:tr>` + cell + `</w:tr></w:tbl>`))

	tbl := slices.Collect(doc.Blocks())[0].(*Table)
	assert.Equal(t, "outer\nx\ny", tbl.Rows[0].Cells[0].Text)
}

func TestDocumentWithoutBody(t *testing.T) {
	doc := openBuilder(t, docxtest.New().WithoutBody())
	assert.False(t, doc.HasBody())
	assert.Empty(t, slices.Collect(doc.Blocks()))
}

func TestOpenErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "absent.docx"))
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
		assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))
	})

	t.Run("NotAZip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.docx")
		require.NoError(t, os.WriteFile(path, []byte("not a package"), 0o644))

		_, err := Open(path)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidPackage))
	})

	t.Run("MissingDocumentPart", func(t *testing.T) {
		data := docxtest.New().WithoutDocument().MustBytes(t)
		_, err := OpenReader(bytes.NewReader(data), int64(len(data)))
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidPackage))
		assert.True(t, errors.HasCode(err, errors.ErrCodeMissingPart))
	})

	t.Run("MalformedXML", func(t *testing.T) {
		data := docxtest.New().Raw("<w:p>").MustBytes(t)
		_, err := OpenReader(bytes.NewReader(data), int64(len(data)))
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedXML))
	})
}

func TestOpenFileAndClose(t *testing.T) {
	path := docxtest.New().Paragraph("hello").WriteFile(t, "doc.docx")

	doc, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, []string{"P:hello"}, describe(slices.Collect(doc.Blocks())))
	assert.NoError(t, doc.Close())
	assert.NoError(t, doc.Close())
}

func TestCoreProperties(t *testing.T) {
	doc := openBuilder(t, docxtest.New().
		Properties("All Data Export", "Jane Doe", "2024-03-05T10:20:30Z").
		Paragraph("x"))

	assert.Equal(t, "All Data Export", doc.Properties.Title)
	assert.Equal(t, "Jane Doe", doc.Properties.Creator)
	require.NotNil(t, doc.Properties.Modified)
	assert.Equal(t, 2024, doc.Properties.Modified.Year())
	assert.False(t, doc.Properties.IsZero())

	plain := openBuilder(t, docxtest.New().Paragraph("x"))
	assert.True(t, plain.Properties.IsZero())
}

func TestWalkGeneric(t *testing.T) {
	type tree struct {
		name string
		kids []tree
	}
	nodes := []tree{
		{name: "a"},
		{name: "wrap", kids: []tree{{name: "b"}, {name: "wrap", kids: []tree{{name: "c"}}}}},
		{name: "d"},
	}
	expand := func(n tree) []tree {
		if n.name == "wrap" {
			return n.kids
		}
		return nil
	}

	var got []string
	done := Walk(nodes, expand, func(n tree) bool {
		got = append(got, n.name)
		return true
	})
	assert.True(t, done)
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)

	got = nil
	done = Walk(nodes, expand, func(n tree) bool {
		got = append(got, n.name)
		return n.name != "b"
	})
	assert.False(t, done)
	assert.Equal(t, []string{"a", "b"}, got)
}

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/types"
)

func sampleRequirements() []types.Requirement {
	created := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return []types.Requirement{
		{
			Item:                "ABC-REQ_RC-10",
			Heading:             "1.1",
			Name:                "Power On",
			Description:         "System shall power on within 2 s.",
			Status:              "Approved",
			CreatedDate:         &created,
			UpstreamCount:       3,
			VerificationMethods: []types.VerificationMethod{types.VerificationTest, types.VerificationAnalysis},
			PrimaryVerification: types.VerificationTest,
			Tags:                []string{"power", "startup"},
			Attributes:          map[string]string{"Zeta": "z", "ASIL": "B"},
			Loose: types.LooseContent{
				Paragraphs: []string{"Applies to | all variants", "# not a heading"},
				Tables: []types.LooseTable{{
					Title: "Interface Table",
					Rows:  [][]string{{"Interface Table"}, {"Signal", "Direction"}, {"PWR_EN", "in"}},
				}},
			},
		},
		{
			Item:                "ABC-REQ_RC-11",
			Name:                "Standby",
			PrimaryVerification: types.VerificationUnassigned,
			Loose:               types.LooseContent{Paragraphs: []string{}, Tables: []types.LooseTable{}},
		},
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "YAML", "yml", "csv", "md", "markdown", "html"} {
		t.Run(format, func(t *testing.T) {
			e, err := New(format, Options{})
			require.NoError(t, err)
			assert.NotEmpty(t, e.ContentType())
			assert.Contains(t, Formats(), e.Format())
		})
	}

	_, err := New("xml", DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedFormat))
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	e := &JSONExporter{Pretty: true}
	require.NoError(t, e.Export(context.Background(), &buf, sampleRequirements()))

	var decoded []types.Requirement
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Power On", decoded[0].Name)
	assert.Contains(t, buf.String(), "\n  {")

	buf.Reset()
	require.NoError(t, e.Export(context.Background(), &buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLExporter{}).Export(context.Background(), &buf, sampleRequirements()))

	var decoded []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "ABC-REQ_RC-10", decoded[0]["item"])
	assert.Equal(t, "Standby", decoded[1]["name"])
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVExporter{}).Export(context.Background(), &buf, sampleRequirements()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, CSVColumns(), records[0])

	row := map[string]string{}
	for i, name := range records[0] {
		row[name] = records[1][i]
	}
	assert.Equal(t, "ABC-REQ_RC-10", row["item"])
	assert.Equal(t, "2024-03-05", row["created_date"])
	assert.Equal(t, "3", row["upstream_count"])
	assert.Equal(t, "Test; Analysis", row["verification_methods"])
	assert.Equal(t, "power; startup", row["tags"])
	assert.Equal(t, "ASIL=B; Zeta=z", row["attributes"])
	assert.Equal(t, "1", row["loose_tables"])
	assert.Equal(t, "Applies to | all variants\n# not a heading", row["loose_paragraphs"])
}

func TestMarkdownExporter(t *testing.T) {
	e := &MarkdownExporter{Title: "Export"}
	out := e.Render(sampleRequirements())

	assert.True(t, strings.HasPrefix(out, "# Export\n\n2 requirement(s).\n"))
	assert.Contains(t, out, "- [ABC-REQ\\_RC-10 Power On](#abc-req-rc-10)")
	assert.Contains(t, out, "## ABC-REQ\\_RC-10 Power On")
	assert.Contains(t, out, "_Section 1.1_")
	assert.Contains(t, out, "| Status | Approved |")
	assert.Contains(t, out, "| Primary verification | Test |")
	assert.Contains(t, out, "Applies to \\| all variants")
	assert.Contains(t, out, "\\# not a heading")
	assert.Contains(t, out, "**Interface Table**\n\n| Signal | Direction |\n| --- | --- |\n| PWR\\_EN | in |")
	assert.NotContains(t, out, "| Interface Table |")

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, nil))
	assert.Contains(t, buf.String(), "0 requirement(s).")
}

func TestHTMLExporter(t *testing.T) {
	var buf bytes.Buffer
	e := NewHTMLExporter("Export <Draft>")
	require.NoError(t, e.Export(context.Background(), &buf, sampleRequirements()))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "Export <Draft>", doc.Find("title").Text())
	assert.Equal(t, 2, doc.Find("h2.requirement").Length())
	assert.Equal(t, "abc-req-rc-10", doc.Find("h2").First().AttrOr("id", ""))
	assert.Equal(t, "ABC-REQ_RC-11 Standby", doc.Find("#abc-req-rc-11").Text())

	assert.Equal(t, 2, doc.Find("table.fields").Length())
	require.Equal(t, 1, doc.Find("table.loose-table").Length())
	assert.Equal(t, "Signal", doc.Find("table.loose-table th").First().Text())

	assert.Equal(t, 2, doc.Find(`a[href^="#abc-req-rc-1"]`).Length())
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "abc-req-rc-10", Anchor("ABC-REQ_RC-10"))
	assert.Equal(t, "srs-1", Anchor("  SRS-1 "))
}

func TestExportHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, format := range Formats() {
		e, err := New(format, DefaultOptions())
		require.NoError(t, err)
		err = e.Export(ctx, &bytes.Buffer{}, sampleRequirements())
		assert.ErrorIs(t, err, context.Canceled, format)
	}
}

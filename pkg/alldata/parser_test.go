package alldata

import (
	"bytes"
	"iter"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/memtensor/reqdocx/pkg/docx"
	"github.com/memtensor/reqdocx/pkg/docx/docxtest"
	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/logger"
	"github.com/memtensor/reqdocx/pkg/types"
)

func para(text string) *docx.Paragraph {
	return &docx.Paragraph{Text: text}
}

func blocks(bs ...docx.Block) iter.Seq[docx.Block] {
	return slices.Values(bs)
}

// kvTable is a record table with the minimum of recognized rows plus extras.
func kvTable(extra ...[]string) *docx.Table {
	rows := [][]string{
		{KeyStatus, "Approved"},
		{KeyProject, "Demo"},
		{KeyItemType, "Requirement"},
	}
	return table(append(rows, extra...)...)
}

func TestParseScenarioHeaderAndBackfill(t *testing.T) {
	p := New(Options{})
	reqs := p.Parse(blocks(
		para("1.1 ABC-REQ_RC-10 1.1 Power On"),
		table(
			[]string{KeyItemID, "ABC-REQ_RC-10"},
			[]string{KeyName, "Power On"},
			[]string{KeyRequirementDescription, "System shall power on"},
			[]string{KeyStatus, "Approved"},
			[]string{KeyProject, "Demo"},
		),
	))

	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "ABC-REQ_RC-10", req.Item)
	assert.Equal(t, "1.1", req.Heading)
	assert.Equal(t, "Power On", req.Name)
	assert.Equal(t, "System shall power on", req.Description)
	assert.Equal(t, "Approved", req.Status)
	assert.Equal(t, "Demo", req.Project)
	assert.Equal(t, types.VerificationUnassigned, req.PrimaryVerification)
	assert.True(t, req.Loose.IsEmpty())
	assert.NotNil(t, req.Loose.Paragraphs)
}

func TestParseScenarioFusedTable(t *testing.T) {
	p := New(Options{})
	reqs, stats := p.ParseWithStats(blocks(
		para("2 ABC-REQ_RC-11 Thermal Limits"),
		para("The unit shall stay below 85 C."),
		table(fusedRows()...),
	))

	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "ABC-REQ_RC-11", req.Item)
	assert.Equal(t, "Thermal Limits", req.Name)
	assert.Equal(t, "The unit shall stay below 85 C.", req.Description)
	assert.Equal(t, 2, req.DownstreamCount)
	assert.Equal(t, 1, req.LinkCount)
	assert.Equal(t, "Draft", req.Status)

	require.Len(t, req.Loose.Tables, 2)
	assert.Equal(t, "Interface Table", req.Loose.Tables[0].Title)
	assert.Equal(t, [][]string{{"Interface Table"}, {"Signal", "Direction"}}, req.Loose.Tables[0].Rows)
	assert.Empty(t, req.Loose.Tables[1].Title)
	assert.Len(t, req.Loose.Tables[1].Rows, 2)

	assert.Equal(t, Stats{
		Blocks: 3, Paragraphs: 2, Tables: 1, KVTables: 1, FusedTables: 2, Requirements: 1,
	}, stats)
}

func TestParseScenarioRejectedTableIsLoose(t *testing.T) {
	p := New(Options{})

	rejected := table(
		[]string{KeyStatus, "Draft"},
		[]string{KeyProject, "Demo"},
		[]string{"Voltage", "5 V"},
	)

	reqs, stats := p.ParseWithStats(blocks(para("ABC-REQ_RC-12 Rails"), rejected))
	assert.Empty(t, reqs)
	assert.Equal(t, 1, stats.LooseTables)
	assert.Equal(t, 0, stats.KVTables)

	reqs = p.Parse(blocks(
		para("ABC-REQ_RC-12 Rails"),
		para("Rails shall be monitored."),
		para("Rail limits"),
		rejected,
		kvTable(),
	))
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Loose.Tables, 1)
	assert.Equal(t, "Rail limits", reqs[0].Loose.Tables[0].Title)
	assert.Equal(t, [][]string{{KeyStatus, "Draft"}, {KeyProject, "Demo"}, {"Voltage", "5 V"}}, reqs[0].Loose.Tables[0].Rows)
	assert.Empty(t, reqs[0].Loose.Paragraphs, "stolen title must not remain a paragraph")
	assert.Equal(t, "Rails shall be monitored.", reqs[0].Description)
}

func TestParseScenarioDiscardWithoutHeader(t *testing.T) {
	p := New(Options{})
	reqs, stats := p.ParseWithStats(blocks(
		para("Introduction"),
		para("stray text"),
		kvTable(),
		para("ABC-REQ_RC-13 Later"),
		para("Later requirement text"),
		kvTable(),
	))

	assert.Equal(t, 1, stats.Discarded)
	require.Len(t, reqs, 1)
	assert.Equal(t, "ABC-REQ_RC-13", reqs[0].Item)
	assert.Equal(t, "Later requirement text", reqs[0].Description)
	assert.Empty(t, reqs[0].Loose.Paragraphs)
}

func TestParseHeaderPrecedence(t *testing.T) {
	p := New(Options{})
	reqs := p.Parse(blocks(
		para("ABC-REQ_RC-10 Power On"),
		para("Header description"),
		kvTable(
			[]string{KeyItemID, "ABC-REQ_RC-99"},
			[]string{KeyName, "Other Name"},
			[]string{KeyRequirementDescription, "Table description"},
		),
		para("ABC-REQ_RC-20"),
		kvTable([]string{KeyName, "Backfilled Name"}),
	))

	require.Len(t, reqs, 2)
	assert.Equal(t, "ABC-REQ_RC-10", reqs[0].Item)
	assert.Equal(t, "Power On", reqs[0].Name)
	assert.Equal(t, "Header description", reqs[0].Description)

	assert.Equal(t, "ABC-REQ_RC-20", reqs[1].Item)
	assert.Equal(t, "Backfilled Name", reqs[1].Name)
}

func TestParseTrailerSuppression(t *testing.T) {
	p := New(Options{})
	reqs := p.Parse(blocks(
		para("ABC-REQ_RC-1 First"),
		para("First text"),
		para("Attachments:"),
		para("wiring.pdf"),
		para("Notes follow:"),
		para("More detail"),
		kvTable(),
		para("Upstream: ABC-REQ_RC-0"),
		para("ABC-REQ_RC-2 Second"),
		para("Second text"),
		kvTable(),
	))

	require.Len(t, reqs, 2)
	assert.Equal(t, "First text", reqs[0].Description)
	assert.Equal(t, []string{"Notes follow:", "More detail"}, reqs[0].Loose.Paragraphs)
	assert.Equal(t, "ABC-REQ_RC-2", reqs[1].Item)
	assert.Equal(t, "Second text", reqs[1].Description)
	assert.Empty(t, reqs[1].Loose.Paragraphs)
}

func TestParseKVStyleParagraphsExcluded(t *testing.T) {
	p := New(Options{})
	reqs := p.Parse(blocks(
		para("ABC-REQ_RC-3 Wrapped"),
		para("Item ID\tABC-REQ_RC-3"),
		para("Status:\tApproved"),
		para("Real description"),
		kvTable(),
	))
	require.Len(t, reqs, 1)
	assert.Equal(t, "Real description", reqs[0].Description)
	assert.Empty(t, reqs[0].Loose.Paragraphs)
}

func TestParseNoLeakOfTableTitles(t *testing.T) {
	p := New(Options{})
	reqs := p.Parse(blocks(
		para("ABC-REQ_RC-4 Interfaces"),
		para("The unit exposes two interfaces."),
		para("interface table:"),
		para("Interface Table"),
		table(
			[]string{"Connector", "Pins"},
			[]string{"J1", "12"},
		),
		table(
			[]string{"Interface Table"},
			[]string{"Signal", "Level"},
		),
		kvTable(),
	))

	require.Len(t, reqs, 1)
	req := reqs[0]
	require.Len(t, req.Loose.Tables, 2)
	for _, tbl := range req.Loose.Tables {
		assert.Equal(t, "Interface Table", tbl.Title)
	}
	assert.Empty(t, req.Loose.Paragraphs)
}

func TestParseIsIdempotent(t *testing.T) {
	p := New(Options{})
	input := []docx.Block{
		para("1 ABC-REQ_RC-1 One"),
		para("one"),
		table(fusedRows()...),
		para("Tags:"),
		para("noise"),
		para("2 ABC-REQ_RC-2 Two"),
		para("two"),
		kvTable([]string{KeyVerificationMethod, "Test and Analysis"}),
	}

	first := p.Parse(blocks(input...))
	second := p.Parse(blocks(input...))
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, types.VerificationTest, first[1].PrimaryVerification)
}

func TestParseEmptyInput(t *testing.T) {
	reqs := New(Options{}).Parse(blocks())
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)
}

func TestParseCustomOptions(t *testing.T) {
	p := New(Options{
		ItemInfix: "SRS-",
		KnownKeys: DefaultKnownKeys().With("ASIL"),
	})
	reqs := p.Parse(blocks(
		para("PRJ-SRS-7 Braking"),
		table(
			[]string{"ASIL", "D"},
			[]string{KeyStatus, "Draft"},
			[]string{KeyProject, "Car"},
		),
	))
	require.Len(t, reqs, 1)
	assert.Equal(t, "PRJ-SRS-7", reqs[0].Item)
	assert.Equal(t, map[string]string{"ASIL": "D"}, reqs[0].Attributes)
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) OnBlock(index int, block docx.Block) {
	m.Called(index, block)
}

func (m *mockObserver) OnTable(index int, c Classification) {
	m.Called(index, c)
}

func (m *mockObserver) OnRequirement(req types.Requirement) {
	m.Called(req)
}

func (m *mockObserver) OnDiscard(index int, reason string) {
	m.Called(index, reason)
}

func TestParseNotifiesObserver(t *testing.T) {
	obs := &mockObserver{}
	obs.On("OnBlock", mock.AnythingOfType("int"), mock.Anything).Times(4)
	obs.On("OnTable", 0, mock.MatchedBy(func(c Classification) bool { return c.Accepted })).Once()
	obs.On("OnDiscard", 0, mock.AnythingOfType("string")).Once()
	obs.On("OnTable", 3, mock.MatchedBy(func(c Classification) bool { return c.Accepted })).Once()
	obs.On("OnRequirement", mock.MatchedBy(func(r types.Requirement) bool {
		return r.Item == "ABC-REQ_RC-5"
	})).Once()

	p := New(Options{Observer: obs})
	p.Parse(blocks(
		kvTable(),
		para("ABC-REQ_RC-5 Five"),
		para("five"),
		kvTable(),
	))

	obs.AssertExpectations(t)
}

func TestParseDebugDump(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriterLogger("debug", &buf)

	p := New(Options{DebugDump: true, Logger: log})
	p.Parse(blocks(
		para("ABC-REQ_RC-6 Six"),
		kvTable(),
		para("ABC-REQ_RC-7 Seven"),
		kvTable(),
	))

	out := buf.String()
	assert.Contains(t, out, "first requirement ABC-REQ_RC-6")
	assert.Contains(t, out, "accepted=true")
	assert.NotContains(t, out, "first requirement ABC-REQ_RC-7")

	// the dump is per call; a second parse dumps again
	buf.Reset()
	p.Parse(blocks(para("ABC-REQ_RC-8 Eight"), kvTable()))
	assert.Contains(t, buf.String(), "first requirement ABC-REQ_RC-8")
}

func TestParseFile(t *testing.T) {
	path := docxtest.New().
		Paragraph("1.1 ABC-REQ_RC-10 1.1 Power On").
		Sdt(func(b *docxtest.Builder) {
			b.Paragraph("The system shall power on within 2 s.")
		}).
		KV(
			KeyItemID, "ABC-REQ_RC-10",
			KeyStatus, "Approved",
			KeyVerificationMethod, "Test",
			KeyCreatedDate, "2024-03-05",
		).
		SectPr().
		WriteFile(t, "export.docx")

	p := New(Options{})
	reqs, stats, err := p.ParseFileWithStats(path)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "The system shall power on within 2 s.", reqs[0].Description)
	assert.Equal(t, types.VerificationTest, reqs[0].PrimaryVerification)
	require.NotNil(t, reqs[0].CreatedDate)
	assert.Equal(t, 3, stats.Blocks)

	again, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, reqs, again)
}

func TestParseFileErrors(t *testing.T) {
	p := New(Options{})

	_, err := p.ParseFile(filepath.Join(t.TempDir(), "missing.docx"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	noBody := docxtest.New().WithoutBody().WriteFile(t, "nobody.docx")
	reqs, err := p.ParseFile(noBody)
	require.NoError(t, err)
	assert.NotNil(t, reqs)
	assert.Empty(t, reqs)
}

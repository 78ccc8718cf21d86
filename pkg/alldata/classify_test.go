package alldata

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memtensor/reqdocx/pkg/docx"
	"github.com/memtensor/reqdocx/pkg/types"
)

func table(rows ...[]string) *docx.Table {
	t := &docx.Table{}
	for _, r := range rows {
		var row docx.Row
		for _, c := range r {
			row.Cells = append(row.Cells, docx.Cell{Text: c})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// recognizedRows returns n rows with distinct known labels that are not anchors.
func recognizedRows(n int) [][]string {
	labels := []string{
		KeyStatus, KeyProject, KeyItemType, KeyRelease, KeyPriority,
		KeyComponent, KeyNotes, KeySource, KeyVersion, KeyCreatedBy,
		KeyModifiedBy, KeyAllocation,
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, []string{labels[i], fmt.Sprintf("value %d", i)})
	}
	return rows
}

func TestClassifyTableThreshold(t *testing.T) {
	keys := DefaultKnownKeys()

	for _, n := range []int{0, 1, 2, 3, 10} {
		t.Run(fmt.Sprintf("%dRecognized", n), func(t *testing.T) {
			rows := append(recognizedRows(n),
				[]string{"Voltage", "5 V"},
				[]string{"Current", "2 A"},
			)
			c := ClassifyTable(table(rows...), keys, DefaultAnchors())

			assert.Equal(t, n, c.Matches)
			assert.Equal(t, n >= MinRecognizedKeys, c.Accepted)
			assert.Len(t, c.Pairs, n)
			assert.False(t, c.Anchored)
			assert.Empty(t, c.Fused)
		})
	}
}

func TestClassifyTableIgnoresNonTwoCellRows(t *testing.T) {
	c := ClassifyTable(table(
		[]string{KeyStatus, "Approved", "extra"},
		[]string{KeyProject},
		[]string{KeyItemType, "Requirement"},
		[]string{KeyRelease, "R1"},
	), DefaultKnownKeys(), DefaultAnchors())

	assert.Equal(t, 2, c.Matches)
	assert.False(t, c.Accepted)
	assert.Equal(t, [2]int{2, 3}, c.Window)
}

func TestClassifyTableWithoutCandidates(t *testing.T) {
	c := ClassifyTable(table([]string{"a", "b", "c"}, []string{"single"}), DefaultKnownKeys(), DefaultAnchors())
	assert.False(t, c.Accepted)
	assert.Equal(t, [2]int{-1, -1}, c.Window)
	assert.Nil(t, c.Pairs)

	empty := ClassifyTable(&docx.Table{}, DefaultKnownKeys(), DefaultAnchors())
	assert.False(t, empty.Accepted)
}

func TestClassifyTableLastDuplicateWins(t *testing.T) {
	c := ClassifyTable(table(
		[]string{KeyStatus, "Draft"},
		[]string{KeyProject, "Demo"},
		[]string{KeyStatus, "Approved"},
		[]string{KeyRelease, "R1"},
	), DefaultKnownKeys(), DefaultAnchors())

	require.True(t, c.Accepted)
	assert.Equal(t, 3, c.Matches)
	assert.Equal(t, "Approved", c.Pairs[KeyStatus])
}

func TestClassifyTableNormalizesCells(t *testing.T) {
	c := ClassifyTable(table(
		[]string{" Status: ", "Approved\u00a0 "},
		[]string{"Project", "Demo\u2013One"},
		[]string{"Release", "R1"},
	), DefaultKnownKeys(), DefaultAnchors())

	require.True(t, c.Accepted)
	assert.Equal(t, "Approved", c.Pairs[KeyStatus])
	assert.Equal(t, "Demo-One", c.Pairs[KeyProject])
}

func fusedRows() [][]string {
	return [][]string{
		{"Interface Table"},
		{"Signal", "Direction"},
		{"", ""},
		{KeyDownstreamCount, "2"},
		{KeyItemID, "ABC-REQ_RC-11"},
		{KeyStatus, "Draft"},
		{KeyLinkCount, "1"},
		{"Pin", "Voltage", "Notes"},
		{"P1", "5 V", "-"},
	}
}

func TestClassifyTableAnchoredWindow(t *testing.T) {
	c := ClassifyTable(table(fusedRows()...), DefaultKnownKeys(), DefaultAnchors())

	require.True(t, c.Accepted)
	assert.True(t, c.Anchored)
	assert.Equal(t, [2]int{3, 6}, c.Window)
	assert.Equal(t, 4, c.Matches)
	assert.NotContains(t, c.Pairs, "Signal")

	require.Len(t, c.Fused, 2)
	assert.Equal(t, types.LooseTable{
		Title: "Interface Table",
		Rows:  [][]string{{"Interface Table"}, {"Signal", "Direction"}},
	}, c.Fused[0])
	assert.Equal(t, types.LooseTable{
		Rows: [][]string{{"Pin", "Voltage", "Notes"}, {"P1", "5 V", "-"}},
	}, c.Fused[1])
}

func TestClassifyTableAnchorOrder(t *testing.T) {
	t.Run("EndBeforeStartIsNotFenced", func(t *testing.T) {
		c := ClassifyTable(table(
			[]string{"Signal", "Direction"},
			[]string{KeyLinkCount, "1"},
			[]string{KeyStatus, "Draft"},
			[]string{KeyDownstreamCount, "2"},
		), DefaultKnownKeys(), DefaultAnchors())

		assert.False(t, c.Anchored)
		assert.Equal(t, [2]int{0, 3}, c.Window)
		assert.True(t, c.Accepted)
		assert.Empty(t, c.Fused)
	})

	t.Run("StartWithoutEndIsNotFenced", func(t *testing.T) {
		c := ClassifyTable(table(
			[]string{"Title only"},
			[]string{KeyUpstreamCount, "0"},
			[]string{KeyStatus, "Draft"},
			[]string{KeyProject, "Demo"},
		), DefaultKnownKeys(), DefaultAnchors())

		assert.False(t, c.Anchored)
		assert.Equal(t, [2]int{1, 3}, c.Window)
		assert.Empty(t, c.Fused)
	})

	t.Run("CustomAnchors", func(t *testing.T) {
		c := ClassifyTable(table(
			[]string{"noise", "row"},
			[]string{KeyItemID, "X-REQ_RC-1"},
			[]string{KeyName, "n"},
			[]string{KeyStatus, "s"},
			[]string{"tail", "row"},
		), DefaultKnownKeys(), Anchors{Start: []string{KeyItemID}, End: []string{KeyStatus}})

		assert.True(t, c.Anchored)
		assert.Equal(t, [2]int{1, 3}, c.Window)
		assert.Len(t, c.Fused, 2)
	})
}

func TestSplitFused(t *testing.T) {
	keys := DefaultKnownKeys()
	rows := fusedRows()

	t.Run("EmptyRange", func(t *testing.T) {
		assert.Nil(t, SplitFused(rows, 3, 2, keys))
	})

	t.Run("AllBlankRange", func(t *testing.T) {
		assert.Nil(t, SplitFused(rows, 2, 2, keys))
	})

	t.Run("BlankRowsDropped", func(t *testing.T) {
		lt := SplitFused(rows, 1, 2, keys)
		require.NotNil(t, lt)
		assert.Equal(t, [][]string{{"Signal", "Direction"}}, lt.Rows)
		assert.Empty(t, lt.Title)
	})

	t.Run("KnownLabelIsNotTitle", func(t *testing.T) {
		lt := SplitFused([][]string{{KeyStatus}, {"a", "b"}}, 0, 1, keys)
		require.NotNil(t, lt)
		assert.Empty(t, lt.Title)
		assert.Len(t, lt.Rows, 2)
	})

	t.Run("RangeClamped", func(t *testing.T) {
		lt := SplitFused(rows, 7, 100, keys)
		require.NotNil(t, lt)
		assert.Len(t, lt.Rows, 2)
		assert.Equal(t, 3, lt.ColumnCount())
	})
}

package alldata

import (
	"github.com/memtensor/reqdocx/pkg/docx"
	"github.com/memtensor/reqdocx/pkg/textnorm"
	"github.com/memtensor/reqdocx/pkg/types"
)

// Classification is the verdict on one table.
type Classification struct {
	// Accepted is true when the window holds at least MinRecognizedKeys
	// distinct known labels.
	Accepted bool
	Pairs    KVBag
	Matches  int
	// Window is the inclusive row range searched for pairs, or {-1, -1}
	// when the table has no two-cell rows.
	Window   [2]int
	Anchored bool
	// Fused holds the rows outside an anchored window, split into at most
	// one table before and one after it.
	Fused []types.LooseTable
}

// normalizeRows returns the normalized cell texts of every row.
func normalizeRows(t *docx.Table) [][]string {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		cells := make([]string, len(r.Cells))
		for j, c := range r.Cells {
			cells[j] = textnorm.Normalize(c.Text)
		}
		rows[i] = cells
	}
	return rows
}

// ClassifyTable decides whether t is a requirement's key-value table.
//
// Only rows with exactly two cells are candidates. When a start anchor is
// followed by an end anchor, the window is fenced between them (inclusive)
// and the rows outside it become fused supporting tables; otherwise every
// candidate row is in the window. Later duplicates of a label win.
func ClassifyTable(t *docx.Table, keys KnownKeys, anchors Anchors) Classification {
	return classifyRows(normalizeRows(t), keys, anchors)
}

func classifyRows(rows [][]string, keys KnownKeys, anchors Anchors) Classification {
	c := Classification{Window: [2]int{-1, -1}}

	var candidates []int
	for i, r := range rows {
		if len(r) == 2 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return c
	}

	start, end := -1, -1
	for _, i := range candidates {
		if start < 0 && anchors.isStart(labelOf(rows[i][0])) {
			start = i
			continue
		}
		if start >= 0 && anchors.isEnd(labelOf(rows[i][0])) {
			end = i
			break
		}
	}

	if start >= 0 && end > start {
		c.Window = [2]int{start, end}
		c.Anchored = true
	} else {
		c.Window = [2]int{candidates[0], candidates[len(candidates)-1]}
	}

	c.Pairs = make(KVBag)
	for _, i := range candidates {
		if i < c.Window[0] || i > c.Window[1] {
			continue
		}
		label := labelOf(rows[i][0])
		if keys.Has(label) {
			c.Pairs[label] = rows[i][1]
		}
	}
	c.Matches = len(c.Pairs)
	c.Accepted = c.Matches >= MinRecognizedKeys

	if c.Anchored {
		if before := SplitFused(rows, 0, c.Window[0]-1, keys); before != nil {
			c.Fused = append(c.Fused, *before)
		}
		if after := SplitFused(rows, c.Window[1]+1, len(rows)-1, keys); after != nil {
			c.Fused = append(c.Fused, *after)
		}
	}

	return c
}

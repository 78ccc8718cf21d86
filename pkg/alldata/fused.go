package alldata

import (
	"github.com/memtensor/reqdocx/pkg/textnorm"
	"github.com/memtensor/reqdocx/pkg/types"
)

// SplitFused builds the supporting table for rows[from..to] (inclusive) of a
// fused table. Rows whose cells are all blank are dropped; nil is returned
// when nothing is left. A single-cell first row that is not a known label
// titles the table and stays in Rows.
func SplitFused(rows [][]string, from, to int, keys KnownKeys) *types.LooseTable {
	if from < 0 {
		from = 0
	}
	if to >= len(rows) {
		to = len(rows) - 1
	}
	if from > to {
		return nil
	}

	table := looseTable(rows[from:to+1], keys)
	if len(table.Rows) == 0 {
		return nil
	}
	return &table
}

// looseTable copies the non-blank rows and infers a title from a single-cell
// first row.
func looseTable(rows [][]string, keys KnownKeys) types.LooseTable {
	var table types.LooseTable
	for _, r := range rows {
		if isBlankRow(r) {
			continue
		}
		table.Rows = append(table.Rows, append([]string(nil), r...))
	}
	if len(table.Rows) > 0 && len(table.Rows[0]) == 1 {
		if first := table.Rows[0][0]; !keys.Has(labelOf(first)) {
			table.Title = first
		}
	}
	return table
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if !textnorm.IsBlank(c) {
			return false
		}
	}
	return true
}

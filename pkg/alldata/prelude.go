package alldata

import (
	"strings"

	"github.com/memtensor/reqdocx/pkg/textnorm"
	"github.com/memtensor/reqdocx/pkg/types"
)

// State is the mode of the prelude accumulator.
type State int

const (
	// StateScanning buffers every paragraph.
	StateScanning State = iota
	// StateSuppressingTrailer drops paragraphs until a header or a
	// colon-terminated line appears.
	StateSuppressingTrailer
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateSuppressingTrailer:
		return "suppressing_trailer"
	default:
		return "unknown"
	}
}

// preludeEntry is a buffered paragraph (Table == nil) or loose table.
type preludeEntry struct {
	Text  string
	Table *types.LooseTable
}

func (e preludeEntry) isParagraph() bool {
	return e.Table == nil
}

// preludeAccumulator buffers the blocks between two key-value tables.
type preludeAccumulator struct {
	matcher *Matcher
	state   State
	entries []preludeEntry
}

func newPreludeAccumulator(m *Matcher) *preludeAccumulator {
	return &preludeAccumulator{matcher: m, state: StateScanning}
}

// State returns the current mode.
func (a *preludeAccumulator) State() State {
	return a.state
}

// AddParagraph feeds one normalized paragraph and reports whether it was
// buffered. Blank lines are never buffered. A trailer label switches to
// suppression and is itself dropped; a header or colon-terminated line ends
// suppression and is kept.
func (a *preludeAccumulator) AddParagraph(line string) bool {
	if line == "" {
		return false
	}
	if IsTrailerLabel(line) {
		a.state = StateSuppressingTrailer
		return false
	}
	if a.state == StateSuppressingTrailer {
		if !a.matcher.MatchHeader(line).Matched() && !IsSectionBoundary(line) {
			return false
		}
		a.state = StateScanning
	}
	a.entries = append(a.entries, preludeEntry{Text: line})
	return true
}

// AddTable buffers a loose table in block order. Tables are never suppressed.
func (a *preludeAccumulator) AddTable(t types.LooseTable) {
	a.entries = append(a.entries, preludeEntry{Table: &t})
}

// StealTitle removes and returns the last buffered paragraph when it looks
// like the caption of a table that follows it. A trailing colon is dropped.
func (a *preludeAccumulator) StealTitle() (string, bool) {
	if len(a.entries) == 0 {
		return "", false
	}
	last := a.entries[len(a.entries)-1]
	if !last.isParagraph() || !a.matcher.LooksLikeTitle(last.Text) {
		return "", false
	}
	a.entries = a.entries[:len(a.entries)-1]
	return strings.TrimSpace(strings.TrimRight(last.Text, ":")), true
}

// Entries returns the buffered entries in order.
func (a *preludeAccumulator) Entries() []preludeEntry {
	return a.entries
}

// Reset clears the buffer and moves to next.
func (a *preludeAccumulator) Reset(next State) {
	a.entries = nil
	a.state = next
}

// Resolution is a prelude resolved against its header.
type Resolution struct {
	Header      HeaderMatch
	Description string
	Paragraphs  []string
	Tables      []types.LooseTable
}

// ResolvePrelude finds the last header in entries and partitions what
// follows it. It reports false when no header exists. Entries before the
// header are ignored.
//
// The description is the first line after the header that is neither a
// key-value line nor a list item. Every other remaining line is supporting
// text, deduplicated, without lines that repeat a table title.
func ResolvePrelude(entries []preludeEntry, m *Matcher) (Resolution, bool) {
	at := -1
	var header HeaderMatch
	for i := len(entries) - 1; i >= 0; i-- {
		if !entries[i].isParagraph() {
			continue
		}
		if hm := m.MatchHeader(entries[i].Text); hm.Matched() {
			at, header = i, hm
			break
		}
	}
	if at < 0 {
		return Resolution{}, false
	}

	res := Resolution{
		Header:     header,
		Paragraphs: []string{},
		Tables:     []types.LooseTable{},
	}

	var lines []string
	titles := make(map[string]bool)
	for _, e := range entries[at+1:] {
		if !e.isParagraph() {
			res.Tables = append(res.Tables, *e.Table)
			if key := textnorm.FoldTitle(e.Table.Title); key != "" {
				titles[key] = true
			}
			continue
		}
		if textnorm.IsBlank(e.Text) || m.IsKVStyleLine(e.Text) {
			continue
		}
		lines = append(lines, e.Text)
	}

	seen := make(map[string]bool)
	for _, line := range lines {
		if res.Description == "" && !IsBulletLine(line) {
			res.Description = line
			seen[line] = true
			continue
		}
		if seen[line] || titles[textnorm.FoldTitle(line)] {
			continue
		}
		seen[line] = true
		res.Paragraphs = append(res.Paragraphs, line)
	}

	return res, true
}

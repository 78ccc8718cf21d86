// Package textnorm canonicalizes text pulled out of Word documents.
//
// Exports frequently carry non-breaking spaces, typographic dashes and runs of
// mixed whitespace. Normalize folds all of these into a stable form while
// keeping tab characters, which separate "Key<TAB>Value" lines.
package textnorm

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const nbsp = '\u00a0'

// dashes maps every dash-like rune that has to become an ASCII hyphen.
var dashes = map[rune]bool{
	'\u2011': true, // non-breaking hyphen
	'\u2012': true, // figure dash
	'\u2013': true, // en dash
	'\u2014': true, // em dash
	'\u2212': true, // minus sign
}

func canonicalRune(r rune) rune {
	switch {
	case r == nbsp:
		return ' '
	case dashes[r]:
		return '-'
	}
	return r
}

// newTransformer is called per use; transform.Chain keeps internal state.
func newTransformer() transform.Transformer {
	return transform.Chain(norm.NFC, runes.Map(canonicalRune))
}

// Normalize returns s with NBSP replaced by space, dash variants replaced by
// "-", whitespace runs collapsed (to a tab when the run holds a tab, else to a
// single space) and the ends trimmed. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	mapped, _, err := transform.String(newTransformer(), s)
	if err != nil {
		mapped = strings.Map(canonicalRune, s)
	}

	return strings.TrimSpace(collapse(mapped))
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inRun, sawTab := false, false
	flush := func() {
		if !inRun {
			return
		}
		if sawTab {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		inRun, sawTab = false, false
	}

	for _, r := range s {
		if isSpace(r) {
			inRun = true
			if r == '\t' {
				sawTab = true
			}
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

// FoldTitle is the comparison key used to match table titles against
// paragraphs: normalized, trailing colons stripped, case-folded.
func FoldTitle(s string) string {
	s = strings.TrimRight(Normalize(s), ":")
	return strings.ToLower(strings.TrimSpace(s))
}

// IsBlank reports whether s normalizes to the empty string
func IsBlank(s string) bool {
	return Normalize(s) == ""
}

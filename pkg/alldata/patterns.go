package alldata

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MatchKind tags the result of a line predicate.
type MatchKind int

const (
	NoMatch MatchKind = iota
	Header
)

func (k MatchKind) String() string {
	if k == Header {
		return "header"
	}
	return "no_match"
}

// HeaderMatch is the parsed form of a requirement header line.
type HeaderMatch struct {
	Kind    MatchKind
	Item    string
	Heading string
	Name    string
}

// Matched reports whether the line was a header.
func (m HeaderMatch) Matched() bool {
	return m.Kind == Header
}

// maxTitleRunes bounds the length of a line that may title a loose table.
const maxTitleRunes = 80

var (
	bulletGlyphPattern   = regexp.MustCompile("^[\u2022\u25e6\u25aa\u2023\u00b7\u25cf\u25cb\u25a0\u25a1\u2043\uf0b7-]")
	numberedItemPattern  = regexp.MustCompile(`^\d+(?:\.\d+)*\.(?:\s|$)`)
	letteredItemPattern  = regexp.MustCompile(`^[A-Za-z]\)(?:\s|$)`)
	starredBulletPattern = regexp.MustCompile("^[*\u2022\uf0b7]\\s")
)

// Matcher owns the compiled patterns for one item infix and vocabulary.
type Matcher struct {
	header *regexp.Regexp
	keys   KnownKeys
}

// NewMatcher compiles the header pattern for infix. An empty infix selects
// DefaultItemInfix; a nil vocabulary selects DefaultKnownKeys.
func NewMatcher(infix string, keys KnownKeys) *Matcher {
	if infix == "" {
		infix = DefaultItemInfix
	}
	if keys == nil {
		keys = DefaultKnownKeys()
	}
	pattern := `^(?:(\d+(?:\.\d+)*)\.?\s+)?` +
		`(\S*?` + regexp.QuoteMeta(infix) + `\d+)` +
		`(?:\s+(\d+(?:\.\d+)*)\.?)?` +
		`(?::?\s+(?:[-:](?:\s+|$))?(.*?))?\s*$`
	return &Matcher{header: regexp.MustCompile(pattern), keys: keys}
}

// Keys returns the vocabulary the matcher checks key-value lines against.
func (m *Matcher) Keys() KnownKeys {
	return m.keys
}

// MatchHeader parses a normalized line as a requirement header. The heading
// is the number embedded after the item code, or else the leading outline
// number. A "-" or ":" between the code and the name is dropped.
func (m *Matcher) MatchHeader(line string) HeaderMatch {
	sub := m.header.FindStringSubmatch(line)
	if sub == nil {
		return HeaderMatch{Kind: NoMatch}
	}
	heading := sub[3]
	if heading == "" {
		heading = sub[1]
	}
	return HeaderMatch{
		Kind:    Header,
		Item:    sub[2],
		Heading: heading,
		Name:    strings.TrimSpace(sub[4]),
	}
}

// MatchKVLine splits a "Key<TAB>Value" or "Key:<TAB>Value" line whose key is
// in the vocabulary.
func (m *Matcher) MatchKVLine(line string) (key, value string, ok bool) {
	left, right, found := strings.Cut(line, "\t")
	if !found {
		return "", "", false
	}
	key = labelOf(left)
	if !m.keys.Has(key) {
		return "", "", false
	}
	return key, strings.TrimSpace(right), true
}

// IsKVStyleLine reports whether line is a key-value artifact of the export.
func (m *Matcher) IsKVStyleLine(line string) bool {
	_, _, ok := m.MatchKVLine(line)
	return ok
}

// LooksLikeTitle reports whether line could be the caption of the table that
// follows it: short, not a header, key-value line or list item, and not a
// sentence.
func (m *Matcher) LooksLikeTitle(line string) bool {
	if line == "" || utf8.RuneCountInString(line) > maxTitleRunes {
		return false
	}
	if strings.HasSuffix(line, ".") || IsTrailerLabel(line) || IsBulletLine(line) {
		return false
	}
	return !m.MatchHeader(line).Matched() && !m.IsKVStyleLine(line)
}

// IsBulletLine reports whether line starts like a list item.
func IsBulletLine(line string) bool {
	return bulletGlyphPattern.MatchString(line) ||
		numberedItemPattern.MatchString(line) ||
		letteredItemPattern.MatchString(line) ||
		starredBulletPattern.MatchString(line)
}

// IsTrailerLabel reports whether line is exactly one of TrailerLabels.
func IsTrailerLabel(line string) bool {
	return contains(TrailerLabels, line)
}

// IsSectionBoundary reports whether line is colon-terminated.
func IsSectionBoundary(line string) bool {
	return len(line) > 1 && strings.HasSuffix(line, ":")
}

package alldata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchHeader(t *testing.T) {
	m := NewMatcher("", nil)

	testCases := []struct {
		name string
		line string
		want HeaderMatch
	}{
		{
			name: "OutlineItemHeadingName",
			line: "1.1 ABC-REQ_RC-10 1.1 Power On",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-10", Heading: "1.1", Name: "Power On"},
		},
		{
			name: "OutlineOnlyBecomesHeading",
			line: "2.3 ABC-REQ_RC-7 Thermal Limits",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-7", Heading: "2.3", Name: "Thermal Limits"},
		},
		{
			name: "EmbeddedHeadingWins",
			line: "4 ABC-REQ_RC-7 4.2. Thermal",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-7", Heading: "4.2", Name: "Thermal"},
		},
		{
			name: "ItemOnly",
			line: "ABC-REQ_RC-123",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-123"},
		},
		{
			name: "TabSeparatedName",
			line: "ABC-REQ_RC-5\tStartup",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-5", Name: "Startup"},
		},
		{
			name: "DashSeparatedName",
			line: "ABC-REQ_RC-10 - Power On",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-10", Name: "Power On"},
		},
		{
			name: "ColonAfterItem",
			line: "1.1 ABC-REQ_RC-10: Power On",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-10", Heading: "1.1", Name: "Power On"},
		},
		{
			name: "DashAfterEmbeddedHeading",
			line: "ABC-REQ_RC-10 1.1 - Power On",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-10", Heading: "1.1", Name: "Power On"},
		},
		{
			name: "HyphenatedNameKept",
			line: "ABC-REQ_RC-10 Power-On Reset",
			want: HeaderMatch{Kind: Header, Item: "ABC-REQ_RC-10", Name: "Power-On Reset"},
		},
		{name: "KVLineIsNotHeader", line: "Item ID\tABC-REQ_RC-10", want: HeaderMatch{Kind: NoMatch}},
		{name: "MentionIsNotHeader", line: "See ABC-REQ_RC-10 for details", want: HeaderMatch{Kind: NoMatch}},
		{name: "MissingDigits", line: "ABC-REQ_RC-x Power", want: HeaderMatch{Kind: NoMatch}},
		{name: "WrongInfix", line: "1.1 ABC-SYS-10 Power", want: HeaderMatch{Kind: NoMatch}},
		{name: "Empty", line: "", want: HeaderMatch{Kind: NoMatch}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.MatchHeader(tc.line)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.Kind == Header, got.Matched())
		})
	}
}

func TestMatchHeaderCustomInfix(t *testing.T) {
	m := NewMatcher("SRS-", nil)
	assert.True(t, m.MatchHeader("3 PRJ-SRS-42 Braking").Matched())
	assert.False(t, m.MatchHeader("3 ABC-REQ_RC-42 Braking").Matched())
	assert.Equal(t, "header", Header.String())
	assert.Equal(t, "no_match", NoMatch.String())
}

func TestIsBulletLine(t *testing.T) {
	bullets := []string{
		"\u2022 first point",
		"\u25e6 nested",
		"- dashed",
		"-dashed",
		"1. step",
		"1.2. sub step",
		"a) option",
		"B) option",
		"* starred",
		"\uf0b7 symbol font bullet",
	}
	for _, line := range bullets {
		assert.True(t, IsBulletLine(line), "%q", line)
	}

	plain := []string{
		"The system shall power on.",
		"1.1 ABC-REQ_RC-10 Power On",
		"1.5V rail",
		"abc) not a bullet",
		"",
	}
	for _, line := range plain {
		assert.False(t, IsBulletLine(line), "%q", line)
	}
}

func TestMatchKVLine(t *testing.T) {
	m := NewMatcher("", nil)

	key, value, ok := m.MatchKVLine("Status\tApproved")
	assert.True(t, ok)
	assert.Equal(t, "Status", key)
	assert.Equal(t, "Approved", value)

	key, value, ok = m.MatchKVLine("Item ID:\tABC-REQ_RC-10")
	assert.True(t, ok)
	assert.Equal(t, "Item ID", key)
	assert.Equal(t, "ABC-REQ_RC-10", value)

	_, _, ok = m.MatchKVLine("Status: Approved")
	assert.False(t, ok, "no tab")

	_, _, ok = m.MatchKVLine("status\tApproved")
	assert.False(t, ok, "labels are case-sensitive")

	_, _, ok = m.MatchKVLine("Voltage\t5 V")
	assert.False(t, ok, "unknown label")

	assert.True(t, m.IsKVStyleLine("Name\tPower On"))
}

func TestTrailerAndBoundary(t *testing.T) {
	for _, l := range TrailerLabels {
		assert.True(t, IsTrailerLabel(l), l)
		assert.True(t, IsSectionBoundary(l), l)
	}
	assert.False(t, IsTrailerLabel("Tags"))
	assert.False(t, IsTrailerLabel("tags:"))

	assert.True(t, IsSectionBoundary("Operating modes:"))
	assert.False(t, IsSectionBoundary(":"))
	assert.False(t, IsSectionBoundary("Operating modes"))
}

func TestLooksLikeTitle(t *testing.T) {
	m := NewMatcher("", nil)

	assert.True(t, m.LooksLikeTitle("Interface Table"))
	assert.True(t, m.LooksLikeTitle("Operating modes:"))

	assert.False(t, m.LooksLikeTitle(""))
	assert.False(t, m.LooksLikeTitle("The unit shall report faults."))
	assert.False(t, m.LooksLikeTitle("1.1 ABC-REQ_RC-10 Power On"))
	assert.False(t, m.LooksLikeTitle("Status\tApproved"))
	assert.False(t, m.LooksLikeTitle("- bullet"))
	assert.False(t, m.LooksLikeTitle("Tags:"))

	long := ""
	for len(long) <= maxTitleRunes {
		long += "word "
	}
	assert.False(t, m.LooksLikeTitle(long))
}

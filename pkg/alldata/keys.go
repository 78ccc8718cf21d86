// Package alldata reconstructs requirement records from the block stream of
// an "All Data" Word export.
//
// Every requirement in such an export is a header paragraph (item code,
// optional heading number and a name), some narrative paragraphs and tables,
// and a two-column key-value table carrying the record's metadata. The parser
// buffers paragraphs and loose tables as a prelude, and when a key-value
// table is accepted it resolves the prelude into the header, description and
// supporting content of one requirement.
package alldata

import (
	"sort"
	"strings"

	"github.com/memtensor/reqdocx/pkg/textnorm"
)

// Field labels of the export. Labels are matched case-sensitively.
const (
	KeyItemID                 = "Item ID"
	KeyGlobalID               = "Global ID"
	KeyName                   = "Name"
	KeyRequirementDescription = "Requirement Description"
	KeyDescription            = "Description"
	KeyProject                = "Project"
	KeyItemType               = "Item Type"
	KeyStatus                 = "Status"
	KeyRelease                = "Release"
	KeyPriority               = "Priority"
	KeyAssignedTo             = "Assigned To"
	KeyComponent              = "Component"
	KeyRequirementType        = "Requirement Type"
	KeySafetyLevel            = "Safety Level"
	KeyCompliance             = "Compliance"
	KeyRationale              = "Rationale"
	KeyDerivedRationale       = "Derived Rationale"
	KeyAllocation             = "Allocation"
	KeyChangeDriver           = "Change Driver"
	KeySource                 = "Source"
	KeyNotes                  = "Notes"
	KeyAssumptions            = "Assumptions"
	KeyParentItem             = "Parent Item"
	KeySet                    = "Set"
	KeyLocation               = "Location"
	KeyVersion                = "Version"
	KeyCreatedBy              = "Created By"
	KeyModifiedBy             = "Modified By"
	KeyLockedBy               = "Locked By"
	KeyCreatedDate            = "Created Date"
	KeyModifiedDate           = "Modified Date"
	KeyLastActivityDate       = "Last Activity Date"
	KeyLockedDate             = "Locked Date"
	KeyUpstreamCount          = "# of Upstream Relationships"
	KeyDownstreamCount        = "# of Downstream Relationships"
	KeyLinkCount              = "# of Links"
	KeyAttachmentCount        = "# of Attachments"
	KeyCommentCount           = "# of Comments"
	KeyLocked                 = "Locked"
	KeyDerived                = "Derived"
	KeySafetyRelated          = "Safety Related"
	KeySecurityRelated        = "Security Related"
	KeyKeyCharacteristic      = "Key Characteristic"
	KeyVerificationMethod     = "Verification Method"
	KeyValidationMethod       = "Validation Method"
	KeyTags                   = "Tags"
)

// MinRecognizedKeys is the number of distinct known labels a table window
// needs before it is taken as a requirement's key-value table.
const MinRecognizedKeys = 3

// DefaultItemInfix is the token every item code ends with, before its digits.
const DefaultItemInfix = "REQ_RC-"

var defaultLabels = []string{
	KeyItemID, KeyGlobalID, KeyName, KeyRequirementDescription, KeyDescription,
	KeyProject, KeyItemType, KeyStatus, KeyRelease, KeyPriority, KeyAssignedTo,
	KeyComponent, KeyRequirementType, KeySafetyLevel, KeyCompliance, KeyRationale,
	KeyDerivedRationale, KeyAllocation, KeyChangeDriver, KeySource, KeyNotes,
	KeyAssumptions, KeyParentItem, KeySet, KeyLocation, KeyVersion, KeyCreatedBy,
	KeyModifiedBy, KeyLockedBy, KeyCreatedDate, KeyModifiedDate, KeyLastActivityDate,
	KeyLockedDate, KeyUpstreamCount, KeyDownstreamCount, KeyLinkCount,
	KeyAttachmentCount, KeyCommentCount, KeyLocked, KeyDerived, KeySafetyRelated,
	KeySecurityRelated, KeyKeyCharacteristic, KeyVerificationMethod,
	KeyValidationMethod, KeyTags,
}

// KnownKeys is the case-sensitive vocabulary of field labels.
type KnownKeys map[string]struct{}

// NewKnownKeys builds a vocabulary from labels. Labels are normalized.
func NewKnownKeys(labels ...string) KnownKeys {
	keys := make(KnownKeys, len(labels))
	for _, l := range labels {
		if l = textnorm.Normalize(l); l != "" {
			keys[l] = struct{}{}
		}
	}
	return keys
}

// DefaultKnownKeys returns the labels of a standard "All Data" export.
func DefaultKnownKeys() KnownKeys {
	return NewKnownKeys(defaultLabels...)
}

// Has reports whether label is in the vocabulary.
func (k KnownKeys) Has(label string) bool {
	_, ok := k[label]
	return ok
}

// Len returns the vocabulary size.
func (k KnownKeys) Len() int {
	return len(k)
}

// With returns a copy of k extended by extra labels.
func (k KnownKeys) With(extra ...string) KnownKeys {
	out := make(KnownKeys, len(k)+len(extra))
	for l := range k {
		out[l] = struct{}{}
	}
	for l := range NewKnownKeys(extra...) {
		out[l] = struct{}{}
	}
	return out
}

// Labels returns the vocabulary sorted.
func (k KnownKeys) Labels() []string {
	labels := make([]string, 0, len(k))
	for l := range k {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Anchors fence the key-value region of a fused table.
type Anchors struct {
	Start []string
	End   []string
}

// DefaultAnchors returns the sentinel labels used by "All Data" exports.
func DefaultAnchors() Anchors {
	return Anchors{
		Start: []string{KeyDownstreamCount, KeyUpstreamCount},
		End:   []string{KeyLinkCount, KeyLastActivityDate},
	}
}

func (a Anchors) isStart(label string) bool { return contains(a.Start, label) }
func (a Anchors) isEnd(label string) bool   { return contains(a.End, label) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// TrailerLabels are standalone paragraphs after which the export emits
// relationship and attachment metadata as loose paragraphs.
var TrailerLabels = []string{
	"Tags:",
	"Attachments:",
	"Relationships:",
	"Upstream Relationships:",
	"Downstream Relationships:",
	"Links:",
	"Comments:",
	"Connected Users:",
}

// KVBag maps recognized labels to their value text.
type KVBag map[string]string

// Get returns the value for label and whether it was present.
func (b KVBag) Get(label string) (string, bool) {
	v, ok := b[label]
	return v, ok
}

// Labels returns the labels of the bag sorted.
func (b KVBag) Labels() []string {
	labels := make([]string, 0, len(b))
	for l := range b {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// labelOf is the vocabulary form of a label cell: normalized, with one
// trailing colon removed.
func labelOf(cell string) string {
	return strings.TrimSpace(strings.TrimSuffix(textnorm.Normalize(cell), ":"))
}

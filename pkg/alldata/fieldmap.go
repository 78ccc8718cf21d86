package alldata

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/memtensor/reqdocx/pkg/types"
)

var stringFields = map[string]func(*types.Requirement) *string{
	KeyGlobalID:         func(r *types.Requirement) *string { return &r.GlobalID },
	KeyProject:          func(r *types.Requirement) *string { return &r.Project },
	KeyItemType:         func(r *types.Requirement) *string { return &r.ItemType },
	KeyStatus:           func(r *types.Requirement) *string { return &r.Status },
	KeyRelease:          func(r *types.Requirement) *string { return &r.Release },
	KeyPriority:         func(r *types.Requirement) *string { return &r.Priority },
	KeyAssignedTo:       func(r *types.Requirement) *string { return &r.Owner },
	KeyComponent:        func(r *types.Requirement) *string { return &r.Component },
	KeyRequirementType:  func(r *types.Requirement) *string { return &r.RequirementType },
	KeySafetyLevel:      func(r *types.Requirement) *string { return &r.SafetyLevel },
	KeyCompliance:       func(r *types.Requirement) *string { return &r.Compliance },
	KeyRationale:        func(r *types.Requirement) *string { return &r.Rationale },
	KeyDerivedRationale: func(r *types.Requirement) *string { return &r.DerivedRationale },
	KeyAllocation:       func(r *types.Requirement) *string { return &r.Allocation },
	KeyChangeDriver:     func(r *types.Requirement) *string { return &r.ChangeDriver },
	KeySource:           func(r *types.Requirement) *string { return &r.Source },
	KeyNotes:            func(r *types.Requirement) *string { return &r.Notes },
	KeyAssumptions:      func(r *types.Requirement) *string { return &r.Assumptions },
	KeyParentItem:       func(r *types.Requirement) *string { return &r.ParentItem },
	KeySet:              func(r *types.Requirement) *string { return &r.Set },
	KeyLocation:         func(r *types.Requirement) *string { return &r.Location },
	KeyVersion:          func(r *types.Requirement) *string { return &r.Version },
	KeyCreatedBy:        func(r *types.Requirement) *string { return &r.CreatedBy },
	KeyModifiedBy:       func(r *types.Requirement) *string { return &r.ModifiedBy },
	KeyLockedBy:         func(r *types.Requirement) *string { return &r.LockedBy },
}

var intFields = map[string]func(*types.Requirement) *int{
	KeyUpstreamCount:   func(r *types.Requirement) *int { return &r.UpstreamCount },
	KeyDownstreamCount: func(r *types.Requirement) *int { return &r.DownstreamCount },
	KeyLinkCount:       func(r *types.Requirement) *int { return &r.LinkCount },
	KeyAttachmentCount: func(r *types.Requirement) *int { return &r.AttachmentCount },
	KeyCommentCount:    func(r *types.Requirement) *int { return &r.CommentCount },
}

var dateFields = map[string]func(*types.Requirement) **time.Time{
	KeyCreatedDate:      func(r *types.Requirement) **time.Time { return &r.CreatedDate },
	KeyModifiedDate:     func(r *types.Requirement) **time.Time { return &r.ModifiedDate },
	KeyLastActivityDate: func(r *types.Requirement) **time.Time { return &r.LastActivityDate },
	KeyLockedDate:       func(r *types.Requirement) **time.Time { return &r.LockedDate },
}

var boolFields = map[string]func(*types.Requirement) *bool{
	KeyLocked:            func(r *types.Requirement) *bool { return &r.Locked },
	KeyDerived:           func(r *types.Requirement) *bool { return &r.Derived },
	KeySafetyRelated:     func(r *types.Requirement) *bool { return &r.SafetyRelated },
	KeySecurityRelated:   func(r *types.Requirement) *bool { return &r.SecurityRelated },
	KeyKeyCharacteristic: func(r *types.Requirement) *bool { return &r.KeyCharacteristic },
}

// dateLayouts are tried in order before the lenient pass.
var dateLayouts = []string{
	"01/02/2006 03:04 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006 03:04:05 PM",
	"1/2/2006 3:04:05 PM",
	"01/02/2006 15:04",
	"1/2/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Jan 02, 2006 03:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2 Jan 2006",
}

// lenientLayouts run after commas, trailing zone names and repeated spaces
// have been stripped.
var lenientLayouts = []string{
	"Jan 2 2006 3:04:05 PM",
	"Jan 2 2006 3:04 PM",
	"Jan 2 2006 15:04",
	"Jan 2 2006",
	"January 2 2006",
	"Monday January 2 2006",
	"Mon Jan 2 2006",
	"2 January 2006",
	"2006/01/02",
	"2006/1/2",
	"2.1.2006",
	"02.01.2006",
}

var (
	multiValueSeparator = regexp.MustCompile(`(?i)\s*(?:,|;|/|\band\b)\s*`)
	tagSeparator        = regexp.MustCompile(`\s*[,;]\s*`)
	trailingZone        = regexp.MustCompile(`\s+[A-Z]{2,5}$`)
)

// MapFields fills req from bag. Item, Name and Description are only set when
// empty, so header values take precedence. Unparseable values fall back to
// the field's zero value; recognized labels without a dedicated field are
// kept in Attributes.
func MapFields(req *types.Requirement, bag KVBag) {
	for label, value := range bag {
		switch {
		case label == KeyItemID:
			backfill(&req.Item, value)
		case label == KeyName:
			backfill(&req.Name, value)
		case label == KeyRequirementDescription:
			backfill(&req.Description, value)
		case label == KeyDescription:
			// the explicit requirement description label wins
			if _, ok := bag[KeyRequirementDescription]; !ok {
				backfill(&req.Description, value)
			}
		case label == KeyVerificationMethod:
			req.VerificationMethods = parseVerificationMethods(value)
		case label == KeyValidationMethod:
			req.ValidationMethods = parseValidationMethods(value)
		case label == KeyTags:
			req.Tags = splitTags(value)
		case stringFields[label] != nil:
			*stringFields[label](req) = value
		case intFields[label] != nil:
			*intFields[label](req) = parseCount(value)
		case dateFields[label] != nil:
			*dateFields[label](req) = ParseDate(value)
		case boolFields[label] != nil:
			*boolFields[label](req) = parseFlag(value)
		default:
			if req.Attributes == nil {
				req.Attributes = make(map[string]string)
			}
			req.Attributes[label] = value
		}
	}

	req.PrimaryVerification = types.VerificationUnassigned
	if len(req.VerificationMethods) > 0 {
		req.PrimaryVerification = req.VerificationMethods[0]
	}
}

func backfill(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func parseCount(value string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(value), ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "1", "x", "checked":
		return true
	}
	return false
}

// ParseDate parses a date in any of the layouts seen in exports. It returns
// nil when nothing matches.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}

	lenient := strings.ReplaceAll(value, ",", " ")
	if zone := trailingZone.FindString(lenient); zone != "" && !isMeridiem(zone) {
		lenient = strings.TrimSuffix(lenient, zone)
	}
	lenient = strings.Join(strings.Fields(lenient), " ")
	for _, layout := range lenientLayouts {
		if t, err := time.Parse(layout, lenient); err == nil {
			return &t
		}
	}
	return nil
}

func isMeridiem(s string) bool {
	s = strings.TrimSpace(s)
	return s == "AM" || s == "PM"
}

// SplitMultiValue tokenizes on commas, semicolons, slashes and the word
// "and", dropping empty tokens.
func SplitMultiValue(value string) []string {
	var tokens []string
	for _, tok := range multiValueSeparator.Split(value, -1) {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func parseVerificationMethods(value string) []types.VerificationMethod {
	var methods []types.VerificationMethod
	seen := make(map[types.VerificationMethod]bool)
	for _, tok := range SplitMultiValue(value) {
		if m, ok := types.ParseVerificationMethod(tok); ok && !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}
	return methods
}

func parseValidationMethods(value string) []types.ValidationMethod {
	var methods []types.ValidationMethod
	seen := make(map[types.ValidationMethod]bool)
	for _, tok := range SplitMultiValue(value) {
		if m, ok := types.ParseValidationMethod(tok); ok && !seen[m] {
			seen[m] = true
			methods = append(methods, m)
		}
	}
	return methods
}

// splitTags splits on commas and semicolons only; tags are free text and
// may contain "and" or "/".
func splitTags(value string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, tok := range tagSeparator.Split(value, -1) {
		if tok = strings.TrimSpace(tok); tok == "" {
			continue
		}
		key := strings.ToLower(tok)
		if !seen[key] {
			seen[key] = true
			tags = append(tags, tok)
		}
	}
	return tags
}

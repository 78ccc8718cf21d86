package docx

import (
	"strings"
	"time"
)

// Properties are the core document properties from docProps/core.xml.
type Properties struct {
	Title          string     `json:"title,omitempty" yaml:"title,omitempty"`
	Subject        string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Creator        string     `json:"creator,omitempty" yaml:"creator,omitempty"`
	LastModifiedBy string     `json:"last_modified_by,omitempty" yaml:"last_modified_by,omitempty"`
	Created        *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Modified       *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// IsZero reports whether no property was set.
func (p Properties) IsZero() bool {
	return p.Title == "" && p.Subject == "" && p.Creator == "" &&
		p.LastModifiedBy == "" && p.Created == nil && p.Modified == nil
}

func parseProperties(root *node) Properties {
	var props Properties
	for _, c := range root.Children {
		if c.IsText {
			continue
		}
		value := strings.TrimSpace(textOf(c))
		switch c.Name {
		case "title":
			props.Title = value
		case "subject":
			props.Subject = value
		case "creator":
			props.Creator = value
		case "lastModifiedBy":
			props.LastModifiedBy = value
		case "created":
			props.Created = parseW3CDate(value)
		case "modified":
			props.Modified = parseW3CDate(value)
		}
	}
	return props
}

func textOf(n *node) string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.IsText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

func parseW3CDate(s string) *time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

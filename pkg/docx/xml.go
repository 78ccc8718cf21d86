package docx

import (
	"encoding/xml"
	"io"
	"strings"
)

// WordprocessingML namespace of document.xml elements.
const wmlNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// node is a minimal element tree of document.xml. Text nodes carry Text and
// no name.
type node struct {
	Name     string
	Space    string
	Attr     []xml.Attr
	Children []*node
	Text     string
	IsText   bool
}

// is reports whether n is the WordprocessingML element local. Elements from
// other namespaces (drawing, math, vml) never match.
func (n *node) is(local string) bool {
	return !n.IsText && n.Name == local && (n.Space == wmlNamespace || n.Space == "")
}

func (n *node) attr(local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (n *node) child(local string) *node {
	for _, c := range n.Children {
		if c.is(local) {
			return c
		}
	}
	return nil
}

// parseTree decodes r into a node tree and returns its root element.
func parseTree(r io.Reader) (*node, error) {
	decoder := xml.NewDecoder(r)
	var stack []*node
	var root *node

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			n := &node{Name: t.Name.Local, Space: t.Name.Space, Attr: t.Attr}
			if len(stack) == 0 {
				if root == nil {
					root = n
				}
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 || len(t) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &node{IsText: true, Text: string(t)})
		}
	}

	return root, nil
}

// wrappers are block-level containers whose content is flattened in place.
var wrappers = map[string]bool{
	"sdt":        true,
	"sdtContent": true,
	"customXml":  true,
	"smartTag":   true,
	"ins":        true,
	"moveTo":     true,
}

// skipped subtrees never contribute run text.
var skipped = map[string]bool{
	"pPr":       true,
	"rPr":       true,
	"tcPr":      true,
	"trPr":      true,
	"tblPr":     true,
	"tblGrid":   true,
	"sdtPr":     true,
	"sdtEndPr":  true,
	"del":       true,
	"moveFrom":  true,
	"delText":   true,
	"instrText": true,
}

// runText concatenates the visible text below n: w:t content, w:tab as a tab
// character, w:br and w:cr as newlines, w:noBreakHyphen as U+2011.
func runText(n *node, b *strings.Builder) {
	for _, c := range n.Children {
		if c.IsText {
			continue
		}
		if c.Space != wmlNamespace && c.Space != "" {
			continue
		}
		switch {
		case skipped[c.Name]:
		case c.Name == "t":
			for _, tc := range c.Children {
				if tc.IsText {
					b.WriteString(tc.Text)
				}
			}
		case c.Name == "tab" || c.Name == "ptab":
			b.WriteByte('\t')
		case c.Name == "br" || c.Name == "cr":
			b.WriteByte('\n')
		case c.Name == "noBreakHyphen":
			b.WriteRune('\u2011')
		case c.Name == "softHyphen":
		default:
			runText(c, b)
		}
	}
}

// Package preview renders file nodes for display: markdown to HTML, text as
// escaped preformatted HTML and images as image tags. It also builds the
// properties sheet shown by the properties viewer.
package preview

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	goldtext "github.com/yuin/goldmark/text"

	"webdesk/pkg/vfs"
)

// Kind tells the client how to display a preview.
type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindArchive  Kind = "archive"
	KindBinary   Kind = "binary"
	KindFolder   Kind = "folder"
)

// Heading is one entry of a markdown outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// Preview is a rendered node.
type Preview struct {
	Kind     Kind          `json:"kind"`
	Title    string        `json:"title"`
	HTML     template.HTML `json:"html"`
	Headings []Heading     `json:"headings,omitempty"`
}

var md = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// Render renders n for display.
func Render(n *vfs.Node) (*Preview, error) {
	if n == nil {
		return nil, fmt.Errorf("preview: nil node")
	}
	p := &Preview{Title: n.Name}

	switch {
	case n.IsFolder():
		p.Kind = KindFolder
		p.HTML = template.HTML(fmt.Sprintf("<p>%d items</p>", len(n.Children)))
	case n.MimeType == vfs.MimeMarkdown:
		out, headings, err := renderMarkdown(n.Content)
		if err != nil {
			return nil, err
		}
		p.Kind = KindMarkdown
		p.HTML = out
		p.Headings = headings
	case vfs.IsImageMime(n.MimeType):
		p.Kind = KindImage
		p.HTML = template.HTML(fmt.Sprintf(`<img src="%s" alt="%s">`, html.EscapeString(n.Content), html.EscapeString(n.Name)))
	case n.MimeType == vfs.MimeZip || vfs.IsZipName(n.Name):
		p.Kind = KindArchive
		p.HTML = template.HTML("<p>Zip archive, " + humanize.Bytes(uint64(max(n.Size, 0))) + "</p>")
	case strings.HasPrefix(n.MimeType, "text/") || n.MimeType == vfs.MimeJSON || vfs.IsTextName(n.Name):
		p.Kind = KindText
		p.HTML = template.HTML("<pre>" + html.EscapeString(n.Content) + "</pre>")
	default:
		p.Kind = KindBinary
		p.HTML = template.HTML("<p>Binary file, " + humanize.Bytes(uint64(max(n.Size, 0))) + "</p>")
	}
	return p, nil
}

func renderMarkdown(src string) (template.HTML, []Heading, error) {
	source := []byte(src)
	doc := md.Parser().Parse(goldtext.NewReader(source))

	var headings []Heading
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: headingText(h, source)}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				heading.ID = string(b)
			}
		}
		headings = append(headings, heading)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("preview: walk markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, doc); err != nil {
		return "", nil, fmt.Errorf("preview: render markdown: %w", err)
	}
	return template.HTML(buf.String()), headings, nil
}

func headingText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(headingText(c, source))
	}
	return b.String()
}

// Properties is the properties sheet of a node.
type Properties struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mimeType,omitempty"`
	Size      string    `json:"size"`
	Bytes     int64     `json:"bytes"`
	Items     int       `json:"items,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Created   string    `json:"created"`
	InTrash   bool      `json:"inTrash,omitempty"`
}

// PropertiesOf builds the properties sheet of the node id. Folder sizes are
// the sum of the files below them.
func PropertiesOf(root *vfs.Node, id string, now time.Time) (*Properties, bool) {
	n := vfs.FindByID(root, id)
	if n == nil {
		return nil, false
	}

	var total int64
	items := 0
	n.Walk(func(c *vfs.Node, depth int) bool {
		if c.IsFile() {
			total += c.Size
		}
		if depth > 0 {
			items++
		}
		return true
	})

	typ := "File"
	if n.IsFolder() {
		typ = "Folder"
	}
	return &Properties{
		Name:      n.Name,
		Type:      typ,
		Path:      vfs.PathString(root, id),
		MimeType:  n.MimeType,
		Size:      humanize.Bytes(uint64(max(total, 0))),
		Bytes:     total,
		Items:     items,
		CreatedAt: n.CreatedAt,
		Created:   humanize.RelTime(n.CreatedAt, now, "ago", "from now"),
		InTrash:   vfs.InTrash(root, id) && id != vfs.TrashID,
	}, true
}

package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// their own lines so the section detector sees them without the # markers.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	b := newBuilder(titleFromFilename(filename))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.block(string(node.Text(src)))
		case *ast.ThematicBreak:
		default:
			b.block(extractText(n, src))
		}
	}
	return b.document(), nil
}

// extractText gets the text content of a goldmark AST node. Leaf blocks such
// as code blocks carry their text as lines; everything else is built from
// inline children.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		s := extractText(c, src)
		if c.Type() == ast.TypeBlock && buf.Len() > 0 && s != "" {
			buf.WriteByte('\n')
		}
		buf.WriteString(s)
	}
	return strings.TrimSpace(buf.String())
}

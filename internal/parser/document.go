package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// builder accumulates blocks of text into a Document. Every block is NFC
// normalized before it is written so recorded page offsets match the final
// text.
type builder struct {
	title     string
	buf       strings.Builder
	pages     []doctree.Page
	pageStart int
	paginated bool
}

func newBuilder(title string) *builder {
	return &builder{title: title}
}

// block appends a heading or paragraph, separated from the previous block on
// the same page by a blank line.
func (b *builder) block(s string) {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return
	}
	if b.buf.Len() > b.pageStart {
		b.buf.WriteString("\n\n")
	}
	b.buf.WriteString(s)
}

// line appends s and a newline without trimming.
func (b *builder) line(s string) {
	b.buf.WriteString(norm.NFC.String(s))
	b.buf.WriteByte('\n')
}

// raw appends s as-is.
func (b *builder) raw(s string) {
	b.buf.WriteString(norm.NFC.String(s))
}

// pageBreak closes the current page with a form feed.
func (b *builder) pageBreak() {
	b.paginated = true
	b.buf.WriteByte('\f')
	b.pages = append(b.pages, doctree.Page{Number: len(b.pages) + 1, Start: b.pageStart, End: b.buf.Len()})
	b.pageStart = b.buf.Len()
}

func (b *builder) document() *doctree.Document {
	doc := &doctree.Document{Title: b.title, Text: b.buf.String()}
	if b.paginated {
		doc.Pages = append(b.pages, doctree.Page{Number: len(b.pages) + 1, Start: b.pageStart, End: b.buf.Len()})
	}
	return doc
}

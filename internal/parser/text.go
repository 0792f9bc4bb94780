package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// TextParser handles plain text files. Paragraphs are separated by blank
// lines and a form feed starts a new page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := newBuilder(titleFromFilename(filename))
	var current strings.Builder
	flush := func() {
		b.block(current.String())
		current.Reset()
	}

	for scanner.Scan() {
		for i, line := range strings.Split(scanner.Text(), "\f") {
			if i > 0 {
				flush()
				b.pageBreak()
			}
			if strings.TrimSpace(line) == "" {
				flush()
				continue
			}
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(strings.TrimRight(line, "\r"))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return b.document(), nil
}

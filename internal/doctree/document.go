package doctree

import "sort"

// Document is the flat text of a parsed file plus the byte span of each page.
type Document struct {
	Title string `json:"title" yaml:"title"`
	Text  string `json:"-" yaml:"-"`
	Pages []Page `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// Page is the [Start, End) span of one page within Document.Text.
type Page struct {
	Number int `json:"number" yaml:"number"`
	Start  int `json:"start" yaml:"start"`
	End    int `json:"end" yaml:"end"`
}

// PageAt returns the 1-based page number containing pos, or 0 when the
// document carries no page information.
func (d *Document) PageAt(pos int) int {
	if len(d.Pages) == 0 {
		return 0
	}
	i := sort.Search(len(d.Pages), func(i int) bool { return d.Pages[i].End > pos })
	if i == len(d.Pages) {
		return d.Pages[len(d.Pages)-1].Number
	}
	return d.Pages[i].Number
}

// AnnotatePages fills page ranges on chunks and captions in place.
func (d *Document) AnnotatePages(chunks []Chunk, captions []TableCaption) {
	if len(d.Pages) == 0 {
		return
	}
	for i := range chunks {
		chunks[i].PageStart = d.PageAt(chunks[i].StartIndex)
		last := chunks[i].EndIndex - 1
		if last < chunks[i].StartIndex {
			last = chunks[i].StartIndex
		}
		chunks[i].PageEnd = d.PageAt(last)
	}
	for i := range captions {
		captions[i].PageNumber = d.PageAt(captions[i].Position)
	}
}

package doctree

// Section is a named region of a document with start/end byte offsets.
type Section struct {
	Name           string `json:"name" yaml:"name"`                                           // Canonical label, e.g. "Methods"
	OriginalHeader string `json:"original_header" yaml:"original_header"`                     // Header line as written
	StartIndex     int    `json:"start_index" yaml:"start_index"`
	EndIndex       int    `json:"end_index" yaml:"end_index"`
	Level          int    `json:"level" yaml:"level"`                                         // 1 = top-level
	SectionNumber  string `json:"section_number,omitempty" yaml:"section_number,omitempty"`   // e.g. "2.1"
	ParentSection  string `json:"parent_section,omitempty" yaml:"parent_section,omitempty"`   // Nearest preceding level-1 name
}

// Len returns the number of bytes the section covers.
func (s Section) Len() int {
	return s.EndIndex - s.StartIndex
}

// ContentType is the coarse classification used to adapt chunk sizing.
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentTable      ContentType = "table"
	ContentFigure     ContentType = "figure"
	ContentReferences ContentType = "references"
	ContentMixed      ContentType = "mixed"
)

// Chunk is a sized, offset-addressed slice of document text.
type Chunk struct {
	Text        string      `json:"text" yaml:"text"`
	StartIndex  int         `json:"start_index" yaml:"start_index"`
	EndIndex    int         `json:"end_index" yaml:"end_index"`
	ChunkNumber int         `json:"chunk_number" yaml:"chunk_number"`
	TokenCount  int         `json:"token_count" yaml:"token_count"`
	ContentType ContentType `json:"content_type" yaml:"content_type"`
	Section     string      `json:"section,omitempty" yaml:"section,omitempty"`
	PageStart   int         `json:"page_start,omitempty" yaml:"page_start,omitempty"`
	PageEnd     int         `json:"page_end,omitempty" yaml:"page_end,omitempty"`
}

// PaperType classifies a document from the sections it contains.
type PaperType string

const (
	PaperResearch         PaperType = "research"
	PaperCaseReport       PaperType = "case_report"
	PaperSystematicReview PaperType = "systematic_review"
	PaperMetaAnalysis     PaperType = "meta_analysis"
	PaperUnknown          PaperType = "unknown"
)

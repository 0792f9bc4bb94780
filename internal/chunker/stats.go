package chunker

import "github.com/dgallion1/docstruct/internal/doctree"

// Stats summarizes a chunk list.
type Stats struct {
	Count         int                         `json:"count" yaml:"count"`
	TotalTokens   int                         `json:"total_tokens" yaml:"total_tokens"`
	AvgTokens     float64                     `json:"avg_tokens" yaml:"avg_tokens"`
	MinTokens     int                         `json:"min_tokens" yaml:"min_tokens"`
	MaxTokens     int                         `json:"max_tokens" yaml:"max_tokens"`
	ByContentType map[doctree.ContentType]int `json:"by_content_type" yaml:"by_content_type"`
}

// Summarize computes token statistics for chunks.
func Summarize(chunks []doctree.Chunk) Stats {
	s := Stats{Count: len(chunks), ByContentType: make(map[doctree.ContentType]int)}
	for i, c := range chunks {
		s.TotalTokens += c.TokenCount
		if i == 0 || c.TokenCount < s.MinTokens {
			s.MinTokens = c.TokenCount
		}
		if c.TokenCount > s.MaxTokens {
			s.MaxTokens = c.TokenCount
		}
		s.ByContentType[c.ContentType]++
	}
	if s.Count > 0 {
		s.AvgTokens = float64(s.TotalTokens) / float64(s.Count)
	}
	return s
}

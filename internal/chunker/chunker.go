package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// Config controls chunking behavior. Sizes are in estimated tokens.
type Config struct {
	MaxChunkSize    int  `json:"max_chunk_size" yaml:"max_chunk_size"`       // Target chunk size before adaptive scaling.
	OverlapSize     int  `json:"overlap_size" yaml:"overlap_size"`           // Overlap between consecutive chunks.
	MinChunkSize    int  `json:"min_chunk_size" yaml:"min_chunk_size"`       // Smaller non-final chunks are not emitted on their own.
	RespectSections bool `json:"respect_sections" yaml:"respect_sections"`   // Never let a chunk cross a section boundary.
	AdaptiveSizing  bool `json:"adaptive_sizing" yaml:"adaptive_sizing"`     // Scale the target by content type.
	MergeUndersized bool `json:"merge_undersized" yaml:"merge_undersized"`   // Fold undersized chunks into a neighbor instead of dropping them.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:    1000,
		OverlapSize:     200,
		MinChunkSize:    100,
		RespectSections: true,
		AdaptiveSizing:  true,
	}
}

func (c Config) normalize() Config {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultConfig().MaxChunkSize
	}
	if c.OverlapSize < 0 {
		c.OverlapSize = 0
	}
	if c.MinChunkSize < 0 {
		c.MinChunkSize = 0
	}
	return c
}

// Chunk splits text into ordered chunks. Sections, when given, must be
// ordered and non-overlapping; they label each chunk and, with
// RespectSections, bound it.
func Chunk(text string, sections []doctree.Section, cfg Config) []doctree.Chunk {
	cfg = cfg.normalize()
	if text == "" {
		return nil
	}

	var (
		chunks  []doctree.Chunk
		n       = len(text)
		pos     = 0
		pending = -1 // start of an undersized leading chunk waiting to be merged forward
	)

	for pos < n {
		ct := DetectContentType(text[pos:advance(text, pos, SampleChars)])
		budget := cfg.budgetChars(ct)
		end := advance(text, pos, budget)

		clamped := false
		if cfg.RespectSections {
			if b, ok := boundary(sections, pos); ok && b <= end {
				end = b
				clamped = true
			}
		}
		if end < n && !clamped {
			end = snap(text, pos, end, budget)
		}

		start := pos
		if pending >= 0 {
			start = pending
		}
		c := doctree.Chunk{
			Text:        text[start:end],
			StartIndex:  start,
			EndIndex:    end,
			TokenCount:  EstimateTokens(text[start:end]),
			ContentType: ct,
		}
		if s, ok := doctree.SectionAt(sections, start); ok {
			c.Section = s.Name
		}

		switch {
		case c.TokenCount >= cfg.MinChunkSize || end == n:
			c.ChunkNumber = len(chunks)
			chunks = append(chunks, c)
			pending = -1
		case cfg.MergeUndersized && len(chunks) > 0:
			extend(&chunks[len(chunks)-1], text, end, ct)
		case cfg.MergeUndersized:
			pending = start
		}

		if end == n {
			break
		}
		next := end
		if !clamped {
			next = retreat(text, end, cfg.OverlapSize*CharsPerToken)
		}
		if next <= pos {
			next = advance(text, pos, 1)
		}
		pos = next
	}

	return chunks
}

// boundary returns the offset the chunk starting at pos must not cross: the
// end of the section containing pos, or the start of the next section.
func boundary(sections []doctree.Section, pos int) (int, bool) {
	if s, ok := doctree.SectionAt(sections, pos); ok {
		return s.EndIndex, true
	}
	for _, s := range sections {
		if s.StartIndex > pos {
			return s.StartIndex, true
		}
	}
	return 0, false
}

// snap pulls end back to the last sentence end or paragraph break, but only
// within the back half of the window so the chunk keeps at least half its
// budget.
func snap(text string, pos, end, budget int) int {
	lo := advance(text, pos, budget/2)
	if lo >= end {
		return end
	}

	best := -1
	for i := end - 1; i >= lo; i-- {
		if text[i] != '.' || i+1 >= len(text) {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(text[i+1:]); unicode.IsSpace(r) {
			best = i + 1
			break
		}
	}
	if i := strings.LastIndex(text[lo:end], "\n\n"); i >= 0 && lo+i+2 > best {
		best = lo + i + 2
	}
	if best <= pos {
		return end
	}
	return best
}

// extend grows c to end, absorbing an undersized chunk that followed it.
func extend(c *doctree.Chunk, text string, end int, ct doctree.ContentType) {
	if end <= c.EndIndex {
		return
	}
	c.EndIndex = end
	c.Text = text[c.StartIndex:end]
	c.TokenCount = EstimateTokens(c.Text)
	if c.ContentType != ct {
		c.ContentType = doctree.ContentMixed
	}
}

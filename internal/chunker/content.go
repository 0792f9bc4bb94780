package chunker

import (
	"regexp"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// SampleChars is the lookahead window used to classify upcoming content.
const SampleChars = 500

var (
	tableCaption = regexp.MustCompile(`(?im)^[ \t]*(?:(?:supplementary|appendix)[ \t]+)?(?:e-?table|table|tbl\.?|tab\.)[ \t]+[A-Z]?\d+`)
	alignedRow   = regexp.MustCompile(`(?m)^[^\n]*\S(?:\t+| {2,})\S[^\n]*?(?:\t+| {2,})\S`)

	figureCaption = regexp.MustCompile(`(?im)^[ \t]*(?:(?:supplementary|online)[ \t]+)?e?fig(?:ure)?\.?[ \t]*S?\d+`)

	referencesHeader = regexp.MustCompile(`(?im)^[ \t]*(?:\d+\.?[ \t]+)?(?:references|bibliography|literature[ \t]+cited)[ \t]*:?[ \t]*$`)
	citationLine     = regexp.MustCompile(`(?m)^[ \t]*(?:\[\d+\]|\d+\.)[ \t]+[A-Z][A-Za-z'\-]+,?[ \t]+[A-Z]`)
	doiMarker        = regexp.MustCompile(`(?i)\bdoi:?\s*10\.\d{4,}`)
)

// DetectContentType classifies a text sample. More than one signal yields
// mixed and none yields text.
func DetectContentType(sample string) doctree.ContentType {
	var hits []doctree.ContentType

	if tableCaption.MatchString(sample) || len(alignedRow.FindAllStringIndex(sample, 3)) >= 3 {
		hits = append(hits, doctree.ContentTable)
	}
	if figureCaption.MatchString(sample) {
		hits = append(hits, doctree.ContentFigure)
	}
	if referencesHeader.MatchString(sample) ||
		len(citationLine.FindAllStringIndex(sample, 2)) >= 2 ||
		len(doiMarker.FindAllStringIndex(sample, 2)) >= 2 {
		hits = append(hits, doctree.ContentReferences)
	}

	switch len(hits) {
	case 0:
		return doctree.ContentText
	case 1:
		return hits[0]
	}
	return doctree.ContentMixed
}

// budgetChars scales the configured maximum for the content ahead and
// converts it to characters. Scaling happens on the character count so odd
// token budgets are not rounded twice.
func (c Config) budgetChars(ct doctree.ContentType) int {
	base := c.MaxChunkSize * CharsPerToken
	if !c.AdaptiveSizing {
		return max(base, 1)
	}
	target := base
	switch ct {
	case doctree.ContentTable:
		target = min(base*3/2, 1500*CharsPerToken)
	case doctree.ContentFigure:
		target = min(base*13/10, 1300*CharsPerToken)
	case doctree.ContentReferences:
		target = min(base*4/5, 800*CharsPerToken)
	}
	return max(target, 1)
}

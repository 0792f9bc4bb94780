package patterns

import (
	"regexp"
	"sort"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// CaptionPattern recognizes one table caption convention. Group 1 captures
// the table number and group 2, when present, the title.
//
// KeyPrefix is prepended to the captured number when a continuation must be
// resolved to a prefixed table, e.g. "Supplementary Table 2 (continued)" to "S2".
type CaptionPattern struct {
	Name      string
	Pattern   *regexp.Regexp
	Type      doctree.TableType
	Priority  int
	KeyPrefix string
}

const (
	tableNum     = `([A-Z]?\d+[a-z]?)`
	plainNum     = `(\d+[a-z]?)`
	sep          = `[ \t]*[:.\-–—|]?[ \t]*`
	titleTail    = sep + `([^\n]*)`
	contWord     = `(?:continued|cont'd|contd|cont\.)`
	contSuffix   = `[ \t]*[,.:\-–—]?[ \t]*[(\[]?[ \t]*` + contWord + `[ \t]*[)\]]?`
	contBracket  = `[ \t]*[,.;:\-–—]?[ \t]*[(\[][ \t]*` + contWord + `[ \t]*[)\]][ \t]*\.?[ \t]*`
	linePrefix   = `(?im)^[ \t]*`
	supplemental = `(?:supplementary|supplemental)`

	// Labels up to the table number. Each accepts the scheme's own letter
	// before the number, e.g. "Table S2", "eTable E2", "Appendix Table A2".
	suppLabel     = supplemental + `[ \t]+table[ \t]+S?`
	onlineLabel   = `(?:online[ \t]+(?:` + supplemental + `[ \t]+)?table|e-?table|web[ \t]+table)[ \t]+E?`
	appendixLabel = `appendix(?:[ \t]+[A-Z0-9]+)?[ \t]*[,:.\-–—]?[ \t]*table[ \t]+A?`

	// titledCont matches a title followed by a bracketed continuation marker
	// at the end of the line, as in "Table 3. Adverse events (continued)".
	titledCont = sep + `([^\n]*?)` + contBracket + `\r?$`
)

func caption(name, expr string, typ doctree.TableType, priority int, keyPrefix string) CaptionPattern {
	return CaptionPattern{
		Name:      name,
		Pattern:   regexp.MustCompile(expr),
		Type:      typ,
		Priority:  priority,
		KeyPrefix: keyPrefix,
	}
}

var captionPatterns = []CaptionPattern{
	caption("standard",
		linePrefix+`(?:table|tbl\.?|tab\.)[ \t]+`+plainNum+`\b`+titleTail,
		doctree.TableStandard, 10, ""),
	caption("supplementary_prefixed",
		linePrefix+suppLabel+plainNum+`\b`+titleTail,
		doctree.TableSupplementary, 90, ""),
	caption("supplementary_letter",
		linePrefix+`table[ \t]+S`+plainNum+`\b`+titleTail,
		doctree.TableSupplementary, 88, ""),
	caption("online",
		linePrefix+onlineLabel+plainNum+`\b`+titleTail,
		doctree.TableOnline, 85, ""),
	caption("appendix_prefixed",
		linePrefix+appendixLabel+plainNum+`\b`+titleTail,
		doctree.TableAppendix, 80, ""),
	caption("appendix_letter",
		linePrefix+`table[ \t]+A`+plainNum+`\b`+titleTail,
		doctree.TableAppendix, 78, ""),
	caption("continued_suffix",
		linePrefix+`table[ \t]+`+tableNum+contSuffix+titleTail,
		doctree.TableContinued, 100, ""),
	caption("continued_supplementary",
		linePrefix+suppLabel+plainNum+contSuffix+titleTail,
		doctree.TableContinued, 104, "S"),
	caption("continued_online",
		linePrefix+onlineLabel+plainNum+contSuffix+titleTail,
		doctree.TableContinued, 103, "E"),
	caption("continued_appendix",
		linePrefix+appendixLabel+plainNum+contSuffix+titleTail,
		doctree.TableContinued, 102, "A"),
	caption("continued_prefix",
		linePrefix+`[(\[]?`+contWord+`[)\]]?`+sep+`table[ \t]+`+tableNum+`\b`+titleTail,
		doctree.TableContinued, 95, ""),
	caption("continued_titled",
		linePrefix+`table[ \t]+`+tableNum+`\b`+titledCont,
		doctree.TableContinued, 96, ""),
	caption("continued_titled_supplementary",
		linePrefix+suppLabel+plainNum+`\b`+titledCont,
		doctree.TableContinued, 99, "S"),
	caption("continued_titled_online",
		linePrefix+onlineLabel+plainNum+`\b`+titledCont,
		doctree.TableContinued, 98, "E"),
	caption("continued_titled_appendix",
		linePrefix+appendixLabel+plainNum+`\b`+titledCont,
		doctree.TableContinued, 97, "A"),
}

// continuationPatterns is the smaller set used to re-derive continuation status
// from a fragment's caption. They are unanchored at the start because fragment
// captions often carry page furniture before the table label. Prefixed schemes
// rank above the bare "Table N" forms, which would otherwise claim the tail of
// "Supplementary Table 2 (continued)".
var continuationPatterns = []CaptionPattern{
	caption("continued_suffix",
		`(?i)\btable[ \t]+`+tableNum+contSuffix,
		doctree.TableContinued, 100, ""),
	caption("continued_supplementary",
		`(?i)\b`+suppLabel+plainNum+contSuffix,
		doctree.TableContinued, 110, "S"),
	caption("continued_online",
		`(?i)\b`+onlineLabel+plainNum+contSuffix,
		doctree.TableContinued, 112, "E"),
	caption("continued_appendix",
		`(?i)\b`+appendixLabel+plainNum+contSuffix,
		doctree.TableContinued, 106, "A"),
	caption("continued_prefix",
		`(?i)\b`+contWord+`[)\]]?`+sep+`(?:from[ \t]+previous[ \t]+page`+sep+`)?table[ \t]+`+tableNum+`\b`,
		doctree.TableContinued, 95, ""),
	caption("continued_titled",
		`(?i)\btable[ \t]+`+tableNum+`\b`+sep+`[^\n]*?`+contBracket+`\s*$`,
		doctree.TableContinued, 90, ""),
	caption("continued_titled_supplementary",
		`(?i)\b`+suppLabel+plainNum+`\b`+sep+`[^\n]*?`+contBracket+`\s*$`,
		doctree.TableContinued, 109, "S"),
	caption("continued_titled_online",
		`(?i)\b`+onlineLabel+plainNum+`\b`+sep+`[^\n]*?`+contBracket+`\s*$`,
		doctree.TableContinued, 111, "E"),
	caption("continued_titled_appendix",
		`(?i)\b`+appendixLabel+plainNum+`\b`+sep+`[^\n]*?`+contBracket+`\s*$`,
		doctree.TableContinued, 105, "A"),
}

// Captions returns the caption catalog ordered by descending priority, ties
// broken by name.
func Captions() []CaptionPattern {
	return sortByPriority(captionPatterns)
}

// Continuations returns the continuation-only caption set, highest priority first.
func Continuations() []CaptionPattern {
	return sortByPriority(continuationPatterns)
}

func sortByPriority(in []CaptionPattern) []CaptionPattern {
	out := append([]CaptionPattern(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

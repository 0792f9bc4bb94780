// Package patterns holds the static registries of section headers and table
// caption forms recognized in clinical research papers.
package patterns

import (
	"regexp"
	"sort"
)

// SectionPattern recognizes one kind of section header line.
//
// An empty Name means the canonical name is taken from the pattern's "title"
// capture group. A zero Level means the level is derived from the depth of the
// section number ("2.1" is level 2).
type SectionPattern struct {
	Pattern *regexp.Regexp
	Name    string
	Aliases []string
	Level   int
}

// Vocabulary names accepted by Vocabulary.
const (
	VocabCaseReport       = "case_report"
	VocabSystematicReview = "systematic_review"
)

// headerPrefix allows an optional "2.", "2.1" or "IV." numbering before the label.
const headerPrefix = `(?:(?:\d+(?:\.\d+)*\.?|[IVX]+\.)\s+)?`

// header builds a whole-line, case-insensitive header pattern.
func header(expr, name string, level int, aliases ...string) SectionPattern {
	return SectionPattern{
		Pattern: regexp.MustCompile(`(?i)^` + headerPrefix + `(?:` + expr + `)\s*:?$`),
		Name:    name,
		Aliases: aliases,
		Level:   level,
	}
}

var baseSections = []SectionPattern{
	header(`abstract|summary`, "Abstract", 1, "summary"),
	header(`background`, "Background", 1),
	header(`introduction`, "Introduction", 1),
	header(`methods?|materials\s+and\s+methods|methods\s+and\s+materials|patients\s+and\s+methods|subjects\s+and\s+methods|methodology|experimental\s+procedures`,
		"Methods", 1, "materials and methods", "methodology"),
	header(`results|findings|results\s+and\s+discussion`, "Results", 1, "findings"),
	header(`discussion|comment`, "Discussion", 1),
	header(`conclusions?|concluding\s+remarks|summary\s+and\s+conclusions?`, "Conclusion", 1, "conclusions"),
	header(`references|bibliography|literature\s+cited|works\s+cited`, "References", 1, "bibliography"),
	header(`acknowledge?ments?`, "Acknowledgments", 1),
	header(`funding|funding\s+sources?|sources?\s+of\s+funding|financial\s+support`, "Funding", 1),
	header(`conflicts?\s+of\s+interests?|competing\s+interests?|declarations?\s+of\s+(?:competing\s+)?interests?|disclosures?`,
		"Conflicts of Interest", 1, "competing interests"),
	header(`authors?'?\s+contributions?|contributors`, "Author Contributions", 1),
	header(`data\s+availability(?:\s+statement)?|data\s+sharing(?:\s+statement)?`, "Data Availability", 1),
	header(`abbreviations|list\s+of\s+abbreviations`, "Abbreviations", 1),
	header(`supplementary\s+(?:materials?|data|information)|supporting\s+information|appendix(?:\s+[a-z0-9]+)?|appendices`,
		"Supplementary Material", 1, "appendix"),

	header(`study\s+design|design|trial\s+design|study\s+setting|setting`, "Study Design", 2),
	header(`participants|patients|study\s+population|subjects|population|eligibility|inclusion\s+and\s+exclusion\s+criteria`,
		"Participants", 2, "study population"),
	header(`interventions?|treatment|procedures`, "Interventions", 2),
	header(`primary\s+(?:outcomes?|end\s*points?)`, "Primary Outcome", 2),
	header(`secondary\s+(?:outcomes?|end\s*points?)`, "Secondary Outcomes", 2),
	header(`outcomes?|outcome\s+measures|end\s*points?|primary\s+and\s+secondary\s+outcomes`, "Outcomes", 2),
	header(`randomi[sz]ation|randomi[sz]ation\s+and\s+(?:masking|blinding)|allocation\s+concealment`, "Randomization", 2),
	header(`blinding|masking`, "Blinding", 2),
	header(`sample\s+size(?:\s+calculation)?|power\s+calculation`, "Sample Size", 2),
	header(`data\s+collection|data\s+sources?|measurements`, "Data Collection", 2),
	header(`statistical\s+analys[ie]s|statistical\s+methods|statistics|data\s+analysis`, "Statistical Analysis", 2),
	header(`ethics|ethical\s+(?:approval|considerations)|ethics\s+statement|ethics\s+approval(?:\s+and\s+consent\s+to\s+participate)?`,
		"Ethics", 2),
	header(`baseline\s+characteristics|patient\s+characteristics|participant\s+characteristics`, "Baseline Characteristics", 2),
	header(`adverse\s+events|safety|harms`, "Adverse Events", 2),
	header(`subgroup\s+analys[ie]s|sensitivity\s+analys[ie]s`, "Subgroup Analyses", 2),
	header(`limitations|strengths\s+and\s+limitations|study\s+limitations`, "Limitations", 2),
}

// genericSections accept headers no named pattern claims. They go after every
// vocabulary so a numbered "2.1 Search strategy" keeps its canonical name.
var genericSections = []SectionPattern{
	// Any other numbered subsection, e.g. "3.2 Secondary endpoints at 12 months".
	{
		Pattern: regexp.MustCompile(`^\d+\.\d+(?:\.\d+)*\.?\s+(?P<title>[A-Z][^.!?]{2,80})$`),
		Level:   0,
	},
}

var caseReportSections = []SectionPattern{
	header(`case(?:\s+\d+)?|case\s+(?:presentation|report|description|history|summary)|clinical\s+case`,
		"Case Presentation", 1, "case report"),
	header(`learning\s+points|key\s+(?:points|messages)|take-?home\s+messages?`, "Learning Points", 1),
	header(`patient\s+information|history\s+of\s+present\s+illness|medical\s+history`, "Patient Information", 2),
	header(`clinical\s+findings|physical\s+examination|examination`, "Clinical Findings", 2),
	header(`timeline`, "Timeline", 2),
	header(`diagnostic\s+(?:assessment|workup|work-up|evaluation)|investigations|differential\s+diagnosis`,
		"Diagnostic Assessment", 2),
	header(`therapeutic\s+interventions?|treatment\s+and\s+outcome|management`, "Therapeutic Intervention", 2),
	header(`follow-?\s*up(?:\s+and\s+outcomes?)?|outcome\s+and\s+follow-?\s*up`, "Follow-up and Outcomes", 2),
	header(`patient\s+perspective`, "Patient Perspective", 2),
	header(`(?:informed\s+)?consent|patient\s+consent`, "Informed Consent", 2),
}

var systematicReviewSections = []SectionPattern{
	header(`protocol\s+and\s+registration|registration|protocol`, "Protocol and Registration", 2),
	header(`eligibility\s+criteria|inclusion\s+criteria|selection\s+criteria`, "Eligibility Criteria", 2),
	header(`information\s+sources|data\s+sources\s+and\s+searches`, "Information Sources", 2),
	header(`search\s+strateg(?:y|ies)|literature\s+search|search\s+methods(?:\s+for\s+identification\s+of\s+studies)?|systematic\s+search`,
		"Search Strategy", 2),
	header(`study\s+selection|selection\s+of\s+studies|selection\s+process`, "Study Selection", 2),
	header(`data\s+extraction(?:\s+and\s+(?:management|synthesis|quality\s+assessment))?|data\s+collection\s+process|data\s+items`,
		"Data Extraction", 2),
	header(`risk\s+of\s+bias(?:\s+(?:assessment|in\s+individual\s+studies))?|assessment\s+of\s+risk\s+of\s+bias|quality\s+assessment|(?:methodological\s+)?quality\s+of\s+(?:the\s+)?(?:included\s+)?studies`,
		"Risk of Bias", 2, "quality assessment"),
	header(`data\s+synthesis|synthesis\s+of\s+results|evidence\s+synthesis`, "Data Synthesis", 2),
	header(`meta-?\s*analys[ie]s|quantitative\s+synthesis|pooled\s+analys[ie]s`, "Meta-Analysis", 2),
	header(`heterogeneity|assessment\s+of\s+heterogeneity`, "Heterogeneity", 2),
	header(`publication\s+bias|reporting\s+bias|small[-\s]study\s+effects`, "Publication Bias", 2),
	header(`characteristics\s+of\s+(?:the\s+)?included\s+studies|study\s+characteristics`, "Included Studies", 2),
}

var vocabularies = map[string][]SectionPattern{
	VocabCaseReport:       caseReportSections,
	VocabSystematicReview: systematicReviewSections,
}

// Sections returns the base section catalog in match order.
func Sections() []SectionPattern {
	return clone(baseSections)
}

// Fallback returns the title-derived patterns tried after the base catalog
// and any extra vocabularies.
func Fallback() []SectionPattern {
	return clone(genericSections)
}

// CaseReport returns the extra headers used by case reports.
func CaseReport() []SectionPattern {
	return clone(caseReportSections)
}

// SystematicReview returns the extra headers used by systematic reviews and meta-analyses.
func SystematicReview() []SectionPattern {
	return clone(systematicReviewSections)
}

// Vocabulary returns a named extra pattern set.
func Vocabulary(name string) ([]SectionPattern, bool) {
	v, ok := vocabularies[name]
	if !ok {
		return nil, false
	}
	return clone(v), true
}

// VocabularyNames lists the registered vocabularies in sorted order.
func VocabularyNames() []string {
	names := make([]string, 0, len(vocabularies))
	for n := range vocabularies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func clone(in []SectionPattern) []SectionPattern {
	out := make([]SectionPattern, len(in))
	for i, p := range in {
		out[i] = p
		if p.Aliases != nil {
			out[i].Aliases = append([]string(nil), p.Aliases...)
		}
	}
	return out
}

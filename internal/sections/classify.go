package sections

import "github.com/dgallion1/docstruct/internal/doctree"

var caseReportIndicators = []string{
	"Patient Information",
	"Clinical Findings",
	"Timeline",
	"Diagnostic Assessment",
	"Therapeutic Intervention",
}

var reviewIndicators = []string{
	"Search Strategy",
	"Eligibility Criteria",
	"Study Selection",
	"Data Extraction",
	"Risk of Bias",
	"Data Synthesis",
	"Information Sources",
	"Protocol and Registration",
}

// Classify infers the paper type from the canonical section names present.
// Case report and review indicators win over the generic Methods plus Results
// test.
func Classify(sections []doctree.Section) doctree.PaperType {
	present := make(map[string]bool, len(sections))
	for _, s := range sections {
		present[s.Name] = true
	}
	count := func(names []string) int {
		n := 0
		for _, name := range names {
			if present[name] {
				n++
			}
		}
		return n
	}

	reviews := count(reviewIndicators)
	switch {
	case present["Case Presentation"] || count(caseReportIndicators) >= 2:
		return doctree.PaperCaseReport
	case present["Meta-Analysis"] && reviews >= 1:
		return doctree.PaperMetaAnalysis
	case reviews >= 2:
		return doctree.PaperSystematicReview
	case present["Methods"] && present["Results"]:
		return doctree.PaperResearch
	}
	return doctree.PaperUnknown
}

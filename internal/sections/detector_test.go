package sections

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/patterns"
)

const numberedPaper = "1. Introduction\nAtrial fibrillation is common.\n2. Methods\nWe enrolled 120 patients.\n3. Results\nMortality fell.\n"

func TestDetect_NumberedSections(t *testing.T) {
	got := Detect(numberedPaper, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(got), got)
	}
	wantNames := []string{"Introduction", "Methods", "Results"}
	wantNums := []string{"1", "2", "3"}
	for i, s := range got {
		if s.Name != wantNames[i] {
			t.Errorf("section %d: expected name %q, got %q", i, wantNames[i], s.Name)
		}
		if s.SectionNumber != wantNums[i] {
			t.Errorf("section %d: expected number %q, got %q", i, wantNums[i], s.SectionNumber)
		}
		if s.Level != 1 {
			t.Errorf("section %d: expected level 1, got %d", i, s.Level)
		}
	}
	if got[0].StartIndex != 0 {
		t.Errorf("expected first section at 0, got %d", got[0].StartIndex)
	}
	if got[1].StartIndex != strings.Index(numberedPaper, "2. Methods") {
		t.Errorf("unexpected Methods offset %d", got[1].StartIndex)
	}
	if got[1].OriginalHeader != "2. Methods" {
		t.Errorf("expected original header %q, got %q", "2. Methods", got[1].OriginalHeader)
	}
}

func TestDetect_BoundsChain(t *testing.T) {
	text := "Abstract\nShort summary.\n\nBackground\nContext.\nMethods\nStudy Design\nRCT.\nStatistical analysis\nCox models.\nResults\nDone.\nReferences\n1. Smith J. Trial. 2020.\n"
	got := Detect(text, nil)
	if len(got) == 0 {
		t.Fatal("expected sections")
	}
	for i, s := range got {
		if s.StartIndex >= s.EndIndex {
			t.Errorf("section %d (%s): empty interval [%d,%d)", i, s.Name, s.StartIndex, s.EndIndex)
		}
		if i > 0 && got[i-1].EndIndex != s.StartIndex {
			t.Errorf("section %d: previous end %d != start %d", i, got[i-1].EndIndex, s.StartIndex)
		}
	}
	if last := got[len(got)-1]; last.EndIndex != len(text) {
		t.Errorf("expected last section to end at %d, got %d", len(text), last.EndIndex)
	}
}

func TestDetect_Parents(t *testing.T) {
	text := "Study Design\nEarly subsection.\nMethods\nx\nParticipants\ny\nStatistical analysis\nz\nResults\nw\nAdverse events\nv\n"
	got := Detect(text, nil)

	want := map[string]string{
		"Study Design":         "",
		"Participants":         "Methods",
		"Statistical Analysis": "Methods",
		"Adverse Events":       "Results",
	}
	for _, s := range got {
		p, ok := want[s.Name]
		if !ok {
			continue
		}
		if s.ParentSection != p {
			t.Errorf("%s: expected parent %q, got %q", s.Name, p, s.ParentSection)
		}
	}
	for i, s := range got {
		if s.ParentSection == "" {
			continue
		}
		found := false
		for j := i - 1; j >= 0; j-- {
			if got[j].Level == 1 {
				found = got[j].Name == s.ParentSection
				break
			}
		}
		if !found {
			t.Errorf("%s: parent %q is not the nearest preceding top-level section", s.Name, s.ParentSection)
		}
	}
}

func TestDetect_NumberedSubsectionLevel(t *testing.T) {
	text := "2. Methods\n2.1 Study Design\nx\n2.3.1 Imaging protocol details\ny\n"
	got := Detect(text, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 sections, got %+v", got)
	}
	if got[1].Level != 2 || got[1].SectionNumber != "2.1" {
		t.Errorf("expected Study Design at level 2 numbered 2.1, got %+v", got[1])
	}
	if got[2].Name != "Imaging protocol details" || got[2].Level != 3 {
		t.Errorf("expected title-derived level 3 section, got %+v", got[2])
	}
	if got[2].ParentSection != "Methods" {
		t.Errorf("expected parent Methods, got %q", got[2].ParentSection)
	}
}

func TestDetect_NoHeaders(t *testing.T) {
	if got := Detect("Just a paragraph of prose.\nAnd another line.", nil); len(got) != 0 {
		t.Errorf("expected no sections, got %+v", got)
	}
	if got := Detect("", nil); len(got) != 0 {
		t.Errorf("expected no sections for empty text, got %+v", got)
	}
}

func TestDetect_SkipsLongLines(t *testing.T) {
	extra := []patterns.SectionPattern{{
		Pattern: regexp.MustCompile(`^Methods\b.*$`),
		Name:    "Methods",
		Level:   1,
	}}
	if got := Detect("Methods and a short tail", extra); len(got) != 1 {
		t.Fatalf("expected the short line to match, got %+v", got)
	}
	long := "Methods " + strings.Repeat("x", MaxHeaderLen)
	if got := Detect(long, extra); len(got) != 0 {
		t.Errorf("expected long line to be ignored, got %+v", got)
	}
}

func TestDetect_CRLF(t *testing.T) {
	text := "Introduction\r\nText.\r\nMethods\r\nMore.\r\n"
	got := Detect(text, nil)
	if len(got) != 2 || got[1].Name != "Methods" {
		t.Fatalf("expected Introduction and Methods, got %+v", got)
	}
	if got[1].StartIndex != strings.Index(text, "Methods") {
		t.Errorf("unexpected offset %d", got[1].StartIndex)
	}
}

func TestDetect_ExtraPatterns(t *testing.T) {
	extra := []patterns.SectionPattern{{
		Pattern: regexp.MustCompile(`(?i)^trial\s+registration$`),
		Name:    "Trial Registration",
		Level:   1,
	}}
	text := "Methods\nx\nTrial registration\nNCT0000\n"
	if got := Detect(text, nil); len(got) != 1 {
		t.Fatalf("expected 1 section without extras, got %+v", got)
	}
	got := Detect(text, extra)
	if len(got) != 2 || got[1].Name != "Trial Registration" {
		t.Fatalf("expected extra section, got %+v", got)
	}
}

func TestDetect_NumberedVocabularyHeaders(t *testing.T) {
	review := "1. Introduction\nx\n2. Methods\n2.1 Search strategy\nx\n2.2 Study selection\nx\n" +
		"2.3 Risk of bias assessment\nx\n2.4 Secondary endpoints at 12 months\nx\n3. Results\nx\n"
	got := Detect(review, patterns.SystematicReview())
	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}
	want := []string{"Introduction", "Methods", "Search Strategy", "Study Selection", "Risk of Bias",
		"Secondary endpoints at 12 months", "Results"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	if got[2].SectionNumber != "2.1" || got[2].ParentSection != "Methods" {
		t.Errorf("expected numbered subsection under Methods, got %+v", got[2])
	}
	if pt := Classify(got); pt != doctree.PaperSystematicReview {
		t.Errorf("expected systematic_review, got %s", pt)
	}

	caseReport := "1. Introduction\nx\n2. Case presentation\n2.1 Patient information\nx\n2.2 Clinical findings\nx\n3. Discussion\nx\n"
	got = Detect(caseReport, patterns.CaseReport())
	if len(got) != 5 || got[2].Name != "Patient Information" || got[3].Name != "Clinical Findings" {
		t.Fatalf("expected canonical case report names, got %+v", got)
	}
	if pt := Classify(got); pt != doctree.PaperCaseReport {
		t.Errorf("expected case_report, got %s", pt)
	}
}

func TestDetect_BaseCatalogWins(t *testing.T) {
	// An extra pattern for a line the base catalog already knows never fires.
	extra := []patterns.SectionPattern{{
		Pattern: regexp.MustCompile(`(?i)^methods$`),
		Name:    "Custom",
		Level:   1,
	}}
	got := Detect("Methods\nx\n", extra)
	if len(got) != 1 || got[0].Name != "Methods" {
		t.Errorf("expected base catalog to win, got %+v", got)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	a := Detect(numberedPaper, nil)
	b := Detect(numberedPaper, nil)
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical results on repeated runs")
	}
}

func TestFind(t *testing.T) {
	got := Detect(numberedPaper, nil)
	s, ok := Find(got, "methods")
	if !ok || s.SectionNumber != "2" {
		t.Errorf("expected Methods, got %+v (ok=%v)", s, ok)
	}
}

func TestClassify(t *testing.T) {
	named := func(names ...string) []doctree.Section {
		out := make([]doctree.Section, len(names))
		for i, n := range names {
			out[i] = doctree.Section{Name: n, Level: 1}
		}
		return out
	}
	tests := []struct {
		name     string
		sections []doctree.Section
		want     doctree.PaperType
	}{
		{"research", named("Introduction", "Methods", "Results", "Discussion"), doctree.PaperResearch},
		{"case presentation", named("Introduction", "Case Presentation", "Discussion"), doctree.PaperCaseReport},
		{"care checklist", named("Patient Information", "Timeline", "Methods", "Results"), doctree.PaperCaseReport},
		{"systematic review", named("Methods", "Search Strategy", "Study Selection", "Results"), doctree.PaperSystematicReview},
		{"meta-analysis", named("Methods", "Eligibility Criteria", "Meta-Analysis", "Results"), doctree.PaperMetaAnalysis},
		{"one review indicator", named("Methods", "Risk of Bias", "Results"), doctree.PaperResearch},
		{"unknown", named("Introduction", "Discussion"), doctree.PaperUnknown},
		{"empty", nil, doctree.PaperUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.sections); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestClassify_FromText(t *testing.T) {
	text := "Abstract\nx\nIntroduction\nx\nMethods\nSearch strategy\nx\nStudy selection\nx\nResults\nx\n"
	if got := Classify(Detect(text, patterns.SystematicReview())); got != doctree.PaperSystematicReview {
		t.Errorf("expected systematic_review, got %s", got)
	}
}

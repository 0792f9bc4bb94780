// Package sections finds section headers in flat document text and turns
// them into ordered, non-overlapping intervals.
package sections

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/patterns"
)

// MaxHeaderLen is the longest line, in runes, that can be a header.
const MaxHeaderLen = 100

var numberPrefix = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+`)

// Detect scans text line by line and returns the sections it finds, ordered by
// StartIndex. A section starts at the first non-blank character of its header
// line. Patterns are tried in order: base catalog, extra, then the generic
// numbered-subsection fallback. A document with no recognizable header
// yields nil.
func Detect(text string, extra []patterns.SectionPattern) []doctree.Section {
	catalog := append(patterns.Sections(), extra...)
	catalog = append(catalog, patterns.Fallback()...)

	var found []doctree.Section
	offset := 0
	for _, raw := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(raw)

		line := strings.TrimSpace(raw)
		if line == "" || utf8.RuneCountInString(line) > MaxHeaderLen {
			continue
		}
		s, ok := match(catalog, line)
		if !ok {
			continue
		}
		s.StartIndex = lineStart + len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		found = append(found, s)
	}

	repairBounds(found, len(text))
	assignParents(found)
	return found
}

// match returns the section for the first catalog entry that accepts line.
func match(catalog []patterns.SectionPattern, line string) (doctree.Section, bool) {
	for _, p := range catalog {
		m := p.Pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		s := doctree.Section{
			Name:           p.Name,
			OriginalHeader: line,
			Level:          p.Level,
		}
		if nm := numberPrefix.FindStringSubmatch(line); nm != nil {
			s.SectionNumber = nm[1]
		}
		if s.Name == "" {
			if i := p.Pattern.SubexpIndex("title"); i >= 0 {
				s.Name = strings.TrimSpace(m[i])
			}
		}
		if s.Name == "" {
			continue
		}
		if s.Level == 0 {
			s.Level = 1
			if s.SectionNumber != "" {
				s.Level = strings.Count(s.SectionNumber, ".") + 1
			}
		}
		return s, true
	}
	return doctree.Section{}, false
}

// repairBounds makes each section end where the next one starts and clamps
// the last section to the end of the text.
func repairBounds(found []doctree.Section, textLen int) {
	for i := range found {
		if i+1 < len(found) {
			found[i].EndIndex = found[i+1].StartIndex
		} else {
			found[i].EndIndex = textLen
		}
	}
}

// assignParents links every nested section to the nearest preceding
// top-level section.
func assignParents(found []doctree.Section) {
	parent := ""
	for i := range found {
		if found[i].Level <= 1 {
			parent = found[i].Name
			found[i].ParentSection = ""
			continue
		}
		found[i].ParentSection = parent
	}
}

// Find returns the first section with the given canonical name, ignoring case.
func Find(sections []doctree.Section, name string) (doctree.Section, bool) {
	return doctree.FindSection(sections, name)
}

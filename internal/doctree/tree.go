package doctree

import (
	"sort"
	"strings"
)

// DocTree is the root of a document's section hierarchy.
type DocTree struct {
	Title    string     `json:"title" yaml:"title"`
	Children []*DocNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// DocNode is a section with its nested subsections.
type DocNode struct {
	Section  Section    `json:"section" yaml:"section"`
	Children []*DocNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// BuildTree nests a flat, ordered section list by level.
func BuildTree(title string, sections []Section) *DocTree {
	type stackEntry struct {
		node  *DocNode
		level int
	}

	root := &DocNode{}
	stack := []stackEntry{{node: root, level: 0}}

	for _, s := range sections {
		n := &DocNode{Section: s}
		// Pop until the top of the stack is shallower than this section.
		for len(stack) > 1 && stack[len(stack)-1].level >= s.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, n)
		stack = append(stack, stackEntry{node: n, level: s.Level})
	}

	return &DocTree{Title: title, Children: root.Children}
}

// Walk visits every node depth-first, passing the heading path from the root.
func (t *DocTree) Walk(fn func(n *DocNode, path []string)) {
	var walk func(nodes []*DocNode, path []string)
	walk = func(nodes []*DocNode, path []string) {
		for _, n := range nodes {
			p := append(append([]string(nil), path...), n.Section.Name)
			fn(n, p)
			walk(n.Children, p)
		}
	}
	walk(t.Children, nil)
}

// SectionAt returns the section containing pos. Sections must be ordered by
// StartIndex and non-overlapping.
func SectionAt(sections []Section, pos int) (Section, bool) {
	i := sort.Search(len(sections), func(i int) bool { return sections[i].EndIndex > pos })
	if i == len(sections) || sections[i].StartIndex > pos {
		return Section{}, false
	}
	return sections[i], true
}

// FindSection returns the first section whose canonical name matches, ignoring case.
func FindSection(sections []Section, name string) (Section, bool) {
	for _, s := range sections {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Section{}, false
}

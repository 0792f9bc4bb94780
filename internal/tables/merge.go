// Package tables reassembles logical tables from per-page fragments.
package tables

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/patterns"
)

// ErrEmptyGroup is returned when asked to merge zero fragments.
var ErrEmptyGroup = errors.New("cannot merge an empty fragment group")

// GroupWarning flags a group that could not be assembled.
type GroupWarning struct {
	TableNumber string `json:"table_number" yaml:"table_number"`
	Fragments   int    `json:"fragments" yaml:"fragments"`
	Reason      string `json:"reason" yaml:"reason"`
}

// Detection is the outcome of DetectMultiPageTables.
type Detection struct {
	Tables   []doctree.MultiPageTable `json:"tables" yaml:"tables"`
	Warnings []GroupWarning           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewFragment builds a fragment from extracted rows.
func NewFragment(tableNumber string, page int, caption string, rows [][]string) doctree.Table {
	t := doctree.Table{
		TableNumber: tableNumber,
		PageNumber:  page,
		Caption:     caption,
		Rows:        rows,
		RowCount:    len(rows),
	}
	if page > 0 {
		t.PageNumbers = []int{page}
	}
	return t
}

// continuationOf reports the table a caption continues, if it is a
// continuation caption at all.
func continuationOf(caption string) (string, bool) {
	for _, p := range patterns.Continuations() {
		if m := p.Pattern.FindStringSubmatch(caption); m != nil {
			return strings.ToUpper(p.KeyPrefix + m[1]), true
		}
	}
	return "", false
}

// GroupByNumber files fragments under their logical table. Continuation
// status comes from the caption text alone; a continuation goes under the
// table it continues and is marked as such in the returned copy.
func GroupByNumber(fragments []doctree.Table) map[string][]doctree.Table {
	groups := make(map[string][]doctree.Table)
	for _, f := range fragments {
		key := strings.ToUpper(strings.TrimSpace(f.TableNumber))
		f.RowCount = rowCount(f)
		f.IsContinuation = false
		f.OriginalTableNumber = ""
		if orig, ok := continuationOf(f.Caption); ok {
			key = orig
			f.IsContinuation = true
			f.OriginalTableNumber = orig
		}
		groups[key] = append(groups[key], f)
	}
	return groups
}

// Merge concatenates a group's rows in page order. A single fragment is
// returned as is apart from a missing RowCount.
func Merge(fragments []doctree.Table) (doctree.Table, error) {
	switch len(fragments) {
	case 0:
		return doctree.Table{}, ErrEmptyGroup
	case 1:
		f := fragments[0]
		f.RowCount = rowCount(f)
		return f, nil
	}

	sorted := append([]doctree.Table(nil), fragments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PageNumber < sorted[j].PageNumber })

	main := sorted[0]
	for _, f := range sorted {
		if !f.IsContinuation {
			main = f
			break
		}
	}

	merged := doctree.Table{
		TableNumber: main.TableNumber,
		PageNumber:  sorted[0].PageNumber,
		Caption:     main.Caption,
	}
	seen := make(map[int]bool)
	for _, f := range sorted {
		merged.Rows = append(merged.Rows, f.Rows...)
		merged.RowCount += rowCount(f)
		for _, p := range pagesOf(f) {
			if !seen[p] {
				seen[p] = true
				merged.PageNumbers = append(merged.PageNumbers, p)
			}
		}
	}
	sort.Ints(merged.PageNumbers)
	return merged, nil
}

// rowCount trusts RowCount when set and falls back to the rows carried,
// since decoded fragments often omit the count.
func rowCount(f doctree.Table) int {
	if f.RowCount == 0 {
		return len(f.Rows)
	}
	return f.RowCount
}

func pagesOf(f doctree.Table) []int {
	if len(f.PageNumbers) > 0 {
		return f.PageNumbers
	}
	if f.PageNumber > 0 {
		return []int{f.PageNumber}
	}
	return nil
}

// DetectMultiPageTables assembles every group of more than one fragment.
// A group without a non-continuation fragment has no main table; it is
// reported in Warnings and skipped.
func DetectMultiPageTables(fragments []doctree.Table) Detection {
	groups := GroupByNumber(fragments)

	keys := make([]string, 0, len(groups))
	for k, g := range groups {
		if len(g) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	var d Detection
	for _, k := range keys {
		group := groups[k]
		main, mainIdx, ok := mainFragment(group)
		if !ok {
			d.Warnings = append(d.Warnings, GroupWarning{
				TableNumber: k,
				Fragments:   len(group),
				Reason:      "no main fragment: every fragment is a continuation",
			})
			continue
		}

		merged, err := Merge(group)
		if err != nil {
			d.Warnings = append(d.Warnings, GroupWarning{TableNumber: k, Fragments: len(group), Reason: err.Error()})
			continue
		}
		merged.TableNumber = k

		var conts []doctree.Table
		for i, f := range byPage(group) {
			if i != mainIdx {
				conts = append(conts, f)
			}
		}
		d.Tables = append(d.Tables, doctree.MultiPageTable{
			TableNumber:   k,
			MainTable:     main,
			Continuations: conts,
			MergedTable:   merged,
			TotalPages:    len(merged.PageNumbers),
		})
	}
	return d
}

// MergeAll returns one table per logical group: merged groups plus every
// fragment that stands alone. Groups flagged by DetectMultiPageTables keep
// their fragments unmerged.
func MergeAll(fragments []doctree.Table) ([]doctree.Table, []GroupWarning) {
	d := DetectMultiPageTables(fragments)
	merged := make(map[string]doctree.Table, len(d.Tables))
	for _, mt := range d.Tables {
		merged[mt.TableNumber] = mt.MergedTable
	}

	groups := GroupByNumber(fragments)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	var out []doctree.Table
	for _, k := range keys {
		if t, ok := merged[k]; ok {
			out = append(out, t)
			continue
		}
		out = append(out, byPage(groups[k])...)
	}
	return out, d.Warnings
}

// mainFragment returns the earliest non-continuation fragment and its index
// in page order.
func mainFragment(group []doctree.Table) (doctree.Table, int, bool) {
	for i, f := range byPage(group) {
		if !f.IsContinuation {
			return f, i, true
		}
	}
	return doctree.Table{}, -1, false
}

func byPage(group []doctree.Table) []doctree.Table {
	out := append([]doctree.Table(nil), group...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageNumber < out[j].PageNumber })
	return out
}

// lessKey orders table keys by prefix, then numerically: "2" < "10" < "S1".
func lessKey(a, b string) bool {
	pa, na, sa := splitKey(a)
	pb, nb, sb := splitKey(b)
	if pa != pb {
		return pa < pb
	}
	if na != nb {
		return na < nb
	}
	return sa < sb
}

func splitKey(k string) (prefix string, num int, suffix string) {
	i := 0
	for i < len(k) && (k[i] < '0' || k[i] > '9') {
		i++
	}
	j := i
	for j < len(k) && k[j] >= '0' && k[j] <= '9' {
		j++
	}
	n, err := strconv.Atoi(k[i:j])
	if err != nil {
		return k, 0, ""
	}
	return k[:i], n, k[j:]
}

// AttachCaptions fills each fragment's missing table number from the caption
// its Caption text carries. Fragments that already have a number, or whose
// caption is not in the list, are left alone.
func AttachCaptions(fragments []doctree.Table, captions []doctree.TableCaption) []doctree.Table {
	byText := make(map[string]doctree.TableCaption, len(captions))
	for _, c := range captions {
		if _, dup := byText[c.FullText]; !dup {
			byText[c.FullText] = c
		}
	}

	out := make([]doctree.Table, len(fragments))
	for i, f := range fragments {
		if f.TableNumber == "" {
			if c, ok := byText[strings.TrimSpace(f.Caption)]; ok {
				f.TableNumber = c.Key()
			}
		}
		out[i] = f
	}
	return out
}

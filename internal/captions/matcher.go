// Package captions locates table captions in document text.
package captions

import (
	"sort"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/patterns"
)

// Detect returns every table caption in text, ordered by position. Patterns
// are applied highest priority first and a position claimed by one pattern is
// never reported again, so "Table 1 (continued)" is a continuation and not a
// standard caption as well.
func Detect(text string) []doctree.TableCaption {
	claimed := make(map[int]bool)
	var out []doctree.TableCaption

	for _, p := range patterns.Captions() {
		for _, loc := range p.Pattern.FindAllStringSubmatchIndex(text, -1) {
			full := text[loc[0]:loc[1]]
			pos := loc[0] + (len(full) - len(strings.TrimLeft(full, " \t")))
			if claimed[pos] {
				continue
			}
			claimed[pos] = true

			c := doctree.TableCaption{
				FullText:    strings.TrimSpace(full),
				TableNumber: group(text, loc, 1),
				TableType:   p.Type,
				Title:       strings.TrimSpace(group(text, loc, 2)),
				Position:    pos,
			}
			if p.Type == doctree.TableContinued {
				c.IsContinuation = true
				c.OriginalTableNumber = p.KeyPrefix + c.TableNumber
			}
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func group(text string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}

// Group buckets captions by logical table, continuations under the table
// they continue. Order within a bucket follows the input order.
func Group(captions []doctree.TableCaption) map[string][]doctree.TableCaption {
	out := make(map[string][]doctree.TableCaption)
	for _, c := range captions {
		k := c.Key()
		out[k] = append(out[k], c)
	}
	return out
}

// Continuations returns only the captions that continue an earlier table.
func Continuations(captions []doctree.TableCaption) []doctree.TableCaption {
	var out []doctree.TableCaption
	for _, c := range captions {
		if c.IsContinuation {
			out = append(out, c)
		}
	}
	return out
}

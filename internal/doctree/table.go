package doctree

import "strings"

// TableType tells which caption convention introduced a table.
type TableType string

const (
	TableStandard      TableType = "standard"
	TableSupplementary TableType = "supplementary"
	TableAppendix      TableType = "appendix"
	TableOnline        TableType = "online"
	TableContinued     TableType = "continued"
)

// keyPrefix distinguishes tables that share a number but not a numbering scheme,
// e.g. "Table 1" and "Table S1".
func (t TableType) keyPrefix() string {
	switch t {
	case TableSupplementary:
		return "S"
	case TableAppendix:
		return "A"
	case TableOnline:
		return "E"
	}
	return ""
}

// TableCaption is a caption found in document text.
type TableCaption struct {
	FullText            string    `json:"full_text" yaml:"full_text"`
	TableNumber         string    `json:"table_number" yaml:"table_number"`
	TableType           TableType `json:"table_type" yaml:"table_type"`
	Title               string    `json:"title" yaml:"title"`
	Position            int       `json:"position" yaml:"position"`
	IsContinuation      bool      `json:"is_continuation" yaml:"is_continuation"`
	OriginalTableNumber string    `json:"original_table_number,omitempty" yaml:"original_table_number,omitempty"`
	PageNumber          int       `json:"page_number,omitempty" yaml:"page_number,omitempty"`
}

// Key returns the logical table identity of the caption. A continuation
// resolves to the table it continues.
func (c TableCaption) Key() string {
	if c.IsContinuation {
		return strings.ToUpper(c.OriginalTableNumber)
	}
	return c.TableType.keyPrefix() + strings.ToUpper(c.TableNumber)
}

// Table is one extracted table fragment, usually the part of a table that
// sits on a single page.
type Table struct {
	TableNumber         string     `json:"table_number" yaml:"table_number"`
	PageNumber          int        `json:"page_number" yaml:"page_number"`
	Caption             string     `json:"caption" yaml:"caption"`
	Rows                [][]string `json:"rows" yaml:"rows"`
	RowCount            int        `json:"row_count" yaml:"row_count"`
	IsContinuation      bool       `json:"is_continuation" yaml:"is_continuation"`
	OriginalTableNumber string     `json:"original_table_number,omitempty" yaml:"original_table_number,omitempty"`
	PageNumbers         []int      `json:"page_numbers,omitempty" yaml:"page_numbers,omitempty"`
}

// MultiPageTable is a logical table assembled from a main fragment and its
// continuation fragments.
type MultiPageTable struct {
	TableNumber   string  `json:"table_number" yaml:"table_number"`
	MainTable     Table   `json:"main_table" yaml:"main_table"`
	Continuations []Table `json:"continuations" yaml:"continuations"`
	MergedTable   Table   `json:"merged_table" yaml:"merged_table"`
	TotalPages    int     `json:"total_pages" yaml:"total_pages"`
}

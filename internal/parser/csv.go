package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// CSVParser handles CSV files. Each record becomes one tab-separated line,
// which the chunker classifies as table content.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newBuilder(titleFromFilename(filename))
	for _, rec := range records {
		b.line(strings.Join(rec, "\t"))
	}
	return b.document(), nil
}

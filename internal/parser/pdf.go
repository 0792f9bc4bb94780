package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docstruct-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	b := newBuilder(titleFromFilename(filename))
	for i, page := range pages {
		if i > 0 {
			b.pageBreak()
		}
		b.raw(page)
	}
	return b.document(), nil
}

// extractPDFPages returns the plain text of every page. Unreadable pages
// come back empty so page numbers stay aligned with the PDF.
func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotext(path string) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext ends every page, including the last, with a form feed.
	return strings.Split(strings.TrimSuffix(string(out), "\f"), "\f"), nil
}

// Package parser turns uploaded files into flat document text with page offsets.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// ErrUnsupported is returned for a file extension with no parser.
var ErrUnsupported = errors.New("unsupported file extension")

// Parser converts raw document bytes into a flat Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune parser selection.
type Options struct {
	// PDFFallback shells out to pdftotext when the Go PDF reader fails.
	PDFFallback bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	return New(filename, Options{})
}

// New returns the parser for a filename configured with opts.
func New(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseFile opens path and parses it with the parser its extension selects.
func ParseFile(path string, opts Options) (*doctree.Document, error) {
	p, err := New(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Package analysis runs the detection passes over one document in dependency
// order: sections and captions concurrently, then chunking, then table merging.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docstruct/internal/captions"
	"github.com/dgallion1/docstruct/internal/chunker"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/patterns"
	"github.com/dgallion1/docstruct/internal/sections"
	"github.com/dgallion1/docstruct/internal/tables"
)

// ErrUnknownVocabulary is returned for a vocabulary name with no pattern set.
var ErrUnknownVocabulary = errors.New("unknown section vocabulary")

// Phase names a pass reported through Options.Progress.
type Phase string

const (
	PhaseDetecting Phase = "detecting"
	PhaseChunking  Phase = "chunking"
	PhaseMerging   Phase = "merging"
)

// Options configures one analysis.
type Options struct {
	Chunking chunker.Config

	// Vocabularies names the extra section sets to use. Nil means all of them.
	Vocabularies  []string
	ExtraPatterns []patterns.SectionPattern

	// Fragments are table fragments from an external extraction stage. When
	// empty the merge pass is skipped.
	Fragments []doctree.Table

	Progress func(Phase)
}

// DefaultOptions returns options with the default chunking config and every vocabulary.
func DefaultOptions() Options {
	return Options{Chunking: chunker.DefaultConfig()}
}

// Result is everything found in one document.
type Result struct {
	Title      string                   `json:"title,omitempty" yaml:"title,omitempty"`
	PaperType  doctree.PaperType        `json:"paper_type" yaml:"paper_type"`
	Sections   []doctree.Section        `json:"sections" yaml:"sections"`
	Tree       *doctree.DocTree         `json:"tree,omitempty" yaml:"tree,omitempty"`
	Chunks     []doctree.Chunk          `json:"chunks" yaml:"chunks"`
	ChunkStats chunker.Stats            `json:"chunk_stats" yaml:"chunk_stats"`
	Captions   []doctree.TableCaption   `json:"captions" yaml:"captions"`
	Tables     []doctree.MultiPageTable `json:"tables,omitempty" yaml:"tables,omitempty"`
	Warnings   []tables.GroupWarning    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Pages      int                      `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// SectionPatterns resolves vocabulary names plus extra patterns into the
// pattern list handed to the section detector.
func SectionPatterns(vocabularies []string, extra []patterns.SectionPattern) ([]patterns.SectionPattern, error) {
	if vocabularies == nil {
		vocabularies = patterns.VocabularyNames()
	}
	var out []patterns.SectionPattern
	for _, name := range vocabularies {
		v, ok := patterns.Vocabulary(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVocabulary, name)
		}
		out = append(out, v...)
	}
	return append(out, extra...), nil
}

// Analyze runs every pass over text. Cancellation is honored between passes.
func Analyze(ctx context.Context, text string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	extra, err := SectionPatterns(opts.Vocabularies, opts.ExtraPatterns)
	if err != nil {
		return nil, err
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(Phase) {}
	}

	res := &Result{}

	progress(PhaseDetecting)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Sections = sections.Detect(text, extra)
		return nil
	})
	g.Go(func() error {
		res.Captions = captions.Detect(text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.PaperType = sections.Classify(res.Sections)
	res.Tree = doctree.BuildTree("", res.Sections)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	progress(PhaseChunking)
	res.Chunks = chunker.Chunk(text, res.Sections, opts.Chunking)
	res.ChunkStats = chunker.Summarize(res.Chunks)

	if len(opts.Fragments) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(PhaseMerging)
		d := tables.DetectMultiPageTables(tables.AttachCaptions(opts.Fragments, res.Captions))
		res.Tables = d.Tables
		res.Warnings = d.Warnings
	}

	return res, nil
}

// AnalyzeDocument analyzes a parsed document and maps chunks and captions to pages.
func AnalyzeDocument(ctx context.Context, doc *doctree.Document, opts Options) (*Result, error) {
	res, err := Analyze(ctx, doc.Text, opts)
	if err != nil {
		return nil, err
	}
	res.Title = doc.Title
	res.Tree.Title = doc.Title
	res.Pages = len(doc.Pages)
	doc.AnnotatePages(res.Chunks, res.Captions)
	return res, nil
}

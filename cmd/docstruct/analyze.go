package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docstruct/internal/analysis"
	"github.com/dgallion1/docstruct/internal/chunker"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/parser"
)

// chunkFlags are the chunker overrides shared by analyze and chunks.
type chunkFlags struct {
	maxChunk        int
	overlap         int
	minChunk        int
	noSections      bool
	noAdaptive      bool
	mergeUndersized bool
}

func (f *chunkFlags) register(cmd *cobra.Command) {
	d := chunker.DefaultConfig()
	cmd.Flags().IntVar(&f.maxChunk, "max-chunk", d.MaxChunkSize, "target chunk size in tokens")
	cmd.Flags().IntVar(&f.overlap, "overlap", d.OverlapSize, "overlap between chunks in tokens")
	cmd.Flags().IntVar(&f.minChunk, "min-chunk", d.MinChunkSize, "minimum chunk size in tokens")
	cmd.Flags().BoolVar(&f.noSections, "no-sections", false, "let chunks cross section boundaries")
	cmd.Flags().BoolVar(&f.noAdaptive, "no-adaptive", false, "disable content-type chunk sizing")
	cmd.Flags().BoolVar(&f.mergeUndersized, "merge-undersized", false, "merge undersized chunks into a neighbor instead of dropping them")
}

func (f *chunkFlags) config() chunker.Config {
	return chunker.Config{
		MaxChunkSize:    f.maxChunk,
		OverlapSize:     f.overlap,
		MinChunkSize:    f.minChunk,
		RespectSections: !f.noSections,
		AdaptiveSizing:  !f.noAdaptive,
		MergeUndersized: f.mergeUndersized,
	}
}

// vocabFlag selects extra section vocabularies. Unset means all of them and
// "none" means only the base catalog.
type vocabFlag struct {
	names []string
}

func (v *vocabFlag) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&v.names, "vocab", nil, "section vocabularies to enable (default all; \"none\" for the base set only)")
}

func (v *vocabFlag) value(cmd *cobra.Command) []string {
	if !cmd.Flags().Changed("vocab") {
		return nil
	}
	if len(v.names) == 1 && strings.EqualFold(v.names[0], "none") {
		return []string{}
	}
	return v.names
}

// run parses path and analyzes it.
func (a *app) run(ctx context.Context, path string, opts analysis.Options) (*analysis.Result, error) {
	doc, err := parser.ParseFile(path, parser.Options{PDFFallback: a.pdftotext})
	if err != nil {
		return nil, err
	}
	a.log.Debug("parsed document", "file", path, "bytes", len(doc.Text), "pages", len(doc.Pages))

	opts.ExtraPatterns = append(opts.ExtraPatterns, a.extra...)
	opts.Progress = func(p analysis.Phase) { a.log.Debug("analysis phase", "phase", p) }
	res, err := analysis.AnalyzeDocument(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		a.log.Warn("table group not merged", "table", w.TableNumber, "fragments", w.Fragments, "reason", w.Reason)
	}
	return res, nil
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		chunks    chunkFlags
		vocab     vocabFlag
		fragments string
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Detect sections, chunks, captions and multi-page tables",
		Long: `Run every pass over a document and print the full result.

Examples:
  docstruct analyze paper.pdf
  docstruct analyze paper.txt --fragments tables.yaml -o json
  docstruct analyze case.md --vocab case_report`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := analysis.Options{
				Chunking:     chunks.config(),
				Vocabularies: vocab.value(cmd),
			}
			if fragments != "" {
				frags, err := readFragments(fragments)
				if err != nil {
					return err
				}
				opts.Fragments = frags
			}
			res, err := a.run(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return a.print(cmd, res)
		},
	}
	chunks.register(cmd)
	vocab.register(cmd)
	cmd.Flags().StringVar(&fragments, "fragments", "", "JSON or YAML file of table fragments to merge")
	return cmd
}

func newSectionsCmd(a *app) *cobra.Command {
	var (
		vocab vocabFlag
		tree  bool
	)
	cmd := &cobra.Command{
		Use:   "sections <file>",
		Short: "List detected sections and the paper type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := analysis.DefaultOptions()
			opts.Vocabularies = vocab.value(cmd)
			res, err := a.run(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			out := map[string]any{
				"paper_type": res.PaperType,
				"sections":   res.Sections,
			}
			if tree {
				out["tree"] = res.Tree
			}
			return a.print(cmd, out)
		},
	}
	vocab.register(cmd)
	cmd.Flags().BoolVar(&tree, "tree", false, "include the nested section tree")
	return cmd
}

func newCaptionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "captions <file>",
		Short: "List table captions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.run(cmd.Context(), args[0], analysis.DefaultOptions())
			if err != nil {
				return err
			}
			if res.Captions == nil {
				res.Captions = []doctree.TableCaption{}
			}
			return a.print(cmd, res.Captions)
		},
	}
}

func newChunksCmd(a *app) *cobra.Command {
	var (
		chunks  chunkFlags
		vocab   vocabFlag
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "chunks <file>",
		Short: "Split a document into chunks",
		Long: `Split a document into bounded chunks. Sizes are estimated tokens
(four characters per token).

Examples:
  docstruct chunks paper.pdf --max-chunk 500 --overlap 50
  docstruct chunks paper.txt --no-sections --summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.run(cmd.Context(), args[0], analysis.Options{
				Chunking:     chunks.config(),
				Vocabularies: vocab.value(cmd),
			})
			if err != nil {
				return err
			}
			if summary {
				return a.print(cmd, res.ChunkStats)
			}
			return a.print(cmd, map[string]any{
				"stats":  res.ChunkStats,
				"chunks": res.Chunks,
			})
		},
	}
	chunks.register(cmd)
	vocab.register(cmd)
	cmd.Flags().BoolVar(&summary, "summary", false, "print only chunk statistics")
	return cmd
}

// readFragments loads table fragments from a JSON or YAML file holding
// either a list or an object with a "fragments" list.
func readFragments(path string) ([]doctree.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fragments: %w", err)
	}
	var wrapped struct {
		Fragments []doctree.Table `yaml:"fragments"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err == nil && wrapped.Fragments != nil {
		return wrapped.Fragments, nil
	}
	var list []doctree.Table
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding fragments %s: %w", path, err)
	}
	return list, nil
}

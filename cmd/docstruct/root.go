package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/patterns"
)

// app holds the state shared by every subcommand.
type app struct {
	outputFlag   string
	patternsFile string
	verbose      bool
	pdftotext    bool

	format outputFormat
	log    *slog.Logger
	extra  []patterns.SectionPattern
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "docstruct",
		Short: "Structure clinical research papers into sections, chunks and tables",
		Long: `docstruct turns the extracted text of a research paper into a structured
representation:
  - named sections with hierarchy and a paper type
  - bounded, content-aware text chunks
  - table captions, and multi-page tables reassembled from fragments

Input files may be .txt, .md, .html, .pdf, .docx or .csv.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&a.outputFlag, "output", "o", "yaml", "output format: yaml or json")
	root.PersistentFlags().StringVar(&a.patternsFile, "patterns", "", "YAML file of extra section patterns")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&a.pdftotext, "pdftotext", true, "fall back to pdftotext when the PDF reader fails")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}

	root.AddCommand(
		newAnalyzeCmd(a),
		newSectionsCmd(a),
		newCaptionsCmd(a),
		newChunksCmd(a),
		newMergeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	format, err := parseOutputFormat(a.outputFlag)
	if err != nil {
		return err
	}
	a.format = format

	if a.patternsFile != "" {
		extra, err := patterns.LoadSectionPatternsFile(a.patternsFile)
		if err != nil {
			return err
		}
		a.extra = extra
		a.log.Debug("loaded extra section patterns", "file", a.patternsFile, "count", len(extra))
	}
	return nil
}

func (a *app) print(cmd *cobra.Command, data any) error {
	return writeOutput(cmd.OutOrStdout(), a.format, data)
}

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/tables"
)

func newMergeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <fragments.yaml|fragments.json>",
		Short: "Reassemble multi-page tables from extracted fragments",
		Long: `Group table fragments by logical table and merge continuations in page order.

The input is a list of fragments, or an object with a "fragments" list:

  fragments:
    - table_number: "1"
      page_number: 3
      caption: "Table 1: Baseline characteristics"
      rows: [[Age, "64", "65"]]
      row_count: 1
    - page_number: 4
      caption: "Table 1 (continued)"
      rows: [[Sex, F, M]]
      row_count: 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frags, err := readFragments(args[0])
			if err != nil {
				return err
			}
			if len(frags) == 0 {
				return errors.New("no fragments in " + args[0])
			}

			merged, warnings := tables.MergeAll(frags)
			for _, w := range warnings {
				a.log.Warn("table group not merged", "table", w.TableNumber, "fragments", w.Fragments, "reason", w.Reason)
			}
			multi := tables.DetectMultiPageTables(frags).Tables
			if multi == nil {
				multi = []doctree.MultiPageTable{}
			}
			return a.print(cmd, map[string]any{
				"tables":     merged,
				"multi_page": multi,
				"warnings":   warnings,
			})
		},
	}
}

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docstruct %s\n", version)
			fmt.Fprintf(out, "  Go:     %s\n", runtime.Version())
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					switch s.Key {
					case "vcs.revision":
						fmt.Fprintf(out, "  Commit: %s\n", s.Value)
					case "vcs.time":
						fmt.Fprintf(out, "  Date:   %s\n", s.Value)
					}
				}
			}
		},
	}
}

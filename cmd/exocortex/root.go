package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "exocortex",
	Short: "A local, single-user knowledge memory store",
	Long: `exocortex stores notes, decisions, successes, and failures as a
searchable knowledge graph on your local filesystem.

Examples:
  exocortex store "Go channels are like pipes between goroutines" --type insight
  exocortex recall "concurrency patterns"
  exocortex link <id1> <id2> --relation related
  exocortex sleep     # run one background consolidation pass`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

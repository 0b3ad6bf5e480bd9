// Command axolctl is axol's CLI shell, built with cobra. It wires the core
// engine (C1-C7) to seven subcommands: search, crawl, feed, prune, stats,
// feeds, markdown.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &appState{}

	root := &cobra.Command{
		Use:   "axolctl",
		Short: "axol is a personal topic-watch engine over Hacker News, Reddit, GitHub, Lobsters and Pinboard",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
	}
	root.PersistentFlags().StringVar(&app.logLevelFlag, "log-level", "", "override AXOL_LOG_LEVEL")
	root.PersistentFlags().StringVar(&app.storageDirFlag, "storage-dir", "", "override AXOL_STORAGE_DIR")

	root.AddCommand(
		newSearchCmd(app),
		newCrawlCmd(app),
		newFeedCmd(app),
		newPruneCmd(app),
		newStatsCmd(app),
		newFeedsCmd(app),
		newMarkdownCmd(app),
	)
	return root
}

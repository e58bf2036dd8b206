// Package cmd defines the CLI commands for the bookcrawler executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookcrawler",
		Short: "A resilient crawler for paginated digital library books",
		Long: `bookcrawler downloads complete books from a paginated digital
library site, one HTML section at a time. Crawls are resumable: pages
already on disk are never fetched again, and every book leaves behind a
crawl record describing how the attempt ended.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newVerifyCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

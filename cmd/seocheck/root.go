package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for seocheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seocheck",
		Short: "On-page SEO checks for HTML documents",
		Long: `seocheck evaluates the on-page SEO of a document.

It runs page structure checks (title, meta description, URL, content length,
broken links) and focus keyword checks, groups the results by status and
honours per-document ignore lists. Ignore lists live in a local SQLite
database or on a WordPress REST backend (--backend).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewLinksCmd())
	cmd.AddCommand(NewIgnoreCmd())
	cmd.AddCommand(NewRestoreCmd())
	cmd.AddCommand(NewIgnoredCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

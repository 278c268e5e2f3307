package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/seocheck/internal/model"
	"github.com/nao1215/seocheck/internal/override"
	"github.com/spf13/cobra"
)

// NewIgnoreCmd creates the ignore command.
func NewIgnoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore <check-id>",
		Short: "Add a check to a document's ignore list",
		Long: `Ignore adds a check to the ignore list of a post or taxonomy term. Ignored
checks are still evaluated but reported separately and never count towards
the document status.

The list lives in the local database unless --backend points at a
WordPress REST API.

Examples:
  seocheck ignore keywordInIntroduction -p 42
  seocheck ignore titleLength -p 7 -t taxonomy --backend https://example.com/wp-json/seocheck/v1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideCmd(cmd, args, "Ignored", (*override.Store).Ignore)
		},
	}
	addEntityFlags(cmd)
	addBackendFlags(cmd)
	return cmd
}

// NewRestoreCmd creates the restore command.
func NewRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <check-id>",
		Short: "Remove a check from a document's ignore list",
		Long: `Restore removes a check from the ignore list of a post or taxonomy term,
so it counts towards the document status again.

Examples:
  seocheck restore keywordInIntroduction -p 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideCmd(cmd, args, "Restored", (*override.Store).Restore)
		},
	}
	addEntityFlags(cmd)
	addBackendFlags(cmd)
	return cmd
}

// NewIgnoredCmd creates the ignored command.
func NewIgnoredCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignored",
		Short: "List a document's ignored checks",
		Long: `Ignored prints the ignore list of a post or taxonomy term, one check id
per line.

Examples:
  seocheck ignored -p 42`,
		Args: cobra.NoArgs,
		RunE: runIgnoredCmd,
	}
	addEntityFlags(cmd)
	addBackendFlags(cmd)
	return cmd
}

// overrideOp is Store.Ignore or Store.Restore.
type overrideOp func(s *override.Store, ctx context.Context, checkID string, key model.EntityKey) error

func runOverrideCmd(cmd *cobra.Command, args []string, verb string, op overrideOp) error {
	a, err := newOverrideApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	checkID := strings.TrimSpace(args[0])
	if err := op(a.store, cmd.Context(), checkID, a.key); err != nil {
		return err
	}

	ids, _ := a.store.Cached(a.key)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s for %s\n", verb, checkID, a.key)
	printIgnored(out, ids)
	return nil
}

func runIgnoredCmd(cmd *cobra.Command, _ []string) error {
	a, err := newOverrideApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.store.Ignored(cmd.Context(), a.key)
	if err != nil {
		return err
	}
	printIgnored(cmd.OutOrStdout(), ids)
	return nil
}

// newOverrideApp builds the app for the override commands, which need an
// entity and a place to store its list but no document.
func newOverrideApp(cmd *cobra.Command) (*app, error) {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateBackend(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	a, err := newApp(cfg, setupLogger(cmd, cfg.Verbose), false)
	if err != nil {
		return nil, err
	}
	if a.store == nil {
		a.Close()
		return nil, errNoOverrideBackend
	}
	return a, nil
}

func printIgnored(w io.Writer, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintln(w, "No ignored checks.")
		return
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
}

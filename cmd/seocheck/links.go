package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/seocheck/internal/config"
	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/model"
	"github.com/spf13/cobra"
)

// errBrokenLinks is returned by `links --strict` when a link is broken.
var errBrokenLinks = errors.New("broken links found")

// NewLinksCmd creates the links command.
func NewLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links <file.html>",
		Short: "Verify the outbound links of an HTML document",
		Long: `Links extracts every absolute http(s) link of an HTML document and verifies
it with a HEAD request, falling back to GET when HEAD is rejected. Progress
is reported on standard error.

Results are stored in the local database and reused for --link-cache-ttl;
use --force to verify every link again.

Examples:
  seocheck links page.html
  seocheck links page.html --workers 10 --exclude "*.pdf"
  seocheck links page.html --force --strict`,
		Args: cobra.ExactArgs(1),
		RunE: runLinksCmd,
	}

	cmd.Flags().StringP("url", "u", "",
		"Public URL of the document (default: the canonical link of the file)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seocheck in current or home directory)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the local SQLite database")
	cmd.Flags().Bool("no-db", false,
		"Do not read or store link results in the local database")
	addLinkFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().BoolP("force", "f", false,
		"Verify links again even when a stored result exists")
	cmd.Flags().Bool("strict", false,
		"Exit with an error when a link is broken")

	return cmd
}

func runLinksCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.CheckLinks = true

	snap, err := prepareDocument(cmd, cfg)
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := runLinks(ctx, cmd, cfg, snap, force, logger)
	if err != nil {
		return err
	}

	if strict {
		if broken := (engine.Evaluation{Links: records}).BrokenLinks(); len(broken) > 0 {
			return fmt.Errorf("%w: %d of %d", errBrokenLinks, len(broken), len(records))
		}
	}
	return nil
}

// runLinks verifies the links of snap and writes the link report.
func runLinks(ctx context.Context, cmd *cobra.Command, cfg *config.Config, snap model.Snapshot, force bool, logger *slog.Logger) ([]model.LinkRecord, error) {
	a, err := newApp(cfg, logger, true)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	if !force {
		a.seedLinkCache(ctx)
	}

	evaluator := a.evaluator(engine.WithProgress(progressPrinter(cmd.ErrOrStderr())))
	records, err := evaluator.VerifyLinks(ctx, snap, force)
	if err != nil {
		return nil, err
	}
	a.saveLinks(ctx, records)

	out, closeOut, err := openOutput(cfg, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	if _, err := newReportWriter(cfg, out).WriteLinks(records); err != nil {
		_ = closeOut() //nolint:errcheck // the write error is more useful
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	if err := closeOut(); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return records, nil
}

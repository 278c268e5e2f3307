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

// errChecksFailed is returned when the overall status reaches --fail-on.
var errChecksFailed = errors.New("seo checks failed")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file.html>",
		Short: "Evaluate the SEO checks of an HTML document once",
		Long: `Check evaluates an HTML document and prints a report.

Page checks look at the title, meta description, URL and content length.
Keyword checks look for the focus keyword in those places. With --links,
every outbound link is verified and broken links fail the page check.
Checks on the document's ignore list (--post-id) are reported separately
and do not count towards the status.

Examples:
  # Evaluate with a focus keyword
  seocheck check page.html --keyword "cold brew"

  # Verify outbound links as well
  seocheck check page.html -k "cold brew" --links

  # Use the ignore list of post 42 on a WordPress site
  seocheck check page.html -p 42 --backend https://example.com/wp-json/seocheck/v1 \
    --user admin --app-password "abcd efgh ijkl mnop qrst uvwx"

  # Fail a CI job when any check is in error
  seocheck check page.html -k "cold brew" --fail-on error

  # Markdown report for a pull request comment
  seocheck check page.html -k "cold brew" --markdown -o report.md`,
		Args: cobra.ExactArgs(1),
		RunE: runCheckCmd,
	}

	addDocumentFlags(cmd)
	addBackendFlags(cmd)
	addLinkFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().BoolP("links", "l", false,
		"Verify outbound links")
	cmd.Flags().Bool("server-checks", false,
		"Merge the page checks computed by the backend (requires --backend and --post-id)")
	cmd.Flags().String("fail-on", "",
		"Exit with an error when the overall status is at least: error, warning or suggestion")

	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	snap, err := prepareDocument(cmd, cfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ev, err := runCheck(ctx, cmd, cfg, snap, logger)
	if err != nil {
		return err
	}
	return checkFailOn(cfg.FailOn, ev.Summary)
}

// runCheck evaluates snap once, writes the report and records the
// evaluation in the history.
func runCheck(ctx context.Context, cmd *cobra.Command, cfg *config.Config, snap model.Snapshot, logger *slog.Logger) (*engine.Evaluation, error) {
	a, err := newApp(cfg, logger, cfg.CheckLinks)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	evaluator := a.evaluator(engine.WithProgress(progressPrinter(cmd.ErrOrStderr())))

	if cfg.CheckLinks {
		a.seedLinkCache(ctx)
		records, err := evaluator.VerifyLinks(ctx, snap, false)
		if err != nil {
			return nil, err
		}
		a.saveLinks(ctx, records)
	}

	a.loadIgnored(ctx)

	ev, err := evaluator.Evaluate(ctx, snap, evaluator.Metadata(a.baseMetadata()))
	if err != nil {
		return nil, err
	}

	out, closeOut, err := openOutput(cfg, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	if _, err := newReportWriter(cfg, out).Write(&ev); err != nil {
		_ = closeOut() //nolint:errcheck // the write error is more useful
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	if err := closeOut(); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	a.saveEvaluation(ctx, &ev)
	return &ev, nil
}

// checkFailOn returns errChecksFailed when the status of s is at least
// as severe as threshold. An empty threshold never fails.
func checkFailOn(threshold string, s model.Summary) error {
	if threshold == "" || s.Initializing() {
		return nil
	}
	if s.StatusOrEmpty().Rank() >= model.Status(threshold).Rank() {
		return fmt.Errorf("%w: overall status is %s (--fail-on %s)", errChecksFailed, s.StatusOrEmpty(), threshold)
	}
	return nil
}

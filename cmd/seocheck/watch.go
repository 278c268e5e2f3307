package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/seocheck/internal/config"
	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/queue"
	"github.com/nao1215/seocheck/internal/recompute"
	"github.com/nao1215/seocheck/internal/report"
	"github.com/nao1215/seocheck/internal/source"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file.html>",
		Short: "Re-evaluate an HTML document whenever it changes",
		Long: `Watch evaluates an HTML document and evaluates it again every time the
file is saved. Bursts of saves are collapsed: the document is evaluated once
the file has been quiet for the debounce interval, and saves that do not
change the document produce no new report.

Outbound links are verified in the background; the report is refreshed when
verification finishes.

With --interactive, commands are read from standard input:
  ignore <check-id>    add a check to the ignore list
  restore <check-id>   remove a check from the ignore list
  recheck              evaluate again now
  quit                 stop watching

Examples:
  # Watch a draft with a focus keyword
  seocheck watch draft.html -k "cold brew" --links

  # Manage the ignore list of post 42 while watching
  seocheck watch draft.html -k "cold brew" -p 42 --interactive`,
		Args: cobra.ExactArgs(1),
		RunE: runWatchCmd,
	}

	addDocumentFlags(cmd)
	addBackendFlags(cmd)
	addLinkFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().BoolP("links", "l", false,
		"Verify outbound links in the background")
	cmd.Flags().Bool("server-checks", false,
		"Merge the page checks computed by the backend (requires --backend and --post-id)")
	cmd.Flags().Duration("debounce", config.DefaultDebounce,
		"Quiet period after a change before re-evaluating")
	cmd.Flags().BoolP("interactive", "i", false,
		"Read ignore/restore commands from standard input")

	return cmd
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if _, err := prepareDocument(cmd, cfg); err != nil {
		return err
	}
	interactive, err := cmd.Flags().GetBool("interactive")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var in io.Reader
	if interactive {
		in = cmd.InOrStdin()
	}
	return runWatch(ctx, cfg, logger, cmd.OutOrStdout(), in)
}

// runWatch keeps the report of cfg.Target current until ctx is done or a
// quit command arrives on in. A nil in disables commands.
func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(cfg, logger, cfg.CheckLinks)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := queue.New(queue.WithLogger(logger))
	defer tasks.Close()

	src, err := source.NewFileSource(cfg.Target,
		source.WithPageURL(cfg.URL),
		source.WithFileLogger(logger),
	)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // nothing useful to do on exit

	var session *engine.Session
	evaluator := a.evaluator(
		engine.WithTaskQueue(tasks),
		engine.WithLinksSettled(func() {
			session.Loop().Trigger()
		}),
	)
	session = engine.NewSession(src, evaluator, a.baseMetadata(),
		recompute.WithDebounce(cfg.Debounce),
	)

	printer := &resultPrinter{w: out, writer: newReportWriter(cfg, out), framed: !cfg.JSONReport}
	unsubscribe := session.Loop().Subscribe(printer.print)
	defer unsubscribe()

	a.seedLinkCache(ctx)

	if err := src.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := src.Stop(); err != nil {
			logger.Warn("failed to stop file watcher", "error", err)
		}
	}()

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()

	if in != nil {
		go readCommands(ctx, in, session, stdout, cancel)
	}

	<-ctx.Done()

	// Persist what the session learned; ctx is already cancelled.
	saveCtx := context.WithoutCancel(ctx)
	if res, ok := session.Result(); ok && !res.NoData {
		a.saveLinks(saveCtx, res.Value.Links)
		a.saveEvaluation(saveCtx, &res.Value)
	}
	return nil
}

// resultPrinter writes every published result. The loop may publish from
// different goroutines, so writes are serialized.
type resultPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	writer report.Writer
	// framed separates consecutive reports with a timestamp line.
	framed bool
}

func (p *resultPrinter) print(res recompute.Result[engine.Evaluation]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.framed {
		fmt.Fprintf(p.w, "\n--- %s (#%d) ---\n", res.EvaluatedAt.Format(time.TimeOnly), res.Seq)
	}
	switch {
	case res.NoData:
		fmt.Fprintf(p.w, "No report yet: %v\n", res.Err)
		return
	case res.Err != nil:
		fmt.Fprintf(p.w, "Evaluation failed, showing the last report: %v\n", res.Err)
	}
	if _, err := p.writer.Write(&res.Value); err != nil {
		fmt.Fprintf(p.w, "failed to write report: %v\n", err)
	}
}

// readCommands runs the interactive commands read from in until it is
// exhausted, ctx is done or a quit command calls cancel.
func readCommands(ctx context.Context, in io.Reader, session *engine.Session, out io.Writer, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		msg, quit := runCommand(ctx, session, scanner.Text())
		if msg != "" {
			fmt.Fprintln(out, msg)
		}
		if quit {
			cancel()
			return
		}
	}
}

// runCommand executes one interactive command line and returns the
// message to show and whether watching should stop.
func runCommand(ctx context.Context, session *engine.Session, line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}

	switch fields[0] {
	case "quit", "exit":
		return "", true
	case "recheck":
		session.Loop().Recompute()
		return "", false
	case "ignore", "restore":
		if len(fields) != 2 {
			return fmt.Sprintf("usage: %s <check-id>", fields[0]), false
		}
		op := session.Ignore
		if fields[0] == "restore" {
			op = session.Restore
		}
		if err := op(ctx, fields[1]); err != nil {
			return fmt.Sprintf("%s %s failed: %v", fields[0], fields[1], err), false
		}
		return "", false
	default:
		return fmt.Sprintf("unknown command %q (ignore, restore, recheck, quit)", fields[0]), false
	}
}

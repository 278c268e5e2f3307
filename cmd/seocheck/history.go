package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/seocheck/internal/config"
	"github.com/nao1215/seocheck/internal/database"
	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/model"
	"github.com/nao1215/seocheck/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and compare stored evaluations of a document",
		Long: `History lists the evaluations stored by 'seocheck check' and 'seocheck watch'
for a post or taxonomy term, newest first.

Examples:
  # List the latest evaluations of post 42
  seocheck history -p 42

  # Print a stored evaluation again
  seocheck history --show 17

  # Compare the latest two evaluations of post 42
  seocheck history -p 42 --compare

  # Compare the latest evaluation with evaluation 12
  seocheck history -p 42 --compare --with 12`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("post-id", "p", 0,
		"Post or term id")
	cmd.Flags().StringP("type", "t", "post",
		"Entity type: post or taxonomy")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the local SQLite database")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of evaluations to list (0 lists all)")
	cmd.Flags().Int64("show", 0,
		"Print the stored evaluation with this id")
	cmd.Flags().Bool("compare", false,
		"Compare the latest evaluation with the previous one")
	cmd.Flags().Int64("with", 0,
		"Compare the latest evaluation with this evaluation id")
	addReportFlags(cmd)

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}
	compare, err := cmd.Flags().GetBool("compare")
	if err != nil {
		return err
	}
	withID, err := cmd.Flags().GetInt64("with")
	if err != nil {
		return err
	}

	entityType, err := model.ParseEntityType(cfg.EntityType)
	if err != nil {
		return err
	}
	key := model.EntityKey{ID: cfg.PostID, Type: entityType}

	if showID == 0 && cfg.PostID <= 0 {
		return errors.New("post id is required (use --post-id, or --show <id>)")
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out, closeOut, err := openOutput(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // read-only output

	switch {
	case showID != 0:
		return showEvaluation(ctx, db, showID, newReportWriter(cfg, out))
	case compare || withID != 0:
		return runComparison(ctx, db, key, withID, cfg.JSONReport, cfg.MarkdownReport, out)
	default:
		return listHistory(ctx, db, key, limit, out)
	}
}

func listHistory(ctx context.Context, db *database.CheckDB, key model.EntityKey, limit int, out io.Writer) error {
	records, err := db.ListHistory(ctx, key, limit)
	if err != nil {
		return fmt.Errorf("failed to get evaluation history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No evaluation history found for %s\n", key)
		fmt.Fprintln(out, "\nUse 'seocheck check --post-id' to evaluate this document.")
		return nil
	}

	fmt.Fprintf(out, "Evaluation history for %s (%d evaluations):\n\n", key, len(records))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %-18s  %s\n", "ID", "Date", "Status", "Counts", "Keyword")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, rec := range records {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %-18s  %s\n",
			rec.ID,
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
			orDash(string(rec.Summary.StatusOrEmpty())),
			formatCounts(rec.Summary.Counts),
			orDash(rec.Keyword),
		)
	}

	fmt.Fprintln(out, "\nUse 'seocheck history --show <id>' to print a stored evaluation.")
	fmt.Fprintln(out, "Use 'seocheck history --compare' to compare the latest two evaluations.")
	return nil
}

func showEvaluation(ctx context.Context, db *database.CheckDB, id int64, w report.Writer) error {
	rec, err := db.GetEvaluation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get evaluation %d: %w", id, err)
	}
	ev, err := decodeEvaluation(rec)
	if err != nil {
		return err
	}
	_, err = w.Write(ev)
	return err
}

// decodeEvaluation restores the full evaluation stored with rec.
func decodeEvaluation(rec *database.EvaluationRecord) (*engine.Evaluation, error) {
	var ev engine.Evaluation
	if err := json.Unmarshal(rec.Report, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation %d: %w", rec.ID, err)
	}
	return &ev, nil
}

// formatCounts formats summary counts as "E:1 W:2 S:0 OK:7".
func formatCounts(c model.Counts) string {
	return fmt.Sprintf("E:%d W:%d S:%d OK:%d", c.Error, c.Warning, c.Suggestion, c.Success)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

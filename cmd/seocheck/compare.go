package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/seocheck/internal/database"
	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/model"
)

const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"

	// ignoredStatus stands in for the status of an ignored check.
	ignoredStatus = "ignored"
)

// EvaluationMeta summarizes one side of a comparison.
type EvaluationMeta struct {
	ID          int64        `json:"id"`
	EvaluatedAt time.Time    `json:"evaluatedAt"`
	Status      string       `json:"status"`
	Keyword     string       `json:"keyword,omitempty"`
	Counts      model.Counts `json:"counts"`
}

// CheckChange is a check present in both evaluations whose status changed.
type CheckChange struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// ComparisonResult holds the differences between two evaluations.
type ComparisonResult struct {
	Entity    string         `json:"entity"`
	Previous  EvaluationMeta `json:"previous"`
	Current   EvaluationMeta `json:"current"`
	Direction string         `json:"direction"`

	// Changed lists checks whose status changed.
	Changed []CheckChange `json:"changed,omitempty"`

	// Added lists checks only the current evaluation ran.
	Added []model.Check `json:"added,omitempty"`

	// Removed lists checks only the previous evaluation ran.
	Removed []model.Check `json:"removed,omitempty"`

	UnchangedCount int `json:"unchangedCount"`
}

// runComparison compares the latest evaluation of key with the previous
// one, or with evaluation withID when it is non-zero.
func runComparison(ctx context.Context, db *database.CheckDB, key model.EntityKey, withID int64, jsonOutput, markdownOutput bool, out io.Writer) error {
	records, err := db.ListHistory(ctx, key, 2)
	if err != nil {
		return fmt.Errorf("failed to get evaluation history: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no evaluation history found for %s", key)
	}
	current := records[0]

	var previous *database.EvaluationRecord
	switch {
	case withID != 0:
		previous, err = db.GetEvaluation(ctx, withID)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("evaluation %d not found (use 'seocheck history' to list ids)", withID)
		}
		if err != nil {
			return fmt.Errorf("failed to get evaluation %d: %w", withID, err)
		}
	case len(records) < 2:
		return fmt.Errorf("need at least two evaluations of %s to compare, found %d", key, len(records))
	default:
		previous = &records[1]
	}

	prevEval, err := decodeEvaluation(previous)
	if err != nil {
		return err
	}
	curEval, err := decodeEvaluation(&current)
	if err != nil {
		return err
	}

	result := compareEvaluations(previous.ID, prevEval, current.ID, curEval)

	switch {
	case jsonOutput:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		outputComparisonText(out, result)
		return nil
	}
}

// compareEvaluations compares the checks of two evaluations by check id.
func compareEvaluations(prevID int64, previous *engine.Evaluation, curID int64, current *engine.Evaluation) *ComparisonResult {
	result := &ComparisonResult{
		Entity:   current.Entity.String(),
		Previous: evaluationMeta(prevID, previous),
		Current:  evaluationMeta(curID, current),
	}

	prevChecks := checksByID(previous)
	curChecks := checksByID(current)

	for id, c := range curChecks {
		p, ok := prevChecks[id]
		switch {
		case !ok:
			result.Added = append(result.Added, c)
		case effectiveStatus(p) != effectiveStatus(c):
			result.Changed = append(result.Changed, CheckChange{
				ID:    id,
				Title: c.Title,
				From:  effectiveStatus(p),
				To:    effectiveStatus(c),
			})
		default:
			result.UnchangedCount++
		}
	}
	for id, p := range prevChecks {
		if _, ok := curChecks[id]; !ok {
			result.Removed = append(result.Removed, p)
		}
	}

	slices.SortFunc(result.Changed, func(a, b CheckChange) int { return cmp.Compare(a.ID, b.ID) })
	byID := func(a, b model.Check) int { return cmp.Compare(a.ID, b.ID) }
	slices.SortFunc(result.Added, byID)
	slices.SortFunc(result.Removed, byID)

	result.Direction = direction(result.Previous.Counts, result.Current.Counts)
	return result
}

func evaluationMeta(id int64, ev *engine.Evaluation) EvaluationMeta {
	return EvaluationMeta{
		ID:          id,
		EvaluatedAt: ev.EvaluatedAt,
		Status:      string(ev.Summary.StatusOrEmpty()),
		Keyword:     ev.Keyword,
		Counts:      ev.Summary.Counts,
	}
}

func checksByID(ev *engine.Evaluation) map[string]model.Check {
	m := make(map[string]model.Check)
	for _, c := range ev.Page.All() {
		m[c.ID] = c
	}
	for _, c := range ev.KeywordChecks.All() {
		m[c.ID] = c
	}
	return m
}

func effectiveStatus(c model.Check) string {
	if c.Ignore {
		return ignoredStatus
	}
	return string(c.Status)
}

// direction weighs errors over warnings over suggestions.
func direction(previous, current model.Counts) string {
	score := func(c model.Counts) int {
		return c.Error*100 + c.Warning*10 + c.Suggestion
	}
	switch p, c := score(previous), score(current); {
	case c < p:
		return directionImproved
	case c > p:
		return directionWorsened
	default:
		return directionUnchanged
	}
}

func outputComparisonText(out io.Writer, result *ComparisonResult) {
	fmt.Fprintf(out, "Evaluation Comparison: %s\n", result.Entity)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nStatus: %s\n", formatDirection(result.Direction))
	fmt.Fprintf(out, "\nPrevious evaluation: #%d %s (%s)\n", result.Previous.ID,
		result.Previous.EvaluatedAt.Local().Format("2006-01-02 15:04:05"), orDash(result.Previous.Status))
	fmt.Fprintf(out, "Current evaluation:  #%d %s (%s)\n", result.Current.ID,
		result.Current.EvaluatedAt.Local().Format("2006-01-02 15:04:05"), orDash(result.Current.Status))

	fmt.Fprintln(out, "\nCounts:")
	fmt.Fprintf(out, "  %-12s  %-10s  %-10s  %-10s\n", "Status", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 48))
	for _, row := range countRows(result) {
		fmt.Fprintf(out, "  %-12s  %-10d  %-10d  %-10s\n", row.name, row.prev, row.cur, formatDelta(row.cur-row.prev))
	}

	if len(result.Changed) > 0 {
		fmt.Fprintf(out, "\nChanged Checks (%d):\n", len(result.Changed))
		for _, c := range result.Changed {
			fmt.Fprintf(out, "  [~] %s: %s -> %s\n", c.ID, c.From, c.To)
		}
	}
	if len(result.Added) > 0 {
		fmt.Fprintf(out, "\nNew Checks (%d):\n", len(result.Added))
		for _, c := range result.Added {
			fmt.Fprintf(out, "  [+] %s (%s): %s\n", c.ID, effectiveStatus(c), c.Title)
		}
	}
	if len(result.Removed) > 0 {
		fmt.Fprintf(out, "\nRemoved Checks (%d):\n", len(result.Removed))
		for _, c := range result.Removed {
			fmt.Fprintf(out, "  [-] %s (%s)\n", c.ID, effectiveStatus(c))
		}
	}
	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d checks\n", result.UnchangedCount)
	}
}

func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)
	md.H1(fmt.Sprintf("Evaluation Comparison: %s", result.Entity))
	md.PlainText("")
	md.PlainTextf("**Status:** %s", formatDirection(result.Direction))
	md.PlainText("")

	rows := [][]string{{
		"Evaluated",
		result.Previous.EvaluatedAt.Local().Format("2006-01-02 15:04"),
		result.Current.EvaluatedAt.Local().Format("2006-01-02 15:04"),
		"-",
	}}
	for _, row := range countRows(result) {
		rows = append(rows, []string{row.name, strconv.Itoa(row.prev), strconv.Itoa(row.cur), formatDelta(row.cur - row.prev)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(result.Changed) > 0 {
		md.H2(fmt.Sprintf("Changed Checks (%d)", len(result.Changed)))
		md.PlainText("")
		items := make([]string, len(result.Changed))
		for i, c := range result.Changed {
			items[i] = fmt.Sprintf("`%s`: %s → **%s**", c.ID, c.From, c.To)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(result.Added) > 0 {
		md.H2(fmt.Sprintf("New Checks (%d)", len(result.Added)))
		md.PlainText("")
		items := make([]string, len(result.Added))
		for i, c := range result.Added {
			items[i] = fmt.Sprintf("`%s` (%s): %s", c.ID, effectiveStatus(c), c.Title)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(result.Removed) > 0 {
		md.H2(fmt.Sprintf("Removed Checks (%d)", len(result.Removed)))
		md.PlainText("")
		items := make([]string, len(result.Removed))
		for i, c := range result.Removed {
			items[i] = fmt.Sprintf("~~`%s`~~", c.ID)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainTextf("*%d checks unchanged*", result.UnchangedCount)
	}

	return md.Build()
}

type countRow struct {
	name      string
	prev, cur int
}

func countRows(result *ComparisonResult) []countRow {
	p, c := result.Previous.Counts, result.Current.Counts
	return []countRow{
		{"Error", p.Error, c.Error},
		{"Warning", p.Warning, c.Warning},
		{"Suggestion", p.Suggestion, c.Suggestion},
		{"Success", p.Success, c.Success},
	}
}

func formatDirection(d string) string {
	switch d {
	case directionImproved:
		return "IMPROVED (fewer problems)"
	case directionWorsened:
		return "WORSENED (more problems)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

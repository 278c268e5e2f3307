package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, for pull request
// comments and documentation.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the evaluation in Markdown format.
func (w *MarkdownWriter) Write(ev *engine.Evaluation) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, ev)
	w.writeSummary(md, ev)
	w.writeGroup(md, "Page Checks", ev.Page)
	w.writeGroup(md, "Keyword Checks", ev.KeywordChecks)
	if ev.Links != nil {
		w.writeLinks(md, ev.Links)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteLinks outputs a link report in Markdown format.
func (w *MarkdownWriter) WriteLinks(records []model.LinkRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeLinks(md, records)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, ev *engine.Evaluation) {
	md.H1("SEO Check Report")
	md.PlainText("")

	keyword := ev.Keyword
	if keyword == "" {
		keyword = "-"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Entity", "`" + ev.Entity.String() + "`"},
			{"URL", orDash(ev.URL)},
			{"Focus Keyword", keyword},
			{"Evaluated", ev.EvaluatedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", statusEmoji(ev.Summary.Status) + " " + statusLabel(ev.Summary.Status)},
		},
	})
	md.PlainText("")

	for _, warn := range ev.Warnings {
		md.Warningf("%s", warn)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, ev *engine.Evaluation) {
	md.H2("Summary")
	md.PlainText("")

	row := func(name string, s model.Summary) []string {
		return []string{
			name,
			statusLabel(s.Status),
			strconv.Itoa(s.Counts.Error),
			strconv.Itoa(s.Counts.Warning),
			strconv.Itoa(s.Counts.Suggestion),
			strconv.Itoa(s.Counts.Success),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Group", "Status", "Error", "Warning", "Suggestion", "Success"},
		Rows: [][]string{
			row("Page", ev.PageSummary),
			row("Keyword", ev.KeywordSummary),
			row("**Combined**", ev.Summary),
		},
	})
	md.PlainText("")

	c := ev.Summary.Counts
	if c.Error+c.Warning+c.Suggestion+c.Success > 0 {
		w.writePieChart(md, c)
	}
	w.writeAlert(md, ev.Summary)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, c model.Counts) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Check Status Distribution"),
		piechart.WithShowData(true),
	)

	if c.Error > 0 {
		chart.LabelAndIntValue("Error", uint64(c.Error))
	}
	if c.Warning > 0 {
		chart.LabelAndIntValue("Warning", uint64(c.Warning))
	}
	if c.Suggestion > 0 {
		chart.LabelAndIntValue("Suggestion", uint64(c.Suggestion))
	}
	if c.Success > 0 {
		chart.LabelAndIntValue("Success", uint64(c.Success))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s model.Summary) {
	switch s.StatusOrEmpty() {
	case model.StatusError:
		md.Cautionf("%d check(s) failed and need attention.", s.Counts.Error)
	case model.StatusWarning:
		md.Warningf("%d check(s) have warnings.", s.Counts.Warning)
	case model.StatusSuggestion:
		md.Note("Only suggestions remain.")
	case model.StatusSuccess:
		md.Tip("All checks passed.")
	default:
		md.Note("No checks have been evaluated yet.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeGroup(md *markdown.Markdown, title string, r model.CategorizedResult) {
	md.H2(title)
	md.PlainText("")

	if r.Total() == 0 {
		md.PlainText("No checks in this group.")
		md.PlainText("")
		return
	}

	for _, b := range buckets(r) {
		if len(b.checks) == 0 {
			continue
		}
		md.PlainText("### " + b.name)
		md.PlainText("")

		rows := make([][]string, len(b.checks))
		for i, c := range b.checks {
			rows[i] = []string{"`" + c.ID + "`", c.Title}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Check", "Result"},
			Rows:   rows,
		})
		md.PlainText("")

		for _, c := range b.checks {
			if c.Description != "" {
				md.Details(c.Title, c.Description)
			}
		}
	}
}

func (w *MarkdownWriter) writeLinks(md *markdown.Markdown, records []model.LinkRecord) {
	md.H2("Links")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No links found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			truncateString(r.URL, 80),
			linkEmoji(r.Status) + " " + string(r.Status),
			httpStatusText(r.HTTPStatus),
			orDash(truncateString(r.Details, 60)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "HTTP", "Details"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [seocheck](https://github.com/nao1215/seocheck)*")
}

func statusEmoji(s *model.Status) string {
	if s == nil {
		return "⏳"
	}
	switch *s {
	case model.StatusError:
		return "🔴"
	case model.StatusWarning:
		return "🟡"
	case model.StatusSuggestion:
		return "🔵"
	default:
		return "🟢"
	}
}

func linkEmoji(s model.LinkStatus) string {
	switch s {
	case model.LinkOK:
		return "✅"
	case model.LinkBroken:
		return "❌"
	default:
		return "⏳"
	}
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

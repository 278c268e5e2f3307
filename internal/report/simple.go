package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty categories are shown.
	showEmpty bool

	// verbose adds check descriptions and passed links.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty categories.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the evaluation in human-readable format.
func (w *SimpleWriter) Write(ev *engine.Evaluation) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, ev)
	w.writeSummary(&sb, ev)
	w.writeGroup(&sb, "PAGE CHECKS", ev.Page)
	w.writeGroup(&sb, "KEYWORD CHECKS", ev.KeywordChecks)
	if ev.Links != nil {
		w.writeLinks(&sb, ev.Links)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteLinks outputs a link report in human-readable format.
func (w *SimpleWriter) WriteLinks(records []model.LinkRecord) (int, error) {
	var sb strings.Builder
	w.writeLinks(&sb, records)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, ev *engine.Evaluation) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                           SEO CHECK REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Entity:         %s\n", ev.Entity)
	fmt.Fprintf(sb, "URL:            %s\n", orDash(ev.URL))
	fmt.Fprintf(sb, "Focus Keyword:  %s\n", orDash(ev.Keyword))
	fmt.Fprintf(sb, "Evaluated:      %s\n", ev.EvaluatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Status:         %s\n", statusLabel(ev.Summary.Status))
	for _, warn := range ev.Warnings {
		fmt.Fprintf(sb, "Warning:        %s\n", warn)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, ev *engine.Evaluation) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nSUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	c := ev.Summary.Counts
	fmt.Fprintf(sb, "  ERROR:      %d\n", c.Error)
	fmt.Fprintf(sb, "  WARNING:    %d\n", c.Warning)
	fmt.Fprintf(sb, "  SUGGESTION: %d\n", c.Suggestion)
	fmt.Fprintf(sb, "  SUCCESS:    %d\n", c.Success)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  Page:    %s\n", statusLabel(ev.PageSummary.Status))
	fmt.Fprintf(sb, "  Keyword: %s\n", statusLabel(ev.KeywordSummary.Status))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeGroup(sb *strings.Builder, title string, r model.CategorizedResult) {
	if r.Total() == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n" + title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, b := range buckets(r) {
		if len(b.checks) == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "[%s] %s\n", indicator(b.name), b.name)
		if len(b.checks) == 0 {
			sb.WriteString("  None\n\n")
			continue
		}
		for _, c := range b.checks {
			fmt.Fprintf(sb, "  * %s (%s)\n", c.Title, c.ID)
			if w.verbose && c.Description != "" {
				fmt.Fprintf(sb, "    %s\n", c.Description)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeLinks(sb *strings.Builder, records []model.LinkRecord) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nLINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(records) == 0 {
		sb.WriteString("  No links found\n\n")
		return
	}

	var ok, broken, pending int
	for _, r := range records {
		switch r.Status {
		case model.LinkOK:
			ok++
			if !w.verbose {
				continue
			}
		case model.LinkBroken:
			broken++
		case model.LinkPending:
			pending++
		}
		fmt.Fprintf(sb, "  [%s] %s", r.Status, r.URL)
		if r.HTTPStatus != nil {
			fmt.Fprintf(sb, " (%s)", httpStatusText(r.HTTPStatus))
		}
		sb.WriteString("\n")
		if r.Details != "" {
			fmt.Fprintf(sb, "    %s\n", r.Details)
		}
	}
	fmt.Fprintf(sb, "\n  %d ok, %d broken, %d pending\n\n", ok, broken, pending)
}

// indicator returns a visual marker for a bucket.
func indicator(name string) string {
	switch name {
	case "Errors":
		return "!!"
	case "Warnings":
		return "!"
	case "Suggestions":
		return "i"
	case "Passed":
		return "+"
	case "Ignored":
		return "-"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by seocheck\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package report

import (
	"io"
	"strconv"

	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a full evaluation.
	// Returns the number of bytes written and any error encountered.
	Write(ev *engine.Evaluation) (int, error)

	// WriteLinks outputs only a link report.
	WriteLinks(records []model.LinkRecord) (int, error)
}

// MultiWriter writes to multiple Writers.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the evaluation to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(ev *engine.Evaluation) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(ev)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteLinks outputs the link report to all configured Writers.
func (m *MultiWriter) WriteLinks(records []model.LinkRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteLinks(records)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusLabel returns a display label such as "Warning", or "Initializing"
// for a nil status. A new Caser is built per call since Casers are not
// safe for concurrent use.
func statusLabel(s *model.Status) string {
	if s == nil {
		return "Initializing"
	}
	return cases.Title(language.English).String(string(*s))
}

// bucket is one category of a CategorizedResult with its display name.
type bucket struct {
	name   string
	checks []model.Check
}

// buckets lists the categories of r from most to least severe.
func buckets(r model.CategorizedResult) []bucket {
	return []bucket{
		{name: "Errors", checks: r.Bad},
		{name: "Warnings", checks: r.Fair},
		{name: "Suggestions", checks: r.Suggestion},
		{name: "Passed", checks: r.Passed},
		{name: "Ignored", checks: r.Ignored},
	}
}

// httpStatusText renders a LinkRecord.HTTPStatus for display.
func httpStatusText(v any) string {
	switch s := v.(type) {
	case nil:
		return "-"
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.Itoa(int(s))
	default:
		return "-"
	}
}

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/seocheck/internal/aggregate"
	"github.com/nao1215/seocheck/internal/engine"
	"github.com/nao1215/seocheck/internal/model"
)

// createTestEvaluation creates an evaluation with sample data for testing.
func createTestEvaluation() *engine.Evaluation {
	page := aggregate.Categorize([]model.Check{
		model.MustCheck("search_engine_title", "Search engine title is missing on the page.", model.StatusError),
		model.MustCheck("url_length", "Page URL is short.", model.StatusSuccess),
		model.MustCheck("page_content", "This page has 12 words; aim for at least 300.", model.StatusWarning),
		model.MustCheck("broken_links", "1 broken link(s) found on this page.", model.StatusError),
	}, aggregate.NewIgnoreSet("page_content"))

	kwCheck := model.MustCheck("keyword_in_title", "No focus keyword set to analyze the title.", model.StatusSuggestion)
	kwCheck.Description = "Add a focus keyword to run keyword checks."
	keyword := aggregate.Categorize([]model.Check{kwCheck}, nil)

	ps := aggregate.Summarize(page)
	ks := aggregate.Summarize(keyword)

	return &engine.Evaluation{
		Entity:         model.EntityKey{ID: 42, Type: model.EntityPost},
		URL:            "https://example.com/hello-world/",
		Page:           page,
		PageSummary:    ps,
		KeywordChecks:  keyword,
		KeywordSummary: ks,
		Summary:        aggregate.Combine(ps, ks),
		Links: []model.LinkRecord{
			{URL: "https://example.com/ok", Status: model.LinkOK, HTTPStatus: 200},
			{URL: "https://example.com/gone", Status: model.LinkBroken, HTTPStatus: 404, Details: "The server responded with HTTP 404 Not Found."},
			{URL: "https://slow.example/", Status: model.LinkBroken, HTTPStatus: model.HTTPStatusRequestFailed, Details: "The request timed out after 10s."},
		},
		Warnings:    []string{"server checks unavailable: backend returned 503"},
		EvaluatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestEvaluation()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"SEO CHECK REPORT",
			"post:42",
			"https://example.com/hello-world/",
			"Status:         Error",
			"ERROR:      2",
			"Warning:        server checks unavailable",
			"Keyword: Suggestion",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("lists checks by category", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestEvaluation()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!!] Errors") {
			t.Error("expected errors category")
		}
		if !strings.Contains(output, "[-] Ignored\n  * This page has 12 words; aim for at least 300. (page_content)") {
			t.Error("expected ignored check under Ignored")
		}
		if strings.Contains(output, "[!] Warnings") {
			t.Error("empty warnings category should be hidden")
		}
	})

	t.Run("show empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(createTestEvaluation()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!] Warnings\n  None") {
			t.Error("expected empty warnings category with None")
		}
	})

	t.Run("verbose shows descriptions and ok links", func(t *testing.T) {
		t.Parallel()

		var quiet, verbose bytes.Buffer
		ev := createTestEvaluation()
		if _, err := NewSimpleWriter(&quiet).Write(ev); err != nil {
			t.Fatal(err)
		}
		if _, err := NewSimpleWriter(&verbose, WithVerbose(true)).Write(ev); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(quiet.String(), "[ok] https://example.com/ok") {
			t.Error("ok links should be hidden without verbose")
		}
		if !strings.Contains(verbose.String(), "[ok] https://example.com/ok (200)") {
			t.Error("ok links should be listed with verbose")
		}
		if !strings.Contains(verbose.String(), "Add a focus keyword to run keyword checks.") {
			t.Error("descriptions should be listed with verbose")
		}
	})

	t.Run("link report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteLinks(createTestEvaluation().Links); err != nil {
			t.Fatal(err)
		}
		output := buf.String()
		if !strings.Contains(output, "[broken] https://slow.example/ (http_request_failed)") {
			t.Error("expected request failure marker")
		}
		if !strings.Contains(output, "1 ok, 2 broken, 0 pending") {
			t.Errorf("expected link totals, got:\n%s", output)
		}
	})

	t.Run("no links", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteLinks(nil); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No links found") {
			t.Error("expected empty link report")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact evaluation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestEvaluation()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("compact output should be a single line")
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		page, ok := decoded["page"].(map[string]any)
		if !ok {
			t.Fatal("missing page group")
		}
		for _, key := range []string{"badChecks", "fairChecks", "passedChecks", "suggestionChecks", "ignoredChecks"} {
			if _, ok := page[key]; !ok {
				t.Errorf("page group missing %q", key)
			}
		}
		summary, ok := decoded["summary"].(map[string]any)
		if !ok || summary["status"] != "error" {
			t.Errorf("summary = %v", decoded["summary"])
		}
	})

	t.Run("versioned and pretty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("v1.2.3"))
		if _, err := w.Write(createTestEvaluation()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"version\": \"v1.2.3\"") {
			t.Errorf("expected indented version field, got:\n%s", buf.String())
		}
		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Evaluation == nil || decoded.Evaluation.Entity.ID != 42 {
			t.Errorf("evaluation = %+v", decoded.Evaluation)
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).WriteLinks(nil); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "[]\n" {
			t.Errorf("WriteLinks(nil) = %q, want []", buf.String())
		}
	})

	t.Run("link records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteLinks(createTestEvaluation().Links); err != nil {
			t.Fatal(err)
		}
		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 3 || decoded[1]["httpStatus"] != float64(404) || decoded[2]["httpStatus"] != "http_request_failed" {
			t.Errorf("decoded links = %v", decoded)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestEvaluation()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# SEO Check Report",
			"## Summary",
			"## Page Checks",
			"## Keyword Checks",
			"### Ignored",
			"`page_content`",
			"```mermaid",
			"## Links",
			"[!CAUTION]",
			"[!WARNING]",
			"<details>",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected markdown to contain %q", want)
			}
		}
	})

	t.Run("initializing evaluation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		ev := &engine.Evaluation{Summary: aggregate.Initializing()}
		if _, err := NewMarkdownWriter(&buf).Write(ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No checks have been evaluated yet.") {
			t.Error("expected initializing note")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("no chart expected without checks")
		}
		if strings.Contains(output, "## Links") {
			t.Error("no link section expected without link verification")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*engine.Evaluation) (int, error) { return 0, errors.New("disk full") }

func (failingWriter) WriteLinks([]model.LinkRecord) (int, error) { return 0, errors.New("disk full") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := mw.Write(createTestEvaluation())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("bytes written = %d, want %d", n, text.Len()+js.Len())
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))
		if _, err := mw.WriteLinks(nil); err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("writers after the failing one should not run")
		}
	})
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	warning := model.StatusWarning
	if got := statusLabel(&warning); got != "Warning" {
		t.Errorf("statusLabel(warning) = %q", got)
	}
	if got := statusLabel(nil); got != "Initializing" {
		t.Errorf("statusLabel(nil) = %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

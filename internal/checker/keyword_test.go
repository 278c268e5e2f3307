package checker

import (
	"testing"

	"github.com/nao1215/seocheck/internal/model"
)

func TestKeywordCheckers(t *testing.T) {
	t.Parallel()

	type checkerFunc func(field, keyword string) model.Check

	checkers := map[string]checkerFunc{
		RuleKeywordInTitle:       KeywordInTitle,
		RuleKeywordInDescription: KeywordInDescription,
		RuleKeywordInURL:         KeywordInURL,
		RuleKeywordInContent:     KeywordInContent,
	}

	tests := []struct {
		name    string
		field   string
		keyword string
		want    model.Status
	}{
		{name: "missing keyword is a suggestion", field: "anything", keyword: "", want: model.StatusSuggestion},
		{name: "blank keyword is a suggestion", field: "anything", keyword: "   ", want: model.StatusSuggestion},
		{name: "missing field is a warning", field: "", keyword: "seo", want: model.StatusWarning},
		{name: "whitespace field is a warning", field: " \n", keyword: "seo", want: model.StatusWarning},
		{name: "case-insensitive match succeeds", field: "Best SEO tips", keyword: "seo", want: model.StatusSuccess},
		{name: "no match is a warning", field: "Gardening tips", keyword: "seo", want: model.StatusWarning},
	}

	for id, fn := range checkers {
		for _, tt := range tests {
			t.Run(id+"/"+tt.name, func(t *testing.T) {
				t.Parallel()
				got := fn(tt.field, tt.keyword)
				if got.ID != id {
					t.Errorf("expected id %q, got %q", id, got.ID)
				}
				if got.Status != tt.want {
					t.Errorf("expected %q, got %q (%s)", tt.want, got.Status, got.Title)
				}
				if got.Ignore {
					t.Error("checkers must never set ignore")
				}
			})
		}
	}
}

func TestKeywordInURLSlug(t *testing.T) {
	t.Parallel()

	t.Run("matches hyphenated slug form", func(t *testing.T) {
		t.Parallel()
		got := KeywordInURL("https://example.com/seo-plugin-guide/", "SEO Plugin")
		if got.Status != model.StatusSuccess {
			t.Errorf("expected success, got %q", got.Status)
		}
	})

	t.Run("title does not use slug form", func(t *testing.T) {
		t.Parallel()
		got := KeywordInTitle("seo-plugin-guide", "SEO Plugin")
		if got.Status != model.StatusWarning {
			t.Errorf("expected warning, got %q", got.Status)
		}
	})
}

func TestKeywordExampleScenario(t *testing.T) {
	t.Parallel()

	snap := model.Snapshot{Title: "", Description: "", URL: "/", Content: "SureRank makes SEO easy"}

	if got := KeywordInContent(snap.Content, "SureRank"); got.Status != model.StatusSuccess {
		t.Errorf("content: expected success, got %q", got.Status)
	}
	if got := KeywordInTitle(snap.Title, "SureRank"); got.Status != model.StatusWarning {
		t.Errorf("title: expected warning, got %q", got.Status)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"SEO Plugin":        "seo-plugin",
		"  many   spaces  ": "many-spaces",
		"single":            "single",
		"":                  "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

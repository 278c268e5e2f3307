package checker

import (
	"strings"

	"github.com/nao1215/seocheck/internal/model"
	"golang.org/x/text/cases"
)

// Keyword rule identifiers.
const (
	RuleKeywordInTitle       = "keyword_in_title"
	RuleKeywordInDescription = "keyword_in_description"
	RuleKeywordInURL         = "keyword_in_url"
	RuleKeywordInContent     = "keyword_in_content"
)

// keywordRule describes the wording of one keyword check.
type keywordRule struct {
	id    string
	field string // "title", "meta description", ...
}

var (
	titleRule       = keywordRule{id: RuleKeywordInTitle, field: "title"}
	descriptionRule = keywordRule{id: RuleKeywordInDescription, field: "meta description"}
	urlRule         = keywordRule{id: RuleKeywordInURL, field: "URL"}
	contentRule     = keywordRule{id: RuleKeywordInContent, field: "content"}
)

// KeywordInTitle checks that the focus keyword appears in the SEO title.
func KeywordInTitle(title, keyword string) model.Check {
	return titleRule.evaluate(title, keyword, containsFold)
}

// KeywordInDescription checks that the focus keyword appears in the meta
// description.
func KeywordInDescription(description, keyword string) model.Check {
	return descriptionRule.evaluate(description, keyword, containsFold)
}

// KeywordInURL checks that the focus keyword appears in the URL, either
// verbatim or in its hyphenated slug form ("seo plugin" -> "seo-plugin").
func KeywordInURL(url, keyword string) model.Check {
	return urlRule.evaluate(url, keyword, func(field, kw string) bool {
		return containsFold(field, kw) || containsFold(field, Slugify(kw))
	})
}

// KeywordInContent checks that the focus keyword appears in the body text.
func KeywordInContent(content, keyword string) model.Check {
	return contentRule.evaluate(content, keyword, containsFold)
}

// evaluate applies the shared keyword rule shape:
// no keyword -> suggestion, no field -> warning, match -> success,
// otherwise warning.
func (r keywordRule) evaluate(field, keyword string, match func(field, keyword string) bool) model.Check {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return model.MustCheck(r.id, "No focus keyword set to analyze the "+r.field+".", model.StatusSuggestion)
	}
	if strings.TrimSpace(field) == "" {
		return model.MustCheck(r.id, "No "+r.field+" found to analyze.", model.StatusWarning)
	}
	if match(field, keyword) {
		return model.MustCheck(r.id, "Focus keyword appears in the "+r.field+".", model.StatusSuccess)
	}
	return model.MustCheck(r.id, "Focus keyword does not appear in the "+r.field+".", model.StatusWarning)
}

// containsFold reports whether needle occurs in haystack under Unicode
// case folding.
//
// A Caser holds state, so a fresh one is built per call instead of
// sharing a package-level value across goroutines.
func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(haystack), fold.String(needle))
}

// Slugify lowercases s and joins its whitespace-separated words with
// hyphens, matching how WordPress builds post slugs from titles.
func Slugify(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), "-")
}

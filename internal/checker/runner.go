package checker

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/seocheck/internal/model"
)

// Rule is one deferred checker invocation.
// ID must match the id the checker would produce; it is used when the
// rule panics and a fallback check has to be built.
type Rule struct {
	ID    string
	Check func() model.Check
}

// Input is everything the built-in rules read.
type Input struct {
	Snapshot model.Snapshot
	Metadata model.Metadata

	// Links is the current link verification report, nil when link
	// verification is disabled or has not run.
	Links []model.LinkRecord
}

// KeywordRules returns the four keyword rules for in.
func KeywordRules(in Input) []Rule {
	title := in.Metadata.ResolvedTitle(in.Snapshot)
	description := in.Metadata.ResolvedDescription(in.Snapshot)
	url := in.Snapshot.URL
	if in.Snapshot.Permalink != "" {
		url = in.Snapshot.Permalink
	}
	kw := in.Metadata.Keyword

	return []Rule{
		{ID: RuleKeywordInTitle, Check: func() model.Check { return KeywordInTitle(title, kw) }},
		{ID: RuleKeywordInDescription, Check: func() model.Check { return KeywordInDescription(description, kw) }},
		{ID: RuleKeywordInURL, Check: func() model.Check { return KeywordInURL(url, kw) }},
		{ID: RuleKeywordInContent, Check: func() model.Check { return KeywordInContent(in.Snapshot.Content, kw) }},
	}
}

// PageRules returns the structural page rules for in.
func PageRules(in Input) []Rule {
	title := in.Metadata.ResolvedTitle(in.Snapshot)
	description := in.Metadata.ResolvedDescription(in.Snapshot)

	rules := []Rule{
		{ID: RuleTitle, Check: func() model.Check { return TitleLength(title) }},
		{ID: RuleDescription, Check: func() model.Check { return DescriptionLength(description) }},
		{ID: RuleURLLength, Check: func() model.Check { return URLLength(in.Snapshot.URL) }},
		{ID: RuleContent, Check: func() model.Check { return ContentLength(in.Snapshot.Content) }},
	}
	if in.Links != nil {
		rules = append(rules, Rule{ID: RuleBrokenLinks, Check: func() model.Check { return BrokenLinks(in.Links) }})
	}
	return rules
}

// Run evaluates rules in order and isolates failures.
// A rule that panics or returns an invalid check is replaced by a warning
// check carrying the rule id, and the remaining rules still run.
func Run(logger *slog.Logger, rules []Rule) []model.Check {
	if logger == nil {
		logger = slog.Default()
	}
	checks := make([]model.Check, 0, len(rules))
	for _, r := range rules {
		checks = append(checks, runOne(logger, r))
	}
	return checks
}

func runOne(logger *slog.Logger, r Rule) (c model.Check) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("checker panicked", "rule", r.ID, "panic", fmt.Sprint(p))
			c = failedCheck(r.ID)
		}
	}()

	c = r.Check()
	if err := c.Validate(); err != nil {
		logger.Error("checker returned invalid check", "rule", r.ID, "error", err)
		return failedCheck(r.ID)
	}
	return c
}

func failedCheck(id string) model.Check {
	if id == "" {
		id = "unknown_rule"
	}
	return model.Check{ID: id, Title: "This check could not be evaluated.", Status: model.StatusWarning}
}

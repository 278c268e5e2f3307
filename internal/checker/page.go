package checker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/seocheck/internal/model"
)

// Page rule identifiers.
const (
	RuleTitle       = "search_engine_title"
	RuleDescription = "search_engine_description"
	RuleURLLength   = "url_length"
	RuleContent     = "page_content"
	RuleBrokenLinks = "broken_links"
)

// Length limits used by the page rules. Search engines truncate titles
// around 60 characters and descriptions around 160.
const (
	MaxTitleLength       = 60
	MaxDescriptionLength = 160
	MaxURLLength         = 90
	MinContentWords      = 300
)

// TitleLength checks that the title exists and fits in a result snippet.
func TitleLength(title string) model.Check {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return model.MustCheck(RuleTitle, "Search engine title is missing on the page.", model.StatusError)
	case n > MaxTitleLength:
		return model.MustCheck(RuleTitle,
			"Search engine title exceeds "+strconv.Itoa(MaxTitleLength)+" characters ("+strconv.Itoa(n)+").",
			model.StatusWarning)
	default:
		return model.MustCheck(RuleTitle, "Search engine title is present and under "+strconv.Itoa(MaxTitleLength)+" characters.", model.StatusSuccess)
	}
}

// DescriptionLength checks that the meta description exists and fits in a
// result snippet.
func DescriptionLength(description string) model.Check {
	description = strings.TrimSpace(description)
	n := utf8.RuneCountInString(description)
	switch {
	case n == 0:
		return model.MustCheck(RuleDescription, "Search engine description is missing on the page.", model.StatusWarning)
	case n > MaxDescriptionLength:
		return model.MustCheck(RuleDescription,
			"Search engine description exceeds "+strconv.Itoa(MaxDescriptionLength)+" characters ("+strconv.Itoa(n)+").",
			model.StatusWarning)
	default:
		return model.MustCheck(RuleDescription, "Search engine description is present and under "+strconv.Itoa(MaxDescriptionLength)+" characters.", model.StatusSuccess)
	}
}

// URLLength checks that the page URL stays short.
func URLLength(url string) model.Check {
	n := utf8.RuneCountInString(strings.TrimSpace(url))
	switch {
	case n == 0:
		return model.MustCheck(RuleURLLength, "No URL found to analyze.", model.StatusWarning)
	case n > MaxURLLength:
		return model.MustCheck(RuleURLLength,
			"Page URL is longer than "+strconv.Itoa(MaxURLLength)+" characters.",
			model.StatusWarning)
	default:
		return model.MustCheck(RuleURLLength, "Page URL is short.", model.StatusSuccess)
	}
}

// ContentLength checks that the page has a reasonable amount of body text.
func ContentLength(content string) model.Check {
	words := len(strings.Fields(content))
	switch {
	case words == 0:
		return model.MustCheck(RuleContent, "This page has no content.", model.StatusError)
	case words < MinContentWords:
		return model.MustCheck(RuleContent,
			"This page has "+strconv.Itoa(words)+" words; aim for at least "+strconv.Itoa(MinContentWords)+".",
			model.StatusWarning)
	default:
		return model.MustCheck(RuleContent, "This page has enough content.", model.StatusSuccess)
	}
}

// BrokenLinks summarizes a link verification pass as one check.
// Nil records mean verification has not run, which is only a suggestion.
func BrokenLinks(records []model.LinkRecord) model.Check {
	if records == nil {
		return model.MustCheck(RuleBrokenLinks, "Links on this page have not been verified yet.", model.StatusSuggestion)
	}
	var broken, pending int
	for _, r := range records {
		switch r.Status {
		case model.LinkBroken:
			broken++
		case model.LinkPending:
			pending++
		}
	}
	switch {
	case broken > 0:
		return model.MustCheck(RuleBrokenLinks, strconv.Itoa(broken)+" broken link(s) found on this page.", model.StatusError)
	case pending > 0:
		return model.MustCheck(RuleBrokenLinks, strconv.Itoa(pending)+" link(s) are still being verified.", model.StatusSuggestion)
	default:
		return model.MustCheck(RuleBrokenLinks, "No broken links found on this page.", model.StatusSuccess)
	}
}

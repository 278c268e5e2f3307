package engine

import (
	"time"

	"github.com/nao1215/seocheck/internal/model"
)

// Evaluation is the full result of evaluating one snapshot.
type Evaluation struct {
	Entity  model.EntityKey `json:"entity"`
	URL     string          `json:"url"`
	Keyword string          `json:"keyword,omitempty"`

	// Page holds the structural page checks, including server-computed
	// ones when a server source is configured.
	Page        model.CategorizedResult `json:"page"`
	PageSummary model.Summary           `json:"pageSummary"`

	// KeywordChecks holds the focus keyword checks.
	KeywordChecks  model.CategorizedResult `json:"keywordChecks"`
	KeywordSummary model.Summary           `json:"keywordSummary"`

	// Summary combines the page and keyword summaries.
	Summary model.Summary `json:"summary"`

	// Links is the link report, nil when link verification is off.
	Links []model.LinkRecord `json:"links,omitempty"`

	// Warnings lists problems that degraded the evaluation without
	// failing it, such as an unreachable server check endpoint.
	Warnings []string `json:"warnings,omitempty"`

	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// BrokenLinks returns the broken records of the link report.
func (e Evaluation) BrokenLinks() []model.LinkRecord {
	var broken []model.LinkRecord
	for _, r := range e.Links {
		if r.Status == model.LinkBroken {
			broken = append(broken, r)
		}
	}
	return broken
}

// PendingLinks returns the number of links not verified yet.
func (e Evaluation) PendingLinks() int {
	n := 0
	for _, r := range e.Links {
		if r.Status == model.LinkPending {
			n++
		}
	}
	return n
}

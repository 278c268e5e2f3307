package aggregate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/seocheck/internal/model"
)

// IgnoreSet is the set of check ids the user suppressed.
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds an IgnoreSet from a list of ids.
func NewIgnoreSet(ids ...string) IgnoreSet {
	set := make(IgnoreSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is ignored.
func (s IgnoreSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Categorize partitions checks into buckets.
//
// A check whose id is in ignored goes only to Ignored, with Ignore set.
// Every other check goes to the bucket of its status with Ignore cleared.
// Input order is kept inside each bucket, and the input slice is not
// modified.
//
// The bucket lengths add up to len(checks) only for checks built with
// model.NewCheck. A check with an unknown status is dropped and logged as
// a warning on the default logger; use CategorizeStrict to get the error.
func Categorize(checks []model.Check, ignored IgnoreSet) model.CategorizedResult {
	result, err := categorize(checks, ignored)
	if err != nil {
		slog.Default().Warn("dropped checks with unknown status", "error", err)
	}
	return result
}

// CategorizeStrict is Categorize but returns an error listing every check
// whose status is outside the taxonomy. The returned result still holds
// all valid checks.
func CategorizeStrict(checks []model.Check, ignored IgnoreSet) (model.CategorizedResult, error) {
	return categorize(checks, ignored)
}

func categorize(checks []model.Check, ignored IgnoreSet) (model.CategorizedResult, error) {
	result := model.CategorizedResult{
		Bad:        make([]model.Check, 0),
		Fair:       make([]model.Check, 0),
		Passed:     make([]model.Check, 0),
		Suggestion: make([]model.Check, 0),
		Ignored:    make([]model.Check, 0),
	}

	var errs []error
	for _, c := range checks {
		if ignored.Has(c.ID) {
			c.Ignore = true
			result.Ignored = append(result.Ignored, c)
			continue
		}

		c.Ignore = false
		switch c.Status {
		case model.StatusError:
			result.Bad = append(result.Bad, c)
		case model.StatusWarning:
			result.Fair = append(result.Fair, c)
		case model.StatusSuggestion:
			result.Suggestion = append(result.Suggestion, c)
		case model.StatusSuccess:
			result.Passed = append(result.Passed, c)
		default:
			errs = append(errs, fmt.Errorf("check %s: %w: %q", c.ID, model.ErrUnknownStatus, c.Status))
		}
	}

	return result, errors.Join(errs...)
}

// Summarize derives the display status and counters of a categorized
// result. Ignored checks do not count.
//
// The status is success when no bad, fair or suggestion check remains,
// including when every check is ignored. Use Initializing for the state
// before any evaluation.
func Summarize(result model.CategorizedResult) model.Summary {
	counts := model.Counts{
		Error:      len(result.Bad),
		Warning:    len(result.Fair),
		Suggestion: len(result.Suggestion),
		Success:    len(result.Passed),
	}
	counts.ErrorAndWarnings = counts.Error + counts.Warning

	return model.Summary{Status: statusFor(counts), Counts: counts}
}

// Initializing returns the summary shown before the first evaluation.
func Initializing() model.Summary {
	return model.Summary{}
}

// Combine merges two summaries by summing their counters like-for-like
// and recomputing the status with the same precedence as Summarize.
//
// Combine works on counts, not checks: a rule that appears in both groups
// is counted twice. The result is initializing only when both inputs are.
// Combine is commutative.
func Combine(a, b model.Summary) model.Summary {
	if a.Initializing() && b.Initializing() {
		return Initializing()
	}

	counts := model.Counts{
		Error:      a.Counts.Error + b.Counts.Error,
		Warning:    a.Counts.Warning + b.Counts.Warning,
		Suggestion: a.Counts.Suggestion + b.Counts.Suggestion,
		Success:    a.Counts.Success + b.Counts.Success,
	}
	counts.ErrorAndWarnings = counts.Error + counts.Warning

	return model.Summary{Status: statusFor(counts), Counts: counts}
}

func statusFor(c model.Counts) *model.Status {
	var s model.Status
	switch {
	case c.Error > 0:
		s = model.StatusError
	case c.Warning > 0:
		s = model.StatusWarning
	case c.Suggestion > 0:
		s = model.StatusSuggestion
	default:
		s = model.StatusSuccess
	}
	return &s
}

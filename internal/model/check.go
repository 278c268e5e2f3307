package model

import "fmt"

// Check is the result of evaluating one SEO rule against a document.
//
// ID is the stable rule name (for example "keyword_in_title") and is the
// identity used by the ignore list. Ignore is never set by a checker; the
// aggregator stamps it from the override list.
type Check struct {
	// ID is the stable rule identifier.
	ID string `json:"id"`

	// Title is the human-readable message for the current outcome.
	Title string `json:"title"`

	// Description optionally explains the rule. Server-computed checks
	// carry one; local checkers usually leave it empty.
	Description string `json:"description,omitempty"`

	// Status is one of the four statuses in the taxonomy.
	Status Status `json:"status"`

	// Ignore is true when the user suppressed this rule for the entity.
	Ignore bool `json:"ignore"`
}

// NewCheck builds a Check and validates it.
// An empty id or an unknown status is a programming error and is rejected
// here rather than when the check is consumed.
func NewCheck(id, title string, status Status) (Check, error) {
	if id == "" {
		return Check{}, ErrEmptyCheckID
	}
	if !status.Valid() {
		return Check{}, fmt.Errorf("check %s: %w: %q", id, ErrUnknownStatus, status)
	}
	return Check{ID: id, Title: title, Status: status}, nil
}

// MustCheck is like NewCheck but panics on invalid input.
// It is meant for checkers whose id and status are compile-time constants.
func MustCheck(id, title string, status Status) Check {
	c, err := NewCheck(id, title, status)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate reports whether the check satisfies the construction invariants.
func (c Check) Validate() error {
	_, err := NewCheck(c.ID, c.Title, c.Status)
	return err
}

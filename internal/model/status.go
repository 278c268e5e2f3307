package model

import "fmt"

// Status is the outcome of a single SEO rule evaluation.
//
// Status values are strings rather than iota constants because they travel
// unchanged between the backend, the JSON report and the UI.
type Status string

const (
	// StatusSuccess means the rule passed.
	StatusSuccess Status = "success"

	// StatusWarning means the rule found something worth fixing, or the
	// field it needs is missing.
	StatusWarning Status = "warning"

	// StatusError means the rule found a problem that hurts the page.
	StatusError Status = "error"

	// StatusSuggestion means the rule could not run because an optional
	// input (usually the focus keyword) is not configured.
	StatusSuggestion Status = "suggestion"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusWarning, StatusError, StatusSuggestion:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the status.
func (s Status) String() string {
	return string(s)
}

// Rank orders statuses by display precedence:
// error > warning > suggestion > success. Unknown statuses rank lowest.
func (s Status) Rank() int {
	switch s {
	case StatusError:
		return 4
	case StatusWarning:
		return 3
	case StatusSuggestion:
		return 2
	case StatusSuccess:
		return 1
	default:
		return 0
	}
}

// ParseStatus converts a raw string into a Status.
// It returns ErrUnknownStatus for anything outside the taxonomy.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

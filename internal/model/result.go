package model

// CategorizedResult partitions the checks of one evaluation run into
// buckets. Every check of the run appears in exactly one bucket; ignored
// checks appear only in Ignored.
//
// A CategorizedResult is replaced wholesale, never patched, so readers can
// not observe a half-updated set of buckets.
type CategorizedResult struct {
	Bad        []Check `json:"badChecks"`
	Fair       []Check `json:"fairChecks"`
	Passed     []Check `json:"passedChecks"`
	Suggestion []Check `json:"suggestionChecks"`
	Ignored    []Check `json:"ignoredChecks"`
}

// Total returns the number of checks across all buckets.
func (r CategorizedResult) Total() int {
	return len(r.Bad) + len(r.Fair) + len(r.Passed) + len(r.Suggestion) + len(r.Ignored)
}

// All returns every check in bucket order: bad, fair, suggestion, passed,
// ignored.
func (r CategorizedResult) All() []Check {
	all := make([]Check, 0, r.Total())
	all = append(all, r.Bad...)
	all = append(all, r.Fair...)
	all = append(all, r.Suggestion...)
	all = append(all, r.Passed...)
	all = append(all, r.Ignored...)
	return all
}

// Counts holds per-status counters of a summary.
type Counts struct {
	Error            int `json:"error"`
	Warning          int `json:"warning"`
	Suggestion       int `json:"suggestion"`
	Success          int `json:"success"`
	ErrorAndWarnings int `json:"errorAndWarnings"`
}

// Summary is the compact status indicator derived from a CategorizedResult.
// Status is nil while nothing has been evaluated yet ("initializing").
type Summary struct {
	Status *Status `json:"status"`
	Counts Counts  `json:"counts"`
}

// StatusOrEmpty returns the summary status, or "" while initializing.
func (s Summary) StatusOrEmpty() Status {
	if s.Status == nil {
		return ""
	}
	return *s.Status
}

// Initializing reports whether no check has been evaluated yet.
func (s Summary) Initializing() bool {
	return s.Status == nil
}

package model

import "time"

// LinkStatus is the verification state of an outbound link.
type LinkStatus string

const (
	// LinkPending means the link was extracted but not verified yet.
	LinkPending LinkStatus = "pending"

	// LinkOK means the link answered with a status below 400.
	LinkOK LinkStatus = "ok"

	// LinkBroken means the request failed or answered with 400 or above.
	LinkBroken LinkStatus = "broken"
)

// HTTPStatusRequestFailed is the HTTPStatus value recorded when no HTTP
// response was received at all (timeout, DNS failure, refused connection).
const HTTPStatusRequestFailed = "http_request_failed"

// LinkRecord is the verification result for one URL.
//
// A settled record (ok or broken) is never modified in place; a forced
// re-verification replaces it with a new record.
type LinkRecord struct {
	URL    string     `json:"url"`
	Status LinkStatus `json:"status"`

	// HTTPStatus is the numeric response code, or HTTPStatusRequestFailed
	// when no response arrived. Nil while pending.
	HTTPStatus any `json:"httpStatus,omitempty"`

	// Details explains why the link is broken.
	Details string `json:"details,omitempty"`

	// CheckedAt is when the record settled.
	CheckedAt time.Time `json:"checkedAt,omitzero"`
}

// Settled reports whether verification finished for this record.
func (r LinkRecord) Settled() bool {
	return r.Status == LinkOK || r.Status == LinkBroken
}

// Progress reports how many URLs of a verification pass have settled.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

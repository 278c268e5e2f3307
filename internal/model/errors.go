package model

import "errors"

var (
	// ErrUnknownStatus is returned when a check is built with a status
	// outside success/warning/error/suggestion.
	ErrUnknownStatus = errors.New("unknown check status")

	// ErrEmptyCheckID is returned when a check is built without a rule id.
	ErrEmptyCheckID = errors.New("check id must not be empty")

	// ErrUnknownEntityType is returned for entity types other than post
	// and taxonomy.
	ErrUnknownEntityType = errors.New("unknown entity type")
)

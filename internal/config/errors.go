package config

import "errors"

// Configuration errors, returned by Config.Validate, LoadConfigFile and
// Config.ValidateBackend. Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no HTML file is given.
	ErrNoTarget = errors.New("no target specified: provide an HTML file")

	// ErrInvalidPostID is returned when an override command has no post id.
	ErrInvalidPostID = errors.New("invalid post id: must be positive (use --post-id)")

	// ErrInvalidDebounce is returned when the debounce interval is not positive.
	ErrInvalidDebounce = errors.New("invalid debounce: must be positive")

	// ErrInvalidWorkers is returned when the link worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidLinkCacheTTL is returned when the link cache TTL is negative.
	ErrInvalidLinkCacheTTL = errors.New("invalid link cache ttl: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidEntityType is returned for a --type other than post or taxonomy.
	ErrInvalidEntityType = errors.New("invalid entity type: must be post or taxonomy")

	// ErrInvalidFailOn is returned for a --fail-on other than error,
	// warning or suggestion.
	ErrInvalidFailOn = errors.New("invalid fail-on: must be error, warning or suggestion")

	// ErrServerChecksWithoutBackend is returned when server checks are
	// requested without a REST backend.
	ErrServerChecksWithoutBackend = errors.New("server checks require --backend")

	// ErrInvalidSiteKey is returned for a configuration file site key that
	// names no host.
	ErrInvalidSiteKey = errors.New("invalid site key: must be a host name or site URL")

	// ErrDuplicateSite is returned when two site keys name the same host.
	ErrDuplicateSite = errors.New("duplicate site: two site keys name the same host")

	// ErrIncompleteCredentials is returned when only one of username and
	// application password is set.
	ErrIncompleteCredentials = errors.New("incomplete credentials: username and application password must be set together")
)

package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate. This allows callers to use
// errors.Is for programmatic handling while still providing
// human-readable messages.
var (
	// ErrNoRoot is returned when no project directory is specified.
	ErrNoRoot = errors.New("no project directory specified")

	// ErrNoInternalDomains is returned when neither internal nor
	// legacy domains are configured: with nothing to match, every
	// URL would be external and the run would be a no-op.
	ErrNoInternalDomains = errors.New("no internal or legacy domains configured")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidFormat is returned for an unrecognized
	// replacement_format value.
	ErrInvalidFormat = errors.New(`invalid replacement format: want "auto", "base_url", "site_url", "function:<name>", or "custom"`)

	// ErrCustomFormatPlaceholder is returned when a custom format
	// does not contain the {path} placeholder, which would make every
	// replacement identical and lose the URL's path.
	ErrCustomFormatPlaceholder = errors.New("custom format must contain the {path} placeholder")

	// ErrInvalidFileType is returned when an enabled file type does
	// not start with a dot.
	ErrInvalidFileType = errors.New(`invalid file type: extensions must start with "." (e.g. ".php")`)
)

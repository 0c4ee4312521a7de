package planner

import "errors"

var (
	// ErrUnknownFormat is returned when a replacement format cannot
	// be resolved into a template. Configuration validation rejects
	// these values up front, so seeing this error means a caller
	// bypassed validation.
	ErrUnknownFormat = errors.New("unknown replacement format")

	// ErrUnclassified is returned when planning is attempted for a
	// candidate that never went through classification. Planning
	// strictly follows classification; this is a contract violation,
	// not a runtime condition.
	ErrUnclassified = errors.New("candidate has no classification")
)

package engine

import "errors"

var (
	// ErrVerificationMismatch is returned when two independent
	// classification/planning passes disagree. It blocks backup and
	// apply for the entire run until the caller re-runs or
	// investigates; this is the strongest non-destructive gate.
	ErrVerificationMismatch = errors.New("verification mismatch: independent passes disagree")

	// ErrNotVerified is returned when backup or apply is requested
	// before a consistent verification result exists. Destructive
	// phases require the verified result of the phase before them;
	// skipping it is a programming-contract violation.
	ErrNotVerified = errors.New("destructive phase requires a consistent verification result")

	// ErrNothingToMigrate is returned when planning produced no
	// change records, so there is nothing to back up or apply.
	ErrNothingToMigrate = errors.New("no internal URLs to migrate")
)

package apply

import "errors"

var (
	// ErrNoManifest is returned when apply is invoked without a
	// verified backup manifest. Destructive phases require the
	// preceding phase's verified result; proceeding without it is a
	// programming-contract violation, not a recoverable condition.
	ErrNoManifest = errors.New("apply requires a verified backup manifest")

	// ErrManifestCoverage is returned when the manifest does not
	// cover every file the apply would write.
	ErrManifestCoverage = errors.New("backup manifest does not cover all files to be written")

	// ErrOverlappingChanges is returned when two change records in
	// the same file have intersecting byte ranges. This indicates a
	// planner defect and blocks the whole apply.
	ErrOverlappingChanges = errors.New("overlapping change records within one file")

	// ErrPostCondition marks a file whose re-read content did not
	// match the expected replacements. The file is reported failed;
	// other files proceed.
	ErrPostCondition = errors.New("apply post-condition failed")
)

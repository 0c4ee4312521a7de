package backup

import "errors"

var (
	// ErrBackupIntegrity is returned when the post-write self-check
	// finds an archive entry whose bytes do not hash to the manifest
	// checksum. The run aborts before any apply occurs.
	ErrBackupIntegrity = errors.New("backup integrity check failed")

	// ErrNoFiles is returned when a backup is requested for an empty
	// file set. An empty approved change set should short-circuit
	// before reaching the backup manager.
	ErrNoFiles = errors.New("no files to back up")

	// ErrLockHeld is returned when another apply or rollback holds
	// the run lock for the same backup directory.
	ErrLockHeld = errors.New("another migration operation is in progress")
)

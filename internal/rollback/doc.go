// Package rollback restores files from a backup manifest, fully or
// selectively. Every archive entry is checksum-verified before its
// bytes touch the tree, and per-file failures never abort the rest of
// the restore.
package rollback

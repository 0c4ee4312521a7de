// Package backup snapshots the files a migration run is about to
// modify into a checksummed zip archive with a JSON manifest, and
// verifies its own work before reporting success. The apply engine
// refuses to write any file without a verified manifest entry, so a
// backup that cannot be proven restorable blocks the run.
//
// The package also owns the run lock that serializes apply and
// rollback against the same backup directory.
package backup

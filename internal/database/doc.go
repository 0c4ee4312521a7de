// Package database provides SQLite-based storage for migration run
// history. Every completed run is recorded so past migrations can be
// listed and the most recent manifest located for rollback without
// the user keeping track of manifest paths.
package database

// Package model defines the data types shared across the migration
// pipeline: URL candidates, classifications, planned changes, backup
// manifests, and run reports. Types in this package are plain data
// with no I/O beyond manifest and report persistence helpers.
package model

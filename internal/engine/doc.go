// Package engine exposes the migration operation set: scan, classify,
// plan, verify, backup, apply, and rollback. Each operation returns a
// structured result and performs no presentation, so a text CLI and a
// graphical workflow can drive the same engine as thin callers.
//
// The package also provides a Step/Pipeline orchestrator that
// sequences the operations for a full migration run.
package engine

// Package apply writes planned changes to disk. Edits are grouped
// per file, spliced in descending offset order, and written through a
// temp-file-then-rename so the original is never observable in a
// partially written state. Every written file is re-read and checked
// against the expected replacements before being reported as applied.
package apply

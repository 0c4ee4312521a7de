// Package report renders migration reports in human-readable text,
// JSON, and Markdown. Output order is canonical (file path, then
// offset) so two runs over identical inputs produce byte-identical
// reports aside from run id and timestamps, which makes reports
// diffable across runs.
package report

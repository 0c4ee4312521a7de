// Package main provides the entry point for the urlport CLI.
//
// urlport audits a source tree for hardcoded absolute URLs and
// migrates matching ones to dynamic base-URL expressions, with a
// verified backup and rollback for every run.
//
// Usage:
//
//	urlport scan /path/to/project -d example.com
//	urlport migrate /path/to/project -d example.com
//	urlport rollback /path/to/project
//
// See --help for all available options.
package main

// main is the entry point for urlport.
func main() {
	Execute()
}

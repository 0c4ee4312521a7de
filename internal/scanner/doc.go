// Package scanner extracts absolute-URL candidates from files of a
// source tree. Each candidate records the exact byte range of the
// matched literal so that later edits stay minimal.
//
// Scanning a file reads only that file's content and the shared
// scanner settings, so files can be scanned concurrently and the
// result for one file never depends on another.
package scanner

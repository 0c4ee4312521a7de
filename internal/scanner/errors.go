package scanner

import "fmt"

// ScanError marks a file the scanner skipped: unreadable, or not
// decodable as text. It is never fatal to a run; callers accumulate
// scan errors into the migration report and continue.
type ScanError struct {
	// Path is the file that could not be scanned, relative to root.
	Path string

	// Encoding is the detected encoding label for undecodable files,
	// empty when the file could not be read at all.
	Encoding string

	// URLs counts URL occurrences found after decoding the skipped
	// content, when the encoding allowed decoding. Non-zero means
	// the file holds migratable URLs once converted to UTF-8.
	URLs int

	// Err is the underlying cause, nil for binary-content skips.
	Err error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
	case e.Encoding != "" && e.URLs > 0:
		return fmt.Sprintf("scan %s: undecodable content (detected encoding %q, %d url occurrence(s); convert to utf-8 to migrate)",
			e.Path, e.Encoding, e.URLs)
	case e.Encoding != "":
		return fmt.Sprintf("scan %s: undecodable content (detected encoding %q)", e.Path, e.Encoding)
	default:
		return fmt.Sprintf("scan %s: binary content", e.Path)
	}
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ScanError) Unwrap() error { return e.Err }

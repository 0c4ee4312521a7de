package model

import "fmt"

// Classification labels a detected URL occurrence.
// Exactly one classification is assigned to each candidate; the
// classifier never re-evaluates a candidate after assignment.
//
// Design decision: We use iota-based constants rather than strings for
// efficient comparison during the verification pass, which compares
// classifications field-by-field across two independent runs.
type Classification int

const (
	// ClassUnknown is the zero value before classification runs.
	// It must never appear in a planned change or a report.
	ClassUnknown Classification = iota

	// ClassInternal marks URLs whose host matches a configured internal
	// or legacy domain. Only these produce change records.
	ClassInternal

	// ClassExternal marks URLs pointing at third-party hosts.
	// They are preserved verbatim and reported as skipped.
	ClassExternal

	// ClassWhitelisted marks URLs explicitly protected by the
	// external whitelist. Whitelist wins over every other rule,
	// including an internal domain match.
	ClassWhitelisted
)

// String returns a human-readable representation of the classification.
func (c Classification) String() string {
	switch c {
	case ClassInternal:
		return "internal"
	case ClassExternal:
		return "external"
	case ClassWhitelisted:
		return "whitelisted"
	default:
		return "unknown"
	}
}

// Context describes where in the file a candidate was found.
// Non-deep scans only rewrite quoted and attribute occurrences;
// bare-text occurrences require deep-scan mode.
type Context int

const (
	// ContextBare is an occurrence outside any quoting delimiter.
	ContextBare Context = iota

	// ContextQuoted is an occurrence inside single or double quotes
	// (string literals, most attribute values).
	ContextQuoted

	// ContextAttribute is an occurrence confirmed to sit inside an
	// HTML attribute value by the HTML tokenizer pass.
	ContextAttribute
)

// String returns a human-readable representation of the context.
func (c Context) String() string {
	switch c {
	case ContextQuoted:
		return "quoted"
	case ContextAttribute:
		return "attribute"
	default:
		return "bare"
	}
}

// Candidate is a single absolute-URL occurrence detected in a file.
// It records the exact byte range of the matched literal so that edits
// stay minimal: nothing outside [Start,End) is ever touched.
//
// A Candidate is immutable once extracted. Its identity is
// (Path, Start, End); Key returns that identity as a string.
type Candidate struct {
	// Path is the file path relative to the scanned root.
	Path string `json:"path"`

	// Start is the byte offset of the first byte of the match.
	Start int `json:"start"`

	// End is the byte offset one past the last byte of the match.
	End int `json:"end"`

	// Raw is the exact matched text, byte-for-byte.
	Raw string `json:"raw"`

	// Scheme is the URL scheme, lowercased ("http" or "https").
	Scheme string `json:"scheme"`

	// Host is the lowercased hostname without port.
	Host string `json:"host"`

	// Port is the explicit port if present, empty otherwise.
	Port string `json:"port,omitempty"`

	// URLPath is the path component, exactly as matched.
	URLPath string `json:"url_path"`

	// Query is the raw query string without the leading "?".
	Query string `json:"query,omitempty"`

	// Fragment is the fragment without the leading "#".
	Fragment string `json:"fragment,omitempty"`

	// HasQuery and HasFragment record whether the "?" / "#"
	// delimiter was present in the match. A URL ending in a bare
	// delimiter has an empty component but must keep the delimiter
	// in its replacement.
	HasQuery    bool `json:"has_query,omitempty"`
	HasFragment bool `json:"has_fragment,omitempty"`

	// Line is the 1-based line number of the match start.
	Line int `json:"line"`

	// LineText is the trimmed text of that line, for review context.
	LineText string `json:"line_text"`

	// Context records where the match sits (quoted, attribute, bare).
	Context Context `json:"context"`
}

// Key returns the candidate's identity: file path plus byte range.
// Two scans of unchanged content must produce candidates with equal keys.
func (c Candidate) Key() string {
	return fmt.Sprintf("%s:%d-%d", c.Path, c.Start, c.End)
}

// RelativeRef reassembles the candidate's path, query, and fragment
// into the suffix that replacement templates resolve against. The
// result reproduces the original components byte-for-byte so that
// prepending scheme and host reconstructs an equivalent URL.
func (c Candidate) RelativeRef() string {
	ref := c.URLPath
	if c.HasQuery {
		ref += "?" + c.Query
	}
	if c.HasFragment {
		ref += "#" + c.Fragment
	}
	return ref
}

// SkippedCandidate pairs a candidate with the reason it produced no
// change record. Skips are recorded explicitly, never dropped, so the
// report can show why each URL was left alone.
type SkippedCandidate struct {
	Candidate      Candidate      `json:"candidate"`
	Classification Classification `json:"classification"`
	Reason         string         `json:"reason"`
}

package scanner

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"

	"github.com/urlport/urlport/internal/model"
)

// urlPattern matches absolute http/https URLs: scheme, one or more
// domain labels, a TLD, an optional port, and an optional
// path/query/fragment tail. The tail stops at whitespace, quotes, and
// angle brackets so a match never swallows its quoting delimiter or
// the surrounding markup.
var urlPattern = regexp.MustCompile(
	`(?i)https?://` +
		`(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+` +
		`[a-z]{2,}` +
		`(?::[0-9]{1,5})?` +
		`(?:[/?#][^\s'"<>]*)?`,
)

// binarySniffLen is how many leading bytes are inspected for NUL
// bytes when deciding whether a file is binary.
const binarySniffLen = 8000

// Scanner extracts URL candidates from files. A Scanner is immutable
// after construction and safe for concurrent use across files.
type Scanner struct {
	root     string
	deepScan bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithDeepScan enables bare-text candidates. Without it only quoted
// and attribute occurrences are returned, because rewriting unquoted
// text is riskier and must be opted into.
func WithDeepScan(deep bool) Option {
	return func(s *Scanner) {
		s.deepScan = deep
	}
}

// New creates a Scanner rooted at the given project directory.
// Candidate paths are reported relative to root.
func New(root string, opts ...Option) *Scanner {
	s := &Scanner{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanFile extracts all URL candidates from one file. The returned
// candidates are sorted by start offset and carry exact byte ranges
// into the file's current content.
//
// Binary and undecodable files return a *ScanError; the caller skips
// the file and continues the run.
func (s *Scanner) ScanFile(relPath string) ([]model.Candidate, error) {
	content, err := os.ReadFile(filepath.Join(s.root, relPath)) //nolint:gosec // path comes from walking the configured root
	if err != nil {
		return nil, &ScanError{Path: relPath, Err: err}
	}
	return s.ScanContent(relPath, content)
}

// ScanContent extracts candidates from already-loaded content. It is
// a pure function of (settings, relPath, content): given identical
// inputs it always produces identical candidates, which the
// verification pass depends on.
func (s *Scanner) ScanContent(relPath string, content []byte) ([]model.Candidate, error) {
	if skip := classifyEncoding(content); skip != "" {
		se := &ScanError{Path: relPath, Encoding: skip}
		// UTF-16 files are text the operator can convert; decode and
		// count URL occurrences so the skip report says what the
		// file holds.
		if decoded, ok := decodeUTF16(content); ok {
			se.URLs = len(urlPattern.FindAllStringIndex(decoded, -1))
		}
		return nil, se
	}

	matches := urlPattern.FindAllIndex(content, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	// HTML files get an extra tokenizer pass so attribute occurrences
	// are tagged even when the attribute value is unquoted.
	var attrURLs map[string]bool
	if isHTMLPath(relPath) {
		attrURLs = attributeURLs(content)
	}

	lines := newLineIndex(content)
	candidates := make([]model.Candidate, 0, len(matches))
	for _, m := range matches {
		start, end := m[0], m[1]
		raw := string(content[start:end])

		cand, ok := parseCandidate(relPath, raw, start, end)
		if !ok {
			continue
		}

		cand.Context = matchContext(content, start)
		if attrURLs[raw] {
			cand.Context = model.ContextAttribute
		}
		cand.Line, cand.LineText = lines.locate(content, start)

		if !s.deepScan && cand.Context == model.ContextBare {
			continue
		}
		candidates = append(candidates, cand)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Start < candidates[j].Start
	})
	return candidates, nil
}

// parseCandidate splits a matched URL into its components without
// escaping or normalizing anything: path, query, and fragment are
// carried byte-for-byte so replacements can reproduce them exactly.
func parseCandidate(relPath, raw string, start, end int) (model.Candidate, bool) {
	schemeEnd := strings.Index(raw, "://")
	if schemeEnd < 0 {
		return model.Candidate{}, false
	}
	scheme := strings.ToLower(raw[:schemeEnd])
	rest := raw[schemeEnd+3:]

	hostport := rest
	tail := ""
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		hostport, tail = rest[:i], rest[i:]
	}
	host, port, _ := strings.Cut(hostport, ":")
	if host == "" {
		return model.Candidate{}, false
	}

	urlPath, query, fragment, hasQuery, hasFragment := splitTail(tail)
	return model.Candidate{
		Path:        relPath,
		Start:       start,
		End:         end,
		Raw:         raw,
		Scheme:      scheme,
		Host:        strings.ToLower(host),
		Port:        port,
		URLPath:     urlPath,
		Query:       query,
		Fragment:    fragment,
		HasQuery:    hasQuery,
		HasFragment: hasFragment,
	}, true
}

// splitTail separates a URL tail into path, query (without "?"), and
// fragment (without "#"). The fragment is split first because "?" may
// legally appear inside a fragment. Delimiter presence is tracked
// separately from the components: a bare trailing "?" or "#" has an
// empty component but the delimiter itself is one of the matched
// bytes and must survive the round trip.
func splitTail(tail string) (urlPath, query, fragment string, hasQuery, hasFragment bool) {
	if i := strings.Index(tail, "#"); i >= 0 {
		tail, fragment = tail[:i], tail[i+1:]
		hasFragment = true
	}
	if i := strings.Index(tail, "?"); i >= 0 {
		tail, query = tail[:i], tail[i+1:]
		hasQuery = true
	}
	return tail, query, fragment, hasQuery, hasFragment
}

// matchContext reports whether the match starting at start sits
// inside quoting delimiters. A match is quoted when the byte
// immediately before it is a single or double quote; the matched text
// itself can never contain that quote, so the pairing is unambiguous.
func matchContext(content []byte, start int) model.Context {
	if start > 0 && (content[start-1] == '\'' || content[start-1] == '"') {
		return model.ContextQuoted
	}
	return model.ContextBare
}

// classifyEncoding returns a non-empty encoding label when the
// content must be skipped: NUL bytes mean binary, and UTF-16 content
// is not ASCII-compatible so byte-offset edits would corrupt it.
// Single-byte ASCII-superset encodings scan fine as raw bytes and
// return "".
func classifyEncoding(content []byte) string {
	sniff := content
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}

	// UTF-16 BOMs before the NUL check: UTF-16 text is full of NULs.
	if bytes.HasPrefix(content, []byte{0xFE, 0xFF}) {
		return "utf-16be"
	}
	if bytes.HasPrefix(content, []byte{0xFF, 0xFE}) {
		return "utf-16le"
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		_, name, _ := charset.DetermineEncoding(sniff, "")
		if name == "" {
			name = "binary"
		}
		return name
	}
	return ""
}

// decodeUTF16 decodes BOM-prefixed UTF-16 content of either
// endianness. Reports false for content without a UTF-16 BOM or with
// malformed code units.
func decodeUTF16(content []byte) (string, bool) {
	if !bytes.HasPrefix(content, []byte{0xFE, 0xFF}) && !bytes.HasPrefix(content, []byte{0xFF, 0xFE}) {
		return "", false
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(content)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// lineIndex precomputes newline offsets for line-number lookups.
type lineIndex struct {
	// starts[i] is the byte offset where line i+1 begins.
	starts []int
}

func newLineIndex(content []byte) *lineIndex {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

// locate returns the 1-based line number containing offset and that
// line's trimmed text.
func (l *lineIndex) locate(content []byte, offset int) (int, string) {
	line := sort.Search(len(l.starts), func(i int) bool {
		return l.starts[i] > offset
	})
	lineStart := l.starts[line-1]
	lineEnd := len(content)
	if line < len(l.starts) {
		lineEnd = l.starts[line] - 1
	}
	return line, strings.TrimSpace(string(content[lineStart:lineEnd]))
}

// isHTMLPath reports whether the file should get the HTML attribute
// tokenizer pass.
func isHTMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

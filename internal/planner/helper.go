package planner

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/urlport/urlport/internal/config"
)

// helperPattern is one recognizable declaration in a bootstrap file.
// Patterns are checked in declaration order; the first one found in
// any designated file decides the auto-detected template.
//
// Priority puts explicit constant declarations first, then helper
// function declarations in name-priority order: a project that
// defines BASE_URL gets concatenation even if it also declares
// helper functions, because the constant is the more universal form.
type helperPattern struct {
	re       *regexp.Regexp
	template Template
}

var helperPatterns = []helperPattern{
	// Constant declarations.
	{regexp.MustCompile(`define\s*\(\s*['"]BASE_URL['"]\s*,`), BaseURLTemplate("BASE_URL")},
	{regexp.MustCompile(`define\s*\(\s*['"]SITE_URL['"]\s*,`), BaseURLTemplate("SITE_URL")},
	{regexp.MustCompile(`\$base_url\s*=\s*['"]`), BaseURLTemplate("BASE_URL")},
	{regexp.MustCompile(`\$site_url\s*=\s*['"]`), BaseURLTemplate("SITE_URL")},

	// Helper function declarations, in name-priority order.
	{regexp.MustCompile(`function\s+safe_url\s*\(`), FunctionTemplate("safe_url")},
	{regexp.MustCompile(`function\s+asset_url\s*\(`), FunctionTemplate("asset_url")},
	{regexp.MustCompile(`function\s+api_url\s*\(`), FunctionTemplate("api_url")},
	{regexp.MustCompile(`function\s+url\s*\(`), FunctionTemplate("url")},
	{regexp.MustCompile(`function\s+base_url\s*\(`), FunctionTemplate("base_url")},
}

// domainDeclPatterns extract the host from base-URL declarations, for
// proposing internal domains to the user. The first capture group is
// the URL value without its scheme.
var domainDeclPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)define\s*\(\s*['"]BASE_URL['"]\s*,\s*['"]https?://([^'"]+)['"]`),
	regexp.MustCompile(`(?i)define\s*\(\s*['"]SITE_URL['"]\s*,\s*['"]https?://([^'"]+)['"]`),
	regexp.MustCompile(`(?i)\$base_url\s*=\s*['"]https?://([^'"]+)['"]`),
	regexp.MustCompile(`(?i)\$site_url\s*=\s*['"]https?://([^'"]+)['"]`),
}

// Detection is the result of the helper-pattern scan: the chosen
// template and where it was found.
type Detection struct {
	Template Template

	// File is the bootstrap file the declaration was found in,
	// relative to root.
	File string

	// Example is the trimmed declaration line, for the report.
	Example string
}

// DetectHelper scans the designated bootstrap files under root for
// recognizable base-URL declarations and returns the highest-priority
// match, or nil when nothing was found (the caller then falls back to
// the generic concatenation template).
//
// The detector only reads; it never modifies files. Missing bootstrap
// files are simply skipped.
func DetectHelper(root string, bootstrapFiles []string) *Detection {
	var best *Detection
	bestPriority := len(helperPatterns)

	for _, rel := range bootstrapFiles {
		content, err := os.ReadFile(filepath.Join(root, rel)) //nolint:gosec // bootstrap paths come from configuration
		if err != nil {
			continue
		}
		for prio, hp := range helperPatterns {
			if prio >= bestPriority {
				break
			}
			loc := hp.re.FindIndex(content)
			if loc == nil {
				continue
			}
			best = &Detection{
				Template: hp.template,
				File:     rel,
				Example:  lineAround(content, loc[0]),
			}
			bestPriority = prio
		}
	}
	return best
}

// DetectDomains extracts internal-domain proposals from base-URL
// declarations in the bootstrap files. Hosts are normalized and
// deduplicated in discovery order.
func DetectDomains(root string, bootstrapFiles []string) []string {
	var domains []string
	seen := make(map[string]bool)

	for _, rel := range bootstrapFiles {
		content, err := os.ReadFile(filepath.Join(root, rel)) //nolint:gosec // bootstrap paths come from configuration
		if err != nil {
			continue
		}
		for _, re := range domainDeclPatterns {
			for _, m := range re.FindAllSubmatch(content, -1) {
				d := config.NormalizeDomain(string(m[1]))
				if d != "" && !seen[d] {
					seen[d] = true
					domains = append(domains, d)
				}
			}
		}
	}
	return domains
}

// lineAround returns the trimmed line of content containing offset.
func lineAround(content []byte, offset int) string {
	start := offset
	for start > 0 && content[start-1] != '\n' {
		start--
	}
	end := offset
	for end < len(content) && content[end] != '\n' {
		end++
	}
	return strings.TrimSpace(string(content[start:end]))
}

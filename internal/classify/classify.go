package classify

import (
	"strings"

	"github.com/urlport/urlport/internal/config"
	"github.com/urlport/urlport/internal/model"
)

// Rule is one entry of the ordered classification table. The first
// matching rule wins; there is no fallthrough re-evaluation, so a
// candidate gets exactly one classification.
//
// Design decision: We represent classification as a declarative,
// ordered rule table rather than scattered conditionals so that
// precedence and coverage are independently testable: tests can walk
// the table and check each rule in isolation.
type Rule struct {
	// Name identifies the rule in skip reasons and logs.
	Name string

	// Matches reports whether the rule applies to the candidate.
	Matches func(c model.Candidate) bool

	// Result is the classification assigned when the rule matches.
	Result model.Classification

	// Detail returns the matched value (domain or URL) for the
	// audit trail. Optional.
	Detail func(c model.Candidate) string
}

// Classifier assigns classifications using its rule table.
type Classifier struct {
	rules    []Rule
	internal []string
}

// Outcome is the result of classifying one candidate: the
// classification, the rule that fired, and the matched value.
type Outcome struct {
	Classification model.Classification
	Rule           string
	Matched        string
}

// New builds a Classifier from the configuration. Rule precedence,
// highest first:
//  1. exact URL present in the whitelist
//  2. whitelist entry matching the host as a domain
//  3. host matching an internal or legacy domain
//  4. default: external
//
// Whitelist deliberately outranks the internal match: a whitelisted
// URL is preserved verbatim even when its host is an internal domain.
func New(cfg *config.Config) *Classifier {
	whitelistURLs, whitelistDomains := splitWhitelist(cfg.ExternalWhitelist)
	internal := cfg.AllInternalDomains()

	rules := []Rule{
		{
			Name: "whitelist-url",
			Matches: func(c model.Candidate) bool {
				return matchesWhitelistURL(whitelistURLs, c.Raw)
			},
			Result: model.ClassWhitelisted,
			Detail: func(c model.Candidate) string { return c.Raw },
		},
		{
			Name: "whitelist-domain",
			Matches: func(c model.Candidate) bool {
				return matchDomain(whitelistDomains, c.Host) != ""
			},
			Result: model.ClassWhitelisted,
			Detail: func(c model.Candidate) string { return matchDomain(whitelistDomains, c.Host) },
		},
		{
			Name: "internal-domain",
			Matches: func(c model.Candidate) bool {
				return matchDomain(internal, c.Host) != ""
			},
			Result: model.ClassInternal,
			Detail: func(c model.Candidate) string { return matchDomain(internal, c.Host) },
		},
	}
	return &Classifier{rules: rules, internal: internal}
}

// InternalMatch returns the internal or legacy domain the host
// matches, ignoring rule precedence. Callers use it to notice when a
// whitelist rule overrode an internal match.
func (cl *Classifier) InternalMatch(host string) string {
	return matchDomain(cl.internal, host)
}

// Classify returns the candidate's classification outcome. Matching
// is case-insensitive and scheme-agnostic: hosts were lowercased at
// scan time and no rule looks at the scheme.
func (cl *Classifier) Classify(c model.Candidate) Outcome {
	for _, rule := range cl.rules {
		if rule.Matches(c) {
			out := Outcome{Classification: rule.Result, Rule: rule.Name}
			if rule.Detail != nil {
				out.Matched = rule.Detail(c)
			}
			return out
		}
	}
	return Outcome{Classification: model.ClassExternal, Rule: "default-external"}
}

// Rules exposes the table for coverage tests.
func (cl *Classifier) Rules() []Rule {
	return cl.rules
}

// matchDomain returns the first configured domain the host matches:
// equal to the domain, or a subdomain of it (suffix match on
// "."+domain). Returns "" when nothing matches.
func matchDomain(domains []string, host string) string {
	for _, d := range domains {
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return d
		}
	}
	return ""
}

// matchesWhitelistURL reports whether the raw URL matches a full-URL
// whitelist entry. An entry matches its exact URL and any URL it is a
// prefix of, scheme-insensitively, so whitelisting a directory
// protects everything beneath it.
func matchesWhitelistURL(entries []string, raw string) bool {
	rawNoScheme := stripScheme(strings.ToLower(raw))
	for _, e := range entries {
		if strings.HasPrefix(rawNoScheme, stripScheme(strings.ToLower(e))) {
			return true
		}
	}
	return false
}

// splitWhitelist separates whitelist entries into full URLs (contain
// a scheme or a slash) and bare domains.
func splitWhitelist(entries []string) (urls, domains []string) {
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "://") || strings.Contains(e, "/") {
			urls = append(urls, e)
			continue
		}
		domains = append(domains, config.NormalizeDomain(e))
	}
	return urls, domains
}

func stripScheme(s string) string {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return s
}

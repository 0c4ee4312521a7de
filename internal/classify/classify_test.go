package classify

import (
	"testing"

	"github.com/urlport/urlport/internal/config"
	"github.com/urlport/urlport/internal/model"
)

// newConfig builds a classifier configuration for the tests.
func newConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Root = "/tmp/site"
	cfg.InternalDomains = []string{"example.com"}
	cfg.LegacyDomains = []string{"old-example.com"}
	cfg.ExternalWhitelist = []string{
		"cdn.example.com",
		"https://example.com/static/legacy.js",
	}
	return cfg
}

// TestClassify walks the rule table through representative hosts.
func TestClassify(t *testing.T) {
	t.Parallel()

	cl := New(newConfig())

	tests := []struct {
		name      string
		candidate model.Candidate
		wantClass model.Classification
		wantRule  string
	}{
		{
			name:      "internal domain",
			candidate: model.Candidate{Raw: "https://example.com/a", Host: "example.com"},
			wantClass: model.ClassInternal,
			wantRule:  "internal-domain",
		},
		{
			name:      "legacy domain is internal",
			candidate: model.Candidate{Raw: "http://old-example.com/b", Host: "old-example.com"},
			wantClass: model.ClassInternal,
			wantRule:  "internal-domain",
		},
		{
			name:      "subdomain of internal domain",
			candidate: model.Candidate{Raw: "https://shop.example.com/c", Host: "shop.example.com"},
			wantClass: model.ClassInternal,
			wantRule:  "internal-domain",
		},
		{
			name:      "unrelated host is external",
			candidate: model.Candidate{Raw: "https://other.org/d", Host: "other.org"},
			wantClass: model.ClassExternal,
			wantRule:  "default-external",
		},
		{
			name:      "suffix lookalike is not a subdomain",
			candidate: model.Candidate{Raw: "https://notexample.com/e", Host: "notexample.com"},
			wantClass: model.ClassExternal,
			wantRule:  "default-external",
		},
		{
			name:      "whitelisted domain beats internal subdomain match",
			candidate: model.Candidate{Raw: "https://cdn.example.com/f", Host: "cdn.example.com"},
			wantClass: model.ClassWhitelisted,
			wantRule:  "whitelist-domain",
		},
		{
			name:      "whitelisted URL beats internal domain match",
			candidate: model.Candidate{Raw: "https://example.com/static/legacy.js", Host: "example.com"},
			wantClass: model.ClassWhitelisted,
			wantRule:  "whitelist-url",
		},
		{
			name:      "whitelisted URL matches scheme-insensitively",
			candidate: model.Candidate{Raw: "http://example.com/static/legacy.js", Host: "example.com"},
			wantClass: model.ClassWhitelisted,
			wantRule:  "whitelist-url",
		},
		{
			name:      "URL under a whitelisted prefix",
			candidate: model.Candidate{Raw: "https://example.com/static/legacy.js?v=2", Host: "example.com"},
			wantClass: model.ClassWhitelisted,
			wantRule:  "whitelist-url",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := cl.Classify(tt.candidate)
			if out.Classification != tt.wantClass {
				t.Errorf("Classification = %v, want %v", out.Classification, tt.wantClass)
			}
			if out.Rule != tt.wantRule {
				t.Errorf("Rule = %q, want %q", out.Rule, tt.wantRule)
			}
		})
	}
}

// TestClassifyMatchedDetail verifies that the matched domain lands in
// the outcome for the audit trail.
func TestClassifyMatchedDetail(t *testing.T) {
	t.Parallel()

	cl := New(newConfig())

	out := cl.Classify(model.Candidate{Raw: "https://shop.example.com/x", Host: "shop.example.com"})
	if out.Matched != "example.com" {
		t.Errorf("Matched = %q, want example.com", out.Matched)
	}
}

// TestClassifyNoWhitelist verifies classification with an empty
// whitelist.
func TestClassifyNoWhitelist(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Root = "/tmp/site"
	cfg.InternalDomains = []string{"example.com"}
	cl := New(cfg)

	out := cl.Classify(model.Candidate{Raw: "https://example.com/a", Host: "example.com"})
	if out.Classification != model.ClassInternal {
		t.Errorf("Classification = %v, want internal", out.Classification)
	}
}

// TestClassifyRuleTableOrder verifies the declared precedence of the
// rule table itself.
func TestClassifyRuleTableOrder(t *testing.T) {
	t.Parallel()

	rules := New(newConfig()).Rules()
	wantOrder := []string{"whitelist-url", "whitelist-domain", "internal-domain"}

	if len(rules) != len(wantOrder) {
		t.Fatalf("expected %d rules, got %d", len(wantOrder), len(rules))
	}
	for i, name := range wantOrder {
		if rules[i].Name != name {
			t.Errorf("rules[%d].Name = %q, want %q", i, rules[i].Name, name)
		}
	}
}

// TestInternalMatch verifies the precedence-free internal lookup used
// to notice whitelist overrides.
func TestInternalMatch(t *testing.T) {
	t.Parallel()

	cl := New(newConfig())

	if got := cl.InternalMatch("cdn.example.com"); got != "example.com" {
		t.Errorf("InternalMatch(cdn.example.com) = %q, want example.com", got)
	}
	if got := cl.InternalMatch("other.org"); got != "" {
		t.Errorf("InternalMatch(other.org) = %q, want empty", got)
	}
}

package scanner

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// urlAttributes are the HTML attributes whose values commonly carry
// URLs. Only these are considered by the attribute pass; URLs in
// other attributes still surface through the regex pass as quoted or
// bare candidates.
var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"data-url":   true,
	"data-href":  true,
	"poster":     true,
	"formaction": true,
	"cite":       true,
}

// attributeURLs tokenizes HTML content and collects every absolute
// URL appearing in a URL-bearing attribute value. The scanner uses
// the set to tag matching candidates with attribute context, which
// matters for unquoted attribute values the quote heuristic misses.
//
// Design decision: We use golang.org/x/net/html tokenization rather
// than extending the regex because the tokenizer correctly handles
// malformed markup common in legacy templates. Byte offsets still
// come from the regex pass; the tokenizer only contributes context.
func attributeURLs(content []byte) map[string]bool {
	urls := make(map[string]bool)
	z := html.NewTokenizer(bytes.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return urls
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		_, hasAttr := z.TagName()
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			if !urlAttributes[string(key)] {
				continue
			}
			v := strings.TrimSpace(string(val))
			if strings.HasPrefix(strings.ToLower(v), "http://") ||
				strings.HasPrefix(strings.ToLower(v), "https://") {
				urls[v] = true
			}
		}
	}
}

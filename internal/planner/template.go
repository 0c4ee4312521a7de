package planner

import (
	"fmt"
	"strings"

	"github.com/urlport/urlport/internal/config"
)

// TemplateKind discriminates the replacement template variants.
type TemplateKind int

const (
	// KindBaseURLConcat renders `NAME . '<path>'`, concatenating a
	// named base-URL constant with the quoted path.
	KindBaseURLConcat TemplateKind = iota

	// KindFunctionCall renders `name('<path>')`.
	KindFunctionCall

	// KindCustom substitutes the path into a user pattern containing
	// the {path} placeholder.
	KindCustom
)

// Template resolves a URL's path, query, and fragment into literal
// replacement text. Templates are immutable values.
type Template struct {
	kind TemplateKind

	// name is the constant name for KindBaseURLConcat or the
	// function name for KindFunctionCall.
	name string

	// pattern is the custom pattern for KindCustom.
	pattern string
}

// BaseURLTemplate returns the concatenation template for the given
// constant name (BASE_URL, SITE_URL, ...).
func BaseURLTemplate(constName string) Template {
	return Template{kind: KindBaseURLConcat, name: constName}
}

// FunctionTemplate returns the helper-call template for the given
// function name.
func FunctionTemplate(fnName string) Template {
	return Template{kind: KindFunctionCall, name: fnName}
}

// CustomTemplate returns a template substituting {path} in pattern.
// The pattern is assumed validated (config.Validate checks for the
// placeholder).
func CustomTemplate(pattern string) Template {
	return Template{kind: KindCustom, pattern: pattern}
}

// Resolve builds the replacement text for the given relative
// reference (path + "?query" + "#fragment"). The reference is
// reproduced byte-for-byte inside the result: re-assembling
// scheme+host+reference reconstructs an equivalent URL.
//
// The URL pattern cannot match a single quote, so embedding the
// reference in a single-quoted literal never needs escaping.
func (t Template) Resolve(ref string) string {
	switch t.kind {
	case KindFunctionCall:
		return fmt.Sprintf("%s('%s')", t.name, ref)
	case KindCustom:
		return strings.ReplaceAll(t.pattern, config.PathPlaceholder, ref)
	default:
		return fmt.Sprintf("%s . '%s'", t.name, ref)
	}
}

// Kind returns the template variant.
func (t Template) Kind() TemplateKind { return t.kind }

// Format returns the canonical replacement_format identifier for the
// template, used in reports and bookkeeping.
func (t Template) Format() string {
	switch t.kind {
	case KindFunctionCall:
		return config.FormatFunctionPrefix + t.name
	case KindCustom:
		return config.FormatCustom
	default:
		if t.name == "SITE_URL" {
			return "site_url"
		}
		return config.FormatBaseURL
	}
}

// TemplateFromFormat resolves an explicit (non-auto) replacement
// format into a Template. ErrUnknownFormat is returned for values
// Validate would have rejected; hitting it indicates the caller
// skipped validation.
func TemplateFromFormat(format, custom string) (Template, error) {
	switch {
	case format == config.FormatBaseURL:
		return BaseURLTemplate("BASE_URL"), nil
	case format == "site_url":
		return BaseURLTemplate("SITE_URL"), nil
	case strings.HasPrefix(format, config.FormatFunctionPrefix):
		name := strings.TrimPrefix(format, config.FormatFunctionPrefix)
		if name == "" {
			return Template{}, ErrUnknownFormat
		}
		return FunctionTemplate(name), nil
	case format == config.FormatCustom:
		if !strings.Contains(custom, config.PathPlaceholder) {
			return Template{}, ErrUnknownFormat
		}
		return CustomTemplate(custom), nil
	default:
		return Template{}, ErrUnknownFormat
	}
}

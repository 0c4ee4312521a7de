package planner

import (
	"fmt"

	"github.com/urlport/urlport/internal/classify"
	"github.com/urlport/urlport/internal/config"
	"github.com/urlport/urlport/internal/model"
)

// Planner converts classified candidates into change records using a
// fixed template. A Planner is immutable and safe for concurrent use.
type Planner struct {
	tmpl Template
}

// New creates a Planner for the given template.
func New(tmpl Template) *Planner {
	return &Planner{tmpl: tmpl}
}

// Template returns the planner's template.
func (p *Planner) Template() Template { return p.tmpl }

// ResolveTemplate picks the template for a run. An explicit format
// wins; "auto" consults the helper-pattern detector over the
// bootstrap files and falls back to plain BASE_URL concatenation when
// nothing is found. The returned Detection is nil unless
// auto-detection found a declaration.
func ResolveTemplate(cfg *config.Config) (Template, *Detection, error) {
	if cfg.ReplacementFormat != config.DefaultFormat {
		tmpl, err := TemplateFromFormat(cfg.ReplacementFormat, cfg.CustomFormat)
		return tmpl, nil, err
	}
	if det := DetectHelper(cfg.Root, cfg.BootstrapFiles); det != nil {
		return det.Template, det, nil
	}
	return BaseURLTemplate("BASE_URL"), nil, nil
}

// Plan produces the change record for one candidate, or a skip entry
// when the classification forbids rewriting. Exactly one of the
// return values is non-nil.
//
// Only internal candidates produce a change: the replacement text
// substitutes the template over the candidate's path, query, and
// fragment, reproduced byte-for-byte. Nothing outside the candidate's
// matched span is altered, so surrounding quotes and whitespace are
// preserved exactly.
func (p *Planner) Plan(c model.Candidate, out classify.Outcome) (*model.ChangeRecord, *model.SkippedCandidate) {
	switch out.Classification {
	case model.ClassInternal:
		return &model.ChangeRecord{
			Path:          c.Path,
			Start:         c.Start,
			End:           c.End,
			Original:      c.Raw,
			Replacement:   p.tmpl.Resolve(c.RelativeRef()),
			Source:        c,
			MatchedDomain: out.Matched,
		}, nil
	case model.ClassWhitelisted:
		return nil, &model.SkippedCandidate{
			Candidate:      c,
			Classification: out.Classification,
			Reason:         fmt.Sprintf("whitelisted (%s: %s)", out.Rule, out.Matched),
		}
	default:
		return nil, &model.SkippedCandidate{
			Candidate:      c,
			Classification: model.ClassExternal,
			Reason:         "external domain, preserved verbatim",
		}
	}
}

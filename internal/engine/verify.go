package engine

import (
	"context"
	"fmt"

	"github.com/urlport/urlport/internal/model"
)

// Verify re-executes classification and planning in a second,
// independent pass and compares it field-by-field against the first.
// The second pass re-reads every file fresh; reusing the first pass's
// cached content could never catch nondeterminism.
//
// Any divergence makes the result inconsistent, which blocks backup
// and apply for the whole run. Determinism is the contract: given
// fixed configuration and file content, classification and planning
// are pure functions, so a mismatch means either a logic defect or
// files changing underneath the run. Both must stop a migration.
func (e *Engine) Verify(ctx context.Context, first *Analysis) (*model.VerificationResult, *Analysis, error) {
	second, err := e.Analyze(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("verification pass: %w", err)
	}

	result := Compare(first, second)
	if !result.Consistent {
		e.logger.Error("verification mismatch",
			"candidates", result.Candidates,
			"mismatches", len(result.Mismatches),
		)
	} else {
		e.logger.Info("verification consistent", "candidates", result.Candidates)
	}
	return result, second, nil
}

// Compare diffs two analyses candidate-by-candidate. Candidates are
// matched by identity (path and byte range); a candidate present in
// only one pass is itself a mismatch.
func Compare(first, second *Analysis) *model.VerificationResult {
	result := &model.VerificationResult{Consistent: true}

	firstRepl := replacementsByKey(first)
	secondRepl := replacementsByKey(second)

	seen := make(map[string]bool, len(first.Scan.Candidates))
	for _, c := range first.Scan.Candidates {
		key := c.Key()
		seen[key] = true
		result.Candidates++

		secondOut, ok := second.Outcomes[key]
		if !ok {
			result.Mismatches = append(result.Mismatches, model.Mismatch{
				Key:   key,
				Field: "missing_second_pass",
				First: first.Outcomes[key].Classification.String(),
			})
			continue
		}

		firstOut := first.Outcomes[key]
		if firstOut.Classification != secondOut.Classification {
			result.Mismatches = append(result.Mismatches, model.Mismatch{
				Key:    key,
				Field:  "classification",
				First:  firstOut.Classification.String(),
				Second: secondOut.Classification.String(),
			})
		}
		if firstRepl[key] != secondRepl[key] {
			result.Mismatches = append(result.Mismatches, model.Mismatch{
				Key:    key,
				Field:  "replacement",
				First:  firstRepl[key],
				Second: secondRepl[key],
			})
		}
	}

	for _, c := range second.Scan.Candidates {
		if key := c.Key(); !seen[key] {
			result.Candidates++
			result.Mismatches = append(result.Mismatches, model.Mismatch{
				Key:    key,
				Field:  "missing_first_pass",
				Second: second.Outcomes[key].Classification.String(),
			})
		}
	}

	result.Consistent = len(result.Mismatches) == 0
	return result
}

// replacementsByKey indexes an analysis's planned replacement text by
// candidate identity.
func replacementsByKey(a *Analysis) map[string]string {
	out := make(map[string]string, len(a.Records))
	for _, r := range a.Records {
		out[r.Source.Key()] = r.Replacement
	}
	return out
}

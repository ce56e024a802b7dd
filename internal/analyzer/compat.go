package analyzer

import "strings"

// RuleCompatNone marks a report where no securable header is enabled.
const RuleCompatNone = "compat.none"

// CompatBaseURL prefixes every compatibility slug.
const CompatBaseURL = "https://caniuse.com/?search="

func (e *Engine) compat(s scan) []Finding {
	var findings []Finding
	for _, entry := range e.kb.Compat() {
		if !s.set.Has(entry.Header) {
			continue
		}
		findings = append(findings, Finding{
			RuleID:    "compat." + strings.ToLower(entry.Header),
			Category:  CategoryCompat,
			Header:    entry.Header,
			Evidence:  entry.Slug,
			Title:     entry.Header,
			Reference: CompatBaseURL + entry.Slug,
		})
	}
	if len(findings) == 0 {
		findings = append(findings, Finding{
			RuleID:   RuleCompatNone,
			Category: CategoryCompat,
			Title:    e.kb.Detail(RuleCompatNone).Title,
		})
	}
	return findings
}

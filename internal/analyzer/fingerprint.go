package analyzer

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RuleFingerprint identifies every fingerprint finding.
const RuleFingerprint = "fingerprint.header"

func (e *Engine) fingerprint(s scan) []Finding {
	title := cases.Title(language.Und)

	type match struct {
		canonical string
		name      string
		value     string
		note      string
	}
	var matches []match
	for _, name := range s.set.Names() {
		fp, ok := e.kb.Fingerprint(name)
		if !ok {
			continue
		}
		value, _ := s.set.Get(name)
		matches = append(matches, match{
			canonical: title.String(name),
			name:      name,
			value:     value,
			note:      fp.Annotation,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].canonical < matches[j].canonical
	})

	findings := make([]Finding, 0, len(matches))
	for _, m := range matches {
		findings = append(findings, Finding{
			RuleID:   RuleFingerprint,
			Category: CategoryFingerprint,
			Header:   m.name,
			Value:    m.value,
			Evidence: m.note,
			Title:    m.canonical,
		})
	}
	return findings
}

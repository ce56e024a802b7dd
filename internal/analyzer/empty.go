package analyzer

// RuleEmptyValue identifies every empty-value finding.
const RuleEmptyValue = "empty.value"

func (e *Engine) empty(s scan) []Finding {
	var findings []Finding
	for _, name := range s.set.Names() {
		if v, _ := s.set.Get(name); v == "" {
			findings = append(findings, Finding{
				RuleID:   RuleEmptyValue,
				Category: CategoryEmpty,
				Header:   name,
				Title:    name,
			})
		}
	}
	return findings
}

package analyzer

import "strings"

// recommendedHeaders are checked for absence, in report order.
var recommendedHeaders = []string{
	"Cache-Control",
	"Clear-Site-Data",
	"Content-Type",
	"Cross-Origin-Embedder-Policy",
	"Cross-Origin-Opener-Policy",
	"Cross-Origin-Resource-Policy",
	"Content-Security-Policy",
	"NEL",
	"Permissions-Policy",
	"Pragma",
	"Referrer-Policy",
	"Strict-Transport-Security",
	"X-Content-Type-Options",
}

const frameOptionsHeader = "X-Frame-Options"

// MissingRuleID returns the rule id used for a missing recommended header.
func MissingRuleID(header string) string {
	return "missing." + strings.ToLower(header)
}

func (e *Engine) missing(s scan) []Finding {
	var findings []Finding
	anyPresent := false

	for _, name := range recommendedHeaders {
		if s.set.Has(name) {
			anyPresent = true
			continue
		}
		findings = append(findings, e.describe(MissingRuleID(name), CategoryMissing, name))
	}

	framed := s.set.Has(frameOptionsHeader) ||
		strings.Contains(s.set.Value("Content-Security-Policy"), "frame-ancestors")
	if !framed {
		findings = append(findings, e.describe(MissingRuleID(frameOptionsHeader), CategoryMissing, frameOptionsHeader))
	}

	// With none of the recommended headers present, X-Frame-Options is
	// reported a second time. Kept for parity with established reports.
	if !anyPresent && !s.set.Has(frameOptionsHeader) {
		findings = append(findings, e.describe(MissingRuleID(frameOptionsHeader), CategoryMissing, frameOptionsHeader))
	}

	return findings
}

package analyzer

import "testing"

func TestMissing(t *testing.T) {
	all := map[string]string{"X-Frame-Options": "DENY"}
	for _, h := range recommendedHeaders {
		all[h] = "x"
	}

	cases := []struct {
		name  string
		h     map[string]string
		count int
	}{
		// X-Frame-Options is reported twice when nothing at all is set.
		{name: "empty set", h: map[string]string{}, count: 15},
		{name: "only frame options", h: map[string]string{"X-Frame-Options": "DENY"}, count: 13},
		{name: "frame-ancestors satisfies frame options", h: map[string]string{
			"Content-Security-Policy": "frame-ancestors 'none'",
		}, count: 12},
		{name: "csp without frame-ancestors", h: map[string]string{
			"Content-Security-Policy": "default-src 'self'",
		}, count: 13},
		{name: "everything present", h: all, count: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := analyze(t, "https://example.com", tc.h)
			if report.Missing.Count != tc.count {
				t.Fatalf("expected %d missing, got %d: %v", tc.count, report.Missing.Count, ruleIDs(report.Missing.Findings))
			}
		})
	}
}

func TestMissing_OrderAndDuplicateFrameOptions(t *testing.T) {
	report := analyze(t, "https://example.com", nil)
	findings := report.Missing.Findings

	for i, h := range recommendedHeaders {
		if findings[i].Header != h {
			t.Errorf("finding %d: expected %s, got %s", i, h, findings[i].Header)
		}
	}
	xfo := MissingRuleID(frameOptionsHeader)
	if findings[13].RuleID != xfo || findings[14].RuleID != xfo {
		t.Errorf("expected trailing duplicate %s, got %v", xfo, ruleIDs(findings[13:]))
	}
}

func TestMissing_CaseInsensitive(t *testing.T) {
	report := analyze(t, "https://example.com", map[string]string{"cache-control": "no-store"})
	if _, ok := findRule(report.Missing.Findings, MissingRuleID("Cache-Control")); ok {
		t.Error("lower-case cache-control should satisfy the Cache-Control check")
	}
}

package analyzer

import "github.com/khanhnv2901/hdrscan/internal/headers"

// Category groups findings in the report.
type Category string

const (
	CategoryMissing     Category = "missing"
	CategoryFingerprint Category = "fingerprint"
	CategoryInsecure    Category = "insecure"
	CategoryEmpty       Category = "empty"
	CategoryCompat      Category = "compat"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryMissing,
	CategoryFingerprint,
	CategoryInsecure,
	CategoryEmpty,
	CategoryCompat,
}

// Finding is one matched rule.
type Finding struct {
	RuleID   string   `json:"rule_id"`
	Category Category `json:"category"`
	// Header is the header the finding is about, original casing when present.
	Header string `json:"header,omitempty"`
	// Value is the header value, set for fingerprint findings.
	Value string `json:"value,omitempty"`
	// Evidence is text extracted by the rule: matched methods, directives,
	// annotations or compatibility slugs.
	Evidence  string `json:"evidence,omitempty"`
	Title     string `json:"title"`
	Detail    string `json:"detail,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// CategoryResult holds the ordered findings of one category.
type CategoryResult struct {
	Category Category  `json:"category"`
	Count    int       `json:"count"`
	Findings []Finding `json:"findings"`
}

func newCategoryResult(c Category, findings []Finding) CategoryResult {
	if findings == nil {
		findings = []Finding{}
	}
	return CategoryResult{Category: c, Count: len(findings), Findings: findings}
}

// Input is what the engine analyzes.
type Input struct {
	URL        string
	StatusCode int
	Headers    headers.Set
}

// Report is the sole output of the engine.
type Report struct {
	URL         string            `json:"url"`
	StatusCode  int               `json:"status_code"`
	Brief       bool              `json:"brief"`
	Headers     map[string]string `json:"headers"`
	Missing     CategoryResult    `json:"missing"`
	Fingerprint CategoryResult    `json:"fingerprint"`
	Insecure    CategoryResult    `json:"insecure"`
	Empty       CategoryResult    `json:"empty"`
	Compat      CategoryResult    `json:"compat"`
}

// Results returns the five category results in report order.
func (r *Report) Results() []CategoryResult {
	return []CategoryResult{r.Missing, r.Fingerprint, r.Insecure, r.Empty, r.Compat}
}

// Result returns the result of one category.
func (r *Report) Result(c Category) CategoryResult {
	switch c {
	case CategoryMissing:
		return r.Missing
	case CategoryFingerprint:
		return r.Fingerprint
	case CategoryInsecure:
		return r.Insecure
	case CategoryEmpty:
		return r.Empty
	case CategoryCompat:
		return r.Compat
	}
	return CategoryResult{Category: c, Findings: []Finding{}}
}

// CompatAvailable reports whether at least one securable header was found.
func (r *Report) CompatAvailable() bool {
	return !(len(r.Compat.Findings) == 1 && r.Compat.Findings[0].RuleID == RuleCompatNone)
}

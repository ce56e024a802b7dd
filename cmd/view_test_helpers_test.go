package cmd

import (
	"testing"
	"time"

	"github.com/khanhnv2901/hdrscan/internal/analyzer"
	"github.com/khanhnv2901/hdrscan/internal/headers"
	"github.com/khanhnv2901/hdrscan/internal/knowledge"
)

var fixedNow = time.Date(2026, time.October, 19, 10, 30, 0, 0, time.UTC)

func loadKB(t *testing.T, lang string) *knowledge.Base {
	t.Helper()
	kb, err := knowledge.Load(lang)
	if err != nil {
		t.Fatalf("load knowledge base: %v", err)
	}
	return kb
}

// newTestView analyzes h as if it had been fetched from url with status.
func newTestView(t *testing.T, url string, status int, h map[string]string, brief bool, opts viewOptions) *analysisView {
	t.Helper()
	kb := loadKB(t, "en")
	report := analyzer.New(kb, analyzer.Options{Brief: brief}).Analyze(analyzer.Input{
		URL:        url,
		StatusCode: status,
		Headers:    headers.New(h),
	})
	if opts.Now.IsZero() {
		opts.Now = fixedNow
	}
	return buildView(report, kb, opts)
}

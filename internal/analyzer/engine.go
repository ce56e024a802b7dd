package analyzer

import (
	"strings"

	"github.com/khanhnv2901/hdrscan/internal/headers"
	"github.com/khanhnv2901/hdrscan/internal/knowledge"
	"golang.org/x/sync/errgroup"
)

// KnowledgeBase is the read-only data the rule sets classify against.
// *knowledge.Base satisfies it.
type KnowledgeBase interface {
	Fingerprint(name string) (knowledge.Fingerprint, bool)
	Compat() []knowledge.CompatEntry
	Detail(id string) knowledge.Detail
}

// Options tune the presentation of findings, never their classification.
type Options struct {
	// Brief drops long explanations and references from findings.
	Brief bool
}

// Engine evaluates every rule set against an Input. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	kb   KnowledgeBase
	opts Options
}

// New returns an Engine bound to a knowledge base.
func New(kb KnowledgeBase, opts Options) *Engine {
	return &Engine{kb: kb, opts: opts}
}

// scan is the per-run view shared by all rules.
type scan struct {
	set headers.Set
	// plaintext is true when the URL uses the non-TLS scheme.
	plaintext bool
	// tls is true when the URL uses the TLS scheme.
	tls bool
}

func newScan(in Input) scan {
	u := strings.ToLower(strings.TrimSpace(in.URL))
	return scan{
		set:       in.Headers,
		plaintext: strings.HasPrefix(u, "http:"),
		tls:       strings.HasPrefix(u, "https"),
	}
}

// Analyze runs the five rule sets and assembles the report. Category order
// and the order of findings inside each category are deterministic.
func (e *Engine) Analyze(in Input) *Report {
	s := newScan(in)

	sets := []func(scan) []Finding{
		e.missing,
		e.fingerprint,
		e.insecure,
		e.empty,
		e.compat,
	}
	slots := make([][]Finding, len(sets))

	var g errgroup.Group
	for i, run := range sets {
		i, run := i, run
		g.Go(func() error {
			slots[i] = run(s)
			return nil
		})
	}
	_ = g.Wait()

	return &Report{
		URL:         in.URL,
		StatusCode:  in.StatusCode,
		Brief:       e.opts.Brief,
		Headers:     in.Headers.Map(),
		Missing:     newCategoryResult(CategoryMissing, slots[0]),
		Fingerprint: newCategoryResult(CategoryFingerprint, slots[1]),
		Insecure:    newCategoryResult(CategoryInsecure, slots[2]),
		Empty:       newCategoryResult(CategoryEmpty, slots[3]),
		Compat:      newCategoryResult(CategoryCompat, slots[4]),
	}
}

// describe builds a finding for a catalogued rule.
func (e *Engine) describe(id string, c Category, header string) Finding {
	d := e.kb.Detail(id)
	f := Finding{
		RuleID:   id,
		Category: c,
		Header:   header,
		Title:    d.Title,
	}
	if !e.opts.Brief {
		f.Detail = d.Detail
		f.Reference = d.Ref
	}
	return f
}

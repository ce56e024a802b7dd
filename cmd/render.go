package cmd

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/khanhnv2901/hdrscan/internal/analyzer"
	"github.com/khanhnv2901/hdrscan/internal/fetcher"
	"github.com/khanhnv2901/hdrscan/internal/knowledge"
	"github.com/khanhnv2901/hdrscan/internal/techdetect"
)

const reportDateLayout = "2006/01/02 - 15:04:05"

// analysisView is the presentation model shared by every output format.
type analysisView struct {
	Lang         string
	Title        string
	InfoTitle    string
	DateLabel    string
	Date         string
	URLLabel     string
	URL          string
	Note         string
	HeadersTitle string
	RawHeaders   []headerLine
	Sections     []sectionView
	ShowTech     bool
	TechTitle    string
	Technologies []string
	SummaryTitle string
	Counts       []countLine
	Elapsed      string
	Labels       viewLabels
	Brief        bool

	// Report is kept for the JSON export.
	Report *analyzer.Report
	Techs  []techdetect.Technology
}

type headerLine struct {
	Name  string
	Value string
}

type sectionView struct {
	Category analyzer.Category
	Title    string
	Intro    string
	Findings []findingView
	// Message replaces the findings when there is nothing to list.
	Message string
	// Alert marks Message as a problem rather than an all-clear.
	Alert bool
}

type findingView struct {
	Head      string
	Value     string
	Evidence  string
	Detail    string
	Reference string
}

type countLine struct {
	Label string
	Count int
}

type viewLabels struct {
	Evidence    string
	Reference   string
	Page        string
	ReportSaved string
}

type viewOptions struct {
	Raw          bool
	Tech         bool
	Technologies []techdetect.Technology
	Now          time.Time
	Elapsed      time.Duration
}

var sectionIntros = map[analyzer.Category]string{
	analyzer.CategoryFingerprint: "fingerprint_intro",
	analyzer.CategoryInsecure:    "insecure_intro",
	analyzer.CategoryEmpty:       "empty_intro",
}

var summaryCounts = []struct {
	category analyzer.Category
	message  string
}{
	{analyzer.CategoryMissing, "count_missing"},
	{analyzer.CategoryFingerprint, "count_fingerprint"},
	{analyzer.CategoryInsecure, "count_insecure"},
	{analyzer.CategoryEmpty, "count_empty"},
}

func buildView(report *analyzer.Report, kb *knowledge.Base, opts viewOptions) *analysisView {
	v := &analysisView{
		Lang:         kb.Language(),
		Title:        kb.Message("title"),
		InfoTitle:    kb.Section("info"),
		DateLabel:    kb.Message("date"),
		Date:         opts.Now.Format(reportDateLayout),
		URLLabel:     kb.Message("url"),
		URL:          report.URL,
		HeadersTitle: kb.Section("headers"),
		ShowTech:     opts.Tech,
		TechTitle:    kb.Section("technologies"),
		SummaryTitle: kb.Section("summary"),
		Elapsed:      fmt.Sprintf(kb.Message("elapsed"), opts.Elapsed.Seconds()),
		Labels: viewLabels{
			Evidence:    kb.Message("evidence"),
			Reference:   kb.Message("reference"),
			Page:        kb.Message("page"),
			ReportSaved: kb.Message("report_saved"),
		},
		Brief:  report.Brief,
		Report: report,
		Techs:  opts.Technologies,
	}

	if fetcher.IsClientError(report.StatusCode) {
		v.Note = fmt.Sprintf(kb.Message("http_client_error"), report.StatusCode, http.StatusText(report.StatusCode))
	}

	if opts.Raw {
		for _, name := range sortedKeys(report.Headers) {
			v.RawHeaders = append(v.RawHeaders, headerLine{Name: name, Value: report.Headers[name]})
		}
	}

	for _, tech := range opts.Technologies {
		v.Technologies = append(v.Technologies, tech.String())
	}

	for _, res := range report.Results() {
		section := sectionView{
			Category: res.Category,
			Title:    kb.Section(string(res.Category)),
		}
		if key, ok := sectionIntros[res.Category]; ok && !report.Brief && res.Count > 0 {
			section.Intro = kb.Message(key)
		}

		switch {
		case res.Category == analyzer.CategoryCompat && !report.CompatAvailable():
			section.Message = res.Findings[0].Title
			section.Alert = true
		case res.Count == 0:
			section.Message = kb.Message("ok")
		default:
			for _, f := range res.Findings {
				section.Findings = append(section.Findings, newFindingView(f, report.Brief))
			}
		}
		v.Sections = append(v.Sections, section)
	}

	for _, c := range summaryCounts {
		v.Counts = append(v.Counts, countLine{Label: kb.Message(c.message), Count: report.Result(c.category).Count})
	}

	return v
}

// newFindingView shapes a finding for display. Brief fingerprint findings
// show the header name only.
func newFindingView(f analyzer.Finding, brief bool) findingView {
	fv := findingView{
		Head:      f.Title,
		Evidence:  f.Evidence,
		Detail:    f.Detail,
		Reference: f.Reference,
	}
	switch f.Category {
	case analyzer.CategoryFingerprint:
		fv.Evidence = ""
		if brief {
			break
		}
		fv.Head = fmt.Sprintf("%s [%s]", f.Title, f.Evidence)
		fv.Value = f.Value
	case analyzer.CategoryCompat:
		fv.Evidence = ""
	}
	return fv
}

// writeText renders the report in the console layout.
func writeText(w io.Writer, v *analysisView, p palette) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", p.heading(v.Title))

	fmt.Fprintf(&b, "%s\n", p.heading(v.InfoTitle))
	fmt.Fprintf(&b, " %s: %s\n", v.DateLabel, v.Date)
	fmt.Fprintf(&b, " %s: %s\n", v.URLLabel, v.URL)
	if v.Note != "" {
		fmt.Fprintf(&b, " %s\n", p.note(v.Note))
	}
	b.WriteString("\n")

	if len(v.RawHeaders) > 0 {
		fmt.Fprintf(&b, "%s\n", p.heading(v.HeadersTitle))
		for _, h := range v.RawHeaders {
			fmt.Fprintf(&b, " %s: %s\n", p.header(h.Name), h.Value)
		}
		b.WriteString("\n")
	}

	for _, s := range v.Sections {
		writeSection(&b, v, s, p)
		if s.Category == analyzer.CategoryFingerprint && v.ShowTech {
			fmt.Fprintf(&b, "%s\n", p.heading(v.TechTitle))
			if len(v.Technologies) == 0 {
				b.WriteString(" -\n")
			}
			for _, tech := range v.Technologies {
				fmt.Fprintf(&b, " %s\n", p.header(tech))
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "%s\n", p.heading(v.SummaryTitle))
	for _, c := range v.Counts {
		count := fmt.Sprint(c.Count)
		if c.Count > 0 {
			count = p.finding(c.Count)
		}
		fmt.Fprintf(&b, " %s: %s\n", c.Label, count)
	}
	fmt.Fprintf(&b, "\n%s\n", v.Elapsed)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, v *analysisView, s sectionView, p palette) {
	fmt.Fprintf(b, "%s\n", p.heading(s.Title))
	if s.Message != "" {
		style := p.ok
		if s.Alert {
			style = p.finding
		}
		fmt.Fprintf(b, " %s\n\n", style(s.Message))
		return
	}
	if s.Intro != "" {
		fmt.Fprintf(b, " %s\n\n", s.Intro)
	}
	for _, f := range s.Findings {
		if s.Category == analyzer.CategoryCompat {
			fmt.Fprintf(b, " %s: %s\n", p.header(f.Head), f.Reference)
			continue
		}
		fmt.Fprintf(b, " %s\n", p.finding(f.Head))
		if f.Value != "" {
			fmt.Fprintf(b, "   %s\n", f.Value)
		}
		if f.Evidence != "" {
			fmt.Fprintf(b, "   %s: %s\n", v.Labels.Evidence, f.Evidence)
		}
		if f.Detail != "" {
			fmt.Fprintf(b, "   %s\n", f.Detail)
		}
		if f.Reference != "" {
			fmt.Fprintf(b, "   %s: %s\n", v.Labels.Reference, f.Reference)
		}
	}
	b.WriteString("\n")
}

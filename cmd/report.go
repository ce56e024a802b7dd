package cmd

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/khanhnv2901/hdrscan/internal/analyzer"
	"github.com/khanhnv2901/hdrscan/internal/fetcher"
	"github.com/khanhnv2901/hdrscan/internal/shared/constants"
	"github.com/khanhnv2901/hdrscan/internal/shared/security"
	"github.com/khanhnv2901/hdrscan/internal/techdetect"
)

const htmlTemplatePath = "templates/report.html"

//go:embed templates/report.html
var reportTemplateFS embed.FS

type outputFormat string

const (
	formatTXT  outputFormat = "txt"
	formatHTML outputFormat = "html"
	formatPDF  outputFormat = "pdf"
	formatJSON outputFormat = "json"
)

var (
	htmlTemplateFuncs = template.FuncMap{
		"countClass": countClass,
	}

	htmlReportTemplate = template.Must(
		template.New("report.html").Funcs(htmlTemplateFuncs).ParseFS(reportTemplateFS, htmlTemplatePath),
	)
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatTXT, formatHTML, formatPDF, formatJSON:
		return f, nil
	}
	return "", &OutputFormatError{Format: s}
}

// reportFileName builds <domain>_headers_<yyyymmdd>.<ext>.
func reportFileName(target *fetcher.TargetInfo, format outputFormat, now time.Time) string {
	name := fmt.Sprintf("%s_headers_%s.%s", target.Domain(), now.Format("20060102"), format)
	return security.SanitizeFileName(name)
}

// exportReport renders the view in the requested format and writes it into
// dir. It returns the absolute path of the written file.
func exportReport(v *analysisView, format outputFormat, dir, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case formatTXT:
		var buf bytes.Buffer
		err = writeText(&buf, v, plainPalette())
		data = buf.Bytes()
	case formatHTML:
		var s string
		s, err = generateHTMLReport(v)
		data = []byte(s)
	case formatPDF:
		data, err = generatePDFReportBytes(v)
	case formatJSON:
		data, err = generateJSONReport(newJSONEnvelope(v, time.Now().UTC()))
	default:
		return "", &OutputFormatError{Format: string(format)}
	}
	if err != nil {
		return "", err
	}

	path, err := security.ResolveWithin(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, constants.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// jsonEnvelope wraps the engine report for machine consumption.
type jsonEnvelope struct {
	ScanID       string                  `json:"scan_id"`
	GeneratedAt  time.Time               `json:"generated_at"`
	ToolVersion  string                  `json:"tool_version"`
	Report       *analyzer.Report        `json:"report"`
	Technologies []techdetect.Technology `json:"technologies,omitempty"`
}

func newJSONEnvelope(v *analysisView, now time.Time) jsonEnvelope {
	return jsonEnvelope{
		ScanID:       uuid.NewString(),
		GeneratedAt:  now,
		ToolVersion:  Version,
		Report:       v.Report,
		Technologies: v.Techs,
	}
}

func generateJSONReport(env jsonEnvelope) ([]byte, error) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(data, '\n'), nil
}

func generateHTMLReport(v *analysisView) (string, error) {
	var buf strings.Builder
	if err := htmlReportTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", htmlReportTemplate.Name(), err)
	}
	return buf.String(), nil
}

func countClass(n int) string {
	if n > 0 {
		return "count-bad"
	}
	return "ok"
}

func generatePDFReportBytes(v *analysisView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(v.Title), false)
	pdf.SetCreator("hdrscan "+Version, false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s %d/{nb}", v.Labels.Page, pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	heading := func(title string) {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		pdf.Ln(3)
		pdf.Bookmark(tr(title), 0, -1)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(0, 8, tr(title), "", 1, "", true, 0, "")
		pdf.Ln(1)
	}
	line := func(style string, size float64, text string) {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", style, size)
		pdf.MultiCell(0, 5, tr(text), "", "", false)
	}
	link := func(label, url string) {
		pdf.SetFont("Arial", "", 9)
		pdf.SetX(pdf.GetX() + 5)
		pdf.Write(5, tr(label+": "))
		pdf.SetTextColor(0, 0, 238)
		pdf.WriteLinkString(5, url, url)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(5)
	}

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(v.Title), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	heading(v.InfoTitle)
	line("", 10, fmt.Sprintf("%s: %s", v.DateLabel, v.Date))
	pdf.SetFont("Arial", "", 10)
	pdf.Write(5, tr(v.URLLabel+": "))
	pdf.WriteLinkString(5, v.URL, v.URL)
	pdf.Ln(5)
	if v.Note != "" {
		line("I", 9, v.Note)
	}

	if len(v.RawHeaders) > 0 {
		heading(v.HeadersTitle)
		for _, h := range v.RawHeaders {
			line("", 9, fmt.Sprintf("%s: %s", h.Name, h.Value))
		}
	}

	for _, s := range v.Sections {
		heading(s.Title)
		if s.Message != "" {
			style := ""
			if s.Alert {
				style = "B"
			}
			line(style, 10, s.Message)
		} else {
			if s.Intro != "" {
				line("I", 9, s.Intro)
				pdf.Ln(1)
			}
			for _, f := range s.Findings {
				if s.Category == analyzer.CategoryCompat {
					link(f.Head, f.Reference)
					continue
				}
				line("B", 10, f.Head)
				if f.Value != "" {
					line("", 9, "    "+f.Value)
				}
				if f.Evidence != "" {
					line("", 9, fmt.Sprintf("    %s: %s", v.Labels.Evidence, f.Evidence))
				}
				if f.Detail != "" {
					line("", 9, "    "+f.Detail)
				}
				if f.Reference != "" {
					link(v.Labels.Reference, f.Reference)
				}
				pdf.Ln(1)
			}
		}

		if s.Category == analyzer.CategoryFingerprint && v.ShowTech {
			heading(v.TechTitle)
			if len(v.Technologies) == 0 {
				line("", 10, "-")
			}
			for _, tech := range v.Technologies {
				line("", 10, tech)
			}
		}
	}

	heading(v.SummaryTitle)
	for _, c := range v.Counts {
		line("", 10, fmt.Sprintf("%s: %d", c.Label, c.Count))
	}
	pdf.Ln(2)
	line("I", 9, v.Elapsed)

	// Generate PDF bytes
	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/khanhnv2901/hdrscan/internal/analyzer"
	"github.com/khanhnv2901/hdrscan/internal/fetcher"
	"github.com/khanhnv2901/hdrscan/internal/headers"
	"github.com/khanhnv2901/hdrscan/internal/knowledge"
	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
	"github.com/khanhnv2901/hdrscan/internal/techdetect"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [URL]",
	Short: "Analyze the HTTP response headers of a URL",
	Long: `Fetch a URL and classify its HTTP response headers.

The URL must include the scheme, for example https://example.com. The report
is printed to the console; use -o to also export it as txt, html, pdf or json.`,
	Example: `  hdrscan analyze -u https://example.com
  hdrscan analyze https://example.com -b -l es
  hdrscan analyze -u https://example.com -r --tech -o html --output-dir reports`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cliConfig.Analyze
		if cfg.URL == "" && len(args) > 0 {
			cfg.URL = args[0]
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runAnalysis(ctx, cfg, cmd.OutOrStdout(), consolePalette())
	},
}

type technologyDetector interface {
	Detect(set headers.Set, body []byte) []techdetect.Technology
}

// newTechDetector is swapped in tests to avoid loading the fingerprint database.
var newTechDetector = func() (technologyDetector, error) {
	d, err := techdetect.New()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// scanResult is one completed analysis, ready to be rendered or exported.
type scanResult struct {
	Target *fetcher.TargetInfo
	View   *analysisView
	Now    time.Time
}

// scan fetches cfg.URL and classifies its headers. It performs no output.
func scan(ctx context.Context, cfg AnalyzeConfig) (*scanResult, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, sherrors.ErrEmptyTarget
	}

	target, err := fetcher.ParseTarget(cfg.URL)
	if err != nil {
		return nil, err
	}

	kb, err := knowledge.Load(cfg.Lang)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f := &fetcher.Fetcher{
		Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		UserAgent: cfg.UserAgent,
		VerifyTLS: cfg.VerifyTLS,
		Retries:   cfg.Retries,
		Logger:    logger,
	}
	resp, err := f.Fetch(ctx, target.FullURL)
	if err != nil {
		return nil, &FetchError{URL: target.FullURL, Err: err}
	}

	engine := analyzer.New(kb, analyzer.Options{Brief: cfg.Brief})
	report := engine.Analyze(analyzer.Input{
		URL:        target.FullURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
	})
	logger.Debugw("analysis complete",
		"url", target.FullURL,
		"missing", report.Missing.Count,
		"fingerprint", report.Fingerprint.Count,
		"insecure", report.Insecure.Count,
		"empty", report.Empty.Count,
	)

	var techs []techdetect.Technology
	if cfg.Tech {
		detector, err := newTechDetector()
		if err != nil {
			logger.Warnw("technology detection unavailable", "error", err)
		} else {
			techs = detector.Detect(resp.Headers, resp.Body)
		}
	}

	now := time.Now()
	view := buildView(report, kb, viewOptions{
		Raw:          cfg.Raw,
		Tech:         cfg.Tech,
		Technologies: techs,
		Now:          now,
		Elapsed:      now.Sub(start),
	})
	return &scanResult{Target: target, View: view, Now: now}, nil
}

func runAnalysis(ctx context.Context, cfg AnalyzeConfig, out io.Writer, p palette) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return sherrors.ErrEmptyTarget
	}

	var format outputFormat
	if cfg.Output != "" {
		f, err := parseOutputFormat(cfg.Output)
		if err != nil {
			return err
		}
		format = f
	}

	res, err := scan(ctx, cfg)
	if err != nil {
		return err
	}

	if err := writeText(out, res.View, p); err != nil {
		return err
	}

	if format == "" {
		return nil
	}
	path, err := exportReport(res.View, format, cfg.OutputDir, reportFileName(res.Target, format, res.Now))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", res.View.Labels.ReportSaved, p.header(path))
	return nil
}

func init() {
	flags := analyzeCmd.Flags()
	flags.StringVarP(&cliConfig.Analyze.URL, "url", "u", "", "URL to analyze, including the scheme")
	flags.BoolVarP(&cliConfig.Analyze.Brief, "brief", "b", false, "show brief analysis (no explanations or references)")
	flags.StringVarP(&cliConfig.Analyze.Lang, "lang", "l", defaultLang, "report language (en, es)")
	flags.StringVarP(&cliConfig.Analyze.Output, "output", "o", "", "export the report: txt, html, pdf or json")
	flags.BoolVarP(&cliConfig.Analyze.Raw, "raw", "r", false, "show the raw HTTP response headers")
	flags.BoolVar(&cliConfig.Analyze.Tech, "tech", false, "detect technologies with wappalyzer fingerprints")
	flags.IntVar(&cliConfig.Analyze.TimeoutSecs, "timeout", cliConfig.Analyze.TimeoutSecs, "request timeout in seconds")
	flags.IntVar(&cliConfig.Analyze.Retries, "retries", cliConfig.Analyze.Retries, "extra attempts after a transport error")
	flags.StringVar(&cliConfig.Analyze.OutputDir, "output-dir", defaultOutputDir, "directory for exported reports")
	flags.StringVar(&cliConfig.Analyze.UserAgent, "user-agent", cliConfig.Analyze.UserAgent, "User-Agent sent with the request")
	flags.BoolVar(&cliConfig.Analyze.VerifyTLS, "verify-tls", false, "verify the server TLS certificate")
}

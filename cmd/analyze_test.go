package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/khanhnv2901/hdrscan/internal/headers"
	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
	"github.com/khanhnv2901/hdrscan/internal/techdetect"
)

type fakeDetector struct {
	techs []techdetect.Technology
}

func (f fakeDetector) Detect(headers.Set, []byte) []techdetect.Technology {
	return f.techs
}

func newHeaderServer(t *testing.T, status int, h map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range h {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	t.Cleanup(server.Close)
	return server
}

func testAnalyzeConfig(url string) AnalyzeConfig {
	cfg := newCLIConfig().Analyze
	cfg.URL = url
	cfg.TimeoutSecs = 5
	cfg.Retries = 0
	return cfg
}

func TestRunAnalysis_Console(t *testing.T) {
	server := newHeaderServer(t, http.StatusOK, map[string]string{
		"X-Powered-By":    "PHP/8.1",
		"X-Frame-Options": "DENY",
		"Etag":            `"abc"`,
	})

	cfg := testAnalyzeConfig(server.URL)
	cfg.Raw = true

	var out bytes.Buffer
	if err := runAnalysis(context.Background(), cfg, &out, plainPalette()); err != nil {
		t.Fatalf("runAnalysis: %v", err)
	}

	for _, want := range []string{
		"[HTTP Response Headers]",
		"X-Powered-By [",
		"PHP/8.1",
		"Etag (Potentially Unsafe Header)",
		"HTTP (Insecure Protocol)",
		" X-Frame-Options: https://caniuse.com/?search=X-Frame-Options",
		"Done in",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q\n%s", want, out.String())
		}
	}
}

func TestRunAnalysis_Spanish(t *testing.T) {
	server := newHeaderServer(t, http.StatusOK, nil)

	cfg := testAnalyzeConfig(server.URL)
	cfg.Lang = "es"

	var out bytes.Buffer
	if err := runAnalysis(context.Background(), cfg, &out, plainPalette()); err != nil {
		t.Fatalf("runAnalysis: %v", err)
	}
	if !strings.Contains(out.String(), "[1. Cabeceras de seguridad HTTP no habilitadas]") {
		t.Errorf("expected Spanish section titles:\n%s", out.String())
	}
}

func TestRunAnalysis_ClientErrorIsReported(t *testing.T) {
	server := newHeaderServer(t, http.StatusNotFound, nil)

	var out bytes.Buffer
	if err := runAnalysis(context.Background(), testAnalyzeConfig(server.URL), &out, plainPalette()); err != nil {
		t.Fatalf("runAnalysis: %v", err)
	}
	if !strings.Contains(out.String(), "HTTP 404 (Not Found)") {
		t.Errorf("expected a client error note:\n%s", out.String())
	}
}

func TestRunAnalysis_Errors(t *testing.T) {
	failing := newHeaderServer(t, http.StatusBadGateway, nil)

	tests := []struct {
		name    string
		cfg     AnalyzeConfig
		wantErr error
	}{
		{name: "empty url", cfg: testAnalyzeConfig(""), wantErr: sherrors.ErrEmptyTarget},
		{name: "missing scheme", cfg: testAnalyzeConfig("example.com"), wantErr: sherrors.ErrMissingScheme},
		{name: "server error", cfg: testAnalyzeConfig(failing.URL), wantErr: sherrors.ErrServerError},
		{name: "bad format", cfg: func() AnalyzeConfig {
			cfg := testAnalyzeConfig(failing.URL)
			cfg.Output = "xml"
			return cfg
		}(), wantErr: sherrors.ErrUnsupportedFormat},
		{name: "bad language", cfg: func() AnalyzeConfig {
			cfg := testAnalyzeConfig(failing.URL)
			cfg.Lang = "not a language!"
			return cfg
		}(), wantErr: sherrors.ErrUnsupportedLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runAnalysis(context.Background(), tt.cfg, &out, plainPalette())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunAnalysis_FetchErrorType(t *testing.T) {
	failing := newHeaderServer(t, http.StatusInternalServerError, nil)

	err := runAnalysis(context.Background(), testAnalyzeConfig(failing.URL), &bytes.Buffer{}, plainPalette())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T: %v", err, err)
	}
	if fetchErr.URL != failing.URL {
		t.Errorf("FetchError.URL = %q, want %q", fetchErr.URL, failing.URL)
	}
}

func TestRunAnalysis_ExportJSON(t *testing.T) {
	server := newHeaderServer(t, http.StatusOK, map[string]string{"Server": "nginx"})
	dir := t.TempDir()

	cfg := testAnalyzeConfig(server.URL)
	cfg.Output = "json"
	cfg.OutputDir = dir

	var out bytes.Buffer
	if err := runAnalysis(context.Background(), cfg, &out, plainPalette()); err != nil {
		t.Fatalf("runAnalysis: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "127.0.0.1_headers_*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one JSON report, got %v (err %v)", matches, err)
	}
	if !strings.Contains(out.String(), "Report saved to "+matches[0]) {
		t.Errorf("expected the saved path to be printed:\n%s", out.String())
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if env.Report == nil || env.Report.Fingerprint.Count != 1 {
		t.Errorf("unexpected report in export: %+v", env.Report)
	}
}

func TestRunAnalysis_TechDetection(t *testing.T) {
	original := newTechDetector
	t.Cleanup(func() { newTechDetector = original })
	newTechDetector = func() (technologyDetector, error) {
		return fakeDetector{techs: []techdetect.Technology{{Name: "Nginx", Version: "1.25"}}}, nil
	}

	server := newHeaderServer(t, http.StatusOK, map[string]string{"Server": "nginx/1.25"})
	cfg := testAnalyzeConfig(server.URL)
	cfg.Tech = true

	var out bytes.Buffer
	if err := runAnalysis(context.Background(), cfg, &out, plainPalette()); err != nil {
		t.Fatalf("runAnalysis: %v", err)
	}
	if !strings.Contains(out.String(), "[Detected Technologies]\n Nginx 1.25") {
		t.Errorf("expected detected technologies:\n%s", out.String())
	}
}

func TestRunAnalysis_TechDetectionUnavailable(t *testing.T) {
	original := newTechDetector
	t.Cleanup(func() { newTechDetector = original })
	newTechDetector = func() (technologyDetector, error) {
		return nil, errors.New("fingerprints unavailable")
	}

	server := newHeaderServer(t, http.StatusOK, nil)
	cfg := testAnalyzeConfig(server.URL)
	cfg.Tech = true

	if err := runAnalysis(context.Background(), cfg, &bytes.Buffer{}, plainPalette()); err != nil {
		t.Fatalf("technology detection failures must not fail the analysis: %v", err)
	}
}

func TestAnalyzeCommand_PositionalURL(t *testing.T) {
	server := newHeaderServer(t, http.StatusOK, nil)
	t.Cleanup(func() { *cliConfig = *newCLIConfig() })
	cliConfig.Analyze.TimeoutSecs = 5
	cliConfig.Analyze.Retries = 0

	var out bytes.Buffer
	analyzeCmd.SetOut(&out)
	t.Cleanup(func() { analyzeCmd.SetOut(nil) })

	if err := analyzeCmd.RunE(analyzeCmd, []string{server.URL}); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out.String(), server.URL) {
		t.Errorf("expected the positional URL to be analyzed:\n%s", out.String())
	}
}

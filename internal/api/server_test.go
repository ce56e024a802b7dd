package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/hdrscan/internal/knowledge"
	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
	"go.uber.org/zap/zaptest"
)

type stubAnalysis struct {
	got  AnalyzeRequest
	data []byte
	err  error
}

func (s *stubAnalysis) Analyze(_ context.Context, req AnalyzeRequest) ([]byte, error) {
	s.got = req
	return s.data, s.err
}

type stubGuides struct {
	lang string
	err  error
}

func (s *stubGuides) Guides(_ context.Context, lang string) ([]knowledge.Guide, error) {
	s.lang = lang
	if s.err != nil {
		return nil, s.err
	}
	return []knowledge.Guide{{Server: "nginx", Lines: []string{"add_header X-Frame-Options DENY;"}}}, nil
}

type stubHealth struct{ err error }

func (s stubHealth) Check(context.Context) error { return s.err }

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = zaptest.NewLogger(t)
	}
	s := NewServer(cfg)
	t.Cleanup(s.Close)
	return s
}

func do(s *Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected application/json content-type, got %s", got)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestWriteErrorInternal(t *testing.T) {
	s := &Server{cfg: Config{Logger: zaptest.NewLogger(t)}}

	rr := httptest.NewRecorder()
	s.writeError(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusInternalServerError, errors.New("boom"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "internal server error") {
		t.Fatalf("expected sanitized message, got %s", rr.Body.String())
	}
}

func TestWriteErrorClient(t *testing.T) {
	s := &Server{}
	rr := httptest.NewRecorder()
	s.writeError(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusBadRequest, errors.New("bad input"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "bad input") {
		t.Fatalf("expected original error message, got %s", rr.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{})
	rr := do(s, http.MethodGet, "/api/v1/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}

	s = newTestServer(t, Config{Health: stubHealth{err: errors.New("not ready")}})
	if rr := do(s, http.MethodGet, "/api/v1/health", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, Config{Analysis: &stubAnalysis{}, Guides: &stubGuides{}})
	for _, path := range []string{"/api/v1/health", "/api/v1/analyze", "/api/v1/guides"} {
		if rr := do(s, http.MethodPost, path, nil); rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", path, rr.Code)
		}
	}
}

func TestAnalyzePassesQuery(t *testing.T) {
	stub := &stubAnalysis{data: []byte(`{"scan_id":"x"}`)}
	s := newTestServer(t, Config{Analysis: stub})

	rr := do(s, http.MethodGet, "/api/v1/analyze?url=https://example.com&lang=es&brief=true&tech=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != `{"scan_id":"x"}` {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	want := AnalyzeRequest{URL: "https://example.com", Lang: "es", Brief: true, Tech: true}
	if stub.got != want {
		t.Fatalf("got request %+v, want %+v", stub.got, want)
	}
}

func TestAnalyzeMissingURL(t *testing.T) {
	s := newTestServer(t, Config{Analysis: &stubAnalysis{}})
	rr := do(s, http.MethodGet, "/api/v1/analyze", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), sherrors.ErrEmptyTarget.Error()) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{sherrors.ErrMissingScheme, http.StatusBadRequest, sherrors.ErrMissingScheme.Error()},
		{fmt.Errorf("load: %w", sherrors.ErrUnsupportedLanguage), http.StatusBadRequest, sherrors.ErrUnsupportedLanguage.Error()},
		{fmt.Errorf("dial 10.0.0.1: %w", sherrors.ErrTimeout), http.StatusGatewayTimeout, sherrors.ErrTimeout.Error()},
		{fmt.Errorf("dial 10.0.0.1: %w", sherrors.ErrUnreachable), http.StatusBadGateway, sherrors.ErrUnreachable.Error()},
		{sherrors.ErrServerError, http.StatusBadGateway, sherrors.ErrServerError.Error()},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newTestServer(t, Config{Analysis: &stubAnalysis{err: tt.err}})
			rr := do(s, http.MethodGet, "/api/v1/analyze?url=https://example.com", nil)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body["error"] != tt.body {
				t.Fatalf("expected error %q, got %q", tt.body, body["error"])
			}
			if strings.Contains(rr.Body.String(), "10.0.0.1") {
				t.Fatalf("internal detail leaked: %s", rr.Body.String())
			}
		})
	}
}

func TestGuides(t *testing.T) {
	stub := &stubGuides{}
	s := newTestServer(t, Config{Guides: stub})
	rr := do(s, http.MethodGet, "/api/v1/guides?lang=es", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.lang != "es" {
		t.Fatalf("expected lang es, got %q", stub.lang)
	}
	if !strings.Contains(rr.Body.String(), "nginx") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	s = newTestServer(t, Config{Guides: &stubGuides{err: sherrors.ErrUnsupportedLanguage}})
	if rr := do(s, http.MethodGet, "/api/v1/guides?lang=xx", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestServicesNotConfigured(t *testing.T) {
	s := newTestServer(t, Config{})
	for _, path := range []string{"/api/v1/analyze?url=https://example.com", "/api/v1/guides"} {
		if rr := do(s, http.MethodGet, path, nil); rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rr.Code)
		}
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, Config{AuthToken: "secret"})

	if rr := do(s, http.MethodGet, "/api/v1/health", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if rr := do(s, http.MethodGet, "/api/v1/health", map[string]string{"X-Auth-Token": "wrong"}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rr.Code)
	}
	if rr := do(s, http.MethodGet, "/api/v1/health", map[string]string{"X-Auth-Token": "secret"}); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Run("allow all", func(t *testing.T) {
		s := newTestServer(t, Config{})
		rr := do(s, http.MethodGet, "/api/v1/health", map[string]string{"Origin": "https://a.example"})
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("expected *, got %q", got)
		}
	})

	t.Run("whitelist", func(t *testing.T) {
		s := newTestServer(t, Config{CORSOrigins: []string{"https://a.example"}})
		rr := do(s, http.MethodGet, "/api/v1/health", map[string]string{"Origin": "https://a.example"})
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://a.example" {
			t.Fatalf("expected origin echoed, got %q", got)
		}
		rr = do(s, http.MethodGet, "/api/v1/health", map[string]string{"Origin": "https://b.example"})
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no CORS header, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		s := newTestServer(t, Config{AuthToken: "secret"})
		rr := do(s, http.MethodOptions, "/api/v1/analyze", nil)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rr.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Config{RateLimit: 1, RateBurst: 2, TrustForwardedFor: true})
	hdr := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}

	for i := 0; i < 2; i++ {
		if rr := do(s, http.MethodGet, "/api/v1/health", hdr); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	if rr := do(s, http.MethodGet, "/api/v1/health", hdr); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	// Another client keeps its own budget.
	other := map[string]string{"X-Forwarded-For": "198.51.100.2"}
	if rr := do(s, http.MethodGet, "/api/v1/health", other); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for other client, got %d", rr.Code)
	}
}

func TestRateLimitIgnoresForgedForwardedFor(t *testing.T) {
	s := newTestServer(t, Config{RateLimit: 1, RateBurst: 1})

	// httptest requests share one RemoteAddr; rotating the header must not
	// buy a fresh budget.
	if rr := do(s, http.MethodGet, "/api/v1/health", map[string]string{"X-Forwarded-For": "198.51.100.1"}); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr := do(s, http.MethodGet, "/api/v1/health", map[string]string{"X-Forwarded-For": "198.51.100.2"}); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for a forged header, got %d", rr.Code)
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		trust     bool
		want      string
	}{
		{"remote ipv4", "192.0.2.1:5555", "", false, "192.0.2.1"},
		{"remote ipv6", "[2001:db8::1]:443", "", false, "2001:db8::1"},
		{"forwarded chain", "192.0.2.1:5555", "203.0.113.7, 10.0.0.1", true, "203.0.113.7"},
		{"forwarded single", "192.0.2.1:5555", "203.0.113.9", true, "203.0.113.9"},
		{"forwarded untrusted", "192.0.2.1:5555", "203.0.113.9", false, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientAddr(r, tt.trust); got != tt.want {
				t.Fatalf("clientAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterMapStop(t *testing.T) {
	m := newRateLimiterMap()
	m.stop()
	m.stop()

	select {
	case <-m.exited:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup goroutine did not exit after stop")
	}
}

func TestRateLimiterMapPrune(t *testing.T) {
	m := newRateLimiterMap()
	t.Cleanup(m.stop)

	m.getLimiter("192.0.2.1", 1, 1)
	m.getLimiter("192.0.2.2", 1, 1)
	m.limiters["192.0.2.1"].lastSeen = time.Now().Add(-10 * time.Minute)

	m.prune(time.Now(), 5*time.Minute)
	if _, ok := m.limiters["192.0.2.1"]; ok {
		t.Error("idle limiter should be pruned")
	}
	if _, ok := m.limiters["192.0.2.2"]; !ok {
		t.Error("active limiter should be kept")
	}
}

func TestQueryBool(t *testing.T) {
	for in, want := range map[string]bool{"": false, "true": true, "1": true, "false": false, "yes": false} {
		if got := queryBool(in); got != want {
			t.Errorf("queryBool(%q) = %v, want %v", in, got, want)
		}
	}
}

package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/khanhnv2901/hdrscan/internal/api/middleware"
	"github.com/khanhnv2901/hdrscan/internal/knowledge"
	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AnalyzeRequest carries the query parameters of /api/v1/analyze.
type AnalyzeRequest struct {
	URL   string
	Lang  string
	Brief bool
	Tech  bool
}

// AnalysisService runs one header analysis and returns the JSON report.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) ([]byte, error)
}

type GuidesService interface {
	Guides(ctx context.Context, lang string) ([]knowledge.Guide, error)
}

type HealthService interface {
	Check(ctx context.Context) error
}

type Config struct {
	Analysis    AnalysisService
	Guides      GuidesService
	Health      HealthService
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string // Allowed CORS origins (empty = allow all)
	RateLimit   int      // Requests per second per IP (0 = disabled)
	RateBurst   int
	// TrustForwardedFor keys the rate limit on the first X-Forwarded-For hop.
	// Only enable behind a proxy that overwrites the header.
	TrustForwardedFor bool
}

type Server struct {
	cfg      Config
	mux      *http.ServeMux
	limiters *rateLimiterMap
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	return srv
}

// Close stops background housekeeping. The server must not be used after.
func (s *Server) Close() {
	s.limiters.stop()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// RequestID -> Logging -> RateLimit -> CORS -> Auth -> Handler
	handler := middleware.RequestID(s.withLogging(s.withRateLimit(s.withCORS(s.mux))))
	handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.Handle("/api/v1/health", s.withAuth(http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/api/v1/analyze", s.withAuth(http.HandlerFunc(s.handleAnalyze)))
	s.mux.Handle("/api/v1/guides", s.withAuth(http.HandlerFunc(s.handleGuides)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Check(r.Context()); err != nil {
			s.writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Analysis == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("analysis service not available"))
		return
	}
	q := r.URL.Query()
	req := AnalyzeRequest{
		URL:   strings.TrimSpace(q.Get("url")),
		Lang:  q.Get("lang"),
		Brief: queryBool(q.Get("brief")),
		Tech:  queryBool(q.Get("tech")),
	}
	if req.URL == "" {
		s.writeError(w, r, http.StatusBadRequest, sherrors.ErrEmptyTarget)
		return
	}

	data, err := s.cfg.Analysis.Analyze(r.Context(), req)
	if err != nil {
		status, public := classifyError(err)
		s.requestLogger(r).Warn("analysis_failed",
			zap.String("target", req.URL),
			zap.Int("status", status),
			zap.Error(err),
		)
		s.writeError(w, r, status, public)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil && s.cfg.Logger != nil {
		s.cfg.Logger.Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) handleGuides(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Guides == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("guides service not available"))
		return
	}
	guides, err := s.cfg.Guides.Guides(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		status, public := classifyError(err)
		s.writeError(w, r, status, public)
		return
	}
	writeJSON(w, http.StatusOK, guides)
}

// classifyError maps a domain error to an HTTP status and the error that is
// safe to show to the client.
func classifyError(err error) (int, error) {
	for _, e := range []error{
		sherrors.ErrEmptyTarget,
		sherrors.ErrMissingScheme,
		sherrors.ErrInvalidURL,
		sherrors.ErrUnsupportedLanguage,
	} {
		if errors.Is(err, e) {
			return http.StatusBadRequest, e
		}
	}
	if errors.Is(err, sherrors.ErrTimeout) {
		return http.StatusGatewayTimeout, sherrors.ErrTimeout
	}
	for _, e := range []error{
		sherrors.ErrUnreachable,
		sherrors.ErrProxyAuthRequired,
		sherrors.ErrServerError,
	} {
		if errors.Is(err, e) {
			return http.StatusBadGateway, e
		}
	}
	return http.StatusInternalServerError, err
}

func queryBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := clientAddr(r, s.cfg.TrustForwardedFor)
		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)
		if !limiter.Allow() {
			s.requestLogger(r).Warn("rate_limit_exceeded", zap.String("client_ip", clientIP))
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientAddr returns the caller IP. The first X-Forwarded-For hop is used
// only when trustForwarded is set, since clients can forge the header.
func clientAddr(r *http.Request, trustForwarded bool) string {
	clientIP := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); trustForwarded && forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			clientIP = strings.TrimSpace(forwarded[:idx])
		} else {
			clientIP = strings.TrimSpace(forwarded)
		}
	}
	if host, _, err := net.SplitHostPort(clientIP); err == nil {
		clientIP = host
	}
	return clientIP
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowOrigin = ""
			for _, allowed := range s.cfg.CORSOrigins {
				if allowed == origin {
					allowOrigin = origin
					break
				}
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		if s.cfg.Logger != nil {
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter captures the status code and bytes written.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()

	// Internal failures are logged in full and reported generically.
	if status == http.StatusInternalServerError {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}
	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	done     chan struct{}
	exited   chan struct{}
	once     sync.Once
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.limiters[ip]
	if !ok {
		if burst <= 0 {
			burst = rps
		}
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		m.limiters[ip] = l
	}
	l.lastSeen = time.Now()
	return l.limiter
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop() {
	defer close(m.exited)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.prune(time.Now(), 5*time.Minute)
		}
	}
}

func (m *rateLimiterMap) prune(now time.Time, idle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ip, l := range m.limiters {
		if now.Sub(l.lastSeen) > idle {
			delete(m.limiters, ip)
		}
	}
}

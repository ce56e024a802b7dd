package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/khanhnv2901/hdrscan/internal/headers"
	"github.com/khanhnv2901/hdrscan/internal/shared/constants"
	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultRateLimit is the number of attempts per second when retrying.
const DefaultRateLimit = 2

// Response is what the analyzer needs from one HTTP exchange.
type Response struct {
	RequestURL string
	FinalURL   string
	StatusCode int
	Headers    headers.Set
	// Body is truncated to constants.MaxBodyBytes.
	Body    []byte
	Elapsed time.Duration
}

// Fetcher performs the single GET request of an analysis.
type Fetcher struct {
	Timeout   time.Duration // Per-attempt timeout
	UserAgent string
	VerifyTLS bool    // Verify server certificates (off by default)
	Retries   int     // Extra attempts after a transport failure
	RateLimit float64 // Attempts per second
	Logger    *zap.SugaredLogger

	// Transport overrides the HTTP transport. Nil builds one from VerifyTLS.
	Transport http.RoundTripper
}

// Fetch retrieves the target and returns its headers and a body prefix.
// 4xx responses are returned without error; see IsClientError.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Response, error) {
	info, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}

	log := f.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	limit := f.RateLimit
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	limiter := rate.NewLimiter(rate.Limit(limit), 1)
	client := f.client()

	attempts := f.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, classify(info.FullURL, err)
		}

		log.Debugw("fetching target", "url", info.FullURL, "attempt", attempt, "of", attempts)
		resp, err := f.do(ctx, client, info.FullURL)
		if err == nil {
			log.Debugw("fetched target", "url", resp.FinalURL, "status", resp.StatusCode, "elapsed", resp.Elapsed)
			return resp, nil
		}

		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
		log.Debugw("retrying after transport error", "url", info.FullURL, "attempt", attempt, "error", err)
	}

	return nil, lastErr
}

func (f *Fetcher) client() *http.Client {
	transport := f.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: !f.VerifyTLS} // #nosec G402 -- analyzing self-signed hosts is supported
		transport = t
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= constants.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", constants.MaxRedirects)
			}
			return nil
		},
	}
}

func (f *Fetcher) do(ctx context.Context, client *http.Client, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sherrors.ErrInvalidURL, err)
	}
	ua := f.UserAgent
	if ua == "" {
		ua = constants.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusProxyAuthRequired:
		return nil, fmt.Errorf("%w: %s", sherrors.ErrProxyAuthRequired, target)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %s returned HTTP %d", sherrors.ErrServerError, target, resp.StatusCode)
	}

	// A partial body only weakens technology detection.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxBodyBytes))

	return &Response{
		RequestURL: target,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    headers.FromHTTP(resp.Header),
		Body:       body,
		Elapsed:    time.Since(start),
	}, nil
}

func classify(target string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", sherrors.ErrTimeout, target, err)
	}
	return fmt.Errorf("%w: %s: %v", sherrors.ErrUnreachable, target, err)
}

func retryable(err error) bool {
	return errors.Is(err, sherrors.ErrTimeout) || errors.Is(err, sherrors.ErrUnreachable)
}

var clientErrors = map[int]bool{
	421: true, 422: true, 423: true, 424: true, 425: true, 426: true,
	428: true, 429: true, 431: true, 451: true,
}

// IsClientError reports whether code is a 4xx status after which the
// analysis may not be representative of the site.
func IsClientError(code int) bool {
	return (code >= 400 && code <= 417) || clientErrors[code]
}

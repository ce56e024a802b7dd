package fetcher

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
	"golang.org/x/net/publicsuffix"
)

// TargetInfo contains parsed target information
type TargetInfo struct {
	Original string // Original target string
	Scheme   string // http or https
	Host     string // Hostname (without protocol, path, port)
	Port     string // Port if specified
	Path     string // Path if specified
	FullURL  string // Full normalized URL (for HTTP requests)
}

// ParseTarget parses a target URL into structured components. Unlike a
// browser address bar it does not guess a scheme: both of these fail
//   - example.com
//   - example.com:8080
func ParseTarget(target string) (*TargetInfo, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, sherrors.ErrEmptyTarget
	}
	if !strings.Contains(target, "://") {
		return nil, fmt.Errorf("%w: %q", sherrors.ErrMissingScheme, target)
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sherrors.ErrInvalidURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: %q", sherrors.ErrMissingScheme, target)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q has no host", sherrors.ErrInvalidURL, target)
	}
	parsed.Scheme = scheme

	return &TargetInfo{
		Original: target,
		Scheme:   scheme,
		Host:     parsed.Hostname(),
		Port:     parsed.Port(),
		Path:     parsed.Path,
		FullURL:  parsed.String(),
	}, nil
}

// IsTLS reports whether the target uses https.
func (t *TargetInfo) IsTLS() bool {
	return t.Scheme == "https"
}

// Domain returns the registrable label of the host ("example" for
// www.example.co.uk). Hosts without a public suffix, such as IP addresses
// or localhost, are returned unchanged.
func (t *TargetInfo) Domain() string {
	host := strings.ToLower(t.Host)
	if net.ParseIP(host) != nil {
		return host
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	label, _, _ := strings.Cut(etld1, ".")
	return label
}

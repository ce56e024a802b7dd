// Package fetcher retrieves the response headers of a single target URL.
//
// The fetcher is the only part of hdrscan that performs network I/O. It
// issues one GET request (with paced retries on transport failures),
// follows redirects, and classifies failures into the sentinel errors of
// internal/shared/errors so callers can branch with errors.Is.
package fetcher

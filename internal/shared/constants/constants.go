package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultRequestTimeout bounds the single request made against the target.
	DefaultRequestTimeout = 15 * time.Second
	// MaxBodyBytes caps how much of the response body is read for technology detection.
	MaxBodyBytes = 512 * 1024
	// MaxRedirects mirrors the redirect limit of net/http.
	MaxRedirects = 10
	// DefaultRetries is the number of extra attempts after a transient transport error.
	DefaultRetries = 1
	// DefaultUserAgent is sent with the request; some sites serve different headers to bots.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"
)

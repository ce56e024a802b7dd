package errors

import "errors"

// Domain errors
var (
	// Target errors
	ErrEmptyTarget   = errors.New("target URL cannot be empty")
	ErrMissingScheme = errors.New("target URL must include the http:// or https:// scheme")
	ErrInvalidURL    = errors.New("invalid target URL")

	// Fetch errors
	ErrTimeout           = errors.New("request timed out")
	ErrUnreachable       = errors.New("target is unreachable")
	ErrProxyAuthRequired = errors.New("proxy authentication required")
	ErrServerError       = errors.New("server error response")

	// Analysis errors
	ErrMalformedMaxAge = errors.New("max-age directive has no numeric value")

	// Knowledge base errors
	ErrKnowledgeBase       = errors.New("knowledge base is invalid")
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// Output errors
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

package cmd

import (
	"fmt"

	sherrors "github.com/khanhnv2901/hdrscan/internal/shared/errors"
)

// OutputFormatError indicates an unknown -o value.
type OutputFormatError struct {
	Format string
}

func (e *OutputFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q (use txt, html, pdf or json)", e.Format)
}

func (e *OutputFormatError) Unwrap() error {
	return sherrors.ErrUnsupportedFormat
}

// FetchError signals that the target could not be analyzed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("unable to analyze target: %v", e.Err)
	}
	return fmt.Sprintf("unable to analyze %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

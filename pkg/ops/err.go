package ops

import (
	"fmt"

	"github.com/pkg/errors"
)

func track(err error) error {
	return errors.WithStack(err)
}

// ConfigurationError reports bad input to an operation: a missing secret,
// inconsistent flags, or an install path that disagrees with the one we
// compute. It is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}

	return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...interface{}) error {
	return errors.WithStack(&ConfigurationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	})
}

// VendorDataError reports data from the vendor service that can't be used,
// such as an empty build list or the same build listed twice.
type VendorDataError struct {
	Product  string
	Version  string
	Platform string
	Build    string
	Reason   string
}

func (e *VendorDataError) Error() string {
	id := e.Product + " " + e.Version
	if e.Build != "" {
		id += "." + e.Build
	}

	if e.Platform != "" {
		id += " on " + e.Platform
	}

	return fmt.Sprintf("vendor data error for %s: %s", id, e.Reason)
}

// IntegrityError reports a download that did not match its descriptor.
type IntegrityError struct {
	URL      string
	Check    string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	if e.Expected == "" && e.Actual == "" {
		return fmt.Sprintf("integrity error downloading %s: %s", e.URL, e.Check)
	}

	return fmt.Sprintf("integrity error downloading %s: %s mismatch, expected %s, got %s",
		e.URL, e.Check, e.Expected, e.Actual)
}

// InstallError reports that every install attempt failed.
type InstallError struct {
	Attempts int
	Last     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("all %d installation attempts failed: %s", e.Attempts, e.Last)
}

func (e *InstallError) Unwrap() error {
	return e.Last
}

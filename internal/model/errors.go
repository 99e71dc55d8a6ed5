package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across packages.
var (
	// ErrUnknownCompound means the identity resolver could not map an
	// identifier to a compound. The compound is skipped and recorded.
	ErrUnknownCompound = errors.New("unknown compound")

	// ErrNotFound means a source has no entry for the compound. Not a
	// failure: the compound simply has no annotations there.
	ErrNotFound = errors.New("compound not found in source")
)

// ConfigError marks invalid search options or batch configuration. It is
// fatal to the single search it belongs to, never to the whole run, except
// for global misconfiguration (unknown annotation type, malformed config
// file) which aborts before any search starts.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "config: " + e.Msg }

// Configf builds a ConfigError.
func Configf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// RateLimitedError means a source answered 429. Adapters retry these
// themselves through the fetch layer's backoff before giving up.
type RateLimitedError struct {
	Source     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited (retry after %s)", e.Source, e.RetryAfter)
	}
	return e.Source + ": rate limited"
}

// SourceUnavailableError means a source kept failing after the retry budget
// was spent. It downgrades to a per-compound failure at the search boundary.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// MalformedRecordError means an upstream record is missing required fields.
// The record is logged and skipped; the batch continues.
type MalformedRecordError struct {
	Source   string
	RecordID string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s record %q malformed: %s", e.Source, e.RecordID, e.Reason)
}

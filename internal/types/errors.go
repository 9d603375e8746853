package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidURL    = errors.New("invalid URL")
	ErrRedirectLoop  = errors.New("redirect loop detected")
	ErrMaxRetries    = errors.New("max retries exceeded")
	ErrEmptyResponse = errors.New("empty response body")
	ErrNotFound      = errors.New("record not found")
	ErrCacheMiss     = errors.New("cache miss")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// StoreError wraps errors from the record store.
type StoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s %s): %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// SyncError wraps errors that occur while upserting one record. It is
// the terminal failure for that record only; batch processing continues.
type SyncError struct {
	Entity string
	Key    string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync error for %s %q: %v", e.Entity, e.Key, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a page fetch failure
type ErrorKind string

const (
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindHTTPClient ErrorKind = "http_client_error" // 4xx
	ErrorKindHTTPServer ErrorKind = "http_server_error" // 5xx
	ErrorKindRender     ErrorKind = "render"
	ErrorKindParse      ErrorKind = "parse"
	ErrorKindAuth       ErrorKind = "auth_required"
)

// FetchError is a classified page fetch failure
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Kind, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure may succeed on another attempt.
// Transient network and server conditions retry; client errors, parse
// failures and auth redirects do not (auth triggers re-authentication
// instead of backoff).
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case ErrorKindNetwork, ErrorKindTimeout, ErrorKindHTTPServer, ErrorKindRender:
		return true
	case ErrorKindHTTPClient:
		return e.StatusCode == 408 || e.StatusCode == 429
	default:
		return false
	}
}

// NewFetchError classifies err for url. Known FetchErrors pass through;
// everything else is classified by status code and error type.
func NewFetchError(url string, statusCode int, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	kind := classify(statusCode, err)
	return &FetchError{
		Kind:       kind,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

func classify(statusCode int, err error) ErrorKind {
	switch {
	case statusCode >= 500:
		return ErrorKindHTTPServer
	case statusCode >= 400:
		return ErrorKindHTTPClient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorKindNetwork
	}

	return ErrorKindRender
}

// IsAuthRequired reports whether err marks a redirect to a login page
func IsAuthRequired(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == ErrorKindAuth
}

package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthExpired matches a 401 from the backend.
	ErrAuthExpired = errors.New("auth expired")

	// ErrServerError matches any 5xx from the backend.
	ErrServerError = errors.New("server error")

	// ErrSessionInvalid matches a failed session refresh.
	// Callers should treat it as logged out.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrConfig is returned for invalid client configuration.
	ErrConfig = errors.New("client: invalid config")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is reports ErrAuthExpired for 401 and ErrServerError for 5xx.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrAuthExpired:
		return e.Status == http.StatusUnauthorized
	case ErrServerError:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RefreshError is returned to every caller that waited on a refresh that failed.
// Cause is the refresh call's own error, typically a *StatusError.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s: refresh failed: %v", ErrSessionInvalid, e.Cause)
}

func (e *RefreshError) Unwrap() error { return e.Cause }

func (e *RefreshError) Is(target error) bool { return target == ErrSessionInvalid }

// StatusOf extracts the backend status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}

// IsAuthError reports whether err means the console is not (or no longer) logged in.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthExpired) || errors.Is(err, ErrSessionInvalid)
}

// Package apperr defines the error taxonomy shared by the providers and the
// HTTP layer, and maps each kind to a response status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedPayload is returned when a provider response does not match its schema
	ErrMalformedPayload = errors.New("malformed provider payload")
	// ErrNoSummary is returned when the summarization provider produced no usable text
	ErrNoSummary = errors.New("no summary generated")
)

// ValidationError reports missing or unusable caller input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthError reports a credential rejected by a provider
type AuthError struct {
	Provider string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected the credential", e.Provider)
}

// UpstreamError reports a non-success response from a provider
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: %d: %s", e.Provider, e.StatusCode, e.Body)
}

// TimeoutError reports a provider call that exceeded its deadline
type TimeoutError struct {
	Provider string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out", e.Provider)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPStatus maps an error to the status code the HTTP layer responds with
func HTTPStatus(err error) int {
	var (
		vErr *ValidationError
		aErr *AuthError
		uErr *UpstreamError
		tErr *TimeoutError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.As(err, &aErr):
		return http.StatusUnauthorized
	case errors.As(err, &tErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &uErr):
		if uErr.StatusCode >= 400 && uErr.StatusCode <= 599 {
			return uErr.StatusCode
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// IsTimeout reports whether err is a TimeoutError
func IsTimeout(err error) bool {
	var tErr *TimeoutError
	return errors.As(err, &tErr)
}

// Package domain provides the canonical error type shared by every
// failure path in the gateway.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to clients. Every failure path in the gateway
// resolves to exactly one of these.
const (
	CodeInvalidInput            = "INVALID_INPUT"
	CodeInputTooLarge           = "INPUT_TOO_LARGE"
	CodeInvalidJSON             = "INVALID_JSON"
	CodeAuthRequired            = "AUTH_REQUIRED"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeRateLimited             = "RATE_LIMITED"
	CodeMissingAPIKey           = "MISSING_API_KEY"
	CodeUpstreamRateLimit       = "UPSTREAM_RATE_LIMIT"
	CodeUpstreamAuthError       = "UPSTREAM_AUTH_ERROR"
	CodeUpstreamUnavailable     = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamError           = "UPSTREAM_ERROR"
	CodeUpstreamInvalidResponse = "UPSTREAM_INVALID_RESPONSE"
	CodeNotFound                = "NOT_FOUND"
	CodeInternalError           = "INTERNAL_ERROR"
)

// APIError is the single error representation used across the gateway.
// Local validation failures, authentication failures, missing
// configuration, and upstream failures all construct one of these and
// funnel through WriteError before reaching the transport.
type APIError struct {
	// StatusCode is the HTTP status to respond with.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code.
	Code string `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Details is an optional structured payload (field names, retry
	// hints, upstream messages).
	Details any `json:"details"`

	// RequestID is the upstream correlation id, when one was present.
	RequestID string `json:"requestId,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails attaches a structured details payload.
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// WithRequestID attaches an upstream correlation id.
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// New creates an APIError with an explicit status, code and message.
func New(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, Code: code, Message: message}
}

// FieldDetails describes a validation failure on a named field.
type FieldDetails struct {
	Field     string `json:"field"`
	MaxLength int    `json:"maxLength,omitempty"`
}

// RateLimitDetails carries the machine-readable retry hint for a
// rate-limited request.
type RateLimitDetails struct {
	RetryAfterSeconds int `json:"retryAfterSeconds"`
}

// UpstreamDetails carries context about a classified upstream failure.
type UpstreamDetails struct {
	UpstreamStatus  int    `json:"upstreamStatus,omitempty"`
	UpstreamMessage string `json:"upstreamMessage,omitempty"`
}

// ErrInvalidInput creates a client input error.
func ErrInvalidInput(message string) *APIError {
	return New(http.StatusBadRequest, CodeInvalidInput, message)
}

// ErrInputTooLarge creates an oversized-field error carrying the field
// name and its configured bound.
func ErrInputTooLarge(field string, maxLength int) *APIError {
	return New(http.StatusBadRequest, CodeInputTooLarge,
		fmt.Sprintf("field %q exceeds the maximum length of %d characters", field, maxLength)).
		WithDetails(FieldDetails{Field: field, MaxLength: maxLength})
}

// ErrInvalidJSON creates a malformed-body error.
func ErrInvalidJSON() *APIError {
	return New(http.StatusBadRequest, CodeInvalidJSON, "request body is not valid JSON")
}

// ErrAuthRequired creates a missing-credential error.
func ErrAuthRequired() *APIError {
	return New(http.StatusUnauthorized, CodeAuthRequired, "authentication required")
}

// ErrInvalidToken creates an unknown-or-expired session error.
func ErrInvalidToken() *APIError {
	return New(http.StatusUnauthorized, CodeInvalidToken, "session is invalid or has expired")
}

// ErrInvalidCredentials creates a failed-login error.
func ErrInvalidCredentials() *APIError {
	return New(http.StatusUnauthorized, CodeInvalidCredentials, "incorrect password")
}

// ErrRateLimited creates a rate-exhaustion error with a retry hint.
func ErrRateLimited(retryAfterSeconds int) *APIError {
	return New(http.StatusTooManyRequests, CodeRateLimited, "too many requests, slow down").
		WithDetails(RateLimitDetails{RetryAfterSeconds: retryAfterSeconds})
}

// ErrMissingAPIKey reports a missing upstream credential. This is a
// deployment problem, not a client one, hence the 500.
func ErrMissingAPIKey() *APIError {
	return New(http.StatusInternalServerError, CodeMissingAPIKey, "upstream API key is not configured")
}

// ErrUpstreamRateLimit reports that the upstream throttled us. The only
// upstream failure relayed with its own status.
func ErrUpstreamRateLimit(upstreamStatus int, upstreamMessage string) *APIError {
	return New(http.StatusTooManyRequests, CodeUpstreamRateLimit, "upstream service is rate limiting requests").
		WithDetails(UpstreamDetails{UpstreamStatus: upstreamStatus, UpstreamMessage: upstreamMessage})
}

// ErrUpstreamAuth reports that the gateway's own credential was rejected
// by the upstream. Surfaced as 502: the client is authenticated to the
// gateway, so this must never look like a client auth failure.
func ErrUpstreamAuth(upstreamStatus int, upstreamMessage string) *APIError {
	return New(http.StatusBadGateway, CodeUpstreamAuthError, "upstream service rejected the gateway credentials").
		WithDetails(UpstreamDetails{UpstreamStatus: upstreamStatus, UpstreamMessage: upstreamMessage})
}

// ErrUpstreamUnavailable reports an upstream 5xx or transport failure.
func ErrUpstreamUnavailable(upstreamStatus int, upstreamMessage string) *APIError {
	return New(http.StatusBadGateway, CodeUpstreamUnavailable, "upstream service is unavailable").
		WithDetails(UpstreamDetails{UpstreamStatus: upstreamStatus, UpstreamMessage: upstreamMessage})
}

// ErrUpstream reports any other non-2xx upstream response.
func ErrUpstream(upstreamStatus int, upstreamMessage string) *APIError {
	return New(http.StatusBadGateway, CodeUpstreamError, "upstream service returned an unexpected error").
		WithDetails(UpstreamDetails{UpstreamStatus: upstreamStatus, UpstreamMessage: upstreamMessage})
}

// ErrUpstreamInvalidResponse reports a 2xx upstream response whose
// payload did not have the expected shape.
func ErrUpstreamInvalidResponse(message string) *APIError {
	return New(http.StatusBadGateway, CodeUpstreamInvalidResponse, message)
}

// ErrNotFound creates a not-found error for unknown API paths.
func ErrNotFound() *APIError {
	return New(http.StatusNotFound, CodeNotFound, "resource not found")
}

// ErrInternal creates a generic internal error. Internal failure detail
// never leaks to the client.
func ErrInternal() *APIError {
	return New(http.StatusInternalServerError, CodeInternalError, "an internal error occurred")
}

// Normalize maps any error into an APIError. It is total: an APIError
// passes through unchanged, and everything else collapses to a generic
// 500 with no internal detail attached.
func Normalize(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrInternal()
}

package graph

import (
	"errors"
	"net/http"
)

// Error kinds surfaced by this package.
var (
	// ErrAuthentication indicates the token endpoint rejected the
	// client-credentials request. The call that triggered the refresh
	// is aborted.
	ErrAuthentication = errors.New("graph: authentication failed")

	// ErrTransport indicates a network failure or a non-success status
	// on a Graph call, including a failed $batch envelope.
	ErrTransport = errors.New("graph: transport failure")

	// ErrMalformedResponse indicates a Graph payload that could not be
	// decoded or was missing required structure.
	ErrMalformedResponse = errors.New("graph: malformed response")
)

// Status-specific errors for Graph API responses.
var (
	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = errors.New("graph: unauthorised")

	// ErrForbidden indicates the app lacks permission for the resource.
	ErrForbidden = errors.New("graph: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("graph: not found")

	// ErrRateLimited indicates the request was throttled by Microsoft Graph.
	ErrRateLimited = errors.New("graph: rate limited")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("graph: bad request")

	// ErrServerError indicates a server-side error from Microsoft Graph.
	ErrServerError = errors.New("graph: server error")
)

// WrapError converts an HTTP status code to an appropriate error.
func WrapError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// IsUnauthorised checks if the status code indicates an authentication failure.
func IsUnauthorised(statusCode int) bool {
	return statusCode == http.StatusUnauthorized
}

// IsRateLimited checks if the status code indicates rate limiting.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// IsSuccess checks if the status code indicates a successful sub-response.
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

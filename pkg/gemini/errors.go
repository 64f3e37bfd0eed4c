package gemini

import "errors"

// Failure kinds surfaced by the gateway. Every failure is returned once,
// synchronously; there is no retry at this layer. Callers classify with
// errors.Is.
var (
	// ErrMissingCredential means no API key is available. Fatal for the
	// session, not user-recoverable.
	ErrMissingCredential = errors.New("gemini: no API key configured")

	// ErrContentBlocked means the service declined to answer for content
	// policy reasons. Surfaced to the user, never retried.
	ErrContentBlocked = errors.New("gemini: request blocked by safety policy")

	// ErrModelNotFound means the configured model identifier is invalid or
	// inaccessible.
	ErrModelNotFound = errors.New("gemini: model not found or inaccessible")

	// ErrUnauthorized means the credential was rejected upstream.
	ErrUnauthorized = errors.New("gemini: API key rejected")

	// ErrEmptyResponse means the call succeeded but produced no usable text.
	ErrEmptyResponse = errors.New("gemini: empty response from model")
)

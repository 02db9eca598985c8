package engine

import "errors"

var (
	// ErrMissingCredential means no API key was configured for a provider that needs one.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrTransport covers dial, TLS, timeout and body read failures.
	ErrTransport = errors.New("transport failure")

	// ErrStatus means the service answered with a non-2xx status or an error body.
	ErrStatus = errors.New("service returned an error")

	// ErrMalformedResponse means the response envelope itself could not be decoded.
	ErrMalformedResponse = errors.New("malformed service response")

	// ErrEmptyPayload means the service answered but produced no content.
	ErrEmptyPayload = errors.New("empty payload")
)

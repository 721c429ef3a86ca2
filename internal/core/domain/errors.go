package domain

import "errors"

// Sentinel errors for the engine's error taxonomy. Adapters wrap
// the underlying transport/library error with one of these via
// fmt.Errorf("...: %w", ErrX) so callers can branch with errors.Is while the
// original cause is still available through errors.Unwrap.
var (
	// ErrConfigInvalid marks a startup configuration failure.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrSourceUnavailable marks a transport-level failure talking to the
	// source inventory system (connection refused, timeout, 5xx).
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourceAuth marks a 401/403 from the source system.
	ErrSourceAuth = errors.New("source authentication failed")
	// ErrSourceNotFound marks a 404 from the source system for a resource
	// the caller expected to exist.
	ErrSourceNotFound = errors.New("source resource not found")

	// ErrReplicaUnavailable marks a transport-level failure talking to the
	// replica DNS server.
	ErrReplicaUnavailable = errors.New("replica unavailable")
	// ErrReplicaNotFound marks a 404 from the replica for a zone that does
	// not exist there yet.
	ErrReplicaNotFound = errors.New("replica zone not found")
	// ErrReplicaConflict marks a 409 from the replica, tolerated by callers
	// that treat "already exists" as success.
	ErrReplicaConflict = errors.New("replica conflict")
	// ErrReplicaRejected marks any other 4xx from the replica (payload
	// rejected, validation failure) that is not retryable.
	ErrReplicaRejected = errors.New("replica rejected request")

	// ErrGateTimeout marks a failure to acquire the concurrency gate within
	// its configured timeout.
	ErrGateTimeout = errors.New("gate acquisition timed out")

	// ErrAuthFailed marks a missing or incorrect webhook API key.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrSignatureInvalid marks a missing or incorrect HMAC webhook signature.
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrRateLimited marks a webhook request rejected by the rate limiter.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedPayload marks a webhook or message-bus payload that failed
	// to parse or was missing required fields.
	ErrMalformedPayload = errors.New("malformed payload")
)

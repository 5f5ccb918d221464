package llm

import "errors"

// Sentinel errors for language-model endpoint calls. Implementations map
// provider-specific failures onto these so the pipeline's retry policy can
// treat them uniformly.
var (
	// ErrServiceUnavailable indicates the endpoint did not answer usefully
	// (transport failure or 5xx).
	ErrServiceUnavailable = errors.New("llm service unavailable")

	// ErrRateLimited indicates the endpoint throttled the request.
	ErrRateLimited = errors.New("llm rate limited")

	// ErrInvalidImage indicates the vision endpoint rejected the image payload.
	ErrInvalidImage = errors.New("invalid image")
)

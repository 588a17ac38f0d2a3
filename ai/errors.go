package ai

import "errors"

var (
	// ErrEmbedderRequired indicates a nil inner embedder was passed to a
	// decorator constructor.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidMaxAttempts indicates maxAttempts was zero or negative.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)

// Copyright 2026 Civicore Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"log/slog"
	"time"
)

// RetryWithBackoff retries an operation with exponential backoff.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil // Success
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}

		// Calculate exponential backoff: baseDelay * 2^(attempt-1)
		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		// Sleep with context awareness
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Continue to next attempt
		}
	}

	return lastErr
}

// RetryingEmbedder decorates an Embedder with a per-call timeout and
// exponential-backoff retries. This is the form the embedding coordinator
// consumes: one slow or flaky external call fails that attempt only, and a
// bounded number of retries happens inside a single logical embed call.
type RetryingEmbedder struct {
	inner       Embedder
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
}

var _ Embedder = (*RetryingEmbedder)(nil)

// NewRetryingEmbedder wraps inner with retry and timeout behavior.
// timeout bounds each individual attempt; maxAttempts and baseDelay follow
// RetryWithBackoff semantics.
func NewRetryingEmbedder(inner Embedder, timeout time.Duration, maxAttempts int, baseDelay time.Duration) (*RetryingEmbedder, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	return &RetryingEmbedder{
		inner:       inner,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}, nil
}

// EmbedText generates an embedding for one text, retrying on failure.
func (e *RetryingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := RetryWithBackoff(ctx, func() error {
		attemptCtx, cancel := e.attemptContext(ctx)
		defer cancel()

		var embedErr error
		result, embedErr = e.inner.EmbedText(attemptCtx, text)
		return embedErr
	}, e.maxAttempts, e.baseDelay)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EmbedTexts generates embeddings for a batch of texts, retrying on failure.
// A failed attempt retries the whole batch.
func (e *RetryingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := RetryWithBackoff(ctx, func() error {
		attemptCtx, cancel := e.attemptContext(ctx)
		defer cancel()

		var embedErr error
		result, embedErr = e.inner.EmbedTexts(attemptCtx, texts)
		return embedErr
	}, e.maxAttempts, e.baseDelay)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *RetryingEmbedder) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

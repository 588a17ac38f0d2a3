// Package mock provides a test double implementation of ai.Embedder.
//
// The mock allows tests to run without an external embedding service and
// enables controlled, deterministic behavior: by default it derives a unit
// vector from a hash of the input text, so identical text always embeds to
// the identical vector.
//
// # Usage in Tests
//
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service down")
//	}
//
//	// Check call counts (safe under concurrency, for single-flight tests)
//	count := mockEmbedder.CallCount()
package mock

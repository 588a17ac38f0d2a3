package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/civicore/polidex/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder against any OpenAI-compatible embedding
// API. Local services such as Ollama, LocalAI and vLLM speak the same
// protocol, so the host in the config decides where vectors come from.
type Embedder struct {
	inner  embeddings.Embedder
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates an embedder from the given configuration. The config
// is normalized and validated first. The constructor does not contact the
// service; the first embedding call does.
func NewEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services accept any token, so "none" keeps
	// the client happy without requiring credentials.
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	inner, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		inner:  inner,
		logger: slog.Default().With("component", "openai-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("embedding text", "length", len(text))

	vectors, err := e.inner.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedding service returned no vector")
		return nil, errors.New("embedding service returned no vector")
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for a batch of texts, in input
// order. Callers batch to taste; the whole slice goes out in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("embedding texts", "count", len(texts))

	vectors, err := e.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	return vectors, nil
}

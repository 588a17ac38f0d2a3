package ingestion

import (
	"errors"
	"fmt"

	"github.com/civicore/polidex/core"
)

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrKeywordIndexRequired is returned when a keyword index is not provided.
	ErrKeywordIndexRequired = errors.New("keyword index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbedModelRequired is returned when the embedding model name is empty.
	ErrEmbedModelRequired = errors.New("embedding model required")

	// ErrDocumentChanged is returned when a document's text or access was
	// changed while its embedding pass was running. The pass aborts without
	// marking the document embedded; the next pass starts from the current
	// state.
	ErrDocumentChanged = errors.New("document changed during embedding pass")
)

// EmbedError reports a failed embedding pass for one document. It wraps the
// underlying cause, so errors.Is and errors.As see through it.
type EmbedError struct {
	DocumentId core.ID
	Err        error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embedding pass for document %d failed: %v", e.DocumentId, e.Err)
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}

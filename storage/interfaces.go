package storage

import (
	"context"
	"time"

	"github.com/civicore/polidex/core"
)

// AccessFilter reports whether records carrying the given access metadata are
// visible to a caller. access.Predicate implements this interface; storage
// backends evaluate the filter inline while scanning so that restricted
// records never enter a candidate set.
type AccessFilter interface {
	Matches(a core.Access) bool
}

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing policy documents and
// their raw text.
type DocumentRepository interface {
	Repository
	// PutDocument stores a document and its raw text.
	// For documents with ID=0, generates a new ID from sequence.
	// Sets CreatedAt if not already set and updates UpdatedAt.
	// Storing over an existing ID replaces the metadata and text, drops all
	// chunks for the document, and clears its embedded marker.
	// Returns the document with ID and timestamps populated.
	PutDocument(ctx context.Context, doc *core.Document, text string) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentText retrieves the raw text of a document.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocumentText(ctx context.Context, id core.ID) (string, error)

	// ListDocuments retrieves all documents, ordered by ID ascending.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// SetAccess replaces the access metadata of a document and rewrites the
	// denormalized copy carried by every chunk of the document in the same
	// transaction. Updates the UpdatedAt timestamp.
	// Returns ErrNotFound if the document doesn't exist.
	SetAccess(ctx context.Context, id core.ID, a core.Access) error

	// SetEmbedded marks a document as embedded with the given model,
	// stamping EmbeddedAt with the current time. The marker is written only
	// if the stored UpdatedAt still equals expect; otherwise nothing is
	// written and ErrModified is returned, so a pass that raced a text or
	// access change cannot vouch for stale chunks.
	// Returns ErrNotFound if the document doesn't exist.
	SetEmbedded(ctx context.Context, id core.ID, model string, expect time.Time) error

	// ClearEmbedded clears the embedded marker of a document so the next
	// embedding pass processes it again. Chunks are left in place until
	// they are replaced.
	// Returns ErrNotFound if the document doesn't exist.
	ClearEmbedded(ctx context.Context, id core.ID) error

	// UpdateText replaces the raw text of a document, drops all chunks for
	// the document, and clears its embedded marker in one transaction.
	// Updates the UpdatedAt timestamp.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateText(ctx context.Context, id core.ID, text string) error

	// DeleteDocument removes a document, its raw text, and all of its
	// chunks in one transaction.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error
}

// ChunkRepository provides operations for managing chunks and their
// embedding vectors.
type ChunkRepository interface {
	Repository
	// ReplaceDocumentChunks replaces the full chunk set of a document.
	// Existing chunks for the document are removed and the given chunks are
	// stored in one transaction. Chunks may be stored before their vectors
	// are computed.
	ReplaceDocumentChunks(ctx context.Context, documentID core.ID, chunks ...*core.Chunk) error

	// UpsertEmbeddings grafts embedding vectors onto the stored chunk
	// records of a document. Only Vector and EmbedModel are taken from the
	// given chunks; every other stored field, the denormalized access
	// metadata in particular, is preserved, so a concurrent access change
	// is never reverted. Chunks whose stored record is missing or no
	// longer carries the same content ID are skipped.
	UpsertEmbeddings(ctx context.Context, documentID core.ID, chunks ...*core.Chunk) error

	// GetChunk retrieves a single chunk by document ID and sequence index.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, documentID core.ID, seq int) (*core.Chunk, error)

	// GetDocumentChunks retrieves all chunks of a document, ordered by
	// sequence index ascending.
	GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// SearchSimilar finds chunks similar to the given vector.
	// The filter is applied while scanning, before scoring, so filtered
	// chunks never compete for result slots. Chunks without vectors are
	// skipped. Returns up to limit hits with cosine similarity scores
	// normalized to [0, 1], ordered by score descending; ties are broken by
	// lower sequence index, then by chunk ID.
	SearchSimilar(ctx context.Context, vector []float32, filter AccessFilter, limit int) ([]core.ChunkHit, error)

	// ForEachChunk visits every stored chunk, ordered by document ID and
	// sequence index ascending. Iteration stops at the first error returned
	// by fn, which is propagated to the caller.
	ForEachChunk(ctx context.Context, fn func(chunk *core.Chunk) error) error
}

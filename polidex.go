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


package polidex

import (
	"context"
	"io"
	"log/slog"

	"github.com/civicore/polidex/access"
	"github.com/civicore/polidex/ai"
	"github.com/civicore/polidex/ai/openai"
	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/ingestion"
	"github.com/civicore/polidex/keyword"
	"github.com/civicore/polidex/prewarm"
	"github.com/civicore/polidex/search"
	"github.com/civicore/polidex/storage"
	"github.com/civicore/polidex/storage/badger"
)

// rebuildBatchSize caps how many chunks are buffered while the keyword
// index is rebuilt on open. Chunks carry vectors, so the buffer stays
// small to bound peak memory on large corpora.
const rebuildBatchSize = 256

// Engine is the top-level entry point. It owns the storage backend, the
// in-memory keyword index, the embedding coordinator and the retriever,
// and exposes the document lifecycle and retrieval operations.
type Engine struct {
	backend     *badger.Backend
	documents   storage.DocumentRepository
	chunks      storage.ChunkRepository
	keywords    *keyword.Index
	embedder    ai.Embedder
	coordinator *ingestion.Coordinator
	retriever   *search.Retriever
	progress    io.Writer
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
	monitor  search.Monitor
	progress io.Writer
	logger   *slog.Logger
}

// WithAIConfig sets the embedding service configuration. Ignored when an
// embedder is injected with WithEmbedder, except for the model name
// recorded on embedded chunks.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects an embedder instead of building one from the AI
// config. The engine uses it as given, so wrap it in ai.NewRetryingEmbedder
// if retry behavior is wanted.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithMonitor attaches a retrieval monitor, e.g. search.NewMetricsMonitor()
// for Prometheus metrics.
func WithMonitor(monitor search.Monitor) EngineOption {
	return func(o *engineOptions) {
		o.monitor = monitor
	}
}

// WithProgress sets the writer for Prewarm progress reporting.
// Defaults to discarding progress output.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		if w != nil {
			o.progress = w
		}
	}
}

// WithLogger sets the logger used by the engine and its components.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine opens the document store at filePath and wires the retrieval
// stack on top of it. The keyword index is rebuilt from stored chunks, so
// keyword search works immediately after a restart, before any embedding
// pass has run.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create document repository
	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create chunk repository
	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Rebuild the keyword index from stored chunks
	keywords, err := rebuildKeywordIndex(chunks)
	if err != nil {
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Build the embedder from config unless one was injected
	embedder := options.embedder
	if embedder == nil {
		inner, err := openai.NewEmbedder(options.aiConfig)
		if err != nil {
			chunks.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
		embedder, err = ai.NewRetryingEmbedder(inner,
			options.aiConfig.RequestTimeout,
			options.aiConfig.MaxRetries,
			options.aiConfig.RetryBaseDelay)
		if err != nil {
			chunks.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	// Create the embedding coordinator
	coordinator, err := ingestion.NewCoordinator(documents, chunks, keywords, embedder,
		options.aiConfig.Model,
		ingestion.WithLogger(options.logger))
	if err != nil {
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Create the retriever
	searchOpts := []search.Option{search.WithLogger(options.logger)}
	if options.monitor != nil {
		searchOpts = append(searchOpts, search.WithMonitor(options.monitor))
	}
	retriever, err := search.NewRetriever(documents, chunks, keywords, embedder, coordinator, searchOpts...)
	if err != nil {
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:     backend,
		documents:   documents,
		chunks:      chunks,
		keywords:    keywords,
		embedder:    embedder,
		coordinator: coordinator,
		retriever:   retriever,
		progress:    options.progress,
		logger:      options.logger,
	}, nil
}

func rebuildKeywordIndex(chunks storage.ChunkRepository) (*keyword.Index, error) {
	index := keyword.NewIndex()
	batch := make([]*core.Chunk, 0, rebuildBatchSize)
	err := chunks.ForEachChunk(context.Background(), func(chunk *core.Chunk) error {
		batch = append(batch, chunk)
		if len(batch) == rebuildBatchSize {
			index.IndexChunks(batch...)
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	index.IndexChunks(batch...)
	return index, nil
}

func (e *Engine) Close() error {
	if err := e.chunks.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.documents.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Retrieve runs one role-aware hybrid retrieval and returns up to k hits.
func (e *Engine) Retrieve(ctx context.Context, query string, user core.UserContext, k int) (*search.Result, error) {
	return e.retriever.Retrieve(ctx, query, user, k)
}

// EnsureEmbedded runs the embedding pass for one document unless it is
// already embedded. Concurrent calls for the same document share one pass.
func (e *Engine) EnsureEmbedded(ctx context.Context, documentID core.ID) error {
	return e.coordinator.EnsureEmbedded(ctx, documentID)
}

// Prewarm embeds every document that has no embeddings yet, so first
// queries do not pay the embedding cost. concurrency bounds the number of
// documents processed in parallel; zero or negative picks a default.
func (e *Engine) Prewarm(ctx context.Context, concurrency int) error {
	opts := []prewarm.Option{
		prewarm.WithProgress(e.progress),
		prewarm.WithLogger(e.logger),
	}
	if concurrency > 0 {
		opts = append(opts, prewarm.WithConcurrency(concurrency))
	}
	prewarmer, err := prewarm.NewPrewarmer(e.documents, e.coordinator, opts...)
	if err != nil {
		return err
	}
	return prewarmer.Run(ctx)
}

// RegisterDocument stores a new document and its extracted text. With an
// ID of 0 a new ID is assigned; a non-zero ID replaces that document, and
// the replacement drops its chunks and clears its embedded marker the same
// way UpdateDocumentText does. The text is not embedded here; the first
// retrieval touching the document triggers that, or Prewarm does it ahead
// of time.
func (e *Engine) RegisterDocument(ctx context.Context, doc *core.Document, text string) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	if doc.Id != 0 {
		e.coordinator.Invalidate(doc.Id)
		e.keywords.RemoveDocument(doc.Id)
	}
	stored, err := e.documents.PutDocument(ctx, doc, text)
	if err != nil {
		return nil, err
	}
	e.logger.Info("document registered", "document", stored.Id, "title", stored.Title, "bytes", len(text))
	return stored, nil
}

// UpdateDocumentText replaces a document's text, drops its chunks and
// keyword entries, and clears its embedded marker. The next retrieval or
// Prewarm re-chunks and re-embeds the new text.
func (e *Engine) UpdateDocumentText(ctx context.Context, id core.ID, text string) error {
	e.coordinator.Invalidate(id)
	if err := e.documents.UpdateText(ctx, id, text); err != nil {
		return err
	}
	e.keywords.RemoveDocument(id)
	e.logger.Info("document text updated", "document", id, "bytes", len(text))
	return nil
}

// SetDocumentAccess replaces a document's access metadata and the
// denormalized copies on its chunks and keyword entries. Embeddings are
// unaffected; the new metadata takes effect on the next retrieval. An
// embedding pass in flight for the document is abandoned, so a pass that
// raced the change cannot leave a failure on record.
func (e *Engine) SetDocumentAccess(ctx context.Context, id core.ID, a core.Access) error {
	if err := core.ValidateVisibility(a.Visibility); err != nil {
		return err
	}
	if err := core.ValidateApprovalState(a.ApprovalState); err != nil {
		return err
	}
	e.coordinator.Invalidate(id)
	if err := e.documents.SetAccess(ctx, id, a); err != nil {
		return err
	}
	e.keywords.SetDocumentAccess(id, a)
	e.logger.Info("document access updated", "document", id,
		"visibility", a.Visibility, "approval", a.ApprovalState)
	return nil
}

// DeleteDocument removes a document, its text, chunks and keyword entries.
func (e *Engine) DeleteDocument(ctx context.Context, id core.ID) error {
	e.coordinator.Invalidate(id)
	if err := e.documents.DeleteDocument(ctx, id); err != nil {
		return err
	}
	e.keywords.RemoveDocument(id)
	e.logger.Info("document deleted", "document", id)
	return nil
}

// GetDocument fetches one document on behalf of a user. Unlike retrieval,
// which silently narrows to what the user may see, a direct fetch of an
// inaccessible document returns core.ErrAccessDenied.
func (e *Engine) GetDocument(ctx context.Context, user core.UserContext, id core.ID) (*core.Document, error) {
	predicate, err := access.BuildPredicate(user)
	if err != nil {
		// BuildPredicate fails closed on unknown roles. Log and continue
		// with the fallback predicate, never widen.
		e.logger.Warn("using fallback predicate", "userId", user.UserId, "role", user.Role, "err", err)
	}
	doc, err := e.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !predicate.Matches(doc.Access) {
		return nil, core.ErrAccessDenied
	}
	return doc, nil
}

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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/civicore/polidex/ai"
	"github.com/civicore/polidex/chunker"
	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/keyword"
	"github.com/civicore/polidex/storage"
)

const (
	// defaultBatchSize is the number of chunks sent per embedder call.
	defaultBatchSize = 100

	// defaultPassTimeout bounds one document's whole embedding pass,
	// including every embedder call it makes.
	defaultPassTimeout = 5 * time.Minute

	// defaultCooldown is how long a failed pass is remembered before a
	// new attempt may run for the same document.
	defaultCooldown = 30 * time.Second
)

// job is one in-flight embedding pass. Waiters block on done; err is
// written before done is closed.
type job struct {
	done chan struct{}
	err  error
}

// failure records a pass that completed without success. Until cooldown
// has elapsed, callers receive err instead of triggering a fresh attempt.
type failure struct {
	at  time.Time
	err error
}

// Coordinator runs embedding passes with single-flight de-duplication per
// document id. The in-memory maps only track documents that are in flight
// or cooling down after a failure; the persisted EmbeddedAt marker on the
// document is what survives restarts.
type Coordinator struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	keywords  *keyword.Index
	embedder  ai.Embedder
	splitter  *chunker.Chunker

	model       string
	batchSize   int
	passTimeout time.Duration
	cooldown    time.Duration

	mu     sync.Mutex
	jobs   map[core.ID]*job
	failed map[core.ID]failure

	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithChunker sets the chunker used to split document text.
// Default is an adaptively sized chunker.
func WithChunker(splitter *chunker.Chunker) Option {
	return func(c *Coordinator) error {
		if splitter != nil {
			c.splitter = splitter
		}
		return nil
	}
}

// WithBatchSize sets how many chunks are sent per embedder call.
// Values below 1 are clamped to 1. Default is 100.
func WithBatchSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}
		c.batchSize = size
		return nil
	}
}

// WithPassTimeout bounds one document's embedding pass. Non-positive
// values are ignored. Default is 5 minutes.
func WithPassTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) error {
		if timeout > 0 {
			c.passTimeout = timeout
		}
		return nil
	}
}

// WithCooldown sets how long a failure blocks new attempts for the same
// document. Zero retries immediately; negative values are treated as zero.
// Default is 30 seconds.
func WithCooldown(cooldown time.Duration) Option {
	return func(c *Coordinator) error {
		if cooldown < 0 {
			cooldown = 0
		}
		c.cooldown = cooldown
		return nil
	}
}

// NewCoordinator creates a new embedding coordinator. Vectors are produced
// by embedder and recorded under the given model name.
func NewCoordinator(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	keywords *keyword.Index,
	embedder ai.Embedder,
	model string,
	opts ...Option,
) (*Coordinator, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if keywords == nil {
		return nil, ErrKeywordIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if model == "" {
		return nil, ErrEmbedModelRequired
	}

	c := &Coordinator{
		documents:   documents,
		chunks:      chunks,
		keywords:    keywords,
		embedder:    embedder,
		splitter:    chunker.New(),
		model:       model,
		batchSize:   defaultBatchSize,
		passTimeout: defaultPassTimeout,
		cooldown:    defaultCooldown,
		jobs:        make(map[core.ID]*job),
		failed:      make(map[core.ID]failure),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// EnsureEmbedded makes sure the document's current text has chunks and
// vectors in the store. The first caller for an unembedded document runs
// the pass; concurrent callers for the same id wait on that pass and
// receive its error. Already-embedded documents return immediately.
//
// Cancelling ctx releases this caller only. The pass itself runs detached,
// bounded by the pass timeout, because other waiters and later queries
// share its outcome.
func (c *Coordinator) EnsureEmbedded(ctx context.Context, documentID core.ID) error {
	c.mu.Lock()

	if j, ok := c.jobs[documentID]; ok {
		c.mu.Unlock()
		return c.wait(ctx, j)
	}

	if f, ok := c.failed[documentID]; ok {
		if time.Since(f.at) < c.cooldown {
			c.mu.Unlock()
			return f.err
		}
		delete(c.failed, documentID)
	}

	j := &job{done: make(chan struct{})}
	c.jobs[documentID] = j
	c.mu.Unlock()

	go c.run(documentID, j)

	return c.wait(ctx, j)
}

// Invalidate forgets the in-memory embedding state of a document. A pass
// already in flight keeps running, but its outcome no longer updates the
// coordinator, so the next EnsureEmbedded starts fresh. Callers use this
// after replacing a document's text or deleting the document.
func (c *Coordinator) Invalidate(documentID core.ID) {
	c.mu.Lock()
	delete(c.jobs, documentID)
	delete(c.failed, documentID)
	c.mu.Unlock()
}

// wait blocks until the job finishes or ctx is cancelled.
func (c *Coordinator) wait(ctx context.Context, j *job) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes one embedding pass and publishes its result to all waiters.
func (c *Coordinator) run(documentID core.ID, j *job) {
	// The pass is shared by every waiter, so it must not die with the
	// first caller's context. It runs detached under the pass timeout.
	ctx, cancel := context.WithTimeout(context.Background(), c.passTimeout)
	defer cancel()

	err := c.embed(ctx, documentID)
	if err != nil {
		c.logger.Error("embedding pass failed", "document", documentID, "err", err)
		err = &EmbedError{DocumentId: documentID, Err: err}
	}

	c.finish(documentID, j, err)
}

// finish clears the in-flight entry, records a failure for the cooldown
// window and releases the waiters. If the document was invalidated while
// the pass ran, its outcome is discarded instead of recorded.
func (c *Coordinator) finish(documentID core.ID, j *job, err error) {
	c.mu.Lock()
	if c.jobs[documentID] == j {
		delete(c.jobs, documentID)
		if err != nil {
			c.failed[documentID] = failure{at: time.Now(), err: err}
		}
	}
	c.mu.Unlock()

	j.err = err
	close(j.done)
}

// embed performs the pass for one document: split the text, store and
// keyword-index the chunks, embed them in batches, then mark the document
// embedded.
func (c *Coordinator) embed(ctx context.Context, documentID core.ID) error {
	doc, err := c.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Embedded() {
		return nil
	}

	text, err := c.documents.GetDocumentText(ctx, documentID)
	if err != nil {
		return err
	}

	chunks := c.splitter.Split(text)
	c.logger.Debug("chunked document", "document", documentID, "chunks", len(chunks))

	if len(chunks) > 0 {
		pointers := make([]*core.Chunk, len(chunks))
		for i := range chunks {
			chunks[i].Id = core.IDFromContent(fmt.Sprintf("%d:%d:%s", documentID, chunks[i].Seq, chunks[i].Text))
			chunks[i].DocumentId = documentID
			chunks[i].Access = doc.Access
			pointers[i] = &chunks[i]
		}

		// Chunks are stored and keyword-indexed before any vector
		// exists, so the document competes on keyword relevance even if
		// embedding fails below.
		if err := c.chunks.ReplaceDocumentChunks(ctx, documentID, pointers...); err != nil {
			return err
		}
		c.keywords.RemoveDocument(documentID)
		c.keywords.IndexChunks(pointers...)

		for start := 0; start < len(pointers); start += c.batchSize {
			batch := pointers[start:min(start+c.batchSize, len(pointers))]

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Text
			}

			vectors, err := c.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				return err
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
			}

			for i, chunk := range batch {
				chunk.Vector = ai.NormalizeVector(vectors[i])
				chunk.EmbedModel = c.model
			}

			if err := c.chunks.UpsertEmbeddings(ctx, documentID, batch...); err != nil {
				return err
			}
		}
	}

	// The text or access may have changed while the pass ran. Marking
	// embedded now would vouch for stale chunks, so the marker is written
	// only if the document still matches the pass snapshot; otherwise the
	// pass aborts and the next attempt starts fresh.
	if err := c.documents.SetEmbedded(ctx, documentID, c.model, doc.UpdatedAt); err != nil {
		if errors.Is(err, storage.ErrModified) {
			return ErrDocumentChanged
		}
		return err
	}

	c.logger.Info("document embedded", "document", documentID, "chunks", len(chunks), "model", c.model)
	return nil
}

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


package prewarm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/storage"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// defaultReportInterval is how many documents pass between progress lines.
const defaultReportInterval = 10

// Coordinator runs the embedding pass for one document.
// ingestion.Coordinator implements it.
type Coordinator interface {
	EnsureEmbedded(ctx context.Context, documentID core.ID) error
}

// Prewarmer embeds every pending document ahead of query time, so first
// queries do not pay the embedding cost.
type Prewarmer struct {
	documents   storage.DocumentRepository
	coordinator Coordinator

	concurrency    int
	reportInterval int
	progress       io.Writer
	logger         *slog.Logger
}

// Option configures a Prewarmer.
type Option func(*Prewarmer) error

// WithConcurrency sets how many documents embed in parallel.
// Values below 1 are clamped to 1. Default is runtime.NumCPU() / 2,
// with a minimum of 1.
func WithConcurrency(concurrency int) Option {
	return func(p *Prewarmer) error {
		if concurrency < 1 {
			concurrency = 1
		}
		p.concurrency = concurrency
		return nil
	}
}

// WithReportInterval sets how many documents pass between progress lines.
// Values below 1 are clamped to 1. Default is 10.
func WithReportInterval(interval int) Option {
	return func(p *Prewarmer) error {
		if interval < 1 {
			interval = 1
		}
		p.reportInterval = interval
		return nil
	}
}

// WithProgress sets where progress output is written, typically os.Stderr.
// Default is io.Discard.
func WithProgress(writer io.Writer) Option {
	return func(p *Prewarmer) error {
		if writer == nil {
			writer = io.Discard
		}
		p.progress = writer
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prewarmer) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPrewarmer creates a new prewarmer.
func NewPrewarmer(documents storage.DocumentRepository, coordinator Coordinator, opts ...Option) (*Prewarmer, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if coordinator == nil {
		return nil, ErrCoordinatorRequired
	}

	concurrency := runtime.NumCPU() / 2
	if concurrency < 1 {
		concurrency = 1
	}

	p := &Prewarmer{
		documents:      documents,
		coordinator:    coordinator,
		concurrency:    concurrency,
		reportInterval: defaultReportInterval,
		progress:       io.Discard,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Run embeds every document that has no embedding for its current text.
// Documents that fail keep their keyword entries and can be retried by a
// later run or by the first query that needs them; Run reports them
// through ErrIncomplete. Cancelling ctx stops the run between documents.
func (p *Prewarmer) Run(ctx context.Context) error {
	logger := p.logger.With("run", uuid.NewString())

	documents, err := p.documents.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	pending := make([]*core.Document, 0, len(documents))
	for _, doc := range documents {
		if !doc.Embedded() {
			pending = append(pending, doc)
		}
	}

	if len(pending) == 0 {
		fmt.Fprintf(p.progress, "All %d documents already embedded\n", len(documents))
		return nil
	}

	fmt.Fprintf(p.progress, "Prewarming %d of %d documents (concurrency: %d)\n",
		len(pending), len(documents), p.concurrency)
	logger.Info("prewarm starting", "documents", len(pending), "concurrency", p.concurrency)

	pool, err := ants.NewPool(p.concurrency)
	if err != nil {
		return err
	}
	defer pool.Release()

	tracker := NewProgressTracker(p.progress, len(pending), p.reportInterval)
	tracker.Start()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, doc := range pending {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := p.coordinator.EnsureEmbedded(ctx, doc.Id); err != nil {
				logger.Error("error embedding document", "document", doc.Id, "err", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			tracker.Increment(1)
		}
		if err := pool.Submit(task); err != nil {
			logger.Error("error submitting document", "document", doc.Id, "err", err)
			wg.Done()
			mu.Lock()
			failed++
			mu.Unlock()
			tracker.Increment(1)
		}
	}
	wg.Wait()
	tracker.Finish()

	elapsed := tracker.Elapsed()
	embedded := len(pending) - failed
	fmt.Fprintf(p.progress, "Prewarm complete. Embedded %d of %d documents in %v\n",
		embedded, len(pending), elapsed.Round(time.Second))
	logger.Info("prewarm finished", "embedded", embedded, "failed", failed, "elapsed", elapsed)

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d documents failed", ErrIncomplete, failed, len(pending))
	}
	return nil
}

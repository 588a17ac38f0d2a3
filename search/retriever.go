package search

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/civicore/polidex/access"
	"github.com/civicore/polidex/ai"
	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/keyword"
	"github.com/civicore/polidex/storage"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// queryCacheSize bounds the number of cached query embeddings.
	queryCacheSize = 512

	// defaultQueryCacheTTL is how long a cached query embedding stays valid.
	defaultQueryCacheTTL = 5 * time.Minute

	// candidateMultiplier widens both index searches beyond the requested
	// result count so fusion ranks over enough overlap.
	candidateMultiplier = 3
)

// Coordinator runs the lazy embedding pass for a document. The first call
// for an unembedded document performs the pass; concurrent calls for the
// same document share that attempt. ingestion.Coordinator implements it.
type Coordinator interface {
	EnsureEmbedded(ctx context.Context, documentID core.ID) error
}

// Result is the outcome of one retrieval.
type Result struct {
	// Hits are the fused, hydrated results, best first.
	Hits []core.RetrievedChunk

	// Incomplete lists accessible documents whose embedding pass failed
	// during this retrieval. Their chunks could compete on keyword
	// relevance only, so repeating the query later may rank them better.
	Incomplete []core.ID
}

// Retriever answers hybrid retrieval queries over the corpus a user is
// allowed to see.
type Retriever struct {
	documents   storage.DocumentRepository
	chunks      storage.ChunkRepository
	keywords    *keyword.Index
	embedder    ai.Embedder
	coordinator Coordinator
	queryCache  *expirable.LRU[string, []float32]
	cacheTTL    time.Duration
	logger      *slog.Logger
	monitor     Monitor
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMonitor sets a monitor observing every retrieval.
// Default is a no-op monitor.
func WithMonitor(monitor Monitor) Option {
	return func(r *Retriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// WithQueryCacheTTL sets how long query embeddings are reused.
// A zero or negative TTL disables the cache. Default is 5 minutes.
func WithQueryCacheTTL(ttl time.Duration) Option {
	return func(r *Retriever) error {
		r.cacheTTL = ttl
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	keywords *keyword.Index,
	embedder ai.Embedder,
	coordinator Coordinator,
	opts ...Option,
) (*Retriever, error) {
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
	if coordinator == nil {
		return nil, ErrCoordinatorRequired
	}

	r := &Retriever{
		documents:   documents,
		chunks:      chunks,
		keywords:    keywords,
		embedder:    embedder,
		coordinator: coordinator,
		cacheTTL:    defaultQueryCacheTTL,
		logger:      slog.Default(),
		monitor:     &noopMonitor{},
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	// The cache is built after options so WithQueryCacheTTL can size it
	if r.cacheTTL > 0 {
		r.queryCache = expirable.NewLRU[string, []float32](queryCacheSize, nil, r.cacheTTL)
	}

	return r, nil
}

// Retrieve runs one hybrid retrieval for the given user and returns up to
// k results. A blank query returns an empty result. Failed embedding
// passes and a failed query embedding degrade the ranking rather than
// failing the call; the returned Result reports which documents could not
// be embedded.
func (r *Retriever) Retrieve(ctx context.Context, query string, user core.UserContext, k int) (*Result, error) {
	if k <= 0 {
		return nil, ErrInvalidLimit
	}

	start := time.Now()
	r.monitor.Start(query)

	if strings.TrimSpace(query) == "" {
		result := &Result{}
		r.monitor.Finish(result, time.Since(start))
		return result, nil
	}

	// 1. Compile the user's access predicate
	predicate, err := access.BuildPredicate(user)
	if err != nil {
		// BuildPredicate fails closed: on an unknown role it returns the
		// public fallback predicate. Log and continue, never widen.
		r.logger.Warn("using fallback predicate", "userId", user.UserId, "role", user.Role, "err", err)
	}
	r.monitor.PredicateBuilt(predicate.String())

	// 2. List accessible documents and run embedding passes for the ones
	// that have none yet
	docs, err := r.documents.ListDocuments(ctx)
	if err != nil {
		r.logger.Error("error listing documents", "err", err)
		return nil, err
	}

	accessible := make([]*core.Document, 0, len(docs))
	recency := make(map[core.ID]time.Time, len(docs))
	for _, doc := range docs {
		if !predicate.Matches(doc.Access) {
			continue
		}
		accessible = append(accessible, doc)
		recency[doc.Id] = doc.UpdatedAt
	}

	incomplete := r.ensureEmbedded(ctx, accessible)

	// 3. Resolve the query vector; a failure here degrades the query to
	// keyword-only instead of failing it
	queryVector, cached, err := r.embedQuery(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed, keyword-only retrieval", "err", err)
		r.monitor.KeywordOnly(err)
	} else {
		r.monitor.QueryVectorReady(cached)
	}

	// 4. Run both index searches in parallel under the same predicate
	candidates := k * candidateMultiplier

	var (
		vectorHits  []core.ChunkHit
		keywordHits []core.ChunkHit
		vectorErr   error
		wg          sync.WaitGroup
	)
	if len(queryVector) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorHits, vectorErr = r.chunks.SearchSimilar(ctx, queryVector, predicate, candidates)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		keywordHits = r.keywords.Search(query, predicate, candidates)
	}()
	wg.Wait()

	if vectorErr != nil {
		r.logger.Warn("vector search failed, keyword-only retrieval", "err", vectorErr)
		r.monitor.KeywordOnly(vectorErr)
		vectorHits = nil
	}
	r.monitor.AfterVectorSearch(vectorHits)
	r.monitor.AfterKeywordSearch(keywordHits)

	// 5. Fuse the two rankings
	fused := Fuse(vectorHits, keywordHits, recency)
	r.monitor.AfterFusion(fused)

	// 6. Hydrate and truncate
	hits := make([]core.RetrievedChunk, 0, k)
	for _, hit := range fused {
		if len(hits) == k {
			break
		}

		// A chunk's denormalized access copy can lag behind the document
		// record, so a hit must also belong to a document that was listed
		// as accessible above
		if _, ok := recency[hit.DocumentId]; !ok {
			continue
		}

		chunk, err := r.chunks.GetChunk(ctx, hit.DocumentId, hit.Seq)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Deleted between the index scan and hydration
				continue
			}
			r.logger.Error("error hydrating chunk", "documentId", hit.DocumentId, "seq", hit.Seq, "err", err)
			return nil, err
		}
		// Access may have changed since the index scan
		if !predicate.Matches(chunk.Access) {
			continue
		}

		hits = append(hits, core.RetrievedChunk{
			ChunkId:        chunk.Id,
			DocumentId:     chunk.DocumentId,
			Seq:            chunk.Seq,
			Text:           chunk.Text,
			SectionHeading: chunk.SectionHeading,
			ApprovalState:  chunk.Access.ApprovalState,
			Score:          hit.Score,
			VectorScore:    hit.VectorScore,
			KeywordScore:   hit.KeywordScore,
		})
	}

	result := &Result{Hits: hits, Incomplete: incomplete}
	r.monitor.Finish(result, time.Since(start))

	return result, nil
}

// ensureEmbedded runs embedding passes for every document in docs that has
// not completed one, all concurrently. The coordinator deduplicates work
// per document, so racing retrievals share a single pass. Returns the IDs
// of documents whose pass failed, sorted ascending.
func (r *Retriever) ensureEmbedded(ctx context.Context, docs []*core.Document) []core.ID {
	pending := make([]core.ID, 0)
	for _, doc := range docs {
		if !doc.Embedded() {
			pending = append(pending, doc.Id)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		failed []core.ID
		wg     sync.WaitGroup
	)
	for _, id := range pending {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.coordinator.EnsureEmbedded(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			r.monitor.EmbeddingEnsured(id, err)
			if err != nil {
				r.logger.Warn("embedding pass failed", "documentId", id, "err", err)
				failed = append(failed, id)
			}
		}()
	}
	wg.Wait()

	slices.Sort(failed)
	return failed
}

// embedQuery resolves the normalized query vector, consulting the TTL
// cache first. The boolean reports whether the vector came from the cache.
func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, bool, error) {
	if r.queryCache != nil {
		if vector, ok := r.queryCache.Get(query); ok {
			return vector, true, nil
		}
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, false, err
	}
	vector = ai.NormalizeVector(vector)

	if r.queryCache != nil {
		r.queryCache.Add(query, vector)
	}
	return vector, false, nil
}

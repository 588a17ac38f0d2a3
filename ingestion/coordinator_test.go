package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/civicore/polidex/ai/mock"
	"github.com/civicore/polidex/chunker"
	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/keyword"
	"github.com/civicore/polidex/storage"
	"github.com/civicore/polidex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStores(t *testing.T) (storage.DocumentRepository, storage.ChunkRepository, *keyword.Index) {
	t.Helper()

	docs, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunks.Close()
		docs.Close()
		backend.Close()
	})

	return docs, chunks, keyword.NewIndex()
}

func newCoordinator(t *testing.T, docs storage.DocumentRepository, chunks storage.ChunkRepository,
	keywords *keyword.Index, embedder *mock.MockEmbedder, opts ...Option) *Coordinator {
	t.Helper()

	coordinator, err := NewCoordinator(docs, chunks, keywords, embedder, "embeddinggemma", opts...)
	require.NoError(t, err)
	return coordinator
}

func registerDocument(t *testing.T, docs storage.DocumentRepository, title, text string) *core.Document {
	t.Helper()

	doc, err := docs.PutDocument(context.Background(), &core.Document{
		Title: title,
		Access: core.Access{
			Visibility:    core.VisibilityPublic,
			ApprovalState: core.ApprovalApproved,
		},
	}, text)
	require.NoError(t, err)
	return doc
}

func deterministicVectors(texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = mock.DeterministicVector(text, 8)
	}
	return vectors
}

func TestNewCoordinator(t *testing.T) {
	docs, chunks, keywords := setupStores(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid", func(t *testing.T) {
		coordinator, err := NewCoordinator(docs, chunks, keywords, embedder, "embeddinggemma")
		require.NoError(t, err)
		assert.NotNil(t, coordinator)
	})

	t.Run("nil document repository", func(t *testing.T) {
		coordinator, err := NewCoordinator(nil, chunks, keywords, embedder, "embeddinggemma")
		assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)
		assert.Nil(t, coordinator)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		coordinator, err := NewCoordinator(docs, nil, keywords, embedder, "embeddinggemma")
		assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
		assert.Nil(t, coordinator)
	})

	t.Run("nil keyword index", func(t *testing.T) {
		coordinator, err := NewCoordinator(docs, chunks, nil, embedder, "embeddinggemma")
		assert.ErrorIs(t, err, ErrKeywordIndexRequired)
		assert.Nil(t, coordinator)
	})

	t.Run("nil embedder", func(t *testing.T) {
		coordinator, err := NewCoordinator(docs, chunks, keywords, nil, "embeddinggemma")
		assert.ErrorIs(t, err, ErrEmbedderRequired)
		assert.Nil(t, coordinator)
	})

	t.Run("empty model", func(t *testing.T) {
		coordinator, err := NewCoordinator(docs, chunks, keywords, embedder, "")
		assert.ErrorIs(t, err, ErrEmbedModelRequired)
		assert.Nil(t, coordinator)
	})
}

func TestEnsureEmbedded_EmbedsDocument(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)
	embedder := mock.NewMockEmbedder()
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder)

	doc := registerDocument(t, docs, "Waste schedule",
		"Municipal waste collection follows the schedule published by the environmental service.")

	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id))

	stored, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.True(t, stored.Embedded())
	assert.Equal(t, "embeddinggemma", stored.EmbedModel)

	chunkList, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunkList)
	for _, chunk := range chunkList {
		assert.NotZero(t, chunk.Id)
		assert.Equal(t, doc.Id, chunk.DocumentId)
		assert.Equal(t, doc.Access, chunk.Access)
		assert.Equal(t, "embeddinggemma", chunk.EmbedModel)
		require.NotEmpty(t, chunk.Vector)

		var magnitude float64
		for _, v := range chunk.Vector {
			magnitude += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, magnitude, 1e-6)
	}

	assert.Positive(t, keywords.Count())
	assert.Equal(t, 1, embedder.CallCount())
}

func TestEnsureEmbedded_AlreadyEmbedded(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)
	embedder := mock.NewMockEmbedder()
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder)

	doc := registerDocument(t, docs, "Done", "This document already completed an embedding pass.")
	require.NoError(t, docs.SetEmbedded(ctx, doc.Id, "embeddinggemma", doc.UpdatedAt))

	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id))
	assert.Equal(t, 0, embedder.CallCount())
}

func TestEnsureEmbedded_EmptyDocument(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)
	embedder := mock.NewMockEmbedder()
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder)

	doc := registerDocument(t, docs, "Empty", "")

	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id))

	stored, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.True(t, stored.Embedded(), "empty documents embed trivially")

	chunkList, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Empty(t, chunkList)
	assert.Zero(t, keywords.Count())
	assert.Equal(t, 0, embedder.CallCount(), "no embedder calls for empty text")
}

func TestEnsureEmbedded_DocumentNotFound(t *testing.T) {
	docs, chunks, keywords := setupStores(t)
	embedder := mock.NewMockEmbedder()
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder)

	err := coordinator.EnsureEmbedded(context.Background(), core.ID(9999))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var embedErr *EmbedError
	require.ErrorAs(t, err, &embedErr)
	assert.Equal(t, core.ID(9999), embedErr.DocumentId)
}

func TestEnsureEmbedded_SingleFlight(t *testing.T) {
	docs, chunks, keywords := setupStores(t)

	release := make(chan struct{})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-release
		return deterministicVectors(texts), nil
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder)

	doc := registerDocument(t, docs, "Permit rules",
		"Building permits require an approved site plan before construction begins.")

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = coordinator.EnsureEmbedded(context.Background(), doc.Id)
		}()
	}

	// Let callers pile up on the one pass before releasing it.
	require.Eventually(t, func() bool { return embedder.CallCount() == 1 },
		time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, 1, embedder.CallCount(), "exactly one pass should embed")

	stored, err := docs.GetDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.True(t, stored.Embedded())
}

func TestEnsureEmbedded_FailureSurfacesToAllWaiters(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)

	serviceErr := errors.New("embedding service down")
	release := make(chan struct{})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-release
		return nil, serviceErr
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder)

	doc := registerDocument(t, docs, "Zoning",
		"Zoning variances are granted by the planning board after a public hearing.")

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = coordinator.EnsureEmbedded(ctx, doc.Id)
		}()
	}

	require.Eventually(t, func() bool { return embedder.CallCount() == 1 },
		time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		require.Error(t, err, "caller %d", i)
		assert.ErrorIs(t, err, serviceErr)

		var embedErr *EmbedError
		require.ErrorAs(t, err, &embedErr)
		assert.Equal(t, doc.Id, embedErr.DocumentId)
	}
	assert.Equal(t, 1, embedder.CallCount())

	// Chunks written before the failure keep the document keyword-searchable.
	chunkList, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, chunkList)
	assert.Positive(t, keywords.Count())

	stored, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.False(t, stored.Embedded())
}

func TestEnsureEmbedded_CooldownBlocksRetry(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)

	serviceErr := errors.New("embedding service down")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, serviceErr
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder, WithCooldown(time.Hour))

	doc := registerDocument(t, docs, "Licensing",
		"Food service licenses expire annually and must be renewed in person.")

	err := coordinator.EnsureEmbedded(ctx, doc.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, serviceErr)

	// Inside the cooldown the remembered error comes back without a new pass.
	err = coordinator.EnsureEmbedded(ctx, doc.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, serviceErr)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestEnsureEmbedded_RetriesAfterCooldown(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)

	serviceErr := errors.New("embedding service down")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if embedder.CallCount() == 1 {
			return nil, serviceErr
		}
		return deterministicVectors(texts), nil
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder,
		WithCooldown(10*time.Millisecond))

	doc := registerDocument(t, docs, "Parking",
		"Residential parking permits are issued per household, limited to two vehicles.")

	err := coordinator.EnsureEmbedded(ctx, doc.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, serviceErr)

	time.Sleep(20 * time.Millisecond)

	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id))
	assert.Equal(t, 2, embedder.CallCount())

	stored, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.True(t, stored.Embedded())
}

func TestEnsureEmbedded_WaiterCancelDoesNotKillPass(t *testing.T) {
	docs, chunks, keywords := setupStores(t)

	release := make(chan struct{})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-release
		return deterministicVectors(texts), nil
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder)

	doc := registerDocument(t, docs, "Noise",
		"Construction noise is restricted to weekdays between seven and eighteen hours.")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.EnsureEmbedded(ctx, doc.Id)
	}()

	require.Eventually(t, func() bool { return embedder.CallCount() == 1 },
		time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}

	// The pass keeps running without its caller and completes the document.
	close(release)
	require.Eventually(t, func() bool {
		stored, err := docs.GetDocument(context.Background(), doc.Id)
		return err == nil && stored.Embedded()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEnsureEmbedded_PassTimeout(t *testing.T) {
	docs, chunks, keywords := setupStores(t)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder,
		WithPassTimeout(25*time.Millisecond))

	doc := registerDocument(t, docs, "Stalled",
		"Water service interruptions must be announced two days in advance.")

	err := coordinator.EnsureEmbedded(context.Background(), doc.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stored, err := docs.GetDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.False(t, stored.Embedded())
}

func TestInvalidate_ClearsFailureState(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)

	serviceErr := errors.New("embedding service down")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if embedder.CallCount() == 1 {
			return nil, serviceErr
		}
		return deterministicVectors(texts), nil
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder, WithCooldown(time.Hour))

	doc := registerDocument(t, docs, "Signage",
		"Commercial signage larger than two square meters requires a municipal permit.")

	err := coordinator.EnsureEmbedded(ctx, doc.Id)
	require.Error(t, err)

	coordinator.Invalidate(doc.Id)

	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id),
		"invalidate should allow a fresh pass despite the cooldown")
	assert.Equal(t, 2, embedder.CallCount())
}

func TestInvalidate_DetachesInFlightPass(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)

	serviceErr := errors.New("embedding service down")
	release := make(chan struct{})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-release
		return nil, serviceErr
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder, WithCooldown(time.Hour))

	doc := registerDocument(t, docs, "Archives",
		"Council meeting minutes enter the public archive after approval.")

	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.EnsureEmbedded(ctx, doc.Id)
	}()

	require.Eventually(t, func() bool { return embedder.CallCount() == 1 },
		time.Second, 5*time.Millisecond)
	coordinator.Invalidate(doc.Id)
	close(release)

	select {
	case err := <-errCh:
		// Waiters on the detached pass still receive its result.
		assert.ErrorIs(t, err, serviceErr)
	case <-time.After(time.Second):
		t.Fatal("waiter did not return")
	}

	// The detached failure was not recorded, so a new pass runs at once.
	embedder.EmbedTextsFunc = nil
	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id))
	assert.Equal(t, 2, embedder.CallCount())

	stored, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.True(t, stored.Embedded())
}

func TestEnsureEmbedded_ParallelDocuments(t *testing.T) {
	docs, chunks, keywords := setupStores(t)

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		started <- struct{}{}
		<-release
		return deterministicVectors(texts), nil
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder)

	docA := registerDocument(t, docs, "Transit",
		"Bus lanes are reserved for public transit during peak hours.")
	docB := registerDocument(t, docs, "Cycling",
		"Protected cycle paths are maintained year round, including snow removal.")

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(2)
	go func() {
		defer wg.Done()
		errA = coordinator.EnsureEmbedded(context.Background(), docA.Id)
	}()
	go func() {
		defer wg.Done()
		errB = coordinator.EnsureEmbedded(context.Background(), docB.Id)
	}()

	// Both passes must reach the embedder while the other is still blocked.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("passes for different documents did not run in parallel")
		}
	}
	close(release)
	wg.Wait()

	assert.NoError(t, errA)
	assert.NoError(t, errB)

	for _, id := range []core.ID{docA.Id, docB.Id} {
		stored, err := docs.GetDocument(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, stored.Embedded())
	}
}

func TestEnsureEmbedded_TextChangedDuringPass(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)

	release := make(chan struct{})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-release
		return deterministicVectors(texts), nil
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder, WithCooldown(0))

	doc := registerDocument(t, docs, "Collection rules",
		"Original waste collection rules apply to all districts.")

	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.EnsureEmbedded(ctx, doc.Id)
	}()

	// Replace the text while the pass is blocked inside the embedder.
	require.Eventually(t, func() bool { return embedder.CallCount() == 1 },
		time.Second, 5*time.Millisecond)
	require.NoError(t, docs.UpdateText(ctx, doc.Id, "Revised waste collection rules apply from next year."))
	close(release)

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDocumentChanged)
	case <-time.After(time.Second):
		t.Fatal("pass did not finish")
	}

	stored, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.False(t, stored.Embedded(), "a pass over replaced text must not mark the document")

	// The next pass picks up the new text.
	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id))

	chunkList, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, chunkList, 1)
	assert.Contains(t, chunkList[0].Text, "Revised")

	stored, err = docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.True(t, stored.Embedded())
}

func TestEnsureEmbedded_AccessChangedDuringPass(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)

	release := make(chan struct{})
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-release
		return deterministicVectors(texts), nil
	}
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder, WithCooldown(0))

	doc := registerDocument(t, docs, "Audit findings",
		"Internal audit findings on subsidy allocations in district seven.")

	errCh := make(chan error, 1)
	go func() {
		errCh <- coordinator.EnsureEmbedded(ctx, doc.Id)
	}()

	// Restrict the document while the pass is blocked inside the embedder.
	// The pass stored its chunks with the public access it read at the
	// start; committing vectors must not roll the stored copies back.
	require.Eventually(t, func() bool { return embedder.CallCount() == 1 },
		time.Second, 5*time.Millisecond)
	confidential := core.Access{
		Visibility:    core.VisibilityConfidential,
		InstitutionId: 4,
		ApprovalState: core.ApprovalApproved,
	}
	require.NoError(t, docs.SetAccess(ctx, doc.Id, confidential))
	close(release)

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDocumentChanged)
	case <-time.After(time.Second):
		t.Fatal("pass did not finish")
	}

	stored, err := docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.False(t, stored.Embedded(), "a pass that raced an access change must not mark the document")

	chunkList, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunkList)
	for _, chunk := range chunkList {
		assert.Equal(t, confidential, chunk.Access, "chunk %d kept the stale public access", chunk.Seq)
		assert.NotEmpty(t, chunk.Vector, "the vectors themselves are still valid for unchanged text")
	}

	// The next pass runs against the restricted document and completes.
	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id))
	assert.Equal(t, 2, embedder.CallCount())

	stored, err = docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.True(t, stored.Embedded())

	chunkList, err = chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.NotEmpty(t, chunkList)
	for _, chunk := range chunkList {
		assert.Equal(t, confidential, chunk.Access)
	}
}

func TestEnsureEmbedded_BatchesEmbedderCalls(t *testing.T) {
	ctx := context.Background()
	docs, chunks, keywords := setupStores(t)

	var (
		mu        sync.Mutex
		batchLens []int
	)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		batchLens = append(batchLens, len(texts))
		mu.Unlock()
		return deterministicVectors(texts), nil
	}

	splitter := chunker.New(chunker.WithTargetSize(60), chunker.WithOverlap(0))
	coordinator := newCoordinator(t, docs, chunks, keywords, embedder,
		WithChunker(splitter), WithBatchSize(2))

	text := strings.Repeat("Waste collection rules apply to every district. ", 20)
	doc := registerDocument(t, docs, "Long document", text)

	require.NoError(t, coordinator.EnsureEmbedded(ctx, doc.Id))

	chunkList, err := chunks.GetDocumentChunks(ctx, doc.Id)
	require.NoError(t, err)
	require.Greater(t, len(chunkList), 2, "fixture should split into several chunks")

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, batchLens, (len(chunkList)+1)/2)
	total := 0
	for _, n := range batchLens {
		assert.LessOrEqual(t, n, 2)
		total += n
	}
	assert.Equal(t, len(chunkList), total, "every chunk should be embedded exactly once")

	for _, chunk := range chunkList {
		assert.NotEmpty(t, chunk.Vector)
		assert.Equal(t, "embeddinggemma", chunk.EmbedModel)
	}
}

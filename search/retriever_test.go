package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/civicore/polidex/access"
	"github.com/civicore/polidex/ai/mock"
	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/keyword"
	"github.com/civicore/polidex/storage"
	"github.com/civicore/polidex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coordinatorFunc adapts a function to the Coordinator interface.
type coordinatorFunc func(ctx context.Context, documentID core.ID) error

func (f coordinatorFunc) EnsureEmbedded(ctx context.Context, documentID core.ID) error {
	return f(ctx, documentID)
}

var noopCoordinator = coordinatorFunc(func(context.Context, core.ID) error { return nil })

// testEngine bundles the real stores a Retriever runs against.
type testEngine struct {
	docs     storage.DocumentRepository
	chunks   storage.ChunkRepository
	keywords *keyword.Index
	embedder *mock.MockEmbedder
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	docs, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunks.Close()
		docs.Close()
		backend.Close()
	})

	return &testEngine{
		docs:     docs,
		chunks:   chunks,
		keywords: keyword.NewIndex(),
		embedder: mock.NewMockEmbedder(),
	}
}

func (e *testEngine) newRetriever(t *testing.T, coordinator Coordinator, opts ...Option) *Retriever {
	t.Helper()
	r, err := NewRetriever(e.docs, e.chunks, e.keywords, e.embedder, coordinator, opts...)
	require.NoError(t, err)
	return r
}

// seedEmbedded stores a document with its chunks fully embedded: vectors in
// the chunk store, terms in the keyword index, marker on the document.
func (e *testEngine) seedEmbedded(t *testing.T, doc *core.Document, text string, chunks ...*core.Chunk) *core.Document {
	t.Helper()
	ctx := context.Background()

	stored, err := e.docs.PutDocument(ctx, doc, text)
	require.NoError(t, err)
	for _, chunk := range chunks {
		chunk.DocumentId = stored.Id
		chunk.Access = stored.Access
	}
	require.NoError(t, e.chunks.ReplaceDocumentChunks(ctx, stored.Id, chunks...))
	require.NoError(t, e.docs.SetEmbedded(ctx, stored.Id, "embeddinggemma", stored.UpdatedAt))
	e.keywords.IndexChunks(chunks...)

	return stored
}

func testAccess(vis core.Visibility, approval core.ApprovalState, institution core.ID) core.Access {
	return core.Access{
		Visibility:    vis,
		InstitutionId: institution,
		ApprovalState: approval,
		UploaderId:    901,
	}
}

func embeddedChunk(seq int, text string, vector []float32) *core.Chunk {
	return &core.Chunk{
		Id:         core.IDFromContent(fmt.Sprintf("%d:%s", seq, text)),
		Seq:        seq,
		Start:      0,
		End:        len(text),
		Text:       text,
		Vector:     vector,
		EmbedModel: "embeddinggemma",
	}
}

// fixedQueryVector makes the mock embedder answer every query with the
// given vector, so vector rankings in tests are hand-computable.
func (e *testEngine) fixedQueryVector(vector []float32) {
	e.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
}

func TestNewRetriever(t *testing.T) {
	eng := newTestEngine(t)

	t.Run("valid configuration", func(t *testing.T) {
		r, err := NewRetriever(eng.docs, eng.chunks, eng.keywords, eng.embedder, noopCoordinator)
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("with custom logger", func(t *testing.T) {
		r, err := NewRetriever(eng.docs, eng.chunks, eng.keywords, eng.embedder, noopCoordinator, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		r, err := NewRetriever(eng.docs, eng.chunks, eng.keywords, eng.embedder, noopCoordinator, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewRetriever(nil, eng.chunks, eng.keywords, eng.embedder, noopCoordinator)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewRetriever(eng.docs, nil, eng.keywords, eng.embedder, noopCoordinator)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil keyword index", func(t *testing.T) {
		_, err := NewRetriever(eng.docs, eng.chunks, nil, eng.embedder, noopCoordinator)
		assert.Equal(t, ErrKeywordIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewRetriever(eng.docs, eng.chunks, eng.keywords, nil, noopCoordinator)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil coordinator", func(t *testing.T) {
		_, err := NewRetriever(eng.docs, eng.chunks, eng.keywords, eng.embedder, nil)
		assert.Equal(t, ErrCoordinatorRequired, err)
	})
}

func TestRetrieve_InvalidLimit(t *testing.T) {
	eng := newTestEngine(t)
	r := eng.newRetriever(t, noopCoordinator)

	_, err := r.Retrieve(context.Background(), "query", core.UserContext{Role: core.RolePublic}, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestRetrieve_BlankQuery(t *testing.T) {
	eng := newTestEngine(t)
	r := eng.newRetriever(t, noopCoordinator)

	result, err := r.Retrieve(context.Background(), "   ", core.UserContext{Role: core.RolePublic}, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
	assert.Empty(t, result.Incomplete)
	assert.Zero(t, eng.embedder.CallCount(), "blank queries must not reach the embedder")
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	eng := newTestEngine(t)
	r := eng.newRetriever(t, noopCoordinator)

	result, err := r.Retrieve(context.Background(), "waste management", core.UserContext{Role: core.RolePublic}, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
	assert.Empty(t, result.Incomplete)
}

func TestRetrieve_HybridRanking(t *testing.T) {
	eng := newTestEngine(t)

	subsidy := eng.seedEmbedded(t,
		&core.Document{Title: "Agricultural subsidy guideline", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Farmers must meet the eligibility criteria for the subsidy program.",
		embeddedChunk(0, "Farmers must meet the eligibility criteria for the subsidy program.", []float32{1, 0, 0}),
	)
	permits := eng.seedEmbedded(t,
		&core.Document{Title: "Road construction permits", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Permit applications for road construction are reviewed quarterly.",
		embeddedChunk(0, "Permit applications for road construction are reviewed quarterly.", []float32{0, 1, 0}),
	)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)

	result, err := r.Retrieve(context.Background(), "subsidy eligibility criteria", core.UserContext{Role: core.RolePublic}, 10)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Empty(t, result.Incomplete)

	// The subsidy chunk tops both rankings: best vector score and the only
	// keyword match
	top := result.Hits[0]
	assert.Equal(t, subsidy.Id, top.DocumentId)
	assert.InDelta(t, 1.0, top.VectorScore, 1e-9)
	assert.InDelta(t, 1.0, top.KeywordScore, 1e-9)
	assert.InDelta(t, 1.0, top.Score, 1e-9)
	assert.Contains(t, top.Text, "eligibility criteria")
	assert.Equal(t, core.ApprovalApproved, top.ApprovalState)

	// The permits chunk only appears in the vector set, at the bottom of
	// its score range
	second := result.Hits[1]
	assert.Equal(t, permits.Id, second.DocumentId)
	assert.Zero(t, second.VectorScore)
	assert.Zero(t, second.KeywordScore)
	assert.Zero(t, second.Score)
}

func TestRetrieve_MatchingSectionRanksFirst(t *testing.T) {
	eng := newTestEngine(t)

	// Both chunks answer the query equally well by vector, so the keyword
	// match on "eligibility" alone decides the order
	first := "Section 1: Eligibility. Applicants must reside in the municipality."
	second := "Section 2: Process. Submissions are reviewed within thirty days."
	eng.seedEmbedded(t,
		&core.Document{Title: "Housing benefit guideline", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		first+" "+second,
		embeddedChunk(0, first, []float32{1, 0, 0}),
		embeddedChunk(1, second, []float32{1, 0, 0}),
	)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)

	result, err := r.Retrieve(context.Background(), "eligibility", core.UserContext{Role: core.RolePublic}, 10)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)

	assert.Equal(t, 0, result.Hits[0].Seq)
	assert.Contains(t, result.Hits[0].Text, "Eligibility")
	assert.Equal(t, 1, result.Hits[1].Seq)
	assert.Greater(t, result.Hits[0].Score, result.Hits[1].Score)
}

func TestRetrieve_NeverLeaksRestrictedChunks(t *testing.T) {
	eng := newTestEngine(t)

	text := "Classified assessment of the subsidy eligibility criteria."
	public := eng.seedEmbedded(t,
		&core.Document{Title: "Public guideline", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		text,
		embeddedChunk(0, text, []float32{1, 0, 0}),
	)
	confidential := eng.seedEmbedded(t,
		&core.Document{Title: "Confidential assessment", Access: testAccess(core.VisibilityConfidential, core.ApprovalApproved, 0)},
		text,
		embeddedChunk(0, text, []float32{1, 0, 0}),
	)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)
	ctx := context.Background()

	// A public user gets the public chunk only, even though the
	// confidential one scores identically
	result, err := r.Retrieve(ctx, "subsidy eligibility criteria", core.UserContext{UserId: 1, Role: core.RolePublic}, 10)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, public.Id, result.Hits[0].DocumentId)

	// A system administrator sees both
	result, err = r.Retrieve(ctx, "subsidy eligibility criteria", core.UserContext{UserId: 2, Role: core.RoleSystemAdmin}, 10)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	got := []core.ID{result.Hits[0].DocumentId, result.Hits[1].DocumentId}
	assert.ElementsMatch(t, []core.ID{public.Id, confidential.Id}, got)
}

func TestRetrieve_StaleAccessCopyStaysHidden(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// The pathology a raced writer could leave behind: the document record
	// is confidential while a stored chunk still carries an older public
	// copy of its access. The document record must win.
	text := "Internal audit findings on subsidy fraud cases in district seven."
	doc, err := eng.docs.PutDocument(ctx,
		&core.Document{Title: "Audit findings", Access: testAccess(core.VisibilityConfidential, core.ApprovalApproved, 4)}, text)
	require.NoError(t, err)

	stale := embeddedChunk(0, text, []float32{1, 0, 0})
	stale.DocumentId = doc.Id
	stale.Access = testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)
	require.NoError(t, eng.chunks.ReplaceDocumentChunks(ctx, doc.Id, stale))
	require.NoError(t, eng.docs.SetEmbedded(ctx, doc.Id, "embeddinggemma", doc.UpdatedAt))
	eng.keywords.IndexChunks(stale)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)

	result, err := r.Retrieve(ctx, "audit findings subsidy fraud", core.UserContext{UserId: 1, Role: core.RolePublic}, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Hits, "chunk with a stale public access copy must stay hidden")

	// A system administrator may see the document, stale copy or not
	result, err = r.Retrieve(ctx, "audit findings subsidy fraud", core.UserContext{UserId: 2, Role: core.RoleSystemAdmin}, 10)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, doc.Id, result.Hits[0].DocumentId)
}

func TestRetrieve_InstitutionDraftsStayInvisible(t *testing.T) {
	eng := newTestEngine(t)

	approved := eng.seedEmbedded(t,
		&core.Document{Title: "Approved directive", Access: testAccess(core.VisibilityInstitution, core.ApprovalApproved, 7)},
		"Internal directive on procurement thresholds.",
		embeddedChunk(0, "Internal directive on procurement thresholds.", []float32{1, 0, 0}),
	)
	eng.seedEmbedded(t,
		&core.Document{Title: "Draft directive", Access: testAccess(core.VisibilityInstitution, core.ApprovalDraft, 7)},
		"Draft directive on procurement thresholds.",
		embeddedChunk(0, "Draft directive on procurement thresholds.", []float32{1, 0, 0}),
	)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)
	ctx := context.Background()

	// A member of the owning institution sees approved content only
	member := core.UserContext{UserId: 4, InstitutionId: 7, Role: core.RoleInstitutionMember}
	result, err := r.Retrieve(ctx, "procurement thresholds directive", member, 10)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, approved.Id, result.Hits[0].DocumentId)

	// Members of other institutions see nothing
	outsider := core.UserContext{UserId: 5, InstitutionId: 9, Role: core.RoleInstitutionMember}
	result, err = r.Retrieve(ctx, "procurement thresholds directive", outsider, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestRetrieve_AccessProperty(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	visibilities := []core.Visibility{
		core.VisibilityPublic,
		core.VisibilityInstitution,
		core.VisibilityRestricted,
		core.VisibilityConfidential,
	}
	approvals := []core.ApprovalState{
		core.ApprovalDraft,
		core.ApprovalPending,
		core.ApprovalApproved,
		core.ApprovalRejected,
	}
	institutions := []core.ID{0, 7, 9}
	uploaders := []core.ID{333, 901}

	// One document per access combination, every one matching the query by
	// both vector and keyword, so only the predicate decides membership.
	byDocument := make(map[core.ID]core.Access)
	serial := 0
	for _, vis := range visibilities {
		for _, approval := range approvals {
			for _, institution := range institutions {
				for _, uploader := range uploaders {
					serial++
					a := core.Access{
						Visibility:    vis,
						InstitutionId: institution,
						ApprovalState: approval,
						UploaderId:    uploader,
					}
					text := fmt.Sprintf("Subsidy terms for program number %d.", serial)
					doc := eng.seedEmbedded(t,
						&core.Document{Title: fmt.Sprintf("Program %d", serial), Access: a},
						text,
						embeddedChunk(0, text, []float32{1, 0, 0}),
					)
					byDocument[doc.Id] = a
				}
			}
		}
	}

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)

	roles := []core.Role{
		0, // unknown, must fall back to public access
		core.RoleSystemAdmin,
		core.RoleReviewer,
		core.RoleInstitutionAdmin,
		core.RoleInstitutionMember,
		core.RolePublic,
	}
	userIds := []core.ID{0, 5, 333, 901}
	userInstitutions := []core.ID{0, 7, 9, 12}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		user := core.UserContext{
			UserId:        userIds[rng.Intn(len(userIds))],
			InstitutionId: userInstitutions[rng.Intn(len(userInstitutions))],
			Role:          roles[rng.Intn(len(roles))],
		}
		predicate, _ := access.BuildPredicate(user)

		result, err := r.Retrieve(ctx, "subsidy terms", user, len(byDocument)+1)
		require.NoError(t, err)

		seen := make(map[core.ID]bool, len(result.Hits))
		for _, hit := range result.Hits {
			a, known := byDocument[hit.DocumentId]
			require.True(t, known, "hit references unknown document %d", hit.DocumentId)
			assert.True(t, predicate.Matches(a),
				"user %+v received document %d with access %+v", user, hit.DocumentId, a)
			seen[hit.DocumentId] = true
		}

		// The converse holds too: every document the predicate admits
		// matches the query, so it must be among the hits.
		for id, a := range byDocument {
			if predicate.Matches(a) {
				assert.True(t, seen[id], "user %+v missed accessible document %d", user, id)
			}
		}
	}
}

func TestRetrieve_RunsLazyEmbeddingPass(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	text := "Recycling targets for municipal waste increase annually."
	doc, err := eng.docs.PutDocument(ctx,
		&core.Document{Title: "Waste policy", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)}, text)
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		calls int
	)
	coordinator := coordinatorFunc(func(ctx context.Context, documentID core.ID) error {
		mu.Lock()
		calls++
		mu.Unlock()

		// Stand-in for the real ingestion pass
		chunk := embeddedChunk(0, text, []float32{1, 0, 0})
		chunk.DocumentId = documentID
		chunk.Access = doc.Access
		if err := eng.chunks.ReplaceDocumentChunks(ctx, documentID, chunk); err != nil {
			return err
		}
		if err := eng.docs.SetEmbedded(ctx, documentID, "embeddinggemma", doc.UpdatedAt); err != nil {
			return err
		}
		eng.keywords.IndexChunks(chunk)
		return nil
	})

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, coordinator)

	user := core.UserContext{UserId: 1, Role: core.RolePublic}
	result, err := r.Retrieve(ctx, "recycling targets", user, 5)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1, "chunks embedded during the query must be searchable in it")
	assert.Equal(t, doc.Id, result.Hits[0].DocumentId)
	assert.Empty(t, result.Incomplete)

	// The marker persisted, so the next query skips the pass
	_, err = r.Retrieve(ctx, "recycling targets", user, 5)
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestRetrieve_FailedPassYieldsPartialResults(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	good := eng.seedEmbedded(t,
		&core.Document{Title: "Healthy document", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Subsidy eligibility criteria for farmers.",
		embeddedChunk(0, "Subsidy eligibility criteria for farmers.", []float32{1, 0, 0}),
	)
	broken, err := eng.docs.PutDocument(ctx,
		&core.Document{Title: "Unembeddable document", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Subsidy rules that never get embedded.")
	require.NoError(t, err)

	coordinator := coordinatorFunc(func(ctx context.Context, documentID core.ID) error {
		return errors.New("embedding backend unavailable")
	})

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, coordinator)

	result, err := r.Retrieve(ctx, "subsidy eligibility", core.UserContext{Role: core.RolePublic}, 10)
	require.NoError(t, err, "a failed embedding pass must not fail the query")
	require.Len(t, result.Hits, 1)
	assert.Equal(t, good.Id, result.Hits[0].DocumentId)
	assert.Equal(t, []core.ID{broken.Id}, result.Incomplete)
}

func TestRetrieve_EmbedderFailureDegradesToKeyword(t *testing.T) {
	eng := newTestEngine(t)

	doc := eng.seedEmbedded(t,
		&core.Document{Title: "Subsidy guideline", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Farmers must meet the eligibility criteria for the subsidy program.",
		embeddedChunk(0, "Farmers must meet the eligibility criteria for the subsidy program.", []float32{1, 0, 0}),
	)

	eng.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model overloaded")
	}
	r := eng.newRetriever(t, noopCoordinator)

	result, err := r.Retrieve(context.Background(), "subsidy eligibility criteria", core.UserContext{Role: core.RolePublic}, 5)
	require.NoError(t, err, "query embedding failure must degrade, not fail")
	require.Len(t, result.Hits, 1)

	hit := result.Hits[0]
	assert.Equal(t, doc.Id, hit.DocumentId)
	assert.Zero(t, hit.VectorScore)
	assert.InDelta(t, 1.0, hit.KeywordScore, 1e-9)
	assert.InDelta(t, keywordWeight, hit.Score, 1e-9)
}

func TestRetrieve_QueryEmbeddingCache(t *testing.T) {
	t.Run("repeated query reuses the cached embedding", func(t *testing.T) {
		eng := newTestEngine(t)
		eng.seedEmbedded(t,
			&core.Document{Title: "Doc", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
			"Water quality regulations for rivers.",
			embeddedChunk(0, "Water quality regulations for rivers.", []float32{1, 0, 0}),
		)
		r := eng.newRetriever(t, noopCoordinator)
		ctx := context.Background()
		user := core.UserContext{Role: core.RolePublic}

		_, err := r.Retrieve(ctx, "water quality", user, 5)
		require.NoError(t, err)
		_, err = r.Retrieve(ctx, "water quality", user, 5)
		require.NoError(t, err)

		assert.Equal(t, 1, eng.embedder.CallCount())
	})

	t.Run("zero TTL disables the cache", func(t *testing.T) {
		eng := newTestEngine(t)
		eng.seedEmbedded(t,
			&core.Document{Title: "Doc", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
			"Water quality regulations for rivers.",
			embeddedChunk(0, "Water quality regulations for rivers.", []float32{1, 0, 0}),
		)
		r := eng.newRetriever(t, noopCoordinator, WithQueryCacheTTL(0))
		ctx := context.Background()
		user := core.UserContext{Role: core.RolePublic}

		_, err := r.Retrieve(ctx, "water quality", user, 5)
		require.NoError(t, err)
		_, err = r.Retrieve(ctx, "water quality", user, 5)
		require.NoError(t, err)

		assert.Equal(t, 2, eng.embedder.CallCount())
	})
}

func TestRetrieve_LimitTruncates(t *testing.T) {
	eng := newTestEngine(t)

	texts := []string{
		"Subsidy eligibility rules part one.",
		"Subsidy eligibility rules part two.",
		"Subsidy eligibility rules part three.",
		"Subsidy eligibility rules part four.",
	}
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = embeddedChunk(i, text, []float32{1, 0, 0})
	}
	eng.seedEmbedded(t,
		&core.Document{Title: "Subsidy handbook", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Subsidy handbook.", chunks...)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)

	result, err := r.Retrieve(context.Background(), "subsidy eligibility rules", core.UserContext{Role: core.RolePublic}, 2)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)

	// All fused scores tie, so chunks of the same document come back in
	// sequence order
	assert.Equal(t, 0, result.Hits[0].Seq)
	assert.Equal(t, 1, result.Hits[1].Seq)
}

func TestRetrieve_Deterministic(t *testing.T) {
	eng := newTestEngine(t)

	eng.seedEmbedded(t,
		&core.Document{Title: "First", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Grant conditions for cultural programs.",
		embeddedChunk(0, "Grant conditions for cultural programs.", []float32{1, 0, 0}),
		embeddedChunk(1, "Reporting duties for grant recipients.", []float32{0.6, 0.8, 0}),
	)
	eng.seedEmbedded(t,
		&core.Document{Title: "Second", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Grant conditions for sports programs.",
		embeddedChunk(0, "Grant conditions for sports programs.", []float32{0.8, 0.6, 0}),
	)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)
	ctx := context.Background()
	user := core.UserContext{Role: core.RolePublic}

	first, err := r.Retrieve(ctx, "grant conditions", user, 10)
	require.NoError(t, err)
	require.NotEmpty(t, first.Hits)

	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(ctx, "grant conditions", user, 10)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRetrieve_UnknownRoleFailsClosed(t *testing.T) {
	eng := newTestEngine(t)

	public := eng.seedEmbedded(t,
		&core.Document{Title: "Public doc", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Published subsidy criteria.",
		embeddedChunk(0, "Published subsidy criteria.", []float32{1, 0, 0}),
	)
	eng.seedEmbedded(t,
		&core.Document{Title: "Internal doc", Access: testAccess(core.VisibilityInstitution, core.ApprovalApproved, 7)},
		"Internal subsidy criteria.",
		embeddedChunk(0, "Internal subsidy criteria.", []float32{1, 0, 0}),
	)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator)

	// Role zero value is not a known role; the query still runs but only
	// against public approved content
	unknown := core.UserContext{UserId: 8, InstitutionId: 7}
	result, err := r.Retrieve(context.Background(), "subsidy criteria", unknown, 10)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, public.Id, result.Hits[0].DocumentId)
}

func TestRetrieveWithMonitor(t *testing.T) {
	eng := newTestEngine(t)

	eng.seedEmbedded(t,
		&core.Document{Title: "Doc", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Noise limits for urban construction sites.",
		embeddedChunk(0, "Noise limits for urban construction sites.", []float32{1, 0, 0}),
	)

	eng.fixedQueryVector([]float32{1, 0, 0})
	monitor := &testMonitor{}
	r := eng.newRetriever(t, noopCoordinator, WithMonitor(monitor))
	ctx := context.Background()
	user := core.UserContext{Role: core.RolePublic}

	_, err := r.Retrieve(ctx, "noise limits", user, 5)
	require.NoError(t, err)

	assert.True(t, monitor.startCalled)
	assert.NotEmpty(t, monitor.predicate)
	assert.Zero(t, monitor.embeddingEnsured, "everything was embedded up front")
	assert.True(t, monitor.queryVectorReady)
	assert.False(t, monitor.cached)
	assert.False(t, monitor.keywordOnly)
	assert.Equal(t, 1, monitor.vectorHits)
	assert.Equal(t, 1, monitor.keywordHits)
	assert.Equal(t, 1, monitor.fusedHits)
	assert.True(t, monitor.finishCalled)

	// The second identical query is served from the embedding cache
	_, err = r.Retrieve(ctx, "noise limits", user, 5)
	require.NoError(t, err)
	assert.True(t, monitor.cached)
}

// testMonitor is a simple test implementation of Monitor
type testMonitor struct {
	mu               sync.Mutex
	startCalled      bool
	predicate        string
	embeddingEnsured int
	queryVectorReady bool
	cached           bool
	keywordOnly      bool
	vectorHits       int
	keywordHits      int
	fusedHits        int
	finishCalled     bool
}

func (m *testMonitor) Start(query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalled = true
}

func (m *testMonitor) PredicateBuilt(predicate string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predicate = predicate
}

func (m *testMonitor) EmbeddingEnsured(documentID core.ID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddingEnsured++
}

func (m *testMonitor) QueryVectorReady(cached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryVectorReady = true
	m.cached = cached
}

func (m *testMonitor) KeywordOnly(reason error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordOnly = true
}

func (m *testMonitor) AfterVectorSearch(hits []core.ChunkHit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectorHits = len(hits)
}

func (m *testMonitor) AfterKeywordSearch(hits []core.ChunkHit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywordHits = len(hits)
}

func (m *testMonitor) AfterFusion(hits []FusedHit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fusedHits = len(hits)
}

func (m *testMonitor) Finish(result *Result, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishCalled = true
}

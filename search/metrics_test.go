package search

import (
	"context"
	"errors"
	"testing"

	"github.com/civicore/polidex/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMonitorCounters(t *testing.T) {
	eng := newTestEngine(t)

	eng.seedEmbedded(t,
		&core.Document{Title: "Doc", Access: testAccess(core.VisibilityPublic, core.ApprovalApproved, 0)},
		"Permit fees for street vendors.",
		embeddedChunk(0, "Permit fees for street vendors.", []float32{1, 0, 0}),
	)

	eng.fixedQueryVector([]float32{1, 0, 0})
	r := eng.newRetriever(t, noopCoordinator, WithMonitor(NewMetricsMonitor()))
	ctx := context.Background()
	user := core.UserContext{Role: core.RolePublic}

	// The collectors are shared process-wide, so assert on deltas
	retrievals := testutil.ToFloat64(retrievalsTotal)
	misses := testutil.ToFloat64(queryCacheMissesTotal)
	hits := testutil.ToFloat64(queryCacheHitsTotal)
	keywordOnly := testutil.ToFloat64(keywordOnlyTotal)

	_, err := r.Retrieve(ctx, "permit fees", user, 5)
	require.NoError(t, err)
	assert.Equal(t, retrievals+1, testutil.ToFloat64(retrievalsTotal))
	assert.Equal(t, misses+1, testutil.ToFloat64(queryCacheMissesTotal))
	assert.Equal(t, hits, testutil.ToFloat64(queryCacheHitsTotal))

	// The identical query is served from the embedding cache
	_, err = r.Retrieve(ctx, "permit fees", user, 5)
	require.NoError(t, err)
	assert.Equal(t, retrievals+2, testutil.ToFloat64(retrievalsTotal))
	assert.Equal(t, misses+1, testutil.ToFloat64(queryCacheMissesTotal))
	assert.Equal(t, hits+1, testutil.ToFloat64(queryCacheHitsTotal))

	// A failing query embedding degrades to keyword-only and counts as such
	eng.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedder offline")
	}
	result, err := r.Retrieve(ctx, "street vendors", user, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Hits)
	assert.Equal(t, keywordOnly+1, testutil.ToFloat64(keywordOnlyTotal))
	assert.Equal(t, misses+1, testutil.ToFloat64(queryCacheMissesTotal))
	assert.Equal(t, retrievals+3, testutil.ToFloat64(retrievalsTotal))
}

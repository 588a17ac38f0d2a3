package search

import (
	"time"

	"github.com/civicore/polidex/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Retrieval metrics, registered with the default Prometheus registry.
var (
	retrievalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polidex_retrievals_total",
		Help: "Total number of retrieval queries.",
	})
	retrievalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polidex_retrieval_duration_seconds",
		Help:    "Duration of retrieval queries.",
		Buckets: prometheus.DefBuckets,
	})
	keywordOnlyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polidex_keyword_only_retrievals_total",
		Help: "Retrievals that degraded to keyword-only ranking.",
	})
	queryCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polidex_query_embed_cache_hits_total",
		Help: "Query embeddings served from the TTL cache.",
	})
	queryCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polidex_query_embed_cache_misses_total",
		Help: "Query embeddings computed by the embedder.",
	})
	embedFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polidex_embedding_pass_failures_total",
		Help: "Documents whose lazy embedding pass failed during retrieval.",
	})
	vectorCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polidex_vector_candidates",
		Help:    "Candidates returned by the vector index per retrieval.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
	keywordCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polidex_keyword_candidates",
		Help:    "Candidates returned by the keyword index per retrieval.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
	retrievalHits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polidex_retrieval_hits",
		Help:    "Hits returned per retrieval.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})
)

// MetricsMonitor exports retrieval progress as Prometheus metrics. All
// instances share one collector set on the default registry, so it is safe
// to construct one per Retriever. The engine never serves HTTP itself;
// expose the metrics with promhttp in the embedding process.
type MetricsMonitor struct{}

var _ Monitor = (*MetricsMonitor)(nil)

// NewMetricsMonitor creates a monitor exporting Prometheus metrics.
func NewMetricsMonitor() *MetricsMonitor {
	return &MetricsMonitor{}
}

func (m *MetricsMonitor) Start(_ string) {
	retrievalsTotal.Inc()
}

func (m *MetricsMonitor) PredicateBuilt(_ string) {}

func (m *MetricsMonitor) EmbeddingEnsured(_ core.ID, err error) {
	if err != nil {
		embedFailuresTotal.Inc()
	}
}

func (m *MetricsMonitor) QueryVectorReady(cached bool) {
	if cached {
		queryCacheHitsTotal.Inc()
	} else {
		queryCacheMissesTotal.Inc()
	}
}

func (m *MetricsMonitor) KeywordOnly(_ error) {
	keywordOnlyTotal.Inc()
}

func (m *MetricsMonitor) AfterVectorSearch(hits []core.ChunkHit) {
	vectorCandidates.Observe(float64(len(hits)))
}

func (m *MetricsMonitor) AfterKeywordSearch(hits []core.ChunkHit) {
	keywordCandidates.Observe(float64(len(hits)))
}

func (m *MetricsMonitor) AfterFusion(_ []FusedHit) {}

func (m *MetricsMonitor) Finish(result *Result, elapsed time.Duration) {
	retrievalHits.Observe(float64(len(result.Hits)))
	retrievalDuration.Observe(elapsed.Seconds())
}

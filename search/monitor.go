package search

import (
	"time"

	"github.com/civicore/polidex/core"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during
// retrieval. EmbeddingEnsured may be called from concurrent goroutines and
// a Retriever may serve queries in parallel, so implementations must be
// safe for concurrent use.
type Monitor interface {
	Start(query string)
	PredicateBuilt(predicate string)
	EmbeddingEnsured(documentID core.ID, err error)
	QueryVectorReady(cached bool)
	KeywordOnly(reason error)
	AfterVectorSearch(hits []core.ChunkHit)
	AfterKeywordSearch(hits []core.ChunkHit)
	AfterFusion(hits []FusedHit)
	Finish(result *Result, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                       {}
func (n *noopMonitor) PredicateBuilt(_ string)              {}
func (n *noopMonitor) EmbeddingEnsured(_ core.ID, _ error)  {}
func (n *noopMonitor) QueryVectorReady(_ bool)              {}
func (n *noopMonitor) KeywordOnly(_ error)                  {}
func (n *noopMonitor) AfterVectorSearch(_ []core.ChunkHit)  {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ChunkHit) {}
func (n *noopMonitor) AfterFusion(_ []FusedHit)             {}
func (n *noopMonitor) Finish(_ *Result, _ time.Duration)    {}

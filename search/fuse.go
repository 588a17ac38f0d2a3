package search

import (
	"sort"
	"time"

	"github.com/civicore/polidex/core"
)

// Weights applied to the normalized component scores.
const (
	vectorWeight  = 0.7
	keywordWeight = 0.3
)

// FusedHit is a chunk reference carrying the combined score of both indexes.
type FusedHit struct {
	ChunkId      core.ID
	DocumentId   core.ID
	Seq          int
	Score        float64
	VectorScore  float64
	KeywordScore float64
}

// Fuse merges vector and keyword hits into a single ranking.
//
// Each hit set is min-max normalized independently so the two score scales
// become comparable; a set whose scores are all equal normalizes to a
// constant 1.0. A chunk found by only one index keeps 0 for the missing
// component. The fused score is 0.7*vector + 0.3*keyword.
//
// Ordering is deterministic: fused score descending, then document recency
// descending, then document ID, then sequence index. recency maps document
// IDs to their last update time; missing entries rank as the zero time.
func Fuse(vectorHits, keywordHits []core.ChunkHit, recency map[core.ID]time.Time) []FusedHit {
	vectorNorm := normalizeScores(vectorHits)
	keywordNorm := normalizeScores(keywordHits)

	type chunkKey struct {
		document core.ID
		seq      int
	}

	merged := make(map[chunkKey]*FusedHit, len(vectorHits)+len(keywordHits))
	for i, hit := range vectorHits {
		merged[chunkKey{hit.DocumentId, hit.Seq}] = &FusedHit{
			ChunkId:     hit.ChunkId,
			DocumentId:  hit.DocumentId,
			Seq:         hit.Seq,
			VectorScore: vectorNorm[i],
		}
	}
	for i, hit := range keywordHits {
		if fused, ok := merged[chunkKey{hit.DocumentId, hit.Seq}]; ok {
			fused.KeywordScore = keywordNorm[i]
			continue
		}
		merged[chunkKey{hit.DocumentId, hit.Seq}] = &FusedHit{
			ChunkId:      hit.ChunkId,
			DocumentId:   hit.DocumentId,
			Seq:          hit.Seq,
			KeywordScore: keywordNorm[i],
		}
	}

	fused := make([]FusedHit, 0, len(merged))
	for _, hit := range merged {
		hit.Score = vectorWeight*hit.VectorScore + keywordWeight*hit.KeywordScore
		fused = append(fused, *hit)
	}

	sort.Slice(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ra, rb := recency[a.DocumentId], recency[b.DocumentId]
		if !ra.Equal(rb) {
			return ra.After(rb)
		}
		if a.DocumentId != b.DocumentId {
			return a.DocumentId < b.DocumentId
		}
		return a.Seq < b.Seq
	})

	return fused
}

// normalizeScores rescales a hit set's scores to [0, 1] by min-max. When
// every score in the set is equal there is no range to spread over; the
// whole set maps to 1.0 so it still contributes to the fused ranking.
func normalizeScores(hits []core.ChunkHit) []float64 {
	if len(hits) == 0 {
		return nil
	}

	low, high := hits[0].Score, hits[0].Score
	for _, hit := range hits[1:] {
		if hit.Score < low {
			low = hit.Score
		}
		if hit.Score > high {
			high = hit.Score
		}
	}

	norm := make([]float64, len(hits))
	if high == low {
		for i := range norm {
			norm[i] = 1.0
		}
		return norm
	}
	for i, hit := range hits {
		norm[i] = (hit.Score - low) / (high - low)
	}
	return norm
}

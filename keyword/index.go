// Package keyword provides in-memory BM25 keyword search over chunks.
package keyword

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/civicore/polidex/core"
)

// BM25 parameters (standard values)
const (
	bm25K1 = 1.2  // Term frequency saturation
	bm25B  = 0.75 // Length normalization
)

// prefixIDFFactor discounts prefix matches relative to exact term matches.
const prefixIDFFactor = 0.8

// AccessFilter reports whether entries carrying the given access metadata are
// visible to a caller. access.Predicate implements this interface.
type AccessFilter interface {
	Matches(a core.Access) bool
}

// chunkKey identifies an indexed chunk by its document and sequence index.
type chunkKey struct {
	doc core.ID
	seq int
}

// entry holds per-chunk state used for scoring, filtering, and removal.
type entry struct {
	chunkID core.ID
	access  core.Access
	length  int
	text    string
}

// Index provides BM25-based keyword search over chunk text.
// The index is held in memory and rebuilt from the chunk store on open, so
// the denormalized access metadata it carries can never outlive a change
// written to the store.
type Index struct {
	mu sync.RWMutex

	// Chunk metadata: key -> entry
	entries map[chunkKey]entry

	// Inverted index: term -> key -> term frequency
	invertedIndex map[string]map[chunkKey]int

	// Average chunk length in tokens (for BM25)
	avgLength float64

	// Running sum of chunk lengths; avgLength = totalLength/len(entries)
	totalLength int64
}

// NewIndex creates an empty keyword index.
func NewIndex() *Index {
	return &Index{
		entries:       make(map[chunkKey]entry),
		invertedIndex: make(map[string]map[chunkKey]int),
	}
}

// IndexChunks adds or updates chunks under one lock and refreshes the
// average length once at the end. Chunks that tokenize to nothing are left
// out of the index.
func (x *Index) IndexChunks(chunks ...*core.Chunk) {
	if len(chunks) == 0 {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, chunk := range chunks {
		key := chunkKey{doc: chunk.DocumentId, seq: chunk.Seq}
		x.removeInternal(key)

		tokens := tokenize(chunk.Text)
		if len(tokens) == 0 {
			continue
		}

		x.entries[key] = entry{
			chunkID: chunk.Id,
			access:  chunk.Access,
			length:  len(tokens),
			text:    chunk.Text,
		}
		x.totalLength += int64(len(tokens))

		termFreq := make(map[string]int)
		for _, token := range tokens {
			termFreq[token]++
		}
		for term, freq := range termFreq {
			if x.invertedIndex[term] == nil {
				x.invertedIndex[term] = make(map[chunkKey]int)
			}
			x.invertedIndex[term][key] = freq
		}
	}

	x.updateAvgLength()
}

// RemoveDocument removes every chunk of a document from the index.
func (x *Index) RemoveDocument(documentID core.ID) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var keys []chunkKey
	for key := range x.entries {
		if key.doc == documentID {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		x.removeInternal(key)
	}
}

// SetDocumentAccess rewrites the access metadata carried by every indexed
// chunk of a document. Call it whenever the store-side access changes so the
// index filters against current metadata.
func (x *Index) SetDocumentAccess(documentID core.ID, a core.Access) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for key, e := range x.entries {
		if key.doc == documentID {
			e.access = a
			x.entries[key] = e
		}
	}
}

// Search performs BM25 keyword search.
// The filter is applied while scores accumulate, before any truncation, so
// chunks invisible to the caller never compete for result slots. A nil
// filter matches nothing. Results are sorted by score descending; ties go to
// the lower sequence index, then the lower chunk ID.
func (x *Index) Search(query string, filter AccessFilter, limit int) []core.ChunkHit {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.entries) == 0 || limit <= 0 || filter == nil {
		return nil
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	scores := make(map[chunkKey]float64)

	for _, term := range queryTerms {
		if postings, exists := x.invertedIndex[term]; exists {
			x.accumulate(scores, postings, x.calculateIDF(term), filter)
		}

		// Prefix matching widens recall for inflected forms
		// ("regulat" matches "regulation" and "regulations")
		for indexedTerm, postings := range x.invertedIndex {
			if indexedTerm != term && strings.HasPrefix(indexedTerm, term) {
				x.accumulate(scores, postings, x.calculateIDF(indexedTerm)*prefixIDFFactor, filter)
			}
		}
	}

	results := make([]core.ChunkHit, 0, len(scores))
	for key, score := range scores {
		e := x.entries[key]
		results = append(results, core.ChunkHit{
			ChunkId:    e.chunkID,
			DocumentId: key.doc,
			Seq:        key.seq,
			Score:      score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Seq != results[j].Seq {
			return results[i].Seq < results[j].Seq
		}
		return results[i].ChunkId < results[j].ChunkId
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results
}

// Count returns the number of indexed chunks.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// accumulate adds the BM25 contribution of one term's postings to the
// running scores. Caller must hold x.mu.
func (x *Index) accumulate(scores map[chunkKey]float64, postings map[chunkKey]int, idf float64, filter AccessFilter) {
	for key, termFreq := range postings {
		e := x.entries[key]
		if !filter.Matches(e.access) {
			continue
		}

		length := float64(e.length)
		tf := float64(termFreq)
		numerator := tf * (bm25K1 + 1)
		denominator := tf + bm25K1*(1-bm25B+bm25B*(length/x.avgLength))
		scores[key] += idf * (numerator / denominator)
	}
}

// removeInternal removes a chunk without locking.
// Returns true if an entry was removed.
func (x *Index) removeInternal(key chunkKey) bool {
	e, exists := x.entries[key]
	if !exists {
		return false
	}

	tokens := tokenize(e.text)
	termFreq := make(map[string]int)
	for _, token := range tokens {
		termFreq[token]++
	}
	for term := range termFreq {
		if postings, ok := x.invertedIndex[term]; ok {
			delete(postings, key)
			if len(postings) == 0 {
				delete(x.invertedIndex, term)
			}
		}
	}

	delete(x.entries, key)
	x.totalLength -= int64(e.length)
	x.updateAvgLength()
	return true
}

// calculateIDF calculates the Inverse Document Frequency for a term.
// Uses the BM25 IDF formula: log((N - df + 0.5) / (df + 0.5) + 1)
// where N = indexed chunks, df = chunks containing the term.
// The +1 inside the log keeps IDF non-negative for common terms.
func (x *Index) calculateIDF(term string) float64 {
	df := float64(len(x.invertedIndex[term]))
	n := float64(len(x.entries))

	idf := math.Log(1 + (n-df+0.5)/(df+0.5))
	if idf < 0 {
		idf = 0 // Safety floor
	}
	return idf
}

// updateAvgLength sets avgLength from totalLength and the entry count.
// Caller must hold x.mu and ensure totalLength is correct.
func (x *Index) updateAvgLength() {
	if len(x.entries) == 0 {
		x.avgLength = 0
		x.totalLength = 0
		return
	}
	x.avgLength = float64(x.totalLength) / float64(len(x.entries))
}

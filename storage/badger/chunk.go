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


package badger

import (
	"context"
	"slices"

	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/storage"
	"github.com/dgraph-io/badger/v4"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceDocumentChunks replaces the full chunk set of a document.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, documentID core.ID, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteDocumentChunks(tx, documentID); err != nil {
			return err
		}
		for _, chunk := range chunks {
			chunk.DocumentId = documentID
			if err := tx.Set(makeChunkKey(documentID, chunk.Seq), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// UpsertEmbeddings grafts computed vectors onto the stored chunk records of
// a document. Only Vector and EmbedModel are taken from the given chunks;
// every other stored field is kept as is, so an access change committed
// while the vectors were being computed survives the write. A chunk whose
// stored record is gone or no longer carries the same content ID is
// skipped: its vector describes text that is no longer current.
func (r *ChunkRepository) UpsertEmbeddings(ctx context.Context, documentID core.ID, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(documentID, chunk.Seq)
			stored, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if stored == nil || stored.Id != chunk.Id {
				continue
			}
			stored.Vector = chunk.Vector
			stored.EmbedModel = chunk.EmbedModel
			if err := tx.Set(key, storage.MarshalChunk(stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by document ID and sequence index.
func (r *ChunkRepository) GetChunk(ctx context.Context, documentID core.ID, seq int) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(documentID, seq))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentChunks retrieves all chunks of a document, ordered by sequence
// index ascending.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		chunks, err = readDocumentChunks(tx, documentID)
		return err
	}, false)
	return chunks, err
}

// SearchSimilar finds chunks similar to the given vector.
// The filter gates scoring, so chunks invisible to the caller never compete
// for result slots.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, vector []float32, filter storage.AccessFilter, limit int) ([]core.ChunkHit, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	// A missing filter fails closed rather than exposing everything
	if filter == nil {
		return nil, storage.ErrInvalidQuery
	}

	var hits []core.ChunkHit
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			if !filter.Matches(chunk.Access) {
				continue
			}

			// Skip chunks whose vectors are not computed yet
			if len(chunk.Vector) == 0 {
				continue
			}

			hits = append(hits, core.ChunkHit{
				ChunkId:    chunk.Id,
				DocumentId: chunk.DocumentId,
				Seq:        chunk.Seq,
				Score:      cosineScore(vector, chunk.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by score descending; ties go to the lower sequence index, then
	// the lower chunk ID
	slices.SortFunc(hits, func(a, b core.ChunkHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Seq != b.Seq {
			return a.Seq - b.Seq
		}
		if a.ChunkId < b.ChunkId {
			return -1
		}
		if a.ChunkId > b.ChunkId {
			return 1
		}
		return 0
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	return hits, nil
}

// ForEachChunk visits every stored chunk, ordered by document ID and
// sequence index ascending.
func (r *ChunkRepository) ForEachChunk(ctx context.Context, fn func(chunk *core.Chunk) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Helper functions shared with DocumentRepository for cross-entity
// maintenance inside a single transaction.

// readChunk reads a chunk record from the transaction.
// Returns nil without error if the key does not exist.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// readDocumentChunks reads all chunks of a document within the transaction.
// Composite keys are BigEndian, so iteration order is sequence order.
func readDocumentChunks(tx *badger.Txn, documentID core.ID) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkKey(documentID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var chunk *core.Chunk
		err := iter.Item().Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// deleteDocumentChunks removes all chunks of a document within the
// transaction. Keys are collected before deleting so the iterator never
// observes its own writes.
func deleteDocumentChunks(tx *badger.Txn, documentID core.ID) error {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkKey(documentID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// updateChunkAccess rewrites the denormalized access metadata on every
// chunk of a document within the transaction.
func updateChunkAccess(tx *badger.Txn, documentID core.ID, a core.Access) error {
	chunks, err := readDocumentChunks(tx, documentID)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		chunk.Access = a
		if err := tx.Set(makeChunkKey(documentID, chunk.Seq), storage.MarshalChunk(chunk)); err != nil {
			return err
		}
	}
	return nil
}

// cosineScore maps the cosine similarity of two unit vectors onto [0, 1].
func cosineScore(a, b []float32) float64 {
	return (float64(dotProduct(a, b)) + 1) / 2
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

package badger

import (
	"context"
	"slices"
	"time"

	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/storage"
	"github.com/dgraph-io/badger/v4"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutDocument stores a document and its raw text.
func (r *DocumentRepository) PutDocument(ctx context.Context, doc *core.Document, text string) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if doc.Id == 0 {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			doc.Id = core.ID(nextID)
		} else {
			// Replacing an existing document invalidates its chunks
			old, err := readDocument(tx, makeDocumentKey(doc.Id))
			if err != nil {
				return err
			}
			if old != nil {
				if err := deleteDocumentChunks(tx, doc.Id); err != nil {
					return err
				}
				if doc.CreatedAt.IsZero() {
					doc.CreatedAt = old.CreatedAt
				}
			}
		}

		now := utcNow()
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		doc.UpdatedAt = now

		// A freshly stored text has no embeddings yet
		doc.EmbedModel = ""
		doc.EmbeddedAt = time.Time{}

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentTextKey(doc.Id), []byte(text)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return doc, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
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

// GetDocumentText retrieves the raw text of a document.
func (r *DocumentRepository) GetDocumentText(ctx context.Context, id core.ID) (string, error) {
	var text string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentTextKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			text = string(val)
			return nil
		})
	}, false)
	return text, err
}

// ListDocuments retrieves all documents, ordered by ID ascending.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Keys hold decimal IDs, so lexicographic iteration order is not
	// numeric order
	slices.SortFunc(results, func(a, b *core.Document) int {
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	return results, nil
}

// SetAccess replaces the access metadata of a document and rewrites the
// denormalized copy carried by its chunks in the same transaction.
func (r *DocumentRepository) SetAccess(ctx context.Context, id core.ID, a core.Access) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		doc.Access = a
		doc.UpdatedAt = utcNow()
		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		if err := updateChunkAccess(tx, id, a); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SetEmbedded marks a document as embedded with the given model. The marker
// asserts that the stored chunks describe the current text, so it is written
// only if UpdatedAt still equals expect; a text or access change committed
// since the caller read the document leaves the marker untouched and
// returns storage.ErrModified.
func (r *DocumentRepository) SetEmbedded(ctx context.Context, id core.ID, model string, expect time.Time) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if !doc.UpdatedAt.Equal(expect) {
			return storage.ErrModified
		}

		doc.EmbedModel = model
		doc.EmbeddedAt = utcNow()
		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ClearEmbedded clears the embedded marker of a document.
func (r *DocumentRepository) ClearEmbedded(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		doc.EmbedModel = ""
		doc.EmbeddedAt = time.Time{}
		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpdateText replaces the raw text of a document, drops its chunks, and
// clears its embedded marker in one transaction.
func (r *DocumentRepository) UpdateText(ctx context.Context, id core.ID, text string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		doc.EmbedModel = ""
		doc.EmbeddedAt = time.Time{}
		doc.UpdatedAt = utcNow()
		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentTextKey(id), []byte(text)); err != nil {
			return err
		}

		// Old chunks describe text that no longer exists
		if err := deleteDocumentChunks(tx, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteDocument removes a document, its raw text, and all of its chunks.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if err := deleteDocumentChunks(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentTextKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// utcNow returns the current UTC time truncated to the microsecond
// resolution the record encoding preserves, so a stamp compares equal to
// its stored round trip.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// readDocument reads a document record from the transaction.
// Returns nil without error if the key does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/civicore/polidex/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentTextPrefix   = "doctxt"
	chunkRecordPrefix    = "chkrec"
	documentIDSeq        = "docrecseq"
)

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeDocumentTextKey generates a key for the raw text of a document.
func makeDocumentTextKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentTextPrefix, id))
}

// makeChunkKey generates a composite key for a chunk record.
// Format: prefix:documentID:seq
func makeChunkKey(documentID core.ID, seq int) []byte {
	prefix := chunkRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for seq
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	return buf
}

// makePartialChunkKey generates a partial key for per-document chunk scans.
// Format: prefix:documentID
func makePartialChunkKey(documentID core.ID) []byte {
	prefix := chunkRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for documentID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

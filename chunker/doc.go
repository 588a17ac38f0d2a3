// Package chunker splits raw document text into overlapping, section-aware
// chunks sized by document length.
//
// Chunk sizes adapt to the total text length through a small tier table, so
// short circulars produce fine-grained chunks while long statutes produce
// coarser ones. Before splitting, section headings are detected so cuts can
// land on section boundaries and chunks can carry their enclosing heading
// for display and result grouping.
//
// Splitting is deterministic: the same input always yields the same chunks,
// which makes embedding passes restartable.
package chunker

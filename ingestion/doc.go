// Package ingestion turns registered documents into searchable chunks and
// vectors on demand.
//
// The Coordinator runs at most one embedding pass per document at a time:
// the first caller chunks the text, stores and keyword-indexes the chunks,
// embeds them in batches and marks the document embedded. Concurrent
// callers for the same document wait on that pass and receive its result;
// passes for different documents run in parallel.
//
// A failed pass is remembered for a cooldown period before a new attempt
// may run, so a broken embedding service is not hammered by every query.
// Chunks are stored and keyword-indexed before any vector exists, which
// keeps a document searchable by keyword even when embedding fails.
package ingestion

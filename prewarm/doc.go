// Package prewarm embeds pending documents ahead of query time.
//
// A Prewarmer lists the corpus, skips documents whose current text is
// already embedded and drives the remainder through the embedding
// coordinator on a worker pool, reporting progress as it goes. Queries
// trigger the same passes lazily; prewarming just moves the cost to a
// scheduled job.
package prewarm

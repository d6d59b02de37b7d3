package vectordb

import "context"

// Store is the persistent vector collection used by the indexer and the
// retriever.
type Store interface {
	// Upsert embeds and writes items. Items whose embedding fails are reported
	// and never stored.
	Upsert(ctx context.Context, items []Item) (UpsertReport, error)

	// Query returns up to k items ranked by ascending distance to text.
	Query(ctx context.Context, text string, k int) (QueryResult, error)

	// Count returns the number of stored items of every type.
	Count() int

	// Delete removes items by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Reset drops every item and recreates the collection empty.
	Reset(ctx context.Context) error

	// Metric returns the collection's distance metric.
	Metric() Metric
}

package vectordb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/phuslu/log"
	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/docrag/internal/embeddings"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "rag_documents"

// collectionMetadata fixes the metric when the collection is first created.
var collectionMetadata = map[string]string{"hnsw:space": "cosine"}

// Options configures Open.
type Options struct {
	Path       string // directory of the persistent database
	Collection string
	Compress   bool
}

// Index is a persistent chromem-go collection. It implements Store.
type Index struct {
	db      *chromem.DB
	name    string
	batcher *embeddings.Batcher
	embedFn chromem.EmbeddingFunc
	metric  Metric

	mu         sync.RWMutex
	collection *chromem.Collection
}

var _ Store = (*Index)(nil)

// Open loads the database at opts.Path, creating it if needed, and reuses
// or creates the named collection. Opening twice is harmless.
func Open(opts Options, batcher *embeddings.Batcher) (*Index, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("vectordb: path is required")
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	db, err := chromem.NewPersistentDB(opts.Path, opts.Compress)
	if err != nil {
		return nil, fmt.Errorf("open vector db %s: %w", opts.Path, err)
	}

	idx := &Index{
		db:      db,
		name:    opts.Collection,
		batcher: batcher,
		embedFn: embeddings.ToChromemFunc(batcher.Embedder()),
		metric:  Cosine{},
	}

	col, err := db.GetOrCreateCollection(idx.name, collectionMetadata, idx.embedFn)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", idx.name, err)
	}
	idx.collection = col

	log.Debug().Str("path", opts.Path).Str("collection", idx.name).Int("count", col.Count()).Msg("vector index opened")
	return idx, nil
}

func (x *Index) Metric() Metric { return x.metric }

func (x *Index) col() *chromem.Collection {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.collection
}

func (x *Index) Upsert(ctx context.Context, items []Item) (UpsertReport, error) {
	var report UpsertReport
	items = lastByID(items)
	if len(items) == 0 {
		return report, nil
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	vectors := x.batcher.EmbedBatch(ctx, texts)

	docs := make([]chromem.Document, 0, len(items))
	for i, it := range items {
		if !vectors[i].OK() {
			report.Skipped++
			report.Failures = append(report.Failures, ItemFailure{ID: it.ID, Err: vectors[i].Err})
			log.Warn().Str("id", it.ID).Err(vectors[i].Err).Msg("skipping item without embedding")
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        it.ID,
			Content:   it.Text,
			Metadata:  metadataToMap(it.Metadata),
			Embedding: vectors[i].Vector,
		})
	}

	if len(docs) == 0 {
		return report, nil
	}
	if err := x.col().AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return report, fmt.Errorf("write %d items: %w", len(docs), err)
	}
	report.Written = len(docs)
	return report, nil
}

func (x *Index) Query(ctx context.Context, text string, k int) (QueryResult, error) {
	if k <= 0 {
		return QueryResult{}, fmt.Errorf("query: k must be positive, got %d", k)
	}

	col := x.col()
	count := col.Count()
	if count == 0 {
		return QueryResult{Outcome: OutcomeEmptyCollection}, nil
	}
	if k > count {
		k = count
	}

	embedded := x.batcher.EmbedBatch(ctx, []string{text})
	if len(embedded) != 1 || !embedded[0].OK() {
		var cause error
		if len(embedded) == 1 {
			cause = embedded[0].Err
		}
		return QueryResult{Outcome: OutcomeQueryNotEmbedded, Cause: cause}, nil
	}

	results, err := col.QueryEmbedding(ctx, embedded[0].Vector, k, nil, nil)
	if err != nil {
		return QueryResult{}, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: mapToMetadata(r.Metadata),
			Distance: 1 - r.Similarity,
		}
	}
	return QueryResult{Results: out, Outcome: OutcomeOK}, nil
}

func (x *Index) Count() int {
	return x.col().Count()
}

func (x *Index) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := x.col().Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("delete %d items: %w", len(ids), err)
	}
	return nil
}

func (x *Index) Reset(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.db.DeleteCollection(x.name); err != nil {
		return fmt.Errorf("delete collection %q: %w", x.name, err)
	}
	col, err := x.db.GetOrCreateCollection(x.name, collectionMetadata, x.embedFn)
	if err != nil {
		return fmt.Errorf("recreate collection %q: %w", x.name, err)
	}
	x.collection = col

	log.Info().Str("collection", x.name).Msg("vector index reset")
	return nil
}

// lastByID drops all but the last item for each id, keeping input order.
// chromem writes documents concurrently and one file per id.
func lastByID(items []Item) []Item {
	last := make(map[string]int, len(items))
	for i, it := range items {
		last[it.ID] = i
	}
	if len(last) == len(items) {
		return items
	}
	out := make([]Item, 0, len(last))
	for i, it := range items {
		if last[it.ID] == i {
			out = append(out, it)
		}
	}
	return out
}

// metadataToMap flattens ItemMetadata for chromem, which only stores strings.
func metadataToMap(m ItemMetadata) map[string]string {
	md := map[string]string{
		"file_name":    m.FileName,
		"file_path":    m.FilePath,
		"type":         string(m.Type),
		"content_hash": m.ContentHash,
		"indexed_at":   m.IndexedAt.Format(time.RFC3339),
	}
	switch m.Type {
	case TypeOCR:
		md["image_path"] = m.ImagePath
	default:
		md["chunk_index"] = strconv.Itoa(m.ChunkIndex)
	}
	return md
}

// mapToMetadata converts a flat chromem map back to ItemMetadata.
func mapToMetadata(m map[string]string) ItemMetadata {
	chunkIndex, _ := strconv.Atoi(m["chunk_index"])
	indexedAt, _ := time.Parse(time.RFC3339, m["indexed_at"])

	return ItemMetadata{
		FileName:    m["file_name"],
		FilePath:    m["file_path"],
		Type:        ItemType(m["type"]),
		ChunkIndex:  chunkIndex,
		ImagePath:   m["image_path"],
		ContentHash: m["content_hash"],
		IndexedAt:   indexedAt,
	}
}

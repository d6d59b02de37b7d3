// Package rag implements the read path: similarity retrieval, prompt
// context assembly and answer generation.
package rag

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/docrag/internal/vectordb"
)

// Hit is a retrieved item with its similarity score.
type Hit struct {
	ID       string
	Text     string
	Metadata vectordb.ItemMetadata
	Distance float32
	Score    float32
}

// Retrieval is the result of a Retrieve call. Outcome tells an empty index
// or an unembeddable query apart from a query that simply matched nothing.
type Retrieval struct {
	Hits    []Hit
	Outcome vectordb.Outcome
	Cause   error
}

// Retriever runs similarity queries against a Store.
type Retriever struct {
	store vectordb.Store
}

// NewRetriever creates a Retriever over store.
func NewRetriever(store vectordb.Store) *Retriever {
	return &Retriever{store: store}
}

// Store returns the underlying store.
func (r *Retriever) Store() vectordb.Store { return r.store }

// Retrieve returns up to topK hits for query, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (Retrieval, error) {
	res, err := r.store.Query(ctx, query, topK)
	if err != nil {
		return Retrieval{}, fmt.Errorf("retrieve: %w", err)
	}

	metric := r.store.Metric()
	hits := make([]Hit, len(res.Results))
	for i, sr := range res.Results {
		hits[i] = Hit{
			ID:       sr.ID,
			Text:     sr.Text,
			Metadata: sr.Metadata,
			Distance: sr.Distance,
			Score:    metric.Score(sr.Distance),
		}
	}
	return Retrieval{Hits: hits, Outcome: res.Outcome, Cause: res.Cause}, nil
}

package embeddings

import (
	"context"
	"fmt"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"
)

// DefaultBatchSize bounds how many texts go into one provider call.
const DefaultBatchSize = 100

// BatchError reports a failed provider call covering texts[Start:End].
type BatchError struct {
	Start int
	End   int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("embedding batch [%d:%d] failed: %v", e.Start, e.End, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Result is the embedding outcome for a single input text. A failed result
// has an empty Vector and a non-nil Err.
type Result struct {
	Vector []float32
	Err    error
}

// OK reports whether the text was embedded.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Vector) > 0
}

// ProgressFunc is called after every batch with the number of texts
// processed so far and the total.
type ProgressFunc func(done, total int)

// Batcher splits texts into bounded groups and embeds each group with one
// provider call. A failing group only fails its own slots.
type Batcher struct {
	embedder  Embedder
	batchSize int
	limiter   *rate.Limiter
	progress  ProgressFunc
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithRequestsPerMinute paces provider calls with a token bucket.
// Zero disables pacing.
func WithRequestsPerMinute(rpm int) BatcherOption {
	return func(b *Batcher) {
		if rpm > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
		}
	}
}

// WithProgress registers a per-batch progress callback.
func WithProgress(fn ProgressFunc) BatcherOption {
	return func(b *Batcher) {
		b.progress = fn
	}
}

// NewBatcher creates a Batcher. A non-positive batchSize falls back to
// DefaultBatchSize.
func NewBatcher(e Embedder, batchSize int, opts ...BatcherOption) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	b := &Batcher{embedder: e, batchSize: batchSize}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Embedder returns the underlying provider.
func (b *Batcher) Embedder() Embedder { return b.embedder }

// EmbedBatch embeds texts in order. The returned slice always has
// len(texts) entries.
func (b *Batcher) EmbedBatch(ctx context.Context, texts []string) []Result {
	results := make([]Result, 0, len(texts))

	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		results = append(results, b.embedGroup(ctx, texts, start, end)...)

		if b.progress != nil {
			b.progress(end, len(texts))
		}
	}

	return results
}

func (b *Batcher) embedGroup(ctx context.Context, texts []string, start, end int) []Result {
	fail := func(err error) []Result {
		batchErr := &BatchError{Start: start, End: end, Err: err}
		log.Warn().Err(err).Int("start", start).Int("end", end).Msg("embedding batch failed")
		out := make([]Result, end-start)
		for i := range out {
			out[i] = Result{Err: batchErr}
		}
		return out
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return fail(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	vectors, err := b.embedder.Embed(ctx, texts[start:end])
	if err != nil {
		return fail(err)
	}
	if len(vectors) != end-start {
		return fail(fmt.Errorf("provider returned %d embeddings for %d texts", len(vectors), end-start))
	}

	out := make([]Result, end-start)
	for i, v := range vectors {
		if len(v) == 0 {
			out[i] = Result{Err: &BatchError{Start: start + i, End: start + i + 1, Err: fmt.Errorf("empty embedding")}}
			continue
		}
		out[i] = Result{Vector: v}
	}
	return out
}

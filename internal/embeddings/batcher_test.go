package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// scriptedEmbedder returns a fixed vector per text and fails calls whose
// first text contains failOn.
type scriptedEmbedder struct {
	failOn   string
	short    bool // return one fewer vector than requested
	blankFor string
	calls    [][]string
}

func (s *scriptedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls = append(s.calls, append([]string(nil), texts...))
	if s.failOn != "" && strings.Contains(texts[0], s.failOn) {
		return nil, fmt.Errorf("provider unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if s.blankFor != "" && t == s.blankFor {
			continue
		}
		out[i] = []float32{float32(len(t)), 1}
	}
	if s.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (s *scriptedEmbedder) Dimensions() int { return 2 }
func (s *scriptedEmbedder) Name() string    { return "scripted" }

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("text-%03d", i)
	}
	return out
}

func TestEmbedBatchGroupsInOrder(t *testing.T) {
	emb := &scriptedEmbedder{}
	b := NewBatcher(emb, 4)

	in := texts(10)
	results := b.EmbedBatch(context.Background(), in)

	if len(results) != len(in) {
		t.Fatalf("expected %d results, got %d", len(in), len(results))
	}
	if len(emb.calls) != 3 {
		t.Fatalf("expected 3 provider calls, got %d", len(emb.calls))
	}
	wantSizes := []int{4, 4, 2}
	for i, call := range emb.calls {
		if len(call) != wantSizes[i] {
			t.Errorf("call %d: got %d texts, want %d", i, len(call), wantSizes[i])
		}
	}
	if emb.calls[1][0] != "text-004" {
		t.Errorf("second call should start at text-004, got %q", emb.calls[1][0])
	}
	for i, r := range results {
		if !r.OK() {
			t.Errorf("result %d failed: %v", i, r.Err)
		}
	}
}

func TestEmbedBatchIsolatesFailedGroup(t *testing.T) {
	emb := &scriptedEmbedder{failOn: "text-004"}
	b := NewBatcher(emb, 4)

	results := b.EmbedBatch(context.Background(), texts(10))
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}

	for i, r := range results {
		inFailedGroup := i >= 4 && i < 8
		if inFailedGroup {
			if r.OK() || len(r.Vector) != 0 {
				t.Errorf("result %d should have failed", i)
			}
			var batchErr *BatchError
			if !errors.As(r.Err, &batchErr) {
				t.Fatalf("result %d: expected *BatchError, got %T", i, r.Err)
			}
			if batchErr.Start != 4 || batchErr.End != 8 {
				t.Errorf("result %d: got span [%d:%d], want [4:8]", i, batchErr.Start, batchErr.End)
			}
			continue
		}
		if !r.OK() {
			t.Errorf("result %d should have succeeded: %v", i, r.Err)
		}
	}
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	emb := &scriptedEmbedder{short: true}
	b := NewBatcher(emb, 5)

	results := b.EmbedBatch(context.Background(), texts(5))
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.OK() {
			t.Errorf("result %d should fail on a short reply", i)
		}
	}
}

func TestEmbedBatchBlankSlot(t *testing.T) {
	in := texts(3)
	emb := &scriptedEmbedder{blankFor: in[1]}
	b := NewBatcher(emb, 10)

	results := b.EmbedBatch(context.Background(), in)
	if !results[0].OK() || !results[2].OK() {
		t.Error("neighbours of a blank slot should succeed")
	}
	if results[1].OK() {
		t.Error("blank slot should fail")
	}
}

func TestEmbedBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emb := &scriptedEmbedder{}
	results := NewBatcher(emb, 2).EmbedBatch(ctx, texts(5))

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result %d: expected context.Canceled, got %v", i, r.Err)
		}
	}
	if len(emb.calls) != 0 {
		t.Errorf("expected no provider calls after cancellation, got %d", len(emb.calls))
	}
}

func TestEmbedBatchEmptyAndProgress(t *testing.T) {
	var updates [][2]int
	b := NewBatcher(&scriptedEmbedder{}, 3, WithProgress(func(done, total int) {
		updates = append(updates, [2]int{done, total})
	}), WithRequestsPerMinute(0))

	if got := b.EmbedBatch(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected no results for empty input, got %d", len(got))
	}

	b.EmbedBatch(context.Background(), texts(7))
	want := [][2]int{{3, 7}, {6, 7}, {7, 7}}
	if len(updates) != len(want) {
		t.Fatalf("expected %d progress updates, got %v", len(want), updates)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("update %d: got %v, want %v", i, updates[i], want[i])
		}
	}
}

func TestNewBatcherDefaultSize(t *testing.T) {
	b := NewBatcher(&scriptedEmbedder{}, 0)
	if b.batchSize != DefaultBatchSize {
		t.Errorf("expected default batch size %d, got %d", DefaultBatchSize, b.batchSize)
	}
}

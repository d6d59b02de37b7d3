package rag

import (
	"errors"
	"testing"
	"time"

	"github.com/ziadkadry99/docrag/internal/vectordb"
)

func TestNewHitViewsChunkIndex(t *testing.T) {
	views := NewHitViews([]Hit{
		{ID: "a_chunk_0", Text: "alpha", Score: 0.91234, Distance: 0.08766,
			Metadata: vectordb.ItemMetadata{FileName: "a.docx", Type: vectordb.TypeText, ChunkIndex: 0}},
		{ID: "ocr_img_1", Text: "beta", Score: 0.5,
			Metadata: vectordb.ItemMetadata{FileName: "a.docx", Type: vectordb.TypeOCR, ImagePath: "images/a/a_1.png"}},
	})

	if views[0].ChunkIndex == nil || *views[0].ChunkIndex != 0 {
		t.Errorf("text hit should carry chunk index 0, got %v", views[0].ChunkIndex)
	}
	if views[0].Score != 0.912 {
		t.Errorf("expected score rounded to 0.912, got %v", views[0].Score)
	}
	if views[1].ChunkIndex != nil {
		t.Error("ocr hit must not carry a chunk index")
	}
	if views[1].ImagePath != "images/a/a_1.png" {
		t.Errorf("unexpected image path %q", views[1].ImagePath)
	}
}

func TestNewAnswerView(t *testing.T) {
	v := NewAnswerView(&Answer{
		Question: "q",
		Text:     "failed",
		Status:   StatusGenerationFailed,
		Duration: 1500 * time.Millisecond,
		Err:      errors.New("boom"),
	})
	if v.Citations == nil {
		t.Error("citations should encode as an empty list")
	}
	if v.DurationMS != 1500 {
		t.Errorf("expected 1500ms, got %d", v.DurationMS)
	}
	if v.Error != "boom" || v.Status != StatusGenerationFailed {
		t.Errorf("unexpected view %+v", v)
	}
}

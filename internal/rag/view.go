package rag

import (
	"math"

	"github.com/ziadkadry99/docrag/internal/vectordb"
)

// HitView is the JSON form of a Hit.
type HitView struct {
	ID         string            `json:"id"`
	FileName   string            `json:"file_name"`
	FilePath   string            `json:"file_path,omitempty"`
	Type       vectordb.ItemType `json:"type"`
	ChunkIndex *int              `json:"chunk_index,omitempty"`
	ImagePath  string            `json:"image_path,omitempty"`
	Score      float64           `json:"score"`
	Distance   float64           `json:"distance"`
	Text       string            `json:"text"`
}

// AnswerView is the JSON form of an Answer.
type AnswerView struct {
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	Status       AnswerStatus `json:"status"`
	Citations    []Citation   `json:"citations"`
	Sources      []HitView    `json:"sources"`
	Model        string       `json:"model,omitempty"`
	InputTokens  int          `json:"input_tokens,omitempty"`
	OutputTokens int          `json:"output_tokens,omitempty"`
	DurationMS   int64        `json:"duration_ms"`
	Error        string       `json:"error,omitempty"`
}

// NewHitViews converts hits for JSON output.
func NewHitViews(hits []Hit) []HitView {
	views := make([]HitView, len(hits))
	for i, h := range hits {
		v := HitView{
			ID:        h.ID,
			FileName:  h.Metadata.FileName,
			FilePath:  h.Metadata.FilePath,
			Type:      h.Metadata.Type,
			ImagePath: h.Metadata.ImagePath,
			Score:     round3(float64(h.Score)),
			Distance:  round3(float64(h.Distance)),
			Text:      h.Text,
		}
		if h.Metadata.Type == vectordb.TypeText {
			idx := h.Metadata.ChunkIndex
			v.ChunkIndex = &idx
		}
		views[i] = v
	}
	return views
}

// NewAnswerView converts an answer for JSON output.
func NewAnswerView(a *Answer) AnswerView {
	v := AnswerView{
		Question:     a.Question,
		Answer:       a.Text,
		Status:       a.Status,
		Citations:    a.Citations,
		Sources:      NewHitViews(a.Hits),
		Model:        a.Model,
		InputTokens:  a.InputTokens,
		OutputTokens: a.OutputTokens,
		DurationMS:   a.Duration.Milliseconds(),
	}
	if v.Citations == nil {
		v.Citations = []Citation{}
	}
	if a.Err != nil {
		v.Error = a.Err.Error()
	}
	return v
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

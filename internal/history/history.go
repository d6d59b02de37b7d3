// Package history records index runs and answered questions in SQLite.
package history

import (
	"time"

	"github.com/ziadkadry99/docrag/internal/indexer"
	"github.com/ziadkadry99/docrag/internal/rag"
)

// Channel identifies where a question was asked.
type Channel string

const (
	ChannelCLI  Channel = "cli"
	ChannelHTTP Channel = "http"
	ChannelWS   Channel = "ws"
	ChannelMCP  Channel = "mcp"
)

// Run is a recorded indexing run.
type Run struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       string    `json:"status"`
	OCREnabled   bool      `json:"ocr_enabled"`
	TotalDocs    int       `json:"total_docs"`
	TotalChunks  int       `json:"total_chunks"`
	TotalImages  int       `json:"total_images"`
	OCRTexts     int       `json:"ocr_texts"`
	FailedDocs   int       `json:"failed_docs"`
	FailedImages int       `json:"failed_images"`
	SkippedItems int       `json:"skipped_items"`
	DeletedItems int       `json:"deleted_items"`
	Error        string    `json:"error,omitempty"`
}

// Question is a recorded question and its answer.
type Question struct {
	ID         string         `json:"id"`
	AskedAt    time.Time      `json:"asked_at"`
	Channel    Channel        `json:"channel"`
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Status     string         `json:"status"`
	TopK       int            `json:"top_k"`
	Sources    []rag.Citation `json:"sources"`
	Model      string         `json:"model,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// RunFromStats converts the result of an indexing run.
func RunFromStats(s *indexer.RunStats) Run {
	return Run{
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		Status:       string(s.Status),
		OCREnabled:   s.OCREnabled,
		TotalDocs:    s.TotalDocs,
		TotalChunks:  s.TotalChunks,
		TotalImages:  s.TotalImages,
		OCRTexts:     s.OCRTexts,
		FailedDocs:   s.FailedDocs,
		FailedImages: s.FailedImages,
		SkippedItems: s.SkippedItems,
		DeletedItems: s.DeletedItems,
		Error:        s.Error,
	}
}

// QuestionFromAnswer converts an answer produced through channel.
func QuestionFromAnswer(a *rag.Answer, channel Channel, topK int) Question {
	return Question{
		Channel:    channel,
		Question:   a.Question,
		Answer:     a.Text,
		Status:     string(a.Status),
		TopK:       topK,
		Sources:    a.Citations,
		Model:      a.Model,
		DurationMS: a.Duration.Milliseconds(),
	}
}

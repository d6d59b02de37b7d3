package indexer

import "time"

// Status is the overall outcome of an indexing run.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusNoDocuments Status = "no_documents"
	StatusError       Status = "error"
)

// Options are the operator controls for one run.
type Options struct {
	EnableOCR bool
	UseGPU    bool
}

// RunStats summarizes an indexing run. Writes committed before a failure
// stay in the index; Status and Error say how far the run got.
type RunStats struct {
	Status       Status        `json:"status"`
	OCREnabled   bool          `json:"ocr_enabled"`
	TotalDocs    int           `json:"total_docs"`
	TotalChunks  int           `json:"total_chunks"`
	TotalImages  int           `json:"total_images"`
	OCRTexts     int           `json:"ocr_texts"`
	FailedDocs   int           `json:"failed_docs"`
	FailedImages int           `json:"failed_images"`
	SkippedItems int           `json:"skipped_items"` // items whose embedding failed
	DeletedItems int           `json:"deleted_items"` // stale items removed
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
	Err          error         `json:"-"`
}

func (s *RunStats) fail(err error) *RunStats {
	s.Status = StatusError
	s.Err = err
	s.Error = err.Error()
	return s
}

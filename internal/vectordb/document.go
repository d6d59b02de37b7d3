package vectordb

import "time"

// ItemType distinguishes chunks of document text from OCR output.
type ItemType string

const (
	TypeText ItemType = "text"
	TypeOCR  ItemType = "ocr"
)

// Item is one unit of retrievable text. Upserting an existing ID replaces it.
type Item struct {
	ID       string
	Text     string
	Metadata ItemMetadata
}

// ItemMetadata holds the attributes stored alongside an item.
type ItemMetadata struct {
	FileName    string
	FilePath    string
	Type        ItemType
	ChunkIndex  int    // text items only
	ImagePath   string // ocr items only
	ContentHash string
	IndexedAt   time.Time
}

// SearchResult is an item returned by Query. Smaller Distance is more similar.
type SearchResult struct {
	ID       string
	Text     string
	Metadata ItemMetadata
	Distance float32
}

// Outcome explains why a query returned what it did.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeEmptyCollection  Outcome = "empty_collection"
	OutcomeQueryNotEmbedded Outcome = "query_not_embedded"
)

// QueryResult carries ranked results and the outcome. Cause is set when the
// query text could not be embedded.
type QueryResult struct {
	Results []SearchResult
	Outcome Outcome
	Cause   error
}

// ItemFailure records an item that was not written because its embedding failed.
type ItemFailure struct {
	ID  string
	Err error
}

// UpsertReport summarizes an Upsert call.
type UpsertReport struct {
	Written  int
	Skipped  int
	Failures []ItemFailure
}

// Metric converts the index's distance into a similarity score.
type Metric interface {
	Name() string
	Score(distance float32) float32
}

// Cosine is the only metric chromem-go ranks by. Distance is 1 - cosine
// similarity, so Score undoes it.
type Cosine struct{}

func (Cosine) Name() string { return "cosine" }

func (Cosine) Score(distance float32) float32 { return 1 - distance }

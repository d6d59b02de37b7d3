package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/docrag/internal/db"
	"github.com/ziadkadry99/docrag/internal/rag"
)

// DefaultLimit caps list queries when no limit is given.
const DefaultLimit = 50

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store reads and writes history records.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// RecordRun inserts an index run. If run.ID is empty a UUID is generated.
func (s *Store) RecordRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_runs (
			id, started_at, finished_at, status, ocr_enabled,
			total_docs, total_chunks, total_images, ocr_texts,
			failed_docs, failed_images, skipped_items, deleted_items, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Status,
		run.OCREnabled,
		run.TotalDocs,
		run.TotalChunks,
		run.TotalImages,
		run.OCRTexts,
		run.FailedDocs,
		run.FailedImages,
		run.SkippedItems,
		run.DeletedItems,
		run.Error,
	)
	if err != nil {
		return "", fmt.Errorf("inserting index run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, ocr_enabled,
			   total_docs, total_chunks, total_images, ocr_texts,
			   failed_docs, failed_images, skipped_items, deleted_items, error
		FROM index_runs ORDER BY started_at DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying index runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(
			&r.ID, &started, &finished, &r.Status, &r.OCREnabled,
			&r.TotalDocs, &r.TotalChunks, &r.TotalImages, &r.OCRTexts,
			&r.FailedDocs, &r.FailedImages, &r.SkippedItems, &r.DeletedItems, &r.Error,
		); err != nil {
			return nil, fmt.Errorf("scanning index run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LastRun returns the most recent run, or nil when none was recorded.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// RecordQuestion inserts a question. AskedAt defaults to now.
func (s *Store) RecordQuestion(ctx context.Context, q Question) (string, error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.AskedAt.IsZero() {
		q.AskedAt = time.Now()
	}
	if q.Channel == "" {
		q.Channel = ChannelCLI
	}
	if q.Sources == nil {
		q.Sources = []rag.Citation{}
	}
	sources, err := json.Marshal(q.Sources)
	if err != nil {
		return "", fmt.Errorf("marshalling sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions (
			id, asked_at, channel, question, answer, status,
			top_k, sources, model, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID,
		formatTime(q.AskedAt),
		string(q.Channel),
		q.Question,
		q.Answer,
		q.Status,
		q.TopK,
		string(sources),
		q.Model,
		q.DurationMS,
	)
	if err != nil {
		return "", fmt.Errorf("inserting question: %w", err)
	}
	return q.ID, nil
}

// ListQuestions returns the most recent questions first. An empty channel
// matches all channels.
func (s *Store) ListQuestions(ctx context.Context, channel Channel, limit int) ([]Question, error) {
	query := `SELECT id, asked_at, channel, question, answer, status,
			top_k, sources, model, duration_ms FROM questions`
	var args []any
	if channel != "" {
		query += " WHERE channel = ?"
		args = append(args, string(channel))
	}
	query += " ORDER BY asked_at DESC LIMIT ?"
	args = append(args, normalizeLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	questions := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// GetQuestion returns a single question by ID.
func (s *Store) GetQuestion(ctx context.Context, id string) (*Question, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, asked_at, channel, question, answer, status,
			   top_k, sources, model, duration_ms
		FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

func scanQuestion(sc scanner) (*Question, error) {
	var (
		q                       Question
		asked, ch, sourcesJSON string
	)
	err := sc.Scan(&q.ID, &asked, &ch, &q.Question, &q.Answer, &q.Status,
		&q.TopK, &sourcesJSON, &q.Model, &q.DurationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	q.AskedAt = parseTime(asked)
	q.Channel = Channel(ch)
	if err := json.Unmarshal([]byte(sourcesJSON), &q.Sources); err != nil {
		q.Sources = nil
	}
	return &q, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

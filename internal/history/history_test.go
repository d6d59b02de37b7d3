package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docrag/internal/db"
	"github.com/ziadkadry99/docrag/internal/indexer"
	"github.com/ziadkadry99/docrag/internal/rag"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestRecordAndListRuns(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	stats := &indexer.RunStats{
		Status:       indexer.StatusSuccess,
		OCREnabled:   true,
		TotalDocs:    3,
		TotalChunks:  12,
		TotalImages:  2,
		OCRTexts:     1,
		FailedImages: 1,
		SkippedItems: 2,
		StartedAt:    base,
		FinishedAt:   base.Add(4 * time.Second),
	}
	if _, err := store.RecordRun(ctx, RunFromStats(stats)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	failed := &indexer.RunStats{
		Status:     indexer.StatusError,
		Error:      "writing text items: disk full",
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + time.Second),
	}
	if _, err := store.RecordRun(ctx, RunFromStats(failed)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Status != "error" || runs[0].Error == "" {
		t.Errorf("expected newest (failed) run first, got %+v", runs[0])
	}
	got := runs[1]
	if got.TotalChunks != 12 || got.OCRTexts != 1 || got.SkippedItems != 2 || got.FailedImages != 1 || !got.OCREnabled {
		t.Errorf("counters not round-tripped: %+v", got)
	}
	if !got.StartedAt.Equal(base) || !got.FinishedAt.Equal(base.Add(4*time.Second)) {
		t.Errorf("timestamps not round-tripped: %v / %v", got.StartedAt, got.FinishedAt)
	}

	last, err := store.LastRun(ctx)
	if err != nil || last == nil || last.ID != runs[0].ID {
		t.Errorf("LastRun = %+v, %v", last, err)
	}
}

func TestLastRunEmpty(t *testing.T) {
	store := setupStore(t)
	last, err := store.LastRun(context.Background())
	if err != nil || last != nil {
		t.Errorf("expected nil run, got %+v, %v", last, err)
	}
}

func TestRecordRunRejectsUnknownStatus(t *testing.T) {
	store := setupStore(t)
	_, err := store.RecordRun(context.Background(), Run{Status: "partial", StartedAt: time.Now(), FinishedAt: time.Now()})
	if err == nil {
		t.Error("expected CHECK constraint to reject unknown status")
	}
}

func TestRecordAndListQuestions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	answer := &rag.Answer{
		Question:  "What is the leave policy?",
		Text:      "Employees get 15 days [Document 1].",
		Status:    rag.StatusAnswered,
		Citations: []rag.Citation{{FileName: "hr.docx", Type: "text", Score: 0.912}},
		Model:     "gpt-4o-mini",
		Duration:  1500 * time.Millisecond,
	}
	q := QuestionFromAnswer(answer, ChannelHTTP, 5)
	q.AskedAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	id, err := store.RecordQuestion(ctx, q)
	if err != nil {
		t.Fatalf("RecordQuestion: %v", err)
	}

	later := Question{Question: "Who approves?", Status: "no_results", AskedAt: q.AskedAt.Add(time.Minute), Channel: ChannelMCP}
	if _, err := store.RecordQuestion(ctx, later); err != nil {
		t.Fatalf("RecordQuestion: %v", err)
	}

	all, err := store.ListQuestions(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(all) != 2 || all[0].Question != "Who approves?" {
		t.Fatalf("unexpected order: %+v", all)
	}
	if all[0].Sources == nil || len(all[0].Sources) != 0 {
		t.Errorf("expected empty sources slice, got %v", all[0].Sources)
	}

	httpOnly, err := store.ListQuestions(ctx, ChannelHTTP, 10)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(httpOnly) != 1 {
		t.Fatalf("expected 1 http question, got %d", len(httpOnly))
	}

	got, err := store.GetQuestion(ctx, id)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.TopK != 5 || got.DurationMS != 1500 || got.Status != "answered" {
		t.Errorf("unexpected question: %+v", got)
	}
	if len(got.Sources) != 1 || got.Sources[0].FileName != "hr.docx" || got.Sources[0].Score != 0.912 {
		t.Errorf("sources not round-tripped: %+v", got.Sources)
	}

	if _, err := store.GetQuestion(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()
	if _, err := store.RecordRun(ctx, Run{Status: "success", StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatal(err)
	}
	id, err := store.RecordQuestion(ctx, Question{Question: "hello", Status: "answered", Channel: ChannelWS})
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	tests := []struct {
		path string
		code int
	}{
		{"/api/runs", http.StatusOK},
		{"/api/runs?limit=1", http.StatusOK},
		{"/api/chats", http.StatusOK},
		{"/api/chats?channel=ws", http.StatusOK},
		{"/api/chats/" + id, http.StatusOK},
		{"/api/chats/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("GET %s: status = %d, want %d", tt.path, rec.Code, tt.code)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats?channel=ws", nil))
	var questions []Question
	if err := json.NewDecoder(rec.Body).Decode(&questions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 1 || questions[0].Channel != ChannelWS {
		t.Errorf("unexpected questions: %+v", questions)
	}
}

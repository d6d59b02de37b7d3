package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docrag/internal/db"
	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/indexer"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

// --- Fakes ---

type fakeStore struct {
	mu    sync.Mutex
	count int
}

func (f *fakeStore) Upsert(context.Context, []vectordb.Item) (vectordb.UpsertReport, error) {
	return vectordb.UpsertReport{}, nil
}

func (f *fakeStore) Query(_ context.Context, _ string, _ int) (vectordb.QueryResult, error) {
	if f.Count() == 0 {
		return vectordb.QueryResult{Outcome: vectordb.OutcomeEmptyCollection}, nil
	}
	return vectordb.QueryResult{Outcome: vectordb.OutcomeOK, Results: []vectordb.SearchResult{{
		ID:       "handbook_chunk_0",
		Text:     "Vacation requests go to your manager.",
		Distance: 0.2,
		Metadata: vectordb.ItemMetadata{FileName: "handbook.docx", Type: vectordb.TypeText},
	}}}, nil
}

func (f *fakeStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *fakeStore) Delete(context.Context, ...string) error { return nil }

func (f *fakeStore) Reset(context.Context) error {
	f.mu.Lock()
	f.count = 0
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) Metric() vectordb.Metric { return vectordb.Cosine{} }

type fakeIndexer struct {
	store   *fakeStore
	lastOpt indexer.Options
	resets  int
}

func (f *fakeIndexer) Run(_ context.Context, opts indexer.Options) *indexer.RunStats {
	f.lastOpt = opts
	f.store.mu.Lock()
	f.store.count = 3
	f.store.mu.Unlock()
	now := time.Now()
	return &indexer.RunStats{Status: indexer.StatusSuccess, TotalDocs: 1, TotalChunks: 3, StartedAt: now, FinishedAt: now}
}

func (f *fakeIndexer) Reset(ctx context.Context) error {
	f.resets++
	return f.store.Reset(ctx)
}

type fakeAnswerer struct{}

func (fakeAnswerer) Answer(_ context.Context, question string, _ int) (*rag.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, rag.ErrEmptyQuestion
	}
	return &rag.Answer{
		Question:  question,
		Text:      "Ask your manager [Document 1].",
		Status:    rag.StatusAnswered,
		Citations: []rag.Citation{{FileName: "handbook.docx", Type: vectordb.TypeText, Score: 0.8}},
	}, nil
}

type testEnv struct {
	srv     *Server
	store   *fakeStore
	indexer *fakeIndexer
	hist    *history.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := &fakeStore{}
	idx := &fakeIndexer{store: store}
	hist := history.NewStore(database)
	srv := New(Config{Collection: "rag_documents", EnableOCR: true}, store, idx, fakeAnswerer{}, hist)
	return &testEnv{srv: srv, store: store, indexer: idx, hist: hist}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

// --- Tests ---

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode[map[string]string](t, w); body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	store := &fakeStore{}
	srv := New(Config{AllowAll: true}, store, &fakeIndexer{store: store}, fakeAnswerer{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestIndexThenStats(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/index", "")
	if w.Code != http.StatusOK {
		t.Fatalf("index: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	stats := decode[indexer.RunStats](t, w)
	if stats.Status != indexer.StatusSuccess || stats.TotalChunks != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if !env.indexer.lastOpt.EnableOCR {
		t.Error("expected OCR default from config")
	}

	w = env.do(t, http.MethodPost, "/api/index", `{"enable_ocr": false, "use_gpu": true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("index: expected 200, got %d", w.Code)
	}
	if env.indexer.lastOpt.EnableOCR || !env.indexer.lastOpt.UseGPU {
		t.Errorf("request options not applied: %+v", env.indexer.lastOpt)
	}

	w = env.do(t, http.MethodGet, "/api/stats", "")
	resp := decode[statsResponse](t, w)
	if resp.Count != 3 || resp.Metric != "cosine" || resp.Collection != "rag_documents" {
		t.Errorf("unexpected stats response: %+v", resp)
	}
	if resp.LastRun == nil || resp.LastRun.TotalChunks != 3 {
		t.Errorf("expected last run from history, got %+v", resp.LastRun)
	}

	w = env.do(t, http.MethodGet, "/api/runs", "")
	if runs := decode[[]history.Run](t, w); len(runs) != 2 {
		t.Errorf("expected 2 recorded runs, got %d", len(runs))
	}
}

func TestIndexBadBody(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, http.MethodPost, "/api/index", `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/search", `{"query": "vacation"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	empty := decode[searchResponse](t, w)
	if empty.Outcome != vectordb.OutcomeEmptyCollection || len(empty.Results) != 0 {
		t.Errorf("expected empty_collection, got %+v", empty)
	}

	env.do(t, http.MethodPost, "/api/index", "")
	w = env.do(t, http.MethodPost, "/api/search", `{"query": "vacation", "top_k": 2}`)
	resp := decode[searchResponse](t, w)
	if resp.Outcome != vectordb.OutcomeOK || len(resp.Results) != 1 {
		t.Fatalf("unexpected search response: %+v", resp)
	}
	if resp.Results[0].FileName != "handbook.docx" || resp.Results[0].Score != 0.8 {
		t.Errorf("unexpected hit: %+v", resp.Results[0])
	}

	if w := env.do(t, http.MethodPost, "/api/search", `{"query": "  "}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank query, got %d", w.Code)
	}
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/chat", `{"question": "Who approves vacation?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := decode[rag.AnswerView](t, w)
	if view.Status != rag.StatusAnswered || len(view.Citations) != 1 {
		t.Errorf("unexpected answer: %+v", view)
	}

	if w := env.do(t, http.MethodPost, "/api/chat", `{"question": ""}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty question, got %d", w.Code)
	}

	qs, err := env.hist.ListQuestions(context.Background(), history.ChannelHTTP, 10)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(qs) != 1 || qs[0].TopK != 5 {
		t.Errorf("expected one recorded question with default top_k, got %+v", qs)
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/index", "")

	w := env.do(t, http.MethodPost, "/api/reset", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 challenge, got %d", w.Code)
	}
	challenge := decode[resetChallenge](t, w)
	if challenge.Token == "" {
		t.Fatal("expected a confirmation token")
	}
	if env.indexer.resets != 0 || env.store.Count() != 3 {
		t.Fatal("reset must not happen without confirmation")
	}

	if w := env.do(t, http.MethodPost, "/api/reset", `{"confirm_token": "bogus"}`); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for bogus token, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/reset", `{"confirm_token": "`+challenge.Token+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if env.indexer.resets != 1 || env.store.Count() != 0 {
		t.Errorf("expected reset, resets=%d count=%d", env.indexer.resets, env.store.Count())
	}

	// Tokens are single use.
	w = env.do(t, http.MethodPost, "/api/reset", `{"confirm_token": "`+challenge.Token+`"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for reused token, got %d", w.Code)
	}
}

func TestResetTokenExpiry(t *testing.T) {
	tokens := newResetTokens(2 * time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return now }

	tok, exp := tokens.issue()
	if !exp.Equal(now.Add(2 * time.Minute)) {
		t.Errorf("unexpected expiry %v", exp)
	}

	now = now.Add(3 * time.Minute)
	if tokens.consume(tok) {
		t.Error("expired token must be rejected")
	}

	tok, _ = tokens.issue()
	now = now.Add(time.Minute)
	if !tokens.consume(tok) {
		t.Error("fresh token must be accepted")
	}
}

func TestWebSocketChat(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/index", "")

	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsRequest{Type: "ask", Question: "Who approves vacation?"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp wsResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "answer" || resp.Answer == nil || resp.Answer.Status != rag.StatusAnswered {
		t.Errorf("unexpected ws response: %+v", resp)
	}

	if err := conn.WriteJSON(wsRequest{Type: "search", Question: "vacation"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp = wsResponse{}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "results" || len(resp.Results) != 1 {
		t.Errorf("unexpected ws search response: %+v", resp)
	}

	if err := conn.WriteJSON(wsRequest{Type: "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp = wsResponse{}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("expected error for unknown type, got %+v", resp)
	}

	qs, err := env.hist.ListQuestions(context.Background(), history.ChannelWS, 10)
	if err != nil || len(qs) != 1 {
		t.Errorf("expected one ws question recorded, got %d (%v)", len(qs), err)
	}
}

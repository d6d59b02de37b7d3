package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/indexer"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

type statsResponse struct {
	Collection string       `json:"collection"`
	Metric     string       `json:"metric"`
	Count      int          `json:"count"`
	LastRun    *history.Run `json:"last_run,omitempty"`
}

type indexRequest struct {
	EnableOCR *bool `json:"enable_ocr"`
	UseGPU    *bool `json:"use_gpu"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Query   string           `json:"query"`
	Outcome vectordb.Outcome `json:"outcome"`
	Results []rag.HitView    `json:"results"`
	Error   string           `json:"error,omitempty"`
}

type chatRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type resetRequest struct {
	Token string `json:"confirm_token"`
}

type resetChallenge struct {
	Token     string    `json:"confirm_token"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := statsResponse{
		Collection: s.cfg.Collection,
		Metric:     s.store.Metric().Name(),
		Count:      s.store.Count(),
	}
	s.mu.RUnlock()

	if s.history != nil {
		last, err := s.history.LastRun(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("loading last run")
		}
		resp.LastRun = last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := indexer.Options{EnableOCR: s.cfg.EnableOCR, UseGPU: s.cfg.UseGPU}
	if req.EnableOCR != nil {
		opts.EnableOCR = *req.EnableOCR
	}
	if req.UseGPU != nil {
		opts.UseGPU = *req.UseGPU
	}

	// A client that disconnects does not abort a run already writing.
	ctx := context.WithoutCancel(r.Context())

	s.mu.Lock()
	stats := s.indexer.Run(ctx, opts)
	s.mu.Unlock()

	if s.history != nil {
		if _, err := s.history.RecordRun(ctx, history.RunFromStats(stats)); err != nil {
			log.Warn().Err(err).Msg("recording index run")
		}
	}

	status := http.StatusOK
	if stats.Status == indexer.StatusError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = s.cfg.TopK
	}

	s.mu.RLock()
	ret, err := s.retriever.Retrieve(r.Context(), req.Query, req.TopK)
	s.mu.RUnlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := searchResponse{Query: req.Query, Outcome: ret.Outcome, Results: rag.NewHitViews(ret.Hits)}
	if ret.Cause != nil {
		resp.Error = ret.Cause.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ans, err := s.ask(r.Context(), req.Question, req.TopK, history.ChannelHTTP)
	if errors.Is(err, rag.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rag.NewAnswerView(ans))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Token == "" {
		tok, exp := s.resets.issue()
		writeJSON(w, http.StatusAccepted, resetChallenge{
			Token:     tok,
			ExpiresAt: exp.UTC(),
			Message:   "resend with confirm_token to delete every indexed item",
		})
		return
	}
	if !s.resets.consume(req.Token) {
		writeError(w, http.StatusForbidden, "invalid or expired confirmation token")
		return
	}

	s.mu.Lock()
	err := s.indexer.Reset(r.Context())
	count := s.store.Count()
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "count": count})
}

// decodeBody decodes a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Package server exposes indexing, search and chat over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/indexer"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port       int
	AllowAll   bool // allow all CORS origins (dev mode)
	Collection string
	TopK       int
	EnableOCR  bool // default for index requests that do not say
	UseGPU     bool
}

// Indexer runs and resets the index.
type Indexer interface {
	Run(ctx context.Context, opts indexer.Options) *indexer.RunStats
	Reset(ctx context.Context) error
}

// Answerer answers questions from the index.
type Answerer interface {
	Answer(ctx context.Context, question string, topK int) (*rag.Answer, error)
}

// Server serves the docrag API. Index runs and resets take the write lock;
// searches and answers share the read lock.
type Server struct {
	cfg        Config
	mu         sync.RWMutex
	store      vectordb.Store
	indexer    Indexer
	answerer   Answerer
	retriever  *rag.Retriever
	history    *history.Store
	resets     *resetTokens
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. hist may be nil to disable history.
func New(cfg Config, store vectordb.Store, idx Indexer, answerer Answerer, hist *history.Store) *Server {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	s := &Server{
		cfg:       cfg,
		store:     store,
		indexer:   idx,
		answerer:  answerer,
		retriever: rag.NewRetriever(store),
		history:   hist,
		resets:    newResetTokens(2 * time.Minute),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Index runs can outlast any sensible request timeout.
	r.Post("/api/index", s.handleIndex)
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(120 * time.Second))
		r.Get("/api/stats", s.handleStats)
		r.Post("/api/search", s.handleSearch)
		r.Post("/api/chat", s.handleChat)
		r.Post("/api/reset", s.handleReset)
		if s.history != nil {
			history.RegisterRoutes(r, s.history)
		}
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Str("collection", s.cfg.Collection).Msg("docrag server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// ask answers a question under the read lock and records it.
func (s *Server) ask(ctx context.Context, question string, topK int, channel history.Channel) (*rag.Answer, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	s.mu.RLock()
	ans, err := s.answerer.Answer(ctx, question, topK)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		if _, err := s.history.RecordQuestion(ctx, history.QuestionFromAnswer(ans, channel, topK)); err != nil {
			log.Warn().Err(err).Msg("recording question")
		}
	}
	return ans, nil
}

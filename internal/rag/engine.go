package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/docrag/internal/llm"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

// ErrEmptyQuestion is returned when Answer is called with a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// AnswerStatus classifies an Answer.
type AnswerStatus string

const (
	StatusAnswered         AnswerStatus = "answered"
	StatusNoDocuments      AnswerStatus = "no_documents"
	StatusNoResults        AnswerStatus = "no_results"
	StatusGenerationFailed AnswerStatus = "generation_failed"
)

// sourceHits is how many retrieved hits are returned alongside an answer.
const sourceHits = 3

// Answer is the result of a question. Err is set for generation failures
// and unembeddable queries.
type Answer struct {
	Question     string
	Text         string
	Status       AnswerStatus
	Citations    []Citation
	Hits         []Hit
	Context      string
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
	Err          error
}

// EngineOptions tunes retrieval and generation.
type EngineOptions struct {
	TopK            int
	MaxContextChars int
	MaxTokens       int
	Temperature     float64
	Model           string
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.MaxContextChars <= 0 {
		o.MaxContextChars = DefaultMaxContextChars
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1000
	}
	return o
}

// Engine answers questions by retrieving context and calling a provider.
type Engine struct {
	retriever *Retriever
	provider  llm.Provider
	opts      EngineOptions
}

// NewEngine creates an Engine.
func NewEngine(retriever *Retriever, provider llm.Provider, opts EngineOptions) *Engine {
	return &Engine{retriever: retriever, provider: provider, opts: opts.withDefaults()}
}

// Retriever returns the engine's retriever.
func (e *Engine) Retriever() *Retriever { return e.retriever }

// Options returns the effective options.
func (e *Engine) Options() EngineOptions { return e.opts }

// Answer retrieves up to topK hits for question and generates an answer
// from them. A non-positive topK uses the configured default. Only
// retrieval failures are returned as errors; everything else is reported
// through the Answer status.
func (e *Engine) Answer(ctx context.Context, question string, topK int) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if topK <= 0 {
		topK = e.opts.TopK
	}

	start := time.Now()
	ans := &Answer{Question: question}
	defer func() { ans.Duration = time.Since(start) }()

	if e.retriever.Store().Count() == 0 {
		ans.Status = StatusNoDocuments
		ans.Text = msgNoDocuments
		return ans, nil
	}

	ret, err := e.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	switch {
	case ret.Outcome == vectordb.OutcomeEmptyCollection:
		ans.Status = StatusNoDocuments
		ans.Text = msgNoDocuments
		return ans, nil
	case ret.Outcome == vectordb.OutcomeQueryNotEmbedded:
		ans.Status = StatusNoResults
		ans.Text = msgNoResults
		ans.Err = ret.Cause
		log.Warn().Err(ret.Cause).Msg("question could not be embedded")
		return ans, nil
	case len(ret.Hits) == 0:
		ans.Status = StatusNoResults
		ans.Text = msgNoResults
		return ans, nil
	}

	ans.Hits = ret.Hits
	if len(ans.Hits) > sourceHits {
		ans.Hits = ans.Hits[:sourceHits]
	}
	ans.Context, ans.Citations = Assemble(ret.Hits, e.opts.MaxContextChars)
	if ans.Context == "" {
		// Even the best hit does not fit the context budget.
		ans.Status = StatusNoResults
		ans.Text = msgNoResults
		log.Warn().Int("max_context_chars", e.opts.MaxContextChars).Msg("no retrieved text fits the context budget")
		return ans, nil
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: buildUserPrompt(question, ans.Context)},
		},
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		ans.Status = StatusGenerationFailed
		ans.Err = err
		ans.Text = fmt.Sprintf("%s: %v", msgGenerationFailed, err)
		log.Error().Err(err).Str("provider", e.provider.Name()).Msg("answer generation failed")
		return ans, nil
	}

	ans.Status = StatusAnswered
	ans.Text = strings.TrimSpace(resp.Content)
	ans.Model = resp.Model
	ans.InputTokens = resp.InputTokens
	ans.OutputTokens = resp.OutputTokens

	log.Info().Int("hits", len(ret.Hits)).Int("citations", len(ans.Citations)).Int("output_tokens", resp.OutputTokens).Msg("question answered")
	return ans, nil
}

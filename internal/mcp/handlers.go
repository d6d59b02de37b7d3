package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/phuslu/log"

	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

const notIndexedHint = "No documents are indexed yet. Run `docrag index` first."

// handleSearchDocuments runs a similarity query against the index.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", s.topK)
	if limit <= 0 {
		limit = s.topK
	}

	res, err := s.store.Query(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	switch res.Outcome {
	case vectordb.OutcomeEmptyCollection:
		return mcp.NewToolResultText(notIndexedHint), nil
	case vectordb.OutcomeQueryNotEmbedded:
		return mcp.NewToolResultError(fmt.Sprintf("query could not be embedded: %v", res.Cause)), nil
	}
	return mcp.NewToolResultText(vectordb.FormatResults(res.Results, s.store.Metric())), nil
}

// handleAskDocuments answers a question from the indexed documents.
func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}
	topK := request.GetInt("top_k", s.topK)
	if topK <= 0 {
		topK = s.topK
	}

	ans, err := s.answerer.Answer(ctx, question, topK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}

	if s.history != nil {
		if _, err := s.history.RecordQuestion(ctx, history.QuestionFromAnswer(ans, history.ChannelMCP, topK)); err != nil {
			log.Warn().Err(err).Msg("recording question")
		}
	}

	if ans.Status == rag.StatusGenerationFailed {
		return mcp.NewToolResultError(ans.Text), nil
	}
	return mcp.NewToolResultText(formatAnswer(ans)), nil
}

// handleIndexStatus reports the item count and the last run.
func (s *Server) handleIndexStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Collection: %s\n", s.collection)
	fmt.Fprintf(&sb, "Metric: %s\n", s.store.Metric().Name())
	fmt.Fprintf(&sb, "Indexed items: %d\n", s.store.Count())

	if s.history != nil {
		last, err := s.history.LastRun(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading run history: %v", err)), nil
		}
		if last != nil {
			fmt.Fprintf(&sb, "\nLast run: %s (%s)\n", last.FinishedAt.Format("2006-01-02 15:04:05 MST"), last.Status)
			fmt.Fprintf(&sb, "Documents: %d, chunks: %d, images: %d, OCR texts: %d\n",
				last.TotalDocs, last.TotalChunks, last.TotalImages, last.OCRTexts)
			if last.FailedDocs > 0 || last.SkippedItems > 0 {
				fmt.Fprintf(&sb, "Failed documents: %d, skipped items: %d\n", last.FailedDocs, last.SkippedItems)
			}
			if last.Error != "" {
				fmt.Fprintf(&sb, "Error: %s\n", last.Error)
			}
		}
	}
	if s.store.Count() == 0 {
		sb.WriteString("\n" + notIndexedHint + "\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatAnswer renders an answer with its sources for an agent.
func formatAnswer(ans *rag.Answer) string {
	var sb strings.Builder
	sb.WriteString(ans.Text)
	if len(ans.Citations) > 0 {
		sb.WriteString("\n\nSources:\n")
		for _, c := range ans.Citations {
			label := c.FileName
			if c.Type == vectordb.TypeOCR {
				label += " (image content)"
			}
			fmt.Fprintf(&sb, "- %s, score %.3f\n", label, c.Score)
		}
	}
	return sb.String()
}

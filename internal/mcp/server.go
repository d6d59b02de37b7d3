// Package mcp exposes document search and question answering as MCP tools.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/rag"
	"github.com/ziadkadry99/docrag/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Answerer answers questions from the index.
type Answerer interface {
	Answer(ctx context.Context, question string, topK int) (*rag.Answer, error)
}

// Server wraps an MCP server that exposes document tools.
type Server struct {
	store      vectordb.Store
	answerer   Answerer
	history    *history.Store
	collection string
	topK       int
	mcp        *server.MCPServer
}

// NewServer creates a new MCP server. hist may be nil.
func NewServer(store vectordb.Store, answerer Answerer, hist *history.Store, collection string, topK int) *Server {
	if topK <= 0 {
		topK = 5
	}
	s := &Server{
		store:      store,
		answerer:   answerer,
		history:    hist,
		collection: collection,
		topK:       topK,
	}

	s.mcp = server.NewMCPServer(
		"docrag",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(askDocumentsTool, s.handleAskDocuments)
	s.mcp.AddTool(indexStatusTool, s.handleIndexStatus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

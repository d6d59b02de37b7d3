// Package docparse extracts plain text and embedded images from documents.
package docparse

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for files no registered parser handles.
var ErrUnsupported = errors.New("unsupported document format")

// Parsed is the result of parsing one document.
type Parsed struct {
	Text   string
	Images []string // paths of images written under the image directory
}

// Parser turns a document into text and images. Images are written below
// imageDir; a parser that finds none returns an empty slice.
type Parser interface {
	Parse(ctx context.Context, path, imageDir string) (*Parsed, error)
}

// Registry dispatches to a Parser by file extension.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with the built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register(&DocxParser{}, ".docx")
	r.Register(&MarkdownParser{}, ".md", ".markdown")
	r.Register(&HTMLParser{}, ".html", ".htm")
	r.Register(&TextParser{}, ".txt", ".text")
	return r
}

// Register associates p with the given extensions, replacing earlier ones.
func (r *Registry) Register(p Parser, exts ...string) {
	for _, ext := range exts {
		r.parsers[strings.ToLower(ext)] = p
	}
}

// Supports reports whether a parser is registered for path's extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.parsers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Parse parses path with the parser registered for its extension.
func (r *Registry) Parse(ctx context.Context, path, imageDir string) (*Parsed, error) {
	p, ok := r.parsers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Parse(ctx, path, imageDir)
}

// joinBlocks trims blocks, drops empty ones and joins the rest with a blank line.
func joinBlocks(blocks []string) string {
	kept := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}

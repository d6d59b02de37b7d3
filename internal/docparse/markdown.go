package docparse

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser renders markdown to plain text by walking the goldmark AST.
// Each leaf block becomes one paragraph; locally referenced images are
// copied out for OCR.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(ctx context.Context, path, imageDir string) (*Parsed, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	src = []byte(normalizeText(string(src)))

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var (
		blocks []string
		buf    strings.Builder
		refs   []string
	)
	flush := func() {
		blocks = append(blocks, buf.String())
		buf.Reset()
	}

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(src))
				}
				flush()
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(src))
				if node.HardLineBreak() {
					buf.WriteByte('\n')
				} else if node.SoftLineBreak() {
					buf.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.Image:
			if entering {
				refs = append(refs, string(node.Destination))
			}
		default:
			if !entering && n.Type() == ast.TypeBlock && isLeafBlock(n) {
				flush()
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	if buf.Len() > 0 {
		flush()
	}

	parsed := &Parsed{Text: joinBlocks(blocks), Images: []string{}}
	if imageDir == "" {
		return parsed, nil
	}
	w := newImageWriter(imageDir, path)
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.copyLocal(path, ref); err != nil {
			return nil, err
		}
	}
	if len(w.paths) > 0 {
		parsed.Images = w.paths
	}
	return parsed, nil
}

// isLeafBlock reports whether a block holds inline content directly.
func isLeafBlock(n ast.Node) bool {
	c := n.FirstChild()
	return c != nil && c.Type() == ast.TypeInline
}

package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/docrag/internal/vectordb"
)

// DefaultMaxContextChars is the context budget used when none is configured.
const DefaultMaxContextChars = 4000

// Citation identifies a source that contributed to the assembled context.
type Citation struct {
	FileName string            `json:"file_name"`
	Type     vectordb.ItemType `json:"type"`
	Score    float64           `json:"score"`
}

// Assemble renders hits as numbered blocks in rank order. Blocks are added
// while their total length stays within maxChars; the first block that does
// not fit ends the context. Citations cover the included blocks only.
func Assemble(hits []Hit, maxChars int) (string, []Citation) {
	var (
		parts     []string
		citations []Citation
		used      int
	)
	seen := make(map[Citation]bool)

	for i, h := range hits {
		block := formatBlock(i+1, h)
		n := utf8.RuneCountInString(block)
		if used+n > maxChars {
			break
		}
		used += n
		parts = append(parts, block)

		c := Citation{
			FileName: h.Metadata.FileName,
			Type:     h.Metadata.Type,
			Score:    round3(float64(h.Score)),
		}
		if !seen[c] {
			seen[c] = true
			citations = append(citations, c)
		}
	}

	return strings.Join(parts, "\n"), citations
}

func formatBlock(n int, h Hit) string {
	label := h.Metadata.FileName
	if label == "" {
		label = "unknown"
	}
	if h.Metadata.Type == vectordb.TypeOCR {
		label += " (image content)"
	}
	return fmt.Sprintf("[Document %d: %s]\n%s\n", n, label, h.Text)
}

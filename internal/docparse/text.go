package docparse

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextParser reads plain text files as-is.
type TextParser struct{}

func (p *TextParser) Parse(_ context.Context, path, _ string) (*Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Parsed{Text: strings.TrimSpace(normalizeText(string(data))), Images: []string{}}, nil
}

// normalizeText strips a UTF-8 BOM, replaces invalid sequences and
// converts CRLF line endings.
func normalizeText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\r\n", "\n")
}

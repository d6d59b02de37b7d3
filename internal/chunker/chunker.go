// Package chunker splits document text into overlapping, boundary-aware
// chunks sized for embedding.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when size and overlap cannot produce chunks.
var ErrInvalidConfig = errors.New("chunker: invalid size/overlap")

// Delimiters are tried in priority order when looking for a natural break
// near the end of a window.
var Delimiters = []string{"\n\n", "\n", ". ", "。", "! ", "? "}

// Chunk is a trimmed slice of the source text. Start and End are rune offsets
// of the window the chunk was cut from.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// Split cuts text into windows of at most size runes. Windows that stop
// before the end of the text prefer to break after the last delimiter inside
// them, and the next window starts overlap runes before the break.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidConfig, size, overlap)
	}

	runes := []rune(text)
	n := len(runes)
	var chunks []Chunk

	start := 0
	for start < n {
		end := start + size
		if end > n {
			end = n
		}
		if end < n {
			if cut, ok := boundary(runes, start, end, overlap); ok {
				end = cut
			}
		}

		if segment := strings.TrimSpace(string(runes[start:end])); segment != "" {
			chunks = append(chunks, Chunk{
				Index: len(chunks),
				Start: start,
				End:   end,
				Text:  segment,
			})
		}

		if end >= n {
			break
		}
		start = end - overlap
	}

	return chunks, nil
}

// boundary returns the window end just after the last occurrence of the
// highest-priority delimiter in runes[start:end]. A match that would not move
// the next start forward is skipped.
func boundary(runes []rune, start, end, overlap int) (int, bool) {
	for _, delim := range Delimiters {
		d := []rune(delim)
		pos := lastIndex(runes[start:end], d)
		if pos < 0 {
			continue
		}
		cut := start + pos + len(d)
		if cut-overlap <= start {
			continue
		}
		return cut, true
	}
	return 0, false
}

// lastIndex is strings.LastIndex over runes.
func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

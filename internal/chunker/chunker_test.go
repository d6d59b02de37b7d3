package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitInvalidConfig(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.size, tt.overlap)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSplitEmpty(t *testing.T) {
	chunks, err := Split("", 500, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}

	chunks, err = Split("   \n\n  ", 500, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected whitespace-only input to yield no chunks, got %d", len(chunks))
	}
}

func TestSplitShortText(t *testing.T) {
	chunks, err := Split("  hello world  ", 500, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "hello world" {
		t.Errorf("expected trimmed text, got %q", chunks[0].Text)
	}
}

func TestSplitWithoutDelimiters(t *testing.T) {
	text := strings.Repeat("x", 1200)
	chunks, err := Split(text, 500, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	want := [][2]int{{0, 500}, {400, 900}, {800, 1200}}
	for i, c := range chunks {
		if c.Start != want[i][0] || c.End != want[i][1] {
			t.Errorf("chunk %d: got [%d,%d), want [%d,%d)", i, c.Start, c.End, want[i][0], want[i][1])
		}
		if c.Index != i {
			t.Errorf("chunk %d: got index %d", i, c.Index)
		}
	}
	if len(chunks[2].Text) != 400 {
		t.Errorf("expected last chunk of 400 chars, got %d", len(chunks[2].Text))
	}
}

func TestSplitPrefersParagraphBreak(t *testing.T) {
	text := strings.Repeat("a", 10) + "\n\n" + strings.Repeat("b", 30)
	chunks, err := Split(text, 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != strings.Repeat("a", 10) {
		t.Errorf("first chunk should end at the paragraph break, got %q", chunks[0].Text)
	}
	if chunks[0].End != 12 {
		t.Errorf("expected first window to end after the delimiter at 12, got %d", chunks[0].End)
	}
	// The second window starts on the delimiter, which cannot be reused as a
	// break without stalling, so it falls back to a raw cut.
	if chunks[1].Start != 10 || chunks[1].End != 30 {
		t.Errorf("second chunk: got [%d,%d), want [10,30)", chunks[1].Start, chunks[1].End)
	}
	if chunks[1].Text != strings.Repeat("b", 18) {
		t.Errorf("second chunk text = %q", chunks[1].Text)
	}
}

func TestSplitDelimiterPriority(t *testing.T) {
	// "\n\n" wins over a later ". " inside the same window.
	text := "First para.\n\nSecond sentence. Third sentence goes on and on and on."
	chunks, err := Split(text, 40, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].Text != "First para." {
		t.Errorf("expected paragraph break to win, got %q", chunks[0].Text)
	}
}

func TestSplitCJKSentenceEnd(t *testing.T) {
	text := strings.Repeat("가", 15) + "。" + strings.Repeat("나", 30)
	chunks, err := Split(text, 20, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].Text != strings.Repeat("가", 15)+"。" {
		t.Errorf("expected break after 。, got %q", chunks[0].Text)
	}
}

func TestSplitCountsRunes(t *testing.T) {
	text := strings.Repeat("한", 600)
	chunks, err := Split(text, 500, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if n := utf8.RuneCountInString(chunks[0].Text); n != 500 {
		t.Errorf("expected 500 runes in first chunk, got %d", n)
	}
	if n := utf8.RuneCountInString(chunks[1].Text); n != 200 {
		t.Errorf("expected 200 runes in second chunk, got %d", n)
	}
}

func TestSplitInvariants(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	para := strings.Repeat(sentence, 7) + "\n\n"
	text := strings.Repeat(para, 12) + "Trailing words without a final break"

	configs := [][2]int{{500, 100}, {200, 50}, {64, 0}, {50, 49}, {1000, 10}}
	for _, cfg := range configs {
		chunks, err := Split(text, cfg[0], cfg[1])
		if err != nil {
			t.Fatalf("Split(%d,%d): %v", cfg[0], cfg[1], err)
		}
		if len(chunks) == 0 {
			t.Fatalf("Split(%d,%d): no chunks", cfg[0], cfg[1])
		}
		if chunks[0].Start != 0 {
			t.Errorf("Split(%d,%d): first chunk starts at %d", cfg[0], cfg[1], chunks[0].Start)
		}
		if last := chunks[len(chunks)-1]; last.End != utf8.RuneCountInString(text) {
			t.Errorf("Split(%d,%d): last chunk ends at %d", cfg[0], cfg[1], last.End)
		}
		for i, c := range chunks {
			if c.End-c.Start > cfg[0] {
				t.Errorf("Split(%d,%d): chunk %d spans %d runes", cfg[0], cfg[1], i, c.End-c.Start)
			}
			if c.Text == "" {
				t.Errorf("Split(%d,%d): chunk %d is empty", cfg[0], cfg[1], i)
			}
			if i == 0 {
				continue
			}
			prev := chunks[i-1]
			if c.Start <= prev.Start {
				t.Errorf("Split(%d,%d): start %d does not increase past %d", cfg[0], cfg[1], c.Start, prev.Start)
			}
			if c.Start > prev.End {
				t.Errorf("Split(%d,%d): gap between %d and %d", cfg[0], cfg[1], prev.End, c.Start)
			}
		}
	}
}

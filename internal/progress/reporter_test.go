package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewCIReporter(&buf)

	r.Start(3, "Embedding chunks")
	r.Update(1, "")
	r.Update(3, "batch 2")
	r.Finish()

	want := []string{
		"Embedding chunks: 3 item(s)",
		"[1/3] Embedding chunks",
		"[3/3] batch 2",
		"Embedding chunks: done",
	}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNopReporter(t *testing.T) {
	var r Reporter = Nop{}
	r.Start(10, "x")
	r.Update(5, "y")
	r.Finish()
}

package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaEmbedderEmbed(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out := embedResponse{}
		for i := range got.Input {
			out.Embeddings = append(out.Embeddings, []float32{float32(i), 1, 0})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 3, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 1 {
		t.Errorf("unexpected vectors: %v", vecs)
	}
	if got.Model != "nomic-embed-text" || len(got.Input) != 2 || !got.Truncate {
		t.Errorf("unexpected request: %+v", got)
	}
	if e.Name() != "ollama/nomic-embed-text" || e.Dimensions() != 3 {
		t.Errorf("unexpected identity %q/%d", e.Name(), e.Dimensions())
	}
}

func TestOllamaEmbedderEmptyInput(t *testing.T) {
	e := NewOllamaEmbedder("m", 3, "http://127.0.0.1:1")
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("expected no call for empty input, got %v, %v", vecs, err)
	}
}

func TestOllamaEmbedderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"error body", http.StatusNotFound, `{"error":"model not found"}`, "model not found (status 404)"},
		{"plain body", http.StatusBadGateway, "upstream down", "upstream down (status 502)"},
		{"short response", http.StatusOK, `{"embeddings":[[1,2,3]]}`, "got 1 vectors for 2 inputs"},
		{"bad json", http.StatusOK, `{"embeddings":`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaEmbedder("m", 3, srv.URL).Embed(context.Background(), []string{"a", "b"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOllamaHostURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "http://localhost:11434"},
		{"0.0.0.0:11434", "http://0.0.0.0:11434"},
		{"https://ollama.example.com/", "https://ollama.example.com"},
		{"http://10.0.0.5:8080", "http://10.0.0.5:8080"},
	}
	for _, tt := range tests {
		if got := ollamaHostURL(tt.in); got != tt.want {
			t.Errorf("ollamaHostURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

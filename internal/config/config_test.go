package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 100 {
		t.Errorf("expected chunking 500/100, got %d/%d", cfg.Chunking.Size, cfg.Chunking.Overlap)
	}
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("expected default batch size 100, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("expected default top_k 5, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.MaxContextChars != 4000 {
		t.Errorf("expected default max_context_chars 4000, got %d", cfg.Retrieval.MaxContextChars)
	}
	if !cfg.OCR.Enabled || cfg.OCR.UseGPU {
		t.Errorf("expected OCR enabled without GPU by default, got %+v", cfg.OCR)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.docrag.yml")

	original := DefaultConfig()
	original.Provider = ProviderAnthropic
	original.Model = "claude-sonnet-4-5-20250929"
	original.DocumentsDir = "kb/docs"
	original.Chunking.Size = 800
	original.Chunking.Overlap = 150
	original.OCR.Engine = OCRTesseract
	original.Include = []string{"**/*.docx"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.DocumentsDir != original.DocumentsDir {
		t.Errorf("documents_dir: got %q, want %q", loaded.DocumentsDir, original.DocumentsDir)
	}
	if loaded.Chunking != original.Chunking {
		t.Errorf("chunking: got %+v, want %+v", loaded.Chunking, original.Chunking)
	}
	if loaded.OCR.Engine != OCRTesseract {
		t.Errorf("ocr.engine: got %q, want %q", loaded.OCR.Engine, OCRTesseract)
	}
	if len(loaded.Include) != 1 || loaded.Include[0] != "**/*.docx" {
		t.Errorf("include: got %v", loaded.Include)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("DOCRAG_PROVIDER", "ollama")
	t.Setenv("DOCRAG_RETRIEVAL__TOP_K", "9")
	t.Setenv("DOCRAG_OCR__ENABLED", "false")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOllama {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOllama)
	}
	if loaded.Retrieval.TopK != 9 {
		t.Errorf("nested env override failed: got top_k %d, want 9", loaded.Retrieval.TopK)
	}
	if loaded.OCR.Enabled {
		t.Error("expected ocr.enabled=false from env")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"DOCRAG_PROVIDER", "provider"},
		{"DOCRAG_DB_PATH", "db_path"},
		{"DOCRAG_CHUNKING__SIZE", "chunking.size"},
		{"DOCRAG_OCR__USE_GPU", "ocr.use_gpu"},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty provider", func(c *Config) { c.Provider = "" }, true},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }, true},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"anthropic embeddings", func(c *Config) { c.EmbeddingProvider = ProviderAnthropic }, true},
		{"empty documents dir", func(c *Config) { c.DocumentsDir = "" }, true},
		{"empty db path", func(c *Config) { c.DBPath = "" }, true},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }, true},
		{"overlap equals size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, true},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }, true},
		{"zero batch size", func(c *Config) { c.Embedding.BatchSize = 0 }, true},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }, true},
		{"bad ocr engine", func(c *Config) { c.OCR.Engine = "magic" }, true},
		{"bad ocr engine but disabled", func(c *Config) { c.OCR.Enabled = false; c.OCR.Engine = "magic" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolvedEmbedding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderAnthropic
	cfg.EmbeddingProvider = ""
	cfg.EmbeddingModel = ""

	provider, model := cfg.ResolvedEmbedding()
	if provider != ProviderOpenAI {
		t.Errorf("expected anthropic to fall back to openai embeddings, got %q", provider)
	}
	if model != "text-embedding-3-small" {
		t.Errorf("expected preset embedding model, got %q", model)
	}

	cfg.EmbeddingProvider = ProviderOllama
	provider, model = cfg.ResolvedEmbedding()
	if provider != ProviderOllama || model != "nomic-embed-text" {
		t.Errorf("got %q/%q, want ollama/nomic-embed-text", provider, model)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.pdf", []string{"**/*.pdf"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}

package config

// ProviderPreset describes the default models for a provider.
type ProviderPreset struct {
	Model          string
	EmbeddingModel string
}

// providerPresets maps each provider to its default chat and embedding models.
var providerPresets = map[ProviderType]ProviderPreset{
	ProviderOpenAI:    {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderAnthropic: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-small"},
	ProviderGoogle:    {Model: "gemini-2.5-flash", EmbeddingModel: "gemini-embedding-001"},
	ProviderOllama:    {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultIncludes are the document globs indexed by default.
var DefaultIncludes = []string{
	"**/*.docx",
	"**/*.md",
	"**/*.markdown",
	"**/*.txt",
	"**/*.html",
	"**/*.htm",
}

// DefaultExcludes are glob patterns never indexed.
var DefaultExcludes = []string{
	".git/**",
	"**/node_modules/**",
	"**/.DS_Store",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DocumentsDir:      "data/documents",
		ImagesDir:         "data/images",
		DBPath:            "vectordb",
		Collection:        "rag_documents",
		HistoryDB:         ".docrag/history.db",
		Include:           DefaultIncludes,
		Exclude:           DefaultExcludes,
		Chunking: ChunkingConfig{
			Size:    500,
			Overlap: 100,
		},
		Embedding: EmbeddingConfig{
			BatchSize: 100,
		},
		Retrieval: RetrievalConfig{
			TopK:            5,
			MaxContextChars: 4000,
		},
		Generation: GenerationConfig{
			MaxTokens:   1000,
			Temperature: 0.3,
		},
		OCR: OCRConfig{
			Enabled:   true,
			UseGPU:    false,
			Engine:    OCREasyOCR,
			Languages: []string{"ko", "en"},
			Model:     "gpt-4o-mini",
		},
		Server: ServerConfig{
			Port: 8501,
		},
		LogLevel: "info",
	}
}

// GetPreset returns the default models for the given provider.
// Returns the OpenAI preset if the provider is unknown.
func GetPreset(provider ProviderType) ProviderPreset {
	if preset, ok := providerPresets[provider]; ok {
		return preset
	}
	return providerPresets[ProviderOpenAI]
}

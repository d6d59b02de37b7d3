package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// OCREngine selects the OCR backend used for images extracted from documents.
type OCREngine string

const (
	OCREasyOCR   OCREngine = "easyocr"
	OCRTesseract OCREngine = "tesseract"
	OCROpenAI    OCREngine = "openai"
)

// Config is the top-level docrag configuration, corresponding to .docrag.yml.
type Config struct {
	Provider          ProviderType     `yaml:"provider" koanf:"provider"`
	Model             string           `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType     `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string           `yaml:"embedding_model" koanf:"embedding_model"`
	DocumentsDir      string           `yaml:"documents_dir" koanf:"documents_dir"`
	ImagesDir         string           `yaml:"images_dir" koanf:"images_dir"`
	DBPath            string           `yaml:"db_path" koanf:"db_path"`
	Collection        string           `yaml:"collection" koanf:"collection"`
	HistoryDB         string           `yaml:"history_db" koanf:"history_db"`
	Include           []string         `yaml:"include" koanf:"include"`
	Exclude           []string         `yaml:"exclude" koanf:"exclude"`
	Chunking          ChunkingConfig   `yaml:"chunking" koanf:"chunking"`
	Embedding         EmbeddingConfig  `yaml:"embedding" koanf:"embedding"`
	Retrieval         RetrievalConfig  `yaml:"retrieval" koanf:"retrieval"`
	Generation        GenerationConfig `yaml:"generation" koanf:"generation"`
	OCR               OCRConfig        `yaml:"ocr" koanf:"ocr"`
	Server            ServerConfig     `yaml:"server" koanf:"server"`
	LogLevel          string           `yaml:"log_level" koanf:"log_level"`
}

// ChunkingConfig controls how document text is split, in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// EmbeddingConfig controls embedding batch size and request pacing.
type EmbeddingConfig struct {
	BatchSize         int `yaml:"batch_size" koanf:"batch_size"`
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// RetrievalConfig controls how many chunks are retrieved and how much of them
// ends up in the prompt.
type RetrievalConfig struct {
	TopK            int `yaml:"top_k" koanf:"top_k"`
	MaxContextChars int `yaml:"max_context_chars" koanf:"max_context_chars"`
}

// GenerationConfig holds answer generation parameters.
type GenerationConfig struct {
	MaxTokens         int     `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature       float64 `yaml:"temperature" koanf:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// OCRConfig holds OCR settings. UseGPU is passed through to engines that support it.
type OCRConfig struct {
	Enabled   bool      `yaml:"enabled" koanf:"enabled"`
	UseGPU    bool      `yaml:"use_gpu" koanf:"use_gpu"`
	Engine    OCREngine `yaml:"engine" koanf:"engine"`
	Languages []string  `yaml:"languages" koanf:"languages"`
	Command   string    `yaml:"command" koanf:"command"` // overrides the engine binary path
	Model     string    `yaml:"model" koanf:"model"`     // vision model for the openai engine
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

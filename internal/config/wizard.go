package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docrag! Let's configure your document index.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for answers",
		Items: []string{"openai", "anthropic", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = GetPreset(cfg.Provider).Model
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)
	cfg.EmbeddingModel = GetPreset(cfg.EmbeddingProvider).EmbeddingModel

	// 2. Directories.
	docsPrompt := promptui.Prompt{
		Label:   "Documents directory",
		Default: cfg.DocumentsDir,
	}
	if cfg.DocumentsDir, err = docsPrompt.Run(); err != nil {
		return nil, fmt.Errorf("documents dir: %w", err)
	}

	dbPrompt := promptui.Prompt{
		Label:   "Vector database directory",
		Default: cfg.DBPath,
	}
	if cfg.DBPath, err = dbPrompt.Run(); err != nil {
		return nil, fmt.Errorf("db path: %w", err)
	}

	// 3. OCR.
	ocrPrompt := promptui.Select{
		Label: "OCR for images inside documents",
		Items: []string{
			"easyocr (local, Korean + English)",
			"tesseract (local)",
			"openai (vision model)",
			"disabled",
		},
	}
	ocrIdx, _, err := ocrPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("ocr selection: %w", err)
	}
	engines := []OCREngine{OCREasyOCR, OCRTesseract, OCROpenAI}
	if ocrIdx < len(engines) {
		cfg.OCR.Enabled = true
		cfg.OCR.Engine = engines[ocrIdx]
	} else {
		cfg.OCR.Enabled = false
	}

	// 4. Extra include patterns.
	includePrompt := promptui.Prompt{
		Label:   "Extra include patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	if extra := splitAndTrim(includeStr); len(extra) > 0 {
		cfg.Include = append(append([]string{}, DefaultIncludes...), extra...)
	}

	// Check for API keys.
	for _, p := range []ProviderType{cfg.Provider, cfg.EmbeddingProvider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment (or .env) before running docrag index.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. Anthropic has no embedding API, so it falls back to OpenAI.
func embeddingProviderFor(p ProviderType) ProviderType {
	if embeddingProviders[p] {
		return p
	}
	return ProviderOpenAI
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}

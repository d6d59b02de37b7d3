package ocr

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/docrag/internal/config"
)

// NewFromConfig builds the configured OCR engine. useGPU overrides the
// config value for engines that support it.
func NewFromConfig(cfg config.OCRConfig, useGPU bool) (Extractor, error) {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"ko", "en"}
	}

	switch cfg.Engine {
	case config.OCREasyOCR, "":
		return &EasyOCR{
			Command:   commandOr(cfg.Command, "easyocr"),
			Languages: langs,
			UseGPU:    useGPU,
			Run:       ExecRunner,
		}, nil
	case config.OCRTesseract:
		return &Tesseract{
			Command:   commandOr(cfg.Command, "tesseract"),
			Languages: langs,
			Run:       ExecRunner,
		}, nil
	case config.OCROpenAI:
		key := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if key == "" {
			return nil, fmt.Errorf("ocr engine openai requires %s", config.APIKeyEnvVar(config.ProviderOpenAI))
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewVision(key, model, os.Getenv("OPENAI_BASE_URL")), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
	}
}

func commandOr(cmd, fallback string) string {
	if cmd != "" {
		return cmd
	}
	return fallback
}

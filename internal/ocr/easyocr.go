package ocr

import (
	"context"
	"fmt"
	"strings"
)

// EasyOCR shells out to the easyocr command line tool.
type EasyOCR struct {
	Command   string
	Languages []string
	UseGPU    bool
	Run       Runner
}

func (e *EasyOCR) Name() string { return "easyocr" }

func (e *EasyOCR) args(imagePath string) []string {
	gpu := "False"
	if e.UseGPU {
		gpu = "True"
	}
	args := []string{"-l"}
	args = append(args, e.Languages...)
	return append(args, "-f", imagePath, "--detail", "0", "--gpu", gpu)
}

func (e *EasyOCR) ExtractText(ctx context.Context, imagePath string) (string, error) {
	out, err := e.Run(ctx, e.Command, e.args(imagePath)...)
	if err != nil {
		return "", fmt.Errorf("easyocr %s: %w", imagePath, err)
	}
	return joinLines(out), nil
}

// tesseractLangs maps ISO 639-1 codes to tesseract traineddata names.
var tesseractLangs = map[string]string{
	"en": "eng",
	"ko": "kor",
	"ja": "jpn",
	"zh": "chi_sim",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
}

// Tesseract shells out to the tesseract command line tool.
type Tesseract struct {
	Command   string
	Languages []string
	Run       Runner
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) langArg() string {
	var langs []string
	for _, l := range t.Languages {
		if mapped, ok := tesseractLangs[l]; ok {
			l = mapped
		}
		langs = append(langs, l)
	}
	return strings.Join(langs, "+")
}

func (t *Tesseract) ExtractText(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout"}
	if lang := t.langArg(); lang != "" {
		args = append(args, "-l", lang)
	}
	out, err := t.Run(ctx, t.Command, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w", imagePath, err)
	}
	return joinLines(out), nil
}

// Package ocr extracts text from images produced by document parsing.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/phuslu/log"
)

// Extractor reads the text in a single image. An image without text yields
// an empty string and no error.
type Extractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
	Name() string
}

// Runner executes an external command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec, folding stderr into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// ImageText is the text found in one image.
type ImageText struct {
	ImagePath string
	Text      string
}

// Failure records an image that could not be processed.
type Failure struct {
	ImagePath string
	Err       error
}

// ProgressFunc is called after each image.
type ProgressFunc func(done, total int)

// ProcessImages runs ex over every image. A failing image is logged and
// recorded without stopping the batch; images with no text are dropped.
// Cancellation stops the loop and returns what was collected.
func ProcessImages(ctx context.Context, ex Extractor, paths []string, progress ProgressFunc) ([]ImageText, []Failure) {
	var (
		texts    []ImageText
		failures []Failure
	)
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			for _, rest := range paths[i:] {
				failures = append(failures, Failure{ImagePath: rest, Err: err})
			}
			break
		}

		text, err := ex.ExtractText(ctx, p)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("image", p).Str("engine", ex.Name()).Msg("ocr failed")
			failures = append(failures, Failure{ImagePath: p, Err: err})
		case strings.TrimSpace(text) != "":
			texts = append(texts, ImageText{
				ImagePath: p,
				Text:      strings.TrimSpace(text),
			})
		}
		if progress != nil {
			progress(i+1, len(paths))
		}
	}
	return texts, failures
}

// joinLines joins non-empty output lines with single spaces.
func joinLines(out []byte) string {
	var parts []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

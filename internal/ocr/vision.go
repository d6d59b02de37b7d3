package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const visionPrompt = "Transcribe all text visible in this image exactly as written. " +
	"Preserve the original language. Reply with the text only. " +
	"If the image contains no text, reply with an empty message."

// Vision extracts text with an OpenAI vision-capable chat model.
type Vision struct {
	client *openai.Client
	model  string
}

// NewVision creates a vision extractor. A non-empty baseURL targets an
// OpenAI-compatible endpoint.
func NewVision(apiKey, model, baseURL string) *Vision {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Vision{client: openai.NewClientWithConfig(cfg), model: model}
}

func (v *Vision) Name() string { return "openai" }

func (v *Vision) ExtractText(ctx context.Context, imagePath string) (string, error) {
	uri, err := dataURI(imagePath)
	if err != nil {
		return "", err
	}

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: visionPrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    uri,
					Detail: openai.ImageURLDetailHigh,
				}},
			},
		}},
		MaxTokens: 2048,
	})
	if err != nil {
		return "", fmt.Errorf("vision ocr %s: %w", imagePath, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision ocr %s: no choices returned", imagePath)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func dataURI(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(imagePath)))
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

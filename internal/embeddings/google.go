package embeddings

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleModel represents a supported Google embedding model.
type GoogleModel string

const (
	ModelGeminiEmbedding001 GoogleModel = "gemini-embedding-001"
)

// defaultGoogleDimensions is requested explicitly so stored vectors stay the
// same size if the model default changes.
const defaultGoogleDimensions = 768

// GoogleEmbedder generates embeddings through the Gemini API.
type GoogleEmbedder struct {
	client     *genai.Client
	model      GoogleModel
	dimensions int
}

// NewGoogleEmbedder creates a Gemini embedder.
func NewGoogleEmbedder(ctx context.Context, apiKey string, model GoogleModel) (*GoogleEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize genai client: %w", err)
	}
	return &GoogleEmbedder{
		client:     client,
		model:      model,
		dimensions: defaultGoogleDimensions,
	}, nil
}

func (e *GoogleEmbedder) Name() string {
	return string(e.model)
}

func (e *GoogleEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	outputDim := int32(e.dimensions)
	result, err := e.client.Models.EmbedContent(ctx, string(e.model), contents, &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: &outputDim,
	})
	if err != nil {
		return nil, fmt.Errorf("google embedding request failed: %w", err)
	}

	out := make([][]float32, 0, len(result.Embeddings))
	for _, emb := range result.Embeddings {
		if emb == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, emb.Values)
	}
	return out, nil
}

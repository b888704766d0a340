package service

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// EmbeddingService generates fixed-length embeddings through an
// OpenAI-compatible API. The same model embeds chunks at ingestion and
// questions at query time; embedding-space consistency depends on that.
type EmbeddingService struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	log        *logrus.Entry
}

func NewEmbeddingService(apiKey, baseURL, model string, dimensions int, log *logrus.Logger) *EmbeddingService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if dimensions == 0 {
		dimensions = 1536
	}
	return &EmbeddingService{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
		log:        log.WithField("component", "embedding"),
	}
}

// EmbedTexts embeds a batch of texts, preserving input order.
func (s *EmbeddingService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      s.model,
		Dimensions: s.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}

// EmbedQuery embeds a single question.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// Dimensions returns the embedding width.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

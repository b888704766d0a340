package service

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ChatMessage is one prompt message for the generation collaborator.
type ChatMessage struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TokenStream yields answer tokens one at a time. Recv returns io.EOF when
// the stream is exhausted. There is no cancellation primitive; a caller
// that stops pulling has cancelled.
type TokenStream interface {
	Recv() (string, error)
}

// Generator produces a lazy, finite token stream for a prompt.
type Generator interface {
	Stream(ctx context.Context, messages []ChatMessage) (TokenStream, error)
}

// GenerationService drives an OpenAI-compatible chat completion API in
// streaming mode.
type GenerationService struct {
	client *openai.Client
	model  string
	log    *logrus.Entry
}

func NewGenerationService(apiKey, baseURL, model string, log *logrus.Logger) *GenerationService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &GenerationService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log.WithField("component", "generation"),
	}
}

func (s *GenerationService) Stream(ctx context.Context, messages []ChatMessage) (TokenStream, error) {
	req := openai.ChatCompletionRequest{
		Model:    s.model,
		Stream:   true,
		Messages: make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	stream, err := s.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("starting completion stream: %w", err)
	}
	return &openaiTokenStream{stream: stream}, nil
}

type openaiTokenStream struct {
	stream *openai.ChatCompletionStream
}

// Recv skips empty deltas so every token forwarded downstream carries text.
func (t *openaiTokenStream) Recv() (string, error) {
	for {
		resp, err := t.stream.Recv()
		if err != nil {
			t.stream.Close()
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

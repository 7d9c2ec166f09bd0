package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/d60-Lab/creation-studio/config"
)

// OpenAITextGenerator talks to any OpenAI-compatible chat completion endpoint.
type OpenAITextGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAITextGenerator(cfg config.TextGenConfig) *OpenAITextGenerator {
	occ := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		occ.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return &OpenAITextGenerator{
		client:      openai.NewClientWithConfig(occ),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (g *OpenAITextGenerator) Generate(ctx context.Context, req TextRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

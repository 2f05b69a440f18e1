// Package ai calls an OpenAI-compatible API for text, image and embedding
// generation. Nothing here keeps state between calls.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyResponse = errors.New("model returned no output")

type Client struct {
	api            *openai.Client
	chatModel      string
	imageModel     string
	embeddingModel string
}

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	ImageModel     string
	EmbeddingModel string
	Timeout        time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:            openai.NewClientWithConfig(apiCfg),
		chatModel:      cfg.ChatModel,
		imageModel:     cfg.ImageModel,
		embeddingModel: cfg.EmbeddingModel,
	}
}

// Complete sends a single user prompt and returns the model's reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Image generates one image for the prompt and returns its encoded bytes.
func (c *Client) Image(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          c.imageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image generation: %w", ErrEmptyResponse)
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Embed returns the embedding vector of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("create embedding: %w", ErrEmptyResponse)
	}
	return resp.Data[0].Embedding, nil
}

// Package gemini adapts the Google Gemini API to the embedding and
// generation interfaces the rest of the system consumes.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/ragvault/ragvault/internal/log"
)

// outputDimensionality pins embedding width to match the vector(768)
// schema column regardless of the model's native size.
const outputDimensionality int32 = 768

// Client wraps the genai SDK for a fixed pair of models.
type Client struct {
	client      *genai.Client
	embedModel  string
	genModel    string
	temperature float32
	logger      log.Logger
}

type Config struct {
	APIKey        string
	EmbedModel    string
	GenerateModel string
	Temperature   float32
}

func New(ctx context.Context, cfg Config, logger log.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{
		client:      client,
		embedModel:  cfg.EmbedModel,
		genModel:    cfg.GenerateModel,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := outputDimensionality
	resp, err := c.client.Models.EmbedContent(ctx, c.embedModel,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: &dim},
	)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response from %s", c.embedModel)
	}
	return resp.Embeddings[0].Values, nil
}

// Generate produces a completion for prompt. The temperature argument
// overrides the configured default when non-negative.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	temp := c.temperature
	if temperature >= 0 {
		temp = temperature
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.genModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: &temp},
	)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty generation response from %s", c.genModel)
	}
	return text, nil
}

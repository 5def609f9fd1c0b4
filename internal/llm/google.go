package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GoogleProvider calls the Gemini API. Streaming is not supported; requests
// asking for it degrade to a single response.
type GoogleProvider struct {
	client *genai.Client
}

func NewGoogleProvider(ctx context.Context, apiKey string) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google provider: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("google provider: %w", err)
	}
	return &GoogleProvider{client: client}, nil
}

func (p *GoogleProvider) Complete(ctx context.Context, req Request, _ func(string)) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		if m.Role == "system" {
			// Gemini carries the role prompt as a system instruction.
			cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("google completion: %w", err)
	}
	return resp.Text(), nil
}

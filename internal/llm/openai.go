package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey)}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request, onChunk func(string)) (string, error) {
	ccr := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if !req.Stream {
		resp, err := p.client.CreateChatCompletion(ctx, ccr)
		if err != nil {
			return "", fmt.Errorf("openai completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai completion: no choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	}

	ccr.Stream = true
	stream, err := p.client.CreateChatCompletionStream(ctx, ccr)
	if err != nil {
		return "", fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()

	// Chunks are flushed to the sink on paragraph boundaries, matching how
	// partial report text is pushed to clients.
	var full, paragraph strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("openai stream recv: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		full.WriteString(delta)
		paragraph.WriteString(delta)
		if strings.Contains(paragraph.String(), "\n") {
			onChunk(paragraph.String())
			paragraph.Reset()
		}
	}
	if paragraph.Len() > 0 {
		onChunk(paragraph.String())
	}
	return full.String(), nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "system" {
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

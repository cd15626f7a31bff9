package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/slide-review/internal/domain/ai"
	"github.com/bryanwahyu/slide-review/internal/domain/reviews"
	"github.com/bryanwahyu/slide-review/internal/infra/ai/prompt"
)

const maxTokens = 4096

// Client is the external analysis strategy backed by the OpenAI chat API.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// Label reports the concrete model name recorded on the analysis row.
func (c *Client) Label() string {
	if c.Model == "" {
		return "gpt-4o-mini"
	}
	return c.Model
}

func (c *Client) Analyze(ctx context.Context, deckText, rules string) ([]reviews.Finding, error) {
	model := c.Label()
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(deckText, rules)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, domai.ErrQuotaExceeded
		}
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return prompt.DecodeFindings(resp.Choices[0].Message.Content)
}

package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alnah/podscribe/internal/apierr"
)

// OpenAI chat completion configuration.
const (
	defaultOpenAIModel = "gpt-4.1-mini"

	// schemaName labels the structured-output constraint in requests.
	schemaName = "formatted_transcript"

	providerOpenAI = "openai"
)

// chatCompleter abstracts the go-openai client for testing.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance check.
var _ Generator = (*OpenAIClient)(nil)

// OpenAIClient generates text with OpenAI's chat completion API.
// Requests carrying a Schema use strict structured output.
type OpenAIClient struct {
	client chatCompleter
	settings
}

// NewOpenAIClient creates a new OpenAIClient.
// Returns nil and ErrEmptyAPIKey if apiKey is empty.
func NewOpenAIClient(apiKey string, opts ...Option) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	s := newSettings(defaultOpenAIModel, "", opts)
	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	if s.httpClient != nil {
		cfg.HTTPClient = s.httpClient
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), settings: s}, nil
}

// Generate sends req and returns the first choice's message content.
// Automatically retries on transient errors (rate limits, timeouts, server errors).
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	ccReq := openai.ChatCompletionRequest{
		Model:               c.model,
		MaxCompletionTokens: c.tokensFor(req),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.Schema != nil {
		ccReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: req.Schema,
				Strict: true,
			},
		}
	}

	return c.withRetry(ctx, providerOpenAI, func(ctx context.Context) (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, ccReq)
		if err != nil {
			return "", classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}

		choice := resp.Choices[0]
		if choice.FinishReason == openai.FinishReasonLength {
			c.logger.Warn("output truncated at token cap",
				zap.String("provider", providerOpenAI),
				zap.Int("max_tokens", ccReq.MaxCompletionTokens))
		}
		c.logger.Debug("usage",
			zap.String("provider", providerOpenAI),
			zap.Int("input_tokens", resp.Usage.PromptTokens),
			zap.Int("output_tokens", resp.Usage.CompletionTokens))

		if strings.TrimSpace(choice.Message.Content) == "" {
			return "", ErrEmptyResponse
		}
		return choice.Message.Content, nil
	})
}

// classifyOpenAIError maps go-openai errors to apierr sentinels.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		// OpenAI reports exhausted billing as 429; retrying cannot help.
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests &&
			(strings.Contains(apiErr.Message, "quota") || strings.Contains(apiErr.Message, "billing")) {
			return fmt.Errorf("%w: %w", err, apierr.ErrQuotaExceeded)
		}
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	return classifyTransport(err)
}

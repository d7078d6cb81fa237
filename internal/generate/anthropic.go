package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/podscribe/internal/apierr"
)

// Anthropic Messages API configuration.
const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-sonnet-4-5"
	anthropicVersion        = "2023-06-01"

	providerAnthropic = "anthropic"
)

// Compile-time interface compliance check.
var _ Generator = (*AnthropicClient)(nil)

// AnthropicClient generates text with Anthropic's Messages API.
// It supports automatic retries with exponential backoff for transient errors.
type AnthropicClient struct {
	apiKey string
	settings
}

// NewAnthropicClient creates a new AnthropicClient.
// Returns nil and ErrEmptyAPIKey if apiKey is empty.
func NewAnthropicClient(apiKey string, opts ...Option) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	s := newSettings(defaultAnthropicModel, defaultAnthropicBaseURL, opts)
	if s.httpClient == nil {
		// Attempt deadlines come from the context, not the client.
		s.httpClient = &http.Client{}
	}
	return &AnthropicClient{apiKey: apiKey, settings: s}, nil
}

// Generate sends req and returns the concatenated text blocks of the reply.
// Automatically retries on transient errors (rate limits, timeouts, server errors).
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	body := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.tokensFor(req),
		System:    req.System,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.User},
		},
	}

	return c.withRetry(ctx, providerAnthropic, func(ctx context.Context) (string, error) {
		resp, err := c.callAPI(ctx, body)
		if err != nil {
			return "", classifyAnthropicError(err)
		}

		if resp.StopReason == "max_tokens" {
			c.logger.Warn("output truncated at token cap",
				zap.String("provider", providerAnthropic),
				zap.Int("max_tokens", body.MaxTokens))
		}
		c.logger.Debug("usage",
			zap.String("provider", providerAnthropic),
			zap.Int("input_tokens", resp.Usage.InputTokens),
			zap.Int("output_tokens", resp.Usage.OutputTokens))

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		if sb.Len() == 0 {
			return "", ErrEmptyResponse
		}
		return sb.String(), nil
	})
}

// anthropicRequest represents a Messages API request.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

// anthropicMessage represents a message in the conversation.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse represents a Messages API response.
type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// anthropicErrorResponse represents an error response from the Messages API.
type anthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// callAPI makes an HTTP request to the Messages API.
func (c *AnthropicClient) callAPI(ctx context.Context, reqBody anthropicRequest) (_ *anthropicResponse, err error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	// Limit response size to prevent OOM from malformed responses
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAnthropicError(resp.StatusCode, respBody)
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		// A 200 with an unparseable body is a truncated or proxied response.
		return nil, fmt.Errorf("failed to parse response: %w: %w", err, apierr.ErrTransport)
	}
	return &result, nil
}

// parseAnthropicError parses an error response from the Messages API.
func parseAnthropicError(statusCode int, body []byte) *APIError {
	var errResp anthropicErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return &APIError{
			Provider:   providerAnthropic,
			StatusCode: statusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return &APIError{
		Provider:   providerAnthropic,
		StatusCode: statusCode,
		Type:       errResp.Error.Type,
		Message:    errResp.Error.Message,
	}
}

// classifyAnthropicError maps Messages API errors to apierr sentinels.
func classifyAnthropicError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type == "overloaded_error" && apiErr.StatusCode < 500 {
			return fmt.Errorf("%w: %w", err, apierr.ErrServer)
		}
		return classifyStatus(apiErr.StatusCode, err)
	}
	return classifyTransport(err)
}

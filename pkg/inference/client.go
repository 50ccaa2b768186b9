// Package inference provides the HTTP implementation of the dispatcher's
// inference-client collaborator for OpenAI-compatible and Anthropic
// providers.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/dispatch"
	"github.com/tollgate-ai/tollgate/pkg/models"
)

const anthropicVersion = "2023-06-01"

// HTTPClient calls a single configured provider. Requests carry the caller's
// context, so deadlines and cancellation propagate to the wire.
type HTTPClient struct {
	cfg  config.ProviderConfig
	http *http.Client
}

// New creates an HTTPClient for the configured provider.
func New(cfg config.ProviderConfig) *HTTPClient {
	return &HTTPClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 120 * time.Second},
	}
}

// Invoke implements dispatch.InferenceClient.
func (c *HTTPClient) Invoke(ctx context.Context, modelID string, messages []models.ChatMessage, opts dispatch.InvokeOptions) (*models.InvokeResult, error) {
	if c.cfg.Type == "openai" {
		return c.invokeOpenAI(ctx, modelID, messages, opts)
	}
	return c.invokeAnthropic(ctx, modelID, messages, opts)
}

func (c *HTTPClient) invokeAnthropic(ctx context.Context, modelID string, messages []models.ChatMessage, opts dispatch.InvokeOptions) (*models.InvokeResult, error) {
	req := models.AnthropicRequest{
		Model:     modelID,
		Messages:  messages,
		MaxTokens: opts.MaxTokens,
	}
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := c.post(ctx, "/v1/messages", headers, req)
	if err != nil {
		return nil, err
	}

	var resp models.AnthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	result := &models.InvokeResult{Content: content.String()}
	if resp.Usage != nil {
		result.InputTokens = resp.Usage.InputTokens
		result.OutputTokens = resp.Usage.OutputTokens
	}
	return result, nil
}

func (c *HTTPClient) invokeOpenAI(ctx context.Context, modelID string, messages []models.ChatMessage, opts dispatch.InvokeOptions) (*models.InvokeResult, error) {
	req := models.ChatCompletionRequest{
		Model:       modelID,
		Messages:    messages,
		Temperature: opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = &opts.MaxTokens
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}

	body, err := c.post(ctx, "/v1/chat/completions", headers, req)
	if err != nil {
		return nil, err
	}

	var resp models.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	result := &models.InvokeResult{Content: resp.Choices[0].Message.Content}
	if resp.Usage != nil {
		result.InputTokens = resp.Usage.PromptTokens
		result.OutputTokens = resp.Usage.CompletionTokens
	}
	return result, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, headers map[string]string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.URL, "/")+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, fmt.Errorf("%s returned %d: %s", c.cfg.Name, resp.StatusCode, msg)
	}
	return body, nil
}

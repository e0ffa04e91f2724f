package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mrz1836/deepplan/internal/config"
)

// openaiProvider reviews plans through the OpenAI chat completions API or
// any compatible endpoint (LiteLLM, LocalAI) selected via OPENAI_BASE_URL.
type openaiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	cfg     config.LLMClientConfig
}

// newOpenAIProvider returns nil when no OpenAI API key is configured.
func newOpenAIProvider(session *config.Session, env Env) *openaiProvider {
	apiKey := env("OPENAI_API_KEY")
	if apiKey == "" {
		return nil
	}

	model := env("OPENAI_MODEL")
	if model == "" {
		model = session.Models.ChatGPT
	}

	baseURL := env("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &openaiProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: time.Duration(session.LLMClient.TimeoutSeconds) * time.Second},
		cfg:     session.LLMClient,
	}
}

func (o *openaiProvider) Name() string { return "openai" }

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

// Review runs one review call with the configured retry policy.
func (o *openaiProvider) Review(ctx context.Context, prompts Prompts) Result {
	analysis, err := callWithRetry(ctx, o.cfg, func() (string, error) {
		return o.complete(ctx, prompts)
	})
	if err != nil {
		return Result{Provider: o.Name(), Model: o.model, BaseURL: o.baseURL, Error: err.Error()}
	}
	return Result{
		Success:  true,
		Provider: o.Name(),
		Model:    o.model,
		BaseURL:  o.baseURL,
		Analysis: analysis,
	}
}

func (o *openaiProvider) complete(ctx context.Context, prompts Prompts) (string, error) {
	payload := openaiRequest{
		Model: o.model,
		Messages: []openaiMessage{
			{Role: "system", Content: prompts.System},
			{Role: "user", Content: prompts.User},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal openai request: %w", err)
	}

	url := o.baseURL
	if !strings.HasSuffix(url, "/chat/completions") {
		url += "/chat/completions"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: truncateBody(respBody)}
	}

	var parsed openaiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return parsed.Choices[0].Message.Content, nil
}

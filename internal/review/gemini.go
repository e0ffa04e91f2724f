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

// geminiProvider reviews plans through the Generative Language REST API.
type geminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	cfg     config.LLMClientConfig
}

// newGeminiProvider returns nil when no Gemini API key is configured.
func newGeminiProvider(session *config.Session, env Env) *geminiProvider {
	apiKey := env("GEMINI_API_KEY")
	if apiKey == "" {
		return nil
	}

	model := env("GEMINI_MODEL")
	if model == "" {
		model = session.Models.Gemini
	}

	baseURL := env("GEMINI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &geminiProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: time.Duration(session.LLMClient.TimeoutSeconds) * time.Second},
		cfg:     session.LLMClient,
	}
}

func (g *geminiProvider) Name() string { return "gemini" }

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Review runs one review call with the configured retry policy.
func (g *geminiProvider) Review(ctx context.Context, prompts Prompts) Result {
	analysis, err := callWithRetry(ctx, g.cfg, func() (string, error) {
		return g.generate(ctx, prompts)
	})
	if err != nil {
		return Result{Provider: g.Name(), Model: g.model, AuthMethod: "api_key", Error: err.Error()}
	}
	return Result{
		Success:    true,
		Provider:   g.Name(),
		Model:      g.model,
		AuthMethod: "api_key",
		Analysis:   analysis,
	}
}

func (g *geminiProvider) generate(ctx context.Context, prompts Prompts) (string, error) {
	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: prompts.System}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompts.User}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: truncateBody(respBody)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}

	var parts []string
	for _, part := range parsed.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// truncateBody bounds error bodies embedded in error messages.
func truncateBody(body []byte) string {
	const limit = 512
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

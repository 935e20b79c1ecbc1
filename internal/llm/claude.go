package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/metrics"
	"github.com/krug-analyzer/backend/pkg/logger"
)

const (
	claudeProviderName      = "claude"
	defaultClaudeBaseURL    = "https://api.anthropic.com"
	defaultClaudeAPIVersion = "2023-06-01"
	maxErrorBody            = 2048
)

type ClaudeProvider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	apiVersion string
	models     []string
	maxTokens  int
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type claudeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewClaudeProvider(httpClient *http.Client, apiKey, baseURL, apiVersion string, models []string, maxTokens int) *ClaudeProvider {
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	if apiVersion == "" {
		apiVersion = defaultClaudeAPIVersion
	}
	return &ClaudeProvider{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		models:     models,
		maxTokens:  maxTokens,
	}
}

func (p *ClaudeProvider) Name() string {
	return claudeProviderName
}

// Complete walks the model list in order. A 404 means the model is not
// available on this account and the next one is tried; any other failure
// ends the call.
func (p *ClaudeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	var lastModel string

	for _, model := range p.models {
		lastModel = model

		text, status, err := p.call(ctx, model, prompt)
		if err == nil {
			metrics.ProviderAttempts.WithLabelValues(claudeProviderName, model, "success").Inc()
			return text, nil
		}

		if status == http.StatusNotFound {
			metrics.ProviderAttempts.WithLabelValues(claudeProviderName, model, "not_found").Inc()
			logger.Warn("Claude model not found, trying next model",
				zap.String("model", model),
			)
			continue
		}

		metrics.ProviderAttempts.WithLabelValues(claudeProviderName, model, "error").Inc()
		return "", err
	}

	return "", &ProviderError{
		Provider:   claudeProviderName,
		Model:      lastModel,
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf("none of %d configured models are available", len(p.models)),
		Err:        ErrNoModelAvailable,
	}
}

func (p *ClaudeProvider) call(ctx context.Context, model, prompt string) (string, int, error) {
	body, err := json.Marshal(claudeRequest{
		Model:     model,
		MaxTokens: p.maxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", p.apiVersion)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, &ProviderError{Provider: claudeProviderName, Model: model, Err: err}
	}
	defer resp.Body.Close()

	metrics.ProviderLatency.WithLabelValues(claudeProviderName).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, &ProviderError{Provider: claudeProviderName, Model: model, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, &ProviderError{
			Provider:   claudeProviderName,
			Model:      model,
			StatusCode: resp.StatusCode,
			Message:    claudeErrorMessage(raw),
		}
	}

	var parsed claudeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", resp.StatusCode, &ParseError{Provider: claudeProviderName, Err: err}
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", resp.StatusCode, &ParseError{Provider: claudeProviderName, Err: ErrEmptyResponse}
	}

	metrics.LLMTokensUsed.WithLabelValues(model, "input").Add(float64(parsed.Usage.InputTokens))
	metrics.LLMTokensUsed.WithLabelValues(model, "output").Add(float64(parsed.Usage.OutputTokens))

	logger.Debug("Claude completion received",
		zap.String("model", model),
		zap.Int("input_tokens", parsed.Usage.InputTokens),
		zap.Int("output_tokens", parsed.Usage.OutputTokens),
	)

	return text.String(), resp.StatusCode, nil
}

func claudeErrorMessage(raw []byte) string {
	var body claudeErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

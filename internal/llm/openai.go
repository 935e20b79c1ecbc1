package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/metrics"
	"github.com/krug-analyzer/backend/pkg/logger"
)

const (
	openAIProviderName = "openai"
	defaultOpenAIModel = "gpt-4o"
)

type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIProvider(httpClient *http.Client, apiKey, baseURL, model string, maxTokens int, temperature float32) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (p *OpenAIProvider) Name() string {
	return openAIProviderName
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})

	metrics.ProviderLatency.WithLabelValues(openAIProviderName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProviderAttempts.WithLabelValues(openAIProviderName, p.model, "error").Inc()
		return "", p.wrapError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.ProviderAttempts.WithLabelValues(openAIProviderName, p.model, "empty").Inc()
		return "", &ParseError{Provider: openAIProviderName, Err: ErrEmptyResponse}
	}

	metrics.ProviderAttempts.WithLabelValues(openAIProviderName, p.model, "success").Inc()
	metrics.LLMTokensUsed.WithLabelValues(p.model, "input").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(p.model, "output").Add(float64(resp.Usage.CompletionTokens))

	logger.Debug("OpenAI completion received",
		zap.String("model", p.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   openAIProviderName,
			Model:      p.model,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Provider:   openAIProviderName,
			Model:      p.model,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}

	return &ProviderError{Provider: openAIProviderName, Model: p.model, Err: err}
}

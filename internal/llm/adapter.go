package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/circuitbreaker"
	"github.com/krug-analyzer/backend/pkg/logger"
	"github.com/krug-analyzer/backend/pkg/utils"
)

type Config struct {
	ClaudeBaseURL    string
	ClaudeModels     []string
	ClaudeAPIVersion string
	OpenAIBaseURL    string
	OpenAIModel      string
	MaxTokens        int
	Temperature      float32
	Timeout          time.Duration

	BreakerThreshold   uint32
	BreakerOpenTimeout time.Duration
}

var DefaultClaudeModels = []string{
	"claude-sonnet-4-20250514",
	"claude-3-7-sonnet-20250219",
	"claude-3-5-sonnet-20241022",
	"claude-3-5-haiku-20241022",
}

// Adapter sends a prompt to the provider chosen in the settings and returns
// the JSON object embedded in the reply. It makes one attempt per model.
type Adapter struct {
	cfg        Config
	httpClient *http.Client

	// Breakers are keyed per provider and API key so one caller's bad key
	// cannot open the circuit for everyone else.
	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
}

func NewAdapter(cfg Config) *Adapter {
	if len(cfg.ClaudeModels) == 0 {
		cfg.ClaudeModels = DefaultClaudeModels
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = time.Minute
	}

	logger.Info("LLM adapter initialized",
		zap.Strings("claude_models", cfg.ClaudeModels),
		zap.String("openai_model", cfg.OpenAIModel),
		zap.Int("max_tokens", cfg.MaxTokens),
	)

	return &Adapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breakers:   make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

func (a *Adapter) Provider(settings models.Settings) (Provider, error) {
	if settings.AIAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	switch settings.AIProvider {
	case models.ProviderClaude:
		return NewClaudeProvider(a.httpClient, settings.AIAPIKey, a.cfg.ClaudeBaseURL, a.cfg.ClaudeAPIVersion, a.cfg.ClaudeModels, a.cfg.MaxTokens), nil
	case models.ProviderOpenAI:
		return NewOpenAIProvider(a.httpClient, settings.AIAPIKey, a.cfg.OpenAIBaseURL, a.cfg.OpenAIModel, a.cfg.MaxTokens, a.cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, settings.AIProvider)
	}
}

func (a *Adapter) Analyze(ctx context.Context, prompt string, settings models.Settings) (map[string]any, error) {
	provider, err := a.Provider(settings)
	if err != nil {
		return nil, err
	}

	var raw map[string]any

	err = a.breaker(settings.AIProvider, settings.AIAPIKey).Execute(func() error {
		text, err := provider.Complete(ctx, prompt)
		if err != nil {
			return err
		}

		raw, err = ParseObject(provider.Name(), text)
		return err
	})
	if err != nil {
		logger.Warn("AI analysis failed",
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	return raw, nil
}

// ParseObject extracts and decodes the JSON object embedded in a completion.
func ParseObject(providerName, text string) (map[string]any, error) {
	span, ok := ExtractJSONObject(text)
	if !ok {
		return nil, &ParseError{Provider: providerName, Err: errors.New("no JSON object found in response")}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, &ParseError{Provider: providerName, Err: err}
	}

	return raw, nil
}

func (a *Adapter) breaker(p models.AIProvider, apiKey string) *circuitbreaker.CircuitBreaker {
	key := string(p) + ":" + utils.CacheKey(apiKey)

	a.mu.Lock()
	defer a.mu.Unlock()

	cb, ok := a.breakers[key]
	if !ok {
		cb = circuitbreaker.NewCircuitBreaker("llm-"+string(p), circuitbreaker.Config{
			FailureThreshold: a.cfg.BreakerThreshold,
			OpenTimeout:      a.cfg.BreakerOpenTimeout,
			IsFailure:        countsAgainstBreaker,
			Logger:           logger.GetLogger(),
		})
		a.breakers[key] = cb
	}
	return cb
}

// countsAgainstBreaker reports whether err says the provider itself is
// unhealthy. Caller mistakes (bad key, bad request) and unparseable replies
// do not count; rate limiting does.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return false
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		status := provErr.StatusCode
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return false
		}
	}

	return true
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Scraper   ScraperConfig
	History   HistoryConfig
	Defaults  DefaultsConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	Development    bool
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LLMConfig struct {
	ClaudeBaseURL    string
	ClaudeModels     []string
	ClaudeAPIVersion string
	OpenAIBaseURL    string
	OpenAIModel      string
	MaxTokens        int
	Temperature      float32
	TimeoutSec       int
}

type ScraperConfig struct {
	Backend         string
	FirecrawlURL    string
	// BrowserURL is a remote DevTools websocket; empty launches a local Chrome.
	BrowserURL      string
	OnlyMainContent bool
	CacheMaxAgeSec  int
	TimeoutSec      int
	UserAgent       string
}

type HistoryConfig struct {
	MaxEntries     int
	DedupWindowSec int
	FreshnessSec   int
}

// DefaultsConfig seeds the persisted Settings the first time the service runs.
type DefaultsConfig struct {
	AIProvider    string
	AnalysisDepth string
	IncludeMobile bool
	StealthMode   bool
	ScrapeAPIKey  string
	AIAPIKey      string
}

type RateLimitConfig struct {
	AnalyzePerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/krug-analyzer")

	v.SetEnvPrefix("KRUG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 180)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.development", false)

	v.SetDefault("sqlite.path", "./data/krug.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("llm.claudeBaseURL", "https://api.anthropic.com")
	v.SetDefault("llm.claudeModels", []string{
		"claude-sonnet-4-20250514",
		"claude-3-7-sonnet-20250219",
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
	})
	v.SetDefault("llm.claudeAPIVersion", "2023-06-01")
	v.SetDefault("llm.openAIBaseURL", "https://api.openai.com/v1")
	v.SetDefault("llm.openAIModel", "gpt-4o")
	v.SetDefault("llm.maxTokens", 8000)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeoutSec", 120)

	v.SetDefault("scraper.backend", "auto")
	v.SetDefault("scraper.firecrawlURL", "https://api.firecrawl.dev")
	v.SetDefault("scraper.browserURL", "")
	v.SetDefault("scraper.onlyMainContent", false)
	v.SetDefault("scraper.cacheMaxAgeSec", 3600)
	v.SetDefault("scraper.timeoutSec", 45)
	v.SetDefault("scraper.userAgent", "Mozilla/5.0 (compatible; KrugAnalyzer/1.0)")

	v.SetDefault("history.maxEntries", 50)
	v.SetDefault("history.dedupWindowSec", 60)
	v.SetDefault("history.freshnessSec", 300)

	v.SetDefault("defaults.aiProvider", "claude")
	v.SetDefault("defaults.analysisDepth", "standard")
	v.SetDefault("defaults.includeMobile", true)
	v.SetDefault("defaults.stealthMode", false)
	v.SetDefault("defaults.scrapeAPIKey", "")
	v.SetDefault("defaults.aiAPIKey", "")

	v.SetDefault("rateLimit.analyzePerMinute", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}

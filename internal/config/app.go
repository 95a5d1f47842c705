// Package config assembles the application configuration from the environment.
// Every setting falls back to its default when the variable is missing or
// invalid; Load only fails on combinations that cannot run at all.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"autoblog/internal/infra/cachestore"
	"autoblog/internal/infra/cachestore/redis"
	"autoblog/internal/infra/completion"
	"autoblog/internal/infra/storage"
	pkgconfig "autoblog/internal/pkg/config"
	"autoblog/internal/resilience/ratelimit"
	"autoblog/internal/resilience/retry"
	"autoblog/internal/usecase/generate"
)

// Config is the full application configuration.
type Config struct {
	LLM     LLMConfig
	Retry   RetryConfig
	Cache   CacheConfig
	HTTP    HTTPConfig
	Content ContentConfig

	// SEODataFile is the JSON keyword table. Created with defaults if missing.
	SEODataFile string
	// StorageDir receives the saved HTML posts.
	StorageDir string
}

// LLMConfig configures the completion provider and the generation façade.
type LLMConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration

	Temperature    float64
	TitleMaxTokens int
	PostMaxTokens  int

	// Offline serves deterministic placeholders instead of calling the provider.
	Offline bool
	// OfflineForced is set when Offline was switched on because no key was configured.
	OfflineForced bool
	// FallbackOnFailure substitutes placeholders when the provider fails.
	FallbackOnFailure bool

	RateLimitMode  string
	CallsPerMinute int
	Burst          int
}

// RetryConfig configures backoff around completion calls.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Base         float64
	Jitter       float64
	MaxDelay     time.Duration
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Backend         string
	TTL             time.Duration
	FallbackTTL     time.Duration
	CleanupInterval time.Duration
	SQLitePath      string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisNamespace  string
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string
	RequestTimeout  time.Duration
	MaxBodyBytes    int
	IPRateLimit     int
	IPRateWindow    time.Duration
	DebugEndpoints  bool
	ShutdownTimeout time.Duration
}

// ContentConfig holds what the home page and the scheduled job write about.
type ContentConfig struct {
	DefaultTopic    string
	DefaultKeywords []string
	PromptsFile     string
}

// Defaults returns the configuration used when the environment is empty.
func Defaults() Config {
	rc := retry.AIAPIConfig()
	gc := generate.DefaultConfig()
	redisDefaults := redis.DefaultConfig()
	return Config{
		LLM: LLMConfig{
			Provider:          completion.ProviderOpenAI,
			Timeout:           20 * time.Second,
			Temperature:       gc.Temperature,
			TitleMaxTokens:    gc.TitleMaxTokens,
			PostMaxTokens:     gc.PostMaxTokens,
			FallbackOnFailure: gc.FallbackOnFailure,
			RateLimitMode:     string(ratelimit.ModeInterval),
			CallsPerMinute:    60,
			Burst:             1,
		},
		Retry: RetryConfig{
			MaxAttempts:  rc.MaxRetries,
			InitialDelay: rc.InitialDelay,
			Base:         rc.Base,
			Jitter:       rc.Jitter,
			MaxDelay:     rc.MaxDelay,
		},
		Cache: CacheConfig{
			Backend:         string(cachestore.BackendMemory),
			FallbackTTL:     gc.FallbackCacheTTL,
			CleanupInterval: 10 * time.Minute,
			SQLitePath:      "data/cache.db",
			RedisAddr:       redisDefaults.Addr,
			RedisNamespace:  redisDefaults.Namespace,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RequestTimeout:  5 * time.Minute,
			MaxBodyBytes:    1 << 20,
			IPRateLimit:     30,
			IPRateWindow:    time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Content: ContentConfig{
			DefaultTopic:    "AI",
			DefaultKeywords: []string{"AI", "Artificial Intelligence"},
		},
		SEODataFile: "data/keyword_metrics.json",
		StorageDir:  storage.DefaultDir,
	}
}

// Load reads the environment. Invalid values are logged, counted on metrics
// (which may be nil) and replaced by defaults.
func Load(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := pkgconfig.NewCollector(logger, metrics)
	d := Defaults()
	cfg := d

	positive := pkgconfig.ValidatePositiveDuration
	nonNegative := pkgconfig.ValidateNonNegativeDuration
	intRange := func(lo, hi int) func(int) error {
		return func(v int) error { return pkgconfig.ValidateIntRange(v, lo, hi) }
	}
	floatRange := func(lo, hi float64) func(float64) error {
		return func(v float64) error { return pkgconfig.ValidateFloatRange(v, lo, hi) }
	}

	cfg.LLM.Provider = strings.ToLower(c.String("llm_provider", pkgconfig.LoadEnvWithFallback(
		"LLM_PROVIDER", d.LLM.Provider, pkgconfig.OneOf(completion.ProviderOpenAI, completion.ProviderClaude, "anthropic"))))
	if cfg.LLM.Provider == "anthropic" {
		cfg.LLM.Provider = completion.ProviderClaude
	}
	cfg.LLM.APIKey = apiKey(cfg.LLM.Provider)
	cfg.LLM.BaseURL = pkgconfig.LoadEnvString("LLM_BASE_URL", "")
	cfg.LLM.Model = pkgconfig.LoadEnvString("LLM_MODEL", completion.DefaultModel(cfg.LLM.Provider))
	cfg.LLM.Timeout = c.Duration("llm_timeout", pkgconfig.LoadEnvDuration("LLM_TIMEOUT", d.LLM.Timeout, positive))
	cfg.LLM.Temperature = c.Float("llm_temperature", pkgconfig.LoadEnvFloat("LLM_TEMPERATURE", d.LLM.Temperature, floatRange(0, 2)))
	cfg.LLM.TitleMaxTokens = c.Int("llm_title_max_tokens", pkgconfig.LoadEnvInt("LLM_TITLE_MAX_TOKENS", d.LLM.TitleMaxTokens, intRange(1, 4096)))
	cfg.LLM.PostMaxTokens = c.Int("llm_post_max_tokens", pkgconfig.LoadEnvInt("LLM_POST_MAX_TOKENS", d.LLM.PostMaxTokens, intRange(1, 32768)))
	cfg.LLM.Offline = c.Bool("offline_mode", pkgconfig.LoadEnvBool("OFFLINE_MODE", d.LLM.Offline))
	cfg.LLM.FallbackOnFailure = c.Bool("fallback_on_failure", pkgconfig.LoadEnvBool("FALLBACK_ON_FAILURE", d.LLM.FallbackOnFailure))
	cfg.LLM.RateLimitMode = strings.ToLower(c.String("llm_rate_limit_mode", pkgconfig.LoadEnvWithFallback(
		"LLM_RATE_LIMIT_MODE", d.LLM.RateLimitMode,
		pkgconfig.OneOf(string(ratelimit.ModeInterval), string(ratelimit.ModeTokenBucket), string(ratelimit.ModeNone)))))
	cfg.LLM.CallsPerMinute = c.Int("llm_calls_per_minute", pkgconfig.LoadEnvInt("LLM_CALLS_PER_MINUTE", d.LLM.CallsPerMinute, intRange(1, 60000)))
	cfg.LLM.Burst = c.Int("llm_rate_limit_burst", pkgconfig.LoadEnvInt("LLM_RATE_LIMIT_BURST", d.LLM.Burst, intRange(1, 1000)))

	if !cfg.LLM.Offline && cfg.LLM.APIKey == "" {
		cfg.LLM.Offline = true
		cfg.LLM.OfflineForced = true
		logger.Warn("no completion api key configured; offline mode forced",
			slog.String("provider", cfg.LLM.Provider),
			slog.String("expected", keyVariable(cfg.LLM.Provider)))
	}

	cfg.Retry.MaxAttempts = c.Int("retry_max_attempts", pkgconfig.LoadEnvInt("RETRY_MAX_ATTEMPTS", d.Retry.MaxAttempts, intRange(1, 20)))
	cfg.Retry.InitialDelay = c.Duration("retry_initial_delay", pkgconfig.LoadEnvDuration("RETRY_INITIAL_DELAY", d.Retry.InitialDelay, nonNegative))
	cfg.Retry.Base = c.Float("retry_backoff_base", pkgconfig.LoadEnvFloat("RETRY_BACKOFF_BASE", d.Retry.Base, floatRange(1, 10)))
	cfg.Retry.Jitter = c.Float("retry_jitter", pkgconfig.LoadEnvFloat("RETRY_JITTER", d.Retry.Jitter, floatRange(0, 1)))
	cfg.Retry.MaxDelay = c.Duration("retry_max_delay", pkgconfig.LoadEnvDuration("RETRY_MAX_DELAY", d.Retry.MaxDelay, nonNegative))

	cfg.Cache.Backend = strings.ToLower(c.String("cache_backend", pkgconfig.LoadEnvWithFallback(
		"CACHE_BACKEND", d.Cache.Backend,
		pkgconfig.OneOf(string(cachestore.BackendMemory), string(cachestore.BackendSQLite),
			string(cachestore.BackendRedis), string(cachestore.BackendNone)))))
	cfg.Cache.TTL = c.Duration("cache_ttl", pkgconfig.LoadEnvDuration("CACHE_TTL", d.Cache.TTL, nonNegative))
	cfg.Cache.FallbackTTL = c.Duration("fallback_cache_ttl", pkgconfig.LoadEnvDuration("FALLBACK_CACHE_TTL", d.Cache.FallbackTTL, nonNegative))
	cfg.Cache.CleanupInterval = c.Duration("cache_cleanup_interval", pkgconfig.LoadEnvDuration("CACHE_CLEANUP_INTERVAL", d.Cache.CleanupInterval, nonNegative))
	cfg.Cache.SQLitePath = pkgconfig.LoadEnvString("CACHE_SQLITE_PATH", d.Cache.SQLitePath)
	cfg.Cache.RedisAddr = pkgconfig.LoadEnvString("REDIS_ADDR", d.Cache.RedisAddr)
	cfg.Cache.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.Cache.RedisDB = c.Int("redis_db", pkgconfig.LoadEnvInt("REDIS_DB", d.Cache.RedisDB, intRange(0, 15)))
	cfg.Cache.RedisNamespace = pkgconfig.LoadEnvString("REDIS_NAMESPACE", d.Cache.RedisNamespace)

	cfg.HTTP.Addr = pkgconfig.LoadEnvString("HTTP_ADDR", d.HTTP.Addr)
	cfg.HTTP.RequestTimeout = c.Duration("http_request_timeout", pkgconfig.LoadEnvDuration("HTTP_REQUEST_TIMEOUT", d.HTTP.RequestTimeout, nonNegative))
	cfg.HTTP.MaxBodyBytes = c.Int("http_max_body_bytes", pkgconfig.LoadEnvInt("HTTP_MAX_BODY_BYTES", d.HTTP.MaxBodyBytes, intRange(1024, 64<<20)))
	cfg.HTTP.IPRateLimit = c.Int("http_rate_limit", pkgconfig.LoadEnvInt("HTTP_RATE_LIMIT", d.HTTP.IPRateLimit, intRange(0, 100000)))
	cfg.HTTP.IPRateWindow = c.Duration("http_rate_limit_window", pkgconfig.LoadEnvDuration("HTTP_RATE_LIMIT_WINDOW", d.HTTP.IPRateWindow, positive))
	cfg.HTTP.DebugEndpoints = c.Bool("debug_endpoints", pkgconfig.LoadEnvBool("DEBUG_ENDPOINTS", d.HTTP.DebugEndpoints))
	cfg.HTTP.ShutdownTimeout = c.Duration("http_shutdown_timeout", pkgconfig.LoadEnvDuration("HTTP_SHUTDOWN_TIMEOUT", d.HTTP.ShutdownTimeout, positive))

	cfg.Content.DefaultTopic = strings.TrimSpace(pkgconfig.LoadEnvString("DEFAULT_TOPIC", d.Content.DefaultTopic))
	cfg.Content.DefaultKeywords = pkgconfig.LoadEnvList("DEFAULT_KEYWORDS", d.Content.DefaultKeywords)
	cfg.Content.PromptsFile = pkgconfig.LoadEnvString("PROMPTS_FILE", "")

	cfg.SEODataFile = pkgconfig.LoadEnvString("SEO_DATA_FILE", d.SEODataFile)
	cfg.StorageDir = pkgconfig.LoadEnvString("BLOG_STORAGE_DIR", d.StorageDir)

	c.Finish()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.LLM.Offline && cfg.HTTP.RequestTimeout > 0 && cfg.ArticleBudget() > cfg.HTTP.RequestTimeout {
		logger.Warn("retry budget exceeds the request timeout; slow upstreams will time out instead of falling back",
			slog.Duration("article_budget", cfg.ArticleBudget()),
			slog.Duration("request_timeout", cfg.HTTP.RequestTimeout))
	}
	return &cfg, nil
}

func keyVariable(provider string) string {
	if provider == completion.ProviderClaude {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// apiKey prefers LLM_API_KEY and falls back to the provider's own variable.
func apiKey(provider string) string {
	if k := strings.TrimSpace(os.Getenv("LLM_API_KEY")); k != "" {
		return k
	}
	return strings.TrimSpace(os.Getenv(keyVariable(provider)))
}

// Validate rejects configurations no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.Provider != completion.ProviderOpenAI && c.LLM.Provider != completion.ProviderClaude {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER: unknown provider %q", c.LLM.Provider))
	}
	if _, err := ratelimit.ParseMode(c.LLM.RateLimitMode); err != nil {
		errs = append(errs, fmt.Errorf("LLM_RATE_LIMIT_MODE: %w", err))
	}
	if c.LLM.CallsPerMinute <= 0 {
		errs = append(errs, errors.New("LLM_CALLS_PER_MINUTE must be positive"))
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("retry: %w", err))
	}
	if _, err := cachestore.ParseBackend(c.Cache.Backend); err != nil {
		errs = append(errs, fmt.Errorf("CACHE_BACKEND: %w", err))
	}
	if c.Content.DefaultTopic == "" {
		errs = append(errs, errors.New("DEFAULT_TOPIC cannot be empty"))
	}
	if strings.TrimSpace(c.StorageDir) == "" {
		errs = append(errs, errors.New("BLOG_STORAGE_DIR cannot be empty"))
	}
	return errors.Join(errs...)
}

// GenerationBudget is the longest one generation can spend upstream: every
// attempt timing out plus the full backoff between them.
func (c *Config) GenerationBudget() time.Duration {
	return time.Duration(c.Retry.MaxAttempts)*c.LLM.Timeout + c.RetryPolicy().MaxBackoff()
}

// ArticleBudget covers the two sequential stages of an article: the batch
// completion, then the keyword metrics.
func (c *Config) ArticleBudget() time.Duration {
	return 2 * c.GenerationBudget()
}

// CompletionConfig returns the provider settings.
func (c *Config) CompletionConfig() completion.Config {
	return completion.Config{
		Provider: c.LLM.Provider,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Timeout:  c.LLM.Timeout,
	}
}

// GateConfig returns the outbound rate gate settings.
func (c *Config) GateConfig() ratelimit.Config {
	mode, _ := ratelimit.ParseMode(c.LLM.RateLimitMode)
	return ratelimit.Config{
		Mode:           mode,
		CallsPerMinute: c.LLM.CallsPerMinute,
		Burst:          c.LLM.Burst,
	}
}

// RetryPolicy returns the backoff settings.
func (c *Config) RetryPolicy() retry.Config {
	return retry.Config{
		MaxRetries:   c.Retry.MaxAttempts,
		InitialDelay: c.Retry.InitialDelay,
		Base:         c.Retry.Base,
		Jitter:       c.Retry.Jitter,
		MaxDelay:     c.Retry.MaxDelay,
	}
}

// CacheStoreConfig returns the cache backend settings.
func (c *Config) CacheStoreConfig() cachestore.Config {
	backend, _ := cachestore.ParseBackend(c.Cache.Backend)
	rc := redis.DefaultConfig()
	rc.Addr = c.Cache.RedisAddr
	rc.Password = c.Cache.RedisPassword
	rc.DB = c.Cache.RedisDB
	rc.Namespace = c.Cache.RedisNamespace
	rc.DefaultTTL = c.Cache.TTL
	return cachestore.Config{
		Backend:         backend,
		DefaultTTL:      c.Cache.TTL,
		CleanupInterval: c.Cache.CleanupInterval,
		SQLitePath:      c.Cache.SQLitePath,
		Redis:           rc,
	}
}

// GenerateConfig returns the façade settings. Batch and SEO token budgets
// scale from the post and title budgets.
func (c *Config) GenerateConfig(prompts generate.Prompts) generate.Config {
	gc := generate.DefaultConfig()
	gc.Offline = c.LLM.Offline
	gc.FallbackOnFailure = c.LLM.FallbackOnFailure
	gc.CacheTTL = c.Cache.TTL
	gc.FallbackCacheTTL = c.Cache.FallbackTTL
	gc.Model = c.LLM.Model
	gc.TitleMaxTokens = c.LLM.TitleMaxTokens
	gc.PostMaxTokens = c.LLM.PostMaxTokens
	gc.BatchMaxTokens = c.LLM.PostMaxTokens + c.LLM.TitleMaxTokens*4
	gc.SEOMaxTokens = max(c.LLM.TitleMaxTokens*2, 128)
	gc.Temperature = c.LLM.Temperature
	gc.Prompts = prompts
	return gc
}

// Entry is one displayable setting.
type Entry struct {
	Key    string
	Value  string
	Secret bool
}

// Entries lists the settings by environment variable name for the debug view.
// Secret entries must be masked before display.
func (c *Config) Entries() []Entry {
	return []Entry{
		{Key: "LLM_PROVIDER", Value: c.LLM.Provider},
		{Key: keyVariable(c.LLM.Provider), Value: c.LLM.APIKey, Secret: true},
		{Key: "LLM_BASE_URL", Value: c.LLM.BaseURL},
		{Key: "LLM_MODEL", Value: c.LLM.Model},
		{Key: "LLM_TIMEOUT", Value: c.LLM.Timeout.String()},
		{Key: "LLM_TEMPERATURE", Value: fmt.Sprint(c.LLM.Temperature)},
		{Key: "LLM_TITLE_MAX_TOKENS", Value: fmt.Sprint(c.LLM.TitleMaxTokens)},
		{Key: "LLM_POST_MAX_TOKENS", Value: fmt.Sprint(c.LLM.PostMaxTokens)},
		{Key: "OFFLINE_MODE", Value: fmt.Sprint(c.LLM.Offline)},
		{Key: "OFFLINE_FORCED", Value: fmt.Sprint(c.LLM.OfflineForced)},
		{Key: "FALLBACK_ON_FAILURE", Value: fmt.Sprint(c.LLM.FallbackOnFailure)},
		{Key: "LLM_RATE_LIMIT_MODE", Value: c.LLM.RateLimitMode},
		{Key: "LLM_CALLS_PER_MINUTE", Value: fmt.Sprint(c.LLM.CallsPerMinute)},
		{Key: "RETRY_MAX_ATTEMPTS", Value: fmt.Sprint(c.Retry.MaxAttempts)},
		{Key: "RETRY_INITIAL_DELAY", Value: c.Retry.InitialDelay.String()},
		{Key: "CACHE_BACKEND", Value: c.Cache.Backend},
		{Key: "CACHE_TTL", Value: c.Cache.TTL.String()},
		{Key: "REDIS_ADDR", Value: c.Cache.RedisAddr},
		{Key: "REDIS_PASSWORD", Value: c.Cache.RedisPassword, Secret: true},
		{Key: "SEO_DATA_FILE", Value: c.SEODataFile},
		{Key: "BLOG_STORAGE_DIR", Value: c.StorageDir},
		{Key: "DEFAULT_TOPIC", Value: c.Content.DefaultTopic},
		{Key: "DEFAULT_KEYWORDS", Value: strings.Join(c.Content.DefaultKeywords, ", ")},
		{Key: "PROMPTS_FILE", Value: c.Content.PromptsFile},
		{Key: "DEBUG_ENDPOINTS", Value: fmt.Sprint(c.HTTP.DebugEndpoints)},
	}
}

// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP server, logging, the signal store, collectors, the analyzer, routing
// thresholds, Telegram delivery, the worker loop and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-signal-pipeline/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects the persistence backend and retention policy.
type StoreConfig struct {
	Driver            string        // STORE_DRIVER sqlite|postgres
	SQLitePath        string        // SQLITE_DB_PATH
	PostgresURL       string        // POSTGRES_URL
	RetentionDays     int           // RETENTION_DAYS
	RetentionInterval time.Duration // RETENTION_INTERVAL
}

// Retention returns the retention window as a duration.
func (s StoreConfig) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// AnalysisConfig configures the remote scoring backend. When Enabled is
// false only the heuristic analyzer runs.
type AnalysisConfig struct {
	Enabled         bool          // ENABLE_AI_ANALYSIS
	APIKey          string        // AI_API_KEY
	APIBase         string        // AI_API_BASE
	Model           string        // AI_MODEL
	Timeout         time.Duration // AI_TIMEOUT
	MaxOutputTokens int           // AI_MAX_OUTPUT_TOKENS
}

// RoutingConfig holds the score thresholds used to decide chat delivery.
type RoutingConfig struct {
	PriorityThreshold int // PRIORITY_THRESHOLD
	HourlyThreshold   int // HOURLY_THRESHOLD
	ChatCapPerCycle   int // CHAT_CAP_PER_CYCLE, 0 = unlimited
}

// TelegramConfig covers outbound delivery and the inbound webhook.
type TelegramConfig struct {
	DeliveryEnabled bool          // ENABLE_TELEGRAM_DELIVERY
	BotToken        string        // TELEGRAM_BOT_TOKEN
	ChatID          int64         // TELEGRAM_CHAT_ID
	APIURL          string        // TELEGRAM_API_URL
	Timeout         time.Duration // TELEGRAM_TIMEOUT
	WebhookEnabled  bool          // ENABLE_TELEGRAM_WEBHOOK
	WebhookSecret   string        // TELEGRAM_WEBHOOK_SECRET
	CallbackTTL     time.Duration // TELEGRAM_CALLBACK_TTL
}

// Configured reports whether outbound sends are possible at all.
func (t TelegramConfig) Configured() bool {
	return t.BotToken != "" && t.ChatID != 0
}

// CollectorConfig configures every upstream collector.
type CollectorConfig struct {
	RSSFeeds          []string      // RSS_FEEDS (csv)
	RSSMaxItems       int           // RSS_MAX_ITEMS, 1..20
	YouTubeChannelIDs []string      // YOUTUBE_CHANNEL_IDS (csv)
	YouTubeMaxItems   int           // YOUTUBE_MAX_ITEMS
	YouTubeFeedBase   string        // YOUTUBE_FEED_BASE
	XBearerToken      string        // X_BEARER_TOKEN
	XUsernames        []string      // X_USERNAMES (csv)
	XMaxItems         int           // X_MAX_ITEMS, 5..100
	XAPIBase          string        // X_API_BASE
	MockSocial        bool          // ENABLE_MOCK_SOCIAL
	Timeout           time.Duration // COLLECT_TIMEOUT
	Concurrency       int           // COLLECT_CONCURRENCY
	UserAgent         string        // COLLECT_USER_AGENT
	SourcesFile       string        // SOURCES_FILE (yaml)
}

// WorkerConfig controls one-shot versus continuous operation.
type WorkerConfig struct {
	Continuous bool          // RUN_CONTINUOUS
	Interval   time.Duration // RUN_INTERVAL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	ShutdownTimeout   time.Duration // graceful drain

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	Store     StoreConfig
	Analysis  AnalysisConfig
	Routing   RoutingConfig
	Telegram  TelegramConfig
	Collector CollectorConfig
	Worker    WorkerConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, merges the optional
// YAML sources file, applies defaults, normalizes values, and validates the
// result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8787"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 15*time.Second),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		Store: StoreConfig{
			Driver:            strings.ToLower(getenv("STORE_DRIVER", getenv("STORAGE_DRIVER", "sqlite"))),
			SQLitePath:        getenv("SQLITE_DB_PATH", "./data/signals.db"),
			PostgresURL:       getenv("POSTGRES_URL", ""),
			RetentionDays:     getint("RETENTION_DAYS", 30),
			RetentionInterval: getdur("RETENTION_INTERVAL", 6*time.Hour),
		},

		Analysis: AnalysisConfig{
			Enabled:         getbool("ENABLE_AI_ANALYSIS", false),
			APIKey:          getenv("AI_API_KEY", ""),
			APIBase:         strings.TrimRight(getenv("AI_API_BASE", "https://api.openai.com/v1"), "/"),
			Model:           getenv("AI_MODEL", "gpt-4o-mini"),
			Timeout:         getdur("AI_TIMEOUT", 20*time.Second),
			MaxOutputTokens: getint("AI_MAX_OUTPUT_TOKENS", 800),
		},

		Routing: RoutingConfig{
			PriorityThreshold: getint("PRIORITY_THRESHOLD", 80),
			HourlyThreshold:   getint("HOURLY_THRESHOLD", 50),
			ChatCapPerCycle:   getint("CHAT_CAP_PER_CYCLE", 0),
		},

		Telegram: TelegramConfig{
			DeliveryEnabled: getbool("ENABLE_TELEGRAM_DELIVERY", false),
			BotToken:        getenv("TELEGRAM_BOT_TOKEN", ""),
			APIURL:          getenv("TELEGRAM_API_URL", "https://api.telegram.org"),
			Timeout:         getdur("TELEGRAM_TIMEOUT", 10*time.Second),
			WebhookEnabled:  getbool("ENABLE_TELEGRAM_WEBHOOK", false),
			WebhookSecret:   getenv("TELEGRAM_WEBHOOK_SECRET", ""),
			CallbackTTL:     getdur("TELEGRAM_CALLBACK_TTL", 24*time.Hour),
		},

		Collector: CollectorConfig{
			RSSFeeds:          splitCSV(getenv("RSS_FEEDS", "")),
			RSSMaxItems:       getint("RSS_MAX_ITEMS", 5),
			YouTubeChannelIDs: splitCSV(getenv("YOUTUBE_CHANNEL_IDS", "")),
			YouTubeMaxItems:   getint("YOUTUBE_MAX_ITEMS", 5),
			YouTubeFeedBase:   getenv("YOUTUBE_FEED_BASE", "https://www.youtube.com/feeds/videos.xml"),
			XBearerToken:      getenv("X_BEARER_TOKEN", ""),
			XUsernames:        splitCSV(getenv("X_USERNAMES", "")),
			XMaxItems:         getint("X_MAX_ITEMS", 5),
			XAPIBase:          strings.TrimRight(getenv("X_API_BASE", "https://api.x.com/2"), "/"),
			MockSocial:        getbool("ENABLE_MOCK_SOCIAL", true),
			Timeout:           getdur("COLLECT_TIMEOUT", 15*time.Second),
			Concurrency:       getint("COLLECT_CONCURRENCY", 4),
			UserAgent:         getenv("COLLECT_USER_AGENT", "signal-pipeline/0.1"),
			SourcesFile:       getenv("SOURCES_FILE", ""),
		},

		Worker: WorkerConfig{
			Continuous: getbool("RUN_CONTINUOUS", false),
			Interval:   getdur("RUN_INTERVAL", 15*time.Minute),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "signal-pipeline"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	chatID := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID", ""))
	if chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return cfg, errors.New("TELEGRAM_CHAT_ID must be an integer")
		}
		cfg.Telegram.ChatID = id
	}

	if cfg.Collector.SourcesFile != "" {
		src, err := LoadSources(cfg.Collector.SourcesFile)
		if err != nil {
			return cfg, fmt.Errorf("SOURCES_FILE: %w", err)
		}
		src.MergeInto(&cfg.Collector)
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}

	switch cfg.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.Store.SQLitePath) == "" {
			return errors.New("SQLITE_DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Store.PostgresURL) == "" {
			return errors.New("POSTGRES_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return errors.New("STORE_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.Store.RetentionDays < 1 {
		return errors.New("RETENTION_DAYS must be >= 1")
	}
	if cfg.Store.RetentionInterval <= 0 {
		return errors.New("RETENTION_INTERVAL must be > 0")
	}

	if cfg.Analysis.Enabled && strings.TrimSpace(cfg.Analysis.APIKey) == "" {
		return errors.New("AI_API_KEY is required when ENABLE_AI_ANALYSIS=true")
	}
	if cfg.Analysis.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be > 0")
	}

	if cfg.Routing.PriorityThreshold < 0 || cfg.Routing.PriorityThreshold > 100 {
		return errors.New("PRIORITY_THRESHOLD must be between 0 and 100")
	}
	if cfg.Routing.HourlyThreshold < 0 || cfg.Routing.HourlyThreshold > 100 {
		return errors.New("HOURLY_THRESHOLD must be between 0 and 100")
	}
	if cfg.Routing.ChatCapPerCycle < 0 {
		return errors.New("CHAT_CAP_PER_CYCLE must be >= 0")
	}

	if cfg.Telegram.DeliveryEnabled && !cfg.Telegram.Configured() {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when ENABLE_TELEGRAM_DELIVERY=true")
	}
	if cfg.Telegram.WebhookEnabled && cfg.Telegram.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required when ENABLE_TELEGRAM_WEBHOOK=true")
	}
	if cfg.Telegram.Timeout <= 0 {
		return errors.New("TELEGRAM_TIMEOUT must be > 0")
	}

	if cfg.Collector.RSSMaxItems < 1 || cfg.Collector.RSSMaxItems > 20 {
		return errors.New("RSS_MAX_ITEMS must be between 1 and 20")
	}
	if cfg.Collector.YouTubeMaxItems < 1 || cfg.Collector.YouTubeMaxItems > 20 {
		return errors.New("YOUTUBE_MAX_ITEMS must be between 1 and 20")
	}
	if cfg.Collector.XMaxItems < 5 || cfg.Collector.XMaxItems > 100 {
		return errors.New("X_MAX_ITEMS must be between 5 and 100")
	}
	if cfg.Collector.Timeout <= 0 {
		return errors.New("COLLECT_TIMEOUT must be > 0")
	}
	if cfg.Collector.Concurrency < 1 {
		return errors.New("COLLECT_CONCURRENCY must be >= 1")
	}

	if cfg.Worker.Continuous && cfg.Worker.Interval < time.Minute {
		return errors.New("RUN_INTERVAL must be >= 1m when RUN_CONTINUOUS=true")
	}

	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if b, ok := sysutil.ParseBool(v); ok {
			return b
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

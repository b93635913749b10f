// Package config loads the application configuration from environment
// variables. A .env file, if present, is loaded by main before this package
// reads the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tico-news/newsmonitor/pkg/trigger"
	"github.com/tico-news/newsmonitor/pkg/version"
)

// Config is the full application configuration.
type Config struct {
	// DataDir is the root for index JSONs, article bodies, summaries and
	// raw LLM response logs.
	DataDir string

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// SiteZone is the time zone the news site publishes in. All trigger
	// math and article timestamps live in this zone.
	SiteZone *time.Location

	// HTTPPort enables the read-only status API when non-zero.
	HTTPPort int

	// UserAgent is sent on every upstream HTTP request.
	UserAgent string

	Synchronizer SynchronizerConfig
	Downloader   DownloaderConfig
	HTTP         HTTPClientConfig
	Engine       EngineConfig
	Notifier     NotifierConfig
}

// SynchronizerConfig controls index synchronization.
type SynchronizerConfig struct {
	// FirstDay is the earliest day to backfill. Zero means no historical
	// backfill beyond what the database already knows.
	FirstDay             time.Time
	CheckUpdatesInterval time.Duration
	DaysChunkSize        int
}

// DownloaderConfig controls article downloading and analysis.
type DownloaderConfig struct {
	DownloadInterval   time.Duration
	DownloadsChunkSize int
	// IgnoreCategories holds upstream category paths whose articles are
	// marked skipped without ever being fetched.
	IgnoreCategories map[string]struct{}
}

// HTTPClientConfig holds defaults for the upstream HTTP client.
type HTTPClientConfig struct {
	RequestTimeout time.Duration
	MaxRetries     int
}

// ModelConfig describes one model slot of the LLM engine.
type ModelConfig struct {
	Name                  string
	RequestLimit          int
	RequestLimitPeriod    time.Duration
	RequiresSupplementary bool
}

// EngineConfig identifies the LLM backend and its model slots.
type EngineConfig struct {
	// Engine names the backend ("openai", "gemini", "deepseek", ...).
	// The llm package maps known names to their OpenAI-compatible base
	// URLs; BaseURL overrides the mapping when set.
	Engine  string
	APIKey  string
	BaseURL string

	Basic         ModelConfig
	Light         ModelConfig
	Supplementary ModelConfig

	KeepRawResponses bool
	RawResponsesDir  string
}

// NotifierConfig controls the Telegram notifier.
type NotifierConfig struct {
	TriggerTimes  []trigger.TimeOfDay
	MaxInactivity time.Duration

	BotToken string
	// ChannelID is either a numeric chat ID or an @channelname.
	ChannelID     string
	MaxRetries    int
	MessagesDelay time.Duration
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:     getEnvOrDefault("DATA_DIR", "data/crhoy"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		UserAgent:   getEnvOrDefault("USER_AGENT", version.Full()),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	zone, err := time.LoadLocation(getEnvOrDefault("SITE_TIMEZONE", "America/Costa_Rica"))
	if err != nil {
		return nil, fmt.Errorf("invalid SITE_TIMEZONE: %w", err)
	}
	cfg.SiteZone = zone

	if port := os.Getenv("HTTP_PORT"); port != "" {
		cfg.HTTPPort, err = strconv.Atoi(port)
		if err != nil || cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
			return nil, fmt.Errorf("invalid HTTP_PORT %q", port)
		}
	}

	if cfg.Synchronizer, err = loadSynchronizer(); err != nil {
		return nil, err
	}
	if cfg.Downloader, err = loadDownloader(); err != nil {
		return nil, err
	}
	if cfg.HTTP, err = loadHTTPClient(); err != nil {
		return nil, err
	}
	if cfg.Engine, err = loadEngine(cfg.DataDir); err != nil {
		return nil, err
	}
	if cfg.Notifier, err = loadNotifier(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSynchronizer() (SynchronizerConfig, error) {
	var c SynchronizerConfig
	var err error

	if raw := os.Getenv("FIRST_DAY"); raw != "" {
		c.FirstDay, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return c, fmt.Errorf("FIRST_DAY must be YYYY-MM-DD: %w", err)
		}
	}
	if c.CheckUpdatesInterval, err = envSeconds("CHECK_UPDATES_INTERVAL", 300); err != nil {
		return c, err
	}
	if c.DaysChunkSize, err = envPositiveInt("DAYS_CHUNK_SIZE", 5); err != nil {
		return c, err
	}
	return c, nil
}

func loadDownloader() (DownloaderConfig, error) {
	var c DownloaderConfig
	var err error

	if c.DownloadInterval, err = envSeconds("DOWNLOAD_INTERVAL", 60); err != nil {
		return c, err
	}
	if c.DownloadsChunkSize, err = envPositiveInt("DOWNLOADS_CHUNK_SIZE", 10); err != nil {
		return c, err
	}
	c.IgnoreCategories = parseCategorySet(os.Getenv("IGNORE_CATEGORIES"))
	return c, nil
}

func loadHTTPClient() (HTTPClientConfig, error) {
	var c HTTPClientConfig
	var err error

	if c.RequestTimeout, err = envSeconds("REQUEST_TIMEOUT", 30); err != nil {
		return c, err
	}
	if c.MaxRetries, err = envNonNegativeInt("MAX_RETRIES", 3); err != nil {
		return c, err
	}
	return c, nil
}

func loadEngine(dataDir string) (EngineConfig, error) {
	c := EngineConfig{
		Engine:           getEnvOrDefault("AGENT_ENGINE", "openai"),
		APIKey:           os.Getenv("AGENT_ENGINE_API_KEY"),
		BaseURL:          os.Getenv("AGENT_ENGINE_BASE_URL"),
		KeepRawResponses: envBool("KEEP_RAW_ENGINE_RESPONSES"),
		RawResponsesDir:  getEnvOrDefault("RAW_ENGINE_RESPONSES_DIR", dataDir+"/responses"),
	}
	if c.APIKey == "" {
		return c, fmt.Errorf("AGENT_ENGINE_API_KEY is required")
	}

	var err error
	if c.Basic, err = loadModel("AGENT_ENGINE_BASIC", true); err != nil {
		return c, err
	}
	if c.Light, err = loadModel("AGENT_ENGINE_LIGHT", true); err != nil {
		return c, err
	}
	if c.Supplementary, err = loadModel("AGENT_ENGINE_SUPPLEMENTARY", false); err != nil {
		return c, err
	}
	if (c.Basic.RequiresSupplementary || c.Light.RequiresSupplementary) && c.Supplementary.Name == "" {
		return c, fmt.Errorf("AGENT_ENGINE_SUPPLEMENTARY_MODEL is required when a model sets REQUIRES_SUPPLEMENTARY")
	}
	return c, nil
}

func loadModel(prefix string, required bool) (ModelConfig, error) {
	var m ModelConfig
	m.Name = os.Getenv(prefix + "_MODEL")
	if m.Name == "" {
		if required {
			return m, fmt.Errorf("%s_MODEL is required", prefix)
		}
		return m, nil
	}

	var err error
	if m.RequestLimit, err = envNonNegativeInt(prefix+"_MODEL_REQUEST_LIMIT", 0); err != nil {
		return m, err
	}
	if m.RequestLimitPeriod, err = envSeconds(prefix+"_MODEL_REQUEST_LIMIT_PERIOD_SECONDS", 60); err != nil {
		return m, err
	}
	m.RequiresSupplementary = envBool(prefix + "_MODEL_REQUIRES_SUPPLEMENTARY")
	return m, nil
}

func loadNotifier() (NotifierConfig, error) {
	var c NotifierConfig
	var err error

	raw := os.Getenv("NEWS_NOTIFIER_TRIGGER_TIMES")
	if raw == "" {
		return c, fmt.Errorf("NEWS_NOTIFIER_TRIGGER_TIMES is required")
	}
	var entries []string
	if err = json.Unmarshal([]byte(raw), &entries); err != nil {
		return c, fmt.Errorf("NEWS_NOTIFIER_TRIGGER_TIMES must be a JSON array of \"HH:MM\" strings: %w", err)
	}
	if len(entries) == 0 {
		return c, fmt.Errorf("NEWS_NOTIFIER_TRIGGER_TIMES must not be empty")
	}
	for _, entry := range entries {
		t, err := trigger.ParseTimeOfDay(entry)
		if err != nil {
			return c, fmt.Errorf("NEWS_NOTIFIER_TRIGGER_TIMES: %w", err)
		}
		c.TriggerTimes = append(c.TriggerTimes, t)
	}

	if c.MaxInactivity, err = envSeconds("NEWS_NOTIFIER_MAX_INACTIVITY_INTERVAL", 1800); err != nil {
		return c, err
	}

	c.BotToken = os.Getenv("NEWS_NOTIFIER_TELEGRAM_BOT_TOKEN")
	if c.BotToken == "" {
		return c, fmt.Errorf("NEWS_NOTIFIER_TELEGRAM_BOT_TOKEN is required")
	}
	c.ChannelID = os.Getenv("NEWS_NOTIFIER_TELEGRAM_CHANNEL_ID")
	if c.ChannelID == "" {
		return c, fmt.Errorf("NEWS_NOTIFIER_TELEGRAM_CHANNEL_ID is required")
	}
	if c.MaxRetries, err = envNonNegativeInt("NEWS_NOTIFIER_TELEGRAM_MAX_RETRIES", 3); err != nil {
		return c, err
	}
	if c.MessagesDelay, err = envSeconds("NEWS_NOTIFIER_TELEGRAM_MESSAGES_DELAY", 5); err != nil {
		return c, err
	}
	return c, nil
}

func parseCategorySet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			set[part] = struct{}{}
		}
	}
	return set
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envSeconds(key string, defaultSeconds int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(defaultSeconds) * time.Second, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of seconds, got %q", key, raw)
	}
	return time.Duration(n) * time.Second, nil
}

func envPositiveInt(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func envNonNegativeInt(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

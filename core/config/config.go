package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Stacks      string `yaml:"stacks"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	ErrorsFile  string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// InstagramConfig holds settings for the content-source scraping client.
type InstagramConfig struct {
	BaseURL  string `yaml:"base_url" envconfig:"INSTAGRAM_BASE_URL"`
	Username string `yaml:"username" envconfig:"INSTAGRAM_USERNAME"`
	Password string `yaml:"password" envconfig:"INSTAGRAM_PASSWORD"`
	// FetchLimit caps how many media items one lookup requests; 0 -> default.
	FetchLimit int `yaml:"fetch_limit" envconfig:"INSTAGRAM_FETCH_LIMIT"`
	// TimeoutSeconds bounds a single lookup; 0 -> default.
	TimeoutSeconds int `yaml:"timeout_seconds" envconfig:"INSTAGRAM_TIMEOUT_SECONDS"`
}

// LLMConfig holds settings for the idea-generation model client.
type LLMConfig struct {
	APIKey       string  `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
	Model        string  `yaml:"model" envconfig:"LLM_MODEL"`
	MaxTokens    int64   `yaml:"max_tokens" envconfig:"LLM_MAX_TOKENS"`
	Temperature  float64 `yaml:"temperature" envconfig:"LLM_TEMPERATURE"`
	SystemPrompt string  `yaml:"system_prompt"`
	HistoryLimit int     `yaml:"history_limit" envconfig:"LLM_HISTORY_LIMIT"`
}

// BroadcastConfig holds settings for the deferred broadcast scheduler.
type BroadcastConfig struct {
	// Timezone interprets admin-entered datetimes, e.g. "Europe/Paris".
	Timezone string `yaml:"timezone" envconfig:"BROADCAST_TIMEZONE"`
	// PollIntervalMS bounds the scheduler's late-firing drift; 0 -> 1000.
	PollIntervalMS int `yaml:"poll_interval_ms" envconfig:"BROADCAST_POLL_INTERVAL_MS"`
}

// DialogConfig holds settings for the conversation engine.
type DialogConfig struct {
	// SessionTTLMinutes expires sessions untouched this long; 0 disables.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" envconfig:"DIALOG_SESSION_TTL_MINUTES"`
	// ReaperIntervalSeconds controls how often stale sessions are swept.
	ReaperIntervalSeconds int `yaml:"reaper_interval_seconds" envconfig:"DIALOG_REAPER_INTERVAL_SECONDS"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Instagram InstagramConfig `yaml:"instagram"`
	LLM       LLMConfig       `yaml:"llm"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Dialog    DialogConfig    `yaml:"dialog"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if cfg.Broadcast.Timezone == "" {
		cfg.Broadcast.Timezone = "Europe/Paris"
	}
	if _, err := time.LoadLocation(cfg.Broadcast.Timezone); err != nil {
		return fmt.Errorf("invalid broadcast.timezone %q: %w", cfg.Broadcast.Timezone, err)
	}
	if cfg.Broadcast.PollIntervalMS < 0 {
		return fmt.Errorf("broadcast.poll_interval_ms must be >= 0")
	}
	if cfg.Dialog.SessionTTLMinutes < 0 {
		return fmt.Errorf("dialog.session_ttl_minutes must be >= 0")
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.HistoryLimit <= 0 {
		cfg.LLM.HistoryLimit = 10
	}
	if cfg.Instagram.FetchLimit <= 0 {
		cfg.Instagram.FetchLimit = 40
	}
	if cfg.Instagram.TimeoutSeconds <= 0 {
		cfg.Instagram.TimeoutSeconds = 30
	}
	return nil
}

// BroadcastLocation resolves the configured broadcast timezone. Normalize
// has already validated it, so errors only happen on zero-value configs.
func (c *Config) BroadcastLocation() (*time.Location, error) {
	if c.Broadcast.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Broadcast.Timezone)
}

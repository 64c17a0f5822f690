package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "NEWSCOURIER_CONFIG"
	storeURLEnv      = "STORE_URL"
	storeSecretEnv   = "STORE_SECRET"
	llmAPIKeyEnv     = "LLM_API_KEY"
	llmModelEnv      = "LLM_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	cronSecretEnv    = "CRON_SECRET"
	adminSecretEnv   = "ADMIN_SECRET"
	allowAutoEnv     = "ALLOW_AUTOMATED_TRIGGERS"
)

// Config holds every setting required across the application. It is built
// once at process start and treated as immutable afterwards; components never
// read the environment themselves.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Auth      AuthConfig      `yaml:"auth"`
	Languages []string        `yaml:"languages"`
	Sources   []SourceConfig  `yaml:"sources"`
	Site      SiteConfig      `yaml:"site"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig describes the trigger HTTP surface.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// SchedulerConfig defines daemon-mode cron expressions.
type SchedulerConfig struct {
	IngestSpec  string         `yaml:"ingestSpec"`
	PublishSpec string         `yaml:"publishSpec"`
	DomovoySpec string         `yaml:"domovoySpec"`
	Timezone    string         `yaml:"timezone"`
	location    *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// StoreConfig points at the REST document store backend.
type StoreConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

// LLMConfig defines how to contact the OpenAI-compatible completion API.
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`
	RatePerMin  int     `yaml:"ratePerMinute"`
}

// TelegramConfig wires the bot token and per-language channels. Usernames
// are optional and only needed to build permalinks.
type TelegramConfig struct {
	BotToken string            `yaml:"botToken"`
	Channels map[string]string `yaml:"channels"`
	Username map[string]string `yaml:"usernames"`
}

// AuthConfig holds the two shared secrets accepted for manual triggers.
// AllowAutomated opts in to trusting hosting-platform cron headers without a
// token.
type AuthConfig struct {
	CronSecret     string `yaml:"cronSecret"`
	AdminSecret    string `yaml:"adminSecret"`
	AllowAutomated bool   `yaml:"allowAutomated"`
}

// SourceConfig describes one upstream feed.
type SourceConfig struct {
	ID   string `yaml:"id"`
	URL  string `yaml:"url"`
	Lang string `yaml:"lang"`
}

// SiteConfig holds per-language canonical site links appended to messages.
type SiteConfig struct {
	Links map[string]string `yaml:"links"`
}

// LoggingConfig controls log verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. Missing credentials are not an error here: each job validates
// the fields it actually needs via Require.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Languages) == 0 {
		cfg.Languages = defaultConfig().Languages
	}

	return cfg
}

// Require reports the first missing setting among the named ones, so the
// caller can soft-fail the run with "<NAME> is not set" instead of crashing.
func (c Config) Require(names ...string) error {
	for _, name := range names {
		var value string
		switch name {
		case storeURLEnv:
			value = c.Store.URL
		case llmAPIKeyEnv:
			value = c.LLM.APIKey
		case telegramTokenEnv:
			value = c.Telegram.BotToken
		case cronSecretEnv:
			value = c.Auth.CronSecret
		default:
			continue
		}
		if value == "" {
			return fmt.Errorf("%s is not set", name)
		}
	}
	return nil
}

// SourcesFor returns the configured feeds for one language.
func (c Config) SourcesFor(lang string) []SourceConfig {
	var out []SourceConfig
	for _, src := range c.Sources {
		if src.Lang == lang {
			out = append(out, src)
		}
	}
	return out
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storeURLEnv); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv(storeSecretEnv); v != "" {
		c.Store.Secret = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(cronSecretEnv); v != "" {
		c.Auth.CronSecret = v
	}
	if v := os.Getenv(adminSecretEnv); v != "" {
		c.Auth.AdminSecret = v
	}
	if v := os.Getenv(allowAutoEnv); v == "1" || v == "true" {
		c.Auth.AllowAutomated = true
	}

	if c.Telegram.Channels == nil {
		c.Telegram.Channels = map[string]string{}
	}
	for _, lang := range c.Languages {
		if v := os.Getenv("TELEGRAM_CHANNEL_" + strings.ToUpper(lang)); v != "" {
			c.Telegram.Channels[lang] = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Server.Port != "" {
		base.Server = override.Server
	}

	if override.Scheduler.IngestSpec != "" {
		base.Scheduler.IngestSpec = override.Scheduler.IngestSpec
	}
	if override.Scheduler.PublishSpec != "" {
		base.Scheduler.PublishSpec = override.Scheduler.PublishSpec
	}
	if override.Scheduler.DomovoySpec != "" {
		base.Scheduler.DomovoySpec = override.Scheduler.DomovoySpec
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Store.URL != "" {
		base.Store.URL = override.Store.URL
	}
	if override.Store.Secret != "" {
		base.Store.Secret = override.Store.Secret
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.Temperature > 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.RatePerMin > 0 {
		base.LLM.RatePerMin = override.LLM.RatePerMin
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if len(override.Telegram.Channels) > 0 {
		base.Telegram.Channels = override.Telegram.Channels
	}
	if len(override.Telegram.Username) > 0 {
		base.Telegram.Username = override.Telegram.Username
	}

	if override.Auth.CronSecret != "" {
		base.Auth.CronSecret = override.Auth.CronSecret
	}
	if override.Auth.AdminSecret != "" {
		base.Auth.AdminSecret = override.Auth.AdminSecret
	}
	if override.Auth.AllowAutomated {
		base.Auth.AllowAutomated = true
	}

	if len(override.Languages) > 0 {
		base.Languages = override.Languages
	}
	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	if len(override.Site.Links) > 0 {
		base.Site = override.Site
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Server: ServerConfig{Port: "8080"},
		Scheduler: SchedulerConfig{
			IngestSpec:  "5 * * * *",
			PublishSpec: "0 * * * *",
			DomovoySpec: "30 */6 * * *",
			Timezone:    defaultTimezone,
			location:    tz,
		},
		LLM: LLMConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			MaxTokens:   900,
			Temperature: 0.7,
			RatePerMin:  20,
		},
		Languages: []string{"en", "ru", "sr"},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

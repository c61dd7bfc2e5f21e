// Package config provides Viper-based configuration management for redditpersona
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gauthierbraillon/redditpersona/internal/persona"
	"github.com/gauthierbraillon/redditpersona/internal/reddit"
)

// EnvPrefix is the prefix of environment overrides, e.g. REDDITPERSONA_FETCH_MAX_PAGES.
const EnvPrefix = "REDDITPERSONA"

// Config represents the complete redditpersona configuration
type Config struct {
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`

	settings map[string]string
}

// FetchConfig bounds how much activity is requested from Reddit
type FetchConfig struct {
	MaxPages  int           `mapstructure:"max_pages"`
	ItemCap   int           `mapstructure:"item_cap"`
	PageSize  int           `mapstructure:"page_size"`
	PageDelay time.Duration `mapstructure:"page_delay"`
	UserAgent string        `mapstructure:"user_agent"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// AnalysisConfig tunes persona extraction
type AnalysisConfig struct {
	CitationLimit int    `mapstructure:"citation_limit"`
	InterestLimit int    `mapstructure:"interest_limit"`
	PhraseLimit   int    `mapstructure:"phrase_limit"`
	LexiconFile   string `mapstructure:"lexicon_file"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	Dir   string `mapstructure:"dir"`
	Color string `mapstructure:"color"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"max-pages":      "fetch.max_pages",
	"item-cap":       "fetch.item_cap",
	"page-size":      "fetch.page_size",
	"page-delay":     "fetch.page_delay",
	"user-agent":     "fetch.user_agent",
	"citation-limit": "analysis.citation_limit",
	"lexicon":        "analysis.lexicon_file",
	"output-dir":     "output.dir",
	"color":          "output.color",
	"log-format":     "logging.format",
	"port":           "server.port",
}

// Load reads configuration from defaults, an optional config file, a .env
// file, REDDITPERSONA_* environment variables and finally any flags in
// flags that were set on the command line.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".redditpersona")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/redditpersona")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.settings = make(map[string]string)
	for _, key := range v.AllKeys() {
		cfg.settings[key] = fmt.Sprint(v.Get(key))
	}

	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch.max_pages", 3)
	v.SetDefault("fetch.item_cap", 300)
	v.SetDefault("fetch.page_size", 100)
	v.SetDefault("fetch.page_delay", time.Second)
	v.SetDefault("fetch.user_agent", reddit.DefaultUserAgent)
	v.SetDefault("fetch.base_url", reddit.DefaultBaseURL)
	v.SetDefault("fetch.timeout", 30*time.Second)

	v.SetDefault("analysis.citation_limit", 3)
	v.SetDefault("analysis.interest_limit", 5)
	v.SetDefault("analysis.phrase_limit", 5)
	v.SetDefault("analysis.lexicon_file", "")

	v.SetDefault("output.dir", "sample_outputs")
	v.SetDefault("output.color", "auto")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("server.port", 5000)
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	f := cfg.Fetch
	if f.MaxPages < 1 {
		return fmt.Errorf("fetch.max_pages must be at least 1, got %d", f.MaxPages)
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		return fmt.Errorf("fetch.page_size must be between 1 and 100, got %d", f.PageSize)
	}
	if f.ItemCap < 1 {
		return fmt.Errorf("fetch.item_cap must be at least 1, got %d", f.ItemCap)
	}
	if f.PageDelay < 0 {
		return fmt.Errorf("fetch.page_delay must not be negative, got %s", f.PageDelay)
	}
	if f.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", f.Timeout)
	}
	if strings.TrimSpace(f.UserAgent) == "" {
		return errors.New("fetch.user_agent must not be empty")
	}
	u, err := url.Parse(f.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("fetch.base_url must be an http(s) URL, got %q", f.BaseURL)
	}

	a := cfg.Analysis
	if a.CitationLimit < 1 || a.InterestLimit < 1 || a.PhraseLimit < 1 {
		return errors.New("analysis limits must be at least 1")
	}

	if cfg.Output.Dir == "" {
		return errors.New("output.dir must not be empty")
	}
	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[cfg.Output.Color] {
		return fmt.Errorf("invalid output color: %s (must be auto, always, or never)", cfg.Output.Color)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", cfg.Logging.Format)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	return nil
}

// FetchOptions converts the fetch section for the Reddit client.
func (c *Config) FetchOptions() reddit.FetchOptions {
	return reddit.FetchOptions{
		MaxPages:  c.Fetch.MaxPages,
		PageSize:  c.Fetch.PageSize,
		ItemCap:   c.Fetch.ItemCap,
		PageDelay: c.Fetch.PageDelay,
	}
}

// AnalysisOptions converts the analysis section for the analyzer. The
// caller fills in the clock reading.
func (c *Config) AnalysisOptions() persona.Options {
	opts := persona.DefaultOptions()
	opts.CitationLimit = c.Analysis.CitationLimit
	opts.PhraseLimit = c.Analysis.PhraseLimit
	return opts
}

// Lexicon loads the configured lexicon file, or the built-in one.
func (c *Config) Lexicon() (persona.Lexicon, error) {
	if c.Analysis.LexiconFile == "" {
		return persona.DefaultLexicon()
	}
	return persona.LoadLexicon(c.Analysis.LexiconFile)
}

// Entry is one effective setting.
type Entry struct {
	Key   string
	Value string
}

// Entries lists every effective setting sorted by key.
func (c *Config) Entries() []Entry {
	entries := make([]Entry, 0, len(c.settings))
	for k, v := range c.settings {
		entries = append(entries, Entry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

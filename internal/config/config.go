package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources   Sources   `yaml:"sources"`
	Dedup     Dedup     `yaml:"dedup"`
	Enrich    Enrich    `yaml:"enrichment"`
	Slug      Slug      `yaml:"slug"`
	WordPress WordPress `yaml:"wordpress"`
	Run       Run       `yaml:"run"`
	Output    Output    `yaml:"output"`
	Logging   Logging   `yaml:"logging"`
}

type Sources struct {
	Feeds []Feed     `yaml:"feeds"`
	APIs  APIsConfig `yaml:"apis"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type APIsConfig struct {
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
}

type NewsAPIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	Query     string `yaml:"query"`
}

type Dedup struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	HistoryDays         int     `yaml:"history_days"`
}

type Enrich struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	OllamaURL       string `yaml:"ollama_url"`
	OpenAIModel     string `yaml:"openai_model"`
	APIKeyEnv       string `yaml:"api_key_env"`
	MaxContentChars int    `yaml:"max_content_chars"`
	MaxRetries      int    `yaml:"max_retries"`
	RetryDelaySec   int    `yaml:"retry_delay_seconds"`
}

type Slug struct {
	Prefix    string `yaml:"prefix"`
	MaxLength int    `yaml:"max_length"`
}

type WordPress struct {
	URL        string   `yaml:"url"`
	User       string   `yaml:"user"`
	AppPassEnv string   `yaml:"app_pass_env"`
	Status     string   `yaml:"status"`
	CategoryID int      `yaml:"category_id"`
	AuthorID   int      `yaml:"author_id"`
	Tags       []string `yaml:"tags"`
}

type Run struct {
	Workers        int `yaml:"workers"`
	TimeoutMinutes int `yaml:"timeout_minutes"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for newsround.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newsround")
}

// DataDir returns the XDG data directory for newsround.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newsround")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newsround/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newsround init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			APIs: APIsConfig{
				NewsAPI: NewsAPIConfig{
					Enabled:   false,
					APIKeyEnv: "NEWSAPI_KEY",
					Query:     "artificial intelligence",
				},
			},
		},
		Dedup: Dedup{
			SimilarityThreshold: 0.8,
			HistoryDays:         30,
		},
		Enrich: Enrich{
			Provider:        "openai",
			Model:           "qwen2.5:7b",
			OllamaURL:       "http://localhost:11434",
			OpenAIModel:     "gpt-4o-mini",
			APIKeyEnv:       "OPENAI_API_KEY",
			MaxContentChars: 2000,
			MaxRetries:      3,
			RetryDelaySec:   2,
		},
		Slug: Slug{
			Prefix:    "ai-news-",
			MaxLength: 50,
		},
		WordPress: WordPress{
			AppPassEnv: "WP_APP_PASS",
			Status:     "publish",
			CategoryID: 1,
			AuthorID:   1,
		},
		Run: Run{
			Workers:        4,
			TimeoutMinutes: 10,
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the pipeline depends on. Invalid values here
// abort a run before any article is processed.
func (c *Config) Validate() error {
	if c.Dedup.SimilarityThreshold <= 0 || c.Dedup.SimilarityThreshold > 1 {
		return fmt.Errorf("config: similarity_threshold must be in (0, 1], got %v", c.Dedup.SimilarityThreshold)
	}
	if c.Dedup.HistoryDays < 1 {
		return fmt.Errorf("config: history_days must be positive, got %d", c.Dedup.HistoryDays)
	}
	if c.Enrich.MaxRetries < 0 {
		return fmt.Errorf("config: max_retries must not be negative, got %d", c.Enrich.MaxRetries)
	}
	if c.Slug.MaxLength < len(c.Slug.Prefix)+1 {
		return fmt.Errorf("config: slug max_length %d leaves no room after prefix %q", c.Slug.MaxLength, c.Slug.Prefix)
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("config: run workers must be positive, got %d", c.Run.Workers)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// RunTimeout returns the configured run deadline.
func (c *Config) RunTimeout() time.Duration {
	if c.Run.TimeoutMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Run.TimeoutMinutes) * time.Minute
}

// RetryDelay returns the configured delay between retry attempts.
func (c *Config) RetryDelay() time.Duration {
	if c.Enrich.RetryDelaySec <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Enrich.RetryDelaySec) * time.Second
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

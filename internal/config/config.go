// Package config provides configuration management for journalcoach.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

const (
	// DefaultProvider selects the OpenAI responses API.
	DefaultProvider = "openai"
	// DefaultModel is the model used when OPENAI_MODEL is not set.
	DefaultModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the OpenAI API root.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultOllamaBaseURL is the local Ollama API root.
	DefaultOllamaBaseURL = "http://127.0.0.1:11434"
	// DefaultRateLimitPerMinute bounds model requests per trailing minute.
	DefaultRateLimitPerMinute = 30
	// DefaultRetryAttempts is the total number of tries per model call.
	DefaultRetryAttempts = 3
	// DefaultRetryBaseDelayMS is the first backoff delay in milliseconds.
	DefaultRetryBaseDelayMS = 500
	// DefaultAttemptTimeoutSeconds bounds a single model call.
	DefaultAttemptTimeoutSeconds = 90

	dataDirName  = ".journalcoach"
	dataDirEnv   = "JOURNALCOACH_DATA_DIR"
	settingsFile = "settings.json"
	pathFile     = "config.json"
	promptsFile  = "prompts.yaml"
	logFile      = "journalcoach.log"
)

// Config holds application settings. Keys mirror the environment variable names,
// so settings.json and the environment share one vocabulary.
type Config struct {
	Provider              string `json:"JOURNALCOACH_PROVIDER"`
	Model                 string `json:"OPENAI_MODEL"`
	OpenAIBaseURL         string `json:"OPENAI_BASE_URL"`
	OllamaBaseURL         string `json:"OLLAMA_BASE_URL"`
	APIKey                string `json:"-"`
	RateLimitPerMinute    int    `json:"RATE_LIMIT_PER_MINUTE"`
	RetryAttempts         int    `json:"JOURNALCOACH_RETRY_ATTEMPTS"`
	RetryBaseDelayMS      int    `json:"JOURNALCOACH_RETRY_BASE_DELAY_MS"`
	AttemptTimeoutSeconds int    `json:"JOURNALCOACH_ATTEMPT_TIMEOUT_SECONDS"`
}

var (
	global     *Config
	globalOnce sync.Once
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider:              DefaultProvider,
		Model:                 DefaultModel,
		OpenAIBaseURL:         DefaultOpenAIBaseURL,
		OllamaBaseURL:         DefaultOllamaBaseURL,
		RateLimitPerMinute:    DefaultRateLimitPerMinute,
		RetryAttempts:         DefaultRetryAttempts,
		RetryBaseDelayMS:      DefaultRetryBaseDelayMS,
		AttemptTimeoutSeconds: DefaultAttemptTimeoutSeconds,
	}
}

// RetryBaseDelay returns the configured first backoff delay.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

// AttemptTimeout returns the configured per-call deadline.
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSeconds) * time.Second
}

// DataDir returns the data directory path.
func DataDir() string {
	if dir := strings.TrimSpace(os.Getenv(dataDirEnv)); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFile)
}

// PathStorePath returns the file that remembers the chosen journal path.
func PathStorePath() string {
	return filepath.Join(DataDir(), pathFile)
}

// PromptsPath returns the optional prompt profile file.
func PromptsPath() string {
	return filepath.Join(DataDir(), promptsFile)
}

// LogPath returns the log file used by the interactive binary.
func LogPath() string {
	return filepath.Join(DataDir(), logFile)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll creates the data directory and default settings.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// LoadDotEnv loads the nearest .env found walking up from the working directory.
// Variables already present in the environment win. A missing file is not an error.
func LoadDotEnv() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate, godotenv.Load(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads settings.json over the defaults and then applies environment overrides.
// A missing or unparsable settings file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err == nil {
		var fromFile Config
		if jsonErr := json.Unmarshal(data, &fromFile); jsonErr == nil {
			cfg.merge(&fromFile)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Get returns the process-wide configuration, loading it on first use.
func Get() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
			cfg.applyEnv()
			cfg.normalize()
		}
		global = cfg
	})
	return global
}

func (c *Config) merge(o *Config) {
	if o.Provider != "" {
		c.Provider = o.Provider
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.OpenAIBaseURL != "" {
		c.OpenAIBaseURL = o.OpenAIBaseURL
	}
	if o.OllamaBaseURL != "" {
		c.OllamaBaseURL = o.OllamaBaseURL
	}
	if o.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = o.RateLimitPerMinute
	}
	if o.RetryAttempts != 0 {
		c.RetryAttempts = o.RetryAttempts
	}
	if o.RetryBaseDelayMS != 0 {
		c.RetryBaseDelayMS = o.RetryBaseDelayMS
	}
	if o.AttemptTimeoutSeconds != 0 {
		c.AttemptTimeoutSeconds = o.AttemptTimeoutSeconds
	}
}

func (c *Config) applyEnv() {
	c.Provider = envOr("JOURNALCOACH_PROVIDER", c.Provider)
	c.Model = envOr("OPENAI_MODEL", c.Model)
	c.OpenAIBaseURL = envOr("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OllamaBaseURL = envOr("OLLAMA_BASE_URL", c.OllamaBaseURL)
	c.APIKey = envOr("OPENAI_API_KEY", c.APIKey)
	c.RateLimitPerMinute = envOrInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.RetryAttempts = envOrInt("JOURNALCOACH_RETRY_ATTEMPTS", c.RetryAttempts)
	c.RetryBaseDelayMS = envOrInt("JOURNALCOACH_RETRY_BASE_DELAY_MS", c.RetryBaseDelayMS)
	c.AttemptTimeoutSeconds = envOrInt("JOURNALCOACH_ATTEMPT_TIMEOUT_SECONDS", c.AttemptTimeoutSeconds)
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider != "openai" && c.Provider != "ollama" {
		c.Provider = DefaultProvider
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryBaseDelayMS <= 0 {
		c.RetryBaseDelayMS = DefaultRetryBaseDelayMS
	}
	if c.AttemptTimeoutSeconds < 0 {
		c.AttemptTimeoutSeconds = DefaultAttemptTimeoutSeconds
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

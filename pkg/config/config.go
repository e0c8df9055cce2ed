package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minhyannv/chatgpt-cli-go/pkg/apperr"
)

const (
	DefaultModel          = "deepseek-chat"
	DefaultBaseURL        = "https://api.deepseek.com/"
	DefaultTimeoutSeconds = 120
	DefaultStore          = "file"
	DefaultSystemPrompt   = "You are a chatbot."
)

// Environment variable names.
const (
	EnvAPIKey       = "DEEPSEEK_API_KEY"
	EnvModel        = "CHATGPT_CLI_MODEL"
	EnvTimeout      = "CHATGPT_CLI_REQUEST_TIMEOUT_SECS"
	EnvBaseURL      = "CHATGPT_CLI_BASE_URL"
	EnvHistoryDir   = "CHATGPT_CLI_HISTORY_DIR"
	EnvStore        = "CHATGPT_CLI_STORE"
	EnvRedisURL     = "CHATGPT_CLI_REDIS_URL"
	EnvSystemPrompt = "CHATGPT_CLI_SYSTEM_PROMPT"
)

// Config holds all runtime configuration for the client.
type Config struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_secs"`
	SystemPrompt   string `yaml:"system_prompt"`

	// Stream is always true on the wire; kept so the request shape is explicit.
	Stream bool `yaml:"-"`

	HistoryDir string `yaml:"history_dir"`
	Store      string `yaml:"store"`
	RedisURL   string `yaml:"redis_url"`

	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Model:          DefaultModel,
		TimeoutSeconds: DefaultTimeoutSeconds,
		SystemPrompt:   DefaultSystemPrompt,
		Stream:         true,
		HistoryDir:     defaultHistoryDir(),
		Store:          DefaultStore,
	}
}

// Timeout returns the whole-exchange timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.HistoryDir = strings.TrimSpace(cfg.HistoryDir)
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = defaultHistoryDir()
	}
	if cfg.Store == "" {
		cfg.Store = DefaultStore
	}
	cfg.Stream = true
	return cfg
}

// Validate reports a config error for settings the client cannot start without.
func Validate(cfg Config) error {
	if cfg.APIKey == "" {
		return apperr.Config(EnvAPIKey + " is not set")
	}
	if cfg.TimeoutSeconds <= 0 {
		return apperr.Config(EnvTimeout + " must be a positive number of seconds")
	}
	switch cfg.Store {
	case "file", "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return apperr.Config(EnvRedisURL + " is required when store is redis")
		}
	default:
		return apperr.Config(fmt.Sprintf("unknown store %q", cfg.Store))
	}
	return nil
}

// ApplyEnv overlays non-empty environment values onto cfg.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&cfg.APIKey, EnvAPIKey)
	set(&cfg.Model, EnvModel)
	set(&cfg.BaseURL, EnvBaseURL)
	set(&cfg.HistoryDir, EnvHistoryDir)
	set(&cfg.Store, EnvStore)
	set(&cfg.RedisURL, EnvRedisURL)
	set(&cfg.SystemPrompt, EnvSystemPrompt)

	// Unparseable timeouts fall back to whatever was already configured.
	if v := strings.TrimSpace(getenv(EnvTimeout)); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TimeoutSeconds = secs
		}
	}
	return cfg
}

// LoadFile overlays the YAML file at path onto cfg. A missing file is not an error.
func LoadFile(cfg Config, path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(b, &fileCfg); err != nil {
		return cfg, apperr.New(apperr.KindConfig, "parse "+path, err)
	}

	if fileCfg.APIKey != "" {
		cfg.APIKey = fileCfg.APIKey
	}
	if fileCfg.BaseURL != "" {
		cfg.BaseURL = fileCfg.BaseURL
	}
	if fileCfg.Model != "" {
		cfg.Model = fileCfg.Model
	}
	if fileCfg.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = fileCfg.TimeoutSeconds
	}
	if fileCfg.SystemPrompt != "" {
		cfg.SystemPrompt = fileCfg.SystemPrompt
	}
	if fileCfg.HistoryDir != "" {
		cfg.HistoryDir = fileCfg.HistoryDir
	}
	if fileCfg.Store != "" {
		cfg.Store = fileCfg.Store
	}
	if fileCfg.RedisURL != "" {
		cfg.RedisURL = fileCfg.RedisURL
	}
	if fileCfg.Verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// DefaultFilePath is ~/.chatgpt/config.yaml, or "" when the home directory is unknown.
func DefaultFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chatgpt", "config.yaml")
}

func defaultHistoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatgpt"
	}
	return filepath.Join(home, ".chatgpt")
}

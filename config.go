package ghostline

import (
	"encoding/json"
	"os"
	"path/filepath"

	defaults "github.com/Paranoid-AF/ghostline/default"
)

// Config represents the user's ghostline configuration.
type Config struct {
	Version    int              `json:"version"`
	Service    ServiceConfig    `json:"service"`
	Completion CompletionConfig `json:"completion"`
	Context    ContextConfig    `json:"context"`
	Embedding  EmbeddingConfig  `json:"embedding"`
}

// ServiceConfig holds settings for the completion service.
type ServiceConfig struct {
	BaseURL          string `json:"base_url"`
	APIKey           string `json:"api_key"`
	IDEName          string `json:"ide_name"`
	IDEVersion       string `json:"ide_version"`
	ExtensionName    string `json:"extension_name"`
	ExtensionVersion string `json:"extension_version"`
	TimeoutSeconds   int    `json:"timeout_seconds,omitempty"`
}

// CompletionConfig holds per-request defaults.
type CompletionConfig struct {
	TabSize            int      `json:"tab_size,omitempty"`
	InsertSpaces       *bool    `json:"insert_spaces,omitempty"`
	MultilineThreshold *float64 `json:"multiline_threshold,omitempty"`
}

// ContextConfig controls cross-file context gathering.
type ContextConfig struct {
	Enabled      *bool `json:"enabled,omitempty"`
	MaxFileBytes int   `json:"max_file_bytes,omitempty"`
	MaxFiles     int   `json:"max_files,omitempty"`
	TTLMinutes   int   `json:"ttl_minutes,omitempty"`
}

// EmbeddingConfig holds settings for the embedding API used to rank context documents.
type EmbeddingConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
}

// ConfigDir returns the config directory path.
// Resolution order: $GHOSTLINE_CONFIG_DIR > $XDG_CONFIG_HOME/ghostline > ~/.config/ghostline
func ConfigDir() string {
	if dir := os.Getenv("GHOSTLINE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "ghostline")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "ghostline-config")
	}
	return filepath.Join(home, ".config", "ghostline")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DefaultConfig returns the default configuration from the embedded default_config.json.
func DefaultConfig() *Config {
	var cfg Config
	if err := json.Unmarshal(defaults.DefaultConfigJSON, &cfg); err != nil {
		panic("ghostline: invalid embedded default_config.json: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Service.BaseURL == "" {
		cfg.Service.BaseURL = defaults.Service.BaseURL
	}
	if cfg.Service.IDEName == "" {
		cfg.Service.IDEName = defaults.Service.IDEName
	}
	if cfg.Service.IDEVersion == "" {
		cfg.Service.IDEVersion = defaults.Service.IDEVersion
	}
	if cfg.Service.ExtensionName == "" {
		cfg.Service.ExtensionName = defaults.Service.ExtensionName
	}
	if cfg.Service.ExtensionVersion == "" {
		cfg.Service.ExtensionVersion = defaults.Service.ExtensionVersion
	}
	if cfg.Service.TimeoutSeconds == 0 {
		cfg.Service.TimeoutSeconds = defaults.Service.TimeoutSeconds
	}
	if cfg.Completion.TabSize == 0 {
		cfg.Completion.TabSize = defaults.Completion.TabSize
	}
	if cfg.Completion.InsertSpaces == nil {
		cfg.Completion.InsertSpaces = defaults.Completion.InsertSpaces
	}
	if cfg.Context.Enabled == nil {
		cfg.Context.Enabled = defaults.Context.Enabled
	}
	if cfg.Context.MaxFileBytes == 0 {
		cfg.Context.MaxFileBytes = defaults.Context.MaxFileBytes
	}
	if cfg.Context.MaxFiles == 0 {
		cfg.Context.MaxFiles = defaults.Context.MaxFiles
	}
	if cfg.Context.TTLMinutes == 0 {
		cfg.Context.TTLMinutes = defaults.Context.TTLMinutes
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.Embedding.Model
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if ResolveAPIKey(cfg) == "" {
		warnings = append(warnings, "service api_key is not configured; completions are disabled")
	}
	if t := cfg.Completion.MultilineThreshold; t != nil && (*t < 0 || *t > 1) {
		warnings = append(warnings, "multiline_threshold should be between 0 and 1")
	}
	if (cfg.Embedding.BaseURL != "" || cfg.Embedding.APIKey != "") && !EmbeddingEnabled(cfg) {
		warnings = append(warnings, "embedding needs both base_url and api_key; context documents will not be ranked")
	}
	return warnings
}

// ResolveBaseURL returns the completion service base URL.
// Priority: $GHOSTLINE_BASE_URL env > config value.
func ResolveBaseURL(cfg *Config) string {
	if url := os.Getenv("GHOSTLINE_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Service.BaseURL
	}
	return ""
}

// ResolveAPIKey returns the completion service API key.
// Priority: $GHOSTLINE_API_KEY env > config value.
func ResolveAPIKey(cfg *Config) string {
	if key := os.Getenv("GHOSTLINE_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Service.APIKey
	}
	return ""
}

// ResolveEmbeddingBaseURL returns the embedding API base URL.
// Priority: $GHOSTLINE_EMBEDDING_API_BASE_URL env > config value.
func ResolveEmbeddingBaseURL(cfg *Config) string {
	if url := os.Getenv("GHOSTLINE_EMBEDDING_API_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Embedding.BaseURL
	}
	return ""
}

// ResolveEmbeddingAPIKey returns the embedding API key.
// Priority: $GHOSTLINE_EMBEDDING_API_KEY env > config value.
func ResolveEmbeddingAPIKey(cfg *Config) string {
	if key := os.Getenv("GHOSTLINE_EMBEDDING_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Embedding.APIKey
	}
	return ""
}

// ResolveEmbeddingModel returns the embedding model name.
// Priority: $GHOSTLINE_EMBEDDING_MODEL env > config value.
func ResolveEmbeddingModel(cfg *Config) string {
	if model := os.Getenv("GHOSTLINE_EMBEDDING_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Embedding.Model
	}
	return ""
}

// EmbeddingEnabled returns true when both base_url and api_key are configured for embedding.
func EmbeddingEnabled(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return ResolveEmbeddingBaseURL(cfg) != "" && ResolveEmbeddingAPIKey(cfg) != ""
}

// ContextEnabled reports whether cross-file context gathering is on. Defaults to true.
func ContextEnabled(cfg *Config) bool {
	if cfg == nil || cfg.Context.Enabled == nil {
		return true
	}
	return *cfg.Context.Enabled
}

// InsertSpaces returns the configured indentation style. Defaults to true.
func InsertSpaces(cfg *Config) bool {
	if cfg == nil || cfg.Completion.InsertSpaces == nil {
		return true
	}
	return *cfg.Completion.InsertSpaces
}

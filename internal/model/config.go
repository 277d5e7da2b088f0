package model

import "time"

// Config is the full runtime configuration.
//
// Hierarchy (highest to lowest priority): CLI flags, CIVICPULSE_* env
// vars, config file (~/.civicpulse/config.yaml), defaults.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Scope   ScopeConfig   `yaml:"scope"`
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the external language-model provider.
// An empty provider or API key disables both scope classification and
// response enhancement for the process lifetime.
type LLMConfig struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
	// RatePerSecond bounds outbound enhancement calls.
	RatePerSecond float64 `yaml:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst"`
}

// StoreConfig selects the citizen-record source.
type StoreConfig struct {
	// Backend: "memory" (JSON file) or "mongo".
	Backend    string        `yaml:"backend"`
	Path       string        `yaml:"path"`
	MongoURI   string        `yaml:"mongo_uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ServerConfig controls the HTTP adapter.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`
}

// ScopeConfig tunes the scope classifier.
type ScopeConfig struct {
	// VerdictTTL bounds the in-process cache of scope verdicts.
	// Verdicts are never persisted.
	VerdictTTL      time.Duration `yaml:"verdict_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:      "", // Disabled by default
			Model:         "",
			Timeout:       8 * time.Second,
			MaxTokens:     700,
			RatePerSecond: 2,
			RateBurst:     4,
		},
		Store: StoreConfig{
			Backend:    "memory",
			Path:       "citizens.json",
			Database:   "civicpulse",
			Collection: "citizens",
			Timeout:    10 * time.Second,
		},
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			GracefulTimeout: 10 * time.Second,
		},
		Scope: ScopeConfig{
			VerdictTTL:      5 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

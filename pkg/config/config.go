package config

import (
	"strings"
	"time"
)

// Config represents the complete configuration for the cortex proxy.
// It provides type-safe access to all configuration values with validation.
type Config struct {
	Server   ServerConfig   `koanf:"server"   validate:"required"`
	Brain    BrainConfig    `koanf:"brain"    validate:"required"`
	Upstream UpstreamConfig `koanf:"upstream" validate:"required"`
	Runtime  RuntimeConfig  `koanf:"runtime"  validate:"required"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"             validate:"required"        env:"CORTEX_HOST"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535" env:"CORTEX_PORT"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"                            env:"CORTEX_SHUTDOWN_TIMEOUT"`
}

// BrainConfig contains memory-service connection configuration.
type BrainConfig struct {
	URL         string          `koanf:"url"          validate:"required,url" env:"SHODH_API_URL"`
	APIKey      SensitiveString `koanf:"api_key"                              env:"SHODH_API_KEY"        sensitive:"true"`
	MaxMemories int             `koanf:"max_memories" validate:"min=1"        env:"CORTEX_MAX_MEMORIES"`
	AutoIngest  bool            `koanf:"auto_ingest"                          env:"CORTEX_AUTO_INGEST"`
	Timeout     time.Duration   `koanf:"timeout"      validate:"min=0"        env:"CORTEX_BRAIN_TIMEOUT"`
}

// UpstreamConfig contains upstream LLM configuration.
type UpstreamConfig struct {
	URL    string          `koanf:"url"     validate:"required,url"                    env:"UPSTREAM_URL"`
	Format string          `koanf:"format"  validate:"omitempty,oneof=anthropic openai" env:"UPSTREAM_FORMAT"`
	APIKey SensitiveString `koanf:"api_key"                                            env:"ANTHROPIC_API_KEY" sensitive:"true"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error" env:"CORTEX_LOG_LEVEL"`
	LogJSON  bool   `koanf:"log_json"                                         env:"CORTEX_LOG_JSON"`
}

// LLMFormat identifies the upstream wire format.
type LLMFormat string

const (
	// FormatAnthropic is the Anthropic Messages API (system as separate field).
	FormatAnthropic LLMFormat = "anthropic"
	// FormatOpenAI is the OpenAI Chat Completions API (system as first message).
	FormatOpenAI LLMFormat = "openai"
)

// ParseLLMFormat maps a format selector string to an LLMFormat.
func ParseLLMFormat(s string) LLMFormat {
	switch strings.ToLower(s) {
	case "openai", "gpt", "mistral", "ollama", "local":
		return FormatOpenAI
	default:
		return FormatAnthropic
	}
}

// ResolvedFormat returns the configured upstream format, auto-detecting
// from the upstream URL when no explicit selector was set.
func (u *UpstreamConfig) ResolvedFormat() LLMFormat {
	if u.Format != "" {
		return ParseLLMFormat(u.Format)
	}
	url := strings.ToLower(u.URL)
	if strings.Contains(url, "openai.com") ||
		strings.Contains(url, "localhost") ||
		strings.Contains(url, "127.0.0.1:11434") ||
		strings.Contains(url, "mistral") {
		return FormatOpenAI
	}
	return FormatAnthropic
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            3031,
			ShutdownTimeout: 10 * time.Second,
		},
		Brain: BrainConfig{
			URL:         "http://127.0.0.1:3030",
			APIKey:      "sk-shodh-dev-local-testing-key",
			MaxMemories: 5,
			AutoIngest:  false,
			Timeout:     5 * time.Second,
		},
		Upstream: UpstreamConfig{
			URL: "https://api.anthropic.com",
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
	}
}

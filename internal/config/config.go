// Package config loads and validates application configuration from
// config files, environment variables, and CLI flags.
package config

import (
	"time"

	"github.com/chorus-dev/chorus/internal/core"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Provider ProviderConfig `mapstructure:"provider"`
	Voices   []VoiceConfig  `mapstructure:"voices"`
	Budget   BudgetConfig   `mapstructure:"budget"`
	Session  SessionConfig  `mapstructure:"session"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// ProviderConfig configures the model-hosting endpoint.
type ProviderConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// VoiceConfig configures one participating voice.
type VoiceConfig struct {
	ID          string        `mapstructure:"id"`
	Model       string        `mapstructure:"model"`
	Role        string        `mapstructure:"role"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// Descriptor converts the config entry into a voice descriptor.
func (c VoiceConfig) Descriptor() core.VoiceDescriptor {
	return core.VoiceDescriptor{
		ID:          core.VoiceID(c.ID),
		Model:       c.Model,
		Role:        c.Role,
		MaxTokens:   c.MaxTokens,
		CallTimeout: c.CallTimeout,
	}.Normalize()
}

// BudgetConfig configures session resource limits. Zero disables a
// dimension.
type BudgetConfig struct {
	MaxTokens     int           `mapstructure:"max_tokens"`
	MaxIterations int           `mapstructure:"max_iterations"`
	MaxWallTime   time.Duration `mapstructure:"max_wall_time"`
}

// Budget converts the config entry into a session budget.
func (c BudgetConfig) Budget() core.Budget {
	return core.Budget{
		MaxTokens:     c.MaxTokens,
		MaxIterations: c.MaxIterations,
		MaxWallTime:   c.MaxWallTime,
	}
}

// SessionConfig configures session behavior.
type SessionConfig struct {
	SkipInitialization  bool    `mapstructure:"skip_initialization"`
	MaxPhaseRounds      int     `mapstructure:"max_phase_rounds"`
	Temperature         float64 `mapstructure:"temperature"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	PressureShare       float64 `mapstructure:"pressure_share"`
}

// Options converts the config entry into session options.
func (c SessionConfig) Options() core.SessionOptions {
	return core.SessionOptions{
		SkipInitialization: c.SkipInitialization,
		MaxPhaseRounds:     c.MaxPhaseRounds,
		Temperature:        c.Temperature,
	}
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Descriptors converts all configured voices.
func (c *Config) Descriptors() []core.VoiceDescriptor {
	out := make([]core.VoiceDescriptor, len(c.Voices))
	for i, v := range c.Voices {
		out[i] = v.Descriptor()
	}
	return out
}

package config

import (
	"fmt"

	"github.com/chorus-dev/chorus/internal/core"
)

// Validate checks configuration consistency. It does not require voices to
// be present, since they may arrive later via CLI flags; voice-set
// validation happens at session construction.
func Validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
			fmt.Sprintf("invalid log level %q", cfg.Log.Level))
	}

	switch cfg.Log.Format {
	case "json", "text", "auto", "":
	default:
		return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
			fmt.Sprintf("invalid log format %q", cfg.Log.Format))
	}

	seen := make(map[string]bool, len(cfg.Voices))
	for i, v := range cfg.Voices {
		if v.Model == "" {
			return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
				fmt.Sprintf("voice %d: model is required", i))
		}
		id := v.ID
		if id == "" {
			id = v.Model
		}
		if seen[id] {
			return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
				fmt.Sprintf("duplicate voice id %q", id))
		}
		seen[id] = true
		if v.MaxTokens < 0 {
			return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
				fmt.Sprintf("voice %q: max_tokens cannot be negative", id))
		}
	}

	if cfg.Budget.MaxTokens < 0 || cfg.Budget.MaxIterations < 0 || cfg.Budget.MaxWallTime < 0 {
		return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
			"budget limits cannot be negative")
	}

	if cfg.Session.Temperature < 0 || cfg.Session.Temperature > 2 {
		return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
			fmt.Sprintf("temperature %.2f out of range [0, 2]", cfg.Session.Temperature))
	}
	if t := cfg.Session.SimilarityThreshold; t < 0 || t > 1 {
		return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
			fmt.Sprintf("similarity_threshold %.2f out of range [0, 1]", t))
	}
	if p := cfg.Session.PressureShare; p < 0 || p > 1 {
		return core.ErrInvalidConfiguration(core.CodeInvalidConfig,
			fmt.Sprintf("pressure_share %.2f out of range [0, 1]", p))
	}

	return nil
}

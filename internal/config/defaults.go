package config

import "github.com/spf13/viper"

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	// Provider defaults
	v.SetDefault("provider.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("provider.http_timeout", "120s")

	// Budget defaults
	v.SetDefault("budget.max_tokens", 8000)
	v.SetDefault("budget.max_iterations", 12)
	v.SetDefault("budget.max_wall_time", "5m")

	// Session defaults
	v.SetDefault("session.skip_initialization", false)
	v.SetDefault("session.max_phase_rounds", 3)
	v.SetDefault("session.temperature", 0.7)
	v.SetDefault("session.similarity_threshold", 0.9)
	v.SetDefault("session.pressure_share", 0.7)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
}

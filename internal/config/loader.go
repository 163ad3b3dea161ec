// Package config provides configuration management for the FixIt picks engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (FIXIT_APP_LOG_LEVEL, ...)
const EnvPrefix = "FIXIT"

// LegacyAPIKeyEnv is the environment variable the credential has always been read from
const LegacyAPIKeyEnv = "FOOTBALL_API_KEY"

// DefaultConfigPath is used when no path is given
const DefaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(data)
}

// LoadWithDefaults loads configuration with default values for every field.
// A missing file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(data)
}

func load(data []byte) (*Config, error) {
	v := newViper()

	if len(data) > 0 {
		// Expand environment variables in the configuration (${VAR} syntax)
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.APIFootball.APIKey = strings.TrimSpace(cfg.APIFootball.APIKey)
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The credential keeps its historical name alongside the prefixed one
	_ = v.BindEnv("api_football.api_key", EnvPrefix+"_API_FOOTBALL_API_KEY", LegacyAPIKeyEnv)

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fixit-engine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("api_football.base_url", "https://v3.football.api-sports.io")
	v.SetDefault("api_football.api_key", "")
	v.SetDefault("api_football.bookmaker_id", 8)
	v.SetDefault("api_football.connect_timeout_seconds", 10)
	v.SetDefault("api_football.fixtures_timeout_seconds", 30)
	v.SetDefault("api_football.odds_timeout_seconds", 15)
	v.SetDefault("api_football.prediction_timeout_seconds", 10)
	v.SetDefault("api_football.prediction_limit", 40)
	v.SetDefault("api_football.prediction_workers", 4)
	v.SetDefault("api_football.prediction_cache_ttl_minutes", 360)
	v.SetDefault("api_football.max_retries", 2)
	v.SetDefault("api_football.rate_limit", 5.0)
	v.SetDefault("api_football.max_odds_pages", 10)

	v.SetDefault("engine.reference_offset_hours", 1)
	v.SetDefault("engine.confidence_floor", 40)
	v.SetDefault("engine.max_picks", 20)
	v.SetDefault("engine.early_cutoff_hour", 7)
	v.SetDefault("engine.full_scan", true)
	v.SetDefault("engine.default_advice", "Datos Estadísticos Oficiales")
	v.SetDefault("engine.fetch_day_offsets", []int{0, 1, 2})
	v.SetDefault("engine.stats_file", "stats.json")
	v.SetDefault("engine.stats_retain_days", 7)
	v.SetDefault("engine.top_leagues", 3)

	v.SetDefault("leagues.enabled", DefaultLeagues())
	v.SetDefault("leagues.priority", []int{140, 39, 135, 78, 2, 3})

	v.SetDefault("schedule.times", []string{"0 2 * * *", "0 12 * * *"})
	v.SetDefault("schedule.timezone", "Local")
	v.SetDefault("schedule.run_on_start", true)

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout_seconds", 15)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// DefaultLeagues returns the competitions followed out of the box
func DefaultLeagues() []map[string]interface{} {
	leagues := []LeagueConfig{
		{ID: 140, Name: "La Liga"},
		{ID: 39, Name: "Premier League"},
		{ID: 135, Name: "Serie A"},
		{ID: 78, Name: "Bundesliga"},
		{ID: 61, Name: "Ligue 1"},
		{ID: 94, Name: "Liga Portugal"},
		{ID: 88, Name: "Eredivisie"},
		{ID: 40, Name: "Championship"},
		{ID: 141, Name: "La Liga 2"},
		{ID: 136, Name: "Serie B"},
		{ID: 79, Name: "2. Bundesliga"},
		{ID: 62, Name: "Ligue 2"},
		{ID: 253, Name: "MLS"},
		{ID: 262, Name: "Liga MX"},
		{ID: 128, Name: "Liga Argentina"},
		{ID: 71, Name: "Serie A Brasil"},
		{ID: 239, Name: "Liga Colombia"},
		{ID: 2, Name: "Champions League"},
		{ID: 3, Name: "Europa League"},
	}

	out := make([]map[string]interface{}, len(leagues))
	for i, l := range leagues {
		out[i] = map[string]interface{}{"id": l.ID, "name": l.Name}
	}
	return out
}

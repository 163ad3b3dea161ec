// Package config provides configuration management for the FixIt picks engine.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	APIFootball APIFootballConfig `mapstructure:"api_football" validate:"required"`
	Engine      EngineConfig      `mapstructure:"engine" validate:"required"`
	Leagues     LeaguesConfig     `mapstructure:"leagues" validate:"required"`
	Schedule    ScheduleConfig    `mapstructure:"schedule" validate:"required"`
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// APIFootballConfig represents the remote fixtures/odds/predictions API.
// An empty APIKey is allowed: the engine starts but never fetches.
type APIFootballConfig struct {
	BaseURL                   string  `mapstructure:"base_url" validate:"required,url"`
	APIKey                    string  `mapstructure:"api_key"`
	BookmakerID               int     `mapstructure:"bookmaker_id" validate:"gte=0"`
	ConnectTimeoutSeconds     int     `mapstructure:"connect_timeout_seconds" validate:"required,gt=0"`
	FixturesTimeoutSeconds    int     `mapstructure:"fixtures_timeout_seconds" validate:"required,gt=0"`
	OddsTimeoutSeconds        int     `mapstructure:"odds_timeout_seconds" validate:"required,gt=0"`
	PredictionTimeoutSeconds  int     `mapstructure:"prediction_timeout_seconds" validate:"required,gt=0"`
	PredictionLimit           int     `mapstructure:"prediction_limit" validate:"gte=0"`
	PredictionWorkers         int     `mapstructure:"prediction_workers" validate:"required,gt=0,lte=16"`
	PredictionCacheTTLMinutes int     `mapstructure:"prediction_cache_ttl_minutes" validate:"gte=0"`
	MaxRetries                int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RateLimit                 float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	MaxOddsPages              int     `mapstructure:"max_odds_pages" validate:"required,gt=0"`
}

// EngineConfig represents pick selection and result tracking settings
type EngineConfig struct {
	ReferenceOffsetHours int    `mapstructure:"reference_offset_hours" validate:"gte=-12,lte=14"`
	ConfidenceFloor      int    `mapstructure:"confidence_floor" validate:"gte=0,lte=100"`
	MaxPicks             int    `mapstructure:"max_picks" validate:"required,gt=0"`
	EarlyCutoffHour      int    `mapstructure:"early_cutoff_hour" validate:"gte=0,lte=23"`
	FullScan             bool   `mapstructure:"full_scan"`
	DefaultAdvice        string `mapstructure:"default_advice"`
	FetchDayOffsets      []int  `mapstructure:"fetch_day_offsets" validate:"required,min=1,dive,gte=-1,lte=7"`
	StatsFile            string `mapstructure:"stats_file" validate:"required"`
	StatsRetainDays      int    `mapstructure:"stats_retain_days" validate:"required,gt=0"`
	TopLeagues           int    `mapstructure:"top_leagues" validate:"required,gt=0"`
}

// LeagueConfig represents one enabled competition
type LeagueConfig struct {
	ID   int    `mapstructure:"id" validate:"required,gt=0"`
	Name string `mapstructure:"name" validate:"required"`
}

// LeaguesConfig represents the competitions the engine follows
type LeaguesConfig struct {
	Enabled  []LeagueConfig `mapstructure:"enabled" validate:"required,min=1,dive"`
	Priority []int          `mapstructure:"priority"`
}

// ScheduleConfig represents the daily refresh triggers
type ScheduleConfig struct {
	Times      []string `mapstructure:"times" validate:"required,min=1,dive,cronspec"`
	Timezone   string   `mapstructure:"timezone" validate:"required,timezone"`
	RunOnStart bool     `mapstructure:"run_on_start"`
}

// ServerConfig represents the read API and health servers
type ServerConfig struct {
	Port                  int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	HealthPort            int      `mapstructure:"health_port" validate:"required,min=1,max=65535"`
	CORSOrigins           []string `mapstructure:"cors_origins"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// HasAPIKey reports whether a remote API credential is configured
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.APIFootball.APIKey) != ""
}

// ReferenceZone returns the fixed-offset zone used for the pick window
func (c *Config) ReferenceZone() *time.Location {
	offset := c.Engine.ReferenceOffsetHours
	return time.FixedZone(fmt.Sprintf("UTC%+d", offset), offset*3600)
}

// ScheduleLocation returns the location the refresh triggers are evaluated in
func (c *Config) ScheduleLocation() (*time.Location, error) {
	if c.Schedule.Timezone == "" || c.Schedule.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// LeagueNames returns the display name of every enabled league keyed by ID
func (c *Config) LeagueNames() map[int]string {
	names := make(map[int]string, len(c.Leagues.Enabled))
	for _, l := range c.Leagues.Enabled {
		names[l.ID] = l.Name
	}
	return names
}

// PriorityLeagues returns the set of priority league IDs
func (c *Config) PriorityLeagues() map[int]bool {
	set := make(map[int]bool, len(c.Leagues.Priority))
	for _, id := range c.Leagues.Priority {
		set[id] = true
	}
	return set
}

// Seconds converts a whole number of seconds to a duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

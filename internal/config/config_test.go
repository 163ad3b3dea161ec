// Package config provides configuration management for the FixIt picks engine.
package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validConfigPath       = "testdata/valid_config.yaml"
	expansionConfigPath   = "testdata/expansion_config.yaml"
	nonexistentConfigPath = "testdata/nonexistent_config.yaml"
)

func TestLoadConfigSuccess(t *testing.T) {
	t.Setenv(LegacyAPIKeyEnv, "")

	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "fixit-engine", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 40, cfg.APIFootball.PredictionLimit)
	assert.Equal(t, 20, cfg.Engine.MaxPicks)
	assert.Equal(t, []int{0, 1, 2}, cfg.Engine.FetchDayOffsets)
	assert.Len(t, cfg.Leagues.Enabled, 3)
	assert.Equal(t, "Liga Colombia", cfg.LeagueNames()[239])
	assert.True(t, cfg.PriorityLeagues()[140])
	assert.False(t, cfg.PriorityLeagues()[239])
	assert.Equal(t, []string{"0 2 * * *", "0 12 * * *"}, cfg.Schedule.Times)
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	require.Error(t, err)
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	t.Setenv(LegacyAPIKeyEnv, "")

	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	require.NoError(t, err)

	assert.Equal(t, "https://v3.football.api-sports.io", cfg.APIFootball.BaseURL)
	assert.Equal(t, 40, cfg.Engine.ConfidenceFloor)
	assert.Equal(t, 7, cfg.Engine.EarlyCutoffHour)
	assert.True(t, cfg.Engine.FullScan)
	assert.Len(t, cfg.Leagues.Enabled, len(DefaultLeagues()))
	assert.False(t, cfg.HasAPIKey())
	require.NoError(t, Validate(cfg))
}

func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("FIXIT_APP_NAME", "test-app")

	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "test-app", cfg.App.Name)
}

func TestLoadConfigLegacyAPIKeyVariable(t *testing.T) {
	t.Setenv(LegacyAPIKeyEnv, "  legacy-key  ")

	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.APIFootball.APIKey)
	assert.True(t, cfg.HasAPIKey())
}

func TestLoadConfigEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv("TEST_FOOTBALL_KEY", "expanded_secret_value")
	t.Setenv(LegacyAPIKeyEnv, "")

	cfg, err := Load(expansionConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "expanded_secret_value", cfg.APIFootball.APIKey)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestValidateSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid environment", func(c *Config) { c.App.Environment = "invalid" }},
		{"invalid log level", func(c *Config) { c.App.LogLevel = "verbose" }},
		{"bad cron spec", func(c *Config) { c.Schedule.Times = []string{"every noon"} }},
		{"unknown timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
		{"zero max picks", func(c *Config) { c.Engine.MaxPicks = 0 }},
		{"floor above 100", func(c *Config) { c.Engine.ConfidenceFloor = 101 }},
		{"priority not enabled", func(c *Config) { c.Leagues.Priority = []int{999} }},
		{"duplicate league", func(c *Config) {
			c.Leagues.Enabled = append(c.Leagues.Enabled, LeagueConfig{ID: 140, Name: "Dup"})
		}},
		{"same ports", func(c *Config) { c.Server.HealthPort = c.Server.Port }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(validConfigPath)
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestEnvironmentChecks(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "development"}}
	assert.False(t, cfg.IsProduction())

	cfg.App.Environment = "staging"
	assert.False(t, cfg.IsProduction())

	cfg.App.Environment = "production"
	assert.True(t, cfg.IsProduction())
}

func TestReferenceZone(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{ReferenceOffsetHours: 1}}

	utc := time.Date(2026, 2, 21, 23, 30, 0, 0, time.UTC)
	local := utc.In(cfg.ReferenceZone())
	assert.Equal(t, 22, local.Day())
	assert.Equal(t, 0, local.Hour())
}

func TestScheduleLocation(t *testing.T) {
	cfg := &Config{Schedule: ScheduleConfig{Timezone: "Local"}}
	loc, err := cfg.ScheduleLocation()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Schedule.Timezone = "Europe/Madrid"
	loc, err = cfg.ScheduleLocation()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", loc.String())
}

type fakeSecrets struct {
	out *secretsmanager.GetSecretValueOutput
	err error
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return f.out, f.err
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{}
	client := &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"football_api_key":" from-aws "}`),
	}}

	require.NoError(t, ApplySecrets(context.Background(), cfg, client, "fixit/prod"))
	assert.Equal(t, "from-aws", cfg.APIFootball.APIKey)
}

func TestApplySecretsErrors(t *testing.T) {
	cfg := &Config{APIFootball: APIFootballConfig{APIKey: "kept"}}

	err := ApplySecrets(context.Background(), cfg, &fakeSecrets{err: errors.New("denied")}, "x")
	require.Error(t, err)

	err = ApplySecrets(context.Background(), cfg, &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{}}, "x")
	assert.ErrorIs(t, err, errNoSecretDataFound)

	err = ApplySecrets(context.Background(), cfg, &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String("not json"),
	}}, "x")
	require.Error(t, err)
	assert.Equal(t, "kept", cfg.APIFootball.APIKey)
}

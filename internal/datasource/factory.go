package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// APIFootballSourceType is the api-football v3 provider
	APIFootballSourceType SourceType = apiFootballSourceName
)

// Factory creates DataSource implementations based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// HTTPClientConfig derives the shared HTTP client settings from configuration
func (f *Factory) HTTPClientConfig() HTTPClientConfig {
	api := f.config.APIFootball

	httpCfg := DefaultHTTPClientConfig()
	httpCfg.ConnectTimeout = config.Seconds(api.ConnectTimeoutSeconds)
	httpCfg.Timeout = longest(
		config.Seconds(api.FixturesTimeoutSeconds),
		config.Seconds(api.OddsTimeoutSeconds),
		config.Seconds(api.PredictionTimeoutSeconds),
	)
	httpCfg.MaxRetries = api.MaxRetries
	httpCfg.RateLimit = api.RateLimit
	return httpCfg
}

// Create creates a new data source based on the type
func (f *Factory) Create(sourceType SourceType) (DataSource, error) {
	switch sourceType {
	case APIFootballSourceType:
		return f.createAPIFootballSource(), nil
	default:
		return nil, fmt.Errorf("unknown data source type: %s", sourceType)
	}
}

// NewFromConfig builds the configured api-football source with its own HTTP client
func NewFromConfig(cfg *config.Config, logger *logrus.Logger) (DataSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return NewFactory(cfg, logger).Create(APIFootballSourceType)
}

func (f *Factory) createAPIFootballSource() *APIFootballClient {
	api := f.config.APIFootball
	httpClient := NewRateLimitedHTTPClient(f.HTTPClientConfig(), f.logger)

	return NewAPIFootballClient(httpClient, APIFootballOptions{
		BaseURL:     api.BaseURL,
		APIKey:      api.APIKey,
		BookmakerID: api.BookmakerID,
		Leagues:     f.config.LeagueNames(),
		Timeouts: Timeouts{
			Fixtures:   config.Seconds(api.FixturesTimeoutSeconds),
			Odds:       config.Seconds(api.OddsTimeoutSeconds),
			Prediction: config.Seconds(api.PredictionTimeoutSeconds),
		},
		PredictionWorkers: api.PredictionWorkers,
		MaxOddsPages:      api.MaxOddsPages,
		Cache:             NewPredictionCache(time.Duration(api.PredictionCacheTTLMinutes) * time.Minute),
	}, f.logger)
}

func longest(durations ...time.Duration) time.Duration {
	var max time.Duration
	for _, d := range durations {
		if d > max {
			max = d
		}
	}
	return max
}

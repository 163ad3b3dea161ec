package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fixitpro/fixit-engine/internal/logger"
	"github.com/fixitpro/fixit-engine/internal/metrics"
	"github.com/fixitpro/fixit-engine/internal/models"
)

const (
	apiFootballSourceName = "api_football"
	apiKeyHeader          = "x-apisports-key"
	dateLayout            = "2006-01-02"
	maxDiagnosticLength   = 200
)

// Timeouts holds the per-endpoint request timeouts
type Timeouts struct {
	Fixtures   time.Duration
	Odds       time.Duration
	Prediction time.Duration
}

// APIFootballOptions configures an APIFootballClient
type APIFootballOptions struct {
	BaseURL           string
	APIKey            string
	BookmakerID       int
	Leagues           map[int]string // enabled leagues; empty keeps every league
	Timeouts          Timeouts
	PredictionWorkers int
	MaxOddsPages      int
	Cache             *PredictionCache
}

// APIFootballClient implements DataSource for the api-football v3 API
type APIFootballClient struct {
	httpClient   *RateLimitedHTTPClient
	baseURL      string
	apiKey       string
	bookmakerID  int
	leagues      map[int]string
	timeouts     Timeouts
	workers      int
	maxOddsPages int
	cache        *PredictionCache
	logger       *logger.DataSourceLogger
}

// NewAPIFootballClient creates a new api-football client
func NewAPIFootballClient(httpClient *RateLimitedHTTPClient, opts APIFootballOptions, log *logrus.Logger) *APIFootballClient {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.PredictionWorkers <= 0 {
		opts.PredictionWorkers = 1
	}
	if opts.MaxOddsPages <= 0 {
		opts.MaxOddsPages = 1
	}

	return &APIFootballClient{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       strings.TrimSpace(opts.APIKey),
		bookmakerID:  opts.BookmakerID,
		leagues:      opts.Leagues,
		timeouts:     opts.Timeouts,
		workers:      opts.PredictionWorkers,
		maxOddsPages: opts.MaxOddsPages,
		cache:        opts.Cache,
		logger:       logger.NewDataSourceLogger(log, apiFootballSourceName),
	}
}

// Name returns the data source name
func (c *APIFootballClient) Name() string {
	return apiFootballSourceName
}

// Close releases the client's idle connections
func (c *APIFootballClient) Close() error {
	return c.httpClient.Close()
}

// FetchFixtures retrieves the fixtures scheduled on date, keeping only enabled leagues
func (c *APIFootballClient) FetchFixtures(ctx context.Context, date time.Time) ([]models.Fixture, error) {
	query := url.Values{"date": {date.Format(dateLayout)}}

	var raw []FixtureResponse
	if _, err := c.getJSON(ctx, "fixtures", query, c.timeouts.Fixtures, &raw); err != nil {
		return nil, err
	}

	fixtures := make([]models.Fixture, 0, len(raw))
	for i := range raw {
		if len(c.leagues) > 0 {
			if _, ok := c.leagues[raw[i].League.ID]; !ok {
				continue
			}
		}
		fixture, err := convertFixture(&raw[i], c.leagues)
		if err != nil {
			c.logger.WithError(err).Warn("Skipping malformed fixture")
			continue
		}
		fixtures = append(fixtures, fixture)
	}

	c.logger.WithFields(logrus.Fields{
		"date":     date.Format(dateLayout),
		"received": len(raw),
		"kept":     len(fixtures),
	}).Info("Fixtures fetched")

	return fixtures, nil
}

// FetchOdds retrieves priced markets for the fixtures scheduled on date,
// following pagination up to the configured page limit.
func (c *APIFootballClient) FetchOdds(ctx context.Context, date time.Time) (models.OddsSnapshot, error) {
	snapshot := make(models.OddsSnapshot)

	for page := 1; page <= c.maxOddsPages; page++ {
		query := url.Values{"date": {date.Format(dateLayout)}}
		if page > 1 {
			query.Set("page", strconv.Itoa(page))
		}

		var raw []OddsResponse
		pg, err := c.getJSON(ctx, "odds", query, c.timeouts.Odds, &raw)
		if err != nil {
			return nil, err
		}

		for i := range raw {
			markets := convertOdds(selectBookmaker(raw[i].Bookmakers, c.bookmakerID))
			if len(markets) > 0 {
				snapshot[raw[i].Fixture.ID] = markets
			}
		}

		if pg.Total <= page {
			break
		}
	}

	c.logger.WithFields(logrus.Fields{
		"date":     date.Format(dateLayout),
		"fixtures": len(snapshot),
	}).Info("Odds fetched")

	return snapshot, nil
}

// FetchPredictions retrieves native predictions for at most limit fixtures.
// Requests run on a bounded worker pool; one fixture's failure is logged and
// skipped. Only a missing credential or cancellation fails the batch.
func (c *APIFootballClient) FetchPredictions(ctx context.Context, fixtureIDs []int64, limit int) (models.PredictionSnapshot, error) {
	if c.apiKey == "" {
		return nil, c.missingKeyError()
	}
	if limit >= 0 && len(fixtureIDs) > limit {
		fixtureIDs = fixtureIDs[:limit]
	}

	var (
		mu      sync.Mutex
		result  = make(models.PredictionSnapshot, len(fixtureIDs))
		cached  int
		fetched int
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, id := range fixtureIDs {
		id := id
		if pred, ok := c.cache.Get(id); ok {
			mu.Lock()
			result[id] = pred
			cached++
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			pred, found, err := c.fetchPrediction(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				c.logger.LogPredictionError(id, err)
				return nil
			}
			fetched++
			if found {
				result[id] = pred
				c.cache.Set(id, pred)
			}
			return nil
		})
	}

	_ = g.Wait()
	_, _, hitRatio := c.cache.Stats()
	c.logger.LogPredictionBatch(len(fixtureIDs), fetched, cached, failed, c.cache.ItemCount(), hitRatio)

	if err := ctx.Err(); err != nil {
		return result, NewDataSourceError(apiFootballSourceName, ErrCodeNetworkError, "prediction batch cancelled", err)
	}
	return result, nil
}

// fetchPrediction fetches one fixture's prediction. found is false when the
// provider has no prediction for the fixture.
func (c *APIFootballClient) fetchPrediction(ctx context.Context, fixtureID int64) (models.Prediction, bool, error) {
	query := url.Values{"fixture": {strconv.FormatInt(fixtureID, 10)}}

	var raw []PredictionResponse
	if _, err := c.getJSON(ctx, "predictions", query, c.timeouts.Prediction, &raw); err != nil {
		return models.Prediction{}, false, err
	}
	if len(raw) == 0 {
		return models.Prediction{}, false, nil
	}
	return convertPrediction(&raw[0]), true, nil
}

// getJSON performs one GET against endpoint, checks the status and the error
// envelope, and decodes the response list into out.
func (c *APIFootballClient) getJSON(ctx context.Context, endpoint string, query url.Values, timeout time.Duration, out interface{}) (paging, error) {
	if c.apiKey == "" {
		return paging{}, c.missingKeyError()
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return paging{}, NewDataSourceError(apiFootballSourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, 0)
		return paging{}, NewDataSourceError(apiFootballSourceName, ErrCodeNetworkError, "Conexión API", fmt.Errorf("%w: %v", ErrNetworkError, err))
	}
	defer resp.Body.Close()
	metrics.RecordAPIRequest(endpoint, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return paging{}, NewDataSourceError(apiFootballSourceName, ErrCodeNetworkError, "failed to read response", fmt.Errorf("%w: %v", ErrNetworkError, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := truncate(string(body), maxDiagnosticLength)
		c.logger.LogAPIError(endpoint, resp.StatusCode, detail)
		return paging{}, statusError(resp.StatusCode, detail)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return paging{}, NewDataSourceError(apiFootballSourceName, ErrCodeInvalidData, "failed to parse response", fmt.Errorf("%w: %v", ErrInvalidData, err))
	}

	if msg, ok := env.errorMessage(); ok {
		c.logger.LogAPIError(endpoint, resp.StatusCode, truncate(msg, maxDiagnosticLength))
		dsErr := NewDataSourceError(apiFootballSourceName, ErrCodeAPIError, msg, ErrAPIError)
		dsErr.StatusCode = resp.StatusCode
		return paging{}, dsErr
	}

	if len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return paging{}, NewDataSourceError(apiFootballSourceName, ErrCodeInvalidData, "failed to parse response list", fmt.Errorf("%w: %v", ErrInvalidData, err))
		}
	}

	c.logger.LogRequest(endpoint, resp.StatusCode, env.Results, float64(time.Since(start).Microseconds())/1000)
	return env.Paging, nil
}

func (c *APIFootballClient) missingKeyError() error {
	return NewDataSourceError(apiFootballSourceName, ErrCodeMissingCredential, "Falta API KEY", ErrMissingAPIKey)
}

// statusError maps a non-2xx status to a DataSourceError
func statusError(statusCode int, detail string) error {
	var dsErr DataSourceError
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		dsErr = NewDataSourceError(apiFootballSourceName, ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case http.StatusTooManyRequests:
		dsErr = NewDataSourceError(apiFootballSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	default:
		dsErr = NewDataSourceError(apiFootballSourceName, ErrCodeServerError, strconv.Itoa(statusCode), fmt.Errorf("%w: %s", ErrServerError, detail))
	}
	dsErr.StatusCode = statusCode
	return dsErr
}

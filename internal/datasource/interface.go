package datasource

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/fixitpro/fixit-engine/internal/models"
)

// DataSource defines the interface for fetching football data from an external provider
type DataSource interface {
	// FetchFixtures retrieves the fixtures scheduled on date
	FetchFixtures(ctx context.Context, date time.Time) ([]models.Fixture, error)

	// FetchOdds retrieves priced markets for the fixtures scheduled on date
	FetchOdds(ctx context.Context, date time.Time) (models.OddsSnapshot, error)

	// FetchPredictions retrieves native predictions for at most limit of fixtureIDs,
	// in order. A failure for one fixture does not abort the batch.
	FetchPredictions(ctx context.Context, fixtureIDs []int64, limit int) (models.PredictionSnapshot, error)

	// Name returns the name of the data source
	Name() string

	// Close releases pooled connections
	Close() error
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source     string // Data source name
	Code       string // Error code (e.g., "rate_limit_exceeded")
	Message    string // Error message
	StatusCode int    // HTTP status, 0 if no response
	Err        error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeMissingCredential    = "missing_credential"
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeAPIError             = "api_error"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// Error constructors
var (
	ErrMissingAPIKey        = errors.New("missing API key")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAPIError             = errors.New("api reported errors")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsConfigurationError reports whether err is caused by a missing credential
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrMissingAPIKey)
}

// ShortMessage returns a summary of err short enough for a status line
func ShortMessage(err error, max int) string {
	if err == nil {
		return ""
	}
	var dsErr DataSourceError
	if errors.As(err, &dsErr) && dsErr.Message != "" {
		return truncate(dsErr.Message, max)
	}
	return truncate(err.Error(), max)
}

// truncate cuts s to at most max runes
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// Package logger provides remote API logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// DataSourceLogger provides dedicated logging for remote API calls.
type DataSourceLogger struct {
	*logrus.Entry
}

// NewDataSourceLogger creates a new data source logger.
func NewDataSourceLogger(baseLogger *logrus.Logger, source string) *DataSourceLogger {
	return &DataSourceLogger{
		Entry: baseLogger.WithFields(logrus.Fields{
			"component": "datasource",
			"source":    source,
		}),
	}
}

// LogRequest logs a completed remote request.
func (dl *DataSourceLogger) LogRequest(endpoint string, statusCode int, results int, latencyMs float64) {
	dl.WithFields(logrus.Fields{
		"endpoint":    endpoint,
		"status_code": statusCode,
		"results":     results,
		"latency_ms":  latencyMs,
	}).Debug("Remote request completed")
}

// LogPredictionError logs a prediction fetch that was skipped.
func (dl *DataSourceLogger) LogPredictionError(fixtureID int64, err error) {
	dl.WithFields(logrus.Fields{
		"fixture_id": fixtureID,
		"endpoint":   "predictions",
	}).WithError(err).Warn("Prediction fetch failed, fixture skipped")
}

// LogPredictionBatch logs the outcome of a prediction batch with the cache state.
func (dl *DataSourceLogger) LogPredictionBatch(requested, fetched, cached, failed, cacheItems int, cacheHitRatio float64) {
	dl.WithFields(logrus.Fields{
		"requested":       requested,
		"fetched":         fetched,
		"cached":          cached,
		"failed":          failed,
		"cache_items":     cacheItems,
		"cache_hit_ratio": cacheHitRatio,
	}).Info("Prediction batch completed")
}

// LogAPIError logs an error envelope or unexpected status with a truncated body.
func (dl *DataSourceLogger) LogAPIError(endpoint string, statusCode int, detail string) {
	dl.WithFields(logrus.Fields{
		"endpoint":    endpoint,
		"status_code": statusCode,
		"detail":      detail,
	}).Error("Remote API returned an error")
}

// Package logger provides result tracking logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// TrackerLogger provides an audit trail of stats mutations.
type TrackerLogger struct {
	*logrus.Entry
}

// NewTrackerLogger creates a new tracker logger.
func NewTrackerLogger(baseLogger *logrus.Logger) *TrackerLogger {
	return &TrackerLogger{
		Entry: baseLogger.WithField("component", "tracker"),
	}
}

// LogFixtureScored logs one finished fixture counted into the stats.
func (tl *TrackerLogger) LogFixtureScored(fixtureID int64, league string, won bool) {
	tl.WithFields(logrus.Fields{
		"fixture_id": fixtureID,
		"league":     league,
		"won":        won,
	}).Debug("Fixture scored")
}

// LogStatsPersisted logs a successful write of the stats document.
func (tl *TrackerLogger) LogStatsPersisted(path string, wins, losses, scored int) {
	tl.WithFields(logrus.Fields{
		"path":   path,
		"wins":   wins,
		"losses": losses,
		"scored": scored,
	}).Info("Stats document written")
}

// LogStatsReset logs a fallback to a zeroed stats document.
func (tl *TrackerLogger) LogStatsReset(path string, reason error) {
	tl.WithFields(logrus.Fields{
		"path":       path,
		"event_type": "stats_reset",
	}).WithError(reason).Warn("Stats document unreadable, starting from zero")
}

// Package logger provides refresh-cycle logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RefreshLogger provides dedicated logging for refresh cycles.
type RefreshLogger struct {
	*logrus.Entry
}

// NewRefreshLogger creates a new refresh logger.
func NewRefreshLogger(baseLogger *logrus.Logger) *RefreshLogger {
	return &RefreshLogger{
		Entry: baseLogger.WithField("component", "refresh"),
	}
}

// LogCycleStarted logs the start of a refresh cycle.
func (rl *RefreshLogger) LogCycleStarted(cycleID string, dates []string) {
	rl.WithFields(logrus.Fields{
		"cycle_id": cycleID,
		"dates":    dates,
	}).Info("Refresh cycle started")
}

// LogPhaseCompleted logs a completed phase.
func (rl *RefreshLogger) LogPhaseCompleted(cycleID, phase string, items int, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"cycle_id":    cycleID,
		"phase":       phase,
		"items":       items,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}).Info("Refresh phase completed")
}

// LogPhaseFailed logs a phase that aborted the cycle.
func (rl *RefreshLogger) LogPhaseFailed(cycleID, phase string, err error) {
	rl.WithFields(logrus.Fields{
		"cycle_id":   cycleID,
		"phase":      phase,
		"event_type": "phase_failed",
	}).WithError(err).Error("Refresh phase failed")
}

// LogCycleCompleted logs the summary of a successful cycle.
func (rl *RefreshLogger) LogCycleCompleted(cycleID string, fixtures, odds, predictions, picks int, duration time.Duration) {
	rl.WithFields(logrus.Fields{
		"cycle_id":    cycleID,
		"fixtures":    fixtures,
		"odds":        odds,
		"predictions": predictions,
		"picks":       picks,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}).Info("Refresh cycle completed")
}

// LogCycleSkipped logs a trigger that arrived while a cycle was running.
func (rl *RefreshLogger) LogCycleSkipped(trigger string) {
	rl.WithFields(logrus.Fields{
		"trigger":    trigger,
		"event_type": "skipped",
	}).Warn("Refresh already in progress, trigger ignored")
}

package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/fixitpro/fixit-engine/internal/metrics"
)

// RefreshMetrics tracks statistics about one refresh cycle
type RefreshMetrics struct {
	mu          sync.RWMutex
	CycleID     string
	StartTime   time.Time
	Duration    time.Duration
	Fixtures    int
	Rejected    int
	Odds        int
	Predictions int
	Picks       int
	Scored      int
	Errors      int
	Result      string
}

// NewRefreshMetrics creates a new metrics tracker
func NewRefreshMetrics(cycleID string, start time.Time) *RefreshMetrics {
	return &RefreshMetrics{
		CycleID:   cycleID,
		StartTime: start,
	}
}

// RecordError increments error count
func (m *RefreshMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// RecordRejected adds fixtures dropped by validation
func (m *RefreshMetrics) RecordRejected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejected += n
}

// SetSizes records the committed container sizes
func (m *RefreshMetrics) SetSizes(fixtures, odds, predictions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fixtures = fixtures
	m.Odds = odds
	m.Predictions = predictions
}

// SetPicks records the shortlist size
func (m *RefreshMetrics) SetPicks(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Picks = n
}

// SetScored records fixtures scored by the tracker
func (m *RefreshMetrics) SetScored(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scored = n
}

// Finish stamps the outcome and exports the cycle to Prometheus
func (m *RefreshMetrics) Finish(result string, end time.Time) {
	m.mu.Lock()
	m.Result = result
	m.Duration = end.Sub(m.StartTime)
	duration := m.Duration
	fixtures, picks := m.Fixtures, m.Picks
	m.mu.Unlock()

	metrics.RecordRefreshCycle(result, duration.Seconds())
	if result == resultSuccess {
		metrics.UpdateSnapshotSizes(fixtures, picks)
		metrics.UpdateLastSuccess(float64(end.Unix()))
	}
}

// Snapshot returns a copy safe to read without the lock
func (m *RefreshMetrics) Snapshot() RefreshMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return RefreshMetrics{
		CycleID:     m.CycleID,
		StartTime:   m.StartTime,
		Duration:    m.Duration,
		Fixtures:    m.Fixtures,
		Rejected:    m.Rejected,
		Odds:        m.Odds,
		Predictions: m.Predictions,
		Picks:       m.Picks,
		Scored:      m.Scored,
		Errors:      m.Errors,
		Result:      m.Result,
	}
}

// String returns a formatted string representation of metrics
func (m *RefreshMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fmt.Sprintf(
		"RefreshMetrics{Cycle=%s, Result=%s, Fixtures=%d, Rejected=%d, Odds=%d, Predictions=%d, Picks=%d, Scored=%d, Errors=%d, Duration=%v}",
		m.CycleID,
		m.Result,
		m.Fixtures,
		m.Rejected,
		m.Odds,
		m.Predictions,
		m.Picks,
		m.Scored,
		m.Errors,
		m.Duration,
	)
}

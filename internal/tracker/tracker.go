// Package tracker scores finished fixtures into the persisted win/loss
// document.
package tracker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/logger"
	"github.com/fixitpro/fixit-engine/internal/metrics"
	"github.com/fixitpro/fixit-engine/internal/models"
)

const scoredDateLayout = "2006-01-02"

// Result summarizes one Process call
type Result struct {
	Scored    int
	Wins      int
	Losses    int
	Pruned    int
	Persisted bool
}

// Tracker counts every finished fixture once as a home-win success or a
// failure and keeps the document on disk.
type Tracker struct {
	path       string
	retainDays int
	logger     *logger.TrackerLogger

	mu    sync.Mutex
	stats models.Stats
	// dirty is set while in-memory changes have not reached disk
	dirty bool
}

// New creates a tracker backed by path. Call Load before Process.
func New(path string, retainDays int, log *logrus.Logger) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{
		path:       path,
		retainDays: retainDays,
		logger:     logger.NewTrackerLogger(log),
		stats:      models.NewStats(),
	}
}

// Load reads the document. A missing or unreadable file leaves a zeroed
// document in place; the returned error is informational.
func (t *Tracker) Load() error {
	stats, err := readStats(t.path)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.dirty = false
	if err != nil {
		t.stats = models.NewStats()
		if !errors.Is(err, fs.ErrNotExist) {
			t.logger.LogStatsReset(t.path, err)
		}
		metrics.UpdateStats(0, 0)
		return err
	}

	t.stats = stats
	metrics.UpdateStats(stats.Wins, stats.Losses)
	return nil
}

// Process scores every finished fixture not seen before and writes the
// document if anything changed since the last successful write.
func (t *Tracker) Process(fixtures []models.Fixture, now time.Time) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res Result
	for i := range fixtures {
		f := &fixtures[i]
		if !f.IsFinished() {
			continue
		}
		if _, done := t.stats.Scored[f.ID]; done {
			continue
		}

		won := f.HomeWon()
		if won {
			t.stats.Wins++
			t.stats.Leagues[f.LeagueName]++
			res.Wins++
		} else {
			t.stats.Losses++
			res.Losses++
		}
		t.stats.Scored[f.ID] = f.Kickoff.UTC().Format(scoredDateLayout)
		res.Scored++

		metrics.RecordFixtureScored(won)
		t.logger.LogFixtureScored(f.ID, f.LeagueName, won)
	}

	res.Pruned = t.prune(now)
	if res.Scored > 0 || res.Pruned > 0 {
		t.dirty = true
	}
	if !t.dirty {
		return res, nil
	}

	if err := writeStats(t.path, t.stats); err != nil {
		return res, fmt.Errorf("failed to persist stats: %w", err)
	}
	t.dirty = false
	res.Persisted = true
	metrics.UpdateStats(t.stats.Wins, t.stats.Losses)
	t.logger.LogStatsPersisted(t.path, t.stats.Wins, t.stats.Losses, len(t.stats.Scored))

	return res, nil
}

// prune forgets scored fixtures older than the retention window. Their
// counts stay in the totals.
func (t *Tracker) prune(now time.Time) int {
	if t.retainDays <= 0 {
		return 0
	}
	cutoff := now.UTC().AddDate(0, 0, -t.retainDays).Format(scoredDateLayout)

	pruned := 0
	for id, day := range t.stats.Scored {
		if day < cutoff {
			delete(t.stats.Scored, id)
			pruned++
		}
	}
	return pruned
}

// Stats returns a copy of the document
func (t *Tracker) Stats() models.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.Clone()
}

// TopLeagues returns the n leagues with most wins
func (t *Tracker) TopLeagues(n int) []models.LeagueCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.TopLeagues(n)
}

// Path returns the document location
func (t *Tracker) Path() string {
	return t.path
}

func readStats(path string) (models.Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Stats{}, err
	}

	var stats models.Stats
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&stats); err != nil {
		return models.Stats{}, fmt.Errorf("corrupt stats document: %w", err)
	}
	if stats.Wins < 0 || stats.Losses < 0 {
		return models.Stats{}, fmt.Errorf("corrupt stats document: negative counters")
	}
	if stats.Leagues == nil {
		stats.Leagues = make(map[string]int)
	}
	if stats.Scored == nil {
		stats.Scored = make(map[int64]string)
	}
	return stats, nil
}

// writeStats replaces the document atomically via a temp file and rename
func writeStats(path string, stats models.Stats) error {
	data, err := json.MarshalIndent(stats, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

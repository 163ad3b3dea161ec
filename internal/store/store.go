// Package store holds the in-memory fixture, odds, prediction and pick
// containers shared between the refresh cycle and readers.
package store

import (
	"sync"

	"github.com/fixitpro/fixit-engine/internal/models"
)

// Snapshot is an independent copy of every container taken under one lock
type Snapshot struct {
	Fixtures    []models.Fixture
	Odds        models.OddsSnapshot
	Predictions models.PredictionSnapshot
	Picks       []models.Pick
}

// Counts reports container sizes
type Counts struct {
	Fixtures    int `json:"fixtures"`
	Odds        int `json:"odds"`
	Predictions int `json:"predictions"`
	Picks       int `json:"picks"`
}

// MatchStore is safe for one writer and many readers. Every read returns a
// copy; no locked method calls another.
type MatchStore struct {
	mu          sync.RWMutex
	fixtures    []models.Fixture
	odds        models.OddsSnapshot
	predictions models.PredictionSnapshot
	picks       []models.Pick
}

// New creates an empty store
func New() *MatchStore {
	return &MatchStore{
		fixtures:    []models.Fixture{},
		odds:        models.OddsSnapshot{},
		predictions: models.PredictionSnapshot{},
		picks:       []models.Pick{},
	}
}

// Commit replaces fixtures, odds and predictions in one critical section.
// The store takes ownership of the arguments.
func (s *MatchStore) Commit(fixtures []models.Fixture, odds models.OddsSnapshot, predictions models.PredictionSnapshot) {
	if fixtures == nil {
		fixtures = []models.Fixture{}
	}
	if odds == nil {
		odds = models.OddsSnapshot{}
	}
	if predictions == nil {
		predictions = models.PredictionSnapshot{}
	}

	s.mu.Lock()
	s.fixtures = fixtures
	s.odds = odds
	s.predictions = predictions
	s.mu.Unlock()
}

// SetPicks replaces the shortlist
func (s *MatchStore) SetPicks(picks []models.Pick) {
	cp := models.ClonePicks(picks)

	s.mu.Lock()
	s.picks = cp
	s.mu.Unlock()
}

// Snapshot copies all four containers under one read lock
func (s *MatchStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Fixtures:    cloneFixtures(s.fixtures),
		Odds:        s.odds.Clone(),
		Predictions: s.predictions.Clone(),
		Picks:       models.ClonePicks(s.picks),
	}
}

// Fixtures returns a copy of the fixture list
func (s *MatchStore) Fixtures() []models.Fixture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFixtures(s.fixtures)
}

// Picks returns a copy of the shortlist
func (s *MatchStore) Picks() []models.Pick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ClonePicks(s.picks)
}

// PickIDs returns the fixture IDs of the current shortlist
func (s *MatchStore) PickIDs() map[int64]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[int64]bool, len(s.picks))
	for _, p := range s.picks {
		ids[p.FixtureID] = true
	}
	return ids
}

// Counts returns the size of every container
func (s *MatchStore) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Counts{
		Fixtures:    len(s.fixtures),
		Odds:        len(s.odds),
		Predictions: len(s.predictions),
		Picks:       len(s.picks),
	}
}

func cloneFixtures(in []models.Fixture) []models.Fixture {
	out := make([]models.Fixture, len(in))
	for i, f := range in {
		if f.HomeGoals != nil {
			h := *f.HomeGoals
			f.HomeGoals = &h
		}
		if f.AwayGoals != nil {
			a := *f.AwayGoals
			f.AwayGoals = &a
		}
		out[i] = f
	}
	return out
}

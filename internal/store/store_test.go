package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixitpro/fixit-engine/internal/models"
)

func intPtr(v int) *int { return &v }

func sampleFixtures() []models.Fixture {
	return []models.Fixture{
		{ID: 1, LeagueID: 140, LeagueName: "La Liga", Kickoff: time.Now(), HomeTeam: "A", AwayTeam: "B", Status: "NS"},
		{ID: 2, LeagueID: 39, LeagueName: "Premier League", Kickoff: time.Now(), HomeTeam: "C", AwayTeam: "D", Status: "FT", HomeGoals: intPtr(1), AwayGoals: intPtr(0)},
	}
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := New()
	assert.Equal(t, Counts{}, s.Counts())

	snap := s.Snapshot()
	assert.NotNil(t, snap.Fixtures)
	assert.NotNil(t, snap.Picks)
	assert.Empty(t, snap.Odds)
}

func TestCommitAndSnapshot(t *testing.T) {
	s := New()
	s.Commit(sampleFixtures(),
		models.OddsSnapshot{1: {models.MarketHomeWin: 1.5}},
		models.PredictionSnapshot{1: {HomePercent: 60, HasHomePercent: true}},
	)
	s.SetPicks([]models.Pick{{FixtureID: 1, Probability: 60}})

	snap := s.Snapshot()
	require.Len(t, snap.Fixtures, 2)
	assert.Len(t, snap.Odds, 1)
	assert.Len(t, snap.Predictions, 1)
	assert.Len(t, snap.Picks, 1)
	assert.Equal(t, Counts{Fixtures: 2, Odds: 1, Predictions: 1, Picks: 1}, s.Counts())
	assert.Equal(t, map[int64]bool{1: true}, s.PickIDs())
}

func TestReadsReturnCopies(t *testing.T) {
	s := New()
	s.Commit(sampleFixtures(), models.OddsSnapshot{1: {models.MarketHomeWin: 1.5}}, nil)
	odds := 1.5
	s.SetPicks([]models.Pick{{FixtureID: 1, Odds: &odds}})

	fixtures := s.Fixtures()
	fixtures[0].HomeTeam = "mutated"
	*fixtures[1].HomeGoals = 9

	snap := s.Snapshot()
	snap.Odds[1][models.MarketHomeWin] = 99
	delete(snap.Odds, 1)

	picks := s.Picks()
	*picks[0].Odds = 42
	odds = 7

	again := s.Snapshot()
	assert.Equal(t, "A", again.Fixtures[0].HomeTeam)
	assert.Equal(t, 1, *again.Fixtures[1].HomeGoals)
	v, ok := again.Odds.Get(1, models.MarketHomeWin)
	require.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.Equal(t, 1.5, *again.Picks[0].Odds)
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Commit(sampleFixtures(), models.OddsSnapshot{int64(i): {models.MarketBTTS: 1.9}}, nil)
			s.SetPicks([]models.Pick{{FixtureID: int64(i)}})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := s.Snapshot()
				assert.True(t, len(snap.Fixtures) == 0 || len(snap.Fixtures) == 2)
				_ = s.PickIDs()
				_ = s.Counts()
			}
		}()
	}

	wg.Wait()
}

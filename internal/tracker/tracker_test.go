package tracker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixitpro/fixit-engine/internal/logger"
	"github.com/fixitpro/fixit-engine/internal/models"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func finished(id int64, league string, home, away int, status string) models.Fixture {
	return models.Fixture{
		ID:         id,
		LeagueName: league,
		Kickoff:    testNow.Add(-3 * time.Hour),
		HomeTeam:   "H",
		AwayTeam:   "A",
		Status:     status,
		HomeGoals:  intPtr(home),
		AwayGoals:  intPtr(away),
	}
}

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	tr := New(filepath.Join(t.TempDir(), "stats.json"), 7, logger.NewNopLogger())
	_ = tr.Load()
	return tr
}

func TestLoadMissingFileStartsZeroed(t *testing.T) {
	tr := New(filepath.Join(t.TempDir(), "missing.json"), 7, logger.NewNopLogger())
	err := tr.Load()
	assert.True(t, os.IsNotExist(err))

	stats := tr.Stats()
	assert.Equal(t, 0, stats.Wins)
	assert.Equal(t, 0, stats.Losses)
	assert.NotNil(t, stats.Leagues)
}

func TestLoadCorruptFileStartsZeroed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	tr := New(path, 7, logger.NewNopLogger())
	assert.Error(t, tr.Load())
	assert.Equal(t, 0, tr.Stats().Total())
}

func TestLoadExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	doc := `{"ganadas": 5, "perdidas": 2, "ligas": {"La Liga": 3, "Serie A": 2}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tr := New(path, 7, logger.NewNopLogger())
	require.NoError(t, tr.Load())

	stats := tr.Stats()
	assert.Equal(t, 5, stats.Wins)
	assert.Equal(t, 2, stats.Losses)
	assert.Equal(t, 3, stats.Leagues["La Liga"])
	assert.NotNil(t, stats.Scored)
}

func TestProcessScoresFinishedFixtures(t *testing.T) {
	tr := newTracker(t)

	fixtures := []models.Fixture{
		finished(1, "La Liga", 2, 0, "FT"),
		finished(2, "La Liga", 1, 1, "FT"),
		finished(3, "Premier League", 0, 1, "AET"),
		finished(4, "Premier League", 3, 2, "PEN"),
		{ID: 5, LeagueName: "La Liga", Status: "NS", Kickoff: testNow},
		{ID: 6, LeagueName: "La Liga", Status: "2H", Kickoff: testNow, HomeGoals: intPtr(1), AwayGoals: intPtr(0)},
	}

	res, err := tr.Process(fixtures, testNow)
	require.NoError(t, err)
	assert.Equal(t, Result{Scored: 4, Wins: 2, Losses: 2, Persisted: true}, res)

	stats := tr.Stats()
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 2, stats.Losses)
	assert.Equal(t, map[string]int{"La Liga": 1, "Premier League": 1}, stats.Leagues)
}

func TestProcessRerunDoesNotDoubleCount(t *testing.T) {
	tr := newTracker(t)
	fixtures := []models.Fixture{finished(1, "La Liga", 2, 0, "FT"), finished(2, "Serie A", 0, 0, "FT")}

	_, err := tr.Process(fixtures, testNow)
	require.NoError(t, err)
	res, err := tr.Process(fixtures, testNow.Add(10*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Scored)
	assert.False(t, res.Persisted)
	stats := tr.Stats()
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
}

func TestDedupSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	fixtures := []models.Fixture{finished(1, "La Liga", 2, 0, "FT")}

	first := New(path, 7, logger.NewNopLogger())
	require.NoError(t, first.Load())
	_, err := first.Process(fixtures, testNow)
	require.NoError(t, err)

	second := New(path, 7, logger.NewNopLogger())
	require.NoError(t, second.Load())
	res, err := second.Process(fixtures, testNow)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Scored)
	assert.Equal(t, 1, second.Stats().Wins)
}

func TestFailedWriteIsRetriedNextCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	// a non-empty directory at the document path makes the rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o755))

	tr := New(path, 7, logger.NewNopLogger())
	_ = tr.Load()
	fixtures := []models.Fixture{finished(1, "La Liga", 2, 0, "FT")}

	res, err := tr.Process(fixtures, testNow)
	require.Error(t, err)
	assert.Equal(t, 1, res.Scored)
	assert.False(t, res.Persisted)

	require.NoError(t, os.RemoveAll(path))

	res, err = tr.Process(fixtures, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scored, "fixture must not be counted twice")
	assert.True(t, res.Persisted)

	reloaded := New(path, 7, logger.NewNopLogger())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 1, reloaded.Stats().Wins)
	assert.Equal(t, 1, reloaded.Stats().Leagues["La Liga"])

	res, err = tr.Process(fixtures, testNow)
	require.NoError(t, err)
	assert.False(t, res.Persisted, "nothing left to write")
}

func TestPruneKeepsTotals(t *testing.T) {
	tr := newTracker(t)
	old := finished(1, "La Liga", 1, 0, "FT")
	old.Kickoff = testNow.AddDate(0, 0, -10)

	_, err := tr.Process([]models.Fixture{old}, testNow.AddDate(0, 0, -10))
	require.NoError(t, err)
	require.Len(t, tr.Stats().Scored, 1)

	res, err := tr.Process(nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pruned)
	assert.True(t, res.Persisted)

	stats := tr.Stats()
	assert.Empty(t, stats.Scored)
	assert.Equal(t, 1, stats.Wins)
}

func TestDocumentFormat(t *testing.T) {
	tr := newTracker(t)
	_, err := tr.Process([]models.Fixture{finished(7, "La Liga", 1, 0, "FT")}, testNow)
	require.NoError(t, err)

	data, err := os.ReadFile(tr.Path())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n    \"ganadas\": 1"), "four-space indent")

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "ganadas")
	assert.Contains(t, raw, "perdidas")
	assert.Contains(t, raw, "ligas")
	assert.Contains(t, raw, "puntuados")

	entries, err := os.ReadDir(filepath.Dir(tr.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStatsReturnsCopy(t *testing.T) {
	tr := newTracker(t)
	_, err := tr.Process([]models.Fixture{finished(1, "La Liga", 1, 0, "FT")}, testNow)
	require.NoError(t, err)

	stats := tr.Stats()
	stats.Leagues["La Liga"] = 100
	stats.Wins = 100

	assert.Equal(t, 1, tr.Stats().Wins)
	assert.Equal(t, 1, tr.Stats().Leagues["La Liga"])
}

func TestTopLeagues(t *testing.T) {
	tr := newTracker(t)
	fixtures := []models.Fixture{
		finished(1, "Serie A", 1, 0, "FT"),
		finished(2, "La Liga", 1, 0, "FT"),
		finished(3, "La Liga", 1, 0, "FT"),
		finished(4, "Bundesliga", 1, 0, "FT"),
		finished(5, "Ligue 1", 1, 0, "FT"),
	}
	_, err := tr.Process(fixtures, testNow)
	require.NoError(t, err)

	top := tr.TopLeagues(3)
	assert.Equal(t, []models.LeagueCount{
		{Name: "La Liga", Wins: 2},
		{Name: "Bundesliga", Wins: 1},
		{Name: "Ligue 1", Wins: 1},
	}, top)
}

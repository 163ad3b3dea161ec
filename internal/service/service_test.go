package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixitpro/fixit-engine/internal/datasource"
	"github.com/fixitpro/fixit-engine/internal/logger"
	"github.com/fixitpro/fixit-engine/internal/models"
	"github.com/fixitpro/fixit-engine/internal/picks"
	"github.com/fixitpro/fixit-engine/internal/store"
	"github.com/fixitpro/fixit-engine/internal/tracker"
)

var (
	refZone = time.FixedZone("UTC+1", 3600)
	// 13:00 local on 16 Oct
	testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
)

func intPtr(v int) *int { return &v }

func localKickoff(day, hour int) time.Time {
	return time.Date(2026, 10, day, hour, 0, 0, 0, refZone).UTC()
}

func fx(id int64, leagueID int, league string, kickoff time.Time) models.Fixture {
	return models.Fixture{
		ID:         id,
		LeagueID:   leagueID,
		LeagueName: league,
		Kickoff:    kickoff,
		HomeTeam:   fmt.Sprintf("Home %d", id),
		AwayTeam:   fmt.Sprintf("Away %d", id),
		Status:     "NS",
	}
}

type fakeSource struct {
	mu           sync.Mutex
	fixtures     map[string][]models.Fixture
	odds         map[string]models.OddsSnapshot
	predictions  models.PredictionSnapshot
	fixturesErr  error
	oddsErr      error
	fixtureDates []string
	predIDs      []int64
	predLimit    int
	calls        int

	started chan struct{}
	release chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		fixtures:    map[string][]models.Fixture{},
		odds:        map[string]models.OddsSnapshot{},
		predictions: models.PredictionSnapshot{},
	}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) FetchFixtures(ctx context.Context, date time.Time) ([]models.Fixture, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := date.Format("2006-01-02")
	f.fixtureDates = append(f.fixtureDates, key)
	if f.fixturesErr != nil {
		return nil, f.fixturesErr
	}
	return f.fixtures[key], nil
}

func (f *fakeSource) FetchOdds(ctx context.Context, date time.Time) (models.OddsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.oddsErr != nil {
		return nil, f.oddsErr
	}
	return f.odds[date.Format("2006-01-02")].Clone(), nil
}

func (f *fakeSource) FetchPredictions(ctx context.Context, ids []int64, limit int) (models.PredictionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.predIDs = ids
	f.predLimit = limit
	out := models.PredictionSnapshot{}
	for _, id := range ids {
		if p, ok := f.predictions[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type harness struct {
	source  *fakeSource
	store   *store.MatchStore
	tracker *tracker.Tracker
	orch    *Orchestrator
	facade  *Facade
}

func newHarness(t *testing.T, apiKey bool) *harness {
	t.Helper()
	log := logger.NewNopLogger()

	source := newFakeSource()
	st := store.New()
	tr := tracker.New(filepath.Join(t.TempDir(), "stats.json"), 7, log)
	_ = tr.Load()

	cfg := picks.DefaultSelectorConfig()
	cfg.Zone = refZone
	sel := picks.NewSelector(cfg, log)

	orch := NewOrchestrator(source, st, sel, tr, OrchestratorConfig{
		Zone:             refZone,
		DayOffsets:       []int{0, 1, 2},
		PredictionLimit:  40,
		APIKeyConfigured: apiKey,
	}, log)
	orch.now = func() time.Time { return testNow }

	return &harness{
		source:  source,
		store:   st,
		tracker: tr,
		orch:    orch,
		facade:  NewFacade(st, tr, orch, sel.Window(), map[int]bool{140: true}),
	}
}

func (h *harness) seed() {
	finished := fx(1, 140, "La Liga", localKickoff(16, 10))
	finished.Status = "FT"
	finished.HomeGoals = intPtr(2)
	finished.AwayGoals = intPtr(0)

	h.source.fixtures["2026-10-16"] = []models.Fixture{finished}
	h.source.fixtures["2026-10-17"] = []models.Fixture{
		fx(2, 140, "La Liga", localKickoff(17, 18)),
		fx(3, 239, "Liga Colombia", localKickoff(17, 20)),
		fx(4, 239, "Liga Colombia", localKickoff(17, 21)),
	}
	h.source.fixtures["2026-10-18"] = []models.Fixture{
		fx(3, 239, "Liga Colombia", localKickoff(17, 20)), // duplicate across dates
		fx(5, 239, "Liga Colombia", localKickoff(18, 3)),
	}
	h.source.odds["2026-10-17"] = models.OddsSnapshot{
		3: {models.MarketBTTS: 2.5},
		4: {models.MarketAwayWin: 5.0},
	}
	h.source.odds["2026-10-18"] = models.OddsSnapshot{
		5: {models.MarketOver25: 1.58},
	}
	h.source.predictions[2] = models.Prediction{HomePercent: 65, HasHomePercent: true, Advice: "Winner : Home 2"}
}

func TestRefreshSuccess(t *testing.T) {
	h := newHarness(t, true)
	h.seed()

	var phases []models.Phase
	h.orch.OnStatus(func(s models.Status) { phases = append(phases, s.Phase) })

	require.NoError(t, h.orch.Refresh(context.Background()))

	assert.Equal(t, []string{"2026-10-16", "2026-10-17", "2026-10-18"}, h.source.fixtureDates)
	assert.Equal(t, []models.Phase{
		models.PhaseFetchingFixtures,
		models.PhaseFetchingOdds,
		models.PhaseFetchingPredictions,
		models.PhaseSelectingPicks,
		models.PhaseUpdatingStats,
		models.PhaseIdle,
	}, phases)

	assert.Equal(t, store.Counts{Fixtures: 5, Odds: 3, Predictions: 1, Picks: 3}, h.store.Counts())

	shortlist := h.facade.Picks()
	require.Len(t, shortlist, 3)
	assert.Equal(t, int64(2), shortlist[0].FixtureID)
	assert.Equal(t, 65, shortlist[0].Probability)
	assert.Equal(t, int64(5), shortlist[1].FixtureID)
	assert.Equal(t, 63, shortlist[1].Probability)
	assert.Equal(t, int64(3), shortlist[2].FixtureID)
	assert.Equal(t, 40, shortlist[2].Probability)

	stats := h.facade.Stats()
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 0, stats.Losses)
	assert.Equal(t, []models.LeagueCount{{Name: "La Liga", Wins: 1}}, h.facade.TopLeagues(3))

	status := h.facade.Status()
	assert.Equal(t, models.PhaseIdle, status.Phase)
	assert.Equal(t, testNow.Format("15:04"), h.facade.LastUpdated())
	assert.NotEmpty(t, status.CycleID)
	assert.True(t, h.orch.HasSucceeded())

	m, ok := h.orch.LastMetrics()
	require.True(t, ok)
	assert.Equal(t, resultSuccess, m.Result)
	assert.Equal(t, 3, m.Picks)
	assert.Equal(t, 1, m.Scored)
}

func TestRefreshPredictionCandidatesSkipFinished(t *testing.T) {
	h := newHarness(t, true)
	h.seed()

	require.NoError(t, h.orch.Refresh(context.Background()))

	assert.Equal(t, 40, h.source.predLimit)
	assert.Equal(t, []int64{2, 3, 4, 5}, h.source.predIDs)
}

func TestRefreshRerunDoesNotDoubleCount(t *testing.T) {
	h := newHarness(t, true)
	h.seed()

	require.NoError(t, h.orch.Refresh(context.Background()))
	require.NoError(t, h.orch.Refresh(context.Background()))

	assert.Equal(t, 1, h.facade.Stats().Wins)
}

func TestRefreshMissingAPIKey(t *testing.T) {
	h := newHarness(t, false)
	h.seed()

	err := h.orch.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, datasource.ErrMissingAPIKey))
	assert.Equal(t, 0, h.source.calls)

	status := h.facade.Status()
	assert.Equal(t, models.PhaseFailed, status.Phase)
	assert.Equal(t, "Error: Falta API KEY", status.Message)
	assert.False(t, h.orch.HasSucceeded())
}

func TestRefreshOddsFailureKeepsPreviousCache(t *testing.T) {
	h := newHarness(t, true)
	h.seed()
	require.NoError(t, h.orch.Refresh(context.Background()))
	before := h.store.Snapshot()

	h.source.fixtures["2026-10-17"] = nil
	h.source.oddsErr = datasource.NewDataSourceError("fake", datasource.ErrCodeAPIError,
		"You have reached the request limit for the day", datasource.ErrAPIError)

	err := h.orch.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, datasource.ErrAPIError))

	assert.Equal(t, before, h.store.Snapshot())
	status := h.facade.Status()
	assert.Equal(t, models.PhaseFailed, status.Phase)
	assert.Equal(t, "API ERR: You have reache", status.Message)
	assert.True(t, h.orch.HasSucceeded(), "last success is kept")

	m, _ := h.orch.LastMetrics()
	assert.Equal(t, resultFailed, m.Result)
}

func TestRefreshNetworkFailureStatus(t *testing.T) {
	h := newHarness(t, true)
	h.source.fixturesErr = datasource.NewDataSourceError("fake", datasource.ErrCodeNetworkError, "Conexión API",
		fmt.Errorf("%w: dial tcp: timeout", datasource.ErrNetworkError))

	require.Error(t, h.orch.Refresh(context.Background()))
	assert.Equal(t, "Err: Conexión API", h.facade.LastUpdated())
	assert.Equal(t, store.Counts{}, h.store.Counts())
}

func TestRefreshServerErrorStatus(t *testing.T) {
	h := newHarness(t, true)
	dsErr := datasource.NewDataSourceError("fake", datasource.ErrCodeServerError, "500", datasource.ErrServerError)
	h.source.fixturesErr = dsErr

	require.Error(t, h.orch.Refresh(context.Background()))
	assert.Equal(t, "API ERR: 500", h.facade.LastUpdated())
}

func TestRefreshIsNotReentrant(t *testing.T) {
	h := newHarness(t, true)
	h.source.started = make(chan struct{})
	h.source.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.orch.Refresh(context.Background()) }()

	<-h.source.started
	assert.True(t, h.orch.IsRunning())
	assert.ErrorIs(t, h.orch.Refresh(context.Background()), ErrRefreshInProgress)

	// let the three date fetches of the running cycle through
	close(h.source.release)
	for i := 0; i < 2; i++ {
		<-h.source.started
	}
	require.NoError(t, <-done)
	assert.False(t, h.orch.IsRunning())
}

func TestTryRefreshClaimsSlotBeforeReturning(t *testing.T) {
	h := newHarness(t, true)
	h.source.started = make(chan struct{})
	h.source.release = make(chan struct{})

	done := make(chan error, 1)
	require.NoError(t, h.orch.TryRefresh(context.Background(), func(err error) { done <- err }))
	assert.True(t, h.orch.IsRunning(), "slot is held as soon as TryRefresh returns")

	assert.ErrorIs(t, h.orch.TryRefresh(context.Background(), nil), ErrRefreshInProgress)
	assert.ErrorIs(t, h.orch.Refresh(context.Background()), ErrRefreshInProgress)

	close(h.source.release)
	for i := 0; i < 3; i++ {
		<-h.source.started
	}
	require.NoError(t, <-done)
	assert.False(t, h.orch.IsRunning())
	assert.True(t, h.orch.HasSucceeded())
}

func TestFetchDatesDeduplicateOffsets(t *testing.T) {
	h := newHarness(t, true)
	h.orch.cfg.DayOffsets = []int{1, 0, 1}

	dates := h.orch.fetchDates()
	require.Len(t, dates, 2)
	assert.Equal(t, "2026-10-17", dates[0].Format("2006-01-02"))
	assert.Equal(t, "2026-10-16", dates[1].Format("2006-01-02"))
}

func TestGroupedMatches(t *testing.T) {
	h := newHarness(t, true)
	h.seed()
	require.NoError(t, h.orch.Refresh(context.Background()))

	grouped := h.facade.GroupedMatches(testNow)

	require.Contains(t, grouped, "La Liga")
	require.Len(t, grouped["La Liga"], 1, "finished fixture today is outside the window")
	assert.Equal(t, models.MatchSummary{ID: 2, Teams: "Home 2 vs Away 2", Time: "18:00", Status: "PND", Score: "-"}, grouped["La Liga"][0])

	// non-priority league: only picked fixtures 3 and 5, not 4
	ids := []int64{}
	for _, m := range grouped["Liga Colombia"] {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []int64{3, 5}, ids)
}

func TestGroupedMatchesEmptyStore(t *testing.T) {
	h := newHarness(t, true)
	assert.Empty(t, h.facade.GroupedMatches(testNow))
	assert.Empty(t, h.facade.Picks())
	assert.Equal(t, "Iniciando Motor PRO...", h.facade.LastUpdated())
}

func TestFixtureValidatorRejects(t *testing.T) {
	v := NewFixtureValidator(logger.NewNopLogger())

	valid := fx(1, 140, "La Liga", localKickoff(17, 18))
	assert.Empty(t, v.ValidateFixture(&valid, testNow))

	tests := []struct {
		name   string
		mutate func(*models.Fixture)
	}{
		{"missing id", func(f *models.Fixture) { f.ID = 0 }},
		{"missing team", func(f *models.Fixture) { f.HomeTeam = "" }},
		{"same teams", func(f *models.Fixture) { f.AwayTeam = f.HomeTeam }},
		{"negative score", func(f *models.Fixture) { f.HomeGoals = intPtr(-1); f.AwayGoals = intPtr(0) }},
		{"too old", func(f *models.Fixture) { f.Kickoff = testNow.AddDate(0, -1, 0) }},
		{"too far ahead", func(f *models.Fixture) { f.Kickoff = testNow.AddDate(0, 2, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			assert.NotEmpty(t, v.ValidateFixture(&f, testNow))
		})
	}
}

func TestMergeFixturesKeepsFirstAndCountsRejected(t *testing.T) {
	v := NewFixtureValidator(logger.NewNopLogger())
	bad := fx(9, 140, "La Liga", localKickoff(17, 18))
	bad.HomeTeam = ""

	merged, rejected := v.MergeFixtures([][]models.Fixture{
		{fx(1, 140, "La Liga", localKickoff(17, 18)), bad},
		{fx(1, 140, "Other", localKickoff(17, 18)), fx(2, 39, "Premier League", localKickoff(17, 19))},
	}, testNow)

	assert.Equal(t, 1, rejected)
	require.Len(t, merged, 2)
	assert.Equal(t, "La Liga", merged[0].LeagueName)
	assert.Equal(t, int64(2), merged[1].ID)
}

// Package service coordinates refresh cycles and serves read-only views of
// the engine state.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/datasource"
	"github.com/fixitpro/fixit-engine/internal/logger"
	"github.com/fixitpro/fixit-engine/internal/metrics"
	"github.com/fixitpro/fixit-engine/internal/models"
	"github.com/fixitpro/fixit-engine/internal/picks"
	"github.com/fixitpro/fixit-engine/internal/store"
	"github.com/fixitpro/fixit-engine/internal/tracker"
)

// ErrRefreshInProgress is returned when a cycle is already running
var ErrRefreshInProgress = errors.New("refresh already in progress")

const (
	resultSuccess = "success"
	resultFailed  = "failed"

	statusStarting     = "Iniciando Motor PRO..."
	statusMissingKey   = "Error: Falta API KEY"
	statusNetworkError = "Err: Conexión API"
	statusAPIErrPrefix = "API ERR: "
	statusMessageMax   = 15
	statusTimeLayout   = "15:04"
	fetchDateLayout    = "2006-01-02"
)

var phaseMessages = map[models.Phase]string{
	models.PhaseFetchingFixtures:    "Cargando partidos...",
	models.PhaseFetchingOdds:        "Cargando cuotas...",
	models.PhaseFetchingPredictions: "Cargando predicciones...",
	models.PhaseSelectingPicks:      "Seleccionando picks...",
	models.PhaseUpdatingStats:       "Actualizando estadísticas...",
}

// StatusListener is notified on every status change
type StatusListener func(models.Status)

// OrchestratorConfig configures refresh cycles
type OrchestratorConfig struct {
	Zone             *time.Location // reference zone for fetch dates
	DayOffsets       []int
	PredictionLimit  int
	APIKeyConfigured bool
}

// Orchestrator runs refresh cycles: fetch, commit, select, score.
// Cycles never overlap.
type Orchestrator struct {
	source    datasource.DataSource
	store     *store.MatchStore
	selector  *picks.Selector
	tracker   *tracker.Tracker
	validator *FixtureValidator
	cfg       OrchestratorConfig
	logger    *logger.RefreshLogger
	now       func() time.Time

	running sync.Mutex

	statusMu    sync.RWMutex
	status      models.Status
	lastMetrics *RefreshMetrics
	listeners   []StatusListener
}

// NewOrchestrator creates a new refresh orchestrator
func NewOrchestrator(
	source datasource.DataSource,
	matchStore *store.MatchStore,
	selector *picks.Selector,
	resultTracker *tracker.Tracker,
	cfg OrchestratorConfig,
	log *logrus.Logger,
) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.Zone == nil {
		cfg.Zone = time.FixedZone("UTC+1", 3600)
	}
	if len(cfg.DayOffsets) == 0 {
		cfg.DayOffsets = []int{0, 1, 2}
	}

	return &Orchestrator{
		source:    source,
		store:     matchStore,
		selector:  selector,
		tracker:   resultTracker,
		validator: NewFixtureValidator(log),
		cfg:       cfg,
		logger:    logger.NewRefreshLogger(log),
		now:       time.Now,
		status: models.Status{
			Phase:     models.PhaseIdle,
			Message:   statusStarting,
			UpdatedAt: time.Now(),
		},
	}
}

// OnStatus registers a listener for status changes. Listeners run
// synchronously and must not block.
func (o *Orchestrator) OnStatus(listener StatusListener) {
	o.statusMu.Lock()
	defer o.statusMu.Unlock()
	o.listeners = append(o.listeners, listener)
}

// Status returns the current refresh status
func (o *Orchestrator) Status() models.Status {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	return o.status
}

// LastMetrics returns the metrics of the last finished cycle
func (o *Orchestrator) LastMetrics() (RefreshMetrics, bool) {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	if o.lastMetrics == nil {
		return RefreshMetrics{}, false
	}
	return o.lastMetrics.Snapshot(), true
}

// HasSucceeded reports whether any cycle has completed
func (o *Orchestrator) HasSucceeded() bool {
	return !o.Status().LastSuccess.IsZero()
}

// IsRunning reports whether a cycle is in flight
func (o *Orchestrator) IsRunning() bool {
	if o.running.TryLock() {
		o.running.Unlock()
		return false
	}
	return true
}

// Refresh runs one full cycle. A call made while another cycle runs returns
// ErrRefreshInProgress immediately. On a fetch failure nothing is committed.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if !o.running.TryLock() {
		o.logger.LogCycleSkipped("refresh")
		return ErrRefreshInProgress
	}
	defer o.running.Unlock()

	return o.refreshLocked(ctx)
}

// TryRefresh claims the cycle slot before returning, then runs the cycle in
// the background. It returns ErrRefreshInProgress when the slot is taken.
// done, if not nil, receives the cycle's result.
func (o *Orchestrator) TryRefresh(ctx context.Context, done func(error)) error {
	if !o.running.TryLock() {
		o.logger.LogCycleSkipped("manual")
		return ErrRefreshInProgress
	}

	go func() {
		err := o.refreshLocked(ctx)
		o.running.Unlock()
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// refreshLocked runs one cycle; the caller holds o.running
func (o *Orchestrator) refreshLocked(ctx context.Context) error {
	cycleID := uuid.New().String()
	start := o.now()
	cycle := NewRefreshMetrics(cycleID, start)

	err := o.runCycle(ctx, cycleID, cycle)

	end := o.now()
	if err != nil {
		cycle.RecordError()
		cycle.Finish(resultFailed, end)
		o.setLastMetrics(cycle)
		return err
	}

	cycle.Finish(resultSuccess, end)
	o.setLastMetrics(cycle)

	snap := cycle.Snapshot()
	o.logger.LogCycleCompleted(cycleID, snap.Fixtures, snap.Odds, snap.Predictions, snap.Picks, snap.Duration)
	o.logger.Debug(cycle.String())

	o.setStatus(cycleID, models.PhaseIdle, end.Format(statusTimeLayout), "", &end)
	return nil
}

func (o *Orchestrator) runCycle(ctx context.Context, cycleID string, cycle *RefreshMetrics) error {
	if !o.cfg.APIKeyConfigured {
		err := datasource.NewDataSourceError(o.source.Name(), datasource.ErrCodeMissingCredential, "Falta API KEY", datasource.ErrMissingAPIKey)
		return o.fail(cycleID, models.PhaseFetchingFixtures, err)
	}

	dates := o.fetchDates()
	dateLabels := make([]string, len(dates))
	for i, d := range dates {
		dateLabels[i] = d.Format(fetchDateLayout)
	}
	o.logger.LogCycleStarted(cycleID, dateLabels)

	// Fixtures
	o.setStatus(cycleID, models.PhaseFetchingFixtures, "", "", nil)
	phaseStart := time.Now()
	batches := make([][]models.Fixture, 0, len(dates))
	for _, d := range dates {
		batch, err := o.source.FetchFixtures(ctx, d)
		if err != nil {
			return o.fail(cycleID, models.PhaseFetchingFixtures, err)
		}
		batches = append(batches, batch)
	}
	fixtures, rejected := o.validator.MergeFixtures(batches, o.now())
	cycle.RecordRejected(rejected)
	o.phaseDone(cycleID, models.PhaseFetchingFixtures, len(fixtures), phaseStart)

	// Odds
	o.setStatus(cycleID, models.PhaseFetchingOdds, "", "", nil)
	phaseStart = time.Now()
	odds := make(models.OddsSnapshot)
	for _, d := range dates {
		snap, err := o.source.FetchOdds(ctx, d)
		if err != nil {
			return o.fail(cycleID, models.PhaseFetchingOdds, err)
		}
		odds.Merge(snap)
	}
	o.phaseDone(cycleID, models.PhaseFetchingOdds, len(odds), phaseStart)

	// Predictions
	o.setStatus(cycleID, models.PhaseFetchingPredictions, "", "", nil)
	phaseStart = time.Now()
	predictions, err := o.source.FetchPredictions(ctx, o.predictionCandidates(fixtures), o.cfg.PredictionLimit)
	if err != nil {
		return o.fail(cycleID, models.PhaseFetchingPredictions, err)
	}
	if predictions == nil {
		predictions = models.PredictionSnapshot{}
	}
	o.phaseDone(cycleID, models.PhaseFetchingPredictions, len(predictions), phaseStart)

	o.store.Commit(fixtures, odds, predictions)
	cycle.SetSizes(len(fixtures), len(odds), len(predictions))

	// Picks
	o.setStatus(cycleID, models.PhaseSelectingPicks, "", "", nil)
	phaseStart = time.Now()
	shortlist := o.selector.Select(o.store.Snapshot(), o.now())
	o.store.SetPicks(shortlist)
	cycle.SetPicks(len(shortlist))
	o.phaseDone(cycleID, models.PhaseSelectingPicks, len(shortlist), phaseStart)

	// Stats
	o.setStatus(cycleID, models.PhaseUpdatingStats, "", "", nil)
	phaseStart = time.Now()
	res, err := o.tracker.Process(o.store.Fixtures(), o.now())
	if err != nil {
		// data is already committed; a failed write is retried next cycle
		cycle.RecordError()
		o.logger.LogPhaseFailed(cycleID, string(models.PhaseUpdatingStats), err)
	}
	cycle.SetScored(res.Scored)
	o.phaseDone(cycleID, models.PhaseUpdatingStats, res.Scored, phaseStart)

	return nil
}

// fetchDates returns today plus each configured offset in the reference zone
func (o *Orchestrator) fetchDates() []time.Time {
	today := o.now().In(o.cfg.Zone)
	y, m, d := today.Date()

	dates := make([]time.Time, 0, len(o.cfg.DayOffsets))
	seen := make(map[string]bool)
	for _, offset := range o.cfg.DayOffsets {
		date := time.Date(y, m, d+offset, 0, 0, 0, 0, o.cfg.Zone)
		key := date.Format(fetchDateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, date)
	}
	return dates
}

// predictionCandidates orders fixture IDs so the pick window is served first
// when the prediction limit cuts the list.
func (o *Orchestrator) predictionCandidates(fixtures []models.Fixture) []int64 {
	window := o.selector.Window()
	now := o.now()

	inWindow := make([]int64, 0, len(fixtures))
	rest := make([]int64, 0)
	for i := range fixtures {
		f := &fixtures[i]
		switch {
		case f.IsFinished():
			continue
		case window.Contains(f.Kickoff, now):
			inWindow = append(inWindow, f.ID)
		default:
			rest = append(rest, f.ID)
		}
	}
	return append(inWindow, rest...)
}

func (o *Orchestrator) phaseDone(cycleID string, phase models.Phase, items int, start time.Time) {
	elapsed := time.Since(start)
	metrics.RecordPhaseDuration(string(phase), elapsed.Seconds())
	o.logger.LogPhaseCompleted(cycleID, string(phase), items, elapsed)
}

// fail records a failed phase and moves the status to FAILED
func (o *Orchestrator) fail(cycleID string, phase models.Phase, err error) error {
	o.logger.LogPhaseFailed(cycleID, string(phase), err)
	o.setStatus(cycleID, models.PhaseFailed, failureMessage(err), err.Error(), nil)
	return fmt.Errorf("%s: %w", phase, err)
}

// failureMessage renders err as a short status line
func failureMessage(err error) string {
	switch {
	case datasource.IsConfigurationError(err):
		return statusMissingKey
	case errors.Is(err, datasource.ErrNetworkError):
		return statusNetworkError
	default:
		return statusAPIErrPrefix + datasource.ShortMessage(err, statusMessageMax)
	}
}

func (o *Orchestrator) setStatus(cycleID string, phase models.Phase, message, lastErr string, success *time.Time) {
	if message == "" {
		message = phaseMessages[phase]
	}

	o.statusMu.Lock()
	o.status.Phase = phase
	o.status.Message = message
	o.status.CycleID = cycleID
	o.status.LastError = lastErr
	o.status.UpdatedAt = o.now()
	if success != nil {
		o.status.LastSuccess = *success
	}
	status := o.status
	listeners := make([]StatusListener, len(o.listeners))
	copy(listeners, o.listeners)
	o.statusMu.Unlock()

	for _, l := range listeners {
		l(status)
	}
}

func (o *Orchestrator) setLastMetrics(m *RefreshMetrics) {
	o.statusMu.Lock()
	defer o.statusMu.Unlock()
	o.lastMetrics = m
}

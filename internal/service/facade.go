package service

import (
	"time"

	"github.com/fixitpro/fixit-engine/internal/models"
	"github.com/fixitpro/fixit-engine/internal/picks"
	"github.com/fixitpro/fixit-engine/internal/store"
	"github.com/fixitpro/fixit-engine/internal/tracker"
)

const matchTimeLayout = "15:04"

// Facade is the read-only view used by the API. It never blocks on network
// I/O and never reports upstream failures as errors.
type Facade struct {
	store        *store.MatchStore
	tracker      *tracker.Tracker
	orchestrator *Orchestrator
	window       picks.Window
	priority     map[int]bool
}

// NewFacade creates a new read facade
func NewFacade(matchStore *store.MatchStore, resultTracker *tracker.Tracker, orchestrator *Orchestrator, window picks.Window, priorityLeagues map[int]bool) *Facade {
	if priorityLeagues == nil {
		priorityLeagues = map[int]bool{}
	}
	return &Facade{
		store:        matchStore,
		tracker:      resultTracker,
		orchestrator: orchestrator,
		window:       window,
		priority:     priorityLeagues,
	}
}

// Picks returns the current shortlist
func (f *Facade) Picks() []models.Pick {
	return f.store.Picks()
}

// Stats returns the win/loss document
func (f *Facade) Stats() models.Stats {
	return f.tracker.Stats()
}

// TopLeagues returns the n leagues with most wins
func (f *Facade) TopLeagues(n int) []models.LeagueCount {
	return f.tracker.TopLeagues(n)
}

// GroupedMatches lists window fixtures by league display name. Only priority
// leagues are listed, plus any fixture currently in the shortlist.
func (f *Facade) GroupedMatches(now time.Time) map[string][]models.MatchSummary {
	fixtures := f.store.Fixtures()
	picked := f.store.PickIDs()

	out := make(map[string][]models.MatchSummary)
	for i := range fixtures {
		fx := &fixtures[i]
		if !f.priority[fx.LeagueID] && !picked[fx.ID] {
			continue
		}
		if !f.window.Contains(fx.Kickoff, now) {
			continue
		}
		out[fx.LeagueName] = append(out[fx.LeagueName], models.MatchSummary{
			ID:     fx.ID,
			Teams:  fx.Teams(),
			Time:   f.window.Local(fx.Kickoff).Format(matchTimeLayout),
			Status: fx.DisplayStatus(),
			Score:  fx.Score(),
		})
	}
	return out
}

// Status returns the refresh status
func (f *Facade) Status() models.Status {
	return f.orchestrator.Status()
}

// LastUpdated returns the status line: a sync time, a phase or an error
func (f *Facade) LastUpdated() string {
	return f.orchestrator.Status().Message
}

// Counts returns the store container sizes
func (f *Facade) Counts() store.Counts {
	return f.store.Counts()
}

package models

import "time"

// Phase is a step of the refresh cycle
type Phase string

// Refresh phases
const (
	PhaseIdle                Phase = "IDLE"
	PhaseFetchingFixtures    Phase = "FETCHING_FIXTURES"
	PhaseFetchingOdds        Phase = "FETCHING_ODDS"
	PhaseFetchingPredictions Phase = "FETCHING_PREDICTIONS"
	PhaseSelectingPicks      Phase = "SELECTING_PICKS"
	PhaseUpdatingStats       Phase = "UPDATING_STATS"
	PhaseFailed              Phase = "FAILED"
)

// Status describes refresh progress or the last successful sync
type Status struct {
	Phase       Phase     `json:"phase"`
	Message     string    `json:"message"`
	CycleID     string    `json:"cycle_id,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastSuccess time.Time `json:"last_success,omitempty"`
}


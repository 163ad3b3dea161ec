package models

import (
	"fmt"
	"time"
)

// Fixture represents one scheduled, live or finished match from the provider
type Fixture struct {
	ID         int64     `json:"id" validate:"required,gt=0"`
	LeagueID   int       `json:"league_id" validate:"required"`
	LeagueName string    `json:"league_name" validate:"required"`
	Kickoff    time.Time `json:"kickoff" validate:"required"`
	HomeTeam   string    `json:"home_team" validate:"required"`
	AwayTeam   string    `json:"away_team" validate:"required"`
	Status     string    `json:"status"`
	HomeGoals  *int      `json:"home_goals"`
	AwayGoals  *int      `json:"away_goals"`
}

// Display statuses used by the grouped match listing
const (
	DisplayPending  = "PND"
	DisplayLive     = "LIVE"
	DisplayFinished = "FT"
)

var (
	finishedStatuses = map[string]bool{"FT": true, "AET": true, "PEN": true}
	liveStatuses     = map[string]bool{"1H": true, "HT": true, "2H": true, "ET": true, "BT": true, "P": true}
)

// IsFinished checks if the match has a final result
func (f *Fixture) IsFinished() bool {
	return finishedStatuses[f.Status]
}

// IsLive checks if the match is in play
func (f *Fixture) IsLive() bool {
	return liveStatuses[f.Status]
}

// HasScore reports whether both goal counts are known
func (f *Fixture) HasScore() bool {
	return f.HomeGoals != nil && f.AwayGoals != nil
}

// HomeWon reports whether the home side won. It is false when the score is unknown.
func (f *Fixture) HomeWon() bool {
	return f.HasScore() && *f.HomeGoals > *f.AwayGoals
}

// DisplayStatus collapses provider status codes into PND, LIVE or FT
func (f *Fixture) DisplayStatus() string {
	switch {
	case f.IsLive():
		return DisplayLive
	case f.IsFinished():
		return DisplayFinished
	default:
		return DisplayPending
	}
}

// Score returns "h - a", or "-" before kickoff
func (f *Fixture) Score() string {
	if f.HomeGoals == nil {
		return "-"
	}
	away := 0
	if f.AwayGoals != nil {
		away = *f.AwayGoals
	}
	return fmt.Sprintf("%d - %d", *f.HomeGoals, away)
}

// Teams returns the "Home vs Away" label
func (f *Fixture) Teams() string {
	return f.HomeTeam + " vs " + f.AwayTeam
}

// MatchSummary is a compact row of the grouped match listing
type MatchSummary struct {
	ID     int64  `json:"id"`
	Teams  string `json:"teams"`
	Time   string `json:"time"`
	Status string `json:"status"`
	Score  string `json:"score"`
}

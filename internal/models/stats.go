package models

import "sort"

// Stats is the persisted win/loss document. The Spanish keys are the
// on-disk format shared with the presentation layer.
type Stats struct {
	Wins    int              `json:"ganadas"`
	Losses  int              `json:"perdidas"`
	Leagues map[string]int   `json:"ligas"`
	Scored  map[int64]string `json:"puntuados,omitempty"`
}

// NewStats returns a zeroed document
func NewStats() Stats {
	return Stats{
		Leagues: make(map[string]int),
		Scored:  make(map[int64]string),
	}
}

// Total returns the number of fixtures scored
func (s Stats) Total() int {
	return s.Wins + s.Losses
}

// SuccessRate returns the win percentage, 0 when nothing was scored
func (s Stats) SuccessRate() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Total()) * 100
}

// Clone returns a deep copy
func (s Stats) Clone() Stats {
	out := Stats{
		Wins:    s.Wins,
		Losses:  s.Losses,
		Leagues: make(map[string]int, len(s.Leagues)),
		Scored:  make(map[int64]string, len(s.Scored)),
	}
	for k, v := range s.Leagues {
		out.Leagues[k] = v
	}
	for k, v := range s.Scored {
		out.Scored[k] = v
	}
	return out
}

// LeagueCount is one row of the league ranking
type LeagueCount struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// TopLeagues ranks leagues by win count, ties by name, and returns at most n
func (s Stats) TopLeagues(n int) []LeagueCount {
	ranking := make([]LeagueCount, 0, len(s.Leagues))
	for name, wins := range s.Leagues {
		ranking = append(ranking, LeagueCount{Name: name, Wins: wins})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Wins != ranking[j].Wins {
			return ranking[i].Wins > ranking[j].Wins
		}
		return ranking[i].Name < ranking[j].Name
	})
	if n >= 0 && len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}

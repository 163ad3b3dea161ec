package models

// Prediction holds the provider's native prediction for a fixture
type Prediction struct {
	HomePercent    int    `json:"home_percent" validate:"gte=0,lte=100"`
	HasHomePercent bool   `json:"has_home_percent"`
	Advice         string `json:"advice,omitempty"`
}

// PredictionSnapshot maps fixture ID to its native prediction
type PredictionSnapshot map[int64]Prediction

// HomePercent returns the native home-win percentage if one was published
func (s PredictionSnapshot) HomePercent(fixtureID int64) (int, bool) {
	p, ok := s[fixtureID]
	if !ok || !p.HasHomePercent {
		return 0, false
	}
	return p.HomePercent, true
}

// Advice returns the provider advice text for a fixture, or fallback
func (s PredictionSnapshot) Advice(fixtureID int64, fallback string) string {
	if p, ok := s[fixtureID]; ok && p.Advice != "" {
		return p.Advice
	}
	return fallback
}

// Clone returns a copy of the snapshot
func (s PredictionSnapshot) Clone() PredictionSnapshot {
	out := make(PredictionSnapshot, len(s))
	for id, p := range s {
		out[id] = p
	}
	return out
}

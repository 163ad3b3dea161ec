package models

// Pick is one fixture and market recommendation in the shortlist
type Pick struct {
	FixtureID   int64    `json:"id"`
	Teams       string   `json:"teams"`
	League      string   `json:"league"`
	Market      Market   `json:"market_key"`
	MarketLabel string   `json:"market"`
	Description string   `json:"description"`
	Probability int      `json:"prob"`
	Odds        *float64 `json:"odds"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
}

// ClonePicks returns an independent copy of picks
func ClonePicks(picks []Pick) []Pick {
	out := make([]Pick, len(picks))
	for i, p := range picks {
		if p.Odds != nil {
			odds := *p.Odds
			p.Odds = &odds
		}
		out[i] = p
	}
	return out
}

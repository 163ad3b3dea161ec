package models

// MarketOdds maps a market to the decimal odds of its qualifying outcome
type MarketOdds map[Market]float64

// OddsSnapshot maps fixture ID to its priced markets. A fixture absent from
// the map has no priced markets.
type OddsSnapshot map[int64]MarketOdds

// Get returns the decimal odds for a fixture and market. Non-positive odds
// are reported as absent.
func (s OddsSnapshot) Get(fixtureID int64, market Market) (float64, bool) {
	markets, ok := s[fixtureID]
	if !ok {
		return 0, false
	}
	odds, ok := markets[market]
	if !ok || odds <= 0 {
		return 0, false
	}
	return odds, true
}

// Clone returns a deep copy of the snapshot
func (s OddsSnapshot) Clone() OddsSnapshot {
	if s == nil {
		return OddsSnapshot{}
	}
	out := make(OddsSnapshot, len(s))
	for id, markets := range s {
		cp := make(MarketOdds, len(markets))
		for m, v := range markets {
			cp[m] = v
		}
		out[id] = cp
	}
	return out
}

// Merge copies every fixture of other into s, replacing existing entries
func (s OddsSnapshot) Merge(other OddsSnapshot) {
	for id, markets := range other {
		s[id] = markets
	}
}

package models

// Market identifies a bettable outcome type
type Market string

// Supported markets
const (
	MarketHomeWin    Market = "home_win"
	MarketAwayWin    Market = "away_win"
	MarketHomeOrDraw Market = "home_or_draw"
	MarketBTTS       Market = "btts_yes"
	MarketOver25     Market = "over_2_5"
)

// Markets lists every supported market in evaluation order. Ties between
// markets of one fixture resolve to the earliest entry.
var Markets = []Market{
	MarketHomeWin,
	MarketAwayWin,
	MarketHomeOrDraw,
	MarketBTTS,
	MarketOver25,
}

type marketInfo struct {
	label string
	icon  string
	color string
}

var marketCatalog = map[Market]marketInfo{
	MarketHomeWin:    {label: "Victoria Local", icon: "fa-shield-halved", color: "#10b981"},
	MarketAwayWin:    {label: "Victoria Visitante", icon: "fa-plane-departure", color: "#3b82f6"},
	MarketHomeOrDraw: {label: "Local o Empate", icon: "fa-house-shield", color: "#8b5cf6"},
	MarketBTTS:       {label: "Ambos Marcan", icon: "fa-futbol", color: "#f59e0b"},
	MarketOver25:     {label: "Más de 2.5 Goles", icon: "fa-fire", color: "#ef4444"},
}

// Label returns the human readable market name
func (m Market) Label() string {
	if info, ok := marketCatalog[m]; ok {
		return info.label
	}
	return string(m)
}

// Icon returns the presentational icon tag
func (m Market) Icon() string {
	return marketCatalog[m].icon
}

// Color returns the presentational color tag
func (m Market) Color() string {
	return marketCatalog[m].color
}


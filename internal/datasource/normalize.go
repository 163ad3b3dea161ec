package datasource

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fixitpro/fixit-engine/internal/models"
)

// api-football bet identifiers
const (
	betMatchWinner  = 1
	betGoalsOverUnd = 5
	betBothScore    = 8
	betDoubleChance = 12
)

// outcomeKey identifies one bet outcome
type outcomeKey struct {
	betID int
	value string
}

var outcomeMarkets = map[outcomeKey]models.Market{
	{betMatchWinner, "Home"}:       models.MarketHomeWin,
	{betMatchWinner, "Away"}:       models.MarketAwayWin,
	{betDoubleChance, "Home/Draw"}: models.MarketHomeOrDraw,
	{betBothScore, "Yes"}:          models.MarketBTTS,
	{betGoalsOverUnd, "Over 2.5"}:  models.MarketOver25,
}

// convertFixture converts a provider fixture into the internal model. The
// display name from leagues overrides the provider's league name.
func convertFixture(raw *FixtureResponse, leagues map[int]string) (models.Fixture, error) {
	kickoff, err := time.Parse(time.RFC3339, raw.Fixture.Date)
	if err != nil {
		return models.Fixture{}, fmt.Errorf("%w: fixture %d has bad date %q: %v", models.ErrInvalidFixture, raw.Fixture.ID, raw.Fixture.Date, err)
	}
	if raw.Fixture.ID <= 0 {
		return models.Fixture{}, fmt.Errorf("%w: missing fixture id", models.ErrInvalidFixture)
	}

	name := raw.League.Name
	if display, ok := leagues[raw.League.ID]; ok {
		name = display
	}

	return models.Fixture{
		ID:         raw.Fixture.ID,
		LeagueID:   raw.League.ID,
		LeagueName: name,
		Kickoff:    kickoff.UTC(),
		HomeTeam:   raw.Teams.Home.Name,
		AwayTeam:   raw.Teams.Away.Name,
		Status:     raw.Fixture.Status.Short,
		HomeGoals:  raw.Goals.Home,
		AwayGoals:  raw.Goals.Away,
	}, nil
}

// selectBookmaker returns the preferred bookmaker, else the first one with bets
func selectBookmaker(bookmakers []Bookmaker, preferredID int) *Bookmaker {
	for i := range bookmakers {
		if bookmakers[i].ID == preferredID && len(bookmakers[i].Bets) > 0 {
			return &bookmakers[i]
		}
	}
	for i := range bookmakers {
		if len(bookmakers[i].Bets) > 0 {
			return &bookmakers[i]
		}
	}
	return nil
}

// convertOdds extracts the supported markets from one bookmaker's bets
func convertOdds(bm *Bookmaker) models.MarketOdds {
	out := make(models.MarketOdds)
	if bm == nil {
		return out
	}
	for _, bet := range bm.Bets {
		for _, v := range bet.Values {
			market, ok := outcomeMarkets[outcomeKey{betID: bet.ID, value: string(v.Value)}]
			if !ok {
				continue
			}
			if odds, ok := parseDecimalOdds(string(v.Odd)); ok {
				out[market] = odds
			}
		}
	}
	return out
}

// parseDecimalOdds parses decimal odds, rejecting non-positive values
func parseDecimalOdds(oddsStr string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(oddsStr))
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// convertPrediction converts a provider prediction into the internal model
func convertPrediction(raw *PredictionResponse) models.Prediction {
	var p models.Prediction
	if raw.Predictions.Percent.Home != nil {
		if pct, ok := parsePercent(*raw.Predictions.Percent.Home); ok {
			p.HomePercent = pct
			p.HasHomePercent = true
		}
	}
	if raw.Predictions.Advice != nil {
		p.Advice = strings.TrimSpace(*raw.Predictions.Advice)
	}
	return p
}

// parsePercent parses values such as "45%" and clamps them to [0,100]
func parsePercent(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, false
	}
	pct, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		pct = int(f + 0.5)
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

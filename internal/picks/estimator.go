// Package picks derives market probabilities and selects the daily shortlist.
package picks

import (
	"math"

	"github.com/fixitpro/fixit-engine/internal/models"
)

// Estimate returns the probability (0-100) of market for one fixture.
// A native home-win percentage takes priority for the home-win market;
// otherwise the probability is implied from the decimal odds. ok is false
// when neither source is available. Non-positive odds count as absent.
func Estimate(market models.Market, prediction models.Prediction, hasPrediction bool, odds float64, hasOdds bool) (int, bool) {
	if market == models.MarketHomeWin && hasPrediction && prediction.HasHomePercent {
		return clampPercent(prediction.HomePercent), true
	}
	if hasOdds && odds > 0 {
		return ImpliedProbability(odds), true
	}
	return 0, false
}

// ImpliedProbability converts decimal odds to a rounded percentage
func ImpliedProbability(odds float64) int {
	if odds <= 0 {
		return 0
	}
	return clampPercent(int(math.Round(100 / odds)))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

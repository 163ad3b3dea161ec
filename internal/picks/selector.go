package picks

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/models"
	"github.com/fixitpro/fixit-engine/internal/store"
)

const (
	pickDateLayout = "02-01-2006"
	pickTimeLayout = "15:04"
)

// SelectorConfig configures shortlist selection
type SelectorConfig struct {
	Zone            *time.Location
	ConfidenceFloor int
	MaxPicks        int
	EarlyCutoffHour int
	// FullScan evaluates every fixture before truncating. When false,
	// scanning stops once MaxPicks candidates have been collected.
	FullScan      bool
	DefaultAdvice string
}

// DefaultSelectorConfig returns the production selection settings
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Zone:            time.FixedZone("UTC+1", 3600),
		ConfidenceFloor: 40,
		MaxPicks:        20,
		EarlyCutoffHour: 7,
		FullScan:        true,
		DefaultAdvice:   "Datos Estadísticos Oficiales",
	}
}

// Selector builds the ranked shortlist from a store snapshot
type Selector struct {
	cfg    SelectorConfig
	window Window
	logger *logrus.Entry
}

// NewSelector creates a new selector
func NewSelector(cfg SelectorConfig, logger *logrus.Logger) *Selector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.MaxPicks <= 0 {
		cfg.MaxPicks = 20
	}
	return &Selector{
		cfg:    cfg,
		window: NewWindow(cfg.Zone, cfg.EarlyCutoffHour),
		logger: logger.WithField("component", "selector"),
	}
}

// Window returns the kickoff window used for selection
func (s *Selector) Window() Window {
	return s.window
}

// Select returns at most MaxPicks picks, one per fixture, sorted by
// probability descending. Equal probabilities keep scan order.
func (s *Selector) Select(snap store.Snapshot, now time.Time) []models.Pick {
	picks := make([]models.Pick, 0, s.cfg.MaxPicks)
	seen := make(map[int64]bool)
	outsideWindow := 0

	for i := range snap.Fixtures {
		fixture := &snap.Fixtures[i]
		if seen[fixture.ID] {
			continue
		}
		if !s.window.Contains(fixture.Kickoff, now) {
			outsideWindow++
			continue
		}

		pick, ok := s.bestPick(fixture, snap)
		if !ok {
			continue
		}
		seen[fixture.ID] = true
		picks = append(picks, pick)

		if !s.cfg.FullScan && len(picks) >= s.cfg.MaxPicks {
			break
		}
	}

	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].Probability > picks[j].Probability
	})
	if len(picks) > s.cfg.MaxPicks {
		picks = picks[:s.cfg.MaxPicks]
	}

	s.logger.WithFields(logrus.Fields{
		"fixtures":       len(snap.Fixtures),
		"outside_window": outsideWindow,
		"picks":          len(picks),
	}).Debug("Shortlist selected")

	return picks
}

// bestPick evaluates every market of one fixture and keeps the most probable
// one at or above the confidence floor. Ties go to the earlier market.
func (s *Selector) bestPick(fixture *models.Fixture, snap store.Snapshot) (models.Pick, bool) {
	prediction, hasPrediction := snap.Predictions[fixture.ID]

	var (
		best     models.Market
		bestProb = -1
	)
	for _, market := range models.Markets {
		odds, hasOdds := snap.Odds.Get(fixture.ID, market)
		prob, ok := Estimate(market, prediction, hasPrediction, odds, hasOdds)
		if !ok || prob < s.cfg.ConfidenceFloor {
			continue
		}
		if prob > bestProb {
			best = market
			bestProb = prob
		}
	}
	if bestProb < 0 {
		return models.Pick{}, false
	}

	local := s.window.Local(fixture.Kickoff)
	pick := models.Pick{
		FixtureID:   fixture.ID,
		Teams:       fixture.Teams(),
		League:      fixture.LeagueName,
		Market:      best,
		MarketLabel: best.Label(),
		Description: snap.Predictions.Advice(fixture.ID, s.cfg.DefaultAdvice),
		Probability: bestProb,
		Date:        local.Format(pickDateLayout),
		Time:        local.Format(pickTimeLayout),
		Icon:        best.Icon(),
		Color:       best.Color(),
	}
	if odds, ok := snap.Odds.Get(fixture.ID, best); ok {
		pick.Odds = &odds
	}
	return pick, true
}

package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/models"
)

// FixtureValidator checks normalized fixtures before they reach the store
type FixtureValidator struct {
	validate *validator.Validate
	logger   *logrus.Entry
	maxAge   time.Duration
	horizon  time.Duration
}

// NewFixtureValidator creates a new fixture validator
func NewFixtureValidator(logger *logrus.Logger) *FixtureValidator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FixtureValidator{
		validate: validator.New(),
		logger:   logger.WithField("component", "fixture_validator"),
		maxAge:   7 * 24 * time.Hour,
		horizon:  30 * 24 * time.Hour,
	}
}

// ValidateFixture returns every problem found with f
func (v *FixtureValidator) ValidateFixture(f *models.Fixture, now time.Time) []string {
	var errs []string

	if err := v.validate.Struct(f); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if f.HomeTeam != "" && f.HomeTeam == f.AwayTeam {
		errs = append(errs, "home and away team are the same")
	}
	if (f.HomeGoals != nil && *f.HomeGoals < 0) || (f.AwayGoals != nil && *f.AwayGoals < 0) {
		errs = append(errs, "negative score")
	}
	if !f.Kickoff.IsZero() {
		if f.Kickoff.Before(now.Add(-v.maxAge)) {
			errs = append(errs, fmt.Sprintf("kickoff %s is too old", f.Kickoff.Format(time.RFC3339)))
		}
		if f.Kickoff.After(now.Add(v.horizon)) {
			errs = append(errs, fmt.Sprintf("kickoff %s is too far ahead", f.Kickoff.Format(time.RFC3339)))
		}
	}

	return errs
}

// MergeFixtures concatenates batches, keeping the first occurrence of each
// fixture ID and dropping invalid fixtures. It returns the merged list and
// the number rejected.
func (v *FixtureValidator) MergeFixtures(batches [][]models.Fixture, now time.Time) ([]models.Fixture, int) {
	seen := make(map[int64]bool)
	merged := make([]models.Fixture, 0)
	rejected := 0

	for _, batch := range batches {
		for i := range batch {
			f := batch[i]
			if seen[f.ID] {
				continue
			}
			if problems := v.ValidateFixture(&f, now); len(problems) > 0 {
				rejected++
				v.logger.WithFields(logrus.Fields{
					"fixture_id": f.ID,
					"problems":   problems,
				}).Warn("Fixture rejected")
				continue
			}
			seen[f.ID] = true
			merged = append(merged, f)
		}
	}

	return merged, rejected
}

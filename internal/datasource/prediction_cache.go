package datasource

import (
	"strconv"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/fixitpro/fixit-engine/internal/metrics"
	"github.com/fixitpro/fixit-engine/internal/models"
)

// PredictionCache provides in-memory caching of per-fixture predictions so
// repeated refresh cycles do not re-request them.
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewPredictionCache creates a new prediction cache. A zero ttl disables caching.
func NewPredictionCache(ttl time.Duration) *PredictionCache {
	cleanup := ttl * 2
	if ttl <= 0 {
		cleanup = time.Minute
	}
	return &PredictionCache{
		cache: cache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

func predictionKey(fixtureID int64) string {
	return strconv.FormatInt(fixtureID, 10)
}

// Get retrieves a cached prediction
func (pc *PredictionCache) Get(fixtureID int64) (models.Prediction, bool) {
	if pc == nil || pc.ttl <= 0 {
		return models.Prediction{}, false
	}

	if v, found := pc.cache.Get(predictionKey(fixtureID)); found {
		if pred, ok := v.(models.Prediction); ok {
			pc.hitCount.Add(1)
			metrics.RecordPredictionCache(true)
			return pred, true
		}
	}

	pc.missCount.Add(1)
	metrics.RecordPredictionCache(false)
	return models.Prediction{}, false
}

// Set stores a prediction in cache
func (pc *PredictionCache) Set(fixtureID int64, prediction models.Prediction) {
	if pc == nil || pc.ttl <= 0 {
		return
	}
	pc.cache.Set(predictionKey(fixtureID), prediction, pc.ttl)
}

// Stats returns lifetime hit and miss counts and the hit ratio
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	if pc == nil {
		return 0, 0, 0
	}
	hits = pc.hitCount.Load()
	misses = pc.missCount.Load()
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of cached predictions, expired ones included
// until the janitor runs
func (pc *PredictionCache) ItemCount() int {
	if pc == nil {
		return 0
	}
	return pc.cache.ItemCount()
}

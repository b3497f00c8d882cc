package isochrone

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/models"
)

const (
	// ContextRadiusMeters is how far around a stop places are counted.
	ContextRadiusMeters = 500

	// RecommendedCount is the size of the recommended subset.
	RecommendedCount = 3

	// MaxJitter bounds the tie-breaking noise added to every score.
	MaxJitter = 0.05

	elapsedWeight = 0.5
)

// ContextCategories are the place categories counted around each stop.
var ContextCategories = []string{"park", "hospital", "school", "shopping_mall", "police", "transit_station"}

var categoryWeights = map[string]float64{
	"park":          2.0,
	"hospital":      1.5,
	"police":        1.2,
	"school":        0.8,
	"shopping_mall": 0.5,
}

type ScorerConfig struct {
	// Concurrency is the number of place lookups in flight at once.
	Concurrency int
	// RequestsPerSecond paces lookups; zero or less disables pacing.
	RequestsPerSecond float64
	Burst             int
}

func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{Concurrency: 6, RequestsPerSecond: 10, Burst: 6}
}

// ContextScorer ranks reachable stops by what is around them.
type ContextScorer struct {
	places      PlacesFinder
	limiter     *rate.Limiter
	concurrency int
	jitter      func() float64
	logger      *slog.Logger
}

func NewContextScorer(places PlacesFinder, cfg ScorerConfig, logger *slog.Logger) *ContextScorer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &ContextScorer{
		places:      places,
		limiter:     rate.NewLimiter(limit, cfg.Burst),
		concurrency: cfg.Concurrency,
		jitter:      func() float64 { return rand.Float64() * MaxJitter },
		logger:      logger,
	}
}

// SetJitter replaces the tie-breaking noise source. Values are clamped to [0, MaxJitter).
func (s *ContextScorer) SetJitter(jitter func() float64) {
	s.jitter = jitter
}

// Score attaches a LocationContext and score to every stop. The returned
// slice keeps the input order; recommended holds the highest scoring stops,
// best first, each flagged Recommended in both slices.
func (s *ContextScorer) Score(ctx context.Context, stops []models.ReachableStop) (scored []models.ReachableStop, recommended []models.ReachableStop, err error) {
	counts, err := s.countPlaces(ctx, stops)
	if err != nil {
		return nil, nil, err
	}

	maxElapsed := 0
	for _, st := range stops {
		if st.ElapsedMinutes > maxElapsed {
			maxElapsed = st.ElapsedMinutes
		}
	}

	scored = make([]models.ReachableStop, len(stops))
	for i, st := range stops {
		st.Context = make(models.LocationContext, len(ContextCategories))
		for c, category := range ContextCategories {
			st.Context[category] = counts[i][c]
		}
		st.Score = s.score(st, maxElapsed)
		st.Recommended = false
		scored[i] = st
	}

	order := make([]int, len(scored))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scored[order[a]].Score > scored[order[b]].Score
	})

	for rank, idx := range order {
		if rank >= RecommendedCount {
			break
		}
		scored[idx].Recommended = true
		recommended = append(recommended, scored[idx])
	}

	return scored, recommended, nil
}

func (s *ContextScorer) score(st models.ReachableStop, maxElapsed int) float64 {
	var score float64
	for category, weight := range categoryWeights {
		score += weight * float64(st.Context.Count(category))
	}
	if maxElapsed > 0 {
		score += elapsedWeight * float64(st.ElapsedMinutes) / float64(maxElapsed)
	}
	return score + s.nextJitter()
}

func (s *ContextScorer) nextJitter() float64 {
	if s.jitter == nil {
		return 0
	}
	j := s.jitter()
	if j < 0 {
		return 0
	}
	if j >= MaxJitter {
		return MaxJitter * 0.999
	}
	return j
}

// countPlaces runs one lookup per located stop and category. A failed lookup
// counts as zero; only cancellation of ctx fails the pass.
func (s *ContextScorer) countPlaces(ctx context.Context, stops []models.ReachableStop) ([][]int, error) {
	counts := make([][]int, len(stops))
	for i := range counts {
		counts[i] = make([]int, len(ContextCategories))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, st := range stops {
		if st.Location == nil {
			continue
		}
		center := *st.Location
		for c, category := range ContextCategories {
			g.Go(func() error {
				if err := s.limiter.Wait(gctx); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logging.LogError(s.logger, "place lookup not paced", err,
						slog.String("component", "context_scorer"),
						slog.String("category", category))
					return nil
				}
				places, err := s.places.FindNearbyPlaces(gctx, center, category, ContextRadiusMeters)
				if err != nil {
					logging.LogError(s.logger, "place lookup failed", err,
						slog.String("component", "context_scorer"),
						slog.String("stop_id", st.ID),
						slog.String("category", category))
					return nil
				}
				counts[i][c] = len(places)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

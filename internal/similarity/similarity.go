// Package similarity scores how alike two situation snapshots are and finds
// the stored contexts nearest to a query. The search is a brute-force scan —
// the store is capacity-bounded, so a linear pass stays cheap at tick rates.
package similarity

import (
	"math"
	"sort"

	"github.com/talgya/hindsight/internal/situation"
)

// Weights tunes the per-field contribution to the final score. The score is
// the weighted sum divided by the weight total, so it stays in [0,1] no
// matter which terms are enabled.
type Weights struct {
	Health   float64 // health-ratio closeness, the strongest signal by default
	Position float64 // exponential falloff over grid distance
	Enemies  float64 // nearby-enemy count closeness
	Items    float64 // nearby-item count closeness

	PositionFalloff float64 // grid-distance decay constant
	CountCap        float64 // count delta treated as fully dissimilar
}

// DefaultWeights returns the tuning used by the engine unless overridden.
func DefaultWeights() Weights {
	return Weights{
		Health:          1.5,
		Position:        1.0,
		Enemies:         1.0,
		Items:           0.5,
		PositionFalloff: 5.0,
		CountCap:        5.0,
	}
}

// DefaultThreshold is the minimum score for a stored context to count as
// similar to a query.
const DefaultThreshold = 0.65

// Score computes the weighted similarity of two contexts in [0,1].
// Symmetric, and Score(c, c) == 1.
func Score(a, b situation.Context, w Weights) float64 {
	var sum, total float64

	if w.Health > 0 {
		sum += w.Health * (1.0 - math.Abs(a.Health-b.Health))
		total += w.Health
	}
	if w.Position > 0 {
		dx := float64(a.GridX - b.GridX)
		dy := float64(a.GridY - b.GridY)
		dist := math.Sqrt(dx*dx + dy*dy)
		sum += w.Position * math.Exp(-dist/w.PositionFalloff)
		total += w.Position
	}
	if w.Enemies > 0 {
		sum += w.Enemies * countCloseness(a.NearbyEnemies, b.NearbyEnemies, w.CountCap)
		total += w.Enemies
	}
	if w.Items > 0 {
		sum += w.Items * countCloseness(a.NearbyItems, b.NearbyItems, w.CountCap)
		total += w.Items
	}

	if total == 0 {
		return 0
	}
	return sum / total
}

// countCloseness maps a count delta to [0,1], hitting zero at the cap.
func countCloseness(a, b int, capValue float64) float64 {
	delta := math.Abs(float64(a - b))
	v := 1.0 - delta/capValue
	if v < 0 {
		return 0
	}
	return v
}

// Match is one retrieved neighbor: a stored context key and its score
// against the query.
type Match struct {
	Key   situation.Key
	Score float64
}

// Search scans the stored keys, scores each decoded context against the
// query, and returns at most k matches above threshold, best first.
// Keys that fail to decode are skipped — one corrupt entry must not break
// retrieval for the rest.
func Search(query situation.Context, keys []situation.Key, k int, w Weights, threshold float64) []Match {
	var matches []Match
	for _, key := range keys {
		stored, err := situation.DecodeKey(key)
		if err != nil {
			continue
		}
		score := Score(query, stored, w)
		if score <= threshold {
			continue
		}
		matches = append(matches, Match{Key: key, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Package situation encodes an agent's surroundings into compact,
// comparable context snapshots and canonical keys for experience lookup.
package situation

import "math"

// GridStep is the world-unit size of one grid cell for position quantization.
const GridStep = 4.0

// TimeBucketMinutes is the length of one time-of-day bucket.
const TimeBucketMinutes = 5

// LiveState is the raw per-tick reading from the perception layer.
// Callers are responsible for keeping values finite; ratios are
// clamped to [0,1] when the context is built.
type LiveState struct {
	Health float64 // 0.0–1.0
	Hunger float64 // 0.0–1.0 (1 = sated)
	Thirst float64 // 0.0–1.0 (1 = sated)

	X, Y float64 // world position

	NearbyEnemies int
	NearbyItems   int
	NearbyNPCs    int

	HasWeapon bool
	ItemCount int // inventory summary

	MinuteOfDay int // 0–1439
}

// Context is an immutable snapshot of an agent's situation. Built once per
// update interval, compared against stored contexts, never mutated.
type Context struct {
	Health float64
	Hunger float64
	Thirst float64

	GridX int // X / GridStep, floored
	GridY int

	NearbyEnemies int
	NearbyItems   int
	NearbyNPCs    int

	HasWeapon bool
	ItemCount int

	TimeBucket int
}

// BuildContext quantizes a live reading into a Context snapshot.
func BuildContext(live LiveState) Context {
	return Context{
		Health:        clamp01(live.Health),
		Hunger:        clamp01(live.Hunger),
		Thirst:        clamp01(live.Thirst),
		GridX:         int(math.Floor(live.X / GridStep)),
		GridY:         int(math.Floor(live.Y / GridStep)),
		NearbyEnemies: nonNegative(live.NearbyEnemies),
		NearbyItems:   nonNegative(live.NearbyItems),
		NearbyNPCs:    nonNegative(live.NearbyNPCs),
		HasWeapon:     live.HasWeapon,
		ItemCount:     nonNegative(live.ItemCount),
		TimeBucket:    nonNegative(live.MinuteOfDay) / TimeBucketMinutes,
	}
}

// Discretized returns a copy of c with the continuous ratios snapped to the
// tenth-buckets used by key encoding. decode(encode(c)) == c.Discretized().
func (c Context) Discretized() Context {
	c.Health = float64(ratioBucket(c.Health)) / 10.0
	c.Hunger = float64(ratioBucket(c.Hunger)) / 10.0
	c.Thirst = float64(ratioBucket(c.Thirst)) / 10.0
	return c
}

// ratioBucket maps a [0,1] ratio to a tenth-bucket 0–10.
func ratioBucket(r float64) int {
	b := int(math.Round(clamp01(r) * 10))
	if b > 10 {
		b = 10
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

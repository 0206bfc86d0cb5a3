// Package arena is a small survival world that exercises the experience
// engine end to end: agents perceive terrain and threats, act on a scripted
// baseline policy biased by engine suggestions, and feed outcomes back in.
package arena

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// World holds static terrain fields generated from layered simplex noise.
// Food and water mark where agents can eat and drink; hazard marks ground
// that damages anyone standing on it.
type World struct {
	Width  int
	Height int

	food   []float64
	water  []float64
	hazard []float64
}

// Terrain field thresholds: a cell counts as food/water/hazard when its
// noise value clears these.
const (
	FoodThreshold   = 0.62
	WaterThreshold  = 0.68
	HazardThreshold = 0.78
)

// NewWorld generates terrain from a seed. Three independent noise layers,
// multi-octave for natural clustering.
func NewWorld(width, height int, seed int64) *World {
	foodNoise := opensimplex.NewNormalized(seed)
	waterNoise := opensimplex.NewNormalized(seed + 1)
	hazardNoise := opensimplex.NewNormalized(seed + 2)

	w := &World{
		Width:  width,
		Height: height,
		food:   make([]float64, width*height),
		water:  make([]float64, width*height),
		hazard: make([]float64, width*height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx, fy := float64(x), float64(y)
			i := y*width + x
			w.food[i] = octaveNoise(foodNoise, fx, fy, 3, 0.08, 0.5)
			w.water[i] = octaveNoise(waterNoise, fx, fy, 3, 0.06, 0.5)
			w.hazard[i] = octaveNoise(hazardNoise, fx, fy, 2, 0.10, 0.5)
		}
	}

	return w
}

// octaveNoise layers noise octaves with halving amplitude, normalized to [0,1].
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	var sum, amp, max float64
	amp = 1.0
	for o := 0; o < octaves; o++ {
		sum += amp * n.Eval2(x*freq, y*freq)
		max += amp
		amp *= persistence
		freq *= 2
	}
	return sum / max
}

func (w *World) index(x, y int) int {
	if x < 0 {
		x = 0
	}
	if x >= w.Width {
		x = w.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= w.Height {
		y = w.Height - 1
	}
	return y*w.Width + x
}

// HasFood reports whether the cell offers forageable food.
func (w *World) HasFood(x, y int) bool {
	return w.food[w.index(x, y)] >= FoodThreshold
}

// HasWater reports whether the cell offers drinkable water.
func (w *World) HasWater(x, y int) bool {
	return w.water[w.index(x, y)] >= WaterThreshold
}

// HazardAt returns the hazard intensity of the cell, 0 when below threshold.
func (w *World) HazardAt(x, y int) float64 {
	v := w.hazard[w.index(x, y)]
	if v < HazardThreshold {
		return 0
	}
	return v
}

// Clamp snaps a position into world bounds.
func (w *World) Clamp(x, y float64) (float64, float64) {
	if x < 0 {
		x = 0
	}
	if x > float64(w.Width-1) {
		x = float64(w.Width - 1)
	}
	if y < 0 {
		y = 0
	}
	if y > float64(w.Height-1) {
		y = float64(w.Height - 1)
	}
	return x, y
}

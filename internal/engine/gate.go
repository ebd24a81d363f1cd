// SPDX-License-Identifier: MIT
package engine

import (
	"math"
	"sync/atomic"
)

// Gate is a noise gate processor: blocks whose peak amplitude stays
// below the threshold are zeroed, everything else passes untouched.
// Usable per-stream or on the mixed output.
type Gate struct {
	threshold atomic.Uint32 // float32 bits, 0=always open, 1=always closed
}

// NewGate creates a gate with the given threshold in [0,1].
func NewGate(threshold float32) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	return g
}

// SetThreshold adjusts the gate threshold, clamped to [0,1].
func (g *Gate) SetThreshold(threshold float32) {
	g.threshold.Store(math.Float32bits(clamp01(threshold)))
}

// Threshold returns the current gate threshold.
func (g *Gate) Threshold() float32 {
	return math.Float32frombits(g.threshold.Load())
}

// Process zeroes the block when its peak amplitude is below the
// threshold. Hot path: no allocations, no branching on sample sign.
func (g *Gate) Process(samples []float32, frames int) {
	threshold := g.Threshold()
	if threshold <= 0 {
		return
	}

	var peak float32
	for _, v := range samples {
		a := math.Float32frombits(math.Float32bits(v) &^ (1 << 31)) // abs without branching
		if a > peak {
			peak = a
		}
	}

	if peak < threshold {
		for i := range samples {
			samples[i] = 0
		}
	}
}

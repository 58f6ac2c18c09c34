package dune

import (
	"math"
	"testing"

	pkgcore "sand-dune/pkg/core"
)

// constSource is a rand.Source that always yields the same value. A zero
// source makes every Float64 draw 0 (always below a positive reject
// probability); a saturated one makes every draw just under 1.
type constSource uint64

func (s constSource) Uint64() uint64 { return uint64(s) }

const (
	alwaysLow  = constSource(0)
	alwaysHigh = constSource(^uint64(0))
)

func testConfig(w, h int) Config {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	cfg.Seed = 99
	return cfg
}

func newScriptedWorld(cfg Config, src constSource) *World {
	return NewWithRNG(cfg, pkgcore.NewRNGFromSource(src))
}

// columnCentre returns an x coordinate inside column i.
func columnCentre(w *World, i int) float64 {
	return (float64(i) + 0.5) * w.colW
}

func diameterSum(w *World) float64 {
	total := 0.0
	for _, stack := range w.grains {
		for _, g := range stack {
			total += g.Diameter()
		}
	}
	return total
}

func approxEqual(t *testing.T, got, want float64, what string) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s: got %.12f, want %.12f", what, got, want)
	}
}

package dune

import (
	"image/color"
	"math"
	"time"
)

// Grain is a settled particle owned by exactly one column.
type Grain struct {
	X, Y, R float64
	Color   color.RGBA
	Column  int

	// LockUntil is the simulation time before which relaxation may not move
	// the grain.
	LockUntil time.Duration
	// Stability grows every tick while the grain is mobile and is reset when
	// relaxation relocates it.
	Stability float64
	// Immobile is set once and never cleared.
	Immobile  bool
	SettledAt time.Duration
}

// Diameter is the height the grain contributes to its column.
func (g *Grain) Diameter() float64 { return 2 * g.R }

// Particle is a falling entity not yet owned by any column.
type Particle struct {
	X, Y   float64
	VX, VY float64
	AX, AY float64
	R      float64
	Color  color.RGBA
	Born   time.Duration
}

func (p *Particle) applyForce(fx, fy float64) {
	p.AX += fx
	p.AY += fy
}

// integrate advances one explicit Euler step and applies drag.
func (p *Particle) integrate(drag float64) {
	p.VX += p.AX
	p.VY += p.AY
	p.X += p.VX
	p.Y += p.VY
	p.AX, p.AY = 0, 0
	p.VX *= drag
	p.VY *= drag
}

// columnOf maps a horizontal position to a column index clamped to the grid.
func (w *World) columnOf(x float64) int {
	return clampInt(int(math.Floor(x/w.colW)), 0, w.cols-1)
}

// neighborHeights returns the heights left of, at and right of column i. A
// missing neighbour at the grid edge reports the centre height.
func (w *World) neighborHeights(i int) (left, center, right float64) {
	center = w.heights[i]
	left, right = center, center
	if i > 0 {
		left = w.heights[i-1]
	}
	if i < w.cols-1 {
		right = w.heights[i+1]
	}
	return left, center, right
}

// columnBand returns the horizontal range grains of column i may occupy.
func (w *World) columnBand(i int) (lo, hi float64) {
	return float64(i)*w.colW + 1, float64(i+1)*w.colW - 1
}

// surfaceY is the vertical centre of a grain of radius r resting on top of
// column i.
func (w *World) surfaceY(i int, r float64) float64 {
	return math.Round(float64(w.h) - w.heights[i] - r)
}

func (w *World) topGrain(i int) *Grain {
	stack := w.grains[i]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

func (w *World) pushGrain(i int, g *Grain) {
	g.Column = i
	w.grains[i] = append(w.grains[i], g)
	w.heights[i] += g.Diameter()
}

func (w *World) popGrain(i int) *Grain {
	stack := w.grains[i]
	g := stack[len(stack)-1]
	stack[len(stack)-1] = nil
	w.grains[i] = stack[:len(stack)-1]
	w.heights[i] -= g.Diameter()
	return g
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		// Degenerate band (columns narrower than 2px): use its centre.
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

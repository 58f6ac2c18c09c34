package dune

import "math"

const (
	// maxRejectProb caps the reject probability after the absolute-height bias.
	maxRejectProb = 0.98
	// viewportFill is the fraction of the viewport at which a column receives
	// the full absolute-height bias.
	viewportFill = 0.85
	// lateralOverride is the bias magnitude beyond which the hint chooses the
	// redirect side.
	lateralOverride = 0.2
	// snapSpread is how far, in column widths, a settling grain may land from
	// the particle's horizontal position.
	snapSpread = 0.8
	snapJitter = 0.4
)

// rejectProbability is the chance that a particle contacting column ci is
// redirected to a neighbour, rising with the column's excess over its
// neighbours and with its absolute height.
func (w *World) rejectProbability(ci int) float64 {
	prm := &w.cfg.Params
	left, center, right := w.neighborHeights(ci)
	maxDiff := math.Max(center-left, center-right)

	prob := 0.0
	t := prm.HeightBiasThreshold
	if maxDiff > t {
		window := 4 * t
		scaled := 1.0
		if window > 0 {
			scaled = clamp((maxDiff-t)/window, 0, 1)
		}
		prob = scaled * prm.HeightRejectMaxProb
	}

	absBias := clamp(center/(float64(w.h)*viewportFill), 0, 1)
	return clamp(prob*(0.6+0.4*absBias), 0, maxRejectProb)
}

// trySettle converts p into a grain at ci or, when the column is noticeably
// taller than its neighbours, possibly at a lower neighbour. It always
// commits: rejection changes where the grain lands, not whether it lands.
func (w *World) trySettle(p *Particle, ci int, lateral float64) bool {
	left, _, right := w.neighborHeights(ci)
	reject := w.rejectProbability(ci)

	if w.rng.Float64() < reject {
		target := ci
		if left < right && ci > 0 {
			target = ci - 1
		} else if right < left && ci < w.cols-1 {
			target = ci + 1
		}
		if lateral < -lateralOverride && ci > 0 {
			target = ci - 1
		}
		if lateral > lateralOverride && ci < w.cols-1 {
			target = ci + 1
		}
		if target != ci && w.heights[target]+p.R*2 < float64(w.h) {
			w.settleAt(p, target)
			return true
		}
	}

	// Overflowing the contact column is tolerated: height is a soft bound.
	w.settleAt(p, ci)
	return true
}

// forceSettle converts a particle that outlived its lifetime into a grain at
// its current column without a redirect draw.
func (w *World) forceSettle(p *Particle) {
	w.settleAt(p, w.columnOf(p.X))
}

// settleAt appends a grain built from p on top of column ci. The grain is
// loosely snapped: it keeps roughly the particle's horizontal position,
// constrained to the column's band.
func (w *World) settleAt(p *Particle, ci int) *Grain {
	prm := &w.cfg.Params
	lo, hi := w.columnBand(ci)
	offset := w.colW * snapSpread
	x := clamp(p.X+w.rng.Range(-offset, offset), lo, hi)
	x += w.rng.Range(-snapJitter, snapJitter)

	g := &Grain{
		X:         x,
		Y:         w.surfaceY(ci, p.R),
		R:         p.R,
		Color:     p.Color,
		LockUntil: w.now + prm.GrainLock,
		SettledAt: w.now,
	}
	w.pushGrain(ci, g)
	w.settled++
	return g
}

// lateralBias suggests a sideways direction for a particle touching down on
// column ci: toward a clearly lower neighbour, overridden by the particle's
// own horizontal motion, with a little noise. Missing neighbours count as
// infinitely tall.
func (w *World) lateralBias(ci int, p *Particle) float64 {
	left, right := math.Inf(1), math.Inf(1)
	if ci > 0 {
		left = w.heights[ci-1]
	}
	if ci < w.cols-1 {
		right = w.heights[ci+1]
	}
	pref := 0.0
	if left+0.5 < right {
		pref = -1
	} else if right+0.5 < left {
		pref = 1
	}
	if p.VX < -0.25 {
		pref = -1
	}
	if p.VX > 0.25 {
		pref = 1
	}
	return pref + w.rng.Range(-0.2, 0.2)
}

// lateralFromGrain is the sideways nudge given by a collision near column ci.
func (w *World) lateralFromGrain(ci int) float64 {
	left, right := math.Inf(1), math.Inf(1)
	if ci > 0 {
		left = w.heights[ci-1]
	}
	if ci < w.cols-1 {
		right = w.heights[ci+1]
	}
	if left+0.3 < right {
		return -0.6
	}
	if right+0.3 < left {
		return 0.6
	}
	return w.rng.Range(-0.04, 0.04)
}

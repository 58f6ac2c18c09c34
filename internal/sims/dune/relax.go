package dune

// relaxStats counts what one relaxation pass did.
type relaxStats struct {
	migrated    int
	transferred int
}

// relaxPass walks every adjacent column pair once and levels pairs whose
// difference exceeds the critical slope. Only nearest neighbours interact, so
// a steep profile flattens over several passes rather than instantly.
func (w *World) relaxPass() relaxStats {
	var stats relaxStats
	slope := w.cfg.Params.CriticalSlope
	for i := 0; i < w.cols-1; i++ {
		diff := w.heights[i] - w.heights[i+1]
		switch {
		case diff > slope:
			w.relaxPair(i, i+1, diff, &stats)
		case -diff > slope:
			w.relaxPair(i+1, i, -diff, &stats)
		}
	}
	if stats.migrated+stats.transferred > 0 {
		logger.Tracef("relax pass at tick %d: %d migrated, %d transferred", w.ticks, stats.migrated, stats.transferred)
	}
	return stats
}

// relaxPair moves material from the taller column src to its neighbour dst,
// where diff = height[src] - height[dst] > 0. The top grain migrates when it
// is eligible; otherwise a small amount of bare height is transferred so that
// low-occupancy or locked columns still relax. Neither path can invert the
// sign of the difference.
func (w *World) relaxPair(src, dst int, diff float64, stats *relaxStats) {
	if g := w.topGrain(src); g != nil && w.canMigrate(g, diff) {
		w.migrate(src, dst)
		stats.migrated++
		return
	}
	move := min(w.cfg.Params.FallbackTransfer, diff/2, w.heights[src])
	if move <= 0 {
		return
	}
	w.heights[src] -= move
	w.heights[dst] += move
	stats.transferred++
}

// canMigrate reports whether g may be relocated across a step of height diff.
// A migration changes the difference by twice the grain's diameter, so grains
// too large for the step stay put.
func (w *World) canMigrate(g *Grain, diff float64) bool {
	if g.Immobile {
		return false
	}
	if g.LockUntil > w.now {
		return false
	}
	if g.Stability >= w.cfg.Params.StabilityThreshold {
		return false
	}
	return 2*g.Diameter() <= diff
}

// migrate moves the top grain of src onto dst, re-arming its lock and
// restarting its stability.
func (w *World) migrate(src, dst int) *Grain {
	g := w.popGrain(src)
	lo, hi := w.columnBand(dst)
	g.X = clamp(g.X+float64(dst-src)*w.colW, lo, hi)
	g.LockUntil = w.now + w.cfg.Params.GrainLock
	g.Stability = 0
	g.Y = w.surfaceY(dst, g.R)
	w.pushGrain(dst, g)
	return g
}

package dune

// advanceStability ages every mobile grain and freezes those that are stable
// or old enough. It returns how many grains froze this tick.
func (w *World) advanceStability() int {
	prm := &w.cfg.Params
	frozen := 0
	for _, stack := range w.grains {
		for _, g := range stack {
			if g.Immobile {
				continue
			}
			g.Stability = min(1, g.Stability+prm.StabilityIncrement)
			if g.Stability >= prm.StabilityThreshold || w.now-g.SettledAt >= prm.GrainFreezeAfter {
				w.freeze(g)
				frozen++
			}
		}
	}
	return frozen
}

// freeze makes g permanently immobile and paints it into the terrain raster.
// Freezing an already immobile grain does nothing.
func (w *World) freeze(g *Grain) {
	if g.Immobile {
		return
	}
	g.Immobile = true
	g.Stability = 1
	w.terrain.FillCircle(g.X, g.Y, g.R, grainRasterColor(g.Color))
}

package dune

import "math"

const (
	// terrainProbeDepth is how many pixels below a particle are sampled for
	// frozen terrain.
	terrainProbeDepth = 2
	// terrainAlphaCutoff is the opacity above which a pixel counts as terrain.
	terrainAlphaCutoff = 12
	terrainLift        = 0.12
	terrainJitter      = 0.04

	grainYield     = 0.03
	collisionDrag  = 0.99
	bounceFraction = 0.6
)

// collideWithGrains pushes p out of the first mobile grain it overlaps among
// the topmost grains of its own and neighbouring columns. Only a bounded
// window of each stack is examined: buried grains cannot be reached by a
// falling particle. The grain yields slightly in return.
func (w *World) collideWithGrains(p *Particle) bool {
	prm := &w.cfg.Params
	ci := w.columnOf(p.X)
	for di := -1; di <= 1; di++ {
		ni := ci + di
		if ni < 0 || ni >= w.cols {
			continue
		}
		stack := w.grains[ni]
		stop := max(0, len(stack)-prm.CollisionWindow)
		for k := len(stack) - 1; k >= stop; k-- {
			g := stack[k]
			if g.Immobile {
				continue
			}
			dx, dy := p.X-g.X, p.Y-g.Y
			d := math.Hypot(dx, dy)
			minD := (p.R + g.R) * prm.CollisionReach
			if d <= 0 || d >= minD {
				continue
			}
			nx, ny := dx/d, dy/d
			overlap := minD - d
			p.X += nx * overlap * 0.5
			p.Y += ny * overlap * 0.5

			bounce := prm.CollideStrength * bounceFraction * (p.R / (prm.MaxRadius + 0.001))
			p.VX += nx * bounce
			p.VY += ny * bounce
			p.VX += w.lateralFromGrain(ni) * prm.LateralBase * 0.5

			g.X -= nx * grainYield
			g.Y -= ny * grainYield

			p.VX *= collisionDrag
			p.VY *= collisionDrag
			return true
		}
	}
	return false
}

// repulseFromTerrain nudges p upward when frozen terrain lies just below it.
// This stands in for exact collision against rasterized grains.
func (w *World) repulseFromTerrain(p *Particle) bool {
	px := int(math.Floor(clamp(p.X, 0, float64(w.w-1))))
	py := int(math.Floor(clamp(p.Y, 0, float64(w.h-1))))
	for dy := 0; dy <= terrainProbeDepth; dy++ {
		y := py + dy
		if y >= w.h {
			break
		}
		if w.terrain.AlphaAt(px, y) > terrainAlphaCutoff {
			p.VY -= terrainLift
			p.VX += w.rng.Range(-terrainJitter, terrainJitter)
			return true
		}
	}
	return false
}

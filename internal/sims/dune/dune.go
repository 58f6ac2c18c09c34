package dune

import (
	"image"
	"image/color"
	"math"
	"slices"
	"time"

	"github.com/juju/loggo"

	"sand-dune/internal/core"
	pkgcore "sand-dune/pkg/core"
)

var logger = loggo.GetLogger("dune.sim")

const (
	// minColumns keeps tiny viewports usable.
	minColumns = 12
	// outOfBoundsMargin is how far past the viewport a particle may travel
	// before it is discarded.
	outOfBoundsMargin = 400
)

// World is the complete state of one dune simulation. It is owned by a single
// driver goroutine; nothing in it is safe for concurrent use.
type World struct {
	cfg Config

	w, h int
	cols int
	colW float64

	heights   []float64
	grains    [][]*Grain
	particles []*Particle
	terrain   *Terrain

	baseColor color.RGBA

	rng        *pkgcore.RNG
	now        time.Duration
	ticks      int
	relaxTimer int

	settled int
}

// New returns a dune simulation with the provided viewport using defaults.
func New(w, h int) *World {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig returns a world configured from the provided options, seeded
// from cfg.Seed.
func NewWithConfig(cfg Config) *World {
	return NewWithRNG(cfg, pkgcore.NewRNG(cfg.Seed))
}

// NewWithRNG returns a world that draws every random decision from rng.
func NewWithRNG(cfg Config, rng *pkgcore.RNG) *World {
	cfg.Params = cfg.Params.normalized()
	if cfg.BaseColor == (color.RGBA{}) {
		cfg.BaseColor = DefaultBaseColor
	}
	w := &World{
		cfg:       cfg,
		colW:      cfg.Params.ColumnWidth,
		baseColor: cfg.BaseColor,
		rng:       rng,
	}
	w.allocate(cfg.Width, cfg.Height)
	return w
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "dune" }

// Size reports the viewport dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.w, H: w.h} }

// Config returns the active configuration, including HUD adjustments.
func (w *World) Config() Config {
	cfg := w.cfg
	cfg.Width, cfg.Height = w.w, w.h
	return cfg
}

// Now returns the elapsed simulation time since the last reset.
func (w *World) Now() time.Duration { return w.now }

// Ticks returns the number of steps since the last reset.
func (w *World) Ticks() int { return w.ticks }

// Columns returns the number of columns in the height table.
func (w *World) Columns() int { return w.cols }

// Reset empties the world and reseeds the random source. A zero seed reuses
// the configured one.
func (w *World) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = w.cfg.Seed
	}
	w.rng.Seed(effective)
	w.baseColor = w.cfg.BaseColor
	w.allocate(w.w, w.h)
	logger.Debugf("reset with seed %d (%dx%d, %d columns)", effective, w.w, w.h, w.cols)
}

// Resize rebuilds the world for a new viewport. Terrain is not preserved.
func (w *World) Resize(width, height int) {
	if width == w.w && height == w.h {
		return
	}
	w.allocate(width, height)
	logger.Debugf("resized to %dx%d, %d columns", w.w, w.h, w.cols)
}

func (w *World) allocate(width, height int) {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	w.w, w.h = width, height
	w.cols = max(minColumns, int(math.Floor(float64(width)/w.colW)))
	w.heights = make([]float64, w.cols)
	w.grains = make([][]*Grain, w.cols)
	clear(w.particles)
	w.particles = w.particles[:0]
	w.terrain = newTerrain(width, height)
	w.now = 0
	w.ticks = 0
	w.relaxTimer = 0
	w.settled = 0
}

// Spawn creates one particle near (x, y). It reports false when the particle
// set is at capacity.
func (w *World) Spawn(x, y float64) bool {
	prm := &w.cfg.Params
	if len(w.particles) >= prm.MaxParticles {
		return false
	}
	sx := clamp(x+w.rng.Range(-prm.SpawnJitterX, prm.SpawnJitterX), 0, float64(w.w-1))
	sy := clamp(y+w.rng.Range(-prm.SpawnJitterY, prm.SpawnJitterY), 0, float64(w.h-1))
	p := &Particle{
		X:    sx,
		Y:    sy,
		VX:   w.rng.Range(-0.6, 0.6),
		VY:   w.rng.Range(-1.6, -0.6),
		Born: w.now,
	}
	if w.rng.Float64() < prm.LargeChance {
		p.R = w.rng.Range(prm.LargeMinRadius, prm.LargeMaxRadius)
	} else {
		p.R = w.rng.Range(prm.MinRadius, prm.MaxRadius)
	}
	p.Color = colorVariant(w.rng, w.baseColor)
	w.particles = append(w.particles, p)
	return true
}

// SpawnBurst performs SpawnRate spawn attempts near (x, y) and returns how many
// particles were created.
func (w *World) SpawnBurst(x, y float64) int {
	n := 0
	for i := 0; i < w.cfg.Params.SpawnRate; i++ {
		if w.Spawn(x, y) {
			n++
		}
	}
	return n
}

// Step advances the simulation by one tick: particles, then relaxation, then
// stability.
func (w *World) Step() {
	if w.cols == 0 {
		return
	}
	prm := &w.cfg.Params
	w.now += prm.TickDuration
	w.ticks++

	for i := len(w.particles) - 1; i >= 0; i-- {
		if w.stepParticle(w.particles[i]) {
			w.particles = slices.Delete(w.particles, i, i+1)
		}
	}

	w.relaxTimer++
	if w.relaxTimer >= prm.RelaxInterval {
		for pass := 0; pass < prm.RelaxPasses; pass++ {
			w.relaxPass()
		}
		w.relaxTimer = 0
	}

	w.advanceStability()
}

// stepParticle moves one particle and reports whether it left the particle
// set.
func (w *World) stepParticle(p *Particle) bool {
	prm := &w.cfg.Params
	if w.now-p.Born >= prm.FreezeAfter {
		w.forceSettle(p)
		return true
	}

	p.applyForce(0, prm.Gravity)
	p.integrate(prm.Drag)

	w.repulseFromTerrain(p)
	w.collideWithGrains(p)

	ci := w.columnOf(p.X)
	ground := float64(w.h) - w.heights[ci]
	if p.Y+p.R >= ground {
		lateral := w.lateralBias(ci, p)
		if math.Abs(p.VY) > prm.BounceSpeed {
			p.VY *= -prm.BounceRestitution
			p.VX += lateral * prm.LateralBase * (p.R / (prm.MaxRadius + 0.001))
			return false
		}
		return w.trySettle(p, ci, lateral)
	}

	fw, fh := float64(w.w), float64(w.h)
	if p.Y > fh+outOfBoundsMargin || p.X < -outOfBoundsMargin || p.X > fw+outOfBoundsMargin {
		return true
	}
	return false
}

// GrainView is the render-feed projection of a mobile grain.
type GrainView struct {
	X, Y, R   float64
	Color     color.RGBA
	Stability float64
}

// ParticleView is the render-feed projection of a falling particle.
type ParticleView struct {
	X, Y, R float64
	Color   color.RGBA
}

// MobileGrains appends every grain that has not frozen yet to dst.
func (w *World) MobileGrains(dst []GrainView) []GrainView {
	for _, stack := range w.grains {
		for _, g := range stack {
			if g.Immobile {
				continue
			}
			dst = append(dst, GrainView{X: g.X, Y: g.Y, R: g.R, Color: g.Color, Stability: g.Stability})
		}
	}
	return dst
}

// Particles appends every falling particle to dst.
func (w *World) Particles(dst []ParticleView) []ParticleView {
	for _, p := range w.particles {
		dst = append(dst, ParticleView{X: p.X, Y: p.Y, R: p.R, Color: p.Color})
	}
	return dst
}

// Terrain exposes the frozen-grain raster.
func (w *World) Terrain() *Terrain { return w.terrain }

// TerrainImage exposes the frozen-grain pixels. Callers must not modify them.
func (w *World) TerrainImage() *image.RGBA { return w.terrain.Image() }

// Heights exposes the column height table. Callers must not modify it.
func (w *World) Heights() []float64 { return w.heights }

// ParticleCount returns the number of falling particles.
func (w *World) ParticleCount() int { return len(w.particles) }

// MobileGrainCount returns the number of grains that have not frozen yet.
func (w *World) MobileGrainCount() int {
	n := 0
	for _, stack := range w.grains {
		for _, g := range stack {
			if !g.Immobile {
				n++
			}
		}
	}
	return n
}

// GrainCount returns the number of grains in all columns.
func (w *World) GrainCount() int {
	n := 0
	for _, stack := range w.grains {
		n += len(stack)
	}
	return n
}

// SettledCount returns how many particles became grains since the last reset.
func (w *World) SettledCount() int { return w.settled }

// TotalHeight sums the column height table.
func (w *World) TotalHeight() float64 {
	total := 0.0
	for _, h := range w.heights {
		total += h
	}
	return total
}

func init() {
	core.Register("dune", func(cfg map[string]string) core.Sim {
		return NewWithConfig(FromMap(cfg))
	})
	core.Register("dune-fine", func(cfg map[string]string) core.Sim {
		return NewWithConfig(ApplyMap(FineConfig(), cfg))
	})
}
